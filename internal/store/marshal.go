package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/wherekit/internal/ir"
)

// marshalParams converts compiled SQL parameters to canonical JSON TEXT.
// Parameters are the scalar values produced by querysql: string, int64,
// bool or nil.
func marshalParams(params []any) (string, error) {
	if params == nil {
		params = []any{}
	}
	data, err := ir.MarshalCanonical(params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

// unmarshalParams parses stored parameters back to SQL arguments.
// Numbers are decoded via json.Number so integers above 2^53 keep their
// precision.
func unmarshalParams(data string) ([]any, error) {
	if data == "" || data == "[]" {
		return []any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}

	out := make([]any, len(raw))
	for i, v := range raw {
		switch val := v.(type) {
		case json.Number:
			n, err := val.Int64()
			if err != nil {
				return nil, fmt.Errorf("unmarshal params: [%d]: %w", i, err)
			}
			out[i] = n
		case string, bool, nil:
			out[i] = val
		default:
			return nil, fmt.Errorf("unmarshal params: [%d]: unsupported type %T", i, v)
		}
	}
	return out, nil
}
