package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/wherekit/internal/ir"
)

// Snapshot is the part of a Result that golden files record.
type Snapshot struct {
	ScenarioName string
	Where        string
	SQL          string
	Params       []any
	Trace        []TraceEvent
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization, since ir.MarshalCanonical only handles IR types and
// primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":   event.Seq,
			"op":    event.Op,
			"where": event.Where,
			"depth": event.Depth,
		}
		if event.Detail != "" {
			eventMap["detail"] = event.Detail
		}
		traceList[i] = eventMap
	}

	params := s.Params
	if params == nil {
		params = []any{}
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"where":         s.Where,
		"sql":           s.SQL,
		"params":        params,
		"trace":         traceList,
	}
}

// MarshalSnapshot renders the golden form of a result as canonical JSON.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Where:        result.Where,
		SQL:          result.SQL,
		Params:       result.Params,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the result against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
