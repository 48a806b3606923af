package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/wherekit/internal/harness"
)

var scenarioFields = map[string]bool{
	"description":   true,
	"steps":         true,
	"expect":        true,
	"expect_sql":    true,
	"expect_params": true,
}

var stepFields = map[string]bool{
	"op":       true,
	"column":   true,
	"cmp":      true,
	"value":    true,
	"operator": true,
	"sql":      true,
	"args":     true,
}

// CompileScenarios compiles every struct under the top-level "scenario"
// field, in declaration order. It stops at the first error.
//
//	scenario: or_group: {
//		description: "A single OR group"
//		steps: [
//			{op: "where", column: "A", value: 1},
//			{op: "open", operator: "or"},
//			{op: "where", column: "B", value: 2},
//			{op: "where", column: "C", value: 3},
//			{op: "close"},
//		]
//		expect: "A=1 AND (B=2 OR C=3)"
//	}
func CompileScenarios(v cue.Value) ([]*harness.Scenario, error) {
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("scenario"))
	if !root.Exists() {
		return nil, nil
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var scenarios []*harness.Scenario
	for iter.Next() {
		s, err := CompileScenario(iter.Value())
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// CompileScenario parses one CUE scenario struct. The scenario name is the
// struct's label.
func CompileScenario(v cue.Value) (*harness.Scenario, error) {
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}
	if v.Kind() != cue.StructKind {
		return nil, &CompileError{Field: "scenario", Message: "must be a struct", Pos: v.Pos()}
	}
	if err := checkFields(v, "scenario", scenarioFields); err != nil {
		return nil, err
	}

	s := &harness.Scenario{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		s.Name = labels[len(labels)-1].String()
	}

	var err error
	if s.Description, err = requiredString(v, "description"); err != nil {
		return nil, err
	}
	if s.Steps, err = parseSteps(v); err != nil {
		return nil, err
	}
	if s.Expect, err = optionalString(v, "expect"); err != nil {
		return nil, err
	}
	if s.ExpectSQL, err = optionalString(v, "expect_sql"); err != nil {
		return nil, err
	}

	paramsVal := v.LookupPath(cue.ParsePath("expect_params"))
	if paramsVal.Exists() {
		s.ExpectParams, err = decodeList(paramsVal, "expect_params")
		if err != nil {
			return nil, err
		}
	}

	if err := harness.Validate(s); err != nil {
		return nil, &CompileError{Field: "scenario", Message: err.Error(), Pos: v.Pos()}
	}
	return s, nil
}

// parseSteps extracts the ordered step list.
func parseSteps(v cue.Value) ([]harness.Step, error) {
	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, &CompileError{
			Field:   "steps",
			Message: "steps is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := stepsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var steps []harness.Step
	for iter.Next() {
		step, err := parseStep(iter.Value())
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func parseStep(v cue.Value) (harness.Step, error) {
	var step harness.Step

	if v.Kind() != cue.StructKind {
		return step, &CompileError{Field: "steps", Message: "step must be a struct", Pos: v.Pos()}
	}
	if err := checkFields(v, "steps", stepFields); err != nil {
		return step, err
	}

	var err error
	if step.Op, err = requiredString(v, "op"); err != nil {
		return step, err
	}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"column", &step.Column},
		{"cmp", &step.Cmp},
		{"operator", &step.Operator},
		{"sql", &step.SQL},
	} {
		s, err := optionalString(v, f.name)
		if err != nil {
			return step, err
		}
		if s != nil {
			*f.dst = *s
		}
	}

	if valueVal := v.LookupPath(cue.ParsePath("value")); valueVal.Exists() {
		if step.Value, err = decodeValue(valueVal, "value"); err != nil {
			return step, err
		}
	}
	if argsVal := v.LookupPath(cue.ParsePath("args")); argsVal.Exists() {
		if step.Args, err = decodeList(argsVal, "args"); err != nil {
			return step, err
		}
	}
	return step, nil
}

// checkFields rejects labels outside allowed. CUE structs are open by
// default, so typos would otherwise be silently ignored.
func checkFields(v cue.Value, field string, allowed map[string]bool) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Selector().String()
		if !allowed[label] {
			return &CompileError{
				Field:   field,
				Message: fmt.Sprintf("unknown field %q", label),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}

func requiredString(v cue.Value, field string) (string, error) {
	s, err := optionalString(v, field)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	return *s, nil
}

// optionalString returns nil when the field is absent.
func optionalString(v cue.Value, field string) (*string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	s, err := fv.String()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("must be a string: %v", err),
			Pos:     fv.Pos(),
		}
	}
	return &s, nil
}

// decodeValue converts a concrete CUE value into the plain Go values the
// harness expects (int64, string, bool, nil and []any).
// Floats are forbidden - use int instead.
func decodeValue(v cue.Value, field string) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return n, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil
	case cue.ListKind:
		return decodeList(v, field)
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   field,
			Message: "float values are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	case cue.BottomKind:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("value must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func decodeList(v cue.Value, field string) ([]any, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("must be a list: %v", err),
			Pos:     v.Pos(),
		}
	}
	out := []any{}
	for i := 0; iter.Next(); i++ {
		elem, err := decodeValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
	}
	return out, nil
}
