package harness

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/wherekit/internal/criteria"
	"github.com/roach88/wherekit/internal/ir"
	"github.com/roach88/wherekit/internal/predicate"
	"github.com/roach88/wherekit/internal/testutil"
)

// runner applies steps to a criteria. current differs from root while a
// sub-query is in use.
type runner struct {
	root    *criteria.Criteria
	current *criteria.Criteria
	clock   *testutil.DeterministicClock
}

// Run executes a scenario and returns the result.
//
// Each scenario starts from an empty criteria.Criteria. Trace seq values come
// from a fresh deterministic clock, so runs of the same scenario produce
// identical results.
//
// A step that cannot be applied (an unconvertible value) is an error.
// Expectation mismatches are reported in Result.Errors instead.
func Run(scenario *Scenario) (*Result, error) {
	if err := Validate(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	r := &runner{
		root:  criteria.New(),
		clock: testutil.NewDeterministicClock(),
	}
	r.current = r.root

	result := NewResult()
	for i, step := range scenario.Steps {
		detail, err := r.apply(step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
		result.AddTrace(r.clock.Next(), step.Op, detail, r.current.String(), r.current.Combiner().Depth())
	}
	if r.current != r.root {
		result.AddError("sub-query was not ended")
	}

	result.Criteria = r.root
	result.Where = r.root.String()
	sql, params, err := r.root.WhereSQL()
	if err != nil {
		result.AddError(err.Error())
	} else {
		result.SQL = sql
		if params != nil {
			result.Params = params
		}
	}

	checkExpectations(scenario, result)

	if result.Pass {
		slog.Info("scenario passed", "scenario", scenario.Name, "steps", len(scenario.Steps))
	} else {
		slog.Warn("scenario failed", "scenario", scenario.Name, "errors", len(result.Errors))
	}
	return result, nil
}

// apply runs one step and returns a short description of it for the trace.
func (r *runner) apply(step Step) (string, error) {
	c := r.current

	switch step.Op {
	case OpWhere, OpAddAnd, OpAddOr:
		value, err := ir.FromAny(step.Value)
		if err != nil {
			return "", fmt.Errorf("value: %w", err)
		}
		cond := predicate.NewCondition(step.Column, step.Cmp, value)
		switch step.Op {
		case OpWhere:
			c.Add(cond)
		case OpAddAnd:
			c.Combiner().Append(cond, predicate.OpAnd, true)
		case OpAddOr:
			c.Combiner().Append(cond, predicate.OpOr, false)
		}
		return cond.Render(), nil

	case OpRaw:
		args := make([]ir.IRValue, len(step.Args))
		for i, a := range step.Args {
			v, err := ir.FromAny(a)
			if err != nil {
				return "", fmt.Errorf("args[%d]: %w", i, err)
			}
			args[i] = v
		}
		raw := predicate.NewRaw(step.SQL, args...)
		c.Add(raw)
		return raw.Render(), nil

	case OpAnd:
		c.And()
	case OpOr:
		c.Or()
	case OpSet:
		op := parseOperator(step.Operator)
		c.SetOperator(op)
		return string(op), nil
	case OpOnce:
		op := parseOperator(step.Operator)
		c.Combiner().SetOperatorOnce(op)
		return string(op), nil
	case OpReset:
		c.ResetOperator()
	case OpOpen:
		if step.Operator == "" {
			c.CombineFilters()
			return string(predicate.OpAnd), nil
		}
		op := parseOperator(step.Operator)
		c.CombineFilters(op)
		return string(op), nil
	case OpClose:
		c.EndCombineFilters()
	case OpUse:
		r.current = c.UseSubQuery()
	case OpEndUse:
		r.current = c.EndUse()
	default:
		return "", fmt.Errorf("unknown op %q", step.Op)
	}
	return "", nil
}

// parseOperator upper-cases and/or; any other token is kept verbatim.
func parseOperator(s string) predicate.Operator {
	switch strings.ToUpper(s) {
	case string(predicate.OpAnd):
		return predicate.OpAnd
	case string(predicate.OpOr):
		return predicate.OpOr
	}
	return predicate.Operator(s)
}

func checkExpectations(s *Scenario, result *Result) {
	if s.Expect != nil && *s.Expect != result.Where {
		result.AddError(fmt.Sprintf("where: expected %q, got %q", *s.Expect, result.Where))
	}
	if s.ExpectSQL != nil && *s.ExpectSQL != result.SQL {
		result.AddError(fmt.Sprintf("sql: expected %q, got %q", *s.ExpectSQL, result.SQL))
	}
	if s.ExpectParams != nil {
		if err := paramsMatch(result.Params, s.ExpectParams); err != nil {
			result.AddError(err.Error())
		}
	}
}

// paramsMatch compares SQL arguments against decoded YAML values, which
// carry int rather than int64.
func paramsMatch(got, want []any) error {
	if len(got) != len(want) {
		return fmt.Errorf("params: expected %d value(s), got %d", len(want), len(got))
	}
	for i := range want {
		w, err := ir.FromAny(want[i])
		if err != nil {
			return fmt.Errorf("params[%d]: %w", i, err)
		}
		g, err := ir.FromAny(got[i])
		if err != nil {
			return fmt.Errorf("params[%d]: %w", i, err)
		}
		if !ir.Equal(g, w) {
			return fmt.Errorf("params[%d]: expected %s, got %s", i, ir.Literal(w), ir.Literal(g))
		}
	}
	return nil
}
