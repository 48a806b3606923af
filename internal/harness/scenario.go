package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of builder steps with the filter it is
// expected to produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the golden file name.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Steps are applied in order to a fresh criteria.Criteria.
	Steps []Step `yaml:"steps" json:"steps"`

	// Expect is the expected rendered filter text. A pointer so that an
	// expected empty filter ("") can be told apart from no expectation.
	Expect *string `yaml:"expect,omitempty" json:"expect,omitempty"`

	// ExpectSQL is the expected parameterized WHERE body.
	ExpectSQL *string `yaml:"expect_sql,omitempty" json:"expect_sql,omitempty"`

	// ExpectParams are the expected SQL arguments. Only checked when set.
	ExpectParams []any `yaml:"expect_params,omitempty" json:"expect_params,omitempty"`
}

// Step is one builder call.
type Step struct {
	// Op selects the call, see the Op* constants.
	Op string `yaml:"op" json:"op"`

	// Column, Cmp and Value describe a condition (where, add_and, add_or).
	// An empty Cmp means "=".
	Column string `yaml:"column,omitempty" json:"column,omitempty"`
	Cmp    string `yaml:"cmp,omitempty" json:"cmp,omitempty"`
	Value  any    `yaml:"value,omitempty" json:"value,omitempty"`

	// Operator is the token for set, once and open.
	Operator string `yaml:"operator,omitempty" json:"operator,omitempty"`

	// SQL and Args describe a raw fragment.
	SQL  string `yaml:"sql,omitempty" json:"sql,omitempty"`
	Args []any  `yaml:"args,omitempty" json:"args,omitempty"`
}

// Step operations.
const (
	OpWhere  = "where"   // add a condition with the current operator
	OpAddAnd = "add_and" // add a condition with AND, merging by column
	OpAddOr  = "add_or"  // OR a condition onto the last node
	OpRaw    = "raw"     // add a raw fragment with the current operator
	OpAnd    = "and"     // one-shot AND
	OpOr     = "or"      // one-shot OR
	OpSet    = "set"     // sticky operator
	OpOnce   = "once"    // one-shot operator
	OpReset  = "reset"   // restore the previous sticky operator
	OpOpen   = "open"    // open a group
	OpClose  = "close"   // close the innermost group
	OpUse    = "use"     // start a sub-query
	OpEndUse = "end_use" // merge the sub-query back
)

var knownOps = map[string]bool{
	OpWhere: true, OpAddAnd: true, OpAddOr: true, OpRaw: true,
	OpAnd: true, OpOr: true, OpSet: true, OpOnce: true, OpReset: true,
	OpOpen: true, OpClose: true, OpUse: true, OpEndUse: true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario from YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Validate checks that required fields are present and every step is
// well formed.
func Validate(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Expect == nil && s.ExpectSQL == nil {
		return fmt.Errorf("expect or expect_sql is required")
	}
	if s.ExpectParams != nil && s.ExpectSQL == nil {
		return fmt.Errorf("expect_params requires expect_sql")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	if !knownOps[step.Op] {
		return fmt.Errorf("unknown op %q", step.Op)
	}

	switch step.Op {
	case OpWhere, OpAddAnd, OpAddOr:
		if step.Column == "" {
			return fmt.Errorf("%s: column is required", step.Op)
		}
	case OpRaw:
		if step.SQL == "" {
			return fmt.Errorf("raw: sql is required")
		}
	case OpSet, OpOnce:
		if step.Operator == "" {
			return fmt.Errorf("%s: operator is required", step.Op)
		}
	}
	return nil
}
