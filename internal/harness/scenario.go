package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a ban scenario: initial state, a sequence of passes and
// assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// PassID is the fixed pass ID used for every pass.
	// If empty, defaults to "test-pass-default".
	PassID string `yaml:"pass_id,omitempty"`

	// Config holds the patterns and whitelist.
	Config ScenarioConfig `yaml:"config"`

	// Seed is the state before the first pass.
	Seed Seed `yaml:"seed,omitempty"`

	// Failures are injected into the fake firewall.
	Failures Failures `yaml:"failures,omitempty"`

	// Passes run in order.
	Passes []PassStep `yaml:"passes"`

	// Assertions validate the trace and the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ScenarioConfig is the part of the configuration that drives decisions.
type ScenarioConfig struct {
	Patterns  []string `yaml:"patterns"`
	Whitelist []string `yaml:"whitelist,omitempty"`
}

// Seed is the initial store and firewall content.
type Seed struct {
	Records  []SeedRecord `yaml:"records,omitempty"`
	Firewall []string     `yaml:"firewall,omitempty"`
}

// SeedRecord is a ban record present before the first pass.
type SeedRecord struct {
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
	Pattern string `yaml:"pattern"`
}

// Failures lists addresses whose firewall calls fail.
type Failures struct {
	Ban   []string `yaml:"ban,omitempty"`
	Unban []string `yaml:"unban,omitempty"`
}

// PassStep is one engine operation.
type PassStep struct {
	// Op is reconcile (default), clear or redo.
	Op string `yaml:"op,omitempty"`

	// Lines are raw access log lines fed to a reconcile pass.
	Lines []string `yaml:"lines,omitempty"`

	// FirewallDown makes the firewall query fail during this pass.
	FirewallDown bool `yaml:"firewall_down,omitempty"`

	// Expect checks the pass report. If nil, no validation is performed.
	Expect *PassExpect `yaml:"expect,omitempty"`
}

// PassExpect lists the expected report counts. Every count is compared.
type PassExpect struct {
	Banned           int  `yaml:"banned"`
	Skipped          int  `yaml:"skipped"`
	WhitelistSkipped int  `yaml:"whitelist_skipped"`
	Unbanned         int  `yaml:"unbanned"`
	Failed           int  `yaml:"failed"`
	Aborted          bool `yaml:"aborted"`
}

// Pass operations.
const (
	OpReconcile = "reconcile"
	OpClear     = "clear"
	OpRedo      = "redo"
)

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "firewall_denies": the firewall denies exactly Addresses
	// - "record_exists": a record exists for Address (Pattern/Path if set)
	// - "record_absent": no record exists for Address
	// - "trace_contains": an action of Kind exists for Address
	// - "trace_count": exactly Count actions of Kind
	Type string `yaml:"type"`

	Address   string   `yaml:"address,omitempty"`
	Addresses []string `yaml:"addresses,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty"`
	Path      string   `yaml:"path,omitempty"`
	Kind      string   `yaml:"kind,omitempty"`
	Count     int      `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertFirewallDenies = "firewall_denies"
	AssertRecordExists   = "record_exists"
	AssertRecordAbsent   = "record_absent"
	AssertTraceContains  = "trace_contains"
	AssertTraceCount     = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scan scenarios: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Passes) == 0 {
		return fmt.Errorf("passes list is required and must be non-empty")
	}

	for i := range s.Passes {
		p := &s.Passes[i]
		if p.Op == "" {
			p.Op = OpReconcile
		}
		switch p.Op {
		case OpReconcile:
		case OpClear, OpRedo:
			if len(p.Lines) > 0 {
				return fmt.Errorf("pass %d: lines are only valid for %s", i, OpReconcile)
			}
		default:
			return fmt.Errorf("pass %d: unknown op %q", i, p.Op)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}

	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertFirewallDenies:
		return nil
	case AssertRecordExists, AssertRecordAbsent:
		if a.Address == "" {
			return fmt.Errorf("%s requires address", a.Type)
		}
	case AssertTraceContains:
		if a.Address == "" || a.Kind == "" {
			return fmt.Errorf("%s requires address and kind", a.Type)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("%s requires kind", a.Type)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
