package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/accountcell/internal/engine"
	"github.com/roach88/accountcell/internal/ir"
)

// Scenario is a conformance scenario: a list of account transitions, each
// with the verdict it must produce, and assertions over the whole run.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is a CUE configuration package directory, relative to the
	// scenario file. Empty means config.Default().
	Config string `yaml:"config,omitempty"`

	// Now is the oracle time every step publishes. Defaults to testutil.Now.
	Now uint64 `yaml:"now,omitempty"`

	// RunID fixes the journal run id. Defaults to "run-<name>".
	RunID string `yaml:"run_id,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step builds one transaction around a single account cell.
type Step struct {
	Name   string `yaml:"name"`
	Action string `yaml:"action"`

	// Role is the role byte of the action params: owner, manager or none.
	// Defaults to owner.
	Role string `yaml:"role,omitempty"`

	// Sign selects the key that signs input 0: owner, manager or none.
	// Defaults to Role.
	Sign string `yaml:"sign,omitempty"`

	Account AccountSpec `yaml:"account"`

	// Output describes the output account as a change of Account. Absent
	// means the account only pays the action fee.
	Output *OutputSpec `yaml:"output,omitempty"`

	// OmitOutput leaves the output account cell out of the transaction.
	OmitOutput bool `yaml:"omit_output,omitempty"`

	Expect ExpectClause `yaml:"expect"`
}

// AccountSpec describes the input account cell. Times are offsets from
// the scenario clock.
type AccountSpec struct {
	Name    string `yaml:"name"`
	Owner   string `yaml:"owner"`
	Manager string `yaml:"manager,omitempty"`

	// Kind is the lock kind of both roles. Defaults to ckb.
	Kind    string `yaml:"kind,omitempty"`
	Version uint32 `yaml:"version,omitempty"`
	Status  string `yaml:"status,omitempty"`

	// Capacity in shannons. Defaults to 1000 CKB.
	Capacity uint64 `yaml:"capacity,omitempty"`

	// ExpiresIn is seconds from now until expired_at; negative is in the
	// past. Defaults to one year.
	ExpiresIn *int64 `yaml:"expires_in,omitempty"`

	Records []ir.Record `yaml:"records,omitempty"`

	// Seconds since the last change of each kind. Zero means never.
	TransferredAgo   uint64 `yaml:"transferred_ago,omitempty"`
	ManagerEditedAgo uint64 `yaml:"manager_edited_ago,omitempty"`
	RecordsEditedAgo uint64 `yaml:"records_edited_ago,omitempty"`
}

// OutputSpec describes the output account relative to the input account.
type OutputSpec struct {
	// Owner replaces the owner. The manager follows it unless Manager is set.
	Owner   string `yaml:"owner,omitempty"`
	Manager string `yaml:"manager,omitempty"`
	Status  string `yaml:"status,omitempty"`
	Version uint32 `yaml:"version,omitempty"`

	// Spend is the capacity the output gives up in shannons. Defaults to
	// the fee of the action.
	Spend *uint64 `yaml:"spend,omitempty"`

	// Records replaces the record list. An empty list clears it.
	Records *[]ir.Record `yaml:"records,omitempty"`

	// Stamp lists timestamp fields set to now.
	Stamp []string `yaml:"stamp,omitempty"`

	// Tamper lists protected fields bumped by one.
	Tamper []string `yaml:"tamper,omitempty"`
}

// ExpectClause names the verdict a step must produce: a code name from
// engine.Codes() or "Accept".
type ExpectClause struct {
	Code string `yaml:"code"`
}

// Assertion validates the verdicts of the whole scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "verdict_count": steps whose verdict is Code
	// - "family_count": steps whose verdict belongs to Family
	// - "journal_count": distinct verdicts in the journal
	Type   string `yaml:"type"`
	Code   string `yaml:"code,omitempty"`
	Family string `yaml:"family,omitempty"`
	Count  int    `yaml:"count"`
}

// Assertion type constants.
const (
	AssertVerdictCount = "verdict_count"
	AssertFamilyCount  = "family_count"
	AssertJournalCount = "journal_count"
)

// Role and signer names.
const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleNone    = "none"
)

// Stampable and tamperable field names.
var (
	stampFields  = []string{ir.FieldLastTransferAccountAt, ir.FieldLastEditManagerAt, ir.FieldLastEditRecordsAt}
	tamperFields = []string{ir.FieldRegisteredAt, ir.DataFieldExpiredAt}
)

var families = []engine.Family{
	engine.FamilyAccept,
	engine.FamilyStructural,
	engine.FamilyConsistency,
	engine.FamilyEconomic,
	engine.FamilyTemporal,
	engine.FamilyStatus,
	engine.FamilySignature,
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected and Config is resolved against the directory
// of the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.Config != "" && !filepath.IsAbs(s.Config) {
		s.Config = filepath.Join(filepath.Dir(path), s.Config)
	}
	if s.Config != "" {
		if _, err := os.Stat(s.Config); err != nil {
			return nil, fmt.Errorf("invalid scenario: config directory: %w", err)
		}
	}
	return s, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// LoadScenarios loads every *.yaml file in dir in name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Steps))
	for i := range s.Steps {
		step := &s.Steps[i]
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if seen[step.Name] {
			return fmt.Errorf("steps[%d]: duplicate step name %q", i, step.Name)
		}
		seen[step.Name] = true
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step *Step) error {
	if step.Name == "" {
		return fmt.Errorf("name is required")
	}
	if step.Action == "" {
		return fmt.Errorf("action is required")
	}
	if err := validateRole("role", step.Role); err != nil {
		return err
	}
	if err := validateRole("sign", step.Sign); err != nil {
		return err
	}
	if step.Account.Name == "" {
		return fmt.Errorf("account.name is required")
	}
	if step.Account.Owner == "" {
		return fmt.Errorf("account.owner is required")
	}
	if step.Account.Version > ir.LatestRecordVersion {
		return fmt.Errorf("account.version: %d is not defined", step.Account.Version)
	}
	if step.Account.Kind != "" {
		if _, err := ir.ParseLockKind(step.Account.Kind); err != nil {
			return fmt.Errorf("account.kind: %w", err)
		}
	}
	if step.Account.Status != "" {
		if _, err := ir.ParseAccountStatus(step.Account.Status); err != nil {
			return fmt.Errorf("account.status: %w", err)
		}
	}
	if out := step.Output; out != nil {
		if step.OmitOutput {
			return fmt.Errorf("output and omit_output are exclusive")
		}
		if out.Version > ir.LatestRecordVersion {
			return fmt.Errorf("output.version: %d is not defined", out.Version)
		}
		if out.Status != "" {
			if _, err := ir.ParseAccountStatus(out.Status); err != nil {
				return fmt.Errorf("output.status: %w", err)
			}
		}
		for _, f := range out.Stamp {
			if !slices.Contains(stampFields, f) {
				return fmt.Errorf("output.stamp: %q is not a timestamp field", f)
			}
		}
		for _, f := range out.Tamper {
			if !slices.Contains(tamperFields, f) {
				return fmt.Errorf("output.tamper: %q cannot be tampered", f)
			}
		}
	}
	if step.Expect.Code == "" {
		return fmt.Errorf("expect.code is required")
	}
	if _, ok := engine.ParseErrorCode(step.Expect.Code); !ok {
		return fmt.Errorf("expect.code: unknown code %q", step.Expect.Code)
	}
	return nil
}

func validateRole(field, name string) error {
	switch name {
	case "", RoleOwner, RoleManager, RoleNone:
		return nil
	default:
		return fmt.Errorf("%s: unknown role %q", field, name)
	}
}

func validateAssertion(a Assertion) error {
	if a.Count < 0 {
		return fmt.Errorf("count must be non-negative")
	}
	switch a.Type {
	case AssertVerdictCount:
		if _, ok := engine.ParseErrorCode(a.Code); !ok {
			return fmt.Errorf("verdict_count: unknown code %q", a.Code)
		}
	case AssertFamilyCount:
		if !slices.Contains(families, engine.Family(a.Family)) {
			return fmt.Errorf("family_count: unknown family %q", a.Family)
		}
	case AssertJournalCount:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
