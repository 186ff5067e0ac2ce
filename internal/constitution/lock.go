// Package constitution holds the lock registry: the machine-readable
// constraints a PAC must acknowledge before work is admitted. Locks are
// declarative; the engine computes which apply and fails closed on
// anything it cannot prove.
package constitution

import (
	"sort"
	"strings"
)

// LockType classifies what a lock protects.
type LockType string

const (
	TypeInvariant  LockType = "invariant"
	TypeConstraint LockType = "constraint"
	TypeBoundary   LockType = "boundary"
	TypeGate       LockType = "gate"
)

// Severity ranks how bad a violation is.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
)

// Action is what happens when a lock is violated.
type Action string

const (
	ActionHardFail Action = "HARD_FAIL"
	ActionSoftFail Action = "SOFT_FAIL"
)

// TelemetryPolicy controls whether a violation must be reported.
type TelemetryPolicy string

const (
	TelemetryRequired TelemetryPolicy = "REQUIRED"
	TelemetryOptional TelemetryPolicy = "OPTIONAL"
)

// Status marks whether a lock is still in force.
type Status string

const (
	StatusActive     Status = "active"
	StatusSuperseded Status = "superseded"
)

// Enforcement is one mechanism backing a lock. A lock with no mechanism
// at all is decorative, and decorative locks are a coverage error.
type Enforcement struct {
	TestRequired  string `yaml:"test_required,omitempty"`
	RuntimeAssert string `yaml:"runtime_assert,omitempty"`
	CIWorkflow    string `yaml:"ci_workflow,omitempty"`
	LintRule      string `yaml:"lint_rule,omitempty"`
	PACGate       bool   `yaml:"pac_gate,omitempty"`
}

// Mechanisms lists the non-empty mechanisms of this entry.
func (e Enforcement) Mechanisms() []string {
	var out []string
	if e.TestRequired != "" {
		out = append(out, "test_required")
	}
	if e.RuntimeAssert != "" {
		out = append(out, "runtime_assert")
	}
	if e.CIWorkflow != "" {
		out = append(out, "ci_workflow")
	}
	if e.LintRule != "" {
		out = append(out, "lint_rule")
	}
	if e.PACGate {
		out = append(out, "pac_gate")
	}
	return out
}

// ViolationPolicy says what a violation does and whether it must be
// reported.
type ViolationPolicy struct {
	Action    Action          `yaml:"action"`
	Telemetry TelemetryPolicy `yaml:"telemetry"`
}

// Lock is one constitutional constraint.
type Lock struct {
	LockID           string          `yaml:"lock_id"`
	Description      string          `yaml:"description"`
	Scope            []string        `yaml:"scope"`
	Type             LockType        `yaml:"type"`
	Enforcement      []Enforcement   `yaml:"enforcement"`
	Severity         Severity        `yaml:"severity"`
	ViolationPolicy  ViolationPolicy `yaml:"violation_policy"`
	ForbiddenZones   []string        `yaml:"forbidden_zones,omitempty"`
	SourceInvariants []string        `yaml:"source_invariants,omitempty"`
	Status           Status          `yaml:"status,omitempty"`
	SupersededBy     string          `yaml:"superseded_by,omitempty"`
}

// Active reports whether the lock is still in force. Locks default to
// active; only an explicit supersession retires one.
func (l *Lock) Active() bool {
	return l.Status == "" || l.Status == StatusActive
}

// RequiresPACGate reports whether any enforcement entry tags this lock
// for PAC admission.
func (l *Lock) RequiresPACGate() bool {
	for _, e := range l.Enforcement {
		if e.PACGate {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the lock's scope intersects the given
// scopes. Scope comparison is case-insensitive; a lock scoped to "*"
// applies everywhere.
func (l *Lock) AppliesTo(scopes []string) bool {
	for _, ls := range l.Scope {
		if ls == "*" {
			return true
		}
		for _, s := range scopes {
			if strings.EqualFold(strings.TrimSpace(ls), strings.TrimSpace(s)) {
				return true
			}
		}
	}
	return false
}

// MechanismCount is the total enforcement mechanisms across entries.
func (l *Lock) MechanismCount() int {
	n := 0
	for _, e := range l.Enforcement {
		n += len(e.Mechanisms())
	}
	return n
}

func sortedIDs(ids map[string]bool) []string {
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
