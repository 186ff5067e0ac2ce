package constitution

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testLocks = `version: "1.0.0"
locks:
  - lock_id: LOCK-API-001
    description: API contracts are versioned
    type: constraint
    scope: [api, backend]
    severity: HIGH
    enforcement:
      - pac_gate: true
      - test_required: internal/api
    violation_policy:
      action: HARD_FAIL
      telemetry: REQUIRED
  - lock_id: LOCK-LEDGER-001
    description: Ledger writes are append-only
    type: invariant
    scope: [payments]
    severity: CRITICAL
    enforcement:
      - pac_gate: true
    violation_policy:
      action: HARD_FAIL
      telemetry: REQUIRED
    forbidden_zones:
      - ledger/core/
  - lock_id: LOCK-CI-001
    description: Builds go through the pinned workflow
    type: constraint
    scope: [api]
    severity: MEDIUM
    enforcement:
      - ci_workflow: .github/workflows/ci.yml
    violation_policy:
      action: SOFT_FAIL
      telemetry: OPTIONAL
  - lock_id: LOCK-OLD-001
    description: Retired boundary
    type: boundary
    scope: [api]
    severity: HIGH
    status: superseded
    superseded_by: LOCK-API-001
    enforcement:
      - pac_gate: true
    violation_policy:
      action: HARD_FAIL
      telemetry: REQUIRED
    forbidden_zones:
      - legacy/
`

func mustEngine(t *testing.T, yaml string) *Engine {
	t.Helper()
	e, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return e
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(string) string
		want   string
	}{
		{"missing locks", func(string) string { return `version: "1.0.0"` }, "missing locks"},
		{"missing version", func(y string) string { return strings.Replace(y, `version: "1.0.0"`, "", 1) }, "missing version"},
		{"duplicate id", func(y string) string { return strings.Replace(y, "LOCK-CI-001", "LOCK-API-001", 1) }, "duplicate"},
		{"bad type", func(y string) string { return strings.Replace(y, "type: invariant", "type: vibe", 1) }, "unknown type"},
		{"bad severity", func(y string) string { return strings.Replace(y, "severity: CRITICAL", "severity: SEVERE", 1) }, "unknown severity"},
		{"bad action", func(y string) string { return strings.Replace(y, "action: SOFT_FAIL", "action: WARN", 1) }, "unknown violation action"},
		{"bad telemetry", func(y string) string { return strings.Replace(y, "telemetry: OPTIONAL", "telemetry: MAYBE", 1) }, "unknown telemetry"},
		{"empty scope", func(y string) string { return strings.Replace(y, "scope: [payments]", "scope: []", 1) }, "empty scope"},
		{"dangling supersession", func(y string) string { return strings.Replace(y, "superseded_by: LOCK-API-001", "superseded_by: LOCK-GONE-001", 1) }, "does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mutate(testLocks)))
			var regErr *RegistryError
			if !errors.As(err, &regErr) {
				t.Fatalf("err = %v, want *RegistryError", err)
			}
			if !strings.Contains(regErr.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", regErr, tt.want)
			}
		})
	}
}

func TestLookups(t *testing.T) {
	e := mustEngine(t, testLocks)

	if e.Version() != "1.0.0" {
		t.Errorf("version = %q", e.Version())
	}
	if l := e.Lock("LOCK-API-001"); l == nil || l.Severity != SeverityHigh {
		t.Errorf("Lock(LOCK-API-001) = %+v", l)
	}
	if l := e.Lock("LOCK-NONE-001"); l != nil {
		t.Errorf("unknown lock = %+v", l)
	}

	// Superseded locks drop out of scope queries.
	ids := func(locks []*Lock) []string {
		var out []string
		for _, l := range locks {
			out = append(out, l.LockID)
		}
		return out
	}
	if got := ids(e.LocksByScope("api")); !reflect.DeepEqual(got, []string{"LOCK-API-001", "LOCK-CI-001"}) {
		t.Errorf("LocksByScope(api) = %v", got)
	}
	if got := ids(e.LocksByScope("payments")); !reflect.DeepEqual(got, []string{"LOCK-LEDGER-001"}) {
		t.Errorf("LocksByScope(payments) = %v", got)
	}

	if old := e.Lock("LOCK-OLD-001"); old.Active() || old.SupersededBy != "LOCK-API-001" {
		t.Errorf("supersession not recorded: %+v", old)
	}
}

func TestRequiredLocks(t *testing.T) {
	e := mustEngine(t, testLocks)

	tests := []struct {
		scopes []string
		want   []string
	}{
		// LOCK-CI-001 has no pac_gate enforcement; LOCK-OLD-001 is superseded.
		{[]string{"api"}, []string{"LOCK-API-001"}},
		{[]string{"backend"}, []string{"LOCK-API-001"}},
		{[]string{"payments"}, []string{"LOCK-LEDGER-001"}},
		{[]string{"api", "payments"}, []string{"LOCK-API-001", "LOCK-LEDGER-001"}},
		{[]string{"frontend"}, nil},
	}

	for _, tt := range tests {
		if got := e.RequiredLocks(tt.scopes); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("RequiredLocks(%v) = %v, want %v", tt.scopes, got, tt.want)
		}
	}
}

func TestValidateEnforcementCoverage(t *testing.T) {
	uncovered := strings.Replace(testLocks, `    enforcement:
      - ci_workflow: .github/workflows/ci.yml
`, "    enforcement: []\n", 1)
	e := mustEngine(t, uncovered)

	if got := e.ValidateEnforcementCoverage(); !reflect.DeepEqual(got, []string{"LOCK-CI-001"}) {
		t.Errorf("coverage = %v, want [LOCK-CI-001]", got)
	}

	// Load refuses uncovered registries outright.
	dir := t.TempDir()
	path := filepath.Join(dir, "LOCK_REGISTRY.yaml")
	if err := os.WriteFile(path, []byte(uncovered), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	var covErr *CoverageError
	if !errors.As(err, &covErr) {
		t.Fatalf("Load err = %v, want *CoverageError", err)
	}
}

func TestAssertLock(t *testing.T) {
	e := mustEngine(t, testLocks)

	var events []ViolationEvent
	e.SetEventSink(func(ev ViolationEvent) { events = append(events, ev) })

	if err := e.AssertLock("LOCK-LEDGER-001", true, "append offset ok"); err != nil {
		t.Fatalf("true condition: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("events after passing assert: %v", events)
	}

	err := e.AssertLock("LOCK-LEDGER-001", false, "rewrite at offset 12")
	var violation *LockViolation
	if !errors.As(err, &violation) {
		t.Fatalf("err = %v, want *LockViolation", err)
	}
	if violation.Severity != SeverityCritical || violation.LockID != "LOCK-LEDGER-001" {
		t.Errorf("violation = %+v", violation)
	}
	if len(events) != 1 || events[0].LockID != "LOCK-LEDGER-001" {
		t.Errorf("events = %v", events)
	}

	// Unknown lock id fails closed as a registry error, never a pass.
	err = e.AssertLock("LOCK-GHOST-001", true, "")
	var regErr *RegistryError
	if !errors.As(err, &regErr) {
		t.Fatalf("err = %v, want *RegistryError", err)
	}
}

func TestAssertLockBuffersRequiredTelemetry(t *testing.T) {
	e := mustEngine(t, testLocks)

	// No sink yet: REQUIRED telemetry is buffered, OPTIONAL is dropped.
	if err := e.AssertLock("LOCK-LEDGER-001", false, "rewrite at offset 12"); err == nil {
		t.Fatal("false condition should violate")
	}
	if err := e.AssertLock("LOCK-CI-001", false, "unpinned workflow"); err == nil {
		t.Fatal("false condition should violate")
	}

	var events []ViolationEvent
	e.SetEventSink(func(ev ViolationEvent) { events = append(events, ev) })

	if len(events) != 1 || events[0].LockID != "LOCK-LEDGER-001" {
		t.Fatalf("flushed events = %v, want the one REQUIRED violation", events)
	}

	// The buffer drains once; reinstalling the sink must not replay.
	events = nil
	e.SetEventSink(func(ev ViolationEvent) { events = append(events, ev) })
	if len(events) != 0 {
		t.Errorf("replayed events = %v", events)
	}
}

func TestValidatePACAdmission(t *testing.T) {
	e := mustEngine(t, testLocks)

	t.Run("all acknowledged", func(t *testing.T) {
		ok, missing := e.ValidatePACAdmission([]string{"LOCK-API-001"}, []string{"api"}, nil)
		if !ok || len(missing) != 0 {
			t.Errorf("ok=%v missing=%v", ok, missing)
		}
	})

	t.Run("missing lock", func(t *testing.T) {
		ok, missing := e.ValidatePACAdmission(nil, []string{"api", "payments"}, nil)
		if ok {
			t.Error("admission should fail")
		}
		if !reflect.DeepEqual(missing, []string{"LOCK-API-001", "LOCK-LEDGER-001"}) {
			t.Errorf("missing = %v", missing)
		}
	})

	t.Run("extra acknowledgments are harmless", func(t *testing.T) {
		ok, missing := e.ValidatePACAdmission([]string{"LOCK-API-001", "LOCK-CI-001", "LOCK-NOT-REAL"}, []string{"api"}, nil)
		if !ok || len(missing) != 0 {
			t.Errorf("ok=%v missing=%v", ok, missing)
		}
	})

	t.Run("forbidden zone overrides acknowledgment", func(t *testing.T) {
		ok, missing := e.ValidatePACAdmission(
			[]string{"LOCK-LEDGER-001"},
			[]string{"payments"},
			[]string{"ledger/core/balance.go"},
		)
		if ok {
			t.Error("admission should fail")
		}
		want := []string{"FORBIDDEN_ZONE:LOCK-LEDGER-001:ledger/core/"}
		if !reflect.DeepEqual(missing, want) {
			t.Errorf("missing = %v, want %v", missing, want)
		}
	})

	t.Run("zone entries precede missing locks", func(t *testing.T) {
		ok, missing := e.ValidatePACAdmission(nil, []string{"payments"}, []string{"ledger/core/balance.go"})
		if ok {
			t.Error("admission should fail")
		}
		want := []string{"FORBIDDEN_ZONE:LOCK-LEDGER-001:ledger/core/", "LOCK-LEDGER-001"}
		if !reflect.DeepEqual(missing, want) {
			t.Errorf("missing = %v, want %v", missing, want)
		}
	})

	t.Run("superseded zones do not fire", func(t *testing.T) {
		ok, missing := e.ValidatePACAdmission([]string{"LOCK-API-001"}, []string{"api"}, []string{"legacy/shim.go"})
		if !ok || len(missing) != 0 {
			t.Errorf("ok=%v missing=%v", ok, missing)
		}
	})
}

func TestCheckForbiddenZone(t *testing.T) {
	e := mustEngine(t, testLocks)

	if lock := e.CheckForbiddenZone("ledger/core/balance.go"); lock == nil || lock.LockID != "LOCK-LEDGER-001" {
		t.Errorf("lock = %+v", lock)
	}
	if lock := e.CheckForbiddenZone(`ledger\core\balance.go`); lock == nil {
		t.Error("backslashed path should still match")
	}
	if lock := e.CheckForbiddenZone("docs/ledger.md"); lock != nil {
		t.Errorf("unexpected match: %+v", lock)
	}
}

func TestValidateMutability(t *testing.T) {
	old := mustEngine(t, testLocks)

	t.Run("frozen field same version", func(t *testing.T) {
		next := mustEngine(t, strings.Replace(testLocks, "severity: CRITICAL", "severity: MEDIUM", 1))
		violations := ValidateMutability(old, next)
		if len(violations) != 1 || violations[0].Field != "severity" || violations[0].LockID != "LOCK-LEDGER-001" {
			t.Errorf("violations = %v", violations)
		}
	})

	t.Run("description edit is fine", func(t *testing.T) {
		next := mustEngine(t, strings.Replace(testLocks, "Ledger writes are append-only", "Ledger entries are append-only", 1))
		if violations := ValidateMutability(old, next); len(violations) != 0 {
			t.Errorf("violations = %v", violations)
		}
	})

	t.Run("version bump waives", func(t *testing.T) {
		changed := strings.Replace(testLocks, `version: "1.0.0"`, `version: "1.1.0"`, 1)
		changed = strings.Replace(changed, "severity: CRITICAL", "severity: MEDIUM", 1)
		next := mustEngine(t, changed)
		if violations := ValidateMutability(old, next); len(violations) != 0 {
			t.Errorf("violations = %v", violations)
		}
	})
}

func TestDefaultLockRegistryParses(t *testing.T) {
	e := mustEngine(t, DefaultLockRegistryYAML)
	if uncovered := e.ValidateEnforcementCoverage(); len(uncovered) != 0 {
		t.Errorf("default registry has uncovered locks: %v", uncovered)
	}
	if got := e.RequiredLocks([]string{"payments"}); !reflect.DeepEqual(got, []string{"LOCK-LEDGER-001", "LOCK-SEC-001"}) {
		t.Errorf("RequiredLocks(payments) = %v", got)
	}
}
