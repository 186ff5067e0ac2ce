package admission

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ppiankov/pacgate/internal/activation"
	"github.com/ppiankov/pacgate/internal/audit"
	"github.com/ppiankov/pacgate/internal/colorgate"
	"github.com/ppiankov/pacgate/internal/constitution"
	"github.com/ppiankov/pacgate/internal/endbanner"
	"github.com/ppiankov/pacgate/internal/registry"
)

const gateLocks = `version: "2.0.0"
locks:
  - lock_id: LOCK-API-001
    description: API contracts are versioned
    type: constraint
    scope: [api]
    severity: HIGH
    enforcement:
      - pac_gate: true
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
`

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	reg, err := registry.Parse([]byte(registry.DefaultRegistryYAML))
	if err != nil {
		t.Fatalf("parse registry: %v", err)
	}
	engine, err := constitution.Parse([]byte(gateLocks))
	if err != nil {
		t.Fatalf("parse locks: %v", err)
	}
	return NewGate(reg, engine)
}

func baseDeclaration(t *testing.T) *Declaration {
	t.Helper()
	d, err := NewDeclaration(Declaration{
		PACID:             "PAC-TEST-FEATURE-01",
		AcknowledgedLocks: []string{"LOCK-API-001"},
		AffectedScopes:    []string{"api"},
		Executing:         Identity{Agent: "CODY", GID: "GID-01", Color: "BLUE"},
		EndBanner:         Identity{Agent: "CODY", GID: "GID-01", Color: "BLUE"},
	})
	if err != nil {
		t.Fatalf("NewDeclaration: %v", err)
	}
	return d
}

func TestNewDeclaration(t *testing.T) {
	tests := []struct {
		name   string
		pacID  string
		scopes []string
		ok     bool
	}{
		{"valid", "PAC-TEST-FEATURE-01", []string{"api"}, true},
		{"single segment suffix", "PAC-01", []string{"api"}, true},
		{"empty id", "", []string{"api"}, false},
		{"wrong prefix", "INVALID-ID", []string{"api"}, false},
		{"lowercase segment", "PAC-test-01", []string{"api"}, false},
		{"trailing dash", "PAC-TEST-", []string{"api"}, false},
		{"no scopes", "PAC-TEST-01", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDeclaration(Declaration{PACID: tt.pacID, AffectedScopes: tt.scopes})
			if tt.ok && err != nil {
				t.Errorf("NewDeclaration: %v", err)
			}
			if !tt.ok {
				var decErr *DeclarationError
				if !errors.As(err, &decErr) {
					t.Errorf("err = %v, want *DeclarationError", err)
				}
			}
		})
	}
}

func TestAdmit(t *testing.T) {
	g := newTestGate(t)

	ev, err := g.Admit(baseDeclaration(t))
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if ev.Outcome != Admitted {
		t.Errorf("outcome = %s", ev.Outcome)
	}
	if !reflect.DeepEqual(ev.RequiredLocks, []string{"LOCK-API-001"}) {
		t.Errorf("required = %v", ev.RequiredLocks)
	}
	if len(ev.MissingLocks) != 0 {
		t.Errorf("missing = %v", ev.MissingLocks)
	}
}

func TestAdmitDeniesMissingLocks(t *testing.T) {
	g := newTestGate(t)

	d := baseDeclaration(t)
	d.AcknowledgedLocks = nil

	ev, err := g.Admit(d)
	var admErr *AdmissionError
	if !errors.As(err, &admErr) {
		t.Fatalf("err = %v, want *AdmissionError", err)
	}
	if ev.Outcome != DeniedMissingLocks {
		t.Errorf("outcome = %s", ev.Outcome)
	}
	if !reflect.DeepEqual(ev.MissingLocks, []string{"LOCK-API-001"}) {
		t.Errorf("missing = %v", ev.MissingLocks)
	}
}

func TestAdmitPartialAcknowledgment(t *testing.T) {
	g := newTestGate(t)

	d, err := NewDeclaration(Declaration{
		PACID:             "PAC-TEST-FEATURE-02",
		AcknowledgedLocks: []string{"LOCK-API-001"},
		AffectedScopes:    []string{"api", "payments"},
	})
	if err != nil {
		t.Fatal(err)
	}

	ev, admitErr := g.Admit(d)
	if ev.Outcome != DeniedMissingLocks {
		t.Fatalf("outcome = %s (%v)", ev.Outcome, admitErr)
	}
	if !reflect.DeepEqual(ev.MissingLocks, []string{"LOCK-LEDGER-001"}) {
		t.Errorf("missing = %v, want exactly the unacknowledged lock", ev.MissingLocks)
	}
}

func TestAdmitExtraAcknowledgmentsHarmless(t *testing.T) {
	g := newTestGate(t)

	d := baseDeclaration(t)
	d.AcknowledgedLocks = []string{"LOCK-API-001", "LOCK-LEDGER-001", "LOCK-IMAGINARY-001"}

	ev, err := g.Admit(d)
	if err != nil || ev.Outcome != Admitted {
		t.Fatalf("outcome = %s (%v)", ev.Outcome, err)
	}
}

func TestAdmitForbiddenZonePrecedence(t *testing.T) {
	g := newTestGate(t)

	// Everything acknowledged, zone still touched: zone denial wins and
	// acknowledgment buys nothing.
	d, err := NewDeclaration(Declaration{
		PACID:             "PAC-LEDGER-REWRITE-01",
		AcknowledgedLocks: []string{"LOCK-LEDGER-001"},
		AffectedScopes:    []string{"payments"},
		TouchedFiles:      []string{"ledger/core/balance.go"},
	})
	if err != nil {
		t.Fatal(err)
	}

	ev, admitErr := g.Admit(d)
	var zoneErr *ForbiddenZoneError
	if !errors.As(admitErr, &zoneErr) {
		t.Fatalf("err = %v, want *ForbiddenZoneError", admitErr)
	}
	if zoneErr.LockID != "LOCK-LEDGER-001" || zoneErr.Zone != "ledger/core/" {
		t.Errorf("zone error = %+v", zoneErr)
	}
	if ev.Outcome != DeniedForbiddenZone {
		t.Errorf("outcome = %s", ev.Outcome)
	}
	if !reflect.DeepEqual(ev.MissingLocks, []string{"FORBIDDEN_ZONE:LOCK-LEDGER-001:ledger/core/"}) {
		t.Errorf("missing = %v", ev.MissingLocks)
	}
}

func TestAdmitStageOrder(t *testing.T) {
	g := newTestGate(t)

	badBlock := &activation.Block{
		AgentName: "CODY", GID: "GID-02", Role: "Backend Engineering",
		Color: "BLUE", Emoji: "\U0001F535",
		ProhibitedActions: []string{"x"}, PersonaBinding: "Executing as CODY",
	}

	t.Run("activation denial wins over locks", func(t *testing.T) {
		d := baseDeclaration(t)
		d.AcknowledgedLocks = nil
		d.Activation = badBlock

		ev, err := g.Admit(d)
		var v *activation.Violation
		if !errors.As(err, &v) {
			t.Fatalf("err = %v, want *activation.Violation", err)
		}
		if ev.Outcome != DeniedActivation {
			t.Errorf("outcome = %s", ev.Outcome)
		}
	})

	t.Run("gateway denial wins over banner and locks", func(t *testing.T) {
		d := baseDeclaration(t)
		d.AcknowledgedLocks = nil
		d.Executing = Identity{Agent: "CODY", GID: "GID-01", Color: "GREEN"}
		d.EndBanner = Identity{Agent: "DAN"}

		ev, err := g.Admit(d)
		var v *colorgate.Violation
		if !errors.As(err, &v) {
			t.Fatalf("err = %v, want *colorgate.Violation", err)
		}
		if ev.Outcome != DeniedColorGateway {
			t.Errorf("outcome = %s", ev.Outcome)
		}
	})

	t.Run("banner denial wins over locks", func(t *testing.T) {
		d := baseDeclaration(t)
		d.AcknowledgedLocks = nil
		d.EndBanner = Identity{Agent: "DAN"}

		ev, err := g.Admit(d)
		var v *endbanner.Violation
		if !errors.As(err, &v) {
			t.Fatalf("err = %v, want *endbanner.Violation", err)
		}
		if ev.Outcome != DeniedEndBanner {
			t.Errorf("outcome = %s", ev.Outcome)
		}
	})
}

func TestAdmitReservedLane(t *testing.T) {
	g := newTestGate(t)

	d := baseDeclaration(t)
	d.Executing = Identity{Agent: "BENSON", GID: "GID-00", Color: "TEAL"}
	d.EndBanner = Identity{}

	ev, err := g.Admit(d)
	var v *colorgate.Violation
	if !errors.As(err, &v) || v.Code != colorgate.CodeTealExecution {
		t.Fatalf("err = %v, want TEAL_EXECUTION", err)
	}
	if ev.Outcome != DeniedColorGateway {
		t.Errorf("outcome = %s", ev.Outcome)
	}
}

func TestAdmitSkipsAbsentStages(t *testing.T) {
	g := newTestGate(t)

	// No activation block, no executing identity, no banner: the lock
	// stage still runs and decides alone.
	d, err := NewDeclaration(Declaration{
		PACID:             "PAC-MINIMAL-01",
		AcknowledgedLocks: []string{"LOCK-API-001"},
		AffectedScopes:    []string{"api"},
	})
	if err != nil {
		t.Fatal(err)
	}

	ev, admitErr := g.Admit(d)
	if admitErr != nil || ev.Outcome != Admitted {
		t.Fatalf("outcome = %s (%v)", ev.Outcome, admitErr)
	}
}

func TestAdmitValidActivationBlock(t *testing.T) {
	g := newTestGate(t)

	block, err := activation.NewBlock(activation.Block{
		AgentName: "CODY", GID: "GID-01", Role: "Backend Engineering",
		Color: "BLUE", Emoji: "\U0001F535", Lane: "Backend Engineering",
		ProhibitedActions: []string{"merge without review"},
		PersonaBinding:    "Executing as CODY (GID-01)",
	})
	if err != nil {
		t.Fatal(err)
	}
	d := baseDeclaration(t)
	d.Activation = block

	ev, admitErr := g.Admit(d)
	if admitErr != nil || ev.Outcome != Admitted {
		t.Fatalf("outcome = %s (%v)", ev.Outcome, admitErr)
	}
}

func TestEveryAttemptEmitsEvent(t *testing.T) {
	g := newTestGate(t)

	good := baseDeclaration(t)
	bad := baseDeclaration(t)
	bad.AcknowledgedLocks = nil

	g.Admit(good)
	g.Admit(bad)
	g.Admit(good)

	events := g.Events()
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	want := []Outcome{Admitted, DeniedMissingLocks, Admitted}
	for i, ev := range events {
		if ev.Outcome != want[i] {
			t.Errorf("event %d outcome = %s, want %s", i, ev.Outcome, want[i])
		}
		if ev.EventID == "" || ev.Timestamp == "" {
			t.Errorf("event %d missing id or timestamp: %+v", i, ev)
		}
	}
	if events[0].EventID == events[2].EventID {
		t.Error("event ids must be unique per attempt")
	}
}

func TestAdmitIdempotent(t *testing.T) {
	g := newTestGate(t)
	d := baseDeclaration(t)

	for i := 0; i < 3; i++ {
		ev, err := g.Admit(d)
		if err != nil || ev.Outcome != Admitted {
			t.Fatalf("attempt %d: outcome = %s (%v)", i, ev.Outcome, err)
		}
	}
}

func TestAdmitWritesTrail(t *testing.T) {
	g := newTestGate(t)

	path := filepath.Join(t.TempDir(), "admission.jsonl")
	trail, err := audit.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	g.SetTrail(trail)

	bad := baseDeclaration(t)
	bad.AcknowledgedLocks = nil
	g.Admit(bad)
	g.Admit(baseDeclaration(t))
	trail.Close()

	res := audit.Verify(path)
	if !res.Valid || res.Lines != 2 {
		t.Fatalf("Verify = %+v", res)
	}

	replay, err := audit.Replay(path, "PAC-TEST-FEATURE-01")
	if err != nil {
		t.Fatal(err)
	}
	if replay.Summary.Attempts != 2 || replay.Summary.FinalOutcome != "ADMITTED" {
		t.Errorf("replay summary = %+v", replay.Summary)
	}
	if replay.Entries[0].LockVersion != "2.0.0" {
		t.Errorf("lock version = %q", replay.Entries[0].LockVersion)
	}
	if replay.Entries[0].RegistryVersion != "1.0.0" {
		t.Errorf("registry version = %q", replay.Entries[0].RegistryVersion)
	}
}

func TestGateState(t *testing.T) {
	s := NewGateState()

	if err := s.MarkColorGatewayValidated(); err == nil {
		t.Error("color gateway before activation should fail")
	}
	if err := s.MarkAdmissionValidated(); err == nil {
		t.Error("admission before color gateway should fail")
	}

	s.MarkActivationValidated()
	if err := s.MarkColorGatewayValidated(); err != nil {
		t.Fatalf("MarkColorGatewayValidated: %v", err)
	}
	if err := s.MarkAdmissionValidated(); err != nil {
		t.Fatalf("MarkAdmissionValidated: %v", err)
	}
	if err := s.RequireFullChain(); err != nil {
		t.Fatalf("RequireFullChain: %v", err)
	}
}
