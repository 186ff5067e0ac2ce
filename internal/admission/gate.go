package admission

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/pacgate/internal/activation"
	"github.com/ppiankov/pacgate/internal/audit"
	"github.com/ppiankov/pacgate/internal/colorgate"
	"github.com/ppiankov/pacgate/internal/constitution"
	"github.com/ppiankov/pacgate/internal/endbanner"
	"github.com/ppiankov/pacgate/internal/registry"
)

// Gate is the admission orchestrator. It is safe for concurrent use;
// each Admit call takes one registry snapshot and one fresh GateState,
// so reloads and parallel attempts never interleave state.
type Gate struct {
	src    registry.Source
	engine *constitution.Engine

	mu     sync.Mutex
	trail  *audit.Trail
	events []Event
}

// NewGate builds a gate over a registry source and a lock engine.
func NewGate(src registry.Source, engine *constitution.Engine) *Gate {
	return &Gate{src: src, engine: engine}
}

// SetTrail installs the append-only audit trail. Without one, events
// are still retained in memory.
func (g *Gate) SetTrail(trail *audit.Trail) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trail = trail
}

// Events returns a copy of every event this gate has emitted.
func (g *Gate) Events() []Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Event(nil), g.events...)
}

// RequiredLocks exposes the lock requirement for a scope set.
func (g *Gate) RequiredLocks(scopes []string) []string {
	return g.engine.RequiredLocks(scopes)
}

// Admit runs the full gate sequence over a declaration. The stage order
// is fixed and must not be changed: activation block, color gateway,
// END banner, then forbidden zones and lock acknowledgment. The first
// failing stage denies the PAC; every attempt, denied or admitted,
// emits exactly one event.
func (g *Gate) Admit(d *Declaration) (Event, error) {
	reg := g.src.Snapshot()
	state := NewGateState()

	if d == nil {
		err := &DeclarationError{Msg: "nil declaration"}
		return g.record(nil, reg, DeniedDeclaration, nil, err), err
	}
	if !ValidPACID(d.PACID) || len(d.AffectedScopes) == 0 {
		err := &DeclarationError{PACID: d.PACID, Msg: "declaration not built through NewDeclaration"}
		return g.record(d, reg, DeniedDeclaration, nil, err), err
	}

	// Stage 1: activation block. Declared blocks must verify; a PAC
	// with no block passes vacuously (structural checks own absence).
	if d.Activation != nil {
		validator := activation.NewValidator(reg)
		if _, err := validator.Validate(d.Activation, d.PACID); err != nil {
			return g.record(d, reg, DeniedActivation, nil, err), err
		}
	}
	state.MarkActivationValidated()

	// Stage 2: executing lane.
	if !d.Executing.Empty() {
		gateway := colorgate.New(reg)
		if _, err := gateway.ValidatePACHeader(colorgate.Header{
			Agent: d.Executing.Agent,
			GID:   d.Executing.GID,
			Color: d.Executing.Color,
		}, d.PACID); err != nil {
			return g.record(d, reg, DeniedColorGateway, nil, err), err
		}
	}
	if err := state.MarkColorGatewayValidated(); err != nil {
		return g.record(d, reg, DeniedDeclaration, nil, err), err
	}

	// Stage 3: END banner against the executing declaration.
	bannerCheck := endbanner.New(reg)
	if err := bannerCheck.Validate(
		endbanner.Identity{Agent: d.Executing.Agent, GID: d.Executing.GID, Color: d.Executing.Color},
		endbanner.Identity{Agent: d.EndBanner.Agent, GID: d.EndBanner.GID, Color: d.EndBanner.Color},
		d.PACID,
	); err != nil {
		return g.record(d, reg, DeniedEndBanner, nil, err), err
	}

	// Stage 4: forbidden zones and lock acknowledgment. Zone hits deny
	// ahead of missing locks and ignore acknowledgment entirely.
	admitted, missing := g.engine.ValidatePACAdmission(d.AcknowledgedLocks, d.AffectedScopes, d.TouchedFiles)
	if !admitted {
		if lockID, zone, ok := firstZoneEntry(missing); ok {
			err := &ForbiddenZoneError{PACID: d.PACID, LockID: lockID, Zone: zone}
			return g.record(d, reg, DeniedForbiddenZone, missing, err), err
		}
		err := &AdmissionError{PACID: d.PACID, Missing: missing}
		return g.record(d, reg, DeniedMissingLocks, missing, err), err
	}
	if err := state.MarkAdmissionValidated(); err != nil {
		return g.record(d, reg, DeniedDeclaration, nil, err), err
	}
	if err := state.RequireFullChain(); err != nil {
		return g.record(d, reg, DeniedDeclaration, nil, err), err
	}

	return g.record(d, reg, Admitted, nil, nil), nil
}

// record emits the attempt event, appends it to the audit trail when
// one is installed, and retains it in memory.
func (g *Gate) record(d *Declaration, reg *registry.Registry, outcome Outcome, missing []string, cause error) Event {
	ev := Event{
		EventID:   uuid.NewString(),
		Outcome:   outcome,
		Timestamp: time.Now().UTC().Format(audit.TimestampFormat),
	}
	if cause != nil {
		ev.Reason = cause.Error()
	}
	if d != nil {
		ev.PACID = d.PACID
		ev.AcknowledgedLocks = append([]string(nil), d.AcknowledgedLocks...)
		ev.AffectedScopes = append([]string(nil), d.AffectedScopes...)
		ev.TouchedFiles = append([]string(nil), d.TouchedFiles...)
		ev.RequiredLocks = g.engine.RequiredLocks(d.AffectedScopes)
		ev.MissingLocks = append([]string(nil), missing...)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, ev)
	if g.trail != nil {
		entry := audit.Entry{
			Timestamp:         ev.Timestamp,
			EventID:           ev.EventID,
			PACID:             ev.PACID,
			Outcome:           string(ev.Outcome),
			Reason:            ev.Reason,
			RequiredLocks:     ev.RequiredLocks,
			AcknowledgedLocks: ev.AcknowledgedLocks,
			MissingLocks:      ev.MissingLocks,
			AffectedScopes:    ev.AffectedScopes,
			TouchedFiles:      ev.TouchedFiles,
			LockVersion:       g.engine.Version(),
		}
		if reg != nil {
			entry.RegistryVersion = reg.Version()
		}
		// A trail write failure is surfaced on the event rather than
		// silently dropped; admission itself stands.
		if err := g.trail.Record(entry); err != nil {
			g.events[len(g.events)-1].Reason = strings.TrimSpace(ev.Reason + "; audit: " + err.Error())
		}
	}
	return g.events[len(g.events)-1]
}

// firstZoneEntry picks the first FORBIDDEN_ZONE entry out of a missing
// list.
func firstZoneEntry(missing []string) (lockID, zone string, ok bool) {
	for _, m := range missing {
		rest, found := strings.CutPrefix(m, "FORBIDDEN_ZONE:")
		if !found {
			continue
		}
		lockID, zone, _ = strings.Cut(rest, ":")
		return lockID, zone, true
	}
	return "", "", false
}
