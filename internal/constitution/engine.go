package constitution

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RegistryError is a structural problem with the lock registry itself:
// unparseable file, duplicate ids, unknown enum values. The registry is
// rejected whole.
type RegistryError struct {
	Msg string
}

func (e *RegistryError) Error() string {
	return "lock registry invalid: " + e.Msg
}

// LockViolation is a failed runtime assertion against a named lock.
type LockViolation struct {
	LockID   string
	Severity Severity
	Context  string
}

func (e *LockViolation) Error() string {
	return fmt.Sprintf("lock %s violated [%s]: %s", e.LockID, e.Severity, e.Context)
}

// CoverageError names locks with zero enforcement mechanisms. Such a
// registry cannot be loaded for admission.
type CoverageError struct {
	LockIDs []string
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("locks without enforcement mechanisms: %s", strings.Join(e.LockIDs, ", "))
}

// ViolationEvent is one lock violation emitted to the telemetry sink.
type ViolationEvent struct {
	Timestamp string   `json:"ts"`
	LockID    string   `json:"lock_id"`
	Severity  Severity `json:"severity"`
	Context   string   `json:"context"`
}

// EventSink receives violation telemetry.
type EventSink func(ViolationEvent)

// Engine is the loaded lock registry plus its runtime operations.
type Engine struct {
	version string
	locks   map[string]*Lock
	order   []string // lock ids in file order
	sink    EventSink
	pending []ViolationEvent // required telemetry held until a sink exists
}

type rawLockRegistry struct {
	Version string  `yaml:"version"`
	Locks   []*Lock `yaml:"locks"`
}

var validTypes = map[LockType]bool{
	TypeInvariant: true, TypeConstraint: true, TypeBoundary: true, TypeGate: true,
}

var validSeverities = map[Severity]bool{
	SeverityCritical: true, SeverityHigh: true, SeverityMedium: true,
}

var validActions = map[Action]bool{ActionHardFail: true, ActionSoftFail: true}

var validTelemetry = map[TelemetryPolicy]bool{TelemetryRequired: true, TelemetryOptional: true}

// Parse validates lock registry YAML and builds the engine. Enforcement
// coverage is not checked here; Load does that, so tests can build
// engines around deliberately uncovered locks.
func Parse(data []byte) (*Engine, error) {
	var raw rawLockRegistry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &RegistryError{Msg: fmt.Sprintf("yaml: %v", err)}
	}
	if raw.Locks == nil {
		return nil, &RegistryError{Msg: "missing locks section"}
	}
	if raw.Version == "" {
		return nil, &RegistryError{Msg: "missing version"}
	}

	e := &Engine{
		version: raw.Version,
		locks:   make(map[string]*Lock, len(raw.Locks)),
	}

	for _, lock := range raw.Locks {
		if lock.LockID == "" {
			return nil, &RegistryError{Msg: "lock without lock_id"}
		}
		if _, dup := e.locks[lock.LockID]; dup {
			return nil, &RegistryError{Msg: fmt.Sprintf("duplicate lock_id %s", lock.LockID)}
		}
		if !validTypes[lock.Type] {
			return nil, &RegistryError{Msg: fmt.Sprintf("%s: unknown type %q", lock.LockID, lock.Type)}
		}
		if !validSeverities[lock.Severity] {
			return nil, &RegistryError{Msg: fmt.Sprintf("%s: unknown severity %q", lock.LockID, lock.Severity)}
		}
		if !validActions[lock.ViolationPolicy.Action] {
			return nil, &RegistryError{Msg: fmt.Sprintf("%s: unknown violation action %q", lock.LockID, lock.ViolationPolicy.Action)}
		}
		if !validTelemetry[lock.ViolationPolicy.Telemetry] {
			return nil, &RegistryError{Msg: fmt.Sprintf("%s: unknown telemetry policy %q", lock.LockID, lock.ViolationPolicy.Telemetry)}
		}
		if len(lock.Scope) == 0 {
			return nil, &RegistryError{Msg: fmt.Sprintf("%s: empty scope", lock.LockID)}
		}
		if lock.Status == StatusSuperseded && lock.SupersededBy == "" {
			return nil, &RegistryError{Msg: fmt.Sprintf("%s: superseded without superseded_by", lock.LockID)}
		}
		e.locks[lock.LockID] = lock
		e.order = append(e.order, lock.LockID)
	}

	for _, lock := range raw.Locks {
		if lock.SupersededBy != "" {
			if _, ok := e.locks[lock.SupersededBy]; !ok {
				return nil, &RegistryError{Msg: fmt.Sprintf("%s: superseded_by %s does not exist", lock.LockID, lock.SupersededBy)}
			}
		}
	}

	return e, nil
}

// Load reads a lock registry file and rejects it unless every active
// lock carries at least one enforcement mechanism.
func Load(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("constitution: read %s: %w", path, err)
	}
	e, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("constitution: %s: %w", path, err)
	}
	if uncovered := e.ValidateEnforcementCoverage(); len(uncovered) > 0 {
		return nil, fmt.Errorf("constitution: %s: %w", path, &CoverageError{LockIDs: uncovered})
	}
	return e, nil
}

// SetEventSink installs the telemetry sink for violation events.
// Violations that happened under a REQUIRED telemetry policy before any
// sink existed were buffered; they are delivered now, in order.
func (e *Engine) SetEventSink(sink EventSink) {
	e.sink = sink
	if sink == nil {
		return
	}
	for _, ev := range e.pending {
		sink(ev)
	}
	e.pending = nil
}

// Version returns the lock registry version.
func (e *Engine) Version() string { return e.version }

// Lock returns the lock with the given id, or nil.
func (e *Engine) Lock(id string) *Lock { return e.locks[id] }

// Locks returns all locks in file order.
func (e *Engine) Locks() []*Lock {
	out := make([]*Lock, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.locks[id])
	}
	return out
}

// LocksByScope returns the active locks whose scope intersects the given
// scope, in file order.
func (e *Engine) LocksByScope(scope string) []*Lock {
	var out []*Lock
	for _, id := range e.order {
		lock := e.locks[id]
		if lock.Active() && lock.AppliesTo([]string{scope}) {
			out = append(out, lock)
		}
	}
	return out
}

// ValidateEnforcementCoverage returns the ids of active locks with zero
// enforcement mechanisms, sorted. Non-empty means the registry is not
// fit for admission.
func (e *Engine) ValidateEnforcementCoverage() []string {
	uncovered := make(map[string]bool)
	for _, lock := range e.locks {
		if lock.Active() && lock.MechanismCount() == 0 {
			uncovered[lock.LockID] = true
		}
	}
	return sortedIDs(uncovered)
}

// AssertLock checks a runtime condition against a named lock. An unknown
// lock id is a registry error, not a pass. A false condition emits a
// violation event to the sink and returns a LockViolation; without a
// sink, events under a REQUIRED telemetry policy are buffered, not
// dropped.
func (e *Engine) AssertLock(lockID string, condition bool, context string) error {
	lock := e.locks[lockID]
	if lock == nil {
		return &RegistryError{Msg: fmt.Sprintf("assert against unknown lock %s", lockID)}
	}
	if condition {
		return nil
	}
	ev := ViolationEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		LockID:    lock.LockID,
		Severity:  lock.Severity,
		Context:   context,
	}
	switch {
	case e.sink != nil:
		e.sink(ev)
	case lock.ViolationPolicy.Telemetry == TelemetryRequired:
		// REQUIRED telemetry may not be dropped: hold the event until a
		// sink is installed.
		e.pending = append(e.pending, ev)
	}
	return &LockViolation{LockID: lock.LockID, Severity: lock.Severity, Context: context}
}

// RequiredLocks computes the lock ids a PAC touching the given scopes
// must acknowledge: active, tagged for PAC admission, scope-intersecting.
// The result is sorted for determinism.
func (e *Engine) RequiredLocks(scopes []string) []string {
	required := make(map[string]bool)
	for _, lock := range e.locks {
		if lock.Active() && lock.RequiresPACGate() && lock.AppliesTo(scopes) {
			required[lock.LockID] = true
		}
	}
	return sortedIDs(required)
}

// forbiddenZoneMatch finds the first active lock whose forbidden zone
// fragment appears in path. Matching is plain substring over slashed
// paths; file order decides ties.
func (e *Engine) forbiddenZoneMatch(path string) (*Lock, string) {
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, id := range e.order {
		lock := e.locks[id]
		if !lock.Active() {
			continue
		}
		for _, zone := range lock.ForbiddenZones {
			if zone != "" && strings.Contains(normalized, zone) {
				return lock, zone
			}
		}
	}
	return nil, ""
}

// CheckForbiddenZone returns the lock whose forbidden zone the path
// falls into, or nil.
func (e *Engine) CheckForbiddenZone(path string) *Lock {
	lock, _ := e.forbiddenZoneMatch(path)
	return lock
}

// ValidatePACAdmission decides a PAC against the lock registry: every
// required lock must be acknowledged, and no touched file may fall in a
// forbidden zone. Forbidden zones are checked regardless of
// acknowledgment — acknowledging a lock does not buy entry to its zones.
// Zone entries come back as "FORBIDDEN_ZONE:<lock>:<zone>" ahead of the
// plain missing lock ids.
func (e *Engine) ValidatePACAdmission(acknowledged, scopes, touchedFiles []string) (bool, []string) {
	ack := make(map[string]bool, len(acknowledged))
	for _, id := range acknowledged {
		ack[strings.TrimSpace(id)] = true
	}

	var zoneEntries []string
	seenZone := make(map[string]bool)
	for _, file := range touchedFiles {
		if lock, zone := e.forbiddenZoneMatch(file); lock != nil {
			entry := fmt.Sprintf("FORBIDDEN_ZONE:%s:%s", lock.LockID, zone)
			if !seenZone[entry] {
				seenZone[entry] = true
				zoneEntries = append(zoneEntries, entry)
			}
		}
	}
	sort.Strings(zoneEntries)

	var missing []string
	for _, id := range e.RequiredLocks(scopes) {
		if !ack[id] {
			missing = append(missing, id)
		}
	}

	all := append(zoneEntries, missing...)
	return len(all) == 0, all
}
