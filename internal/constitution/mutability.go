package constitution

import (
	"fmt"
	"sort"
	"strings"
)

// MutabilityViolation is one frozen-field change between two lock
// registry snapshots claiming the same version.
type MutabilityViolation struct {
	LockID string
	Field  string
	Old    string
	New    string
}

func (v MutabilityViolation) String() string {
	if v.Field == "" {
		return fmt.Sprintf("%s: lock removed without a version bump", v.LockID)
	}
	return fmt.Sprintf("%s: frozen field %q changed from %q to %q without a version bump", v.LockID, v.Field, v.Old, v.New)
}

// ValidateMutability diffs two lock registries. With the version
// unchanged, the identity-bearing fields of every lock are frozen and no
// lock may disappear. Descriptions and enforcement wiring stay editable;
// what a lock is may not drift silently.
func ValidateMutability(old, updated *Engine) []MutabilityViolation {
	if old.version != updated.version {
		return nil
	}

	var violations []MutabilityViolation

	ids := make([]string, 0, len(old.locks))
	for id := range old.locks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		prev := old.locks[id]
		next := updated.locks[id]
		if next == nil {
			violations = append(violations, MutabilityViolation{LockID: id})
			continue
		}
		for _, f := range []struct {
			name     string
			old, new string
		}{
			{"type", string(prev.Type), string(next.Type)},
			{"scope", strings.Join(prev.Scope, ","), strings.Join(next.Scope, ",")},
			{"severity", string(prev.Severity), string(next.Severity)},
			{"violation_policy", policyString(prev.ViolationPolicy), policyString(next.ViolationPolicy)},
			{"forbidden_zones", strings.Join(prev.ForbiddenZones, ","), strings.Join(next.ForbiddenZones, ",")},
		} {
			if f.old != f.new {
				violations = append(violations, MutabilityViolation{
					LockID: id, Field: f.name, Old: f.old, New: f.new,
				})
			}
		}
	}

	return violations
}

func policyString(p ViolationPolicy) string {
	return string(p.Action) + "/" + string(p.Telemetry)
}
