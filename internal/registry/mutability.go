package registry

import (
	"fmt"
	"sort"
	"strings"
)

// MutabilityViolation is one immutable-field change detected between two
// registry snapshots that claim the same version.
type MutabilityViolation struct {
	Record string // agent name
	Field  string
	Old    string
	New    string
}

func (v MutabilityViolation) String() string {
	if v.Field == "" {
		return fmt.Sprintf("%s: record removed without a version bump", v.Record)
	}
	return fmt.Sprintf("%s: immutable field %q changed from %q to %q without a version bump", v.Record, v.Field, v.Old, v.New)
}

// ValidateMutability diffs two registry snapshots. When the version is
// unchanged, every field an agent declares immutable — plus the
// always-immutable set — must be byte-identical, and no agent may
// disappear. A version bump waives the check entirely.
func ValidateMutability(old, updated *Registry) []MutabilityViolation {
	if old.version != updated.version {
		return nil
	}

	var violations []MutabilityViolation

	names := make([]string, 0, len(old.agents))
	for name := range old.agents {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prev := old.agents[name]
		next := updated.AgentByName(name)
		if next == nil {
			violations = append(violations, MutabilityViolation{Record: name})
			continue
		}

		frozen := make([]string, 0, len(prev.ImmutableFields)+len(AlwaysImmutable))
		frozen = append(frozen, AlwaysImmutable...)
		for _, f := range prev.ImmutableFields {
			if !containsFold(frozen, f) {
				frozen = append(frozen, f)
			}
		}

		for _, field := range frozen {
			oldVal, ok := fieldValue(prev, field)
			if !ok {
				continue
			}
			newVal, _ := fieldValue(next, field)
			if oldVal != newVal {
				violations = append(violations, MutabilityViolation{
					Record: name, Field: strings.ToLower(field), Old: oldVal, New: newVal,
				})
			}
		}
	}

	return violations
}

// fieldValue renders one agent field by its registry-file key.
func fieldValue(a *Agent, field string) (string, bool) {
	switch strings.ToLower(field) {
	case "gid":
		return a.GID, true
	case "lane":
		return a.Lane, true
	case "color":
		return string(a.Color), true
	case "emoji_primary":
		return a.Emoji, true
	case "role":
		return a.Role, true
	case "agent_level":
		return string(a.Level), true
	case "diversity_profile":
		return strings.Join(a.DiversityProfile, ","), true
	case "aliases":
		return strings.Join(a.Aliases, ","), true
	default:
		return "", false
	}
}
