package registry

import (
	"fmt"
	"sort"
	"strings"
)

// rawRegistry mirrors the on-disk YAML shape.
type rawRegistry struct {
	RegistryVersion string               `yaml:"registry_version"`
	SchemaMetadata  rawSchemaMetadata    `yaml:"schema_metadata"`
	Agents          map[string]rawAgent  `yaml:"agents"`
	ColorLanes      map[string]rawLane   `yaml:"color_lanes"`
	Invariants      map[string]string    `yaml:"governance_invariants"`
}

type rawSchemaMetadata struct {
	AgentLevels     map[string]string `yaml:"agent_levels"`
	FieldMutability string            `yaml:"field_mutability"`
}

type rawAgent struct {
	GID              string   `yaml:"gid"`
	Lane             string   `yaml:"lane"`
	Color            string   `yaml:"color"`
	EmojiPrimary     string   `yaml:"emoji_primary"`
	AgentLevel       string   `yaml:"agent_level"`
	DiversityProfile []string `yaml:"diversity_profile"`
	Role             string   `yaml:"role"`
	Aliases          []string `yaml:"aliases"`
	MutableFields    []string `yaml:"mutable_fields"`
	ImmutableFields  []string `yaml:"immutable_fields"`
}

type rawLane struct {
	Lane           string   `yaml:"lane"`
	AuthorizedGIDs []string `yaml:"authorized_gids"`
	ReservedGIDs   []string `yaml:"reserved_gids"`
}

// SchemaError reports every schema problem found in one load, not just
// the first. A registry with any problem is rejected whole.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 1 {
		return "registry schema invalid: " + e.Problems[0]
	}
	return fmt.Sprintf("registry schema invalid: %d problems: %s",
		len(e.Problems), strings.Join(e.Problems, "; "))
}

var requiredTopLevel = []string{
	"registry_version", "agents", "color_lanes", "governance_invariants", "schema_metadata",
}

var requiredAgentFields = []string{
	"gid", "lane", "color", "emoji_primary", "agent_level",
	"diversity_profile", "role", "mutable_fields", "immutable_fields",
}

// AlwaysImmutable are the fields that may never change for an existing
// agent, regardless of what the agent record declares mutable.
var AlwaysImmutable = []string{"gid", "lane", "color"}

var validLevels = map[string]bool{"L0": true, "L1": true, "L2": true, "L3": true}

// validateSchema checks file-level structure before any lookup table is
// built. present holds the raw decoded document for key-presence checks.
func validateSchema(raw *rawRegistry, present map[string]any) []string {
	var problems []string

	for _, key := range requiredTopLevel {
		if _, ok := present[key]; !ok {
			problems = append(problems, fmt.Sprintf("missing required top-level field %q", key))
		}
	}
	if raw.RegistryVersion != "" && !validSemver(raw.RegistryVersion) {
		problems = append(problems, fmt.Sprintf("registry_version %q is not MAJOR.MINOR.PATCH", raw.RegistryVersion))
	}

	agentsRaw, _ := present["agents"].(map[string]any)

	names := make([]string, 0, len(raw.Agents))
	for name := range raw.Agents {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		a := raw.Agents[name]
		fields, _ := agentsRaw[name].(map[string]any)
		for _, key := range requiredAgentFields {
			if _, ok := fields[key]; !ok {
				problems = append(problems, fmt.Sprintf("agent %s: missing required field %q", name, key))
			}
		}
		if a.GID != "" && !validGID(a.GID) {
			problems = append(problems, fmt.Sprintf("agent %s: gid %q does not match GID-NN", name, a.GID))
		}
		if a.AgentLevel != "" && !validLevels[a.AgentLevel] {
			problems = append(problems, fmt.Sprintf("agent %s: agent_level %q not in L0..L3", name, a.AgentLevel))
		}
		for _, f := range AlwaysImmutable {
			if !containsFold(a.ImmutableFields, f) {
				problems = append(problems, fmt.Sprintf("agent %s: immutable_fields must include %q", name, f))
			}
		}
		for _, f := range a.MutableFields {
			if containsFold(AlwaysImmutable, f) {
				problems = append(problems, fmt.Sprintf("agent %s: %q may not be declared mutable", name, f))
			}
		}
	}

	return problems
}

// checkInvariants runs the cross-record self-checks after the lookup
// tables exist: one color per agent and the color must exist in the lane
// table; unique GIDs; unique emoji within a color; reserved-color
// claimants confined to the reserved-GID set.
func (r *Registry) checkInvariants() []string {
	var problems []string

	seenGID := make(map[string]string)
	seenEmoji := make(map[string]string) // color+emoji -> agent

	for _, a := range r.Agents() {
		if a.Color == "" {
			problems = append(problems, fmt.Sprintf("agent %s: color is empty", a.Name))
			continue
		}
		lane := r.lanes[a.Color]
		if lane == nil {
			problems = append(problems, fmt.Sprintf("agent %s: color %q not in color_lanes", a.Name, a.Color))
			continue
		}
		if prev, dup := seenGID[strings.ToUpper(a.GID)]; dup {
			problems = append(problems, fmt.Sprintf("agents %s and %s share gid %s", prev, a.Name, a.GID))
		}
		seenGID[strings.ToUpper(a.GID)] = a.Name

		if a.Emoji != "" {
			key := string(a.Color) + "/" + a.Emoji
			if prev, dup := seenEmoji[key]; dup {
				problems = append(problems, fmt.Sprintf("agents %s and %s share emoji %s within color %s", prev, a.Name, a.Emoji, a.Color))
			}
			seenEmoji[key] = a.Name
		}

		if a.Color == ReservedColor && !r.ReservedGID(a.GID) {
			problems = append(problems, fmt.Sprintf("agent %s claims reserved color %s but gid %s is not in its reserved set", a.Name, ReservedColor, a.GID))
		}
	}

	return problems
}

// validGID accepts GID-NN (two digits, uppercase prefix).
func validGID(gid string) bool {
	if len(gid) != 6 || !strings.HasPrefix(gid, "GID-") {
		return false
	}
	return isDigit(gid[4]) && isDigit(gid[5])
}

// validSemver accepts MAJOR.MINOR.PATCH with numeric segments.
func validSemver(v string) bool {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for i := 0; i < len(p); i++ {
			if !isDigit(p[i]) {
				return false
			}
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func containsFold(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
