// Package registry holds the canonical agent and color-lane registry.
// The registry is the single source of truth every gate validates against:
// agents never self-describe their identity, they only claim one, and the
// claim is checked here. Loaded registries are immutable; administrative
// changes go through a fresh load (see Store).
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Color is a canonical lane color name, uppercase, space-separated
// ("DARK RED", not "DARK_RED").
type Color string

const (
	ColorTeal    Color = "TEAL"
	ColorBlue    Color = "BLUE"
	ColorYellow  Color = "YELLOW"
	ColorPurple  Color = "PURPLE"
	ColorOrange  Color = "ORANGE"
	ColorDarkRed Color = "DARK RED"
	ColorGreen   Color = "GREEN"
	ColorWhite   Color = "WHITE"
	ColorPink    Color = "PINK"
)

// ReservedColor is the orchestration color. It is never a valid executing
// lane, and only GIDs in its lane's reserved set may carry it at all.
const ReservedColor = ColorTeal

// Level is an agent rank, L0 (orchestrator) through L3.
type Level string

// Agent is one registered identity. Fields mirror the registry file; the
// struct is read-only once the registry is built.
type Agent struct {
	Name             string
	GID              string
	Role             string
	Color            Color
	Emoji            string
	Lane             string
	Level            Level
	Aliases          []string
	DiversityProfile []string
	MutableFields    []string
	ImmutableFields  []string
}

// ColorLane maps one color to its lane and the GIDs allowed to execute
// under it. ReservedGIDs is only populated for the reserved color.
type ColorLane struct {
	Color          Color
	Lane           string
	AuthorizedGIDs []string
	ReservedGIDs   []string
}

// Authorized reports whether gid may execute under this lane.
func (l *ColorLane) Authorized(gid string) bool {
	for _, g := range l.AuthorizedGIDs {
		if strings.EqualFold(g, gid) {
			return true
		}
	}
	return false
}

// Registry is an immutable snapshot of the agent and lane tables.
type Registry struct {
	version string
	agents  map[string]*Agent // canonical name -> agent
	byGID   map[string]*Agent
	byAlias map[string]*Agent
	lanes   map[Color]*ColorLane
	raw     rawRegistry // retained for mutability diffing
}

// Source yields registry snapshots. *Registry is its own Source, so
// callers that never reload can pass the registry directly; long-running
// processes pass a *Store.
type Source interface {
	Snapshot() *Registry
}

// Snapshot returns the registry itself. A loaded registry never changes.
func (r *Registry) Snapshot() *Registry { return r }

// Load reads and validates a registry YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("registry: %s: %w", path, err)
	}
	return reg, nil
}

// Parse validates registry YAML and builds the lookup tables.
// Any schema violation fails the whole load; there is no partial registry.
func Parse(data []byte) (*Registry, error) {
	var raw rawRegistry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &SchemaError{Problems: []string{fmt.Sprintf("yaml: %v", err)}}
	}
	var present map[string]any
	if err := yaml.Unmarshal(data, &present); err != nil {
		return nil, &SchemaError{Problems: []string{fmt.Sprintf("yaml: %v", err)}}
	}

	if problems := validateSchema(&raw, present); len(problems) > 0 {
		return nil, &SchemaError{Problems: problems}
	}

	reg := &Registry{
		version: raw.RegistryVersion,
		agents:  make(map[string]*Agent),
		byGID:   make(map[string]*Agent),
		byAlias: make(map[string]*Agent),
		lanes:   make(map[Color]*ColorLane),
		raw:     raw,
	}

	for key, rl := range raw.ColorLanes {
		color := Color(canonicalColorKey(key))
		reg.lanes[color] = &ColorLane{
			Color:          color,
			Lane:           rl.Lane,
			AuthorizedGIDs: append([]string(nil), rl.AuthorizedGIDs...),
			ReservedGIDs:   append([]string(nil), rl.ReservedGIDs...),
		}
	}

	for name, ra := range raw.Agents {
		canonical := NormalizeName(name)
		agent := &Agent{
			Name:             canonical,
			GID:              ra.GID,
			Role:             ra.Role,
			Color:            Color(canonicalColorKey(ra.Color)),
			Emoji:            ra.EmojiPrimary,
			Lane:             ra.Lane,
			Level:            Level(ra.AgentLevel),
			Aliases:          append([]string(nil), ra.Aliases...),
			DiversityProfile: append([]string(nil), ra.DiversityProfile...),
			MutableFields:    append([]string(nil), ra.MutableFields...),
			ImmutableFields:  append([]string(nil), ra.ImmutableFields...),
		}
		reg.agents[canonical] = agent
		reg.byGID[strings.ToUpper(agent.GID)] = agent
		for _, alias := range agent.Aliases {
			reg.byAlias[NormalizeName(alias)] = agent
		}
	}

	if problems := reg.checkInvariants(); len(problems) > 0 {
		return nil, &SchemaError{Problems: problems}
	}
	return reg, nil
}

// Version returns the registry semver.
func (r *Registry) Version() string { return r.version }

// AgentByName resolves an agent by display name or alias. Resolution is
// case-insensitive and treats spaces and hyphens as equivalent. Returns
// nil when no agent matches.
func (r *Registry) AgentByName(name string) *Agent {
	key := NormalizeName(name)
	if a, ok := r.agents[key]; ok {
		return a
	}
	if a, ok := r.byAlias[key]; ok {
		return a
	}
	return nil
}

// AgentByGID resolves an agent by GID, case-insensitively.
func (r *Registry) AgentByGID(gid string) *Agent {
	return r.byGID[strings.ToUpper(strings.TrimSpace(gid))]
}

// Lane returns the lane record for a color, or nil for unknown colors.
func (r *Registry) Lane(color Color) *ColorLane {
	return r.lanes[color]
}

// LaneForColor returns the lane name bound to a color, or "" when the
// color is not in the lane table.
func (r *Registry) LaneForColor(color Color) string {
	if l := r.lanes[color]; l != nil {
		return l.Lane
	}
	return ""
}

// KnownColor reports whether color appears in the lane table.
func (r *Registry) KnownColor(color Color) bool {
	_, ok := r.lanes[color]
	return ok
}

// ReservedGID reports whether gid sits in the reserved color's
// reserved-GID set.
func (r *Registry) ReservedGID(gid string) bool {
	lane := r.lanes[ReservedColor]
	if lane == nil {
		return false
	}
	for _, g := range lane.ReservedGIDs {
		if strings.EqualFold(g, gid) {
			return true
		}
	}
	return false
}

// Agents returns all agents ordered by GID.
func (r *Registry) Agents() []*Agent {
	out := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GID < out[j].GID })
	return out
}

// Colors returns the colors in the lane table, sorted.
func (r *Registry) Colors() []Color {
	out := make([]Color, 0, len(r.lanes))
	for c := range r.lanes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NormalizeName canonicalizes an agent name: uppercase, internal spaces
// collapsed to single hyphens.
func NormalizeName(name string) string {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(name)))
	return strings.Join(fields, "-")
}

// canonicalColorKey normalizes a lane-table key or declared color field:
// uppercase, underscores and hyphens become spaces.
func canonicalColorKey(key string) string {
	s := strings.ToUpper(strings.TrimSpace(key))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
