package activation

import (
	"fmt"
	"strings"

	"github.com/ppiankov/pacgate/internal/registry"
)

// Validator checks activation blocks against one registry snapshot.
// Construct a fresh validator per admission attempt so a registry reload
// mid-flight cannot mix snapshots.
type Validator struct {
	reg *registry.Registry
}

// NewValidator builds a validator over the given registry snapshot.
func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{reg: reg}
}

// Validate checks a block field by field against the registry and
// returns the canonical agent on success. The check order is fixed and
// must not be changed: resolution, GID, role, color, emoji, lane. The
// first failing check returns immediately; a nil block is a violation in
// its own right, not a pass.
func (v *Validator) Validate(block *Block, pacID string) (*registry.Agent, error) {
	if block == nil {
		return nil, &Violation{
			Code:    CodeMissingBlock,
			Message: "no activation block declared",
			PACID:   pacID,
		}
	}

	fail := func(code Code, format string, args ...any) error {
		return &Violation{
			Code:         code,
			Message:      fmt.Sprintf(format, args...),
			PACID:        pacID,
			ClaimedAgent: block.AgentName,
		}
	}

	// 1. Agent resolution (name or alias).
	agent := v.reg.AgentByName(block.AgentName)
	if agent == nil {
		return nil, fail(CodeInvalidAgent, "agent %q is not in the registry", block.AgentName)
	}

	// 2. GID, case-insensitive.
	if !strings.EqualFold(strings.TrimSpace(block.GID), agent.GID) {
		return nil, fail(CodeGIDMismatch, "gid %q does not belong to %s (canonical %s)",
			block.GID, agent.Name, agent.GID)
	}

	// 3. Role: exact match, else significant-word overlap.
	if !roleMatches(block.Role, agent.Role) {
		return nil, fail(CodeRoleMismatch, "role %q does not match canonical role %q",
			block.Role, agent.Role)
	}

	// 4. Color, normalized.
	if normalizeToken(block.Color) != normalizeToken(string(agent.Color)) {
		return nil, fail(CodeColorMismatch, "color %q does not match canonical color %q",
			block.Color, agent.Color)
	}

	// 5. Emoji, byte-equal. Near-identical glyphs are different agents.
	if strings.TrimSpace(block.Emoji) != agent.Emoji {
		return nil, fail(CodeEmojiMismatch, "emoji %q does not match canonical emoji %q",
			block.Emoji, agent.Emoji)
	}

	// 6. Lane, only when declared. The lane bound to the agent's color
	// is authoritative; declaring the color name itself also passes.
	if strings.TrimSpace(block.Lane) != "" {
		expected := v.reg.LaneForColor(agent.Color)
		declared := normalizeToken(block.Lane)
		if declared != normalizeToken(expected) && declared != normalizeToken(string(agent.Color)) {
			return nil, fail(CodeLaneMismatch, "lane %q does not match %s's lane %q",
				block.Lane, agent.Name, expected)
		}
	}

	return agent, nil
}

// roleNoise are rank and filler words ignored during role comparison.
// "Senior Backend Engineer" matches a canonical "Backend Engineering".
// ENGINEERING is deliberately not in the set: it counts as a shared
// significant word, so "Platform Engineering" matches "Backend
// Engineering". Tightening this (overlap ratio, larger noise set) would
// change which roles are accepted and needs product sign-off first.
var roleNoise = map[string]bool{
	"SENIOR": true, "JUNIOR": true, "LEAD": true, "CHIEF": true,
	"ENGINEER": true, "LANE": true, "/": true,
}

// roleMatches accepts an exact case-insensitive match, or any non-empty
// overlap of significant words. A declared role sharing zero significant
// words with the canonical role is a different job.
func roleMatches(declared, canonical string) bool {
	d := strings.ToUpper(strings.TrimSpace(declared))
	c := strings.ToUpper(strings.TrimSpace(canonical))
	if d == c {
		return true
	}

	ds := significantWords(d)
	cs := significantWords(c)
	if len(ds) == 0 || len(cs) == 0 {
		// Nothing but noise words on one side: fall back to exact,
		// which already failed.
		return false
	}
	for w := range ds {
		if cs[w] {
			return true
		}
	}
	return false
}

func significantWords(role string) map[string]bool {
	words := make(map[string]bool)
	role = strings.ReplaceAll(role, "/", " ")
	for _, w := range strings.Fields(role) {
		if !roleNoise[w] {
			words[w] = true
		}
	}
	return words
}

// normalizeToken uppercases and joins words with underscores, so
// "Dark Red", "DARK-RED" and "dark_red" compare equal.
func normalizeToken(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), "_")
}
