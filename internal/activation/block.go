// Package activation validates agent activation blocks: the identity
// header an agent publishes before executing anything. Every declared
// field is checked against the canonical registry; the first mismatch
// fails the whole block.
package activation

import (
	"fmt"
	"strings"
)

// Block is a parsed activation declaration. Blocks are constructed once
// via NewBlock and never mutated afterwards.
type Block struct {
	AgentName         string
	GID               string
	Role              string
	Color             string
	Emoji             string
	Lane              string // optional
	ProhibitedActions []string
	PersonaBinding    string
}

// requiredFields maps the constructor's completeness checks to the
// violation they raise when absent.
func (b *Block) missingField() (string, Code) {
	switch {
	case strings.TrimSpace(b.AgentName) == "":
		return "agent name", CodeInvalidAgent
	case strings.TrimSpace(b.GID) == "":
		return "gid", CodeGIDMismatch
	case strings.TrimSpace(b.Role) == "":
		return "role", CodeRoleMismatch
	case strings.TrimSpace(b.Color) == "":
		return "color", CodeColorMismatch
	case strings.TrimSpace(b.Emoji) == "":
		return "emoji", CodeEmojiMismatch
	case len(b.ProhibitedActions) == 0:
		return "prohibited actions", CodeMissingProhibitedActions
	case strings.TrimSpace(b.PersonaBinding) == "":
		return "persona binding", CodeMissingPersonaBinding
	}
	return "", ""
}

// NewBlock validates completeness and returns an immutable block.
// All identity fields, at least one prohibited action, and the persona
// binding must be present; the lane is optional.
func NewBlock(b Block) (*Block, error) {
	if field, code := b.missingField(); field != "" {
		return nil, &Violation{
			Code:         code,
			Message:      fmt.Sprintf("activation block is missing its %s", field),
			ClaimedAgent: b.AgentName,
		}
	}
	out := b
	out.ProhibitedActions = append([]string(nil), b.ProhibitedActions...)
	return &out, nil
}
