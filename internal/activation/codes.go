package activation

import "fmt"

// Code identifies the first check an activation block failed. The set is
// closed; gate outcomes and audit entries key off these values.
type Code string

const (
	CodeMissingBlock             Code = "MISSING_ACTIVATION_BLOCK"
	CodeInvalidAgent             Code = "INVALID_AGENT_NAME"
	CodeGIDMismatch              Code = "GID_AGENT_MISMATCH"
	CodeRoleMismatch             Code = "ROLE_MISMATCH"
	CodeColorMismatch            Code = "COLOR_MISMATCH"
	CodeEmojiMismatch            Code = "EMOJI_MISMATCH"
	CodeLaneMismatch             Code = "LANE_COLOR_MISMATCH"
	CodeMissingProhibitedActions Code = "MISSING_PROHIBITED_ACTIONS"
	CodeMissingPersonaBinding    Code = "MISSING_PERSONA_BINDING"
)

// Violation is a failed activation check. The claimed agent and the PAC
// id travel with the error so audit entries can name the offender.
type Violation struct {
	Code         Code
	Message      string
	PACID        string
	ClaimedAgent string
}

func (e *Violation) Error() string {
	msg := fmt.Sprintf("activation violation [%s]: %s", e.Code, e.Message)
	if e.ClaimedAgent != "" {
		msg += fmt.Sprintf(" (agent=%s)", e.ClaimedAgent)
	}
	if e.PACID != "" {
		msg += fmt.Sprintf(" (pac=%s)", e.PACID)
	}
	return msg
}
