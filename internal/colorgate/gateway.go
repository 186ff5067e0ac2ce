// Package colorgate authorizes executing lanes. A color names a lane and
// a set of GIDs allowed to execute under it; the gateway resolves the
// declaring agent and checks the claim. The reserved orchestration color
// is rejected as an executing lane unconditionally, before any identity
// lookup.
package colorgate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/pacgate/internal/registry"
)

// Code identifies the first gateway check that failed.
type Code string

const (
	CodeMissingField  Code = "MISSING_FIELD"
	CodeUnknownColor  Code = "UNKNOWN_COLOR"
	CodeTealExecution Code = "TEAL_EXECUTION"
	CodeUnknownAgent  Code = "UNKNOWN_AGENT"
	CodeColorMismatch Code = "COLOR_MISMATCH"
)

// Violation is a failed lane authorization.
type Violation struct {
	Code    Code
	Message string
	PACID   string
	GID     string
	Color   string
}

func (e *Violation) Error() string {
	msg := fmt.Sprintf("color gateway violation [%s]: %s", e.Code, e.Message)
	if e.PACID != "" {
		msg += fmt.Sprintf(" (pac=%s)", e.PACID)
	}
	return msg
}

// Identity is the resolved executing identity on a successful check.
type Identity struct {
	AgentName string
	GID       string
	Color     registry.Color
}

// Header is the executing-identity triple declared in a PAC header.
type Header struct {
	Agent string
	GID   string
	Color string
}

// Gateway validates executing-lane claims against one registry snapshot.
type Gateway struct {
	reg *registry.Registry
}

// New builds a gateway over the given registry snapshot.
func New(reg *registry.Registry) *Gateway {
	return &Gateway{reg: reg}
}

// ValidateExecution checks that gid may execute under declaredColor.
// The check order is fixed: missing fields, unknown color, reserved
// color, unknown agent, color mismatch. Success returns the resolved
// identity with the canonical color.
func (g *Gateway) ValidateExecution(gid, declaredColor, pacID string) (Identity, error) {
	fail := func(code Code, format string, args ...any) (Identity, error) {
		return Identity{}, &Violation{
			Code:    code,
			Message: fmt.Sprintf(format, args...),
			PACID:   pacID,
			GID:     gid,
			Color:   declaredColor,
		}
	}

	if strings.TrimSpace(gid) == "" {
		return fail(CodeMissingField, "executing gid is empty")
	}
	if strings.TrimSpace(declaredColor) == "" {
		return fail(CodeMissingField, "executing color is empty")
	}

	color := Normalize(declaredColor)
	if !g.reg.KnownColor(color) {
		return fail(CodeUnknownColor, "color %q is not a registered lane", declaredColor)
	}

	// Reserved orchestration color: never an executing lane, for anyone.
	if color == registry.ReservedColor {
		return fail(CodeTealExecution, "%s is the orchestration color and never an executing lane", registry.ReservedColor)
	}

	agent := g.reg.AgentByGID(gid)
	if agent == nil {
		return fail(CodeUnknownAgent, "gid %q is not in the registry", gid)
	}

	// The lane's authorized list decides, not the agent's own color
	// field. The two agree in a consistent registry; when they diverge
	// the list is authoritative.
	lane := g.reg.Lane(color)
	if lane == nil || !lane.Authorized(agent.GID) {
		return fail(CodeColorMismatch, "%s (%s) is not authorized under declared color %q; its lane is %s (gids %v)",
			agent.Name, agent.GID, declaredColor, agent.Color, authorizedGIDs(g.reg.Lane(agent.Color)))
	}

	return Identity{AgentName: agent.Name, GID: agent.GID, Color: color}, nil
}

func authorizedGIDs(lane *registry.ColorLane) []string {
	if lane == nil {
		return nil
	}
	return lane.AuthorizedGIDs
}

// ValidatePACHeader checks a PAC header's executing triple. All three
// fields must be present; the agent name must resolve and agree with the
// GID before the lane check runs.
func (g *Gateway) ValidatePACHeader(h Header, pacID string) (Identity, error) {
	for _, f := range []struct{ name, value string }{
		{"agent", h.Agent}, {"gid", h.GID}, {"color", h.Color},
	} {
		if strings.TrimSpace(f.value) == "" {
			return Identity{}, &Violation{
				Code: CodeMissingField, PACID: pacID, GID: h.GID, Color: h.Color,
				Message: fmt.Sprintf("executing %s is empty", f.name),
			}
		}
	}
	agent := g.reg.AgentByName(h.Agent)
	if agent == nil {
		return Identity{}, &Violation{
			Code: CodeUnknownAgent, PACID: pacID, GID: h.GID, Color: h.Color,
			Message: fmt.Sprintf("agent %q is not in the registry", h.Agent),
		}
	}
	if !strings.EqualFold(strings.TrimSpace(h.GID), agent.GID) {
		return Identity{}, &Violation{
			Code: CodeColorMismatch, PACID: pacID, GID: h.GID, Color: h.Color,
			Message: fmt.Sprintf("gid %q does not belong to %s (canonical %s)", h.GID, agent.Name, agent.GID),
		}
	}
	return g.ValidateExecution(agent.GID, h.Color, pacID)
}
