// Package endbanner checks the closing banner of a PAC against the
// opening executing declaration. The banner's GID and color are checked
// against the registry's canonical values, not against whatever the
// header claimed, so a header typo cannot launder a banner mismatch.
package endbanner

import (
	"fmt"
	"strings"

	"github.com/ppiankov/pacgate/internal/colorgate"
	"github.com/ppiankov/pacgate/internal/registry"
)

// Identity is an agent triple as it appears in a PAC header or banner.
// Empty fields are absent, not wrong.
type Identity struct {
	Agent string
	GID   string
	Color string
}

// Empty reports whether no part of the triple was declared.
func (id Identity) Empty() bool {
	return strings.TrimSpace(id.Agent) == "" &&
		strings.TrimSpace(id.GID) == "" &&
		strings.TrimSpace(id.Color) == ""
}

// Violation is a banner field that contradicts the executing declaration
// or the registry.
type Violation struct {
	Field    string
	Observed string
	Expected string
	PACID    string
}

func (e *Violation) Error() string {
	return fmt.Sprintf("end banner violation: %s %q does not match %q (pac=%s)",
		e.Field, e.Observed, e.Expected, e.PACID)
}

// Validator checks banners against one registry snapshot.
type Validator struct {
	reg *registry.Registry
}

// New builds a validator over the given registry snapshot.
func New(reg *registry.Registry) *Validator {
	return &Validator{reg: reg}
}

// Validate compares the closing banner with the executing declaration.
// Either triple being entirely absent skips the check: a missing banner
// is a structural concern, not a banner mismatch. Individual banner
// fields are checked only when present.
func (v *Validator) Validate(executing, banner Identity, pacID string) error {
	if executing.Empty() || banner.Empty() {
		return nil
	}

	if !strings.EqualFold(registry.NormalizeName(banner.Agent), registry.NormalizeName(executing.Agent)) {
		return &Violation{
			Field: "agent", Observed: banner.Agent, Expected: executing.Agent, PACID: pacID,
		}
	}

	agent := v.reg.AgentByName(banner.Agent)
	if agent == nil {
		return &Violation{
			Field: "agent", Observed: banner.Agent, Expected: "a registered agent", PACID: pacID,
		}
	}

	if gid := strings.TrimSpace(banner.GID); gid != "" && !strings.EqualFold(gid, agent.GID) {
		return &Violation{
			Field: "gid", Observed: banner.GID, Expected: agent.GID, PACID: pacID,
		}
	}

	if color := strings.TrimSpace(banner.Color); color != "" {
		if colorgate.Normalize(color) != agent.Color {
			return &Violation{
				Field: "color", Observed: banner.Color, Expected: string(agent.Color), PACID: pacID,
			}
		}
	}

	return nil
}
