// Package admission is the gate every PAC passes before any work is
// authorized. It composes the activation validator, the color gateway,
// the END-banner check and the lock registry into one fixed-order
// decision, records every attempt on the audit trail, and fails closed
// on anything it cannot prove.
package admission

import (
	"fmt"
	"strings"

	"github.com/ppiankov/pacgate/internal/activation"
)

// Identity is an agent triple declared in a PAC. Empty fields are
// absent.
type Identity struct {
	Agent string
	GID   string
	Color string
}

// Empty reports whether nothing in the triple was declared.
func (id Identity) Empty() bool {
	return strings.TrimSpace(id.Agent) == "" &&
		strings.TrimSpace(id.GID) == "" &&
		strings.TrimSpace(id.Color) == ""
}

// Declaration is everything a PAC declares for admission. Build one
// with NewDeclaration; the constructor enforces the id format and
// non-empty scopes.
type Declaration struct {
	PACID             string
	AcknowledgedLocks []string
	AffectedScopes    []string
	TouchedFiles      []string
	Executing         Identity
	EndBanner         Identity
	Activation        *activation.Block
}

// DeclarationError rejects a malformed declaration before any gate
// runs.
type DeclarationError struct {
	PACID string
	Msg   string
}

func (e *DeclarationError) Error() string {
	if e.PACID == "" {
		return "invalid declaration: " + e.Msg
	}
	return fmt.Sprintf("invalid declaration %s: %s", e.PACID, e.Msg)
}

// NewDeclaration validates and returns an immutable declaration. The
// PAC id must look like PAC-SEGMENT[-SEGMENT...] with uppercase
// alphanumeric segments, and at least one affected scope must be
// declared — a PAC that touches nothing has nothing to admit.
func NewDeclaration(d Declaration) (*Declaration, error) {
	if strings.TrimSpace(d.PACID) == "" {
		return nil, &DeclarationError{Msg: "empty PAC id"}
	}
	if !ValidPACID(d.PACID) {
		return nil, &DeclarationError{PACID: d.PACID, Msg: "PAC id must be PAC-SEGMENT[-SEGMENT...]"}
	}
	if len(d.AffectedScopes) == 0 {
		return nil, &DeclarationError{PACID: d.PACID, Msg: "no affected scopes declared"}
	}
	out := d
	out.AcknowledgedLocks = append([]string(nil), d.AcknowledgedLocks...)
	out.AffectedScopes = append([]string(nil), d.AffectedScopes...)
	out.TouchedFiles = append([]string(nil), d.TouchedFiles...)
	return &out, nil
}

// ValidPACID reports whether id is a well-formed PAC identifier.
func ValidPACID(id string) bool {
	segments := strings.Split(id, "-")
	if len(segments) < 2 || segments[0] != "PAC" {
		return false
	}
	for _, seg := range segments[1:] {
		if seg == "" {
			return false
		}
		for i := 0; i < len(seg); i++ {
			c := seg[i]
			if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
				return false
			}
		}
	}
	return true
}
