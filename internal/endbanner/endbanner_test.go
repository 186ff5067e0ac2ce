package endbanner

import (
	"errors"
	"testing"

	"github.com/ppiankov/pacgate/internal/registry"
)

func testValidator(t *testing.T) *Validator {
	t.Helper()
	reg, err := registry.Parse([]byte(registry.DefaultRegistryYAML))
	if err != nil {
		t.Fatalf("parse default registry: %v", err)
	}
	return New(reg)
}

func TestValidate(t *testing.T) {
	v := testValidator(t)
	executing := Identity{Agent: "CODY", GID: "GID-01", Color: "BLUE"}

	tests := []struct {
		name      string
		executing Identity
		banner    Identity
		wantField string // "" = pass
	}{
		{"matching banner", executing, Identity{Agent: "CODY", GID: "GID-01", Color: "BLUE"}, ""},
		{"case-insensitive agent", executing, Identity{Agent: "cody", GID: "gid-01", Color: "blue"}, ""},
		{"no banner", executing, Identity{}, ""},
		{"no executing declaration", Identity{}, Identity{Agent: "CODY"}, ""},
		{"agent only banner", executing, Identity{Agent: "CODY"}, ""},
		{"wrong agent", executing, Identity{Agent: "DAN"}, "agent"},
		// GID and color are checked against the registry canon, not the
		// header, so a wrong banner gid fails even if the header agreed.
		{"wrong gid", executing, Identity{Agent: "CODY", GID: "GID-07"}, "gid"},
		{"wrong color", executing, Identity{Agent: "CODY", Color: "GREEN"}, "color"},
		{"alias color spelling", executing, Identity{Agent: "CODY", Color: "blue"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.executing, tt.banner, "PAC-TEST-01")
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			var violation *Violation
			if !errors.As(err, &violation) {
				t.Fatalf("err = %v, want *Violation", err)
			}
			if violation.Field != tt.wantField {
				t.Errorf("field = %s, want %s", violation.Field, tt.wantField)
			}
		})
	}
}

func TestValidateDarkRedBanner(t *testing.T) {
	v := testValidator(t)
	executing := Identity{Agent: "SAM", GID: "GID-06", Color: "DARK RED"}

	if err := v.Validate(executing, Identity{Agent: "SAM", Color: "RED"}, "PAC-SEC-01"); err != nil {
		t.Fatalf("RED should normalize to DARK RED: %v", err)
	}
}
