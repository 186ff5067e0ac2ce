package activation

import (
	"errors"
	"testing"

	"github.com/ppiankov/pacgate/internal/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Parse([]byte(registry.DefaultRegistryYAML))
	if err != nil {
		t.Fatalf("parse default registry: %v", err)
	}
	return reg
}

func codyBlock() Block {
	return Block{
		AgentName:         "CODY",
		GID:               "GID-01",
		Role:              "Backend Engineering",
		Color:             "BLUE",
		Emoji:             "\U0001F535",
		Lane:              "Backend Engineering",
		ProhibitedActions: []string{"merge without review"},
		PersonaBinding:    "Executing as CODY",
	}
}

func TestNewBlockCompleteness(t *testing.T) {
	if _, err := NewBlock(codyBlock()); err != nil {
		t.Fatalf("complete block rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Block)
		code   Code
	}{
		{"empty agent", func(b *Block) { b.AgentName = "" }, CodeInvalidAgent},
		{"empty gid", func(b *Block) { b.GID = " " }, CodeGIDMismatch},
		{"empty role", func(b *Block) { b.Role = "" }, CodeRoleMismatch},
		{"empty color", func(b *Block) { b.Color = "" }, CodeColorMismatch},
		{"empty emoji", func(b *Block) { b.Emoji = "" }, CodeEmojiMismatch},
		{"no prohibited actions", func(b *Block) { b.ProhibitedActions = nil }, CodeMissingProhibitedActions},
		{"empty persona binding", func(b *Block) { b.PersonaBinding = "" }, CodeMissingPersonaBinding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := codyBlock()
			tt.mutate(&b)
			_, err := NewBlock(b)
			var v *Violation
			if !errors.As(err, &v) {
				t.Fatalf("err = %v, want *Violation", err)
			}
			if v.Code != tt.code {
				t.Errorf("code = %s, want %s", v.Code, tt.code)
			}
		})
	}

	// Lane stays optional.
	b := codyBlock()
	b.Lane = ""
	if _, err := NewBlock(b); err != nil {
		t.Errorf("laneless block rejected: %v", err)
	}
}

func TestValidateOrder(t *testing.T) {
	v := NewValidator(testRegistry(t))

	tests := []struct {
		name   string
		mutate func(*Block)
		code   Code
	}{
		{"unknown agent", func(b *Block) { b.AgentName = "ZORRO" }, CodeInvalidAgent},
		{"wrong gid", func(b *Block) { b.GID = "GID-02" }, CodeGIDMismatch},
		{"unrelated role", func(b *Block) { b.Role = "Frontend Design" }, CodeRoleMismatch},
		{"wrong color", func(b *Block) { b.Color = "GREEN" }, CodeColorMismatch},
		{"wrong emoji", func(b *Block) { b.Emoji = "\U0001F7E2" }, CodeEmojiMismatch},
		{"wrong lane", func(b *Block) { b.Lane = "Security" }, CodeLaneMismatch},
		// Multiple bad fields: the earliest check in the fixed order wins.
		{"gid beats color", func(b *Block) { b.GID = "GID-05"; b.Color = "PINK" }, CodeGIDMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := codyBlock()
			tt.mutate(&b)
			_, err := v.Validate(&b, "PAC-TEST-01")
			var violation *Violation
			if !errors.As(err, &violation) {
				t.Fatalf("err = %v, want *Violation", err)
			}
			if violation.Code != tt.code {
				t.Errorf("code = %s, want %s", violation.Code, tt.code)
			}
			if violation.PACID != "PAC-TEST-01" {
				t.Errorf("pac id = %q", violation.PACID)
			}
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	v := NewValidator(testRegistry(t))

	tests := []struct {
		name   string
		mutate func(*Block)
	}{
		{"canonical", func(b *Block) {}},
		{"lowercase gid", func(b *Block) { b.GID = "gid-01" }},
		{"alias resolution", func(b *Block) {}},
		{"role with rank noise", func(b *Block) { b.Role = "Senior Backend Engineer" }},
		{"role word overlap", func(b *Block) { b.Role = "Backend Services" }},
		{"hyphenated color", func(b *Block) { b.Color = "blue" }},
		{"lane as color name", func(b *Block) { b.Lane = "BLUE" }},
		{"no lane", func(b *Block) { b.Lane = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := codyBlock()
			tt.mutate(&b)
			agent, err := v.Validate(&b, "PAC-TEST-01")
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if agent.GID != "GID-01" {
				t.Errorf("agent = %s", agent.GID)
			}
		})
	}
}

func TestValidateDarkRedNormalization(t *testing.T) {
	v := NewValidator(testRegistry(t))

	b := Block{
		AgentName:         "SAM",
		GID:               "GID-06",
		Role:              "Security Engineering",
		Color:             "dark-red",
		Emoji:             "\U0001F534",
		ProhibitedActions: []string{"disable controls"},
		PersonaBinding:    "Executing as SAM",
	}
	if _, err := v.Validate(&b, "PAC-SEC-01"); err != nil {
		t.Fatalf("dark-red should normalize to DARK RED: %v", err)
	}
}

func TestValidateNilBlock(t *testing.T) {
	v := NewValidator(testRegistry(t))
	_, err := v.Validate(nil, "PAC-TEST-01")
	var violation *Violation
	if !errors.As(err, &violation) || violation.Code != CodeMissingBlock {
		t.Fatalf("err = %v, want MISSING_ACTIVATION_BLOCK", err)
	}
}

func TestRoleMatches(t *testing.T) {
	tests := []struct {
		declared, canonical string
		want                bool
	}{
		{"Backend Engineering", "Backend Engineering", true},
		{"backend engineering", "Backend Engineering", true},
		{"Senior Backend Engineer", "Backend Engineering", true},
		{"Backend / Services", "Backend Engineering", true},
		// ENGINEERING is a significant word, not noise.
		{"Platform Engineering", "Backend Engineering", true},
		{"Frontend Design", "Backend Engineering", false},
		{"Lead Engineer", "Backend Engineering", false}, // noise only
		{"", "Backend Engineering", false},
	}
	for _, tt := range tests {
		if got := roleMatches(tt.declared, tt.canonical); got != tt.want {
			t.Errorf("roleMatches(%q, %q) = %v, want %v", tt.declared, tt.canonical, got, tt.want)
		}
	}
}
