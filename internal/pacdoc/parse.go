// Package pacdoc extracts an admission declaration from raw PAC text.
// Parsing is tolerant about layout — agents paste these documents by
// hand — but everything extracted is validated by the gate afterwards,
// so sloppy parsing can only deny, never admit.
package pacdoc

import (
	"strings"

	"github.com/ppiankov/pacgate/internal/activation"
	"github.com/ppiankov/pacgate/internal/admission"
	"github.com/ppiankov/pacgate/internal/colorgate"
	"github.com/ppiankov/pacgate/internal/structural"
)

// Parse builds a full declaration from PAC text. The activation block,
// when present, must be complete; a half-written block is an error, not
// an absent one.
func Parse(text string) (*admission.Declaration, error) {
	d := Declaration(text)

	if block, found := ParseBlock(text); found {
		validated, err := activation.NewBlock(*block)
		if err != nil {
			return nil, err
		}
		d.Activation = validated
	}

	return admission.NewDeclaration(d)
}

// Declaration extracts the declaration fields without constructing or
// validating anything. Useful for lint surfaces that report field by
// field.
func Declaration(text string) admission.Declaration {
	return admission.Declaration{
		PACID:             PACID(text),
		AcknowledgedLocks: lockIDs(text),
		AffectedScopes:    listField(text, "AFFECTED SCOPES", "SCOPES"),
		TouchedFiles:      bulletsUnder(text, "TOUCHED FILES"),
		Executing:         ExecutingIdentity(text),
		EndBanner:         EndBannerIdentity(text),
	}
}

// PACID finds the first well-formed PAC identifier in the text.
func PACID(text string) string {
	for _, tok := range idTokens(text, "PAC-") {
		if admission.ValidPACID(tok) {
			return tok
		}
	}
	return ""
}

// ExecutingIdentity reads the EXECUTING AGENT / EXECUTING COLOR header
// fields. The GID may ride on the agent line ("CODY (GID-01)") or on
// its own line.
func ExecutingIdentity(text string) admission.Identity {
	id := admission.Identity{
		Agent: fieldValue(text, "EXECUTING AGENT"),
		Color: fieldValue(text, "EXECUTING COLOR"),
	}
	if id.Agent != "" {
		if gid := scanGID(id.Agent); gid != "" {
			id.GID = gid
			id.Agent = strings.TrimSpace(strings.Split(id.Agent, "(")[0])
		}
	}
	if id.GID == "" {
		id.GID = fieldValue(text, "EXECUTING GID")
	}
	return id
}

// EndBannerIdentity reads the closing banner triple via the structural
// tokenizer.
func EndBannerIdentity(text string) admission.Identity {
	for _, tok := range structural.Tokenize(text) {
		if tok.Kind == structural.TokenEndBanner {
			return admission.Identity{Agent: tok.Agent, GID: tok.GID, Color: tok.Emoji}
		}
	}
	return admission.Identity{}
}

// ParseBlock extracts the activation block fields. found is true when
// at least the AGENT and GID labels were present; the returned block is
// raw and may be incomplete — run it through activation.NewBlock.
func ParseBlock(text string) (*activation.Block, bool) {
	tokens := structural.Tokenize(text)
	lines := strings.Split(text, "\n")

	block := &activation.Block{}
	seen := make(map[string]bool)

	for _, tok := range tokens {
		if tok.Kind != structural.TokenFieldLabel || seen[tok.Label] {
			continue
		}
		value := valueAfterLabel(tok.Text)
		seen[tok.Label] = true
		switch tok.Label {
		case "AGENT":
			block.AgentName = stripGlyphs(value)
		case "GID":
			block.GID = scanGID(value)
		case "ROLE":
			block.Role = value
		case "COLOR":
			block.Color = stripGlyphs(value)
			if block.Emoji == "" {
				block.Emoji = firstGlyph(value)
			}
		case "LANE":
			block.Lane = value
		case "PERSONA BINDING":
			block.PersonaBinding = value
		}
	}

	block.ProhibitedActions = bulletsUnder(text, "PROHIBITED ACTIONS")

	if block.PersonaBinding == "" {
		for _, line := range lines {
			up := strings.ToUpper(line)
			if strings.Contains(up, "PERSONA") && strings.Contains(up, "BINDING") {
				block.PersonaBinding = strings.TrimSpace(line)
				break
			}
		}
	}

	return block, seen["AGENT"] && seen["GID"]
}

// fieldValue finds "<label>: <value>" anywhere in the text,
// case-insensitively, and returns the trimmed value.
func fieldValue(text, label string) string {
	for _, line := range strings.Split(text, "\n") {
		up := strings.ToUpper(strings.TrimSpace(line))
		rest, found := strings.CutPrefix(up, label)
		if !found {
			continue
		}
		rest = strings.TrimLeft(rest, " ")
		if rest == "" || (rest[0] != ':' && rest[0] != '-' && !strings.HasPrefix(rest, "—")) {
			continue
		}
		return valueAfterLabel(strings.TrimSpace(line))
	}
	return ""
}

// listField reads a comma-separated field under any of the given
// labels.
func listField(text string, labels ...string) []string {
	for _, label := range labels {
		raw := fieldValue(text, label)
		if raw == "" {
			continue
		}
		var out []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// bulletsUnder collects the "- item" lines following a header line.
func bulletsUnder(text, header string) []string {
	lines := strings.Split(text, "\n")
	var out []string
	collecting := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		up := strings.ToUpper(trimmed)
		if strings.HasPrefix(up, header) {
			collecting = true
			continue
		}
		if !collecting {
			continue
		}
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
			item := strings.TrimSpace(strings.TrimLeft(trimmed, "-* "))
			if item != "" {
				out = append(out, item)
			}
			continue
		}
		break
	}
	return out
}

// valueAfterLabel returns the text after the first separator.
func valueAfterLabel(line string) string {
	for _, sep := range []string{":", "—", "–"} {
		if _, after, ok := strings.Cut(line, sep); ok {
			return strings.TrimSpace(after)
		}
	}
	return ""
}

// lockIDs collects every LOCK-... identifier mentioned in the text,
// deduplicated in order of appearance.
func lockIDs(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range idTokens(text, "LOCK-") {
		if len(tok) <= len("LOCK-") || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// idTokens splits the text into uppercase identifier tokens and keeps
// those with the given prefix.
func idTokens(text, prefix string) []string {
	up := strings.ToUpper(text)
	isIDChar := func(b byte) bool {
		return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '-'
	}

	var out []string
	start := -1
	for i := 0; i <= len(up); i++ {
		if i < len(up) && isIDChar(up[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tok := strings.Trim(up[start:i], "-")
			if strings.HasPrefix(tok, prefix) {
				out = append(out, tok)
			}
			start = -1
		}
	}
	return out
}

// scanGID extracts the first GID-NN reference, or "".
func scanGID(s string) string {
	up := strings.ToUpper(s)
	for i := 0; i+6 <= len(up); i++ {
		if up[i:i+4] == "GID-" && isDigit(up[i+4]) && isDigit(up[i+5]) {
			return up[i : i+6]
		}
	}
	return ""
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// firstGlyph returns the first color glyph token in the value.
func firstGlyph(value string) string {
	for _, f := range strings.Fields(value) {
		if _, ok := colorgate.GlyphColor(f); ok {
			return f
		}
	}
	return ""
}

// stripGlyphs removes glyph tokens from a value, keeping the words.
func stripGlyphs(value string) string {
	var words []string
	for _, f := range strings.Fields(value) {
		if _, ok := colorgate.GlyphColor(f); ok {
			continue
		}
		words = append(words, f)
	}
	return strings.Join(words, " ")
}
