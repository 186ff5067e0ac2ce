// Package structural checks the text-level shape of a PAC document:
// where the activation block sits, that there is exactly one, that its
// banner framing is symmetric, and that the required field labels are
// present. The checks run over a token stream, one token per line, so
// every classification decision lives in one table.
package structural

import (
	"strings"
	"unicode/utf8"
)

// TokenKind classifies one line of PAC text.
type TokenKind int

const (
	TokenContent TokenKind = iota
	TokenBorder
	TokenMarker
	TokenEndBanner
	TokenExecHeader
	TokenFieldLabel
)

func (k TokenKind) String() string {
	switch k {
	case TokenBorder:
		return "border"
	case TokenMarker:
		return "marker"
	case TokenEndBanner:
		return "end-banner"
	case TokenExecHeader:
		return "execution-header"
	case TokenFieldLabel:
		return "field-label"
	default:
		return "content"
	}
}

// Token is one classified line. Line numbers are 1-based.
type Token struct {
	Kind  TokenKind
	Line  int
	Text  string
	Label string // field label or execution header name
	Agent string // end banner only
	GID   string // end banner only
	Emoji string // border: first glyph; end banner: any glyph on the line
}

// borderGlyphs are the color squares and circles agents use to frame
// activation blocks. A run of at least borderMinRunes of these, and
// nothing else, is a border line.
var borderGlyphs = map[rune]bool{
	'\U0001F535': true, // 🔵
	'⚪':          true,
	'⬜':          true,
	'\U0001F7E3': true, // 🟣
	'\U0001F7E8': true, // 🟨
	'\U0001F7E1': true, // 🟡
	'\U0001F7E6': true, // 🟦
	'\U0001F537': true, // 🔷
	'\U0001F7E7': true, // 🟧
	'\U0001F7E0': true, // 🟠
	'\U0001F7E5': true, // 🟥
	'\U0001F534': true, // 🔴
	'\U0001F7E9': true, // 🟩
	'\U0001F7E2': true, // 🟢
	'\U0001FA77': true, // 🩷
	'\U0001F497': true, // 💗
}

const borderMinRunes = 10

// markerPhrase declares the start of an activation block.
const markerPhrase = "AGENT ACTIVATION BLOCK"

// execHeaders are the section headers of execution content. Any of
// these appearing before the activation marker is a position violation.
var execHeaders = []string{
	"OBJECTIVE:",
	"SCOPE:",
	"TASKS:",
	"TASK:",
	"OUTPUTS:",
	"OUTPUT:",
	"ACCEPTANCE CRITERIA",
	"EXECUTING AGENT:",
	"EXECUTING LANE:",
	"AUTHORIZED FILES:",
	"REQUIRED TASKS:",
}

// fieldLabels are the identity labels an activation block must carry,
// in canonical order.
var fieldLabels = []string{
	"AGENT", "GID", "ROLE", "COLOR", "LANE", "PERSONA BINDING",
}

// Tokenize classifies every line of text. Classification precedence:
// border, marker, end banner, execution header, field label, content.
func Tokenize(text string) []Token {
	lines := strings.Split(text, "\n")
	tokens := make([]Token, 0, len(lines))
	for i, line := range lines {
		tokens = append(tokens, classify(i+1, line))
	}
	return tokens
}

func classify(lineNum int, line string) Token {
	tok := Token{Kind: TokenContent, Line: lineNum, Text: line}
	trimmed := strings.TrimSpace(line)
	norm := collapse(strings.ToUpper(trimmed))

	if emoji, ok := borderLine(trimmed); ok {
		tok.Kind = TokenBorder
		tok.Emoji = emoji
		return tok
	}
	if strings.Contains(norm, markerPhrase) {
		tok.Kind = TokenMarker
		return tok
	}
	if agent, gid, ok := endBannerLine(norm); ok {
		tok.Kind = TokenEndBanner
		tok.Agent = agent
		tok.GID = gid
		tok.Emoji = firstGlyph(trimmed)
		return tok
	}
	for _, h := range execHeaders {
		if strings.HasPrefix(norm, h) {
			tok.Kind = TokenExecHeader
			tok.Label = strings.TrimSuffix(h, ":")
			return tok
		}
	}
	if label, ok := fieldLabelLine(norm); ok {
		tok.Kind = TokenFieldLabel
		tok.Label = label
		return tok
	}
	return tok
}

// borderLine reports whether the line is a banner border and returns
// its first glyph.
func borderLine(trimmed string) (string, bool) {
	if trimmed == "" {
		return "", false
	}
	runes := []rune(strings.ReplaceAll(trimmed, " ", ""))
	if len(runes) < borderMinRunes {
		return "", false
	}
	for _, r := range runes {
		if !borderGlyphs[r] {
			return "", false
		}
	}
	return string(runes[0]), true
}

// endBannerLine matches "END — <AGENT> (GID-NN)" style closers on a
// normalized line. The glyph prefix, separator style and parenthesized
// GID are all optional; "END" followed by a name is enough.
func endBannerLine(norm string) (agent, gid string, ok bool) {
	// Glyph prefixes ("🔵 END — ...") are decoration, not content.
	for len(norm) > 0 {
		r, size := utf8.DecodeRuneInString(norm)
		if r == ' ' || borderGlyphs[r] {
			norm = norm[size:]
			continue
		}
		break
	}
	rest, found := strings.CutPrefix(strings.TrimLeft(norm, "—–-: "), "END")
	if !found {
		return "", "", false
	}
	if rest != "" {
		r, _ := utf8.DecodeRuneInString(rest)
		if !strings.ContainsRune(" —–-:/", r) {
			// ENDPOINT:, ENDURANCE, ...
			return "", "", false
		}
	}
	rest = strings.TrimLeft(rest, " —–-:/")
	if rest == "" {
		return "", "", false
	}

	// Agent name: leading run of letters, digits and hyphens.
	end := 0
	for end < len(rest) {
		c := rest[end]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' {
			end++
			continue
		}
		break
	}
	agent = rest[:end]
	if agent == "" || strings.HasPrefix(agent, "GID-") {
		return "", "", false
	}
	gid = scanGID(rest)
	return agent, gid, true
}

// scanGID extracts the first GID-NN reference in s, or "".
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

// fieldLabelLine matches "<LABEL>:" or "<LABEL> —" at line start.
func fieldLabelLine(norm string) (string, bool) {
	for _, label := range fieldLabels {
		rest, found := strings.CutPrefix(norm, label)
		if !found {
			continue
		}
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			continue
		}
		if rest[0] == ':' || rest[0] == '-' || strings.HasPrefix(rest, "—") || strings.HasPrefix(rest, "–") {
			return label, true
		}
	}
	return "", false
}

// firstGlyph returns the first border glyph in the line, or "".
func firstGlyph(s string) string {
	for _, r := range s {
		if borderGlyphs[r] {
			return string(r)
		}
	}
	return ""
}

// collapse folds runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
