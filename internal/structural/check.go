package structural

import (
	"fmt"
	"strings"
)

// Code identifies a structural violation class. requireIntegrity reports
// the most severe class present; the order below is the severity order.
type Code string

const (
	CodePosition     Code = "POSITION_VIOLATION"
	CodeDuplicate    Code = "DUPLICATE_BLOCK"
	CodeMissing      Code = "MISSING_BLOCK"
	CodeMismatch     Code = "STRUCTURAL_MISMATCH"
	CodeMissingField Code = "MISSING_REQUIRED_FIELD"
)

var severityOrder = []Code{CodePosition, CodeDuplicate, CodeMissing, CodeMismatch, CodeMissingField}

// Violation is one structural finding, tied to the line that caused it
// where a single line is to blame.
type Violation struct {
	Code    Code
	Message string
	Line    int
}

func (v Violation) String() string {
	if v.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s", v.Code, v.Line, v.Message)
	}
	return fmt.Sprintf("[%s] %s", v.Code, v.Message)
}

// IntegrityError carries the dominant violation class plus every finding.
type IntegrityError struct {
	Code       Code
	PACID      string
	Violations []Violation
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("structural integrity violation [%s]: %d finding(s) (pac=%s)",
		e.Code, len(e.Violations), e.PACID)
}

// Result is the full outcome of an integrity check.
type Result struct {
	Valid      bool
	Violations []Violation
	MarkerLine int // line of the activation marker, 0 if absent
	BlockCount int
}

// CheckPosition verifies no execution content precedes the activation
// marker. Text with no detectable marker passes here; absence is
// CheckSingleBlock's finding.
func CheckPosition(tokens []Token) []Violation {
	marker := markerLine(tokens)
	if marker == 0 {
		return nil
	}
	var violations []Violation
	for _, tok := range tokens {
		if tok.Kind == TokenExecHeader && tok.Line < marker {
			violations = append(violations, Violation{
				Code: CodePosition,
				Line: tok.Line,
				Message: fmt.Sprintf("execution content %q on line %d precedes the activation block on line %d",
					tok.Label, tok.Line, marker),
			})
		}
	}
	return violations
}

// CheckSingleBlock verifies exactly one activation block exists.
func CheckSingleBlock(tokens []Token) ([]Violation, int) {
	starts := blockStarts(tokens)
	switch len(starts) {
	case 1:
		return nil, 1
	case 0:
		return []Violation{{
			Code:    CodeMissing,
			Message: "no activation block found",
		}}, 0
	default:
		lines := make([]string, len(starts))
		for i, l := range starts {
			lines[i] = fmt.Sprintf("%d", l)
		}
		return []Violation{{
			Code:    CodeDuplicate,
			Line:    starts[1],
			Message: fmt.Sprintf("%d activation blocks found (lines %s)", len(starts), strings.Join(lines, ", ")),
		}}, len(starts)
	}
}

// CheckStructure verifies banner symmetry (opening border vs END banner
// and closing border) and the presence of every required field label.
func CheckStructure(tokens []Token, fullText string) []Violation {
	var violations []Violation

	header := headerTriple(tokens)
	footer := footerTriple(tokens)

	switch {
	case header != nil && footer == nil:
		violations = append(violations, Violation{
			Code:    CodeMismatch,
			Line:    header.line,
			Message: "activation block opens with a banner but has no END banner",
		})
	case header != nil && footer != nil:
		if header.agent != "" && footer.agent != "" && header.agent != footer.agent {
			violations = append(violations, Violation{
				Code:    CodeMismatch,
				Line:    footer.line,
				Message: fmt.Sprintf("END banner names %s but the block opened for %s", footer.agent, header.agent),
			})
		}
		if header.gid != "" && footer.gid != "" && !strings.EqualFold(header.gid, footer.gid) {
			violations = append(violations, Violation{
				Code:    CodeMismatch,
				Line:    footer.line,
				Message: fmt.Sprintf("END banner gid %s does not match the block's %s", footer.gid, header.gid),
			})
		}
		if header.emoji != "" && footer.emoji != "" && header.emoji != footer.emoji {
			violations = append(violations, Violation{
				Code:    CodeMismatch,
				Line:    footer.line,
				Message: fmt.Sprintf("closing border glyph %s does not match opening glyph %s", footer.emoji, header.emoji),
			})
		}
	}

	violations = append(violations, checkRequiredFields(tokens, fullText)...)
	return violations
}

// CheckIntegrity runs every structural check over the text.
func CheckIntegrity(text string) Result {
	tokens := Tokenize(text)

	var violations []Violation
	violations = append(violations, CheckPosition(tokens)...)
	single, count := CheckSingleBlock(tokens)
	violations = append(violations, single...)
	violations = append(violations, CheckStructure(tokens, text)...)

	return Result{
		Valid:      len(violations) == 0,
		Violations: violations,
		MarkerLine: markerLine(tokens),
		BlockCount: count,
	}
}

// RequireIntegrity fails closed on any structural finding, reporting the
// most severe violation class present.
func RequireIntegrity(text, pacID string) (Result, error) {
	res := CheckIntegrity(text)
	if res.Valid {
		return res, nil
	}
	return res, &IntegrityError{
		Code:       dominantCode(res.Violations),
		PACID:      pacID,
		Violations: res.Violations,
	}
}

func dominantCode(violations []Violation) Code {
	present := make(map[Code]bool, len(violations))
	for _, v := range violations {
		present[v.Code] = true
	}
	for _, code := range severityOrder {
		if present[code] {
			return code
		}
	}
	return CodeMismatch
}

// markerLine finds the activation block start: an explicit marker line,
// or a border whose immediate successors reference an agent identity.
func markerLine(tokens []Token) int {
	for _, tok := range tokens {
		if tok.Kind == TokenMarker {
			return tok.Line
		}
	}
	if starts := blockStarts(tokens); len(starts) > 0 {
		return starts[0]
	}
	return 0
}

// blockStarts finds the lines where activation blocks begin. Marker
// lines are authoritative; without any, bordered identity blocks are
// detected by their contents.
func blockStarts(tokens []Token) []int {
	var starts []int
	for _, tok := range tokens {
		if tok.Kind == TokenMarker {
			starts = append(starts, tok.Line)
		}
	}
	if len(starts) > 0 {
		return starts
	}

	for i, tok := range tokens {
		if tok.Kind != TokenBorder {
			continue
		}
		// A border directly after an END banner closes a block.
		if prev := lookBehind(tokens, i, 2, TokenEndBanner); prev {
			continue
		}
		if borderedIdentityBlock(tokens, i) {
			starts = append(starts, tok.Line)
		}
	}
	return starts
}

// borderedIdentityBlock reports whether the lines after a border look
// like an identity block rather than execution content.
func borderedIdentityBlock(tokens []Token, borderIdx int) bool {
	sawGID := false
	sawIdentity := false
	limit := borderIdx + 15
	for i := borderIdx + 1; i < len(tokens) && i <= limit; i++ {
		tok := tokens[i]
		if tok.Kind == TokenExecHeader {
			return false
		}
		up := strings.ToUpper(tok.Text)
		if scanGID(up) != "" {
			sawGID = true
		}
		if strings.Contains(up, "ACTIVATION") ||
			strings.Contains(up, "PERSONA") ||
			strings.Contains(up, "PROHIBITED") ||
			strings.Contains(up, "LOCK-") {
			sawIdentity = true
		}
		if tok.Kind == TokenBorder || tok.Kind == TokenEndBanner {
			break
		}
	}
	return sawGID && sawIdentity
}

func lookBehind(tokens []Token, idx, span int, kind TokenKind) bool {
	for i := idx - 1; i >= 0 && i >= idx-span; i-- {
		if tokens[i].Kind == kind {
			return true
		}
	}
	return false
}

type bannerTriple struct {
	agent string
	gid   string
	emoji string
	line  int
}

// headerTriple extracts the opening identity: the first border's glyph
// plus the AGENT and GID field values inside the block.
func headerTriple(tokens []Token) *bannerTriple {
	var triple *bannerTriple
	for _, tok := range tokens {
		if tok.Kind == TokenBorder {
			triple = &bannerTriple{emoji: tok.Emoji, line: tok.Line}
			break
		}
	}
	if triple == nil {
		return nil
	}
	for _, tok := range tokens {
		if tok.Kind != TokenFieldLabel || tok.Line < triple.line {
			continue
		}
		value := labelValue(tok.Text)
		switch tok.Label {
		case "AGENT":
			if triple.agent == "" {
				triple.agent = normalizeAgent(value)
			}
		case "GID":
			if triple.gid == "" {
				triple.gid = scanGID(strings.ToUpper(value))
			}
		}
	}
	return triple
}

// footerTriple extracts the closing identity: the END banner's agent and
// gid plus the closing border's glyph.
func footerTriple(tokens []Token) *bannerTriple {
	for i, tok := range tokens {
		if tok.Kind != TokenEndBanner {
			continue
		}
		triple := &bannerTriple{
			agent: normalizeAgent(tok.Agent),
			gid:   tok.GID,
			emoji: tok.Emoji,
			line:  tok.Line,
		}
		// Closing border, if present, sits within two lines.
		for j := i + 1; j < len(tokens) && j <= i+2; j++ {
			if tokens[j].Kind == TokenBorder {
				if triple.emoji == "" {
					triple.emoji = tokens[j].Emoji
				}
				break
			}
		}
		return triple
	}
	return nil
}

// checkRequiredFields verifies each canonical field label appears.
// PERSONA BINDING tolerates free-form phrasing as long as both words
// appear somewhere in the text.
func checkRequiredFields(tokens []Token, fullText string) []Violation {
	found := make(map[string]bool)
	for _, tok := range tokens {
		if tok.Kind == TokenFieldLabel {
			found[tok.Label] = true
		}
	}

	up := strings.ToUpper(fullText)
	var violations []Violation
	for _, label := range fieldLabels {
		if found[label] {
			continue
		}
		if label == "PERSONA BINDING" &&
			strings.Contains(up, "PERSONA") && strings.Contains(up, "BINDING") {
			continue
		}
		violations = append(violations, Violation{
			Code:    CodeMissingField,
			Message: fmt.Sprintf("required field %q not found", label),
		})
	}
	return violations
}

// labelValue returns the text after the label separator.
func labelValue(line string) string {
	for _, sep := range []string{":", "—", "–"} {
		if _, after, ok := strings.Cut(line, sep); ok {
			return strings.TrimSpace(after)
		}
	}
	if i := strings.Index(line, "- "); i >= 0 {
		return strings.TrimSpace(line[i+2:])
	}
	return ""
}

func normalizeAgent(name string) string {
	var b strings.Builder
	for _, r := range name {
		if !borderGlyphs[r] {
			b.WriteRune(r)
		}
	}
	fields := strings.Fields(strings.ToUpper(b.String()))
	return strings.Join(fields, "-")
}
