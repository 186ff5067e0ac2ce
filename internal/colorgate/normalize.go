package colorgate

import (
	"strings"

	"github.com/ppiankov/pacgate/internal/registry"
)

// emojiColors maps the color glyphs agents paste into headers back to
// canonical color names. The map is the one source of truth for
// glyph-to-color resolution.
var emojiColors = map[string]registry.Color{
	"\U0001F535": registry.ColorBlue,    // 🔵
	"\U0001F7E6": registry.ColorTeal,    // 🟦
	"\U0001F537": registry.ColorTeal,    // 🔷
	"\U0001F7E1": registry.ColorYellow,  // 🟡
	"\U0001F7E8": registry.ColorYellow,  // 🟨
	"\U0001F7E3": registry.ColorPurple,  // 🟣
	"\U0001F7E0": registry.ColorOrange,  // 🟠
	"\U0001F7E7": registry.ColorOrange,  // 🟧
	"\U0001F534": registry.ColorDarkRed, // 🔴
	"\U0001F7E5": registry.ColorDarkRed, // 🟥
	"\U0001F7E2": registry.ColorGreen,   // 🟢
	"\U0001F7E9": registry.ColorGreen,   // 🟩
	"⚪":          registry.ColorWhite,
	"⬜":          registry.ColorWhite,
	"\U0001FA77": registry.ColorPink, // 🩷
	"\U0001F497": registry.ColorPink, // 💗
}

// colorAliases folds historical and shorthand spellings into canonical
// names. DARK RED in particular arrives as RED, DARKRED, DARK_RED.
var colorAliases = map[string]registry.Color{
	"GREY":     registry.ColorWhite,
	"GRAY":     registry.ColorWhite,
	"RED":      registry.ColorDarkRed,
	"DARK":     registry.ColorDarkRed,
	"DARKRED":  registry.ColorDarkRed,
	"DARK RED": registry.ColorDarkRed,
}

// GlyphColor resolves a single glyph token to its color.
func GlyphColor(token string) (registry.Color, bool) {
	c, ok := emojiColors[token]
	return c, ok
}

// Normalize resolves a declared color to its canonical name: emoji
// glyphs are stripped or resolved, case and separators folded, aliases
// applied. The result is not guaranteed to be a registered color; the
// caller checks that against the registry.
func Normalize(declared string) registry.Color {
	s := strings.TrimSpace(declared)
	if s == "" {
		return ""
	}

	// A bare glyph resolves directly.
	if c, ok := emojiColors[s]; ok {
		return c
	}

	// "🔵 BLUE" style: glyph prefix, word suffix. Keep the words.
	fields := strings.Fields(s)
	var words []string
	for _, f := range fields {
		if _, glyph := emojiColors[f]; glyph {
			continue
		}
		words = append(words, f)
	}
	if len(words) == 0 {
		// Glyphs only, none bare-resolvable above (e.g. paired glyphs).
		if c, ok := emojiColors[fields[0]]; ok {
			return c
		}
		return ""
	}

	name := strings.ToUpper(strings.Join(words, " "))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.Join(strings.Fields(name), " ")

	if c, ok := colorAliases[name]; ok {
		return c
	}
	return registry.Color(name)
}
