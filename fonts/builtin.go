package fonts

import "strings"

// builtinMetrics measures with a per-glyph width table in glyph space
// (1/1000 em). Glyphs missing from the table use the 500-unit default.
type builtinMetrics struct {
	widths  map[rune]int
	leading float64
}

func (m *builtinMetrics) Advance(text string, size float64) float64 {
	if size == 0 {
		size = 12
	}
	sum := 0.0
	for _, r := range text {
		if w, ok := m.widths[r]; ok {
			sum += float64(w)
		} else {
			sum += 500
		}
	}
	return sum / 1000 * size
}

func (m *builtinMetrics) LineHeight(size float64) float64 {
	if size == 0 {
		size = 12
	}
	return size * m.leading
}

// Builtin returns the width table for one of the standard fonts. Name
// matching is loose: "Helv", "Arial" and friends resolve to Helvetica,
// anything monospaced to Courier; everything else gets Helvetica, with
// bold steered to the bold table.
func Builtin(name string) Metrics {
	n := strings.ToLower(name)
	bold := strings.Contains(n, "bold")
	switch {
	case strings.Contains(n, "courier") || strings.Contains(n, "mono"):
		return courier
	case bold:
		return helveticaBold
	default:
		return helvetica
	}
}

// fixedMetrics is a constant-advance table (Courier).
type fixedMetrics struct {
	width   int
	leading float64
}

func (m *fixedMetrics) Advance(text string, size float64) float64 {
	if size == 0 {
		size = 12
	}
	n := 0
	for range text {
		n++
	}
	return float64(n*m.width) / 1000 * size
}

func (m *fixedMetrics) LineHeight(size float64) float64 {
	if size == 0 {
		size = 12
	}
	return size * m.leading
}

var courier = &fixedMetrics{width: 600, leading: 1.2}

// Helvetica AFM advances for the printable ASCII range.
var helvetica = &builtinMetrics{leading: 1.2, widths: map[rune]int{
	' ': 278, '!': 278, '"': 355, '#': 556, '$': 556, '%': 889, '&': 667,
	'\'': 191, '(': 333, ')': 333, '*': 389, '+': 584, ',': 278, '-': 333,
	'.': 278, '/': 278,
	'0': 556, '1': 556, '2': 556, '3': 556, '4': 556, '5': 556, '6': 556,
	'7': 556, '8': 556, '9': 556,
	':': 278, ';': 278, '<': 584, '=': 584, '>': 584, '?': 556, '@': 1015,
	'A': 667, 'B': 667, 'C': 722, 'D': 722, 'E': 667, 'F': 611, 'G': 778,
	'H': 722, 'I': 278, 'J': 500, 'K': 667, 'L': 556, 'M': 833, 'N': 722,
	'O': 778, 'P': 667, 'Q': 778, 'R': 722, 'S': 667, 'T': 611, 'U': 722,
	'V': 667, 'W': 944, 'X': 667, 'Y': 667, 'Z': 611,
	'[': 278, '\\': 278, ']': 278, '^': 469, '_': 556, '`': 333,
	'a': 556, 'b': 556, 'c': 500, 'd': 556, 'e': 556, 'f': 278, 'g': 556,
	'h': 556, 'i': 222, 'j': 222, 'k': 500, 'l': 222, 'm': 833, 'n': 556,
	'o': 556, 'p': 556, 'q': 556, 'r': 333, 's': 500, 't': 278, 'u': 556,
	'v': 500, 'w': 722, 'x': 500, 'y': 500, 'z': 500,
	'{': 334, '|': 260, '}': 334, '~': 584,
}}

var helveticaBold = &builtinMetrics{leading: 1.2, widths: map[rune]int{
	' ': 278, '!': 333, '"': 474, '#': 556, '$': 556, '%': 889, '&': 722,
	'\'': 238, '(': 333, ')': 333, '*': 389, '+': 584, ',': 278, '-': 333,
	'.': 278, '/': 278,
	'0': 556, '1': 556, '2': 556, '3': 556, '4': 556, '5': 556, '6': 556,
	'7': 556, '8': 556, '9': 556,
	':': 333, ';': 333, '<': 584, '=': 584, '>': 584, '?': 611, '@': 975,
	'A': 722, 'B': 722, 'C': 722, 'D': 722, 'E': 667, 'F': 611, 'G': 778,
	'H': 722, 'I': 278, 'J': 556, 'K': 722, 'L': 611, 'M': 833, 'N': 722,
	'O': 778, 'P': 667, 'Q': 778, 'R': 722, 'S': 667, 'T': 611, 'U': 722,
	'V': 667, 'W': 944, 'X': 667, 'Y': 667, 'Z': 611,
	'[': 333, '\\': 278, ']': 333, '^': 584, '_': 556, '`': 333,
	'a': 556, 'b': 611, 'c': 556, 'd': 611, 'e': 556, 'f': 333, 'g': 611,
	'h': 611, 'i': 278, 'j': 278, 'k': 556, 'l': 278, 'm': 889, 'n': 611,
	'o': 611, 'p': 611, 'q': 611, 'r': 389, 's': 556, 't': 333, 'u': 611,
	'v': 556, 'w': 778, 'x': 556, 'y': 556, 'z': 500,
	'{': 389, '|': 280, '}': 389, '~': 584,
}}
