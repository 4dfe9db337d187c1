// Package layout re-flows annotation text: greedy word wrap with a
// first-line head indent, backed by the fonts package for measurement. The
// replacement synthesizer uses it to size new FreeText annotations and the
// overlay editor uses it for live height recomputation while typing.
package layout

import (
	"math"
	"strings"

	"overtype/fonts"
)

// Engine wraps paragraphs against a font library.
type Engine struct {
	lib         *fonts.Library
	defaultFont string
	defaultSize float64
}

type Option func(*Engine)

func WithLibrary(lib *fonts.Library) Option {
	return func(e *Engine) { e.lib = lib }
}

func WithDefaultFont(name string) Option {
	return func(e *Engine) { e.defaultFont = name }
}

func WithDefaultSize(size float64) Option {
	return func(e *Engine) { e.defaultSize = size }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		defaultFont: "Helvetica",
		defaultSize: 12,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Paragraph is one wrap request. A zero MaxWidth disables wrapping; hard
// newlines in Text always break lines.
type Paragraph struct {
	Text            string
	Font            string
	Size            float64
	MaxWidth        float64
	FirstLineIndent float64
}

// Line is one laid-out line. Indent is non-zero only on the first line of
// each hard paragraph; Width measures the text without the indent.
type Line struct {
	Text   string
	Width  float64
	Indent float64
}

// Wrapped is the layout result for one paragraph.
type Wrapped struct {
	Lines      []Line
	LineHeight float64
	Height     float64
}

// MaxLineWidth returns the widest line including its indent.
func (w Wrapped) MaxLineWidth() float64 {
	widest := 0.0
	for _, ln := range w.Lines {
		if v := ln.Width + ln.Indent; v > widest {
			widest = v
		}
	}
	return widest
}

// MeasureWidth returns the unwrapped width of text: the advance of its
// widest hard line.
func (e *Engine) MeasureWidth(text, font string, size float64) float64 {
	font, size = e.resolve(font, size)
	m := e.lib.Metrics(font)
	widest := 0.0
	for _, hard := range strings.Split(text, "\n") {
		if w := m.Advance(hard, size); w > widest {
			widest = w
		}
	}
	return widest
}

// Wrap lays out the paragraph. Empty text yields no lines and zero height.
func (e *Engine) Wrap(p Paragraph) Wrapped {
	font, size := e.resolve(p.Font, p.Size)
	m := e.lib.Metrics(font)
	lh := m.LineHeight(size)

	out := Wrapped{LineHeight: lh}
	if p.Text == "" {
		return out
	}

	maxWidth := p.MaxWidth
	if maxWidth <= 0 {
		maxWidth = math.MaxFloat64
	}

	for _, hard := range strings.Split(p.Text, "\n") {
		out.Lines = append(out.Lines, wrapHardLine(hard, m, size, maxWidth, p.FirstLineIndent)...)
	}
	out.Height = float64(len(out.Lines)) * lh
	return out
}

func (e *Engine) resolve(font string, size float64) (string, float64) {
	if font == "" {
		font = e.defaultFont
	}
	if size == 0 {
		size = e.defaultSize
	}
	return font, size
}

// wrapHardLine greedily wraps one newline-delimited segment. The head
// indent narrows only the first emitted line.
func wrapHardLine(text string, m fonts.Metrics, size, maxWidth, indent float64) []Line {
	if text == "" {
		return []Line{{}}
	}

	tokens := tokenize(text)
	spaceW := m.Advance(" ", size)

	var lines []Line
	var cur []string
	curWidth := 0.0
	first := true

	avail := func() float64 {
		if first && indent > 0 && indent < maxWidth {
			return maxWidth - indent
		}
		return maxWidth
	}
	flush := func() {
		// Trailing spaces do not count against the line.
		for len(cur) > 0 && cur[len(cur)-1] == " " {
			cur = cur[:len(cur)-1]
			curWidth -= spaceW
		}
		if len(cur) == 0 {
			return
		}
		ln := Line{Text: strings.Join(cur, ""), Width: curWidth}
		if first {
			ln.Indent = indent
		}
		lines = append(lines, ln)
		cur = nil
		curWidth = 0
		first = false
	}

	for _, token := range tokens {
		if token == " " {
			if curWidth+spaceW > avail() {
				flush()
			} else {
				cur = append(cur, " ")
				curWidth += spaceW
			}
			continue
		}

		w := m.Advance(token, size)
		if curWidth+w > avail() {
			if w > avail() {
				// The word alone exceeds the line; fall back to
				// character-level wrapping.
				flush()
				var sub strings.Builder
				subWidth := 0.0
				for _, r := range token {
					rw := m.Advance(string(r), size)
					if subWidth+rw > avail() && sub.Len() > 0 {
						cur = append(cur, sub.String())
						curWidth = subWidth
						flush()
						sub.Reset()
						subWidth = 0
					}
					sub.WriteRune(r)
					subWidth += rw
				}
				if sub.Len() > 0 {
					cur = append(cur, sub.String())
					curWidth = subWidth
				}
				continue
			}
			flush()
		}
		cur = append(cur, token)
		curWidth += w
	}
	flush()

	if len(lines) == 0 {
		lines = []Line{{Indent: indent}}
	}
	return lines
}

// tokenize splits text into words and single-space tokens, folding tabs
// into spaces.
func tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder
	for _, r := range text {
		if r == ' ' || r == '\t' {
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
			tokens = append(tokens, " ")
		} else {
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
