// Package replace turns text selections into masked, editable
// replacements: opaque covers over the selected glyphs plus a text
// annotation carrying the new content in the inferred type attributes.
package replace

import (
	"math"
	"strings"
	"unicode/utf8"

	"overtype/document"
)

const (
	defaultFont     = "Helvetica"
	minInferredSize = 10
	sizeFromBounds  = 0.6
)

// Plan is the per-page outcome of translating a selection: the rects to
// cover, the text the annotation starts with, and the inferred font, size,
// and first-line indent. Bounds is the union the annotation grows from.
type Plan struct {
	Page     int
	Covers   []document.Rect
	Text     string
	Font     string
	FontSize float64
	Indent   float64
	Bounds   document.Rect
}

// Translate converts a selection into one plan per viable page. The
// replacement, when non-blank after trimming, becomes every page's text;
// otherwise each page keeps its own selected text. Pages whose selected
// lines trim to nothing are skipped. A page without usable lines falls
// back to covering the raw selection bounds, where an empty replacement is
// allowed so cell contents can be blanked.
func Translate(sel *document.Selection, replacement string) []Plan {
	if sel.IsEmpty() {
		return nil
	}
	font, size := dominantRun(sel.Runs)
	repl := strings.TrimSpace(replacement)

	var plans []Plan
	for _, ps := range sel.Pages {
		if p, ok := translatePage(ps, repl, font, size); ok {
			plans = append(plans, p)
		}
	}
	return plans
}

func translatePage(ps document.PageSelection, repl, font string, size float64) (Plan, bool) {
	// Degenerate line bounds are unusable as covers but their text still
	// belongs to the page; only geometry is filtered here.
	var covers []document.Rect
	for _, ln := range ps.Lines {
		if !ln.Bounds.IsDegenerate() {
			covers = append(covers, ln.Bounds)
		}
	}

	p := Plan{Page: ps.Page, Font: font, FontSize: size}
	if len(covers) > 0 {
		parts := make([]string, len(ps.Lines))
		for i, ln := range ps.Lines {
			parts[i] = strings.TrimSpace(ln.Text)
		}
		joined := strings.Join(parts, "\n")
		if strings.TrimSpace(joined) == "" {
			return Plan{}, false
		}

		p.Bounds = covers[0]
		for _, r := range covers[1:] {
			p.Bounds = p.Bounds.Union(r)
		}
		p.Covers = covers
		p.Indent = math.Max(0, covers[0].LLX-p.Bounds.LLX)
		p.Text = joined
		if repl != "" {
			p.Text = repl
		}
	} else {
		if ps.Bounds.IsDegenerate() {
			return Plan{}, false
		}
		p.Bounds = ps.Bounds
		p.Covers = []document.Rect{ps.Bounds}
		p.Text = repl
	}

	if p.Font == "" {
		p.Font = defaultFont
	}
	if p.FontSize <= 0 {
		p.FontSize = math.Max(minInferredSize, p.Bounds.Height()*sizeFromBounds)
	}
	return p, true
}

// dominantRun picks the font of the run with the most characters. Either
// return may be zero when the selection carries no usable runs.
func dominantRun(runs []document.TextRun) (string, float64) {
	var font string
	var size float64
	best := 0
	for _, r := range runs {
		if n := utf8.RuneCountInString(r.Text); n > best {
			best = n
			font = r.Font
			size = r.Size
		}
	}
	return font, size
}
