package replace

import (
	"math"

	"overtype/document"
	"overtype/history"
	"overtype/layout"
	"overtype/observability"
)

const (
	widthPad  = 20 // width past the measured text, so the caret has room
	wrapInset = 8  // wrap narrower than the annotation so glyphs clear the edge
	heightPad = 8  // height past the wrapped text
)

// Synthesizer realizes plans as annotations and applies them to a
// document, one journal entry per replacement.
type Synthesizer struct {
	layout *layout.Engine
	log    observability.Logger
}

// NewSynthesizer returns a synthesizer measuring text with eng.
func NewSynthesizer(eng *layout.Engine, log observability.Logger) *Synthesizer {
	return &Synthesizer{layout: eng, log: observability.OrNop(log)}
}

// Build realizes one plan as annotations without touching any document.
// The text annotation is anchored at the top-left of the plan bounds and
// sized to hold the wrapped text, never smaller than the bounds.
func (s *Synthesizer) Build(p Plan) ([]*document.Cover, *document.FreeText) {
	covers := make([]*document.Cover, 0, len(p.Covers))
	for _, r := range p.Covers {
		if r.IsDegenerate() {
			continue
		}
		covers = append(covers, document.NewCover(r))
	}

	measured := s.layout.MeasureWidth(p.Text, p.Font, p.FontSize)
	width := math.Max(p.Bounds.Width(), measured+widthPad)
	wrapped := s.layout.Wrap(layout.Paragraph{
		Text:            p.Text,
		Font:            p.Font,
		Size:            p.FontSize,
		MaxWidth:        width - wrapInset,
		FirstLineIndent: p.Indent,
	})
	height := math.Max(p.Bounds.Height(), wrapped.Height+heightPad)

	rect := document.Rect{
		LLX: p.Bounds.LLX,
		LLY: p.Bounds.URY - height,
		URX: p.Bounds.LLX + width,
		URY: p.Bounds.URY,
	}
	ft := document.NewFreeText(rect, p.Text, p.Font, p.FontSize)
	ft.Indent = p.Indent
	return covers, ft
}

// Applied reports what Apply attached, pointing at the first processed
// page so the caller can focus it and begin editing its annotation.
type Applied struct {
	Page  int
	Text  *document.FreeText
	Pages int
}

// Apply attaches every plan's annotations to doc and records the whole
// batch as one journal entry, so a single undo reverts the replacement
// across all of its pages. It returns nil when no plan was applicable.
func (s *Synthesizer) Apply(doc *document.Document, plans []Plan, j *history.Journal) *Applied {
	entry := &history.Entry{Label: "Replace Text"}
	var out *Applied
	for _, p := range plans {
		page := doc.Page(p.Page)
		if page == nil {
			continue
		}
		covers, ft := s.Build(p)
		for _, c := range covers {
			page.Add(c)
			entry.Changes = append(entry.Changes, history.Added(p.Page, c))
		}
		page.Add(ft)
		entry.Changes = append(entry.Changes, history.Added(p.Page, ft))

		if out == nil {
			out = &Applied{Page: p.Page, Text: ft}
		}
		out.Pages++
		s.log.Debug("replacement applied",
			observability.Int("page", p.Page),
			observability.Int("covers", len(covers)),
			observability.Float64("width", ft.Rect().Width()),
			observability.Float64("height", ft.Rect().Height()))
	}
	if out == nil {
		return nil
	}
	doc.Dirty = true
	if j != nil {
		j.Record(entry)
	}
	return out
}
