package replace

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"overtype/document"
	"overtype/history"
	"overtype/layout"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func lineSel(page int, runs []document.TextRun, lines ...document.LineSelection) *document.Selection {
	ps := document.PageSelection{Page: page}
	for i, ln := range lines {
		if i == 0 {
			ps.Bounds = ln.Bounds
		} else {
			ps.Bounds = ps.Bounds.Union(ln.Bounds)
		}
	}
	ps.Lines = lines
	return &document.Selection{Pages: []document.PageSelection{ps}, Runs: runs}
}

func TestTranslateSingleLine(t *testing.T) {
	sel := lineSel(0,
		[]document.TextRun{{Text: "Hello world", Font: "Helvetica", Size: 12}},
		document.LineSelection{Text: "Hello world", Bounds: document.FromXYWH(50, 700, 100, 20)},
	)

	plans := Translate(sel, "Hi")
	bounds := document.Rect{LLX: 50, LLY: 700, URX: 150, URY: 720}
	want := []Plan{{
		Page:     0,
		Covers:   []document.Rect{bounds},
		Text:     "Hi",
		Font:     "Helvetica",
		FontSize: 12,
		Bounds:   bounds,
	}}
	if diff := cmp.Diff(want, plans); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestTranslateKeepsOwnTextWithoutReplacement(t *testing.T) {
	sel := lineSel(0, nil,
		document.LineSelection{Text: "  first  ", Bounds: document.FromXYWH(72, 688, 128, 12)},
		document.LineSelection{Text: "second", Bounds: document.FromXYWH(50, 674, 150, 12)},
	)

	plans := Translate(sel, "   ")
	if len(plans) != 1 {
		t.Fatalf("plans = %d, want 1", len(plans))
	}
	p := plans[0]
	if p.Text != "first\nsecond" {
		t.Fatalf("text = %q", p.Text)
	}
	if len(p.Covers) != 2 {
		t.Fatalf("covers = %+v", p.Covers)
	}
	if got := (document.Rect{LLX: 50, LLY: 674, URX: 200, URY: 700}); p.Bounds != got {
		t.Fatalf("bounds = %+v", p.Bounds)
	}
	// The first line starts right of the union's left edge.
	if p.Indent != 22 {
		t.Fatalf("indent = %g, want 22", p.Indent)
	}
}

func TestTranslateDegenerateLineKeepsItsText(t *testing.T) {
	sel := lineSel(0, nil,
		document.LineSelection{Text: "pay to", Bounds: document.FromXYWH(72, 688, 100, 12)},
		document.LineSelection{Text: "order", Bounds: document.Rect{LLX: 30, LLY: 676, URX: 30, URY: 688}},
		document.LineSelection{Text: "now", Bounds: document.FromXYWH(72, 660, 100, 12)},
	)

	plans := Translate(sel, "")
	if len(plans) != 1 {
		t.Fatalf("plans = %d, want 1", len(plans))
	}
	p := plans[0]
	if p.Text != "pay to\norder\nnow" {
		t.Fatalf("text = %q", p.Text)
	}
	// The zero-width middle line yields no cover and stays out of the union.
	if len(p.Covers) != 2 {
		t.Fatalf("covers = %+v", p.Covers)
	}
	if want := (document.Rect{LLX: 72, LLY: 660, URX: 172, URY: 700}); p.Bounds != want {
		t.Fatalf("bounds = %+v, want %+v", p.Bounds, want)
	}
}

func TestTranslateSkipsBlankLinePages(t *testing.T) {
	blank := lineSel(0, nil,
		document.LineSelection{Text: "   ", Bounds: document.FromXYWH(10, 10, 50, 10)},
	)
	// Selected lines that trim to nothing skip the page, replacement or not.
	if plans := Translate(blank, "Hi"); plans != nil {
		t.Fatalf("blank page produced plans: %+v", plans)
	}

	mixed := &document.Selection{Pages: []document.PageSelection{
		blank.Pages[0],
		lineSel(3, nil, document.LineSelection{Text: "kept", Bounds: document.FromXYWH(10, 10, 50, 10)}).Pages[0],
	}}
	plans := Translate(mixed, "")
	if len(plans) != 1 || plans[0].Page != 3 {
		t.Fatalf("plans = %+v", plans)
	}
}

func TestTranslateFallbackBounds(t *testing.T) {
	cell := &document.Selection{Pages: []document.PageSelection{{
		Page:   1,
		Bounds: document.FromXYWH(100, 500, 80, 16),
	}}}

	plans := Translate(cell, " 42 ")
	if len(plans) != 1 {
		t.Fatalf("plans = %d, want 1", len(plans))
	}
	p := plans[0]
	if p.Text != "42" || p.Indent != 0 {
		t.Fatalf("plan = %+v", p)
	}
	if len(p.Covers) != 1 || p.Covers[0] != p.Bounds {
		t.Fatalf("fallback covers = %+v", p.Covers)
	}

	// Blanking a cell: empty replacement still covers and yields empty text.
	plans = Translate(cell, "")
	if len(plans) != 1 || plans[0].Text != "" {
		t.Fatalf("blanking plans = %+v", plans)
	}

	empty := &document.Selection{Pages: []document.PageSelection{{Page: 1}}}
	if plans := Translate(empty, "x"); plans != nil {
		t.Fatalf("degenerate bounds produced plans: %+v", plans)
	}
}

func TestTranslateDominantRun(t *testing.T) {
	sel := lineSel(0,
		[]document.TextRun{
			{Text: "ab", Font: "Courier", Size: 9},
			{Text: "abcdef", Font: "Times-Roman", Size: 11},
		},
		document.LineSelection{Text: "ab abcdef", Bounds: document.FromXYWH(0, 0, 100, 12)},
	)
	p := Translate(sel, "")[0]
	if p.Font != "Times-Roman" || p.FontSize != 11 {
		t.Fatalf("dominant font = %q %g", p.Font, p.FontSize)
	}
}

func TestTranslateFontFallbacks(t *testing.T) {
	tall := lineSel(0, nil,
		document.LineSelection{Text: "x", Bounds: document.FromXYWH(0, 0, 100, 30)},
	)
	p := Translate(tall, "")[0]
	if p.Font != "Helvetica" {
		t.Fatalf("font = %q", p.Font)
	}
	if p.FontSize != 18 { // 30 * 0.6
		t.Fatalf("size = %g, want 18", p.FontSize)
	}

	short := lineSel(0, nil,
		document.LineSelection{Text: "x", Bounds: document.FromXYWH(0, 0, 100, 10)},
	)
	if p := Translate(short, "")[0]; p.FontSize != 10 {
		t.Fatalf("size floor = %g, want 10", p.FontSize)
	}
}

func TestBuildReplacement(t *testing.T) {
	s := NewSynthesizer(layout.NewEngine(), nil)
	sel := lineSel(0,
		[]document.TextRun{{Text: "Hello world", Font: "Helvetica", Size: 12}},
		document.LineSelection{Text: "Hello world", Bounds: document.FromXYWH(50, 700, 100, 20)},
	)
	covers, ft := s.Build(Translate(sel, "Hi")[0])

	if len(covers) != 1 {
		t.Fatalf("covers = %d, want 1", len(covers))
	}
	wantCover := document.Rect{LLX: 50, LLY: 700, URX: 150, URY: 720}
	if covers[0].Rect() != wantCover {
		t.Fatalf("cover rect = %+v, want %+v", covers[0].Rect(), wantCover)
	}
	if f := covers[0].Fill; len(f) != 3 || f[0] != 1 || f[1] != 1 || f[2] != 1 {
		t.Fatalf("cover fill = %v", covers[0].Fill)
	}

	if ft.Contents != "Hi" {
		t.Fatalf("contents = %q", ft.Contents)
	}
	r := ft.Rect()
	if r.LLX != 50 || r.URY != 720 {
		t.Fatalf("annotation not anchored at the selection's top-left: %+v", r)
	}
	// (722+222)/1000 * 12 for "Hi", plus the width allowance.
	measured := 0.944 * 12
	if r.Width() < measured+20 {
		t.Fatalf("width = %g, want >= %g", r.Width(), measured+20)
	}
	if !near(r.Width(), 100) { // the selection is wider than the text needs
		t.Fatalf("width = %g, want 100", r.Width())
	}
	if r.Height() < 20 {
		t.Fatalf("height = %g, want >= 20", r.Height())
	}
	// One 12pt line plus padding outgrows the original 20pt bounds.
	if !near(r.Height(), 12*1.2+8) {
		t.Fatalf("height = %g, want %g", r.Height(), 12*1.2+8)
	}
}

func TestBuildGrowsPastNarrowBounds(t *testing.T) {
	s := NewSynthesizer(layout.NewEngine(), nil)
	p := Plan{
		Bounds:   document.FromXYWH(50, 700, 10, 12),
		Covers:   []document.Rect{document.FromXYWH(50, 700, 10, 12)},
		Text:     "wide replacement",
		Font:     "Courier",
		FontSize: 10,
	}
	covers, ft := s.Build(p)
	if covers[0].Rect() != p.Covers[0] {
		t.Fatal("cover should keep the original bounds")
	}
	measured := float64(len("wide replacement")) * 6 // fixed 600/1000 * 10
	if !near(ft.Rect().Width(), measured+20) {
		t.Fatalf("width = %g, want %g", ft.Rect().Width(), measured+20)
	}
}

func TestBuildSkipsDegenerateCovers(t *testing.T) {
	s := NewSynthesizer(layout.NewEngine(), nil)
	p := Plan{
		Bounds:   document.FromXYWH(0, 0, 100, 12),
		Covers:   []document.Rect{{LLX: 5, LLY: 5, URX: 5, URY: 20}, document.FromXYWH(0, 0, 100, 12)},
		Text:     "x",
		Font:     "Helvetica",
		FontSize: 12,
	}
	covers, _ := s.Build(p)
	if len(covers) != 1 {
		t.Fatalf("covers = %d, want 1", len(covers))
	}
}

func TestApplyIsOneUndoableTransaction(t *testing.T) {
	doc := &document.Document{Pages: []*document.Page{
		{Index: 0, MediaBox: document.Rect{URX: 612, URY: 792}},
		{Index: 1, MediaBox: document.Rect{URX: 612, URY: 792}},
	}}
	j := history.NewJournal(doc)
	s := NewSynthesizer(layout.NewEngine(), nil)

	sel := &document.Selection{
		Pages: []document.PageSelection{
			lineSel(0, nil, document.LineSelection{Text: "one", Bounds: document.FromXYWH(50, 700, 100, 12)}).Pages[0],
			lineSel(1, nil, document.LineSelection{Text: "two", Bounds: document.FromXYWH(50, 100, 100, 12)}).Pages[0],
		},
		Runs: []document.TextRun{{Text: "one two", Font: "Helvetica", Size: 12}},
	}

	applied := s.Apply(doc, Translate(sel, "changed"), j)
	if applied == nil || applied.Page != 0 || applied.Pages != 2 {
		t.Fatalf("applied = %+v", applied)
	}
	if applied.Text == nil || applied.Text.Contents != "changed" {
		t.Fatalf("applied text = %+v", applied.Text)
	}
	if !doc.Dirty {
		t.Fatal("apply did not mark the document dirty")
	}
	if n := doc.AnnotationCount(); n != 4 { // cover + text per page
		t.Fatalf("annotations = %d, want 4", n)
	}

	if !j.Undo() {
		t.Fatal("nothing to undo")
	}
	if n := doc.AnnotationCount(); n != 0 {
		t.Fatalf("annotations after undo = %d, want 0", n)
	}
}

func TestApplyNothing(t *testing.T) {
	doc := &document.Document{Pages: []*document.Page{{Index: 0}}}
	j := history.NewJournal(doc)
	s := NewSynthesizer(layout.NewEngine(), nil)

	if s.Apply(doc, nil, j) != nil {
		t.Fatal("apply of no plans returned a result")
	}
	if j.CanUndo() {
		t.Fatal("apply of no plans recorded an entry")
	}
	if Translate(nil, "x") != nil {
		t.Fatal("nil selection produced plans")
	}
}
