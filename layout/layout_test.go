package layout

import (
	"math"
	"strings"
	"testing"
)

// Courier metrics make the arithmetic exact: 6pt per character at size 10.
func courierEngine() *Engine {
	return NewEngine(WithDefaultFont("Courier"), WithDefaultSize(10))
}

func TestWrapSingleLine(t *testing.T) {
	e := courierEngine()
	w := e.Wrap(Paragraph{Text: "Hello world", MaxWidth: 200})
	if len(w.Lines) != 1 {
		t.Fatalf("lines = %d, want 1: %+v", len(w.Lines), w.Lines)
	}
	if w.Lines[0].Text != "Hello world" {
		t.Fatalf("line text = %q", w.Lines[0].Text)
	}
	if math.Abs(w.Height-w.LineHeight) > 1e-9 {
		t.Fatalf("height = %g, want one line height %g", w.Height, w.LineHeight)
	}
}

func TestWrapBreaksAtWidth(t *testing.T) {
	e := courierEngine()
	// 10 characters fit in 60pt at size 10.
	w := e.Wrap(Paragraph{Text: "aaaa bbbb cccc", MaxWidth: 60})
	if len(w.Lines) != 2 {
		t.Fatalf("lines = %d, want 2: %+v", len(w.Lines), w.Lines)
	}
	if w.Lines[0].Text != "aaaa bbbb" || w.Lines[1].Text != "cccc" {
		t.Fatalf("wrapped lines = %q, %q", w.Lines[0].Text, w.Lines[1].Text)
	}
	if w.Lines[0].Width != 9*6.0 {
		t.Fatalf("first line width = %g, want %g", w.Lines[0].Width, 9*6.0)
	}
}

func TestWrapFirstLineIndent(t *testing.T) {
	e := courierEngine()
	// Without indent "aaaa bbbb" fits the first line; a 12pt indent
	// leaves room for only eight characters, pushing "bbbb" down.
	w := e.Wrap(Paragraph{Text: "aaaa bbbb cccc", MaxWidth: 60, FirstLineIndent: 12})
	if len(w.Lines) != 2 {
		t.Fatalf("lines = %d, want 2: %+v", len(w.Lines), w.Lines)
	}
	if w.Lines[0].Text != "aaaa" {
		t.Fatalf("first line = %q, want %q", w.Lines[0].Text, "aaaa")
	}
	if w.Lines[0].Indent != 12 {
		t.Fatalf("first line indent = %g", w.Lines[0].Indent)
	}
	if w.Lines[1].Indent != 0 {
		t.Fatalf("second line indent = %g", w.Lines[1].Indent)
	}
	if w.Lines[1].Text != "bbbb cccc" {
		t.Fatalf("second line = %q", w.Lines[1].Text)
	}
}

func TestWrapHardNewlines(t *testing.T) {
	e := courierEngine()
	w := e.Wrap(Paragraph{Text: "one\n\ntwo", MaxWidth: 200})
	if len(w.Lines) != 3 {
		t.Fatalf("lines = %d, want 3 (blank middle preserved): %+v", len(w.Lines), w.Lines)
	}
	if w.Lines[1].Text != "" {
		t.Fatalf("middle line = %q, want empty", w.Lines[1].Text)
	}
}

func TestWrapEmptyText(t *testing.T) {
	e := courierEngine()
	w := e.Wrap(Paragraph{Text: "", MaxWidth: 100})
	if len(w.Lines) != 0 || w.Height != 0 {
		t.Fatalf("empty text wrapped to %d lines, height %g", len(w.Lines), w.Height)
	}
	if w.LineHeight <= 0 {
		t.Fatal("line height should still be reported for empty text")
	}
}

func TestWrapLongWordCharacterFallback(t *testing.T) {
	e := courierEngine()
	// 24 characters at 6pt each cannot fit a 60pt line; expect three
	// pieces of at most 10 characters.
	word := strings.Repeat("x", 24)
	w := e.Wrap(Paragraph{Text: word, MaxWidth: 60})
	if len(w.Lines) != 3 {
		t.Fatalf("lines = %d, want 3: %+v", len(w.Lines), w.Lines)
	}
	var rejoined strings.Builder
	for _, ln := range w.Lines {
		if ln.Width > 60 {
			t.Fatalf("line %q exceeds max width: %g", ln.Text, ln.Width)
		}
		rejoined.WriteString(ln.Text)
	}
	if rejoined.String() != word {
		t.Fatalf("character wrap lost text: %q", rejoined.String())
	}
}

func TestWrapZeroMaxWidth(t *testing.T) {
	e := courierEngine()
	w := e.Wrap(Paragraph{Text: "no wrapping at all here"})
	if len(w.Lines) != 1 {
		t.Fatalf("unwrapped paragraph became %d lines", len(w.Lines))
	}
}

func TestMeasureWidth(t *testing.T) {
	e := courierEngine()
	got := e.MeasureWidth("ab\nabcd\nabc", "Courier", 10)
	if got != 4*6.0 {
		t.Fatalf("MeasureWidth = %g, want widest hard line %g", got, 4*6.0)
	}
}

func TestMaxLineWidthIncludesIndent(t *testing.T) {
	e := courierEngine()
	w := e.Wrap(Paragraph{Text: "abcd", MaxWidth: 100, FirstLineIndent: 10})
	if got := w.MaxLineWidth(); got != 4*6.0+10 {
		t.Fatalf("MaxLineWidth = %g, want %g", got, 4*6.0+10)
	}
}

func TestFlattenMarkdown(t *testing.T) {
	src := "# Title\n\nSome *styled* paragraph\nwith a soft break.\n\n- first\n- second\n"
	got := FlattenMarkdown(src)
	want := "Title\nSome styled paragraph with a soft break.\n• first\n• second"
	if got != want {
		t.Fatalf("FlattenMarkdown:\n got %q\nwant %q", got, want)
	}
}

func TestFlattenMarkdownCodeBlock(t *testing.T) {
	got := FlattenMarkdown("```\nline one\nline two\n```\n")
	if !strings.Contains(got, "line one") || !strings.Contains(got, "line two") {
		t.Fatalf("code block lost: %q", got)
	}
}

func TestFlattenHTML(t *testing.T) {
	src := `<html><head><style>p{color:red}</style></head>
<body><h1>Title</h1><p>Hello <b>world</b></p><ul><li>item</li></ul>
<script>var x = 1;</script></body></html>`
	got, err := FlattenHTML(src)
	if err != nil {
		t.Fatalf("FlattenHTML: %v", err)
	}
	want := "Title\nHello world\n• item"
	if got != want {
		t.Fatalf("FlattenHTML:\n got %q\nwant %q", got, want)
	}
}

func TestFlattenHTMLBareText(t *testing.T) {
	got, err := FlattenHTML("just some text")
	if err != nil {
		t.Fatalf("FlattenHTML: %v", err)
	}
	if got != "just some text" {
		t.Fatalf("bare text = %q", got)
	}
}

func TestNormalize(t *testing.T) {
	in := "a\r\nb\rc d\x07e"
	if got := Normalize(in); got != "a\nb\nc de" {
		t.Fatalf("Normalize = %q", got)
	}
}
