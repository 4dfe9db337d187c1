package store

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"overtype/document"
	"overtype/layout"
)

// minimalPDF builds a one page document with a computed xref table.
func minimalPDF() []byte {
	var b bytes.Buffer
	offsets := make([]int, 4)
	b.WriteString("%PDF-1.7\n")
	obj := func(n int, body string) {
		offsets[n] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", n, body)
	}
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	start := b.Len()
	b.WriteString("xref\n0 4\n0000000000 65535 f \n")
	for n := 1; n <= 3; n++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size 4 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", start)
	return b.Bytes()
}

func nearRect(a, b document.Rect) bool {
	const eps = 0.01
	return math.Abs(a.LLX-b.LLX) < eps && math.Abs(a.LLY-b.LLY) < eps &&
		math.Abs(a.URX-b.URX) < eps && math.Abs(a.URY-b.URY) < eps
}

func TestIsPDF(t *testing.T) {
	if !IsPDF([]byte("%PDF-1.4\nrest")) {
		t.Fatalf("pdf header not recognized")
	}
	if IsPDF([]byte("PK\x03\x04")) || IsPDF(nil) {
		t.Fatalf("non-pdf payload accepted")
	}
}

func TestOpenBytesRejectsNonPDF(t *testing.T) {
	s := New()
	if _, err := s.OpenBytes([]byte("just text")); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

func TestRoundTripPreservesPagesAndAnnotations(t *testing.T) {
	s := New()
	doc, err := s.OpenBytes(minimalPDF())
	if err != nil {
		t.Fatalf("open bytes: %v", err)
	}
	if doc.PageCount() != 1 {
		t.Fatalf("page count %d, want 1", doc.PageCount())
	}
	page := doc.Page(0)
	if page.MediaBox != (document.Rect{URX: 612, URY: 792}) {
		t.Fatalf("media box %+v", page.MediaBox)
	}

	cover := document.NewCover(document.FromXYWH(50, 700, 100, 20))
	page.Add(cover)
	ft := document.NewFreeText(document.FromXYWH(50, 697.6, 120, 22.4), "Résumé №5", "Courier-Bold", 14)
	page.Add(ft)

	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := s.SaveAs(path); err != nil {
		t.Fatalf("save as: %v", err)
	}
	if doc.Path != path {
		t.Fatalf("path not adopted: %q", doc.Path)
	}
	if doc.Dirty || page.Dirty || cover.Dirty || ft.Base().Dirty {
		t.Fatalf("dirty flags survived a successful save")
	}

	s2 := New()
	doc2, err := s2.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if doc2.PageCount() != doc.PageCount() {
		t.Fatalf("page count changed: %d != %d", doc2.PageCount(), doc.PageCount())
	}
	if doc2.AnnotationCount() != doc.AnnotationCount() {
		t.Fatalf("annotation count changed: %d != %d", doc2.AnnotationCount(), doc.AnnotationCount())
	}

	var gotFT *document.FreeText
	var gotCover *document.Cover
	for _, a := range doc2.Page(0).Annotations {
		switch v := a.(type) {
		case *document.FreeText:
			gotFT = v
		case *document.Cover:
			gotCover = v
		}
	}
	if gotFT == nil || gotCover == nil {
		t.Fatalf("annotations lost in round trip: %+v", doc2.Page(0).Annotations)
	}
	if gotFT.Contents != "Résumé №5" {
		t.Fatalf("contents %q", gotFT.Contents)
	}
	if gotFT.FontName != "Courier-Bold" || gotFT.FontSize != 14 {
		t.Fatalf("font %s %g", gotFT.FontName, gotFT.FontSize)
	}
	if gotFT.ID() != ft.ID() || gotCover.ID() != cover.ID() {
		t.Fatalf("identity lost in round trip")
	}
	if !nearRect(gotCover.Rect(), cover.Rect()) {
		t.Fatalf("cover rect %+v, want %+v", gotCover.Rect(), cover.Rect())
	}
	if gotFT.Hidden || gotCover.Hidden {
		t.Fatalf("unexpected hidden flag")
	}
	if len(gotCover.Fill) != 3 || gotCover.Fill[0] != 1 {
		t.Fatalf("cover fill %+v", gotCover.Fill)
	}
}

func TestSaveRewritesDirtyAnnotations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")

	s := New()
	if _, err := s.OpenBytes(minimalPDF()); err != nil {
		t.Fatalf("open bytes: %v", err)
	}
	page := s.Document().Page(0)
	page.Add(document.NewFreeText(document.FromXYWH(50, 700, 100, 20), "first", "Helvetica", 12))
	if err := s.SaveAs(path); err != nil {
		t.Fatalf("save as: %v", err)
	}

	s2 := New()
	doc, err := s2.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	var ft *document.FreeText
	for _, a := range doc.Page(0).Annotations {
		if v, ok := a.(*document.FreeText); ok {
			ft = v
		}
	}
	if ft == nil {
		t.Fatalf("free text missing after reopen")
	}
	ft.SetContents("second")
	if err := s2.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	s2.Close()

	s3 := New()
	doc3, err := s3.Open(path)
	if err != nil {
		t.Fatalf("final open: %v", err)
	}
	defer s3.Close()
	if doc3.AnnotationCount() != 1 {
		t.Fatalf("annotation count %d after edit, want 1", doc3.AnnotationCount())
	}
	got := doc3.Page(0).Annotations[0].(*document.FreeText)
	if got.Contents != "second" {
		t.Fatalf("contents %q, want %q", got.Contents, "second")
	}
}

func TestSaveWithoutDocument(t *testing.T) {
	s := New()
	if err := s.Save(); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
	if err := s.SaveAs("x.pdf"); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}

func TestSaveOfMemoryDocumentNeedsPath(t *testing.T) {
	s := New()
	if _, err := s.OpenBytes(minimalPDF()); err != nil {
		t.Fatalf("open bytes: %v", err)
	}
	if err := s.Save(); !errors.Is(err, ErrNoPath) {
		t.Fatalf("expected ErrNoPath, got %v", err)
	}
}

func TestFailedOpenKeepsDocument(t *testing.T) {
	s := New()
	doc, err := s.OpenBytes(minimalPDF())
	if err != nil {
		t.Fatalf("open bytes: %v", err)
	}
	if _, err := s.Open(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatalf("expected failure on missing file")
	}
	if s.Document() != doc {
		t.Fatalf("prior document replaced by failed open")
	}
}

func TestTextStringCodec(t *testing.T) {
	cases := []string{
		"plain ascii",
		`parens (nested) and \ backslash`,
		"line\nbreak",
		"Привет мир",
		"naïve café",
	}
	for _, c := range cases {
		if got := decodeTextString(encodeTextString(c)); got != c {
			t.Fatalf("round trip %q: got %q", c, got)
		}
	}
}

func TestUnescapeString(t *testing.T) {
	if got := string(unescapeString(`a\101\12b`)); got != "aA\nb" {
		t.Fatalf("octal escapes: %q", got)
	}
	if got := string(unescapeString("one\\\ntwo")); got != "onetwo" {
		t.Fatalf("line continuation: %q", got)
	}
	if got := string(unescapeString(`\(ok\)`)); got != "(ok)" {
		t.Fatalf("paren escapes: %q", got)
	}
}

func TestDecodeHexString(t *testing.T) {
	if got := decodeHexString("48656C6C6F"); got != "Hello" {
		t.Fatalf("hex decode: %q", got)
	}
	if got := decodeHexString("FEFF00480069"); got != "Hi" {
		t.Fatalf("utf16 hex decode: %q", got)
	}
	if got := decodeHexString("48 65"); got != "He" {
		t.Fatalf("whitespace in hex: %q", got)
	}
}

func TestParseDA(t *testing.T) {
	font, size, color := parseDA("/Helv 12 Tf 0 g")
	if font != "Helv" || size != 12 {
		t.Fatalf("got %q %g", font, size)
	}
	if rgb, ok := rgbColor(color); !ok || rgb[0] != 0 || rgb[2] != 0 {
		t.Fatalf("gray not normalized: %v", color)
	}

	font, size, color = parseDA("0 0 1 rg /Courier-Bold 9.5 Tf")
	if font != "Courier-Bold" || size != 9.5 {
		t.Fatalf("got %q %g", font, size)
	}
	if len(color) != 3 || color[2] != 1 {
		t.Fatalf("rgb color %v", color)
	}

	font, size, color = parseDA("")
	if font != "" || size != 0 || color != nil {
		t.Fatalf("empty DA produced %q %g %v", font, size, color)
	}
}

func TestDAStringRoundTrip(t *testing.T) {
	ft := document.NewFreeText(document.FromXYWH(0, 0, 10, 10), "x", "Courier-Bold", 14)
	font, size, color := parseDA(daString(ft))
	if font != "Courier-Bold" || size != 14 {
		t.Fatalf("got %q %g", font, size)
	}
	if len(color) != 3 || color[0] != 0 {
		t.Fatalf("color %v", color)
	}
}

func TestAnnotFlags(t *testing.T) {
	b := &document.Base{}
	if got := annotFlags(b); got != 4 {
		t.Fatalf("default flags %d, want 4", got)
	}
	b.Hidden = true
	if got := annotFlags(b); got != 6 {
		t.Fatalf("hidden flags %d, want 6", got)
	}
	b.ReadOnly = true
	if got := annotFlags(b); got != 70 {
		t.Fatalf("hidden readonly flags %d, want 70", got)
	}
}

func TestBaseFontFor(t *testing.T) {
	cases := map[string]string{
		"Helvetica":            "Helvetica",
		"Arial-BoldMT":         "Helvetica-Bold",
		"ABCDEF+TimesNewRoman": "Times-Roman",
		"Georgia-Italic":       "Times-Italic",
		"Courier New":          "Courier",
		"Consolas-Bold":        "Helvetica-Bold",
		"DejaVuSansMono":       "Courier",
		"Times-BoldItalic":     "Times-BoldItalic",
	}
	for in, want := range cases {
		if got := baseFontFor(in); got != want {
			t.Fatalf("baseFontFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCoverContentOps(t *testing.T) {
	got := string(coverContent(100, 20, []float64{1, 1, 1}))
	if !strings.Contains(got, "1 1 1 rg") {
		t.Fatalf("fill color missing: %q", got)
	}
	if !strings.Contains(got, "0 0 100.00 20.00 re f") {
		t.Fatalf("fill rect missing: %q", got)
	}
	if !strings.HasPrefix(got, "q\n") || !strings.HasSuffix(got, "Q\n") {
		t.Fatalf("state not isolated: %q", got)
	}
}

func TestFreeTextContentOps(t *testing.T) {
	ft := document.NewFreeText(document.FromXYWH(50, 700, 100, 26.4), "Hi there", "Courier", 10)
	wrapped := layout.NewEngine().Wrap(layout.Paragraph{
		Text: ft.Contents, Font: ft.FontName, Size: ft.FontSize, MaxWidth: 92,
	})
	got := string(freeTextContent(ft, "Courier", wrapped))
	for _, want := range []string{
		"/Courier 10 Tf",
		"0 0 0 rg",
		"0 26.40 Td",
		"4.00 -12.00 Td",
		"(Hi there) Tj",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in %q", want, got)
		}
	}
}

func TestEscapeContentText(t *testing.T) {
	if got := escapeContentText("(x)"); got != `\(x\)` {
		t.Fatalf("parens: %q", got)
	}
	if got := escapeContentText("é"); got != string([]byte{0xE9}) {
		t.Fatalf("latin-1: %q", got)
	}
	if got := escapeContentText("→"); got != "?" {
		t.Fatalf("beyond latin-1: %q", got)
	}
}

func TestRectFromArray(t *testing.T) {
	r, ok := rectFromArray(types.NewNumberArray(612, 792, 0, 0))
	if !ok || r != (document.Rect{URX: 612, URY: 792}) {
		t.Fatalf("corner order not normalized: %+v ok=%v", r, ok)
	}
	if _, ok := rectFromArray(types.NewNumberArray(1, 2, 3)); ok {
		t.Fatalf("short array accepted")
	}
}

func TestRGBColor(t *testing.T) {
	if c, ok := rgbColor([]float64{0.5}); !ok || c[0] != 0.5 || c[2] != 0.5 {
		t.Fatalf("gray: %v ok=%v", c, ok)
	}
	if c, ok := rgbColor([]float64{1, 0, 0}); !ok || c[0] != 1 {
		t.Fatalf("rgb: %v ok=%v", c, ok)
	}
	if _, ok := rgbColor([]float64{0, 0, 0, 1}); ok {
		t.Fatalf("cmyk accepted")
	}
}
