package store

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"overtype/document"
	"overtype/layout"
)

// textInset keeps the type away from the overlay's left and right edges.
const textInset = 4.0

func (s *Store) coverAppearance(r document.Rect, fill []float64) (*types.IndirectRef, error) {
	return s.formXObject(coverContent(r.Width(), r.Height(), fill), r.Width(), r.Height(), "")
}

func (s *Store) freeTextAppearance(ft *document.FreeText) (*types.IndirectRef, error) {
	r := ft.Rect()
	base := baseFontFor(ft.FontName)
	wrapped := s.eng.Wrap(layout.Paragraph{
		Text:            ft.Contents,
		Font:            ft.FontName,
		Size:            ft.FontSize,
		MaxWidth:        r.Width() - 2*textInset,
		FirstLineIndent: ft.Indent,
	})
	return s.formXObject(freeTextContent(ft, base, wrapped), r.Width(), r.Height(), base)
}

// coverContent fills the whole form with the interior color. No border.
func coverContent(w, h float64, fill []float64) []byte {
	var b bytes.Buffer
	b.WriteString("q\n")
	fmt.Fprintf(&b, "%s rg\n", colorString(fill))
	fmt.Fprintf(&b, "0 0 %.2f %.2f re f\n", w, h)
	b.WriteString("Q\n")
	return b.Bytes()
}

// freeTextContent typesets the wrapped lines top-down from the form's
// upper left corner. The fill stays transparent so covers underneath
// show through around the glyphs.
func freeTextContent(ft *document.FreeText, baseFont string, wrapped layout.Wrapped) []byte {
	var b bytes.Buffer
	b.WriteString("q\nBT\n")
	fmt.Fprintf(&b, "/%s %s Tf\n", baseFont, fmtFloat(ft.FontSize))
	fmt.Fprintf(&b, "%s rg\n", colorString(ft.TextColor))
	fmt.Fprintf(&b, "0 %.2f Td\n", ft.Rect().Height())
	x := 0.0
	for _, ln := range wrapped.Lines {
		nx := textInset + ln.Indent
		fmt.Fprintf(&b, "%.2f %.2f Td\n", nx-x, -wrapped.LineHeight)
		x = nx
		if ln.Text != "" {
			fmt.Fprintf(&b, "(%s) Tj\n", escapeContentText(ln.Text))
		}
	}
	b.WriteString("ET\nQ\n")
	return b.Bytes()
}

func (s *Store) formXObject(content []byte, w, h float64, baseFont string) (*types.IndirectRef, error) {
	sd, err := s.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	sd.InsertName("Type", "XObject")
	sd.InsertName("Subtype", "Form")
	sd.Insert("BBox", types.NewNumberArray(0, 0, w, h))
	if baseFont != "" {
		fd := types.Dict{
			"Type":     types.Name("Font"),
			"Subtype":  types.Name("Type1"),
			"BaseFont": types.Name(baseFont),
		}
		fref, err := s.ctx.IndRefForNewObject(fd)
		if err != nil {
			return nil, err
		}
		sd.Insert("Resources", types.Dict{"Font": types.Dict{baseFont: *fref}})
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return s.ctx.IndRefForNewObject(*sd)
}

// escapeContentText prepares a line for a (…) Tj operand. The standard
// fonts cover Latin-1; anything beyond is replaced.
func escapeContentText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '(':
			b.WriteString(`\(`)
		case r == ')':
			b.WriteString(`\)`)
		case r < 0x100:
			b.WriteByte(byte(r))
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

// parseDA extracts font name, size and color from a default appearance
// string such as "/Helv 12 Tf 0 g". Missing pieces come back zero.
func parseDA(da string) (font string, size float64, color []float64) {
	fields := strings.Fields(da)
	for i, f := range fields {
		switch f {
		case "Tf":
			if i >= 2 {
				font = strings.TrimPrefix(fields[i-2], "/")
				fmt.Sscanf(fields[i-1], "%g", &size)
			}
		case "g":
			if i >= 1 {
				var v float64
				fmt.Sscanf(fields[i-1], "%g", &v)
				color = []float64{v}
			}
		case "rg":
			if i >= 3 {
				color = scanFloats(fields[i-3 : i])
			}
		case "k":
			if i >= 4 {
				// CMYK, approximated through its complement.
				if c := scanFloats(fields[i-4 : i]); len(c) == 4 {
					color = []float64{(1 - c[0]) * (1 - c[3]), (1 - c[1]) * (1 - c[3]), (1 - c[2]) * (1 - c[3])}
				}
			}
		}
	}
	return font, size, color
}

func scanFloats(fields []string) []float64 {
	out := make([]float64, len(fields))
	for i, f := range fields {
		if _, err := fmt.Sscanf(f, "%g", &out[i]); err != nil {
			return nil
		}
	}
	return out
}

func colorString(c []float64) string {
	if len(c) != 3 {
		c = []float64{0, 0, 0}
	}
	return fmt.Sprintf("%s %s %s", fmtFloat(c[0]), fmtFloat(c[1]), fmtFloat(c[2]))
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// baseFontFor maps an arbitrary font name onto the closest standard 14
// face, which appearance streams can reference without embedding.
func baseFontFor(name string) string {
	n := strings.ToLower(name)
	bold := strings.Contains(n, "bold")
	italic := strings.Contains(n, "italic") || strings.Contains(n, "oblique")
	switch {
	case strings.Contains(n, "courier") || strings.Contains(n, "mono"):
		return pickFace("Courier", "Courier-Bold", "Courier-Oblique", "Courier-BoldOblique", bold, italic)
	case strings.Contains(n, "times") || strings.Contains(n, "serif") || strings.Contains(n, "roman") || strings.Contains(n, "georgia") || strings.Contains(n, "garamond"):
		return pickFace("Times-Roman", "Times-Bold", "Times-Italic", "Times-BoldItalic", bold, italic)
	default:
		return pickFace("Helvetica", "Helvetica-Bold", "Helvetica-Oblique", "Helvetica-BoldOblique", bold, italic)
	}
}

func pickFace(regular, b, i, bi string, bold, italic bool) string {
	switch {
	case bold && italic:
		return bi
	case bold:
		return b
	case italic:
		return i
	default:
		return regular
	}
}
