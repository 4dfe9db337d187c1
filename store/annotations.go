package store

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"overtype/document"
)

// Annotation flag bits, PDF 32000-1 table 165.
const (
	flagHidden   = 2
	flagPrint    = 4
	flagReadOnly = 64
)

func annotFlags(b *document.Base) int {
	f := flagPrint
	if b.Hidden {
		f |= flagHidden
	}
	if b.ReadOnly {
		f |= flagReadOnly
	}
	return f
}

// readAnnotations maps the page's /Annots entries onto the model. Entries
// of foreign subtypes and entries without a usable rect are skipped here
// and carried through saves verbatim.
func readAnnotations(ctx *model.Context, pageDict types.Dict, page *document.Page, refs map[string]types.IndirectRef) {
	obj, found := pageDict.Find("Annots")
	if !found {
		return
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil {
		return
	}
	for _, item := range arr {
		d, err := ctx.DereferenceDict(item)
		if err != nil || d == nil {
			continue
		}
		a := annotationFrom(ctx, d)
		if a == nil {
			continue
		}
		if ref, ok := item.(types.IndirectRef); ok {
			refs[a.ID()] = ref
		}
		page.Annotations = append(page.Annotations, a)
	}
}

func annotationFrom(ctx *model.Context, d types.Dict) document.Annotation {
	rect, ok := annotRect(ctx, d)
	if !ok {
		return nil
	}
	name := dictTextEntry(ctx, d, "NM")
	if name == "" {
		name = uuid.NewString()
	}
	flags := dictIntEntry(ctx, d, "F")
	base := document.Base{
		Name:     name,
		RectVal:  rect,
		Hidden:   flags&flagHidden != 0,
		ReadOnly: flags&flagReadOnly != 0,
	}
	switch dictNameEntry(ctx, d, "Subtype") {
	case "Square":
		c := &document.Cover{Base: base, Fill: []float64{1, 1, 1}}
		if fill, ok := rgbColor(dictFloatsEntry(ctx, d, "IC")); ok {
			c.Fill = fill
		}
		return c
	case "FreeText":
		ft := &document.FreeText{
			Base:      base,
			Contents:  dictTextEntry(ctx, d, "Contents"),
			FontName:  "Helvetica",
			FontSize:  12,
			TextColor: []float64{0, 0, 0},
			Align:     dictIntEntry(ctx, d, "Q"),
		}
		font, size, color := parseDA(dictTextEntry(ctx, d, "DA"))
		if font != "" {
			ft.FontName = font
		}
		if size > 0 {
			ft.FontSize = size
		}
		if c, ok := rgbColor(color); ok {
			ft.TextColor = c
		}
		return ft
	}
	return nil
}

// sync rebuilds the /Annots array of every page that changed. Model-owned
// subtypes are rewritten from the model; everything else keeps its slot.
func (s *Store) sync() error {
	for _, page := range s.doc.Pages {
		if !pageNeedsSync(page) {
			continue
		}
		pageDict, _, _, err := s.ctx.PageDict(page.Index+1, false)
		if err != nil {
			return fmt.Errorf("page %d: %w", page.Index+1, err)
		}
		if err := s.syncPage(pageDict, page); err != nil {
			return fmt.Errorf("page %d: %w", page.Index+1, err)
		}
	}
	return nil
}

func pageNeedsSync(page *document.Page) bool {
	if page.Dirty {
		return true
	}
	for _, a := range page.Annotations {
		if a.Base().Dirty {
			return true
		}
	}
	return false
}

func (s *Store) syncPage(pageDict types.Dict, page *document.Page) error {
	var annots types.Array
	if obj, found := pageDict.Find("Annots"); found {
		if arr, err := s.ctx.DereferenceArray(obj); err == nil {
			for _, item := range arr {
				d, err := s.ctx.DereferenceDict(item)
				if err != nil || d == nil || !ownedSubtype(s.ctx, d) {
					annots = append(annots, item)
				}
			}
		}
	}
	for _, a := range page.Annotations {
		ref, err := s.annotationRef(a)
		if err != nil {
			return err
		}
		annots = append(annots, ref)
	}
	pageDict.Delete("Annots")
	if len(annots) > 0 {
		pageDict.Insert("Annots", annots)
	}
	return nil
}

func ownedSubtype(ctx *model.Context, d types.Dict) bool {
	switch dictNameEntry(ctx, d, "Subtype") {
	case "Square", "FreeText":
		return true
	}
	return false
}

// annotationRef returns the object backing a, reusing the loaded object
// for clean annotations and writing a fresh one otherwise.
func (s *Store) annotationRef(a document.Annotation) (types.IndirectRef, error) {
	base := a.Base()
	if !base.Dirty {
		if ref, ok := s.refs[a.ID()]; ok {
			return ref, nil
		}
	}
	d, err := s.annotationDict(a)
	if err != nil {
		return types.IndirectRef{}, err
	}
	ref, err := s.ctx.IndRefForNewObject(d)
	if err != nil {
		return types.IndirectRef{}, err
	}
	s.refs[a.ID()] = *ref
	base.Dirty = false
	return *ref, nil
}

func (s *Store) annotationDict(a document.Annotation) (types.Dict, error) {
	switch v := a.(type) {
	case *document.Cover:
		return s.coverDict(v)
	case *document.FreeText:
		return s.freeTextDict(v)
	}
	return nil, fmt.Errorf("unsupported annotation kind %v", a.Kind())
}

func (s *Store) coverDict(c *document.Cover) (types.Dict, error) {
	r := c.Rect()
	d := types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Square"),
		"Rect":    types.NewNumberArray(r.LLX, r.LLY, r.URX, r.URY),
		"NM":      types.StringLiteral(encodeTextString(c.ID())),
		"F":       types.Integer(annotFlags(c.Base())),
		"Border":  types.NewNumberArray(0, 0, 0),
		"IC":      types.NewNumberArray(c.Fill...),
	}
	ap, err := s.coverAppearance(r, c.Fill)
	if err != nil {
		return nil, err
	}
	d.Insert("AP", types.Dict{"N": *ap})
	return d, nil
}

func (s *Store) freeTextDict(ft *document.FreeText) (types.Dict, error) {
	r := ft.Rect()
	d := types.Dict{
		"Type":     types.Name("Annot"),
		"Subtype":  types.Name("FreeText"),
		"Rect":     types.NewNumberArray(r.LLX, r.LLY, r.URX, r.URY),
		"NM":       types.StringLiteral(encodeTextString(ft.ID())),
		"Contents": types.StringLiteral(encodeTextString(ft.Contents)),
		"DA":       types.StringLiteral(encodeTextString(daString(ft))),
		"F":        types.Integer(annotFlags(ft.Base())),
		"Border":   types.NewNumberArray(0, 0, 0),
	}
	if ft.Align != document.AlignLeft {
		d.Insert("Q", types.Integer(ft.Align))
	}
	ap, err := s.freeTextAppearance(ft)
	if err != nil {
		return nil, err
	}
	d.Insert("AP", types.Dict{"N": *ap})
	return d, nil
}

func daString(ft *document.FreeText) string {
	return fmt.Sprintf("/%s %s Tf %s rg",
		baseFontFor(ft.FontName), fmtFloat(ft.FontSize), colorString(ft.TextColor))
}

// encodeTextString produces the escaped interior of a PDF text string.
// Plain ASCII stays readable; anything else is written as UTF-16BE with
// a byte order mark.
func encodeTextString(s string) string {
	ascii := true
	for _, r := range s {
		if r >= 0x80 || r == 0 {
			ascii = false
			break
		}
	}
	if ascii {
		return escapeString(s)
	}
	units := utf16.Encode([]rune(s))
	raw := make([]byte, 0, 2+2*len(units))
	raw = append(raw, 0xFE, 0xFF)
	for _, u := range units {
		raw = append(raw, byte(u>>8), byte(u))
	}
	return escapeString(string(raw))
}

func escapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '(':
			b.WriteString(`\(`)
		case ')':
			b.WriteString(`\)`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// decodeTextString reverses encodeTextString for strings read from a
// file: unescape, then decode UTF-16BE when the BOM is present.
func decodeTextString(s string) string {
	raw := unescapeString(s)
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		return decodeUTF16BE(raw[2:])
	}
	return string(raw)
}

func unescapeString(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out = append(out, c)
			continue
		}
		i++
		switch c = s[i]; c {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case '\n':
			// line continuation, drop
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := int(c - '0')
			for n := 1; n < 3 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; n++ {
				i++
				v = v<<3 | int(s[i]-'0')
			}
			out = append(out, byte(v))
		default:
			out = append(out, c)
		}
	}
	return out
}

func decodeUTF16BE(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units))
}

func annotRect(ctx *model.Context, d types.Dict) (document.Rect, bool) {
	obj, found := d.Find("Rect")
	if !found {
		return document.Rect{}, false
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil {
		return document.Rect{}, false
	}
	return rectFromArray(arr)
}

func rectFromArray(arr types.Array) (document.Rect, bool) {
	if len(arr) != 4 {
		return document.Rect{}, false
	}
	var v [4]float64
	for i, obj := range arr {
		f, ok := floatValue(obj)
		if !ok {
			return document.Rect{}, false
		}
		v[i] = f
	}
	// Normalize: files are allowed to store corners in either order.
	r := document.Rect{
		LLX: math.Min(v[0], v[2]),
		LLY: math.Min(v[1], v[3]),
		URX: math.Max(v[0], v[2]),
		URY: math.Max(v[1], v[3]),
	}
	return r, true
}

func floatValue(obj types.Object) (float64, bool) {
	switch v := obj.(type) {
	case types.Float:
		return v.Value(), true
	case types.Integer:
		return float64(v.Value()), true
	}
	return 0, false
}

// rgbColor normalizes a color array to RGB. Gray is replicated, CMYK and
// anything else is rejected.
func rgbColor(v []float64) ([]float64, bool) {
	switch len(v) {
	case 1:
		return []float64{v[0], v[0], v[0]}, true
	case 3:
		return v, true
	}
	return nil, false
}

func dictTextEntry(ctx *model.Context, d types.Dict, key string) string {
	obj, found := d.Find(key)
	if !found {
		return ""
	}
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return ""
	}
	switch v := obj.(type) {
	case types.StringLiteral:
		return decodeTextString(string(v))
	case types.HexLiteral:
		return decodeHexString(string(v))
	}
	return ""
}

func decodeHexString(s string) string {
	var raw []byte
	var hi byte
	half := false
	for i := 0; i < len(s); i++ {
		v, ok := hexDigit(s[i])
		if !ok {
			continue
		}
		if half {
			raw = append(raw, hi<<4|v)
			half = false
		} else {
			hi = v
			half = true
		}
	}
	if half {
		raw = append(raw, hi<<4)
	}
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		return decodeUTF16BE(raw[2:])
	}
	return string(raw)
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func dictNameEntry(ctx *model.Context, d types.Dict, key string) string {
	obj, found := d.Find(key)
	if !found {
		return ""
	}
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return ""
	}
	if n, ok := obj.(types.Name); ok {
		return n.Value()
	}
	return ""
}

func dictIntEntry(ctx *model.Context, d types.Dict, key string) int {
	obj, found := d.Find(key)
	if !found {
		return 0
	}
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return 0
	}
	if n, ok := obj.(types.Integer); ok {
		return n.Value()
	}
	return 0
}

func dictFloatsEntry(ctx *model.Context, d types.Dict, key string) []float64 {
	obj, found := d.Find(key)
	if !found {
		return nil
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil {
		return nil
	}
	out := make([]float64, 0, len(arr))
	for _, item := range arr {
		f, ok := floatValue(item)
		if !ok {
			return nil
		}
		out = append(out, f)
	}
	return out
}
