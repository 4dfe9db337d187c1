package document

import "github.com/google/uuid"

// Kind discriminates the two annotation variants the editor works with.
type Kind int

const (
	KindCover Kind = iota
	KindFreeText
)

func (k Kind) String() string {
	switch k {
	case KindCover:
		return "Cover"
	case KindFreeText:
		return "FreeText"
	}
	return "Unknown"
}

// Annotation is the tagged variant over the two supported kinds. The
// interface is sealed; consumers dispatch with a type switch over *Cover
// and *FreeText.
type Annotation interface {
	Kind() Kind
	ID() string
	Rect() Rect
	SetRect(Rect)
	Base() *Base

	annotation()
}

// Base carries the fields common to both annotation kinds.
type Base struct {
	Name     string // stable identity, written as /NM
	RectVal  Rect
	Hidden   bool
	ReadOnly bool
	Dirty    bool
}

func (b *Base) ID() string     { return b.Name }
func (b *Base) Rect() Rect     { return b.RectVal }
func (b *Base) Base() *Base    { return b }
func (b *Base) annotation()    {}
func (b *Base) SetRect(r Rect) { b.RectVal = r; b.Dirty = true }

// Cover is an opaque rectangle that visually hides original page content.
// It carries no text and no lifecycle beyond add/remove.
type Cover struct {
	Base
	Fill []float64 // interior color, RGB
}

func (*Cover) Kind() Kind { return KindCover }

// NewCover returns an opaque white cover with zero border width over r.
func NewCover(r Rect) *Cover {
	return &Cover{
		Base: Base{Name: uuid.NewString(), RectVal: r, Dirty: true},
		Fill: []float64{1, 1, 1},
	}
}

// Text alignment values for FreeText, matching PDF quadding.
const (
	AlignLeft   = 0
	AlignCenter = 1
	AlignRight  = 2
)

// FreeText is the one annotation kind the user edits interactively: a text
// body with a font reference, drawn with transparent fill over its covers.
type FreeText struct {
	Base
	Contents  string
	FontName  string
	FontSize  float64
	TextColor []float64 // RGB
	Align     int
	Indent    float64 // head indent of the first line, in points
}

func (*FreeText) Kind() Kind { return KindFreeText }

// NewFreeText returns a left-aligned FreeText with black text and no fill.
func NewFreeText(r Rect, contents, fontName string, fontSize float64) *FreeText {
	return &FreeText{
		Base:      Base{Name: uuid.NewString(), RectVal: r, Dirty: true},
		Contents:  contents,
		FontName:  fontName,
		FontSize:  fontSize,
		TextColor: []float64{0, 0, 0},
		Align:     AlignLeft,
	}
}

// SetContents updates the text body and marks the annotation dirty.
func (t *FreeText) SetContents(s string) {
	if t.Contents == s {
		return
	}
	t.Contents = s
	t.Dirty = true
}
