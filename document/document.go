// Package document models the annotation graph the editor mutates: a
// Document of Pages, each carrying a set of Cover and FreeText annotations
// in page-space coordinates. The underlying PDF content is never touched;
// loading and persisting the graph is the store package's job.
package document

import "math"

// Rect is a page-space rectangle, y-up, as stored in PDF annotations.
type Rect struct {
	LLX, LLY, URX, URY float64
}

// FromXYWH builds a Rect from an (x, y, w, h) quadruple, where (x, y) is
// the lower-left corner.
func FromXYWH(x, y, w, h float64) Rect {
	return Rect{LLX: x, LLY: y, URX: x + w, URY: y + h}
}

func (r Rect) Width() float64  { return r.URX - r.LLX }
func (r Rect) Height() float64 { return r.URY - r.LLY }

// Contains reports whether the point (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.LLX && x <= r.URX && y >= r.LLY && y <= r.URY
}

func (r Rect) Intersects(o Rect) bool {
	return !(o.LLX > r.URX || o.URX < r.LLX || o.LLY > r.URY || o.URY < r.LLY)
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		LLX: math.Min(r.LLX, o.LLX),
		LLY: math.Min(r.LLY, o.LLY),
		URX: math.Max(r.URX, o.URX),
		URY: math.Max(r.URY, o.URY),
	}
}

func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{LLX: r.LLX + dx, LLY: r.LLY + dy, URX: r.URX + dx, URY: r.URY + dy}
}

// IsDegenerate reports whether r is unusable for geometry: non-finite
// coordinates or non-positive area. Degenerate rectangles are silently
// skipped throughout the pipeline, never surfaced as errors.
func (r Rect) IsDegenerate() bool {
	for _, v := range [4]float64{r.LLX, r.LLY, r.URX, r.URY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return r.URX <= r.LLX || r.URY <= r.LLY
}

// Info carries the subset of the /Info dictionary the editor surfaces.
type Info struct {
	Title    string
	Author   string
	Producer string
}

// Document is a loaded PDF as the editor sees it: ordered pages and a dirty
// flag. It is replaced wholesale on the next open and mutated only through
// annotation add/remove and annotation field updates.
type Document struct {
	Pages []*Page
	Path  string
	Info  Info
	Dirty bool
}

func (d *Document) PageCount() int { return len(d.Pages) }

// Page returns the page at index, or nil when out of range.
func (d *Document) Page(index int) *Page {
	if index < 0 || index >= len(d.Pages) {
		return nil
	}
	return d.Pages[index]
}

// AnnotationCount counts annotations across all pages.
func (d *Document) AnnotationCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Annotations)
	}
	return n
}

// Page is one page of the document: a fixed media box and an unordered set
// of annotations. Geometry queries are page-local.
type Page struct {
	Index       int
	MediaBox    Rect
	Annotations []Annotation
	Dirty       bool

	idx *quadIndex
}

// Add appends a to the page's annotation set.
func (p *Page) Add(a Annotation) {
	p.Annotations = append(p.Annotations, a)
	p.Dirty = true
	p.idx = nil
}

// Remove deletes a from the page's annotation set, matching by identity.
// It reports whether the annotation was present.
func (p *Page) Remove(a Annotation) bool {
	for i, cur := range p.Annotations {
		if cur == a {
			p.Annotations = append(p.Annotations[:i], p.Annotations[i+1:]...)
			p.Dirty = true
			p.idx = nil
			return true
		}
	}
	return false
}

// Invalidate drops the spatial index. Callers that mutate an annotation's
// bounds directly (drag-move, resize, commit) must call it so later
// hit tests see the new geometry.
func (p *Page) Invalidate() { p.idx = nil }

// AnnotationAt returns the topmost annotation whose bounds contain the
// point, or nil. Topmost means latest-added, matching draw order.
func (p *Page) AnnotationAt(x, y float64) Annotation {
	hits := p.index().query(Rect{LLX: x, LLY: y, URX: x, URY: y})
	best := -1
	for _, i := range hits {
		if p.Annotations[i].Rect().Contains(x, y) && i > best {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return p.Annotations[best]
}

// FreeTextAt is AnnotationAt restricted to FreeText annotations.
func (p *Page) FreeTextAt(x, y float64) *FreeText {
	hits := p.index().query(Rect{LLX: x, LLY: y, URX: x, URY: y})
	best := -1
	for _, i := range hits {
		if _, ok := p.Annotations[i].(*FreeText); !ok {
			continue
		}
		if p.Annotations[i].Rect().Contains(x, y) && i > best {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return p.Annotations[best].(*FreeText)
}

// ClampRect shifts and, if necessary, shrinks r so it fits inside the
// page's media box.
func (p *Page) ClampRect(r Rect) Rect {
	mb := p.MediaBox
	w := math.Min(r.Width(), mb.Width())
	h := math.Min(r.Height(), mb.Height())
	x := math.Min(math.Max(r.LLX, mb.LLX), mb.URX-w)
	y := math.Min(math.Max(r.LLY, mb.LLY), mb.URY-h)
	return Rect{LLX: x, LLY: y, URX: x + w, URY: y + h}
}

func (p *Page) index() *quadIndex {
	if p.idx == nil {
		// Grow the index bounds past the media box so annotations dragged
		// off-page stay hittable.
		bounds := p.MediaBox
		for _, a := range p.Annotations {
			if !a.Rect().IsDegenerate() {
				bounds = bounds.Union(a.Rect())
			}
		}
		p.idx = newQuadIndex(bounds, 8)
		for i, a := range p.Annotations {
			p.idx.insert(a.Rect(), i)
		}
	}
	return p.idx
}
