package viewer

import (
	"fmt"
	"math"
	"strings"

	"overtype/coords"
	"overtype/document"
	"overtype/history"
	"overtype/layout"
	"overtype/observability"
	"overtype/replace"
	"overtype/text"
)

// pageGap separates stacked pages in world space.
const pageGap = 10

// World space stacks the pages top to bottom with y growing downward;
// page space stays the PDF's bottom-up coordinates. The view is world
// space scaled by zoom and shifted by scroll.

func (c *Controller) viewMatrix() coords.Matrix {
	return coords.Scale(c.zoom, c.zoom).Multiply(coords.Translate(-c.scroll.X, -c.scroll.Y))
}

func (c *Controller) viewToWorld(p coords.Point) coords.Point {
	inv, err := c.viewMatrix().Inverse()
	if err != nil {
		return p
	}
	return inv.Transform(p)
}

func (c *Controller) pageTops() []float64 {
	tops := make([]float64, len(c.doc.Pages))
	y := 0.0
	for i, p := range c.doc.Pages {
		tops[i] = y
		y += p.MediaBox.Height() + pageGap
	}
	return tops
}

// pagePointAt maps a view point onto the page under it.
func (c *Controller) pagePointAt(view coords.Point) (int, coords.Point, bool) {
	if c.doc == nil {
		return 0, coords.Point{}, false
	}
	w := c.viewToWorld(view)
	for i, top := range c.pageTops() {
		box := c.doc.Pages[i].MediaBox
		if w.X < 0 || w.X > box.Width() || w.Y < top || w.Y > top+box.Height() {
			continue
		}
		return i, coords.Point{X: box.LLX + w.X, Y: box.URY - (w.Y - top)}, true
	}
	return 0, coords.Point{}, false
}

// pagePoint converts without bounds checks, for drags that leave the page.
func (c *Controller) pagePoint(i int, view coords.Point) coords.Point {
	w := c.viewToWorld(view)
	box := c.doc.Pages[i].MediaBox
	return coords.Point{X: box.LLX + w.X, Y: box.URY - (w.Y - c.pageTops()[i])}
}

// centerTarget derives a page point from the viewport center, used when
// the pointer is outside every page.
func (c *Controller) centerTarget() (int, coords.Point) {
	center := coords.Point{X: c.viewW / 2, Y: c.viewH / 2}
	if page, pt, ok := c.pagePointAt(center); ok {
		return page, pt
	}
	page := c.focusPage
	if page < 0 || page >= len(c.doc.Pages) {
		page = 0
	}
	box := c.doc.Pages[page].MediaBox
	w := c.viewToWorld(center)
	x := math.Min(math.Max(w.X, 0), box.Width())
	y := math.Min(math.Max(w.Y-c.pageTops()[page], 0), box.Height())
	return page, coords.Point{X: box.LLX + x, Y: box.URY - y}
}

// MouseMoved tracks the pointer for paste targeting.
func (c *Controller) MouseMoved(view coords.Point) {
	c.pointer = view
	c.pointerOK = true
}

func (c *Controller) MouseDown(view coords.Point) {
	c.MouseMoved(view)
	if c.editor == nil {
		return
	}
	page, pt, ok := c.pagePointAt(view)
	if !ok {
		c.editor.Commit() // clicking off the pages ends the session
		return
	}
	c.focusPage = page
	c.gesture = page
	c.editor.MouseDown(page, pt.X, pt.Y)
}

func (c *Controller) MouseDrag(view coords.Point) {
	c.MouseMoved(view)
	if c.editor == nil || c.gesture >= len(c.doc.Pages) {
		return
	}
	pt := c.pagePoint(c.gesture, view)
	c.editor.MouseDrag(pt.X, pt.Y)
}

func (c *Controller) MouseUp(view coords.Point) {
	c.MouseMoved(view)
	if c.editor == nil || c.gesture >= len(c.doc.Pages) {
		return
	}
	pt := c.pagePoint(c.gesture, view)
	c.editor.MouseUp(pt.X, pt.Y)
}

func (c *Controller) DoubleClick(view coords.Point) {
	c.MouseMoved(view)
	if c.editor == nil {
		return
	}
	page, pt, ok := c.pagePointAt(view)
	if !ok {
		return
	}
	c.focusPage = page
	c.editor.DoubleClick(page, pt.X, pt.Y)
}

// SelectWord replaces the selection with the word under the view point.
func (c *Controller) SelectWord(view coords.Point) {
	if c.doc == nil {
		return
	}
	page, pt, ok := c.pagePointAt(view)
	if !ok {
		return
	}
	txt := c.textFor(page)
	if txt == nil {
		return
	}
	c.selection = txt.WordSelection(pt.X, pt.Y)
	c.focusPage = page
	c.render()
}

// SelectRange replaces the selection with the text inside a view-space
// rectangle, which may cross page boundaries.
func (c *Controller) SelectRange(from, to coords.Point) {
	if c.doc == nil {
		return
	}
	a := c.viewToWorld(from)
	b := c.viewToWorld(to)
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)

	var sels []*document.Selection
	tops := c.pageTops()
	for i, p := range c.doc.Pages {
		if maxY < tops[i] || minY > tops[i]+p.MediaBox.Height() {
			continue
		}
		txt := c.textFor(i)
		if txt == nil {
			continue
		}
		r := document.Rect{
			LLX: p.MediaBox.LLX + minX,
			URX: p.MediaBox.LLX + maxX,
			LLY: p.MediaBox.URY - (maxY - tops[i]),
			URY: p.MediaBox.URY - (minY - tops[i]),
		}
		sels = append(sels, txt.RangeSelection(r))
	}
	c.selection = text.Merge(sels...)
	if !c.selection.IsEmpty() {
		c.focusPage = c.selection.Pages[0].Page
	}
	c.render()
}

// SelectPageRange builds a selection from a page-space rectangle, the
// entry scripts and batch runs use instead of view coordinates.
func (c *Controller) SelectPageRange(page int, r document.Rect) {
	if c.doc == nil || c.doc.Page(page) == nil {
		return
	}
	txt := c.textFor(page)
	if txt == nil {
		c.selection = nil
		return
	}
	c.selection = txt.RangeSelection(r)
	if !c.selection.IsEmpty() {
		c.focusPage = page
	}
	c.render()
}

func (c *Controller) Selection() *document.Selection { return c.selection }

func (c *Controller) ClearSelection() {
	c.selection = nil
	c.render()
}

// ReplaceSelection masks the selected text and overlays the replacement,
// leaving the first affected page's overlay in edit mode. Returns the
// number of pages changed.
func (c *Controller) ReplaceSelection(replacement string) int {
	if c.doc == nil || c.selection.IsEmpty() {
		return 0
	}
	c.commitEdit()
	plans := replace.Translate(c.selection, replacement)
	applied := c.synth.Apply(c.doc, plans, c.journal)
	c.selection = nil
	if applied == nil {
		c.render()
		return 0
	}
	c.focusPage = applied.Page
	c.editor.BeginEdit(applied.Page, applied.Text)
	c.setStatus(fmt.Sprintf("Replaced text on %d page(s)", applied.Pages))
	c.render()
	return applied.Pages
}

// Copy puts the selection's plain text on the clipboard.
func (c *Controller) Copy() {
	if c.doc == nil || c.selection.IsEmpty() {
		return
	}
	if err := c.clip.Set(c.selection.Text()); err != nil {
		c.log.Warn("clipboard write failed", observability.Error("err", err))
	}
}

// Cut copies the selection, then masks it with covers as one undoable
// entry. No overlay text is created; cut removes rather than replaces.
func (c *Controller) Cut() {
	if c.doc == nil || c.selection.IsEmpty() {
		return
	}
	c.Copy()
	c.commitEdit()
	entry := &history.Entry{Label: "Cut Text"}
	for _, ps := range c.selection.Pages {
		page := c.doc.Page(ps.Page)
		if page == nil {
			continue
		}
		covered := false
		for _, ln := range ps.Lines {
			if ln.Bounds.IsDegenerate() {
				continue
			}
			cov := document.NewCover(ln.Bounds)
			page.Add(cov)
			entry.Changes = append(entry.Changes, history.Added(ps.Page, cov))
			covered = true
		}
		if !covered && !ps.Bounds.IsDegenerate() {
			cov := document.NewCover(ps.Bounds)
			page.Add(cov)
			entry.Changes = append(entry.Changes, history.Added(ps.Page, cov))
		}
	}
	c.selection = nil
	if len(entry.Changes) == 0 {
		c.render()
		return
	}
	c.doc.Dirty = true
	c.journal.Record(entry)
	c.render()
}

// Paste drops text into a fresh overlay at the pointer, or at a point
// derived from the viewport center when the pointer is outside every
// page, and begins editing it.
func (c *Controller) Paste(payload string) {
	if c.doc == nil || c.editor == nil {
		return
	}
	payload = layout.Normalize(payload)
	if strings.TrimSpace(payload) == "" {
		return
	}
	page, pt, ok := 0, coords.Point{}, false
	if c.pointerOK {
		page, pt, ok = c.pagePointAt(c.pointer)
	}
	if !ok {
		page, pt = c.centerTarget()
	}
	c.focusPage = page
	c.editor.CreateAt(page, pt.X, pt.Y, payload)
	c.render()
}

// PasteMarkdown flattens a Markdown clipboard payload before pasting.
func (c *Controller) PasteMarkdown(md string) {
	c.Paste(layout.FlattenMarkdown(md))
}

// PasteHTML flattens an HTML clipboard payload before pasting. Parse
// failures fall back to the raw payload.
func (c *Controller) PasteHTML(src string) {
	flat, err := layout.FlattenHTML(src)
	if err != nil {
		c.log.Warn("html flatten failed", observability.Error("err", err))
		flat = src
	}
	c.Paste(flat)
}

// Undo rolls back the newest journal entry, committing any live edit
// first so the session itself becomes part of history.
func (c *Controller) Undo() bool {
	if c.journal == nil {
		return false
	}
	c.commitEdit()
	label := c.journal.UndoLabel()
	if !c.journal.Undo() {
		return false
	}
	c.setStatus("Undid " + label)
	c.render()
	return true
}

// Redo reapplies the newest undone entry.
func (c *Controller) Redo() bool {
	if c.journal == nil {
		return false
	}
	c.commitEdit()
	label := c.journal.RedoLabel()
	if !c.journal.Redo() {
		return false
	}
	c.setStatus("Redid " + label)
	c.render()
	return true
}

// SetZoom clamps the zoom factor and propagates it to the editor.
func (c *Controller) SetZoom(z float64) {
	if z <= 0 {
		return
	}
	c.zoom = math.Min(math.Max(z, 0.25), 4)
	if c.editor != nil {
		c.editor.SetZoom(c.zoom)
	}
	c.render()
}

// SetScroll sets the world-space offset of the view origin.
func (c *Controller) SetScroll(x, y float64) {
	c.scroll = coords.Point{X: x, Y: y}
	c.render()
}

// SetViewport updates the view size used for center-derived targets.
func (c *Controller) SetViewport(w, h float64) {
	if w > 0 && h > 0 {
		c.viewW, c.viewH = w, h
	}
}
