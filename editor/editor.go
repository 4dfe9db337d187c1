// Package editor implements the in-place text editing surface bound to
// FreeText annotations: click-to-create, double-click-to-edit,
// drag-to-move, resize and font-size handles, and live re-flow while
// typing. All geometry is page-space; the host converts view points
// before delivering events.
package editor

import (
	"math"

	"overtype/coords"
	"overtype/document"
	"overtype/history"
	"overtype/layout"
	"overtype/observability"
	"overtype/text"
)

const (
	dragThreshold    = 2 // points of travel before a press becomes a move
	defaultBoxWidth  = 160
	defaultBoxHeight = 30
	wordWidthPad     = 20
	wrapInset        = 8
	bottomPad        = 4
	minOverlayWidth  = 40
	minFontSize      = 6
	maxFontSize      = 72
	fontSizeStep     = 0.5 // points of size per point of handle travel
	defaultFontName  = "Helvetica"
	defaultFontSize  = 12
)

// State is the editor's gesture state.
type State int

const (
	Idle State = iota
	PendingClick
	EditingFreeForm
	DraggingMove
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingClick:
		return "pending-click"
	case EditingFreeForm:
		return "editing"
	case DraggingMove:
		return "dragging"
	}
	return "unknown"
}

// Handle names the grab points on an active overlay.
type Handle int

const (
	HandleNone Handle = iota
	// HandleResize adjusts the overlay width, horizontal only.
	HandleResize
	// HandleFontSize adjusts the point size, vertical only.
	HandleFontSize
)

// TextSource resolves the grouped text of a page for word hit testing,
// or nil when no text layer is available.
type TextSource func(page int) *text.PageText

// Session is the live state of one in-place edit: the uncommitted buffer,
// the live font size, and the overlay rect whose top edge stays fixed
// while re-flow grows the bottom. The pre-edit snapshot backs the commit's
// undo entry.
type Session struct {
	Page   int
	Annot  *document.FreeText
	Buffer string
	Font   string
	Size   float64
	Rect   document.Rect

	pre history.State

	handle      Handle
	handleStart coords.Point
	startWidth  float64
	startSize   float64
}

type pendingDrag struct {
	page  int
	annot *document.FreeText
	start coords.Point
	pre   history.State
}

// Editor owns the gesture state machine for one document. At most one
// edit session is live at a time; starting anything elsewhere commits the
// session in flight. There is no cancel path.
type Editor struct {
	doc     *document.Document
	layout  *layout.Engine
	journal *history.Journal
	words   TextSource
	log     observability.Logger

	zoom    float64
	state   State
	session *Session
	pending *pendingDrag

	// OnChange fires after any change to the live overlay geometry so the
	// host can reposition its outline and handles.
	OnChange func()
}

// NewEditor returns an idle editor for doc. words may be nil, which
// disables the double-click-on-word path.
func NewEditor(doc *document.Document, eng *layout.Engine, j *history.Journal, words TextSource, log observability.Logger) *Editor {
	return &Editor{
		doc:     doc,
		layout:  eng,
		journal: j,
		words:   words,
		log:     observability.OrNop(log),
		zoom:    1,
	}
}

// SetZoom records the view's zoom factor, which scales the default box of
// newly created annotations.
func (e *Editor) SetZoom(z float64) {
	if z > 0 {
		e.zoom = z
	}
}

// State returns the current gesture state.
func (e *Editor) State() State { return e.state }

// Session returns the live edit session, or nil when not editing.
func (e *Editor) Session() *Session { return e.session }

// Editing reports whether an edit session is live.
func (e *Editor) Editing() bool { return e.session != nil }

// Overlay returns the live overlay rect while editing.
func (e *Editor) Overlay() (document.Rect, bool) {
	if e.session == nil {
		return document.Rect{}, false
	}
	return e.session.Rect, true
}

// MouseDown starts a pending click when the point hits a FreeText
// annotation. A press outside the live overlay commits the session first;
// a press inside it belongs to the embedded text view and is ignored.
func (e *Editor) MouseDown(page int, x, y float64) {
	if e.insideOverlay(page, x, y) {
		return
	}
	e.Commit()
	p := e.doc.Page(page)
	if p == nil {
		return
	}
	ft := p.FreeTextAt(x, y)
	if ft == nil {
		return
	}
	e.pending = &pendingDrag{
		page:  page,
		annot: ft,
		start: coords.Point{X: x, Y: y},
		pre:   history.Capture(ft),
	}
	e.state = PendingClick
}

// MouseDrag moves a pending or dragging annotation with the pointer once
// travel exceeds the threshold. The annotation's bounds translate live.
func (e *Editor) MouseDrag(x, y float64) {
	switch e.state {
	case PendingClick:
		d := e.pending
		if math.Hypot(x-d.start.X, y-d.start.Y) <= dragThreshold {
			return
		}
		e.state = DraggingMove
		fallthrough
	case DraggingMove:
		d := e.pending
		d.annot.SetRect(d.pre.Rect.Translate(x-d.start.X, y-d.start.Y))
		if p := e.doc.Page(d.page); p != nil {
			p.Invalidate()
		}
		e.notify()
	}
}

// MouseUp resolves a pending click into an edit session, or ends a drag
// and records the move as one undoable entry.
func (e *Editor) MouseUp(x, y float64) {
	switch e.state {
	case PendingClick:
		d := e.pending
		e.pending = nil
		e.state = Idle
		e.BeginEdit(d.page, d.annot)
	case DraggingMove:
		d := e.pending
		e.pending = nil
		e.state = Idle
		after := history.Capture(d.annot)
		if after != d.pre {
			e.record(&history.Entry{
				Label:   "Move Annotation",
				Changes: []history.Change{history.Mutated(d.page, d.annot, d.pre, after)},
			})
			e.doc.Dirty = true
			if p := e.doc.Page(d.page); p != nil {
				p.Dirty = true
			}
			e.log.Debug("annotation moved",
				observability.String("annotation", d.annot.ID()),
				observability.Int("page", d.page))
		}
		e.notify()
	}
}

// DoubleClick dispatches on what lies under the point: an existing
// FreeText annotation is edited, a word is masked and replaced with an
// editable copy, and empty page area gets a fresh default-sized
// annotation. Any session in flight is committed first.
func (e *Editor) DoubleClick(page int, x, y float64) {
	if e.insideOverlay(page, x, y) {
		return
	}
	e.Commit()
	p := e.doc.Page(page)
	if p == nil {
		return
	}
	if ft := p.FreeTextAt(x, y); ft != nil {
		e.BeginEdit(page, ft)
		return
	}
	if e.words != nil {
		if pt := e.words(page); pt != nil {
			if w, ok := pt.WordAt(x, y); ok {
				e.editWord(page, p, w)
				return
			}
		}
	}
	e.CreateAt(page, x, y, "")
}

// CreateAt adds a new FreeText annotation whose top-left corner is the
// given point, sized to the default box scaled by the current zoom and
// clamped to the page, then begins editing it with contents as the
// starting buffer. The add is recorded before any typing, so undoing a
// committed edit in two steps first reverts the text, then the creation.
func (e *Editor) CreateAt(page int, x, y float64, contents string) *document.FreeText {
	p := e.doc.Page(page)
	if p == nil {
		return nil
	}
	e.Commit()
	w := defaultBoxWidth / e.zoom
	h := defaultBoxHeight / e.zoom
	r := p.ClampRect(document.Rect{LLX: x, LLY: y - h, URX: x + w, URY: y})
	ft := document.NewFreeText(r, "", defaultFontName, defaultFontSize)
	p.Add(ft)
	e.record(&history.Entry{Label: "Add Text", Changes: []history.Change{history.Added(page, ft)}})
	e.doc.Dirty = true
	e.BeginEdit(page, ft)
	if contents != "" {
		e.TextChanged(contents)
	}
	return ft
}

// editWord masks the word with an opaque cover and overlays an editable
// copy in the word's own font, the pair recorded as one entry.
func (e *Editor) editWord(page int, p *document.Page, w text.Word) {
	cover := document.NewCover(w.Bounds)
	r := w.Bounds
	r.URX += wordWidthPad

	font := w.Font
	if font == "" {
		font = defaultFontName
	}
	size := w.Size
	if size <= 0 {
		size = math.Max(10, w.Bounds.Height()*0.6)
	}
	ft := document.NewFreeText(r, w.Text, font, size)

	p.Add(cover)
	p.Add(ft)
	e.record(&history.Entry{Label: "Replace Word", Changes: []history.Change{
		history.Added(page, cover),
		history.Added(page, ft),
	}})
	e.doc.Dirty = true
	e.BeginEdit(page, ft)
}

// BeginEdit attaches a session to ft, committing any session in flight.
// The annotation is hidden while the overlay stands in for it.
func (e *Editor) BeginEdit(page int, ft *document.FreeText) {
	e.Commit()
	e.pending = nil
	ft.Hidden = true
	e.session = &Session{
		Page:   page,
		Annot:  ft,
		Buffer: ft.Contents,
		Font:   ft.FontName,
		Size:   ft.FontSize,
		Rect:   ft.Rect(),
		pre:    history.Capture(ft),
	}
	e.state = EditingFreeForm
	e.log.Debug("edit session started",
		observability.String("annotation", ft.ID()),
		observability.Int("page", page))
	e.notify()
}

// TextChanged replaces the live buffer and re-flows the overlay height,
// keeping the top edge fixed. The host calls it on every keystroke.
func (e *Editor) TextChanged(s string) {
	if e.session == nil {
		return
	}
	e.session.Buffer = s
	e.reflow()
}

// BeginHandle starts a handle drag from the given point.
func (e *Editor) BeginHandle(h Handle, x, y float64) {
	s := e.session
	if s == nil || h == HandleNone {
		return
	}
	s.handle = h
	s.handleStart = coords.Point{X: x, Y: y}
	s.startWidth = s.Rect.Width()
	s.startSize = s.Size
}

// DragHandle applies the pointer's travel since BeginHandle: the resize
// handle tracks horizontally with a width floor, the font-size handle
// tracks vertically at a fixed step, clamped to [6, 72]. Both re-flow.
func (e *Editor) DragHandle(x, y float64) {
	s := e.session
	if s == nil || s.handle == HandleNone {
		return
	}
	switch s.handle {
	case HandleResize:
		w := math.Max(minOverlayWidth, s.startWidth+(x-s.handleStart.X))
		s.Rect.URX = s.Rect.LLX + w
	case HandleFontSize:
		size := s.startSize + (s.handleStart.Y-y)*fontSizeStep
		s.Size = math.Min(maxFontSize, math.Max(minFontSize, size))
	}
	e.reflow()
}

// EndHandle releases the active handle.
func (e *Editor) EndHandle() {
	if e.session != nil {
		e.session.handle = HandleNone
	}
}

// Commit ends the live session: the buffer is written back, bounds are
// recomputed from the overlay, visibility is restored, and the whole
// transition lands as one undo entry. The document is marked dirty only
// when the content changed. Safe to call when idle.
func (e *Editor) Commit() {
	s := e.session
	if s == nil {
		return
	}
	e.session = nil
	e.state = Idle

	ft := s.Annot
	contentChanged := s.Buffer != s.pre.Contents
	ft.SetContents(s.Buffer)
	ft.FontName = s.Font
	ft.FontSize = s.Size
	ft.SetRect(s.Rect)
	ft.Hidden = false

	after := history.Capture(ft)
	if after != s.pre {
		e.record(&history.Entry{
			Label:   "Edit Text",
			Changes: []history.Change{history.Mutated(s.Page, ft, s.pre, after)},
		})
		if p := e.doc.Page(s.Page); p != nil {
			p.Dirty = true
			p.Invalidate()
		}
	}
	if contentChanged {
		e.doc.Dirty = true
	}
	e.log.Debug("edit session committed",
		observability.String("annotation", ft.ID()),
		observability.Bool("changed", contentChanged))
	e.notify()
}

func (e *Editor) reflow() {
	s := e.session
	wrapped := e.layout.Wrap(layout.Paragraph{
		Text:            s.Buffer,
		Font:            s.Font,
		Size:            s.Size,
		MaxWidth:        s.Rect.Width() - wrapInset,
		FirstLineIndent: s.Annot.Indent,
	})
	h := math.Max(wrapped.Height, wrapped.LineHeight) + bottomPad
	s.Rect.LLY = s.Rect.URY - h
	e.notify()
}

func (e *Editor) insideOverlay(page int, x, y float64) bool {
	return e.session != nil && e.session.Page == page && e.session.Rect.Contains(x, y)
}

func (e *Editor) record(entry *history.Entry) {
	if e.journal != nil {
		e.journal.Record(entry)
	}
}

func (e *Editor) notify() {
	if e.OnChange != nil {
		e.OnChange()
	}
}
