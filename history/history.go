// Package history records annotation edits as reversible entries and
// replays them for undo and redo.
package history

import "overtype/document"

// Op tags the kind of edit a Change records.
type Op int

const (
	// OpAdd records an annotation added to a page.
	OpAdd Op = iota
	// OpRemove records an annotation removed from a page.
	OpRemove
	// OpMutate records an in-place change to an annotation's bounds,
	// contents, or font size.
	OpMutate
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	case OpMutate:
		return "mutate"
	}
	return "unknown"
}

func (op Op) inverse() Op {
	switch op {
	case OpAdd:
		return OpRemove
	case OpRemove:
		return OpAdd
	default:
		return op
	}
}

// State is the replayable portion of an annotation: its bounds and, for
// text annotations, contents and font size.
type State struct {
	Rect     document.Rect
	Contents string
	FontSize float64
}

// Capture snapshots a's current state for a later Mutated change.
func Capture(a document.Annotation) State {
	s := State{Rect: a.Rect()}
	if ft, ok := a.(*document.FreeText); ok {
		s.Contents = ft.Contents
		s.FontSize = ft.FontSize
	}
	return s
}

func restore(a document.Annotation, s State) {
	a.SetRect(s.Rect)
	if ft, ok := a.(*document.FreeText); ok {
		ft.SetContents(s.Contents)
		if s.FontSize > 0 {
			ft.FontSize = s.FontSize
		}
	}
}

// Change is a single reversible edit to one page. The annotation is held
// by reference so replay restores the identical object.
type Change struct {
	Op     Op
	Page   int
	Annot  document.Annotation
	Before State
	After  State
}

// Added records that a was added to the page.
func Added(page int, a document.Annotation) Change {
	return Change{Op: OpAdd, Page: page, Annot: a}
}

// Removed records that a was removed from the page.
func Removed(page int, a document.Annotation) Change {
	return Change{Op: OpRemove, Page: page, Annot: a}
}

// Mutated records an in-place edit to a, from the before snapshot to the
// after snapshot.
func Mutated(page int, a document.Annotation, before, after State) Change {
	return Change{Op: OpMutate, Page: page, Annot: a, Before: before, After: after}
}

// Entry groups the changes of one user-visible action, for example every
// cover and text annotation of a single replacement. Replay treats the
// group as a transaction.
type Entry struct {
	Label   string
	Changes []Change
}

// Journal is the undo and redo history for one document. Entries are
// recorded after their changes have already been applied; Undo replays an
// entry inverted and Redo replays it forward. Not safe for concurrent use.
type Journal struct {
	doc  *document.Document
	undo []*Entry
	redo []*Entry
}

// NewJournal returns an empty journal replaying against doc.
func NewJournal(doc *document.Document) *Journal {
	return &Journal{doc: doc}
}

// Record pushes an applied entry onto the undo stack and discards any
// redoable entries. Empty entries are ignored.
func (j *Journal) Record(e *Entry) {
	if e == nil || len(e.Changes) == 0 {
		return
	}
	j.undo = append(j.undo, e)
	j.redo = nil
}

// CanUndo reports whether an entry is available to undo.
func (j *Journal) CanUndo() bool { return len(j.undo) > 0 }

// Entries returns the applied entries, oldest first. Callers must not
// mutate the returned slice.
func (j *Journal) Entries() []*Entry { return j.undo }

// CanRedo reports whether an entry is available to redo.
func (j *Journal) CanRedo() bool { return len(j.redo) > 0 }

// UndoLabel returns the label of the entry Undo would replay, or "".
func (j *Journal) UndoLabel() string {
	if n := len(j.undo); n > 0 {
		return j.undo[n-1].Label
	}
	return ""
}

// RedoLabel returns the label of the entry Redo would replay, or "".
func (j *Journal) RedoLabel() string {
	if n := len(j.redo); n > 0 {
		return j.redo[n-1].Label
	}
	return ""
}

// Undo reverts the most recent entry, moving it to the redo stack. It
// reports whether anything was undone.
func (j *Journal) Undo() bool {
	n := len(j.undo)
	if n == 0 {
		return false
	}
	e := j.undo[n-1]
	j.undo = j.undo[:n-1]
	for i := len(e.Changes) - 1; i >= 0; i-- {
		j.applyChange(e.Changes[i], true)
	}
	j.redo = append(j.redo, e)
	j.doc.Dirty = true
	return true
}

// Redo replays the most recently undone entry, moving it back to the undo
// stack. It reports whether anything was redone.
func (j *Journal) Redo() bool {
	n := len(j.redo)
	if n == 0 {
		return false
	}
	e := j.redo[n-1]
	j.redo = j.redo[:n-1]
	for _, ch := range e.Changes {
		j.applyChange(ch, false)
	}
	j.undo = append(j.undo, e)
	j.doc.Dirty = true
	return true
}

// Clear drops both stacks, for example when a new document replaces the
// one the entries refer to.
func (j *Journal) Clear() {
	j.undo = nil
	j.redo = nil
}

func (j *Journal) applyChange(ch Change, invert bool) {
	page := j.doc.Page(ch.Page)
	if page == nil {
		return
	}
	op := ch.Op
	if invert {
		op = op.inverse()
	}
	switch op {
	case OpAdd:
		page.Add(ch.Annot)
	case OpRemove:
		page.Remove(ch.Annot)
	case OpMutate:
		st := ch.After
		if invert {
			st = ch.Before
		}
		restore(ch.Annot, st)
		page.Dirty = true
		page.Invalidate()
	}
}
