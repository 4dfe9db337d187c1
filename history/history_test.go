package history

import (
	"testing"

	"overtype/document"
)

func testDoc() *document.Document {
	return &document.Document{Pages: []*document.Page{
		{Index: 0, MediaBox: document.Rect{URX: 612, URY: 792}},
		{Index: 1, MediaBox: document.Rect{URX: 612, URY: 792}},
	}}
}

func TestUndoRedoAdd(t *testing.T) {
	doc := testDoc()
	j := NewJournal(doc)
	page := doc.Page(0)

	c := document.NewCover(document.FromXYWH(50, 700, 100, 20))
	page.Add(c)
	j.Record(&Entry{Label: "Replace Text", Changes: []Change{Added(0, c)}})

	if !j.CanUndo() || j.CanRedo() {
		t.Fatalf("stacks after record: undo=%v redo=%v", j.CanUndo(), j.CanRedo())
	}
	if !j.Undo() {
		t.Fatal("undo failed")
	}
	if len(page.Annotations) != 0 {
		t.Fatalf("annotations after undo = %d", len(page.Annotations))
	}
	if !j.Redo() {
		t.Fatal("redo failed")
	}
	if len(page.Annotations) != 1 || page.Annotations[0] != c {
		t.Fatal("redo did not restore the identical annotation")
	}
}

func TestReplacementIsOneTransaction(t *testing.T) {
	doc := testDoc()
	j := NewJournal(doc)
	page := doc.Page(0)

	c1 := document.NewCover(document.FromXYWH(50, 700, 100, 12))
	c2 := document.NewCover(document.FromXYWH(50, 686, 80, 12))
	ft := document.NewFreeText(document.FromXYWH(50, 686, 100, 26), "Hi", "Helvetica", 12)
	page.Add(c1)
	page.Add(c2)
	page.Add(ft)
	j.Record(&Entry{Label: "Replace Text", Changes: []Change{
		Added(0, c1), Added(0, c2), Added(0, ft),
	}})

	j.Undo()
	if len(page.Annotations) != 0 {
		t.Fatalf("transaction undo left %d annotations", len(page.Annotations))
	}
	j.Redo()
	if len(page.Annotations) != 3 {
		t.Fatalf("transaction redo restored %d annotations", len(page.Annotations))
	}
	// Forward replay keeps the original z-order.
	if page.Annotations[2] != ft {
		t.Fatal("redo reordered annotations")
	}
}

func TestUndoRedoMutate(t *testing.T) {
	doc := testDoc()
	j := NewJournal(doc)
	page := doc.Page(0)

	ft := document.NewFreeText(document.FromXYWH(50, 700, 100, 20), "old", "Helvetica", 12)
	page.Add(ft)

	before := Capture(ft)
	ft.SetRect(document.FromXYWH(50, 690, 120, 30))
	ft.SetContents("new")
	ft.FontSize = 14
	page.Invalidate()
	j.Record(&Entry{Label: "Edit Text", Changes: []Change{Mutated(0, ft, before, Capture(ft))}})

	j.Undo()
	if ft.Contents != "old" || ft.FontSize != 12 {
		t.Fatalf("undo state = %q size %g", ft.Contents, ft.FontSize)
	}
	if got := ft.Rect(); got != document.FromXYWH(50, 700, 100, 20) {
		t.Fatalf("undo rect = %+v", got)
	}
	// Hit testing follows the replayed bounds.
	if page.AnnotationAt(60, 705) != ft {
		t.Fatal("hit test missed annotation at undone bounds")
	}

	j.Redo()
	if ft.Contents != "new" || ft.FontSize != 14 {
		t.Fatalf("redo state = %q size %g", ft.Contents, ft.FontSize)
	}
	if page.AnnotationAt(60, 695) != ft {
		t.Fatal("hit test missed annotation at redone bounds")
	}
}

func TestUndoRemove(t *testing.T) {
	doc := testDoc()
	j := NewJournal(doc)
	page := doc.Page(1)

	c := document.NewCover(document.FromXYWH(10, 10, 40, 40))
	page.Add(c)
	page.Remove(c)
	j.Record(&Entry{Label: "Cut", Changes: []Change{Removed(1, c)}})

	j.Undo()
	if len(page.Annotations) != 1 || page.Annotations[0] != c {
		t.Fatal("undo of remove did not restore the annotation")
	}
}

func TestRecordClearsRedo(t *testing.T) {
	doc := testDoc()
	j := NewJournal(doc)
	page := doc.Page(0)

	c1 := document.NewCover(document.FromXYWH(0, 0, 10, 10))
	page.Add(c1)
	j.Record(&Entry{Changes: []Change{Added(0, c1)}})
	j.Undo()
	if !j.CanRedo() {
		t.Fatal("no redo after undo")
	}

	c2 := document.NewCover(document.FromXYWH(20, 20, 10, 10))
	page.Add(c2)
	j.Record(&Entry{Changes: []Change{Added(0, c2)}})
	if j.CanRedo() {
		t.Fatal("new entry kept stale redo stack")
	}
}

func TestEmptyJournalIsNoOp(t *testing.T) {
	j := NewJournal(testDoc())
	if j.Undo() || j.Redo() {
		t.Fatal("empty journal replayed something")
	}
	j.Record(nil)
	j.Record(&Entry{Label: "nothing"})
	if j.CanUndo() {
		t.Fatal("empty entry was recorded")
	}
}

func TestLabelsAndDirty(t *testing.T) {
	doc := testDoc()
	j := NewJournal(doc)
	page := doc.Page(0)

	c := document.NewCover(document.FromXYWH(0, 0, 10, 10))
	page.Add(c)
	j.Record(&Entry{Label: "Replace Text", Changes: []Change{Added(0, c)}})

	if j.UndoLabel() != "Replace Text" || j.RedoLabel() != "" {
		t.Fatalf("labels = %q / %q", j.UndoLabel(), j.RedoLabel())
	}
	doc.Dirty = false
	j.Undo()
	if !doc.Dirty {
		t.Fatal("undo did not mark the document dirty")
	}
	if j.UndoLabel() != "" || j.RedoLabel() != "Replace Text" {
		t.Fatalf("labels after undo = %q / %q", j.UndoLabel(), j.RedoLabel())
	}

	j.Clear()
	if j.CanUndo() || j.CanRedo() {
		t.Fatal("clear left entries behind")
	}
}
