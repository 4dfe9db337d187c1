package scripting

import (
	"context"
)

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute runs a script against the registered document surface.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterDOM wires the annotation graph into the engine's globals.
	RegisterDOM(dom DOM) error
}

// DOM exposes the open document's annotation graph and edit surface to
// scripts. It is a controlled API; scripts never touch model types
// directly.
type DOM interface {
	// PageCount returns the number of pages, 0 without a document.
	PageCount() int

	// Annotations lists the annotations of a page (0-based).
	Annotations(page int) []AnnotationProxy

	// ReplaceSelection selects the text inside a page-space rectangle and
	// replaces it, returning the number of pages changed.
	ReplaceSelection(page int, llx, lly, urx, ury float64, text string) int

	// AddText places a committed text overlay with its top-left at (x, y).
	AddText(page int, x, y float64, text string) bool

	Undo() bool
	Redo() bool

	// Save writes the document back to its path.
	Save() error

	// Alert surfaces a message to the user (a console line in the CLI).
	Alert(message string)
}

// AnnotationProxy represents one annotation exposed to scripts.
type AnnotationProxy interface {
	ID() string
	Kind() string
	Bounds() (llx, lly, urx, ury float64)
	GetContents() string
	SetContents(text string)
}
