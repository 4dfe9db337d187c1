// Package viewer is the document controller behind one editor window. It
// owns the open document with its journal and live edit session, maps
// view coordinates onto the page stack, and routes the menu, clipboard,
// drag-drop and mouse surfaces to the layers underneath. Everything runs
// on the caller's event thread.
package viewer

import (
	"errors"
	"fmt"
	"path/filepath"

	"overtype/coords"
	"overtype/document"
	"overtype/editor"
	"overtype/history"
	"overtype/layout"
	"overtype/observability"
	"overtype/replace"
	"overtype/store"
	"overtype/text"
)

var ErrUnsupportedDrop = errors.New("unsupported drop payload")

// Clipboard is the system clipboard surface the controller reads and
// writes. The default keeps text in memory, which the CLI shares.
type Clipboard interface {
	Get() (string, error)
	Set(text string) error
}

type memClipboard struct{ text string }

func (m *memClipboard) Get() (string, error) { return m.text, nil }
func (m *memClipboard) Set(s string) error   { m.text = s; return nil }

// Controller drives one window.
type Controller struct {
	store *store.Store
	eng   *layout.Engine
	synth *replace.Synthesizer
	clip  Clipboard
	log   observability.Logger
	texts editor.TextSource // overrides store extraction when set

	doc     *document.Document
	journal *history.Journal
	editor  *editor.Editor

	zoom      float64
	scroll    coords.Point
	viewW     float64
	viewH     float64
	pointer   coords.Point
	pointerOK bool
	gesture   int // page the current mouse gesture started on
	focusPage int
	selection *document.Selection
	status    string

	// OnRender, when set, fires after every visible mutation.
	OnRender func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger shared with the store.
func WithLogger(l observability.Logger) Option {
	return func(c *Controller) { c.log = observability.OrNop(l) }
}

// WithStore substitutes a preconfigured store, e.g. one carrying
// passwords for encrypted input.
func WithStore(s *store.Store) Option {
	return func(c *Controller) { c.store = s }
}

// WithLayout sets the layout engine shared across synthesis and editing.
func WithLayout(eng *layout.Engine) Option {
	return func(c *Controller) { c.eng = eng }
}

// WithClipboard plugs in the system clipboard.
func WithClipboard(cb Clipboard) Option {
	return func(c *Controller) { c.clip = cb }
}

// WithViewport sets the view size used for center-derived paste targets.
func WithViewport(w, h float64) Option {
	return func(c *Controller) {
		if w > 0 && h > 0 {
			c.viewW, c.viewH = w, h
		}
	}
}

// WithTextProvider replaces the store's extracted text layer, e.g. with
// OCR fragments for scanned input.
func WithTextProvider(src editor.TextSource) Option {
	return func(c *Controller) { c.texts = src }
}

// New returns a controller with no document open.
func New(opts ...Option) *Controller {
	c := &Controller{
		eng:   layout.NewEngine(),
		clip:  &memClipboard{},
		log:   observability.NopLogger{},
		zoom:  1,
		viewW: 800,
		viewH: 1000,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = store.New(store.WithLayout(c.eng), store.WithLogger(c.log))
	}
	c.synth = replace.NewSynthesizer(c.eng, c.log)
	return c
}

func (c *Controller) Document() *document.Document { return c.doc }
func (c *Controller) Journal() *history.Journal    { return c.journal }
func (c *Controller) Editor() *editor.Editor       { return c.editor }
func (c *Controller) Status() string               { return c.status }
func (c *Controller) Zoom() float64                { return c.zoom }

// Open loads path into this controller. On failure the current document
// stays as it was.
func (c *Controller) Open(path string) error {
	c.commitEdit()
	doc, err := c.store.Open(path)
	if err != nil {
		c.setStatus("Failed to load " + filepath.Base(path))
		c.log.Error("open failed",
			observability.String("path", path), observability.Error("err", err))
		return err
	}
	c.install(doc)
	c.setStatus(filepath.Base(path))
	return nil
}

// OpenBytes loads an in-memory PDF payload, typically from drag-drop.
func (c *Controller) OpenBytes(data []byte) error {
	c.commitEdit()
	doc, err := c.store.OpenBytes(data)
	if err != nil {
		c.setStatus("Failed to load dropped data")
		c.log.Error("open failed", observability.Error("err", err))
		return err
	}
	c.install(doc)
	c.setStatus(c.displayName())
	return nil
}

// Drop handles a drag-and-drop payload: a file path or raw PDF bytes.
// Anything else is rejected.
func (c *Controller) Drop(payload any) error {
	switch v := payload.(type) {
	case string:
		return c.Open(v)
	case []byte:
		if store.IsPDF(v) {
			return c.OpenBytes(v)
		}
	}
	c.setStatus("Unsupported drop payload")
	return ErrUnsupportedDrop
}

// Save writes back to the opened path. Without a document this is a
// silent no-op.
func (c *Controller) Save() error {
	if c.doc == nil {
		return nil
	}
	c.commitEdit()
	name := c.displayName()
	if err := c.store.Save(); err != nil {
		c.setStatus("Failed to save " + name)
		c.log.Error("save failed", observability.Error("err", err))
		return err
	}
	c.setStatus("Saved " + name)
	return nil
}

// SaveAs writes a full copy to path, which the document adopts.
func (c *Controller) SaveAs(path string) error {
	if c.doc == nil {
		return nil
	}
	c.commitEdit()
	if err := c.store.SaveAs(path); err != nil {
		c.setStatus("Failed to save " + filepath.Base(path))
		c.log.Error("save failed",
			observability.String("path", path), observability.Error("err", err))
		return err
	}
	c.setStatus("Saved " + filepath.Base(path))
	return nil
}

// Close commits any live edit, releases the file access and drops the
// document.
func (c *Controller) Close() {
	if c.doc == nil {
		return
	}
	c.commitEdit()
	c.store.Close()
	c.doc, c.journal, c.editor = nil, nil, nil
	c.selection = nil
	c.setStatus("")
	c.render()
}

func (c *Controller) install(doc *document.Document) {
	c.doc = doc
	c.journal = history.NewJournal(doc)
	c.editor = editor.NewEditor(doc, c.eng, c.journal, c.textFor, c.log)
	c.editor.SetZoom(c.zoom)
	c.editor.OnChange = c.render
	c.focusPage = 0
	c.selection = nil
	c.scroll = coords.Point{}
	c.render()
}

func (c *Controller) textFor(page int) *text.PageText {
	if c.texts != nil {
		return c.texts(page)
	}
	return c.store.Text(page)
}

// PageText returns the text geometry the controller selects against, from
// the configured provider or the document's own text layer.
func (c *Controller) PageText(page int) *text.PageText { return c.textFor(page) }

func (c *Controller) displayName() string {
	if c.doc == nil || c.doc.Path == "" {
		return "untitled.pdf"
	}
	return filepath.Base(c.doc.Path)
}

func (c *Controller) setStatus(s string) {
	c.status = s
	if s != "" {
		c.log.Info("status", observability.String("text", s))
	}
}

func (c *Controller) commitEdit() {
	if c.editor != nil {
		c.editor.Commit()
	}
}

func (c *Controller) render() {
	if c.OnRender != nil {
		c.OnRender()
	}
}

// Command names the menu surface routed through Execute.
type Command string

const (
	CmdOpen        Command = "open"
	CmdSave        Command = "save"
	CmdSaveAs      Command = "save-as"
	CmdCloseWindow Command = "close-window"
	CmdUndo        Command = "undo"
	CmdRedo        Command = "redo"
	CmdCut         Command = "cut"
	CmdCopy        Command = "copy"
	CmdPaste       Command = "paste"
)

var ErrUnknownCommand = errors.New("unknown command")

// Execute routes a menu command. arg carries the path for open and
// save-as; paste reads the clipboard.
func (c *Controller) Execute(cmd Command, arg string) error {
	switch cmd {
	case CmdOpen:
		return c.Open(arg)
	case CmdSave:
		return c.Save()
	case CmdSaveAs:
		return c.SaveAs(arg)
	case CmdCloseWindow:
		c.Close()
	case CmdUndo:
		c.Undo()
	case CmdRedo:
		c.Redo()
	case CmdCut:
		c.Cut()
	case CmdCopy:
		c.Copy()
	case CmdPaste:
		s, err := c.clip.Get()
		if err != nil {
			return fmt.Errorf("paste: %w", err)
		}
		c.Paste(s)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	return nil
}
