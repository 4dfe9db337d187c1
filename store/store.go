// Package store adapts documents to their PDF files: it loads the page
// and annotation graph, extracts the text layer, and writes annotation
// edits back out, regenerating appearance streams as needed. Annotations
// the model does not own are carried through saves untouched.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"overtype/document"
	"overtype/layout"
	"overtype/observability"
	"overtype/text"
)

var (
	ErrNoDocument = errors.New("no document open")
	ErrNoPath     = errors.New("document has no file path")
	ErrNotPDF     = errors.New("payload is not a pdf")
)

// IsPDF reports whether data begins with a PDF header, the acceptance
// test for dropped byte payloads.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// Store owns the backing PDF state of one open document. File access is
// scoped: at most one handle on the document's path is held at a time,
// released before any new acquisition and re-acquired around saves.
type Store struct {
	conf *model.Configuration
	eng  *layout.Engine
	log  observability.Logger

	doc    *document.Document
	ctx    *model.Context
	data   []byte   // backing bytes when opened from memory
	handle *os.File // scoped access to the open path
	refs   map[string]types.IndirectRef
	texts  map[int]*text.PageText
}

// Option configures a Store.
type Option func(*Store)

// WithPassword sets the passwords tried when opening encrypted files.
func WithPassword(user, owner string) Option {
	return func(s *Store) {
		s.conf.UserPW = user
		s.conf.OwnerPW = owner
	}
}

// WithLayout sets the engine used to lay out appearance streams.
func WithLayout(eng *layout.Engine) Option {
	return func(s *Store) { s.eng = eng }
}

// WithLogger sets the store's logger.
func WithLogger(l observability.Logger) Option {
	return func(s *Store) { s.log = observability.OrNop(l) }
}

// New returns a store with no document open.
func New(opts ...Option) *Store {
	s := &Store{
		conf: model.NewDefaultConfiguration(),
		eng:  layout.NewEngine(),
		log:  observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Document returns the open document, or nil.
func (s *Store) Document() *document.Document { return s.doc }

// Open loads the PDF at path and replaces the store's document. On
// failure the previously open document is left untouched.
func (s *Store) Open(path string) (*document.Document, error) {
	if err := s.acquire(path); err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	ctx, err := api.ReadContext(s.handle, s.conf)
	if err == nil {
		err = api.ValidateContext(ctx)
	}
	if err != nil {
		s.release()
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	doc, refs, err := s.build(ctx)
	if err != nil {
		s.release()
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	doc.Path = path
	s.install(doc, ctx, refs, nil)
	s.log.Info("document opened",
		observability.String("path", path),
		observability.Int("pages", doc.PageCount()),
		observability.Int("annotations", doc.AnnotationCount()))
	return doc, nil
}

// OpenBytes loads a PDF from an in-memory payload. The resulting
// document has no path until saved with SaveAs.
func (s *Store) OpenBytes(data []byte) (*document.Document, error) {
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}
	ctx, err := api.ReadContext(bytes.NewReader(data), s.conf)
	if err == nil {
		err = api.ValidateContext(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("open bytes: %w", err)
	}
	doc, refs, err := s.build(ctx)
	if err != nil {
		return nil, fmt.Errorf("open bytes: %w", err)
	}
	s.release() // in-memory documents hold no path access
	s.install(doc, ctx, refs, data)
	s.log.Info("document opened from memory",
		observability.Int("bytes", len(data)),
		observability.Int("pages", doc.PageCount()))
	return doc, nil
}

// Save writes the document back to the path it was opened from,
// re-acquiring the scoped access for the duration. The dirty flags are
// cleared only when the write succeeds.
func (s *Store) Save() error {
	if s.doc == nil {
		return ErrNoDocument
	}
	if s.doc.Path == "" {
		return ErrNoPath
	}
	return s.writeTo(s.doc.Path)
}

// SaveAs writes a full copy to path, which becomes the document's path.
func (s *Store) SaveAs(path string) error {
	if s.doc == nil {
		return ErrNoDocument
	}
	if err := s.writeTo(path); err != nil {
		return err
	}
	s.doc.Path = path
	s.data = nil
	return nil
}

func (s *Store) writeTo(path string) error {
	if err := s.sync(); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	s.release()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	werr := api.WriteContext(s.ctx, f)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), werr)
	}
	if cerr != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), cerr)
	}
	if err := s.acquire(path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	s.doc.Dirty = false
	for _, p := range s.doc.Pages {
		p.Dirty = false
	}
	s.log.Info("document saved",
		observability.String("path", path),
		observability.Int("annotations", s.doc.AnnotationCount()))
	return nil
}

// Close releases the scoped file access and drops the open document.
func (s *Store) Close() {
	s.release()
	s.doc = nil
	s.ctx = nil
	s.data = nil
	s.refs = nil
	s.texts = nil
}

func (s *Store) install(doc *document.Document, ctx *model.Context, refs map[string]types.IndirectRef, data []byte) {
	s.doc = doc
	s.ctx = ctx
	s.refs = refs
	s.data = data
	s.texts = nil
}

// acquire releases any held handle first, so at most one is ever live.
func (s *Store) acquire(path string) error {
	s.release()
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	s.handle = f
	return nil
}

func (s *Store) release() {
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
}

func (s *Store) build(ctx *model.Context) (*document.Document, map[string]types.IndirectRef, error) {
	doc := &document.Document{Info: readInfo(ctx)}
	refs := make(map[string]types.IndirectRef)
	for n := 1; n <= ctx.PageCount; n++ {
		pageDict, _, inh, err := ctx.PageDict(n, false)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %w", n, err)
		}
		page := &document.Page{Index: n - 1, MediaBox: mediaBoxOf(ctx, pageDict, inh)}
		readAnnotations(ctx, pageDict, page, refs)
		doc.Pages = append(doc.Pages, page)
	}
	return doc, refs, nil
}

func mediaBoxOf(ctx *model.Context, pageDict types.Dict, inh *model.InheritedPageAttrs) document.Rect {
	if inh != nil && inh.MediaBox != nil {
		return document.Rect{
			LLX: inh.MediaBox.LL.X,
			LLY: inh.MediaBox.LL.Y,
			URX: inh.MediaBox.UR.X,
			URY: inh.MediaBox.UR.Y,
		}
	}
	if obj, found := pageDict.Find("MediaBox"); found {
		if arr, err := ctx.DereferenceArray(obj); err == nil {
			if r, ok := rectFromArray(arr); ok {
				return r
			}
		}
	}
	// US Letter, the common default when the box is missing.
	return document.Rect{URX: 612, URY: 792}
}

func readInfo(ctx *model.Context) document.Info {
	var info document.Info
	if ctx.Info == nil {
		return info
	}
	d, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || d == nil {
		return info
	}
	info.Title = dictTextEntry(ctx, d, "Title")
	info.Author = dictTextEntry(ctx, d, "Author")
	info.Producer = dictTextEntry(ctx, d, "Producer")
	return info
}
