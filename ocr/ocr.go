// Package ocr recognizes text on rendered page images and hands it to the
// rest of the system as positioned fragments, so scanned documents flow
// through selection and replacement exactly like born-digital ones.
//
// The package itself is backend-neutral: recognition goes through the
// Client interface, and the tesseract subpackage registers the production
// implementation. Importing ocr alone pulls in no cgo.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"overtype/document"
	"overtype/observability"
	"overtype/text"
)

// ErrNoClient is returned by Recognize when no client factory was
// configured and no backend registered itself as the default.
var ErrNoClient = errors.New("no ocr client configured")

// Client is the surface the provider needs from a recognition backend.
// Images are PNG-encoded. A client is single-use per page; Close releases
// the backend's resources.
type Client interface {
	SetImage(png []byte) error
	SetLanguages(langs ...string) error
	SetVariable(key, value string) error
	HOCR() (string, error)
	Close() error
}

var (
	factoryMu      sync.RWMutex
	defaultFactory func() (Client, error)
)

// SetDefaultFactory installs the client factory used by providers that
// were not given one explicitly. Backend packages call this from init.
func SetDefaultFactory(f func() (Client, error)) {
	factoryMu.Lock()
	defaultFactory = f
	factoryMu.Unlock()
}

// DefaultFactory returns the registered default factory, or nil.
func DefaultFactory() func() (Client, error) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	return defaultFactory
}

// PageImage is one rendered page submitted for recognition. Width and
// Height are the pixel dimensions of the PNG; Box is the page rectangle
// those pixels map onto, in PDF points.
type PageImage struct {
	Page   int
	PNG    []byte
	Width  float64
	Height float64
	Box    document.Rect
}

// Provider runs page images through a Client and converts the recognized
// words into page-space text geometry.
type Provider struct {
	factory func() (Client, error)
	langs   []string
	dpi     int
	minConf float64
	log     observability.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithClientFactory overrides the registered default client factory.
func WithClientFactory(f func() (Client, error)) Option {
	return func(p *Provider) { p.factory = f }
}

// WithLanguages sets the recognition languages, in Tesseract notation
// ("eng", "deu", ...).
func WithLanguages(langs ...string) Option {
	return func(p *Provider) { p.langs = langs }
}

// WithDPI declares the resolution the page images were rendered at.
func WithDPI(dpi int) Option {
	return func(p *Provider) { p.dpi = dpi }
}

// WithMinConfidence drops recognized words below the given confidence,
// on the backend's 0-100 scale. Words without a reported confidence are
// kept.
func WithMinConfidence(conf float64) Option {
	return func(p *Provider) { p.minConf = conf }
}

// WithLogger sets the provider's logger.
func WithLogger(l observability.Logger) Option {
	return func(p *Provider) { p.log = l }
}

// NewProvider returns a provider with the given options applied.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{log: observability.NopLogger{}}
	for _, opt := range opts {
		opt(p)
	}
	p.log = observability.OrNop(p.log)
	return p
}

// Recognize runs one page image through the backend and returns the
// page's grouped text geometry. Word boxes arrive from the backend in
// pixel space with a top-left origin and leave in PDF points within
// img.Box.
func (p *Provider) Recognize(ctx context.Context, img PageImage) (*text.PageText, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if len(img.PNG) == 0 {
		return nil, errors.New("empty page image")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %gx%g", img.Width, img.Height)
	}
	if img.Box.IsDegenerate() {
		return nil, errors.New("degenerate page box")
	}

	factory := p.factory
	if factory == nil {
		factory = DefaultFactory()
	}
	if factory == nil {
		return nil, ErrNoClient
	}
	client, err := factory()
	if err != nil {
		return nil, fmt.Errorf("create ocr client: %w", err)
	}
	defer client.Close()

	if err := client.SetImage(img.PNG); err != nil {
		return nil, fmt.Errorf("set page image: %w", err)
	}
	if len(p.langs) > 0 {
		if err := client.SetLanguages(p.langs...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if p.dpi > 0 {
		if err := client.SetVariable("user_defined_dpi", strconv.Itoa(p.dpi)); err != nil {
			return nil, fmt.Errorf("set dpi: %w", err)
		}
	}

	hocr, err := client.HOCR()
	if err != nil {
		return nil, fmt.Errorf("recognize page %d: %w", img.Page, err)
	}
	words, err := ParseHOCR(hocr)
	if err != nil {
		return nil, fmt.Errorf("parse recognition output: %w", err)
	}

	frags := p.fragments(img, words)
	p.log.Debug("recognized page",
		observability.Int("page", img.Page),
		observability.Int("words", len(frags)))
	return text.BuildPage(img.Page, frags), nil
}

// fragments maps pixel-space word boxes into page space. Recognized text
// carries no font identity; Helvetica keeps downstream width estimates
// stable.
func (p *Provider) fragments(img PageImage, words []HOCRWord) []text.Fragment {
	scaleX := img.Box.Width() / img.Width
	scaleY := img.Box.Height() / img.Height

	frags := make([]text.Fragment, 0, len(words))
	for _, w := range words {
		if w.Text == "" {
			continue
		}
		if p.minConf > 0 && w.Confidence >= 0 && w.Confidence < p.minConf {
			continue
		}
		frags = append(frags, text.Fragment{
			Text:     w.Text,
			X:        img.Box.LLX + w.X0*scaleX,
			Y:        img.Box.URY - w.Y1*scaleY,
			W:        (w.X1 - w.X0) * scaleX,
			FontSize: (w.Y1 - w.Y0) * scaleY,
			Font:     "Helvetica",
		})
	}
	return frags
}
