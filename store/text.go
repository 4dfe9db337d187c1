package store

import (
	"bytes"
	"errors"
	"strings"

	"github.com/ledongthuc/pdf"

	"overtype/observability"
	"overtype/text"
)

// descentFactor drops the reported baseline to the glyph box bottom.
const descentFactor = 0.2

// Text returns the grouped text layer of a page, extracting all pages on
// first use. Returns nil when the document has no text there.
func (s *Store) Text(page int) *text.PageText {
	if s.doc == nil {
		return nil
	}
	if s.texts == nil {
		s.texts = s.extractAll()
	}
	return s.texts[page]
}

func (s *Store) extractAll() map[int]*text.PageText {
	out := make(map[int]*text.PageText)
	reader, closer, err := s.textReader()
	if err != nil {
		s.log.Warn("text layer unavailable", observability.Error("err", err))
		return out
	}
	if closer != nil {
		defer closer.Close()
	}
	for n := 1; n <= reader.NumPage(); n++ {
		p := reader.Page(n)
		if p.V.IsNull() {
			continue
		}
		if frags := pageFragments(p); len(frags) > 0 {
			out[n-1] = text.BuildPage(n-1, frags)
		}
	}
	return out
}

func (s *Store) textReader() (*pdf.Reader, interface{ Close() error }, error) {
	if s.data != nil {
		r, err := pdf.NewReader(bytes.NewReader(s.data), int64(len(s.data)))
		return r, nil, err
	}
	if s.doc.Path == "" {
		return nil, nil, errors.New("document has no text source")
	}
	f, r, err := pdf.Open(s.doc.Path)
	if err != nil {
		return nil, nil, err
	}
	return r, f, nil
}

// pageFragments converts one page's text objects. The extraction library
// panics on malformed content streams, so the page is abandoned instead.
func pageFragments(p pdf.Page) (frags []text.Fragment) {
	defer func() {
		if r := recover(); r != nil {
			frags = nil
		}
	}()
	for _, t := range p.Content().Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		frags = append(frags, text.Fragment{
			Text:     t.S,
			X:        t.X,
			Y:        t.Y - descentFactor*t.FontSize,
			W:        t.W,
			FontSize: t.FontSize,
			Font:     t.Font,
		})
	}
	return frags
}
