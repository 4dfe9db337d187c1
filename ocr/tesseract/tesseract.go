// Package tesseract backs the ocr package with Tesseract via gosseract.
// It needs cgo and the libtesseract/libleptonica system libraries, so it
// stays out of the core import graph; importing it registers the backend
// as the default client factory:
//
//	import _ "overtype/ocr/tesseract"
package tesseract

import (
	"github.com/otiai10/gosseract/v2"

	"overtype/ocr"
)

func init() { ocr.SetDefaultFactory(New) }

// New returns a client backed by a dedicated gosseract instance.
func New() (ocr.Client, error) {
	return &client{c: gosseract.NewClient()}, nil
}

type client struct {
	c *gosseract.Client
}

func (t *client) SetImage(png []byte) error {
	return t.c.SetImageFromBytes(png)
}

func (t *client) SetLanguages(langs ...string) error {
	return t.c.SetLanguage(langs...)
}

func (t *client) SetVariable(key, value string) error {
	return t.c.SetVariable(gosseract.SettableVariable(key), value)
}

func (t *client) HOCR() (string, error) {
	return t.c.HOCRText()
}

func (t *client) Close() error {
	return t.c.Close()
}
