package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"overtype/observability"
	"overtype/ocr"
	_ "overtype/ocr/tesseract"
	"overtype/text"
	"overtype/viewer"
)

// recognizePages fills texts with recognized geometry for every page that
// has a rendered image in the configured directory, keyed page-1.png,
// page-2.png, and so on. Pages without an image stay unrecognized.
func recognizePages(ctrl *viewer.Controller, opts options, texts map[int]*text.PageText, log observability.Logger) error {
	popts := []ocr.Option{ocr.WithLogger(log)}
	if opts.ocrDPI > 0 {
		popts = append(popts, ocr.WithDPI(opts.ocrDPI))
	}
	if opts.ocrLangs != "" {
		popts = append(popts, ocr.WithLanguages(strings.Split(opts.ocrLangs, "+")...))
	}
	prov := ocr.NewProvider(popts...)

	doc := ctrl.Document()
	ctx := context.Background()
	recognized := 0
	for i := 0; i < doc.PageCount(); i++ {
		path := filepath.Join(opts.ocrDir, fmt.Sprintf("page-%d.png", i+1))
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("read page image %s: %w", path, err)
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		pt, err := prov.Recognize(ctx, ocr.PageImage{
			Page:   i,
			PNG:    data,
			Width:  float64(cfg.Width),
			Height: float64(cfg.Height),
			Box:    doc.Page(i).MediaBox,
		})
		if err != nil {
			return fmt.Errorf("recognize page %d: %w", i+1, err)
		}
		texts[i] = pt
		recognized++
	}
	fmt.Printf("recognized %d page(s) from %s\n", recognized, opts.ocrDir)
	return nil
}
