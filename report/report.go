// Package report exports a replacement summary of an edited document as a
// standalone PDF: per page the covers and text overlays currently in
// place, followed by the recorded action history.
package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"overtype/document"
	"overtype/history"
)

const (
	titleSize   = 18.0
	headingSize = 13.0
	bodySize    = 10.0
	lineH       = 14.0
)

// Write renders the summary of doc and its recorded actions to w. The
// journal may be nil when no history is available.
func Write(doc *document.Document, j *history.Journal, w io.Writer) error {
	if doc == nil {
		return errors.New("nil document")
	}
	pdf := build(doc, j)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteFile renders the summary to path.
func WriteFile(doc *document.Document, j *history.Journal, path string) error {
	if doc == nil {
		return errors.New("nil document")
	}
	pdf := build(doc, j)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

func build(doc *document.Document, j *history.Journal) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle("Replacement Report", true)
	pdf.SetMargins(54, 54, 54)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-36)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 12, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	name := filepath.Base(doc.Path)
	if doc.Path == "" {
		name = "untitled.pdf"
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.CellFormat(0, 26, "Replacement Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", bodySize)
	pdf.SetTextColor(96, 96, 96)
	pdf.CellFormat(0, lineH, tr(fmt.Sprintf("%s, generated %s", name, time.Now().Format("2006-01-02 15:04"))), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineH, fmt.Sprintf("Pages: %d   Annotations: %d", doc.PageCount(), doc.AnnotationCount()), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(10)

	for i := 0; i < doc.PageCount(); i++ {
		page := doc.Page(i)
		if page == nil || len(page.Annotations) == 0 {
			continue
		}
		heading(pdf, fmt.Sprintf("Page %d", i+1))
		for _, a := range page.Annotations {
			pdf.MultiCell(0, lineH, tr(annotationLine(a)), "", "L", false)
		}
		pdf.Ln(6)
	}

	if j != nil && len(j.Entries()) > 0 {
		heading(pdf, "Recorded Actions")
		for n, e := range j.Entries() {
			pdf.SetFont("Helvetica", "B", bodySize)
			pdf.CellFormat(0, lineH, tr(fmt.Sprintf("%d. %s", n+1, e.Label)), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", bodySize)
			for _, ch := range e.Changes {
				pdf.MultiCell(0, lineH, tr("    "+changeLine(ch)), "", "L", false)
			}
		}
	}
	return pdf
}

func heading(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", headingSize)
	pdf.CellFormat(0, 20, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", bodySize)
}

func annotationLine(a document.Annotation) string {
	switch t := a.(type) {
	case *document.Cover:
		return fmt.Sprintf("masked %s", rectString(t.Rect()))
	case *document.FreeText:
		return fmt.Sprintf("%q at %s, %s %.1fpt", truncate(t.Contents, 60), rectString(t.Rect()), t.FontName, t.FontSize)
	}
	return fmt.Sprintf("annotation at %s", rectString(a.Rect()))
}

func changeLine(ch history.Change) string {
	where := fmt.Sprintf("page %d", ch.Page+1)
	switch ch.Op {
	case history.OpAdd:
		switch a := ch.Annot.(type) {
		case *document.Cover:
			return fmt.Sprintf("%s: masked %s", where, rectString(a.Rect()))
		case *document.FreeText:
			return fmt.Sprintf("%s: placed %q at %s", where, truncate(a.Contents, 60), rectString(a.Rect()))
		}
		return fmt.Sprintf("%s: added annotation", where)
	case history.OpRemove:
		return fmt.Sprintf("%s: removed annotation at %s", where, rectString(ch.Annot.Rect()))
	case history.OpMutate:
		if ch.Before.Contents != ch.After.Contents {
			return fmt.Sprintf("%s: %q -> %q", where, truncate(ch.Before.Contents, 40), truncate(ch.After.Contents, 40))
		}
		if ch.Before.Rect != ch.After.Rect {
			return fmt.Sprintf("%s: moved to %s", where, rectString(ch.After.Rect))
		}
		return fmt.Sprintf("%s: restyled text", where)
	}
	return where
}

func rectString(r document.Rect) string {
	return fmt.Sprintf("(%.1f, %.1f)-(%.1f, %.1f)", r.LLX, r.LLY, r.URX, r.URY)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
