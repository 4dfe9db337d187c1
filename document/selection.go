package document

import "strings"

// TextRun is one attributed run of selected text: a contiguous stretch
// sharing a font name and size. Size may be zero when the text engine could
// not attribute one.
type TextRun struct {
	Text string
	Font string
	Size float64
}

// LineSelection is one line-level sub-selection with its page-space bounds.
// Bounds may be degenerate for some content (table cells, vertical rules);
// consumers skip those rectangles but keep the text.
type LineSelection struct {
	Text   string
	Bounds Rect
}

// PageSelection is the part of a selection that falls on one page.
type PageSelection struct {
	Page   int
	Bounds Rect
	Lines  []LineSelection
}

// Selection is an ephemeral, read-only text span over one or more pages.
// It is recomputed on every interaction and never persisted.
type Selection struct {
	Pages []PageSelection
	Runs  []TextRun
}

func (s *Selection) IsEmpty() bool { return s == nil || len(s.Pages) == 0 }

// Text joins the selection's line texts with newlines, pages in order.
// This is what the clipboard copy surface exports.
func (s *Selection) Text() string {
	if s == nil {
		return ""
	}
	var lines []string
	for _, ps := range s.Pages {
		for _, ln := range ps.Lines {
			lines = append(lines, ln.Text)
		}
	}
	return strings.Join(lines, "\n")
}
