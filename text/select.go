package text

import (
	"strings"

	"overtype/document"
)

// WordSelection builds a one-word selection at (x, y), or nil when no word
// is there. It backs the double-click-on-word editing flow.
func (pt *PageText) WordSelection(x, y float64) *document.Selection {
	w, ok := pt.WordAt(x, y)
	if !ok {
		return nil
	}
	return &document.Selection{
		Pages: []document.PageSelection{{
			Page:   pt.Page,
			Bounds: w.Bounds,
			Lines:  []document.LineSelection{{Text: w.Text, Bounds: w.Bounds}},
		}},
		Runs: []document.TextRun{{Text: w.Text, Font: w.Font, Size: w.Size}},
	}
}

// RangeSelection builds a selection of every word intersecting r, grouped
// into line sub-selections. Returns nil when nothing intersects.
func (pt *PageText) RangeSelection(r document.Rect) *document.Selection {
	if r.IsDegenerate() {
		return nil
	}

	ps := document.PageSelection{Page: pt.Page}
	var runs []document.TextRun
	first := true

	for _, line := range pt.lines {
		if !line.Bounds.Intersects(r) {
			continue
		}
		var ls document.LineSelection
		var lineRuns []document.TextRun
		lineFirst := true
		for _, w := range line.Words {
			if !w.Bounds.Intersects(r) {
				continue
			}
			if lineFirst {
				ls.Text = w.Text
				ls.Bounds = w.Bounds
				lineFirst = false
			} else {
				ls.Text += " " + w.Text
				ls.Bounds = ls.Bounds.Union(w.Bounds)
			}
			lineRuns = appendRun(lineRuns, w)
		}
		if lineFirst {
			continue
		}
		ps.Lines = append(ps.Lines, ls)
		runs = append(runs, lineRuns...)
		if first {
			ps.Bounds = ls.Bounds
			first = false
		} else {
			ps.Bounds = ps.Bounds.Union(ls.Bounds)
		}
	}

	if len(ps.Lines) == 0 {
		return nil
	}
	return &document.Selection{Pages: []document.PageSelection{ps}, Runs: runs}
}

// appendRun extends the last run when the word shares its font and size,
// else starts a new one. Run length drives dominant-font inference, so the
// joining space counts toward the run it extends.
func appendRun(runs []document.TextRun, w Word) []document.TextRun {
	if n := len(runs); n > 0 && runs[n-1].Font == w.Font && runs[n-1].Size == w.Size {
		runs[n-1].Text += " " + w.Text
		return runs
	}
	return append(runs, document.TextRun{Text: w.Text, Font: w.Font, Size: w.Size})
}

// FindPhrase returns the bounds of each occurrence of the space-separated
// phrase, matching whole words within a single line. Occurrences do not
// overlap; matching is exact.
func (pt *PageText) FindPhrase(phrase string) []document.Rect {
	needle := strings.Fields(phrase)
	if len(needle) == 0 {
		return nil
	}
	var out []document.Rect
	for _, line := range pt.lines {
		words := line.Words
		for i := 0; i+len(needle) <= len(words); {
			if !phraseAt(words, i, needle) {
				i++
				continue
			}
			r := words[i].Bounds
			for k := 1; k < len(needle); k++ {
				r = r.Union(words[i+k].Bounds)
			}
			out = append(out, r)
			i += len(needle)
		}
	}
	return out
}

func phraseAt(words []Word, i int, needle []string) bool {
	for k, n := range needle {
		if words[i+k].Text != n {
			return false
		}
	}
	return true
}

// Merge concatenates selections into one multi-page selection, in argument
// order. Nil and empty selections are skipped; nil is returned when
// nothing remains.
func Merge(sels ...*document.Selection) *document.Selection {
	out := &document.Selection{}
	for _, s := range sels {
		if s.IsEmpty() {
			continue
		}
		out.Pages = append(out.Pages, s.Pages...)
		out.Runs = append(out.Runs, s.Runs...)
	}
	if len(out.Pages) == 0 {
		return nil
	}
	return out
}
