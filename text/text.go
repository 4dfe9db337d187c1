// Package text turns per-character fragments from the PDF toolkit into the
// line and word geometry the selection pipeline consumes. Characters group
// into words by advance-gap thresholds derived from the font size, and
// words group into lines by baseline proximity.
package text

import (
	"math"
	"sort"
	"strings"

	"overtype/document"
)

// Fragment is one positioned piece of page text, usually a single
// character. X and Y name the lower-left corner of its box; W is the
// advance width. The box height is the font size.
type Fragment struct {
	Text     string
	X, Y     float64
	W        float64
	FontSize float64
	Font     string
}

func (f Fragment) bounds() document.Rect {
	return document.Rect{LLX: f.X, LLY: f.Y, URX: f.X + f.W, URY: f.Y + f.FontSize}
}

// Word is a run of characters with no inter-character gap wider than the
// char-space threshold.
type Word struct {
	Text   string
	Bounds document.Rect
	Font   string
	Size   float64
}

// Line is one segment of words sharing a baseline, left to right. Gaps
// wider than the word-space threshold split a baseline into separate
// segments, so table cells select and cover independently.
type Line struct {
	Words  []Word
	Bounds document.Rect
}

// Text joins the line's words with single spaces.
func (l Line) Text() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// PageText is the grouped text geometry of one page.
type PageText struct {
	Page  int
	lines []Line
}

// Fragments closer than size/6 along the baseline join into one word; a
// gap wider than size*2/3 starts a new segment. Baselines within one point
// of each other snap together.
const (
	charSpaceFactor = 1.0 / 6
	wordSpaceFactor = 2.0 / 3
	baselineNudge   = 1.0
)

// BuildPage groups fragments into lines and words. Fragments with
// degenerate boxes are dropped.
func BuildPage(page int, frags []Fragment) *PageText {
	pt := &PageText{Page: page}

	kept := make([]Fragment, 0, len(frags))
	for _, f := range frags {
		if f.Text == "" || f.bounds().IsDegenerate() {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return pt
	}

	// Top-to-bottom, then left-to-right.
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Y != kept[j].Y {
			return kept[i].Y > kept[j].Y
		}
		return kept[i].X < kept[j].X
	})

	// Snap near-identical baselines together so one visual line does not
	// split over sub-point jitter.
	old := math.Inf(-1)
	for i := range kept {
		if kept[i].Y != old && math.Abs(old-kept[i].Y) < baselineNudge {
			kept[i].Y = old
		} else {
			old = kept[i].Y
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Y != kept[j].Y {
			return kept[i].Y > kept[j].Y
		}
		return kept[i].X < kept[j].X
	})

	for i := 0; i < len(kept); {
		j := i + 1
		for j < len(kept) && kept[j].Y == kept[i].Y {
			j++
		}
		pt.lines = append(pt.lines, buildLines(kept[i:j])...)
		i = j
	}
	return pt
}

func buildLines(frags []Fragment) []Line {
	var lines []Line
	var line Line
	prevEnd := 0.0
	for k := 0; k < len(frags); {
		first := frags[k]
		word := Word{
			Text:   first.Text,
			Bounds: first.bounds(),
			Font:   CleanFontName(first.Font),
			Size:   first.FontSize,
		}
		end := first.X + first.W
		charSpace := first.FontSize * charSpaceFactor

		l := k + 1
		for l < len(frags) {
			next := frags[l]
			if !sameFont(next.Font, first.Font) || math.Abs(next.FontSize-first.FontSize) >= 0.1 {
				break
			}
			if next.X > end+charSpace {
				break
			}
			word.Text += next.Text
			word.Bounds = word.Bounds.Union(next.bounds())
			end = next.X + next.W
			l++
		}

		if len(line.Words) > 0 && first.X > prevEnd+first.FontSize*wordSpaceFactor {
			lines = append(lines, line)
			line = Line{}
		}
		line.Words = append(line.Words, word)
		if len(line.Words) == 1 {
			line.Bounds = word.Bounds
		} else {
			line.Bounds = line.Bounds.Union(word.Bounds)
		}
		prevEnd = end
		k = l
	}
	if len(line.Words) > 0 {
		lines = append(lines, line)
	}
	return lines
}

// Lines returns the page's lines, top to bottom.
func (pt *PageText) Lines() []Line { return pt.lines }

// WordAt returns the word whose box contains (x, y).
func (pt *PageText) WordAt(x, y float64) (Word, bool) {
	for _, line := range pt.lines {
		if !line.Bounds.Contains(x, y) {
			continue
		}
		for _, w := range line.Words {
			if w.Bounds.Contains(x, y) {
				return w, true
			}
		}
	}
	return Word{}, false
}

// CleanFontName strips the subset tag from an embedded font name, so
// "ABCDEF+Helvetica-Bold" reads as "Helvetica-Bold".
func CleanFontName(name string) string {
	if i := strings.IndexByte(name, '+'); i == 6 {
		return name[i+1:]
	}
	return name
}

// sameFont compares font identity loosely: subset tags and italic style
// suffixes do not split a word.
func sameFont(f1, f2 string) bool {
	clean := func(s string) string {
		s = CleanFontName(s)
		s = strings.TrimSuffix(s, ",Italic")
		s = strings.TrimSuffix(s, "-Italic")
		return s
	}
	return clean(f1) == clean(f2)
}
