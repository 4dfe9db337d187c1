package ocr

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// HOCRWord is one recognized word from an hOCR document. Coordinates are
// pixels with a top-left origin, as emitted by the backend. Confidence is
// the backend's 0-100 score, or -1 when the document carries none.
type HOCRWord struct {
	Text       string
	Confidence float64
	X0, Y0     float64
	X1, Y1     float64
}

// ParseHOCR extracts the word spans from an hOCR document. Spans without
// a usable bounding box or without text are dropped.
func ParseHOCR(src string) ([]HOCRWord, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse hocr: %w", err)
	}

	var words []HOCRWord
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocrx_word") {
			if w, ok := wordFrom(n); ok {
				words = append(words, w)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return words, nil
}

func wordFrom(n *html.Node) (HOCRWord, bool) {
	w := HOCRWord{Confidence: -1}

	boxed := false
	for _, part := range strings.Split(attr(n, "title"), ";") {
		f := strings.Fields(part)
		if len(f) == 0 {
			continue
		}
		switch f[0] {
		case "bbox":
			if len(f) < 5 {
				return w, false
			}
			vals := make([]float64, 4)
			for i := 0; i < 4; i++ {
				v, err := strconv.ParseFloat(f[i+1], 64)
				if err != nil {
					return w, false
				}
				vals[i] = v
			}
			w.X0, w.Y0, w.X1, w.Y1 = vals[0], vals[1], vals[2], vals[3]
			boxed = true
		case "x_wconf":
			if len(f) >= 2 {
				if v, err := strconv.ParseFloat(f[1], 64); err == nil {
					w.Confidence = v
				}
			}
		}
	}
	if !boxed || w.X1 <= w.X0 || w.Y1 <= w.Y0 {
		return w, false
	}

	w.Text = strings.TrimSpace(nodeText(n))
	if w.Text == "" {
		return w, false
	}
	return w, true
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}
