package layout

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// FlattenMarkdown reduces a Markdown clipboard payload to plain text: one
// line per block, bullets marked, all inline styling dropped. The paste
// surface feeds the result straight into a FreeText annotation.
func FlattenMarkdown(source string) string {
	md := goldmark.New()
	src := []byte(source)
	doc := md.Parser().Parse(gmtext.NewReader(src))

	var lines []string
	flattenMarkdownNode(doc, src, &lines)
	return Normalize(strings.Join(lines, "\n"))
}

func flattenMarkdownNode(node ast.Node, source []byte, out *[]string) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			*out = append(*out, string(n.Text(source)))
		case *ast.Paragraph:
			*out = append(*out, flattenInline(n, source))
		case *ast.List:
			flattenMarkdownNode(n, source, out)
		case *ast.ListItem:
			var itemLines []string
			flattenMarkdownNode(n, source, &itemLines)
			if text := flattenInline(n, source); len(itemLines) == 0 && text != "" {
				itemLines = []string{text}
			}
			for i, l := range itemLines {
				if i == 0 {
					l = "• " + l
				}
				*out = append(*out, l)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			seg := child.Lines()
			for i := 0; i < seg.Len(); i++ {
				line := string(seg.At(i).Value(source))
				*out = append(*out, strings.TrimRight(line, "\n"))
			}
		case *ast.Blockquote:
			flattenMarkdownNode(n, source, out)
		case *ast.TextBlock:
			*out = append(*out, flattenInline(n, source))
		default:
			if child.Type() == ast.TypeBlock {
				flattenMarkdownNode(child, source, out)
			}
		}
	}
}

// flattenInline concatenates the text segments under a block node, folding
// soft and hard breaks into spaces.
func flattenInline(node ast.Node, source []byte) string {
	var sb strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
			continue
		}
		sb.WriteString(string(child.Text(source)))
	}
	return strings.TrimSpace(sb.String())
}

// FlattenHTML reduces an HTML clipboard payload to plain text lines. Block
// elements become lines; inline markup is dropped; script and style
// subtrees are ignored.
func FlattenHTML(source string) (string, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return "", err
	}
	var lines []string
	flattenHTMLNode(doc, &lines)
	if len(lines) == 0 {
		if text := htmlText(doc); text != "" {
			lines = append(lines, text)
		}
	}
	return Normalize(strings.Join(lines, "\n")), nil
}

func flattenHTMLNode(n *html.Node, out *[]string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.P, atom.Td, atom.Th:
			if text := htmlText(n); text != "" {
				*out = append(*out, text)
			}
			return
		case atom.Li:
			if text := htmlText(n); text != "" {
				*out = append(*out, "• "+text)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flattenHTMLNode(c, out)
	}
}

func htmlText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Normalize brings pasted text into the form the annotation model stores:
// NFC, LF line endings, no-break spaces folded to plain spaces, and control
// characters other than newline and tab removed.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, " ", " ")
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || r >= 0x20 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
