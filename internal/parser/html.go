package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser converts HTML documents into blocks.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	res := &Result{
		Title:   findTitle(doc),
		Summary: findMeta(doc, "description"),
		Author:  findMeta(doc, "author"),
	}

	root := findBody(doc)
	if root == nil {
		root = doc
	}
	if main := findFirst(root, atom.Article, atom.Main); main != nil {
		root = main
	}
	res.Blocks = htmlBlocks(root)

	res.takeLeadingTitle()
	res.finish(filename)
	return res, nil
}

func htmlBlocks(n *html.Node) []blockdoc.Block {
	var out []blockdoc.Block
	var loose []blockdoc.Inline
	flush := func() {
		if spans := trimSpans(loose); len(spans) > 0 {
			out = append(out, paragraph(spans...))
		}
		loose = nil
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode || (c.Type == html.ElementNode && isInlineElement(c.DataAtom)) {
			loose = appendInlineNode(loose, c, nil)
			continue
		}
		if c.Type != html.ElementNode {
			continue
		}
		flush()
		out = append(out, htmlBlock(c)...)
	}
	flush()
	return out
}

func htmlBlock(n *html.Node) []blockdoc.Block {
	if level := headingLevel(n.DataAtom); level > 0 {
		spans := trimSpans(htmlInline(n, nil))
		if len(spans) == 0 {
			return nil
		}
		return []blockdoc.Block{heading(level, spans...)}
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Nav, atom.Footer, atom.Header, atom.Noscript, atom.Template, atom.Form:
		return nil
	case atom.P:
		if img := soleElement(n, atom.Img); img != nil {
			return imageBlock(img)
		}
		spans := trimSpans(htmlInline(n, nil))
		if len(spans) == 0 {
			return nil
		}
		return []blockdoc.Block{paragraph(spans...)}
	case atom.Ul, atom.Ol:
		return htmlList(n)
	case atom.Pre:
		b := blockdoc.Block{
			Type:    blockdoc.TypeCodeBlock,
			Content: blockdoc.RawContent(strings.TrimRight(textContent(n), "\n")),
		}
		if code := findFirst(n, atom.Code); code != nil {
			if lang := languageClass(attrVal(code, "class")); lang != "" {
				b.Props = map[string]any{"language": lang}
			}
		}
		return []blockdoc.Block{b}
	case atom.Blockquote:
		spans := trimSpans(htmlInline(n, nil))
		if len(spans) == 0 {
			return nil
		}
		return []blockdoc.Block{{Type: blockdoc.TypeQuote, Content: blockdoc.InlineContent(spans...)}}
	case atom.Img:
		return imageBlock(n)
	case atom.Figure:
		if img := findFirst(n, atom.Img); img != nil {
			blocks := imageBlock(img)
			if fc := findFirst(n, atom.Figcaption); fc != nil && len(blocks) == 1 {
				if t := strings.TrimSpace(textContent(fc)); t != "" {
					blocks[0].Props["caption"] = t
				}
			}
			return blocks
		}
	case atom.Table:
		return []blockdoc.Block{htmlTable(n)}
	case atom.Hr, atom.Br:
		return nil
	}
	return htmlBlocks(n)
}

func htmlList(n *html.Node) []blockdoc.Block {
	typ := blockdoc.TypeBulletListItem
	if n.DataAtom == atom.Ol {
		typ = blockdoc.TypeNumberedListItem
	}
	var out []blockdoc.Block
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		b := blockdoc.Block{Type: typ}
		var spans []blockdoc.Inline
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.ElementNode && (c.DataAtom == atom.Ul || c.DataAtom == atom.Ol):
				b.Children = append(b.Children, htmlList(c)...)
			case c.Type == html.ElementNode && c.DataAtom == atom.Input && attrVal(c, "type") == "checkbox":
				b.Type = blockdoc.TypeCheckListItem
				_, checked := attr(c, "checked")
				b.Props = map[string]any{"checked": checked}
			default:
				spans = appendInlineNode(spans, c, nil)
			}
		}
		b.Content = blockdoc.InlineContent(trimSpans(spans)...)
		out = append(out, b)
	}
	return out
}

func htmlTable(n *html.Node) blockdoc.Block {
	var rows [][][]blockdoc.Inline
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var cells [][]blockdoc.Inline
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					spans := trimSpans(htmlInline(c, nil))
					if spans == nil {
						spans = []blockdoc.Inline{}
					}
					cells = append(cells, spans)
				}
			}
			rows = append(rows, cells)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return tableBlock(rows)
}

var htmlStyles = map[atom.Atom]string{
	atom.Strong: "bold",
	atom.B:      "bold",
	atom.Em:     "italic",
	atom.I:      "italic",
	atom.U:      "underline",
	atom.S:      "strike",
	atom.Del:    "strike",
	atom.Strike: "strike",
	atom.Code:   "code",
}

func htmlInline(n *html.Node, styles map[string]any) []blockdoc.Inline {
	var spans []blockdoc.Inline
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		spans = appendInlineNode(spans, c, styles)
	}
	return spans
}

// appendInlineNode converts one inline node (and its descendants) to spans.
func appendInlineNode(spans []blockdoc.Inline, c *html.Node, styles map[string]any) []blockdoc.Inline {
	switch c.Type {
	case html.TextNode:
		return appendSpan(spans, blockdoc.Inline{Type: blockdoc.InlineText, Text: collapseSpace(c.Data), Styles: styles})
	case html.ElementNode:
	default:
		return spans
	}

	switch c.DataAtom {
	case atom.Script, atom.Style:
		return spans
	case atom.Br:
		return appendSpan(spans, blockdoc.Inline{Type: blockdoc.InlineText, Text: "\n", Styles: styles})
	case atom.A:
		if href := attrVal(c, "href"); href != "" {
			return append(spans, blockdoc.Inline{
				Type:    blockdoc.InlineLink,
				Href:    href,
				Content: htmlInline(c, styles),
			})
		}
	}

	inner := styles
	if key, ok := htmlStyles[c.DataAtom]; ok {
		inner = withStyle(styles, key)
	}
	for _, s := range htmlInline(c, inner) {
		spans = appendSpan(spans, s)
	}
	return spans
}

func imageBlock(img *html.Node) []blockdoc.Block {
	src := attrVal(img, "src")
	if src == "" {
		return nil
	}
	props := map[string]any{"url": src}
	if alt := strings.TrimSpace(attrVal(img, "alt")); alt != "" {
		props["caption"] = alt
	}
	return []blockdoc.Block{{Type: blockdoc.TypeImage, Props: props}}
}

func isInlineElement(a atom.Atom) bool {
	switch a {
	case atom.A, atom.Span, atom.Strong, atom.B, atom.Em, atom.I, atom.U, atom.S,
		atom.Del, atom.Strike, atom.Code, atom.Small, atom.Sub, atom.Sup, atom.Mark, atom.Abbr:
		return true
	}
	return false
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func languageClass(class string) string {
	for _, c := range strings.Fields(class) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok {
			return lang
		}
		if lang, ok := strings.CutPrefix(c, "lang-"); ok {
			return lang
		}
	}
	return ""
}

// collapseSpace folds whitespace runs to one space, as browsers do.
func collapseSpace(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == '\f' {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrVal(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

func findTitle(n *html.Node) string {
	if t := findFirst(n, atom.Title); t != nil {
		return strings.TrimSpace(textContent(t))
	}
	return ""
}

func findMeta(n *html.Node, name string) string {
	var found string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta && strings.EqualFold(attrVal(n, "name"), name) {
			found = strings.TrimSpace(attrVal(n, "content"))
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(n)
	return found
}

func findBody(n *html.Node) *html.Node {
	return findFirst(n, atom.Body)
}

// findFirst returns the first element in document order matching any of atoms.
func findFirst(n *html.Node, atoms ...atom.Atom) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range atoms {
			if n.DataAtom == a {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findFirst(c, atoms...); f != nil {
			return f
		}
	}
	return nil
}

// soleElement returns n's only non-whitespace child if that child is an
// element of type a.
func soleElement(n *html.Node, a atom.Atom) *html.Node {
	var only *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if only != nil {
			return nil
		}
		only = c
	}
	if only != nil && only.Type == html.ElementNode && only.DataAtom == a {
		return only
	}
	return nil
}
