package render

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
	"github.com/dgallion1/articlepipe/internal/outline"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var headingAtoms = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

// BlockRenderer renders block documents to HTML. All text goes through
// x/net/html escaping; unsafe link and image URLs are dropped.
type BlockRenderer struct{}

func (r *BlockRenderer) Render(blocks []blockdoc.Block) (string, error) {
	root := element(atom.Div)
	r.appendBlocks(root, blocks, 0)

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// appendBlocks renders blocks under parent, grouping runs of list items of
// the same type into one list element. Headings below the top level are
// marked so reconciliation never gives them an outline id.
func (r *BlockRenderer) appendBlocks(parent *html.Node, blocks []blockdoc.Block, depth int) {
	for i := 0; i < len(blocks); {
		b := blocks[i]
		if list, ok := listAtom(b.Type); ok {
			ln := element(list)
			if b.Type == blockdoc.TypeCheckListItem {
				ln.Attr = append(ln.Attr, attr("class", "checklist"))
			}
			j := i
			for ; j < len(blocks) && blocks[j].Type == b.Type; j++ {
				ln.AppendChild(r.listItem(blocks[j], depth))
			}
			parent.AppendChild(ln)
			i = j
			continue
		}

		if n := r.block(b); n != nil {
			if depth > 0 && b.Type == blockdoc.TypeHeading {
				n.Attr = append(n.Attr, attr(outline.NestedHeadingAttr, ""))
			}
			parent.AppendChild(n)
		}
		if len(b.Children) > 0 {
			nested := element(atom.Div, attr("class", "block-children"))
			r.appendBlocks(nested, b.Children, depth+1)
			parent.AppendChild(nested)
		}
		i++
	}
}

func (r *BlockRenderer) listItem(b blockdoc.Block, depth int) *html.Node {
	li := element(atom.Li)
	if b.Type == blockdoc.TypeCheckListItem {
		box := element(atom.Input, attr("type", "checkbox"), attr("disabled", ""))
		if checked, _ := b.Props["checked"].(bool); checked {
			box.Attr = append(box.Attr, attr("checked", ""))
		}
		li.AppendChild(box)
		li.AppendChild(textNode(" "))
	}
	appendContent(li, b.Content)
	if len(b.Children) > 0 {
		r.appendBlocks(li, b.Children, depth+1)
	}
	return li
}

func (r *BlockRenderer) block(b blockdoc.Block) *html.Node {
	switch b.Type {
	case blockdoc.TypeHeading:
		h := element(headingAtoms[b.HeadingLevel()-1])
		appendContent(h, b.Content)
		return h

	case blockdoc.TypeCodeBlock:
		code := element(atom.Code)
		if lang := b.Prop("language"); lang != "" {
			code.Attr = append(code.Attr, attr("class", "language-"+lang))
		}
		code.AppendChild(textNode(b.Text()))
		pre := element(atom.Pre)
		pre.AppendChild(code)
		return pre

	case blockdoc.TypeImage:
		src, ok := safeURL(b.Prop("url"))
		if !ok {
			return nil
		}
		fig := element(atom.Figure)
		fig.AppendChild(element(atom.Img,
			attr("src", src),
			attr("alt", firstNonEmpty(b.Prop("caption"), b.Prop("name"))),
			attr("loading", "lazy"),
		))
		if caption := b.Prop("caption"); caption != "" {
			fc := element(atom.Figcaption)
			fc.AppendChild(textNode(caption))
			fig.AppendChild(fc)
		}
		return fig

	case blockdoc.TypeQuote:
		q := element(atom.Blockquote)
		appendContent(q, b.Content)
		return q

	case blockdoc.TypeTable:
		return tableNode(b.Content)

	default:
		if strings.TrimSpace(b.Text()) == "" {
			return nil
		}
		p := element(atom.P)
		appendContent(p, b.Content)
		return p
	}
}

// tableContent is the object content of a table block. Cells are either
// span arrays or {"content": [...]} objects.
type tableContent struct {
	Rows []struct {
		Cells []json.RawMessage `json:"cells"`
	} `json:"rows"`
}

func tableNode(c blockdoc.Content) *html.Node {
	if c.Kind != blockdoc.ContentObject {
		return nil
	}
	var tc tableContent
	if err := json.Unmarshal(c.Object, &tc); err != nil || len(tc.Rows) == 0 {
		return nil
	}
	table := element(atom.Table)
	tbody := element(atom.Tbody)
	table.AppendChild(tbody)
	for _, row := range tc.Rows {
		tr := element(atom.Tr)
		for _, cell := range row.Cells {
			td := element(atom.Td)
			appendInline(td, cellSpans(cell))
			tr.AppendChild(td)
		}
		tbody.AppendChild(tr)
	}
	return table
}

func cellSpans(raw json.RawMessage) []blockdoc.Inline {
	var spans []blockdoc.Inline
	if err := json.Unmarshal(raw, &spans); err == nil {
		return spans
	}
	var obj struct {
		Content []blockdoc.Inline `json:"content"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Content
	}
	return nil
}

// styleAtoms is the fixed nesting order of inline styles, outermost first.
var styleAtoms = []struct {
	key  string
	atom atom.Atom
}{
	{"bold", atom.Strong},
	{"italic", atom.Em},
	{"underline", atom.U},
	{"strike", atom.S},
	{"code", atom.Code},
}

func appendContent(parent *html.Node, c blockdoc.Content) {
	switch c.Kind {
	case blockdoc.ContentInline:
		appendInline(parent, c.Inline)
	case blockdoc.ContentRaw:
		parent.AppendChild(textNode(c.Raw))
	}
}

func appendInline(parent *html.Node, spans []blockdoc.Inline) {
	for _, s := range spans {
		if s.Type == blockdoc.InlineLink {
			href, ok := safeURL(s.Href)
			if !ok {
				appendInline(parent, s.Content)
				continue
			}
			a := element(atom.A, attr("href", href))
			if isExternal(href) {
				a.Attr = append(a.Attr, attr("rel", "noopener noreferrer"), attr("target", "_blank"))
			}
			appendInline(a, s.Content)
			parent.AppendChild(a)
			continue
		}
		if s.Text == "" {
			continue
		}
		outer, inner := parent, parent
		for _, st := range styleAtoms {
			if on, _ := s.Styles[st.key].(bool); on {
				n := element(st.atom)
				if inner == parent {
					outer = n
				} else {
					inner.AppendChild(n)
				}
				inner = n
			}
		}
		inner.AppendChild(textNode(s.Text))
		if outer != parent {
			parent.AppendChild(outer)
		}
	}
}

func listAtom(typ string) (atom.Atom, bool) {
	switch typ {
	case blockdoc.TypeBulletListItem, blockdoc.TypeCheckListItem:
		return atom.Ul, true
	case blockdoc.TypeNumberedListItem:
		return atom.Ol, true
	}
	return 0, false
}

func safeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return raw, true
	}
	return "", false
}

func isExternal(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://")
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
