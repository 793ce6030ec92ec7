package outline

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ReconcileResult is rendered HTML with heading ids attached.
type ReconcileResult struct {
	HTML      string
	Matched   int
	Unmatched []Heading // entries no rendered heading claimed, in outline order
}

// NestedHeadingAttr marks a rendered heading that is not part of the
// outline, such as a heading block inside another block's children.
const NestedHeadingAttr = "data-nested"

// Reconcile attaches the computed heading IDs to the h1-h6 elements of an
// HTML fragment. Headings are matched by exact trimmed text; each entry is
// claimed at most once, by the first rendered heading (in document order)
// with that text. Headings carrying NestedHeadingAttr are left alone.
func Reconcile(fragment string, headings []Heading) (ReconcileResult, error) {
	pending := make(map[string][]int, len(headings))
	for i, h := range headings {
		key := strings.TrimSpace(h.Text)
		pending[key] = append(pending[key], i)
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("parse rendered html: %w", err)
	}

	claimed := make([]bool, len(headings))
	matched := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && headingLevel(n.DataAtom) > 0 {
			if _, nested := attrValue(n, NestedHeadingAttr); nested {
				return
			}
			text := strings.TrimSpace(textContent(n))
			if queue := pending[text]; len(queue) > 0 {
				idx := queue[0]
				pending[text] = queue[1:]
				setAttr(n, "id", headings[idx].ID)
				claimed[idx] = true
				matched++
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return ReconcileResult{}, fmt.Errorf("render html: %w", err)
		}
	}

	res := ReconcileResult{HTML: buf.String(), Matched: matched}
	for i, ok := range claimed {
		if !ok {
			res.Unmatched = append(res.Unmatched, headings[i])
		}
	}
	return res, nil
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

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
