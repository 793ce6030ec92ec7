package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser converts markdown (with optional YAML front matter) into
// blocks using goldmark's AST.
type MarkdownParser struct{}

var markdownImport = goldmark.New(goldmark.WithExtensions(extension.GFM))

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	fm, src, err := ParseFrontMatter(raw)
	if err != nil && !errors.Is(err, errNoFrontMatter) {
		return nil, fmt.Errorf("front matter: %w", err)
	}

	doc := markdownImport.Parser().Parse(text.NewReader(src))
	c := &mdConverter{src: src}

	res := &Result{
		Title:       fm.Title,
		Slug:        fm.Slug,
		Summary:     strings.TrimSpace(fm.Summary),
		Category:    fm.Category,
		Tags:        fm.Tags,
		CoverURL:    fm.Cover,
		Author:      fm.Author,
		Draft:       fm.Draft,
		PublishedAt: ParseTime(fm.Date),
		Blocks:      c.blocks(doc),
	}
	if res.Summary == "" {
		res.Summary = strings.TrimSpace(fm.Description)
	}
	res.takeLeadingTitle()
	res.finish(filename)
	return res, nil
}

type mdConverter struct {
	src []byte
}

// blocks converts the block-level children of n.
func (c *mdConverter) blocks(n ast.Node) []blockdoc.Block {
	var out []blockdoc.Block
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.block(child)...)
	}
	return out
}

func (c *mdConverter) block(n ast.Node) []blockdoc.Block {
	switch node := n.(type) {
	case *ast.Heading:
		spans := trimSpans(c.inline(node, nil))
		if len(spans) == 0 {
			return nil
		}
		return []blockdoc.Block{heading(node.Level, spans...)}

	case *ast.Paragraph, *ast.TextBlock:
		if img, ok := soleImage(n); ok {
			return []blockdoc.Block{c.image(img)}
		}
		spans := trimSpans(c.inline(n, nil))
		if len(spans) == 0 {
			return nil
		}
		return []blockdoc.Block{paragraph(spans...)}

	case *ast.FencedCodeBlock:
		b := blockdoc.Block{Type: blockdoc.TypeCodeBlock, Content: blockdoc.RawContent(c.lines(node))}
		if lang := string(node.Language(c.src)); lang != "" {
			b.Props = map[string]any{"language": lang}
		}
		return []blockdoc.Block{b}

	case *ast.CodeBlock:
		return []blockdoc.Block{{Type: blockdoc.TypeCodeBlock, Content: blockdoc.RawContent(c.lines(node))}}

	case *ast.Blockquote:
		var spans []blockdoc.Inline
		for p := node.FirstChild(); p != nil; p = p.NextSibling() {
			if len(spans) > 0 {
				spans = appendSpan(spans, textSpan("\n"))
			}
			for _, s := range c.inline(p, nil) {
				spans = appendSpan(spans, s)
			}
		}
		spans = trimSpans(spans)
		if len(spans) == 0 {
			return nil
		}
		return []blockdoc.Block{{Type: blockdoc.TypeQuote, Content: blockdoc.InlineContent(spans...)}}

	case *ast.List:
		return c.list(node)

	case *east.Table:
		return []blockdoc.Block{c.table(node)}

	case *ast.ThematicBreak, *ast.HTMLBlock:
		return nil
	}
	return c.blocks(n)
}

func (c *mdConverter) list(l *ast.List) []blockdoc.Block {
	typ := blockdoc.TypeBulletListItem
	if l.IsOrdered() {
		typ = blockdoc.TypeNumberedListItem
	}
	var out []blockdoc.Block
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		b := blockdoc.Block{Type: typ}
		first := true
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			_, isText := child.(*ast.TextBlock)
			_, isPara := child.(*ast.Paragraph)
			if first && (isText || isPara) {
				first = false
				if box, ok := child.FirstChild().(*east.TaskCheckBox); ok {
					b.Type = blockdoc.TypeCheckListItem
					b.Props = map[string]any{"checked": box.IsChecked}
				}
				b.Content = blockdoc.InlineContent(trimSpans(c.inline(child, nil))...)
				continue
			}
			first = false
			b.Children = append(b.Children, c.block(child)...)
		}
		if b.Content.IsZero() {
			b.Content = blockdoc.InlineContent()
		}
		out = append(out, b)
	}
	return out
}

func (c *mdConverter) table(t *east.Table) blockdoc.Block {
	var rows [][][]blockdoc.Inline
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var cells [][]blockdoc.Inline
		for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
			spans := trimSpans(c.inline(cell, nil))
			if spans == nil {
				spans = []blockdoc.Inline{}
			}
			cells = append(cells, spans)
		}
		rows = append(rows, cells)
	}
	return tableBlock(rows)
}

func (c *mdConverter) image(img *ast.Image) blockdoc.Block {
	props := map[string]any{"url": string(img.Destination)}
	if alt := strings.TrimSpace(c.plain(img)); alt != "" {
		props["caption"] = alt
	}
	return blockdoc.Block{Type: blockdoc.TypeImage, Props: props}
}

// inline converts the inline children of n, applying styles.
func (c *mdConverter) inline(n ast.Node, styles map[string]any) []blockdoc.Inline {
	var spans []blockdoc.Inline
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Text:
			s := string(node.Segment.Value(c.src))
			switch {
			case node.HardLineBreak():
				s += "\n"
			case node.SoftLineBreak():
				s += " "
			}
			spans = appendSpan(spans, blockdoc.Inline{Type: blockdoc.InlineText, Text: s, Styles: styles})
		case *ast.String:
			spans = appendSpan(spans, blockdoc.Inline{Type: blockdoc.InlineText, Text: string(node.Value), Styles: styles})
		case *ast.Emphasis:
			key := "italic"
			if node.Level >= 2 {
				key = "bold"
			}
			for _, s := range c.inline(node, withStyle(styles, key)) {
				spans = appendSpan(spans, s)
			}
		case *east.Strikethrough:
			for _, s := range c.inline(node, withStyle(styles, "strike")) {
				spans = appendSpan(spans, s)
			}
		case *ast.CodeSpan:
			spans = appendSpan(spans, blockdoc.Inline{Type: blockdoc.InlineText, Text: c.plain(node), Styles: withStyle(styles, "code")})
		case *ast.Link:
			spans = append(spans, blockdoc.Inline{
				Type:    blockdoc.InlineLink,
				Href:    string(node.Destination),
				Content: c.inline(node, styles),
			})
		case *ast.AutoLink:
			spans = append(spans, blockdoc.Inline{
				Type:    blockdoc.InlineLink,
				Href:    string(node.URL(c.src)),
				Content: []blockdoc.Inline{{Type: blockdoc.InlineText, Text: string(node.Label(c.src)), Styles: styles}},
			})
		case *ast.Image:
			spans = appendSpan(spans, blockdoc.Inline{Type: blockdoc.InlineText, Text: c.plain(node), Styles: styles})
		case *ast.RawHTML, *east.TaskCheckBox:
		default:
			for _, s := range c.inline(node, styles) {
				spans = appendSpan(spans, s)
			}
		}
	}
	return spans
}

// plain is the concatenated text of n's inline descendants.
func (c *mdConverter) plain(n ast.Node) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(c.src))
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func (c *mdConverter) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(c.src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func soleImage(n ast.Node) (*ast.Image, bool) {
	if n.ChildCount() != 1 {
		return nil, false
	}
	img, ok := n.FirstChild().(*ast.Image)
	return img, ok
}
