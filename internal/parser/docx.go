package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
)

// DOCXParser converts .docx paragraphs into blocks by paragraph style. A
// "Title" styled paragraph becomes the article title.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Result, error) {
	f, err := spool(r, "articlepipe-docx-*.docx")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := docx.Parse(f, f.Size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	res := &Result{}
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		spans := trimSpans(docxSpans(para))
		if len(spans) == 0 {
			continue
		}

		kind, level := classifyDocxStyle(docxStyle(para))
		switch kind {
		case docxTitle:
			if res.Title == "" {
				res.Title = blockdoc.FlattenInline(spans)
			}
		case docxHeading:
			res.Blocks = append(res.Blocks, heading(level, spans...))
		case docxBullet:
			res.Blocks = append(res.Blocks, blockdoc.Block{Type: blockdoc.TypeBulletListItem, Content: blockdoc.InlineContent(spans...)})
		case docxNumbered:
			res.Blocks = append(res.Blocks, blockdoc.Block{Type: blockdoc.TypeNumberedListItem, Content: blockdoc.InlineContent(spans...)})
		case docxQuote:
			res.Blocks = append(res.Blocks, blockdoc.Block{Type: blockdoc.TypeQuote, Content: blockdoc.InlineContent(spans...)})
		default:
			res.Blocks = append(res.Blocks, paragraph(spans...))
		}
	}

	res.takeLeadingTitle()
	res.finish(filename)
	return res, nil
}

type docxKind int

const (
	docxBody docxKind = iota
	docxTitle
	docxHeading
	docxBullet
	docxNumbered
	docxQuote
)

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// classifyDocxStyle maps a style id or name ("Heading2", "heading 2",
// "List Bullet") to a block kind and, for headings, the level.
func classifyDocxStyle(style string) (docxKind, int) {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	switch {
	case s == "title":
		return docxTitle, 0
	case strings.HasPrefix(s, "heading"):
		rest := strings.TrimPrefix(s, "heading")
		if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
			return docxHeading, int(rest[0] - '0')
		}
	case strings.HasPrefix(s, "listbullet"), s == "listparagraph":
		return docxBullet, 0
	case strings.HasPrefix(s, "listnumber"):
		return docxNumbered, 0
	case s == "quote", s == "intensequote":
		return docxQuote, 0
	}
	return docxBody, 0
}

// docxSpans converts a paragraph's runs to spans, keeping run formatting.
func docxSpans(para *docx.Paragraph) []blockdoc.Inline {
	var spans []blockdoc.Inline
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		var text strings.Builder
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				text.WriteString(t.Text)
			}
		}
		spans = appendSpan(spans, blockdoc.Inline{
			Type:   blockdoc.InlineText,
			Text:   text.String(),
			Styles: docxRunStyles(run.RunProperties),
		})
	}
	return spans
}

func docxRunStyles(props *docx.RunProperties) map[string]any {
	if props == nil {
		return nil
	}
	var styles map[string]any
	if props.Bold != nil {
		styles = withStyle(styles, "bold")
	}
	if props.Italic != nil {
		styles = withStyle(styles, "italic")
	}
	if props.Underline != nil {
		styles = withStyle(styles, "underline")
	}
	return styles
}
