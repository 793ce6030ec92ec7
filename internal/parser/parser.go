package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
	"github.com/dgallion1/articlepipe/internal/outline"
)

// Result is an imported document converted to article fields and blocks.
type Result struct {
	Title       string
	Summary     string
	Slug        string
	Category    string
	Tags        []string
	CoverURL    string
	Author      string
	Draft       bool
	PublishedAt time.Time
	Blocks      []blockdoc.Block
}

// Parser converts raw document bytes into a Result.
type Parser interface {
	Parse(r io.Reader, filename string) (*Result, error)
}

type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".csv":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

const summaryMaxRunes = 160

// finish fills the fields every parser derives the same way: a title from
// the file name, a slug from the title, and a summary from the first
// paragraph.
func (r *Result) finish(filename string) {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		base := filepath.Base(filename)
		r.Title = strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if r.Slug = outline.Slugify(r.Slug); r.Slug == "" {
		r.Slug = outline.Slugify(r.Title)
	}
	if r.Summary == "" {
		for _, b := range r.Blocks {
			if b.Type == blockdoc.TypeParagraph {
				if t := strings.TrimSpace(b.Text()); t != "" {
					r.Summary = truncateRunes(strings.Join(strings.Fields(t), " "), summaryMaxRunes)
					break
				}
			}
		}
	}
	if r.Blocks == nil {
		r.Blocks = []blockdoc.Block{}
	}
}

// takeLeadingTitle removes a first-block h1 and returns its text when the
// title is not already known.
func (r *Result) takeLeadingTitle() {
	if r.Title != "" || len(r.Blocks) == 0 {
		return
	}
	first := r.Blocks[0]
	if first.Type != blockdoc.TypeHeading || first.HeadingLevel() != 1 {
		return
	}
	if t := strings.TrimSpace(first.Text()); t != "" {
		r.Title = t
		r.Blocks = r.Blocks[1:]
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := strings.TrimRight(string(runes[:n-1]), " ")
	return cut + "…"
}

func heading(level int, spans ...blockdoc.Inline) blockdoc.Block {
	return blockdoc.Block{
		Type:    blockdoc.TypeHeading,
		Props:   map[string]any{"level": level},
		Content: blockdoc.InlineContent(spans...),
	}
}

func paragraph(spans ...blockdoc.Inline) blockdoc.Block {
	return blockdoc.Block{Type: blockdoc.TypeParagraph, Content: blockdoc.InlineContent(spans...)}
}

// tableBlock builds a table block from rows of cells of spans.
func tableBlock(rows [][][]blockdoc.Inline) blockdoc.Block {
	type row struct {
		Cells [][]blockdoc.Inline `json:"cells"`
	}
	content := struct {
		Type string `json:"type"`
		Rows []row  `json:"rows"`
	}{Type: "tableContent", Rows: make([]row, len(rows))}
	for i, cells := range rows {
		content.Rows[i] = row{Cells: cells}
	}
	obj, _ := json.Marshal(content)
	return blockdoc.Block{
		Type:    blockdoc.TypeTable,
		Content: blockdoc.Content{Kind: blockdoc.ContentObject, Object: obj},
	}
}

func textSpan(s string) blockdoc.Inline {
	return blockdoc.Inline{Type: blockdoc.InlineText, Text: s}
}

// appendSpan adds s to spans, merging it into the previous text span when
// both carry the same styles.
func appendSpan(spans []blockdoc.Inline, s blockdoc.Inline) []blockdoc.Inline {
	if s.Type == blockdoc.InlineText && s.Text == "" {
		return spans
	}
	if n := len(spans); n > 0 && s.Type == blockdoc.InlineText && spans[n-1].Type == blockdoc.InlineText && sameStyles(spans[n-1].Styles, s.Styles) {
		spans[n-1].Text += s.Text
		return spans
	}
	return append(spans, s)
}

func sameStyles(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func withStyle(styles map[string]any, key string) map[string]any {
	out := make(map[string]any, len(styles)+1)
	for k, v := range styles {
		out[k] = v
	}
	out[key] = true
	return out
}

// trimSpans trims leading and trailing whitespace of a span run.
func trimSpans(spans []blockdoc.Inline) []blockdoc.Inline {
	for len(spans) > 0 && spans[0].Type == blockdoc.InlineText {
		spans[0].Text = strings.TrimLeft(spans[0].Text, " \t\r\n")
		if spans[0].Text != "" {
			break
		}
		spans = spans[1:]
	}
	for len(spans) > 0 && spans[len(spans)-1].Type == blockdoc.InlineText {
		last := &spans[len(spans)-1]
		last.Text = strings.TrimRight(last.Text, " \t\r\n")
		if last.Text != "" {
			break
		}
		spans = spans[:len(spans)-1]
	}
	return spans
}
