package render

import (
	"bytes"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownRenderer renders legacy markdown bodies. Raw HTML is dropped and
// headings get no ids; ids come from reconciliation.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

func NewMarkdownRenderer(math bool) *MarkdownRenderer {
	exts := []goldmark.Extender{
		extension.GFM,
	}
	if math {
		exts = append(exts, treeblood.MathML())
	}
	return &MarkdownRenderer{md: goldmark.New(goldmark.WithExtensions(exts...))}
}

func (r *MarkdownRenderer) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
