package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/dgallion1/articlepipe/internal/outline"
	"github.com/dgallion1/articlepipe/internal/store"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PageRenderer writes full HTML article pages.
type PageRenderer struct {
	site Site
	tmpl *template.Template
}

func NewPageRenderer(site Site) (*PageRenderer, error) {
	tmpl, err := template.New("article.tmpl").Funcs(template.FuncMap{
		"indent": func(h outline.Heading) int { return (h.Level - 1) * 12 },
	}).ParseFS(templateFS, "templates/article.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &PageRenderer{site: site, tmpl: tmpl}, nil
}

type pageData struct {
	Site      Site
	Article   *store.Article
	Canonical string
	Content   template.HTML
	TOC       []outline.Heading
	Reading   string
	Views     string
	JSONLD    BlogPosting
}

// Write renders the page for a and its render result to w.
func (p *PageRenderer) Write(w io.Writer, a *store.Article, res *Result) error {
	data := pageData{
		Site:      p.site,
		Article:   a,
		Canonical: p.site.ArticleURL(a.Slug),
		// HTML comes from the block renderer or goldmark without raw HTML passthrough.
		Content: template.HTML(res.HTML),
		TOC:     res.TOC,
		Reading: res.ReadingLabel(),
		Views:   res.Views,
		JSONLD:  StructuredData(p.site, a, res),
	}
	return p.tmpl.Execute(w, data)
}
