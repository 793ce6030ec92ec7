// Package render turns a stored article body into navigable HTML: it picks
// the block or markdown renderer, extracts the outline, attaches heading
// ids to the rendered output and computes reading metrics.
package render

import (
	"fmt"
	"time"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
	"github.com/dgallion1/articlepipe/internal/metrics"
	"github.com/dgallion1/articlepipe/internal/outline"
	"github.com/dgallion1/articlepipe/internal/readtime"
)

type Options struct {
	Math           bool
	TOCMinHeadings int                  // TOC is nil below this many headings; defaults to 3
	Stats          *metrics.RenderStats // optional
}

type Renderer struct {
	markdown *MarkdownRenderer
	blocks   *BlockRenderer
	tocMin   int
	stats    *metrics.RenderStats
}

func New(opts Options) *Renderer {
	if opts.TOCMinHeadings <= 0 {
		opts.TOCMinHeadings = 3
	}
	return &Renderer{
		markdown: NewMarkdownRenderer(opts.Math),
		blocks:   &BlockRenderer{},
		tocMin:   opts.TOCMinHeadings,
		stats:    opts.Stats,
	}
}

type Input struct {
	Title   string
	Summary string
	Body    string
	Views   int64
}

type Result struct {
	HTML      string            `json:"html"`
	Outline   []outline.Heading `json:"outline"`
	TOC       []outline.Heading `json:"toc"`       // nil when the outline is too short to show
	Unmatched []outline.Heading `json:"unmatched"` // outline entries with no rendered heading
	Metrics   readtime.Metrics  `json:"metrics"`
	Views     string            `json:"views"`
	Encoding  blockdoc.Encoding `json:"encoding"`
}

// ReadingLabel is the "N min read" card text.
func (r *Result) ReadingLabel() string {
	return r.Metrics.Label()
}

// Render decodes in.Body once and feeds the decoded form to every stage.
func (r *Renderer) Render(in Input) (*Result, error) {
	start := time.Now()
	body := blockdoc.Decode(in.Body)

	var (
		fragment string
		err      error
	)
	switch b := body.(type) {
	case blockdoc.Document:
		fragment, err = r.blocks.Render(b.Blocks)
	case blockdoc.LegacyText:
		fragment, err = r.markdown.Render(b.Source)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s body: %w", body.Encoding(), err)
	}

	headings := outline.FromBody(body)
	rec, err := outline.Reconcile(fragment, headings)
	if err != nil {
		return nil, err
	}

	res := &Result{
		HTML:      rec.HTML,
		Outline:   headings,
		Unmatched: rec.Unmatched,
		Metrics:   readtime.ComputeBody(in.Title, in.Summary, body),
		Views:     readtime.FormatViews(in.Views),
		Encoding:  body.Encoding(),
	}
	if len(headings) >= r.tocMin {
		res.TOC = headings
	}
	if r.stats != nil {
		r.stats.Record(string(body.Encoding()), time.Since(start), len(rec.Unmatched))
	}
	return res, nil
}
