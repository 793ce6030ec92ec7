package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
	"github.com/dgallion1/articlepipe/internal/outline"
	"github.com/dgallion1/articlepipe/internal/parser"
	"github.com/dgallion1/articlepipe/internal/readtime"
	"github.com/dgallion1/articlepipe/internal/store"
)

// Worker processes a single import job.
type Worker struct {
	store      store.Store
	log        *slog.Logger
	parserOpts parser.Options
	locks      *slugLocks

	backoff func(int) time.Duration
	now     func() time.Time
}

func NewWorker(st store.Store, log *slog.Logger, parserOpts parser.Options) *Worker {
	return &Worker{
		store:      st,
		log:        log,
		parserOpts: parserOpts,
		backoff:    Backoff,
		now:        time.Now,
	}
}

// Process runs the full import pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename, "source", job.Source)
	defer job.releaseData()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	res, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	applyOptions(res, job.Options)

	// Phase 2: Convert to the stored block encoding.
	job.SetStatus(StatusConverting, "converting")
	if len(res.Blocks) == 0 {
		log.Warn("no blocks produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "converting")
		return
	}
	body, err := blockdoc.Encode(res.Blocks)
	if err != nil {
		job.AddError(fmt.Sprintf("encode: %s", err))
		job.SetStatus(StatusFailed, "converting")
		return
	}
	doc := blockdoc.Document{Blocks: res.Blocks}
	headings := outline.FromBody(doc)
	m := readtime.ComputeBody(res.Title, res.Summary, doc)
	hash := store.ContentHash(body)
	job.SetConverted(len(res.Blocks), len(headings), m.Words, hash)
	log.Info("converted document", "blocks", len(res.Blocks), "headings", len(headings), "words", m.Words)

	// Phase 2.5: Dedup against the article that already owns the slug.
	defer w.locks.lock(res.Slug)()
	var existing *store.Article
	err = retry(ctx, log, "get", w.backoff, func() error {
		var getErr error
		existing, getErr = w.store.Get(ctx, res.Slug)
		return getErr
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		existing = nil
	case err != nil:
		log.Error("lookup failed", "slug", res.Slug, "error", err)
		job.AddError(fmt.Sprintf("lookup %s: %s", res.Slug, err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	a := buildArticle(existing, res, body, job.Options)
	if existing != nil && existing.ContentHash == hash && sameImportedFields(existing, a) {
		log.Info("unchanged document, skipping", "article_id", existing.ID)
		job.SetArticle(existing.ID, existing.Slug, false)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	if err := store.ValidateArticle(a); err != nil {
		log.Error("invalid article", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "storing")
		return
	}
	a.Touch(w.now().UTC())

	if err := retry(ctx, log, "put", w.backoff, func() error { return w.store.Put(ctx, a) }); err != nil {
		log.Error("store failed", "slug", a.Slug, "error", err)
		job.AddError(fmt.Sprintf("store %s: %s", a.Slug, err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	job.SetArticle(a.ID, a.Slug, existing != nil)
	log.Info("article stored", "article_id", a.ID, "slug", a.Slug, "updated", existing != nil)
	job.SetStatus(StatusCompleted, "done")
}

func applyOptions(res *parser.Result, opts JobOptions) {
	if t := strings.TrimSpace(opts.Title); t != "" {
		res.Title = t
		if opts.Slug == "" {
			if s := outline.Slugify(t); s != "" {
				res.Slug = s
			}
		}
	}
	if s := outline.Slugify(opts.Slug); s != "" {
		res.Slug = s
	}
	if opts.Category != "" {
		res.Category = opts.Category
	}
}

// buildArticle merges an import into the existing article, keeping its
// identity, view count and creation time.
func buildArticle(existing *store.Article, res *parser.Result, body string, opts JobOptions) *store.Article {
	a := &store.Article{Status: store.StatusDraft}
	if existing != nil {
		copied := *existing
		a = &copied
	}
	a.Slug = res.Slug
	a.Title = res.Title
	a.Summary = res.Summary
	a.Body = body
	if res.CoverURL != "" {
		a.CoverURL = res.CoverURL
	}
	if res.Category != "" {
		a.Category = res.Category
	}
	if len(res.Tags) > 0 {
		a.Tags = res.Tags
	}
	if res.Author != "" {
		a.Author = res.Author
	}
	switch {
	case res.Draft:
		a.Status = store.StatusDraft
	case opts.Publish:
		a.Status = store.StatusPublished
	}
	if !res.PublishedAt.IsZero() {
		t := res.PublishedAt.UTC()
		a.PublishedAt = &t
	}
	return a
}

// sameImportedFields reports whether an import would leave every field it
// controls unchanged.
func sameImportedFields(old, next *store.Article) bool {
	return old.Slug == next.Slug &&
		old.Title == next.Title &&
		old.Summary == next.Summary &&
		old.Body == next.Body &&
		old.CoverURL == next.CoverURL &&
		old.Category == next.Category &&
		slices.Equal(old.Tags, next.Tags) &&
		old.Author == next.Author &&
		old.Status == next.Status &&
		sameTime(old.PublishedAt, next.PublishedAt)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
