package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/articlepipe/internal/blockdoc"
	"github.com/dgallion1/articlepipe/internal/outline"
	"github.com/dgallion1/articlepipe/internal/readtime"
	"github.com/dgallion1/articlepipe/internal/render"
	"github.com/dgallion1/articlepipe/internal/store"
	"github.com/go-chi/chi/v5"
)

// card is the list view of an article.
type card struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty"`
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ViewCount   int64      `json:"view_count"`
	Views       string     `json:"views"`
	Minutes     int        `json:"minutes"`
	ReadingTime string     `json:"reading_time"`
}

func newCard(a *store.Article) card {
	m := readtime.Compute(a.Title, a.Summary, a.Body)
	return card{
		ID:          a.ID,
		Slug:        a.Slug,
		Title:       a.Title,
		Summary:     a.Summary,
		CoverURL:    a.CoverURL,
		Category:    a.Category,
		Tags:        a.Tags,
		Author:      a.Author,
		PublishedAt: a.PublishedAt,
		ViewCount:   a.ViewCount,
		Views:       readtime.FormatViews(a.ViewCount),
		Minutes:     m.Minutes,
		ReadingTime: m.Label(),
	}
}

// publishedArticle loads a published article by slug, writing a 404 for
// drafts and unknown slugs.
func (s *Server) publishedArticle(w http.ResponseWriter, r *http.Request) (*store.Article, bool) {
	a, err := s.store.Get(r.Context(), chi.URLParam(r, "slug"))
	if err == nil && !a.Published() {
		err = store.ErrNotFound
	}
	if err != nil {
		s.storeError(w, err, "get article")
		return nil, false
	}
	return a, true
}

func (s *Server) renderArticle(a *store.Article) (*render.Result, error) {
	return s.renderer.Render(render.Input{
		Title:   a.Title,
		Summary: a.Summary,
		Body:    a.Body,
		Views:   a.ViewCount,
	})
}

func (s *Server) handleArticlePage(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Get(r.Context(), chi.URLParam(r, "slug"))
	if err == nil && !a.Published() {
		err = store.ErrNotFound
	}
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.log.Error("get article page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	res, err := s.renderArticle(a)
	if err != nil {
		s.log.Error("render article", "slug", a.Slug, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if len(res.Unmatched) > 0 {
		s.log.Warn("outline entries without rendered heading", "slug", a.Slug, "unmatched", len(res.Unmatched))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.Write(w, a, res); err != nil {
		s.log.Error("write article page", "slug", a.Slug, "error", err)
	}
}

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	page, size = store.NormalizePaging(page, size)

	articles, err := s.store.List(r.Context(), store.ListOptions{
		Status:   store.StatusPublished,
		Category: q.Get("category"),
		Page:     page,
		Size:     size,
	})
	if err != nil {
		s.storeError(w, err, "list articles")
		return
	}

	cards := make([]card, 0, len(articles))
	for _, a := range articles {
		cards = append(cards, newCard(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"articles": cards,
		"page":     page,
		"size":     size,
	})
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	a, ok := s.publishedArticle(w, r)
	if !ok {
		return
	}
	res, err := s.renderArticle(a)
	if err != nil {
		s.log.Error("render article", "slug", a.Slug, "error", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"article":         newCard(a),
		"html":            res.HTML,
		"outline":         res.Outline,
		"toc":             res.TOC,
		"metrics":         res.Metrics,
		"encoding":        res.Encoding,
		"structured_data": render.StructuredData(s.site, a, res),
	})
}

func (s *Server) handleGetOutline(w http.ResponseWriter, r *http.Request) {
	a, ok := s.publishedArticle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"slug":    a.Slug,
		"outline": outline.Extract(a.Body),
	})
}

func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	a, ok := s.publishedArticle(w, r)
	if !ok {
		return
	}
	n, err := s.store.IncrementViews(r.Context(), a.Slug)
	if err != nil {
		s.storeError(w, err, "increment views")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"view_count": n,
		"views":      readtime.FormatViews(n),
	})
}

// articleInput is the admin create/update payload. Blocks, when present,
// wins over Body and is stored in canonical block JSON.
type articleInput struct {
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Summary     string          `json:"summary"`
	Body        string          `json:"body"`
	Blocks      json.RawMessage `json:"blocks"`
	CoverURL    string          `json:"cover_url"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
	Author      string          `json:"author"`
	Status      store.Status    `json:"status"`
	PublishedAt *time.Time      `json:"published_at"`
}

func (in *articleInput) apply(a *store.Article) error {
	body := in.Body
	if len(in.Blocks) > 0 && string(in.Blocks) != "null" {
		var blocks []blockdoc.Block
		if err := json.Unmarshal(in.Blocks, &blocks); err != nil {
			return errors.New("blocks: " + err.Error())
		}
		encoded, err := blockdoc.Encode(blocks)
		if err != nil {
			return err
		}
		body = encoded
	}

	a.Title = strings.TrimSpace(in.Title)
	a.Summary = strings.TrimSpace(in.Summary)
	a.Body = body
	a.CoverURL = strings.TrimSpace(in.CoverURL)
	a.Category = strings.TrimSpace(in.Category)
	a.Tags = in.Tags
	a.Author = strings.TrimSpace(in.Author)
	switch slug := strings.TrimSpace(in.Slug); {
	case slug != "":
		a.Slug = slug
	case a.Slug == "":
		a.Slug = outline.Slugify(a.Title)
	}
	if in.Status != "" {
		a.Status = in.Status
	}
	if in.PublishedAt != nil {
		t := in.PublishedAt.UTC()
		a.PublishedAt = &t
	}
	return nil
}

func (s *Server) decodeArticleInput(w http.ResponseWriter, r *http.Request) (*articleInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	var in articleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return &in, true
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeArticleInput(w, r)
	if !ok {
		return
	}
	a := &store.Article{Status: store.StatusDraft}
	if err := in.apply(a); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.saveArticle(w, r, a, http.StatusCreated)
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err, "get article")
		return
	}
	in, ok := s.decodeArticleInput(w, r)
	if !ok {
		return
	}
	if err := in.apply(a); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.saveArticle(w, r, a, http.StatusOK)
}

func (s *Server) saveArticle(w http.ResponseWriter, r *http.Request, a *store.Article, code int) {
	if err := store.ValidateArticle(a); err != nil {
		s.storeError(w, err, "validate article")
		return
	}
	a.Touch(time.Now().UTC())
	if err := s.store.Put(r.Context(), a); err != nil {
		s.storeError(w, err, "put article")
		return
	}
	s.log.Info("article saved", "article_id", a.ID, "slug", a.Slug, "status", a.Status)
	writeJSON(w, code, a)
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.storeError(w, err, "delete article")
		return
	}
	s.log.Info("article deleted", "article_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type previewInput struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Body    string `json:"body"`
	Views   int64  `json:"views"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	var in previewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.renderer.Render(render.Input(in))
	if err != nil {
		jsonError(w, "render failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":       res,
		"reading_time": res.ReadingLabel(),
	})
}

// storeError maps store errors onto HTTP responses.
func (s *Server) storeError(w http.ResponseWriter, err error, op string) {
	var verr store.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": verr.Items,
		})
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, "article not found", http.StatusNotFound)
	case errors.Is(err, store.ErrSlugTaken):
		jsonError(w, "slug already in use", http.StatusConflict)
	default:
		s.log.Error(op, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
