package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dgallion1/articlepipe/internal/config"
	"github.com/dgallion1/articlepipe/internal/metrics"
	"github.com/dgallion1/articlepipe/internal/pipeline"
	"github.com/dgallion1/articlepipe/internal/render"
	"github.com/dgallion1/articlepipe/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for articlepipe.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        store.Store
	renderer     *render.Renderer
	pages        *render.PageRenderer
	stats        *metrics.RenderStats
	site         render.Site
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, stats *metrics.RenderStats, log *slog.Logger, cfg config.Config) (*Server, error) {
	site := render.Site{Name: cfg.SiteName, URL: cfg.SiteURL}
	pages, err := render.NewPageRenderer(site)
	if err != nil {
		return nil, fmt.Errorf("page renderer: %w", err)
	}
	s := &Server{
		orchestrator: orch,
		store:        orch.Store(),
		renderer: render.New(render.Options{
			Math:           cfg.MarkdownMath,
			TOCMinHeadings: cfg.TOCMinHeadings,
			Stats:          stats,
		}),
		pages: pages,
		stats: stats,
		site:  site,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

const publicCache = "public, max-age=60"

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	// Public endpoints.
	r.Group(func(r chi.Router) {
		r.Use(CacheControl(publicCache))

		r.Get("/articles/{slug}", s.handleArticlePage)
		r.Get("/api/articles", s.handleListArticles)
		r.Get("/api/articles/{slug}", s.handleGetArticle)
		r.Get("/api/articles/{slug}/outline", s.handleGetOutline)
		r.Post("/api/articles/{slug}/views", s.handleRecordView)
	})

	// Admin endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.AdminAPIKey, s.log))
		r.Use(CacheControl("no-store"))

		r.Post("/api/articles", s.handleCreateArticle)
		r.Put("/api/articles/{id}", s.handleUpdateArticle)
		r.Delete("/api/articles/{id}", s.handleDeleteArticle)
		r.Post("/api/preview", s.handlePreview)

		r.Post("/api/import", s.handleImport)
		r.Post("/api/import/batch", s.handleBatchImport)
		r.Get("/api/import/{jobID}/status", s.handleImportStatus)
		r.Get("/api/stats/render", s.handleRenderStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
