package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendBolt     = "bolt"
	BackendSupabase = "supabase"
)

type Config struct {
	Port string

	// Auth
	AdminAPIKey string

	// Storage
	StoreBackend       string
	BoltPath           string
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseTable      string

	// Import worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Content directory watcher
	ContentDir    string
	WatchDebounce time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Rendering
	MarkdownMath   bool
	TOCMinHeadings int
	SiteName       string
	SiteURL        string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),

		StoreBackend:       strings.ToLower(envOr("STORE_BACKEND", BackendBolt)),
		BoltPath:           envOr("BOLT_PATH", "data/articles.db"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseTable:      envOr("SUPABASE_TABLE", "articles"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20<<20),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		ContentDir:    os.Getenv("CONTENT_DIR"),
		WatchDebounce: envDuration("WATCH_DEBOUNCE", 500*time.Millisecond),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		MarkdownMath:   envBool("MARKDOWN_MATH", true),
		TOCMinHeadings: envInt("TOC_MIN_HEADINGS", 3),
		SiteName:       envOr("SITE_NAME", "Bimbel Cerdas"),
		SiteURL:        strings.TrimRight(envOr("SITE_URL", "http://localhost:8090"), "/"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 500 * time.Millisecond
	}
	if cfg.TOCMinHeadings <= 0 {
		cfg.TOCMinHeadings = 3
	}

	return cfg
}

func (c Config) Validate() error {
	if c.AdminAPIKey == "" {
		return fmt.Errorf("ADMIN_API_KEY is required")
	}
	switch c.StoreBackend {
	case BackendBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("BOLT_PATH is required for the bolt backend")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the supabase backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
