// Package store persists articles.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("article not found")
	ErrSlugTaken = errors.New("slug already in use")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Article is a stored article. Body holds either block JSON or legacy
// markdown; readers decode it on every render.
type Article struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	Body        string     `json:"body"`
	CoverURL    string     `json:"cover_url,omitempty"`
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Author      string     `json:"author,omitempty"`
	Status      Status     `json:"status"`
	ContentHash string     `json:"content_hash,omitempty"`
	ViewCount   int64      `json:"view_count"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Published reports whether public routes may serve the article.
func (a *Article) Published() bool {
	return a.Status == StatusPublished
}

// SortTime is the time List orders by: PublishedAt, else CreatedAt.
func (a *Article) SortTime() time.Time {
	if a.PublishedAt != nil {
		return *a.PublishedAt
	}
	return a.CreatedAt
}

// Touch fills ID, timestamps and content hash before a write.
func (a *Article) Touch(now time.Time) {
	if a.ID == "" {
		a.ID = NewID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = StatusDraft
	}
	if a.Status == StatusPublished && a.PublishedAt == nil {
		t := now
		a.PublishedAt = &t
	}
	a.ContentHash = ContentHash(a.Body)
}

type ListOptions struct {
	Status   Status // empty lists every status
	Category string
	Page     int
	Size     int
}

// Store is implemented by BoltStore and supabase.Client.
type Store interface {
	Get(ctx context.Context, slug string) (*Article, error)
	GetByID(ctx context.Context, id string) (*Article, error)
	List(ctx context.Context, opt ListOptions) ([]*Article, error)
	// Put inserts or replaces the article keyed by ID.
	Put(ctx context.Context, a *Article) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, slug string) (int64, error)
	Close() error
}

// NewID returns a time-ordered UUIDv7 string.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ContentHash is the hex sha-256 of an article body.
func ContentHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// NormalizePaging clamps page to >= 1 and size to 1..100 (default 10).
func NormalizePaging(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
