// Package supabase is a store.Store backed by a Supabase PostgREST table.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/articlepipe/internal/store"
)

// Client communicates with the PostgREST API of a Supabase project.
type Client struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient *http.Client
}

var _ store.Store = (*Client)(nil)

func NewClient(baseURL, apiKey, table string) *Client {
	if table == "" {
		table = "articles"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		table:   table,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	msg := e.Message
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, msg)
}

// Get returns the article with the given slug.
func (c *Client) Get(ctx context.Context, slug string) (*store.Article, error) {
	return c.getOne(ctx, "slug", slug)
}

// GetByID returns the article with the given id.
func (c *Client) GetByID(ctx context.Context, id string) (*store.Article, error) {
	return c.getOne(ctx, "id", id)
}

func (c *Client) getOne(ctx context.Context, column, value string) (*store.Article, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set(column, "eq."+value)
	q.Set("limit", "1")

	var rows []*store.Article
	if err := c.do(ctx, http.MethodGet, c.tablePath(), q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("get article %s=%s: %w", column, value, err)
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return rows[0], nil
}

// List returns articles newest first.
func (c *Client) List(ctx context.Context, opt store.ListOptions) ([]*store.Article, error) {
	page, size := store.NormalizePaging(opt.Page, opt.Size)
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "published_at.desc.nullslast,created_at.desc")
	q.Set("limit", strconv.Itoa(size))
	q.Set("offset", strconv.Itoa((page-1)*size))
	if opt.Status != "" {
		q.Set("status", "eq."+string(opt.Status))
	}
	if opt.Category != "" {
		q.Set("category", categoryFilter(opt.Category))
	}

	var rows []*store.Article
	if err := c.do(ctx, http.MethodGet, c.tablePath(), q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return rows, nil
}

// categoryFilter matches category case-insensitively. ilike treats * % and
// _ as wildcards and has no reliable escape for *, so a category carrying
// any of them is matched exactly instead.
func categoryFilter(category string) string {
	if strings.ContainsAny(category, `*%_\`) {
		return "eq." + category
	}
	return "ilike." + category
}

// Put upserts the article on its id. A unique violation on slug comes back
// as store.ErrSlugTaken.
func (c *Client) Put(ctx context.Context, a *store.Article) error {
	if a == nil || a.ID == "" {
		return errors.New("supabase: article id is required")
	}
	q := url.Values{}
	q.Set("on_conflict", "id")

	var rows []*store.Article
	err := c.do(ctx, http.MethodPost, c.tablePath(), q, []*store.Article{a},
		"resolution=merge-duplicates,return=representation", &rows)
	if err != nil {
		return fmt.Errorf("put article %s: %w", a.ID, err)
	}
	if len(rows) == 1 {
		*a = *rows[0]
	}
	return nil
}

// Delete removes the article with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)

	var rows []json.RawMessage
	if err := c.do(ctx, http.MethodDelete, c.tablePath(), q, nil, "return=representation", &rows); err != nil {
		return fmt.Errorf("delete article %s: %w", id, err)
	}
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncrementViews calls the increment_article_views function, which returns
// the new count or null when no article has the slug.
func (c *Client) IncrementViews(ctx context.Context, slug string) (int64, error) {
	var count *int64
	body := map[string]string{"article_slug": slug}
	if err := c.do(ctx, http.MethodPost, "/rest/v1/rpc/increment_article_views", nil, body, "", &count); err != nil {
		return 0, fmt.Errorf("increment views %s: %w", slug, err)
	}
	if count == nil {
		return 0, store.ErrNotFound
	}
	return *count, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) tablePath() string {
	return "/rest/v1/" + url.PathEscape(c.table)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in any, prefer string, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		httpReq.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &RetryableError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		switch {
		case resp.StatusCode == http.StatusConflict:
			return store.ErrSlugTaken
		case resp.StatusCode == http.StatusNotFound:
			return store.ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
