package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgallion1/articlepipe/internal/store"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "service-key", "")
}

func TestGet_QueryAndHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/articles" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("slug"); got != "eq.belajar-go" {
			t.Errorf("slug filter = %q", got)
		}
		if r.Header.Get("apikey") != "service-key" || r.Header.Get("Authorization") != "Bearer service-key" {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		w.Write([]byte(`[{"id":"a1","slug":"belajar-go","title":"Belajar Go","body":"# Hi","status":"published","view_count":7}]`))
	})

	a, err := c.Get(context.Background(), "belajar-go")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != "a1" || a.ViewCount != 7 || !a.Published() {
		t.Errorf("unexpected article: %+v", a)
	}
}

func TestGet_EmptyIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	if _, err := c.GetByID(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestList_Paging(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("limit") != "5" || q.Get("offset") != "10" {
			t.Errorf("limit/offset = %s/%s", q.Get("limit"), q.Get("offset"))
		}
		if q.Get("status") != "eq.published" || q.Get("category") != "ilike.tips" {
			t.Errorf("filters = %v", q)
		}
		w.Write([]byte(`[{"id":"a"},{"id":"b"}]`))
	})
	got, err := c.List(context.Background(), store.ListOptions{Status: store.StatusPublished, Category: "tips", Page: 3, Size: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d articles", len(got))
	}
}

func TestCategoryFilter(t *testing.T) {
	tests := map[string]string{
		"tips":       "ilike.tips",
		"Berita":     "ilike.Berita",
		"*":          "eq.*",
		"50%":        "eq.50%",
		"tips_trik":  "eq.tips_trik",
		`a\b`:        `eq.a\b`,
		"tips dasar": "ilike.tips dasar",
	}
	for in, want := range tests {
		if got := categoryFilter(in); got != want {
			t.Errorf("categoryFilter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestList_WildcardCategoryIsExact(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("category"); got != "eq.*" {
			t.Errorf("category = %q", got)
		}
		w.Write([]byte(`[]`))
	})
	if _, err := c.List(context.Background(), store.ListOptions{Category: "*"}); err != nil {
		t.Fatal(err)
	}
}

func TestPut_Upsert(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Query().Get("on_conflict") != "id" {
			t.Errorf("on_conflict = %q", r.URL.Query().Get("on_conflict"))
		}
		if r.Header.Get("Prefer") != "resolution=merge-duplicates,return=representation" {
			t.Errorf("prefer = %q", r.Header.Get("Prefer"))
		}
		var rows []store.Article
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &rows); err != nil || len(rows) != 1 {
			t.Errorf("bad body %s: %v", body, err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rows[0].ViewCount = 3
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(rows)
	})

	a := &store.Article{ID: "id-1", Slug: "s", Title: "T"}
	if err := c.Put(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	if a.ViewCount != 3 {
		t.Errorf("representation not applied: %+v", a)
	}
}

func TestPut_ConflictIsSlugTaken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"23505"}`))
	})
	err := c.Put(context.Background(), &store.Article{ID: "x", Slug: "dup"})
	if !errors.Is(err, store.ErrSlugTaken) {
		t.Errorf("err = %v, want ErrSlugTaken", err)
	}
}

func TestServerErrorIsRetryable(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})
		_, err := c.Get(context.Background(), "x")
		var re *RetryableError
		if !errors.As(err, &re) || re.StatusCode != code {
			t.Errorf("status %d: err = %v", code, err)
		}
	}
}

func TestBadRequestIsNotRetryable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := c.Get(context.Background(), "x")
	var re *RetryableError
	if err == nil || errors.As(err, &re) {
		t.Errorf("err = %v, want plain error", err)
	}
}

func TestDelete(t *testing.T) {
	rows := `[{"id":"gone"}]`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Query().Get("id") != "eq.gone" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		w.Write([]byte(rows))
	})
	if err := c.Delete(context.Background(), "gone"); err != nil {
		t.Fatal(err)
	}
	rows = `[]`
	if err := c.Delete(context.Background(), "gone"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestIncrementViews(t *testing.T) {
	reply := `42`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/rpc/increment_article_views" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["article_slug"] != "belajar-go" {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte(reply))
	})

	n, err := c.IncrementViews(context.Background(), "belajar-go")
	if err != nil || n != 42 {
		t.Errorf("n = %d, err = %v", n, err)
	}
	reply = `null`
	if _, err := c.IncrementViews(context.Background(), "belajar-go"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
