package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bArticles = []byte("articles") // id -> article JSON
	bSlugs    = []byte("slugs")    // slug -> id
	bIdxTime  = []byte("idx_time") // invTime(8) + 0x00 + id -> {}
)

// BoltStore keeps articles in a local bbolt file.
type BoltStore struct {
	db *bolt.DB
}

func OpenBolt(path string) (*BoltStore, error) {
	if path == "" {
		return nil, errors.New("store: missing bolt path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bArticles, bSlugs, bIdxTime} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) Get(_ context.Context, slug string) (*Article, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrNotFound
	}
	var a *Article
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bSlugs).Get([]byte(slug))
		if id == nil {
			return ErrNotFound
		}
		var err error
		a, err = loadArticle(tx, id)
		return err
	})
	return a, err
}

func (s *BoltStore) GetByID(_ context.Context, id string) (*Article, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var a *Article
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		a, err = loadArticle(tx, []byte(id))
		return err
	})
	return a, err
}

// List returns articles newest first.
func (s *BoltStore) List(_ context.Context, opt ListOptions) ([]*Article, error) {
	opt.Page, opt.Size = NormalizePaging(opt.Page, opt.Size)

	var out []*Article
	err := s.db.View(func(tx *bolt.Tx) error {
		skip := (opt.Page - 1) * opt.Size
		cur := tx.Bucket(bIdxTime).Cursor()
		for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
			id := idFromTimeKey(k)
			if id == nil {
				continue
			}
			a, err := loadArticle(tx, id)
			if err != nil {
				continue
			}
			if opt.Status != "" && a.Status != opt.Status {
				continue
			}
			if opt.Category != "" && !strings.EqualFold(a.Category, opt.Category) {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			out = append(out, a)
			if len(out) >= opt.Size {
				break
			}
		}
		return nil
	})
	return out, err
}

func (s *BoltStore) Put(_ context.Context, a *Article) error {
	if a == nil || a.ID == "" {
		return errors.New("store: article id is required")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode article: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		articles := tx.Bucket(bArticles)
		slugs := tx.Bucket(bSlugs)
		idx := tx.Bucket(bIdxTime)

		if owner := slugs.Get([]byte(a.Slug)); owner != nil && string(owner) != a.ID {
			return ErrSlugTaken
		}
		if prev, err := loadArticle(tx, []byte(a.ID)); err == nil {
			if prev.Slug != a.Slug {
				if err := slugs.Delete([]byte(prev.Slug)); err != nil {
					return err
				}
			}
			if err := idx.Delete(timeKey(prev.SortTime(), prev.ID)); err != nil {
				return err
			}
		}

		if err := articles.Put([]byte(a.ID), data); err != nil {
			return err
		}
		if err := slugs.Put([]byte(a.Slug), []byte(a.ID)); err != nil {
			return err
		}
		return idx.Put(timeKey(a.SortTime(), a.ID), []byte{1})
	})
}

func (s *BoltStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		a, err := loadArticle(tx, []byte(id))
		if err != nil {
			return err
		}
		if err := tx.Bucket(bArticles).Delete([]byte(id)); err != nil {
			return err
		}
		if err := tx.Bucket(bSlugs).Delete([]byte(a.Slug)); err != nil {
			return err
		}
		return tx.Bucket(bIdxTime).Delete(timeKey(a.SortTime(), a.ID))
	})
}

func (s *BoltStore) IncrementViews(_ context.Context, slug string) (int64, error) {
	var count int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		id := tx.Bucket(bSlugs).Get([]byte(slug))
		if id == nil {
			return ErrNotFound
		}
		a, err := loadArticle(tx, id)
		if err != nil {
			return err
		}
		a.ViewCount++
		count = a.ViewCount
		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		return tx.Bucket(bArticles).Put([]byte(a.ID), data)
	})
	return count, err
}

func loadArticle(tx *bolt.Tx, id []byte) (*Article, error) {
	v := tx.Bucket(bArticles).Get(id)
	if v == nil {
		return nil, ErrNotFound
	}
	var a Article
	if err := json.Unmarshal(v, &a); err != nil {
		return nil, fmt.Errorf("decode article %s: %w", id, err)
	}
	return &a, nil
}

// timeKey sorts newest first under a forward cursor.
func timeKey(t time.Time, id string) []byte {
	buf := make([]byte, 8, 8+1+len(id))
	binary.BigEndian.PutUint64(buf, ^uint64(t.UnixNano()))
	buf = append(buf, 0x00)
	return append(buf, id...)
}

func idFromTimeKey(k []byte) []byte {
	if len(k) < 8+2 || k[8] != 0x00 {
		return nil
	}
	return k[9:]
}
