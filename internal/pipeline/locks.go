package pipeline

import "sync"

// slugLocks serializes imports that target the same slug, so lookup,
// dedup and put for one slug never interleave across workers.
type slugLocks struct {
	mu    sync.Mutex
	locks map[string]*slugLock
}

type slugLock struct {
	mu   sync.Mutex
	refs int
}

func newSlugLocks() *slugLocks {
	return &slugLocks{locks: make(map[string]*slugLock)}
}

// lock blocks until slug is free and returns its unlock func. A nil
// receiver does no locking.
func (l *slugLocks) lock(slug string) func() {
	if l == nil {
		return func() {}
	}
	l.mu.Lock()
	sl, ok := l.locks[slug]
	if !ok {
		sl = &slugLock{}
		l.locks[slug] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		if sl.refs--; sl.refs == 0 {
			delete(l.locks, slug)
		}
		l.mu.Unlock()
	}
}

func (l *slugLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
