package syncer

import (
	"context"
	"sync"
)

// tagLocks serializes sync calls per tag. Entries are dropped once nobody
// holds or waits for them.
type tagLocks struct {
	mu    sync.Mutex
	locks map[string]*tagLock
}

type tagLock struct {
	sem  chan struct{}
	refs int
}

func newTagLocks() *tagLocks {
	return &tagLocks{locks: make(map[string]*tagLock)}
}

// acquire blocks until tag is free or ctx is done. The returned func releases it.
func (l *tagLocks) acquire(ctx context.Context, tag string) (func(), error) {
	l.mu.Lock()
	tl, ok := l.locks[tag]
	if !ok {
		tl = &tagLock{sem: make(chan struct{}, 1)}
		l.locks[tag] = tl
	}
	tl.refs++
	l.mu.Unlock()

	select {
	case tl.sem <- struct{}{}:
		return func() {
			<-tl.sem
			l.release(tag, tl)
		}, nil
	case <-ctx.Done():
		l.release(tag, tl)
		return nil, ctx.Err()
	}
}

func (l *tagLocks) release(tag string, tl *tagLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tl.refs--
	if tl.refs == 0 {
		delete(l.locks, tag)
	}
}

func (l *tagLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
