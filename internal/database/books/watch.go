package books

import (
	"context"
	"errors"
	"log"
	"sync"

	"gorm.io/gorm"

	"github.com/mrlokans/shelfsync/internal/entities"
)

// watchers fans a "something committed" signal out to every live watch. Each
// subscriber channel holds at most one pending signal, so bursts of commits
// collapse into a single re-read.
type watchers struct {
	mu   sync.Mutex
	next int
	subs map[int]chan struct{}
}

func newWatchers() *watchers {
	return &watchers{subs: make(map[int]chan struct{})}
}

func (w *watchers) add() (int, <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next++
	ch := make(chan struct{}, 1)
	w.subs[w.next] = ch
	return w.next, ch
}

func (w *watchers) remove(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.subs, id)
}

func (w *watchers) broadcast() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watch streams the ordered record list of tag: the current list first, then a
// fresh list after every committed write. The channel closes when ctx ends.
func (r *Repository) Watch(ctx context.Context, tag string) (<-chan []entities.Book, error) {
	return watch(ctx, r.watchers, func(ctx context.Context) ([]entities.Book, error) {
		return r.BooksForQuery(ctx, tag)
	})
}

// WatchBook streams a single record, or nil while it is not cached.
func (r *Repository) WatchBook(ctx context.Context, id string) (<-chan *entities.Book, error) {
	return watch(ctx, r.watchers, func(ctx context.Context) (*entities.Book, error) {
		book, err := r.GetBookByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return book, err
	})
}

func watch[T any](ctx context.Context, w *watchers, load func(context.Context) (T, error)) (<-chan T, error) {
	// Subscribe before the first read so a commit in between is not lost.
	id, signal := w.add()
	current, err := load(ctx)
	if err != nil {
		w.remove(id)
		return nil, err
	}

	out := make(chan T, 1)
	go func() {
		defer close(out)
		defer w.remove(id)

		pending, ready := current, true
		for {
			if ready {
				select {
				case <-ctx.Done():
					return
				case out <- pending:
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-signal:
			}

			next, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[STORE] warning - watch reload failed: %v", err)
				ready = false
				continue
			}
			pending, ready = next, true
		}
	}()
	return out, nil
}
