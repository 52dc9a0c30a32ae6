// Package realtime is the push-based favorites and comments store. Point writes
// go to Redis hashes; every write publishes on a per-key channel so observers
// re-read and receive the new state.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/shelfsync/internal/syncpolicy"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNotOwner      = errors.New("only the author may change this comment")
	ErrInvalidReview = errors.New("invalid review")
)

const changesPrefix = "changes:"

// Store implements favorites and comments on top of Redis.
type Store struct {
	client     *redis.Client
	sanitizer  syncpolicy.Sanitizer
	reviewText syncpolicy.Sanitizer
	validator  ReviewValidator
	now        func() time.Time
	newID      func() string
}

// NewStore connects to redisURL and checks the connection.
func NewStore(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewStoreWithClient(client), nil
}

// NewStoreWithClient creates a store from an existing Redis client.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{
		client:     client,
		sanitizer:  syncpolicy.NewSanitizer(),
		reviewText: syncpolicy.Sanitizer{MaxLength: MaxReviewLength},
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) favoritesKey(userID string) string {
	return "users:" + NodeKey(userID) + ":favorites"
}

func (s *Store) commentsKey(bookID string) string {
	return "comments:" + s.commentNodeKey(bookID)
}

func (s *Store) commentNodeKey(input string) string {
	return NodeKey(s.sanitizer.Sanitize(input))
}

func (s *Store) publish(ctx context.Context, key string) {
	if err := s.client.Publish(ctx, changesPrefix+key, s.now().UnixMilli()).Err(); err != nil {
		log.Printf("[REALTIME] warning - publish change of %s failed: %v", key, err)
	}
}

// observe subscribes to key's change channel, then emits load() once and again
// after every published change. The channel closes when ctx ends.
func observe[T any](ctx context.Context, s *Store, key string, load func(context.Context) (T, error)) (<-chan T, error) {
	sub := s.client.Subscribe(ctx, changesPrefix+key)
	// Wait for the subscription so a write right after this call is not missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", key, err)
	}

	current, err := load(ctx)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan T, 1)
	go func() {
		defer close(out)
		defer sub.Close()

		changes := sub.Channel()
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
			case _, ok := <-changes:
				if !ok {
					return
				}
			}

			next, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("[REALTIME] warning - reload of %s failed: %v", key, err)
				ready = false
				continue
			}
			pending, ready = next, true
		}
	}()
	return out, nil
}
