package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/shelfsync/internal/entities"
)

func setupTestRedis(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewStore("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := int64(1_700_000_000_000)
	store.now = func() time.Time {
		clock++
		return time.UnixMilli(clock)
	}
	seq := 0
	store.newID = func() string {
		seq++
		return fmt.Sprintf("c%03d", seq)
	}
	return store, mr
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "observe channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emission")
	}
	var zero T
	return zero
}

func cover(url string) *string { return &url }

func TestNewStore_BadURL(t *testing.T) {
	_, err := NewStore("not a url")
	assert.Error(t, err)
}

func TestNewStore_Ping(t *testing.T) {
	store, _ := setupTestRedis(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestToggleFavorite(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()
	book := entities.Book{ID: "OL1W", Title: "Dune", CoverURL: cover("https://covers/1.jpg")}

	on, err := store.ToggleFavorite(ctx, "user-1", book)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, mr.Exists("users:user-1:favorites"))

	favs, err := store.Favorites(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "OL1W", favs[0].BookID)
	assert.Equal(t, "Dune", favs[0].Title)
	assert.Equal(t, "https://covers/1.jpg", favs[0].CoverURL)

	isFav, err := store.IsFavorite(ctx, "user-1", "OL1W")
	require.NoError(t, err)
	assert.True(t, isFav)

	on, err = store.ToggleFavorite(ctx, "user-1", book)
	require.NoError(t, err)
	assert.False(t, on)

	ids, err := store.FavoriteIDs(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRemoveFavorite(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.ToggleFavorite(ctx, "user-1", entities.Book{ID: "OL1W", Title: "Dune"})
	require.NoError(t, err)

	removed, err := store.RemoveFavorite(ctx, "user-1", "OL1W")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.RemoveFavorite(ctx, "user-1", "OL1W")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFavorites_OrderAndIsolation(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	for _, id := range []string{"B", "A", "C"} {
		_, err := store.ToggleFavorite(ctx, "user-1", entities.Book{ID: id, Title: id})
		require.NoError(t, err)
	}
	_, err := store.ToggleFavorite(ctx, "user-2", entities.Book{ID: "Z", Title: "Z"})
	require.NoError(t, err)

	favs, err := store.Favorites(ctx, "user-1")
	require.NoError(t, err)
	got := make([]string, len(favs))
	for i, f := range favs {
		got[i] = f.BookID
	}
	assert.Equal(t, []string{"C", "A", "B"}, got)

	ids, err := store.FavoriteIDs(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, ids)
}

func TestToggleFavorite_SanitizesKeys(t *testing.T) {
	store, mr := setupTestRedis(t)

	_, err := store.ToggleFavorite(context.Background(), "a.b/c", entities.Book{ID: "works/OL1.W", Title: "T"})
	require.NoError(t, err)
	assert.True(t, mr.Exists("users:a_b_c:favorites"))
	assert.Equal(t, []string{"works_OL1_W"}, mustHKeys(t, mr, "users:a_b_c:favorites"))
}

func mustHKeys(t *testing.T, mr *miniredis.Miniredis, key string) []string {
	t.Helper()
	keys, err := mr.HKeys(key)
	require.NoError(t, err)
	return keys
}

func TestObserveFavoriteIDs(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.ObserveFavoriteIDs(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, receive(t, ch))

	_, err = store.ToggleFavorite(ctx, "user-1", entities.Book{ID: "OL1W", Title: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, []string{"OL1W"}, receive(t, ch))

	cancel()
	select {
	case _, ok := <-ch:
		for ok {
			_, ok = <-ch
		}
	case <-time.After(2 * time.Second):
		t.Fatal("observe channel not closed after cancel")
	}
}

func TestAddComment(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	c, err := store.AddComment(ctx, "OL1W", "user-1", "  ", "Loved it!!! A classic <3", 5)
	require.NoError(t, err)
	assert.Equal(t, "c001", c.ID)
	assert.Equal(t, "OL1W", c.BookID)
	assert.Equal(t, "Anonymous", c.UserName)
	assert.Equal(t, "Loved it A classic 3", c.Text)
	assert.Equal(t, 5, c.Rating)

	comments, err := store.Comments(ctx, "OL1W")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, *c, comments[0])
}

func TestAddComment_CapsText(t *testing.T) {
	store, _ := setupTestRedis(t)

	c, err := store.AddComment(context.Background(), "OL1W", "user-1", "Ann", strings.Repeat("word ", 200), 4)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(c.Text)), MaxReviewLength)
	assert.Equal(t, "Ann", c.UserName)
}

func TestAddComment_Invalid(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.AddComment(ctx, "OL1W", "user-1", "Ann", "too short", 3)
	require.ErrorIs(t, err, ErrInvalidReview)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.TextError)
	assert.Empty(t, verr.RatingError)

	_, err = store.AddComment(ctx, "OL1W", "user-1", "Ann", "long enough review", 6)
	require.ErrorIs(t, err, ErrInvalidReview)

	comments, err := store.Comments(ctx, "OL1W")
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestComments_SortedNewestFirst(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	first, err := store.AddComment(ctx, "OL1W", "user-1", "Ann", "first review text", 3)
	require.NoError(t, err)
	second, err := store.AddComment(ctx, "OL1W", "user-2", "Bob", "second review text", 4)
	require.NoError(t, err)

	comments, err := store.Comments(ctx, "OL1W")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, second.ID, comments[0].ID)

	_, err = store.UpdateComment(ctx, "OL1W", first.ID, "user-1", "first review edited", 5)
	require.NoError(t, err)

	comments, err = store.Comments(ctx, "OL1W")
	require.NoError(t, err)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, "first review edited", comments[0].Text)
	assert.Equal(t, 5, comments[0].Rating)
}

func TestUpdateAndDeleteComment_OwnerOnly(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	c, err := store.AddComment(ctx, "OL1W", "user-1", "Ann", "a solid review", 4)
	require.NoError(t, err)

	_, err = store.UpdateComment(ctx, "OL1W", c.ID, "user-2", "hijacked review", 1)
	assert.ErrorIs(t, err, ErrNotOwner)

	err = store.DeleteComment(ctx, "OL1W", c.ID, "user-2")
	assert.ErrorIs(t, err, ErrNotOwner)

	err = store.DeleteComment(ctx, "OL1W", "missing", "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.DeleteComment(ctx, "OL1W", c.ID, "user-1"))
	comments, err := store.Comments(ctx, "OL1W")
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestObserveComments(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.ObserveComments(ctx, "OL1W")
	require.NoError(t, err)
	assert.Empty(t, receive(t, ch))

	_, err = store.AddComment(ctx, "OL1W", "user-1", "Ann", "pushed review text", 5)
	require.NoError(t, err)

	got := receive(t, ch)
	require.Len(t, got, 1)
	assert.Equal(t, "pushed review text", got[0].Text)
}
