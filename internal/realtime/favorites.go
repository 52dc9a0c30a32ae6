package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mrlokans/shelfsync/internal/entities"
)

// ToggleFavorite bookmarks book for userID, or removes the bookmark if it
// exists. It reports whether the book is a favorite afterwards.
func (s *Store) ToggleFavorite(ctx context.Context, userID string, book entities.Book) (bool, error) {
	key := s.favoritesKey(userID)
	field := NodeKey(book.ID)

	removed, err := s.client.HDel(ctx, key, field).Result()
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	if removed > 0 {
		s.publish(ctx, key)
		return false, nil
	}

	fav := entities.Favorite{
		BookID:    field,
		Title:     book.Title,
		UpdatedAt: s.now().UnixMilli(),
	}
	if book.CoverURL != nil {
		fav.CoverURL = *book.CoverURL
	}
	data, err := json.Marshal(fav)
	if err != nil {
		return false, fmt.Errorf("marshal favorite: %w", err)
	}
	if err := s.client.HSet(ctx, key, field, data).Err(); err != nil {
		return false, fmt.Errorf("save favorite: %w", err)
	}

	s.publish(ctx, key)
	return true, nil
}

// RemoveFavorite deletes the bookmark of bookID. It reports whether one
// existed.
func (s *Store) RemoveFavorite(ctx context.Context, userID, bookID string) (bool, error) {
	key := s.favoritesKey(userID)
	removed, err := s.client.HDel(ctx, key, NodeKey(bookID)).Result()
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	if removed > 0 {
		s.publish(ctx, key)
	}
	return removed > 0, nil
}

// Favorites returns the bookmarks of userID, most recent first.
func (s *Store) Favorites(ctx context.Context, userID string) ([]entities.Favorite, error) {
	raw, err := s.client.HGetAll(ctx, s.favoritesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}

	favorites := make([]entities.Favorite, 0, len(raw))
	for field, value := range raw {
		var fav entities.Favorite
		if err := json.Unmarshal([]byte(value), &fav); err != nil {
			return nil, fmt.Errorf("decode favorite %s: %w", field, err)
		}
		favorites = append(favorites, fav)
	}
	sort.SliceStable(favorites, func(i, j int) bool {
		if favorites[i].UpdatedAt != favorites[j].UpdatedAt {
			return favorites[i].UpdatedAt > favorites[j].UpdatedAt
		}
		return favorites[i].BookID < favorites[j].BookID
	})
	return favorites, nil
}

// FavoriteIDs returns the bookmarked book ids of userID in lexical order.
func (s *Store) FavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.client.HKeys(ctx, s.favoritesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load favorite ids: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// IsFavorite reports whether bookID is bookmarked by userID.
func (s *Store) IsFavorite(ctx context.Context, userID, bookID string) (bool, error) {
	return s.client.HExists(ctx, s.favoritesKey(userID), NodeKey(bookID)).Result()
}

// ObserveFavoriteIDs streams the favorite id set of userID after every change.
func (s *Store) ObserveFavoriteIDs(ctx context.Context, userID string) (<-chan []string, error) {
	return observe(ctx, s, s.favoritesKey(userID), func(ctx context.Context) ([]string, error) {
		return s.FavoriteIDs(ctx, userID)
	})
}
