package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/mrlokans/shelfsync/internal/entities"
)

// AddComment stores a new review of bookID.
func (s *Store) AddComment(ctx context.Context, bookID, userID, userName, text string, rating int) (*entities.Comment, error) {
	if verr := s.validator.Validate(text, rating); verr != nil {
		return nil, verr
	}

	userName = strings.TrimSpace(userName)
	if userName == "" {
		userName = anonymousName
	}

	comment := entities.Comment{
		ID:        s.newID(),
		BookID:    s.commentNodeKey(bookID),
		UserID:    userID,
		UserName:  userName,
		Text:      s.reviewText.Sanitize(text),
		Rating:    rating,
		UpdatedAt: s.now().UnixMilli(),
	}
	if err := s.saveComment(ctx, comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// UpdateComment replaces the text and rating of a review written by userID.
func (s *Store) UpdateComment(ctx context.Context, bookID, commentID, userID, text string, rating int) (*entities.Comment, error) {
	if verr := s.validator.Validate(text, rating); verr != nil {
		return nil, verr
	}

	comment, err := s.ownedComment(ctx, bookID, commentID, userID)
	if err != nil {
		return nil, err
	}

	comment.Text = s.reviewText.Sanitize(text)
	comment.Rating = rating
	comment.UpdatedAt = s.now().UnixMilli()
	if err := s.saveComment(ctx, *comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a review written by userID.
func (s *Store) DeleteComment(ctx context.Context, bookID, commentID, userID string) error {
	if _, err := s.ownedComment(ctx, bookID, commentID, userID); err != nil {
		return err
	}

	key := s.commentsKey(bookID)
	if err := s.client.HDel(ctx, key, commentID).Err(); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	s.publish(ctx, key)
	return nil
}

// Comments returns the reviews of bookID, most recently updated first.
func (s *Store) Comments(ctx context.Context, bookID string) ([]entities.Comment, error) {
	raw, err := s.client.HGetAll(ctx, s.commentsKey(bookID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}

	comments := make([]entities.Comment, 0, len(raw))
	for field, value := range raw {
		var c entities.Comment
		if err := json.Unmarshal([]byte(value), &c); err != nil {
			return nil, fmt.Errorf("decode comment %s: %w", field, err)
		}
		comments = append(comments, c)
	}
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].UpdatedAt != comments[j].UpdatedAt {
			return comments[i].UpdatedAt > comments[j].UpdatedAt
		}
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

// ObserveComments streams the reviews of bookID after every change.
func (s *Store) ObserveComments(ctx context.Context, bookID string) (<-chan []entities.Comment, error) {
	return observe(ctx, s, s.commentsKey(bookID), func(ctx context.Context) ([]entities.Comment, error) {
		return s.Comments(ctx, bookID)
	})
}

func (s *Store) ownedComment(ctx context.Context, bookID, commentID, userID string) (*entities.Comment, error) {
	value, err := s.client.HGet(ctx, s.commentsKey(bookID), commentID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load comment: %w", err)
	}

	var comment entities.Comment
	if err := json.Unmarshal([]byte(value), &comment); err != nil {
		return nil, fmt.Errorf("decode comment %s: %w", commentID, err)
	}
	if comment.UserID != userID {
		return nil, ErrNotOwner
	}
	return &comment, nil
}

func (s *Store) saveComment(ctx context.Context, comment entities.Comment) error {
	data, err := json.Marshal(comment)
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}
	key := s.commentsKey(comment.BookID)
	if err := s.client.HSet(ctx, key, comment.ID, data).Err(); err != nil {
		return fmt.Errorf("save comment: %w", err)
	}
	s.publish(ctx, key)
	return nil
}
