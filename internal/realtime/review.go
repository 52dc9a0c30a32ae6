package realtime

import (
	"strings"
	"unicode/utf8"
)

const (
	MinReviewLength = 10
	MaxReviewLength = 400
	MinRating       = 1
	MaxRating       = 5

	anonymousName = "Anonymous"
)

// ReviewValidator checks review input before it is stored.
type ReviewValidator struct{}

// ValidationError lists what is wrong with a review. It matches
// ErrInvalidReview.
type ValidationError struct {
	TextError   string `json:"text_error,omitempty"`
	RatingError string `json:"rating_error,omitempty"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, 2)
	if e.TextError != "" {
		parts = append(parts, e.TextError)
	}
	if e.RatingError != "" {
		parts = append(parts, e.RatingError)
	}
	return ErrInvalidReview.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidReview
}

// Validate returns nil for a valid review.
func (ReviewValidator) Validate(text string, rating int) *ValidationError {
	var verr ValidationError
	if utf8.RuneCountInString(strings.TrimSpace(text)) < MinReviewLength {
		verr.TextError = "Review text must be at least 10 characters"
	}
	if rating < MinRating || rating > MaxRating {
		verr.RatingError = "Rating must be between 1 and 5"
	}
	if verr.TextError == "" && verr.RatingError == "" {
		return nil
	}
	return &verr
}
