package ports

import (
	"context"
	"time"

	"github.com/hourbank/timebank/internal/core/domain"
)

// ReviewRepository persists reviews. At most one review may exist per
// (author, subject) pair.
type ReviewRepository interface {
	// Create inserts the review and sets its ID. Returns
	// domain.ErrAlreadyReviewed when the pair already has a review.
	Create(ctx context.Context, review *domain.Review) error
	FindByID(ctx context.Context, id string) (*domain.Review, error)
	Exists(ctx context.Context, authorID, subjectID string) (bool, error)
	// Update writes the non-nil fields and returns the updated review.
	Update(ctx context.Context, id string, text *string, rating *int, at time.Time) (*domain.Review, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*domain.Review, error)
	// List returns a page of reviews, newest first, and the total match count.
	List(ctx context.Context, filter ListReviewsFilter) ([]*domain.Review, int64, error)
	// Delete removes a review or returns domain.ErrReviewNotFound.
	Delete(ctx context.Context, id string) error
}

// ListReviewsFilter narrows the public review listing.
type ListReviewsFilter struct {
	Rating int // optional, exact match
	Page   int // 1-based
	Limit  int
}
