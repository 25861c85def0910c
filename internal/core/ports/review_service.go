package ports

import (
	"context"
	"time"

	"github.com/hourbank/timebank/internal/core/domain"
)

// ReviewView is the public representation of a review.
type ReviewView struct {
	ID        string
	Author    domain.Party
	Subject   domain.Party
	Text      string
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateReviewInput struct {
	CallerID  string
	SubjectID string
	Text      string
	Rating    int
}

// UpdateReviewInput carries a partial edit; nil fields are left unchanged.
type UpdateReviewInput struct {
	CallerID string
	ReviewID string
	Text     *string
	Rating   *int
}

// ListReviewsInput carries the parameters for the public review listing.
type ListReviewsInput struct {
	Rating int
	Page   int
	Limit  int
}

// ListReviewsResult is returned by ListReviews.
type ListReviewsResult struct {
	Items      []ReviewView
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ReviewService defines review use cases.
type ReviewService interface {
	CreateReview(ctx context.Context, in CreateReviewInput) (*ReviewView, error)
	UpdateReview(ctx context.Context, in UpdateReviewInput) (*ReviewView, error)
	GetReview(ctx context.Context, id string) (*ReviewView, error)
	ListReviewsForSubject(ctx context.Context, subjectID string) ([]ReviewView, error)
	ListReviews(ctx context.Context, in ListReviewsInput) (*ListReviewsResult, error)
	DeleteReview(ctx context.Context, id string) error
}
