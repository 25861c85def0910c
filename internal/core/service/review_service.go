package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

// ReviewService lets buyers review sellers they have completed an order with.
type ReviewService struct {
	users   ports.UserRepository
	orders  ports.OrderRepository
	reviews ports.ReviewRepository
	now     func() time.Time
	log     zerolog.Logger
}

func NewReviewService(users ports.UserRepository, orders ports.OrderRepository, reviews ports.ReviewRepository, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		users:   users,
		orders:  orders,
		reviews: reviews,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log,
	}
}

// CreateReview records the caller's review of subject. The caller must have
// bought at least one hour from subject and may review them only once.
func (s *ReviewService) CreateReview(ctx context.Context, in ports.CreateReviewInput) (*ports.ReviewView, error) {
	if !domain.ValidRating(in.Rating) {
		return nil, domain.ErrInvalidRating
	}
	if strings.TrimSpace(in.Text) == "" {
		return nil, domain.Validation("review text is required")
	}
	if in.CallerID == in.SubjectID {
		return nil, domain.ErrCannotReview
	}

	author, err := s.lookup(ctx, in.CallerID)
	if err != nil {
		return nil, err
	}
	subject, err := s.lookup(ctx, in.SubjectID)
	if err != nil {
		return nil, err
	}

	completed, err := s.orders.HasCompleted(ctx, author.ID, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	if !completed {
		return nil, domain.ErrCompleteOrderFirst
	}

	exists, err := s.reviews.Exists(ctx, author.ID, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	if exists {
		return nil, domain.ErrAlreadyReviewed
	}

	now := s.now()
	review := &domain.Review{
		Author:    author.Party(),
		Subject:   subject.Party(),
		Text:      strings.TrimSpace(in.Text),
		Rating:    in.Rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.log.Info().Str("review_id", review.ID).Str("author", author.ID).Str("subject", subject.ID).Msg("review created")
	return toReviewView(review), nil
}

// lookup resolves a review party. Missing users make the review impossible
// rather than a 404.
func (s *ReviewService) lookup(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrCannotReview
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	return u, nil
}

// UpdateReview edits text and/or rating of a review owned by the caller.
func (s *ReviewService) UpdateReview(ctx context.Context, in ports.UpdateReviewInput) (*ports.ReviewView, error) {
	review, err := s.reviews.FindByID(ctx, in.ReviewID)
	if err != nil {
		return nil, err
	}
	if review.Author.ID != in.CallerID {
		return nil, domain.ErrNotReviewAuthor
	}
	if in.Rating != nil && !domain.ValidRating(*in.Rating) {
		return nil, domain.ErrInvalidRating
	}
	if in.Text != nil {
		text := strings.TrimSpace(*in.Text)
		if text == "" {
			return nil, domain.Validation("review text cannot be empty")
		}
		in.Text = &text
	}
	if in.Text == nil && in.Rating == nil {
		return toReviewView(review), nil
	}

	updated, err := s.reviews.Update(ctx, review.ID, in.Text, in.Rating, s.now())
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	return toReviewView(updated), nil
}

// DeleteReview removes a review. Access is restricted to admins at the edge.
// Deleting lets the author review the same user again.
func (s *ReviewService) DeleteReview(ctx context.Context, id string) error {
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("review_id", id).Msg("review deleted")
	return nil
}

func (s *ReviewService) GetReview(ctx context.Context, id string) (*ports.ReviewView, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toReviewView(review), nil
}

func (s *ReviewService) ListReviewsForSubject(ctx context.Context, subjectID string) ([]ports.ReviewView, error) {
	reviews, err := s.reviews.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	out := make([]ports.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, *toReviewView(r))
	}
	return out, nil
}

// ListReviews pages through every review, optionally narrowed to one rating.
func (s *ReviewService) ListReviews(ctx context.Context, in ports.ListReviewsInput) (*ports.ListReviewsResult, error) {
	if in.Rating != 0 && !domain.ValidRating(in.Rating) {
		return nil, domain.ErrInvalidRating
	}
	page, limit := pageBounds(in.Page, in.Limit)

	reviews, total, err := s.reviews.List(ctx, ports.ListReviewsFilter{Rating: in.Rating, Page: page, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	items := make([]ports.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		items = append(items, *toReviewView(r))
	}
	return &ports.ListReviewsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func toReviewView(r *domain.Review) *ports.ReviewView {
	return &ports.ReviewView{
		ID:        r.ID,
		Author:    r.Author,
		Subject:   r.Subject,
		Text:      r.Text,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
