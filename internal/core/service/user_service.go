package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

// profileOrdersLimit caps each order list embedded in a public profile.
const profileOrdersLimit = 50

// UserService serves the member directory and administrative user edits.
type UserService struct {
	users   ports.UserRepository
	orders  ports.OrderRepository
	reviews ports.ReviewRepository
	log     zerolog.Logger
}

func NewUserService(users ports.UserRepository, orders ports.OrderRepository, reviews ports.ReviewRepository, log zerolog.Logger) *UserService {
	return &UserService{users: users, orders: orders, reviews: reviews, log: log}
}

func (s *UserService) ListUsers(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	if !domain.ValidField(in.Field) {
		return nil, domain.ErrInvalidField
	}
	page, limit := pageBounds(in.Page, in.Limit)

	users, total, err := s.users.List(ctx, ports.ListUsersFilter{Field: in.Field, City: in.City, Page: page, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &ports.ListUsersResult{
		Items:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// GetProfile returns a member with the orders they sent and received and the
// reviews written about them. The three lookups run concurrently.
func (s *UserService) GetProfile(ctx context.Context, id string) (*ports.UserProfile, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		sent, received []*domain.Order
		reviews        []*domain.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sent, _, err = s.orders.List(gctx, ports.ListOrdersFilter{FromID: id, Page: 1, Limit: profileOrdersLimit})
		return err
	})
	g.Go(func() error {
		var err error
		received, _, err = s.orders.List(gctx, ports.ListOrdersFilter{ToID: id, Page: 1, Limit: profileOrdersLimit})
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = s.reviews.ListBySubject(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	profile := &ports.UserProfile{
		User:           user,
		SentOrders:     make([]ports.OrderView, 0, len(sent)),
		ReceivedOrders: make([]ports.OrderView, 0, len(received)),
		Reviews:        make([]ports.ReviewView, 0, len(reviews)),
	}
	for _, o := range sent {
		profile.SentOrders = append(profile.SentOrders, *toOrderView(o))
	}
	for _, o := range received {
		profile.ReceivedOrders = append(profile.ReceivedOrders, *toOrderView(o))
	}
	for _, r := range reviews {
		profile.Reviews = append(profile.Reviews, *toReviewView(r))
	}
	return profile, nil
}

// UpdateUser is the administrative edit. It may change the role but never
// the credit balance, which only moves through order transactions.
func (s *UserService) UpdateUser(ctx context.Context, id string, upd ports.ProfileUpdate) (*domain.User, error) {
	upd, err := normalizeProfile(upd)
	if err != nil {
		return nil, err
	}
	if upd == (ports.ProfileUpdate{}) {
		return s.users.FindByID(ctx, id)
	}

	updated, err := s.users.UpdateProfile(ctx, id, upd, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", id).Str("role", updated.Role).Msg("user updated by admin")
	return updated, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}
