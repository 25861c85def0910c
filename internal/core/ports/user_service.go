package ports

import (
	"context"

	"github.com/hourbank/timebank/internal/core/domain"
)

// UserProfile is the public view of a member together with their order
// history and the reviews written about them.
type UserProfile struct {
	User           *domain.User
	SentOrders     []OrderView
	ReceivedOrders []OrderView
	Reviews        []ReviewView
}

type ListUsersInput struct {
	Field string
	City  string
	Page  int
	Limit int
}

type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserService is the member directory and its administrative edits.
type UserService interface {
	ListUsers(ctx context.Context, in ListUsersInput) (*ListUsersResult, error)
	GetProfile(ctx context.Context, id string) (*UserProfile, error)
	UpdateUser(ctx context.Context, id string, upd ProfileUpdate) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}
