package ports

import (
	"context"
	"time"

	"github.com/hourbank/timebank/internal/core/domain"
)

// UserRepository is the identity store.
type UserRepository interface {
	// Create inserts a new user and returns it with its assigned ID.
	// Returns domain.ErrUserExists when the email is already registered.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByID returns an active user or domain.ErrUserNotFound.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail returns an active user, including its password hash.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns a page of active members and the total match count.
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	// UpdateProfile applies the non-nil fields of upd to an active user and
	// returns the updated user.
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate, at time.Time) (*domain.User, error)
	// UpdatePassword stores a new hash, stamps the change time and clears
	// any pending reset token.
	UpdatePassword(ctx context.Context, id, hash string, at time.Time) (*domain.User, error)
	// SetPasswordReset records the hash of an emailed reset token.
	SetPasswordReset(ctx context.Context, id, tokenHash string, expires time.Time) error
	ClearPasswordReset(ctx context.Context, id string) error
	// FindByResetToken returns the active user holding tokenHash, provided it
	// has not expired at now.
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	Deactivate(ctx context.Context, id string) error
	// Delete removes the user record. Orders and reviews keep their party
	// snapshot.
	Delete(ctx context.Context, id string) error
}

// ProfileUpdate holds the editable profile fields. Nil means unchanged.
// Role is only ever set by administrators.
type ProfileUpdate struct {
	Name  *string
	Bio   *string
	City  *string
	Field *string
	Role  *string
}

// ListUsersFilter narrows the member directory.
type ListUsersFilter struct {
	Field string // optional
	City  string // optional
	Page  int    // 1-based
	Limit int
}
