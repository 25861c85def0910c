package ports

import (
	"context"
	"time"

	"github.com/hourbank/timebank/internal/core/domain"
)

type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
	Bio             string
	City            string
	Field           string
}

// UpdatePasswordInput changes the caller's password given the current one.
type UpdatePasswordInput struct {
	UserID          string
	CurrentPassword string
	Password        string
	PasswordConfirm string
}

// ResetPasswordInput completes a forgotten-password flow.
type ResetPasswordInput struct {
	Token           string
	Password        string
	PasswordConfirm string
}

// AuthService handles account creation, login, passwords and the caller's
// own profile.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdateMe(ctx context.Context, userID string, upd ProfileUpdate) (*domain.User, error)
	Deactivate(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, in UpdatePasswordInput) (string, *domain.User, error)
	// ForgotPassword mails a single-use reset token to the account's address.
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in ResetPasswordInput) (string, *domain.User, error)
	SessionValidator
}

// SessionValidator confirms that a token issued at issuedAt still speaks for
// an active account whose password has not changed since.
type SessionValidator interface {
	Authenticate(ctx context.Context, userID string, issuedAt time.Time) (*domain.User, error)
}
