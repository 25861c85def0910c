package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

const (
	minPasswordLength = 8
	resetTokenBytes   = 32
)

// AuthConfig holds the tunables of the identity service.
type AuthConfig struct {
	JWTSecret string
	// TokenTTL defaults to 24h.
	TokenTTL     time.Duration
	SignupCredit int64
	// PublicBaseURL prefixes the reset link mailed by ForgotPassword.
	PublicBaseURL string
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

// AuthService implements signup, login, password management and profile
// lookups.
type AuthService struct {
	repo     ports.UserRepository
	notifier ports.Notifier
	cfg      AuthConfig
	log      zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, notifier ports.Notifier, cfg AuthConfig, log zerolog.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.SignupCredit < 0 {
		cfg.SignupCredit = 0
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &AuthService{repo: repo, notifier: notifier, cfg: cfg, log: log}
}

func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (string, *domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return "", nil, domain.Validation("name and email are required")
	}
	if err := validatePassword(in.Password, in.PasswordConfirm); err != nil {
		return "", nil, err
	}
	if !domain.ValidField(in.Field) {
		return "", nil, domain.ErrInvalidField
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return "", nil, err
	}

	now := s.cfg.Clock()
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Credit:       s.cfg.SignupCredit,
		Active:       true,
		Bio:          in.Bio,
		City:         in.City,
		Field:        in.Field,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(created)
	if err != nil {
		return "", nil, err
	}
	return token, created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.Validation("please provide email and password")
	}

	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// Authenticate resolves the subject of a token issued at issuedAt.
func (s *AuthService) Authenticate(ctx context.Context, userID string, issuedAt time.Time) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrSessionUserGone
		}
		return nil, err
	}
	if user.PasswordChangedAfter(issuedAt) {
		return nil, domain.ErrSessionExpired
	}
	return user, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// UpdateMe edits the caller's own profile. Role, credit, email and password
// are not reachable from here.
func (s *AuthService) UpdateMe(ctx context.Context, userID string, upd ports.ProfileUpdate) (*domain.User, error) {
	upd.Role = nil
	upd, err := normalizeProfile(upd)
	if err != nil {
		return nil, err
	}
	if upd == (ports.ProfileUpdate{}) {
		return s.repo.FindByID(ctx, userID)
	}
	return s.repo.UpdateProfile(ctx, userID, upd, s.cfg.Clock())
}

func (s *AuthService) Deactivate(ctx context.Context, userID string) error {
	return s.repo.Deactivate(ctx, userID)
}

// UpdatePassword changes the password of a caller who knows the current one
// and returns a fresh token, since older ones stop being accepted.
func (s *AuthService) UpdatePassword(ctx context.Context, in ports.UpdatePasswordInput) (string, *domain.User, error) {
	if in.CurrentPassword == "" || in.Password == "" || in.PasswordConfirm == "" {
		return "", nil, domain.Validation("please specify currentPassword, password and passwordConfirm")
	}

	user, err := s.repo.FindByID(ctx, in.UserID)
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return "", nil, domain.ErrIncorrectPassword
	}

	return s.setPassword(ctx, user.ID, in.Password, in.PasswordConfirm)
}

// ForgotPassword issues a reset token valid for domain.PasswordResetTTL and
// mails it. The token is withdrawn again when the mail cannot be sent.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.Validation("please provide an email")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	expires := s.cfg.Clock().Add(domain.PasswordResetTTL)
	if err := s.repo.SetPasswordReset(ctx, user.ID, hashResetToken(token), expires); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}

	mailErr := s.notifier.Notify(ctx, domain.Notification{
		ID:      uuid.NewString(),
		To:      user.Email,
		Subject: subjectPasswordReset,
		Body:    passwordResetBody(s.cfg.PublicBaseURL, token),
	})
	if mailErr == nil {
		s.log.Info().Str("user_id", user.ID).Msg("password reset token issued")
		return nil
	}

	cause := mailErr
	if err := s.repo.ClearPasswordReset(context.WithoutCancel(ctx), user.ID); err != nil {
		cause = errors.Join(mailErr, fmt.Errorf("withdraw token: %w", err))
	}
	s.log.Error().Err(cause).Str("user_id", user.ID).Msg("password reset mail failed")
	return domain.ErrResetMailFailed.Wrap(cause)
}

// ResetPassword sets a new password for the holder of an unexpired reset
// token and logs them in.
func (s *AuthService) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) (string, *domain.User, error) {
	if in.Token == "" {
		return "", nil, domain.ErrResetTokenInvalid
	}

	user, err := s.repo.FindByResetToken(ctx, hashResetToken(in.Token), s.cfg.Clock())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrResetTokenInvalid
		}
		return "", nil, err
	}

	return s.setPassword(ctx, user.ID, in.Password, in.PasswordConfirm)
}

func (s *AuthService) setPassword(ctx context.Context, userID, password, confirm string) (string, *domain.User, error) {
	if err := validatePassword(password, confirm); err != nil {
		return "", nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return "", nil, err
	}

	updated, err := s.repo.UpdatePassword(ctx, userID, hash, s.cfg.Clock())
	if err != nil {
		return "", nil, err
	}
	s.log.Info().Str("user_id", updated.ID).Msg("password changed")

	token, err := s.generateToken(updated)
	if err != nil {
		return "", nil, err
	}
	return token, updated, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := s.cfg.Clock()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.TokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.cfg.JWTSecret))
}

func validatePassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return domain.Validation("password must be at least 8 characters")
	}
	if password != confirm {
		return domain.ErrPasswordMismatch
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// normalizeProfile trims the name and checks the field and role values.
func normalizeProfile(upd ports.ProfileUpdate) (ports.ProfileUpdate, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return upd, domain.Validation("name cannot be empty")
		}
		upd.Name = &name
	}
	if upd.Field != nil && !domain.ValidField(*upd.Field) {
		return upd, domain.ErrInvalidField
	}
	if upd.Role != nil && !domain.ValidRole(*upd.Role) {
		return upd, domain.Validation("role is either user or admin")
	}
	return upd, nil
}

// newResetToken returns the plain token mailed to the user. Only its hash is
// stored.
func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
