package handler

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hourbank/timebank/internal/api/middleware"
	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

type stubAuthService struct {
	signupFn     func(ctx context.Context, in ports.SignupInput) (string, *domain.User, error)
	loginFn      func(ctx context.Context, email, password string) (string, *domain.User, error)
	meFn         func(ctx context.Context, userID string) (*domain.User, error)
	updateMeFn   func(ctx context.Context, userID string, upd ports.ProfileUpdate) (*domain.User, error)
	deactivateFn func(ctx context.Context, userID string) error

	updatePasswordFn func(ctx context.Context, in ports.UpdatePasswordInput) (string, *domain.User, error)
	forgotFn         func(ctx context.Context, email string) error
	resetFn          func(ctx context.Context, in ports.ResetPasswordInput) (string, *domain.User, error)
}

func (s *stubAuthService) Signup(ctx context.Context, in ports.SignupInput) (string, *domain.User, error) {
	return s.signupFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

func (s *stubAuthService) UpdateMe(ctx context.Context, userID string, upd ports.ProfileUpdate) (*domain.User, error) {
	return s.updateMeFn(ctx, userID, upd)
}

func (s *stubAuthService) Deactivate(ctx context.Context, userID string) error {
	return s.deactivateFn(ctx, userID)
}

func (s *stubAuthService) UpdatePassword(ctx context.Context, in ports.UpdatePasswordInput) (string, *domain.User, error) {
	return s.updatePasswordFn(ctx, in)
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.forgotFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) (string, *domain.User, error) {
	return s.resetFn(ctx, in)
}

func (s *stubAuthService) Authenticate(ctx context.Context, userID string, _ time.Time) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

type stubUserService struct {
	listFn   func(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error)
	getFn    func(ctx context.Context, id string) (*ports.UserProfile, error)
	updateFn func(ctx context.Context, id string, upd ports.ProfileUpdate) (*domain.User, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubUserService) ListUsers(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	return s.listFn(ctx, in)
}

func (s *stubUserService) GetProfile(ctx context.Context, id string) (*ports.UserProfile, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) UpdateUser(ctx context.Context, id string, upd ports.ProfileUpdate) (*domain.User, error) {
	return s.updateFn(ctx, id, upd)
}

func (s *stubUserService) DeleteUser(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

type stubOrderService struct {
	sendFn     func(ctx context.Context, in ports.SendOrderInput) (*ports.OrderView, error)
	approveFn  func(ctx context.Context, in ports.RespondOrderInput) (*ports.OrderView, error)
	rejectFn   func(ctx context.Context, in ports.RespondOrderInput) (*ports.OrderView, error)
	transactFn func(ctx context.Context, callerID, orderID string) (*ports.OrderView, error)
	getFn      func(ctx context.Context, id string) (*ports.OrderView, error)
	listFn     func(ctx context.Context, in ports.ListOrdersInput) (*ports.ListOrdersResult, error)
}

func (s *stubOrderService) Send(ctx context.Context, in ports.SendOrderInput) (*ports.OrderView, error) {
	return s.sendFn(ctx, in)
}

func (s *stubOrderService) Approve(ctx context.Context, in ports.RespondOrderInput) (*ports.OrderView, error) {
	return s.approveFn(ctx, in)
}

func (s *stubOrderService) Reject(ctx context.Context, in ports.RespondOrderInput) (*ports.OrderView, error) {
	return s.rejectFn(ctx, in)
}

func (s *stubOrderService) Transact(ctx context.Context, callerID, orderID string) (*ports.OrderView, error) {
	return s.transactFn(ctx, callerID, orderID)
}

func (s *stubOrderService) GetOrder(ctx context.Context, id string) (*ports.OrderView, error) {
	return s.getFn(ctx, id)
}

func (s *stubOrderService) ListOrders(ctx context.Context, in ports.ListOrdersInput) (*ports.ListOrdersResult, error) {
	return s.listFn(ctx, in)
}

type stubReviewService struct {
	createFn func(ctx context.Context, in ports.CreateReviewInput) (*ports.ReviewView, error)
	updateFn func(ctx context.Context, in ports.UpdateReviewInput) (*ports.ReviewView, error)
	getFn    func(ctx context.Context, id string) (*ports.ReviewView, error)
	listFn   func(ctx context.Context, subjectID string) ([]ports.ReviewView, error)
	deleteFn func(ctx context.Context, id string) error

	listAllFn func(ctx context.Context, in ports.ListReviewsInput) (*ports.ListReviewsResult, error)
}

func (s *stubReviewService) CreateReview(ctx context.Context, in ports.CreateReviewInput) (*ports.ReviewView, error) {
	return s.createFn(ctx, in)
}

func (s *stubReviewService) UpdateReview(ctx context.Context, in ports.UpdateReviewInput) (*ports.ReviewView, error) {
	return s.updateFn(ctx, in)
}

func (s *stubReviewService) GetReview(ctx context.Context, id string) (*ports.ReviewView, error) {
	return s.getFn(ctx, id)
}

func (s *stubReviewService) DeleteReview(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *stubReviewService) ListReviewsForSubject(ctx context.Context, subjectID string) ([]ports.ReviewView, error) {
	return s.listFn(ctx, subjectID)
}

func (s *stubReviewService) ListReviews(ctx context.Context, in ports.ListReviewsInput) (*ports.ListReviewsResult, error) {
	return s.listAllFn(ctx, in)
}

// newContext builds an echo context for a JSON request. An empty caller
// leaves the context unauthenticated.
func newContext(method, target, body, caller string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if caller != "" {
		c.Set(middleware.ContextUserID, caller)
		c.Set(middleware.ContextRole, domain.RoleUser)
	}
	return c, rec
}

func withParam(c echo.Context, value string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(value)
	return c
}

func expectHTTPStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError %d, got %v", code, err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d", code, he.Code)
	}
}

func expectKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}
