package ports

import (
	"context"
	"time"

	"github.com/hourbank/timebank/internal/core/domain"
)

// OrderUpdate describes the fields written alongside a status change.
// Nil dates are left untouched.
type OrderUpdate struct {
	Status           domain.OrderStatus
	ApproveDate      *time.Time
	RejectDate       *time.Time
	TransactionDate  *time.Time
	ClearApproveDate bool
}

// ListOrdersFilter carries the query parameters for order listings.
type ListOrdersFilter struct {
	Status string // optional
	FromID string // optional, the buyer
	ToID   string // optional, the seller
	Page   int    // 1-based
	Limit  int
}

// OrderRepository is the order store.
type OrderRepository interface {
	// Create inserts the order and sets its ID.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
	// UpdateStatus applies update only while the order is still in expected
	// and returns the updated order. A status mismatch yields
	// domain.ErrInvalidTransition, a missing order domain.ErrOrderNotFound.
	UpdateStatus(ctx context.Context, id string, expected domain.OrderStatus, update OrderUpdate) (*domain.Order, error)
	// HasCompleted reports whether fromID bought at least one hour from toID.
	HasCompleted(ctx context.Context, fromID, toID string) (bool, error)
	List(ctx context.Context, filter ListOrdersFilter) ([]*domain.Order, int64, error)
	// ListApprovedBefore returns pending-transaction orders approved before cutoff.
	ListApprovedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Order, error)
}
