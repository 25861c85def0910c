package ports

import (
	"context"
	"time"

	"github.com/hourbank/timebank/internal/core/domain"
)

// OrderView is the only shape in which an order leaves the engine. Parties
// carry id and name, nothing else.
type OrderView struct {
	ID              string
	From            domain.Party
	To              domain.Party
	Status          string
	SendDate        time.Time
	ApproveDate     *time.Time
	RejectDate      *time.Time
	TransactionDate *time.Time
}

// SendOrderInput carries the data needed to order an hour from another user.
type SendOrderInput struct {
	CallerID string
	TargetID string
	Message  string
}

// RespondOrderInput carries an approve or reject decision.
type RespondOrderInput struct {
	CallerID string
	OrderID  string
	Message  string
}

// ListOrdersInput carries the parameters for the admin list endpoint.
type ListOrdersInput struct {
	Status string
	Page   int
	Limit  int
}

// ListOrdersResult is returned by ListOrders.
type ListOrdersResult struct {
	Items      []OrderView
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// OrderService defines the order lifecycle use cases.
type OrderService interface {
	Send(ctx context.Context, in SendOrderInput) (*OrderView, error)
	Approve(ctx context.Context, in RespondOrderInput) (*OrderView, error)
	Reject(ctx context.Context, in RespondOrderInput) (*OrderView, error)
	Transact(ctx context.Context, callerID, orderID string) (*OrderView, error)
	GetOrder(ctx context.Context, id string) (*OrderView, error)
	ListOrders(ctx context.Context, in ListOrdersInput) (*ListOrdersResult, error)
}

// OrderExpirer cancels approved orders whose transaction window has lapsed.
type OrderExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}
