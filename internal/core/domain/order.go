package domain

import "time"

// OrderStatus represents the lifecycle state of an hour order.
type OrderStatus string

const (
	OrderPendingApproval    OrderStatus = "pending-approval"
	OrderPendingTransaction OrderStatus = "pending-transaction"
	OrderComplete           OrderStatus = "complete"
	OrderCancelled          OrderStatus = "cancelled"
)

// DefaultApprovalWindow is how long an approved order may wait for its
// transaction before it lapses.
const DefaultApprovalWindow = 7 * 24 * time.Hour

// HourPrice is the credit moved by a single completed order.
const HourPrice int64 = 1

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderPendingApproval:    {OrderPendingTransaction, OrderCancelled},
	OrderPendingTransaction: {OrderComplete, OrderCancelled},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPendingApproval, OrderPendingTransaction, OrderComplete, OrderCancelled:
		return true
	}
	return false
}

// Party is the public projection of a user that travels with an order.
type Party struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Order is a request from one user to buy an hour of service from another.
type Order struct {
	ID              string
	From            Party
	To              Party
	Status          OrderStatus
	SendDate        time.Time
	ApproveDate     *time.Time
	RejectDate      *time.Time
	TransactionDate *time.Time
}

// ApprovalExpired reports whether the approval is older than window at now.
// An order approved exactly window ago is still valid.
func (o *Order) ApprovalExpired(now time.Time, window time.Duration) bool {
	if o.ApproveDate == nil {
		return false
	}
	return o.ApproveDate.Add(window).Before(now)
}
