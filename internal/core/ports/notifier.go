package ports

import (
	"context"

	"github.com/hourbank/timebank/internal/core/domain"
)

// Notifier delivers a message synchronously.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// NotificationQueue accepts messages for best-effort background delivery.
// Enqueue never blocks and reports false when the message was dropped.
type NotificationQueue interface {
	Enqueue(n domain.Notification) bool
}
