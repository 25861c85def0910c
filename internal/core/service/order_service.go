package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

const expiryBatchSize = 200

// OrderConfig holds the tunables of the order engine.
type OrderConfig struct {
	// PublicBaseURL prefixes the action links embedded in notifications.
	PublicBaseURL string
	// ApprovalWindow defaults to domain.DefaultApprovalWindow.
	ApprovalWindow time.Duration
	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

// OrderService runs the send, approve/reject, transact lifecycle.
type OrderService struct {
	users    ports.UserRepository
	orders   ports.OrderRepository
	transfer ports.CreditTransfer
	notifier ports.Notifier
	outbox   ports.NotificationQueue
	cfg      OrderConfig
	log      zerolog.Logger
}

func NewOrderService(
	users ports.UserRepository,
	orders ports.OrderRepository,
	transfer ports.CreditTransfer,
	notifier ports.Notifier,
	outbox ports.NotificationQueue,
	cfg OrderConfig,
	log zerolog.Logger,
) *OrderService {
	if cfg.ApprovalWindow <= 0 {
		cfg.ApprovalWindow = domain.DefaultApprovalWindow
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &OrderService{
		users:    users,
		orders:   orders,
		transfer: transfer,
		notifier: notifier,
		outbox:   outbox,
		cfg:      cfg,
		log:      log,
	}
}

// Send creates a pending-approval order from the caller to the target user
// and notifies the target. Credit is checked but not reserved.
func (s *OrderService) Send(ctx context.Context, in ports.SendOrderInput) (*ports.OrderView, error) {
	if in.CallerID == in.TargetID {
		return nil, domain.ErrSelfOrder
	}

	caller, err := s.users.FindByID(ctx, in.CallerID)
	if err != nil {
		return nil, fmt.Errorf("send order: caller: %w", err)
	}
	target, err := s.users.FindByID(ctx, in.TargetID)
	if err != nil {
		return nil, fmt.Errorf("send order: target: %w", err)
	}
	if !caller.CanAffordHour() {
		return nil, domain.ErrInsufficientCredit
	}

	order := &domain.Order{
		From:     caller.Party(),
		To:       target.Party(),
		Status:   domain.OrderPendingApproval,
		SendDate: s.cfg.Clock(),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("send order: create: %w", err)
	}

	n := domain.Notification{
		ID:      uuid.NewString(),
		To:      target.Email,
		Subject: subjectOrderReceived,
		Body:    orderReceivedBody(s.cfg.PublicBaseURL, order, in.Message),
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID).Msg("order notification failed, removing order")
		if delErr := s.orders.Delete(context.WithoutCancel(ctx), order.ID); delErr != nil {
			s.log.Warn().Err(delErr).Str("order_id", order.ID).Msg("failed to remove unnotified order")
		}
		return nil, domain.ErrNotificationFailed
	}

	s.log.Info().
		Str("order_id", order.ID).
		Str("from", order.From.ID).
		Str("to", order.To.ID).
		Msg("order sent")

	return toOrderView(order), nil
}

// Approve moves a pending-approval order to pending-transaction.
func (s *OrderService) Approve(ctx context.Context, in ports.RespondOrderInput) (*ports.OrderView, error) {
	return s.respond(ctx, in, true)
}

// Reject cancels a pending-approval order.
func (s *OrderService) Reject(ctx context.Context, in ports.RespondOrderInput) (*ports.OrderView, error) {
	return s.respond(ctx, in, false)
}

func (s *OrderService) respond(ctx context.Context, in ports.RespondOrderInput, approve bool) (*ports.OrderView, error) {
	action := "reject"
	if approve {
		action = "approve"
	}

	order, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%s order: %w", action, err)
	}
	if order.To.ID != in.CallerID {
		return nil, domain.ErrNotOrderRecipient
	}
	if order.Status != domain.OrderPendingApproval {
		return nil, fmt.Errorf("%s order: %w (status %s)", action, domain.ErrInvalidTransition, order.Status)
	}
	if err := s.activeCaller(ctx, in.CallerID); err != nil {
		return nil, fmt.Errorf("%s order: %w", action, err)
	}

	now := s.cfg.Clock()
	update := ports.OrderUpdate{Status: domain.OrderCancelled, RejectDate: &now}
	if approve {
		update = ports.OrderUpdate{Status: domain.OrderPendingTransaction, ApproveDate: &now}
	}

	updated, err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderPendingApproval, update)
	if err != nil {
		return nil, fmt.Errorf("%s order: %w", action, err)
	}

	s.log.Info().Str("order_id", updated.ID).Str("status", string(updated.Status)).Msg("order " + action + "d")

	if approve {
		s.notifyLater(ctx, updated.From.ID, subjectOrderApproved, orderApprovedBody(s.cfg.PublicBaseURL, updated, in.Message))
	} else {
		s.notifyLater(ctx, updated.From.ID, subjectOrderRejected, orderRejectedBody(updated, in.Message))
	}

	return toOrderView(updated), nil
}

// Transact settles an approved order by moving one hour of credit from the
// buyer to the seller. Approvals older than the window are cancelled instead.
func (s *OrderService) Transact(ctx context.Context, callerID, orderID string) (*ports.OrderView, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("transact order: %w", err)
	}
	if order.From.ID != callerID {
		return nil, domain.ErrNotOrderSender
	}
	if order.Status != domain.OrderPendingTransaction {
		return nil, fmt.Errorf("transact order: %w (status %s)", domain.ErrInvalidTransition, order.Status)
	}
	if err := s.activeCaller(ctx, callerID); err != nil {
		return nil, fmt.Errorf("transact order: %w", err)
	}
	if _, err := s.users.FindByID(ctx, order.To.ID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrCounterpartyNotFound
		}
		return nil, fmt.Errorf("transact order: counterparty: %w", err)
	}

	now := s.cfg.Clock()
	if order.ApprovalExpired(now, s.cfg.ApprovalWindow) {
		if err := s.expire(ctx, order); err != nil {
			return nil, fmt.Errorf("transact order: %w", err)
		}
		return nil, domain.ErrApprovalExpired
	}

	if err := s.transfer.Transfer(ctx, order.ID, order.From.ID, order.To.ID, now); err != nil {
		if de, ok := domain.AsError(err); ok && de.Kind != domain.KindInternal {
			return nil, fmt.Errorf("transact order: %w", err)
		}
		s.log.Error().
			Err(err).
			Str("order_id", order.ID).
			Time("at", now).
			Msg("credit transfer failed")
		return nil, domain.ErrTransferFailed
	}

	order.Status = domain.OrderComplete
	order.TransactionDate = &now

	s.log.Info().
		Str("order_id", order.ID).
		Str("from", order.From.ID).
		Str("to", order.To.ID).
		Msg("order transacted")

	return toOrderView(order), nil
}

// activeCaller fails when the caller's account was deactivated or deleted
// after their token was issued.
func (s *OrderService) activeCaller(ctx context.Context, id string) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrSessionUserGone
		}
		return err
	}
	return nil
}

// expire cancels an approved order and clears its approval date.
func (s *OrderService) expire(ctx context.Context, order *domain.Order) error {
	updated, err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderPendingTransaction, ports.OrderUpdate{
		Status:           domain.OrderCancelled,
		ClearApproveDate: true,
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("order_id", updated.ID).Msg("order approval expired")
	s.notifyLater(ctx, updated.From.ID, subjectOrderExpired, orderExpiredBody(updated))
	return nil
}

// ExpireOverdue cancels every approved order whose window lapsed before now
// and returns how many were cancelled. Orders that changed state in the
// meantime are skipped.
func (s *OrderService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.orders.ListApprovedBefore(ctx, now.Add(-s.cfg.ApprovalWindow), expiryBatchSize)
	if err != nil {
		return 0, fmt.Errorf("expire overdue: %w", err)
	}

	expired := 0
	for _, order := range overdue {
		if err := s.expire(ctx, order); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrOrderNotFound) {
				continue
			}
			return expired, fmt.Errorf("expire overdue: order %s: %w", order.ID, err)
		}
		expired++
	}
	return expired, nil
}

// GetOrder returns a single order.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*ports.OrderView, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toOrderView(order), nil
}

// ListOrders returns a page of orders, optionally filtered by status.
func (s *OrderService) ListOrders(ctx context.Context, in ports.ListOrdersInput) (*ports.ListOrdersResult, error) {
	if in.Status != "" && !domain.OrderStatus(in.Status).Valid() {
		return nil, domain.Validation("status must be one of: pending-approval, pending-transaction, complete, cancelled")
	}

	page, limit := pageBounds(in.Page, in.Limit)

	orders, total, err := s.orders.List(ctx, ports.ListOrdersFilter{Status: in.Status, Page: page, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	items := make([]ports.OrderView, 0, len(orders))
	for _, o := range orders {
		items = append(items, *toOrderView(o))
	}

	return &ports.ListOrdersResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// notifyLater hands a message for userID to the background queue. Lookup or
// queueing failures are logged and otherwise ignored.
func (s *OrderService) notifyLater(ctx context.Context, userID, subject, body string) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("skipping notification, recipient unavailable")
		return
	}

	n := domain.Notification{ID: uuid.NewString(), To: user.Email, Subject: subject, Body: body}
	if !s.outbox.Enqueue(n) {
		s.log.Warn().Str("user_id", userID).Str("subject", subject).Msg("notification dropped")
	}
}

func toOrderView(o *domain.Order) *ports.OrderView {
	return &ports.OrderView{
		ID:              o.ID,
		From:            o.From,
		To:              o.To,
		Status:          string(o.Status),
		SendDate:        o.SendDate,
		ApproveDate:     o.ApproveDate,
		RejectDate:      o.RejectDate,
		TransactionDate: o.TransactionDate,
	}
}
