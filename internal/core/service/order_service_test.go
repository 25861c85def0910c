package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

type orderFixture struct {
	store    *memStore
	orders   *stubOrderRepo
	users    *stubUserRepo
	transfer *stubTransfer
	notifier *stubNotifier
	queue    *stubQueue
	now      time.Time
	svc      *OrderService
}

func newOrderFixture() *orderFixture {
	store := newMemStore()
	f := &orderFixture{
		store:    store,
		orders:   &stubOrderRepo{store: store},
		users:    &stubUserRepo{store: store},
		transfer: &stubTransfer{store: store},
		notifier: &stubNotifier{},
		queue:    &stubQueue{},
		now:      time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewOrderService(f.users, f.orders, f.transfer, f.notifier, f.queue, OrderConfig{
		PublicBaseURL: "https://hour-bank.test",
		Clock:         func() time.Time { return f.now },
	}, discardLogger)
	return f
}

func (f *orderFixture) approvedOrder(t *testing.T, fromID, toID string) *ports.OrderView {
	t.Helper()
	ctx := context.Background()
	sent, err := f.svc.Send(ctx, ports.SendOrderInput{CallerID: fromID, TargetID: toID})
	require.NoError(t, err)
	approved, err := f.svc.Approve(ctx, ports.RespondOrderInput{CallerID: toID, OrderID: sent.ID})
	require.NoError(t, err)
	return approved
}

// ---------------------------------------------------------------------------
// Full lifecycle
// ---------------------------------------------------------------------------

func TestOrderService_HappyPath(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 2)
	f.store.addUser("bob", "Bob", 0)
	ctx := context.Background()

	sent, err := f.svc.Send(ctx, ports.SendOrderInput{CallerID: "alice", TargetID: "bob", Message: "Guitar lesson?"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderPendingApproval), sent.Status)
	assert.Equal(t, domain.Party{ID: "alice", Name: "Alice"}, sent.From)
	assert.Equal(t, domain.Party{ID: "bob", Name: "Bob"}, sent.To)
	assert.Equal(t, f.now, sent.SendDate)
	assert.Equal(t, int64(2), f.store.credit("alice"), "credit is not reserved at send")

	require.Len(t, f.notifier.sent, 1)
	msg := f.notifier.sent[0]
	assert.Equal(t, "bob@example.com", msg.To)
	assert.Equal(t, subjectOrderReceived, msg.Subject)
	assert.Contains(t, msg.Body, "Alice wants to book an hour of service.")
	assert.Contains(t, msg.Body, "Personal message: Guitar lesson?")
	assert.Contains(t, msg.Body, "https://hour-bank.test/api/v1/orders/approve/"+sent.ID)
	assert.Contains(t, msg.Body, "https://hour-bank.test/api/v1/orders/reject/"+sent.ID)

	f.now = f.now.Add(time.Hour)
	approved, err := f.svc.Approve(ctx, ports.RespondOrderInput{CallerID: "bob", OrderID: sent.ID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderPendingTransaction), approved.Status)
	require.NotNil(t, approved.ApproveDate)
	assert.Equal(t, f.now, *approved.ApproveDate)

	require.Len(t, f.queue.queued, 1)
	assert.Equal(t, "alice@example.com", f.queue.queued[0].To)
	assert.Contains(t, f.queue.queued[0].Body, "/api/v1/orders/transact/"+sent.ID)

	f.now = f.now.Add(24 * time.Hour)
	done, err := f.svc.Transact(ctx, "alice", sent.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderComplete), done.Status)
	require.NotNil(t, done.TransactionDate)
	assert.Equal(t, int64(1), f.store.credit("alice"))
	assert.Equal(t, int64(1), f.store.credit("bob"))

	_, err = f.svc.Transact(ctx, "alice", sent.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(1), f.store.credit("alice"))
	assert.Equal(t, int64(1), f.store.credit("bob"))
}

// ---------------------------------------------------------------------------
// Send
// ---------------------------------------------------------------------------

func TestOrderService_Send_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		caller string
		target string
		want   error
	}{
		{"self order", "alice", "alice", domain.ErrSelfOrder},
		{"zero credit", "bob", "alice", domain.ErrInsufficientCredit},
		{"unknown target", "alice", "nobody", domain.ErrUserNotFound},
		{"unknown caller", "ghost", "alice", domain.ErrUserNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newOrderFixture()
			f.store.addUser("alice", "Alice", 2)
			f.store.addUser("bob", "Bob", 0)

			_, err := f.svc.Send(context.Background(), ports.SendOrderInput{CallerID: tc.caller, TargetID: tc.target})
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.store.orders, "no order may be created")
			assert.Empty(t, f.notifier.sent)
		})
	}
}

func TestOrderService_Send_NotificationFailureRemovesOrder(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 1)
	f.store.addUser("bob", "Bob", 0)
	f.notifier.err = errors.New("smtp down")

	_, err := f.svc.Send(context.Background(), ports.SendOrderInput{CallerID: "alice", TargetID: "bob"})
	require.ErrorIs(t, err, domain.ErrNotificationFailed)
	assert.Len(t, f.orders.deleted, 1)
	assert.Empty(t, f.store.orders)
}

func TestOrderService_Send_StoreFailure(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 1)
	f.store.addUser("bob", "Bob", 0)
	f.orders.createErr = errors.New("write conflict")

	_, err := f.svc.Send(context.Background(), ports.SendOrderInput{CallerID: "alice", TargetID: "bob"})
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
	assert.Empty(t, f.notifier.sent)
}

// ---------------------------------------------------------------------------
// Approve / Reject
// ---------------------------------------------------------------------------

func TestOrderService_Approve_Guards(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 1)
	f.store.addUser("bob", "Bob", 0)
	f.store.addUser("carol", "Carol", 0)
	ctx := context.Background()

	sent, err := f.svc.Send(ctx, ports.SendOrderInput{CallerID: "alice", TargetID: "bob"})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, ports.RespondOrderInput{CallerID: "carol", OrderID: sent.ID})
	assert.ErrorIs(t, err, domain.ErrNotOrderRecipient)

	_, err = f.svc.Approve(ctx, ports.RespondOrderInput{CallerID: "alice", OrderID: sent.ID})
	assert.ErrorIs(t, err, domain.ErrNotOrderRecipient, "the sender cannot approve their own order")

	_, err = f.svc.Approve(ctx, ports.RespondOrderInput{CallerID: "bob", OrderID: "order_missing"})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	assert.Equal(t, domain.OrderPendingApproval, f.store.order(sent.ID).Status)

	_, err = f.svc.Approve(ctx, ports.RespondOrderInput{CallerID: "bob", OrderID: sent.ID})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, ports.RespondOrderInput{CallerID: "bob", OrderID: sent.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.svc.Reject(ctx, ports.RespondOrderInput{CallerID: "bob", OrderID: sent.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestOrderService_Reject(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 1)
	f.store.addUser("bob", "Bob", 0)
	ctx := context.Background()

	sent, err := f.svc.Send(ctx, ports.SendOrderInput{CallerID: "alice", TargetID: "bob"})
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, ports.RespondOrderInput{CallerID: "bob", OrderID: sent.ID, Message: "Fully booked"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderCancelled), rejected.Status)
	require.NotNil(t, rejected.RejectDate)
	assert.Nil(t, rejected.ApproveDate)

	require.Len(t, f.queue.queued, 1)
	assert.Equal(t, subjectOrderRejected, f.queue.queued[0].Subject)
	assert.Contains(t, f.queue.queued[0].Body, "Bob cannot sell you an hour of service.")
	assert.Contains(t, f.queue.queued[0].Body, "Fully booked")

	_, err = f.svc.Transact(ctx, "alice", sent.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, int64(1), f.store.credit("alice"))
}

func TestOrderService_Approve_QueueFullIsNotFatal(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 1)
	f.store.addUser("bob", "Bob", 0)
	f.queue.full = true

	approved := f.approvedOrder(t, "alice", "bob")
	assert.Equal(t, string(domain.OrderPendingTransaction), approved.Status)
}

func TestOrderService_ConcurrentResponsesSucceedOnce(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 1)
	f.store.addUser("bob", "Bob", 0)

	sent, err := f.svc.Send(context.Background(), ports.SendOrderInput{CallerID: "alice", TargetID: "bob"})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		winner    string
	)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := ports.RespondOrderInput{CallerID: "bob", OrderID: sent.ID}
			var (
				view *ports.OrderView
				err  error
			)
			if i%2 == 0 {
				view, err = f.svc.Approve(context.Background(), in)
			} else {
				view, err = f.svc.Reject(context.Background(), in)
			}
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
				return
			}
			mu.Lock()
			successes++
			winner = view.Status
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, winner, string(f.store.order(sent.ID).Status))
}

func TestOrderService_DeactivatedCallerCannotAct(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 2)
	f.store.addUser("bob", "Bob", 0)
	ctx := context.Background()

	approved := f.approvedOrder(t, "alice", "bob")
	pending, err := f.svc.Send(ctx, ports.SendOrderInput{CallerID: "alice", TargetID: "bob"})
	require.NoError(t, err)

	require.NoError(t, f.users.Deactivate(ctx, "bob"))
	_, err = f.svc.Approve(ctx, ports.RespondOrderInput{CallerID: "bob", OrderID: pending.ID})
	assert.ErrorIs(t, err, domain.ErrSessionUserGone)
	_, err = f.svc.Reject(ctx, ports.RespondOrderInput{CallerID: "bob", OrderID: pending.ID})
	assert.ErrorIs(t, err, domain.ErrSessionUserGone)
	assert.Equal(t, domain.OrderPendingApproval, f.store.order(pending.ID).Status)

	require.NoError(t, f.users.Deactivate(ctx, "alice"))
	_, err = f.svc.Transact(ctx, "alice", approved.ID)
	assert.ErrorIs(t, err, domain.ErrSessionUserGone)
	assert.Zero(t, f.transfer.calls)
	assert.Equal(t, int64(2), f.store.credit("alice"))
}

// ---------------------------------------------------------------------------
// Transact
// ---------------------------------------------------------------------------

func TestOrderService_Transact_Guards(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 1)
	f.store.addUser("bob", "Bob", 0)
	ctx := context.Background()

	sent, err := f.svc.Send(ctx, ports.SendOrderInput{CallerID: "alice", TargetID: "bob"})
	require.NoError(t, err)

	_, err = f.svc.Transact(ctx, "alice", sent.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "cannot transact before approval")

	_, err = f.svc.Approve(ctx, ports.RespondOrderInput{CallerID: "bob", OrderID: sent.ID})
	require.NoError(t, err)

	_, err = f.svc.Transact(ctx, "bob", sent.ID)
	assert.ErrorIs(t, err, domain.ErrNotOrderSender)

	_, err = f.svc.Transact(ctx, "alice", "order_missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	assert.Zero(t, f.transfer.calls)
}

func TestOrderService_Transact_ExpiredApproval(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 2)
	f.store.addUser("bob", "Bob", 0)

	approved := f.approvedOrder(t, "alice", "bob")
	f.queue.queued = nil
	f.now = f.now.Add(8 * 24 * time.Hour)

	_, err := f.svc.Transact(context.Background(), "alice", approved.ID)
	require.ErrorIs(t, err, domain.ErrApprovalExpired)

	stored := f.store.order(approved.ID)
	assert.Equal(t, domain.OrderCancelled, stored.Status)
	assert.Nil(t, stored.ApproveDate)
	assert.Zero(t, f.transfer.calls)
	assert.Equal(t, int64(2), f.store.credit("alice"))
	assert.Equal(t, int64(0), f.store.credit("bob"))
	require.Len(t, f.queue.queued, 1)
	assert.Equal(t, subjectOrderExpired, f.queue.queued[0].Subject)
}

func TestOrderService_Transact_WindowBoundary(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 1)
	f.store.addUser("bob", "Bob", 0)

	approved := f.approvedOrder(t, "alice", "bob")
	f.now = f.now.Add(domain.DefaultApprovalWindow)

	done, err := f.svc.Transact(context.Background(), "alice", approved.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderComplete), done.Status)
}

func TestOrderService_Transact_CounterpartyGone(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 1)
	f.store.addUser("bob", "Bob", 0)

	approved := f.approvedOrder(t, "alice", "bob")
	require.NoError(t, f.users.Deactivate(context.Background(), "bob"))

	_, err := f.svc.Transact(context.Background(), "alice", approved.ID)
	assert.ErrorIs(t, err, domain.ErrCounterpartyNotFound)
	assert.Zero(t, f.transfer.calls)
}

func TestOrderService_Transact_CreditSpentElsewhere(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 1)
	f.store.addUser("bob", "Bob", 0)
	f.store.addUser("carol", "Carol", 0)
	ctx := context.Background()

	first := f.approvedOrder(t, "alice", "bob")
	second := f.approvedOrder(t, "alice", "carol")

	_, err := f.svc.Transact(ctx, "alice", first.ID)
	require.NoError(t, err)

	_, err = f.svc.Transact(ctx, "alice", second.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientCredit)
	assert.Equal(t, domain.OrderPendingTransaction, f.store.order(second.ID).Status)
	assert.Equal(t, int64(0), f.store.credit("alice"))
	assert.Equal(t, int64(0), f.store.credit("carol"))
}

func TestOrderService_Transact_StoreFailure(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 1)
	f.store.addUser("bob", "Bob", 0)

	approved := f.approvedOrder(t, "alice", "bob")
	f.transfer.err = errors.New("transaction aborted")

	_, err := f.svc.Transact(context.Background(), "alice", approved.ID)
	assert.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.Equal(t, domain.OrderPendingTransaction, f.store.order(approved.ID).Status)
	assert.Equal(t, int64(1), f.store.credit("alice"))
}

func TestOrderService_Transact_ConcurrentCallsMoveCreditOnce(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 5)
	f.store.addUser("bob", "Bob", 0)

	approved := f.approvedOrder(t, "alice", "bob")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Transact(context.Background(), "alice", approved.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, int64(4), f.store.credit("alice"))
	assert.Equal(t, int64(1), f.store.credit("bob"))
}

// ---------------------------------------------------------------------------
// Expiry sweep and admin reads
// ---------------------------------------------------------------------------

func TestOrderService_ExpireOverdue(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 3)
	f.store.addUser("bob", "Bob", 0)

	stale := f.approvedOrder(t, "alice", "bob")
	f.now = f.now.Add(5 * 24 * time.Hour)
	fresh := f.approvedOrder(t, "alice", "bob")
	f.now = f.now.Add(3 * 24 * time.Hour)

	n, err := f.svc.ExpireOverdue(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.OrderCancelled, f.store.order(stale.ID).Status)
	assert.Equal(t, domain.OrderPendingTransaction, f.store.order(fresh.ID).Status)
}

func TestOrderService_ListOrders(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 5)
	f.store.addUser("bob", "Bob", 0)
	ctx := context.Background()

	for range 3 {
		_, err := f.svc.Send(ctx, ports.SendOrderInput{CallerID: "alice", TargetID: "bob"})
		require.NoError(t, err)
	}
	f.approvedOrder(t, "alice", "bob")

	res, err := f.svc.ListOrders(ctx, ports.ListOrdersInput{Status: string(domain.OrderPendingApproval), Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 2, res.TotalPages)

	res, err = f.svc.ListOrders(ctx, ports.ListOrdersInput{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, maxPageLimit, res.Limit)
	assert.Equal(t, int64(4), res.Total)

	_, err = f.svc.ListOrders(ctx, ports.ListOrdersInput{Status: "canceled"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestOrderService_GetOrder(t *testing.T) {
	f := newOrderFixture()
	f.store.addUser("alice", "Alice", 1)
	f.store.addUser("bob", "Bob", 0)

	sent, err := f.svc.Send(context.Background(), ports.SendOrderInput{CallerID: "alice", TargetID: "bob"})
	require.NoError(t, err)

	got, err := f.svc.GetOrder(context.Background(), sent.ID)
	require.NoError(t, err)
	assert.Equal(t, sent.ID, got.ID)

	_, err = f.svc.GetOrder(context.Background(), "order_missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
