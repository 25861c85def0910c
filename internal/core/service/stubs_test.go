package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory store shared by the stub repositories
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type memStore struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	orders  map[string]*domain.Order
	reviews map[string]*domain.Review
	seq     int
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]*domain.User),
		orders:  make(map[string]*domain.Order),
		reviews: make(map[string]*domain.Review),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s_%d", prefix, m.seq)
}

func (m *memStore) addUser(id, name string, credit int64) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &domain.User{ID: id, Name: name, Email: id + "@example.com", Role: domain.RoleUser, Credit: credit, Active: true}
	m.users[id] = u
	return u
}

func (m *memStore) credit(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].Credit
}

func (m *memStore) order(id string) domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.orders[id]
}

// paginate slices a sorted result the way the stores paginate.
func paginate[T any](items []T, page, limit int) []T {
	skip := (page - 1) * limit
	if skip >= len(items) {
		return []T{}
	}
	return items[skip:min(skip+limit, len(items))]
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	return &c
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	store    *memStore
	findErr  error
	clearErr error
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	c := *user
	c.ID = r.store.nextID("user")
	r.store.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok || !u.Active {
		return nil, domain.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Email == email && u.Active {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, upd ports.ProfileUpdate, at time.Time) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok || !u.Active {
		return nil, domain.ErrUserNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.City != nil {
		u.City = *upd.City
	}
	if upd.Field != nil {
		u.Field = *upd.Field
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	u.UpdatedAt = at
	c := *u
	return &c, nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var matched []*domain.User
	for _, u := range r.store.users {
		if !u.Active || u.Role != domain.RoleUser {
			continue
		}
		if (f.Field != "" && u.Field != f.Field) || (f.City != "" && u.City != f.City) {
			continue
		}
		c := *u
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, f.Page, f.Limit), int64(len(matched)), nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string, at time.Time) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok || !u.Active {
		return nil, domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = &at
	u.PasswordResetHash = ""
	u.PasswordResetExpires = nil
	c := *u
	return &c, nil
}

func (r *stubUserRepo) SetPasswordReset(_ context.Context, id, tokenHash string, expires time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordResetHash = tokenHash
	u.PasswordResetExpires = &expires
	return nil
}

func (r *stubUserRepo) ClearPasswordReset(_ context.Context, id string) error {
	if r.clearErr != nil {
		return r.clearErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[id]; ok {
		u.PasswordResetHash = ""
		u.PasswordResetExpires = nil
	}
	return nil
}

func (r *stubUserRepo) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Active && u.PasswordResetHash == tokenHash && u.PasswordResetExpires != nil && !u.PasswordResetExpires.Before(now) {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.store.users, id)
	return nil
}

func (r *stubUserRepo) Deactivate(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Active = false
	return nil
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

type stubOrderRepo struct {
	store     *memStore
	createErr error
	deleted   []string
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o.ID = r.store.nextID("order")
	r.store.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *stubOrderRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.orders, id)
	r.deleted = append(r.deleted, id)
	return nil
}

// UpdateStatus mirrors the conditional update of the real store.
func (r *stubOrderRepo) UpdateStatus(_ context.Context, id string, expected domain.OrderStatus, u ports.OrderUpdate) (*domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.Status != expected {
		return nil, domain.ErrInvalidTransition
	}
	o.Status = u.Status
	if u.ApproveDate != nil {
		o.ApproveDate = u.ApproveDate
	}
	if u.RejectDate != nil {
		o.RejectDate = u.RejectDate
	}
	if u.TransactionDate != nil {
		o.TransactionDate = u.TransactionDate
	}
	if u.ClearApproveDate {
		o.ApproveDate = nil
	}
	return cloneOrder(o), nil
}

func (r *stubOrderRepo) HasCompleted(_ context.Context, fromID, toID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, o := range r.store.orders {
		if o.From.ID == fromID && o.To.ID == toID && o.Status == domain.OrderComplete {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubOrderRepo) List(_ context.Context, f ports.ListOrdersFilter) ([]*domain.Order, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var matched []*domain.Order
	for _, o := range r.store.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if (f.FromID != "" && o.From.ID != f.FromID) || (f.ToID != "" && o.To.ID != f.ToID) {
			continue
		}
		matched = append(matched, cloneOrder(o))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, f.Page, f.Limit), int64(len(matched)), nil
}

func (r *stubOrderRepo) ListApprovedBefore(_ context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.store.orders {
		if o.Status == domain.OrderPendingTransaction && o.ApproveDate != nil && o.ApproveDate.Before(cutoff) {
			out = append(out, cloneOrder(o))
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Transfer: all-or-nothing over the shared store
// ---------------------------------------------------------------------------

type stubTransfer struct {
	store *memStore
	err   error
	calls int
}

func (t *stubTransfer) Transfer(_ context.Context, orderID, fromID, toID string, at time.Time) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.calls++
	if t.err != nil {
		return t.err
	}
	o, ok := t.store.orders[orderID]
	if !ok || o.Status != domain.OrderPendingTransaction {
		return domain.ErrInvalidTransition
	}
	from, to := t.store.users[fromID], t.store.users[toID]
	if from.Credit < domain.HourPrice {
		return domain.ErrInsufficientCredit
	}
	if to == nil {
		return domain.ErrUserNotFound
	}
	o.Status = domain.OrderComplete
	o.TransactionDate = &at
	from.Credit -= domain.HourPrice
	to.Credit += domain.HourPrice
	return nil
}

// ---------------------------------------------------------------------------
// Reviews
// ---------------------------------------------------------------------------

type stubReviewRepo struct {
	store *memStore
}

func (r *stubReviewRepo) Create(_ context.Context, rv *domain.Review) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.reviews {
		if existing.Author.ID == rv.Author.ID && existing.Subject.ID == rv.Subject.ID {
			return domain.ErrAlreadyReviewed
		}
	}
	rv.ID = r.store.nextID("review")
	c := *rv
	r.store.reviews[rv.ID] = &c
	return nil
}

func (r *stubReviewRepo) FindByID(_ context.Context, id string) (*domain.Review, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rv, ok := r.store.reviews[id]
	if !ok {
		return nil, domain.ErrReviewNotFound
	}
	c := *rv
	return &c, nil
}

func (r *stubReviewRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.reviews[id]; !ok {
		return domain.ErrReviewNotFound
	}
	delete(r.store.reviews, id)
	return nil
}

func (r *stubReviewRepo) Exists(_ context.Context, authorID, subjectID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, rv := range r.store.reviews {
		if rv.Author.ID == authorID && rv.Subject.ID == subjectID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubReviewRepo) Update(_ context.Context, id string, text *string, rating *int, at time.Time) (*domain.Review, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rv, ok := r.store.reviews[id]
	if !ok {
		return nil, domain.ErrReviewNotFound
	}
	if text != nil {
		rv.Text = *text
	}
	if rating != nil {
		rv.Rating = *rating
	}
	rv.UpdatedAt = at
	c := *rv
	return &c, nil
}

func (r *stubReviewRepo) ListBySubject(_ context.Context, subjectID string) ([]*domain.Review, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*domain.Review
	for _, rv := range r.store.reviews {
		if rv.Subject.ID == subjectID {
			c := *rv
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *stubReviewRepo) List(_ context.Context, f ports.ListReviewsFilter) ([]*domain.Review, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var matched []*domain.Review
	for _, rv := range r.store.reviews {
		if f.Rating != 0 && rv.Rating != f.Rating {
			continue
		}
		c := *rv
		matched = append(matched, &c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, f.Page, f.Limit), int64(len(matched)), nil
}

// ---------------------------------------------------------------------------
// Notification doubles
// ---------------------------------------------------------------------------

type stubNotifier struct {
	err  error
	sent []domain.Notification
}

func (n *stubNotifier) Notify(_ context.Context, msg domain.Notification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

type stubQueue struct {
	full   bool
	queued []domain.Notification
}

func (q *stubQueue) Enqueue(msg domain.Notification) bool {
	if q.full {
		return false
	}
	q.queued = append(q.queued, msg)
	return true
}
