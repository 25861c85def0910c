package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(collectionOrders)}
}

type mongoParty struct {
	ID   primitive.ObjectID `bson:"id"`
	Name string             `bson:"name"`
}

type mongoOrder struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	From            mongoParty         `bson:"from"`
	To              mongoParty         `bson:"to"`
	Status          string             `bson:"status"`
	SendDate        time.Time          `bson:"send_date"`
	ApproveDate     *time.Time         `bson:"approve_date,omitempty"`
	RejectDate      *time.Time         `bson:"reject_date,omitempty"`
	TransactionDate *time.Time         `bson:"transaction_date,omitempty"`
}

func (p mongoParty) toDomain() domain.Party {
	return domain.Party{ID: p.ID.Hex(), Name: p.Name}
}

func toMongoParty(p domain.Party) (mongoParty, error) {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return mongoParty{}, fmt.Errorf("party id %q: %w", p.ID, err)
	}
	return mongoParty{ID: oid, Name: p.Name}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (mo *mongoOrder) toDomain() *domain.Order {
	return &domain.Order{
		ID:              mo.ID.Hex(),
		From:            mo.From.toDomain(),
		To:              mo.To.toDomain(),
		Status:          domain.OrderStatus(mo.Status),
		SendDate:        mo.SendDate.UTC(),
		ApproveDate:     utcPtr(mo.ApproveDate),
		RejectDate:      utcPtr(mo.RejectDate),
		TransactionDate: utcPtr(mo.TransactionDate),
	}
}

// Create inserts a new order document and sets its ID.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	from, err := toMongoParty(o.From)
	if err != nil {
		return err
	}
	to, err := toMongoParty(o.To)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.InsertOne(ctx, mongoOrder{
		From:     from,
		To:       to,
		Status:   string(o.Status),
		SendDate: o.SendDate,
	})
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = oid.Hex()
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := objectID(id, domain.ErrOrderNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mo mongoOrder
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return mo.toDomain(), nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrOrderNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// UpdateStatus applies update with the current status as part of the filter,
// so of two concurrent writers only the first one matches.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, expected domain.OrderStatus, u ports.OrderUpdate) (*domain.Order, error) {
	oid, err := objectID(id, domain.ErrOrderNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"status": string(u.Status)}
	if u.ApproveDate != nil {
		set["approve_date"] = u.ApproveDate.UTC()
	}
	if u.RejectDate != nil {
		set["reject_date"] = u.RejectDate.UTC()
	}
	if u.TransactionDate != nil {
		set["transaction_date"] = u.TransactionDate.UTC()
	}
	update := bson.M{"$set": set}
	if u.ClearApproveDate {
		update["$unset"] = bson.M{"approve_date": ""}
	}

	var mo mongoOrder
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": string(expected)},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&mo)
	if err == nil {
		return mo.toDomain(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrOrderNotFound
	}
	return nil, domain.ErrInvalidTransition
}

func (r *OrderRepository) HasCompleted(ctx context.Context, fromID, toID string) (bool, error) {
	from, err := primitive.ObjectIDFromHex(fromID)
	if err != nil {
		return false, nil
	}
	to, err := primitive.ObjectIDFromHex(toID)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx,
		bson.M{"from.id": from, "to.id": to, "status": string(domain.OrderComplete)},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("count completed orders: %w", err)
	}
	return n > 0, nil
}

// List returns a page of orders, newest first, and the total match count.
func (r *OrderRepository) List(ctx context.Context, f ports.ListOrdersFilter) ([]*domain.Order, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	for key, id := range map[string]string{"from.id": f.FromID, "to.id": f.ToID} {
		if id == "" {
			continue
		}
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			// no order references a malformed id
			return []*domain.Order{}, 0, nil
		}
		filter[key] = oid
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "send_date", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	orders, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepository) ListApprovedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"status":       string(domain.OrderPendingTransaction),
		"approve_date": bson.M{"$lt": cutoff.UTC()},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "approve_date", Value: 1}}).
		SetLimit(int64(limit))

	return r.find(ctx, filter, opts)
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Order, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoOrder
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	out := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// EnsureIndexes creates necessary indexes on the orders collection.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "from.id", Value: 1}, {Key: "to.id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "approve_date", Value: 1}}},
		{Keys: bson.D{{Key: "send_date", Value: -1}}},
		{Keys: bson.D{{Key: "to.id", Value: 1}, {Key: "send_date", Value: -1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("orders indexes: %w", err)
	}
	return nil
}
