package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/hourbank/timebank/internal/core/domain"
)

const transferTimeout = 20 * time.Second

// CreditLedger settles orders inside a multi-document transaction. It needs a
// replica set or sharded cluster.
type CreditLedger struct {
	client *mongo.Client
	users  *mongo.Collection
	orders *mongo.Collection
}

func NewCreditLedger(db *mongo.Database) *CreditLedger {
	return &CreditLedger{
		client: db.Client(),
		users:  db.Collection(collectionUsers),
		orders: db.Collection(collectionOrders),
	}
}

// Transfer completes the order and moves one hour of credit from fromID to
// toID. Any failed guard aborts the whole transaction:
//   - order no longer pending-transaction: domain.ErrInvalidTransition
//   - buyer below one credit:              domain.ErrInsufficientCredit
//   - seller missing:                      domain.ErrCounterpartyNotFound
func (l *CreditLedger) Transfer(ctx context.Context, orderID, fromID, toID string, at time.Time) error {
	oid, err := objectID(orderID, domain.ErrOrderNotFound)
	if err != nil {
		return err
	}
	from, err := objectID(fromID, domain.ErrUserNotFound)
	if err != nil {
		return err
	}
	to, err := objectID(toID, domain.ErrCounterpartyNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, transferTimeout)
	defer cancel()

	sess, err := l.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	at = at.UTC()
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := l.orders.UpdateOne(sc,
			bson.M{"_id": oid, "status": string(domain.OrderPendingTransaction)},
			bson.M{"$set": bson.M{"status": string(domain.OrderComplete), "transaction_date": at}},
		)
		if err != nil {
			return nil, fmt.Errorf("complete order: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrInvalidTransition
		}

		res, err = l.users.UpdateOne(sc,
			bson.M{"_id": from, "credit": bson.M{"$gte": domain.HourPrice}},
			bson.M{"$inc": bson.M{"credit": -domain.HourPrice}, "$set": bson.M{"updated_at": at}},
		)
		if err != nil {
			return nil, fmt.Errorf("debit buyer: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrInsufficientCredit
		}

		res, err = l.users.UpdateOne(sc,
			bson.M{"_id": to, "active": true},
			bson.M{"$inc": bson.M{"credit": domain.HourPrice}, "$set": bson.M{"updated_at": at}},
		)
		if err != nil {
			return nil, fmt.Errorf("credit seller: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrCounterpartyNotFound
		}

		return nil, nil
	}, txnOpts)

	return err
}
