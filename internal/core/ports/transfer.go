package ports

import (
	"context"
	"time"
)

// CreditTransfer settles an approved order as one atomic unit: the order is
// marked complete, the buyer is debited and the seller credited one hour.
// Either every write commits or none does.
type CreditTransfer interface {
	Transfer(ctx context.Context, orderID, fromID, toID string, at time.Time) error
}
