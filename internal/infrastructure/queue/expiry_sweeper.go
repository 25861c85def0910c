package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hourbank/timebank/internal/api/metrics"
	"github.com/hourbank/timebank/internal/core/ports"
)

// ExpirySweeper periodically cancels approved orders whose transaction
// window has lapsed, so they do not linger until their buyer calls transact.
type ExpirySweeper struct {
	expirer  ports.OrderExpirer
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewExpirySweeper(expirer ports.OrderExpirer, interval time.Duration, log zerolog.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		expirer:  expirer,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
}

// Run sweeps once per interval until ctx is cancelled.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("expiry sweeper started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	n, err := s.expirer.ExpireOverdue(ctx, s.now())
	if n > 0 {
		metrics.OrderExpirationsTotal.WithLabelValues("sweep").Add(float64(n))
		s.log.Info().Int("expired", n).Msg("expired overdue approvals")
	}
	if err != nil && ctx.Err() == nil {
		s.log.Error().Err(err).Msg("expiry sweep failed")
	}
}
