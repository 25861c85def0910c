package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hourbank/timebank/internal/api/metrics"
	"github.com/hourbank/timebank/internal/core/domain"
	"github.com/hourbank/timebank/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	sendTimeout    = 30 * time.Second
)

// Dispatcher delivers notifications in the background on a fixed set of
// workers. Messages are sharded by recipient so that one recipient's
// notifications arrive in the order they were queued.
type Dispatcher struct {
	workers  []chan domain.Notification
	notifier ports.Notifier
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.Notification, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, channelBuffer)
	}
	return d
}

// Run starts the workers and blocks until ctx is cancelled and every worker
// has returned. Messages still buffered at that point are discarded.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i, ch := range d.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.runWorker(ctx, i, ch)
		}()
	}
	wg.Wait()
}

// Enqueue hands n to the worker responsible for its recipient. It never
// blocks: when that worker's buffer is full the message is dropped.
func (d *Dispatcher) Enqueue(n domain.Notification) bool {
	idx := d.shardIndex(n.To)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		metrics.NotificationsTotal.WithLabelValues("async", "dropped").Inc()
		d.log.Warn().Str("to", n.To).Int("worker_id", idx).Msg("notification queue full")
		return false
	}
}

// shardIndex maps a recipient address deterministically to a worker index.
func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(to)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Notification) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotificationQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, n domain.Notification) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	start := time.Now()
	err := d.notifier.Notify(sendCtx, n)
	metrics.NotificationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("async", "failed").Inc()
		d.log.Warn().Err(err).
			Str("notification_id", n.ID).
			Str("to", n.To).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues("async", "sent").Inc()
}
