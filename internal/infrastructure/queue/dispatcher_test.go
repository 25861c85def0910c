package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hourbank/timebank/internal/core/domain"
)

type recordingNotifier struct {
	mu   sync.Mutex
	got  []domain.Notification
	err  error
	done chan struct{}
	want int
}

func newRecordingNotifier(want int) *recordingNotifier {
	return &recordingNotifier{done: make(chan struct{}), want: want}
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	if len(r.got) == r.want {
		close(r.done)
	}
	return r.err
}

func (r *recordingNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %d notifications", r.want)
	}
}

func TestDispatcher_DeliversInOrderPerRecipient(t *testing.T) {
	rec := newRecordingNotifier(5)
	d := NewDispatcher(3, rec, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	subjects := []string{"1", "2", "3", "4", "5"}
	for _, s := range subjects {
		if !d.Enqueue(domain.Notification{To: "alice@example.com", Subject: s}) {
			t.Fatalf("enqueue %s dropped", s)
		}
	}

	rec.wait(t)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i, n := range rec.got {
		if n.Subject != subjects[i] {
			t.Fatalf("position %d: expected %s, got %s", i, subjects[i], n.Subject)
		}
	}
}

func TestDispatcher_FailuresAreNotFatal(t *testing.T) {
	rec := newRecordingNotifier(2)
	rec.err = errors.New("smtp down")
	d := NewDispatcher(1, rec, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Enqueue(domain.Notification{To: "a@example.com"})
	d.Enqueue(domain.Notification{To: "b@example.com"})
	rec.wait(t)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, newRecordingNotifier(0), zerolog.Nop())

	for i := 0; i < channelBuffer; i++ {
		if !d.Enqueue(domain.Notification{To: "a@example.com"}) {
			t.Fatalf("enqueue %d dropped before buffer was full", i)
		}
	}
	if d.Enqueue(domain.Notification{To: "a@example.com"}) {
		t.Fatalf("expected drop once buffer is full")
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, newRecordingNotifier(0), zerolog.Nop())

	first := d.shardIndex("Alice@Example.com")
	for range 10 {
		if got := d.shardIndex("alice@example.com"); got != first {
			t.Fatalf("shard changed: %d vs %d", got, first)
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard out of range: %d", first)
	}
}

func TestDispatcher_RunReturnsOnCancel(t *testing.T) {
	d := NewDispatcher(2, newRecordingNotifier(0), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
