package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/crowbarz/avrctl-go/internal/model"
)

func TestItemEqualIdempotentPlaceholder(t *testing.T) {
	a := NewItem(CmdDelayedBasicQuery, model.Z1, QueueBasic)
	b := NewItem(CmdDelayedBasicQuery, model.Z2, QueueBasic, "unrelated-arg")
	if !a.Equal(b) {
		t.Fatal("expected idempotent placeholder to match regardless of zone/args")
	}
}

func TestItemEqualFullRefreshMatchesZoneRefresh(t *testing.T) {
	full := NewItem(CmdFullRefresh, model.ALL, QueueRefresh)
	refresh := NewItem(CmdRefreshZone, model.Z1, QueueRefresh)
	delayedRefresh := NewItem(CmdDelayedRefreshZone, model.Z2, QueueRefresh)
	if !full.Equal(refresh) {
		t.Error("expected _full_refresh to match a _refresh_zone candidate")
	}
	if !full.Equal(delayedRefresh) {
		t.Error("expected _full_refresh to match a _delayed_refresh_zone candidate")
	}
	// Not symmetric: a queued _refresh_zone does not absorb a _full_refresh candidate.
	if refresh.Equal(full) {
		t.Error("expected the relation to be non-symmetric (refresh.Equal(full) should be false)")
	}
}

func TestItemEqualExactNameAndArgs(t *testing.T) {
	a := NewItem("set_volume", model.Z1, QueueNormal, 50)
	b := NewItem("set_volume", model.Z1, QueueNormal, 50)
	c := NewItem("set_volume", model.Z1, QueueNormal, 60)
	if !a.Equal(b) {
		t.Error("expected identical name+args to be equal")
	}
	if a.Equal(c) {
		t.Error("expected differing args to be unequal")
	}
}

func TestEnqueueSkipIfQueued(t *testing.T) {
	q := New(func(ctx context.Context, item Item) error { return nil })
	item := NewItem("set_volume", model.Z1, QueueNormal, 50)
	q.Enqueue(item, false)
	q.Enqueue(item, false)

	count := 0
	for {
		if _, ok := q.Pop(QueueNormal); ok {
			count++
		} else {
			break
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one item after duplicate skip-if-queued enqueues, got %d", count)
	}
}

func TestEnqueueSkipIfStarting(t *testing.T) {
	q := New(func(ctx context.Context, item Item) error { return nil })
	q.SetStarting(true)
	item := NewItem("query_power", model.Z1, QueueNormal)
	item.SkipIfStarting = true
	q.Enqueue(item, false)
	if _, _, ok := q.Peek(); ok {
		t.Fatal("expected item to be skipped while starting")
	}
}

func TestEnqueueSkipIfRefreshing(t *testing.T) {
	q := New(func(ctx context.Context, item Item) error { return nil })
	q.SetRefreshing(model.Z1, true)
	item := NewItem("query_power", model.Z1, QueueNormal)
	item.SkipIfRefreshing = true
	q.Enqueue(item, false)
	if _, _, ok := q.Peek(); ok {
		t.Fatal("expected item to be skipped while its zone is refreshing")
	}
}

func TestPeekOrdersByQueuePriority(t *testing.T) {
	q := New(func(ctx context.Context, item Item) error { return nil })
	basic := NewItem(CmdDelayedBasicQuery, model.Z1, QueueBasic)
	basic.SkipIfQueued = false
	atomic := NewItem("volume_up", model.Z1, QueueAtomic)
	atomic.SkipIfQueued = false
	q.Enqueue(basic, false)
	q.Enqueue(atomic, false)

	item, qi, ok := q.Peek()
	if !ok {
		t.Fatal("expected a queued item")
	}
	if qi != QueueAtomic || item.Command != "volume_up" {
		t.Errorf("expected the atomic-priority item first, got queue %d command %q", qi, item.Command)
	}
}

func TestDelayedEnqueueCountsAsQueuedImmediately(t *testing.T) {
	q := New(func(ctx context.Context, item Item) error { return nil })
	item := NewDelayedItem(CmdDelayedBasicQuery, model.Z1, QueueBasic, 50*time.Millisecond)
	q.Enqueue(item, false)

	// A second enqueue of the same idempotent placeholder, before the
	// delay fires, must be skipped.
	q.Enqueue(NewItem(CmdDelayedBasicQuery, model.Z1, QueueBasic), false)
	if _, _, ok := q.Peek(); ok {
		t.Fatal("expected no item visible to Peek before the delay elapses")
	}

	time.Sleep(100 * time.Millisecond)
	count := 0
	for {
		if _, ok := q.Pop(QueueBasic); ok {
			count++
		} else {
			break
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one item to have fired, got %d", count)
	}
}

func TestScheduleRunsExecutorToCompletion(t *testing.T) {
	var mu sync.Mutex
	var executed []string

	q := New(func(ctx context.Context, item Item) error {
		mu.Lock()
		executed = append(executed, item.Command)
		mu.Unlock()
		return nil
	})

	first := NewItem("query_power", model.Z1, QueueNormal)
	first.SkipIfQueued = false
	second := NewItem("query_volume", model.Z1, QueueNormal)
	second.SkipIfQueued = false
	q.Enqueue(first, true)
	q.Enqueue(second, true)

	if err := q.Wait(); err != nil {
		t.Fatalf("unexpected executor error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(executed) != 2 {
		t.Fatalf("expected 2 items executed, got %d: %v", len(executed), executed)
	}
}

func TestScheduleStopsOnUnavailable(t *testing.T) {
	sentinel := errors.New("connection unavailable")
	SetUnavailablePredicate(func(err error) bool { return errors.Is(err, sentinel) })
	defer SetUnavailablePredicate(func(err error) bool { return false })

	var calls int
	var mu sync.Mutex
	q := New(func(ctx context.Context, item Item) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return sentinel
	})

	a := NewItem("a", model.Z1, QueueNormal)
	a.SkipIfQueued = false
	b := NewItem("b", model.Z1, QueueNormal)
	b.SkipIfQueued = false
	q.Enqueue(a, true)
	q.Enqueue(b, true)

	_ = q.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected the executor to stop after the first unavailable error, got %d calls", calls)
	}
}

func TestWaitReportsNonUnavailableErrors(t *testing.T) {
	boom := errors.New("boom")
	q := New(func(ctx context.Context, item Item) error { return boom })

	item := NewItem("a", model.Z1, QueueNormal)
	item.SkipIfQueued = false
	q.Enqueue(item, true)

	err := q.Wait()
	if err == nil {
		t.Fatal("expected Wait to report the executor's error")
	}
}

func TestPurgeClearsQueuesAndRefreshing(t *testing.T) {
	q := New(func(ctx context.Context, item Item) error { return nil })
	q.SetRefreshing(model.Z1, true)
	item := NewItem("a", model.Z1, QueueNormal)
	item.SkipIfQueued = false
	q.Enqueue(item, false)

	q.Purge()

	if _, _, ok := q.Peek(); ok {
		t.Error("expected queues to be empty after Purge")
	}
	if q.IsRefreshing(model.Z1) {
		t.Error("expected refreshing state cleared after Purge")
	}
}

func TestCheckEqualityOrientationDoesNotPanic(t *testing.T) {
	checkEqualityOrientation()
}
