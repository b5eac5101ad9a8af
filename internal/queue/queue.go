package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/crowbarz/avrctl-go/internal/model"
)

// ExecFunc executes one queued item. It is supplied by the owner of
// the queue (the connection engine, via the facade) so the queue
// package itself never performs I/O.
type ExecFunc func(ctx context.Context, item Item) error

// Queue is the four-priority command scheduler of component E. It is
// owned by the property store so decoder callbacks can enqueue
// follow-up work without holding a reference back to the engine.
type Queue struct {
	mu     sync.Mutex
	queues [numQueues][]Item
	exec   ExecFunc

	starting    bool
	refreshing  map[model.Zone]bool
	executing   bool
	activeQueue int
	cancel      context.CancelFunc
	done        chan struct{}
	errs        []error

	// pendingDelayed holds items accepted with a positive Delay that
	// have not yet been inserted into their queue. They count as
	// "queued" for skip-if-queued purposes (§9 "queue_commands delay
	// encoding") even though Peek/Pop cannot see them yet.
	pendingDelayed []Item
}

// New creates a Queue that dispatches through exec.
func New(exec ExecFunc) *Queue {
	q := &Queue{
		exec:       exec,
		refreshing: make(map[model.Zone]bool),
	}
	checkEqualityOrientation()
	return q
}

// checkEqualityOrientation is the startup sanity check mandated by
// §9: a _refresh_zone candidate must be reported as a member of a
// queue containing _full_refresh.
func checkEqualityOrientation() {
	full := NewItem(CmdFullRefresh, model.ALL, QueueRefresh)
	refresh := NewItem(CmdRefreshZone, model.Z1, QueueRefresh)
	if !full.Equal(refresh) {
		slog.Warn("queue: equality orientation sanity check failed; _refresh_zone not recognised as matching _full_refresh")
	}
}

// SetExec installs (or replaces) the executor function. Useful when
// the queue is constructed before the connection engine that will
// drive it is wired up.
func (q *Queue) SetExec(fn ExecFunc) {
	q.mu.Lock()
	q.exec = fn
	q.mu.Unlock()
}

// SetStarting toggles the "starting" latch consulted by
// skip_if_starting.
func (q *Queue) SetStarting(v bool) {
	q.mu.Lock()
	q.starting = v
	q.mu.Unlock()
}

// IsStarting reports the current starting latch.
func (q *Queue) IsStarting() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.starting
}

// SetRefreshing marks zone as currently refreshing or not.
func (q *Queue) SetRefreshing(zone model.Zone, refreshing bool) {
	q.mu.Lock()
	if refreshing {
		q.refreshing[zone] = true
	} else {
		delete(q.refreshing, zone)
	}
	q.mu.Unlock()
}

// IsRefreshing reports whether zone (or, for model.ALL, any zone) is
// currently refreshing.
func (q *Queue) IsRefreshing(zone model.Zone) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if zone == model.ALL {
		return len(q.refreshing) > 0
	}
	return q.refreshing[zone]
}

// Enqueue inserts item according to the rules of §4.E. If
// startExecuting is true the executor is scheduled if not already
// running. An item with a positive Delay is accepted immediately for
// skip-if-queued purposes but only actually inserted once the delay
// elapses.
func (q *Queue) Enqueue(item Item, startExecuting bool) {
	q.mu.Lock()
	skip := q.shouldSkipLocked(item)
	if skip {
		q.mu.Unlock()
		return
	}
	if item.Delay > 0 {
		q.pendingDelayed = append(q.pendingDelayed, item)
		q.mu.Unlock()
		time.AfterFunc(item.Delay, func() { q.fireDelayed(item, startExecuting) })
		return
	}
	q.insertLocked(item)
	q.mu.Unlock()
	if startExecuting {
		q.Schedule()
	}
}

// fireDelayed moves a delayed item from pendingDelayed into its real
// queue once the delay has elapsed.
func (q *Queue) fireDelayed(item Item, startExecuting bool) {
	q.mu.Lock()
	for i, p := range q.pendingDelayed {
		if samePendingDelayed(p, item) {
			q.pendingDelayed = append(q.pendingDelayed[:i], q.pendingDelayed[i+1:]...)
			break
		}
	}
	item.Delay = 0
	q.insertLocked(item)
	q.mu.Unlock()
	if startExecuting {
		q.Schedule()
	}
}

func samePendingDelayed(a, b Item) bool {
	return a.Command == b.Command && a.Zone == b.Zone && a.QueueID == b.QueueID && argsEqual(a.Args, b.Args)
}

func (q *Queue) shouldSkipLocked(item Item) bool {
	if item.SkipIfStarting && q.starting {
		return true
	}
	if item.SkipIfRefreshing {
		if item.Zone == model.ALL {
			if len(q.refreshing) > 0 {
				return true
			}
		} else if q.refreshing[item.Zone] {
			return true
		}
	}
	if item.SkipIfQueued {
		for qi := 0; qi < numQueues; qi++ {
			for _, queued := range q.queues[qi] {
				if queued.Equal(item) {
					return true
				}
			}
		}
		for _, pending := range q.pendingDelayed {
			if pending.Equal(item) {
				return true
			}
		}
	}
	return false
}

func (q *Queue) insertLocked(item Item) {
	qi := item.QueueID
	n := len(q.queues[qi])
	pos := item.InsertAt
	if pos < 0 {
		pos = n + 1 + pos
	} else if q.executing && qi == q.activeQueue {
		pos++
	}
	if pos < 0 {
		pos = 0
	}
	if pos > n {
		pos = n
	}
	q.queues[qi] = append(q.queues[qi], Item{})
	copy(q.queues[qi][pos+1:], q.queues[qi][pos:])
	q.queues[qi][pos] = item
}

// Extend enqueues every item in items without scheduling between
// insertions, then schedules once. Delayed items (Delay > 0) are
// accepted for skip-if-queued purposes and inserted once their delay
// elapses, exactly as in Enqueue.
func (q *Queue) Extend(items []Item) {
	var delayed []Item
	q.mu.Lock()
	for _, item := range items {
		if q.shouldSkipLocked(item) {
			continue
		}
		if item.Delay > 0 {
			q.pendingDelayed = append(q.pendingDelayed, item)
			delayed = append(delayed, item)
			continue
		}
		q.insertLocked(item)
	}
	q.mu.Unlock()
	for _, item := range delayed {
		time.AfterFunc(item.Delay, func(it Item) func() { return func() { q.fireDelayed(it, true) } }(item))
	}
	q.Schedule()
}

// Peek returns the highest-priority queued item and the queue it came
// from, without removing it.
func (q *Queue) Peek() (Item, int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.peekLocked()
}

func (q *Queue) peekLocked() (Item, int, bool) {
	for qi := 0; qi < numQueues; qi++ {
		if len(q.queues[qi]) > 0 {
			return q.queues[qi][0], qi, true
		}
	}
	return Item{}, 0, false
}

// Pop removes and returns the front item of queueID, or of the
// highest-priority non-empty queue if queueID < 0.
func (q *Queue) Pop(queueID int) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if queueID < 0 {
		_, qi, ok := q.peekLocked()
		if !ok {
			return Item{}, false
		}
		queueID = qi
	}
	if len(q.queues[queueID]) == 0 {
		return Item{}, false
	}
	item := q.queues[queueID][0]
	q.queues[queueID] = q.queues[queueID][1:]
	return item, true
}

// Schedule starts the executor if the queue is non-empty and no
// executor is currently running, replacing a previously exited
// (possibly erroring) executor.
func (q *Queue) Schedule() {
	q.mu.Lock()
	if q.executing {
		q.mu.Unlock()
		return
	}
	_, _, ok := q.peekLocked()
	if !ok {
		q.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.executing = true
	done := make(chan struct{})
	q.done = done
	q.mu.Unlock()

	go q.run(ctx, done)
}

// run is the executor: it holds the reentrancy lock (the executing
// flag) for its whole lifetime, peeking and invoking exec on the
// highest-priority item each iteration, popping the consumed item from
// the queue it actually came from.
func (q *Queue) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	var errs []error

	for {
		select {
		case <-ctx.Done():
			q.finishExecuting(errs)
			return
		default:
		}

		item, qi, ok := q.Peek()
		if !ok {
			break
		}

		q.mu.Lock()
		q.activeQueue = qi
		q.mu.Unlock()

		err := q.exec(ctx, item)
		q.Pop(qi)

		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			if isUnavailable(err) {
				break
			}
			errs = append(errs, err)
		}
	}

	q.finishExecuting(errs)
}

// isUnavailableFunc allows callers (internal/conn) to register a
// predicate identifying the connection-unavailable error without the
// queue package depending on avrerr.
var isUnavailable = func(err error) bool { return false }

// SetUnavailablePredicate installs the predicate used by the executor
// to recognise a terminal connection-unavailable error.
func SetUnavailablePredicate(fn func(error) bool) {
	isUnavailable = fn
}

func (q *Queue) finishExecuting(errs []error) {
	q.mu.Lock()
	q.executing = false
	q.errs = errs
	q.mu.Unlock()
}

// Wait cooperatively waits for the current executor to drain, then
// returns the errors it collected (joined into one), if any.
func (q *Queue) Wait() error {
	q.mu.Lock()
	done := q.done
	q.mu.Unlock()
	if done != nil {
		<-done
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.errs) > 0 {
		return errors.Join(q.errs...)
	}
	return nil
}

// Cancel stops the executor and purges all queues.
func (q *Queue) Cancel(ignoreExceptions bool) {
	q.mu.Lock()
	cancel := q.cancel
	if ignoreExceptions {
		q.errs = nil
	}
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	q.Purge()
}

// Purge clears all queues and the refreshing-zones set.
func (q *Queue) Purge() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.queues {
		q.queues[i] = nil
	}
	q.refreshing = make(map[model.Zone]bool)
	q.pendingDelayed = nil
}

// IsExecuting reports whether the executor is currently running.
func (q *Queue) IsExecuting() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.executing
}
