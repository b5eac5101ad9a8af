// Package conn implements the connection engine of component F: the
// TCP/serial session lifecycle, ingestion loop, rate-limited writer,
// request/response correlation bus, and reconnect backoff, grounded on
// aiopioneer's connection.py and the teacher's internal/streams
// supervisor's backoff/restart-loop shape.
package conn

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/crowbarz/avrctl-go/internal/avrerr"
	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/params"
	"github.com/crowbarz/avrctl-go/internal/queue"
	"github.com/crowbarz/avrctl-go/internal/registry"
	"github.com/crowbarz/avrctl-go/internal/store"
	"github.com/crowbarz/avrctl-go/internal/transport"
)

// DialFunc opens a fresh transport. The engine is transport-agnostic:
// the same lifecycle/backoff/rate-limit/correlation logic drives
// transport.TCPTransport or transport.SerialTransport depending on
// what DialFunc returns.
type DialFunc func(ctx context.Context) (transport.Transport, error)

// UpdateHook is invoked once per decoded frame with the set of zones
// the decode touched (possibly empty). The facade wires this to
// internal/notify.
type UpdateHook func(zones map[model.Zone]struct{})

// LocalCommandFunc executes one of the queue's internal pseudo-commands
// (e.g. _full_refresh, _update_listening_modes) that has no wire
// representation of its own; the facade registers these.
type LocalCommandFunc func(ctx context.Context, item queue.Item) error

// Engine is the connection engine: session lifecycle, ingestion,
// writer, and request/response correlation, grounded on aiopioneer's
// PioneerAVRConnection.
type Engine struct {
	// mu guards lifecycle transitions (Connect/Disconnect/Shutdown) so
	// two callers cannot race on state, per spec.md §4.F.
	mu sync.Mutex

	dial        DialFunc
	params      *params.Parameters
	store       *store.Store
	registry    *registry.Registry
	onReconnect func()
	updateHook  UpdateHook

	localCommands map[string]LocalCommandFunc

	state State
	tr    transport.Transport

	available atomic.Bool

	writeMu sync.Mutex
	limiter *rate.Limiter

	lastUpdatedMu sync.Mutex
	lastUpdated   time.Time

	cancelIngest context.CancelFunc
	ingestDone   chan struct{}

	cancelReconnect context.CancelFunc

	reqMu sync.Mutex

	busMu sync.Mutex
	busCh chan string
}

// New creates an Engine bound to st/reg/p. dial supplies a fresh
// transport on Connect and every reconnect attempt. onReconnect, if
// non-nil, runs once after a reconnect succeeds (the facade uses this
// to re-run discovery and a full refresh).
func New(dial DialFunc, p *params.Parameters, st *store.Store, reg *registry.Registry, onReconnect func()) *Engine {
	e := &Engine{
		dial:          dial,
		params:        p,
		store:         st,
		registry:      reg,
		onReconnect:   onReconnect,
		state:         Disconnected,
		localCommands: map[string]LocalCommandFunc{},
	}
	e.limiter = rate.NewLimiter(rate.Every(commandDelay(p)), 1)
	p.Subscribe(func() {
		e.limiter.SetLimit(rate.Every(commandDelay(p)))
	})
	queue.SetUnavailablePredicate(avrerr.IsUnavailable)
	st.Queue.SetExec(e.ExecItem)
	return e
}

func commandDelay(p *params.Parameters) time.Duration {
	secs, _ := p.Get(params.KeyCommandDelay, 0.1).(float64)
	return time.Duration(secs * float64(time.Second))
}

func (e *Engine) timeout() time.Duration {
	secs, _ := e.params.Get(params.KeyTimeout, 2.0).(float64)
	return time.Duration(secs * float64(time.Second))
}

// SetUpdateHook installs the callback invoked after each decoded
// frame with the zones it touched.
func (e *Engine) SetUpdateHook(hook UpdateHook) {
	e.mu.Lock()
	e.updateHook = hook
	e.mu.Unlock()
}

// RegisterLocalCommand installs fn as the handler for one of the
// queue's internal pseudo-command names (those registered with an
// empty AVRCommands map in internal/codes.Build).
func (e *Engine) RegisterLocalCommand(name string, fn LocalCommandFunc) {
	e.mu.Lock()
	e.localCommands[name] = fn
	e.mu.Unlock()
}

func (e *Engine) localCommand(name string) (LocalCommandFunc, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn, ok := e.localCommands[name]
	return fn, ok
}

// State reports the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsAvailable reports whether the session is currently up for writes.
func (e *Engine) IsAvailable() bool {
	return e.available.Load()
}

// LastUpdated reports the timestamp of the last non-empty ingested
// frame (used by the facade's debounced Update).
func (e *Engine) LastUpdated() time.Time {
	e.lastUpdatedMu.Lock()
	defer e.lastUpdatedMu.Unlock()
	return e.lastUpdated
}

func (e *Engine) setLastUpdated(t time.Time) {
	e.lastUpdatedMu.Lock()
	e.lastUpdated = t
	e.lastUpdatedMu.Unlock()
}

func (e *Engine) encodeCtx() codemap.EncodeContext {
	return codemap.EncodeContext{Store: e.store, Params: e.params}
}

func (e *Engine) notifyUpdated(zones map[model.Zone]struct{}) {
	e.mu.Lock()
	hook := e.updateHook
	e.mu.Unlock()
	if hook != nil && len(zones) > 0 {
		hook(zones)
	}
}

// Connect opens the session: dials a fresh transport with the
// configured timeout, tunes keepalive, starts the ingestion loop, and
// yields once to let it enter its first read, per spec.md §4.F.
// reconnect records whether a future disconnect should itself schedule
// a reconnect attempt.
func (e *Engine) Connect(ctx context.Context, reconnect bool) error {
	e.mu.Lock()
	switch e.state {
	case Connected:
		e.mu.Unlock()
		return avrerr.NewConnError(avrerr.AlreadyConnected, nil)
	case Connecting:
		e.mu.Unlock()
		return avrerr.NewConnError(avrerr.AlreadyConnecting, nil)
	}
	e.state = Connecting
	e.mu.Unlock()

	timeout := e.timeout()
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tr, err := e.dial(dialCtx)
	if err != nil {
		e.mu.Lock()
		e.state = Disconnected
		e.mu.Unlock()
		if dialCtx.Err() == context.DeadlineExceeded {
			return avrerr.NewConnError(avrerr.ConnectTimeout, err)
		}
		return avrerr.NewConnError(avrerr.ConnectFailed, err)
	}

	idle, interval, maxFails := keepaliveTuning(timeout)
	if err := tr.SetKeepAlive(idle, interval, maxFails); err != nil {
		slog.Warn("conn: failed to tune keepalive", "err", err)
	}

	ingestCtx, cancelIngest := context.WithCancel(context.Background())
	done := make(chan struct{})
	ready := make(chan struct{})

	e.mu.Lock()
	e.tr = tr
	e.cancelIngest = cancelIngest
	e.ingestDone = done
	e.state = Connected
	e.mu.Unlock()

	e.available.Store(true)

	go e.ingest(ingestCtx, tr, ready, done)
	<-ready

	slog.Info("conn: connected", "reconnect", reconnect)
	return nil
}

// keepaliveTuning derives TCP keepalive idle/interval/max-fail cadence
// from the session timeout, per spec.md §4.F.
func keepaliveTuning(timeout time.Duration) (idle, interval time.Duration, maxFails int) {
	idle = timeout * 10
	interval = timeout * 2
	maxFails = 3
	return
}

// Disconnect tears the session down: cancels any reconnect task,
// flips availability so in-flight callers observe Unavailable,
// terminates the ingestion loop, flushes the response bus, and — if
// requested — schedules a reconnect.
func (e *Engine) Disconnect(reconnect bool) error {
	e.mu.Lock()
	switch e.state {
	case Disconnected:
		e.mu.Unlock()
		return nil
	case Disconnecting:
		e.mu.Unlock()
		return avrerr.NewConnError(avrerr.AlreadyDisconnecting, nil)
	}
	e.cancelReconnectTaskLocked()
	e.state = Disconnecting
	cancelIngest := e.cancelIngest
	tr := e.tr
	done := e.ingestDone
	e.mu.Unlock()

	e.available.Store(false)

	if cancelIngest != nil {
		cancelIngest()
	}
	if tr != nil {
		_ = tr.Close()
	}
	if done != nil {
		<-done
	}
	e.flushBus()

	e.mu.Lock()
	e.tr = nil
	e.cancelIngest = nil
	e.ingestDone = nil
	e.state = Disconnected
	e.mu.Unlock()

	slog.Info("conn: disconnected", "reconnect", reconnect)

	if reconnect {
		e.scheduleReconnect()
	}
	return nil
}

// Shutdown cancels any reconnect task and disconnects without
// rescheduling.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	e.cancelReconnectTaskLocked()
	e.mu.Unlock()
	err := e.Disconnect(false)
	return err
}

func (e *Engine) cancelReconnectTaskLocked() {
	if e.cancelReconnect != nil {
		e.cancelReconnect()
		e.cancelReconnect = nil
	}
}
