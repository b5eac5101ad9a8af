package conn

import (
	"bufio"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/crowbarz/avrctl-go/internal/decode"
	"github.com/crowbarz/avrctl-go/internal/params"
	"github.com/crowbarz/avrctl-go/internal/transport"
)

// ingest is the per-connection read loop: frames the transport on
// newlines, stamps last_updated (unless always_poll suppresses it),
// tees every frame to the armed response bus, and routes it through
// the dispatcher. A parse error is logged and ingestion continues; an
// I/O error (including EOF) ends the loop and triggers a disconnect,
// per spec.md §4.F.
func (e *Engine) ingest(ctx context.Context, tr transport.Transport, ready chan<- struct{}, done chan<- struct{}) {
	defer close(done)
	reader := bufio.NewReader(tr)
	close(ready)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() != nil {
				slog.Debug("conn: ingestion loop cancelled")
				return
			}
			slog.Debug("conn: ingestion loop terminated", "err", err)
			e.onIngestTerminated()
			return
		}

		frame := strings.TrimRight(line, "\r\n")
		if frame == "" {
			continue
		}
		slog.Debug("conn: received frame", "frame", frame)

		if alwaysPoll, _ := e.params.Get(params.KeyAlwaysPoll, false).(bool); !alwaysPoll {
			e.setLastUpdated(time.Now())
		}

		e.publishToBus(frame)

		zones, err := decode.ProcessRawResponse(e.encodeCtx(), e.registry, e.store, frame)
		if err != nil {
			slog.Warn("conn: decode error", "frame", frame, "err", err)
			continue
		}
		e.notifyUpdated(zones)
	}
}

// onIngestTerminated reacts to an ingestion loop that ended on its own
// (the remote end closed the connection) rather than via an explicit
// Disconnect. It runs the disconnect off the ingestion goroutine so
// that Disconnect's wait on ingestDone does not deadlock against the
// very goroutine that is closing it.
func (e *Engine) onIngestTerminated() {
	e.flushBus()
	go func() {
		if err := e.Disconnect(true); err != nil {
			slog.Warn("conn: disconnect after connection loss failed", "err", err)
		}
	}()
}

// armBus opens a fresh response-bus channel for a single in-flight
// request. Only one can be armed at a time; callers serialize through
// reqMu in send_raw_request.
func (e *Engine) armBus() chan string {
	ch := make(chan string, 32)
	e.busMu.Lock()
	e.busCh = ch
	e.busMu.Unlock()
	return ch
}

// disarmBus detaches the response-bus channel after a request
// completes normally (response matched, timed out, or context
// cancelled). It does not close the channel: nothing is blocked
// reading it once the requester has already returned.
func (e *Engine) disarmBus() {
	e.busMu.Lock()
	e.busCh = nil
	e.busMu.Unlock()
}

// flushBus closes any currently-armed bus channel to unblock a
// requester stuck waiting on it, used when the ingestion loop
// terminates out from under an in-flight request.
func (e *Engine) flushBus() {
	e.busMu.Lock()
	ch := e.busCh
	e.busCh = nil
	e.busMu.Unlock()
	if ch != nil {
		close(ch)
	}
}

func (e *Engine) publishToBus(frame string) {
	e.busMu.Lock()
	ch := e.busCh
	e.busMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- frame:
	default:
		slog.Warn("conn: response bus full, dropping frame", "frame", frame)
	}
}
