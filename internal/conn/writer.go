package conn

import (
	"context"
	"log/slog"
	"strings"

	"github.com/crowbarz/avrctl-go/internal/avrerr"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/queue"
)

// sendRaw writes one frame (appending the wire terminator), honoring
// rateLimit by waiting on the command-delay limiter first. It reports
// Unavailable immediately if the session is down.
func (e *Engine) sendRaw(ctx context.Context, frame string, rateLimit bool) error {
	if !e.available.Load() {
		return avrerr.NewConnError(avrerr.Unavailable, nil)
	}
	if rateLimit {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.mu.Lock()
	tr := e.tr
	e.mu.Unlock()
	if tr == nil || !e.available.Load() {
		return avrerr.NewConnError(avrerr.Unavailable, nil)
	}

	if _, err := tr.Write([]byte(frame + "\r")); err != nil {
		return avrerr.NewConnError(avrerr.Unavailable, err)
	}
	slog.Debug("conn: wrote frame", "frame", frame)
	return nil
}

// sendRawRequest arms the response bus, writes frame, and waits up to
// the session timeout for a bus frame matching responsePrefix. An
// "E"-prefixed frame is a command-response error; a closed bus (the
// ingestion loop died mid-wait) reports Unavailable; anything else
// non-matching is ignored and waiting continues, per spec.md §4.F.
// Only one request may be in flight at a time, serialized by reqMu.
func (e *Engine) sendRawRequest(ctx context.Context, name, frame, responsePrefix string) (string, error) {
	e.reqMu.Lock()
	defer e.reqMu.Unlock()

	ch := e.armBus()
	defer e.disarmBus()

	if err := e.sendRaw(ctx, frame, true); err != nil {
		return "", err
	}

	deadline, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	for {
		select {
		case <-deadline.Done():
			return "", avrerr.NewResponseTimeout(name)
		case resp, ok := <-ch:
			if !ok {
				return "", avrerr.NewConnError(avrerr.Unavailable, nil)
			}
			if strings.HasPrefix(resp, "E") {
				return "", avrerr.NewCommandResponseError(name, resp)
			}
			if strings.HasPrefix(resp, responsePrefix) {
				return resp, nil
			}
		}
	}
}

// SendCommand implements the send_command contract of spec.md §4.F:
// resolve name/zone through the registry (UnknownCommand if absent),
// dispatch via send_raw_request when the command declares a response
// prefix, else via send_raw, and apply the ignore_error tri-state
// policy of §7 to any resulting error. prefix/suffix are pre-formatted
// wire fragments (arg formatting is the facade's job, via the code
// map's ParseArgs). Returns the raw response frame for query-style
// commands, or "" for fire-and-forget ones.
func (e *Engine) SendCommand(ctx context.Context, name string, zone model.Zone, prefix, suffix string, ignoreError *bool, rateLimit bool) (string, error) {
	cmd, err := e.registry.GetCommand(name, zone)
	if err != nil {
		return e.handleCommandErr(name, err, ignoreError)
	}

	avrCmd, ok := cmd.GetAVRCommand(zone)
	if !ok {
		return e.handleCommandErr(name, avrerr.NewUnknownCommand(name, string(zone)), ignoreError)
	}

	frame := prefix + avrCmd + suffix

	if respPrefix, ok := cmd.GetAVRResponse(zone); ok && cmd.WaitForResponse {
		resp, err := e.sendRawRequest(ctx, name, frame, respPrefix)
		if err != nil {
			return e.handleCommandErr(name, err, ignoreError)
		}
		return resp, nil
	}

	if err := e.sendRaw(ctx, frame, rateLimit); err != nil {
		return e.handleCommandErr(name, err, ignoreError)
	}
	return "", nil
}

// handleCommandErr applies the ignore_error tri-state policy: an
// Unavailable error always propagates; otherwise nil means propagate,
// true logs at debug and swallows, false logs at error and swallows.
func (e *Engine) handleCommandErr(name string, err error, ignoreError *bool) (string, error) {
	if avrerr.IsUnavailable(err) {
		return "", err
	}
	if ignoreError == nil {
		return "", err
	}
	if *ignoreError {
		slog.Debug("conn: command failed, ignored", "name", name, "err", err)
	} else {
		slog.Error("conn: command failed", "name", name, "err", err)
	}
	return "", nil
}

// Dispatch resolves name to either a local (non-wire) operation or a
// registry command, and runs it. It is the single entry point shared
// by the queue executor (ExecItem) and the facade's direct SendCommand,
// so a name like "volume_up" behaves identically whether it was queued
// or called straight through. Commands registered with an empty
// AVRCommands map (internal/codes's auxiliary entries) have no wire
// representation; they resolve only through RegisterLocalCommand and
// report UnknownLocalCommand otherwise.
func (e *Engine) Dispatch(ctx context.Context, name string, zone model.Zone, args []any, ignoreError *bool, rateLimit bool) (string, error) {
	if fn, ok := e.localCommand(name); ok {
		item := queue.Item{Command: name, Zone: zone, Args: args, IgnoreError: ignoreError, RateLimit: rateLimit}
		if err := fn(ctx, item); err != nil {
			return "", err
		}
		return "", nil
	}

	cmd, err := e.registry.GetCommand(name, zone)
	if err != nil {
		return "", err
	}
	if len(cmd.AVRCommands) == 0 {
		return "", avrerr.NewUnknownLocalCommand(name)
	}

	var suffix string
	if cmd.Map != nil && len(args) > 0 {
		suffix, err = cmd.Map.ParseArgs(e.encodeCtx(), zone, args)
		if err != nil {
			return "", avrerr.NewLocalCommandError(name, err.Error())
		}
	}

	return e.SendCommand(ctx, name, zone, "", suffix, ignoreError, rateLimit)
}

// ExecItem adapts a queued work item into a Dispatch call, serving as
// the queue's ExecFunc.
func (e *Engine) ExecItem(ctx context.Context, item queue.Item) error {
	_, err := e.Dispatch(ctx, item.Command, item.Zone, item.Args, item.IgnoreError, item.RateLimit)
	return err
}
