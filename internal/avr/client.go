// Package avr is the public facade of component H: a thin layer
// binding the connection engine, command queue, property store,
// parameters, and registry into the client's single entry point,
// grounded on the teacher's cmd/amplipi/main.go wiring style (hardware
// driver + controller + event bus assembled once at startup) adapted
// from a long-lived daemon process to a library client handle.
package avr

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/codes"
	"github.com/crowbarz/avrctl-go/internal/conn"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/notify"
	"github.com/crowbarz/avrctl-go/internal/params"
	"github.com/crowbarz/avrctl-go/internal/registry"
	"github.com/crowbarz/avrctl-go/internal/store"
)

// Client is the facade: the single handle an application holds to
// drive a receiver.
type Client struct {
	engine   *conn.Engine
	store    *store.Store
	params   *params.Parameters
	registry *registry.Registry
	notify   *notify.Bus
}

func newClient(dial conn.DialFunc, p *params.Parameters) *Client {
	if p == nil {
		p = params.New()
	}
	reg := codes.Build()
	st := store.New(p, nil)

	c := &Client{
		store:    st,
		params:   p,
		registry: reg,
		notify:   notify.NewBus(),
	}
	c.engine = conn.New(dial, p, st, reg, c.onReconnect)
	c.engine.SetUpdateHook(c.onUpdate)
	c.registerLocalCommands()
	return c
}

func (c *Client) encodeCtx() codemap.EncodeContext {
	return codemap.EncodeContext{Store: c.store, Params: c.params}
}

func (c *Client) onUpdate(zones map[model.Zone]struct{}) {
	c.notify.Publish(notify.Update{Zones: zones})
}

// onReconnect rehydrates all device state after a successful
// reconnect: the device has no persisted state of its own (§6), so
// everything must be re-queried from scratch.
func (c *Client) onReconnect() {
	c.store.Reset()
	ctx := context.Background()
	if err := c.QueryDeviceInfo(ctx); err != nil {
		slog.Warn("avr: device info query failed after reconnect", "err", err)
	}
	if err := c.QueryZones(ctx, false); err != nil {
		slog.Warn("avr: zone query failed after reconnect", "err", err)
		return
	}
	if err := c.Refresh(ctx, nil); err != nil {
		slog.Warn("avr: refresh failed after reconnect", "err", err)
	}
}

// Connect opens the session. reconnect records whether a later
// disconnect should itself schedule a reconnect attempt.
func (c *Client) Connect(ctx context.Context, reconnect bool) error {
	return c.engine.Connect(ctx, reconnect)
}

// Disconnect tears the session down, optionally scheduling a
// reconnect.
func (c *Client) Disconnect(reconnect bool) error {
	return c.engine.Disconnect(reconnect)
}

// Shutdown cancels any reconnect task and disconnects for good.
func (c *Client) Shutdown() error {
	return c.engine.Shutdown()
}

// SetTimeout overrides the session timeout (connect + per-request
// wait), in seconds.
func (c *Client) SetTimeout(seconds float64) {
	c.params.SetUser(params.KeyTimeout, seconds)
}

// SetScanInterval overrides the debounce interval Update honours, in
// seconds.
func (c *Client) SetScanInterval(seconds float64) {
	c.params.SetUser(params.KeyScanInterval, seconds)
}

// State reports the engine's lifecycle state (for diag.StatusSource).
func (c *Client) State() conn.State {
	return c.engine.State()
}

// ListCommands returns the names of every command whose name has the
// given prefix ("" matches all), optionally filtered to zone.
func (c *Client) ListCommands(prefix string, zone model.Zone) []string {
	cmds := c.registry.GetCommands(prefix, zone)
	names := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		names = append(names, cmd.Name)
	}
	return names
}

// Snapshot returns a read-only copy of the current store (for
// diag.StatusSource).
func (c *Client) Snapshot() store.Snapshot {
	return c.store.Snapshot()
}

// Subscribe registers for zone-update notifications. Call Unsubscribe
// with the returned id when done.
func (c *Client) Subscribe() (uuid.UUID, <-chan notify.Update) {
	return c.notify.Subscribe()
}

// Unsubscribe releases a subscription created by Subscribe.
func (c *Client) Unsubscribe(id uuid.UUID) {
	c.notify.Unsubscribe(id)
}

// RunAutoUpdate runs a debounced Update(false) on every tick of
// interval until ctx is cancelled, in the style of the teacher's
// maintenance goroutines (internal/maintenance.New's ticker loop).
func (c *Client) RunAutoUpdate(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Update(ctx, false); err != nil {
				slog.Debug("avr: auto-update failed", "err", err)
			}
		}
	}
}
