package avr

import (
	"context"
	"log/slog"

	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/queue"
)

// registerLocalCommands wires the 8 auxiliary command names
// internal/codes.registerAuxiliaryCommands registers with an empty
// AVRCommands map (no wire representation of their own) to the facade
// logic that actually carries them out. conn.Engine.Dispatch resolves
// these ahead of the registry lookup, so they work identically whether
// queued (e.g. as a decoder's Delta.QueueCommands follow-up) or invoked
// directly.
func (c *Client) registerLocalCommands() {
	e := c.engine

	e.RegisterLocalCommand(queue.CmdDelayedBasicQuery, func(ctx context.Context, item queue.Item) error {
		return c.basicQuery(ctx, item.Zone)
	})
	e.RegisterLocalCommand(queue.CmdFullRefresh, func(ctx context.Context, item queue.Item) error {
		return c.Refresh(ctx, nil)
	})
	e.RegisterLocalCommand(queue.CmdRefreshZone, func(ctx context.Context, item queue.Item) error {
		zone := item.Zone
		return c.Refresh(ctx, &zone)
	})
	e.RegisterLocalCommand(queue.CmdDelayedRefreshZone, func(ctx context.Context, item queue.Item) error {
		zone := item.Zone
		return c.Refresh(ctx, &zone)
	})
	e.RegisterLocalCommand(queue.CmdCalcAMFrequencyStep, func(ctx context.Context, item queue.Item) error {
		return c.calculateAMFrequencyStep(ctx)
	})
	e.RegisterLocalCommand(queue.CmdUpdateListeningModes, func(ctx context.Context, item queue.Item) error {
		c.updateListeningModes()
		return nil
	})
	e.RegisterLocalCommand("volume_up", func(ctx context.Context, item queue.Item) error {
		return c.stepVolume(ctx, item.Zone, 1)
	})
	e.RegisterLocalCommand("volume_down", func(ctx context.Context, item queue.Item) error {
		return c.stepVolume(ctx, item.Zone, -1)
	})
}

// calculateAMFrequencyStep is a simplified stand-in for aiopioneer's
// step-up/step-down probing cycle: it simply (re-)issues the AM
// frequency-step query, whose response FrequencyAMStepMap
// (internal/codes/tuner.go) decodes into the step directly. The
// divisibility heuristic lives in the AM frequency decoder, which
// gleans the step from each decoded frequency.
func (c *Client) calculateAMFrequencyStep(ctx context.Context) error {
	ignore := true
	_, err := c.engine.Dispatch(ctx, "query_tuner_am_frequency_step", model.ALL, nil, &ignore, true)
	if err != nil {
		slog.Debug("avr: am frequency step query failed", "err", err)
	}
	return nil
}

// stepVolume nudges zone's cached volume by delta steps via
// set_volume, used by the power-on volume-bounce workaround
// (internal/codes/zone.go's powerOnFollowUps) and available directly
// as volume_up/volume_down.
func (c *Client) stepVolume(ctx context.Context, zone model.Zone, delta int) error {
	cur, ok := c.store.Volume(zone)
	if !ok {
		return nil
	}
	ignore := true
	_, err := c.engine.Dispatch(ctx, "set_volume", zone, []any{cur + delta}, &ignore, true)
	return err
}
