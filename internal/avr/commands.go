package avr

import (
	"context"

	"github.com/crowbarz/avrctl-go/internal/model"
)

// maxVolumeStepFallback caps the number of single-step volume_up/
// volume_down issues SetVolume falls back to when no set_volume
// command is wired for a zone (SC-LX79-style receivers), mirroring
// aiopioneer's step-based volume workaround.
const maxVolumeStepFallback = 50

// SendCommand is the facade's public entry point for issuing any
// registered command by name (spec.md §4.H): it resolves name/zone
// and, for anything with wire representation, dispatches it straight
// through the engine rather than via the queue, so the caller's error
// is observed synchronously.
func (c *Client) SendCommand(ctx context.Context, name string, zone model.Zone, args []any, ignoreError *bool) (string, error) {
	return c.engine.Dispatch(ctx, name, zone, args, ignoreError, true)
}

// SetVolume sets zone's volume to level, stepping via volume_up/
// volume_down instead whenever the direct set_volume dispatch returns
// an error (e.g. it is registered with an empty Map), capped at
// maxVolumeStepFallback steps to bound worst-case command bursts.
func (c *Client) SetVolume(ctx context.Context, zone model.Zone, level int) error {
	ignore := true
	if _, err := c.engine.Dispatch(ctx, "set_volume", zone, []any{level}, &ignore, true); err == nil {
		return nil
	}

	cur, ok := c.store.Volume(zone)
	if !ok {
		return nil
	}
	delta := level - cur
	steps := delta
	if steps < 0 {
		steps = -steps
	}
	if steps > maxVolumeStepFallback {
		steps = maxVolumeStepFallback
	}
	name := "volume_up"
	if delta < 0 {
		name = "volume_down"
	}
	for i := 0; i < steps; i++ {
		if _, err := c.engine.Dispatch(ctx, name, zone, nil, &ignore, true); err != nil {
			return err
		}
	}
	return nil
}

// SelectSource switches zone to sourceID.
func (c *Client) SelectSource(ctx context.Context, zone model.Zone, sourceID int) error {
	_, err := c.engine.Dispatch(ctx, "set_source_id", zone, []any{sourceID}, nil, true)
	return err
}

// SetZonePower turns zone on or off.
func (c *Client) SetZonePower(ctx context.Context, zone model.Zone, on bool) error {
	_, err := c.engine.Dispatch(ctx, "set_power", zone, []any{on}, nil, true)
	return err
}

// SetMute sets zone's mute state.
func (c *Client) SetMute(ctx context.Context, zone model.Zone, muted bool) error {
	_, err := c.engine.Dispatch(ctx, "set_mute", zone, []any{muted}, nil, true)
	return err
}

// SetTunerFrequency tunes the AM/FM tuner to frequencyKHz on the given
// band.
func (c *Client) SetTunerFrequency(ctx context.Context, band model.TunerBand, frequencyKHz float64) error {
	name := "set_tuner_frequency_fm"
	if band == model.BandAM {
		name = "set_tuner_frequency_am"
	}
	_, err := c.engine.Dispatch(ctx, name, model.ALL, []any{frequencyKHz}, nil, true)
	return err
}
