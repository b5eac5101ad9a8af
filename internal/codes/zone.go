// Package codes holds the concrete code maps of component B: the
// representative wire properties named in spec.md §4.B.1, grounded on
// aiopioneer's decoders/ table (not parsers/ — see DESIGN.md's open
// question note). The full device table is a mechanical extension of
// this shape.
package codes

import (
	"fmt"
	"time"

	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/params"
	"github.com/crowbarz/avrctl-go/internal/queue"
)

// Delayed re-query intervals §4.B.1 fixes for zone power transitions.
const (
	DelayedBasicQueryAfterOn  = 2500 * time.Millisecond
	DelayedBasicQueryAfterOff = 4500 * time.Millisecond
)

// PowerMap implements the zone power contract of §4.B.1: the wire
// encoding is an inverse boolean (0 means on), and a decoded transition
// enqueues follow-up work depending on direction and on whether the
// zone has completed its first refresh.
type PowerMap struct {
	codemap.BoolMap
}

// NewPower returns the zone power map for the given zone's metadata.
func NewPower(zones ...model.Zone) PowerMap {
	return PowerMap{BoolMap: codemap.NewInverseBool(codemap.Meta{
		Base: "power", Friendly: "zone power", Zones: zones,
	})}
}

func (m PowerMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	deltas, err := m.BoolMap.DecodeResponse(ctx, seed)
	if err != nil {
		return nil, err
	}
	d := deltas[0].WithUpdateZones(model.ALL)
	on, _ := d.Value.(bool)

	if !ctx.Store.Queue.IsStarting() {
		if on {
			d.Callback = func(cb codemap.Delta) []codemap.Delta { return powerOnFollowUps(ctx, cb) }
		} else {
			d.Callback = func(cb codemap.Delta) []codemap.Delta { return powerOffFollowUps(cb) }
		}
	}
	return []codemap.Delta{d}, nil
}

func powerOnFollowUps(ctx codemap.EncodeContext, d codemap.Delta) []codemap.Delta {
	zone := d.Zone
	st := ctx.Store
	if wasOn, had := st.Power(zone); had && wasOn {
		return []codemap.Delta{d}
	}

	items := []queue.Item{
		queue.NewDelayedItem(queue.CmdDelayedBasicQuery, zone, queue.QueueBasic, DelayedBasicQueryAfterOn),
	}
	if !st.HasInitialRefresh(zone) {
		items = append(items, queue.NewDelayedItem(queue.CmdDelayedRefreshZone, zone, queue.QueueRefresh, 0))
	}
	if zone == model.Main {
		if bounce, _ := ctx.Params.Get(params.KeyPowerOnVolumeBounce, false).(bool); bounce {
			up := queue.NewItem("volume_up", model.Main, queue.QueueAtomic)
			up.SkipIfQueued = false
			down := queue.NewItem("volume_down", model.Main, queue.QueueAtomic)
			down.SkipIfQueued = false
			items = append(items, up, down)
		}
	}
	d.QueueCommands = items
	return []codemap.Delta{d}
}

func powerOffFollowUps(d codemap.Delta) []codemap.Delta {
	d.QueueCommands = []queue.Item{
		queue.NewDelayedItem(queue.CmdDelayedBasicQuery, d.Zone, queue.QueueBasic, DelayedBasicQueryAfterOff),
	}
	return []codemap.Delta{d}
}

// VolumeMap implements the zone volume contract of §4.B.1: an integer
// map whose upper bound and zero-pad width are per-zone, the bound
// read dynamically from the store.
type VolumeMap struct {
	codemap.NumberMap
}

// NewVolume returns the zone volume map. Main zone pads to 3 digits,
// other zones to 2, matching the wire format difference.
func NewVolume(zones ...model.Zone) VolumeMap {
	n := codemap.NewInt(codemap.Meta{Base: "volume", Friendly: "volume", Zones: zones}, 3, 0, 0,
		codemap.WithBoundsFunc(func(ctx codemap.EncodeContext, zone model.Zone) (float64, float64, bool) {
			max, ok := ctx.Store.MaxVolume(zone)
			if !ok {
				return 0, 0, false
			}
			return 0, float64(max), true
		}),
	)
	return VolumeMap{NumberMap: n}
}

// ValueToCode zero-pads to 3 digits for the main zone and 2 for every
// other zone (the wire formats differ even though both share bounds
// logic).
func (m VolumeMap) ValueToCode(ctx codemap.EncodeContext, zone model.Zone, value any) (string, error) {
	width := 2
	if zone == model.Main {
		width = 3
	}
	n := m.NumberMap
	n.CodeLen = width
	return n.ValueToCode(ctx, zone, value)
}

func (m VolumeMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	return m.NumberMap.DecodeResponse(ctx, seed)
}

// ParseArgs is overridden rather than inherited from NumberMap: Go's
// embedding does not dispatch virtually, so NumberMap.ParseArgs would
// call NumberMap.ValueToCode directly and lose the per-zone zero-pad
// width above.
func (m VolumeMap) ParseArgs(ctx codemap.EncodeContext, zone model.Zone, args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("codemap: %s: expected 1 argument, got %d", m.Base, len(args))
	}
	return m.ValueToCode(ctx, zone, args[0])
}

// NewMute returns the zone mute map (a plain, non-inverted boolean).
func NewMute(zones ...model.Zone) codemap.BoolMap {
	return codemap.NewBool(codemap.Meta{Base: "mute", Friendly: "mute", Zones: zones})
}
