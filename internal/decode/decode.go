// Package decode implements the decoder dispatcher of component G:
// for each ingested frame, find the map, decode it, commit the
// resulting deltas to the store, and enqueue any follow-up commands.
package decode

import (
	"log/slog"
	"strings"

	"github.com/crowbarz/avrctl-go/internal/avrerr"
	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/queue"
	"github.com/crowbarz/avrctl-go/internal/registry"
	"github.com/crowbarz/avrctl-go/internal/store"
)

// busySentinel is the one busy response explicitly silently ignored
// (other busy/error sentinels are still logged as misses).
const busySentinel = "B00"

// ProcessRawResponse is the pure dispatcher function of §4.G. It
// matches frame against the registry's response index, decodes it,
// and commits the resulting deltas to st, returning the set of zones
// touched.
func ProcessRawResponse(ctx codemap.EncodeContext, reg *registry.Registry, st *store.Store, frame string) (map[model.Zone]struct{}, error) {
	prefix, mp, zone, ok := reg.MatchResponse(frame)
	if !ok {
		if frame == busySentinel || strings.HasPrefix(frame, "E") {
			return nil, nil
		}
		slog.Debug("decode: no map registered for response", "frame", frame)
		return nil, nil
	}

	code := frame[len(prefix):]
	seed := codemap.Delta{Code: code, Zone: zone}

	deltas, err := mp.DecodeResponse(ctx, seed)
	if err != nil {
		return nil, avrerr.NewDecodeError(frame, err)
	}

	updatedZones := make(map[model.Zone]struct{})
	var followUps []queue.Item

	work := deltas
	for len(work) > 0 {
		d := work[0]
		work = work[1:]

		if d.Callback != nil {
			cb := d.Callback
			d.Callback = nil
			expansion := cb(d)
			work = append(expansion, work...)
			continue
		}

		st.Commit(d.BaseProperty, d.PropertyName, d.Zone, d.Value, d.Code)

		if d.Zone != "" {
			updatedZones[d.Zone] = struct{}{}
		}
		for z := range d.UpdateZones {
			updatedZones[z] = struct{}{}
		}
		followUps = append(followUps, d.QueueCommands...)
	}

	if len(followUps) > 0 {
		st.Queue.Extend(followUps)
	}

	return updatedZones, nil
}
