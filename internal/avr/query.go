package avr

import (
	"context"
	"time"

	"github.com/crowbarz/avrctl-go/internal/avrerr"
	"github.com/crowbarz/avrctl-go/internal/codes"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/params"
)

func ignoredZones(p *params.Parameters) map[string]bool {
	raw, _ := p.Get(params.KeyIgnoredZones, []string{}).([]string)
	out := make(map[string]bool, len(raw))
	for _, z := range raw {
		out[z] = true
	}
	return out
}

// QueryZones probes every candidate zone with query_power (and, if
// forceUpdate, query_volume too), discovering the zones that respond.
// The main zone's absence is fatal, per spec.md §4.H.
func (c *Client) QueryZones(ctx context.Context, forceUpdate bool) error {
	ignored := ignoredZones(c.params)
	mainSeen := false

	for _, zone := range model.Zones {
		if ignored[string(zone)] {
			continue
		}
		if _, err := c.engine.Dispatch(ctx, "query_power", zone, nil, nil, true); err != nil {
			continue
		}
		c.store.AddZone(zone)
		if zone == model.Main {
			mainSeen = true
		}
		if forceUpdate {
			_, _ = c.engine.Dispatch(ctx, "query_volume", zone, nil, nil, true)
		}
	}

	if !mainSeen {
		return avrerr.NewCommandUnavailable("query_zones", "main zone did not respond")
	}
	return nil
}

// QueryDeviceInfo issues the model/MAC/software-version queries and,
// once the model string is known, re-derives parameters from it.
func (c *Client) QueryDeviceInfo(ctx context.Context) error {
	ignore := true
	for _, name := range []string{"query_system_model", "query_system_mac_addr", "query_system_software_version"} {
		_, _ = c.engine.Dispatch(ctx, name, model.ALL, nil, &ignore, true)
	}
	if v, ok := c.store.GroupValue("amp", "model"); ok {
		if name, ok := v.(string); ok && name != "" {
			c.params.SetUser(params.KeyModel, name)
		}
	}
	return nil
}

// BuildSourceDict discovers source names by cycling set_source_id
// across candidateIDs on zone and capturing the RGB broadcast each
// selection provokes, restoring the originally selected source
// afterward. Called when the caller has not supplied a source dict
// via SetSourceDict.
func (c *Client) BuildSourceDict(ctx context.Context, zone model.Zone, candidateIDs []int, settle time.Duration) error {
	c.store.EnableQuerySources()
	origID, hadOrig := c.store.SourceID(zone)
	ignore := true

	for _, id := range candidateIDs {
		if _, err := c.engine.Dispatch(ctx, "set_source_id", zone, []any{id}, &ignore, true); err != nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settle):
		}
	}

	if hadOrig {
		_, _ = c.engine.Dispatch(ctx, "set_source_id", zone, []any{origID}, &ignore, true)
	}
	return nil
}

// refreshZone issues a full set of queries for one zone.
func (c *Client) refreshZone(ctx context.Context, zone model.Zone) error {
	c.store.Queue.SetRefreshing(zone, true)
	defer c.store.Queue.SetRefreshing(zone, false)

	ignore := true
	names := []string{"query_power", "query_volume", "query_mute", "query_source_id"}
	if zone == model.Main {
		names = append(names, "query_tone_status", "query_tone_bass", "query_tone_treble", "query_channel_level")
	}
	for _, name := range names {
		if _, err := c.engine.Dispatch(ctx, name, zone, nil, &ignore, true); err != nil {
			return err
		}
	}
	c.store.MarkInitialRefresh(zone)
	return nil
}

// basicQuery issues a short status poll for zone (power + volume),
// the target of the queue's idempotent _delayed_basic_query
// placeholder.
func (c *Client) basicQuery(ctx context.Context, zone model.Zone) error {
	ignore := true
	_, err := c.engine.Dispatch(ctx, "query_power", zone, nil, &ignore, true)
	if err != nil {
		return err
	}
	_, err = c.engine.Dispatch(ctx, "query_volume", zone, nil, &ignore, true)
	return err
}

// Refresh issues a full set of queries for zone, or every discovered
// zone when zone is nil.
func (c *Client) Refresh(ctx context.Context, zone *model.Zone) error {
	if zone != nil {
		return c.refreshZone(ctx, *zone)
	}
	c.store.Queue.SetStarting(true)
	defer c.store.Queue.SetStarting(false)

	ignore := true
	_, _ = c.engine.Dispatch(ctx, "query_listening_mode", model.ALL, nil, &ignore, true)
	_, _ = c.engine.Dispatch(ctx, "query_audio_information", model.ALL, nil, &ignore, true)
	c.updateListeningModes()

	for _, zone := range c.store.Zones() {
		if err := c.refreshZone(ctx, zone); err != nil {
			return err
		}
	}
	return nil
}

// updateListeningModes recomputes the store's listening-mode catalogue
// from internal/codes.BaseListeningModes plus any parameters-supplied
// extras/enabled/disabled lists.
func (c *Client) updateListeningModes() {
	extraRaw, _ := c.params.Get(params.KeyExtraListeningModes, map[string]any{}).(map[string]any)
	extra := make(map[int]model.ListeningMode, len(extraRaw))
	for _, v := range extraRaw {
		if lm, ok := v.(model.ListeningMode); ok {
			extra[len(extra)] = lm
		}
	}
	enabled, _ := c.params.Get(params.KeyEnabledListeningModes, []string{}).([]string)
	disabled, _ := c.params.Get(params.KeyDisabledListeningModes, []string{}).([]string)
	c.store.UpdateListeningModes(codes.BaseListeningModes, extra, enabled, disabled)
}

// Update is a debounced Refresh: it does nothing if the last ingested
// frame is within scan_interval and always_poll is false, per
// spec.md §4.H.
func (c *Client) Update(ctx context.Context, full bool) error {
	alwaysPoll, _ := c.params.Get(params.KeyAlwaysPoll, false).(bool)
	scanInterval, _ := c.params.Get(params.KeyScanInterval, 60.0).(float64)

	if !full && !alwaysPoll {
		since := time.Since(c.engine.LastUpdated())
		if since < time.Duration(scanInterval*float64(time.Second)) {
			return nil
		}
	}

	var zone *model.Zone
	if full {
		zone = nil
	}
	return c.Refresh(ctx, zone)
}
