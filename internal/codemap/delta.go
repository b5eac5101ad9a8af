// Package codemap defines the code-map framework of component B: a
// tagged interface per family (REDESIGN FLAGS, §9) rather than a
// duck-typed class hierarchy, plus the Delta record decoding produces.
package codemap

import (
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/params"
	"github.com/crowbarz/avrctl-go/internal/queue"
	"github.com/crowbarz/avrctl-go/internal/store"
)

// EncodeContext bundles the dynamic context a map may need to format
// or decode a value: the property store (for e.g. per-zone max volume)
// and the effective parameters.
type EncodeContext struct {
	Store  *store.Store
	Params *params.Parameters
}

// Callback runs when its owning delta is about to be committed. It
// receives the delta (with Callback already cleared) and returns
// further deltas to run ahead of the remaining work-queue; the
// callback-bearing delta itself is never committed.
type Callback func(d Delta) []Delta

// Delta is a single property-change record produced by decoding, per
// the GLOSSARY. A delta with a non-nil Callback is not committed
// directly: the dispatcher invokes the callback and prepends its
// result to the remaining work.
type Delta struct {
	BaseProperty string
	PropertyName string
	Zone         model.Zone
	Value        any
	Code         string

	// UpdateZones lists additional zones the facade should treat as
	// updated beyond Zone itself (e.g. {ALL} for power-on).
	UpdateZones map[model.Zone]struct{}

	// QueueCommands are follow-up items extended onto the store's
	// queue once this delta is committed. A delta with a Callback is
	// not committed, so its own QueueCommands are not extended; follow-
	// ups go on a delta the callback returns.
	QueueCommands []queue.Item

	Callback Callback
}

// WithUpdateZones returns a copy of d with zones added to UpdateZones.
func (d Delta) WithUpdateZones(zones ...model.Zone) Delta {
	if d.UpdateZones == nil {
		d.UpdateZones = make(map[model.Zone]struct{}, len(zones))
	} else {
		merged := make(map[model.Zone]struct{}, len(d.UpdateZones)+len(zones))
		for z := range d.UpdateZones {
			merged[z] = struct{}{}
		}
		d.UpdateZones = merged
	}
	for _, z := range zones {
		d.UpdateZones[z] = struct{}{}
	}
	return d
}

// WithQueueCommands returns a copy of d with items appended to
// QueueCommands.
func (d Delta) WithQueueCommands(items ...queue.Item) Delta {
	d.QueueCommands = append(append([]queue.Item{}, d.QueueCommands...), items...)
	return d
}

// Clone derives a new delta from d. UpdateZones is always merged in;
// QueueCommands and Callback are never inherited. BaseProperty/
// PropertyName and Value are inherited unless the corresponding flag
// is false.
func (d Delta) Clone(inheritProperty, inheritValue bool) Delta {
	nd := Delta{Zone: d.Zone, Code: d.Code}
	if inheritProperty {
		nd.BaseProperty = d.BaseProperty
		nd.PropertyName = d.PropertyName
	}
	if inheritValue {
		nd.Value = d.Value
	}
	if len(d.UpdateZones) > 0 {
		nd.UpdateZones = make(map[model.Zone]struct{}, len(d.UpdateZones))
		for z := range d.UpdateZones {
			nd.UpdateZones[z] = struct{}{}
		}
	}
	return nd
}
