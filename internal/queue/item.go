// Package queue implements the command queue component: four FIFO
// priority queues with per-item skip rules and a single executor task.
package queue

import (
	"time"

	"github.com/crowbarz/avrctl-go/internal/model"
)

// Priority queue indices, 0 highest.
const (
	QueueAtomic  = 0 // volume bounce, AM-step calculation
	QueueNormal  = 1 // ordinary device commands
	QueueRefresh = 2 // zone refresh commands
	QueueBasic   = 3 // delayed basic queries, internal state updates
)

const numQueues = 4

// Distinguished command names referenced by the equality relation and
// by decoders that enqueue follow-up work.
const (
	CmdDelayedBasicQuery   = "_delayed_basic_query"
	CmdFullRefresh         = "_full_refresh"
	CmdRefreshZone         = "_refresh_zone"
	CmdDelayedRefreshZone  = "_delayed_refresh_zone"
	CmdCalcAMFrequencyStep = "_calculate_am_frequency_step"
	CmdUpdateListeningModes = "_update_listening_modes"
)

// idempotentPlaceholders names commands for which only the name (not
// the arguments) matters for skip-if-queued dedup.
var idempotentPlaceholders = map[string]bool{
	CmdDelayedBasicQuery: true,
}

// Item is a single unit of queued work: a command name plus the
// context needed to format and dispatch it, plus the scheduling flags
// from §3/§4.E.
type Item struct {
	Command          string
	Args             []any
	Zone             model.Zone
	QueueID          int
	InsertAt         int
	IgnoreError      *bool // nil means "propagate" (the null tri-state)
	RateLimit        bool
	SkipIfStarting   bool
	SkipIfRefreshing bool
	SkipIfQueued     bool

	// Delay, when positive, defers the item's actual insertion by that
	// duration (e.g. the delayed basic-query, a delayed zone refresh).
	// The item counts as "queued" for skip-if-queued purposes from the
	// moment it is accepted, not from when the delay expires, so a
	// second delayed enqueue of the same item is itself skipped.
	Delay time.Duration
}

// NewItem returns an Item with the queue's default flags: rate
// limiting enabled, skip-if-queued enabled, inserted at the end of its
// queue.
func NewItem(command string, zone model.Zone, queueID int, args ...any) Item {
	return Item{
		Command:      command,
		Args:         args,
		Zone:         zone,
		QueueID:      queueID,
		InsertAt:     -1,
		RateLimit:    true,
		SkipIfQueued: true,
	}
}

// NewDelayedItem returns an Item identical to NewItem's default but
// deferred by delay before it actually enters its queue.
func NewDelayedItem(command string, zone model.Zone, queueID int, delay time.Duration, args ...any) Item {
	item := NewItem(command, zone, queueID, args...)
	item.Delay = delay
	return item
}

// Equal implements the non-symmetric relation of §3: lhs is the
// already-queued item, rhs is the candidate being considered for
// enqueue. Orientation matters — see the startup sanity check below.
func (lhs Item) Equal(rhs Item) bool {
	if lhs.Command == rhs.Command && idempotentPlaceholders[lhs.Command] {
		return true
	}
	if lhs.Command == CmdFullRefresh &&
		(rhs.Command == CmdRefreshZone || rhs.Command == CmdDelayedRefreshZone) {
		return true
	}
	if lhs.Command != rhs.Command {
		return false
	}
	return argsEqual(lhs.Args, rhs.Args)
}

func argsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
