// Package notify implements the zone-update event bus: a
// publish-subscribe channel fan-out for the zones a decode touched,
// grounded on the teacher's internal/events.Bus non-blocking,
// drop-on-full design, generalized from one fixed System-state topic
// to per-update zone sets and keyed by a generated subscriber id
// (google/uuid) rather than a caller-supplied string.
package notify

import (
	"sync"

	"github.com/google/uuid"

	"github.com/crowbarz/avrctl-go/internal/model"
)

const subBufferSize = 8

// Update is one notification: the zones touched by a single decoded
// frame (per internal/conn.UpdateHook).
type Update struct {
	Zones map[model.Zone]struct{}
}

// Bus is a non-blocking publish-subscribe bus of zone Updates.
// Subscribers that fail to keep up have updates dropped rather than
// blocking the ingestion loop that publishes them.
type Bus struct {
	mu   sync.Mutex
	subs map[uuid.UUID]chan Update
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uuid.UUID]chan Update)}
}

// Subscribe registers a new subscription and returns its id and
// channel. Call Unsubscribe(id) when done to release it.
func (b *Bus) Subscribe() (uuid.UUID, <-chan Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := uuid.New()
	ch := make(chan Update, subBufferSize)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish fans out u to every subscriber, dropping it for any
// subscriber whose channel is currently full.
func (b *Bus) Publish(u Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- u:
		default:
		}
	}
}

// SubscriberCount reports the current number of subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
