package notify

import (
	"testing"

	"github.com/crowbarz/avrctl-go/internal/model"
)

func TestSubscribePublishDelivers(t *testing.T) {
	b := NewBus()
	_, ch := b.Subscribe()

	want := Update{Zones: map[model.Zone]struct{}{model.Z1: {}}}
	b.Publish(want)

	select {
	case got := <-ch:
		if _, ok := got.Zones[model.Z1]; !ok {
			t.Errorf("got %+v, want Z1 present", got)
		}
	default:
		t.Fatal("expected the published update to be immediately available")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	id, ch := b.Subscribe()
	b.Unsubscribe(id)

	_, ok := <-ch
	if ok {
		t.Fatal("expected the channel to be closed after Unsubscribe")
	}
}

func TestPublishDropsOnFullSubscriberWithoutBlocking(t *testing.T) {
	b := NewBus()
	_, ch := b.Subscribe()

	for i := 0; i < subBufferSize+5; i++ {
		b.Publish(Update{Zones: map[model.Zone]struct{}{model.Z1: {}}})
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
			continue
		default:
		}
		break
	}
	if count != subBufferSize {
		t.Errorf("expected exactly the buffer size (%d) delivered with the rest dropped, got %d", subBufferSize, count)
	}
}

func TestSubscriberCount(t *testing.T) {
	b := NewBus()
	if b.SubscriberCount() != 0 {
		t.Fatal("expected 0 subscribers initially")
	}
	id1, _ := b.Subscribe()
	_, _ = b.Subscribe()
	if b.SubscriberCount() != 2 {
		t.Errorf("expected 2 subscribers, got %d", b.SubscriberCount())
	}
	b.Unsubscribe(id1)
	if b.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber after unsubscribe, got %d", b.SubscriberCount())
	}
}

func TestPublishFanOutToMultipleSubscribers(t *testing.T) {
	b := NewBus()
	_, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()

	b.Publish(Update{Zones: map[model.Zone]struct{}{model.Z2: {}}})

	for _, ch := range []<-chan Update{ch1, ch2} {
		select {
		case u := <-ch:
			if _, ok := u.Zones[model.Z2]; !ok {
				t.Error("expected Z2 in the fanned-out update")
			}
		default:
			t.Error("expected both subscribers to receive the update")
		}
	}
}
