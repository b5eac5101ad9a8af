package conn

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/crowbarz/avrctl-go/internal/avrerr"
	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/params"
	"github.com/crowbarz/avrctl-go/internal/queue"
	"github.com/crowbarz/avrctl-go/internal/registry"
	"github.com/crowbarz/avrctl-go/internal/store"
	"github.com/crowbarz/avrctl-go/internal/transport"
)

// pipeTransport adapts one end of a net.Pipe to transport.Transport for
// tests, avoiding any real socket I/O.
type pipeTransport struct {
	net.Conn
}

func (p pipeTransport) SetKeepAlive(idle, interval time.Duration, maxFails int) error { return nil }

func newPipeEngine(t *testing.T, reg *registry.Registry) (*Engine, *params.Parameters, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { server.Close() })

	p := params.New()
	p.SetUser(params.KeyTimeout, 0.3)
	st := store.New(p, nil)
	if reg == nil {
		reg = registry.New()
	}
	dial := func(ctx context.Context) (transport.Transport, error) {
		return pipeTransport{client}, nil
	}
	e := New(dial, p, st, reg, nil)
	return e, p, server
}

// noDialEngine builds an Engine whose dial always fails, suitable for
// tests that only exercise Dispatch's command resolution and never
// actually connect.
func noDialEngine(reg *registry.Registry) *Engine {
	p := params.New()
	st := store.New(p, nil)
	if reg == nil {
		reg = registry.New()
	}
	dial := func(ctx context.Context) (transport.Transport, error) {
		return nil, context.DeadlineExceeded
	}
	return New(dial, p, st, reg, nil)
}

func TestEngineConnectAndDisconnectLifecycle(t *testing.T) {
	e, _, server := newPipeEngine(t, nil)

	if err := e.Connect(context.Background(), false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if e.State() != Connected {
		t.Errorf("State() = %v, want Connected", e.State())
	}
	if !e.IsAvailable() {
		t.Error("expected IsAvailable() after Connect")
	}

	if err := e.Connect(context.Background(), false); err == nil {
		t.Error("expected a second Connect to fail")
	} else if ce, ok := err.(*avrerr.ConnError); !ok || ce.Kind != avrerr.AlreadyConnected {
		t.Errorf("expected AlreadyConnected, got %v (%T)", err, err)
	}

	if err := e.Disconnect(false); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if e.State() != Disconnected {
		t.Errorf("State() = %v, want Disconnected", e.State())
	}
	if e.IsAvailable() {
		t.Error("expected IsAvailable() false after Disconnect")
	}
	_ = server
}

func TestEngineIngestDecodesFrameAndNotifiesUpdateHook(t *testing.T) {
	reg := registry.New()
	reg.Register(&registry.PropertyEntry{
		Map:            codemap.NewBool(codemap.Meta{Base: "power"}),
		Zone:           model.Z1,
		ResponsePrefix: "PWR",
	})
	e, _, server := newPipeEngine(t, reg)

	updated := make(chan map[model.Zone]struct{}, 1)
	e.SetUpdateHook(func(zones map[model.Zone]struct{}) { updated <- zones })

	if err := e.Connect(context.Background(), false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := server.Write([]byte("PWR0\r\n")); err != nil {
		t.Fatalf("server write: %v", err)
	}

	select {
	case zones := <-updated:
		if _, ok := zones[model.Z1]; !ok {
			t.Errorf("expected Z1 reported updated, got %v", zones)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the update hook to fire")
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	e := noDialEngine(nil)
	_, err := e.Dispatch(context.Background(), "nonexistent", model.Z1, nil, nil, false)
	if err == nil {
		t.Fatal("expected an error for an unregistered command")
	}
}

func TestDispatchLocalCommand(t *testing.T) {
	e := noDialEngine(nil)
	var called bool
	e.RegisterLocalCommand("_full_refresh", func(ctx context.Context, item queue.Item) error {
		called = true
		return nil
	})
	if _, err := e.Dispatch(context.Background(), "_full_refresh", model.ALL, nil, nil, false); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !called {
		t.Error("expected the registered local command handler to run")
	}
}

func TestDispatchKnownCommandWithEmptyAVRCommandsIsUnknownLocal(t *testing.T) {
	reg := registry.New()
	reg.Register(&registry.PropertyEntry{Commands: []*registry.Command{
		{Name: "_update_listening_modes"},
	}})
	e := noDialEngine(reg)

	_, err := e.Dispatch(context.Background(), "_update_listening_modes", model.ALL, nil, nil, false)
	ce, ok := err.(*avrerr.CommandError)
	if !ok || ce.Kind != avrerr.UnknownLocalCommand {
		t.Fatalf("expected UnknownLocalCommand, got %v (%T)", err, err)
	}
}

func TestSendCommandUnavailableWhenDisconnected(t *testing.T) {
	reg := registry.New()
	reg.Register(&registry.PropertyEntry{Commands: []*registry.Command{
		{Name: "set_power", AVRCommands: map[model.Zone]string{model.Z1: "PWR"}},
	}})
	e := noDialEngine(reg)

	ignore := true
	_, err := e.SendCommand(context.Background(), "set_power", model.Z1, "", "1", &ignore, false)
	if !avrerr.IsUnavailable(err) {
		t.Fatalf("expected Unavailable regardless of ignore_error=true, got %v", err)
	}
}
