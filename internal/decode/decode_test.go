package decode

import (
	"testing"

	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/params"
	"github.com/crowbarz/avrctl-go/internal/queue"
	"github.com/crowbarz/avrctl-go/internal/registry"
	"github.com/crowbarz/avrctl-go/internal/store"
)

func newTestEnv() (codemap.EncodeContext, *registry.Registry, *store.Store) {
	p := params.New()
	st := store.New(p, nil)
	ctx := codemap.EncodeContext{Store: st, Params: p}
	return ctx, registry.New(), st
}

func TestProcessRawResponseCommitsDecodedDelta(t *testing.T) {
	ctx, reg, st := newTestEnv()
	reg.Register(&registry.PropertyEntry{
		Map:            codemap.NewBool(codemap.Meta{Base: "mute"}),
		Zone:           model.Z1,
		ResponsePrefix: "MUT",
	})

	zones, err := ProcessRawResponse(ctx, reg, st, "MUT1")
	if err != nil {
		t.Fatalf("ProcessRawResponse: %v", err)
	}
	if _, ok := zones[model.Z1]; !ok {
		t.Errorf("expected Z1 reported as updated, got %v", zones)
	}
	if v, ok := st.Power(model.Z1); ok {
		t.Errorf("unrelated power state should not be touched, got %v", v)
	}
}

func TestProcessRawResponseUnrecognisedFrameIsNotAnError(t *testing.T) {
	ctx, reg, st := newTestEnv()
	zones, err := ProcessRawResponse(ctx, reg, st, "ZZZ999")
	if err != nil {
		t.Fatalf("expected no error for an unrecognised frame, got %v", err)
	}
	if len(zones) != 0 {
		t.Errorf("expected no zones reported, got %v", zones)
	}
}

func TestProcessRawResponseSilentlyIgnoresBusySentinel(t *testing.T) {
	ctx, reg, st := newTestEnv()
	zones, err := ProcessRawResponse(ctx, reg, st, "B00")
	if err != nil || len(zones) != 0 {
		t.Fatalf("expected a silent no-op for B00, got zones=%v err=%v", zones, err)
	}
}

func TestProcessRawResponseDecodeErrorWrapsFrame(t *testing.T) {
	ctx, reg, st := newTestEnv()
	reg.Register(&registry.PropertyEntry{
		Map:            codemap.NewBool(codemap.Meta{Base: "mute"}),
		Zone:           model.Z1,
		ResponsePrefix: "MUT",
	})
	if _, err := ProcessRawResponse(ctx, reg, st, "MUT9"); err == nil {
		t.Fatal("expected an error for an unrecognised bool code")
	}
}

// fakeCallbackMap decodes to a single delta whose callback enqueues a
// follow-up command, exercising the dispatcher's work-queue expansion.
type fakeCallbackMap struct {
	codemap.Meta
}

func (m fakeCallbackMap) Len() int   { return 1 }
func (m fakeCallbackMap) NArgs() int { return 0 }
func (m fakeCallbackMap) CodeToValue(_ codemap.EncodeContext, code string) (any, error) {
	return code, nil
}
func (m fakeCallbackMap) ValueToCode(_ codemap.EncodeContext, _ model.Zone, _ any) (string, error) {
	return "", codemap.ErrNotAssignable
}
func (m fakeCallbackMap) ParseArgs(_ codemap.EncodeContext, _ model.Zone, _ []any) (string, error) {
	return "", codemap.ErrNotAssignable
}
func (m fakeCallbackMap) DecodeResponse(_ codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	d := seed
	d.BaseProperty = "tuner"
	d.PropertyName = "frequency"
	d.Callback = func(cb codemap.Delta) []codemap.Delta {
		return []codemap.Delta{{
			BaseProperty: "tuner", PropertyName: "am_frequency_step", Zone: model.ALL, Value: 9,
			QueueCommands: []queue.Item{queue.NewItem("query_tuner_frequency", model.ALL, queue.QueueNormal)},
		}}
	}
	return []codemap.Delta{d}, nil
}

func TestProcessRawResponseExpandsCallbackAndExtendsQueue(t *testing.T) {
	ctx, reg, st := newTestEnv()
	reg.Register(&registry.PropertyEntry{
		Map:            fakeCallbackMap{Meta: codemap.Meta{Base: "tuner"}},
		Zone:           model.ALL,
		ResponsePrefix: "FR",
	})

	zones, err := ProcessRawResponse(ctx, reg, st, "FR0900")
	if err != nil {
		t.Fatalf("ProcessRawResponse: %v", err)
	}
	if _, ok := zones[model.ALL]; !ok {
		t.Errorf("expected the committed callback result's zone reported, got %v", zones)
	}
	if v, ok := st.GroupValue("tuner", "am_frequency_step"); !ok || v != 9 {
		t.Errorf("expected the callback's delta to be committed, got %v, %v", v, ok)
	}
	if _, _, ok := st.Queue.Peek(); !ok {
		t.Error("expected the callback's QueueCommands to be extended onto the store queue")
	}
}
