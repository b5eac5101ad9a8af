package codes

import (
	"testing"

	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/params"
	"github.com/crowbarz/avrctl-go/internal/store"
)

func newTestContext() codemap.EncodeContext {
	p := params.New()
	return codemap.EncodeContext{Store: store.New(p, nil), Params: p}
}

func TestPowerMapInverseEncoding(t *testing.T) {
	m := NewPower(model.Main)
	ctx := newTestContext()
	code, err := m.ValueToCode(ctx, model.Main, true)
	if err != nil {
		t.Fatalf("ValueToCode: %v", err)
	}
	if code != "0" {
		t.Errorf("expected power-on to encode as %q (inverse bool), got %q", "0", code)
	}
}

func TestPowerMapDecodeEnqueuesBasicQueryOnTransitionToOn(t *testing.T) {
	m := NewPower(model.Main)
	ctx := newTestContext()
	ctx.Store.AddZone(model.Main)
	ctx.Store.MarkInitialRefresh(model.Main)

	deltas, err := m.DecodeResponse(ctx, codemap.Delta{Zone: model.Main, Code: "0"})
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if len(deltas) != 1 {
		t.Fatalf("expected a single delta, got %d", len(deltas))
	}
	d := deltas[0]
	if d.Callback == nil {
		t.Fatal("expected power-on delta to carry a callback")
	}
	followUps := d.Callback(d)
	if len(followUps) != 1 || len(followUps[0].QueueCommands) == 0 {
		t.Fatalf("expected the callback to enqueue at least the delayed basic query, got %+v", followUps)
	}
}

func TestPowerMapDecodeSkipsFollowUpsWhileStarting(t *testing.T) {
	m := NewPower(model.Main)
	ctx := newTestContext()
	ctx.Store.Queue.SetStarting(true)

	deltas, err := m.DecodeResponse(ctx, codemap.Delta{Zone: model.Main, Code: "0"})
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if deltas[0].Callback != nil {
		t.Error("expected no follow-up callback while the queue is starting")
	}
}

func TestVolumeMapZeroPadWidthDiffersByZone(t *testing.T) {
	ctx := newTestContext()
	ctx.Store.Commit("max_volume", "", model.Main, 185, "185")
	ctx.Store.Commit("max_volume", "", model.Z2, 38, "38")

	main := NewVolume(model.Main)
	mainCode, err := main.ValueToCode(ctx, model.Main, 50)
	if err != nil {
		t.Fatalf("ValueToCode(main): %v", err)
	}
	if mainCode != "050" {
		t.Errorf("expected main zone volume zero-padded to 3 digits, got %q", mainCode)
	}

	z2 := NewVolume(model.Z2)
	z2Code, err := z2.ValueToCode(ctx, model.Z2, 30)
	if err != nil {
		t.Fatalf("ValueToCode(z2): %v", err)
	}
	if z2Code != "30" {
		t.Errorf("expected zone 2 volume zero-padded to 2 digits, got %q", z2Code)
	}
}

func TestVolumeMapRejectsOverDynamicMax(t *testing.T) {
	ctx := newTestContext()
	ctx.Store.Commit("max_volume", "", model.Z2, 38, "38")
	z2 := NewVolume(model.Z2)
	if _, err := z2.ValueToCode(ctx, model.Z2, 39); err == nil {
		t.Fatal("expected an error for a volume above the zone's dynamic max")
	}
}

func TestVolumeMapUnknownBoundsErrorsBeforeMaxVolumeIsCached(t *testing.T) {
	ctx := newTestContext()
	z1 := NewVolume(model.Z1)
	if _, err := z1.ValueToCode(ctx, model.Z1, 10); err == nil {
		t.Fatal("expected an error when max_volume has not yet been cached for the zone")
	}
}

func TestFrequencyAMGleanUnambiguousDivisibility(t *testing.T) {
	ctx := newTestContext()
	m := NewFrequencyAM()
	deltas, err := m.DecodeResponse(ctx, codemap.Delta{Zone: model.ALL, Code: "0603"})
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	var glean *codemap.Delta
	for i := range deltas {
		if deltas[i].Callback != nil {
			glean = &deltas[i]
		}
	}
	if glean == nil {
		t.Fatal("expected a glean callback delta")
	}
	result := glean.Callback(*glean)
	if len(result) != 1 || result[0].PropertyName != "am_frequency_step" || result[0].Value != 9 {
		t.Errorf("expected 603 (divisible by 9 not 10) to resolve am_frequency_step=9, got %+v", result)
	}
}

func TestFrequencyAMGleanAmbiguousWhenTunerNotActive(t *testing.T) {
	ctx := newTestContext()
	m := NewFrequencyAM()
	deltas, _ := m.DecodeResponse(ctx, codemap.Delta{Zone: model.ALL, Code: "0720"})
	var glean *codemap.Delta
	for i := range deltas {
		if deltas[i].Callback != nil {
			glean = &deltas[i]
		}
	}
	result := glean.Callback(*glean)
	if result != nil {
		t.Errorf("expected no resolution and no workaround enqueue when the tuner isn't the active source, got %+v", result)
	}
}

func TestFrequencyAMValueToCodeRequiresKnownStep(t *testing.T) {
	ctx := newTestContext()
	m := NewFrequencyAM()
	if _, err := m.ValueToCode(ctx, model.ALL, 1000); err != codemap.ErrNotAssignable {
		t.Fatalf("expected ErrNotAssignable with no step cached, got %v", err)
	}

	ctx.Store.Commit("tuner", "am_frequency_step", model.ALL, 10, "10")
	code, err := m.ValueToCode(ctx, model.ALL, 1000)
	if err != nil {
		t.Fatalf("ValueToCode after step known: %v", err)
	}
	if code != "1000" {
		t.Errorf("got %q, want 1000", code)
	}
}

func TestFrequencyAMStepMapDecodesZeroAsNine(t *testing.T) {
	m := NewFrequencyAMStep()
	v, err := m.CodeToValue(codemap.EncodeContext{}, "0")
	if err != nil || v != 9 {
		t.Errorf("CodeToValue(0) = %v, %v; want 9, nil", v, err)
	}
	v, err = m.CodeToValue(codemap.EncodeContext{}, "1")
	if err != nil || v != 10 {
		t.Errorf("CodeToValue(1) = %v, %v; want 10, nil", v, err)
	}
}

func TestPresetMapCachesThenReconcilesOnNextFrequency(t *testing.T) {
	ctx := newTestContext()
	preset := NewPreset()
	deltas, err := preset.DecodeResponse(ctx, codemap.Delta{Zone: model.ALL, Code: "A05"})
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	d := deltas[0]
	if d.Callback == nil {
		t.Fatal("expected the preset delta to carry a caching callback")
	}
	d.Callback(d)

	fm := NewFrequencyFM()
	freqDeltas, err := fm.DecodeResponse(ctx, codemap.Delta{Zone: model.ALL, Code: "0900"})
	if err != nil {
		t.Fatalf("FrequencyFM DecodeResponse: %v", err)
	}
	found := false
	for _, fd := range freqDeltas {
		if fd.BaseProperty == "tuner" && fd.PropertyName == "preset" {
			found = true
			pair, ok := fd.Value.([2]any)
			if !ok || pair[0] != "A" || pair[1] != 5 {
				t.Errorf("expected reconciled preset {A,5}, got %v", fd.Value)
			}
		}
	}
	if !found {
		t.Error("expected the next frequency decode to reconcile the cached preset")
	}
}

func TestSourceIDMapDecodeLooksUpNameAndEnqueuesBasicQuery(t *testing.T) {
	ctx := newTestContext()
	ctx.Store.SetSourceDict(map[int]string{4: "TUNER"})
	m := NewSourceID(model.Main)

	deltas, err := m.DecodeResponse(ctx, codemap.Delta{Zone: model.Main, Code: "04"})
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	var nameDelta *codemap.Delta
	for i := range deltas {
		if deltas[i].BaseProperty == "source_name" {
			nameDelta = &deltas[i]
		}
	}
	if nameDelta == nil || nameDelta.Value != "TUNER" {
		t.Fatalf("expected a source_name delta resolving to TUNER, got %+v", deltas)
	}
	if len(nameDelta.QueueCommands) < 3 {
		t.Errorf("expected tuner-frequency/preset queries plus the basic query when the source is the tuner, got %d commands", len(nameDelta.QueueCommands))
	}
}

func TestSourceIDMapMediaControlModeFromTable(t *testing.T) {
	ctx := newTestContext()
	m := NewSourceID(model.Main)
	deltas, err := m.DecodeResponse(ctx, codemap.Delta{Zone: model.Main, Code: "17"})
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	var modeDelta *codemap.Delta
	for i := range deltas {
		if deltas[i].BaseProperty == "media_control_mode" {
			modeDelta = &deltas[i]
		}
	}
	if modeDelta == nil || modeDelta.Value != "IPOD" {
		t.Fatalf("expected media_control_mode IPOD for source 17, got %+v", deltas)
	}
}

func TestSourceNameMapBindsAndIsNoopWhenDisabled(t *testing.T) {
	ctx := newTestContext()
	m := NewSourceName()

	if _, err := m.DecodeResponse(ctx, codemap.Delta{Code: "041TUNER"}); err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if name, ok := ctx.Store.GetSourceName(4); !ok || name != "TUNER" {
		t.Errorf("expected source 4 bound to TUNER, got %v, %v", name, ok)
	}

	ctx.Store.SetSourceDict(map[int]string{0: "DVD"})
	if _, err := m.DecodeResponse(ctx, codemap.Delta{Code: "051CD"}); err != nil {
		t.Fatalf("DecodeResponse after disabling: %v", err)
	}
	if _, ok := ctx.Store.GetSourceName(5); ok {
		t.Error("expected source-name decoding to be a no-op once query_sources is disabled")
	}
}
