package params

import "testing"

func TestGetReturnsDefaultForUnsetKey(t *testing.T) {
	p := New()
	if got := p.Get("does_not_exist", "fallback"); got != "fallback" {
		t.Errorf("got %v, want fallback", got)
	}
}

func TestGetReturnsBuiltinDefault(t *testing.T) {
	p := New()
	if got := p.Get(KeyMaxVolume, 0); got != 185 {
		t.Errorf("got %v, want built-in default 185", got)
	}
}

func TestSetUserOverridesBuiltin(t *testing.T) {
	p := New()
	p.SetUser(KeyMaxVolume, 95)
	if got := p.Get(KeyMaxVolume, 0); got != 95 {
		t.Errorf("got %v, want user override 95", got)
	}
}

func TestSetUserModelAppliesModelDefaults(t *testing.T) {
	p := New()
	p.SetUser(KeyModel, "VSX-930-K")
	if got := p.Get(KeyMaxVolume, 0); got != 185 {
		t.Errorf("expected VSX-930 model default for max_volume, got %v", got)
	}
}

func TestModelDefaultOverriddenByUser(t *testing.T) {
	p := New()
	p.SetUserAll(map[string]any{KeyModel: "SC-LX79", KeyMaxVolume: 100})
	if got := p.Get(KeyMaxVolume, 0); got != 100 {
		t.Errorf("expected user override 100 to win over the model default, got %v", got)
	}
	// disabled_listening_modes comes only from the model layer here.
	disabled, _ := p.Get(KeyDisabledListeningModes, nil).([]string)
	if len(disabled) != 2 || disabled[0] != "ACTION" {
		t.Errorf("expected SC-LX79's disabled listening modes to apply, got %v", disabled)
	}
}

func TestFirstMatchingModelWins(t *testing.T) {
	p := New()
	// Neither pattern matches; modelDefaults stays empty and builtin shows through.
	p.SetUser(KeyModel, "UNKNOWN-MODEL")
	if got := p.Get(KeyMaxVolume, 0); got != 185 {
		t.Errorf("expected builtin default for an unmatched model, got %v", got)
	}
}

func TestDeepMergeRecursesIntoMaps(t *testing.T) {
	p := New()
	p.SetUser(KeySpeakerSystemModes, map[string]any{"15": "5.1.2"})
	modes, _ := p.Get(KeySpeakerSystemModes, nil).(map[string]any)
	if modes["15"] != "5.1.2" {
		t.Errorf("expected user dict value to merge in, got %v", modes)
	}
}

func TestDeepMergeReplacesSlicesWholesale(t *testing.T) {
	p := New()
	p.SetUser(KeyIgnoredZones, []string{"Z3"})
	zones, _ := p.Get(KeyIgnoredZones, nil).([]string)
	if len(zones) != 1 || zones[0] != "Z3" {
		t.Errorf("expected slice to be replaced wholesale, got %v", zones)
	}
}

func TestSubscribeNotifiesSynchronouslyOnRecompute(t *testing.T) {
	p := New()
	calls := 0
	p.Subscribe(func() { calls++ })
	p.SetUser(KeyMaxVolume, 50)
	if calls != 1 {
		t.Fatalf("expected exactly 1 synchronous notification, got %d", calls)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	p := New()
	calls := 0
	unsub := p.Subscribe(func() { calls++ })
	p.SetUser(KeyMaxVolume, 50)
	unsub()
	p.SetUser(KeyMaxVolume, 60)
	if calls != 1 {
		t.Fatalf("expected notifications to stop after unsubscribe, got %d calls", calls)
	}
}

func TestSetUserAllReplacesEntireUserLayer(t *testing.T) {
	p := New()
	p.SetUser(KeyMaxVolume, 50)
	p.SetUserAll(map[string]any{KeyMHLSource: "HDMI1"})
	if got := p.Get(KeyMaxVolume, 0); got != 185 {
		t.Errorf("expected SetUserAll to discard the prior user override, got %v", got)
	}
	if got := p.Get(KeyMHLSource, ""); got != "HDMI1" {
		t.Errorf("expected the new user override to apply, got %v", got)
	}
}
