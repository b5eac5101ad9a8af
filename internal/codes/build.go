// Package codes holds the concrete code maps of component B and the
// Build function that assembles them into a registry (component D),
// grounded on aiopioneer's decoders/*.py RESPONSE_DATA_* tables.
package codes

import (
	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/registry"
)

// registerResponse registers mp as the decoder for prefix on the given
// zone, with no attached command (commands spanning several zones are
// registered separately by registerCommandPair so that one logical
// operation like "query_power" is a single Command with all four
// zones in its AVRCommands map, not four colliding registrations).
func registerResponse(r *registry.Registry, prefix string, mp codemap.CodeMap, zone model.Zone) {
	r.MustRegister(&registry.PropertyEntry{Map: mp, Zone: zone, ResponsePrefix: prefix})
}

// registerZoned registers one response-decoding map per zone (from
// zonePrefixes) and a single query/set command pair spanning every
// zone in the table, mirroring how the reference implementation's
// command tables address all zones of a property through one command
// name.
func registerZoned(r *registry.Registry, zonePrefixes map[model.Zone]string, queryCmd, setCmd string, newMap func(zone model.Zone) codemap.CodeMap) {
	avrCommands := make(map[model.Zone]string, len(zonePrefixes))
	var repMap codemap.CodeMap
	for zone, prefix := range zonePrefixes {
		mp := newMap(zone)
		if repMap == nil {
			repMap = mp
		}
		registerResponse(r, prefix, mp, zone)
		avrCommands[zone] = prefix
	}
	registerCommandPair(r, queryCmd, setCmd, avrCommands, repMap)
}

func registerCommandPair(r *registry.Registry, queryCmd, setCmd string, avrCommands map[model.Zone]string, mp codemap.CodeMap) {
	var commands []*registry.Command
	if queryCmd != "" {
		commands = append(commands, &registry.Command{
			Name: queryCmd, AVRCommands: avrCommands,
			IsQueryCommand: true, WaitForResponse: true, Map: mp,
		})
	}
	if setCmd != "" {
		commands = append(commands, &registry.Command{
			Name: setCmd, AVRCommands: avrCommands, Map: mp,
		})
	}
	if len(commands) > 0 {
		r.MustRegister(&registry.PropertyEntry{Commands: commands})
	}
}

// registerGlobal registers one ALL-zone response decoder plus an
// optional query/set command pair addressing the same prefix. A
// read-only property (no setCmd) registers its query command's Map as
// a QueryMap wrapping mp, exercising the Query family (§4.B) the way
// the reference implementation uses it: purely to format the "?"
// prefixed read command for properties with no value_to_code.
func registerGlobal(r *registry.Registry, prefix, queryCmd, setCmd string, mp codemap.CodeMap) {
	registerResponse(r, prefix, mp, model.ALL)
	queryMap := mp
	if queryCmd != "" && setCmd == "" {
		queryMap = codemap.QueryMap{Meta: codemap.Meta{Base: mp.BaseProperty(), Prop: mp.PropertyName(), Friendly: mp.FriendlyName(), Zones: mp.SupportedZones()}, Inner: mp}
	}
	registerCommandPair(r, queryCmd, setCmd, map[model.Zone]string{model.ALL: prefix}, queryMap)
}

// Build assembles the process-wide registry from the representative
// maps in this package, following the zone/prefix layout of
// aiopioneer's RESPONSE_DATA_AMP/RESPONSE_DATA_TUNER/RESPONSE_DATA_AUDIO
// tables.
func Build() *registry.Registry {
	r := registry.New()

	registerZoned(r,
		map[model.Zone]string{model.Z1: "PWR", model.Z2: "APR", model.Z3: "BPR", model.HDZ: "ZEP"},
		"query_power", "set_power",
		func(zone model.Zone) codemap.CodeMap { return NewPower(zone) },
	)

	registerZoned(r,
		map[model.Zone]string{model.Z1: "VOL", model.Z2: "ZV", model.Z3: "YV", model.HDZ: "XV"},
		"query_volume", "set_volume",
		func(zone model.Zone) codemap.CodeMap { return NewVolume(zone) },
	)

	registerZoned(r,
		map[model.Zone]string{model.Z1: "MUT", model.Z2: "Z2MUT", model.Z3: "Z3MUT", model.HDZ: "HZMUT"},
		"query_mute", "set_mute",
		func(zone model.Zone) codemap.CodeMap { return NewMute(zone) },
	)

	registerZoned(r,
		map[model.Zone]string{model.Z1: "FN", model.Z2: "Z2F", model.Z3: "Z3F", model.HDZ: "ZEA"},
		"query_source_id", "set_source_id",
		func(zone model.Zone) codemap.CodeMap { return NewSourceID(zone) },
	)

	registerGlobal(r, "RGB", "", "", NewSourceName())
	registerGlobal(r, "SR", "query_listening_mode", "set_listening_mode", NewListeningMode())

	registerZoned(r,
		map[model.Zone]string{model.Z1: "TO", model.Z2: "ZGA"},
		"query_tone_status", "set_tone_status",
		func(zone model.Zone) codemap.CodeMap { return NewToneStatus(zone) },
	)
	registerZoned(r,
		map[model.Zone]string{model.Z1: "BA", model.Z2: "ZGB"},
		"query_tone_bass", "set_tone_bass",
		func(zone model.Zone) codemap.CodeMap { return NewToneBass(zone) },
	)
	registerZoned(r,
		map[model.Zone]string{model.Z1: "TR", model.Z2: "ZGC"},
		"query_tone_treble", "set_tone_treble",
		func(zone model.Zone) codemap.CodeMap { return NewToneTreble(zone) },
	)

	registerZoned(r,
		map[model.Zone]string{model.Z1: "CLV", model.Z2: "ZGE", model.Z3: "ZHE"},
		"query_channel_level", "set_channel_level",
		func(zone model.Zone) codemap.CodeMap { return NewChannelLevel(zone) },
	)

	registerGlobal(r, "FRF", "query_tuner_frequency", "set_tuner_frequency_fm", NewFrequencyFM())
	registerGlobal(r, "FRA", "", "set_tuner_frequency_am", NewFrequencyAM())
	registerGlobal(r, "SUQ", "query_tuner_am_frequency_step", "", NewFrequencyAMStep())
	registerGlobal(r, "PR", "query_tuner_preset", "set_tuner_preset", NewPreset())

	registerGlobal(r, "SPK", "query_speaker_mode", "set_speaker_mode", NewSpeakerMode())
	registerGlobal(r, "HO", "query_hdmi_out", "set_hdmi_out", NewHdmiOut())
	registerGlobal(r, "HA", "query_hdmi_audio", "set_hdmi_audio", NewHdmiAudio())
	registerGlobal(r, "PQ", "query_pqls", "set_pqls", NewPqls())
	registerGlobal(r, "FL", "query_display", "", NewDisplayText())
	registerGlobal(r, "SAA", "query_dimmer", "set_dimmer", NewDimmer())
	registerGlobal(r, "SAB", "query_sleep_time", "set_sleep_time", NewSleepTime())
	registerGlobal(r, "SAC", "query_amp_mode", "set_amp_mode", NewAmpMode())
	registerGlobal(r, "PKL", "query_panel_lock", "set_panel_lock", NewPanelLock())
	registerGlobal(r, "RML", "query_remote_lock", "set_remote_lock", NewRemoteLock())
	registerGlobal(r, "SVB", "query_system_mac_addr", "", NewSystemMacAddress())
	registerGlobal(r, "RGD", "query_system_model", "", NewSystemAvrModel())
	registerGlobal(r, "SSI", "query_system_software_version", "", NewSystemSoftwareVersion())
	registerGlobal(r, "VTC", "query_video_resolution", "set_video_resolution", NewVideoResolution())
	registerGlobal(r, "AST", "query_audio_information", "", NewAudioInfo())

	registerAuxiliaryCommands(r)

	return r
}

// registerAuxiliaryCommands adds commands with no dedicated response
// prefix: the internal work-queue commands decoders enqueue, and the
// AM-frequency-step calculation workaround (§4.B.1).
func registerAuxiliaryCommands(r *registry.Registry) {
	aux := []string{
		"_delayed_basic_query",
		"_full_refresh",
		"_refresh_zone",
		"_delayed_refresh_zone",
		"_calculate_am_frequency_step",
		"_update_listening_modes",
		"volume_up",
		"volume_down",
	}
	for _, name := range aux {
		r.MustRegister(&registry.PropertyEntry{Commands: []*registry.Command{{
			Name: name, AVRCommands: map[model.Zone]string{},
		}}})
	}
}
