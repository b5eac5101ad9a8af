package store

import (
	"log/slog"

	"github.com/crowbarz/avrctl-go/internal/model"
)

func (s *Store) group(base string) (map[string]any, bool) {
	switch base {
	case "amp":
		return s.amp, true
	case "tuner":
		return s.tuner, true
	case "dsp":
		return s.dsp, true
	case "video":
		return s.video, true
	case "system":
		return s.system, true
	case "audio":
		return s.audio, true
	default:
		return nil, false
	}
}

// Commit applies one decoded delta to the store following §4.G.1:
// per-zone vs global, scalar vs keyed. It reports whether the value
// actually changed, logging an info message exactly when it did. A
// nil value deletes an existing per-zone power entry; no other
// property treats nil as a deletion (per-zone scalars store their
// zero value, generic groups store nil).
func (s *Store) Commit(base, propertyName string, zone model.Zone, value any, code string) bool {
	if base == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perZone := zone != model.ALL && zone != ""
	keyed := propertyName != ""

	switch {
	case perZone && !keyed:
		return s.commitZoneScalarLocked(base, zone, value, code)
	case perZone && keyed:
		return s.commitZoneKeyedLocked(base, zone, propertyName, value, code)
	case !perZone && !keyed:
		return s.commitGlobalScalarLocked(base, value, code)
	default:
		return s.commitGlobalKeyedLocked(base, propertyName, value, code)
	}
}

func logChange(base, propertyName string, zone model.Zone, old, new any, code string) {
	slog.Info("store: property changed", "base_property", base, "property_name", propertyName, "zone", zone, "old", old, "new", new, "code", code)
}

func (s *Store) commitZoneScalarLocked(base string, zone model.Zone, value any, code string) bool {
	switch base {
	case "power":
		old, had := s.power[zone]
		newV, _ := value.(bool)
		if had && value == nil {
			delete(s.power, zone)
			logChange(base, "", zone, old, nil, code)
			return true
		}
		if had && old == newV {
			return false
		}
		s.power[zone] = newV
		logChange(base, "", zone, old, newV, code)
		return true
	case "volume":
		old, had := s.volume[zone]
		newV, _ := value.(int)
		if had && old == newV {
			return false
		}
		s.volume[zone] = newV
		logChange(base, "", zone, old, newV, code)
		return true
	case "max_volume":
		old, had := s.maxVolume[zone]
		newV, _ := value.(int)
		if had && old == newV {
			return false
		}
		s.maxVolume[zone] = newV
		logChange(base, "", zone, old, newV, code)
		return true
	case "mute":
		old, had := s.mute[zone]
		newV, _ := value.(bool)
		if had && old == newV {
			return false
		}
		s.mute[zone] = newV
		logChange(base, "", zone, old, newV, code)
		return true
	case "source_id":
		old, had := s.sourceID[zone]
		newV, _ := value.(int)
		if had && old == newV {
			return false
		}
		s.sourceID[zone] = newV
		logChange(base, "", zone, old, newV, code)
		return true
	case "source_name":
		old, had := s.sourceName[zone]
		newV, _ := value.(string)
		if had && old == newV {
			return false
		}
		s.sourceName[zone] = newV
		logChange(base, "", zone, old, newV, code)
		return true
	case "media_control_mode":
		old, had := s.mediaControlMode[zone]
		newV, _ := value.(string)
		if had && old == newV {
			return false
		}
		s.mediaControlMode[zone] = newV
		logChange(base, "", zone, old, newV, code)
		return true
	case "tone":
		old, had := s.tone[zone]
		newV, _ := value.(model.ToneStatus)
		if had && old == newV {
			return false
		}
		s.tone[zone] = newV
		logChange(base, "", zone, old, newV, code)
		return true
	case "listening_mode_raw":
		// handled as global; fall through defensively
		return s.commitGlobalScalarLocked(base, value, code)
	default:
		return false
	}
}

func (s *Store) commitZoneKeyedLocked(base string, zone model.Zone, propertyName string, value any, code string) bool {
	switch base {
	case "tone":
		old := s.tone[zone]
		newV := old
		switch propertyName {
		case "status":
			newV.Status, _ = value.(bool)
		case "bass":
			newV.Bass, _ = value.(int)
		case "treble":
			newV.Treble, _ = value.(int)
		default:
			return false
		}
		if old == newV {
			return false
		}
		s.tone[zone] = newV
		logChange(base, propertyName, zone, old, newV, code)
		return true
	case "channel_levels":
		if s.channelLevels[zone] == nil {
			s.channelLevels[zone] = map[string]float64{}
		}
		old, had := s.channelLevels[zone][propertyName]
		newV, _ := value.(float64)
		if had && old == newV {
			return false
		}
		s.channelLevels[zone][propertyName] = newV
		logChange(base, propertyName, zone, old, newV, code)
		return true
	default:
		return false
	}
}

func (s *Store) commitGlobalScalarLocked(base string, value any, code string) bool {
	switch base {
	case "listening_mode":
		old := s.listeningMode
		newV, _ := value.(string)
		if old == newV {
			return false
		}
		s.listeningMode = newV
		logChange(base, "", model.ALL, old, newV, code)
		return true
	case "listening_mode_id", "listening_mode_raw":
		old := s.listeningModeID
		newV, _ := value.(int)
		if old == newV {
			return false
		}
		s.listeningModeID = newV
		logChange(base, "", model.ALL, old, newV, code)
		return true
	default:
		if group, ok := s.group(base); ok {
			old, had := group[""]
			if had && old == value {
				return false
			}
			group[""] = value
			logChange(base, "", model.ALL, old, value, code)
			return true
		}
		return false
	}
}

func (s *Store) commitGlobalKeyedLocked(base, propertyName string, value any, code string) bool {
	group, ok := s.group(base)
	if !ok {
		return false
	}
	old, had := group[propertyName]
	if had && old == value {
		return false
	}
	group[propertyName] = value
	logChange(base, propertyName, model.ALL, old, value, code)
	return true
}

// GroupValue reads a keyed value from one of the generic sub-system
// maps (amp, tuner, dsp, video, system, audio).
func (s *Store) GroupValue(base, propertyName string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, ok := s.group(base)
	if !ok {
		return nil, false
	}
	v, ok := group[propertyName]
	return v, ok
}
