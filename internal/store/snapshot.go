package store

import "github.com/crowbarz/avrctl-go/internal/model"

// Snapshot is a read-only, deep-copied view of the store suitable for
// diagnostics and facade consumers.
type Snapshot struct {
	Zones            []model.Zone
	Power            map[model.Zone]bool
	Volume           map[model.Zone]int
	MaxVolume        map[model.Zone]int
	Mute             map[model.Zone]bool
	SourceID         map[model.Zone]int
	SourceName       map[model.Zone]string
	MediaControlMode map[model.Zone]string
	ListeningMode    string
	ListeningModeID  int
	Amp              map[string]any
	Tuner            map[string]any
	System           map[string]any
}

// Snapshot copies the current state out for safe external use.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Power:            make(map[model.Zone]bool, len(s.power)),
		Volume:           make(map[model.Zone]int, len(s.volume)),
		MaxVolume:        make(map[model.Zone]int, len(s.maxVolume)),
		Mute:             make(map[model.Zone]bool, len(s.mute)),
		SourceID:         make(map[model.Zone]int, len(s.sourceID)),
		SourceName:       make(map[model.Zone]string, len(s.sourceName)),
		MediaControlMode: make(map[model.Zone]string, len(s.mediaControlMode)),
		ListeningMode:    s.listeningMode,
		ListeningModeID:  s.listeningModeID,
		Amp:              cloneAny(s.amp),
		Tuner:            cloneAny(s.tuner),
		System:           cloneAny(s.system),
	}
	for z := range s.zones {
		snap.Zones = append(snap.Zones, z)
	}
	for z, v := range s.power {
		snap.Power[z] = v
	}
	for z, v := range s.volume {
		snap.Volume[z] = v
	}
	for z, v := range s.maxVolume {
		snap.MaxVolume[z] = v
	}
	for z, v := range s.mute {
		snap.Mute[z] = v
	}
	for z, v := range s.sourceID {
		snap.SourceID[z] = v
	}
	for z, v := range s.sourceName {
		snap.SourceName[z] = v
	}
	for z, v := range s.mediaControlMode {
		snap.MediaControlMode[z] = v
	}
	return snap
}

func cloneAny(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
