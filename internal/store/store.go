// Package store implements the property store: the canonical cached
// device state, zone-keyed maps, nested sub-system state, the
// dynamically recomputed listening-mode catalogue, and the
// source-id<->name bidirectional map.
package store

import (
	"log/slog"
	"sync"

	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/params"
	"github.com/crowbarz/avrctl-go/internal/queue"
)

// SourceTunerName is the source display name that marks a source as
// the tuner, consulted by IsSourceTuner.
const SourceTunerName = "TUNER"

// Store is the mutable aggregate of component C. The zero value is
// not usable; construct with New.
type Store struct {
	mu sync.RWMutex

	params *params.Parameters

	zones               map[model.Zone]struct{}
	zonesInitialRefresh map[model.Zone]struct{}

	power            map[model.Zone]bool
	volume           map[model.Zone]int
	maxVolume        map[model.Zone]int
	mute             map[model.Zone]bool
	sourceID         map[model.Zone]int
	sourceName       map[model.Zone]string
	mediaControlMode map[model.Zone]string
	tone             map[model.Zone]model.ToneStatus
	channelLevels    map[model.Zone]map[string]float64

	listeningMode           string
	listeningModeID         int
	listeningModesAll       map[int]model.ListeningMode
	availableListeningModes map[int]string

	amp    map[string]any
	tuner  map[string]any
	dsp    map[string]any
	video  map[string]any
	system map[string]any
	audio  map[string]any

	sourceIDToName map[int]string
	sourceNameToID map[string]int
	querySources   model.QuerySourcesState

	cachedPreset   any
	hasCachedPreset bool

	// Queue is the embedded scheduler; decoder callbacks enqueue
	// follow-up commands here without needing a reference to the
	// engine (§9, "cyclic references").
	Queue *queue.Queue
}

// New creates an empty Store. exec is the function the embedded queue
// uses to run queued items; it may be nil and installed later with
// Queue.SetExec once the connection engine exists.
func New(p *params.Parameters, exec queue.ExecFunc) *Store {
	s := &Store{params: p}
	s.Queue = queue.New(exec)
	s.resetLocked(true)
	return s
}

// AMFrequencyStepUnknown is the sentinel stored in tuner["am_frequency_step"]
// when the step has not yet been determined.
const AMFrequencyStepUnknown = 0

// Reset clears everything except amp.{model,software_version,mac_addr}
// and tuner.am_frequency_step, which survive across reconnects.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(false)
}

func (s *Store) resetLocked(firstInit bool) {
	var savedAmp map[string]any
	var savedStep any
	if !firstInit {
		savedAmp = map[string]any{
			"model":            s.amp["model"],
			"software_version": s.amp["software_version"],
			"mac_addr":         s.amp["mac_addr"],
		}
		savedStep = s.tuner["am_frequency_step"]
	}

	s.zones = map[model.Zone]struct{}{}
	s.zonesInitialRefresh = map[model.Zone]struct{}{}
	s.power = map[model.Zone]bool{}
	s.volume = map[model.Zone]int{}
	s.maxVolume = map[model.Zone]int{}
	s.mute = map[model.Zone]bool{}
	s.sourceID = map[model.Zone]int{}
	s.sourceName = map[model.Zone]string{}
	s.mediaControlMode = map[model.Zone]string{}
	s.tone = map[model.Zone]model.ToneStatus{}
	s.channelLevels = map[model.Zone]map[string]float64{}
	s.listeningMode = ""
	s.listeningModeID = 0
	s.listeningModesAll = map[int]model.ListeningMode{}
	s.availableListeningModes = map[int]string{}
	s.amp = map[string]any{"model": nil, "software_version": nil, "mac_addr": nil}
	s.tuner = map[string]any{"am_frequency_step": nil}
	s.dsp = map[string]any{}
	s.video = map[string]any{}
	s.system = map[string]any{}
	s.audio = map[string]any{}
	s.sourceIDToName = map[int]string{}
	s.sourceNameToID = map[string]int{}
	s.querySources = model.QuerySourcesUnknown

	if s.Queue != nil {
		s.Queue.Purge()
	}

	if !firstInit {
		s.amp["model"] = savedAmp["model"]
		s.amp["software_version"] = savedAmp["software_version"]
		s.amp["mac_addr"] = savedAmp["mac_addr"]
		s.tuner["am_frequency_step"] = savedStep
	}
}

// AddZone registers zone as discovered (invariant 4: every zone
// carrying power state must be in this set).
func (s *Store) AddZone(zone model.Zone) {
	s.mu.Lock()
	s.zones[zone] = struct{}{}
	s.mu.Unlock()
}

// Zones returns the set of discovered real zones.
func (s *Store) Zones() []model.Zone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Zone, 0, len(s.zones))
	for z := range s.zones {
		out = append(out, z)
	}
	return out
}

// HasZone reports whether zone has been discovered.
func (s *Store) HasZone(zone model.Zone) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.zones[zone]
	return ok
}

// MarkInitialRefresh records that zone has completed its first full
// refresh after power-on.
func (s *Store) MarkInitialRefresh(zone model.Zone) {
	s.mu.Lock()
	s.zonesInitialRefresh[zone] = struct{}{}
	s.mu.Unlock()
}

// HasInitialRefresh reports whether zone has completed its first full
// refresh.
func (s *Store) HasInitialRefresh(zone model.Zone) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.zonesInitialRefresh[zone]
	return ok
}

// Power returns the cached power state for zone.
func (s *Store) Power(zone model.Zone) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.power[zone]
	return v, ok
}

// Volume returns the cached volume level for zone.
func (s *Store) Volume(zone model.Zone) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.volume[zone]
	return v, ok
}

// MaxVolume returns the cached max-volume bound for zone.
func (s *Store) MaxVolume(zone model.Zone) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.maxVolume[zone]
	return v, ok
}

// SourceID returns the cached source id for zone.
func (s *Store) SourceID(zone model.Zone) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.sourceID[zone]
	return v, ok
}

// SourceName returns the cached source name for zone.
func (s *Store) SourceName(zone model.Zone) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.sourceName[zone]
	return v, ok
}

// SetSourceDict replaces the bidirectional source map wholesale and
// disables further automatic updates from decoded source-name frames
// (until the next Reset).
func (s *Store) SetSourceDict(m map[int]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sourceIDToName = make(map[int]string, len(m))
	s.sourceNameToID = make(map[string]int, len(m))
	for id, name := range m {
		s.sourceIDToName[id] = name
		s.sourceNameToID[name] = id
	}
	s.querySources = model.QuerySourcesDisabled
}

// QuerySourcesState reports the tri-state controlling whether decoded
// source-name frames are allowed to mutate the source map.
func (s *Store) QuerySourcesState() model.QuerySourcesState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.querySources
}

// EnableQuerySources flips the tri-state to Enabled, e.g. once the
// facade begins building the source dictionary from device responses.
func (s *Store) EnableQuerySources() {
	s.mu.Lock()
	s.querySources = model.QuerySourcesEnabled
	s.mu.Unlock()
}

// GetSourceName returns the name bound to id, if any.
func (s *Store) GetSourceName(id int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.sourceIDToName[id]
	return v, ok
}

// GetSourceID returns the id bound to name, if any.
func (s *Store) GetSourceID(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.sourceNameToID[name]
	return v, ok
}

// BindSource atomically rewrites both directions of the source
// bijection for (id, name), first removing any prior bindings that
// would otherwise leave the map inconsistent.
func (s *Store) BindSource(id int, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if oldName, ok := s.sourceIDToName[id]; ok {
		delete(s.sourceNameToID, oldName)
	}
	if oldID, ok := s.sourceNameToID[name]; ok {
		delete(s.sourceIDToName, oldID)
	}
	if s.sourceIDToName[id] == name {
		return
	}
	s.sourceIDToName[id] = name
	s.sourceNameToID[name] = id
	slog.Info("store: property changed", "base_property", "source_id_to_name", "property_name", id, "zone", model.ALL, "new", name)
}

// SetCachedPreset records a decoded tuner preset pending reconciliation
// against the next frequency update (§4.B.1's preset contract).
func (s *Store) SetCachedPreset(value any) {
	s.mu.Lock()
	s.cachedPreset = value
	s.hasCachedPreset = true
	s.mu.Unlock()
}

// TakeCachedPreset returns and clears any pending cached preset.
func (s *Store) TakeCachedPreset() (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCachedPreset {
		return nil, false
	}
	v := s.cachedPreset
	s.cachedPreset = nil
	s.hasCachedPreset = false
	return v, true
}

// GetSourceList returns source names filtered by the per-zone
// allowed-source parameter (empty filter means "all").
func (s *Store) GetSourceList(zone model.Zone, allowed []int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allow := func(id int) bool {
		if len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == id {
				return true
			}
		}
		return false
	}
	out := make([]string, 0, len(s.sourceIDToName))
	for id, name := range s.sourceIDToName {
		if allow(id) {
			out = append(out, name)
		}
	}
	return out
}

// IsSourceTuner reports whether source (if non-nil) or any powered-on
// zone's current source is the tuner.
func (s *Store) IsSourceTuner(source *string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if source != nil {
		return *source == SourceTunerName
	}
	for z, on := range s.power {
		if !on {
			continue
		}
		if s.sourceName[z] == SourceTunerName {
			return true
		}
	}
	return false
}

// ListeningModesAll returns a copy of the full listening-mode
// catalogue (pre-filtering), as rebuilt by UpdateListeningModes.
func (s *Store) ListeningModesAll() map[int]model.ListeningMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]model.ListeningMode, len(s.listeningModesAll))
	for id, lm := range s.listeningModesAll {
		out[id] = lm
	}
	return out
}

// UpdateListeningModes rebuilds listeningModesAll from the base table
// plus extra, then derives availableListeningModes by intersecting
// with enabled (empty = "all"), subtracting disabled, and filtering on
// the 2ch/multichannel flags according to audio.input_multichannel.
// Duplicate display names after merging are dropped with a warning.
func (s *Store) UpdateListeningModes(base map[int]model.ListeningMode, extra map[int]model.ListeningMode, enabled, disabled []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make(map[int]model.ListeningMode, len(base)+len(extra))
	for id, m := range base {
		merged[id] = m
	}
	for id, m := range extra {
		merged[id] = m
	}
	s.listeningModesAll = merged

	enabledSet := make(map[string]bool, len(enabled))
	for _, n := range enabled {
		enabledSet[n] = true
	}
	disabledSet := make(map[string]bool, len(disabled))
	for _, n := range disabled {
		disabledSet[n] = true
	}

	multichannel, _ := s.audio["input_multichannel"].(bool)

	seenNames := make(map[string]int)
	available := make(map[int]string)
	for id, m := range merged {
		if len(enabledSet) > 0 && !enabledSet[m.Name] {
			continue
		}
		if disabledSet[m.Name] {
			continue
		}
		if multichannel && !m.ValidForMultich {
			continue
		}
		if !multichannel && !m.ValidFor2ch {
			continue
		}
		if other, dup := seenNames[m.Name]; dup {
			slog.Warn("store: duplicate listening mode display name dropped", "name", m.Name, "id", id, "kept_id", other)
			continue
		}
		seenNames[m.Name] = id
		available[id] = m.Name
	}
	s.availableListeningModes = available
}
