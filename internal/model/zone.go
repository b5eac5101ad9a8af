// Package model holds the value types shared across the client library:
// zones, tuner bands, and the small enums the decoder and store key on.
package model

// Zone identifies one of the receiver's independent audio outputs.
// ALL is a sentinel meaning "not per-zone"; it is never used as a map
// key that carries real zone state.
type Zone string

const (
	Z1  Zone = "Z1"
	Z2  Zone = "Z2"
	Z3  Zone = "Z3"
	HDZ Zone = "HDZ"
	ALL Zone = "ALL"
)

// Main is the receiver's primary zone, the one whose presence in a
// query_zones response is mandatory.
const Main = Z1

// Zones lists every real (non-ALL) zone the client knows about.
var Zones = []Zone{Z1, Z2, Z3, HDZ}

// IsReal reports whether z is a real, addressable zone (i.e. not ALL
// and not the empty zone).
func (z Zone) IsReal() bool {
	switch z {
	case Z1, Z2, Z3, HDZ:
		return true
	default:
		return false
	}
}

func (z Zone) String() string {
	return string(z)
}

// TunerBand is the tuner's active reception band.
type TunerBand string

const (
	BandAM TunerBand = "AM"
	BandFM TunerBand = "FM"
)

// QuerySourcesState is the tri-state controlling whether decoded
// source-name frames are allowed to mutate the source map.
type QuerySourcesState int

const (
	QuerySourcesUnknown QuerySourcesState = iota
	QuerySourcesEnabled
	QuerySourcesDisabled
)

// ToneStatus describes a zone's tone-control block.
type ToneStatus struct {
	Status bool
	Bass   int
	Treble int
}

// ListeningMode is one entry of the catalogue of listening modes the
// receiver supports, keyed by its wire id elsewhere.
type ListeningMode struct {
	Name            string
	ValidFor2ch     bool
	ValidForMultich bool
}
