package codemap

import (
	"fmt"

	"github.com/crowbarz/avrctl-go/internal/model"
)

// CodeMap is the tagged-interface replacement (§9 REDESIGN FLAGS) for
// the reference implementation's duck-typed class hierarchy. Every
// wire property implements this contract.
type CodeMap interface {
	BaseProperty() string
	PropertyName() string
	FriendlyName() string
	SupportedZones() []model.Zone

	// Len is the map's fixed size in the wire frame.
	Len() int
	// NArgs is the number of user-supplied arguments ParseArgs
	// consumes for the set variant (0 for read-only/query maps).
	NArgs() int

	ValueToCode(ctx EncodeContext, zone model.Zone, value any) (string, error)
	CodeToValue(ctx EncodeContext, code string) (any, error)

	// DecodeResponse converts a raw wire code into one or more deltas.
	// seed carries the store/prefix/zone context the dispatcher
	// already resolved.
	DecodeResponse(ctx EncodeContext, seed Delta) ([]Delta, error)

	// ParseArgs formats user-supplied arguments into a wire suffix for
	// the set variant of the command.
	ParseArgs(ctx EncodeContext, zone model.Zone, args []any) (string, error)
}

// Meta holds the class-level metadata every map declares: the
// top-level property-store key, an optional sub-key, a friendly name,
// and the zones the map applies to. Concrete families embed Meta to
// satisfy the metadata portion of the CodeMap interface.
type Meta struct {
	Base     string
	Prop     string
	Friendly string
	Zones    []model.Zone
}

func (m Meta) BaseProperty() string        { return m.Base }
func (m Meta) PropertyName() string        { return m.Prop }
func (m Meta) FriendlyName() string        { return m.Friendly }
func (m Meta) SupportedZones() []model.Zone { return m.Zones }

// defaultDecode implements the CodeMap default described in §4.B: set
// base_property/property_name from metadata, convert the code, return
// a single delta.
func defaultDecode(m CodeMap, seed Delta, value any) []Delta {
	d := seed
	d.BaseProperty = m.BaseProperty()
	d.PropertyName = m.PropertyName()
	d.Value = value
	return []Delta{d}
}

// ErrNotAssignable is returned by ValueToCode/ParseArgs on decode-only
// maps (e.g. scraped system identification strings).
var ErrNotAssignable = fmt.Errorf("codemap: value not assignable on this map")
