package codemap

import (
	"fmt"
	"math"
	"strconv"

	"github.com/crowbarz/avrctl-go/internal/model"
)

// codeMapNDigits/codeMapExp match the reference implementation's
// rounding precision for float code maps (3 decimal digits).
const (
	codeMapNDigits = 3
	codeMapExp     = 1000.0
)

// NumberMap implements both the Integer and Float families of §4.B:
// bounds [min, max], step, divider, offset, and an optional zero-pad
// width. The wire representation of value v is
// round((v+offset)/divider) - codeOffset, zero-padded. Integer selects
// whether ValueToCode enforces integrality and CodeToValue returns an
// int rather than a float64.
type NumberMap struct {
	Meta
	CodeLen    int
	Min, Max   float64
	Step       float64
	Divider    float64
	Offset     float64
	CodeOffset int
	Integer    bool

	// BoundsFunc, if set, overrides Min/Max with dynamic bounds (e.g.
	// zone volume's per-zone max_volume read from the store). A false
	// ok return means the bound is not currently known.
	BoundsFunc func(ctx EncodeContext, zone model.Zone) (min, max float64, ok bool)
}

// NewInt returns the Integer family.
func NewInt(meta Meta, codeLen int, min, max int, opts ...func(*NumberMap)) NumberMap {
	m := NumberMap{Meta: meta, CodeLen: codeLen, Min: float64(min), Max: float64(max), Divider: 1, Integer: true}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// NewFloat returns the Float family.
func NewFloat(meta Meta, codeLen int, min, max float64, opts ...func(*NumberMap)) NumberMap {
	m := NumberMap{Meta: meta, CodeLen: codeLen, Min: min, Max: max, Divider: 1}
	for _, o := range opts {
		o(&m)
	}
	return m
}

func WithDivider(d float64) func(*NumberMap) { return func(m *NumberMap) { m.Divider = d } }
func WithOffset(o float64) func(*NumberMap)  { return func(m *NumberMap) { m.Offset = o } }
func WithCodeOffset(o int) func(*NumberMap)  { return func(m *NumberMap) { m.CodeOffset = o } }
func WithStep(s float64) func(*NumberMap)    { return func(m *NumberMap) { m.Step = s } }
func WithBoundsFunc(f func(ctx EncodeContext, zone model.Zone) (float64, float64, bool)) func(*NumberMap) {
	return func(m *NumberMap) { m.BoundsFunc = f }
}

func (m NumberMap) Len() int   { return m.CodeLen }
func (m NumberMap) NArgs() int { return 1 }

func roundNDigits(v float64) float64 {
	return math.Round(v*codeMapExp) / codeMapExp
}

func (m NumberMap) divider() float64 {
	if m.Divider == 0 {
		return 1
	}
	return m.Divider
}

// CodeToValue decodes a zero-padded numeral code back to a value.
// "Codes are not validated to value_min/value_max" on decode, matching
// the reference implementation's deliberate leniency.
func (m NumberMap) CodeToValue(_ EncodeContext, code string) (any, error) {
	n, err := strconv.Atoi(code)
	if err != nil {
		return nil, fmt.Errorf("codemap: %s: invalid numeric code %q: %w", m.Base, code, err)
	}
	v := (float64(n) + float64(m.CodeOffset)) * m.divider() - m.Offset
	v = roundNDigits(v)
	if m.Integer {
		return int(math.Round(v)), nil
	}
	return v, nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("codemap: cannot interpret %v as a number", value)
	}
}

// ValueToCode enforces bounds and step-multiple constraints ("the
// value-to-code operation rejects out-of-bounds or non-multiple-of-
// step values") before formatting.
func (m NumberMap) ValueToCode(ctx EncodeContext, zone model.Zone, value any) (string, error) {
	v, err := toFloat(value)
	if err != nil {
		return "", err
	}

	min, max := m.Min, m.Max
	if m.BoundsFunc != nil {
		bMin, bMax, ok := m.BoundsFunc(ctx, zone)
		if !ok {
			return "", fmt.Errorf("codemap: %s: bounds not yet known for zone %s", m.Base, zone)
		}
		min, max = bMin, bMax
	}
	if v < min || v > max {
		return "", fmt.Errorf("codemap: %s: value %v out of bounds [%v, %v]", m.Base, v, min, max)
	}
	if m.Step > 0 {
		steps := (v - min) / m.Step
		if math.Abs(steps-math.Round(steps)) > 1e-6 {
			return "", fmt.Errorf("codemap: %s: value %v is not a multiple of step %v", m.Base, v, m.Step)
		}
	}

	n := int(math.Round((v+m.Offset)/m.divider())) - m.CodeOffset
	return zeroPad(n, m.CodeLen), nil
}

func zeroPad(n, width int) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	if neg {
		return "-" + s
	}
	return s
}

func (m NumberMap) DecodeResponse(ctx EncodeContext, seed Delta) ([]Delta, error) {
	v, err := m.CodeToValue(ctx, seed.Code)
	if err != nil {
		return nil, err
	}
	return defaultDecode(m, seed, v), nil
}

func (m NumberMap) ParseArgs(ctx EncodeContext, zone model.Zone, args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("codemap: %s: expected 1 argument, got %d", m.Base, len(args))
	}
	return m.ValueToCode(ctx, zone, args[0])
}
