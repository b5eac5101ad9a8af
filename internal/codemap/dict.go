package codemap

import (
	"fmt"

	"github.com/crowbarz/avrctl-go/internal/model"
)

// FixedDictMap is a static code<->value mapping declared at map
// construction time, with an optional default entry acting as a
// catch-all on decode (§4.B "Fixed dict").
type FixedDictMap struct {
	Meta
	Codes      map[string]any
	CodeLen    int
	Default    any
	HasDefault bool
}

func (m FixedDictMap) Len() int   { return m.CodeLen }
func (m FixedDictMap) NArgs() int { return 1 }

func (m FixedDictMap) CodeToValue(_ EncodeContext, code string) (any, error) {
	if v, ok := m.Codes[code]; ok {
		return v, nil
	}
	if m.HasDefault {
		return m.Default, nil
	}
	return nil, fmt.Errorf("codemap: %s: unrecognised code %q", m.Base, code)
}

func (m FixedDictMap) ValueToCode(_ EncodeContext, _ model.Zone, value any) (string, error) {
	for code, v := range m.Codes {
		if v == value {
			return code, nil
		}
	}
	return "", fmt.Errorf("codemap: %s: no code maps to value %v", m.Base, value)
}

func (m FixedDictMap) DecodeResponse(ctx EncodeContext, seed Delta) ([]Delta, error) {
	v, err := m.CodeToValue(ctx, seed.Code)
	if err != nil {
		return nil, err
	}
	return defaultDecode(m, seed, v), nil
}

func (m FixedDictMap) ParseArgs(ctx EncodeContext, zone model.Zone, args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("codemap: %s: expected 1 argument, got %d", m.Base, len(args))
	}
	return m.ValueToCode(ctx, zone, args[0])
}

// DynamicDictMap is a code<->value mapping resolved at call time from
// the property store or parameters (listening modes, speaker-system
// modes) rather than declared statically.
type DynamicDictMap struct {
	Meta
	CodeLen    int
	Lookup     func(ctx EncodeContext) map[string]string
	Default    string
	HasDefault bool
}

func (m DynamicDictMap) Len() int   { return m.CodeLen }
func (m DynamicDictMap) NArgs() int { return 1 }

func (m DynamicDictMap) table(ctx EncodeContext) map[string]string {
	if m.Lookup == nil {
		return nil
	}
	return m.Lookup(ctx)
}

func (m DynamicDictMap) CodeToValue(ctx EncodeContext, code string) (any, error) {
	t := m.table(ctx)
	if v, ok := t[code]; ok {
		return v, nil
	}
	if m.HasDefault {
		return m.Default, nil
	}
	return nil, fmt.Errorf("codemap: %s: unrecognised dynamic code %q", m.Base, code)
}

func (m DynamicDictMap) ValueToCode(ctx EncodeContext, _ model.Zone, value any) (string, error) {
	name, _ := value.(string)
	t := m.table(ctx)
	for code, v := range t {
		if v == name {
			return code, nil
		}
	}
	return "", fmt.Errorf("codemap: %s: no code maps to value %v", m.Base, value)
}

func (m DynamicDictMap) DecodeResponse(ctx EncodeContext, seed Delta) ([]Delta, error) {
	v, err := m.CodeToValue(ctx, seed.Code)
	if err != nil {
		return nil, err
	}
	return defaultDecode(m, seed, v), nil
}

func (m DynamicDictMap) ParseArgs(ctx EncodeContext, zone model.Zone, args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("codemap: %s: expected 1 argument, got %d", m.Base, len(args))
	}
	return m.ValueToCode(ctx, zone, args[0])
}
