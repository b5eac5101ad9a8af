package codemap

import (
	"fmt"
	"strings"

	"github.com/crowbarz/avrctl-go/internal/model"
)

// BoolMap represents a single-character boolean code. NewBool and
// NewInverseBool construct the two families described in §4.B:
// InverseBoolMap simply swaps which literal means true, which is how
// zone power is encoded (0 means on).
type BoolMap struct {
	Meta
	CodeTrue  string
	CodeFalse string
}

// NewBool returns the ordinary boolean family: "1" is true, "0" is
// false.
func NewBool(meta Meta) BoolMap {
	return BoolMap{Meta: meta, CodeTrue: "1", CodeFalse: "0"}
}

// NewInverseBool returns the inverse boolean family: "0" is true, "1"
// is false.
func NewInverseBool(meta Meta) BoolMap {
	return BoolMap{Meta: meta, CodeTrue: "0", CodeFalse: "1"}
}

func (m BoolMap) Len() int   { return 1 }
func (m BoolMap) NArgs() int { return 1 }

func (m BoolMap) CodeToValue(_ EncodeContext, code string) (any, error) {
	switch code {
	case m.CodeTrue:
		return true, nil
	case m.CodeFalse:
		return false, nil
	default:
		return nil, fmt.Errorf("codemap: %s: unrecognised bool code %q", m.Base, code)
	}
}

func (m BoolMap) ValueToCode(_ EncodeContext, _ model.Zone, value any) (string, error) {
	b, err := coerceBool(value)
	if err != nil {
		return "", err
	}
	if b {
		return m.CodeTrue, nil
	}
	return m.CodeFalse, nil
}

func (m BoolMap) DecodeResponse(ctx EncodeContext, seed Delta) ([]Delta, error) {
	v, err := m.CodeToValue(ctx, seed.Code)
	if err != nil {
		return nil, err
	}
	return defaultDecode(m, seed, v), nil
}

func (m BoolMap) ParseArgs(ctx EncodeContext, zone model.Zone, args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("codemap: %s: expected 1 argument, got %d", m.Base, len(args))
	}
	return m.ValueToCode(ctx, zone, args[0])
}

func coerceBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "on":
			return true, nil
		case "off":
			return false, nil
		}
	}
	return false, fmt.Errorf("codemap: cannot interpret %v as a boolean", value)
}
