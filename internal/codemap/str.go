package codemap

import (
	"fmt"
	"strings"

	"github.com/crowbarz/avrctl-go/internal/model"
)

// StrMap is a fixed-length string with a fill character; decode
// right-strips the fill, encode right-pads with it.
type StrMap struct {
	Meta
	CodeLen   int
	FillChar  byte
	ReadOnly  bool // true for scraped identification strings (system MAC/model/software version)
}

func (m StrMap) fill() byte {
	if m.FillChar == 0 {
		return ' '
	}
	return m.FillChar
}

func (m StrMap) Len() int   { return m.CodeLen }
func (m StrMap) NArgs() int { return 1 }

func (m StrMap) CodeToValue(_ EncodeContext, code string) (any, error) {
	return strings.TrimRight(code, string(m.fill())), nil
}

func (m StrMap) ValueToCode(_ EncodeContext, _ model.Zone, value any) (string, error) {
	if m.ReadOnly {
		return "", ErrNotAssignable
	}
	s, _ := value.(string)
	if len(s) > m.CodeLen {
		return "", fmt.Errorf("codemap: %s: value %q longer than field width %d", m.Base, s, m.CodeLen)
	}
	for len(s) < m.CodeLen {
		s += string(m.fill())
	}
	return s, nil
}

func (m StrMap) DecodeResponse(ctx EncodeContext, seed Delta) ([]Delta, error) {
	v, err := m.CodeToValue(ctx, seed.Code)
	if err != nil {
		return nil, err
	}
	return defaultDecode(m, seed, v), nil
}

func (m StrMap) ParseArgs(ctx EncodeContext, zone model.Zone, args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("codemap: %s: expected 1 argument, got %d", m.Base, len(args))
	}
	return m.ValueToCode(ctx, zone, args[0])
}
