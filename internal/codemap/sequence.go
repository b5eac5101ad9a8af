package codemap

import (
	"fmt"
	"strings"

	"github.com/crowbarz/avrctl-go/internal/model"
)

// SequenceChild is one element of a SequenceMap: either a child code
// map occupying its own fixed offset, or (if Map is nil) a blank gap
// of GapLen characters that is skipped on decode and filled with
// GapFill on encode.
type SequenceChild struct {
	Map    CodeMap
	GapLen int
}

// SequenceMap concatenates child maps at fixed offsets, with optional
// blank gaps (§4.B "Sequence"). Decoding splits the input by each
// child's declared length and decodes each child in turn, concatenating
// the resulting delta lists; invariant: the sum of child Len()s (and
// gap lengths) must equal the length consumed from the code.
type SequenceMap struct {
	Meta
	Children []SequenceChild
	GapFill  byte
}

func (m SequenceMap) gapFill() byte {
	if m.GapFill == 0 {
		return '_'
	}
	return m.GapFill
}

func (m SequenceMap) Len() int {
	total := 0
	for _, c := range m.Children {
		if c.Map != nil {
			total += c.Map.Len()
		} else {
			total += c.GapLen
		}
	}
	return total
}

func (m SequenceMap) NArgs() int {
	total := 0
	for _, c := range m.Children {
		if c.Map != nil {
			total += c.Map.NArgs()
		}
	}
	return total
}

// CodeToValue has no single scalar meaning at the sequence level;
// sequences are decoded child-by-child via DecodeResponse instead.
func (m SequenceMap) CodeToValue(_ EncodeContext, _ string) (any, error) {
	return nil, ErrNotAssignable
}

func (m SequenceMap) ValueToCode(_ EncodeContext, _ model.Zone, _ any) (string, error) {
	return "", ErrNotAssignable
}

func (m SequenceMap) DecodeResponse(ctx EncodeContext, seed Delta) ([]Delta, error) {
	code := seed.Code
	var out []Delta
	offset := 0
	for _, c := range m.Children {
		length := c.GapLen
		if c.Map != nil {
			length = c.Map.Len()
		}
		if offset+length > len(code) {
			return nil, fmt.Errorf("codemap: %s: sequence child consumes past end of code %q", m.Base, code)
		}
		childCode := code[offset : offset+length]
		offset += length
		if c.Map == nil {
			continue
		}
		childSeed := seed
		childSeed.Code = childCode
		childSeed.BaseProperty = ""
		childSeed.PropertyName = ""
		childSeed.QueueCommands = nil
		childSeed.Callback = nil
		deltas, err := c.Map.DecodeResponse(ctx, childSeed)
		if err != nil {
			return nil, err
		}
		out = append(out, deltas...)
	}
	if offset != len(code) {
		return nil, fmt.Errorf("codemap: %s: sequence consumed %d of %d code characters", m.Base, offset, len(code))
	}
	return out, nil
}

func (m SequenceMap) ParseArgs(ctx EncodeContext, zone model.Zone, args []any) (string, error) {
	var sb strings.Builder
	i := 0
	for _, c := range m.Children {
		if c.Map == nil {
			sb.WriteString(strings.Repeat(string(m.gapFill()), c.GapLen))
			continue
		}
		n := c.Map.NArgs()
		if i+n > len(args) {
			return "", fmt.Errorf("codemap: %s: not enough arguments for sequence child", m.Base)
		}
		part, err := c.Map.ParseArgs(ctx, zone, args[i:i+n])
		if err != nil {
			return "", err
		}
		sb.WriteString(part)
		i += n
	}
	return sb.String(), nil
}
