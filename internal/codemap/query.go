package codemap

import "github.com/crowbarz/avrctl-go/internal/model"

// QueryMap composes another map with a one-byte "?" prefix to form a
// read-only query command (§4.B "Query"). It carries no value of its
// own; it exists only to format the query frame.
type QueryMap struct {
	Meta
	Inner CodeMap
}

func (m QueryMap) Len() int   { return 1 }
func (m QueryMap) NArgs() int { return 0 }

func (m QueryMap) CodeToValue(_ EncodeContext, _ string) (any, error) {
	return nil, ErrNotAssignable
}

func (m QueryMap) ValueToCode(_ EncodeContext, _ model.Zone, _ any) (string, error) {
	return "", ErrNotAssignable
}

func (m QueryMap) DecodeResponse(ctx EncodeContext, seed Delta) ([]Delta, error) {
	return m.Inner.DecodeResponse(ctx, seed)
}

func (m QueryMap) ParseArgs(_ EncodeContext, _ model.Zone, _ []any) (string, error) {
	return "?", nil
}
