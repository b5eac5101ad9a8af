package codes

import (
	"strconv"

	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/params"
	"github.com/crowbarz/avrctl-go/internal/queue"
)

// mediaControlSources maps a subset of source ids to the media-control
// mode they drive, grounded on aiopioneer's const.MEDIA_CONTROL_SOURCES.
var mediaControlSources = map[string]string{
	"02": "TUNER",
	"13": "ADAPTERPORT",
	"17": "IPOD",
	"26": "NETWORK",
	"38": "NETWORK",
	"41": "NETWORK",
	"44": "NETWORK",
	"53": "NETWORK",
}

// SourceIDMap implements the source-id contract of §4.B.1: on decode it
// also pushes a source-name lookup delta, conditionally enqueues tuner
// queries, always enqueues the delayed basic-query, and derives a
// media-control mode.
type SourceIDMap struct {
	codemap.Meta
}

// NewSourceID returns the per-zone source-id map (2-digit code).
func NewSourceID(zones ...model.Zone) SourceIDMap {
	return SourceIDMap{Meta: codemap.Meta{Base: "source_id", Friendly: "source ID", Zones: zones}}
}

func (m SourceIDMap) Len() int   { return 2 }
func (m SourceIDMap) NArgs() int { return 1 }

func (m SourceIDMap) CodeToValue(_ codemap.EncodeContext, code string) (any, error) {
	return strconv.Atoi(code)
}

func (m SourceIDMap) ValueToCode(_ codemap.EncodeContext, _ model.Zone, value any) (string, error) {
	switch v := value.(type) {
	case int:
		return zeroPad(v, 2), nil
	case string:
		return v, nil
	default:
		return "", codemap.ErrNotAssignable
	}
}

func (m SourceIDMap) ParseArgs(ctx codemap.EncodeContext, zone model.Zone, args []any) (string, error) {
	if len(args) != 1 {
		return "", codemap.ErrNotAssignable
	}
	return m.ValueToCode(ctx, zone, args[0])
}

func (m SourceIDMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	id, err := strconv.Atoi(seed.Code)
	if err != nil {
		return nil, err
	}

	idDelta := seed
	idDelta.BaseProperty = "source_id"
	idDelta.Value = id

	name, _ := ctx.Store.GetSourceName(id)
	nameDelta := seed
	nameDelta.BaseProperty = "source_name"
	nameDelta.Value = name
	nameDelta.UpdateZones = map[model.Zone]struct{}{model.ALL: {}}

	followUps := []queue.Item{
		queue.NewItem(queue.CmdDelayedBasicQuery, seed.Zone, queue.QueueBasic),
	}
	if ctx.Store.IsSourceTuner(&name) {
		followUps = append([]queue.Item{
			queue.NewItem("query_tuner_frequency", seed.Zone, queue.QueueNormal),
			queue.NewItem("query_tuner_preset", seed.Zone, queue.QueueNormal),
		}, followUps...)
	}
	nameDelta.QueueCommands = followUps

	mhl, _ := ctx.Params.Get(params.KeyMHLSource, "").(string)
	var mode string
	if mcm, ok := mediaControlSources[seed.Code]; ok {
		mode = mcm
	} else if mhl != "" && name == mhl {
		mode = "MHL"
	}
	modeDelta := seed
	modeDelta.BaseProperty = "media_control_mode"
	modeDelta.Value = mode

	return []codemap.Delta{nameDelta, idDelta, modeDelta}, nil
}

// SourceNameMap implements the source-name contract of §4.B.1: decodes
// id/name pairs reported by the device, rewriting both directions of
// the bijection after clearing any prior bindings for the same id or
// name. A no-op when query_sources is disabled.
type SourceNameMap struct {
	codemap.Meta
}

func NewSourceName() SourceNameMap {
	return SourceNameMap{Meta: codemap.Meta{Friendly: "source name", Zones: []model.Zone{model.ALL}}}
}

func (m SourceNameMap) Len() int   { return 0 }
func (m SourceNameMap) NArgs() int { return 0 }

func (m SourceNameMap) CodeToValue(_ codemap.EncodeContext, code string) (any, error) {
	if len(code) < 3 {
		return nil, codemap.ErrNotAssignable
	}
	id, err := strconv.Atoi(code[:2])
	if err != nil {
		return nil, err
	}
	return [2]any{id, code[3:]}, nil
}

func (m SourceNameMap) ValueToCode(_ codemap.EncodeContext, _ model.Zone, _ any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m SourceNameMap) ParseArgs(_ codemap.EncodeContext, _ model.Zone, _ []any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m SourceNameMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	if ctx.Store.QuerySourcesState() == model.QuerySourcesDisabled {
		return nil, nil
	}
	pair, err := m.CodeToValue(ctx, seed.Code)
	if err != nil {
		return nil, err
	}
	p := pair.([2]any)
	id := p[0].(int)
	name := p[1].(string)

	// BindSource removes any prior binding for id or name before
	// rewriting both directions, so the bijection is never briefly
	// inconsistent; it owns its own change logging (§4.G.1 applies to
	// generic group commits, not to this dedicated structure).
	ctx.Store.BindSource(id, name)
	return nil, nil
}
