package codes

import (
	"strconv"
	"strings"

	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/queue"
)

// ChannelLevelMap decodes/encodes a per-speaker channel trim level
// (1 step = 0.5dB). The wire code packs a 3-character speaker label
// ahead of the 2-digit numeric value; property_name is set to the
// speaker label on decode, grounded on aiopioneer's ChannelLevel.
type ChannelLevelMap struct {
	codemap.NumberMap
}

func NewChannelLevel(zones ...model.Zone) ChannelLevelMap {
	n := codemap.NewFloat(
		codemap.Meta{Base: "channel_levels", Friendly: "channel level", Zones: zones},
		2, -12, 12,
		codemap.WithDivider(0.5), codemap.WithOffset(25), codemap.WithStep(0.5),
	)
	return ChannelLevelMap{NumberMap: n}
}

func (m ChannelLevelMap) Len() int { return 5 }

func (m ChannelLevelMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	if len(seed.Code) < 4 {
		return nil, codemap.ErrNotAssignable
	}
	speaker := strings.ToUpper(strings.Trim(seed.Code[:3], "_"))
	sub := seed
	sub.Code = seed.Code[3:]
	deltas, err := m.NumberMap.DecodeResponse(ctx, sub)
	if err != nil {
		return nil, err
	}
	deltas[0].PropertyName = speaker
	return deltas, nil
}

func (m ChannelLevelMap) ParseArgs(ctx codemap.EncodeContext, zone model.Zone, args []any) (string, error) {
	if len(args) != 2 {
		return "", codemap.ErrNotAssignable
	}
	speaker, ok := args[0].(string)
	if !ok || len(speaker) == 0 || len(speaker) > 3 {
		return "", codemap.ErrNotAssignable
	}
	for len(speaker) < 3 {
		speaker += "_"
	}
	valueCode, err := m.NumberMap.ValueToCode(ctx, zone, args[1])
	if err != nil {
		return "", err
	}
	return strings.ToUpper(speaker) + valueCode, nil
}

// ListeningModeMap decodes/encodes the SR listening-mode response
// against the store's dynamically-rebuilt listening-mode catalogue
// (listening_modes_all), and additionally commits the raw numeric code
// under listening_mode_raw, grounded on aiopioneer's ListeningMode.
type ListeningModeMap struct {
	codemap.DynamicDictMap
}

func NewListeningMode() ListeningModeMap {
	d := codemap.DynamicDictMap{
		Meta: codemap.Meta{Base: "listening_mode", Friendly: "listening mode", Zones: []model.Zone{model.ALL}},
		CodeLen: 4,
		Lookup: func(ctx codemap.EncodeContext) map[string]string {
			out := map[string]string{}
			for id, lm := range ctx.Store.ListeningModesAll() {
				out[zeroPad(id, 4)] = lm.Name
			}
			return out
		},
	}
	return ListeningModeMap{DynamicDictMap: d}
}

func (m ListeningModeMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	deltas, err := m.DynamicDictMap.DecodeResponse(ctx, seed)
	if err != nil {
		return nil, err
	}
	raw := seed.Clone(false, false)
	raw.BaseProperty = "listening_mode_raw"
	if id, convErr := strconv.Atoi(seed.Code); convErr == nil {
		raw.Value = id
	} else {
		raw.Value = seed.Code
	}
	return append(deltas, raw), nil
}

// toneModeCodes is ToneMode's fixed dict ("bypass"/"on" collapsed to
// the store's bool tone.status field), grounded on aiopioneer's
// ToneMode.code_map.
var toneModeCodes = map[string]any{"0": false, "1": true}

// NewToneStatus returns the tone on/off sub-field map.
func NewToneStatus(zones ...model.Zone) codemap.FixedDictMap {
	return codemap.FixedDictMap{
		Meta:    codemap.Meta{Base: "tone", Prop: "status", Friendly: "tone mode", Zones: zones},
		Codes:   toneModeCodes,
		CodeLen: 1,
	}
}

// NewToneBass/NewToneTreble are ToneDb's two concrete subclasses: a
// signed dB value in [-6, 6], one step per unit, stored inverted
// (divider -1, offset -6) to match the device's 00=+6 .. 12=-6 coding.
func NewToneBass(zones ...model.Zone) codemap.NumberMap {
	return codemap.NewInt(codemap.Meta{Base: "tone", Prop: "bass", Friendly: "tone bass", Zones: zones},
		2, -6, 6, codemap.WithDivider(-1), codemap.WithOffset(-6))
}

func NewToneTreble(zones ...model.Zone) codemap.NumberMap {
	return codemap.NewInt(codemap.Meta{Base: "tone", Prop: "treble", Friendly: "tone treble", Zones: zones},
		2, -6, 6, codemap.WithDivider(-1), codemap.WithOffset(-6))
}

// audioSignalInputInfo is a representative subset of aiopioneer's
// AudioSignalInputInfo.code_map (the full device table runs to ~50
// codec names; this keeps the shape without the exhaustive catalogue).
var audioSignalInputInfo = map[string]any{
	"00": "ANALOG",
	"03": "PCM",
	"05": "DOLBY DIGITAL",
	"06": "DTS",
	"17": "DOLBY TrueHD",
	"19": "DTS-HD Master Audio",
	"29": "Dolby Atmos",
}

var audioSignalInputFreq = map[string]any{
	"00": "32kHz",
	"01": "44.1kHz",
	"02": "48kHz",
	"04": "96kHz",
	"06": "192kHz",
}

// AudioInfoMap decodes the AST audio-information response: a
// fixed-width status frame. It fans out into input_signal,
// input_frequency, and input_multichannel, paralleling aiopioneer's
// AudioInformation compound decoder (trimmed to the channel-agnostic
// header fields; the full response also carries one active/inactive
// flag per physical channel, omitted here as a mechanical repetition
// of the same AudioChannelActive shape).
type AudioInfoMap struct {
	codemap.Meta
}

func NewAudioInfo() AudioInfoMap {
	return AudioInfoMap{Meta: codemap.Meta{Friendly: "audio information", Zones: []model.Zone{model.ALL}}}
}

func (m AudioInfoMap) Len() int   { return 0 }
func (m AudioInfoMap) NArgs() int { return 0 }

func (m AudioInfoMap) CodeToValue(_ codemap.EncodeContext, code string) (any, error) {
	return code, nil
}

func (m AudioInfoMap) ValueToCode(_ codemap.EncodeContext, _ model.Zone, _ any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m AudioInfoMap) ParseArgs(_ codemap.EncodeContext, _ model.Zone, _ []any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m AudioInfoMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	if len(seed.Code) < 7 {
		return nil, codemap.ErrNotAssignable
	}

	signal := seed.Clone(false, false)
	signal.BaseProperty, signal.PropertyName = "audio", "input_signal"
	signal.Value = audioSignalInputInfo[seed.Code[0:2]]

	freq := seed.Clone(false, false)
	freq.BaseProperty, freq.PropertyName = "audio", "input_frequency"
	freq.Value = audioSignalInputFreq[seed.Code[2:4]]

	multich := allOne(seed.Code[4:7])
	mc := seed.Clone(false, false)
	mc.BaseProperty, mc.PropertyName = "audio", "input_multichannel"
	mc.Value = multich
	mc.Callback = func(d codemap.Delta) []codemap.Delta {
		old, _ := ctx.Store.GroupValue("audio", "input_multichannel")
		if old == d.Value {
			return []codemap.Delta{d}
		}
		return []codemap.Delta{d, {QueueCommands: []queue.Item{
			queue.NewItem(queue.CmdUpdateListeningModes, model.ALL, queue.QueueBasic),
		}}}
	}

	return []codemap.Delta{signal, freq, mc}, nil
}

func allOne(s string) bool {
	for _, c := range s {
		if c != '1' {
			return false
		}
	}
	return true
}
