package codes

import (
	"strconv"

	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/model"
	"github.com/crowbarz/avrctl-go/internal/queue"
	"github.com/crowbarz/avrctl-go/internal/store"
)

// amFrequencyBounds gives the AM tuning-step bounds for each possible
// am_frequency_step value, grounded on aiopioneer's FrequencyAM.value_bounds.
var amFrequencyBounds = map[int][2]int{
	9:  {531, 1701},
	10: {530, 1700},
}

// FrequencyFMMap decodes/encodes the FM tuner frequency (0.01MHz
// steps) and, on decode, tags the band and reconciles any cached
// tuner preset against the new frequency.
type FrequencyFMMap struct {
	codemap.NumberMap
}

func NewFrequencyFM() FrequencyFMMap {
	return FrequencyFMMap{NumberMap: codemap.NewFloat(
		codemap.Meta{Base: "tuner", Prop: "frequency", Friendly: "FM frequency", Zones: []model.Zone{model.ALL}},
		4, 87.5, 108.0,
		codemap.WithDivider(0.01), codemap.WithStep(0.05),
	)}
}

func (m FrequencyFMMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	base, err := m.NumberMap.DecodeResponse(ctx, seed)
	if err != nil {
		return nil, err
	}
	freq := base[0]
	band := freq.Clone(false, false)
	band.BaseProperty, band.PropertyName = "tuner", "band"
	band.Value = model.BandFM

	deltas := append([]codemap.Delta{band}, presetReconcile(ctx)...)
	return append(deltas, freq), nil
}

// FrequencyAMMap decodes/encodes the AM tuner frequency (1kHz steps).
// On decode it gleans am_frequency_step from divisibility when
// unknown, or (ambiguous case, tuner active) enqueues the
// _calculate_am_frequency_step workaround.
type FrequencyAMMap struct {
	codemap.Meta
}

func NewFrequencyAM() FrequencyAMMap {
	return FrequencyAMMap{Meta: codemap.Meta{Base: "tuner", Prop: "frequency", Friendly: "AM frequency", Zones: []model.Zone{model.ALL}}}
}

func (m FrequencyAMMap) Len() int   { return 4 }
func (m FrequencyAMMap) NArgs() int { return 1 }

func (m FrequencyAMMap) CodeToValue(_ codemap.EncodeContext, code string) (any, error) {
	return strconv.Atoi(code)
}

func (m FrequencyAMMap) ValueToCode(ctx codemap.EncodeContext, _ model.Zone, value any) (string, error) {
	step, _ := ctx.Store.GroupValue("tuner", "am_frequency_step")
	stepInt, ok := step.(int)
	if !ok || stepInt == store.AMFrequencyStepUnknown {
		return "", codemap.ErrNotAssignable
	}
	bounds, ok := amFrequencyBounds[stepInt]
	if !ok {
		return "", codemap.ErrNotAssignable
	}
	v, err := toInt(value)
	if err != nil {
		return "", err
	}
	if v < bounds[0] || v > bounds[1] || (v-bounds[0])%stepInt != 0 {
		return "", codemap.ErrNotAssignable
	}
	return zeroPad(v, 4), nil
}

func (m FrequencyAMMap) ParseArgs(ctx codemap.EncodeContext, zone model.Zone, args []any) (string, error) {
	if len(args) != 1 {
		return "", codemap.ErrNotAssignable
	}
	return m.ValueToCode(ctx, zone, args[0])
}

func (m FrequencyAMMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	freqVal, err := strconv.Atoi(seed.Code)
	if err != nil {
		return nil, err
	}

	freq := seed
	freq.BaseProperty = "tuner"
	freq.PropertyName = "frequency"
	freq.Value = freqVal

	glean := seed.Clone(false, false)
	glean.Callback = func(d codemap.Delta) []codemap.Delta { return gleanAMFrequencyStep(ctx, freqVal) }

	band := freq.Clone(false, false)
	band.BaseProperty, band.PropertyName = "tuner", "band"
	band.Value = model.BandAM

	deltas := append([]codemap.Delta{glean, band}, presetReconcile(ctx)...)
	return append(deltas, freq), nil
}

// gleanAMFrequencyStep implements the am_frequency_step heuristic of
// §4.B.1: if the step is unknown and freq is divisible by exactly one
// of 9 or 10, the step is unambiguous and committed directly. If
// ambiguous (divisible by both, or neither) and the tuner is the
// active source, the workaround command is enqueued to force the
// device to disclose its actual step.
func gleanAMFrequencyStep(ctx codemap.EncodeContext, freq int) []codemap.Delta {
	step, _ := ctx.Store.GroupValue("tuner", "am_frequency_step")
	if stepInt, ok := step.(int); ok && stepInt != store.AMFrequencyStepUnknown {
		return nil
	}

	div9 := freq%9 == 0
	div10 := freq%10 == 0
	var resolved int
	switch {
	case div9 && !div10:
		resolved = 9
	case div10 && !div9:
		resolved = 10
	}
	if resolved != 0 {
		return []codemap.Delta{{BaseProperty: "tuner", PropertyName: "am_frequency_step", Zone: model.ALL, Value: resolved}}
	}

	if !ctx.Store.IsSourceTuner(nil) {
		return nil
	}
	return []codemap.Delta{{QueueCommands: []queue.Item{
		queue.NewItem(queue.CmdCalcAMFrequencyStep, model.ALL, queue.QueueAtomic),
	}}}
}

// FrequencyAMStepMap decodes the rarely-supported AM frequency step
// response directly (code "0" => 9kHz, anything else => 10kHz).
type FrequencyAMStepMap struct {
	codemap.Meta
}

func NewFrequencyAMStep() FrequencyAMStepMap {
	return FrequencyAMStepMap{Meta: codemap.Meta{Base: "tuner", Prop: "am_frequency_step", Friendly: "AM frequency step", Zones: []model.Zone{model.ALL}}}
}

func (m FrequencyAMStepMap) Len() int   { return 1 }
func (m FrequencyAMStepMap) NArgs() int { return 0 }

func (m FrequencyAMStepMap) CodeToValue(_ codemap.EncodeContext, code string) (any, error) {
	if code == "0" {
		return 9, nil
	}
	return 10, nil
}

func (m FrequencyAMStepMap) ValueToCode(_ codemap.EncodeContext, _ model.Zone, _ any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m FrequencyAMStepMap) ParseArgs(_ codemap.EncodeContext, _ model.Zone, _ []any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m FrequencyAMStepMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	v, err := m.CodeToValue(ctx, seed.Code)
	if err != nil {
		return nil, err
	}
	d := seed
	d.BaseProperty, d.PropertyName, d.Value = "tuner", "am_frequency_step", v
	return []codemap.Delta{d}, nil
}

// PresetMap implements the tuner-preset contract of §4.B.1: decoded
// presets are cached, not committed directly, and the next frequency
// update (presetReconcile) flushes the cache into a committed
// tuner.preset delta.
type PresetMap struct {
	codemap.Meta
}

func NewPreset() PresetMap {
	return PresetMap{Meta: codemap.Meta{Base: "tuner", Prop: "preset", Friendly: "tuner preset", Zones: []model.Zone{model.ALL}}}
}

func (m PresetMap) Len() int   { return 3 }
func (m PresetMap) NArgs() int { return 2 }

func (m PresetMap) CodeToValue(_ codemap.EncodeContext, code string) (any, error) {
	if len(code) < 2 {
		return nil, codemap.ErrNotAssignable
	}
	n, err := strconv.Atoi(code[1:])
	if err != nil {
		return nil, err
	}
	return [2]any{code[:1], n}, nil
}

func (m PresetMap) ValueToCode(_ codemap.EncodeContext, _ model.Zone, value any) (string, error) {
	pair, ok := value.([2]any)
	if !ok {
		return "", codemap.ErrNotAssignable
	}
	class, _ := pair[0].(string)
	preset, _ := pair[1].(int)
	if len(class) != 1 || class < "A" || class > "G" || preset < 0 || preset > 9 {
		return "", codemap.ErrNotAssignable
	}
	return class + zeroPad(preset, 2), nil
}

func (m PresetMap) ParseArgs(ctx codemap.EncodeContext, zone model.Zone, args []any) (string, error) {
	if len(args) != 2 {
		return "", codemap.ErrNotAssignable
	}
	return m.ValueToCode(ctx, zone, [2]any{args[0], args[1]})
}

func (m PresetMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	value, err := m.CodeToValue(ctx, seed.Code)
	if err != nil {
		return nil, err
	}
	d := seed
	d.Value = value
	d.Callback = func(cb codemap.Delta) []codemap.Delta {
		ctx.Store.SetCachedPreset(cb.Value)
		return []codemap.Delta{{QueueCommands: []queue.Item{
			queue.NewItem("query_tuner_frequency", model.ALL, queue.QueueNormal),
		}}}
	}
	return []codemap.Delta{d}, nil
}

// presetReconcile flushes any tuner preset cached by PresetMap into a
// committed delta once the next frequency response confirms it,
// matching Preset.update_preset in the reference decoders.
func presetReconcile(ctx codemap.EncodeContext) []codemap.Delta {
	cached, ok := ctx.Store.TakeCachedPreset()
	if !ok {
		return nil
	}
	return []codemap.Delta{{BaseProperty: "tuner", PropertyName: "preset", Zone: model.ALL, Value: cached}}
}
