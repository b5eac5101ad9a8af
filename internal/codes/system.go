package codes

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/crowbarz/avrctl-go/internal/codemap"
	"github.com/crowbarz/avrctl-go/internal/model"
)

// SystemMacAddressMap decodes the raw hex system MAC address into
// colon-separated octets, grounded on aiopioneer's SystemMacAddress.
type SystemMacAddressMap struct {
	codemap.Meta
}

func NewSystemMacAddress() SystemMacAddressMap {
	return SystemMacAddressMap{Meta: codemap.Meta{Base: "amp", Prop: "mac_addr", Friendly: "system MAC address", Zones: []model.Zone{model.ALL}}}
}

func (m SystemMacAddressMap) Len() int   { return 12 }
func (m SystemMacAddressMap) NArgs() int { return 0 }

func (m SystemMacAddressMap) CodeToValue(_ codemap.EncodeContext, code string) (any, error) {
	var parts []string
	for i := 0; i+2 <= len(code); i += 2 {
		parts = append(parts, code[i:i+2])
	}
	return strings.Join(parts, ":"), nil
}

func (m SystemMacAddressMap) ValueToCode(_ codemap.EncodeContext, _ model.Zone, _ any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m SystemMacAddressMap) ParseArgs(_ codemap.EncodeContext, _ model.Zone, _ []any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m SystemMacAddressMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	v, err := m.CodeToValue(ctx, seed.Code)
	if err != nil {
		return nil, err
	}
	return []codemap.Delta{{BaseProperty: "amp", PropertyName: "mac_addr", Zone: seed.Zone, Value: v, Code: seed.Code}}, nil
}

var systemAvrModelRe = regexp.MustCompile(`<([^>/]{5,})(/.[^>]*)?>`)

// SystemAvrModelMap scrapes the AVR model name out of a free-form
// bracketed status string, grounded on aiopioneer's SystemAvrModel.
type SystemAvrModelMap struct {
	codemap.Meta
}

func NewSystemAvrModel() SystemAvrModelMap {
	return SystemAvrModelMap{Meta: codemap.Meta{Base: "amp", Prop: "model", Friendly: "system AVR model", Zones: []model.Zone{model.ALL}}}
}

func (m SystemAvrModelMap) Len() int   { return 0 }
func (m SystemAvrModelMap) NArgs() int { return 0 }

func (m SystemAvrModelMap) CodeToValue(_ codemap.EncodeContext, code string) (any, error) {
	if match := systemAvrModelRe.FindStringSubmatch(code); match != nil {
		return match[1], nil
	}
	return "unknown", nil
}

func (m SystemAvrModelMap) ValueToCode(_ codemap.EncodeContext, _ model.Zone, _ any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m SystemAvrModelMap) ParseArgs(_ codemap.EncodeContext, _ model.Zone, _ []any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m SystemAvrModelMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	v, _ := m.CodeToValue(ctx, seed.Code)
	return []codemap.Delta{{BaseProperty: "amp", PropertyName: "model", Zone: seed.Zone, Value: v, Code: seed.Code}}, nil
}

var systemSoftwareVersionRe = regexp.MustCompile(`"([^)]*)"`)

// SystemSoftwareVersionMap scrapes the firmware version string,
// grounded on aiopioneer's SystemSoftwareVersion.
type SystemSoftwareVersionMap struct {
	codemap.Meta
}

func NewSystemSoftwareVersion() SystemSoftwareVersionMap {
	return SystemSoftwareVersionMap{Meta: codemap.Meta{Base: "amp", Prop: "software_version", Friendly: "system software version", Zones: []model.Zone{model.ALL}}}
}

func (m SystemSoftwareVersionMap) Len() int   { return 0 }
func (m SystemSoftwareVersionMap) NArgs() int { return 0 }

func (m SystemSoftwareVersionMap) CodeToValue(_ codemap.EncodeContext, code string) (any, error) {
	if match := systemSoftwareVersionRe.FindStringSubmatch(code); match != nil {
		return match[1], nil
	}
	return "unknown", nil
}

func (m SystemSoftwareVersionMap) ValueToCode(_ codemap.EncodeContext, _ model.Zone, _ any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m SystemSoftwareVersionMap) ParseArgs(_ codemap.EncodeContext, _ model.Zone, _ []any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m SystemSoftwareVersionMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	v, _ := m.CodeToValue(ctx, seed.Code)
	return []codemap.Delta{{BaseProperty: "amp", PropertyName: "software_version", Zone: seed.Zone, Value: v, Code: seed.Code}}, nil
}

// DisplayTextMap decodes the front-panel display's hex-encoded
// character codes into a trimmed string, grounded on aiopioneer's
// DisplayText (value_to_code deliberately unimplemented there too).
type DisplayTextMap struct {
	codemap.Meta
}

func NewDisplayText() DisplayTextMap {
	return DisplayTextMap{Meta: codemap.Meta{Base: "amp", Prop: "display", Friendly: "display text", Zones: []model.Zone{model.ALL}}}
}

func (m DisplayTextMap) Len() int   { return 0 }
func (m DisplayTextMap) NArgs() int { return 0 }

func (m DisplayTextMap) CodeToValue(_ codemap.EncodeContext, code string) (any, error) {
	if len(code) < 3 {
		return "", nil
	}
	var sb strings.Builder
	for i := 2; i+2 <= len(code)-1; i += 2 {
		if b, err := strconv.ParseUint(code[i:i+2], 16, 8); err == nil {
			sb.WriteByte(byte(b))
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(sb.String(), "\t", " ")), nil
}

func (m DisplayTextMap) ValueToCode(_ codemap.EncodeContext, _ model.Zone, _ any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m DisplayTextMap) ParseArgs(_ codemap.EncodeContext, _ model.Zone, _ []any) (string, error) {
	return "", codemap.ErrNotAssignable
}

func (m DisplayTextMap) DecodeResponse(ctx codemap.EncodeContext, seed codemap.Delta) ([]codemap.Delta, error) {
	v, _ := m.CodeToValue(ctx, seed.Code)
	return []codemap.Delta{{BaseProperty: "amp", PropertyName: "display", Zone: seed.Zone, Value: v, Code: seed.Code}}, nil
}

// NewSpeakerMode returns the amp.speaker_mode fixed dict.
func NewSpeakerMode() codemap.FixedDictMap {
	return codemap.FixedDictMap{
		Meta:    codemap.Meta{Base: "amp", Prop: "speaker_mode", Friendly: "speaker mode", Zones: []model.Zone{model.ALL}},
		Codes:   map[string]any{"0": "off", "1": "A", "2": "B", "3": "A+B"},
		CodeLen: 1,
	}
}

// NewHdmiOut returns the amp.hdmi_out fixed dict.
func NewHdmiOut() codemap.FixedDictMap {
	return codemap.FixedDictMap{
		Meta:    codemap.Meta{Base: "amp", Prop: "hdmi_out", Friendly: "HDMI out", Zones: []model.Zone{model.ALL}},
		Codes:   map[string]any{"0": "all", "1": "HDMI 1", "2": "HDMI 2"},
		CodeLen: 1,
	}
}

// NewHdmiAudio returns the amp.hdmi_audio fixed dict.
func NewHdmiAudio() codemap.FixedDictMap {
	return codemap.FixedDictMap{
		Meta:    codemap.Meta{Base: "amp", Prop: "hdmi_audio", Friendly: "HDMI audio", Zones: []model.Zone{model.ALL}},
		Codes:   map[string]any{"0": "amp", "1": "passthrough"},
		CodeLen: 1,
	}
}

// NewPqls returns the amp.pqls fixed dict.
func NewPqls() codemap.FixedDictMap {
	return codemap.FixedDictMap{
		Meta:    codemap.Meta{Base: "amp", Prop: "pqls", Friendly: "PQLS", Zones: []model.Zone{model.ALL}},
		Codes:   map[string]any{"0": "off", "1": "auto"},
		CodeLen: 1,
	}
}

// NewDimmer returns the amp.dimmer fixed dict.
func NewDimmer() codemap.FixedDictMap {
	return codemap.FixedDictMap{
		Meta: codemap.Meta{Base: "amp", Prop: "dimmer", Friendly: "dimmer", Zones: []model.Zone{model.ALL}},
		Codes: map[string]any{
			"0": "brightest", "1": "bright", "2": "dark", "3": "off",
		},
		CodeLen: 1,
	}
}

// NewSleepTime returns the amp.sleep_time integer map (minutes
// remaining, in steps of 30 up to 90).
func NewSleepTime() codemap.NumberMap {
	return codemap.NewInt(codemap.Meta{Base: "amp", Prop: "sleep_time", Friendly: "sleep time", Zones: []model.Zone{model.ALL}},
		3, 0, 90, codemap.WithStep(30))
}

// NewAmpMode returns the amp.mode fixed dict.
func NewAmpMode() codemap.FixedDictMap {
	return codemap.FixedDictMap{
		Meta: codemap.Meta{Base: "amp", Prop: "mode", Friendly: "AMP status", Zones: []model.Zone{model.ALL}},
		Codes: map[string]any{
			"0": "amp on", "1": "amp front off", "2": "amp front & center off", "3": "amp off",
		},
		CodeLen: 1,
	}
}

// NewPanelLock returns the amp.panel_lock fixed dict.
func NewPanelLock() codemap.FixedDictMap {
	return codemap.FixedDictMap{
		Meta:    codemap.Meta{Base: "amp", Prop: "panel_lock", Friendly: "panel lock", Zones: []model.Zone{model.ALL}},
		Codes:   map[string]any{"0": "off", "1": "panel only", "2": "panel + volume"},
		CodeLen: 1,
	}
}

// NewRemoteLock returns the amp.remote_lock boolean map.
func NewRemoteLock() codemap.BoolMap {
	return codemap.NewBool(codemap.Meta{Base: "amp", Prop: "remote_lock", Friendly: "remote lock", Zones: []model.Zone{model.ALL}})
}

// videoResolutions is the lookup table backing the video.resolution
// dynamic dict. It is a static table; parameters are not consulted.
var videoResolutions = map[string]string{
	"0": "auto", "1": "pure", "3": "480/576p", "4": "720p",
	"5": "1080i", "6": "1080p", "7": "1080p24", "8": "4K", "9": "4Kx2K(60/50)",
}

// NewVideoResolution returns the video.resolution dynamic dict, whose
// Lookup ignores its context and always returns videoResolutions.
func NewVideoResolution() codemap.DynamicDictMap {
	return codemap.DynamicDictMap{
		Meta:    codemap.Meta{Base: "video", Prop: "resolution", Friendly: "video resolution", Zones: []model.Zone{model.ALL}},
		CodeLen: 1,
		Lookup: func(_ codemap.EncodeContext) map[string]string {
			return videoResolutions
		},
	}
}
