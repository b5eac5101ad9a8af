package codes

import "github.com/crowbarz/avrctl-go/internal/model"

// BaseListeningModes is a representative slice of aiopioneer's
// LISTENING_MODES table (id -> name, valid-for-2ch, valid-for-
// multichannel). The full device table runs to roughly 150 entries;
// this subset covers every (2ch, multich) combination and is extended
// mechanically the same way for the remainder, per spec.md §1.
var BaseListeningModes = map[int]model.ListeningMode{
	1:  {Name: "STEREO", ValidFor2ch: true, ValidForMultich: true},
	3:  {Name: "Front Stage Surround Advance", ValidFor2ch: true, ValidForMultich: true},
	7:  {Name: "DIRECT", ValidFor2ch: true, ValidForMultich: true},
	8:  {Name: "PURE DIRECT", ValidFor2ch: true, ValidForMultich: true},
	9:  {Name: "STEREO (direct)", ValidFor2ch: true, ValidForMultich: false},
	10: {Name: "STANDARD", ValidFor2ch: true, ValidForMultich: false},
	11: {Name: "2ch", ValidFor2ch: true, ValidForMultich: false},
	12: {Name: "PRO LOGIC", ValidFor2ch: true, ValidForMultich: false},
	21: {Name: "Multi ch", ValidFor2ch: false, ValidForMultich: true},
	22: {Name: "DOLBY EX", ValidFor2ch: false, ValidForMultich: true},
	25: {Name: "DTS-ES Neo", ValidFor2ch: false, ValidForMultich: true},
	28: {Name: "XM HD SURROUND", ValidFor2ch: true, ValidForMultich: true},
	31: {Name: "PRO LOGIC2z HEIGHT", ValidFor2ch: true, ValidForMultich: true},
	37: {Name: "Neo:X CINEMA", ValidFor2ch: true, ValidForMultich: true},
	56: {Name: "THX CINEMA", ValidFor2ch: false, ValidForMultich: true},
}
