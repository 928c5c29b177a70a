/*
DESCRIPTION
  frame.go defines the internal frame descriptor carried through the AEnc
  pipeline (spec.md §3) and its external (host-facing) view.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"github.com/ausocean/aenc/scd"
	"github.com/pkg/errors"
)

// Fixed small-array capacities for the external frame's RefList and
// RemoveFromDPB. Exceeding either is a hard CapacityExceeded error (spec
// §6/§7); a mini-GOP of at most 8 plus one LTR slot never approaches these in
// practice, but the cap is enforced regardless.
const (
	MaxRefList       = 2
	MaxRemoveFromDPB = 8
)

// ErrCapacityExceeded is wrapped with context and returned by ToOutput when
// RefList or RemoveFromDPB overflow their fixed capacity.
var ErrCapacityExceeded = errors.New("frame: capacity exceeded")

// Descriptor is the internal, by-value frame descriptor threaded through
// intake, mini-GOP assembly, and per-frame classification. Queues in this
// pipeline own Descriptors by value; SCD-owned buffers are held only as
// opaque handles (spec.md §9, "pointer-based frame sharing -> value+index").
type Descriptor struct {
	POC  uint32
	Type Type

	SceneChanged bool
	Repeated     bool
	LTROnHint    bool

	TemporalComplexity int32
	MV                 int32
	HighMVCount        int32
	MVSize             int32
	SC                 int32
	TSC                int32
	Contrast           int32
	Corr               int32

	// SuggestedMiniGop is the detector's (possibly overridden) recommendation.
	SuggestedMiniGop int

	// MiniGopSize/MiniGopIdx/MiniGopType/PyramidLayer are filled in by mini-GOP
	// assembly and pyramid layout.
	MiniGopSize  int
	MiniGopIdx   int
	MiniGopType  int
	PyramidLayer int

	// PPyramidLayer/PPyramidIdx are the non-B P-pyramid equivalents, threaded
	// frame to frame via PrevType bookkeeping.
	PPyramidLayer int
	PPyramidIdx   int

	// PrevType is the type of the previously classified frame, used for the
	// P->B transition QP smoothing rule.
	PrevType Type

	DeltaQP     int
	ClassAPQ    int
	ClassSCTSC  uint16

	// LTR is true if this frame is itself promoted to long-term reference.
	LTR bool

	// UseLTRAsReference is true if this frame may reference the current LTR.
	UseLTRAsReference bool

	// SceneTransition records whether ALTR's scene-transition ring declared a
	// transition on this frame (spec.md §9's "will be overwritten" caveat:
	// this flag's only observable effect is on the frame that set it).
	SceneTransition bool

	// KeepInDPB is true if this frame must survive beyond its natural
	// lifetime (i.e. it was added to the DPB as LTR or key-P).
	KeepInDPB bool

	RefList       []uint32
	RemoveFromDPB []uint32

	PMap scd.PersistenceMap

	ScdImage scd.ImageHandle
	ScdStat  scd.StatHandle
}

// Output is the external view of a Descriptor returned by process_frame,
// matching spec.md §6's output frame descriptor exactly.
type Output struct {
	POC                uint32
	Type               Type
	SceneChanged       bool
	Repeated           bool
	LTR                bool
	TemporalComplexity int32
	MiniGopSize        int
	PyramidLayer       int
	DeltaQP            int
	ClassAPQ           int
	ClassCmplx         uint16
	KeepInDPB          bool
	RemoveFromDPB      []uint32
	RefList            []uint32
	PMap               scd.PersistenceMap
}

// ToOutput projects a Descriptor to its external Output view, enforcing the
// fixed RefList/RemoveFromDPB capacities (spec §6/§7, CapacityExceeded).
func (f *Descriptor) ToOutput() (Output, error) {
	if len(f.RefList) > MaxRefList {
		return Output{}, errors.Wrapf(ErrCapacityExceeded, "ref list has %d entries (max %d) at poc %d", len(f.RefList), MaxRefList, f.POC)
	}
	if len(f.RemoveFromDPB) > MaxRemoveFromDPB {
		return Output{}, errors.Wrapf(ErrCapacityExceeded, "remove-from-dpb has %d entries (max %d) at poc %d", len(f.RemoveFromDPB), MaxRemoveFromDPB, f.POC)
	}
	return Output{
		POC:                f.POC,
		Type:               f.Type,
		SceneChanged:       f.SceneChanged,
		Repeated:           f.Repeated,
		LTR:                f.LTR,
		TemporalComplexity: f.TemporalComplexity,
		MiniGopSize:        f.MiniGopSize,
		PyramidLayer:       f.PyramidLayer,
		DeltaQP:            f.DeltaQP,
		ClassAPQ:           f.ClassAPQ,
		ClassCmplx:         f.ClassSCTSC,
		KeepInDPB:          f.KeepInDPB,
		RemoveFromDPB:      f.RemoveFromDPB,
		RefList:            f.RefList,
		PMap:               f.PMap,
	}, nil
}
