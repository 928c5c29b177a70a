/*
DESCRIPTION
  ltr.go implements the adaptive long-term-reference module (ALTR) of
  spec.md §4.5: scene-transition ring tracking, LTR promotion, the
  use-as-reference policy gate, and the LTR QP delta.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ltr implements ALTR: promoting frames to long-term reference,
// gating whether a P frame may use the current LTR, and the associated QP
// deltas (spec.md §4.5).
package ltr

import (
	"github.com/ausocean/aenc/frame"
	"github.com/ausocean/aenc/scd"
)

// Tracker carries the running ALTR state across consecutive frames: the
// motion running-mean used for the QP gate, the scene-transition ring, and
// whether LTR use is currently enabled.
type Tracker struct {
	Enabled bool

	transition scd.TransitionDetector

	avgMV0    int32
	ltrPoc    uint32
	isLtrOn   bool
	transRing [8]uint8
}

// New returns a Tracker. transition may be nil if ALTR is disabled and
// ComputeStat is never called: ComputeStat dereferences it for every frame
// that is not I, IDR or LTR without consulting Enabled, and MakeDecision
// dereferences it when Enabled and promoting a frame.
func New(enabled bool, transition scd.TransitionDetector) *Tracker {
	return &Tracker{Enabled: enabled, transition: transition}
}

// ComputeStat updates the motion running-mean and the scene-transition ring
// for f, and sets f.SceneTransition. It is a no-op for I/IDR/LTR frames
// (spec.md §4.5: the transition detector only tracks regular reference
// candidates). Call once per frame, before MakeDecision.
func (t *Tracker) ComputeStat(f *frame.Descriptor) error {
	if f.Type == frame.I || f.Type == frame.Idr || f.LTR {
		return nil
	}

	mv := f.MV
	if mv > 4000 {
		mv = 4000
	}
	if t.avgMV0 > 8 {
		t.avgMV0 += (mv - t.avgMV0) / 4
	}

	var transition bool
	if !f.LTR {
		hint, err := t.transition.Observe(f.ScdImage, f.ScdStat)
		if err != nil {
			return err
		}
		if f.POC <= 16 {
			hint = false
		}
		t.transRing[f.POC%8] = boolToUint8(hint)
		transition = ringFull(t.transRing)
	}

	f.SceneTransition = transition
	if f.SceneTransition {
		t.isLtrOn = false
		f.UseLTRAsReference = false
	}
	return nil
}

// MakeDecision implements MakeAltrDecision: decides whether f is promoted to
// LTR, and otherwise whether f may use the current LTR as a reference.
func (t *Tracker) MakeDecision(f *frame.Descriptor) error {
	if !t.Enabled {
		return nil
	}

	if f.POC == 0 {
		return t.promote(f)
	}
	if f.Type == frame.Idr && (t.isLtrOn || f.LTROnHint) {
		return t.promote(f)
	}
	if f.SceneChanged {
		return t.promote(f)
	}

	// Temporary: LTR frame will not be referenced, but stays in the DPB.
	if f.MV > 2300 || f.TSC > 1024 || (f.MV > 1024 && f.HighMVCount > 6) {
		f.UseLTRAsReference = false
	} else {
		f.UseLTRAsReference = true
	}
	return nil
}

// promote marks f as the new long-term reference, resets the motion
// running-mean and scene-transition ring, and installs f as the transition
// detector's new reference frame.
func (t *Tracker) promote(f *frame.Descriptor) error {
	f.LTR = true
	f.UseLTRAsReference = true

	t.avgMV0 = 0
	t.ltrPoc = f.POC
	t.isLtrOn = true

	if err := t.transition.SetReference(f.ScdImage, f.ScdStat); err != nil {
		return err
	}

	f.SceneTransition = false
	t.transRing = [8]uint8{}
	return nil
}

// AdjustQP implements AdjustQpLtr: the QP delta a promoted LTR frame
// receives, and (when APQ is not also enabled) the plain pyramid-layer
// default delta for other frames.
func (t *Tracker) AdjustQP(f *frame.Descriptor, apqEnabled bool) {
	if f.LTR {
		if f.POC == 0 {
			f.DeltaQP = -4
			return
		}
		if t.avgMV0 > 1500 || (f.POC-t.ltrPoc) < 32 {
			f.DeltaQP = -2
		} else {
			f.DeltaQP = -4
		}
		return
	}

	if !apqEnabled && (f.MiniGopType == 4 || f.MiniGopType == 8) && f.PyramidLayer != 0 {
		f.DeltaQP = f.PyramidLayer
	}
}

// LTROn reports whether ALTR currently considers its LTR slot active. AREF
// consults this to decide whether it may take over key-P promotion
// (spec.md §4.6: "ALTR wins when active").
func (t *Tracker) LTROn() bool {
	return t.isLtrOn
}

func ringFull(r [8]uint8) bool {
	for _, v := range r {
		if v == 0 {
			return false
		}
	}
	return true
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
