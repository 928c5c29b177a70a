/*
DESCRIPTION
  aref.go implements the adaptive reference / key-P promotion module (AREF)
  of spec.md §4.6: the low-activity ring, key-P promotion by distance, DPB
  and ref-list wiring, and the AREF QP delta.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package aref implements AREF: promoting P frames to key reference frames
// at a fixed interval when ALTR is not actively driving a long-term
// reference, low-activity tracking, and the associated QP deltas.
package aref

import "github.com/ausocean/aenc/frame"

// keyFrameInterval is the fixed POC distance between consecutive AREF key-P
// promotions (spec.md §4.6). The original implementation notes this used to
// track MaxIdrDist and was fixed at 32.
const keyFrameInterval = 32

// Tracker carries the running AREF state: the low-activity ring and the POC
// of the last key-P (or scene-change/IDR) frame.
type Tracker struct {
	Enabled bool

	prevActs        [8]uint8
	hasLowActivity  bool
	lastKeyFramePOC uint32
}

// New returns a Tracker.
func New(enabled bool) *Tracker {
	return &Tracker{Enabled: enabled}
}

// ComputeStat implements ComputeStatAref: updates the low-activity ring from
// f's motion, or resets it on I/IDR frames.
func (t *Tracker) ComputeStat(f *frame.Descriptor) {
	if f.Type != frame.I && f.Type != frame.Idr {
		t.prevActs[f.MiniGopIdx%8] = boolToUint8(f.MV > 1000)
		cnt := 0
		for _, v := range t.prevActs {
			if v != 0 {
				cnt++
			}
		}
		t.hasLowActivity = cnt < 3
		return
	}
	t.hasLowActivity = false
	t.prevActs = [8]uint8{}
}

// MakeDecision implements MakeArefDecision: promotes f to a key reference
// frame, either because a scene change/IDR forces it (when ALTR is not also
// running), or because f.POC has reached the next key-P interval and no
// ALTR LTR is currently active.
func (t *Tracker) MakeDecision(f *frame.Descriptor, altrEnabled, ltrOn bool) {
	if f.SceneChanged || f.Type == frame.Idr {
		t.lastKeyFramePOC = f.POC
	}

	if !altrEnabled && (f.SceneChanged || f.Type == frame.Idr) {
		f.LTR = true
	}

	if f.Type == frame.P {
		f.LTR = false
		if !ltrOn || !altrEnabled {
			next := t.lastKeyFramePOC + keyFrameInterval
			if f.POC >= next {
				f.LTR = true
				t.lastKeyFramePOC = f.POC
			}
		}
	}
}

// AdjustQP implements AdjustQpAref: the QP delta for a key-P frame, and (for
// B frames, when APQ is not also enabled) the plain pyramid-layer default.
func (t *Tracker) AdjustQP(f *frame.Descriptor, apqEnabled bool) {
	switch f.Type {
	case frame.P:
		if f.LTR {
			if f.SC > 4 && t.hasLowActivity {
				f.DeltaQP = -4
			} else {
				f.DeltaQP = -2
			}
		} else {
			f.DeltaQP = 0
		}
	case frame.B:
		if !apqEnabled && (f.MiniGopType == 4 || f.MiniGopType == 8) && f.PyramidLayer != 0 {
			f.DeltaQP = f.PyramidLayer
		}
	}
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
