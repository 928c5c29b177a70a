/*
DESCRIPTION
  apq.go implements the adaptive perceptual QP module (APQ) of spec.md §4.7:
  the SC/TSC/MVQ class lookup, contrast and noise-memory refinement, the
  per-mini-GOP-length QP delta cascades, the AGOP QP deltas, and the
  bit-count-driven "noisy" rate-control feedback loop.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package apq implements APQ: per-frame perceptual QP classification and the
// QP deltas derived from it, plus the encoded-size feedback loop that
// detects an over-noisy P frame and folds that back into the next frame's
// class (spec.md §4.7).
package apq

import (
	"math"

	"github.com/ausocean/aenc/frame"
)

// lookup is APQ_Lookup[SC][TSC][MVQ]: the base perceptual-QP class for a
// given spatial complexity / temporal complexity / motion-vector-size bin.
var lookup = [10][10][3]int{
	{{0, 3, 0}, {0, 3, 0}, {0, 3, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
	{{0, 3, 0}, {0, 3, 0}, {0, 3, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
	{{0, 3, 0}, {0, 3, 0}, {0, 3, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
	{{0, 3, 0}, {0, 3, 0}, {0, 3, 0}, {2, 0, 0}, {1, 2, 0}, {2, 0, 0}, {2, 0, 0}, {2, 0, 0}, {2, 0, 0}, {2, 0, 0}},
	{{0, 3, 0}, {0, 3, 0}, {0, 3, 0}, {2, 0, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {2, 0, 0}, {2, 0, 0}, {2, 0, 0}},
	{{1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}},
	{{1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 1, 2}},
	{{1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 1, 2}},
	{{1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 1, 2}},
	{{1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 2, 0}, {1, 1, 2}},
}

// rateModel[SC][TSC] holds the {mul, exp, gate} bit-rate model coefficients
// used by the encoded-size feedback loop. gate == 0 disables the feedback
// loop for that SC/TSC cell outright.
var rateModel = [10][10][3]float64{
	{},
	{},
	{{}, {0.2167, 0.4914, 1}},
	{{0.0830, 0.6201, 1}, {0.0916, 0.7462, 1}, {0.3533, 0.5491, 1}},
	{{0.1455, 0.4302, 1}, {0.0580, 0.7937, 1}, {0.4327, 0.4359, 1}, {0.2197, 0.7141, 1}},
	{{}, {0.1136, 0.7446, 1}, {0.1770, 0.6730, 1}, {0.0139, 1.4547, 0}},
	{{0.0617, 0.8463, 0}, {0.0454, 0.9545, 0}, {0.4038, 0.4899, 1}, {0.2234, 0.7087, 1}},
}

// quantizeMVSize bins a raw MVSize magnitude into the 3-way MVQ used to
// index lookup and rateModel.
func quantizeMVSize(mvSize int32) int {
	switch {
	case mvSize < 640:
		return 0
	case mvSize < 2048:
		return 1
	default:
		return 2
	}
}

// Tracker carries the running APQ state: the noisy/QP memory from the most
// recently encoded P frame, used to bias the next frame's class.
type Tracker struct {
	Enabled bool

	lastPFrameNoisy bool
	lastPFrameQP    uint32
}

// New returns a Tracker.
func New(enabled bool) *Tracker {
	return &Tracker{Enabled: enabled}
}

// ComputeStat implements ComputeStatApq: classifies f into ClassAPQ and
// ClassSCTSC, refining the lookup-table class using contrast and the
// previous P frame's noise memory.
func (t *Tracker) ComputeStat(f *frame.Descriptor) {
	sc, tsc := clampIdx(f.SC), clampIdx(f.TSC)
	mvq := quantizeMVSize(f.MVSize)

	class := lookup[sc][tsc][mvq]
	f.ClassSCTSC = uint16(sc<<6) + uint16(tsc<<2) + uint16(mvq)

	if f.Contrast > 89 && f.SC > 0 && f.SC < 5 {
		switch class {
		case 3:
			class = 0
		case 0:
			if mvq != 0 {
				class = 2
			} else {
				class = 1
			}
		case 2:
			class = 1
		}
	}

	if f.SceneChanged {
		t.lastPFrameNoisy = false
		t.lastPFrameQP = 0
	}

	if t.lastPFrameNoisy {
		switch class {
		case 1:
			class = 2
		case 2:
			class = 0
		case 0:
			class = 3
		}
	}

	f.ClassAPQ = class
}

// AdjustQP implements AdjustQpApq: the perceptual QP delta cascade for B
// frames, split by mini-GOP length. I/IDR/P frames are left untouched — spec
// §4.7 assigns their delta to ALTR/AREF instead.
func (t *Tracker) AdjustQP(f *frame.Descriptor) {
	if f.Type == frame.I || f.Type == frame.Idr || f.Type == frame.P {
		return
	}

	switch f.MiniGopType {
	case 8:
		f.DeltaQP = apq8Delta(f.PyramidLayer, f.ClassAPQ)
	case 4:
		f.DeltaQP = 1 + f.PyramidLayer
	default: // 2
		f.DeltaQP = 3
	}
}

// apq8Delta translates AdjustQpApq's switch-fallthrough cascade for an
// 8-frame mini-GOP into explicit per-level increments.
func apq8Delta(pyramidLayer, classAPQ int) int {
	level := clampRange(pyramidLayer, 1, 3)
	cls := clampRange(classAPQ, 0, 3)

	delta := 1
	switch cls {
	case 1:
		switch level {
		case 3:
			delta += 2 + 1 + 2
		case 2:
			delta += 1 + 2
		default:
			delta += 2
		}
	case 2:
		switch level {
		case 3:
			delta += 2 + 1 + 1
		case 2:
			delta += 1 + 1
		default:
			delta += 1
		}
	case 3:
		switch level {
		case 3:
			delta += 1 + 1 - 1
		case 2:
			delta += 1 - 1
		default:
			delta += -1
		}
	default:
		switch level {
		case 3:
			delta += 2 + 1 + 0
		case 2:
			delta += 1 + 0
		default:
			delta += 0
		}
	}
	return delta
}

// AdjustQPAgop implements AdjustQpAgop: the QP delta applied when AGOP is
// enabled, independent of APQ's class-driven delta.
func AdjustQPAgop(f *frame.Descriptor) {
	gopSize := f.MiniGopType
	if f.Type == frame.I || f.Type == frame.Idr || (f.Type == frame.P && gopSize > 4) {
		return
	}

	if f.PyramidLayer != 0 {
		switch gopSize {
		case 8, 4:
			f.DeltaQP = f.PyramidLayer + 1
		case 2:
			f.DeltaQP = 4
		}
		return
	}

	if gopSize > 1 {
		f.DeltaQP = 1
		return
	}
	f.DeltaQP = f.PPyramidLayer
}

// UpdatePFrameBits implements AEnc::UpdatePFrameBits: folds the encoded size
// of the most recent P frame back into the noise memory used by the next
// frame's ComputeStat. gopPicSize below 8 or APQ disabled makes this a
// no-op, matching the original.
func (t *Tracker) UpdatePFrameBits(width, height uint32, size, qp uint32, classSCTSC uint16, gopPicSize int) {
	if !t.Enabled || gopPicSize < 8 {
		return
	}

	sc := int((classSCTSC >> 6) & 0xf)
	tsc := int((classSCTSC >> 2) & 0xf)
	mvq := int(classSCTSC & 0x3)

	mul := rateModel[sc][tsc][0]
	exp := rateModel[sc][tsc][1]
	gate := rateModel[sc][tsc][2]

	lastQP := t.lastPFrameQP
	if gate == 0 || mvq > 1 || lastQP == 0 || lastQP > qp+1 {
		t.lastPFrameNoisy = false
		t.lastPFrameQP = qp
		return
	}

	desired := float64(width*height*12) / (math.Pow(math.Pow(2.0, (float64(qp)-12.0)/6.0)/mul, 1.0/exp))
	ratio := float64(size) / desired

	t.lastPFrameNoisy = ratio > 1.15
	t.lastPFrameQP = qp
}

func clampIdx(v int32) int {
	return clampRange(int(v), 0, 9)
}

func clampRange(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
