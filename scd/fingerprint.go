/*
DESCRIPTION
  fingerprint.go implements the "stat view & fingerprint" component of
  spec.md §2: quantizing SC/TSC/MV into class bins, and the one documented
  SCD-suggestion override (HEVC, MaxMiniGopSize=2).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package scd

// MVTh is the fixed 10-entry threshold table indexed by the quantized
// spatial-complexity bin (qsc); used by OverrideMiniGop to pick mini-GOP 2
// vs. 1. See spec.md §4.1.
var MVTh = [10]int32{2, 4, 4, 4, 4, 4, 4, 4, 4, 6}

// QuantizeSC re-quantizes a raw spatial-complexity value into bin qsc,
// piecewise-linear with a knee at 2048, clamped to [0,9].
func QuantizeSC(sc int32) int32 {
	var qsc int32
	if sc < 2048 {
		qsc = sc >> 9
	} else {
		qsc = 4 + ((sc - 2048) >> 10)
	}
	return clamp32(qsc, 0, 9)
}

// QuantizeMVSize re-quantizes a raw MV-size value into bin qmv, piecewise
// with knees at 256/512/1024, clamped to [0,9].
func QuantizeMVSize(mv int32) int32 {
	var qmv int32
	if mv < 1024 {
		switch {
		case mv < 256:
			qmv = 0
		case mv < 512:
			qmv = 1
		default:
			qmv = 2
		}
	} else {
		qmv = 3 + ((mv - 1024) >> 10)
	}
	return clamp32(qmv, 0, 9)
}

// OverrideMiniGop implements the HEVC/MaxMiniGopSize=2 suggested-mini-GOP
// override documented in spec.md §4.1: it is a deliberate design choice, not
// a generic rule, and only applies for that exact (codec, maxMiniGop) pair.
// Callers should use the detector's own SuggestedMiniGop otherwise.
func OverrideMiniGop(codec Codec, maxMiniGop int, sc, mvSize int32) int {
	if codec != HEVC || maxMiniGop != 2 {
		return 0 // no override; caller keeps the detector's suggestion.
	}
	qsc := QuantizeSC(sc)
	qmv := QuantizeMVSize(mvSize)
	if qmv < MVTh[qsc] {
		return 2
	}
	return 1
}

// MVQ classifies MVSize into the 3-bin motion-vector quantization class used
// by APQ's lookup table: 0 if MVSize<640, 1 if <2048, else 2.
func MVQ(mvSize int32) int {
	switch {
	case mvSize < 640:
		return 0
	case mvSize < 2048:
		return 1
	default:
		return 2
	}
}

// PackClass packs (sc, tsc, mvq) into the 16-bit rate-control feedback
// fingerprint: (sc<<6)|(tsc<<2)|mvq.
func PackClass(sc, tsc int32, mvq int) uint16 {
	return uint16(sc&0xf)<<6 | uint16(tsc&0xf)<<2 | uint16(mvq&0x3)
}

// UnpackClass reverses PackClass.
func UnpackClass(c uint16) (sc, tsc int32, mvq int) {
	sc = int32((c >> 6) & 0xf)
	tsc = int32((c >> 2) & 0xf)
	mvq = int(c & 0x3)
	return
}

func clamp32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
