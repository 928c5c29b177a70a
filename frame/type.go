/*
DESCRIPTION
  type.go defines the coded-frame type lifecycle used throughout the AEnc
  decision pipeline.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frame provides the coded-frame descriptor, its type lifecycle, and
// the external (host-facing) view of a frame emitted by the AEnc controller.
package frame

// Type describes a coded frame's role. A frame starts life as Undef and is
// assigned exactly once; re-entering Undef after assignment is a bug in the
// caller.
type Type uint8

const (
	// Undef marks a frame that has not yet been classified.
	Undef Type = iota

	// Idr is an instantaneous decoder refresh frame: an I frame that also
	// invalidates all prior references.
	Idr

	// I is an intra frame that does not invalidate prior references (CRA
	// semantics under HEVC).
	I

	// P is a forward-predicted frame.
	P

	// B is a bi-predicted frame; only occurs within mini-GOPs of size >= 2.
	B

	// Dummy is a sentinel pushed during end-of-stream drain; it never
	// reaches the output.
	Dummy
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case Undef:
		return "Undef"
	case Idr:
		return "IDR"
	case I:
		return "I"
	case P:
		return "P"
	case B:
		return "B"
	case Dummy:
		return "Dummy"
	default:
		return "Unknown"
	}
}

// IsIntra reports whether t is one of the intra types (I or IDR). Per
// invariant 5, intra frames carry an empty reference list.
func (t Type) IsIntra() bool { return t == I || t == Idr }
