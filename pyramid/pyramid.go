/*
DESCRIPTION
  pyramid.go implements the hierarchical-B pyramid layout of spec.md §4.4:
  per-mini-GOP layer assignment, and the cyclic P-pyramid table used when a
  mini-GOP has no B frames.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pyramid assigns the hierarchical-B layer index to each frame
// within an assembled mini-GOP, and maintains the P-pyramid cyclic table for
// mini-GOPs with no B frames.
package pyramid

import (
	"github.com/ausocean/aenc/frame"
	"github.com/pkg/errors"
)

// layerTables[tblIdx][miniGopIdx] gives the hierarchical layer for a frame at
// miniGopIdx within a mini-GOP whose canonical type maps to tblIdx via
// gopTableIdx. The final slot in each row (index miniGopSize-1, the anchor)
// is always forced to 0 regardless of the table value there.
var layerTables = [4][8]int{
	{0},
	{1, 0},
	{2, 1, 2, 0},
	{3, 2, 3, 1, 3, 2, 3, 0},
}

// miniGopTypeTable maps a table index (0-3) to its canonical mini-GOP type.
var miniGopTypeTable = [4]int{1, 2, 4, 8}

// gopTableIdx maps an assembled mini-GOP size (1-8) to the layerTables row
// that should be used to lay it out; a mini-GOP of e.g. size 3 (an I frame
// closed it early) is laid out using the size-4 template, truncated.
var gopTableIdx = [9]int{0 /*n/a*/, 0 /*1*/, 1 /*2*/, 2, 2 /*3-4*/, 3, 3, 3, 3 /*5-8*/}

// pPyr is the cyclic table used to assign a pseudo-pyramid layer to P frames
// when no B frames are present. The advance guard is idx>6 -> wrap to 0,
// else idx+1: after an I/IDR reset the index runs 1..7 and then wraps to 0,
// so every slot is used, slot 0 only after the first wrap.
var pPyr = [8]int{5, 4, 3, 2, 4, 3, 2, 1}

// ErrBadMiniGopSize and ErrBadMiniGopIdx are returned by Assigner.Layout for
// out-of-range mini-GOP geometry.
var (
	ErrBadMiniGopSize = errors.New("pyramid: mini-GOP size out of range")
	ErrBadMiniGopIdx  = errors.New("pyramid: mini-GOP index out of range")
)

// Assigner carries the running state needed to thread PrevType and the
// P-pyramid cycle across consecutive classified frames.
type Assigner struct {
	prevType      frame.Type
	pPyramidLayer int
	pPyramidIdx   int
}

// New returns an Assigner with fresh P-pyramid state.
func New() *Assigner {
	return &Assigner{}
}

// Layout assigns f.MiniGopSize, MiniGopIdx, MiniGopType, PyramidLayer,
// PrevType, PPyramidLayer and PPyramidIdx, and (if f.Type is still Undef)
// settles it to P or B. Call once per frame, in mini-GOP buffer order, for
// every frame of an assembled mini-GOP.
func (a *Assigner) Layout(f *frame.Descriptor, miniGopSize, miniGopIdx int) error {
	if miniGopSize < 1 || miniGopSize > 8 {
		return errors.Wrapf(ErrBadMiniGopSize, "got %d", miniGopSize)
	}
	if miniGopIdx < 0 || miniGopIdx >= miniGopSize {
		return errors.Wrapf(ErrBadMiniGopIdx, "got %d for mini-GOP size %d", miniGopIdx, miniGopSize)
	}

	f.PrevType = a.prevType

	tblIdx := gopTableIdx[miniGopSize]
	f.MiniGopSize = miniGopSize
	f.MiniGopIdx = miniGopIdx
	f.MiniGopType = miniGopTypeTable[tblIdx]

	if miniGopIdx == miniGopSize-1 {
		f.PyramidLayer = 0
	} else {
		f.PyramidLayer = layerTables[tblIdx][miniGopIdx]
	}

	if f.Type == frame.Undef {
		if f.PyramidLayer == 0 {
			f.Type = frame.P
		} else {
			f.Type = frame.B
		}
	}

	switch {
	case f.Type == frame.I || f.Type == frame.Idr:
		a.pPyramidLayer = 0
		a.pPyramidIdx = 0
	case a.prevType != frame.B && f.Type == frame.P:
		if a.pPyramidIdx > 6 {
			a.pPyramidIdx = 0
		} else {
			a.pPyramidIdx++
		}
		a.pPyramidLayer = pPyr[a.pPyramidIdx]
	}
	f.PPyramidLayer = a.pPyramidLayer
	f.PPyramidIdx = a.pPyramidIdx

	a.prevType = f.Type
	return nil
}
