/*
DESCRIPTION
  decider.go implements the I/IDR decision rules of spec.md §4.2. It must run
  strictly before mini-GOP assembly for each incoming frame.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package gop implements the I/IDR placement rules (spec.md §4.2): GOP and
// IDR-interval enforcement, strict-I mode, and scene-change handling.
package gop

import (
	"github.com/ausocean/aenc/frame"
	"github.com/ausocean/aenc/scd"
)

// Params configures a Decider. Callers are expected to have already run
// these through the constraint checks in the config package; Decider itself
// does not re-validate them.
type Params struct {
	Codec        scd.Codec
	StrictIFrame bool
	MinGopSize   uint32
	MaxGopSize   uint32
	MaxIdrDist   uint32
	GopPicSize   uint32
}

// Decider tracks the running state needed to place I/IDR frames: the POC of
// the last I (or IDR) frame and the last IDR frame.
type Decider struct {
	params Params

	pocOfLastI   uint32
	pocOfLastIdr uint32
}

// New returns a Decider configured with p.
func New(p Params) *Decider {
	return &Decider{params: p}
}

// Decide applies the rules of spec.md §4.2, in order, mutating f.Type when a
// rule fires. Frames left Undef here are destined to become P or B once
// mini-GOP assembly and pyramid layout run.
func (d *Decider) Decide(f *frame.Descriptor) {
	// Rule 1: first frame in sequence.
	if f.POC == 0 {
		d.markIDR(f)
		return
	}

	// Rule 2: strict-I mode.
	if d.params.StrictIFrame {
		if d.params.GopPicSize != 0 && f.POC%d.params.GopPicSize == 0 {
			if d.params.MaxIdrDist != 0 && f.POC%d.params.MaxIdrDist == 0 {
				d.markIDR(f)
			} else {
				d.markI(f)
			}
		}
		return
	}

	// Rule 3: protected minimum GOP size.
	currentGopSize := f.POC - d.pocOfLastI
	if currentGopSize < d.params.MinGopSize {
		return
	}

	// Rule 4: max IDR interval reached.
	currentIdrInterval := f.POC - d.pocOfLastIdr
	if currentIdrInterval >= d.params.MaxIdrDist {
		d.markIDR(f)
		return
	}

	// Rule 5: AVC uses IDR at scene change; HEVC uses I (supports CRA).
	if f.SceneChanged && d.params.Codec == scd.AVC {
		d.markIDR(f)
		return
	}

	// Rule 6: scene change or max GOP size reached.
	if f.SceneChanged || currentGopSize >= d.params.MaxGopSize {
		d.markI(f)
	}
}

func (d *Decider) markI(f *frame.Descriptor) {
	f.Type = frame.I
	d.pocOfLastI = f.POC
}

func (d *Decider) markIDR(f *frame.Descriptor) {
	f.Type = frame.Idr
	d.pocOfLastIdr = f.POC
	d.pocOfLastI = f.POC
}
