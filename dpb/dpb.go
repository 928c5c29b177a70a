/*
DESCRIPTION
  dpb.go implements the decoded-picture-buffer model of spec.md §4.8: the
  one-LTR-slot retained set, reference-list assembly, and the FIFO output
  queue with deferred B-frame eviction.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dpb models the decoded picture buffer's retained set, builds
// reference lists for ALTR/AREF-referencing P frames, and runs the FIFO
// output queue with its deferred B-frame eviction rule (spec.md §4.8).
package dpb

import "github.com/ausocean/aenc/frame"

// entry is one retained frame: only the POC and the ltr flag matter, since
// the only retention predicate in use is "is this the LTR/key-P entry".
type entry struct {
	poc uint32
	ltr bool
}

// DPB is an ordered multiset of retained frames. In practice at most one
// entry is ever retained: ALTR and AREF each keep a single LTR/key-P slot,
// evicting the previous holder before inserting a new one (spec.md §7: "at
// most one frame with ltr exists in the DPB at any prefix").
type DPB struct {
	entries []entry
}

// New returns an empty DPB.
func New() *DPB {
	return &DPB{}
}

// removeLTR evicts the first retained entry with ltr set, recording its POC
// into f.RemoveFromDPB. It is a no-op if no such entry exists.
func (d *DPB) removeLTR(f *frame.Descriptor) {
	for i, e := range d.entries {
		if e.ltr {
			f.RemoveFromDPB = append(f.RemoveFromDPB, e.poc)
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return
		}
	}
}

// MakeDecisionLTR implements MakeDbpDecisionLtr: if f is the new LTR,
// evicts the old one and retains f.
func (d *DPB) MakeDecisionLTR(f *frame.Descriptor) {
	if !f.LTR {
		return
	}
	d.removeLTR(f)
	f.KeepInDPB = true
	d.entries = append(d.entries, entry{poc: f.POC, ltr: true})
}

// MakeDecisionAREF implements MakeDbpDecisionAref: identical slot discipline
// to MakeDecisionLTR, applied when AREF (rather than ALTR) produced the
// key-P promotion.
func (d *DPB) MakeDecisionAREF(f *frame.Descriptor) {
	if !f.LTR {
		return
	}
	d.removeLTR(f)
	f.KeepInDPB = true
	d.entries = append(d.entries, entry{poc: f.POC, ltr: true})
}

// ltrPOC returns the POC of the retained LTR/key-P entry, if any.
func (d *DPB) ltrPOC() (uint32, bool) {
	for _, e := range d.entries {
		if e.ltr {
			return e.poc, true
		}
	}
	return 0, false
}

// BuildRefListLTR implements BuildRefListLtr: for a P frame that may use the
// LTR as reference, appends the retained LTR's POC to f.RefList.
func (d *DPB) BuildRefListLTR(f *frame.Descriptor) {
	if f.Type != frame.P || !f.UseLTRAsReference {
		return
	}
	if poc, ok := d.ltrPOC(); ok {
		f.RefList = append(f.RefList, poc)
	}
}

// BuildRefListAREF implements BuildRefListAref: for any P frame, appends the
// retained key-P's POC to f.RefList.
func (d *DPB) BuildRefListAREF(f *frame.Descriptor) {
	if f.Type != frame.P {
		return
	}
	if poc, ok := d.ltrPOC(); ok {
		f.RefList = append(f.RefList, poc)
	}
}

// OutputQueue is the FIFO of classified frames awaiting emission in display
// order, with the deferred-eviction rule for B frames: a B frame's
// remove_from_dpb list is held back and folded into the next non-B frame's
// list rather than emitted immediately (spec.md §4.8).
type OutputQueue struct {
	frames  []frame.Output
	pending []uint32
}

// NewOutputQueue returns an empty OutputQueue.
func NewOutputQueue() *OutputQueue {
	return &OutputQueue{}
}

// Push appends f to the back of the queue.
func (q *OutputQueue) Push(f frame.Output) {
	q.frames = append(q.frames, f)
}

// Back returns a pointer to the most recently pushed frame, or nil if the
// queue is empty. Used by the P->B transition QP smoothing rule, which must
// zero the DeltaQP of the P frame just pushed.
func (q *OutputQueue) Back() *frame.Output {
	if len(q.frames) == 0 {
		return nil
	}
	return &q.frames[len(q.frames)-1]
}

// Find returns the buffered (not yet emitted) output frame with the given
// POC, if any.
func (q *OutputQueue) Find(poc uint32) (frame.Output, bool) {
	for _, f := range q.frames {
		if f.POC == poc {
			return f, true
		}
	}
	return frame.Output{}, false
}

// Pop implements OutputDecision: removes and returns the front frame,
// applying the deferred B-frame eviction rule. ok is false if the queue is
// empty (the caller should report NeedMoreData).
func (q *OutputQueue) Pop() (out frame.Output, ok bool) {
	if len(q.frames) == 0 {
		return frame.Output{}, false
	}
	out = q.frames[0]
	q.frames = q.frames[1:]

	if out.Type == frame.B {
		q.pending = append(q.pending, out.RemoveFromDPB...)
		out.RemoveFromDPB = nil
	} else {
		out.RemoveFromDPB = append(out.RemoveFromDPB, q.pending...)
		q.pending = nil
	}
	return out, true
}
