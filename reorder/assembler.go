/*
DESCRIPTION
  assembler.go implements the mini-GOP assembler of spec.md §4.3: N =
  min(common_len, agop_len), where common_len finds the next natural
  IDR/I/scene-change boundary and agop_len applies the adaptive mini-GOP
  length selection when AGOP is enabled.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package reorder

import "github.com/ausocean/aenc/frame"

// Params configures the Assembler.
type Params struct {
	MaxMiniGopSize int
	StrictIFrame   bool
	AGOP           bool
}

// Assembler computes the length of the next mini-GOP to drain from a Queue.
type Assembler struct {
	params Params
}

// NewAssembler returns an Assembler configured with p.
func NewAssembler(p Params) *Assembler {
	return &Assembler{params: p}
}

// Ready reports whether q holds enough frames to make a mini-GOP decision:
// at least MaxMiniGopSize frames buffered, and the queue is not fronted by a
// Dummy. EOS drain pads the queue with Dummy frames and comes through here
// too; the Dummy check is what keeps a Dummy from ever being drained.
func (a *Assembler) Ready(q *Queue) bool {
	if q.Len() < a.params.MaxMiniGopSize {
		return false
	}
	return q.At(0).Type != frame.Dummy
}

// Decide returns the length of the next mini-GOP to drain from q. The caller
// must have already confirmed Ready(q).
func (a *Assembler) Decide(q *Queue) int {
	common := a.commonLen(q)
	agop := a.agopLen(q)
	if common < agop {
		return common
	}
	return agop
}

// commonLen implements spec.md §4.3's "common_len" walk.
func (a *Assembler) commonLen(q *Queue) int {
	n := 1
	for i := 0; i < q.Len(); i++ {
		f := q.At(i)
		if f.Type == frame.Idr || f.Type == frame.Dummy || (!a.params.StrictIFrame && f.SceneChanged) {
			if n != 1 {
				n--
			}
			return n
		}
		if f.Type == frame.I {
			return n
		}
		n++
	}
	return n
}

// agopLen implements spec.md §4.3's "agop_len" adaptive mini-GOP length
// selection. When AGOP is disabled it simply returns MaxMiniGopSize.
func (a *Assembler) agopLen(q *Queue) int {
	if !a.params.AGOP {
		return a.params.MaxMiniGopSize
	}

	for cur := a.params.MaxMiniGopSize; cur > 1; cur /= 2 {
		full, half, count := 0, 0, 0
		for ; count < cur; count++ {
			sg := q.At(count).SuggestedMiniGop
			if sg >= cur {
				full++
			}
			if sg == cur/2 {
				half++
			}
			if sg <= cur/4 {
				break
			}
		}
		if count <= cur/2 {
			continue
		}
		if full <= half {
			continue
		}
		return count
	}
	return 1
}
