/*
DESCRIPTION
  controller.go wires the AEnc decision pipeline together: intake and
  statistics, I/IDR decision, mini-GOP assembly, pyramid layout, the
  ALTR/AREF/APQ sub-modules, DPB/ref-list management, and emission
  (spec.md §2, §4, §6).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package aenc implements the adaptive video-encoding decision controller:
// a streaming processor that turns raw luma frames and scene-analysis
// statistics into an ordered sequence of coded-frame decisions (frame type,
// QP offset, reference list, DPB eviction).
package aenc

import (
	"github.com/ausocean/aenc/apq"
	"github.com/ausocean/aenc/aref"
	"github.com/ausocean/aenc/config"
	"github.com/ausocean/aenc/dpb"
	"github.com/ausocean/aenc/frame"
	"github.com/ausocean/aenc/gop"
	"github.com/ausocean/aenc/ltr"
	"github.com/ausocean/aenc/pyramid"
	"github.com/ausocean/aenc/reorder"
	"github.com/ausocean/aenc/scd"
	"github.com/ausocean/utils/logging"
)

// Logger is the logging interface a Controller writes to. Implementations
// are expected to come from github.com/ausocean/utils/logging.
type Logger interface {
	SetLevel(int8)
	Log(level int8, message string, params ...interface{})
}

// Controller is a single AEnc decision pipeline instance. It is not safe for
// concurrent use: spec.md §5 requires a single logical owner driving it from
// one thread.
type Controller struct {
	cfg config.Config

	detector   scd.Detector
	transition scd.TransitionDetector

	reorderQ   *reorder.Queue
	assembler  *reorder.Assembler
	decider    *gop.Decider
	pyr        *pyramid.Assigner
	ltrT       *ltr.Tracker
	arefT      *aref.Tracker
	apqT       *apq.Tracker
	buf        *dpb.DPB
	outputQ    *dpb.OutputQueue
	persistMap scd.PersistenceMap

	closed bool
}

// New validates cfg and constructs a Controller around the given detector
// and its LTR-twin transition detector (mirrors init()). detector must be
// non-nil; transition may be nil only if cfg.ALTR is false.
func New(cfg config.Config, detector scd.Detector, transition scd.TransitionDetector) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newError(InvalidParams, err)
	}
	if detector == nil {
		return nil, newError(InvalidParams, errNilDetector)
	}
	if cfg.ALTR && transition == nil {
		return nil, newError(InvalidParams, errNilTransitionDetector)
	}

	c := &Controller{
		cfg:        cfg,
		detector:   detector,
		transition: transition,
		reorderQ:   reorder.NewQueue(cfg.MaxMiniGopSize),
		assembler: reorder.NewAssembler(reorder.Params{
			MaxMiniGopSize: cfg.MaxMiniGopSize,
			StrictIFrame:   cfg.StrictIFrame,
			AGOP:           cfg.AGOP,
		}),
		decider: gop.New(gop.Params{
			Codec:        cfg.Codec,
			StrictIFrame: cfg.StrictIFrame,
			MinGopSize:   cfg.MinGopSize,
			MaxGopSize:   cfg.MaxGopSize,
			MaxIdrDist:   cfg.MaxIdrDist,
			GopPicSize:   cfg.GopPicSize,
		}),
		pyr:     pyramid.New(),
		ltrT:    ltr.New(cfg.ALTR, transition),
		arefT:   aref.New(cfg.AREF),
		apqT:    apq.New(cfg.APQ),
		buf:     dpb.New(),
		outputQ: dpb.NewOutputQueue(),
	}

	if cfg.Logger != nil {
		cfg.Logger.SetLevel(cfg.LogLevel)
		cfg.Logger.Log(logging.Debug, "aenc controller initialized")
	}

	return c, nil
}

var (
	errNilDetector           = newPlainErr("nil detector")
	errNilTransitionDetector = newPlainErr("ALTR enabled but nil transition detector")
)

// plainErr is a trivial error used for the small set of static sentinel
// messages above; it avoids importing errors twice for string-only cases.
type plainErr string

func (e plainErr) Error() string { return string(e) }

func newPlainErr(s string) error { return plainErr(s) }

// ProcessFrame implements process_frame (spec.md §6). luma == nil signals
// EOS: the reorder queue is padded with Dummy frames until mini-GOP
// assembly is forced. Returns ErrNeedMoreData when nothing is ready for
// emission yet.
func (c *Controller) ProcessFrame(poc uint32, luma *scd.LumaFrame) (frame.Output, error) {
	if c.closed {
		return frame.Output{}, newError(InvalidState, errClosed)
	}

	if luma != nil {
		stat, err := c.detector.Analyze(*luma)
		if err != nil {
			return frame.Output{}, newError(InternalInvariant, err)
		}

		suggested := stat.SuggestedMiniGop
		if override := scd.OverrideMiniGop(c.cfg.Codec, c.cfg.MaxMiniGopSize, stat.SC, stat.MVSize); override != 0 {
			suggested = override
		}

		f := frame.Descriptor{
			POC:                poc,
			SceneChanged:       stat.SceneChanged,
			Repeated:           stat.Repeated,
			LTROnHint:          stat.LTROnHint,
			TemporalComplexity: stat.TemporalComplexity,
			MV:                 stat.MV,
			HighMVCount:        stat.HighMVCount,
			MVSize:             stat.MVSize,
			SC:                 stat.SC,
			TSC:                stat.TSC,
			Contrast:           stat.Contrast,
			Corr:               stat.Corr,
			SuggestedMiniGop:   suggested,
			UseLTRAsReference:  true,
			PMap:               stat.PMap,
			ScdImage:           stat.Image,
			ScdStat:            stat.Stat,
		}
		c.persistMap = stat.PMap

		c.decider.Decide(&f)

		if err := c.reorderQ.Push(f); err != nil {
			return frame.Output{}, newError(InternalInvariant, err)
		}
	} else {
		for c.reorderQ.Len() < c.cfg.MaxMiniGopSize {
			if err := c.reorderQ.Push(frame.Descriptor{Type: frame.Dummy}); err != nil {
				break
			}
		}
	}

	if c.assembler.Ready(c.reorderQ) {
		n := c.assembler.Decide(c.reorderQ)
		drained := c.reorderQ.Drain(n)
		for i := range drained {
			out, err := c.classify(&drained[i], len(drained), i)
			if err != nil {
				return frame.Output{}, err
			}
			c.outputQ.Push(out)
		}
	}

	out, ok := c.outputQ.Pop()
	if !ok {
		return frame.Output{}, ErrNeedMoreData
	}
	return out, nil
}

// classify runs one drained frame through per-frame classification, in the
// fixed order spec.md §9 prescribes: pyramid layout, ALTR/AREF/APQ stat
// computation, ALTR/AREF decision, reference-list build, QP adjust, DPB
// decision. It mirrors MarkFrameInMiniGOP/ComputeStat/MakeAltrArefDecision/
// BuildRefList/AdjustQp/MakeDbpDecision/SaveFrameTypeInfo.
func (c *Controller) classify(f *frame.Descriptor, miniGopSize, miniGopIdx int) (frame.Output, error) {
	if err := c.pyr.Layout(f, miniGopSize, miniGopIdx); err != nil {
		return frame.Output{}, newError(InternalInvariant, err)
	}

	if c.cfg.ALTR {
		if err := c.ltrT.ComputeStat(f); err != nil {
			return frame.Output{}, newError(InternalInvariant, err)
		}
	}
	if c.cfg.AREF {
		c.arefT.ComputeStat(f)
	}
	if c.cfg.APQ {
		c.apqT.ComputeStat(f)
	}

	if c.cfg.ALTR {
		if err := c.ltrT.MakeDecision(f); err != nil {
			return frame.Output{}, newError(InternalInvariant, err)
		}
	}
	if c.cfg.AREF {
		c.arefT.MakeDecision(f, c.cfg.ALTR, c.ltrT.LTROn())
	}

	if c.cfg.ALTR {
		c.buf.BuildRefListLTR(f)
	}
	if c.cfg.AREF {
		c.buf.BuildRefListAREF(f)
	}

	f.DeltaQP = 0
	if c.cfg.ALTR {
		c.ltrT.AdjustQP(f, c.cfg.APQ)
	}
	if c.cfg.AREF {
		c.arefT.AdjustQP(f, c.cfg.APQ)
	}
	if c.cfg.APQ {
		c.apqT.AdjustQP(f)
	}
	if c.cfg.AGOP && !c.cfg.ALTR && !c.cfg.AREF && !c.cfg.APQ {
		apq.AdjustQPAgop(f)
	}

	if c.cfg.ALTR {
		c.buf.MakeDecisionLTR(f)
	}
	if c.cfg.AREF {
		c.buf.MakeDecisionAREF(f)
	}

	// P->B transition smoothing: zero the DeltaQP of the frame most recently
	// pushed to the output queue (spec.md §4.4).
	if f.PrevType == frame.P && f.Type == frame.B {
		if back := c.outputQ.Back(); back != nil {
			back.DeltaQP = 0
		}
	}

	out, err := f.ToOutput()
	if err != nil {
		return frame.Output{}, newError(CapacityExceeded, err)
	}
	return out, nil
}

// GetIntraDecision implements get_intra_decision: looks up a frame by POC
// across the reorder queue and the output queue, returning its type if it
// is I or Idr.
func (c *Controller) GetIntraDecision(poc uint32) (frame.Type, bool) {
	if f, ok := c.reorderQ.Find(poc); ok {
		return intraOnly(f.Type)
	}
	if f, ok := c.outputQ.Find(poc); ok {
		return intraOnly(f.Type)
	}
	return frame.Undef, false
}

func intraOnly(t frame.Type) (frame.Type, bool) {
	switch t {
	case frame.Idr, frame.I:
		return t, true
	default:
		return frame.Undef, false
	}
}

// GetPersistenceMap implements get_persistence_map: returns the most recent
// persistence-map snapshot and its non-zero count.
func (c *Controller) GetPersistenceMap() (scd.PersistenceMap, int) {
	return c.persistMap, c.persistMap.CountNonZero()
}

// UpdatePFrameBits implements update_p_bits (spec.md §4.9, §6): rate-control
// feedback folded into the next frame's APQ classification. poc identifies
// the P frame the feedback is for; it is accepted for interface symmetry
// with the other POC-addressed operations but the feedback model itself is
// POC-independent (it only ever looks at the most recent P frame).
func (c *Controller) UpdatePFrameBits(poc uint32, bits, qpY uint32, classCmplx uint16) error {
	if c.closed {
		return newError(InvalidState, errClosed)
	}
	_ = poc
	if !c.cfg.APQ || c.cfg.GopPicSize < 8 {
		return nil
	}
	c.apqT.UpdatePFrameBits(c.cfg.SrcFrameWidth, c.cfg.SrcFrameHeight, bits, qpY, classCmplx, int(c.cfg.GopPicSize))
	return nil
}

// Close releases detector resources and discards any queued frames. No
// residual promises are outstanding after Close returns (spec.md §5).
func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.reorderQ = reorder.NewQueue(c.cfg.MaxMiniGopSize)
	c.outputQ = dpb.NewOutputQueue()

	var err error
	if e := c.detector.Close(); e != nil {
		err = newError(InternalInvariant, e)
	}
	if c.transition != nil {
		if e := c.transition.Close(); e != nil && err == nil {
			err = newError(InternalInvariant, e)
		}
	}
	return err
}

var errClosed = plainErr("controller is closed")
