/*
DESCRIPTION
  diagnostics.go summarizes a run of emitted frames for offline observability:
  mean persistence-map score and mean delta_qp, in the manner of
  cmd/rv/probe.go's use of gonum/stat. Diagnostics never feed back into a
  decision; they are pure reporting.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package diagnostics provides offline observability over a sequence of
// emitted AEnc frame decisions: summary statistics and timeline rendering,
// used for tuning heuristics rather than for any runtime decision.
package diagnostics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/aenc/frame"
)

// Summary is a point-in-time report over a window of emitted frames.
type Summary struct {
	NumFrames int

	// MeanDeltaQP is the mean QP offset across the window.
	MeanDeltaQP float64

	// MeanPersistenceScore is the mean persistence-map entry value across
	// the window's most recent frame's map (spec.md §4.5's 0-3 texture-
	// stability score, averaged over all 128 regions).
	MeanPersistenceScore float64

	// IntraFraction is the proportion of frames in the window that are I or
	// Idr, useful for sanity-checking StrictIFrame cadence against
	// GopPicSize/MaxIdrDist.
	IntraFraction float64
}

// Summarize computes a Summary over a window of emitted frames. It returns
// the zero Summary if frames is empty.
func Summarize(frames []frame.Output) Summary {
	if len(frames) == 0 {
		return Summary{}
	}

	deltaQP := make([]float64, len(frames))
	var intraCount int
	for i, f := range frames {
		deltaQP[i] = float64(f.DeltaQP)
		if f.Type.IsIntra() {
			intraCount++
		}
	}

	last := frames[len(frames)-1].PMap
	scores := make([]float64, len(last))
	for i, v := range last {
		scores[i] = float64(v)
	}

	return Summary{
		NumFrames:            len(frames),
		MeanDeltaQP:          stat.Mean(deltaQP, nil),
		MeanPersistenceScore: stat.Mean(scores, nil),
		IntraFraction:        float64(intraCount) / float64(len(frames)),
	}
}
