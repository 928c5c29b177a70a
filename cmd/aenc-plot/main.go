/*
DESCRIPTION
  aenc-plot reads the JSON-lines decision output of aenc-decide, prints a
  diagnostics.Summary, and renders a delta_qp/pyramid_layer timeline PNG.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/plot/vg"

	"github.com/ausocean/aenc/diagnostics"
	"github.com/ausocean/aenc/frame"
)

// decisionRecord mirrors the fields aenc-decide writes out, decoded back
// into a frame.Output for diagnostics.
type decisionRecord struct {
	POC           uint32   `json:"poc"`
	Type          string   `json:"type"`
	SceneChanged  bool     `json:"scene_changed"`
	Repeated      bool     `json:"repeated"`
	LTR           bool     `json:"ltr"`
	MiniGopSize   int      `json:"mini_gop_size"`
	PyramidLayer  int      `json:"pyramid_layer"`
	DeltaQP       int      `json:"delta_qp"`
	ClassAPQ      int      `json:"class_apq"`
	ClassCmplx    uint16   `json:"class_cmplx"`
	KeepInDPB     bool     `json:"keep_in_dpb"`
	RemoveFromDPB []uint32 `json:"remove_from_dpb"`
	RefList       []uint32 `json:"ref_list"`
}

func parseType(s string) frame.Type {
	switch s {
	case "IDR":
		return frame.Idr
	case "I":
		return frame.I
	case "P":
		return frame.P
	case "B":
		return frame.B
	default:
		return frame.Undef
	}
}

func (r decisionRecord) toOutput() frame.Output {
	return frame.Output{
		POC:           r.POC,
		Type:          parseType(r.Type),
		SceneChanged:  r.SceneChanged,
		Repeated:      r.Repeated,
		LTR:           r.LTR,
		MiniGopSize:   r.MiniGopSize,
		PyramidLayer:  r.PyramidLayer,
		DeltaQP:       r.DeltaQP,
		ClassAPQ:      r.ClassAPQ,
		ClassCmplx:    r.ClassCmplx,
		KeepInDPB:     r.KeepInDPB,
		RemoveFromDPB: r.RemoveFromDPB,
		RefList:       r.RefList,
	}
}

func readDecisions(r io.Reader) ([]frame.Output, error) {
	var frames []frame.Output
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec decisionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("decode decisionRecord: %w", err)
		}
		frames = append(frames, rec.toOutput())
	}
	return frames, sc.Err()
}

func main() {
	in := flag.String("in", "", "input JSONL decision file (default stdin)")
	out := flag.String("out", "timeline.png", "output PNG path")
	width := flag.Float64("width-in", 8, "image width in inches")
	height := flag.Float64("height-in", 6, "image height in inches")
	flag.Parse()

	r := io.Reader(os.Stdin)
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			fmt.Fprintln(os.Stderr, "aenc-plot: open input:", err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}

	frames, err := readDecisions(r)
	if err != nil {
		fmt.Fprintln(os.Stderr, "aenc-plot: read input:", err)
		os.Exit(1)
	}
	if len(frames) == 0 {
		fmt.Fprintln(os.Stderr, "aenc-plot: no decision records in input")
		os.Exit(1)
	}

	s := diagnostics.Summarize(frames)
	fmt.Printf("frames=%d mean_delta_qp=%.3f mean_persistence=%.3f intra_fraction=%.3f\n",
		s.NumFrames, s.MeanDeltaQP, s.MeanPersistenceScore, s.IntraFraction)

	if err := diagnostics.PlotTimeline(frames, *out, vg.Length(*width)*vg.Inch, vg.Length(*height)*vg.Inch); err != nil {
		fmt.Fprintln(os.Stderr, "aenc-plot: render timeline:", err)
		os.Exit(1)
	}
}
