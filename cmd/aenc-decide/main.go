/*
DESCRIPTION
  aenc-decide drives a Controller over a recorded stream of per-frame SCD
  statistics (one JSON object per line on stdin or -in), and writes the
  resulting per-frame decisions as JSON lines to stdout or -out.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package aenc-decide is a batch harness for the aenc Controller: it replays
// recorded statistics rather than performing any pixel analysis of its own.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/aenc"
	"github.com/ausocean/aenc/config"
	"github.com/ausocean/aenc/frame"
	"github.com/ausocean/aenc/scd"
	"github.com/ausocean/utils/logging"
)

// Logging configuration, mirroring cmd/rv's lumberjack setup.
const (
	logPath      = "aenc-decide.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

const pkg = "aenc-decide: "

func main() {
	in := flag.String("in", "", "input JSONL statRecord file (default stdin)")
	out := flag.String("out", "", "output JSONL decision file (default stdout)")
	strictI := flag.Bool("strict-i", true, "force I/IDR placement onto a fixed GOP grid")
	minGop := flag.Uint("min-gop-size", 0, "minimum GOP size")
	maxGop := flag.Uint("max-gop-size", 4, "maximum GOP size")
	maxIdrDist := flag.Uint("max-idr-dist", 16, "maximum IDR distance")
	gopPicSize := flag.Uint("gop-pic-size", 4, "strict I/IDR grid spacing")
	maxMiniGop := flag.Int("max-mini-gop-size", 4, "mini-GOP size, one of {1,2,4,8}")
	altr := flag.Bool("altr", false, "enable adaptive long-term reference")
	aref := flag.Bool("aref", false, "enable adaptive reference frames")
	apq := flag.Bool("apq", false, "enable adaptive perceptual quantization")
	agop := flag.Bool("agop", false, "enable adaptive GOP sizing")
	width := flag.Uint("width", 1920, "source frame width")
	height := flag.Uint("height", 1080, "source frame height")
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(fileLog, os.Stderr), logSuppress)
	log.Info(pkg + "starting")

	if err := run(*in, *out, cliConfig(*strictI, *minGop, *maxGop, *maxIdrDist, *gopPicSize, *maxMiniGop, *altr, *aref, *apq, *agop, *width, *height, log)); err != nil {
		log.Error(pkg+"run failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info(pkg + "finished")
}

func cliConfig(strictI bool, minGop, maxGop, maxIdrDist, gopPicSize uint, maxMiniGop int, altr, aref, apq, agop bool, width, height uint, log logging.Logger) config.Config {
	return config.Config{
		Codec:          scd.AVC,
		ColorFormat:    scd.NV12,
		StrictIFrame:   strictI,
		MinGopSize:     uint32(minGop),
		MaxGopSize:     uint32(maxGop),
		MaxIdrDist:     uint32(maxIdrDist),
		GopPicSize:     uint32(gopPicSize),
		MaxMiniGopSize: maxMiniGop,
		ALTR:           altr,
		AREF:           aref,
		APQ:            apq,
		AGOP:           agop,
		SrcFrameWidth:  uint32(width),
		SrcFrameHeight: uint32(height),
		Logger:         log,
		LogLevel:       logVerbosity,
	}
}

func run(inPath, outPath string, cfg config.Config) error {
	r, closeIn, err := openIn(inPath)
	if err != nil {
		return err
	}
	defer closeIn()

	w, closeOut, err := openOut(outPath)
	if err != nil {
		return err
	}
	defer closeOut()

	records, err := readRecords(r)
	if err != nil {
		return err
	}

	detector := newReplayDetector(records)
	var transition scd.TransitionDetector
	if cfg.ALTR {
		transition = noopTransition{}
	}

	c, err := aenc.New(cfg, detector, transition)
	if err != nil {
		return err
	}
	defer c.Close()

	enc := json.NewEncoder(w)

	var lastPOC uint32
	for _, rec := range records {
		lastPOC = rec.POC
		o, err := c.ProcessFrame(rec.POC, &scd.LumaFrame{
			Width:  int(cfg.SrcFrameWidth),
			Height: int(cfg.SrcFrameHeight),
			Format: cfg.ColorFormat,
		})
		if err == aenc.ErrNeedMoreData {
			continue
		}
		if err != nil {
			return err
		}
		if err := enc.Encode(outputRecord(o)); err != nil {
			return err
		}
	}

	for poc := lastPOC + 1; ; poc++ {
		o, err := c.ProcessFrame(poc, nil)
		if err == aenc.ErrNeedMoreData {
			break
		}
		if err != nil {
			return err
		}
		if err := enc.Encode(outputRecord(o)); err != nil {
			return err
		}
	}
	return nil
}

// outputRecord flattens a frame.Output for stable JSON field ordering;
// encoding frame.Output directly (it has no json tags) would use its Go
// field names and serialize frame.Type as a bare integer, which is harder
// for aenc-plot and human readers to work with.
func outputRecord(o frame.Output) map[string]interface{} {
	return map[string]interface{}{
		"poc":             o.POC,
		"type":            o.Type.String(),
		"scene_changed":   o.SceneChanged,
		"repeated":        o.Repeated,
		"ltr":             o.LTR,
		"mini_gop_size":   o.MiniGopSize,
		"pyramid_layer":   o.PyramidLayer,
		"delta_qp":        o.DeltaQP,
		"class_apq":       o.ClassAPQ,
		"class_cmplx":     o.ClassCmplx,
		"keep_in_dpb":     o.KeepInDPB,
		"remove_from_dpb": o.RemoveFromDPB,
		"ref_list":        o.RefList,
	}
}

func openIn(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return bufio.NewReader(f), func() { f.Close() }, nil
}

func openOut(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { f.Close() }, nil
}
