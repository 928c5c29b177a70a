/*
DESCRIPTION
  record.go defines the JSON record this tool reads and writes, and a
  scd.Detector that replays pre-computed records rather than analyzing pixel
  data (the SCD analysis itself is out of scope here, as it is for the
  controller it drives).

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
	"io"

	"github.com/pkg/errors"

	"github.com/ausocean/aenc/scd"
)

// statRecord is one line of the input JSONL stream: a frame's pre-computed
// SCD statistics, keyed by POC. Image/Stat handles are not carried across
// the JSON boundary; ALTR runs against recorded input therefore see a nil
// handle pair, which is only safe with a no-op TransitionDetector.
type statRecord struct {
	POC uint32 `json:"poc"`

	SceneChanged bool `json:"scene_changed"`
	Repeated     bool `json:"repeated"`
	LTROnHint    bool `json:"ltr_on_hint"`

	TemporalComplexity int32 `json:"temporal_complexity"`
	MV                 int32 `json:"mv"`
	HighMVCount        int32 `json:"high_mv_count"`
	MVSize             int32 `json:"mv_size"`
	SC                 int32 `json:"sc"`
	TSC                int32 `json:"tsc"`
	Contrast           int32 `json:"contrast"`
	Corr               int32 `json:"corr"`

	SuggestedMiniGop int `json:"suggested_mini_gop"`
}

// readRecords decodes one statRecord per line from r.
func readRecords(r io.Reader) ([]statRecord, error) {
	var records []statRecord
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec statRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, errors.Wrap(err, "decode statRecord")
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scan input")
	}
	return records, nil
}

// replayDetector implements scd.Detector by handing out pre-recorded Stats
// in order, one per Analyze call, ignoring the LumaFrame it is given.
type replayDetector struct {
	records []statRecord
	next    int
}

func newReplayDetector(records []statRecord) *replayDetector {
	return &replayDetector{records: records}
}

var errExhausted = errors.New("aenc-decide: no more recorded frames")

func (d *replayDetector) Analyze(scd.LumaFrame) (scd.Stat, error) {
	if d.next >= len(d.records) {
		return scd.Stat{}, errExhausted
	}
	r := d.records[d.next]
	d.next++
	return scd.Stat{
		SceneChanged:       r.SceneChanged,
		Repeated:           r.Repeated,
		LTROnHint:          r.LTROnHint,
		TemporalComplexity: r.TemporalComplexity,
		MV:                 r.MV,
		HighMVCount:        r.HighMVCount,
		MVSize:             r.MVSize,
		SC:                 r.SC,
		TSC:                r.TSC,
		Contrast:           r.Contrast,
		Corr:               r.Corr,
		SuggestedMiniGop:   r.SuggestedMiniGop,
	}, nil
}

func (d *replayDetector) Close() error { return nil }

// noopTransition is a TransitionDetector that never reports a transition. It
// lets -altr run against replayed records, which carry no real image/stat
// handles for a genuine transition comparison.
type noopTransition struct{}

func (noopTransition) SetReference(scd.ImageHandle, scd.StatHandle) error { return nil }
func (noopTransition) Observe(scd.ImageHandle, scd.StatHandle) (bool, error) {
	return false, nil
}
func (noopTransition) Close() error { return nil }
