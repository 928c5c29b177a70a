/*
DESCRIPTION
  controller_test.go tests the Controller's per-frame orchestration:
  fixed-GOP I/IDR placement, emission ordering, the universal invariants of
  spec.md §8, and end-of-stream draining.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package aenc

import (
	"testing"

	"github.com/ausocean/aenc/config"
	"github.com/ausocean/aenc/frame"
	"github.com/ausocean/aenc/scd"
)

// pocAwareDetector returns a fixed Stat for every frame, tracking POC
// explicitly since Analyze's signature carries no POC of its own (the
// controller assigns POC at the call site).
type pocAwareDetector struct {
	nextPOC       uint32
	sceneChangeAt map[uint32]bool
	closed        bool
}

func (d *pocAwareDetector) Analyze(f scd.LumaFrame) (scd.Stat, error) {
	poc := d.nextPOC
	d.nextPOC++
	return scd.Stat{
		SceneChanged:     d.sceneChangeAt[poc],
		SuggestedMiniGop: 4,
	}, nil
}

func (d *pocAwareDetector) Close() error {
	d.closed = true
	return nil
}

type fakeTransition struct {
	closed bool
}

func (t *fakeTransition) SetReference(img scd.ImageHandle, stat scd.StatHandle) error { return nil }
func (t *fakeTransition) Observe(img scd.ImageHandle, stat scd.StatHandle) (bool, error) {
	return false, nil
}
func (t *fakeTransition) Close() error {
	t.closed = true
	return nil
}

func fixedGopConfig() config.Config {
	return config.Config{
		Codec:          scd.AVC,
		ColorFormat:    scd.NV12,
		StrictIFrame:   true,
		MinGopSize:     0,
		MaxGopSize:     4,
		MaxIdrDist:     16,
		GopPicSize:     4,
		MaxMiniGopSize: 4,
	}
}

func submit(t *testing.T, c *Controller, poc uint32) (frame.Output, error) {
	t.Helper()
	return c.ProcessFrame(poc, &scd.LumaFrame{Width: 4, Height: 4})
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := fixedGopConfig()
	cfg.MaxMiniGopSize = 3
	_, err := New(cfg, &pocAwareDetector{}, nil)
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
	if aerr, ok := err.(*Error); !ok || aerr.Kind != InvalidParams {
		t.Fatalf("err = %v, want InvalidParams", err)
	}
}

func TestNewRejectsNilDetector(t *testing.T) {
	cfg := fixedGopConfig()
	_, err := New(cfg, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil detector")
	}
}

func TestNewRejectsAltrWithoutTransitionDetector(t *testing.T) {
	cfg := fixedGopConfig()
	cfg.ALTR = true
	_, err := New(cfg, &pocAwareDetector{}, nil)
	if err == nil {
		t.Fatal("expected error for ALTR enabled without a transition detector")
	}
}

func TestProcessFrameFirstPOCIsIDR(t *testing.T) {
	cfg := fixedGopConfig()
	c, err := New(cfg, &pocAwareDetector{}, nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	// The reorder queue only releases a mini-GOP once MaxMiniGopSize frames
	// are buffered, so poc 0 (a one-frame mini-GOP on its own, since it is an
	// IDR) is not emitted until poc 3 arrives.
	for poc := uint32(0); poc < 3; poc++ {
		if _, err := submit(t, c, poc); err != ErrNeedMoreData {
			t.Fatalf("ProcessFrame(%d) = %v, want ErrNeedMoreData", poc, err)
		}
	}
	out, err := submit(t, c, 3)
	if err != nil {
		t.Fatalf("ProcessFrame(3) = %v", err)
	}
	if out.POC != 0 {
		t.Fatalf("POC = %d, want 0", out.POC)
	}
	if out.Type != frame.Idr {
		t.Fatalf("Type = %v, want Idr", out.Type)
	}
	if len(out.RefList) != 0 {
		t.Fatalf("RefList = %v, want empty for an intra frame", out.RefList)
	}
}

func TestProcessFrameReturnsNeedMoreDataWhileBuffering(t *testing.T) {
	cfg := fixedGopConfig()
	c, err := New(cfg, &pocAwareDetector{}, nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	// Fewer than MaxMiniGopSize buffered frames never produces an emission.
	for poc := uint32(0); poc < 3; poc++ {
		if _, err := submit(t, c, poc); err != ErrNeedMoreData {
			t.Fatalf("ProcessFrame(%d) = %v, want ErrNeedMoreData", poc, err)
		}
	}
}

func TestProcessFrameEmitsStrictIAtGopPicSizeBoundary(t *testing.T) {
	cfg := fixedGopConfig()
	c, err := New(cfg, &pocAwareDetector{}, nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	var emitted []frame.Output
	for poc := uint32(0); poc < 16; poc++ {
		o, err := submit(t, c, poc)
		if err == ErrNeedMoreData {
			continue
		}
		if err != nil {
			t.Fatalf("ProcessFrame(%d) = %v", poc, err)
		}
		emitted = append(emitted, o)
	}

	// Drain the final partial mini-GOP at EOS.
	for {
		o, err := c.ProcessFrame(16, nil)
		if err == ErrNeedMoreData {
			break
		}
		if err != nil {
			t.Fatalf("ProcessFrame(EOS) = %v", err)
		}
		emitted = append(emitted, o)
	}

	if len(emitted) != 16 {
		t.Fatalf("emitted %d frames, want 16", len(emitted))
	}

	var lastPOC int64 = -1
	for _, o := range emitted {
		if int64(o.POC) <= lastPOC {
			t.Fatalf("emission order violated: poc %d after %d", o.POC, lastPOC)
		}
		lastPOC = int64(o.POC)

		if o.Type.IsIntra() && len(o.RefList) != 0 {
			t.Fatalf("poc %d: intra frame has non-empty ref list %v", o.POC, o.RefList)
		}
		if o.Type == frame.B && len(o.RemoveFromDPB) != 0 {
			t.Fatalf("poc %d: B frame has non-empty remove_from_dpb (deferred eviction violated)", o.POC)
		}

		// StrictIFrame ties every I/IDR to a GopPicSize boundary.
		if o.Type.IsIntra() && o.POC%cfg.GopPicSize != 0 {
			t.Fatalf("poc %d: intra frame not aligned to GopPicSize %d", o.POC, cfg.GopPicSize)
		}
	}

	if emitted[0].Type != frame.Idr {
		t.Fatalf("first emission type = %v, want Idr", emitted[0].Type)
	}
}

func TestProcessFrameAfterCloseIsInvalidState(t *testing.T) {
	cfg := fixedGopConfig()
	det := &pocAwareDetector{}
	c, err := New(cfg, det, nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if !det.closed {
		t.Fatal("expected detector to be closed")
	}

	_, err = submit(t, c, 0)
	if err == nil {
		t.Fatal("expected error after Close")
	}
	if aerr, ok := err.(*Error); !ok || aerr.Kind != InvalidState {
		t.Fatalf("err = %v, want InvalidState", err)
	}
}

func TestProcessFrameALTRPromotesPOCZero(t *testing.T) {
	cfg := fixedGopConfig()
	cfg.ALTR = true

	c, err := New(cfg, &pocAwareDetector{}, &fakeTransition{})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	for poc := uint32(0); poc < 3; poc++ {
		if _, err := submit(t, c, poc); err != ErrNeedMoreData {
			t.Fatalf("ProcessFrame(%d) = %v, want ErrNeedMoreData", poc, err)
		}
	}
	out, err := submit(t, c, 3)
	if err != nil {
		t.Fatalf("ProcessFrame(3) = %v", err)
	}
	if out.POC != 0 || !out.LTR {
		t.Fatalf("got poc=%d ltr=%v, want poc=0 promoted to LTR", out.POC, out.LTR)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	cfg := fixedGopConfig()
	c, err := New(cfg, &pocAwareDetector{}, nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("first Close() = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() = %v, want nil", err)
	}
}

func TestUpdatePFrameBitsNoopWithoutAPQ(t *testing.T) {
	cfg := fixedGopConfig()
	c, err := New(cfg, &pocAwareDetector{}, nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if err := c.UpdatePFrameBits(3, 1000, 26, 0); err != nil {
		t.Fatalf("UpdatePFrameBits() = %v, want nil", err)
	}
}

func TestGetPersistenceMapReflectsMostRecentFrame(t *testing.T) {
	cfg := fixedGopConfig()
	c, err := New(cfg, &pocAwareDetector{}, nil)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	// A submission's buffering outcome (ready vs. ErrNeedMoreData) doesn't
	// affect persistence-map bookkeeping: it is updated on every submitted
	// real frame regardless of emission.
	if _, err := submit(t, c, 0); err != nil && err != ErrNeedMoreData {
		t.Fatalf("ProcessFrame(0) = %v", err)
	}
	_, n := c.GetPersistenceMap()
	if n != 0 {
		t.Fatalf("CountNonZero = %d, want 0 for a zero-valued persistence map", n)
	}
}
