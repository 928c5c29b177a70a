/*
DESCRIPTION
  pyramid_test.go tests hierarchical-B layer assignment and the P-pyramid
  cyclic table.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pyramid

import (
	"testing"

	"github.com/ausocean/aenc/frame"
)

func TestLayoutMiniGopFour(t *testing.T) {
	a := New()
	wantLayers := []int{2, 1, 2, 0}
	wantTypes := []frame.Type{frame.B, frame.B, frame.B, frame.P}
	for i := 0; i < 4; i++ {
		f := &frame.Descriptor{}
		if err := a.Layout(f, 4, i); err != nil {
			t.Fatalf("Layout(%d): %v", i, err)
		}
		if f.PyramidLayer != wantLayers[i] {
			t.Errorf("idx %d: layer = %d, want %d", i, f.PyramidLayer, wantLayers[i])
		}
		if f.Type != wantTypes[i] {
			t.Errorf("idx %d: type = %v, want %v", i, f.Type, wantTypes[i])
		}
		if f.MiniGopType != 4 {
			t.Errorf("idx %d: mini-GOP type = %d, want 4", i, f.MiniGopType)
		}
	}
}

func TestLayoutAnchorAlreadyMarkedIntraStaysIntra(t *testing.T) {
	a := New()
	f := &frame.Descriptor{Type: frame.I}
	if err := a.Layout(f, 4, 3); err != nil {
		t.Fatal(err)
	}
	if f.Type != frame.I {
		t.Errorf("got %v, want I preserved", f.Type)
	}
	if f.PyramidLayer != 0 {
		t.Errorf("anchor layer = %d, want 0", f.PyramidLayer)
	}
}

func TestLayoutTruncatedMiniGopUsesSize4Template(t *testing.T) {
	// A mini-GOP of size 3 (I frame closed it early) should use the
	// size-4 template's first three entries: layers 2,1,2 (but index 2 here
	// is the anchor since miniGopSize-1==2).
	a := New()
	f0 := &frame.Descriptor{}
	if err := a.Layout(f0, 3, 0); err != nil {
		t.Fatal(err)
	}
	if f0.PyramidLayer != 2 {
		t.Errorf("idx0 layer = %d, want 2", f0.PyramidLayer)
	}
	f2 := &frame.Descriptor{Type: frame.I}
	if err := a.Layout(f2, 3, 2); err != nil {
		t.Fatal(err)
	}
	if f2.PyramidLayer != 0 {
		t.Errorf("anchor layer = %d, want 0", f2.PyramidLayer)
	}
}

func TestPPyramidAdvancesOnNonBPrecededP(t *testing.T) {
	a := New()

	// IDR resets.
	idr := &frame.Descriptor{Type: frame.Idr}
	if err := a.Layout(idr, 1, 0); err != nil {
		t.Fatal(err)
	}
	if a.pPyramidIdx != 0 {
		t.Fatalf("after IDR, pPyramidIdx = %d, want 0", a.pPyramidIdx)
	}

	// A sequence of P frames (mini-GOP size 1, no B) should walk P_PYR in
	// order starting at index 1.
	wantLayers := []int{4, 3, 2, 4, 3, 2, 1}
	for i, want := range wantLayers {
		f := &frame.Descriptor{}
		if err := a.Layout(f, 1, 0); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if f.PPyramidLayer != want {
			t.Errorf("frame %d: PPyramidLayer = %d, want %d", i, f.PPyramidLayer, want)
		}
	}
}

func TestLayoutRejectsBadGeometry(t *testing.T) {
	a := New()
	if err := a.Layout(&frame.Descriptor{}, 0, 0); err == nil {
		t.Error("expected error for mini-GOP size 0")
	}
	if err := a.Layout(&frame.Descriptor{}, 9, 0); err == nil {
		t.Error("expected error for mini-GOP size 9")
	}
	if err := a.Layout(&frame.Descriptor{}, 4, 4); err == nil {
		t.Error("expected error for out-of-range index")
	}
}
