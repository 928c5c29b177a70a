//go:build withcv
// +build withcv

/*
DESCRIPTION
  mat_withcv.go provides a gocv.Mat-backed constructor for LumaFrame. Gated
  behind the withcv build tag so that the default build of this module does
  not require a working OpenCV/cgo toolchain, mirroring the filter package's
  mog.go/diff.go vs. filters_circleci.go split.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package scd

import (
	"fmt"

	"gocv.io/x/gocv"
)

// FromMat builds a LumaFrame from a captured gocv.Mat, for callers that
// source frames through an OpenCV-backed capture pipeline (as device/webcam
// and cmd/rv do elsewhere in this family of tools). format must match the
// Mat's channel layout; FromMat does not convert color spaces.
func FromMat(m gocv.Mat, format ColorFormat) (LumaFrame, error) {
	if m.Empty() {
		return LumaFrame{}, fmt.Errorf("scd: cannot build LumaFrame from empty Mat")
	}
	data, err := m.DataPtrUint8()
	if err != nil {
		return LumaFrame{}, fmt.Errorf("scd: could not access Mat data: %w", err)
	}
	plane := make([]byte, len(data))
	copy(plane, data)
	return LumaFrame{
		Plane:  plane,
		Width:  m.Cols(),
		Height: m.Rows(),
		Pitch:  int(m.Step()),
		Format: format,
	}, nil
}
