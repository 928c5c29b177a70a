/*
DESCRIPTION
  scd.go defines the boundary between AEnc and the external scene-change /
  statistics detector ("SCD"). The SCD itself — spatial/temporal complexity
  estimation, motion search, persistence-map construction — is explicitly out
  of scope (spec §1): this package only types the data that crosses the
  boundary and the small amount of quantization logic spec.md assigns to the
  "stat view & fingerprint" component.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package scd types the boundary between the AEnc controller and the
// external scene-change / statistics detector, and implements the small
// amount of stat quantization (class bins, mini-GOP override) that spec.md
// assigns to the detector's Go-side wrapper rather than to the detector
// itself.
package scd

import "github.com/pkg/errors"

// ColorFormat tells the detector how to interpret a LumaFrame's plane.
type ColorFormat uint8

const (
	NV12 ColorFormat = iota
	RGB4
)

func (f ColorFormat) String() string {
	switch f {
	case NV12:
		return "NV12"
	case RGB4:
		return "RGB4"
	default:
		return "unknown"
	}
}

// Codec selects CRA-vs-IDR behavior at non-forced scene changes (spec §4.2
// rule 5) and the mini-GOP override in OverrideMiniGop (spec §4.1).
type Codec uint8

const (
	AVC Codec = iota
	HEVC
)

// ImageHandle and StatHandle are opaque tokens the detector attaches to a
// frame so that a later LTR re-analysis pass can refer back to the same
// frame's internal SCD state, without AEnc ever inspecting their contents.
// This is the "pointer-based frame sharing -> value + opaque handle"
// generalization from spec.md §9: the handles are borrowed for the
// descriptor's lifetime and otherwise owned by the detector.
type ImageHandle any
type StatHandle any

// LumaFrame is a value-typed view over one raw luma frame submitted to
// Controller.ProcessFrame. Plane holds the raw bytes of the luma (and, for NV12, interleaved
// chroma) plane(s); the detector is solely responsible for interpreting it
// according to Format/Width/Height/Pitch.
type LumaFrame struct {
	Plane  []byte
	Width  int
	Height int
	Pitch  int
	Format ColorFormat
}

// Stat is everything the SCD reports for one frame, per spec.md §3's list of
// SCD-sourced descriptor fields.
type Stat struct {
	SceneChanged bool
	Repeated     bool
	LTROnHint    bool

	TemporalComplexity int32
	MV                 int32
	HighMVCount        int32
	MVSize             int32
	SC                 int32
	TSC                int32
	Contrast           int32
	Corr               int32

	// SuggestedMiniGop is the detector's recommended mini-GOP length, one of
	// {1,2,4,8}.
	SuggestedMiniGop int

	PMap PersistenceMap

	Image ImageHandle
	Stat  StatHandle
}

// PersistenceMap is the 8x16 per-region texture-stability grid (score 0-3
// per region) the detector produces for each frame.
type PersistenceMap [128]uint8

// CountNonZero returns the number of non-zero entries, as used by
// get_persistence_map's return value.
func (m PersistenceMap) CountNonZero() int {
	n := 0
	for _, v := range m {
		if v != 0 {
			n++
		}
	}
	return n
}

// Detector is the external scene-change / statistics producer. It is
// stateful and not reentrant — spec.md §5 requires a single owner driving it
// from one thread.
type Detector interface {
	// Analyze runs the detector against f and returns its statistics.
	Analyze(f LumaFrame) (Stat, error)

	// Close releases detector resources.
	Close() error
}

// TransitionDetector is the "LTR twin" SCD instance (LtrScd in the original):
// a second, independently-stateful detector used only to track scene
// transitions relative to a previously-installed reference frame.
type TransitionDetector interface {
	// SetReference installs img/stat as the new reference frame that future
	// Observe calls compare against (mirrors SetImageAndStat with
	// ASCReference_Frame).
	SetReference(img ImageHandle, stat StatHandle) error

	// Observe compares img/stat (the current frame) against the installed
	// reference and reports whether this call's analysis flagged a scene
	// transition (mirrors RunFrame_LTR + Get_frame_LTR_Decision).
	Observe(img ImageHandle, stat StatHandle) (bool, error)

	// Close releases detector resources.
	Close() error
}

// ErrBadColorFormat is returned by validation helpers when a ColorFormat is
// not one of NV12 or RGB4.
var ErrBadColorFormat = errors.New("scd: unsupported color format")

// Validate reports whether f is one of the supported color formats.
func (f ColorFormat) Validate() error {
	switch f {
	case NV12, RGB4:
		return nil
	default:
		return errors.Wrapf(ErrBadColorFormat, "got %d", f)
	}
}
