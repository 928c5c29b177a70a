/*
DESCRIPTION
  config.go defines the AEnc controller's configuration and its validation,
  in the manner of revid/config.Config.Validate.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config defines AEnc's configuration record and its validation.
// Unlike revid's dynamically-updatable config, an AEnc Config is immutable
// for the life of a Controller: it is fully validated at Init and never
// mutated afterwards (spec.md §5).
package config

import (
	"github.com/ausocean/aenc/scd"
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// Config holds the parameters of one AEnc controller instance. A new Config
// must be validated with Validate before use.
type Config struct {
	// Codec selects CRA-vs-IDR behavior at non-forced scene changes.
	Codec scd.Codec

	// ColorFormat is the input luma frame's pixel layout.
	ColorFormat scd.ColorFormat

	// StrictIFrame forces I/IDR placement onto a fixed grid
	// (GopPicSize/MaxIdrDist) rather than adaptively on scene change.
	StrictIFrame bool

	MinGopSize  uint32
	MaxGopSize  uint32
	MaxIdrDist  uint32
	GopPicSize  uint32

	// MaxMiniGopSize bounds the reorder queue, the output queue, and the
	// adaptive mini-GOP assembler, one of {1,2,4,8}.
	MaxMiniGopSize int

	// ALTR, AREF, APQ, AGOP select which adaptive sub-modules run. Keep as a
	// flat feature-flag record, not an inheritance hierarchy (spec.md §9).
	ALTR bool
	AREF bool
	APQ  bool
	AGOP bool

	SrcFrameWidth  uint32
	SrcFrameHeight uint32

	// Logger holds an implementation of the Logger interface as defined in
	// controller.go.
	Logger logging.Logger

	// LogLevel is the controller's logging verbosity, one of
	// logging.Debug/Info/Warning/Error/Fatal.
	LogLevel int8
}

// ErrInvalidConfig is wrapped with context and returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Validate checks the constraints spec.md §4.2 places on GOP/mini-GOP
// geometry and the color format SCD will be asked to interpret.
func (c *Config) Validate() error {
	switch c.MaxMiniGopSize {
	case 1, 2, 4, 8:
	default:
		return errors.Wrapf(ErrInvalidConfig, "MaxMiniGopSize %d not one of {1,2,4,8}", c.MaxMiniGopSize)
	}

	if !(c.MinGopSize < c.MaxGopSize) {
		return errors.Wrapf(ErrInvalidConfig, "MinGopSize %d must be < MaxGopSize %d", c.MinGopSize, c.MaxGopSize)
	}
	if !(c.MaxGopSize <= c.MaxIdrDist) {
		return errors.Wrapf(ErrInvalidConfig, "MaxGopSize %d must be <= MaxIdrDist %d", c.MaxGopSize, c.MaxIdrDist)
	}
	if c.MaxIdrDist%c.MaxGopSize != 0 {
		return errors.Wrapf(ErrInvalidConfig, "MaxIdrDist %d must be a multiple of MaxGopSize %d", c.MaxIdrDist, c.MaxGopSize)
	}
	if uint32(c.MaxMiniGopSize) > c.MaxGopSize {
		return errors.Wrapf(ErrInvalidConfig, "MaxMiniGopSize %d must be <= MaxGopSize %d", c.MaxMiniGopSize, c.MaxGopSize)
	}
	if c.MinGopSize > c.MaxGopSize-uint32(c.MaxMiniGopSize) {
		return errors.Wrapf(ErrInvalidConfig, "MinGopSize %d must be <= MaxGopSize - MaxMiniGopSize (%d)", c.MinGopSize, c.MaxGopSize-uint32(c.MaxMiniGopSize))
	}

	if err := c.ColorFormat.Validate(); err != nil {
		return errors.Wrap(err, "config")
	}

	return nil
}
