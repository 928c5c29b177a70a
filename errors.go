/*
DESCRIPTION
  errors.go defines AEnc's error taxonomy (spec.md §7) and the NeedMoreData
  control-flow sentinel.

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

import "github.com/pkg/errors"

// Kind classifies an Error by the taxonomy of spec.md §7.
type Kind uint8

const (
	// InvalidParams indicates a parameter constraint was violated at Init.
	InvalidParams Kind = iota
	// InvalidState indicates an operation was attempted before Init or after Close.
	InvalidState
	// CapacityExceeded indicates a ref-list or evict-list overflowed its
	// fixed output capacity. Fatal for the affected frame only.
	CapacityExceeded
	// InternalInvariant indicates an unreachable state was observed (e.g.
	// an Undef frame reaching the emitter). Fatal for the affected frame only.
	InternalInvariant
)

func (k Kind) String() string {
	switch k {
	case InvalidParams:
		return "invalid params"
	case InvalidState:
		return "invalid state"
	case CapacityExceeded:
		return "capacity exceeded"
	case InternalInvariant:
		return "internal invariant violation"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every Controller operation that can
// fail for a reason other than NeedMoreData.
type Error struct {
	Kind Kind
	err  error
}

func newError(k Kind, err error) *Error {
	return &Error{Kind: k, err: err}
}

func (e *Error) Error() string {
	return errors.Wrap(e.err, e.Kind.String()).Error()
}

func (e *Error) Unwrap() error { return e.err }

// ErrNeedMoreData is returned by ProcessFrame when the output queue has
// nothing ready to emit. It is control flow, not an error (spec.md §7): the
// host should submit more frames.
var ErrNeedMoreData = errors.New("aenc: need more data")
