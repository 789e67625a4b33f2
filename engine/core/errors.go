package core

import (
	"errors"
)

var (
	// ErrRendererBooting signals that frame resources are being rebuilt
	// (e.g. after a resize) and the current frame should be skipped.
	ErrRendererBooting = errors.New("renderer resources rebuilding, booting")
	ErrUnknown         = errors.New("unknown")
)
