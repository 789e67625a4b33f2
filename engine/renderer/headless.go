package renderer

import (
	"fmt"

	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
)

// HeadlessRenderer is an in-memory backend. It mirrors the write and
// flush behaviour of the device backends against plain byte slices, which
// makes buffer contents inspectable. Used by tests and when running
// without a GPU.
type HeadlessRenderer struct {
	alignment      uint64
	framesInFlight uint32

	uniformIndirect []byte
	transforms      []byte

	// ranges written since the last BeginFrame
	pendingUniformIndirect []metadata.MemoryRange
	pendingTransforms      []metadata.MemoryRange

	// every range flushed by EndFrame, in flush order
	FlushedUniformIndirect []metadata.MemoryRange
	FlushedTransforms      []metadata.MemoryRange

	frameOpen bool
}

// NewHeadlessRenderer creates a backend with the given offset alignment,
// standing in for a device limit. Must be a power of two.
func NewHeadlessRenderer(alignment uint64) (*HeadlessRenderer, error) {
	if !metadata.IsPowerOfTwo(alignment) {
		err := fmt.Errorf("headless renderer alignment %d must be a positive power of two", alignment)
		core.LogError(err.Error())
		return nil, err
	}
	return &HeadlessRenderer{alignment: alignment}, nil
}

func (h *HeadlessRenderer) Initialize(framesInFlight uint32, uniformIndirectSize, transformSize uint64) error {
	if framesInFlight == 0 {
		err := fmt.Errorf("headless renderer requires at least one frame in flight")
		core.LogError(err.Error())
		return err
	}
	h.framesInFlight = framesInFlight
	h.uniformIndirect = make([]byte, uniformIndirectSize)
	h.transforms = make([]byte, transformSize)
	core.LogDebug("headless renderer initialized: %d frames, %d+%d bytes", framesInFlight, uniformIndirectSize, transformSize)
	return nil
}

func (h *HeadlessRenderer) Shutdown() error {
	h.uniformIndirect = nil
	h.transforms = nil
	return nil
}

func (h *HeadlessRenderer) Alignment() uint64 {
	return h.alignment
}

func (h *HeadlessRenderer) BeginFrame(slot uint32) error {
	if slot >= h.framesInFlight {
		err := fmt.Errorf("begin frame: slot %d out of range, %d frames in flight", slot, h.framesInFlight)
		core.LogError(err.Error())
		return err
	}
	h.pendingUniformIndirect = h.pendingUniformIndirect[:0]
	h.pendingTransforms = h.pendingTransforms[:0]
	h.frameOpen = true
	return nil
}

func (h *HeadlessRenderer) WriteUniformIndirect(offset uint64, data []byte) error {
	return h.write(h.uniformIndirect, &h.pendingUniformIndirect, offset, data)
}

func (h *HeadlessRenderer) WriteTransforms(offset uint64, data []byte) error {
	return h.write(h.transforms, &h.pendingTransforms, offset, data)
}

func (h *HeadlessRenderer) write(buffer []byte, pending *[]metadata.MemoryRange, offset uint64, data []byte) error {
	if !h.frameOpen {
		err := fmt.Errorf("buffer write outside of a frame")
		core.LogError(err.Error())
		return err
	}
	if offset+uint64(len(data)) > uint64(len(buffer)) {
		err := fmt.Errorf("buffer write out of bounds: offset %d size %d exceeds %d", offset, len(data), len(buffer))
		core.LogError(err.Error())
		return err
	}
	copy(buffer[offset:], data)
	*pending = append(*pending, metadata.MemoryRange{Offset: offset, Size: uint64(len(data))})
	return nil
}

func (h *HeadlessRenderer) EndFrame(slot uint32) error {
	if slot >= h.framesInFlight {
		err := fmt.Errorf("end frame: slot %d out of range, %d frames in flight", slot, h.framesInFlight)
		core.LogError(err.Error())
		return err
	}
	if !h.frameOpen {
		err := fmt.Errorf("end frame without begin frame")
		core.LogError(err.Error())
		return err
	}
	h.FlushedUniformIndirect = append(h.FlushedUniformIndirect, h.pendingUniformIndirect...)
	h.FlushedTransforms = append(h.FlushedTransforms, h.pendingTransforms...)
	h.frameOpen = false
	return nil
}

// UniformIndirectBytes exposes a region of the uniform+indirect buffer.
func (h *HeadlessRenderer) UniformIndirectBytes(offset, size uint64) []byte {
	return h.uniformIndirect[offset : offset+size]
}

// TransformBytes exposes a region of the transform buffer.
func (h *HeadlessRenderer) TransformBytes(offset, size uint64) []byte {
	return h.transforms[offset : offset+size]
}
