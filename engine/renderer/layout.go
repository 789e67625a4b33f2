package renderer

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/math"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
)

// ErrLayoutMismatch means the layout was asked to address a scene shape
// different from the one its resources were planned for. The scene's
// static bounds changed, so the buffers must be rebuilt explicitly;
// offsets are never silently recomputed mid-flight.
var ErrLayoutMismatch = fmt.Errorf("buffer layout mismatch")

/** @brief The size in bytes of one instance transform (a column-major Mat4). */
const TransformSize = uint64(unsafe.Sizeof(math.Mat4{}))

// LayoutConfig is the scene shape the planner addresses: one entry per
// registered mesh, in mesh id order.
type LayoutConfig struct {
	/** @brief The number of frames that may be in flight simultaneously. */
	FramesInFlight uint32
	/** @brief The device's minimum uniform buffer offset alignment. Power of two. */
	Alignment uint64
	/** @brief The total number of primitives across all meshes. */
	PrimitiveCount int
	/** @brief The fixed instance capacity of each mesh, in mesh id order. */
	MeshCapacities []uint32
}

// BufferLayout plans the byte layout of the two per-frame buffers:
//
//	uniform+indirect:  [uniform block | indirect commands | pad]  x frames
//	transforms:        [cap_0 + cap_1 + ... instance matrices | pad] x frames
//
// Each frame's region starts on an alignment boundary so a single buffer
// can back every frame in flight. All offset methods are pure; frame
// arguments must be below FramesInFlight and mesh/primitive arguments
// within the planned counts.
type BufferLayout struct {
	config LayoutConfig

	frameStride     uint64
	transformStride uint64

	// byte offset of each mesh's transform range within a frame region
	meshBases     []uint64
	totalCapacity uint64
}

// NewBufferLayout validates the scene shape and precomputes the strides.
func NewBufferLayout(config LayoutConfig) (*BufferLayout, error) {
	if config.FramesInFlight == 0 {
		err := fmt.Errorf("buffer layout requires at least one frame in flight")
		core.LogError(err.Error())
		return nil, err
	}
	if !metadata.IsPowerOfTwo(config.Alignment) {
		err := fmt.Errorf("buffer layout alignment %d must be a positive power of two", config.Alignment)
		core.LogError(err.Error())
		return nil, err
	}
	if config.PrimitiveCount <= 0 {
		err := fmt.Errorf("buffer layout requires at least one primitive")
		core.LogError(err.Error())
		return nil, err
	}
	if len(config.MeshCapacities) == 0 {
		err := fmt.Errorf("buffer layout requires at least one mesh")
		core.LogError(err.Error())
		return nil, err
	}

	layout := &BufferLayout{
		config:    config,
		meshBases: make([]uint64, len(config.MeshCapacities)),
	}
	layout.config.MeshCapacities = make([]uint32, len(config.MeshCapacities))
	copy(layout.config.MeshCapacities, config.MeshCapacities)

	for i, capacity := range config.MeshCapacities {
		if capacity == 0 {
			err := fmt.Errorf("buffer layout mesh index %d has zero capacity", i)
			core.LogError(err.Error())
			return nil, err
		}
		layout.meshBases[i] = layout.totalCapacity * TransformSize
		layout.totalCapacity += uint64(capacity)
	}

	layout.frameStride = metadata.GetAligned(
		metadata.UniformBlockSize+layout.IndirectSize(), config.Alignment)
	layout.transformStride = metadata.GetAligned(
		layout.totalCapacity*TransformSize, config.Alignment)
	return layout, nil
}

// Config returns the scene shape the layout was planned for.
func (l *BufferLayout) Config() LayoutConfig {
	return l.config
}

// FrameStride is the per-frame stride of the uniform+indirect buffer.
func (l *BufferLayout) FrameStride() uint64 {
	return l.frameStride
}

// TransformStride is the per-frame stride of the transform buffer.
func (l *BufferLayout) TransformStride() uint64 {
	return l.transformStride
}

// UniformIndirectBufferSize is the full size of the uniform+indirect
// buffer covering every frame in flight.
func (l *BufferLayout) UniformIndirectBufferSize() uint64 {
	return l.frameStride * uint64(l.config.FramesInFlight)
}

// TransformBufferSize is the full size of the transform buffer covering
// every frame in flight.
func (l *BufferLayout) TransformBufferSize() uint64 {
	return l.transformStride * uint64(l.config.FramesInFlight)
}

// IndirectSize is the byte size of one frame's indirect command table.
func (l *BufferLayout) IndirectSize() uint64 {
	return uint64(l.config.PrimitiveCount) * metadata.DrawIndexedCommandSize
}

// UniformOffset is where frame's uniform block starts.
func (l *BufferLayout) UniformOffset(frame uint32) uint64 {
	return l.frameStride * uint64(frame)
}

// IndirectOffset is where frame's indirect command table starts, directly
// after its uniform block.
func (l *BufferLayout) IndirectOffset(frame uint32) uint64 {
	return l.UniformOffset(frame) + metadata.UniformBlockSize
}

// PrimitiveIndirectOffset is the offset of one primitive's command
// relative to the frame's indirect table.
func (l *BufferLayout) PrimitiveIndirectOffset(primitive int) uint64 {
	return uint64(primitive) * metadata.DrawIndexedCommandSize
}

// TransformsOffset is where frame's instance transform region starts in
// the transform buffer.
func (l *BufferLayout) TransformsOffset(frame uint32) uint64 {
	return l.transformStride * uint64(frame)
}

// MeshTransformBase is the offset of a mesh's transform range relative to
// the frame's transform region. Ranges follow mesh id order, each sized
// by the mesh's fixed capacity.
func (l *BufferLayout) MeshTransformBase(meshIndex int) uint64 {
	return l.meshBases[meshIndex]
}

// InstanceTransformOffset is the absolute offset of one instance slot's
// matrix in the transform buffer.
func (l *BufferLayout) InstanceTransformOffset(frame uint32, meshIndex int, slot uint32) uint64 {
	return l.TransformsOffset(frame) + l.meshBases[meshIndex] + uint64(slot)*TransformSize
}

// TotalCapacity is the summed instance capacity across all meshes.
func (l *BufferLayout) TotalCapacity() uint64 {
	return l.totalCapacity
}

// Matches verifies that the layout still addresses the given scene shape.
// Any difference is fatal for the tick: the caller must rebuild resources
// rather than write through stale offsets.
func (l *BufferLayout) Matches(current LayoutConfig) error {
	mismatch := ""
	switch {
	case current.FramesInFlight != l.config.FramesInFlight:
		mismatch = fmt.Sprintf("frames in flight %d != %d", current.FramesInFlight, l.config.FramesInFlight)
	case current.Alignment != l.config.Alignment:
		mismatch = fmt.Sprintf("alignment %d != %d", current.Alignment, l.config.Alignment)
	case current.PrimitiveCount != l.config.PrimitiveCount:
		mismatch = fmt.Sprintf("primitive count %d != %d", current.PrimitiveCount, l.config.PrimitiveCount)
	case len(current.MeshCapacities) != len(l.config.MeshCapacities):
		mismatch = fmt.Sprintf("mesh count %d != %d", len(current.MeshCapacities), len(l.config.MeshCapacities))
	default:
		for i, capacity := range current.MeshCapacities {
			if capacity != l.config.MeshCapacities[i] {
				mismatch = fmt.Sprintf("mesh index %d capacity %d != %d", i, capacity, l.config.MeshCapacities[i])
				break
			}
		}
	}
	if mismatch != "" {
		err := fmt.Errorf("%s: %w", mismatch, ErrLayoutMismatch)
		core.LogError(err.Error())
		return err
	}
	return nil
}
