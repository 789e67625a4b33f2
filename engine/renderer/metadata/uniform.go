package metadata

import (
	"unsafe"

	"github.com/spaghettifunk/ombra/engine/math"
)

/**
 * @brief Max number of light sources in the uniform block
 * @todo TODO: make configurable
 */
const MaxLights = 32

/**
 * @brief One light source as laid out inside the uniform block. The
 * trailing pad keeps each element 16-byte sized for the std140 array
 * stride. Position is taken from the owning entity's world transform.
 */
type LightSource struct {
	Position  math.Vec3
	Intensity float32
	Color     math.Vec3
	Padding   float32
}

/**
 * @brief The per-frame uniform block written at the front of each
 * frame's region in the uniform+indirect buffer. Layout must match the
 * shader block byte for byte, so fields are ordered and padded by hand.
 */
type UniformBlock struct {
	Projection     math.Mat4
	View           math.Mat4
	CameraPosition math.Vec3
	NumLights      int32
	Lights         [MaxLights]LightSource
}

/** @brief The size in bytes of the uniform block. */
const UniformBlockSize = uint64(unsafe.Sizeof(UniformBlock{}))

// Bytes reinterprets the block as its wire representation.
func (u *UniformBlock) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(u)), UniformBlockSize)
}

// NewUniformBlock assembles the block from a render packet, clamping the
// light count to MaxLights.
func NewUniformBlock(packet *RenderPacket) UniformBlock {
	block := UniformBlock{
		Projection:     packet.Projection,
		View:           packet.View,
		CameraPosition: packet.ViewPosition,
	}
	for _, light := range packet.Lights {
		if block.NumLights >= MaxLights {
			break
		}
		block.Lights[block.NumLights] = light
		block.NumLights++
	}
	return block
}
