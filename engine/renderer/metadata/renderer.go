package metadata

import (
	"unsafe"

	"github.com/spaghettifunk/ombra/engine/math"
)

type RendererBackendConfig struct {
	/** @brief The name of the application */
	ApplicationName string
	/** @brief The number of frames that may be in flight simultaneously. */
	FramesInFlight uint32
}

type RenderBufferType int

const (
	/** @brief Buffer use is unknown. Default, but usually invalid. */
	RENDERBUFFER_TYPE_UNKNOWN RenderBufferType = iota
	/** @brief Buffer is used for vertex data, including per-instance transforms. */
	RENDERBUFFER_TYPE_VERTEX
	/** @brief Buffer is used for index data. */
	RENDERBUFFER_TYPE_INDEX
	/** @brief Buffer holds per-frame uniforms followed by indirect draw commands. */
	RENDERBUFFER_TYPE_UNIFORM_INDIRECT
	/** @brief Buffer is used for staging purposes (i.e. from host-visible to device-local memory) */
	RENDERBUFFER_TYPE_STAGING
)

/**
 * @brief A GPU-consumable record describing one instanced, indexed draw.
 * Field order and widths follow VkDrawIndexedIndirectCommand exactly; the
 * struct is written to the indirect region of the uniform+indirect buffer
 * and read by the device, never by shaders.
 */
type DrawIndexedCommand struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	VertexOffset  int32
	FirstInstance uint32
}

/** @brief The size in bytes of one indirect draw command. */
const DrawIndexedCommandSize = uint64(unsafe.Sizeof(DrawIndexedCommand{}))

// Bytes reinterprets the command as its wire representation.
func (c *DrawIndexedCommand) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(c)), DrawIndexedCommandSize)
}

/**
 * @brief A structure which is generated by the application and sent once
 * to the renderer to render a given frame. Carries the per-frame global
 * state the uniform block is built from.
 */
type RenderPacket struct {
	DeltaTime float64
	/** @brief The current projection matrix. */
	Projection math.Mat4
	/** @brief The current view matrix. */
	View math.Mat4
	/** @brief The current camera position in world space. */
	ViewPosition math.Vec3
	/** @brief The lights active this frame, at most MaxLights. */
	Lights []LightSource
}

/** @brief A range, typically of memory */
type MemoryRange struct {
	/** @brief The Offset in bytes. */
	Offset uint64
	/** @brief The size in bytes. */
	Size uint64
}
