package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
)

func testLayoutConfig() LayoutConfig {
	return LayoutConfig{
		FramesInFlight: 3,
		Alignment:      256,
		PrimitiveCount: 3,
		MeshCapacities: []uint32{4, 8},
	}
}

func TestWireSizes(t *testing.T) {
	// These sizes are consumed by the GPU; they must never drift.
	assert.Equal(t, uint64(20), metadata.DrawIndexedCommandSize)
	assert.Equal(t, uint64(1168), metadata.UniformBlockSize)
	assert.Equal(t, uint64(64), TransformSize)
}

func TestLayoutStrides(t *testing.T) {
	layout, err := NewBufferLayout(testLayoutConfig())
	require.NoError(t, err)

	// uniform 1168 + 3 commands * 20 = 1228, aligned up to 256
	assert.Equal(t, uint64(1280), layout.FrameStride())
	// (4+8) transforms * 64 = 768, already a multiple of 256
	assert.Equal(t, uint64(768), layout.TransformStride())

	assert.Equal(t, uint64(3*1280), layout.UniformIndirectBufferSize())
	assert.Equal(t, uint64(3*768), layout.TransformBufferSize())
}

func TestLayoutOffsets(t *testing.T) {
	layout, err := NewBufferLayout(testLayoutConfig())
	require.NoError(t, err)

	assert.Equal(t, uint64(0), layout.UniformOffset(0))
	assert.Equal(t, uint64(2560), layout.UniformOffset(2))
	assert.Equal(t, uint64(1280+1168), layout.IndirectOffset(1))
	assert.Equal(t, uint64(40), layout.PrimitiveIndirectOffset(2))

	assert.Equal(t, uint64(1536), layout.TransformsOffset(2))
	assert.Equal(t, uint64(0), layout.MeshTransformBase(0))
	assert.Equal(t, uint64(4*64), layout.MeshTransformBase(1))
	// frame 1 region + mesh 1 base + slot 3
	assert.Equal(t, uint64(768+256+3*64), layout.InstanceTransformOffset(1, 1, 3))
}

func TestLayoutRegionsStayInsideFrameStride(t *testing.T) {
	layout, err := NewBufferLayout(testLayoutConfig())
	require.NoError(t, err)

	for frame := uint32(0); frame < 3; frame++ {
		frameEnd := layout.FrameStride() * uint64(frame+1)
		indirectEnd := layout.IndirectOffset(frame) + layout.IndirectSize()
		assert.LessOrEqual(t, indirectEnd, frameEnd)

		transformEnd := layout.TransformsOffset(frame) + layout.TotalCapacity()*TransformSize
		assert.LessOrEqual(t, transformEnd, layout.TransformStride()*uint64(frame+1))
	}
}

func TestLayoutValidation(t *testing.T) {
	for name, mutate := range map[string]func(*LayoutConfig){
		"zero frames":         func(c *LayoutConfig) { c.FramesInFlight = 0 },
		"zero alignment":      func(c *LayoutConfig) { c.Alignment = 0 },
		"odd alignment":       func(c *LayoutConfig) { c.Alignment = 384 },
		"no primitives":       func(c *LayoutConfig) { c.PrimitiveCount = 0 },
		"no meshes":           func(c *LayoutConfig) { c.MeshCapacities = nil },
		"zero capacity":       func(c *LayoutConfig) { c.MeshCapacities = []uint32{4, 0} },
		"negative primitives": func(c *LayoutConfig) { c.PrimitiveCount = -1 },
	} {
		config := testLayoutConfig()
		mutate(&config)
		_, err := NewBufferLayout(config)
		assert.Error(t, err, name)
	}
}

func TestLayoutMatches(t *testing.T) {
	layout, err := NewBufferLayout(testLayoutConfig())
	require.NoError(t, err)

	require.NoError(t, layout.Matches(testLayoutConfig()))

	for name, mutate := range map[string]func(*LayoutConfig){
		"frames":     func(c *LayoutConfig) { c.FramesInFlight = 2 },
		"alignment":  func(c *LayoutConfig) { c.Alignment = 512 },
		"primitives": func(c *LayoutConfig) { c.PrimitiveCount = 4 },
		"mesh count": func(c *LayoutConfig) { c.MeshCapacities = []uint32{4} },
		"capacity":   func(c *LayoutConfig) { c.MeshCapacities = []uint32{4, 9} },
	} {
		config := testLayoutConfig()
		mutate(&config)
		assert.ErrorIs(t, layout.Matches(config), ErrLayoutMismatch, name)
	}
}

func TestHeadlessWriteAndFlush(t *testing.T) {
	backend, err := NewHeadlessRenderer(256)
	require.NoError(t, err)
	require.NoError(t, backend.Initialize(2, 1024, 512))

	require.NoError(t, backend.BeginFrame(0))
	require.NoError(t, backend.WriteUniformIndirect(64, []byte{1, 2, 3, 4}))
	require.NoError(t, backend.WriteTransforms(0, []byte{9, 9}))
	require.NoError(t, backend.EndFrame(0))

	assert.Equal(t, []byte{1, 2, 3, 4}, backend.UniformIndirectBytes(64, 4))
	assert.Equal(t, []byte{9, 9}, backend.TransformBytes(0, 2))
	assert.Equal(t, []metadata.MemoryRange{{Offset: 64, Size: 4}}, backend.FlushedUniformIndirect)
	assert.Equal(t, []metadata.MemoryRange{{Offset: 0, Size: 2}}, backend.FlushedTransforms)
}

func TestHeadlessRejectsBadWrites(t *testing.T) {
	backend, err := NewHeadlessRenderer(256)
	require.NoError(t, err)
	require.NoError(t, backend.Initialize(2, 128, 128))

	// writes outside a frame are a sequencing bug
	assert.Error(t, backend.WriteUniformIndirect(0, []byte{1}))

	require.NoError(t, backend.BeginFrame(0))
	assert.Error(t, backend.WriteUniformIndirect(127, []byte{1, 2}))
	assert.Error(t, backend.BeginFrame(2))

	_, err = NewHeadlessRenderer(100)
	assert.Error(t, err)
}
