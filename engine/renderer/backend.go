package renderer

// RendererBackend owns the two host-visible streaming buffers the layout
// planner addresses. Implementations synchronize per frame slot: a write
// for slot f must only happen between BeginFrame(f) and EndFrame(f), and
// BeginFrame blocks until the device has released that slot's regions.
type RendererBackend interface {
	// Initialize builds the per-frame resources: one fence per frame
	// slot and the two buffers at the given total sizes.
	Initialize(framesInFlight uint32, uniformIndirectSize, transformSize uint64) error
	Shutdown() error

	// Alignment reports the device's minimum uniform buffer offset
	// alignment. Valid before Initialize so the caller can plan sizes.
	Alignment() uint64

	BeginFrame(slot uint32) error
	// WriteUniformIndirect copies data into the uniform+indirect buffer.
	WriteUniformIndirect(offset uint64, data []byte) error
	// WriteTransforms copies data into the instance transform buffer.
	WriteTransforms(offset uint64, data []byte) error
	// EndFrame flushes every range written since BeginFrame and hands
	// the slot to the device.
	EndFrame(slot uint32) error
}
