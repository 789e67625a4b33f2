package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
)

// VulkanBuffer is a host-visible buffer that stays persistently mapped for
// its whole lifetime. Written ranges are flushed explicitly unless the
// backing memory type is host-coherent.
type VulkanBuffer struct {
	Handle    vk.Buffer
	Memory    vk.DeviceMemory
	TotalSize uint64
	Usage     vk.BufferUsageFlags
	Mapped    []byte

	allocationSize uint64
	hostCoherent   bool
}

func bufferUsageFromType(bufferType metadata.RenderBufferType) (vk.BufferUsageFlags, error) {
	switch bufferType {
	case metadata.RENDERBUFFER_TYPE_VERTEX:
		return vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), nil
	case metadata.RENDERBUFFER_TYPE_INDEX:
		return vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit), nil
	case metadata.RENDERBUFFER_TYPE_UNIFORM_INDIRECT:
		return vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit | vk.BufferUsageIndirectBufferBit), nil
	case metadata.RENDERBUFFER_TYPE_STAGING:
		return vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), nil
	default:
		return 0, fmt.Errorf("unsupported buffer type %d", bufferType)
	}
}

func NewBuffer(context *VulkanContext, bufferType metadata.RenderBufferType, size uint64) (*VulkanBuffer, error) {
	usage, err := bufferUsageFromType(bufferType)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	buffer := &VulkanBuffer{
		TotalSize: size,
		Usage:     usage,
	}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create buffer with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Handle = handle

	memoryRequirements := vk.MemoryRequirements{}
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &memoryRequirements)
	memoryRequirements.Deref()
	buffer.allocationSize = uint64(memoryRequirements.Size)

	// Prefer coherent host memory so writes need no flush. Fall back to
	// plain host-visible and flush written ranges at the end of the frame.
	buffer.hostCoherent = true
	memoryIndex := context.FindMemoryIndex(
		memoryRequirements.MemoryTypeBits,
		uint32(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if memoryIndex == -1 {
		buffer.hostCoherent = false
		memoryIndex = context.FindMemoryIndex(
			memoryRequirements.MemoryTypeBits,
			uint32(vk.MemoryPropertyHostVisibleBit))
	}
	if memoryIndex == -1 {
		buffer.Destroy(context)
		err := fmt.Errorf("no host-visible memory type for buffer")
		core.LogError(err.Error())
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		buffer.Destroy(context)
		err := fmt.Errorf("failed to allocate buffer memory with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		buffer.Destroy(context)
		err := fmt.Errorf("failed to bind buffer memory with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}

	var data unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, buffer.Memory, 0, vk.DeviceSize(size), 0, &data); res != vk.Success {
		buffer.Destroy(context)
		err := fmt.Errorf("failed to map buffer memory with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	buffer.Mapped = unsafe.Slice((*byte)(data), size)

	return buffer, nil
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	if b.Mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
		b.Mapped = nil
	}
	if b.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
		b.Memory = nil
	}
	if b.Handle != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
		b.Handle = nil
	}
	b.TotalSize = 0
}

func (b *VulkanBuffer) Write(offset uint64, data []byte) error {
	if b.Mapped == nil {
		err := fmt.Errorf("write to unmapped buffer")
		core.LogError(err.Error())
		return err
	}
	if offset+uint64(len(data)) > b.TotalSize {
		err := fmt.Errorf("buffer write out of range: offset %d size %d exceeds %d", offset, len(data), b.TotalSize)
		core.LogError(err.Error())
		return err
	}
	copy(b.Mapped[offset:offset+uint64(len(data))], data)
	return nil
}

// Flush makes the given written ranges visible to the device. Ranges are
// widened to the non-coherent atom size; a coherent buffer needs nothing.
func (b *VulkanBuffer) Flush(context *VulkanContext, ranges []metadata.MemoryRange) error {
	if b.hostCoherent || len(ranges) == 0 {
		return nil
	}

	atomSize := uint64(context.Device.Properties.Limits.NonCoherentAtomSize)
	mappedRanges := make([]vk.MappedMemoryRange, 0, len(ranges))
	for _, r := range ranges {
		aligned := metadata.GetAlignedRange(r.Offset, r.Size, atomSize)
		size := aligned.Size
		if aligned.Offset+size > b.allocationSize {
			size = b.allocationSize - aligned.Offset
		}
		mappedRanges = append(mappedRanges, vk.MappedMemoryRange{
			SType:  vk.StructureTypeMappedMemoryRange,
			Memory: b.Memory,
			Offset: vk.DeviceSize(aligned.Offset),
			Size:   vk.DeviceSize(size),
		})
	}

	if res := vk.FlushMappedMemoryRanges(context.Device.LogicalDevice, uint32(len(mappedRanges)), mappedRanges); res != vk.Success {
		err := fmt.Errorf("failed to flush mapped ranges with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	return nil
}
