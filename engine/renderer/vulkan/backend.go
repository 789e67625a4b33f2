package vulkan

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/platform"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
)

// VulkanRenderer owns the instance, the device and the two per-frame ring
// buffers the preparation pass writes into. It never builds a swapchain or
// pipeline; recorded command submission stays with the embedding renderer.
type VulkanRenderer struct {
	platform    *platform.Platform
	FrameNumber uint64
	context     *VulkanContext
	config      *metadata.RendererBackendConfig

	framesInFlight uint32

	uniformIndirectBuffer *VulkanBuffer
	transformBuffer       *VulkanBuffer

	pendingUniformIndirect []metadata.MemoryRange
	pendingTransforms      []metadata.MemoryRange
	frameOpen              bool

	debug bool
}

// New boots the Vulkan loader, instance and device so that Alignment is
// answerable before any buffer exists. Buffer creation happens in Initialize
// once the layout has been planned against the reported alignment.
func New(p *platform.Platform, config *metadata.RendererBackendConfig) (*VulkanRenderer, error) {
	vr := &VulkanRenderer{
		platform:    p,
		FrameNumber: 0,
		config:      config,
		context: &VulkanContext{
			Allocator: nil,
			Device:    &VulkanDevice{GraphicsQueueIndex: -1},
		},
		debug: true,
	}

	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("GetInstanceProcAddress is nil")
		core.LogError(err.Error())
		return nil, err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return nil, err
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(config.ApplicationName),
		PEngineName:        VulkanSafeString("Ombra Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, vr.platform.GetRequiredExtensionNames()...)

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}

	if vr.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		core.LogInfo("Required extensions:")
		for i := 0; i < len(requiredExtensions); i++ {
			core.LogInfo(requiredExtensions[i])
		}
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// Validation layers should only be enabled on non-release builds.
	requiredValidationLayerNames := []string{}
	if vr.debug {
		core.LogInfo("Validation layers enabled. Enumerating...")
		requiredValidationLayerNames = []string{"VK_LAYER_KHRONOS_validation"}

		if runtime.GOOS == "darwin" {
			createInfo.Flags |= 1
		}

		var availableLayerCount uint32
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
			err := fmt.Errorf("failed to enumerate instance layers with %s", VulkanResultString(res, true))
			core.LogError(err.Error())
			return nil, err
		}
		availableLayers := make([]vk.LayerProperties, availableLayerCount)
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
			err := fmt.Errorf("failed to enumerate instance layers with %s", VulkanResultString(res, true))
			core.LogError(err.Error())
			return nil, err
		}

		for i := range requiredValidationLayerNames {
			found := false
			for j := range availableLayers {
				availableLayers[j].Deref()
				end := FindFirstZeroInByteArray(availableLayers[j].LayerName[:])
				if requiredValidationLayerNames[i] == vk.ToString(availableLayers[j].LayerName[:end+1]) {
					found = true
					break
				}
			}
			if !found {
				err := fmt.Errorf("required validation layer is missing: %s", requiredValidationLayerNames[i])
				core.LogError(err.Error())
				return nil, err
			}
		}
		core.LogInfo("All required validation layers are present.")
	}

	createInfo.EnabledLayerCount = uint32(len(requiredValidationLayerNames))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredValidationLayerNames)

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		err := fmt.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.LogInfo("Vulkan Instance created.")

	if vr.debug {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
			PNext:       nil,
		}

		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogError("vk.CreateDebugReportCallback failed with %s", err)
			return nil, err
		}
		vr.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	if err := DeviceCreate(vr.context); err != nil {
		core.LogError("Failed to create device!")
		return nil, err
	}

	return vr, nil
}

func (vr *VulkanRenderer) Initialize(framesInFlight uint32, uniformIndirectSize, transformSize uint64) error {
	if framesInFlight == 0 {
		err := fmt.Errorf("frames in flight must be positive")
		core.LogError(err.Error())
		return err
	}
	vr.framesInFlight = framesInFlight

	// Fences start signaled so the first pass through each slot does not wait.
	vr.context.InFlightFences = make([]*VulkanFence, framesInFlight)
	for i := uint32(0); i < framesInFlight; i++ {
		fence, err := NewFence(vr.context, true)
		if err != nil {
			return err
		}
		vr.context.InFlightFences[i] = fence
	}

	uib, err := NewBuffer(vr.context, metadata.RENDERBUFFER_TYPE_UNIFORM_INDIRECT, uniformIndirectSize)
	if err != nil {
		return err
	}
	vr.uniformIndirectBuffer = uib

	tb, err := NewBuffer(vr.context, metadata.RENDERBUFFER_TYPE_VERTEX, transformSize)
	if err != nil {
		return err
	}
	vr.transformBuffer = tb

	core.LogInfo("Vulkan renderer initialized: %d frames, %d B uniform+indirect, %d B transforms.",
		framesInFlight, uniformIndirectSize, transformSize)
	return nil
}

func (vr *VulkanRenderer) Shutdown() error {
	if vr.context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)
	}

	// Destroy in the opposite order of creation.
	if vr.transformBuffer != nil {
		vr.transformBuffer.Destroy(vr.context)
		vr.transformBuffer = nil
	}
	if vr.uniformIndirectBuffer != nil {
		vr.uniformIndirectBuffer.Destroy(vr.context)
		vr.uniformIndirectBuffer = nil
	}

	for i := range vr.context.InFlightFences {
		vr.context.InFlightFences[i].Destroy(vr.context)
	}
	vr.context.InFlightFences = nil

	DeviceDestroy(vr.context)

	if vr.debug && vr.context.debugMessenger != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugMessenger, vr.context.Allocator)
	}

	if vr.context.Instance != nil {
		vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)
		vr.context.Instance = nil
	}
	return nil
}

// Alignment reports the device's minimum uniform buffer offset alignment.
// The layout planner rounds every per-frame stride to this.
func (vr *VulkanRenderer) Alignment() uint64 {
	return uint64(vr.context.Device.Properties.Limits.MinUniformBufferOffsetAlignment)
}

func (vr *VulkanRenderer) BeginFrame(slot uint32) error {
	if slot >= vr.framesInFlight {
		err := fmt.Errorf("frame slot %d out of range (%d in flight)", slot, vr.framesInFlight)
		core.LogError(err.Error())
		return err
	}

	// The GPU may still be reading this slot's regions from the submission
	// that used them framesInFlight ticks ago. Wait it out before writing.
	fence := vr.context.InFlightFences[slot]
	if err := fence.Wait(vr.context, math.MaxUint64); err != nil {
		return err
	}
	if err := fence.Reset(vr.context); err != nil {
		return err
	}

	vr.pendingUniformIndirect = vr.pendingUniformIndirect[:0]
	vr.pendingTransforms = vr.pendingTransforms[:0]
	vr.frameOpen = true
	return nil
}

func (vr *VulkanRenderer) WriteUniformIndirect(offset uint64, data []byte) error {
	if !vr.frameOpen {
		err := fmt.Errorf("write outside of an open frame")
		core.LogError(err.Error())
		return err
	}
	if err := vr.uniformIndirectBuffer.Write(offset, data); err != nil {
		return err
	}
	vr.pendingUniformIndirect = append(vr.pendingUniformIndirect, metadata.MemoryRange{Offset: offset, Size: uint64(len(data))})
	return nil
}

func (vr *VulkanRenderer) WriteTransforms(offset uint64, data []byte) error {
	if !vr.frameOpen {
		err := fmt.Errorf("write outside of an open frame")
		core.LogError(err.Error())
		return err
	}
	if err := vr.transformBuffer.Write(offset, data); err != nil {
		return err
	}
	vr.pendingTransforms = append(vr.pendingTransforms, metadata.MemoryRange{Offset: offset, Size: uint64(len(data))})
	return nil
}

func (vr *VulkanRenderer) EndFrame(slot uint32) error {
	if !vr.frameOpen {
		err := fmt.Errorf("EndFrame without a matching BeginFrame")
		core.LogError(err.Error())
		return err
	}
	if slot >= vr.framesInFlight {
		err := fmt.Errorf("frame slot %d out of range (%d in flight)", slot, vr.framesInFlight)
		core.LogError(err.Error())
		return err
	}

	if err := vr.uniformIndirectBuffer.Flush(vr.context, vr.pendingUniformIndirect); err != nil {
		return err
	}
	if err := vr.transformBuffer.Flush(vr.context, vr.pendingTransforms); err != nil {
		return err
	}

	// An empty submission whose only job is to signal the slot fence once
	// everything submitted so far has drained. The embedding renderer's own
	// command buffers were queued before this point.
	submitInfo := vk.SubmitInfo{
		SType: vk.StructureTypeSubmitInfo,
	}
	if res := vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vr.context.InFlightFences[slot].Handle); !VulkanResultIsSuccess(res) {
		err := fmt.Errorf("queue submit failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}

	vr.frameOpen = false
	vr.FrameNumber++
	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
