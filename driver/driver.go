// Package driver is the boundary between the engine and the explicit graphics API.
//
// Everything above this package talks to the GPU only through these interfaces. Values
// mirror their Vulkan counterparts numerically so a backend can convert them with plain
// casts. The vkng subpackage binds them to vkngwrapper; drivertest provides an in-memory
// implementation for tests.
package driver

import (
	"time"
	"unsafe"
)

type Loader interface {
	AvailableExtensions() ([]ExtensionProperties, error)
	AvailableLayers() ([]LayerProperties, error)
	CreateInstance(info InstanceCreateInfo) (Instance, error)
}

type Instance interface {
	EnumeratePhysicalDevices() ([]PhysicalDevice, error)
	CreateDebugMessenger(info DebugMessengerCreateInfo) (DebugMessenger, error)
	Destroy()
}

type DebugMessenger interface {
	Destroy()
}

type Surface interface {
	Capabilities(device PhysicalDevice) (SurfaceCapabilities, error)
	Formats(device PhysicalDevice) ([]SurfaceFormat, error)
	PresentModes(device PhysicalDevice) ([]PresentMode, error)
	SupportsPresent(device PhysicalDevice, queueFamilyIndex int) (bool, error)
	Destroy()
}

type PhysicalDevice interface {
	Properties() (PhysicalDeviceProperties, error)
	Features() PhysicalDeviceFeatures
	MemoryProperties() PhysicalDeviceMemoryProperties
	QueueFamilyProperties() []QueueFamilyProperties
	AvailableExtensions() ([]ExtensionProperties, error)
	CreateDevice(info DeviceCreateInfo) (Device, error)
}

type Device interface {
	Queue(queueFamilyIndex, queueIndex int) Queue
	WaitIdle() error

	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
	CreateImageView(info ImageViewCreateInfo) (ImageView, error)
	CreateRenderPass(info RenderPassCreateInfo) (RenderPass, error)
	CreateBuffer(info BufferCreateInfo) (Buffer, error)
	AllocateMemory(size int, memoryTypeIndex int) (DeviceMemory, error)
	CreateCommandPool(queueFamilyIndex int, flags CommandPoolCreateFlags) (CommandPool, error)
	CreateSemaphore() (Semaphore, error)

	Destroy()
}

type Queue interface {
	Submit(infos []SubmitInfo) error
	WaitIdle() error
	// Present returns the presentation result alongside any error so callers can react to
	// out-of-date and suboptimal swapchains.
	Present(info PresentInfo) (Result, error)
}

type Swapchain interface {
	Images() ([]Image, error)
	AcquireNextImage(timeout time.Duration, semaphore Semaphore) (int, Result, error)
	Destroy()
}

// Image is an image handle. Swapchain images are owned by their swapchain.
type Image interface{}

type ImageView interface {
	Destroy()
}

type RenderPass interface {
	Destroy()
}

type Buffer interface {
	MemoryRequirements() MemoryRequirements
	BindMemory(memory DeviceMemory, offset int) error
	Destroy()
}

type DeviceMemory interface {
	Map(offset, size int) (unsafe.Pointer, error)
	Unmap()
	Flush(offset, size int) error
	Free()
}

type CommandPool interface {
	AllocateCommandBuffers(level CommandBufferLevel, count int) ([]CommandBuffer, error)
	FreeCommandBuffers(buffers []CommandBuffer)
	Destroy()
}

type CommandBuffer interface {
	Begin(usage CommandBufferUsageFlags) error
	End() error
	CmdCopyBuffer(src, dst Buffer, regions []BufferCopy) error
	CmdCopyBufferToImage(src Buffer, dst Image, layout ImageLayout, regions []BufferImageCopy) error
}

type Semaphore interface {
	Destroy()
}
