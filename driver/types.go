package driver

import (
	"encoding/binary"
	"fmt"
	"time"
)

// ByteOrder is the byte order used when encoding host data into mapped device memory.
// Backends overwrite it with the order their bindings use.
var ByteOrder binary.ByteOrder = binary.LittleEndian

// NoTimeout blocks indefinitely on acquire operations.
const NoTimeout = time.Duration(-1)

// WholeSize addresses the remainder of a buffer or memory object from the given offset.
const WholeSize = -1

// UndefinedExtent is the extent dimension a surface reports when the swapchain extent
// is determined by the swapchain rather than by the surface.
const UndefinedExtent = -1

// SubpassExternal refers to the commands before or after the render pass.
const SubpassExternal = -1

type Version uint32

func CreateVersion(major, minor, patch uint32) Version {
	return Version((major << 22) | (minor << 12) | patch)
}

func (v Version) Major() uint32 { return uint32(v) >> 22 }
func (v Version) Minor() uint32 { return (uint32(v) >> 12) & 0x3ff }
func (v Version) Patch() uint32 { return uint32(v) & 0xfff }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

var (
	Vulkan1_0 = CreateVersion(1, 0, 0)
	Vulkan1_1 = CreateVersion(1, 1, 0)
	Vulkan1_2 = CreateVersion(1, 2, 0)
)

type Result int32

const (
	Success                   Result = 0
	NotReady                  Result = 1
	Timeout                   Result = 2
	Incomplete                Result = 5
	ErrorOutOfHostMemory      Result = -1
	ErrorOutOfDeviceMemory    Result = -2
	ErrorInitializationFailed Result = -3
	ErrorDeviceLost           Result = -4
	ErrorMemoryMapFailed      Result = -5
	ErrorLayerNotPresent      Result = -6
	ErrorExtensionNotPresent  Result = -7
	ErrorFeatureNotPresent    Result = -8
	ErrorIncompatibleDriver   Result = -9
	ErrorSurfaceLost          Result = -1000000000
	Suboptimal                Result = 1000001003
	ErrorOutOfDate            Result = -1000001004
)

var resultNames = map[Result]string{
	Success:                   "VK_SUCCESS",
	NotReady:                  "VK_NOT_READY",
	Timeout:                   "VK_TIMEOUT",
	Incomplete:                "VK_INCOMPLETE",
	ErrorOutOfHostMemory:      "VK_ERROR_OUT_OF_HOST_MEMORY",
	ErrorOutOfDeviceMemory:    "VK_ERROR_OUT_OF_DEVICE_MEMORY",
	ErrorInitializationFailed: "VK_ERROR_INITIALIZATION_FAILED",
	ErrorDeviceLost:           "VK_ERROR_DEVICE_LOST",
	ErrorMemoryMapFailed:      "VK_ERROR_MEMORY_MAP_FAILED",
	ErrorLayerNotPresent:      "VK_ERROR_LAYER_NOT_PRESENT",
	ErrorExtensionNotPresent:  "VK_ERROR_EXTENSION_NOT_PRESENT",
	ErrorFeatureNotPresent:    "VK_ERROR_FEATURE_NOT_PRESENT",
	ErrorIncompatibleDriver:   "VK_ERROR_INCOMPATIBLE_DRIVER",
	ErrorSurfaceLost:          "VK_ERROR_SURFACE_LOST_KHR",
	Suboptimal:                "VK_SUBOPTIMAL_KHR",
	ErrorOutOfDate:            "VK_ERROR_OUT_OF_DATE_KHR",
}

func (r Result) String() string {
	name, ok := resultNames[r]
	if !ok {
		return fmt.Sprintf("VkResult(%d)", int32(r))
	}
	return name
}

// Format values match VkFormat.
type Format int32

const (
	FormatUndefined                  Format = 0
	FormatR8G8B8A8UnsignedNormalized Format = 37
	FormatR8G8B8A8SRGB               Format = 43
	FormatB8G8R8A8UnsignedNormalized Format = 44
	FormatB8G8R8A8SRGB               Format = 50
	FormatD32SignedFloat             Format = 126
)

type ColorSpace int32

const (
	ColorSpaceSRGBNonlinear ColorSpace = 0
)

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "Immediate"
	case PresentModeMailbox:
		return "Mailbox"
	case PresentModeFIFO:
		return "FIFO"
	case PresentModeFIFORelaxed:
		return "FIFO Relaxed"
	}
	return fmt.Sprintf("PresentMode(%d)", int32(m))
}

type Extent2D struct {
	Width  int
	Height int
}

type SurfaceTransformFlags int32

const (
	SurfaceTransformIdentity SurfaceTransformFlags = 1
)

type SurfaceCapabilities struct {
	MinImageCount    int
	MaxImageCount    int
	CurrentExtent    Extent2D
	MinImageExtent   Extent2D
	MaxImageExtent   Extent2D
	CurrentTransform SurfaceTransformFlags
}

type SharingMode int32

const (
	SharingModeExclusive  SharingMode = 0
	SharingModeConcurrent SharingMode = 1
)

type PhysicalDeviceType int32

const (
	PhysicalDeviceTypeOther         PhysicalDeviceType = 0
	PhysicalDeviceTypeIntegratedGPU PhysicalDeviceType = 1
	PhysicalDeviceTypeDiscreteGPU   PhysicalDeviceType = 2
	PhysicalDeviceTypeVirtualGPU    PhysicalDeviceType = 3
	PhysicalDeviceTypeCPU           PhysicalDeviceType = 4
)

func (t PhysicalDeviceType) String() string {
	switch t {
	case PhysicalDeviceTypeIntegratedGPU:
		return "Integrated GPU"
	case PhysicalDeviceTypeDiscreteGPU:
		return "Discrete GPU"
	case PhysicalDeviceTypeVirtualGPU:
		return "Virtual GPU"
	case PhysicalDeviceTypeCPU:
		return "CPU"
	}
	return "Other"
}

type QueueFlags int32

const (
	QueueGraphics      QueueFlags = 0x1
	QueueCompute       QueueFlags = 0x2
	QueueTransfer      QueueFlags = 0x4
	QueueSparseBinding QueueFlags = 0x8
)

type QueueFamilyProperties struct {
	QueueFlags QueueFlags
	QueueCount int
}

type MemoryPropertyFlags int32

const (
	MemoryPropertyDeviceLocal     MemoryPropertyFlags = 0x1
	MemoryPropertyHostVisible     MemoryPropertyFlags = 0x2
	MemoryPropertyHostCoherent    MemoryPropertyFlags = 0x4
	MemoryPropertyHostCached      MemoryPropertyFlags = 0x8
	MemoryPropertyLazilyAllocated MemoryPropertyFlags = 0x10
)

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     int
}

type MemoryHeap struct {
	Size        int
	DeviceLocal bool
}

type PhysicalDeviceMemoryProperties struct {
	MemoryTypes []MemoryType
	MemoryHeaps []MemoryHeap
}

type PhysicalDeviceLimits struct {
	MaxImageDimension2D      int
	MaxMemoryAllocationCount int
	NonCoherentAtomSize      int
}

type PhysicalDeviceProperties struct {
	Name          string
	Type          PhysicalDeviceType
	APIVersion    Version
	DriverVersion Version
	VendorID      uint32
	DeviceID      uint32
	Limits        PhysicalDeviceLimits
}

// PhysicalDeviceFeatures is the subset of device features the engine negotiates.
type PhysicalDeviceFeatures struct {
	GeometryShader     bool
	TessellationShader bool
	SamplerAnisotropy  bool
	SampleRateShading  bool
	FillModeNonSolid   bool
	WideLines          bool
}

type ExtensionProperties struct {
	Name        string
	SpecVersion uint32
}

type LayerProperties struct {
	Name                  string
	SpecVersion           uint32
	ImplementationVersion uint32
	Description           string
}

type BufferUsageFlags int32

const (
	BufferUsageTransferSrc  BufferUsageFlags = 0x1
	BufferUsageTransferDst  BufferUsageFlags = 0x2
	BufferUsageUniformTexel BufferUsageFlags = 0x4
	BufferUsageStorageTexel BufferUsageFlags = 0x8
	BufferUsageUniform      BufferUsageFlags = 0x10
	BufferUsageStorage      BufferUsageFlags = 0x20
	BufferUsageIndex        BufferUsageFlags = 0x40
	BufferUsageVertex       BufferUsageFlags = 0x80
	BufferUsageIndirect     BufferUsageFlags = 0x100
)

type ImageUsageFlags int32

const (
	ImageUsageTransferSrc     ImageUsageFlags = 0x1
	ImageUsageTransferDst     ImageUsageFlags = 0x2
	ImageUsageSampled         ImageUsageFlags = 0x4
	ImageUsageColorAttachment ImageUsageFlags = 0x10
)

type ImageLayout int32

const (
	ImageLayoutUndefined              ImageLayout = 0
	ImageLayoutGeneral                ImageLayout = 1
	ImageLayoutColorAttachmentOptimal ImageLayout = 2
	ImageLayoutShaderReadOnlyOptimal  ImageLayout = 5
	ImageLayoutTransferSrcOptimal     ImageLayout = 6
	ImageLayoutTransferDstOptimal     ImageLayout = 7
	ImageLayoutPresentSrc             ImageLayout = 1000001002
)

type AttachmentLoadOp int32

const (
	AttachmentLoadOpLoad     AttachmentLoadOp = 0
	AttachmentLoadOpClear    AttachmentLoadOp = 1
	AttachmentLoadOpDontCare AttachmentLoadOp = 2
)

type AttachmentStoreOp int32

const (
	AttachmentStoreOpStore    AttachmentStoreOp = 0
	AttachmentStoreOpDontCare AttachmentStoreOp = 1
)

type SampleCountFlags int32

const (
	Samples1 SampleCountFlags = 0x1
	Samples2 SampleCountFlags = 0x2
	Samples4 SampleCountFlags = 0x4
	Samples8 SampleCountFlags = 0x8
)

type PipelineBindPoint int32

const (
	PipelineBindPointGraphics PipelineBindPoint = 0
	PipelineBindPointCompute  PipelineBindPoint = 1
)

type PipelineStageFlags int32

const (
	PipelineStageTopOfPipe             PipelineStageFlags = 0x1
	PipelineStageEarlyFragmentTests    PipelineStageFlags = 0x100
	PipelineStageColorAttachmentOutput PipelineStageFlags = 0x400
	PipelineStageTransfer              PipelineStageFlags = 0x1000
	PipelineStageBottomOfPipe          PipelineStageFlags = 0x2000
)

type AccessFlags int32

const (
	AccessColorAttachmentRead  AccessFlags = 0x80
	AccessColorAttachmentWrite AccessFlags = 0x100
	AccessTransferRead         AccessFlags = 0x800
	AccessTransferWrite        AccessFlags = 0x1000
)

type AttachmentDescription struct {
	Format         Format
	Samples        SampleCountFlags
	LoadOp         AttachmentLoadOp
	StoreOp        AttachmentStoreOp
	StencilLoadOp  AttachmentLoadOp
	StencilStoreOp AttachmentStoreOp
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
}

type AttachmentReference struct {
	Attachment int
	Layout     ImageLayout
}

type SubpassDescription struct {
	PipelineBindPoint      PipelineBindPoint
	ColorAttachments       []AttachmentReference
	DepthStencilAttachment *AttachmentReference
}

type SubpassDependency struct {
	SrcSubpass    int
	DstSubpass    int
	SrcStageMask  PipelineStageFlags
	DstStageMask  PipelineStageFlags
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
}

type RenderPassCreateInfo struct {
	Attachments  []AttachmentDescription
	Subpasses    []SubpassDescription
	Dependencies []SubpassDependency
}

type CommandPoolCreateFlags int32

const (
	CommandPoolCreateTransient          CommandPoolCreateFlags = 0x1
	CommandPoolCreateResetCommandBuffer CommandPoolCreateFlags = 0x2
)

type CommandBufferLevel int32

const (
	CommandBufferLevelPrimary   CommandBufferLevel = 0
	CommandBufferLevelSecondary CommandBufferLevel = 1
)

type CommandBufferUsageFlags int32

const (
	CommandBufferUsageOneTimeSubmit      CommandBufferUsageFlags = 0x1
	CommandBufferUsageRenderPassContinue CommandBufferUsageFlags = 0x2
	CommandBufferUsageSimultaneousUse    CommandBufferUsageFlags = 0x4
)

type BufferCopy struct {
	SrcOffset int
	DstOffset int
	Size      int
}

type BufferImageCopy struct {
	BufferOffset int
	ImageExtent  Extent2D
}

type DescriptorBufferInfo struct {
	Buffer Buffer
	Offset int
	Range  int
}

type DebugSeverityFlags int32

const (
	DebugSeverityVerbose DebugSeverityFlags = 0x1
	DebugSeverityInfo    DebugSeverityFlags = 0x10
	DebugSeverityWarning DebugSeverityFlags = 0x100
	DebugSeverityError   DebugSeverityFlags = 0x1000
)

type DebugMessageTypeFlags int32

const (
	DebugMessageTypeGeneral     DebugMessageTypeFlags = 0x1
	DebugMessageTypeValidation  DebugMessageTypeFlags = 0x2
	DebugMessageTypePerformance DebugMessageTypeFlags = 0x4
)

type DebugMessage struct {
	Severity        DebugSeverityFlags
	Type            DebugMessageTypeFlags
	MessageIDName   string
	MessageIDNumber int
	Message         string
}

// DebugCallback receives validation messages. Returning true asks the driver to abort
// the call that triggered the message.
type DebugCallback func(msg DebugMessage) bool

type DebugMessengerCreateInfo struct {
	Severity DebugSeverityFlags
	Types    DebugMessageTypeFlags
	Callback DebugCallback
}

type InstanceCreateInfo struct {
	ApplicationName    string
	ApplicationVersion Version
	EngineName         string
	EngineVersion      Version
	APIVersion         Version

	EnabledExtensionNames []string
	EnabledLayerNames     []string

	EnumeratePortability bool

	// Debug, when set, is chained into instance creation so that instance creation
	// and destruction are themselves covered by validation.
	Debug *DebugMessengerCreateInfo
}

type DeviceQueueCreateInfo struct {
	QueueFamilyIndex int
	QueuePriorities  []float32
}

type DeviceCreateInfo struct {
	QueueCreateInfos      []DeviceQueueCreateInfo
	EnabledExtensionNames []string
	EnabledLayerNames     []string
	EnabledFeatures       PhysicalDeviceFeatures
}

type SwapchainCreateInfo struct {
	Surface Surface

	MinImageCount    int
	ImageFormat      Format
	ImageColorSpace  ColorSpace
	ImageExtent      Extent2D
	ImageArrayLayers int
	ImageUsage       ImageUsageFlags

	ImageSharingMode   SharingMode
	QueueFamilyIndices []int

	PreTransform SurfaceTransformFlags
	PresentMode  PresentMode
	Clipped      bool

	OldSwapchain Swapchain
}

type ImageViewCreateInfo struct {
	Image  Image
	Format Format
}

type BufferCreateInfo struct {
	Size        int
	Usage       BufferUsageFlags
	SharingMode SharingMode
}

type MemoryRequirements struct {
	Size           int
	Alignment      int
	MemoryTypeBits uint32
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitDstStageMask []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     int
}
