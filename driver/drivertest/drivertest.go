// Package drivertest implements the driver interfaces in memory.
//
// Objects record what was asked of them (create infos, destroy counts, submissions) so
// tests can assert on ordering and lifecycle without a GPU. Recorded copy commands are
// executed against host byte slices when the command buffer is submitted.
package drivertest

import (
	"sync"
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/driver"
)

// Journal records destroy calls across every object created from one Loader so tests can
// assert teardown order.
type Journal struct {
	lock    sync.Mutex
	entries []string
}

func (j *Journal) record(entry string) {
	if j == nil {
		return
	}
	j.lock.Lock()
	defer j.lock.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *Journal) Entries() []string {
	j.lock.Lock()
	defer j.lock.Unlock()
	return append([]string(nil), j.entries...)
}

type Loader struct {
	Extensions []driver.ExtensionProperties
	Layers     []driver.LayerProperties
	Devices    []*PhysicalDevice

	CreateErr     error
	ExtensionsErr error

	Instances []*Instance
	Journal   *Journal
}

func NewLoader(extensions []string, layers []string, devices ...*PhysicalDevice) *Loader {
	loader := &Loader{Devices: devices, Journal: &Journal{}}
	for _, ext := range extensions {
		loader.Extensions = append(loader.Extensions, driver.ExtensionProperties{Name: ext, SpecVersion: 1})
	}
	for _, layer := range layers {
		loader.Layers = append(loader.Layers, driver.LayerProperties{Name: layer, SpecVersion: uint32(driver.Vulkan1_2)})
	}
	for _, device := range devices {
		device.journal = loader.Journal
	}
	return loader
}

func (l *Loader) AvailableExtensions() ([]driver.ExtensionProperties, error) {
	if l.ExtensionsErr != nil {
		return nil, l.ExtensionsErr
	}
	return append([]driver.ExtensionProperties(nil), l.Extensions...), nil
}

func (l *Loader) AvailableLayers() ([]driver.LayerProperties, error) {
	return append([]driver.LayerProperties(nil), l.Layers...), nil
}

func (l *Loader) CreateInstance(info driver.InstanceCreateInfo) (driver.Instance, error) {
	if l.CreateErr != nil {
		return nil, l.CreateErr
	}
	instance := &Instance{loader: l, Info: info}
	l.Instances = append(l.Instances, instance)
	return instance, nil
}

type Instance struct {
	loader *Loader

	Info         driver.InstanceCreateInfo
	Messengers   []*DebugMessenger
	DestroyCount int
}

func (i *Instance) EnumeratePhysicalDevices() ([]driver.PhysicalDevice, error) {
	devices := make([]driver.PhysicalDevice, 0, len(i.loader.Devices))
	for _, device := range i.loader.Devices {
		devices = append(devices, device)
	}
	return devices, nil
}

func (i *Instance) CreateDebugMessenger(info driver.DebugMessengerCreateInfo) (driver.DebugMessenger, error) {
	messenger := &DebugMessenger{Info: info, journal: i.loader.Journal}
	i.Messengers = append(i.Messengers, messenger)
	return messenger, nil
}

// Emit delivers msg to every live messenger whose severity and type masks accept it.
func (i *Instance) Emit(msg driver.DebugMessage) {
	for _, messenger := range i.Messengers {
		if messenger.DestroyCount > 0 {
			continue
		}
		if messenger.Info.Severity&msg.Severity == 0 || messenger.Info.Types&msg.Type == 0 {
			continue
		}
		messenger.Info.Callback(msg)
	}
}

func (i *Instance) Destroy() {
	i.DestroyCount++
	i.loader.Journal.record("instance")
}

type DebugMessenger struct {
	journal *Journal

	Info         driver.DebugMessengerCreateInfo
	DestroyCount int
}

func (m *DebugMessenger) Destroy() {
	m.DestroyCount++
	m.journal.record("debug messenger")
}

type Surface struct {
	Caps         driver.SurfaceCapabilities
	SurfaceFmts  []driver.SurfaceFormat
	Modes        []driver.PresentMode
	// PresentFamilies lists the queue families able to present. A nil map means every
	// family can present.
	PresentFamilies map[int]bool

	CapabilitiesQueries int
	DestroyCount        int
	Journal             *Journal
}

// NewSurface returns a surface with a fixed 800x600 extent, the preferred sRGB format and
// FIFO presentation.
func NewSurface() *Surface {
	return &Surface{
		Caps: driver.SurfaceCapabilities{
			MinImageCount:    2,
			MaxImageCount:    8,
			CurrentExtent:    driver.Extent2D{Width: 800, Height: 600},
			MinImageExtent:   driver.Extent2D{Width: 1, Height: 1},
			MaxImageExtent:   driver.Extent2D{Width: 4096, Height: 4096},
			CurrentTransform: driver.SurfaceTransformIdentity,
		},
		SurfaceFmts: []driver.SurfaceFormat{
			{Format: driver.FormatB8G8R8A8SRGB, ColorSpace: driver.ColorSpaceSRGBNonlinear},
		},
		Modes: []driver.PresentMode{driver.PresentModeFIFO},
	}
}

func (s *Surface) Capabilities(device driver.PhysicalDevice) (driver.SurfaceCapabilities, error) {
	s.CapabilitiesQueries++
	return s.Caps, nil
}

func (s *Surface) Formats(device driver.PhysicalDevice) ([]driver.SurfaceFormat, error) {
	return append([]driver.SurfaceFormat(nil), s.SurfaceFmts...), nil
}

func (s *Surface) PresentModes(device driver.PhysicalDevice) ([]driver.PresentMode, error) {
	return append([]driver.PresentMode(nil), s.Modes...), nil
}

func (s *Surface) SupportsPresent(device driver.PhysicalDevice, queueFamilyIndex int) (bool, error) {
	if s.PresentFamilies == nil {
		return true, nil
	}
	return s.PresentFamilies[queueFamilyIndex], nil
}

func (s *Surface) Destroy() {
	s.DestroyCount++
	s.Journal.record("surface")
}

// SurfaceSource hands out a prepared Surface, standing in for a window.
type SurfaceSource struct {
	Surface   *Surface
	CreateErr error
	Instances []driver.Instance
}

func (s *SurfaceSource) CreateSurface(instance driver.Instance) (driver.Surface, error) {
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	s.Instances = append(s.Instances, instance)
	if fake, ok := instance.(*Instance); ok {
		s.Surface.Journal = fake.loader.Journal
	}
	return s.Surface, nil
}

type PhysicalDevice struct {
	journal *Journal

	Props      driver.PhysicalDeviceProperties
	Feats      driver.PhysicalDeviceFeatures
	Memory     driver.PhysicalDeviceMemoryProperties
	Families   []driver.QueueFamilyProperties
	Extensions []driver.ExtensionProperties

	PropertiesErr error
	CreateErr     error

	Devices []*Device
}

// NewPhysicalDevice returns a geometry-shader-capable device with a single universal
// queue family, a device-local and a host-visible coherent memory type, and the swapchain
// extension.
func NewPhysicalDevice(name string, deviceType driver.PhysicalDeviceType, maxImageDimension2D int) *PhysicalDevice {
	return &PhysicalDevice{
		Props: driver.PhysicalDeviceProperties{
			Name:          name,
			Type:          deviceType,
			APIVersion:    driver.Vulkan1_2,
			DriverVersion: driver.CreateVersion(1, 0, 0),
			VendorID:      0x10de,
			DeviceID:      0x1,
			Limits: driver.PhysicalDeviceLimits{
				MaxImageDimension2D:      maxImageDimension2D,
				MaxMemoryAllocationCount: 4096,
				NonCoherentAtomSize:      64,
			},
		},
		Feats: driver.PhysicalDeviceFeatures{GeometryShader: true, SamplerAnisotropy: true},
		Memory: driver.PhysicalDeviceMemoryProperties{
			MemoryTypes: []driver.MemoryType{
				{PropertyFlags: driver.MemoryPropertyDeviceLocal, HeapIndex: 0},
				{PropertyFlags: driver.MemoryPropertyHostVisible | driver.MemoryPropertyHostCoherent, HeapIndex: 1},
			},
			MemoryHeaps: []driver.MemoryHeap{
				{Size: 1 << 30, DeviceLocal: true},
				{Size: 1 << 28},
			},
		},
		Families: []driver.QueueFamilyProperties{
			{QueueFlags: driver.QueueGraphics | driver.QueueCompute | driver.QueueTransfer, QueueCount: 1},
		},
		Extensions: []driver.ExtensionProperties{
			{Name: "VK_KHR_swapchain", SpecVersion: 70},
		},
	}
}

func (p *PhysicalDevice) Properties() (driver.PhysicalDeviceProperties, error) {
	if p.PropertiesErr != nil {
		return driver.PhysicalDeviceProperties{}, p.PropertiesErr
	}
	return p.Props, nil
}

func (p *PhysicalDevice) Features() driver.PhysicalDeviceFeatures {
	return p.Feats
}

func (p *PhysicalDevice) MemoryProperties() driver.PhysicalDeviceMemoryProperties {
	return p.Memory
}

func (p *PhysicalDevice) QueueFamilyProperties() []driver.QueueFamilyProperties {
	return append([]driver.QueueFamilyProperties(nil), p.Families...)
}

func (p *PhysicalDevice) AvailableExtensions() ([]driver.ExtensionProperties, error) {
	return append([]driver.ExtensionProperties(nil), p.Extensions...), nil
}

func (p *PhysicalDevice) CreateDevice(info driver.DeviceCreateInfo) (driver.Device, error) {
	if p.CreateErr != nil {
		return nil, p.CreateErr
	}
	device := &Device{
		physicalDevice: p,
		journal:        p.journal,
		Info:           info,
		queues:         make(map[int]*Queue),
	}
	p.Devices = append(p.Devices, device)
	return device, nil
}

type Device struct {
	physicalDevice *PhysicalDevice
	journal        *Journal
	queues         map[int]*Queue

	Info          driver.DeviceCreateInfo
	WaitIdleCount int
	DestroyCount  int

	// SwapchainImageCount overrides the number of images handed out per swapchain. When
	// zero, the requested minimum image count is used.
	SwapchainImageCount int

	SwapchainErr  error
	RenderPassErr error
	BufferErr     error
	AllocateErr   error
	PoolErr       error

	Swapchains   []*Swapchain
	ImageViews   []*ImageView
	RenderPasses []*RenderPass
	Buffers      []*Buffer
	Memories     []*DeviceMemory
	Pools        []*CommandPool
	Semaphores   []*Semaphore
}

func (d *Device) Queue(queueFamilyIndex, queueIndex int) driver.Queue {
	queue, ok := d.queues[queueFamilyIndex]
	if !ok {
		queue = &Queue{Family: queueFamilyIndex, PresentResult: driver.Success}
		d.queues[queueFamilyIndex] = queue
	}
	return queue
}

// QueueFor returns the fake queue handed out for the given family, or nil.
func (d *Device) QueueFor(queueFamilyIndex int) *Queue {
	return d.queues[queueFamilyIndex]
}

func (d *Device) WaitIdle() error {
	d.WaitIdleCount++
	d.journal.record("device wait idle")
	return nil
}

func (d *Device) CreateSwapchain(info driver.SwapchainCreateInfo) (driver.Swapchain, error) {
	if d.SwapchainErr != nil {
		return nil, d.SwapchainErr
	}
	count := info.MinImageCount
	if d.SwapchainImageCount > 0 {
		count = d.SwapchainImageCount
	}
	swapchain := &Swapchain{journal: d.journal, Info: info, AcquireResult: driver.Success}
	for i := 0; i < count; i++ {
		swapchain.images = append(swapchain.images, &Image{Index: i, Width: info.ImageExtent.Width, Height: info.ImageExtent.Height})
	}
	d.Swapchains = append(d.Swapchains, swapchain)
	return swapchain, nil
}

func (d *Device) CreateImageView(info driver.ImageViewCreateInfo) (driver.ImageView, error) {
	view := &ImageView{journal: d.journal, Info: info}
	d.ImageViews = append(d.ImageViews, view)
	return view, nil
}

func (d *Device) CreateRenderPass(info driver.RenderPassCreateInfo) (driver.RenderPass, error) {
	if d.RenderPassErr != nil {
		return nil, d.RenderPassErr
	}
	renderPass := &RenderPass{journal: d.journal, Info: info}
	d.RenderPasses = append(d.RenderPasses, renderPass)
	return renderPass, nil
}

func (d *Device) CreateBuffer(info driver.BufferCreateInfo) (driver.Buffer, error) {
	if d.BufferErr != nil {
		return nil, d.BufferErr
	}

	var typeBits uint32
	for i := range d.physicalDevice.Memory.MemoryTypes {
		typeBits |= 1 << i
	}

	buffer := &Buffer{
		journal: d.journal,
		Info:    info,
		Requirements: driver.MemoryRequirements{
			Size:           info.Size,
			Alignment:      16,
			MemoryTypeBits: typeBits,
		},
	}
	d.Buffers = append(d.Buffers, buffer)
	return buffer, nil
}

func (d *Device) AllocateMemory(size int, memoryTypeIndex int) (driver.DeviceMemory, error) {
	if d.AllocateErr != nil {
		return nil, d.AllocateErr
	}
	memory := &DeviceMemory{journal: d.journal, Size: size, TypeIndex: memoryTypeIndex, Data: make([]byte, size)}
	d.Memories = append(d.Memories, memory)
	return memory, nil
}

func (d *Device) CreateCommandPool(queueFamilyIndex int, flags driver.CommandPoolCreateFlags) (driver.CommandPool, error) {
	if d.PoolErr != nil {
		return nil, d.PoolErr
	}
	pool := &CommandPool{journal: d.journal, Family: queueFamilyIndex, Flags: flags}
	d.Pools = append(d.Pools, pool)
	return pool, nil
}

func (d *Device) CreateSemaphore() (driver.Semaphore, error) {
	semaphore := &Semaphore{journal: d.journal}
	d.Semaphores = append(d.Semaphores, semaphore)
	return semaphore, nil
}

func (d *Device) Destroy() {
	d.DestroyCount++
	d.journal.record("device")
}

type Queue struct {
	Family        int
	Submissions   []driver.SubmitInfo
	WaitIdleCount int

	SubmitErr     error
	PresentResult driver.Result
	Presented     []driver.PresentInfo
}

func (q *Queue) Submit(infos []driver.SubmitInfo) error {
	if q.SubmitErr != nil {
		return q.SubmitErr
	}
	for _, info := range infos {
		q.Submissions = append(q.Submissions, info)
		for _, buffer := range info.CommandBuffers {
			fake, ok := buffer.(*CommandBuffer)
			if !ok {
				return errors.Newf("drivertest: foreign command buffer %T", buffer)
			}
			fake.execute()
		}
	}
	return nil
}

func (q *Queue) WaitIdle() error {
	q.WaitIdleCount++
	return nil
}

func (q *Queue) Present(info driver.PresentInfo) (driver.Result, error) {
	q.Presented = append(q.Presented, info)
	if q.PresentResult < 0 {
		return q.PresentResult, errors.Newf("present: %s", q.PresentResult)
	}
	return q.PresentResult, nil
}

type Image struct {
	Index  int
	Width  int
	Height int
	Data   []byte
}

type Swapchain struct {
	journal *Journal
	images  []*Image
	next    int

	Info          driver.SwapchainCreateInfo
	AcquireResult driver.Result
	DestroyCount  int
}

func (s *Swapchain) Images() ([]driver.Image, error) {
	images := make([]driver.Image, 0, len(s.images))
	for _, image := range s.images {
		images = append(images, image)
	}
	return images, nil
}

func (s *Swapchain) AcquireNextImage(timeout time.Duration, semaphore driver.Semaphore) (int, driver.Result, error) {
	if s.AcquireResult < 0 {
		return 0, s.AcquireResult, errors.Newf("acquire next image: %s", s.AcquireResult)
	}
	index := s.next
	s.next = (s.next + 1) % len(s.images)
	return index, s.AcquireResult, nil
}

func (s *Swapchain) Destroy() {
	s.DestroyCount++
	s.journal.record("swapchain")
}

type ImageView struct {
	journal *Journal

	Info         driver.ImageViewCreateInfo
	DestroyCount int
}

func (v *ImageView) Destroy() {
	v.DestroyCount++
	v.journal.record("image view")
}

type RenderPass struct {
	journal *Journal

	Info         driver.RenderPassCreateInfo
	DestroyCount int
}

func (r *RenderPass) Destroy() {
	r.DestroyCount++
	r.journal.record("render pass")
}

type Buffer struct {
	journal *Journal

	Info         driver.BufferCreateInfo
	Requirements driver.MemoryRequirements
	Memory       *DeviceMemory
	MemoryOffset int
	DestroyCount int
}

func (b *Buffer) MemoryRequirements() driver.MemoryRequirements {
	return b.Requirements
}

func (b *Buffer) BindMemory(memory driver.DeviceMemory, offset int) error {
	fake, ok := memory.(*DeviceMemory)
	if !ok {
		return errors.Newf("drivertest: foreign memory %T", memory)
	}
	b.Memory = fake
	b.MemoryOffset = offset
	return nil
}

func (b *Buffer) Destroy() {
	b.DestroyCount++
	b.journal.record("buffer")
}

// Bytes returns the bound memory backing the buffer.
func (b *Buffer) Bytes() []byte {
	if b.Memory == nil {
		return nil
	}
	return b.Memory.Data[b.MemoryOffset : b.MemoryOffset+b.Info.Size]
}

type MemoryRange struct {
	Offset int
	Size   int
}

type DeviceMemory struct {
	journal *Journal

	Size      int
	TypeIndex int
	Data      []byte

	Mapped    bool
	MapCount  int
	Flushes   []MemoryRange
	FreeCount int
}

func (m *DeviceMemory) Map(offset, size int) (unsafe.Pointer, error) {
	if m.Mapped {
		return nil, errors.New("drivertest: memory is already mapped")
	}
	if offset < 0 || offset >= len(m.Data) {
		return nil, errors.Newf("drivertest: map offset %d out of range", offset)
	}
	m.Mapped = true
	m.MapCount++
	return unsafe.Pointer(&m.Data[offset]), nil
}

func (m *DeviceMemory) Unmap() {
	m.Mapped = false
}

func (m *DeviceMemory) Flush(offset, size int) error {
	m.Flushes = append(m.Flushes, MemoryRange{Offset: offset, Size: size})
	return nil
}

func (m *DeviceMemory) Free() {
	m.FreeCount++
	m.journal.record("memory")
}

type CommandPool struct {
	journal *Journal

	Family       int
	Flags        driver.CommandPoolCreateFlags
	Allocated    []*CommandBuffer
	FreedCount   int
	DestroyCount int
}

func (p *CommandPool) AllocateCommandBuffers(level driver.CommandBufferLevel, count int) ([]driver.CommandBuffer, error) {
	buffers := make([]driver.CommandBuffer, 0, count)
	for i := 0; i < count; i++ {
		buffer := &CommandBuffer{Level: level}
		p.Allocated = append(p.Allocated, buffer)
		buffers = append(buffers, buffer)
	}
	return buffers, nil
}

func (p *CommandPool) FreeCommandBuffers(buffers []driver.CommandBuffer) {
	for _, buffer := range buffers {
		if fake, ok := buffer.(*CommandBuffer); ok {
			fake.Freed = true
		}
		p.FreedCount++
	}
}

func (p *CommandPool) Destroy() {
	p.DestroyCount++
	p.journal.record("command pool")
}

type CommandBuffer struct {
	Level     driver.CommandBufferLevel
	Usage     driver.CommandBufferUsageFlags
	Recording bool
	Begins    int
	Ends      int
	Freed     bool

	commands []func()
}

func (c *CommandBuffer) Begin(usage driver.CommandBufferUsageFlags) error {
	if c.Recording {
		return errors.New("drivertest: command buffer is already recording")
	}
	c.Recording = true
	c.Usage = usage
	c.Begins++
	c.commands = nil
	return nil
}

func (c *CommandBuffer) End() error {
	if !c.Recording {
		return errors.New("drivertest: command buffer is not recording")
	}
	c.Recording = false
	c.Ends++
	return nil
}

func (c *CommandBuffer) CmdCopyBuffer(src, dst driver.Buffer, regions []driver.BufferCopy) error {
	srcBuffer, srcOk := src.(*Buffer)
	dstBuffer, dstOk := dst.(*Buffer)
	if !srcOk || !dstOk {
		return errors.New("drivertest: foreign buffer in copy")
	}
	regions = append([]driver.BufferCopy(nil), regions...)
	c.commands = append(c.commands, func() {
		for _, region := range regions {
			copy(dstBuffer.Bytes()[region.DstOffset:region.DstOffset+region.Size], srcBuffer.Bytes()[region.SrcOffset:region.SrcOffset+region.Size])
		}
	})
	return nil
}

func (c *CommandBuffer) CmdCopyBufferToImage(src driver.Buffer, dst driver.Image, layout driver.ImageLayout, regions []driver.BufferImageCopy) error {
	srcBuffer, srcOk := src.(*Buffer)
	dstImage, dstOk := dst.(*Image)
	if !srcOk || !dstOk {
		return errors.New("drivertest: foreign object in image copy")
	}
	regions = append([]driver.BufferImageCopy(nil), regions...)
	c.commands = append(c.commands, func() {
		for _, region := range regions {
			size := region.ImageExtent.Width * region.ImageExtent.Height * 4
			dstImage.Data = append([]byte(nil), srcBuffer.Bytes()[region.BufferOffset:region.BufferOffset+size]...)
		}
	})
	return nil
}

func (c *CommandBuffer) execute() {
	for _, command := range c.commands {
		command()
	}
}

type Semaphore struct {
	journal *Journal

	DestroyCount int
}

func (s *Semaphore) Destroy() {
	s.DestroyCount++
	s.journal.record("semaphore")
}
