package resources

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
)

// Buffer is a buffer object bound to its own memory allocation at offset 0.
type Buffer struct {
	handle         driver.Buffer
	device         *core.LogicalDevice
	physicalDevice *core.PhysicalDevice

	size       int
	usage      driver.BufferUsageFlags
	properties driver.MemoryPropertyFlags
	memory     *Memory
	descriptor driver.DescriptorBufferInfo

	mapOffset int
	mapSize   int
}

// NewEmptyBuffer returns a buffer with nothing allocated. Call Create before using it.
func NewEmptyBuffer(device *core.LogicalDevice, physicalDevice *core.PhysicalDevice) *Buffer {
	return &Buffer{device: device, physicalDevice: physicalDevice}
}

// NewBuffer creates a buffer and its memory. When data is not nil it is encoded into the
// buffer, which requires host-visible memory.
func NewBuffer(device *core.LogicalDevice, physicalDevice *core.PhysicalDevice, size int, usage driver.BufferUsageFlags, properties driver.MemoryPropertyFlags, data any) (*Buffer, error) {
	buffer := NewEmptyBuffer(device, physicalDevice)
	err := buffer.Create(size, usage, properties, data)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

func (b *Buffer) Create(size int, usage driver.BufferUsageFlags, properties driver.MemoryPropertyFlags, data any) error {
	if b.handle != nil {
		return core.StateViolation("create buffer: buffer already created")
	}
	if size <= 0 {
		return core.StateViolation("create buffer: size %d", size)
	}
	if data != nil && properties&driver.MemoryPropertyHostVisible == 0 {
		return core.StateViolation("create buffer: initial data needs host visible memory")
	}
	if err := b.device.Retain(); err != nil {
		return errors.Wrap(err, "create buffer")
	}

	handle, err := b.device.Handle().CreateBuffer(driver.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: driver.SharingModeExclusive,
	})
	if err != nil {
		b.device.Release()
		return core.CreationFailed(err, "create buffer of %d bytes", size)
	}

	memory, err := AllocateMemory(b.device, b.physicalDevice, handle.MemoryRequirements(), properties)
	if err != nil {
		handle.Destroy()
		b.device.Release()
		return err
	}

	err = handle.BindMemory(memory.handle, 0)
	if err != nil {
		memory.Free()
		handle.Destroy()
		b.device.Release()
		return errors.Wrap(err, "bind buffer memory")
	}

	b.handle = handle
	b.size = size
	b.usage = usage
	b.properties = properties
	b.memory = memory
	b.descriptor = driver.DescriptorBufferInfo{Buffer: handle, Offset: 0, Range: size}

	if data != nil {
		err = b.Write(data, 0)
		if err != nil {
			b.Destroy()
			return err
		}
	}

	return nil
}

func (b *Buffer) resolveSize(size, offset int) int {
	if size == driver.WholeSize {
		return b.size - offset
	}
	return size
}

// MapMemory maps size bytes of the buffer starting at offset. driver.WholeSize maps the
// rest of the buffer. Mapping a buffer that is already mapped is rejected.
func (b *Buffer) MapMemory(size, offset int) (unsafe.Pointer, error) {
	if b.handle == nil {
		return nil, core.StateViolation("map buffer: buffer not created")
	}

	size = b.resolveSize(size, offset)
	if offset < 0 || size <= 0 || offset+size > b.size {
		return nil, core.StateViolation("map buffer: range [%d, %d) outside buffer of %d bytes", offset, offset+size, b.size)
	}

	ptr, err := b.memory.Map(offset, size)
	if err != nil {
		return nil, err
	}
	b.mapOffset = offset
	b.mapSize = size
	return ptr, nil
}

// UnmapMemory is a no-op when the buffer is not mapped.
func (b *Buffer) UnmapMemory() {
	if b.memory == nil {
		return
	}
	b.memory.Unmap()
	b.mapOffset = 0
	b.mapSize = 0
}

// Mapped is the host pointer while the buffer is mapped and nil otherwise.
func (b *Buffer) Mapped() unsafe.Pointer {
	if b.memory == nil {
		return nil
	}
	return b.memory.Mapped()
}

// Write encodes data with encoding/binary at offset. An existing mapping is written
// through when it covers the range; otherwise the buffer is mapped for the write and
// unmapped afterwards.
func (b *Buffer) Write(data any, offset int) error {
	if b.handle == nil {
		return core.StateViolation("write buffer: buffer not created")
	}

	encoded := &bytes.Buffer{}
	err := binary.Write(encoded, driver.ByteOrder, data)
	if err != nil {
		return errors.Wrapf(err, "encode %T", data)
	}
	size := encoded.Len()
	if offset < 0 || offset+size > b.size {
		return core.StateViolation("write buffer: %d bytes at offset %d exceed buffer of %d bytes", size, offset, b.size)
	}

	var target []byte
	if ptr := b.Mapped(); ptr != nil {
		if offset < b.mapOffset || offset+size > b.mapOffset+b.mapSize {
			return core.StateViolation("write buffer: range [%d, %d) outside mapped range [%d, %d)", offset, offset+size, b.mapOffset, b.mapOffset+b.mapSize)
		}
		target = unsafe.Slice((*byte)(ptr), b.mapSize)[offset-b.mapOffset:]
	} else {
		// The whole buffer is mapped so the atom-aligned flush stays inside the mapping.
		ptr, err := b.MapMemory(driver.WholeSize, 0)
		if err != nil {
			return err
		}
		defer b.UnmapMemory()
		target = unsafe.Slice((*byte)(ptr), b.size)[offset:]
	}

	copy(target, encoded.Bytes())
	return b.Flush(size, offset)
}

// Flush makes host writes in the range visible to the device. The buffer must be mapped.
// It does nothing for host-coherent memory.
func (b *Buffer) Flush(size, offset int) error {
	if b.handle == nil {
		return core.StateViolation("flush buffer: buffer not created")
	}
	return b.memory.Flush(offset, b.resolveSize(size, offset))
}

// CopyFrom copies the first size bytes of src into this buffer on the GPU and waits for
// the copy to finish.
func (b *Buffer) CopyFrom(pool *CommandPool, queue driver.Queue, src *Buffer, size int) error {
	if !b.InUse() || !src.InUse() {
		return core.StateViolation("copy buffer: buffer not created")
	}
	if size > b.size || size > src.size {
		return core.StateViolation("copy buffer: %d bytes from %d byte buffer into %d byte buffer", size, src.size, b.size)
	}

	return pool.SubmitOnce(queue, func(commands *CommandBuffer) error {
		return commands.CopyBuffer(src, b, driver.BufferCopy{SrcOffset: 0, DstOffset: 0, Size: size})
	})
}

// ToImage copies tightly packed 4-byte texels from the buffer into image, which must be in
// the transfer destination layout, and waits for the copy to finish.
func (b *Buffer) ToImage(pool *CommandPool, queue driver.Queue, image driver.Image, width, height int) error {
	if !b.InUse() {
		return core.StateViolation("copy buffer to image: buffer not created")
	}
	if width*height*4 > b.size {
		return core.StateViolation("copy buffer to image: %dx%d image needs more than %d bytes", width, height, b.size)
	}

	return pool.SubmitOnce(queue, func(commands *CommandBuffer) error {
		return commands.CopyBufferToImage(b, image, driver.ImageLayoutTransferDstOptimal, driver.BufferImageCopy{
			BufferOffset: 0,
			ImageExtent:  driver.Extent2D{Width: width, Height: height},
		})
	})
}

// Equal reports whether both buffers are the same buffer object: same size, same handle
// and same mapping. Contents are not compared.
func (b *Buffer) Equal(other *Buffer) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.size == other.size && b.handle == other.handle && b.Mapped() == other.Mapped()
}

// InUse reports whether the buffer has been created and not yet destroyed.
func (b *Buffer) InUse() bool {
	return b != nil && b.handle != nil
}

func (b *Buffer) Handle() driver.Buffer {
	return b.handle
}

func (b *Buffer) Size() int {
	return b.size
}

func (b *Buffer) Usage() driver.BufferUsageFlags {
	return b.usage
}

func (b *Buffer) MemoryProperties() driver.MemoryPropertyFlags {
	return b.properties
}

func (b *Buffer) Memory() *Memory {
	return b.memory
}

// Descriptor describes the whole buffer for descriptor set updates.
func (b *Buffer) Descriptor() driver.DescriptorBufferInfo {
	return b.descriptor
}

// Destroy unmaps the buffer, destroys it and frees its memory. Calling it again is a
// no-op. A destroyed buffer can be created again with Create.
func (b *Buffer) Destroy() {
	if b == nil || b.handle == nil {
		return
	}

	b.UnmapMemory()
	b.handle.Destroy()
	b.handle = nil
	b.memory.Free()
	b.memory = nil
	b.descriptor = driver.DescriptorBufferInfo{}
	b.device.Release()
}
