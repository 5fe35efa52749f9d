// Package resources holds the device-memory and command-recording primitives that sit on
// top of a logical device: memory allocations, buffers, command pools and command buffers,
// and semaphores.
//
// None of the types here lock internally except CommandPool, which rejects concurrent use
// outright. Every type must be destroyed before the logical device it was created from.
package resources

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
)

// Memory is a single device-memory allocation.
type Memory struct {
	handle driver.DeviceMemory
	device *core.LogicalDevice

	size       int
	typeIndex  int
	atomSize   int
	properties driver.MemoryPropertyFlags
	mapped     unsafe.Pointer
}

// AllocateMemory allocates requirements.Size bytes from the first memory type allowed by
// requirements that has every flag in properties.
func AllocateMemory(device *core.LogicalDevice, physicalDevice *core.PhysicalDevice, requirements driver.MemoryRequirements, properties driver.MemoryPropertyFlags) (*Memory, error) {
	typeIndex, err := physicalDevice.FindMemoryType(requirements.MemoryTypeBits, properties)
	if err != nil {
		return nil, err
	}

	if err := device.Retain(); err != nil {
		return nil, errors.Wrap(err, "allocate memory")
	}

	handle, err := device.Handle().AllocateMemory(requirements.Size, typeIndex)
	if err != nil {
		device.Release()
		return nil, core.CreationFailed(err, "allocate %d bytes from memory type %d", requirements.Size, typeIndex)
	}

	return &Memory{
		handle:     handle,
		device:     device,
		size:       requirements.Size,
		typeIndex:  typeIndex,
		atomSize:   physicalDevice.Properties().Limits.NonCoherentAtomSize,
		properties: physicalDevice.MemoryProperties().MemoryTypes[typeIndex].PropertyFlags,
	}, nil
}

// Map makes size bytes starting at offset visible to the host. Memory can only be mapped
// once at a time.
func (m *Memory) Map(offset, size int) (unsafe.Pointer, error) {
	if m.handle == nil {
		return nil, core.StateViolation("map memory: memory freed")
	}
	if m.mapped != nil {
		return nil, core.StateViolation("map memory: already mapped")
	}
	if m.properties&driver.MemoryPropertyHostVisible == 0 {
		return nil, core.StateViolation("map memory: memory type %d is not host visible", m.typeIndex)
	}

	ptr, err := m.handle.Map(offset, size)
	if err != nil {
		return nil, errors.Wrapf(err, "map memory at offset %d", offset)
	}
	m.mapped = ptr
	return ptr, nil
}

// Unmap is a no-op when the memory is not mapped.
func (m *Memory) Unmap() {
	if m.handle == nil || m.mapped == nil {
		return
	}
	m.handle.Unmap()
	m.mapped = nil
}

// Flush makes host writes in the range visible to the device. The memory must be mapped.
// Host-coherent memory does not need flushing, and for that memory Flush does nothing.
// Otherwise the range is widened to multiples of the device's non-coherent atom size and
// clamped to the allocation.
func (m *Memory) Flush(offset, size int) error {
	if m.handle == nil {
		return core.StateViolation("flush memory: memory freed")
	}
	if m.mapped == nil {
		return core.StateViolation("flush memory: memory not mapped")
	}
	if offset < 0 || offset >= m.size {
		return core.StateViolation("flush memory: offset %d outside allocation of %d bytes", offset, m.size)
	}
	if m.HostCoherent() {
		return nil
	}

	offset, size = m.atomRange(offset, size)
	return errors.Wrap(m.handle.Flush(offset, size), "flush memory")
}

func (m *Memory) atomRange(offset, size int) (int, int) {
	end := m.size
	if size != driver.WholeSize && offset+size < m.size {
		end = offset + size
	}

	if m.atomSize > 1 {
		offset -= offset % m.atomSize
		if rem := end % m.atomSize; rem != 0 {
			end += m.atomSize - rem
		}
		if end > m.size {
			end = m.size
		}
	}
	return offset, end - offset
}

func (m *Memory) Handle() driver.DeviceMemory {
	return m.handle
}

func (m *Memory) Size() int {
	return m.size
}

func (m *Memory) TypeIndex() int {
	return m.typeIndex
}

func (m *Memory) Properties() driver.MemoryPropertyFlags {
	return m.properties
}

func (m *Memory) HostCoherent() bool {
	return m.properties&driver.MemoryPropertyHostCoherent != 0
}

// Mapped is the host pointer while the memory is mapped and nil otherwise.
func (m *Memory) Mapped() unsafe.Pointer {
	return m.mapped
}

// Free unmaps the memory if needed and releases it. Calling it again is a no-op.
func (m *Memory) Free() {
	if m == nil || m.handle == nil {
		return
	}
	m.Unmap()
	m.handle.Free()
	m.handle = nil
	m.device.Release()
}
