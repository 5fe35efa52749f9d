package resources_test

import (
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/driver/drivertest"
	"github.com/vkngwrapper/carbon/resources"
)

func TestAllocateMemoryPicksFirstMatchingType(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, nil)

	requirements := driver.MemoryRequirements{Size: 1024, Alignment: 256, MemoryTypeBits: 0b11}

	memory, err := resources.AllocateMemory(f.device, f.selected, requirements, driver.MemoryPropertyHostVisible)
	c.Assert(err, qt.IsNil)
	defer memory.Free()

	c.Assert(memory.TypeIndex(), qt.Equals, 1)
	c.Assert(memory.Size(), qt.Equals, 1024)
	c.Assert(memory.HostCoherent(), qt.IsTrue)
	c.Assert(memory.Properties(), qt.Equals, hostVisible)

	// The type bits exclude the only host-visible type.
	requirements.MemoryTypeBits = 0b01
	_, err = resources.AllocateMemory(f.device, f.selected, requirements, driver.MemoryPropertyHostVisible)
	c.Assert(errors.Is(err, core.ErrCapabilityUnavailable), qt.IsTrue)
}

func TestMemoryMapLifecycle(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, nil)

	memory, err := resources.AllocateMemory(f.device, f.selected, driver.MemoryRequirements{Size: 64, MemoryTypeBits: 0b10}, hostVisible)
	c.Assert(err, qt.IsNil)

	ptr, err := memory.Map(0, 64)
	c.Assert(err, qt.IsNil)
	c.Assert(memory.Mapped(), qt.Equals, ptr)

	_, err = memory.Map(0, 64)
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)

	c.Assert(memory.Flush(0, driver.WholeSize), qt.IsNil)
	c.Assert(f.fake.Memories[0].Flushes, qt.HasLen, 0)

	memory.Free()
	memory.Free()

	c.Assert(f.fake.Memories[0].Mapped, qt.IsFalse)
	c.Assert(f.fake.Memories[0].FreeCount, qt.Equals, 1)
	c.Assert(memory.Mapped(), qt.Equals, unsafe.Pointer(nil))
	c.Assert(f.device.Dependents(), qt.Equals, 0)

	_, err = memory.Map(0, 64)
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)
	c.Assert(errors.Is(memory.Flush(0, 64), core.ErrStateViolation), qt.IsTrue)
}

func TestMemoryFlushAlignsToAtomSize(t *testing.T) {
	c := qt.New(t)

	physical := drivertest.NewPhysicalDevice("Cached GPU", driver.PhysicalDeviceTypeDiscreteGPU, 8192)
	physical.Memory.MemoryTypes = []driver.MemoryType{
		{PropertyFlags: driver.MemoryPropertyHostVisible | driver.MemoryPropertyHostCached},
	}
	f := newFixture(c, physical)

	memory, err := resources.AllocateMemory(f.device, f.selected, driver.MemoryRequirements{Size: 200, MemoryTypeBits: 0b1}, driver.MemoryPropertyHostVisible)
	c.Assert(err, qt.IsNil)
	defer memory.Free()
	c.Assert(memory.HostCoherent(), qt.IsFalse)

	// Unmapped memory cannot be flushed.
	err = memory.Flush(0, 3)
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "flush memory: memory not mapped")

	_, err = memory.Map(0, driver.WholeSize)
	c.Assert(err, qt.IsNil)

	c.Assert(memory.Flush(0, 3), qt.IsNil)
	c.Assert(memory.Flush(70, 60), qt.IsNil)
	c.Assert(memory.Flush(130, driver.WholeSize), qt.IsNil)
	c.Assert(memory.Flush(190, 64), qt.IsNil)

	c.Assert(f.fake.Memories[0].Flushes, qt.DeepEquals, []drivertest.MemoryRange{
		{Offset: 0, Size: 64},
		{Offset: 64, Size: 128},
		{Offset: 128, Size: 72},
		{Offset: 128, Size: 72},
	})

	err = memory.Flush(200, 1)
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)
	c.Assert(f.fake.Memories[0].Flushes, qt.HasLen, 4)
}
