package resources_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/driver/drivertest"
	"github.com/vkngwrapper/carbon/resources"
)

func TestNewGraphicsCommandPool(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, nil)

	pool, err := resources.NewGraphicsCommandPool(f.device)
	c.Assert(err, qt.IsNil)
	defer pool.Destroy()

	c.Assert(pool.QueueFamily(), qt.Equals, 0)
	c.Assert(pool.Flags(), qt.Equals, driver.CommandPoolCreateResetCommandBuffer)
	c.Assert(f.fake.Pools[0].Family, qt.Equals, 0)
	c.Assert(f.device.Dependents(), qt.Equals, 1)
}

func TestNewCommandPoolErrors(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, nil)

	_, err := resources.NewCommandPool(f.device, core.QueueFamilyIgnored, 0)
	c.Assert(errors.Is(err, core.ErrQueueResolution), qt.IsTrue)

	f.fake.PoolErr = errors.New("VK_ERROR_OUT_OF_HOST_MEMORY")
	_, err = resources.NewCommandPool(f.device, 0, driver.CommandPoolCreateTransient)
	c.Assert(errors.Is(err, core.ErrCreationFailure), qt.IsTrue)
	c.Assert(f.device.Dependents(), qt.Equals, 0)
}

func TestCommandBufferStateMachine(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, nil)

	pool, err := resources.NewGraphicsCommandPool(f.device)
	c.Assert(err, qt.IsNil)
	defer pool.Destroy()

	buffer, err := pool.Allocate(driver.CommandBufferLevelPrimary)
	c.Assert(err, qt.IsNil)
	c.Assert(buffer.State(), qt.Equals, resources.CommandBufferReady)
	c.Assert(buffer.Level(), qt.Equals, driver.CommandBufferLevelPrimary)

	err = buffer.End()
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "end command buffer: state is Ready, want Recording")

	c.Assert(buffer.Begin(0), qt.IsNil)
	c.Assert(buffer.State(), qt.Equals, resources.CommandBufferRecording)

	err = buffer.Begin(0)
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)

	c.Assert(buffer.End(), qt.IsNil)
	c.Assert(buffer.State(), qt.Equals, resources.CommandBufferReady)

	// Ready buffers can be recorded again.
	c.Assert(buffer.Begin(driver.CommandBufferUsageSimultaneousUse), qt.IsNil)
	c.Assert(buffer.End(), qt.IsNil)

	fake := f.fake.Pools[0].Allocated[0]
	c.Assert(fake.Begins, qt.Equals, 2)
	c.Assert(fake.Ends, qt.Equals, 2)
}

func TestCommandBufferRecordingRequired(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, nil)

	pool, err := resources.NewGraphicsCommandPool(f.device)
	c.Assert(err, qt.IsNil)
	defer pool.Destroy()

	buffer, err := resources.NewBuffer(f.device, f.selected, 4, driver.BufferUsageTransferSrc, hostVisible, nil)
	c.Assert(err, qt.IsNil)
	defer buffer.Destroy()

	commands, err := pool.Allocate(driver.CommandBufferLevelPrimary)
	c.Assert(err, qt.IsNil)

	err = commands.CopyBuffer(buffer, buffer, driver.BufferCopy{Size: 4})
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)

	err = commands.CopyBufferToImage(buffer, &drivertest.Image{}, driver.ImageLayoutTransferDstOptimal)
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)
}

func TestCommandBufferFree(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, nil)

	pool, err := resources.NewGraphicsCommandPool(f.device)
	c.Assert(err, qt.IsNil)
	defer pool.Destroy()

	buffers, err := pool.AllocateN(driver.CommandBufferLevelSecondary, 3)
	c.Assert(err, qt.IsNil)
	c.Assert(buffers, qt.HasLen, 3)
	c.Assert(pool.Allocated(), qt.Equals, 3)

	c.Assert(buffers[0].Free(), qt.IsNil)
	c.Assert(buffers[0].Free(), qt.IsNil)
	c.Assert(buffers[0].State(), qt.Equals, resources.CommandBufferInvalid)
	c.Assert(pool.Allocated(), qt.Equals, 2)
	c.Assert(f.fake.Pools[0].FreedCount, qt.Equals, 1)

	err = buffers[0].Begin(0)
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)

	_, err = pool.AllocateN(driver.CommandBufferLevelPrimary, 0)
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)
}

func TestCommandPoolDestroyInvalidatesBuffers(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, nil)

	pool, err := resources.NewGraphicsCommandPool(f.device)
	c.Assert(err, qt.IsNil)

	buffer, err := pool.Allocate(driver.CommandBufferLevelPrimary)
	c.Assert(err, qt.IsNil)

	c.Assert(pool.Destroy(), qt.IsNil)
	c.Assert(pool.Destroy(), qt.IsNil)

	c.Assert(buffer.State(), qt.Equals, resources.CommandBufferInvalid)
	c.Assert(buffer.Free(), qt.IsNil)
	c.Assert(f.fake.Pools[0].DestroyCount, qt.Equals, 1)
	c.Assert(f.fake.Pools[0].FreedCount, qt.Equals, 0)
	c.Assert(f.device.Dependents(), qt.Equals, 0)

	_, err = pool.Allocate(driver.CommandBufferLevelPrimary)
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "allocate command buffers: command pool destroyed")
}

func TestCommandPoolRejectsConcurrentUse(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, nil)

	pool, err := resources.NewGraphicsCommandPool(f.device)
	c.Assert(err, qt.IsNil)
	defer pool.Destroy()

	var nested error
	err = pool.SubmitOnce(f.device.GraphicsQueue(), func(buffer *resources.CommandBuffer) error {
		_, nested = pool.Allocate(driver.CommandBufferLevelPrimary)
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(errors.Is(nested, core.ErrStateViolation), qt.IsTrue)
	c.Assert(nested, qt.ErrorMatches, "allocate command buffers: command pool is in use by another goroutine")

	// The pool is usable again once the first call returns.
	_, err = pool.Allocate(driver.CommandBufferLevelPrimary)
	c.Assert(err, qt.IsNil)
}

func TestCommandPoolDestroyDuringSubmit(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, nil)

	pool, err := resources.NewGraphicsCommandPool(f.device)
	c.Assert(err, qt.IsNil)

	var nested error
	err = pool.SubmitOnce(f.device.GraphicsQueue(), func(buffer *resources.CommandBuffer) error {
		nested = pool.Destroy()
		return nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(errors.Is(nested, core.ErrStateViolation), qt.IsTrue)
	c.Assert(nested, qt.ErrorMatches, "destroy command pool: command pool is in use by another goroutine")
	c.Assert(f.fake.Pools[0].DestroyCount, qt.Equals, 0)
	c.Assert(f.queue().Submissions, qt.HasLen, 1)

	c.Assert(pool.Destroy(), qt.IsNil)
	c.Assert(f.fake.Pools[0].DestroyCount, qt.Equals, 1)
	c.Assert(f.device.Dependents(), qt.Equals, 0)
}

func TestSubmitOnceFreesBufferOnFailure(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, nil)

	pool, err := resources.NewGraphicsCommandPool(f.device)
	c.Assert(err, qt.IsNil)
	defer pool.Destroy()

	var recorded *resources.CommandBuffer
	err = pool.SubmitOnce(f.device.GraphicsQueue(), func(buffer *resources.CommandBuffer) error {
		recorded = buffer
		return errors.New("record failed")
	})
	c.Assert(err, qt.ErrorMatches, "record failed")
	c.Assert(recorded.State(), qt.Equals, resources.CommandBufferInvalid)
	c.Assert(pool.Allocated(), qt.Equals, 0)
	c.Assert(f.queue().Submissions, qt.HasLen, 0)

	f.queue().SubmitErr = errors.New("VK_ERROR_DEVICE_LOST")
	err = pool.SubmitOnce(f.device.GraphicsQueue(), func(buffer *resources.CommandBuffer) error { return nil })
	c.Assert(err, qt.ErrorMatches, "submit one-time commands: VK_ERROR_DEVICE_LOST")
	c.Assert(pool.Allocated(), qt.Equals, 0)
}

func TestSemaphore(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, nil)

	semaphore, err := resources.NewSemaphore(f.device)
	c.Assert(err, qt.IsNil)
	c.Assert(semaphore.Handle(), qt.Equals, driver.Semaphore(f.fake.Semaphores[0]))
	c.Assert(f.device.Dependents(), qt.Equals, 1)

	semaphore.Destroy()
	semaphore.Destroy()
	c.Assert(f.fake.Semaphores[0].DestroyCount, qt.Equals, 1)
	c.Assert(f.device.Dependents(), qt.Equals, 0)
}
