package resources

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
)

// CommandPool allocates command buffers for one queue family. A pool belongs to a single
// goroutine at a time: a call made while another call on the same pool is in progress
// fails with core.ErrStateViolation. Use one pool per worker.
type CommandPool struct {
	owner sync.Mutex

	handle driver.CommandPool
	device *core.LogicalDevice
	family int
	flags  driver.CommandPoolCreateFlags

	buffers map[*CommandBuffer]struct{}
}

func NewCommandPool(device *core.LogicalDevice, queueFamilyIndex int, flags driver.CommandPoolCreateFlags) (*CommandPool, error) {
	if queueFamilyIndex == core.QueueFamilyIgnored {
		return nil, errors.Mark(errors.New("create command pool: queue family not resolved"), core.ErrQueueResolution)
	}
	if err := device.Retain(); err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}

	handle, err := device.Handle().CreateCommandPool(queueFamilyIndex, flags)
	if err != nil {
		device.Release()
		return nil, core.CreationFailed(err, "create command pool for queue family %d", queueFamilyIndex)
	}

	return &CommandPool{
		handle:  handle,
		device:  device,
		family:  queueFamilyIndex,
		flags:   flags,
		buffers: make(map[*CommandBuffer]struct{}),
	}, nil
}

// NewGraphicsCommandPool creates a pool on the graphics family whose buffers can be reset
// individually.
func NewGraphicsCommandPool(device *core.LogicalDevice) (*CommandPool, error) {
	return NewCommandPool(device, device.Indices().Graphics, driver.CommandPoolCreateResetCommandBuffer)
}

func (p *CommandPool) acquire(operation string) error {
	if !p.owner.TryLock() {
		return core.StateViolation("%s: command pool is in use by another goroutine", operation)
	}
	if p.handle == nil {
		p.owner.Unlock()
		return core.StateViolation("%s: command pool destroyed", operation)
	}
	return nil
}

func (p *CommandPool) Allocate(level driver.CommandBufferLevel) (*CommandBuffer, error) {
	buffers, err := p.AllocateN(level, 1)
	if err != nil {
		return nil, err
	}
	return buffers[0], nil
}

func (p *CommandPool) AllocateN(level driver.CommandBufferLevel, count int) ([]*CommandBuffer, error) {
	if err := p.acquire("allocate command buffers"); err != nil {
		return nil, err
	}
	defer p.owner.Unlock()

	return p.allocate(level, count)
}

func (p *CommandPool) allocate(level driver.CommandBufferLevel, count int) ([]*CommandBuffer, error) {
	if count <= 0 {
		return nil, core.StateViolation("allocate command buffers: count %d", count)
	}

	handles, err := p.handle.AllocateCommandBuffers(level, count)
	if err != nil {
		return nil, core.CreationFailed(err, "allocate %d command buffers from queue family %d", count, p.family)
	}

	buffers := make([]*CommandBuffer, 0, len(handles))
	for _, handle := range handles {
		buffer := &CommandBuffer{handle: handle, pool: p, level: level, state: CommandBufferReady}
		p.buffers[buffer] = struct{}{}
		buffers = append(buffers, buffer)
	}
	return buffers, nil
}

func (p *CommandPool) free(buffer *CommandBuffer) {
	if _, ok := p.buffers[buffer]; !ok {
		return
	}
	delete(p.buffers, buffer)
	p.handle.FreeCommandBuffers([]driver.CommandBuffer{buffer.handle})
}

// SubmitOnce records a one-time command buffer with record, submits it to queue and waits
// for the queue to go idle. The command buffer is freed before returning.
func (p *CommandPool) SubmitOnce(queue driver.Queue, record func(buffer *CommandBuffer) error) error {
	if err := p.acquire("submit one-time commands"); err != nil {
		return err
	}
	defer p.owner.Unlock()

	buffers, err := p.allocate(driver.CommandBufferLevelPrimary, 1)
	if err != nil {
		return err
	}
	buffer := buffers[0]
	defer func() {
		p.free(buffer)
		buffer.state = CommandBufferInvalid
	}()

	err = buffer.Begin(driver.CommandBufferUsageOneTimeSubmit)
	if err != nil {
		return err
	}

	err = record(buffer)
	if err != nil {
		return err
	}

	err = buffer.End()
	if err != nil {
		return err
	}

	err = queue.Submit([]driver.SubmitInfo{
		{
			CommandBuffers: []driver.CommandBuffer{buffer.handle},
		},
	})
	if err != nil {
		return errors.Wrap(err, "submit one-time commands")
	}

	return errors.Wrap(queue.WaitIdle(), "wait for queue idle")
}

func (p *CommandPool) Handle() driver.CommandPool {
	return p.handle
}

func (p *CommandPool) QueueFamily() int {
	return p.family
}

func (p *CommandPool) Flags() driver.CommandPoolCreateFlags {
	return p.flags
}

// Allocated is the number of command buffers allocated from the pool and not yet freed.
func (p *CommandPool) Allocated() int {
	return len(p.buffers)
}

// Destroy releases the pool and with it every command buffer allocated from it. Calling it
// again is a no-op. Destroying a pool while another call on it is in progress fails with
// core.ErrStateViolation and leaves the pool intact.
func (p *CommandPool) Destroy() error {
	if p == nil {
		return nil
	}
	if !p.owner.TryLock() {
		return core.StateViolation("destroy command pool: command pool is in use by another goroutine")
	}
	defer p.owner.Unlock()

	if p.handle == nil {
		return nil
	}

	for buffer := range p.buffers {
		buffer.state = CommandBufferInvalid
	}
	p.buffers = nil

	p.handle.Destroy()
	p.handle = nil
	p.device.Release()
	return nil
}
