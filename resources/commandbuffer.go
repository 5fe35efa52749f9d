package resources

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
)

type CommandBufferState int

const (
	// CommandBufferInvalid buffers were freed, or their pool was destroyed.
	CommandBufferInvalid CommandBufferState = iota
	CommandBufferReady
	CommandBufferRecording
)

func (s CommandBufferState) String() string {
	switch s {
	case CommandBufferInvalid:
		return "Invalid"
	case CommandBufferReady:
		return "Ready"
	case CommandBufferRecording:
		return "Recording"
	}
	return "Unknown"
}

// CommandBuffer records commands for submission. It moves between Ready and Recording
// with Begin and End.
type CommandBuffer struct {
	handle driver.CommandBuffer
	pool   *CommandPool
	level  driver.CommandBufferLevel
	state  CommandBufferState
}

func (b *CommandBuffer) Begin(usage driver.CommandBufferUsageFlags) error {
	if b.state != CommandBufferReady {
		return core.StateViolation("begin command buffer: state is %s, want Ready", b.state)
	}
	if err := b.handle.Begin(usage); err != nil {
		return errors.Wrap(err, "begin command buffer")
	}
	b.state = CommandBufferRecording
	return nil
}

func (b *CommandBuffer) End() error {
	if b.state != CommandBufferRecording {
		return core.StateViolation("end command buffer: state is %s, want Recording", b.state)
	}
	if err := b.handle.End(); err != nil {
		return errors.Wrap(err, "end command buffer")
	}
	b.state = CommandBufferReady
	return nil
}

func (b *CommandBuffer) recording(command string) error {
	if b.state != CommandBufferRecording {
		return core.StateViolation("%s: command buffer is not recording", command)
	}
	return nil
}

// CopyBuffer records a copy of regions from src to dst.
func (b *CommandBuffer) CopyBuffer(src, dst *Buffer, regions ...driver.BufferCopy) error {
	if err := b.recording("copy buffer"); err != nil {
		return err
	}
	if !src.InUse() || !dst.InUse() {
		return core.StateViolation("copy buffer: buffer not created")
	}
	return errors.Wrap(b.handle.CmdCopyBuffer(src.handle, dst.handle, regions), "record buffer copy")
}

// CopyBufferToImage records a copy from src into image, which must be in layout.
func (b *CommandBuffer) CopyBufferToImage(src *Buffer, image driver.Image, layout driver.ImageLayout, regions ...driver.BufferImageCopy) error {
	if err := b.recording("copy buffer to image"); err != nil {
		return err
	}
	if !src.InUse() {
		return core.StateViolation("copy buffer to image: buffer not created")
	}
	return errors.Wrap(b.handle.CmdCopyBufferToImage(src.handle, image, layout, regions), "record buffer to image copy")
}

func (b *CommandBuffer) Handle() driver.CommandBuffer {
	return b.handle
}

func (b *CommandBuffer) Level() driver.CommandBufferLevel {
	return b.level
}

func (b *CommandBuffer) State() CommandBufferState {
	return b.state
}

// Free returns the buffer to its pool. Freeing a buffer twice, or after the pool was
// destroyed, does nothing.
func (b *CommandBuffer) Free() error {
	if b.state == CommandBufferInvalid {
		return nil
	}

	// Destroying the pool invalidates its buffers, so a live buffer has a live pool.
	if err := b.pool.acquire("free command buffer"); err != nil {
		return err
	}
	defer b.pool.owner.Unlock()

	b.pool.free(b)
	b.state = CommandBufferInvalid
	return nil
}
