package vkng

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/core/core1_0"
)

func (d *Device) CreateRenderPass(info driver.RenderPassCreateInfo) (driver.RenderPass, error) {
	renderPass, _, err := d.handle.CreateRenderPass(nil, renderPassCreateInfo(info))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateRenderPass")
	}
	return &RenderPass{handle: renderPass}, nil
}

func renderPassCreateInfo(info driver.RenderPassCreateInfo) core1_0.RenderPassCreateInfo {
	var options core1_0.RenderPassCreateInfo

	for _, attachment := range info.Attachments {
		options.Attachments = append(options.Attachments, core1_0.AttachmentDescription{
			Format:         core1_0.Format(attachment.Format),
			Samples:        core1_0.SampleCountFlags(attachment.Samples),
			LoadOp:         core1_0.AttachmentLoadOp(attachment.LoadOp),
			StoreOp:        core1_0.AttachmentStoreOp(attachment.StoreOp),
			StencilLoadOp:  core1_0.AttachmentLoadOp(attachment.StencilLoadOp),
			StencilStoreOp: core1_0.AttachmentStoreOp(attachment.StencilStoreOp),
			InitialLayout:  core1_0.ImageLayout(attachment.InitialLayout),
			FinalLayout:    core1_0.ImageLayout(attachment.FinalLayout),
		})
	}

	for _, subpass := range info.Subpasses {
		description := core1_0.SubpassDescription{
			PipelineBindPoint: core1_0.PipelineBindPoint(subpass.PipelineBindPoint),
		}
		for _, ref := range subpass.ColorAttachments {
			description.ColorAttachments = append(description.ColorAttachments, attachmentReference(ref))
		}
		if subpass.DepthStencilAttachment != nil {
			depth := attachmentReference(*subpass.DepthStencilAttachment)
			description.DepthStencilAttachment = &depth
		}
		options.Subpasses = append(options.Subpasses, description)
	}

	for _, dependency := range info.Dependencies {
		options.SubpassDependencies = append(options.SubpassDependencies, core1_0.SubpassDependency{
			SrcSubpass: dependency.SrcSubpass,
			DstSubpass: dependency.DstSubpass,

			SrcStageMask:  core1_0.PipelineStageFlags(dependency.SrcStageMask),
			SrcAccessMask: core1_0.AccessFlags(dependency.SrcAccessMask),

			DstStageMask:  core1_0.PipelineStageFlags(dependency.DstStageMask),
			DstAccessMask: core1_0.AccessFlags(dependency.DstAccessMask),
		})
	}

	return options
}

func attachmentReference(ref driver.AttachmentReference) core1_0.AttachmentReference {
	return core1_0.AttachmentReference{
		Attachment: ref.Attachment,
		Layout:     core1_0.ImageLayout(ref.Layout),
	}
}

type RenderPass struct {
	handle core1_0.RenderPass
}

func (p *RenderPass) Destroy() {
	p.handle.Destroy(nil)
}

func (d *Device) CreateBuffer(info driver.BufferCreateInfo) (driver.Buffer, error) {
	buffer, _, err := d.handle.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        info.Size,
		Usage:       core1_0.BufferUsageFlags(info.Usage),
		SharingMode: core1_0.SharingMode(info.SharingMode),
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateBuffer")
	}
	return &Buffer{handle: buffer}, nil
}

type Buffer struct {
	handle core1_0.Buffer
}

func (b *Buffer) MemoryRequirements() driver.MemoryRequirements {
	requirements := b.handle.MemoryRequirements()
	return driver.MemoryRequirements{
		Size:           requirements.Size,
		Alignment:      requirements.Alignment,
		MemoryTypeBits: requirements.MemoryTypeBits,
	}
}

func (b *Buffer) BindMemory(memory driver.DeviceMemory, offset int) error {
	_, err := b.handle.BindBufferMemory(memory.(*DeviceMemory).handle, offset)
	return errors.Wrap(err, "vkBindBufferMemory")
}

func (b *Buffer) Destroy() {
	b.handle.Destroy(nil)
}

func (d *Device) AllocateMemory(size int, memoryTypeIndex int) (driver.DeviceMemory, error) {
	memory, _, err := d.handle.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkAllocateMemory")
	}
	return &DeviceMemory{handle: memory, device: d.handle}, nil
}

type DeviceMemory struct {
	handle core1_0.DeviceMemory
	device core1_0.Device
}

func (m *DeviceMemory) Map(offset, size int) (unsafe.Pointer, error) {
	ptr, _, err := m.handle.Map(offset, size, 0)
	if err != nil {
		return nil, errors.Wrap(err, "vkMapMemory")
	}
	return ptr, nil
}

func (m *DeviceMemory) Unmap() {
	m.handle.Unmap()
}

func (m *DeviceMemory) Flush(offset, size int) error {
	_, err := m.device.FlushMappedMemoryRanges([]core1_0.MappedMemoryRange{
		{
			Memory: m.handle,
			Offset: offset,
			Size:   size,
		},
	})
	return errors.Wrap(err, "vkFlushMappedMemoryRanges")
}

func (m *DeviceMemory) Free() {
	m.handle.Free(nil)
}

func (d *Device) CreateCommandPool(queueFamilyIndex int, flags driver.CommandPoolCreateFlags) (driver.CommandPool, error) {
	pool, _, err := d.handle.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateFlags(flags),
		QueueFamilyIndex: &queueFamilyIndex,
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateCommandPool")
	}
	return &CommandPool{handle: pool, device: d.handle}, nil
}

type CommandPool struct {
	handle core1_0.CommandPool
	device core1_0.Device
}

func (p *CommandPool) AllocateCommandBuffers(level driver.CommandBufferLevel, count int) ([]driver.CommandBuffer, error) {
	buffers, _, err := p.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.handle,
		Level:              core1_0.CommandBufferLevel(level),
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkAllocateCommandBuffers")
	}

	result := make([]driver.CommandBuffer, 0, len(buffers))
	for _, buffer := range buffers {
		result = append(result, &CommandBuffer{handle: buffer})
	}
	return result, nil
}

func (p *CommandPool) FreeCommandBuffers(buffers []driver.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}

	handles := make([]core1_0.CommandBuffer, 0, len(buffers))
	for _, buffer := range buffers {
		handles = append(handles, buffer.(*CommandBuffer).handle)
	}
	p.device.FreeCommandBuffers(handles)
}

func (p *CommandPool) Destroy() {
	p.handle.Destroy(nil)
}

type CommandBuffer struct {
	handle core1_0.CommandBuffer
}

func (b *CommandBuffer) Begin(usage driver.CommandBufferUsageFlags) error {
	_, err := b.handle.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageFlags(usage),
	})
	return errors.Wrap(err, "vkBeginCommandBuffer")
}

func (b *CommandBuffer) End() error {
	_, err := b.handle.End()
	return errors.Wrap(err, "vkEndCommandBuffer")
}

func (b *CommandBuffer) CmdCopyBuffer(src, dst driver.Buffer, regions []driver.BufferCopy) error {
	copies := make([]core1_0.BufferCopy, 0, len(regions))
	for _, region := range regions {
		copies = append(copies, core1_0.BufferCopy{
			SrcOffset: region.SrcOffset,
			DstOffset: region.DstOffset,
			Size:      region.Size,
		})
	}

	return b.handle.CmdCopyBuffer(src.(*Buffer).handle, dst.(*Buffer).handle, copies)
}

func (b *CommandBuffer) CmdCopyBufferToImage(src driver.Buffer, dst driver.Image, layout driver.ImageLayout, regions []driver.BufferImageCopy) error {
	copies := make([]core1_0.BufferImageCopy, 0, len(regions))
	for _, region := range regions {
		copies = append(copies, core1_0.BufferImageCopy{
			BufferOffset:      region.BufferOffset,
			BufferRowLength:   0,
			BufferImageHeight: 0,
			ImageSubresource: core1_0.ImageSubresourceLayers{
				AspectMask:     core1_0.ImageAspectColor,
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
			ImageExtent: core1_0.Extent3D{Width: region.ImageExtent.Width, Height: region.ImageExtent.Height, Depth: 1},
		})
	}

	return b.handle.CmdCopyBufferToImage(src.(*Buffer).handle, dst.(core1_0.Image), core1_0.ImageLayout(layout), copies)
}
