// Package pipeline describes how rendering uses the swapchain images.
package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/logging"
	"golang.org/x/exp/slog"
)

// Subpass refers to attachments through the render pass's reference list rather than
// holding references itself.
type Subpass struct {
	BindPoint driver.PipelineBindPoint
	// ColorReferences index into the attachment reference list.
	ColorReferences []int
	// DepthStencilReference indexes into the attachment reference list. Nil for none.
	DepthStencilReference *int
}

// RenderPass keeps four index-linked lists: subpasses point into the references, and
// references point into the attachments. Any change to a list rebuilds the driver object.
type RenderPass struct {
	handle driver.RenderPass
	device *core.LogicalDevice
	logger *slog.Logger

	attachments  []driver.AttachmentDescription
	references   []driver.AttachmentReference
	subpasses    []Subpass
	dependencies []driver.SubpassDependency
}

// ColorAttachment clears on load, keeps the result and leaves the image ready to present.
func ColorAttachment(format driver.Format) driver.AttachmentDescription {
	return driver.AttachmentDescription{
		Format:         format,
		Samples:        driver.Samples1,
		LoadOp:         driver.AttachmentLoadOpClear,
		StoreOp:        driver.AttachmentStoreOpStore,
		StencilLoadOp:  driver.AttachmentLoadOpDontCare,
		StencilStoreOp: driver.AttachmentStoreOpDontCare,
		InitialLayout:  driver.ImageLayoutUndefined,
		FinalLayout:    driver.ImageLayoutPresentSrc,
	}
}

// ColorWriteDependency orders this frame's color writes after whatever used the image
// before the render pass.
var ColorWriteDependency = driver.SubpassDependency{
	SrcSubpass: driver.SubpassExternal,
	DstSubpass: 0,

	SrcStageMask:  driver.PipelineStageColorAttachmentOutput,
	SrcAccessMask: 0,

	DstStageMask:  driver.PipelineStageColorAttachmentOutput,
	DstAccessMask: driver.AccessColorAttachmentWrite,
}

// NewRenderPass creates a single-subpass render pass drawing into one color attachment
// of the given format.
func NewRenderPass(device *core.LogicalDevice, imageFormat driver.Format, logger *slog.Logger) (*RenderPass, error) {
	if err := device.Retain(); err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}

	renderPass := &RenderPass{
		device: device,
		logger: logging.OrDiscard(logger),

		attachments: []driver.AttachmentDescription{ColorAttachment(imageFormat)},
		references: []driver.AttachmentReference{
			{Attachment: 0, Layout: driver.ImageLayoutColorAttachmentOptimal},
		},
		subpasses: []Subpass{
			{BindPoint: driver.PipelineBindPointGraphics, ColorReferences: []int{0}},
		},
		dependencies: []driver.SubpassDependency{ColorWriteDependency},
	}

	err := renderPass.rebuild(renderPass.attachments, renderPass.references, renderPass.subpasses, renderPass.dependencies)
	if err != nil {
		device.Release()
		return nil, err
	}

	return renderPass, nil
}

func validate(attachments []driver.AttachmentDescription, references []driver.AttachmentReference, subpasses []Subpass, dependencies []driver.SubpassDependency) error {
	if len(subpasses) == 0 {
		return core.StateViolation("render pass needs at least one subpass")
	}

	for i, reference := range references {
		if reference.Attachment < 0 || reference.Attachment >= len(attachments) {
			return core.StateViolation("attachment reference %d points at attachment %d of %d", i, reference.Attachment, len(attachments))
		}
	}

	for i, subpass := range subpasses {
		for _, index := range subpass.ColorReferences {
			if index < 0 || index >= len(references) {
				return core.StateViolation("subpass %d uses color reference %d of %d", i, index, len(references))
			}
		}
		if subpass.DepthStencilReference != nil {
			index := *subpass.DepthStencilReference
			if index < 0 || index >= len(references) {
				return core.StateViolation("subpass %d uses depth reference %d of %d", i, index, len(references))
			}
		}
	}

	validSubpass := func(index int) bool {
		return index == driver.SubpassExternal || (index >= 0 && index < len(subpasses))
	}
	for i, dependency := range dependencies {
		if !validSubpass(dependency.SrcSubpass) || !validSubpass(dependency.DstSubpass) {
			return core.StateViolation("dependency %d links subpasses %d and %d of %d", i, dependency.SrcSubpass, dependency.DstSubpass, len(subpasses))
		}
		if dependency.SrcSubpass == driver.SubpassExternal && dependency.DstSubpass == driver.SubpassExternal {
			return core.StateViolation("dependency %d is external on both sides", i)
		}
	}

	return nil
}

func createInfo(attachments []driver.AttachmentDescription, references []driver.AttachmentReference, subpasses []Subpass, dependencies []driver.SubpassDependency) driver.RenderPassCreateInfo {
	info := driver.RenderPassCreateInfo{
		Attachments:  append([]driver.AttachmentDescription(nil), attachments...),
		Dependencies: append([]driver.SubpassDependency(nil), dependencies...),
	}

	for _, subpass := range subpasses {
		description := driver.SubpassDescription{PipelineBindPoint: subpass.BindPoint}
		for _, index := range subpass.ColorReferences {
			description.ColorAttachments = append(description.ColorAttachments, references[index])
		}
		if subpass.DepthStencilReference != nil {
			reference := references[*subpass.DepthStencilReference]
			description.DepthStencilAttachment = &reference
		}
		info.Subpasses = append(info.Subpasses, description)
	}

	return info
}

// rebuild creates a render pass from the given lists and only then replaces the current
// one. On failure the current lists and handle stay in place.
func (r *RenderPass) rebuild(attachments []driver.AttachmentDescription, references []driver.AttachmentReference, subpasses []Subpass, dependencies []driver.SubpassDependency) error {
	if !r.device.Live() {
		return core.StateViolation("rebuild render pass: logical device destroyed")
	}

	err := validate(attachments, references, subpasses, dependencies)
	if err != nil {
		return err
	}

	handle, err := r.device.Handle().CreateRenderPass(createInfo(attachments, references, subpasses, dependencies))
	if err != nil {
		return core.CreationFailed(err, "create render pass with %d attachments and %d subpasses", len(attachments), len(subpasses))
	}

	if r.handle != nil {
		r.handle.Destroy()
	}
	r.handle = handle
	r.attachments = attachments
	r.references = references
	r.subpasses = subpasses
	r.dependencies = dependencies

	r.logger.Debug("render pass created",
		slog.Int("attachments", len(attachments)),
		slog.Int("subpasses", len(subpasses)),
		slog.Int("dependencies", len(dependencies)),
	)
	return nil
}

func (r *RenderPass) checkLive() error {
	if r.handle == nil {
		return core.StateViolation("render pass destroyed")
	}
	return nil
}

// SetImageFormat changes the format of the first attachment, which NewRenderPass sets up
// as the swapchain color attachment.
func (r *RenderPass) SetImageFormat(format driver.Format) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	if len(r.attachments) == 0 {
		return core.StateViolation("set image format: render pass has no attachments")
	}

	attachments := append([]driver.AttachmentDescription(nil), r.attachments...)
	attachments[0].Format = format
	return r.rebuild(attachments, r.references, r.subpasses, r.dependencies)
}

func (r *RenderPass) SetAttachments(attachments []driver.AttachmentDescription) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	return r.rebuild(append([]driver.AttachmentDescription(nil), attachments...), r.references, r.subpasses, r.dependencies)
}

func (r *RenderPass) SetAttachmentReferences(references []driver.AttachmentReference) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	return r.rebuild(r.attachments, append([]driver.AttachmentReference(nil), references...), r.subpasses, r.dependencies)
}

func (r *RenderPass) SetSubpasses(subpasses []Subpass) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	return r.rebuild(r.attachments, r.references, append([]Subpass(nil), subpasses...), r.dependencies)
}

func (r *RenderPass) SetDependencies(dependencies []driver.SubpassDependency) error {
	if err := r.checkLive(); err != nil {
		return err
	}
	return r.rebuild(r.attachments, r.references, r.subpasses, append([]driver.SubpassDependency(nil), dependencies...))
}

func (r *RenderPass) Handle() driver.RenderPass {
	return r.handle
}

func (r *RenderPass) ImageFormat() driver.Format {
	if len(r.attachments) == 0 {
		return driver.FormatUndefined
	}
	return r.attachments[0].Format
}

func (r *RenderPass) Attachments() []driver.AttachmentDescription {
	return append([]driver.AttachmentDescription(nil), r.attachments...)
}

func (r *RenderPass) AttachmentReferences() []driver.AttachmentReference {
	return append([]driver.AttachmentReference(nil), r.references...)
}

func (r *RenderPass) Subpasses() []Subpass {
	return append([]Subpass(nil), r.subpasses...)
}

func (r *RenderPass) Dependencies() []driver.SubpassDependency {
	return append([]driver.SubpassDependency(nil), r.dependencies...)
}

// Destroy releases the render pass. Calling it again is a no-op.
func (r *RenderPass) Destroy() {
	if r == nil || r.handle == nil {
		return
	}
	r.handle.Destroy()
	r.handle = nil
	r.device.Release()
}
