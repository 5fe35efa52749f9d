package pipeline_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/driver/drivertest"
	"github.com/vkngwrapper/carbon/pipeline"
)

type fixture struct {
	loader *drivertest.Loader
	fake   *drivertest.Device
	device *core.LogicalDevice
}

func newFixture(c *qt.C) *fixture {
	physical := drivertest.NewPhysicalDevice("Test GPU", driver.PhysicalDeviceTypeDiscreteGPU, 8192)
	loader := drivertest.NewLoader([]string{"VK_KHR_surface"}, nil, physical)

	instance, err := core.NewInstance(loader, core.InstanceConfig{
		ApplicationName:  "pipeline test",
		WindowExtensions: []string{"VK_KHR_surface"},
	}, nil)
	c.Assert(err, qt.IsNil)

	surface, err := core.NewSurface(instance, &drivertest.SurfaceSource{Surface: drivertest.NewSurface()})
	c.Assert(err, qt.IsNil)

	selected, err := core.SelectPhysicalDevice(instance, surface, core.SelectorOptions{}, nil)
	c.Assert(err, qt.IsNil)

	indices, err := core.ResolveQueueFamilies(selected, surface)
	c.Assert(err, qt.IsNil)

	device, err := core.NewLogicalDevice(selected, indices, core.DeviceOptions{}, nil)
	c.Assert(err, qt.IsNil)

	return &fixture{loader: loader, fake: physical.Devices[0], device: device}
}

func TestNewRenderPassDefaults(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)

	renderPass, err := pipeline.NewRenderPass(f.device, driver.FormatB8G8R8A8SRGB, nil)
	c.Assert(err, qt.IsNil)
	defer renderPass.Destroy()

	c.Assert(renderPass.ImageFormat(), qt.Equals, driver.FormatB8G8R8A8SRGB)
	c.Assert(f.device.Dependents(), qt.Equals, 1)
	c.Assert(f.fake.RenderPasses, qt.HasLen, 1)

	info := f.fake.RenderPasses[0].Info
	c.Assert(info.Attachments, qt.DeepEquals, []driver.AttachmentDescription{{
		Format:         driver.FormatB8G8R8A8SRGB,
		Samples:        driver.Samples1,
		LoadOp:         driver.AttachmentLoadOpClear,
		StoreOp:        driver.AttachmentStoreOpStore,
		StencilLoadOp:  driver.AttachmentLoadOpDontCare,
		StencilStoreOp: driver.AttachmentStoreOpDontCare,
		InitialLayout:  driver.ImageLayoutUndefined,
		FinalLayout:    driver.ImageLayoutPresentSrc,
	}})
	c.Assert(info.Subpasses, qt.DeepEquals, []driver.SubpassDescription{{
		PipelineBindPoint: driver.PipelineBindPointGraphics,
		ColorAttachments: []driver.AttachmentReference{
			{Attachment: 0, Layout: driver.ImageLayoutColorAttachmentOptimal},
		},
	}})
	c.Assert(info.Dependencies, qt.DeepEquals, []driver.SubpassDependency{{
		SrcSubpass:    driver.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  driver.PipelineStageColorAttachmentOutput,
		DstStageMask:  driver.PipelineStageColorAttachmentOutput,
		DstAccessMask: driver.AccessColorAttachmentWrite,
	}})
}

func TestRenderPassSetterRebuildsAndDestroysPrevious(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)

	renderPass, err := pipeline.NewRenderPass(f.device, driver.FormatB8G8R8A8SRGB, nil)
	c.Assert(err, qt.IsNil)
	defer renderPass.Destroy()

	first := renderPass.Handle()
	c.Assert(renderPass.SetImageFormat(driver.FormatR8G8B8A8SRGB), qt.IsNil)

	c.Assert(renderPass.Handle(), qt.Not(qt.Equals), first)
	c.Assert(renderPass.ImageFormat(), qt.Equals, driver.FormatR8G8B8A8SRGB)
	c.Assert(f.fake.RenderPasses, qt.HasLen, 2)
	c.Assert(f.fake.RenderPasses[0].DestroyCount, qt.Equals, 1)
	c.Assert(f.fake.RenderPasses[1].DestroyCount, qt.Equals, 0)
	c.Assert(f.fake.RenderPasses[1].Info.Attachments[0].Format, qt.Equals, driver.FormatR8G8B8A8SRGB)
	c.Assert(f.device.Dependents(), qt.Equals, 1)
}

func TestRenderPassDepthAttachment(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)

	renderPass, err := pipeline.NewRenderPass(f.device, driver.FormatB8G8R8A8SRGB, nil)
	c.Assert(err, qt.IsNil)
	defer renderPass.Destroy()

	depth := driver.AttachmentDescription{
		Format:        driver.FormatD32SignedFloat,
		Samples:       driver.Samples1,
		LoadOp:        driver.AttachmentLoadOpClear,
		StoreOp:       driver.AttachmentStoreOpDontCare,
		InitialLayout: driver.ImageLayoutUndefined,
		FinalLayout:   driver.ImageLayoutGeneral,
	}
	attachments := append(renderPass.Attachments(), depth)
	c.Assert(renderPass.SetAttachments(attachments), qt.IsNil)

	references := append(renderPass.AttachmentReferences(), driver.AttachmentReference{Attachment: 1, Layout: driver.ImageLayoutGeneral})
	c.Assert(renderPass.SetAttachmentReferences(references), qt.IsNil)

	depthReference := 1
	err = renderPass.SetSubpasses([]pipeline.Subpass{{
		BindPoint:             driver.PipelineBindPointGraphics,
		ColorReferences:       []int{0},
		DepthStencilReference: &depthReference,
	}})
	c.Assert(err, qt.IsNil)

	latest := f.fake.RenderPasses[len(f.fake.RenderPasses)-1].Info
	c.Assert(latest.Attachments, qt.HasLen, 2)
	c.Assert(latest.Subpasses[0].DepthStencilAttachment, qt.DeepEquals, &driver.AttachmentReference{Attachment: 1, Layout: driver.ImageLayoutGeneral})

	// Every rebuild but the last leaves a destroyed render pass behind.
	for _, fake := range f.fake.RenderPasses[:len(f.fake.RenderPasses)-1] {
		c.Assert(fake.DestroyCount, qt.Equals, 1)
	}
}

func TestRenderPassRejectsInconsistentLists(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)

	renderPass, err := pipeline.NewRenderPass(f.device, driver.FormatB8G8R8A8SRGB, nil)
	c.Assert(err, qt.IsNil)
	defer renderPass.Destroy()

	handle := renderPass.Handle()
	missing := 4

	tests := []struct {
		name  string
		apply func() error
	}{
		{"no attachments", func() error { return renderPass.SetAttachments(nil) }},
		{"reference past attachments", func() error {
			return renderPass.SetAttachmentReferences([]driver.AttachmentReference{{Attachment: 3}})
		}},
		{"color reference past references", func() error {
			return renderPass.SetSubpasses([]pipeline.Subpass{{ColorReferences: []int{2}}})
		}},
		{"depth reference past references", func() error {
			return renderPass.SetSubpasses([]pipeline.Subpass{{ColorReferences: []int{0}, DepthStencilReference: &missing}})
		}},
		{"no subpasses", func() error { return renderPass.SetSubpasses(nil) }},
		{"dependency past subpasses", func() error {
			return renderPass.SetDependencies([]driver.SubpassDependency{{SrcSubpass: driver.SubpassExternal, DstSubpass: 1}})
		}},
		{"external on both sides", func() error {
			return renderPass.SetDependencies([]driver.SubpassDependency{{SrcSubpass: driver.SubpassExternal, DstSubpass: driver.SubpassExternal}})
		}},
	}

	for _, test := range tests {
		c.Run(test.name, func(c *qt.C) {
			err := test.apply()
			c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)
			c.Assert(renderPass.Handle(), qt.Equals, handle)
		})
	}

	c.Assert(f.fake.RenderPasses, qt.HasLen, 1)
	c.Assert(renderPass.Attachments(), qt.HasLen, 1)
}

func TestRenderPassRebuildFailureKeepsPrevious(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)

	renderPass, err := pipeline.NewRenderPass(f.device, driver.FormatB8G8R8A8SRGB, nil)
	c.Assert(err, qt.IsNil)
	defer renderPass.Destroy()

	handle := renderPass.Handle()
	f.fake.RenderPassErr = errors.New("VK_ERROR_OUT_OF_DEVICE_MEMORY")

	err = renderPass.SetImageFormat(driver.FormatR8G8B8A8SRGB)
	c.Assert(errors.Is(err, core.ErrCreationFailure), qt.IsTrue)
	c.Assert(renderPass.Handle(), qt.Equals, handle)
	c.Assert(renderPass.ImageFormat(), qt.Equals, driver.FormatB8G8R8A8SRGB)
	c.Assert(f.fake.RenderPasses[0].DestroyCount, qt.Equals, 0)
}

func TestNewRenderPassCreationFailure(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	f.fake.RenderPassErr = errors.New("VK_ERROR_OUT_OF_HOST_MEMORY")

	_, err := pipeline.NewRenderPass(f.device, driver.FormatB8G8R8A8SRGB, nil)
	c.Assert(errors.Is(err, core.ErrCreationFailure), qt.IsTrue)
	c.Assert(f.device.Dependents(), qt.Equals, 0)
}

func TestRenderPassDestroyIsIdempotent(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)

	renderPass, err := pipeline.NewRenderPass(f.device, driver.FormatB8G8R8A8SRGB, nil)
	c.Assert(err, qt.IsNil)

	renderPass.Destroy()
	renderPass.Destroy()

	c.Assert(f.fake.RenderPasses[0].DestroyCount, qt.Equals, 1)
	c.Assert(f.device.Dependents(), qt.Equals, 0)
	c.Assert(f.loader.Journal.Entries(), qt.DeepEquals, []string{"render pass"})

	err = renderPass.SetImageFormat(driver.FormatR8G8B8A8SRGB)
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)
}
