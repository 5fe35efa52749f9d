package engine_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/display"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/engine"
)

func testConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Props.Title = "context test"
	cfg.Props.Version = display.Version{Major: 1, Minor: 2, Patch: 3}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	c := qt.New(t)

	cfg := engine.DefaultConfig()
	c.Assert(cfg.Props, qt.DeepEquals, display.DefaultProps())
	c.Assert(cfg.EngineName, qt.Equals, "Carbon")
	c.Assert(cfg.Validation, qt.IsTrue)
	c.Assert(cfg.DebugSeverity, qt.Equals, core.DefaultDebugSeverity)
}

func TestNewDeviceContext(t *testing.T) {
	c := qt.New(t)

	device := newDevice()
	loader := newLoader(device)
	window := newFakeWindow(display.DefaultProps())

	ctx, err := engine.NewDeviceContext(window, loader, testConfig(), nil)
	c.Assert(err, qt.IsNil)
	defer ctx.Destroy()

	info := loader.Instances[0].Info
	c.Assert(info.ApplicationName, qt.Equals, "context test")
	c.Assert(info.ApplicationVersion, qt.Equals, driver.CreateVersion(1, 2, 3))
	c.Assert(info.EngineName, qt.Equals, "Carbon")
	c.Assert(info.EngineVersion, qt.Equals, driver.CreateVersion(0, 1, 0))
	c.Assert(info.EnabledLayerNames, qt.DeepEquals, []string{core.ValidationLayerName})
	c.Assert(info.EnabledExtensionNames, qt.DeepEquals, []string{"VK_KHR_surface", "VK_KHR_xcb_surface", core.DebugUtilsExtensionName})

	c.Assert(ctx.Instance().ValidationEnabled(), qt.IsTrue)
	c.Assert(ctx.Surface().Handle(), qt.Equals, driver.Surface(window.source.Surface))
	c.Assert(ctx.PhysicalDevice().Properties().Name, qt.Equals, "Test GPU")
	c.Assert(ctx.QueueFamilies().IsComplete(), qt.IsTrue)
	c.Assert(ctx.Device().Live(), qt.IsTrue)
	c.Assert(ctx.Swapchain().Extent(), qt.Equals, driver.Extent2D{Width: 800, Height: 600})
	c.Assert(ctx.RenderPass().ImageFormat(), qt.Equals, ctx.Swapchain().ImageFormat())
	c.Assert(ctx.Device().Dependents(), qt.Equals, 2)
}

func TestDeviceContextDestroyOrder(t *testing.T) {
	c := qt.New(t)

	loader := newLoader(newDevice())
	ctx, err := engine.NewDeviceContext(newFakeWindow(display.DefaultProps()), loader, testConfig(), nil)
	c.Assert(err, qt.IsNil)

	ctx.Destroy()
	ctx.Destroy()

	c.Assert(loader.Journal.Entries(), qt.DeepEquals, []string{
		"render pass",
		"image view",
		"image view",
		"image view",
		"swapchain",
		"device wait idle",
		"device",
		"surface",
		"debug messenger",
		"instance",
	})
	c.Assert(ctx.Device(), qt.IsNil)
	c.Assert(ctx.Instance(), qt.IsNil)
}

func TestDeviceContextWithoutValidation(t *testing.T) {
	c := qt.New(t)

	loader := newLoader(newDevice())
	loader.Layers = nil
	cfg := testConfig()
	cfg.Validation = false

	ctx, err := engine.NewDeviceContext(newFakeWindow(cfg.Props), loader, cfg, nil)
	c.Assert(err, qt.IsNil)
	defer ctx.Destroy()

	c.Assert(ctx.Instance().DebugMessenger(), qt.IsNil)
	c.Assert(loader.Instances[0].Info.EnabledLayerNames, qt.HasLen, 0)
}

func TestDeviceContextMissingWindowExtension(t *testing.T) {
	c := qt.New(t)

	loader := newLoader(newDevice())
	loader.Extensions = loader.Extensions[:2]

	_, err := engine.NewDeviceContext(newFakeWindow(display.DefaultProps()), loader, testConfig(), nil)
	c.Assert(errors.Is(err, core.ErrCapabilityUnavailable), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "required instance extensions not available: VK_KHR_xcb_surface")
	c.Assert(loader.Instances, qt.HasLen, 0)
}

func TestDeviceContextSelectionFailureTearsDown(t *testing.T) {
	c := qt.New(t)

	device := newDevice()
	device.Feats.GeometryShader = false
	loader := newLoader(device)

	_, err := engine.NewDeviceContext(newFakeWindow(display.DefaultProps()), loader, testConfig(), nil)
	c.Assert(errors.Is(err, core.ErrSelectionFailure), qt.IsTrue)
	c.Assert(loader.Journal.Entries(), qt.DeepEquals, []string{"surface", "debug messenger", "instance"})
}

func TestDeviceContextSwapchainFailureTearsDown(t *testing.T) {
	c := qt.New(t)

	loader := newLoader(newDevice())
	window := newFakeWindow(display.DefaultProps())
	window.source.Surface.SurfaceFmts = nil

	_, err := engine.NewDeviceContext(window, loader, testConfig(), nil)
	c.Assert(errors.Is(err, core.ErrCapabilityUnavailable), qt.IsTrue)
	c.Assert(loader.Journal.Entries(), qt.DeepEquals, []string{
		"device wait idle",
		"device",
		"surface",
		"debug messenger",
		"instance",
	})
}

func TestDeviceContextDeviceExtensions(t *testing.T) {
	c := qt.New(t)

	cfg := testConfig()
	cfg.DeviceExtensions = []string{core.SwapchainExtensionName, "VK_KHR_maintenance1"}

	_, err := engine.NewDeviceContext(newFakeWindow(cfg.Props), newLoader(newDevice()), cfg, nil)
	c.Assert(errors.Is(err, core.ErrSelectionFailure), qt.IsTrue)

	device := newDevice()
	device.Extensions = append(device.Extensions, driver.ExtensionProperties{Name: "VK_KHR_maintenance1", SpecVersion: 2})

	ctx, err := engine.NewDeviceContext(newFakeWindow(cfg.Props), newLoader(device), cfg, nil)
	c.Assert(err, qt.IsNil)
	defer ctx.Destroy()

	c.Assert(ctx.Device().EnabledExtensions(), qt.DeepEquals, []string{core.SwapchainExtensionName, "VK_KHR_maintenance1"})
}

func TestDeviceContextHandleResize(t *testing.T) {
	c := qt.New(t)

	loader := newLoader(newDevice())
	window := newFakeWindow(display.DefaultProps())
	surface := window.source.Surface
	surface.Caps.CurrentExtent = driver.Extent2D{Width: driver.UndefinedExtent, Height: driver.UndefinedExtent}

	ctx, err := engine.NewDeviceContext(window, loader, testConfig(), nil)
	c.Assert(err, qt.IsNil)
	defer ctx.Destroy()

	renderPass := ctx.RenderPass().Handle()

	window.width, window.height = 1280, 720
	c.Assert(ctx.HandleResize(), qt.IsNil)
	c.Assert(ctx.Swapchain().Extent(), qt.Equals, driver.Extent2D{Width: 1280, Height: 720})
	c.Assert(ctx.RenderPass().Handle(), qt.Equals, renderPass)

	surface.SurfaceFmts = []driver.SurfaceFormat{{Format: driver.FormatR8G8B8A8SRGB, ColorSpace: driver.ColorSpaceSRGBNonlinear}}
	c.Assert(ctx.HandleResize(), qt.IsNil)
	c.Assert(ctx.Swapchain().ImageFormat(), qt.Equals, driver.FormatR8G8B8A8SRGB)
	c.Assert(ctx.RenderPass().ImageFormat(), qt.Equals, driver.FormatR8G8B8A8SRGB)
	c.Assert(ctx.RenderPass().Handle(), qt.Not(qt.Equals), renderPass)

	window.minimized = true
	c.Assert(ctx.HandleResize(), qt.IsNil)
	c.Assert(ctx.Swapchain().Stale(), qt.IsTrue)

	ctx.Destroy()
	err = ctx.HandleResize()
	c.Assert(errors.Is(err, core.ErrStateViolation), qt.IsTrue)
}
