package engine

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/display"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/logging"
	"github.com/vkngwrapper/carbon/pipeline"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

// DeviceContext owns the object chain from the instance down to the render pass. Objects
// created from its logical device must be destroyed before the context is.
type DeviceContext struct {
	window display.Window
	logger *slog.Logger

	instance       *core.Instance
	surface        *core.Surface
	physicalDevice *core.PhysicalDevice
	indices        core.QueueFamilyIndices
	device         *core.LogicalDevice
	swapchain      *display.Swapchain
	renderPass     *pipeline.RenderPass
}

// NewDeviceContext builds the chain in dependency order. If a step fails, everything built
// before it is destroyed and the error is returned.
func NewDeviceContext(window display.Window, loader driver.Loader, cfg Config, logger *slog.Logger) (*DeviceContext, error) {
	ctx := &DeviceContext{
		window: window,
		logger: logging.OrDiscard(logger),
	}

	err := ctx.build(loader, cfg)
	if err != nil {
		ctx.Destroy()
		return nil, err
	}

	return ctx, nil
}

func deviceExtensions(cfg Config) []string {
	extensions := []string{core.SwapchainExtensionName}
	for _, extension := range cfg.DeviceExtensions {
		if !slices.Contains(extensions, extension) {
			extensions = append(extensions, extension)
		}
	}
	return extensions
}

func (c *DeviceContext) build(loader driver.Loader, cfg Config) error {
	var err error

	c.instance, err = core.NewInstance(loader, core.InstanceConfig{
		ApplicationName:    cfg.Props.Title,
		ApplicationVersion: cfg.Props.Version.Driver(),
		EngineName:         cfg.EngineName,
		EngineVersion:      cfg.EngineVersion.Driver(),
		WindowExtensions:   c.window.RequiredExtensions(),
		Validation:         cfg.Validation,
		ValidationLayers:   cfg.ValidationLayers,
		DebugSeverity:      cfg.DebugSeverity,
	}, c.logger)
	if err != nil {
		return err
	}

	c.surface, err = core.NewSurface(c.instance, c.window)
	if err != nil {
		return err
	}

	c.physicalDevice, err = core.SelectPhysicalDevice(c.instance, c.surface, core.SelectorOptions{
		RequiredExtensions: deviceExtensions(cfg),
		RequireFeatures:    cfg.RequireFeatures,
	}, c.logger)
	if err != nil {
		return err
	}

	c.indices, err = core.ResolveQueueFamilies(c.physicalDevice, c.surface)
	if err != nil {
		return err
	}

	c.device, err = core.NewLogicalDevice(c.physicalDevice, c.indices, core.DeviceOptions{
		Features: cfg.DeviceFeatures,
	}, c.logger)
	if err != nil {
		return err
	}

	c.swapchain, err = display.NewSwapchain(c.window, c.device, c.surface, c.logger)
	if err != nil {
		return err
	}

	c.renderPass, err = pipeline.NewRenderPass(c.device, c.swapchain.ImageFormat(), c.logger)
	if err != nil {
		return err
	}

	c.logger.Info("device context ready",
		slog.String("device", c.physicalDevice.Properties().Name),
		slog.String("type", c.physicalDevice.DeviceTypeName()),
		slog.Int("width", c.swapchain.Extent().Width),
		slog.Int("height", c.swapchain.Extent().Height),
	)
	return nil
}

// HandleResize recreates the swapchain and, when the surface format changed, rebuilds the
// render pass to match. A minimized window leaves the swapchain stale until it has area
// again.
func (c *DeviceContext) HandleResize() error {
	if c.swapchain == nil {
		return core.StateViolation("handle resize: device context destroyed")
	}

	err := c.swapchain.Recreate()
	if err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}
	if c.swapchain.Stale() {
		return nil
	}

	if c.renderPass.ImageFormat() != c.swapchain.ImageFormat() {
		err = c.renderPass.SetImageFormat(c.swapchain.ImageFormat())
		if err != nil {
			return errors.Wrap(err, "rebuild render pass")
		}
	}

	extent := c.swapchain.Extent()
	c.logger.Debug("swapchain resized", slog.Int("width", extent.Width), slog.Int("height", extent.Height))
	return nil
}

func (c *DeviceContext) Instance() *core.Instance {
	return c.instance
}

func (c *DeviceContext) Surface() *core.Surface {
	return c.surface
}

func (c *DeviceContext) PhysicalDevice() *core.PhysicalDevice {
	return c.physicalDevice
}

func (c *DeviceContext) QueueFamilies() core.QueueFamilyIndices {
	return c.indices
}

func (c *DeviceContext) Device() *core.LogicalDevice {
	return c.device
}

func (c *DeviceContext) Swapchain() *display.Swapchain {
	return c.swapchain
}

func (c *DeviceContext) RenderPass() *pipeline.RenderPass {
	return c.renderPass
}

// Destroy tears the chain down in reverse construction order. It is safe on a partially
// built context and calling it again is a no-op.
func (c *DeviceContext) Destroy() {
	if c == nil {
		return
	}

	c.renderPass.Destroy()
	c.renderPass = nil

	c.swapchain.Destroy()
	c.swapchain = nil

	c.device.Destroy()
	c.device = nil

	c.physicalDevice.Destroy()
	c.physicalDevice = nil

	c.surface.Destroy()
	c.surface = nil

	c.instance.Destroy()
	c.instance = nil
}
