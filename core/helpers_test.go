package core_test

import (
	qt "github.com/frankban/quicktest"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/driver/drivertest"
)

var surfaceExtensions = []string{"VK_KHR_surface", "VK_KHR_xlib_surface"}

func newLoader(devices ...*drivertest.PhysicalDevice) *drivertest.Loader {
	extensions := append([]string{core.DebugUtilsExtensionName}, surfaceExtensions...)
	return drivertest.NewLoader(extensions, []string{core.ValidationLayerName}, devices...)
}

func newInstance(c *qt.C, loader *drivertest.Loader, validation bool) *core.Instance {
	instance, err := core.NewInstance(loader, core.InstanceConfig{
		ApplicationName:    "carbon test",
		ApplicationVersion: driver.CreateVersion(1, 0, 0),
		EngineName:         "carbon",
		EngineVersion:      driver.CreateVersion(0, 1, 0),
		WindowExtensions:   surfaceExtensions,
		Validation:         validation,
	}, nil)
	c.Assert(err, qt.IsNil)
	return instance
}

type chain struct {
	loader   *drivertest.Loader
	device   *drivertest.PhysicalDevice
	surface  *drivertest.Surface
	instance *core.Instance
	surf     *core.Surface
	physical *core.PhysicalDevice
}

func newChain(c *qt.C, device *drivertest.PhysicalDevice) *chain {
	if device == nil {
		device = drivertest.NewPhysicalDevice("Test GPU", driver.PhysicalDeviceTypeDiscreteGPU, 8192)
	}
	loader := newLoader(device)
	instance := newInstance(c, loader, true)

	source := &drivertest.SurfaceSource{Surface: drivertest.NewSurface()}
	surface, err := core.NewSurface(instance, source)
	c.Assert(err, qt.IsNil)

	physical, err := core.SelectPhysicalDevice(instance, surface, core.SelectorOptions{}, nil)
	c.Assert(err, qt.IsNil)

	return &chain{
		loader:   loader,
		device:   device,
		surface:  source.Surface,
		instance: instance,
		surf:     surface,
		physical: physical,
	}
}
