package resources_test

import (
	qt "github.com/frankban/quicktest"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/driver/drivertest"
)

const (
	hostVisible = driver.MemoryPropertyHostVisible | driver.MemoryPropertyHostCoherent
	deviceLocal = driver.MemoryPropertyDeviceLocal
)

type fixture struct {
	loader   *drivertest.Loader
	physical *drivertest.PhysicalDevice
	fake     *drivertest.Device

	selected *core.PhysicalDevice
	device   *core.LogicalDevice
}

func (f *fixture) queue() *drivertest.Queue {
	return f.fake.QueueFor(f.device.Indices().Graphics)
}

func newFixture(c *qt.C, physical *drivertest.PhysicalDevice) *fixture {
	if physical == nil {
		physical = drivertest.NewPhysicalDevice("Test GPU", driver.PhysicalDeviceTypeDiscreteGPU, 8192)
	}
	loader := drivertest.NewLoader([]string{"VK_KHR_surface"}, nil, physical)

	instance, err := core.NewInstance(loader, core.InstanceConfig{
		ApplicationName:  "resources test",
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

	return &fixture{
		loader:   loader,
		physical: physical,
		fake:     physical.Devices[0],
		selected: selected,
		device:   device,
	}
}
