package core

import (
	"github.com/vkngwrapper/carbon/driver"
)

// SurfaceSource creates a presentation surface for an instance. Windows implement it.
type SurfaceSource interface {
	CreateSurface(instance driver.Instance) (driver.Surface, error)
}

// Surface is the presentation target shared by device selection, queue resolution and
// the swapchain. It holds a non-owning reference to its Instance.
type Surface struct {
	handle   driver.Surface
	instance *Instance
}

func NewSurface(instance *Instance, source SurfaceSource) (*Surface, error) {
	if instance == nil || instance.handle == nil {
		return nil, StateViolation("create surface: instance is not live")
	}

	handle, err := source.CreateSurface(instance.handle)
	if err != nil {
		return nil, CreationFailed(err, "create surface")
	}
	return &Surface{handle: handle, instance: instance}, nil
}

func (s *Surface) Handle() driver.Surface {
	return s.handle
}

func (s *Surface) Instance() *Instance {
	return s.instance
}

func (s *Surface) SupportsPresent(device driver.PhysicalDevice, queueFamilyIndex int) (bool, error) {
	if s.handle == nil {
		return false, StateViolation("query surface support: surface destroyed")
	}
	return s.handle.SupportsPresent(device, queueFamilyIndex)
}

func (s *Surface) Destroy() {
	if s == nil || s.handle == nil {
		return
	}
	s.handle.Destroy()
	s.handle = nil
}
