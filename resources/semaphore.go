package resources

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
)

// Semaphore orders GPU work, such as rendering into an image after the swapchain hands it
// out.
type Semaphore struct {
	handle driver.Semaphore
	device *core.LogicalDevice
}

func NewSemaphore(device *core.LogicalDevice) (*Semaphore, error) {
	if err := device.Retain(); err != nil {
		return nil, errors.Wrap(err, "create semaphore")
	}

	handle, err := device.Handle().CreateSemaphore()
	if err != nil {
		device.Release()
		return nil, core.CreationFailed(err, "create semaphore")
	}

	return &Semaphore{handle: handle, device: device}, nil
}

func (s *Semaphore) Handle() driver.Semaphore {
	return s.handle
}

func (s *Semaphore) Destroy() {
	if s == nil || s.handle == nil {
		return
	}
	s.handle.Destroy()
	s.handle = nil
	s.device.Release()
}
