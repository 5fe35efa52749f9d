package vkng

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
)

type Surface struct {
	handle khr_surface.Surface
}

// NewSurface wraps a surface created by a window backend.
func NewSurface(handle khr_surface.Surface) *Surface {
	return &Surface{handle: handle}
}

func (s *Surface) Capabilities(device driver.PhysicalDevice) (driver.SurfaceCapabilities, error) {
	caps, _, err := s.handle.PhysicalDeviceSurfaceCapabilities(physicalDevice(device))
	if err != nil {
		return driver.SurfaceCapabilities{}, errors.Wrap(err, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR")
	}

	return driver.SurfaceCapabilities{
		MinImageCount:    caps.MinImageCount,
		MaxImageCount:    caps.MaxImageCount,
		CurrentExtent:    surfaceExtent(caps.CurrentExtent),
		MinImageExtent:   surfaceExtent(caps.MinImageExtent),
		MaxImageExtent:   surfaceExtent(caps.MaxImageExtent),
		CurrentTransform: driver.SurfaceTransformFlags(caps.CurrentTransform),
	}, nil
}

func (s *Surface) Formats(device driver.PhysicalDevice) ([]driver.SurfaceFormat, error) {
	formats, _, err := s.handle.PhysicalDeviceSurfaceFormats(physicalDevice(device))
	if err != nil {
		return nil, errors.Wrap(err, "vkGetPhysicalDeviceSurfaceFormatsKHR")
	}

	result := make([]driver.SurfaceFormat, 0, len(formats))
	for _, format := range formats {
		result = append(result, driver.SurfaceFormat{
			Format:     driver.Format(format.Format),
			ColorSpace: driver.ColorSpace(format.ColorSpace),
		})
	}
	return result, nil
}

func (s *Surface) PresentModes(device driver.PhysicalDevice) ([]driver.PresentMode, error) {
	modes, _, err := s.handle.PhysicalDeviceSurfacePresentModes(physicalDevice(device))
	if err != nil {
		return nil, errors.Wrap(err, "vkGetPhysicalDeviceSurfacePresentModesKHR")
	}

	result := make([]driver.PresentMode, 0, len(modes))
	for _, mode := range modes {
		result = append(result, driver.PresentMode(mode))
	}
	return result, nil
}

func (s *Surface) SupportsPresent(device driver.PhysicalDevice, queueFamilyIndex int) (bool, error) {
	supported, _, err := s.handle.PhysicalDeviceSurfaceSupport(physicalDevice(device), queueFamilyIndex)
	if err != nil {
		return false, errors.Wrapf(err, "vkGetPhysicalDeviceSurfaceSupportKHR family %d", queueFamilyIndex)
	}
	return supported, nil
}

func (s *Surface) Destroy() {
	s.handle.Destroy(nil)
}

// surfaceExtent maps the 0xFFFFFFFF "determined by the swapchain" marker to
// driver.UndefinedExtent, whether the bindings sign-extend it or not.
func surfaceExtent(extent core1_0.Extent2D) driver.Extent2D {
	return driver.Extent2D{
		Width:  undefinedDimension(extent.Width),
		Height: undefinedDimension(extent.Height),
	}
}

func undefinedDimension(dimension int) int {
	if dimension == -1 || int64(dimension) == math.MaxUint32 {
		return driver.UndefinedExtent
	}
	return dimension
}
