package display

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
)

var PreferredSurfaceFormat = driver.SurfaceFormat{
	Format:     driver.FormatB8G8R8A8SRGB,
	ColorSpace: driver.ColorSpaceSRGBNonlinear,
}

// SwapchainSupport is what a surface offers a physical device.
type SwapchainSupport struct {
	Capabilities driver.SurfaceCapabilities
	Formats      []driver.SurfaceFormat
	PresentModes []driver.PresentMode
}

func QuerySwapchainSupport(surface *core.Surface, physicalDevice *core.PhysicalDevice) (SwapchainSupport, error) {
	var support SwapchainSupport
	var err error

	handle := surface.Handle()
	if handle == nil || physicalDevice.Handle() == nil {
		return support, core.StateViolation("query swapchain support: surface or physical device destroyed")
	}

	support.Capabilities, err = handle.Capabilities(physicalDevice.Handle())
	if err != nil {
		return support, errors.Wrap(err, "query surface capabilities")
	}

	support.Formats, err = handle.Formats(physicalDevice.Handle())
	if err != nil {
		return support, errors.Wrap(err, "query surface formats")
	}

	support.PresentModes, err = handle.PresentModes(physicalDevice.Handle())
	if err != nil {
		return support, errors.Wrap(err, "query surface present modes")
	}

	return support, nil
}

// ChooseSurfaceFormat picks 8-bit BGRA sRGB in the sRGB nonlinear color space when offered
// and the first reported format otherwise.
func ChooseSurfaceFormat(formats []driver.SurfaceFormat) (driver.SurfaceFormat, error) {
	if len(formats) == 0 {
		return driver.SurfaceFormat{}, errors.Mark(errors.New("surface reports no formats"), core.ErrCapabilityUnavailable)
	}

	for _, format := range formats {
		if format == PreferredSurfaceFormat {
			return format, nil
		}
	}

	return formats[0], nil
}

// ChoosePresentMode picks mailbox when offered. FIFO is always available.
func ChoosePresentMode(modes []driver.PresentMode) driver.PresentMode {
	for _, mode := range modes {
		if mode == driver.PresentModeMailbox {
			return mode
		}
	}

	return driver.PresentModeFIFO
}

// ChooseExtent uses the surface's current extent, or the framebuffer size clamped into the
// supported range when the surface leaves the extent to the swapchain.
func ChooseExtent(capabilities driver.SurfaceCapabilities, framebufferWidth, framebufferHeight int) driver.Extent2D {
	if capabilities.CurrentExtent.Width != driver.UndefinedExtent {
		return capabilities.CurrentExtent
	}

	return driver.Extent2D{
		Width:  clamp(framebufferWidth, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(framebufferHeight, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, bounded by the maximum when
// the surface has one.
func ChooseImageCount(capabilities driver.SurfaceCapabilities) int {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

// ChooseSharing shares swapchain images concurrently between the graphics and
// presentation families when they differ.
func ChooseSharing(indices core.QueueFamilyIndices) (driver.SharingMode, []int) {
	if indices.Graphics != indices.Presentation {
		return driver.SharingModeConcurrent, []int{indices.Graphics, indices.Presentation}
	}
	return driver.SharingModeExclusive, nil
}

func clamp(value, low, high int) int {
	if value < low {
		value = low
	}
	if value > high {
		value = high
	}
	return value
}
