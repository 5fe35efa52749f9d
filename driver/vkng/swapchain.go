package vkng

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

func (d *Device) CreateSwapchain(info driver.SwapchainCreateInfo) (driver.Swapchain, error) {
	if d.swapchains == nil {
		extension := khr_swapchain.CreateExtensionFromDevice(d.handle)
		if extension == nil {
			return nil, errors.Newf("%s is not enabled on this device", khr_swapchain.ExtensionName)
		}
		d.swapchains = extension
	}

	var oldSwapchain khr_swapchain.Swapchain
	if info.OldSwapchain != nil {
		oldSwapchain = info.OldSwapchain.(*Swapchain).handle
	}

	swapchain, _, err := d.swapchains.CreateSwapchain(d.handle, nil, khr_swapchain.SwapchainCreateInfo{
		Surface: info.Surface.(*Surface).handle,

		MinImageCount:    info.MinImageCount,
		ImageFormat:      core1_0.Format(info.ImageFormat),
		ImageColorSpace:  khr_surface.ColorSpace(info.ImageColorSpace),
		ImageExtent:      core1_0.Extent2D{Width: info.ImageExtent.Width, Height: info.ImageExtent.Height},
		ImageArrayLayers: info.ImageArrayLayers,
		ImageUsage:       core1_0.ImageUsageFlags(info.ImageUsage),

		ImageSharingMode:   core1_0.SharingMode(info.ImageSharingMode),
		QueueFamilyIndices: info.QueueFamilyIndices,

		PreTransform:   khr_surface.SurfaceTransformFlags(info.PreTransform),
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    khr_surface.PresentMode(info.PresentMode),
		Clipped:        info.Clipped,
		OldSwapchain:   oldSwapchain,
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateSwapchainKHR")
	}

	return &Swapchain{handle: swapchain, extension: d.swapchains}, nil
}

type Swapchain struct {
	handle    khr_swapchain.Swapchain
	extension khr_swapchain.Extension
}

func (s *Swapchain) Images() ([]driver.Image, error) {
	images, _, err := s.handle.SwapchainImages()
	if err != nil {
		return nil, errors.Wrap(err, "vkGetSwapchainImagesKHR")
	}

	result := make([]driver.Image, 0, len(images))
	for _, image := range images {
		result = append(result, image)
	}
	return result, nil
}

// AcquireNextImage reports VK_ERROR_OUT_OF_DATE_KHR and VK_SUBOPTIMAL_KHR through the
// returned result so callers can schedule a recreate.
func (s *Swapchain) AcquireNextImage(timeout time.Duration, semaphore driver.Semaphore) (int, driver.Result, error) {
	if timeout == driver.NoTimeout {
		timeout = common.NoTimeout
	}

	var signal core1_0.Semaphore
	if semaphore != nil {
		signal = semaphore.(*Semaphore).handle
	}

	index, res, err := s.handle.AcquireNextImage(timeout, signal, nil)
	return index, driver.Result(res), errors.Wrap(err, "vkAcquireNextImageKHR")
}

func (s *Swapchain) Destroy() {
	s.handle.Destroy(nil)
}

type ImageView struct {
	handle core1_0.ImageView
}

func (v *ImageView) Destroy() {
	v.handle.Destroy(nil)
}
