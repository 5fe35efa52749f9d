package display

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/logging"
	"golang.org/x/exp/slog"
)

// ErrOutOfDate is returned by AcquireNextImage when the swapchain no longer matches the
// surface. The swapchain is marked stale and must be recreated before the next acquire.
var ErrOutOfDate = errors.New("swapchain out of date")

// Swapchain owns the presentable images of a surface and one image view per image.
type Swapchain struct {
	handle  driver.Swapchain
	window  FramebufferSizer
	device  *core.LogicalDevice
	surface *core.Surface
	logger  *slog.Logger

	support       SwapchainSupport
	surfaceFormat driver.SurfaceFormat
	presentMode   driver.PresentMode
	extent        driver.Extent2D

	images       []driver.Image
	views        []driver.ImageView
	currentImage int
	stale        bool
}

func NewSwapchain(window FramebufferSizer, device *core.LogicalDevice, surface *core.Surface, logger *slog.Logger) (*Swapchain, error) {
	if err := device.Retain(); err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}

	swapchain := &Swapchain{
		window:  window,
		device:  device,
		surface: surface,
		logger:  logging.OrDiscard(logger),
	}

	if err := swapchain.build(); err != nil {
		device.Release()
		return nil, err
	}

	return swapchain, nil
}

func (s *Swapchain) build() error {
	err := s.setup()
	if err != nil {
		return err
	}

	err = s.createImageViews()
	if err != nil {
		s.destroyResources()
		return err
	}

	s.logger.Debug("swapchain created",
		slog.Int("width", s.extent.Width),
		slog.Int("height", s.extent.Height),
		slog.Int("images", len(s.images)),
		slog.String("presentMode", s.presentMode.String()),
	)
	return nil
}

func (s *Swapchain) setup() error {
	support, err := QuerySwapchainSupport(s.surface, s.device.PhysicalDevice())
	if err != nil {
		return err
	}

	surfaceFormat, err := ChooseSurfaceFormat(support.Formats)
	if err != nil {
		return err
	}
	presentMode := ChoosePresentMode(support.PresentModes)

	width, height := s.window.FramebufferSize()
	extent := ChooseExtent(support.Capabilities, width, height)
	sharingMode, queueFamilyIndices := ChooseSharing(s.device.Indices())

	handle, err := s.device.Handle().CreateSwapchain(driver.SwapchainCreateInfo{
		Surface: s.surface.Handle(),

		MinImageCount:    ChooseImageCount(support.Capabilities),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       driver.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform: support.Capabilities.CurrentTransform,
		PresentMode:  presentMode,
		Clipped:      true,
	})
	if err != nil {
		return core.CreationFailed(err, "create swapchain %dx%d", extent.Width, extent.Height)
	}

	s.handle = handle
	s.support = support
	s.surfaceFormat = surfaceFormat
	s.presentMode = presentMode
	s.extent = extent
	return nil
}

func (s *Swapchain) createImageViews() error {
	images, err := s.handle.Images()
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}
	s.images = images

	for index, image := range images {
		view, err := s.device.Handle().CreateImageView(driver.ImageViewCreateInfo{
			Image:  image,
			Format: s.surfaceFormat.Format,
		})
		if err != nil {
			return core.CreationFailed(err, "create view for swapchain image %d", index)
		}
		s.views = append(s.views, view)
	}

	return nil
}

func (s *Swapchain) destroyResources() {
	for _, view := range s.views {
		view.Destroy()
	}
	s.views = nil
	s.images = nil

	if s.handle != nil {
		s.handle.Destroy()
		s.handle = nil
	}
}

// Recreate rebuilds the swapchain against the current surface state. It waits for the
// device to go idle first. While the framebuffer has zero area the swapchain stays stale
// and nothing is rebuilt.
func (s *Swapchain) Recreate() error {
	if !s.device.Live() {
		return core.StateViolation("recreate swapchain: logical device destroyed")
	}

	width, height := s.window.FramebufferSize()
	if width == 0 || height == 0 {
		s.stale = true
		return nil
	}

	err := s.device.WaitIdle()
	if err != nil {
		return err
	}

	s.destroyResources()

	err = s.build()
	if err != nil {
		return err
	}

	s.stale = false
	s.currentImage = 0
	return nil
}

// MarkStale records that the surface changed and the swapchain needs to be recreated.
func (s *Swapchain) MarkStale() {
	s.stale = true
}

func (s *Swapchain) Stale() bool {
	return s.stale
}

// AcquireNextImage waits for the next presentable image and signals semaphore when it is
// ready. A suboptimal swapchain still yields an image but is marked stale.
func (s *Swapchain) AcquireNextImage(semaphore driver.Semaphore) (int, error) {
	if s.handle == nil {
		return 0, core.StateViolation("acquire next image: swapchain destroyed")
	}

	index, res, err := s.handle.AcquireNextImage(driver.NoTimeout, semaphore)
	if res == driver.ErrorOutOfDate {
		s.stale = true
		return 0, ErrOutOfDate
	} else if err != nil {
		return 0, errors.Wrap(err, "acquire next image")
	}

	if res == driver.Suboptimal {
		s.stale = true
	}
	s.currentImage = index
	return index, nil
}

// Present queues the current image for presentation after waitSemaphores signal. An
// out-of-date or suboptimal result marks the swapchain stale rather than failing.
func (s *Swapchain) Present(queue driver.Queue, waitSemaphores ...driver.Semaphore) error {
	if s.handle == nil {
		return core.StateViolation("present: swapchain destroyed")
	}

	res, err := queue.Present(driver.PresentInfo{
		WaitSemaphores: waitSemaphores,
		Swapchain:      s.handle,
		ImageIndex:     s.currentImage,
	})
	if res == driver.ErrorOutOfDate || res == driver.Suboptimal {
		s.stale = true
		return nil
	} else if err != nil {
		return errors.Wrap(err, "present")
	}

	return nil
}

func (s *Swapchain) Handle() driver.Swapchain {
	return s.handle
}

func (s *Swapchain) Support() SwapchainSupport {
	return s.support
}

func (s *Swapchain) SurfaceFormat() driver.SurfaceFormat {
	return s.surfaceFormat
}

func (s *Swapchain) ImageFormat() driver.Format {
	return s.surfaceFormat.Format
}

func (s *Swapchain) PresentMode() driver.PresentMode {
	return s.presentMode
}

func (s *Swapchain) Extent() driver.Extent2D {
	return s.extent
}

func (s *Swapchain) AspectRatio() float32 {
	return AspectRatio(s.extent.Width, s.extent.Height)
}

func (s *Swapchain) Viewport() mgl32.Vec4 {
	return Viewport(s.extent.Width, s.extent.Height)
}

func (s *Swapchain) Images() []driver.Image {
	return append([]driver.Image(nil), s.images...)
}

func (s *Swapchain) ImageViews() []driver.ImageView {
	return append([]driver.ImageView(nil), s.views...)
}

func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

func (s *Swapchain) CurrentImage() int {
	return s.currentImage
}

// Destroy releases the image views and then the swapchain. Calling it again is a no-op.
func (s *Swapchain) Destroy() {
	if s == nil || s.device == nil {
		return
	}
	s.destroyResources()
	s.device.Release()
	s.device = nil
}
