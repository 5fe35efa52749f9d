package engine_test

import (
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/display"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/driver/drivertest"
)

var windowExtensions = []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}

// fakeWindow is an in-memory display.Window backed by a drivertest surface.
type fakeWindow struct {
	props  display.Props
	source *drivertest.SurfaceSource

	width, height int
	minimized     bool
	resized       bool
	closed        bool
	mode          display.Mode
	cursor        display.CursorMode

	pending  [][2]int
	onResize []func(width, height int)

	updates   int
	destroyed int
}

func newFakeWindow(props display.Props) *fakeWindow {
	return &fakeWindow{
		props:  props,
		source: &drivertest.SurfaceSource{Surface: drivertest.NewSurface()},
		width:  props.Width,
		height: props.Height,
		mode:   props.Mode,
	}
}

// resize queues a resize event that is delivered on the next Update.
func (w *fakeWindow) resize(width, height int) {
	w.pending = append(w.pending, [2]int{width, height})
}

func (w *fakeWindow) CreateSurface(instance driver.Instance) (driver.Surface, error) {
	return w.source.CreateSurface(instance)
}

func (w *fakeWindow) FramebufferSize() (int, int) {
	if w.minimized {
		return 0, 0
	}
	return w.width, w.height
}

func (w *fakeWindow) Props() display.Props { return w.props }

func (w *fakeWindow) Update() {
	w.updates++
	for _, size := range w.pending {
		w.width, w.height = size[0], size[1]
		w.resized = true
		for _, callback := range w.onResize {
			callback(size[0], size[1])
		}
	}
	w.pending = nil
}

func (w *fakeWindow) ShouldClose() bool { return w.closed }
func (w *fakeWindow) Size() (int, int) { return w.width, w.height }
func (w *fakeWindow) Position() (int, int) { return w.props.X, w.props.Y }
func (w *fakeWindow) AspectRatio() float32 { return display.AspectRatio(w.width, w.height) }
func (w *fakeWindow) Minimized() bool { return w.minimized }
func (w *fakeWindow) Focused() bool { return !w.minimized }
func (w *fakeWindow) Resized() bool { return w.resized }
func (w *fakeWindow) ResetResized() { w.resized = false }
func (w *fakeWindow) WindowMode() display.Mode { return w.mode }
func (w *fakeWindow) CursorMode() display.CursorMode { return w.cursor }
func (w *fakeWindow) SetTitle(title string) { w.props.Title = title }
func (w *fakeWindow) RequiredExtensions() []string { return windowExtensions }
func (w *fakeWindow) WaitForFocus() {}
func (w *fakeWindow) Destroy() { w.destroyed++ }

func (w *fakeWindow) SetWindowMode(mode display.Mode) error {
	w.mode = mode
	return nil
}

func (w *fakeWindow) SetCursorMode(mode display.CursorMode) error {
	w.cursor = mode
	return nil
}

func (w *fakeWindow) OnResize(callback func(width, height int)) {
	w.onResize = append(w.onResize, callback)
}

var _ display.Window = (*fakeWindow)(nil)

func newLoader(devices ...*drivertest.PhysicalDevice) *drivertest.Loader {
	extensions := append([]string{core.DebugUtilsExtensionName}, windowExtensions...)
	return drivertest.NewLoader(extensions, []string{core.ValidationLayerName}, devices...)
}

func newDevice() *drivertest.PhysicalDevice {
	return drivertest.NewPhysicalDevice("Test GPU", driver.PhysicalDeviceTypeDiscreteGPU, 8192)
}
