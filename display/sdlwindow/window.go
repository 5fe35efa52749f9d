// Package sdlwindow implements display.Window on top of SDL2.
//
// SDL must be driven from the thread that created the window; callers lock their
// goroutine to the main OS thread before calling New.
package sdlwindow

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/carbon/display"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/driver/vkng"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"
)

type Window struct {
	handle *sdl.Window
	id     uint32
	props  display.Props

	mode    display.Mode
	cursor  display.CursorMode
	closed  bool
	resized bool

	onResize []func(width, height int)
}

func windowFlags(props display.Props) uint32 {
	flags := uint32(sdl.WINDOW_SHOWN | sdl.WINDOW_VULKAN)
	if props.Resizable {
		flags |= sdl.WINDOW_RESIZABLE
	}

	switch props.Mode {
	case display.ModeFullscreen:
		flags |= sdl.WINDOW_FULLSCREEN
	case display.ModeBorderlessWindowed:
		flags |= sdl.WINDOW_BORDERLESS
	}
	return flags
}

// New initializes SDL video and opens a Vulkan-capable window described by props.
func New(props display.Props) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "initialize sdl")
	}

	handle, err := sdl.CreateWindow(props.Title, int32(props.X), int32(props.Y), int32(props.Width), int32(props.Height), windowFlags(props))
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrapf(err, "create window %q", props.Title)
	}

	id, err := handle.GetID()
	if err != nil {
		handle.Destroy()
		sdl.Quit()
		return nil, errors.Wrap(err, "read window id")
	}

	return &Window{
		handle: handle,
		id:     id,
		props:  props,
		mode:   props.Mode,
	}, nil
}

// NewLoader returns a Vulkan loader resolved through SDL. The window must exist first
// because SDL loads the Vulkan library when a Vulkan window is created.
func (w *Window) NewLoader() (*vkng.Loader, error) {
	return vkng.NewLoader(sdl.VulkanGetVkGetInstanceProcAddr())
}

func (w *Window) CreateSurface(instance driver.Instance) (driver.Surface, error) {
	vkInstance, ok := instance.(*vkng.Instance)
	if !ok {
		return nil, errors.Newf("sdl surfaces need a vkng instance, got %T", instance)
	}

	extension := vkng_sdl2.CreateExtensionFromInstance(vkInstance.Handle())
	surface, _, err := extension.CreateSurface(vkInstance.Handle(), w.handle)
	if err != nil {
		return nil, errors.Wrap(err, "create sdl surface")
	}
	return vkng.NewSurface(surface), nil
}

func (w *Window) RequiredExtensions() []string {
	return w.handle.VulkanGetInstanceExtensions()
}

func (w *Window) Props() display.Props {
	return w.props
}

// Update drains the SDL event queue.
func (w *Window) Update() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.dispatch(event)
	}
}

func (w *Window) dispatch(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.closed = true
	case *sdl.WindowEvent:
		if e.WindowID != w.id {
			return
		}
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			w.closed = true
		case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED:
			w.resized = true
			width, height := w.FramebufferSize()
			for _, callback := range w.onResize {
				callback(width, height)
			}
		}
	}
}

func (w *Window) ShouldClose() bool {
	return w.closed
}

func (w *Window) FramebufferSize() (int, int) {
	if w.Minimized() {
		return 0, 0
	}
	width, height := w.handle.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *Window) Size() (int, int) {
	width, height := w.handle.GetSize()
	return int(width), int(height)
}

func (w *Window) Position() (int, int) {
	x, y := w.handle.GetPosition()
	return int(x), int(y)
}

func (w *Window) AspectRatio() float32 {
	return display.AspectRatio(w.FramebufferSize())
}

func (w *Window) Minimized() bool {
	return w.handle.GetFlags()&sdl.WINDOW_MINIMIZED != 0
}

func (w *Window) Focused() bool {
	return w.handle.GetFlags()&sdl.WINDOW_INPUT_FOCUS != 0
}

func (w *Window) Resized() bool {
	return w.resized
}

func (w *Window) ResetResized() {
	w.resized = false
}

func (w *Window) WindowMode() display.Mode {
	return w.mode
}

func (w *Window) SetWindowMode(mode display.Mode) error {
	var err error
	switch mode {
	case display.ModeFullscreen:
		err = w.handle.SetFullscreen(sdl.WINDOW_FULLSCREEN)
	case display.ModeWindowed:
		err = w.handle.SetFullscreen(0)
		w.handle.SetBordered(true)
	case display.ModeBorderlessWindowed:
		err = w.handle.SetFullscreen(sdl.WINDOW_FULLSCREEN_DESKTOP)
	default:
		return errors.Newf("set window mode: unknown mode %s", mode)
	}
	if err != nil {
		return errors.Wrapf(err, "set window mode %s", mode)
	}

	w.mode = mode
	w.resized = true
	return nil
}

func (w *Window) CursorMode() display.CursorMode {
	return w.cursor
}

func (w *Window) SetCursorMode(mode display.CursorMode) error {
	show, relative := sdl.ENABLE, false
	switch mode {
	case display.CursorNormal:
	case display.CursorHidden:
		show = sdl.DISABLE
	case display.CursorDisabled:
		show, relative = sdl.DISABLE, true
	default:
		return errors.Newf("set cursor mode: unknown mode %s", mode)
	}

	if _, err := sdl.ShowCursor(show); err != nil {
		return errors.Wrapf(err, "set cursor mode %s", mode)
	}
	sdl.SetRelativeMouseMode(relative)

	w.cursor = mode
	return nil
}

func (w *Window) SetTitle(title string) {
	w.handle.SetTitle(title)
	w.props.Title = title
}

// WaitForFocus blocks on the SDL event queue until the window has input focus or is
// asked to close.
func (w *Window) WaitForFocus() {
	for !w.closed && !w.Focused() {
		event := sdl.WaitEvent()
		if event != nil {
			w.dispatch(event)
		}
	}
}

func (w *Window) OnResize(callback func(width, height int)) {
	w.onResize = append(w.onResize, callback)
}

// Destroy closes the window and shuts SDL down. Calling it again is a no-op.
func (w *Window) Destroy() {
	if w.handle == nil {
		return
	}
	_ = w.handle.Destroy()
	w.handle = nil
	sdl.Quit()
}

var _ display.Window = (*Window)(nil)
