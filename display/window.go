// Package display covers presentation: the window capability interface, the window
// configuration record and the swapchain.
package display

import (
	"fmt"

	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/driver"
)

const (
	DefaultTitle  = "Application"
	DefaultWidth  = 800
	DefaultHeight = 600
	DefaultX      = 100
	DefaultY      = 100
)

type Mode int

const (
	ModeFullscreen Mode = iota
	ModeWindowed
	ModeBorderlessWindowed
)

var modeNames = []string{"Fullscreen", "Windowed", "Borderless Windowed"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

type CursorMode int

const (
	CursorNormal CursorMode = iota
	CursorHidden
	CursorDisabled
)

func (m CursorMode) String() string {
	switch m {
	case CursorNormal:
		return "Normal"
	case CursorHidden:
		return "Hidden"
	case CursorDisabled:
		return "Disabled"
	}
	return fmt.Sprintf("CursorMode(%d)", int(m))
}

type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

func (v Version) Driver() driver.Version {
	return driver.CreateVersion(v.Major, v.Minor, v.Patch)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Props configures a window and names the application running in it.
type Props struct {
	Title     string
	Width     int
	Height    int
	X         int
	Y         int
	Version   Version
	Mode      Mode
	Resizable bool
}

func DefaultProps() Props {
	return Props{
		Title:     DefaultTitle,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		X:         DefaultX,
		Y:         DefaultY,
		Version:   Version{Major: 1},
		Mode:      ModeWindowed,
		Resizable: true,
	}
}

// FramebufferSizer reports the drawable size of a window in pixels.
type FramebufferSizer interface {
	FramebufferSize() (width, height int)
}

// Window is the capability set the engine needs from a windowing backend.
type Window interface {
	core.SurfaceSource
	FramebufferSizer

	Props() Props
	// Update polls pending window events and runs registered callbacks.
	Update()
	ShouldClose() bool

	Size() (width, height int)
	Position() (x, y int)
	AspectRatio() float32

	Minimized() bool
	Focused() bool
	// Resized reports whether the framebuffer changed size since the last ResetResized.
	Resized() bool
	ResetResized()

	WindowMode() Mode
	SetWindowMode(mode Mode) error
	CursorMode() CursorMode
	SetCursorMode(mode CursorMode) error
	SetTitle(title string)

	// RequiredExtensions lists the instance extensions needed to create a surface.
	RequiredExtensions() []string
	// WaitForFocus blocks until the window regains input focus.
	WaitForFocus()
	OnResize(callback func(width, height int))

	Destroy()
}
