// Package engine ties a window to a device context and drives the per-frame update.
package engine

import (
	"time"

	"github.com/vkngwrapper/carbon/display"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/logging"
	"golang.org/x/exp/slog"
)

type Engine struct {
	window  display.Window
	context *DeviceContext
	logger  *slog.Logger

	frameTimer *Timer
	frameTime  time.Duration
}

// New builds the device context for window. The engine takes ownership of the window and
// destroys it in Destroy.
func New(window display.Window, loader driver.Loader, cfg Config, logger *slog.Logger) (*Engine, error) {
	logger = logging.OrDiscard(logger)
	timer := NewTimer()

	context, err := NewDeviceContext(window, loader, cfg, logger)
	if err != nil {
		return nil, err
	}

	window.OnResize(func(width, height int) {
		if context.Swapchain() != nil {
			context.Swapchain().MarkStale()
		}
	})

	logger.Info("engine created",
		slog.String("application", cfg.Props.Title),
		slog.String("version", cfg.Props.Version.String()),
		slog.Float64("ms", timer.ElapsedMillis()),
	)

	return &Engine{
		window:     window,
		context:    context,
		logger:     logger,
		frameTimer: NewTimer(),
	}, nil
}

// MustNew is New for applications that cannot continue without a device: on failure the
// error is logged at fatal level and the process exits.
func MustNew(window display.Window, loader driver.Loader, cfg Config, logger *slog.Logger) *Engine {
	engine, err := New(window, loader, cfg, logger)
	if err != nil {
		window.Destroy()
		logging.Fatal(logger, "engine creation failed", err)
	}
	return engine
}

// Running reports whether the window is still open and the engine not destroyed.
func (e *Engine) Running() bool {
	return e.context != nil && !e.window.ShouldClose()
}

// Update polls the window and recreates the swapchain when the window was resized or the
// swapchain reported itself stale.
func (e *Engine) Update() error {
	if e.context == nil {
		return nil
	}

	e.frameTime = e.frameTimer.Lap()
	e.window.Update()

	swapchain := e.context.Swapchain()
	if !e.window.Resized() && !swapchain.Stale() {
		return nil
	}
	e.window.ResetResized()

	if e.window.Minimized() {
		swapchain.MarkStale()
		return nil
	}
	return e.context.HandleResize()
}

func (e *Engine) Window() display.Window {
	return e.window
}

func (e *Engine) Context() *DeviceContext {
	return e.context
}

// FrameTime is the time between the two most recent calls to Update.
func (e *Engine) FrameTime() time.Duration {
	return e.frameTime
}

// Destroy tears down the device context and then the window. Calling it again is a no-op.
func (e *Engine) Destroy() {
	if e == nil || e.context == nil {
		return
	}
	e.context.Destroy()
	e.context = nil
	e.window.Destroy()
	e.logger.Debug("engine destroyed")
}
