package main

import (
	"os"
	"runtime"
	"time"

	"github.com/vkngwrapper/carbon/display/sdlwindow"
	"github.com/vkngwrapper/carbon/engine"
	"github.com/vkngwrapper/carbon/logging"
	"golang.org/x/exp/slog"
)

func init() {
	// SDL and the Vulkan surface must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	logger := logging.New(os.Stderr, slog.LevelDebug)

	cfg := engine.DefaultConfig()
	cfg.Props.Title = "Carbon"

	window, err := sdlwindow.New(cfg.Props)
	if err != nil {
		logging.Fatal(logger, "open window", err)
	}

	loader, err := window.NewLoader()
	if err != nil {
		window.Destroy()
		logging.Fatal(logger, "load vulkan", err)
	}

	app := engine.MustNew(window, loader, cfg, logger)
	defer app.Destroy()

	stats := engine.NewTimer()
	frames := 0
	for app.Running() {
		err = app.Update()
		if err != nil {
			logger.Error("update failed", slog.String("error", err.Error()))
			return
		}

		if window.Minimized() {
			window.WaitForFocus()
			continue
		}

		frames++
		// Nothing is recorded yet, so pace the loop instead of spinning.
		time.Sleep(time.Millisecond)
		if stats.Elapsed() >= time.Second {
			extent := app.Context().Swapchain().Extent()
			logger.Debug("frame stats",
				slog.Int("frames", frames),
				slog.Duration("frameTime", app.FrameTime()),
				slog.Int("width", extent.Width),
				slog.Int("height", extent.Height),
				slog.Float64("aspect", float64(window.AspectRatio())),
			)
			stats.Reset()
			frames = 0
		}
	}
}
