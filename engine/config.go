package engine

import (
	"github.com/vkngwrapper/carbon/core"
	"github.com/vkngwrapper/carbon/display"
	"github.com/vkngwrapper/carbon/driver"
)

const DefaultEngineName = "Carbon"

var DefaultEngineVersion = display.Version{Major: 0, Minor: 1, Patch: 0}

// Config is read once when the device context is built.
type Config struct {
	Props display.Props

	EngineName    string
	EngineVersion display.Version

	// Validation enables the validation layers and routes their messages to the logger.
	Validation       bool
	ValidationLayers []string
	DebugSeverity    driver.DebugSeverityFlags

	// DeviceExtensions are required of the physical device in addition to the swapchain
	// extension.
	DeviceExtensions []string
	// RequireFeatures rejects physical devices lacking features. Defaults to requiring
	// geometry shaders.
	RequireFeatures core.FeatureRequirement
	// DeviceFeatures are enabled on the logical device when supported. Defaults to
	// core.DefaultDeviceFeatures.
	DeviceFeatures *driver.PhysicalDeviceFeatures
}

func DefaultConfig() Config {
	return Config{
		Props:         display.DefaultProps(),
		EngineName:    DefaultEngineName,
		EngineVersion: DefaultEngineVersion,
		Validation:    true,
		DebugSeverity: core.DefaultDebugSeverity,
	}
}
