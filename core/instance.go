package core

import (
	"strings"

	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/logging"
	"golang.org/x/exp/slog"
)

const (
	ValidationLayerName                 = "VK_LAYER_KHRONOS_validation"
	PortabilityEnumerationExtensionName = "VK_KHR_portability_enumeration"
)

type InstanceConfig struct {
	ApplicationName    string
	ApplicationVersion driver.Version
	EngineName         string
	EngineVersion      driver.Version
	// APIVersion defaults to Vulkan 1.2.
	APIVersion driver.Version

	// WindowExtensions are the instance extensions the windowing system needs for surface
	// creation.
	WindowExtensions []string

	Validation bool
	// ValidationLayers defaults to the Khronos validation layer.
	ValidationLayers []string
	DebugSeverity    driver.DebugSeverityFlags
}

// Instance is the root of the object chain. It owns the driver instance handle and,
// when validation is enabled, the debug messenger.
type Instance struct {
	handle    driver.Instance
	logger    *slog.Logger
	messenger *DebugMessenger

	layers     []string
	extensions []string
	validation bool
}

// NewInstance negotiates layers and extensions against the loader and creates the
// instance. Missing capabilities fail before anything is created.
func NewInstance(loader driver.Loader, config InstanceConfig, logger *slog.Logger) (*Instance, error) {
	logger = logging.OrDiscard(logger)

	required := appendUnique(nil, config.WindowExtensions...)
	if config.Validation {
		required = appendUnique(required, DebugUtilsExtensionName)
	}

	availableExtensions, err := loader.AvailableExtensions()
	if err != nil {
		return nil, CreationFailed(err, "query instance extensions")
	}

	var layers []string
	if config.Validation {
		layers = appendUnique(nil, config.ValidationLayers...)
		if len(layers) == 0 {
			layers = []string{ValidationLayerName}
		}

		availableLayers, err := loader.AvailableLayers()
		if err != nil {
			return nil, CreationFailed(err, "query instance layers")
		}

		missing := Missing(layers, availableLayers, LayerName)
		if len(missing) > 0 {
			return nil, capabilityUnavailable("validation layers requested but not available: %s", strings.Join(missing, ", "))
		}
	}

	missing := Missing(required, availableExtensions, ExtensionName)
	if len(missing) > 0 {
		return nil, capabilityUnavailable("required instance extensions not available: %s", strings.Join(missing, ", "))
	}

	info := driver.InstanceCreateInfo{
		ApplicationName:       config.ApplicationName,
		ApplicationVersion:    config.ApplicationVersion,
		EngineName:            config.EngineName,
		EngineVersion:         config.EngineVersion,
		APIVersion:            config.APIVersion,
		EnabledExtensionNames: required,
		EnabledLayerNames:     layers,
	}
	if info.APIVersion == 0 {
		info.APIVersion = driver.Vulkan1_2
	}

	if ContainsRequired([]string{PortabilityEnumerationExtensionName}, availableExtensions, ExtensionName) {
		info.EnabledExtensionNames = appendUnique(info.EnabledExtensionNames, PortabilityEnumerationExtensionName)
		info.EnumeratePortability = true
	}

	if config.Validation {
		debugInfo := debugMessengerInfo(config.DebugSeverity, logger)
		info.Debug = &debugInfo
	}

	handle, err := loader.CreateInstance(info)
	if err != nil {
		return nil, CreationFailed(err, "create instance for %q", config.ApplicationName)
	}

	instance := &Instance{
		handle:     handle,
		logger:     logger,
		layers:     layers,
		extensions: info.EnabledExtensionNames,
		validation: config.Validation,
	}

	if config.Validation {
		instance.messenger, err = newDebugMessenger(handle, config.DebugSeverity, logger)
		if err != nil {
			handle.Destroy()
			return nil, err
		}
	}

	logger.Debug("instance created",
		slog.String("application", config.ApplicationName),
		slog.String("apiVersion", info.APIVersion.String()),
		slog.Int("extensions", len(instance.extensions)),
		slog.Int("layers", len(instance.layers)),
	)
	return instance, nil
}

func (i *Instance) Handle() driver.Instance {
	return i.handle
}

func (i *Instance) EnabledLayers() []string {
	return append([]string(nil), i.layers...)
}

func (i *Instance) EnabledExtensions() []string {
	return append([]string(nil), i.extensions...)
}

func (i *Instance) ValidationEnabled() bool {
	return i.validation
}

func (i *Instance) DebugMessenger() *DebugMessenger {
	return i.messenger
}

// Destroy releases the debug messenger and then the instance. Calling it again is a no-op.
func (i *Instance) Destroy() {
	if i == nil || i.handle == nil {
		return
	}
	i.messenger.Destroy()
	i.messenger = nil

	i.handle.Destroy()
	i.handle = nil
	i.logger.Debug("instance destroyed")
}
