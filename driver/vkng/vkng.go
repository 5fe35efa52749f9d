// Package vkng binds the driver interfaces to vkngwrapper.
//
// Objects from this package only accept other objects from this package. Handing a
// drivertest object to a vkng device panics.
package vkng

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/common"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR. The pinned extensions module has no
// portability enumeration package.
const instanceCreateEnumeratePortability core1_0.InstanceCreateFlags = 0x1

func init() {
	driver.ByteOrder = common.ByteOrder
}

type Loader struct {
	handle core.Loader
}

// NewLoader builds a loader from a vkGetInstanceProcAddr pointer, such as the one
// returned by sdl.VulkanGetVkGetInstanceProcAddr.
func NewLoader(procAddr unsafe.Pointer) (*Loader, error) {
	loader, err := core.CreateLoaderFromProcAddr(procAddr)
	if err != nil {
		return nil, errors.Wrap(err, "create loader")
	}
	return &Loader{handle: loader}, nil
}

func (l *Loader) AvailableExtensions() ([]driver.ExtensionProperties, error) {
	extensions, _, err := l.handle.AvailableExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumerateInstanceExtensionProperties")
	}
	return extensionProperties(extensions), nil
}

func (l *Loader) AvailableLayers() ([]driver.LayerProperties, error) {
	layers, _, err := l.handle.AvailableLayers()
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumerateInstanceLayerProperties")
	}

	names := maps.Keys(layers)
	slices.Sort(names)

	properties := make([]driver.LayerProperties, 0, len(names))
	for _, name := range names {
		layer := layers[name]
		properties = append(properties, driver.LayerProperties{
			Name:                  name,
			SpecVersion:           uint32(layer.SpecVersion),
			ImplementationVersion: uint32(layer.ImplementationVersion),
			Description:           layer.Description,
		})
	}
	return properties, nil
}

func (l *Loader) CreateInstance(info driver.InstanceCreateInfo) (driver.Instance, error) {
	options := core1_0.InstanceCreateInfo{
		ApplicationName:    info.ApplicationName,
		ApplicationVersion: common.Version(info.ApplicationVersion),
		EngineName:         info.EngineName,
		EngineVersion:      common.Version(info.EngineVersion),
		APIVersion:         common.APIVersion(info.APIVersion),

		EnabledExtensionNames: info.EnabledExtensionNames,
		EnabledLayerNames:     info.EnabledLayerNames,
	}

	if info.EnumeratePortability {
		options.Flags |= instanceCreateEnumeratePortability
	}

	// Chaining the messenger options covers instance creation and destruction.
	if info.Debug != nil {
		options.Next = debugMessengerCreateInfo(*info.Debug)
	}

	instance, _, err := l.handle.CreateInstance(nil, options)
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateInstance")
	}
	return &Instance{handle: instance}, nil
}

type Instance struct {
	handle    core1_0.Instance
	debugUtil ext_debug_utils.Extension
}

// Handle exposes the vkngwrapper instance to window backends creating surfaces.
func (i *Instance) Handle() core1_0.Instance {
	return i.handle
}

func (i *Instance) EnumeratePhysicalDevices() ([]driver.PhysicalDevice, error) {
	devices, _, err := i.handle.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumeratePhysicalDevices")
	}

	physicalDevices := make([]driver.PhysicalDevice, 0, len(devices))
	for _, device := range devices {
		physicalDevices = append(physicalDevices, &PhysicalDevice{handle: device})
	}
	return physicalDevices, nil
}

func (i *Instance) CreateDebugMessenger(info driver.DebugMessengerCreateInfo) (driver.DebugMessenger, error) {
	if i.debugUtil == nil {
		extension := ext_debug_utils.CreateExtensionFromInstance(i.handle)
		if extension == nil {
			return nil, errors.Newf("%s is not enabled on this instance", ext_debug_utils.ExtensionName)
		}
		i.debugUtil = extension
	}

	messenger, _, err := i.debugUtil.CreateDebugUtilsMessenger(i.handle, nil, debugMessengerCreateInfo(info))
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateDebugUtilsMessengerEXT")
	}
	return &DebugMessenger{handle: messenger}, nil
}

func (i *Instance) Destroy() {
	i.handle.Destroy(nil)
}

type DebugMessenger struct {
	handle ext_debug_utils.Messenger
}

func (m *DebugMessenger) Destroy() {
	m.handle.Destroy(nil)
}

func debugMessengerCreateInfo(info driver.DebugMessengerCreateInfo) ext_debug_utils.DebugUtilsMessengerCreateInfo {
	callback := info.Callback
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.MessageSeverities(info.Severity),
		MessageType:     ext_debug_utils.MessageTypes(info.Types),
		UserCallback: func(msgType ext_debug_utils.MessageTypes, severity ext_debug_utils.MessageSeverities, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
			if callback == nil || data == nil {
				return false
			}
			return callback(driver.DebugMessage{
				Severity:        driver.DebugSeverityFlags(severity),
				Type:            driver.DebugMessageTypeFlags(msgType),
				MessageIDName:   data.MessageIDName,
				MessageIDNumber: data.MessageIDNumber,
				Message:         data.Message,
			})
		},
	}
}

func extensionProperties(extensions map[string]*core1_0.ExtensionProperties) []driver.ExtensionProperties {
	names := maps.Keys(extensions)
	slices.Sort(names)

	properties := make([]driver.ExtensionProperties, 0, len(names))
	for _, name := range names {
		properties = append(properties, driver.ExtensionProperties{
			Name:        name,
			SpecVersion: uint32(extensions[name].SpecVersion),
		})
	}
	return properties
}

var (
	_ driver.Loader         = (*Loader)(nil)
	_ driver.Instance       = (*Instance)(nil)
	_ driver.DebugMessenger = (*DebugMessenger)(nil)
	_ driver.Surface        = (*Surface)(nil)
	_ driver.PhysicalDevice = (*PhysicalDevice)(nil)
	_ driver.Device         = (*Device)(nil)
	_ driver.Queue          = (*Queue)(nil)
	_ driver.Swapchain      = (*Swapchain)(nil)
	_ driver.ImageView      = (*ImageView)(nil)
	_ driver.RenderPass     = (*RenderPass)(nil)
	_ driver.Buffer         = (*Buffer)(nil)
	_ driver.DeviceMemory   = (*DeviceMemory)(nil)
	_ driver.CommandPool    = (*CommandPool)(nil)
	_ driver.CommandBuffer  = (*CommandBuffer)(nil)
	_ driver.Semaphore      = (*Semaphore)(nil)
)
