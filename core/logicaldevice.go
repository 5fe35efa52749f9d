package core

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/logging"
	"golang.org/x/exp/slog"
)

const PortabilitySubsetExtensionName = "VK_KHR_portability_subset"

const queuePriority = float32(1.0)

// DefaultDeviceFeatures are the features enabled when DeviceOptions does not name any.
var DefaultDeviceFeatures = driver.PhysicalDeviceFeatures{
	SamplerAnisotropy: true,
	SampleRateShading: true,
}

type DeviceOptions struct {
	// Features to enable. Features the physical device does not offer are left disabled
	// and reported in the log.
	Features *driver.PhysicalDeviceFeatures
	// Extensions enabled in addition to the ones physical device selection required.
	Extensions []string
}

// LogicalDevice owns the device handle and one queue per resolved queue family.
type LogicalDevice struct {
	handle         driver.Device
	physicalDevice *PhysicalDevice
	instance       *Instance
	logger         *slog.Logger

	indices    QueueFamilyIndices
	queues     map[int]driver.Queue
	extensions []string
	features   driver.PhysicalDeviceFeatures

	dependents int
}

// NewLogicalDevice creates the device with a single queue at priority 1.0 for each
// distinct resolved queue family.
func NewLogicalDevice(physicalDevice *PhysicalDevice, indices QueueFamilyIndices, opts DeviceOptions, logger *slog.Logger) (*LogicalDevice, error) {
	logger = logging.OrDiscard(logger)

	if physicalDevice == nil || physicalDevice.handle == nil {
		return nil, StateViolation("create logical device: physical device is not live")
	}
	if !indices.HasGraphics() || !indices.HasPresentation() {
		return nil, errors.Mark(errors.New("create logical device: graphics and presentation queue families are required"), ErrQueueResolution)
	}

	instance := physicalDevice.instance

	var queueInfos []driver.DeviceQueueCreateInfo
	for _, family := range indices.Unique() {
		queueInfos = append(queueInfos, driver.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	extensions := appendUnique(physicalDevice.RequiredExtensions(), opts.Extensions...)
	missing := Missing(extensions, physicalDevice.Extensions(), ExtensionName)
	if len(missing) > 0 {
		return nil, capabilityUnavailable("device %s lacks extensions %v", physicalDevice.Properties().Name, missing)
	}

	// Portability implementations require the subset extension to be enabled when offered.
	if ContainsRequired([]string{PortabilitySubsetExtensionName}, physicalDevice.Extensions(), ExtensionName) {
		extensions = appendUnique(extensions, PortabilitySubsetExtensionName)
	}

	requested := DefaultDeviceFeatures
	if opts.Features != nil {
		requested = *opts.Features
	}
	features := supportedFeatures(requested, physicalDevice.Features())
	if features != requested {
		logger.Warn("some requested device features are unsupported and stay disabled",
			slog.String("device", physicalDevice.Properties().Name))
	}

	info := driver.DeviceCreateInfo{
		QueueCreateInfos:      queueInfos,
		EnabledExtensionNames: extensions,
		EnabledFeatures:       features,
	}
	if instance != nil && instance.ValidationEnabled() {
		info.EnabledLayerNames = instance.EnabledLayers()
	}

	handle, err := physicalDevice.handle.CreateDevice(info)
	if err != nil {
		return nil, CreationFailed(err, "create logical device on %s", physicalDevice.Properties().Name)
	}

	queues := make(map[int]driver.Queue, len(queueInfos))
	for _, queueInfo := range queueInfos {
		queues[queueInfo.QueueFamilyIndex] = handle.Queue(queueInfo.QueueFamilyIndex, 0)
	}

	logger.Debug("logical device created",
		slog.String("device", physicalDevice.Properties().Name),
		slog.Int("graphicsFamily", indices.Graphics),
		slog.Int("presentFamily", indices.Presentation),
		slog.Int("computeFamily", indices.Compute),
		slog.Int("transferFamily", indices.Transfer),
	)

	return &LogicalDevice{
		handle:         handle,
		physicalDevice: physicalDevice,
		instance:       instance,
		logger:         logger,
		indices:        indices,
		queues:         queues,
		extensions:     extensions,
		features:       features,
	}, nil
}

func supportedFeatures(requested, available driver.PhysicalDeviceFeatures) driver.PhysicalDeviceFeatures {
	return driver.PhysicalDeviceFeatures{
		GeometryShader:     requested.GeometryShader && available.GeometryShader,
		TessellationShader: requested.TessellationShader && available.TessellationShader,
		SamplerAnisotropy:  requested.SamplerAnisotropy && available.SamplerAnisotropy,
		SampleRateShading:  requested.SampleRateShading && available.SampleRateShading,
		FillModeNonSolid:   requested.FillModeNonSolid && available.FillModeNonSolid,
		WideLines:          requested.WideLines && available.WideLines,
	}
}

func (d *LogicalDevice) Handle() driver.Device {
	return d.handle
}

func (d *LogicalDevice) PhysicalDevice() *PhysicalDevice {
	return d.physicalDevice
}

func (d *LogicalDevice) Instance() *Instance {
	return d.instance
}

func (d *LogicalDevice) Indices() QueueFamilyIndices {
	return d.indices
}

func (d *LogicalDevice) EnabledExtensions() []string {
	return append([]string(nil), d.extensions...)
}

func (d *LogicalDevice) EnabledFeatures() driver.PhysicalDeviceFeatures {
	return d.features
}

// Queue returns the queue created for family.
func (d *LogicalDevice) Queue(family int) (driver.Queue, error) {
	if d.handle == nil {
		return nil, StateViolation("get queue: logical device destroyed")
	}
	queue, ok := d.queues[family]
	if !ok {
		return nil, errors.Mark(errors.Newf("no queue was created for family %d", family), ErrQueueResolution)
	}
	return queue, nil
}

func (d *LogicalDevice) GraphicsQueue() driver.Queue {
	return d.queues[d.indices.Graphics]
}

func (d *LogicalDevice) PresentQueue() driver.Queue {
	return d.queues[d.indices.Presentation]
}

// ComputeQueue returns nil when no compute family was resolved.
func (d *LogicalDevice) ComputeQueue() driver.Queue {
	return d.queues[d.indices.Compute]
}

func (d *LogicalDevice) TransferQueue() driver.Queue {
	return d.queues[d.indices.Transfer]
}

func (d *LogicalDevice) WaitIdle() error {
	if d.handle == nil {
		return StateViolation("wait idle: logical device destroyed")
	}
	if err := d.handle.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for device idle")
	}
	return nil
}

// Retain registers an object created from this device. Objects call Release when they are
// destroyed so leaks can be reported when the device goes away.
func (d *LogicalDevice) Retain() error {
	if d.handle == nil {
		return StateViolation("logical device destroyed")
	}
	d.dependents++
	return nil
}

func (d *LogicalDevice) Release() {
	if d.dependents > 0 {
		d.dependents--
	}
}

// Dependents is the number of live objects created from this device.
func (d *LogicalDevice) Dependents() int {
	return d.dependents
}

func (d *LogicalDevice) Live() bool {
	return d != nil && d.handle != nil
}

// Destroy waits for the device to go idle and releases it. Calling it again is a no-op.
func (d *LogicalDevice) Destroy() {
	if d == nil || d.handle == nil {
		return
	}

	if d.dependents > 0 {
		d.logger.Warn("destroying logical device with live dependents", slog.Int("dependents", d.dependents))
	}

	if err := d.handle.WaitIdle(); err != nil {
		d.logger.Error("wait idle before device destroy", slog.Any("error", err))
	}

	d.handle.Destroy()
	d.handle = nil
	d.queues = nil
	d.logger.Debug("logical device destroyed")
}
