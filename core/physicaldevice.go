package core

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/carbon/logging"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

const SwapchainExtensionName = "VK_KHR_swapchain"

const discreteGPUBonus = 1000

// FeatureRequirement reports whether a device offers every feature the application needs.
type FeatureRequirement func(features driver.PhysicalDeviceFeatures) bool

func RequireGeometryShader(features driver.PhysicalDeviceFeatures) bool {
	return features.GeometryShader
}

// DeviceInfo is the part of a physical device that scoring looks at.
type DeviceInfo struct {
	Properties driver.PhysicalDeviceProperties
	Features   driver.PhysicalDeviceFeatures
	Extensions []driver.ExtensionProperties
}

// ScoreDevice rates a device for selection. A device that lacks a required feature or
// extension scores zero. Otherwise discrete GPUs earn a fixed bonus on top of their
// maximum 2D image dimension.
func ScoreDevice(info DeviceInfo, requiredExtensions []string, requireFeatures FeatureRequirement) int32 {
	if requireFeatures != nil && !requireFeatures(info.Features) {
		return 0
	}
	if !ContainsRequired(requiredExtensions, info.Extensions, ExtensionName) {
		return 0
	}

	var score int32
	if info.Properties.Type == driver.PhysicalDeviceTypeDiscreteGPU {
		score += discreteGPUBonus
	}
	score += int32(info.Properties.Limits.MaxImageDimension2D)
	return score
}

type SelectorOptions struct {
	// RequiredExtensions defaults to the swapchain extension.
	RequiredExtensions []string
	// RequireFeatures defaults to RequireGeometryShader.
	RequireFeatures FeatureRequirement
}

func (o SelectorOptions) withDefaults() SelectorOptions {
	if o.RequiredExtensions == nil {
		o.RequiredExtensions = []string{SwapchainExtensionName}
	}
	if o.RequireFeatures == nil {
		o.RequireFeatures = RequireGeometryShader
	}
	return o
}

// Candidate is a scored physical device snapshot.
type Candidate struct {
	Device driver.PhysicalDevice
	// Index is the device's position in enumeration order.
	Index int
	Score int32

	Properties       driver.PhysicalDeviceProperties
	Features         driver.PhysicalDeviceFeatures
	MemoryProperties driver.PhysicalDeviceMemoryProperties
	Extensions       []driver.ExtensionProperties
}

// PhysicalDevice is the selected GPU. It keeps the properties, features and memory layout
// captured at selection time along with the full ranked candidate list.
type PhysicalDevice struct {
	handle   driver.PhysicalDevice
	instance *Instance
	surface  *Surface

	chosen             Candidate
	candidates         []Candidate
	requiredExtensions []string
}

// SelectPhysicalDevice scores every enumerated device and picks the highest. Ties go to
// the device enumerated first.
func SelectPhysicalDevice(instance *Instance, surface *Surface, opts SelectorOptions, logger *slog.Logger) (*PhysicalDevice, error) {
	logger = logging.OrDiscard(logger)
	opts = opts.withDefaults()

	if instance == nil || instance.handle == nil {
		return nil, StateViolation("select physical device: instance is not live")
	}

	devices, err := instance.handle.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "enumerate physical devices"), ErrSelectionFailure)
	}
	if len(devices) == 0 {
		return nil, errors.Mark(errors.New("failed to find GPUs with Vulkan support"), ErrSelectionFailure)
	}

	candidates := make([]Candidate, 0, len(devices))
	for index, device := range devices {
		candidate, err := snapshot(device, index)
		if err != nil {
			logger.Warn("skipping physical device", slog.Int("index", index), slog.Any("error", err))
			candidates = append(candidates, candidate)
			continue
		}

		candidate.Score = ScoreDevice(DeviceInfo{
			Properties: candidate.Properties,
			Features:   candidate.Features,
			Extensions: candidate.Extensions,
		}, opts.RequiredExtensions, opts.RequireFeatures)
		candidates = append(candidates, candidate)

		logger.Debug("rated physical device",
			slog.String("device", candidate.Properties.Name),
			slog.String("type", candidate.Properties.Type.String()),
			slog.Int("score", int(candidate.Score)),
		)
	}

	slices.SortStableFunc(candidates, func(a, b Candidate) bool {
		return a.Score > b.Score
	})

	best := candidates[0]
	if best.Score <= 0 {
		return nil, errors.Mark(errors.Newf("failed to find a suitable GPU among %d devices", len(devices)), ErrSelectionFailure)
	}

	logger.Info("selected physical device",
		slog.String("device", best.Properties.Name),
		slog.String("type", best.Properties.Type.String()),
		slog.Int("score", int(best.Score)),
	)

	return &PhysicalDevice{
		handle:             best.Device,
		instance:           instance,
		surface:            surface,
		chosen:             best,
		candidates:         candidates,
		requiredExtensions: append([]string(nil), opts.RequiredExtensions...),
	}, nil
}

func snapshot(device driver.PhysicalDevice, index int) (Candidate, error) {
	candidate := Candidate{Device: device, Index: index}

	properties, err := device.Properties()
	if err != nil {
		return candidate, errors.Wrap(err, "read device properties")
	}
	extensions, err := device.AvailableExtensions()
	if err != nil {
		return candidate, errors.Wrapf(err, "read extensions of %s", properties.Name)
	}

	candidate.Properties = properties
	candidate.Features = device.Features()
	candidate.MemoryProperties = device.MemoryProperties()
	candidate.Extensions = extensions
	return candidate, nil
}

func (p *PhysicalDevice) Handle() driver.PhysicalDevice {
	return p.handle
}

func (p *PhysicalDevice) Instance() *Instance {
	return p.instance
}

func (p *PhysicalDevice) Surface() *Surface {
	return p.surface
}

func (p *PhysicalDevice) Properties() driver.PhysicalDeviceProperties {
	return p.chosen.Properties
}

func (p *PhysicalDevice) Features() driver.PhysicalDeviceFeatures {
	return p.chosen.Features
}

func (p *PhysicalDevice) MemoryProperties() driver.PhysicalDeviceMemoryProperties {
	return p.chosen.MemoryProperties
}

func (p *PhysicalDevice) Extensions() []driver.ExtensionProperties {
	return p.chosen.Extensions
}

// RequiredExtensions are the device extensions selection demanded. The logical device
// enables them.
func (p *PhysicalDevice) RequiredExtensions() []string {
	return append([]string(nil), p.requiredExtensions...)
}

func (p *PhysicalDevice) Score() int32 {
	return p.chosen.Score
}

// Candidates returns every enumerated device ordered by descending score.
func (p *PhysicalDevice) Candidates() []Candidate {
	return append([]Candidate(nil), p.candidates...)
}

func (p *PhysicalDevice) DeviceTypeName() string {
	return p.chosen.Properties.Type.String()
}

// FindMemoryType returns the first memory type allowed by typeBits whose property flags
// include every flag in properties.
func (p *PhysicalDevice) FindMemoryType(typeBits uint32, properties driver.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range p.chosen.MemoryProperties.MemoryTypes {
		typeBit := uint32(1 << i)

		if typeBits&typeBit != 0 && memoryType.PropertyFlags&properties == properties {
			return i, nil
		}
	}

	return 0, capabilityUnavailable("no memory type matches type bits %#x with properties %#x on %s", typeBits, int32(properties), p.chosen.Properties.Name)
}

func (p *PhysicalDevice) String() string {
	props := p.chosen.Properties
	var b strings.Builder
	fmt.Fprintf(&b, "Device name: %s\n", props.Name)
	fmt.Fprintf(&b, "Device type: %s\n", props.Type)
	fmt.Fprintf(&b, "Vendor ID: %#x, Device ID: %#x\n", props.VendorID, props.DeviceID)
	fmt.Fprintf(&b, "API version: %s, Driver version: %s\n", props.APIVersion, props.DriverVersion)
	fmt.Fprintf(&b, "Max image dimension 2D: %d\n", props.Limits.MaxImageDimension2D)
	fmt.Fprintf(&b, "Memory types: %d, Memory heaps: %d", len(p.chosen.MemoryProperties.MemoryTypes), len(p.chosen.MemoryProperties.MemoryHeaps))
	return b.String()
}

// Destroy drops the references held by the selection. Physical devices are owned by the
// instance, so nothing is released on the driver side.
func (p *PhysicalDevice) Destroy() {
	if p == nil || p.handle == nil {
		return
	}
	p.handle = nil
	p.candidates = nil
	p.surface = nil
}
