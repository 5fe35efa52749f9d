package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/driver"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

type PhysicalDevice struct {
	handle core1_0.PhysicalDevice
}

func physicalDevice(device driver.PhysicalDevice) core1_0.PhysicalDevice {
	return device.(*PhysicalDevice).handle
}

func (d *PhysicalDevice) Properties() (driver.PhysicalDeviceProperties, error) {
	props, err := d.handle.Properties()
	if err != nil {
		return driver.PhysicalDeviceProperties{}, errors.Wrap(err, "vkGetPhysicalDeviceProperties")
	}

	properties := driver.PhysicalDeviceProperties{
		Name:          props.DriverName,
		Type:          driver.PhysicalDeviceType(props.DriverType),
		APIVersion:    driver.Version(props.APIVersion),
		DriverVersion: driver.Version(props.DriverVersion),
		VendorID:      uint32(props.VendorID),
		DeviceID:      uint32(props.DeviceID),
	}
	if props.Limits != nil {
		properties.Limits = driver.PhysicalDeviceLimits{
			MaxImageDimension2D:      int(props.Limits.MaxImageDimension2D),
			MaxMemoryAllocationCount: int(props.Limits.MaxMemoryAllocationCount),
			NonCoherentAtomSize:      int(props.Limits.NonCoherentAtomSize),
		}
	}
	return properties, nil
}

func (d *PhysicalDevice) Features() driver.PhysicalDeviceFeatures {
	features := d.handle.Features()
	if features == nil {
		return driver.PhysicalDeviceFeatures{}
	}

	return driver.PhysicalDeviceFeatures{
		GeometryShader:     features.GeometryShader,
		TessellationShader: features.TessellationShader,
		SamplerAnisotropy:  features.SamplerAnisotropy,
		SampleRateShading:  features.SampleRateShading,
		FillModeNonSolid:   features.FillModeNonSolid,
		WideLines:          features.WideLines,
	}
}

func (d *PhysicalDevice) MemoryProperties() driver.PhysicalDeviceMemoryProperties {
	props := d.handle.MemoryProperties()

	var properties driver.PhysicalDeviceMemoryProperties
	for _, memoryType := range props.MemoryTypes {
		properties.MemoryTypes = append(properties.MemoryTypes, driver.MemoryType{
			PropertyFlags: driver.MemoryPropertyFlags(memoryType.PropertyFlags),
			HeapIndex:     memoryType.HeapIndex,
		})
	}
	for _, heap := range props.MemoryHeaps {
		properties.MemoryHeaps = append(properties.MemoryHeaps, driver.MemoryHeap{
			Size:        heap.Size,
			DeviceLocal: heap.Flags&core1_0.MemoryHeapDeviceLocal != 0,
		})
	}
	return properties
}

func (d *PhysicalDevice) QueueFamilyProperties() []driver.QueueFamilyProperties {
	var families []driver.QueueFamilyProperties
	for _, family := range d.handle.QueueFamilyProperties() {
		families = append(families, driver.QueueFamilyProperties{
			QueueFlags: driver.QueueFlags(family.QueueFlags),
			QueueCount: family.QueueCount,
		})
	}
	return families
}

func (d *PhysicalDevice) AvailableExtensions() ([]driver.ExtensionProperties, error) {
	extensions, _, err := d.handle.EnumerateDeviceExtensionProperties()
	if err != nil {
		return nil, errors.Wrap(err, "vkEnumerateDeviceExtensionProperties")
	}
	return extensionProperties(extensions), nil
}

func (d *PhysicalDevice) CreateDevice(info driver.DeviceCreateInfo) (driver.Device, error) {
	queues := make([]core1_0.DeviceQueueCreateInfo, 0, len(info.QueueCreateInfos))
	for _, queue := range info.QueueCreateInfos {
		queues = append(queues, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queue.QueueFamilyIndex,
			QueuePriorities:  queue.QueuePriorities,
		})
	}

	features := info.EnabledFeatures
	device, _, err := d.handle.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: queues,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			GeometryShader:     features.GeometryShader,
			TessellationShader: features.TessellationShader,
			SamplerAnisotropy:  features.SamplerAnisotropy,
			SampleRateShading:  features.SampleRateShading,
			FillModeNonSolid:   features.FillModeNonSolid,
			WideLines:          features.WideLines,
		},
		EnabledExtensionNames: info.EnabledExtensionNames,
		EnabledLayerNames:     info.EnabledLayerNames,
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateDevice")
	}

	return &Device{handle: device}, nil
}

type Device struct {
	handle     core1_0.Device
	swapchains khr_swapchain.Extension
}

func (d *Device) Queue(queueFamilyIndex, queueIndex int) driver.Queue {
	return &Queue{handle: d.handle.GetQueue(queueFamilyIndex, queueIndex)}
}

func (d *Device) WaitIdle() error {
	_, err := d.handle.WaitIdle()
	return errors.Wrap(err, "vkDeviceWaitIdle")
}

func (d *Device) CreateImageView(info driver.ImageViewCreateInfo) (driver.ImageView, error) {
	view, _, err := d.handle.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    info.Image.(core1_0.Image),
		ViewType: core1_0.ImageViewType2D,
		Format:   core1_0.Format(info.Format),
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateImageView")
	}
	return &ImageView{handle: view}, nil
}

func (d *Device) CreateSemaphore() (driver.Semaphore, error) {
	semaphore, _, err := d.handle.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, errors.Wrap(err, "vkCreateSemaphore")
	}
	return &Semaphore{handle: semaphore}, nil
}

func (d *Device) Destroy() {
	d.handle.Destroy(nil)
}

type Queue struct {
	handle core1_0.Queue
}

func (q *Queue) Submit(infos []driver.SubmitInfo) error {
	submits := make([]core1_0.SubmitInfo, 0, len(infos))
	for _, info := range infos {
		stages := make([]core1_0.PipelineStageFlags, 0, len(info.WaitDstStageMask))
		for _, stage := range info.WaitDstStageMask {
			stages = append(stages, core1_0.PipelineStageFlags(stage))
		}

		buffers := make([]core1_0.CommandBuffer, 0, len(info.CommandBuffers))
		for _, buffer := range info.CommandBuffers {
			buffers = append(buffers, buffer.(*CommandBuffer).handle)
		}

		submits = append(submits, core1_0.SubmitInfo{
			WaitSemaphores:   semaphores(info.WaitSemaphores),
			WaitDstStageMask: stages,
			CommandBuffers:   buffers,
			SignalSemaphores: semaphores(info.SignalSemaphores),
		})
	}

	_, err := q.handle.Submit(nil, submits)
	return errors.Wrap(err, "vkQueueSubmit")
}

func (q *Queue) WaitIdle() error {
	_, err := q.handle.WaitIdle()
	return errors.Wrap(err, "vkQueueWaitIdle")
}

func (q *Queue) Present(info driver.PresentInfo) (driver.Result, error) {
	swapchain := info.Swapchain.(*Swapchain)
	res, err := swapchain.extension.QueuePresent(q.handle, khr_swapchain.PresentInfo{
		WaitSemaphores: semaphores(info.WaitSemaphores),
		Swapchains:     []khr_swapchain.Swapchain{swapchain.handle},
		ImageIndices:   []int{info.ImageIndex},
	})
	return driver.Result(res), errors.Wrap(err, "vkQueuePresentKHR")
}

type Semaphore struct {
	handle core1_0.Semaphore
}

func (s *Semaphore) Destroy() {
	s.handle.Destroy(nil)
}

func semaphores(list []driver.Semaphore) []core1_0.Semaphore {
	if len(list) == 0 {
		return nil
	}

	handles := make([]core1_0.Semaphore, 0, len(list))
	for _, semaphore := range list {
		handles = append(handles, semaphore.(*Semaphore).handle)
	}
	return handles
}
