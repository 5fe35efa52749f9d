package core

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/carbon/driver"
	"golang.org/x/exp/slices"
)

// QueueFamilyIgnored marks a queue family slot that could not be resolved.
const QueueFamilyIgnored = -1

type QueueFamilyIndices struct {
	Graphics     int
	Presentation int
	Compute      int
	Transfer     int
}

func newQueueFamilyIndices() QueueFamilyIndices {
	return QueueFamilyIndices{
		Graphics:     QueueFamilyIgnored,
		Presentation: QueueFamilyIgnored,
		Compute:      QueueFamilyIgnored,
		Transfer:     QueueFamilyIgnored,
	}
}

func (i QueueFamilyIndices) HasGraphics() bool     { return i.Graphics != QueueFamilyIgnored }
func (i QueueFamilyIndices) HasPresentation() bool { return i.Presentation != QueueFamilyIgnored }
func (i QueueFamilyIndices) HasCompute() bool      { return i.Compute != QueueFamilyIgnored }
func (i QueueFamilyIndices) HasTransfer() bool     { return i.Transfer != QueueFamilyIgnored }

// IsComplete reports whether every slot is resolved.
func (i QueueFamilyIndices) IsComplete() bool {
	return i.HasGraphics() && i.HasPresentation() && i.HasCompute() && i.HasTransfer()
}

// Unique returns the distinct resolved families in ascending order.
func (i QueueFamilyIndices) Unique() []int {
	var families []int
	for _, family := range []int{i.Graphics, i.Presentation, i.Compute, i.Transfer} {
		if family != QueueFamilyIgnored && !slices.Contains(families, family) {
			families = append(families, family)
		}
	}
	slices.Sort(families)
	return families
}

// ResolveQueueFamilies picks, for each slot, the first queue family able to serve it.
// Graphics and presentation are mandatory. Transfer falls back to the first graphics or
// compute family since those implicitly support transfer operations. Compute may stay
// unresolved.
func ResolveQueueFamilies(physicalDevice *PhysicalDevice, surface *Surface) (QueueFamilyIndices, error) {
	indices := newQueueFamilyIndices()
	if physicalDevice == nil || physicalDevice.handle == nil {
		return indices, StateViolation("resolve queue families: physical device is not live")
	}
	if surface == nil || surface.handle == nil {
		return indices, StateViolation("resolve queue families: surface is not live")
	}

	families := physicalDevice.handle.QueueFamilyProperties()
	implicitTransfer := QueueFamilyIgnored

	for index, family := range families {
		if !indices.HasGraphics() && family.QueueFlags&driver.QueueGraphics != 0 {
			indices.Graphics = index
		}

		if !indices.HasPresentation() && family.QueueCount > 0 {
			supported, err := surface.SupportsPresent(physicalDevice.handle, index)
			if err != nil {
				return indices, errors.Mark(errors.Wrapf(err, "query presentation support of queue family %d", index), ErrQueueResolution)
			}
			if supported {
				indices.Presentation = index
			}
		}

		if !indices.HasCompute() && family.QueueFlags&driver.QueueCompute != 0 {
			indices.Compute = index
		}

		if !indices.HasTransfer() && family.QueueFlags&driver.QueueTransfer != 0 {
			indices.Transfer = index
		}

		if implicitTransfer == QueueFamilyIgnored && family.QueueFlags&(driver.QueueGraphics|driver.QueueCompute) != 0 {
			implicitTransfer = index
		}

		if indices.IsComplete() {
			break
		}
	}

	if !indices.HasTransfer() {
		indices.Transfer = implicitTransfer
	}

	if !indices.HasGraphics() {
		return indices, errors.Mark(errors.Newf("%s exposes no graphics queue family", physicalDevice.Properties().Name), ErrQueueResolution)
	}
	if !indices.HasPresentation() {
		return indices, errors.Mark(errors.Newf("%s exposes no queue family able to present to the surface", physicalDevice.Properties().Name), ErrQueueResolution)
	}

	return indices, nil
}
