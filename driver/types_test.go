package driver_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vkngwrapper/carbon/driver"
)

func TestVersion(t *testing.T) {
	c := qt.New(t)

	v := driver.CreateVersion(1, 2, 162)
	c.Assert(v.Major(), qt.Equals, uint32(1))
	c.Assert(v.Minor(), qt.Equals, uint32(2))
	c.Assert(v.Patch(), qt.Equals, uint32(162))
	c.Assert(v.String(), qt.Equals, "1.2.162")
	c.Assert(uint32(driver.Vulkan1_2), qt.Equals, uint32(0x402000))
}

func TestResultString(t *testing.T) {
	c := qt.New(t)

	c.Assert(driver.Success.String(), qt.Equals, "VK_SUCCESS")
	c.Assert(driver.ErrorOutOfDate.String(), qt.Equals, "VK_ERROR_OUT_OF_DATE_KHR")
	c.Assert(driver.Suboptimal.String(), qt.Equals, "VK_SUBOPTIMAL_KHR")
	c.Assert(driver.Result(-13).String(), qt.Equals, "VkResult(-13)")
}

func TestEnumStrings(t *testing.T) {
	c := qt.New(t)

	c.Assert(driver.PresentModeMailbox.String(), qt.Equals, "Mailbox")
	c.Assert(driver.PresentMode(7).String(), qt.Equals, "PresentMode(7)")
	c.Assert(driver.PhysicalDeviceTypeDiscreteGPU.String(), qt.Equals, "Discrete GPU")
	c.Assert(driver.PhysicalDeviceType(9).String(), qt.Equals, "Other")
}
