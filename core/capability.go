package core

import (
	"github.com/vkngwrapper/carbon/driver"
	"golang.org/x/exp/slices"
)

// ContainsRequired reports whether every name in required is present in available. Names
// are compared exactly and case-sensitively. An empty required list is always satisfied.
func ContainsRequired[T any](required []string, available []T, name func(T) string) bool {
	return len(Missing(required, available, name)) == 0
}

// Missing returns the entries of required that do not appear in available, in order.
func Missing[T any](required []string, available []T, name func(T) string) []string {
	names := make([]string, 0, len(available))
	for _, item := range available {
		names = append(names, name(item))
	}

	var missing []string
	for _, req := range required {
		if !slices.Contains(names, req) {
			missing = append(missing, req)
		}
	}
	return missing
}

func ExtensionName(ext driver.ExtensionProperties) string { return ext.Name }

func LayerName(layer driver.LayerProperties) string { return layer.Name }

// CapabilityQuery answers which instance extensions and layers the loader offers.
type CapabilityQuery struct {
	Loader driver.Loader
}

func (q CapabilityQuery) Extensions() ([]driver.ExtensionProperties, error) {
	return q.Loader.AvailableExtensions()
}

func (q CapabilityQuery) Layers() ([]driver.LayerProperties, error) {
	return q.Loader.AvailableLayers()
}

func (q CapabilityQuery) HasExtensions(required []string) (bool, error) {
	extensions, err := q.Extensions()
	if err != nil {
		return false, err
	}
	return ContainsRequired(required, extensions, ExtensionName), nil
}

func (q CapabilityQuery) HasLayers(required []string) (bool, error) {
	layers, err := q.Layers()
	if err != nil {
		return false, err
	}
	return ContainsRequired(required, layers, LayerName), nil
}

// appendUnique appends the values of add that are not already present in list.
func appendUnique(list []string, add ...string) []string {
	for _, value := range add {
		if !slices.Contains(list, value) {
			list = append(list, value)
		}
	}
	return list
}
