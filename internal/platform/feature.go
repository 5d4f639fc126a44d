// Package platform resolves which version-gated Windows entry points are
// present on the running system.
package platform

// Feature names one dynamically resolved system entry point, as
// "module.Symbol".
type Feature string

// Gated entry points. A feature is available when its minimum OS version
// check passes and the export resolves from the system module.
const (
	FeatureEnumDisplaySettings           Feature = "user32.EnumDisplaySettingsW"
	FeatureDisplayConfigBufferSizes      Feature = "user32.GetDisplayConfigBufferSizes"
	FeatureQueryDisplayConfig            Feature = "user32.QueryDisplayConfig"
	FeatureDisplayConfigGetDeviceInfo    Feature = "user32.DisplayConfigGetDeviceInfo"
	FeatureSetProcessDpiAwarenessContext Feature = "user32.SetProcessDpiAwarenessContext"

	FeatureCreateDC      Feature = "gdi32.CreateDCW"
	FeatureDeleteDC      Feature = "gdi32.DeleteDC"
	FeatureGetDeviceCaps Feature = "gdi32.GetDeviceCaps"

	FeatureCreateDXGIFactory1 Feature = "dxgi.CreateDXGIFactory1"

	FeatureGetDpiForMonitor Feature = "shcore.GetDpiForMonitor"

	FeatureSetupDiGetClassDevs          Feature = "setupapi.SetupDiGetClassDevsW"
	FeatureSetupDiEnumDeviceInfo        Feature = "setupapi.SetupDiEnumDeviceInfo"
	FeatureSetupDiGetDeviceProperty     Feature = "setupapi.SetupDiGetDevicePropertyW"
	FeatureSetupDiDestroyDeviceInfoList Feature = "setupapi.SetupDiDestroyDeviceInfoList"

	FeatureSetConsoleCP       Feature = "kernel32.SetConsoleCP"
	FeatureSetConsoleOutputCP Feature = "kernel32.SetConsoleOutputCP"
	FeatureSetConsoleTitle    Feature = "kernel32.SetConsoleTitleW"
)

// Capabilities is the set of available gated entry points on this system.
// It is resolved once at process start and passed to every component that
// makes gated calls; availability cannot change mid-run.
type Capabilities struct {
	features map[Feature]bool
}

// New returns a Capabilities reporting exactly the given features as
// available. Production code obtains one from Load.
func New(features ...Feature) *Capabilities {
	c := &Capabilities{features: make(map[Feature]bool, len(features))}
	for _, f := range features {
		c.features[f] = true
	}
	return c
}

// Has reports whether the entry point behind f resolved on this system.
func (c *Capabilities) Has(f Feature) bool {
	return c != nil && c.features[f]
}

// HasAll reports whether every given feature resolved.
func (c *Capabilities) HasAll(features ...Feature) bool {
	for _, f := range features {
		if !c.Has(f) {
			return false
		}
	}
	return true
}
