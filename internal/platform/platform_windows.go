//go:build windows

package platform

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"
)

// One lazy loader per system module; module handles are process-wide.
var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	dxgi     = windows.NewLazySystemDLL("dxgi.dll")
	shcore   = windows.NewLazySystemDLL("shcore.dll")
	setupapi = windows.NewLazySystemDLL("setupapi.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
)

// Resolved entry points, called by the packages that own the corresponding
// argument structures. Callers consult Capabilities.Has before invoking.
var (
	ProcEnumDisplaySettings           = user32.NewProc("EnumDisplaySettingsW")
	ProcGetDisplayConfigBufferSizes   = user32.NewProc("GetDisplayConfigBufferSizes")
	ProcQueryDisplayConfig            = user32.NewProc("QueryDisplayConfig")
	ProcDisplayConfigGetDeviceInfo    = user32.NewProc("DisplayConfigGetDeviceInfo")
	ProcSetProcessDpiAwarenessContext = user32.NewProc("SetProcessDpiAwarenessContext")

	ProcCreateDC      = gdi32.NewProc("CreateDCW")
	ProcDeleteDC      = gdi32.NewProc("DeleteDC")
	ProcGetDeviceCaps = gdi32.NewProc("GetDeviceCaps")

	ProcCreateDXGIFactory1 = dxgi.NewProc("CreateDXGIFactory1")

	ProcGetDpiForMonitor = shcore.NewProc("GetDpiForMonitor")

	ProcSetupDiGetClassDevs          = setupapi.NewProc("SetupDiGetClassDevsW")
	ProcSetupDiEnumDeviceInfo        = setupapi.NewProc("SetupDiEnumDeviceInfo")
	ProcSetupDiGetDeviceProperty     = setupapi.NewProc("SetupDiGetDevicePropertyW")
	ProcSetupDiDestroyDeviceInfoList = setupapi.NewProc("SetupDiDestroyDeviceInfoList")

	ProcSetConsoleCP       = kernel32.NewProc("SetConsoleCP")
	ProcSetConsoleOutputCP = kernel32.NewProc("SetConsoleOutputCP")
	ProcSetConsoleTitle    = kernel32.NewProc("SetConsoleTitleW")
)

// Read once; the kernel version cannot change mid-run.
var osVersion = windows.RtlGetVersion()

func versionAtLeast(major, minor, build uint32) bool {
	if osVersion.MajorVersion != major {
		return osVersion.MajorVersion > major
	}
	if osVersion.MinorVersion != minor {
		return osVersion.MinorVersion > minor
	}
	return osVersion.BuildNumber >= build
}

func isVistaOrGreater() bool { return versionAtLeast(6, 0, 0) }

func isWindows7OrGreater() bool { return versionAtLeast(6, 1, 0) }

func isWindows8Dot1OrGreater() bool { return versionAtLeast(6, 3, 0) }

func isWindows10OrGreater() bool { return versionAtLeast(10, 0, 0) }

func alwaysAvailable() bool { return true }

// gate couples one entry point to its minimum OS version check.
type gate struct {
	feature Feature
	proc    *windows.LazyProc
	minOS   func() bool
}

// Load verifies the required system modules and resolves every gated entry
// point once. user32 and dxgi carry the whole run and fail hard; any other
// module or symbol that does not resolve degrades to an absent capability.
func Load(log zerolog.Logger) (*Capabilities, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("load user32.dll: %w", err)
	}
	if err := dxgi.Load(); err != nil {
		return nil, fmt.Errorf("load dxgi.dll: %w", err)
	}

	gates := []gate{
		{FeatureEnumDisplaySettings, ProcEnumDisplaySettings, alwaysAvailable},
		{FeatureDisplayConfigBufferSizes, ProcGetDisplayConfigBufferSizes, isVistaOrGreater},
		{FeatureQueryDisplayConfig, ProcQueryDisplayConfig, isWindows7OrGreater},
		{FeatureDisplayConfigGetDeviceInfo, ProcDisplayConfigGetDeviceInfo, isVistaOrGreater},
		{FeatureSetProcessDpiAwarenessContext, ProcSetProcessDpiAwarenessContext, isWindows10OrGreater},

		{FeatureCreateDC, ProcCreateDC, alwaysAvailable},
		{FeatureDeleteDC, ProcDeleteDC, alwaysAvailable},
		{FeatureGetDeviceCaps, ProcGetDeviceCaps, alwaysAvailable},

		{FeatureCreateDXGIFactory1, ProcCreateDXGIFactory1, isWindows7OrGreater},

		{FeatureGetDpiForMonitor, ProcGetDpiForMonitor, isWindows8Dot1OrGreater},

		{FeatureSetupDiGetClassDevs, ProcSetupDiGetClassDevs, isVistaOrGreater},
		{FeatureSetupDiEnumDeviceInfo, ProcSetupDiEnumDeviceInfo, alwaysAvailable},
		{FeatureSetupDiGetDeviceProperty, ProcSetupDiGetDeviceProperty, isVistaOrGreater},
		{FeatureSetupDiDestroyDeviceInfoList, ProcSetupDiDestroyDeviceInfoList, alwaysAvailable},

		{FeatureSetConsoleCP, ProcSetConsoleCP, alwaysAvailable},
		{FeatureSetConsoleOutputCP, ProcSetConsoleOutputCP, alwaysAvailable},
		{FeatureSetConsoleTitle, ProcSetConsoleTitle, alwaysAvailable},
	}

	caps := &Capabilities{features: make(map[Feature]bool, len(gates))}
	for _, g := range gates {
		available := g.minOS() && g.proc.Find() == nil
		caps.features[g.feature] = available
		if !available {
			log.Debug().Str("symbol", string(g.feature)).Msg("platform entry point unavailable")
		}
	}
	return caps, nil
}
