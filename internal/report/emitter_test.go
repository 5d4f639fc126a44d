package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tangra/go-tangra-gpuinfo/internal/display"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/driver"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/dxgi"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/hostinfo"
)

func plainOutput(t *testing.T) func() {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	return func() { color.NoColor = prev }
}

func emit(t *testing.T, rep Report, res Resolvers, pause bool, in string) string {
	t.Helper()
	t.Cleanup(plainOutput(t))
	var out bytes.Buffer
	e := NewEmitter(&out, strings.NewReader(in), zerolog.Nop(), res, pause)
	e.Run(rep)
	return out.String()
}

func testReport(adapters ...dxgi.Adapter) Report {
	return Report{
		ID:          "0b0b8a30-9d4c-41a5-bd75-3d4d1f0001aa",
		GeneratedAt: time.Date(2026, 8, 26, 10, 30, 0, 0, time.UTC),
		Adapters:    adapters,
	}
}

func TestRun_ZeroAdapters(t *testing.T) {
	got := emit(t, testReport(), Resolvers{}, false, "")

	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Repeat("#", 30), lines[0])
	assert.Equal(t, "Report ID: 0b0b8a30-9d4c-41a5-bd75-3d4d1f0001aa", lines[1])
	assert.Equal(t, "Generated: 2026-08-26T10:30:00Z", lines[2])
	assert.Equal(t, strings.Repeat("#", 30), lines[3])
	assert.NotContains(t, got, "GPU #")
	assert.NotContains(t, got, "Press the <ENTER> key")
}

func TestRun_HostSummary(t *testing.T) {
	rep := testReport()
	rep.Host = &hostinfo.Summary{
		Hostname:           "DESKTOP-6SF6HQX",
		OSCaption:          "Microsoft Windows 11 Pro",
		OSBuild:            "22631",
		Manufacturer:       "LENOVO",
		Model:              "21DE",
		TotalPhysicalBytes: 32 * 1024 * 1024 * 1024,
	}

	got := emit(t, rep, Resolvers{}, false, "")

	assert.Contains(t, got, "Host: DESKTOP-6SF6HQX (Microsoft Windows 11 Pro, build 22631)\n")
	assert.Contains(t, got, "System: LENOVO 21DE\n")
	assert.Contains(t, got, "Memory: 32 GiB\n")
}

func fullAdapter() dxgi.Adapter {
	integrated := false
	maxRate := 160.0
	return dxgi.Adapter{
		Name:                 "NVIDIA GeForce RTX 4090",
		VendorID:             0x10DE,
		DeviceID:             0x2684,
		DedicatedVideoBytes:  24219 * 1048576,
		DedicatedSystemBytes: 0,
		SharedSystemBytes:    16301 * 1048576,
		Software:             false,
		Integrated:           &integrated,
		Outputs: []dxgi.Output{{
			DeviceName:        `\\.\DISPLAY1`,
			X:                 0,
			Y:                 0,
			Width:             3840,
			Height:            2160,
			AttachedToDesktop: true,
			Rotation:          dxgi.RotationIdentity,
			Monitor:           42,
			MaxRefreshRate:    &maxRate,
			Color: &dxgi.ColorInfo{
				BitsPerColor:          10,
				ColorSpace:            12,
				RedPrimary:            [2]float32{0.708, 0.292},
				GreenPrimary:          [2]float32{0.17, 0.797},
				BluePrimary:           [2]float32{0.131, 0.046},
				WhitePoint:            [2]float32{0.3127, 0.329},
				MinLuminance:          0.01,
				MaxLuminance:          1000,
				MaxFullFrameLuminance: 600,
			},
		}},
	}
}

func fullResolvers() Resolvers {
	return Resolvers{
		DriverInfo: func(name string) (driver.Info, bool) {
			return driver.Info{Version: "536.23", Date: "2023-6-8"}, true
		},
		Paths: func(deviceName string) []display.Path {
			if deviceName != `\\.\DISPLAY1` {
				return nil
			}
			return []display.Path{{TargetID: 7, Refresh: display.Rational{Numerator: 119964, Denominator: 1000}}}
		},
		SDRWhiteLevel: func([]display.Path) (float64, bool) { return 240, true },
		RefreshRate: func(deviceName string, paths []display.Path) (float64, bool) {
			return display.ResolveRefreshRate(deviceName, paths, display.Deps{})
		},
		FriendlyName: func([]display.Path) (string, bool) { return "LG OLED C2", true },
		DPI:          func(uintptr) (uint32, bool) { return 144, true },
	}
}

func TestRun_FullAdapterBlock(t *testing.T) {
	got := emit(t, testReport(fullAdapter()), fullResolvers(), false, "")

	for _, line := range []string{
		"GPU #1:",
		"Device name: NVIDIA GeForce RTX 4090",
		"Vendor ID: 0x10de (Nvidia)",
		"Device ID: 0x2684",
		"Dedicated video memory: 24219 MiB",
		"Dedicated system memory: 0 MiB",
		"Shared system memory: 16301 MiB",
		"Variable refresh rate supported: No",
		"Software simulation (rendered by CPU): No",
		"Integrated device: No",
		"Driver: 536.23 (2023-6-8)",
		"Output #1:",
		`Device name: \\.\DISPLAY1`,
		"Desktop geometry: x: 0, y: 0, width: 3840, height: 2160",
		"Attached to desktop: Yes",
		"Rotation: 0 degree",
		"Maximum refresh rate: 160 Hz",
		"Bits per color: 10",
		"Color space: [HDR] RGB (0-255), gamma: 2084, siting: image, primaries: BT.2020",
		"Red primary: 0.708, 0.292",
		"Green primary: 0.17, 0.797",
		"Blue primary: 0.131, 0.046",
		"White point: 0.3127, 0.329",
		"Minimum luminance: 0.01 nit",
		"Maximum luminance: 1000 nit",
		"Maximum average full frame luminance: 600 nit",
		"SDR white level: 240 nit",
		"Current refresh rate: 119.964 Hz",
		"Display name: LG OLED C2",
		"Dots-per-inch: 144 (150%)",
	} {
		assert.Contains(t, got, line+"\n")
	}
	assert.Contains(t, got, strings.Repeat("-", 31)+"\n")
}

func TestRun_UnknownVendorHasNoNameSuffix(t *testing.T) {
	adapter := fullAdapter()
	adapter.VendorID = 0xFFFF
	adapter.Outputs = nil

	got := emit(t, testReport(adapter), Resolvers{}, false, "")

	assert.Contains(t, got, "Vendor ID: 0xffff\n")
	assert.NotContains(t, got, "Vendor ID: 0xffff (")
}

func TestRun_ExtendedColorAbsent(t *testing.T) {
	adapter := fullAdapter()
	adapter.Outputs[0].Color = nil
	adapter.Outputs[0].MaxRefreshRate = nil

	got := emit(t, testReport(adapter), fullResolvers(), false, "")

	assert.NotContains(t, got, "Bits per color:")
	assert.NotContains(t, got, "Color space:")
	assert.NotContains(t, got, "luminance")
	assert.NotContains(t, got, "Maximum refresh rate:")
	// The rest of the output block is unaffected.
	assert.Contains(t, got, "Attached to desktop: Yes\n")
	assert.Contains(t, got, "SDR white level: 240 nit\n")
	assert.Contains(t, got, "Dots-per-inch: 144 (150%)\n")
}

func TestRun_NoPathsOmitsPathAttributes(t *testing.T) {
	res := fullResolvers()
	res.Paths = func(string) []display.Path { return nil }

	got := emit(t, testReport(fullAdapter()), res, false, "")

	assert.NotContains(t, got, "SDR white level:")
	assert.NotContains(t, got, "Current refresh rate:")
	assert.NotContains(t, got, "Display name:")
	// DPI does not depend on the path resolver.
	assert.Contains(t, got, "Dots-per-inch: 144 (150%)\n")
}

func TestRun_UnansweredResolversOmitLines(t *testing.T) {
	res := fullResolvers()
	res.DriverInfo = func(string) (driver.Info, bool) { return driver.Info{}, false }
	res.SDRWhiteLevel = func([]display.Path) (float64, bool) { return display.DefaultSDRWhiteLevelNits, false }
	res.FriendlyName = func([]display.Path) (string, bool) { return "", false }
	res.DPI = func(uintptr) (uint32, bool) { return display.DefaultDPI, false }

	got := emit(t, testReport(fullAdapter()), res, false, "")

	assert.NotContains(t, got, "Driver:")
	assert.NotContains(t, got, "SDR white level:")
	assert.NotContains(t, got, "Display name:")
	assert.NotContains(t, got, "Dots-per-inch:")
	assert.Contains(t, got, "Current refresh rate: 119.964 Hz\n")
}

func TestRun_PausePrompt(t *testing.T) {
	got := emit(t, testReport(), Resolvers{}, true, "\n")
	assert.Contains(t, got, "Press the <ENTER> key to exit ...\n")

	got = emit(t, testReport(), Resolvers{}, false, "")
	assert.NotContains(t, got, "Press the <ENTER> key")
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "60", formatFloat(60))
	assert.Equal(t, "59.94", formatFloat(59.94))
	assert.Equal(t, "80", formatFloat(80))
	assert.Equal(t, "0.708", formatFloat32(0.708))
	assert.Equal(t, "1000", formatFloat32(1000))
}

func TestRun_OmittedLinesLoggedAtDebug(t *testing.T) {
	t.Cleanup(plainOutput(t))
	res := fullResolvers()
	res.DriverInfo = func(string) (driver.Info, bool) { return driver.Info{}, false }
	res.Paths = func(string) []display.Path { return nil }
	res.DPI = func(uintptr) (uint32, bool) { return 0, false }

	var out, logged bytes.Buffer
	log := zerolog.New(&logged).Level(zerolog.DebugLevel)
	NewEmitter(&out, strings.NewReader(""), log, res, false).Run(testReport(fullAdapter()))

	assert.Contains(t, logged.String(), "driver info unavailable")
	assert.Contains(t, logged.String(), "no display paths matched")
	assert.Contains(t, logged.String(), "monitor DPI unavailable")
	// Omission stays silent on the report itself.
	assert.NotContains(t, out.String(), "Driver:")
	assert.NotContains(t, out.String(), "unavailable")
}
