//go:build windows

// Package console prepares the console environment for the report: code
// pages, virtual-terminal sequences, window title, and DPI awareness.
package console

import (
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"

	"github.com/go-tangra/go-tangra-gpuinfo/internal/platform"
)

const (
	cpUTF8 = 65001

	// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2, a pseudo handle of -4.
	dpiAwarenessPerMonitorV2 = ^uintptr(3)
)

// Setup prepares the console environment before any output: UTF-8 code
// pages, virtual-terminal processing on stdout and stderr, the window
// title, and per-monitor-v2 DPI awareness. Every step degrades quietly;
// nothing here may abort the run.
func Setup(caps *platform.Capabilities, log zerolog.Logger) {
	if caps.Has(platform.FeatureSetConsoleCP) {
		platform.ProcSetConsoleCP.Call(cpUTF8)
	}
	if caps.Has(platform.FeatureSetConsoleOutputCP) {
		platform.ProcSetConsoleOutputCP.Call(cpUTF8)
	}
	if caps.Has(platform.FeatureSetConsoleTitle) {
		if title, err := windows.UTF16PtrFromString("GPU Test Tool"); err == nil {
			platform.ProcSetConsoleTitle.Call(uintptr(unsafe.Pointer(title)))
		}
	}

	enableVirtualTerminal(windows.STD_OUTPUT_HANDLE)
	enableVirtualTerminal(windows.STD_ERROR_HANDLE)

	if caps.Has(platform.FeatureSetProcessDpiAwarenessContext) {
		ret, _, errno := platform.ProcSetProcessDpiAwarenessContext.Call(dpiAwarenessPerMonitorV2)
		// Access denied means a manifest already set the awareness level.
		if ret == 0 && errno != windows.ERROR_ACCESS_DENIED {
			log.Warn().Err(errno).Msg("SetProcessDpiAwarenessContext failed")
		}
	}
}

func enableVirtualTerminal(stdHandle uint32) {
	handle, err := windows.GetStdHandle(stdHandle)
	if err != nil || handle == windows.InvalidHandle || handle == 0 {
		return
	}
	var mode uint32
	if err := windows.GetConsoleMode(handle, &mode); err != nil {
		return
	}
	windows.SetConsoleMode(handle, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING)
}
