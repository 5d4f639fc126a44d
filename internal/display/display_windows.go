//go:build windows

package display

import (
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"

	"github.com/go-tangra/go-tangra-gpuinfo/internal/platform"
)

const (
	qdcOnlyActivePaths = 0x2

	deviceInfoGetSourceName  = 1
	deviceInfoGetTargetName  = 2
	deviceInfoGetSDRWhiteLvl = 11
	enumCurrentSettings      = 0xFFFFFFFF
	mdtEffectiveDPI          = 0
	gdiVertRefresh           = 116 // GetDeviceCaps VREFRESH
)

// Wire layouts follow wingdi.h / winuser.h.

type luid struct {
	LowPart  uint32
	HighPart int32
}

type displayConfigRational struct {
	Numerator   uint32
	Denominator uint32
}

type displayConfigPathSourceInfo struct {
	AdapterID   luid
	ID          uint32
	ModeInfoIdx uint32
	StatusFlags uint32
}

type displayConfigPathTargetInfo struct {
	AdapterID        luid
	ID               uint32
	ModeInfoIdx      uint32
	OutputTechnology uint32
	Rotation         uint32
	Scaling          uint32
	RefreshRate      displayConfigRational
	ScanLineOrdering uint32
	TargetAvailable  int32
	StatusFlags      uint32
}

type displayConfigPathInfo struct {
	SourceInfo displayConfigPathSourceInfo
	TargetInfo displayConfigPathTargetInfo
	Flags      uint32
}

type displayConfigModeInfo struct {
	InfoType  uint32
	ID        uint32
	AdapterID luid
	// Union of target/source/desktop-image mode data; opaque here.
	Mode [48]byte
}

type displayConfigDeviceInfoHeader struct {
	Type      uint32
	Size      uint32
	AdapterID luid
	ID        uint32
}

type displayConfigSourceDeviceName struct {
	Header            displayConfigDeviceInfoHeader
	ViewGDIDeviceName [32]uint16
}

type displayConfigTargetDeviceName struct {
	Header                    displayConfigDeviceInfoHeader
	Flags                     uint32
	OutputTechnology          uint32
	EDIDManufactureID         uint16
	EDIDProductCodeID         uint16
	ConnectorInstance         uint32
	MonitorFriendlyDeviceName [64]uint16
	MonitorDevicePath         [128]uint16
}

type displayConfigSDRWhiteLevel struct {
	Header        displayConfigDeviceInfoHeader
	SDRWhiteLevel uint32
}

// devModeW carries only the display variant of the DEVMODEW union.
type devModeW struct {
	DeviceName         [32]uint16
	SpecVersion        uint16
	DriverVersion      uint16
	Size               uint16
	DriverExtra        uint16
	Fields             uint32
	PositionX          int32
	PositionY          int32
	DisplayOrientation uint32
	DisplayFixedOutput uint32
	Color              int16
	Duplex             int16
	YResolution        int16
	TTOption           int16
	Collate            int16
	FormName           [32]uint16
	LogPixels          uint16
	BitsPerPel         uint32
	PelsWidth          uint32
	PelsHeight         uint32
	DisplayFlags       uint32
	DisplayFrequency   uint32
	ICMMethod          uint32
	ICMIntent          uint32
	MediaType          uint32
	DitherType         uint32
	Reserved1          uint32
	Reserved2          uint32
	PanningWidth       uint32
	PanningHeight      uint32
}

func targetHeader(infoType uint32, size uint32, p Path) displayConfigDeviceInfoHeader {
	return displayConfigDeviceInfoHeader{
		Type:      infoType,
		Size:      size,
		AdapterID: luid{LowPart: p.AdapterLow, HighPart: p.AdapterHigh},
		ID:        p.TargetID,
	}
}

// ResolvePaths returns the active display-configuration paths whose source
// GDI device name exactly equals deviceName. The buffer-size query and the
// fetch race against config changes, so the fetch retries while the OS
// reports the buffer grew in between. An empty result is "attribute
// unavailable", never an error.
func ResolvePaths(caps *platform.Capabilities, deviceName string, log zerolog.Logger) []Path {
	if !caps.HasAll(
		platform.FeatureDisplayConfigBufferSizes,
		platform.FeatureQueryDisplayConfig,
		platform.FeatureDisplayConfigGetDeviceInfo,
	) {
		return nil
	}
	return resolvePaths(deviceName, platformPathQueries(log))
}

func platformPathQueries(log zerolog.Logger) pathQueries {
	return pathQueries{
		BufferSizes: func() (uint32, uint32, bool) {
			var pathCount, modeCount uint32
			ret, _, _ := platform.ProcGetDisplayConfigBufferSizes.Call(
				qdcOnlyActivePaths,
				uintptr(unsafe.Pointer(&pathCount)),
				uintptr(unsafe.Pointer(&modeCount)))
			if ret != uintptr(windows.ERROR_SUCCESS) {
				log.Warn().Uint32("status", uint32(ret)).Msg("GetDisplayConfigBufferSizes failed")
				return 0, 0, false
			}
			return pathCount, modeCount, true
		},
		Fetch: func(pathCount, modeCount uint32) ([]pathRecord, pathQueryStatus) {
			pathInfos := make([]displayConfigPathInfo, pathCount)
			modeInfos := make([]displayConfigModeInfo, modeCount+1)
			ret, _, _ := platform.ProcQueryDisplayConfig.Call(
				qdcOnlyActivePaths,
				uintptr(unsafe.Pointer(&pathCount)),
				uintptr(unsafe.Pointer(&pathInfos[0])),
				uintptr(unsafe.Pointer(&modeCount)),
				uintptr(unsafe.Pointer(&modeInfos[0])),
				0)
			if ret == uintptr(windows.ERROR_INSUFFICIENT_BUFFER) {
				return nil, pathQueryBufferTooSmall
			}
			if ret != uintptr(windows.ERROR_SUCCESS) {
				log.Warn().Uint32("status", uint32(ret)).Msg("QueryDisplayConfig failed")
				return nil, pathQueryFailed
			}
			records := make([]pathRecord, 0, pathCount)
			for i := range pathInfos[:pathCount] {
				info := &pathInfos[i]
				records = append(records, pathRecord{
					SourceAdapterLow:  info.SourceInfo.AdapterID.LowPart,
					SourceAdapterHigh: info.SourceInfo.AdapterID.HighPart,
					SourceID:          info.SourceInfo.ID,
					Path: Path{
						AdapterLow:  info.TargetInfo.AdapterID.LowPart,
						AdapterHigh: info.TargetInfo.AdapterID.HighPart,
						TargetID:    info.TargetInfo.ID,
						Refresh: Rational{
							Numerator:   info.TargetInfo.RefreshRate.Numerator,
							Denominator: info.TargetInfo.RefreshRate.Denominator,
						},
					},
				})
			}
			return records, pathQueryOK
		},
		SourceName: func(rec pathRecord) (string, bool) {
			source := displayConfigSourceDeviceName{}
			source.Header = displayConfigDeviceInfoHeader{
				Type:      deviceInfoGetSourceName,
				Size:      uint32(unsafe.Sizeof(source)),
				AdapterID: luid{LowPart: rec.SourceAdapterLow, HighPart: rec.SourceAdapterHigh},
				ID:        rec.SourceID,
			}
			ret, _, _ := platform.ProcDisplayConfigGetDeviceInfo.Call(uintptr(unsafe.Pointer(&source.Header)))
			if ret != uintptr(windows.ERROR_SUCCESS) {
				log.Warn().Uint32("status", uint32(ret)).Msg("DisplayConfigGetDeviceInfo(source name) failed")
				return "", false
			}
			return windows.UTF16ToString(source.ViewGDIDeviceName[:]), true
		},
	}
}

// PlatformDeps wires the resolvers to the live platform queries, each one
// gated on its capability.
func PlatformDeps(caps *platform.Capabilities, log zerolog.Logger) Deps {
	return Deps{
		SDRWhiteLevel: func(p Path) (uint32, bool) {
			if !caps.Has(platform.FeatureDisplayConfigGetDeviceInfo) {
				return 0, false
			}
			level := displayConfigSDRWhiteLevel{}
			level.Header = targetHeader(deviceInfoGetSDRWhiteLvl, uint32(unsafe.Sizeof(level)), p)
			ret, _, _ := platform.ProcDisplayConfigGetDeviceInfo.Call(uintptr(unsafe.Pointer(&level.Header)))
			if ret != uintptr(windows.ERROR_SUCCESS) {
				log.Warn().Uint32("status", uint32(ret)).Msg("DisplayConfigGetDeviceInfo(SDR white level) failed")
				return 0, false
			}
			return level.SDRWhiteLevel, true
		},
		FriendlyName: func(p Path) (string, bool) {
			if !caps.Has(platform.FeatureDisplayConfigGetDeviceInfo) {
				return "", false
			}
			target := displayConfigTargetDeviceName{}
			target.Header = targetHeader(deviceInfoGetTargetName, uint32(unsafe.Sizeof(target)), p)
			ret, _, _ := platform.ProcDisplayConfigGetDeviceInfo.Call(uintptr(unsafe.Pointer(&target.Header)))
			if ret != uintptr(windows.ERROR_SUCCESS) {
				log.Warn().Uint32("status", uint32(ret)).Msg("DisplayConfigGetDeviceInfo(target name) failed")
				return "", false
			}
			return windows.UTF16ToString(target.MonitorFriendlyDeviceName[:]), true
		},
		DisplaySettingsFrequency: func(deviceName string) (uint32, bool) {
			if !caps.Has(platform.FeatureEnumDisplaySettings) {
				return 0, false
			}
			name, err := windows.UTF16PtrFromString(deviceName)
			if err != nil {
				return 0, false
			}
			mode := devModeW{}
			mode.Size = uint16(unsafe.Sizeof(mode))
			ret, _, _ := platform.ProcEnumDisplaySettings.Call(
				uintptr(unsafe.Pointer(name)),
				enumCurrentSettings,
				uintptr(unsafe.Pointer(&mode)))
			if ret == 0 {
				log.Warn().Str("device", deviceName).Msg("EnumDisplaySettingsW failed")
				return 0, false
			}
			return mode.DisplayFrequency, true
		},
		DeviceCapsFrequency: func(deviceName string) (int32, bool) {
			if !caps.HasAll(platform.FeatureCreateDC, platform.FeatureDeleteDC, platform.FeatureGetDeviceCaps) {
				return 0, false
			}
			name, err := windows.UTF16PtrFromString(deviceName)
			if err != nil {
				return 0, false
			}
			hdc, _, _ := platform.ProcCreateDC.Call(
				uintptr(unsafe.Pointer(name)), uintptr(unsafe.Pointer(name)), 0, 0)
			if hdc == 0 {
				log.Warn().Str("device", deviceName).Msg("CreateDCW failed")
				return 0, false
			}
			freq, _, _ := platform.ProcGetDeviceCaps.Call(hdc, gdiVertRefresh)
			if ret, _, _ := platform.ProcDeleteDC.Call(hdc); ret == 0 {
				log.Warn().Str("device", deviceName).Msg("DeleteDC failed")
			}
			return int32(freq), true
		},
		MonitorDPI: func(monitor uintptr) (uint32, bool) {
			if !caps.Has(platform.FeatureGetDpiForMonitor) {
				return 0, false
			}
			var dpiX, dpiY uint32
			hr, _, _ := platform.ProcGetDpiForMonitor.Call(
				monitor, mdtEffectiveDPI,
				uintptr(unsafe.Pointer(&dpiX)), uintptr(unsafe.Pointer(&dpiY)))
			if int32(uint32(hr)) < 0 {
				log.Warn().Uint32("hresult", uint32(hr)).Msg("GetDpiForMonitor failed")
				return 0, false
			}
			return dpiX, true
		},
	}
}
