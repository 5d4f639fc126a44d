//go:build windows

package driver

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"

	"github.com/go-tangra/go-tangra-gpuinfo/internal/platform"
)

const digcfPresent = 0x2

// GUID_DEVCLASS_DISPLAY: the setup class of display adapters.
var devclassDisplay = windows.GUID{
	Data1: 0x4D36E968, Data2: 0xE325, Data3: 0x11CE,
	Data4: [8]byte{0xBF, 0xC1, 0x08, 0x00, 0x2B, 0xE1, 0x03, 0x18},
}

type devPropKey struct {
	FmtID windows.GUID
	PID   uint32
}

// DEVPKEY_Device_Driver* properties of a device instance.
var (
	devpkeyDriver = devPropKey{
		FmtID: windows.GUID{Data1: 0xA45C254E, Data2: 0xDF1C, Data3: 0x4EFD, Data4: [8]byte{0x80, 0x20, 0x67, 0xD1, 0x46, 0xA8, 0x50, 0xE0}},
		PID:   11,
	}
	devpkeyDriverDate = devPropKey{
		FmtID: windows.GUID{Data1: 0xA8B865DD, Data2: 0x2E3D, Data3: 0x4094, Data4: [8]byte{0xAD, 0x97, 0xE5, 0x93, 0xA7, 0x0C, 0x75, 0xD6}},
		PID:   2,
	}
	devpkeyDriverVersion = devPropKey{
		FmtID: devpkeyDriverDate.FmtID,
		PID:   3,
	}
	devpkeyDriverDesc = devPropKey{
		FmtID: devpkeyDriverDate.FmtID,
		PID:   4,
	}
	devpkeyDriverProvider = devPropKey{
		FmtID: devpkeyDriverDate.FmtID,
		PID:   9,
	}
)

type spDevinfoData struct {
	CbSize    uint32
	ClassGUID windows.GUID
	DevInst   uint32
	Reserved  uintptr
}

// Resolve finds the display-class device whose driver description contains
// adapterName (OS descriptions may carry extra decoration, so substring,
// first match wins) and returns its normalized version and date. Any missing
// required property fails the whole resolution; the device list and DXGI's
// adapter list can legitimately disagree, so a miss is expected and
// non-fatal.
func Resolve(caps *platform.Capabilities, adapterName string, log zerolog.Logger) (Info, bool) {
	if adapterName == "" {
		return Info{}, false
	}
	if !caps.HasAll(
		platform.FeatureSetupDiGetClassDevs,
		platform.FeatureSetupDiDestroyDeviceInfoList,
		platform.FeatureSetupDiEnumDeviceInfo,
		platform.FeatureSetupDiGetDeviceProperty,
	) {
		return Info{}, false
	}

	devInfo, _, _ := platform.ProcSetupDiGetClassDevs.Call(
		uintptr(unsafe.Pointer(&devclassDisplay)), 0, 0, digcfPresent)
	if devInfo == 0 || devInfo == uintptr(windows.InvalidHandle) {
		log.Warn().Msg("SetupDiGetClassDevsW failed")
		return Info{}, false
	}
	defer platform.ProcSetupDiDestroyDeviceInfoList.Call(devInfo)

	return resolveFromRecords(adapterName, enumerateDeviceRecords(devInfo), openDriverKey, log)
}

// enumerateDeviceRecords lists the present display-class devices. Devices
// without a readable description can never match and are skipped. Property
// lookups stay lazy and are only valid while devInfo is open.
func enumerateDeviceRecords(devInfo uintptr) []deviceRecord {
	var records []deviceRecord
	data := spDevinfoData{}
	data.CbSize = uint32(unsafe.Sizeof(data))
	for index := uint32(0); ; index++ {
		ret, _, _ := platform.ProcSetupDiEnumDeviceInfo.Call(
			devInfo, uintptr(index), uintptr(unsafe.Pointer(&data)))
		if ret == 0 {
			break
		}
		desc, ok := deviceStringProperty(devInfo, &data, &devpkeyDriverDesc)
		if !ok {
			continue
		}
		rec := data
		records = append(records, deviceRecord{
			Description: desc,
			RegistryKeyName: func() string {
				name, _ := deviceStringProperty(devInfo, &rec, &devpkeyDriver)
				return name
			},
			Provider: func() (string, bool) {
				return deviceStringProperty(devInfo, &rec, &devpkeyDriverProvider)
			},
			Version: func() (string, bool) {
				return deviceStringProperty(devInfo, &rec, &devpkeyDriverVersion)
			},
			Date: func() (string, bool) {
				return deviceDateProperty(devInfo, &rec, &devpkeyDriverDate)
			},
		})
	}
	return records
}

func deviceStringProperty(devInfo uintptr, data *spDevinfoData, key *devPropKey) (string, bool) {
	var buf [512]uint16
	var propType uint32
	ret, _, _ := platform.ProcSetupDiGetDeviceProperty.Call(
		devInfo,
		uintptr(unsafe.Pointer(data)),
		uintptr(unsafe.Pointer(key)),
		uintptr(unsafe.Pointer(&propType)),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)*2),
		0, 0)
	if ret == 0 {
		return "", false
	}
	return windows.UTF16ToString(buf[:]), true
}

// deviceDateProperty reads a FILETIME property and renders it as unpadded
// Y-M-D, matching the date format on the driver report line.
func deviceDateProperty(devInfo uintptr, data *spDevinfoData, key *devPropKey) (string, bool) {
	var ft windows.Filetime
	var propType uint32
	ret, _, _ := platform.ProcSetupDiGetDeviceProperty.Call(
		devInfo,
		uintptr(unsafe.Pointer(data)),
		uintptr(unsafe.Pointer(key)),
		uintptr(unsafe.Pointer(&propType)),
		uintptr(unsafe.Pointer(&ft)),
		unsafe.Sizeof(ft),
		0, 0)
	if ret == 0 {
		return "", false
	}
	t := time.Unix(0, ft.Nanoseconds()).UTC()
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day()), true
}

type driverRegistryKey struct {
	key registry.Key
}

func (k driverRegistryKey) HasValue(name string) bool {
	_, _, err := k.key.GetValue(name, nil)
	return err == nil
}

func (k driverRegistryKey) GetString(name string) (string, error) {
	value, _, err := k.key.GetStringValue(name)
	return value, err
}

func openDriverKey(registryKeyName string) (RegistryKey, func(), error) {
	path := `SYSTEM\CurrentControlSet\Control\Class\` + registryKeyName
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
	if err != nil {
		return nil, nil, err
	}
	return driverRegistryKey{key: key}, func() { key.Close() }, nil
}
