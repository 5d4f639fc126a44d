//go:build windows

package dxgi

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"

	"github.com/go-tangra/go-tangra-gpuinfo/internal/platform"
)

const (
	dxgiErrorNotFound = 0x887A0002

	adapterFlagSoftware        = 0x2
	memorySegmentGroupNonLocal = 1
	featurePresentAllowTearing = 0
	formatR8G8B8A8Unorm        = 28

	// Seed for the maximum-refresh-rate scan over the mode list.
	seedRefreshRate = 60.0
)

var (
	iidFactory1 = windows.GUID{Data1: 0x770AAE78, Data2: 0xF26F, Data3: 0x4DBA, Data4: [8]byte{0xA8, 0x29, 0x25, 0x3C, 0x83, 0xD1, 0xB3, 0x87}}
	iidFactory5 = windows.GUID{Data1: 0x7632E1F5, Data2: 0xEE65, Data3: 0x4DCA, Data4: [8]byte{0x87, 0xFD, 0x84, 0xCD, 0x75, 0xF8, 0x83, 0x8D}}
	iidAdapter3 = windows.GUID{Data1: 0x645967A4, Data2: 0x1392, Data3: 0x4310, Data4: [8]byte{0xA7, 0x98, 0x80, 0x53, 0xCE, 0x3E, 0x93, 0xFD}}
	iidOutput1  = windows.GUID{Data1: 0x00CDDEA8, Data2: 0x939B, Data3: 0x4B83, Data4: [8]byte{0xA3, 0x40, 0xA6, 0x85, 0x22, 0x66, 0x66, 0xCC}}
	iidOutput6  = windows.GUID{Data1: 0x068346E8, Data2: 0xAAEC, Data3: 0x4B84, Data4: [8]byte{0xAD, 0xD7, 0x13, 0x7F, 0x51, 0x3F, 0x77, 0xA1}}
)

func succeeded(hr uintptr) bool { return int32(uint32(hr)) >= 0 }

func hresultError(call string, hr uintptr) error {
	return fmt.Errorf("%s failed: HRESULT 0x%08X", call, uint32(hr))
}

// Vtable layouts follow the dxgi headers; slot order is load-bearing.

type iUnknownVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
}

type iObjectVtbl struct {
	iUnknownVtbl
	SetPrivateData          uintptr
	SetPrivateDataInterface uintptr
	GetPrivateData          uintptr
	GetParent               uintptr
}

type iFactoryVtbl struct {
	iObjectVtbl
	EnumAdapters          uintptr
	MakeWindowAssociation uintptr
	GetWindowAssociation  uintptr
	CreateSwapChain       uintptr
	CreateSoftwareAdapter uintptr
}

type iFactory1Vtbl struct {
	iFactoryVtbl
	EnumAdapters1 uintptr
	IsCurrent     uintptr
}

type iFactory2Vtbl struct {
	iFactory1Vtbl
	IsWindowedStereoEnabled       uintptr
	CreateSwapChainForHwnd        uintptr
	CreateSwapChainForCoreWindow  uintptr
	GetSharedResourceAdapterLuid  uintptr
	RegisterStereoStatusWindow    uintptr
	RegisterStereoStatusEvent     uintptr
	UnregisterStereoStatus        uintptr
	RegisterOcclusionStatusWindow uintptr
	RegisterOcclusionStatusEvent  uintptr
	UnregisterOcclusionStatus     uintptr
	CreateSwapChainForComposition uintptr
}

type iFactory3Vtbl struct {
	iFactory2Vtbl
	GetCreationFlags uintptr
}

type iFactory4Vtbl struct {
	iFactory3Vtbl
	EnumAdapterByLuid uintptr
	EnumWarpAdapter   uintptr
}

type iFactory5Vtbl struct {
	iFactory4Vtbl
	CheckFeatureSupport uintptr
}

type iAdapterVtbl struct {
	iObjectVtbl
	EnumOutputs           uintptr
	GetDesc               uintptr
	CheckInterfaceSupport uintptr
}

type iAdapter1Vtbl struct {
	iAdapterVtbl
	GetDesc1 uintptr
}

type iAdapter2Vtbl struct {
	iAdapter1Vtbl
	GetDesc2 uintptr
}

type iAdapter3Vtbl struct {
	iAdapter2Vtbl
	RegisterHardwareContentProtectionTeardownStatusEvent uintptr
	UnregisterHardwareContentProtectionTeardownStatus    uintptr
	QueryVideoMemoryInfo                                 uintptr
	SetVideoMemoryReservation                            uintptr
	RegisterVideoMemoryBudgetChangeNotificationEvent     uintptr
	UnregisterVideoMemoryBudgetChangeNotification        uintptr
}

type iOutputVtbl struct {
	iObjectVtbl
	GetDesc                     uintptr
	GetDisplayModeList          uintptr
	FindClosestMatchingMode     uintptr
	WaitForVBlank               uintptr
	TakeOwnership               uintptr
	ReleaseOwnership            uintptr
	GetGammaControlCapabilities uintptr
	SetGammaControl             uintptr
	GetGammaControl             uintptr
	SetDisplaySurface           uintptr
	GetDisplaySurfaceData       uintptr
	GetFrameStatistics          uintptr
}

type iOutput1Vtbl struct {
	iOutputVtbl
	GetDisplayModeList1      uintptr
	FindClosestMatchingMode1 uintptr
	GetDisplaySurfaceData1   uintptr
	DuplicateOutput          uintptr
}

type iOutput2Vtbl struct {
	iOutput1Vtbl
	SupportsOverlays uintptr
}

type iOutput3Vtbl struct {
	iOutput2Vtbl
	CheckOverlaySupport uintptr
}

type iOutput4Vtbl struct {
	iOutput3Vtbl
	CheckOverlayColorSpaceSupport uintptr
}

type iOutput5Vtbl struct {
	iOutput4Vtbl
	DuplicateOutput1 uintptr
}

type iOutput6Vtbl struct {
	iOutput5Vtbl
	GetDesc1                        uintptr
	CheckHardwareCompositionSupport uintptr
}

type iFactory1 struct{ vtbl *iFactory1Vtbl }
type iFactory5 struct{ vtbl *iFactory5Vtbl }
type iAdapter1 struct{ vtbl *iAdapter1Vtbl }
type iAdapter3 struct{ vtbl *iAdapter3Vtbl }
type iOutput struct{ vtbl *iOutputVtbl }
type iOutput1 struct{ vtbl *iOutput1Vtbl }
type iOutput6 struct{ vtbl *iOutput6Vtbl }

type luid struct {
	LowPart  uint32
	HighPart int32
}

type rect struct {
	Left, Top, Right, Bottom int32
}

type adapterDesc1 struct {
	Description           [128]uint16
	VendorID              uint32
	DeviceID              uint32
	SubSysID              uint32
	Revision              uint32
	DedicatedVideoMemory  uintptr
	DedicatedSystemMemory uintptr
	SharedSystemMemory    uintptr
	AdapterLUID           luid
	Flags                 uint32
}

type outputDesc struct {
	DeviceName         [32]uint16
	DesktopCoordinates rect
	AttachedToDesktop  int32
	Rotation           uint32
	Monitor            uintptr
}

type outputDesc1 struct {
	DeviceName            [32]uint16
	DesktopCoordinates    rect
	AttachedToDesktop     int32
	Rotation              uint32
	Monitor               uintptr
	BitsPerColor          uint32
	ColorSpace            uint32
	RedPrimary            [2]float32
	GreenPrimary          [2]float32
	BluePrimary           [2]float32
	WhitePoint            [2]float32
	MinLuminance          float32
	MaxLuminance          float32
	MaxFullFrameLuminance float32
}

type rational struct {
	Numerator   uint32
	Denominator uint32
}

type modeDesc1 struct {
	Width            uint32
	Height           uint32
	RefreshRate      rational
	Format           uint32
	ScanlineOrdering uint32
	Scaling          uint32
	Stereo           int32
}

type videoMemoryInfo struct {
	Budget                  uint64
	CurrentUsage            uint64
	AvailableForReservation uint64
	CurrentReservation      uint64
}

func (f *iFactory1) release() {
	syscall.SyscallN(f.vtbl.Release, uintptr(unsafe.Pointer(f)))
}

func (f *iFactory1) queryInterface(iid *windows.GUID, out *unsafe.Pointer) uintptr {
	hr, _, _ := syscall.SyscallN(f.vtbl.QueryInterface,
		uintptr(unsafe.Pointer(f)), uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(out)))
	return hr
}

func (f *iFactory1) enumAdapters1(index uint32, out **iAdapter1) uintptr {
	hr, _, _ := syscall.SyscallN(f.vtbl.EnumAdapters1,
		uintptr(unsafe.Pointer(f)), uintptr(index), uintptr(unsafe.Pointer(out)))
	return hr
}

func (f *iFactory5) release() {
	syscall.SyscallN(f.vtbl.Release, uintptr(unsafe.Pointer(f)))
}

func (f *iFactory5) checkFeatureSupport(feature uint32, data unsafe.Pointer, size uint32) uintptr {
	hr, _, _ := syscall.SyscallN(f.vtbl.CheckFeatureSupport,
		uintptr(unsafe.Pointer(f)), uintptr(feature), uintptr(data), uintptr(size))
	return hr
}

func (a *iAdapter1) release() {
	syscall.SyscallN(a.vtbl.Release, uintptr(unsafe.Pointer(a)))
}

func (a *iAdapter1) queryInterface(iid *windows.GUID, out *unsafe.Pointer) uintptr {
	hr, _, _ := syscall.SyscallN(a.vtbl.QueryInterface,
		uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(out)))
	return hr
}

func (a *iAdapter1) getDesc1(desc *adapterDesc1) uintptr {
	hr, _, _ := syscall.SyscallN(a.vtbl.GetDesc1,
		uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(desc)))
	return hr
}

func (a *iAdapter1) enumOutputs(index uint32, out **iOutput) uintptr {
	hr, _, _ := syscall.SyscallN(a.vtbl.EnumOutputs,
		uintptr(unsafe.Pointer(a)), uintptr(index), uintptr(unsafe.Pointer(out)))
	return hr
}

func (a *iAdapter3) release() {
	syscall.SyscallN(a.vtbl.Release, uintptr(unsafe.Pointer(a)))
}

func (a *iAdapter3) queryVideoMemoryInfo(node uint32, segmentGroup uint32, info *videoMemoryInfo) uintptr {
	hr, _, _ := syscall.SyscallN(a.vtbl.QueryVideoMemoryInfo,
		uintptr(unsafe.Pointer(a)), uintptr(node), uintptr(segmentGroup), uintptr(unsafe.Pointer(info)))
	return hr
}

func (o *iOutput) release() {
	syscall.SyscallN(o.vtbl.Release, uintptr(unsafe.Pointer(o)))
}

func (o *iOutput) queryInterface(iid *windows.GUID, out *unsafe.Pointer) uintptr {
	hr, _, _ := syscall.SyscallN(o.vtbl.QueryInterface,
		uintptr(unsafe.Pointer(o)), uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(out)))
	return hr
}

func (o *iOutput) getDesc(desc *outputDesc) uintptr {
	hr, _, _ := syscall.SyscallN(o.vtbl.GetDesc,
		uintptr(unsafe.Pointer(o)), uintptr(unsafe.Pointer(desc)))
	return hr
}

func (o *iOutput1) release() {
	syscall.SyscallN(o.vtbl.Release, uintptr(unsafe.Pointer(o)))
}

func (o *iOutput1) getDisplayModeList1(format uint32, flags uint32, count *uint32, modes *modeDesc1) uintptr {
	hr, _, _ := syscall.SyscallN(o.vtbl.GetDisplayModeList1,
		uintptr(unsafe.Pointer(o)), uintptr(format), uintptr(flags),
		uintptr(unsafe.Pointer(count)), uintptr(unsafe.Pointer(modes)))
	return hr
}

func (o *iOutput6) release() {
	syscall.SyscallN(o.vtbl.Release, uintptr(unsafe.Pointer(o)))
}

func (o *iOutput6) getDesc1(desc *outputDesc1) uintptr {
	hr, _, _ := syscall.SyscallN(o.vtbl.GetDesc1,
		uintptr(unsafe.Pointer(o)), uintptr(unsafe.Pointer(desc)))
	return hr
}

func newFactory1(caps *platform.Capabilities) (*iFactory1, error) {
	if !caps.Has(platform.FeatureCreateDXGIFactory1) {
		return nil, errors.New("CreateDXGIFactory1 is not available on this system")
	}
	var raw unsafe.Pointer
	hr, _, _ := platform.ProcCreateDXGIFactory1.Call(
		uintptr(unsafe.Pointer(&iidFactory1)), uintptr(unsafe.Pointer(&raw)))
	if !succeeded(hr) {
		return nil, hresultError("CreateDXGIFactory1", hr)
	}
	return (*iFactory1)(raw), nil
}

// tearingSupported asks the newer factory interface whether present-time
// tearing is allowed, the signal for variable-refresh-rate support. False
// when the interface or the query is unavailable.
func (f *iFactory1) tearingSupported() bool {
	var raw unsafe.Pointer
	if hr := f.queryInterface(&iidFactory5, &raw); !succeeded(hr) {
		return false
	}
	factory5 := (*iFactory5)(raw)
	defer factory5.release()

	var allowTearing int32
	hr := factory5.checkFeatureSupport(featurePresentAllowTearing,
		unsafe.Pointer(&allowTearing), uint32(unsafe.Sizeof(allowTearing)))
	return succeeded(hr) && allowTearing != 0
}

// Enumerate walks every adapter and output the factory reports and returns
// their snapshots, plus whether variable refresh rate is supported. A
// descriptor failure skips that adapter or output and keeps enumerating;
// only factory construction fails the call.
func Enumerate(caps *platform.Capabilities, log zerolog.Logger) ([]Adapter, bool, error) {
	factory, err := newFactory1(caps)
	if err != nil {
		return nil, false, err
	}
	defer factory.release()

	vrr := factory.tearingSupported()

	var adapters []Adapter
	for index := uint32(0); ; index++ {
		var adapter *iAdapter1
		hr := factory.enumAdapters1(index, &adapter)
		if uint32(hr) == dxgiErrorNotFound {
			break
		}
		if !succeeded(hr) {
			log.Warn().Uint32("hresult", uint32(hr)).Msg("adapter enumeration stopped early")
			break
		}
		if record, ok := collectAdapter(adapter, log); ok {
			adapters = append(adapters, record)
		}
		adapter.release()
	}
	return adapters, vrr, nil
}

func collectAdapter(adapter *iAdapter1, log zerolog.Logger) (Adapter, bool) {
	var desc adapterDesc1
	if hr := adapter.getDesc1(&desc); !succeeded(hr) {
		log.Warn().Uint32("hresult", uint32(hr)).Msg("IDXGIAdapter1::GetDesc1 failed, skipping adapter")
		return Adapter{}, false
	}
	record := Adapter{
		Name:                 windows.UTF16ToString(desc.Description[:]),
		VendorID:             uint64(desc.VendorID),
		DeviceID:             desc.DeviceID,
		DedicatedVideoBytes:  uint64(desc.DedicatedVideoMemory),
		DedicatedSystemBytes: uint64(desc.DedicatedSystemMemory),
		SharedSystemBytes:    uint64(desc.SharedSystemMemory),
		Software:             desc.Flags&adapterFlagSoftware != 0,
		Integrated:           integratedHeuristic(adapter),
	}

	for index := uint32(0); ; index++ {
		var output *iOutput
		hr := adapter.enumOutputs(index, &output)
		if uint32(hr) == dxgiErrorNotFound {
			break
		}
		if !succeeded(hr) {
			log.Warn().Uint32("hresult", uint32(hr)).Msg("output enumeration stopped early")
			break
		}
		if outputRecord, ok := collectOutput(output, log); ok {
			record.Outputs = append(record.Outputs, outputRecord)
		}
		output.release()
	}
	return record, true
}

// integratedHeuristic reports whether the adapter looks integrated: a zero
// non-local video memory budget means all memory is shared with the CPU.
// Without profiling it is hard to do better. Nil when the interface is
// unavailable.
func integratedHeuristic(adapter *iAdapter1) *bool {
	var raw unsafe.Pointer
	if hr := adapter.queryInterface(&iidAdapter3, &raw); !succeeded(hr) {
		return nil
	}
	adapter3 := (*iAdapter3)(raw)
	defer adapter3.release()

	var info videoMemoryInfo
	if hr := adapter3.queryVideoMemoryInfo(0, memorySegmentGroupNonLocal, &info); !succeeded(hr) {
		return nil
	}
	integrated := info.Budget == 0
	return &integrated
}

func collectOutput(output *iOutput, log zerolog.Logger) (Output, bool) {
	var desc outputDesc
	if hr := output.getDesc(&desc); !succeeded(hr) {
		log.Warn().Uint32("hresult", uint32(hr)).Msg("IDXGIOutput::GetDesc failed, skipping output")
		return Output{}, false
	}
	record := Output{
		DeviceName:        windows.UTF16ToString(desc.DeviceName[:]),
		X:                 desc.DesktopCoordinates.Left,
		Y:                 desc.DesktopCoordinates.Top,
		Width:             abs32(desc.DesktopCoordinates.Right - desc.DesktopCoordinates.Left),
		Height:            abs32(desc.DesktopCoordinates.Bottom - desc.DesktopCoordinates.Top),
		AttachedToDesktop: desc.AttachedToDesktop != 0,
		Rotation:          Rotation(desc.Rotation),
		Monitor:           desc.Monitor,
		MaxRefreshRate:    maxRefreshRate(output),
		Color:             colorInfo(output),
	}
	return record, true
}

// maxRefreshRate scans the output's mode list for the fastest refresh rate,
// seeded at 60 Hz. Nil when the mode-list interface or query is
// unavailable; both are expected on older systems.
func maxRefreshRate(output *iOutput) *float64 {
	var raw unsafe.Pointer
	if hr := output.queryInterface(&iidOutput1, &raw); !succeeded(hr) {
		return nil
	}
	output1 := (*iOutput1)(raw)
	defer output1.release()

	var count uint32
	if hr := output1.getDisplayModeList1(formatR8G8B8A8Unorm, 0, &count, nil); !succeeded(hr) || count == 0 {
		return nil
	}
	modes := make([]modeDesc1, count)
	if hr := output1.getDisplayModeList1(formatR8G8B8A8Unorm, 0, &count, &modes[0]); !succeeded(hr) {
		return nil
	}
	max := float64(seedRefreshRate)
	for _, mode := range modes[:count] {
		if mode.RefreshRate.Denominator == 0 {
			continue
		}
		if rate := float64(mode.RefreshRate.Numerator) / float64(mode.RefreshRate.Denominator); rate > max {
			max = rate
		}
	}
	return &max
}

// colorInfo fetches the extended descriptor. Nil when the extended output
// interface is unavailable, expected on older drivers.
func colorInfo(output *iOutput) *ColorInfo {
	var raw unsafe.Pointer
	if hr := output.queryInterface(&iidOutput6, &raw); !succeeded(hr) {
		return nil
	}
	output6 := (*iOutput6)(raw)
	defer output6.release()

	var desc outputDesc1
	if hr := output6.getDesc1(&desc); !succeeded(hr) {
		return nil
	}
	return &ColorInfo{
		BitsPerColor:          desc.BitsPerColor,
		ColorSpace:            desc.ColorSpace,
		RedPrimary:            desc.RedPrimary,
		GreenPrimary:          desc.GreenPrimary,
		BluePrimary:           desc.BluePrimary,
		WhitePoint:            desc.WhitePoint,
		MinLuminance:          desc.MinLuminance,
		MaxLuminance:          desc.MaxLuminance,
		MaxFullFrameLuminance: desc.MaxFullFrameLuminance,
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
