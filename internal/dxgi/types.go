// Package dxgi enumerates graphics adapters and their display outputs
// through the DXGI factory chain.
package dxgi

// Adapter is a point-in-time snapshot of one enumerated graphics adapter
// and the outputs attached to it.
type Adapter struct {
	Name                 string
	VendorID             uint64
	DeviceID             uint32
	DedicatedVideoBytes  uint64
	DedicatedSystemBytes uint64
	SharedSystemBytes    uint64
	Software             bool
	// Integrated is nil when the video-memory-info interface is
	// unavailable on this adapter.
	Integrated *bool
	Outputs    []Output
}

// Output is one display output attached to an adapter, scoped to a single
// enumeration pass.
type Output struct {
	DeviceName        string
	X, Y              int32
	Width, Height     int32
	AttachedToDesktop bool
	Rotation          Rotation
	// Monitor is the OS monitor handle backing this output, zero when the
	// output has none.
	Monitor uintptr
	// MaxRefreshRate is nil when the extended mode-list interface is
	// unavailable or reports no modes.
	MaxRefreshRate *float64
	// Color is nil when the extended output interface is unavailable.
	Color *ColorInfo
}

// ColorInfo is the HDR/color capability snapshot of one output. Chromaticity
// pairs are CIE xy coordinates, luminances are nits.
type ColorInfo struct {
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

// Rotation is the rotation reported for an output's desktop surface.
type Rotation uint32

const (
	RotationUnspecified Rotation = iota
	RotationIdentity
	Rotation90
	Rotation180
	Rotation270
)

// String returns the word printed on the rotation report line.
func (r Rotation) String() string {
	switch r {
	case RotationUnspecified:
		return "Unspecified"
	case RotationIdentity:
		return "0"
	case Rotation90:
		return "90"
	case Rotation180:
		return "180"
	case Rotation270:
		return "270"
	}
	return "Unknown"
}

// Labels for the platform color-space enumeration, keyed by raw value. The
// reserved slot (4) is intentionally absent.
var colorSpaceLabels = map[uint32]string{
	0:  "[sRGB] RGB (0-255), gamma: 2.2, siting: image, primaries: BT.709",
	1:  "[scRGB] RGB (0-255), gamma: 1.0, siting: image, primaries: BT.709",
	2:  "[ITU-R] RGB (16-235), gamma: 2.2, siting: image, primaries: BT.709",
	3:  "[HDR] RGB (16-235), gamma: 2.2, siting: image, primaries: BT.2020",
	5:  "YCbCr (0-255), gamma: 2.2, siting: image, primaries: BT.709, transfer matrix: BT.601",
	6:  "YCbCr (16-235), gamma: 2.2, siting: video, primaries: BT.601",
	7:  "YCbCr (0-255), gamma: 2.2, siting: video, primaries: BT.601",
	8:  "YCbCr (16-235), gamma: 2.2, siting: video, primaries: BT.709",
	9:  "YCbCr (0-255), gamma: 2.2, siting: video, primaries: BT.709",
	10: "[HDR] YCbCr (16-235), gamma: 2.2, siting: video, primaries: BT.2020",
	11: "[HDR] YCbCr (0-255), gamma: 2.2, siting: video, primaries: BT.2020",
	12: "[HDR] RGB (0-255), gamma: 2084, siting: image, primaries: BT.2020",
	13: "[HDR] YCbCr (16-235), gamma: 2084, siting: video, primaries: BT.2020",
	14: "[HDR] RGB (16-235), gamma: 2084, siting: image, primaries: BT.2020",
	15: "[HDR] YCbCr (16-235), gamma: 2.2, siting: video, primaries: BT.2020",
	16: "[HDR] YCbCr (16-235), gamma: 2084, siting: video, primaries: BT.2020",
	17: "[HDR] RGB (0-255), gamma: 2.2, siting: image, primaries: BT.2020",
	18: "[HDR] YCbCr (16-235), gamma: HLG, siting: video, primaries: BT.2020",
	19: "[HDR] YCbCr (0-255), gamma: HLG, siting: video, primaries: BT.2020",
	20: "RGB (16-235), gamma: 2.4, siting: image, primaries: BT.709",
	21: "[HDR] RGB (16-235), gamma: 2.4, siting: image, primaries: BT.2020",
	22: "YCbCr (16-235), gamma: 2.4, siting: video, primaries: BT.709",
	23: "[HDR] YCbCr (16-235), gamma: 2.4, siting: video, primaries: BT.2020",
	24: "[HDR] YCbCr (16-235), gamma: 2.4, siting: video, primaries: BT.2020",
}

// ColorSpaceLabel describes a raw color-space value. Values outside the
// table, including the reserved slot, describe as Unknown.
func ColorSpaceLabel(raw uint32) string {
	if label, found := colorSpaceLabels[raw]; found {
		return label
	}
	return "Unknown"
}
