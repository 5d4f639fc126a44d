// Package display resolves per-output display attributes: SDR white level,
// current refresh rate, friendly monitor name, and DPI scale. Each attribute
// runs an ordered list of candidate sources; the first one that answers
// wins, and an exhausted chain hands back a documented default flagged as
// unanswered. The platform queries behind each source are injected through
// Deps so the chains are testable with fakes.
package display

import "math"

// Documented defaults handed back when a chain exhausts.
const (
	DefaultSDRWhiteLevelNits = 200.0
	DefaultRefreshRate       = 60.0
	DefaultDPI               = uint32(96)
)

// Rational is a refresh rate as reported on a display path.
type Rational struct {
	Numerator   uint32
	Denominator uint32
}

// Path is one active display-configuration path whose source GDI device
// name matched the queried output. The target identity addresses the
// per-target attribute queries.
type Path struct {
	AdapterLow  uint32
	AdapterHigh int32
	TargetID    uint32
	Refresh     Rational
}

// Deps are the platform queries consumed by the resolvers. A nil field
// means that source never answers. Frequencies are returned raw; the
// resolvers own the "0/1 means hardware default" rule.
type Deps struct {
	// SDRWhiteLevel returns the raw permille-of-80-nit level for a path's
	// target.
	SDRWhiteLevel func(p Path) (uint32, bool)
	// FriendlyName returns the monitor's user-friendly name for a path's
	// target.
	FriendlyName func(p Path) (string, bool)
	// DisplaySettingsFrequency returns the frequency from the legacy
	// per-device display settings.
	DisplaySettingsFrequency func(deviceName string) (uint32, bool)
	// DeviceCapsFrequency returns the vertical-refresh capability of a
	// temporary device context for the output.
	DeviceCapsFrequency func(deviceName string) (int32, bool)
	// MonitorDPI returns the effective DPI for a monitor handle.
	MonitorDPI func(monitor uintptr) (uint32, bool)
}

// pathQueryStatus is the outcome of one display-configuration fetch.
type pathQueryStatus int

const (
	pathQueryOK pathQueryStatus = iota
	// pathQueryBufferTooSmall means the path set grew between the size
	// query and the fetch; the caller must re-query the sizes and retry.
	pathQueryBufferTooSmall
	pathQueryFailed
)

// pathRecord is one raw active path before source-name filtering.
type pathRecord struct {
	SourceAdapterLow  uint32
	SourceAdapterHigh int32
	SourceID          uint32
	Path              Path
}

// pathQueries are the platform calls behind the path resolver.
type pathQueries struct {
	// BufferSizes returns the current active path and mode counts.
	BufferSizes func() (pathCount, modeCount uint32, ok bool)
	// Fetch returns the active paths for buffers of the given sizes.
	Fetch func(pathCount, modeCount uint32) ([]pathRecord, pathQueryStatus)
	// SourceName returns the GDI device name of a path's source.
	SourceName func(rec pathRecord) (string, bool)
}

// resolvePaths fetches the active paths, retrying while the OS reports the
// buffers grew between the size query and the fetch, and keeps only paths
// whose source GDI device name exactly equals deviceName. An empty result
// is "attribute unavailable", never an error.
func resolvePaths(deviceName string, q pathQueries) []Path {
	if deviceName == "" || q.BufferSizes == nil || q.Fetch == nil || q.SourceName == nil {
		return nil
	}
	var records []pathRecord
	for {
		pathCount, modeCount, ok := q.BufferSizes()
		if !ok || pathCount == 0 {
			return nil
		}
		fetched, status := q.Fetch(pathCount, modeCount)
		if status == pathQueryBufferTooSmall {
			continue
		}
		if status != pathQueryOK {
			return nil
		}
		records = fetched
		break
	}
	var matches []Path
	for _, rec := range records {
		name, ok := q.SourceName(rec)
		if !ok {
			continue
		}
		// Exact, case-sensitive match; anything else is a different output.
		if name != deviceName {
			continue
		}
		matches = append(matches, rec.Path)
	}
	return matches
}

// strategy is one candidate source for an attribute value.
type strategy[T any] func() (T, bool)

// firstSuccess runs the strategies in order and returns the first answer.
// When every strategy declines it returns the fallback, flagged unanswered.
func firstSuccess[T any](fallback T, strategies ...strategy[T]) (T, bool) {
	for _, s := range strategies {
		if value, ok := s(); ok {
			return value, true
		}
	}
	return fallback, false
}

// NitsFromSDRWhiteLevel converts the raw level to nits. The OS reports the
// level in permille-of-80-nit units; pure linear scale, no clamping.
func NitsFromSDRWhiteLevel(raw uint32) float64 {
	return float64(raw) / 1000 * 80
}

// ScaleFromDPI converts an effective DPI to the familiar scale percentage.
func ScaleFromDPI(dpi uint32) uint32 {
	return uint32(math.Round(float64(dpi) / 96 * 100))
}

// ResolveSDRWhiteLevel queries each path's target until one answers.
func ResolveSDRWhiteLevel(paths []Path, deps Deps) (float64, bool) {
	return firstSuccess(DefaultSDRWhiteLevelNits, func() (float64, bool) {
		if deps.SDRWhiteLevel == nil {
			return 0, false
		}
		for _, p := range paths {
			if raw, ok := deps.SDRWhiteLevel(p); ok {
				return NitsFromSDRWhiteLevel(raw), true
			}
		}
		return 0, false
	})
}

// ResolveRefreshRate resolves the current refresh rate in Hz. The path
// rational wins when valid; the legacy display-settings and device-context
// tiers need a non-empty device name and reject 0/1, which mean "hardware
// default" rather than a real rate.
func ResolveRefreshRate(deviceName string, paths []Path, deps Deps) (float64, bool) {
	return firstSuccess(DefaultRefreshRate,
		func() (float64, bool) {
			for _, p := range paths {
				if p.Refresh.Numerator > 0 && p.Refresh.Denominator > 0 {
					return float64(p.Refresh.Numerator) / float64(p.Refresh.Denominator), true
				}
			}
			return 0, false
		},
		func() (float64, bool) {
			if deviceName == "" || deps.DisplaySettingsFrequency == nil {
				return 0, false
			}
			if freq, ok := deps.DisplaySettingsFrequency(deviceName); ok && freq > 1 {
				return float64(freq), true
			}
			return 0, false
		},
		func() (float64, bool) {
			if deviceName == "" || deps.DeviceCapsFrequency == nil {
				return 0, false
			}
			if freq, ok := deps.DeviceCapsFrequency(deviceName); ok && freq > 1 {
				return float64(freq), true
			}
			return 0, false
		},
	)
}

// ResolveFriendlyName queries each path's target until one yields a name.
// There is no default: an exhausted chain means the report line is omitted.
func ResolveFriendlyName(paths []Path, deps Deps) (string, bool) {
	return firstSuccess("", func() (string, bool) {
		if deps.FriendlyName == nil {
			return "", false
		}
		for _, p := range paths {
			if name, ok := deps.FriendlyName(p); ok {
				return name, true
			}
		}
		return "", false
	})
}

// ResolveDPI returns the effective DPI of the output's monitor, defaulting
// to 96 (100%) when the handle is zero or the query declines.
func ResolveDPI(monitor uintptr, deps Deps) (uint32, bool) {
	return firstSuccess(DefaultDPI, func() (uint32, bool) {
		if monitor == 0 || deps.MonitorDPI == nil {
			return 0, false
		}
		return deps.MonitorDPI(monitor)
	})
}
