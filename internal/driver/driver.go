// Package driver resolves the installed display driver for one adapter:
// it locates the matching display-class device record and normalizes the
// raw 4-group version string using the provider's in-the-wild convention.
package driver

import (
	"strings"

	"github.com/rs/zerolog"
)

// Info is the resolved driver record for one adapter.
type Info struct {
	// Version is the provider-normalized version string, e.g. "536.23" for
	// NVIDIA or "Adrenalin 23.7.1" for AMD.
	Version string
	// Date is the driver date as unpadded Y-M-D, e.g. "2023-6-8".
	Date string
}

// Provider is the closed classification of driver providers that use
// distinct version string conventions.
type Provider int

const (
	ProviderOther Provider = iota
	ProviderNvidia
	ProviderAMD
	ProviderIntel
)

// ClassifyProvider maps a free-text driver provider name to its Provider.
// Matching is by case-sensitive substring; AMD ships as "Advanced Micro
// Devices, Inc." and Intel usually as "Intel Corporation".
func ClassifyProvider(name string) Provider {
	switch {
	case strings.Contains(name, "NVIDIA"):
		return ProviderNvidia
	case strings.Contains(name, "Advanced Micro Devices"):
		return ProviderAMD
	case strings.Contains(name, "Intel"):
		return ProviderIntel
	}
	return ProviderOther
}

// deviceRecord is one enumerated display-class device. The description is
// read eagerly because matching needs it; the remaining properties are lazy
// lookups so only the matched record's properties are read. A nil lookup
// means the property is absent.
type deviceRecord struct {
	Description string
	// RegistryKeyName names the driver's registry key, "" when absent.
	// Consulted only on the AMD version override branch.
	RegistryKeyName func() string
	Provider        func() (string, bool)
	Version         func() (string, bool)
	Date            func() (string, bool)
}

// openRegistryKey opens the named driver registry key for the AMD version
// override. The returned func releases the key.
type openRegistryKey func(keyName string) (RegistryKey, func(), error)

// resolveFromRecords picks the first record whose description contains
// adapterName (descriptions may carry extra decoration, so substring, first
// match wins) and assembles its driver info. Any missing required property
// on the matched record fails the whole resolution rather than producing a
// partial record.
func resolveFromRecords(adapterName string, records []deviceRecord, openKey openRegistryKey, log zerolog.Logger) (Info, bool) {
	if adapterName == "" {
		return Info{}, false
	}
	for _, rec := range records {
		if !strings.Contains(rec.Description, adapterName) {
			continue
		}
		providerName, ok := lookup(rec.Provider)
		if !ok {
			return Info{}, false
		}
		rawVersion, ok := lookup(rec.Version)
		if !ok {
			return Info{}, false
		}
		date, ok := lookup(rec.Date)
		if !ok {
			return Info{}, false
		}

		provider := ClassifyProvider(providerName)
		var amdKey RegistryKey
		if provider == ProviderAMD && rec.RegistryKeyName != nil && openKey != nil {
			if keyName := rec.RegistryKeyName(); keyName != "" {
				key, closeKey, err := openKey(keyName)
				if err != nil {
					log.Error().Err(err).Str("key", keyName).
						Msg("failed to open driver registry key, keeping raw version string")
				} else {
					defer closeKey()
					amdKey = key
				}
			}
		}
		return Info{
			Version: NormalizeVersion(provider, rawVersion, amdKey),
			Date:    date,
		}, true
	}
	return Info{}, false
}

func lookup(f func() (string, bool)) (string, bool) {
	if f == nil {
		return "", false
	}
	return f()
}

// RegistryKey reads named string values from one opened driver registry
// key. Errors on missing values mean "value absent", never failure.
type RegistryKey interface {
	HasValue(name string) bool
	GetString(name string) (string, error)
}

// NormalizeVersion rewrites the raw version string per the provider's
// convention. amdKey is consulted only on the AMD branch; nil keeps the raw
// string, which is also the fallback when the registry cannot be read.
func NormalizeVersion(provider Provider, raw string, amdKey RegistryKey) string {
	switch provider {
	case ProviderNvidia:
		return nvidiaVersion(raw)
	case ProviderAMD:
		return amdVersion(raw, amdKey)
	case ProviderIntel:
		return intelVersion(raw)
	}
	return raw
}

// nvidiaVersion recovers the user-facing version from the internal one by
// taking the last digits and moving the version dot, e.g.
// 9.18.13.4788 -> 3.4788 -> 347.88.
func nvidiaVersion(raw string) string {
	if len(raw) < 6 {
		return raw
	}
	digits := strings.ReplaceAll(raw[len(raw)-6:], ".", "")
	if len(digits) <= 3 {
		return digits
	}
	return digits[:3] + "." + digits[3:]
}

// intelVersion drops the OS and DirectX version groups, keeping everything
// after the second dot, e.g. 27.20.100.8935 -> 100.8935. Strings with fewer
// than two dots pass through unchanged.
func intelVersion(raw string) string {
	first := strings.IndexByte(raw, '.')
	if first < 0 {
		return raw
	}
	second := strings.IndexByte(raw[first+1:], '.')
	if second < 0 {
		return raw
	}
	return raw[first+1+second+1:]
}

// amdVersion prefers the Radeon Software edition+version pair over the
// Catalyst version, both read from the driver's registry key. Every
// registry miss keeps what was resolved so far.
func amdVersion(raw string, key RegistryKey) string {
	if key == nil {
		return raw
	}
	version := raw
	if key.HasValue("Catalyst_Version") {
		if v, err := key.GetString("Catalyst_Version"); err == nil && v != "" {
			version = "Catalyst " + v
		}
	}
	if key.HasValue("RadeonSoftwareEdition") {
		edition, err := key.GetString("RadeonSoftwareEdition")
		if err != nil || edition == "" {
			return version
		}
		if key.HasValue("RadeonSoftwareVersion") {
			if v, err := key.GetString("RadeonSoftwareVersion"); err == nil && v != "" {
				// e.g. "Crimson 15.12" or "Catalyst 14.1".
				version = edition + " " + v
			}
		}
	}
	return version
}
