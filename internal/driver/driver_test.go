package driver

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyProvider(t *testing.T) {
	tests := []struct {
		name string
		want Provider
	}{
		{"NVIDIA", ProviderNvidia},
		{"NVIDIA Corporation", ProviderNvidia},
		{"Advanced Micro Devices, Inc.", ProviderAMD},
		{"Intel Corporation", ProviderIntel},
		{"Intel", ProviderIntel},
		{"Microsoft", ProviderOther},
		{"", ProviderOther},
		// Substring matching is case-sensitive.
		{"nvidia", ProviderOther},
		{"intel corporation", ProviderOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyProvider(tt.name), "provider %q", tt.name)
	}
}

func TestNvidiaVersionRewrite(t *testing.T) {
	assert.Equal(t, "347.88", NormalizeVersion(ProviderNvidia, "9.18.13.4788", nil))
	assert.Equal(t, "536.23", NormalizeVersion(ProviderNvidia, "31.0.15.3623", nil))
	// Fewer than six characters pass through unchanged.
	assert.Equal(t, "1.2.3", NormalizeVersion(ProviderNvidia, "1.2.3", nil))
	assert.Equal(t, "", NormalizeVersion(ProviderNvidia, "", nil))
}

func TestIntelVersionRewrite(t *testing.T) {
	assert.Equal(t, "100.8935", NormalizeVersion(ProviderIntel, "27.20.100.8935", nil))
	assert.Equal(t, "101.5522", NormalizeVersion(ProviderIntel, "31.0.101.5522", nil))
	// Fewer than two dots passes through unchanged.
	assert.Equal(t, "27.20", NormalizeVersion(ProviderIntel, "27.20", nil))
	assert.Equal(t, "2720", NormalizeVersion(ProviderIntel, "2720", nil))
}

func TestOtherProviderKeepsRawVersion(t *testing.T) {
	assert.Equal(t, "9.18.13.4788", NormalizeVersion(ProviderOther, "9.18.13.4788", nil))
}

type fakeRegistryKey struct {
	values map[string]string
	errs   map[string]error
}

func (f *fakeRegistryKey) HasValue(name string) bool {
	_, ok := f.values[name]
	return ok
}

func (f *fakeRegistryKey) GetString(name string) (string, error) {
	if err := f.errs[name]; err != nil {
		return "", err
	}
	return f.values[name], nil
}

func TestAMDVersion_EditionPairBeatsCatalyst(t *testing.T) {
	key := &fakeRegistryKey{values: map[string]string{
		"Catalyst_Version":      "15.11",
		"RadeonSoftwareEdition": "Crimson",
		"RadeonSoftwareVersion": "15.12",
	}}

	assert.Equal(t, "Crimson 15.12", NormalizeVersion(ProviderAMD, "30.0.13025.1000", key))
}

func TestAMDVersion_CatalystOnly(t *testing.T) {
	key := &fakeRegistryKey{values: map[string]string{"Catalyst_Version": "15.11"}}

	assert.Equal(t, "Catalyst 15.11", NormalizeVersion(ProviderAMD, "30.0.13025.1000", key))
}

func TestAMDVersion_EditionWithoutVersionKeepsPrior(t *testing.T) {
	key := &fakeRegistryKey{values: map[string]string{
		"Catalyst_Version":      "15.11",
		"RadeonSoftwareEdition": "Adrenalin",
	}}

	assert.Equal(t, "Catalyst 15.11", NormalizeVersion(ProviderAMD, "30.0.13025.1000", key))
}

func TestAMDVersion_NoKeyFallsBackToRaw(t *testing.T) {
	assert.Equal(t, "30.0.13025.1000", NormalizeVersion(ProviderAMD, "30.0.13025.1000", nil))
}

func TestAMDVersion_ValueReadErrorTreatedAsAbsent(t *testing.T) {
	key := &fakeRegistryKey{
		values: map[string]string{"Catalyst_Version": "15.11"},
		errs:   map[string]error{"Catalyst_Version": errors.New("access denied")},
	}

	assert.Equal(t, "30.0.13025.1000", NormalizeVersion(ProviderAMD, "30.0.13025.1000", key))
}

func TestAMDVersion_EmptyValuesIgnored(t *testing.T) {
	key := &fakeRegistryKey{values: map[string]string{
		"Catalyst_Version":      "",
		"RadeonSoftwareEdition": "",
	}}

	assert.Equal(t, "30.0.13025.1000", NormalizeVersion(ProviderAMD, "30.0.13025.1000", key))
}

func present(value string) func() (string, bool) {
	return func() (string, bool) { return value, true }
}

func absent() (string, bool) { return "", false }

func nvidiaRecord(desc string) deviceRecord {
	return deviceRecord{
		Description: desc,
		Provider:    present("NVIDIA"),
		Version:     present("31.0.15.3623"),
		Date:        present("2023-6-8"),
	}
}

func TestResolveFromRecords_SubstringFirstMatchWins(t *testing.T) {
	second := nvidiaRecord("NVIDIA GeForce RTX 4090 (secondary)")
	second.Version = present("31.0.15.3179")
	records := []deviceRecord{
		{Description: "Microsoft Basic Display Adapter"},
		nvidiaRecord("NVIDIA GeForce RTX 4090"),
		second,
	}

	info, ok := resolveFromRecords("NVIDIA GeForce RTX 4090", records, nil, zerolog.Nop())

	require.True(t, ok)
	assert.Equal(t, "536.23", info.Version)
	assert.Equal(t, "2023-6-8", info.Date)
}

func TestResolveFromRecords_DecoratedDescriptionStillMatches(t *testing.T) {
	records := []deviceRecord{nvidiaRecord("NVIDIA GeForce RTX 4090 with Max-Q Design")}

	_, ok := resolveFromRecords("NVIDIA GeForce RTX 4090", records, nil, zerolog.Nop())

	assert.True(t, ok)
}

func TestResolveFromRecords_NoMatch(t *testing.T) {
	records := []deviceRecord{nvidiaRecord("NVIDIA GeForce RTX 4090")}

	_, ok := resolveFromRecords("AMD Radeon RX 7900 XTX", records, nil, zerolog.Nop())

	assert.False(t, ok)
}

func TestResolveFromRecords_EmptyAdapterName(t *testing.T) {
	records := []deviceRecord{nvidiaRecord("NVIDIA GeForce RTX 4090")}

	_, ok := resolveFromRecords("", records, nil, zerolog.Nop())

	assert.False(t, ok)
}

func TestResolveFromRecords_MissingPropertyFailsWholeResolution(t *testing.T) {
	cases := map[string]func(*deviceRecord){
		"provider": func(rec *deviceRecord) { rec.Provider = absent },
		"version":  func(rec *deviceRecord) { rec.Version = absent },
		"date":     func(rec *deviceRecord) { rec.Date = absent },
	}
	for name, drop := range cases {
		t.Run(name, func(t *testing.T) {
			rec := nvidiaRecord("NVIDIA GeForce RTX 4090")
			drop(&rec)
			// A later complete record must not rescue the matched one.
			records := []deviceRecord{rec, nvidiaRecord("NVIDIA GeForce RTX 4090")}

			_, ok := resolveFromRecords("NVIDIA GeForce RTX 4090", records, nil, zerolog.Nop())

			assert.False(t, ok)
		})
	}
}

func TestResolveFromRecords_AMDRegistryOverride(t *testing.T) {
	records := []deviceRecord{{
		Description:     "AMD Radeon RX 7900 XTX",
		RegistryKeyName: func() string { return `{4d36e968-e325-11ce-bfc1-08002be10318}\0000` },
		Provider:        present("Advanced Micro Devices, Inc."),
		Version:         present("31.0.14057.5006"),
		Date:            present("2023-7-27"),
	}}
	closed := false
	openKey := func(keyName string) (RegistryKey, func(), error) {
		assert.Equal(t, `{4d36e968-e325-11ce-bfc1-08002be10318}\0000`, keyName)
		key := &fakeRegistryKey{values: map[string]string{
			"RadeonSoftwareEdition": "Adrenalin",
			"RadeonSoftwareVersion": "23.7.1",
		}}
		return key, func() { closed = true }, nil
	}

	info, ok := resolveFromRecords("AMD Radeon RX 7900 XTX", records, openKey, zerolog.Nop())

	require.True(t, ok)
	assert.Equal(t, "Adrenalin 23.7.1", info.Version)
	assert.True(t, closed, "driver registry key must be released")
}

func TestResolveFromRecords_AMDRegistryOpenFailureKeepsRaw(t *testing.T) {
	records := []deviceRecord{{
		Description:     "AMD Radeon RX 7900 XTX",
		RegistryKeyName: func() string { return `{4d36e968-e325-11ce-bfc1-08002be10318}\0000` },
		Provider:        present("Advanced Micro Devices, Inc."),
		Version:         present("31.0.14057.5006"),
		Date:            present("2023-7-27"),
	}}
	openKey := func(string) (RegistryKey, func(), error) {
		return nil, nil, errors.New("access denied")
	}

	info, ok := resolveFromRecords("AMD Radeon RX 7900 XTX", records, openKey, zerolog.Nop())

	require.True(t, ok)
	assert.Equal(t, "31.0.14057.5006", info.Version)
}

func TestResolveFromRecords_NonAMDSkipsRegistry(t *testing.T) {
	rec := nvidiaRecord("NVIDIA GeForce RTX 4090")
	rec.RegistryKeyName = func() string { return `{4d36e968-e325-11ce-bfc1-08002be10318}\0001` }
	opened := false
	openKey := func(string) (RegistryKey, func(), error) {
		opened = true
		return nil, nil, errors.New("unexpected")
	}

	_, ok := resolveFromRecords("NVIDIA GeForce RTX 4090", []deviceRecord{rec}, openKey, zerolog.Nop())

	require.True(t, ok)
	assert.False(t, opened)
}

func TestResolveFromRecords_AMDWithoutKeyNameKeepsRaw(t *testing.T) {
	records := []deviceRecord{{
		Description: "AMD Radeon RX 7900 XTX",
		Provider:    present("Advanced Micro Devices, Inc."),
		Version:     present("31.0.14057.5006"),
		Date:        present("2023-7-27"),
	}}
	openKey := func(string) (RegistryKey, func(), error) {
		t.Fatal("no registry key name, nothing to open")
		return nil, nil, nil
	}

	info, ok := resolveFromRecords("AMD Radeon RX 7900 XTX", records, openKey, zerolog.Nop())

	require.True(t, ok)
	assert.Equal(t, "31.0.14057.5006", info.Version)
}
