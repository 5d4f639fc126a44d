package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilities_Has(t *testing.T) {
	caps := New(FeatureQueryDisplayConfig, FeatureEnumDisplaySettings)

	assert.True(t, caps.Has(FeatureQueryDisplayConfig))
	assert.True(t, caps.Has(FeatureEnumDisplaySettings))
	assert.False(t, caps.Has(FeatureGetDpiForMonitor))
}

func TestCapabilities_HasAll(t *testing.T) {
	caps := New(FeatureCreateDC, FeatureDeleteDC, FeatureGetDeviceCaps)

	assert.True(t, caps.HasAll(FeatureCreateDC, FeatureDeleteDC, FeatureGetDeviceCaps))
	assert.False(t, caps.HasAll(FeatureCreateDC, FeatureQueryDisplayConfig))
	assert.True(t, caps.HasAll())
}

func TestCapabilities_NilReceiver(t *testing.T) {
	var caps *Capabilities

	assert.False(t, caps.Has(FeatureCreateDC))
	assert.False(t, caps.HasAll(FeatureCreateDC))
}
