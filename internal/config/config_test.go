package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ModeAuto, cfg.Color)
	assert.Equal(t, ModeAuto, cfg.Pause)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("GPUINFO_COLOR", "never")
	t.Setenv("GPUINFO_PAUSE", "always")
	t.Setenv("GPUINFO_LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, ModeNever, cfg.Color)
	assert.Equal(t, ModeAlways, cfg.Pause)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("GPUINFO_COLOR", "rainbow")
	t.Setenv("GPUINFO_PAUSE", "sometimes")

	cfg := Load()

	assert.Equal(t, ModeAuto, cfg.Color)
	assert.Equal(t, ModeAuto, cfg.Pause)
}

func TestColorEnabled(t *testing.T) {
	assert.True(t, (&Config{Color: ModeAlways}).ColorEnabled(false))
	assert.False(t, (&Config{Color: ModeNever}).ColorEnabled(true))
	assert.True(t, (&Config{Color: ModeAuto}).ColorEnabled(true))
	assert.False(t, (&Config{Color: ModeAuto}).ColorEnabled(false))
}

func TestPauseEnabled(t *testing.T) {
	assert.True(t, (&Config{Pause: ModeAlways}).PauseEnabled(false, false))
	assert.False(t, (&Config{Pause: ModeNever}).PauseEnabled(true, true))
	assert.True(t, (&Config{Pause: ModeAuto}).PauseEnabled(true, true))
	assert.False(t, (&Config{Pause: ModeAuto}).PauseEnabled(true, false))
	assert.False(t, (&Config{Pause: ModeAuto}).PauseEnabled(false, true))
}
