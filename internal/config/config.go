// Package config loads the ambient presentation settings from the
// environment. The tool has no configuration surface over what is reported;
// these settings only tune color, the exit pause, and log verbosity.
package config

import (
	"github.com/spf13/viper"
)

// Tri-state toggle values shared by the color and pause settings.
const (
	ModeAuto   = "auto"
	ModeAlways = "always"
	ModeNever  = "never"
)

// Config holds the presentation settings.
type Config struct {
	Color    string `mapstructure:"color"`
	Pause    string `mapstructure:"pause"`
	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from GPUINFO_* environment variables. Loading
// never fails: malformed values fall back to their defaults.
func Load() *Config {
	v := viper.New()
	v.SetDefault("color", ModeAuto)
	v.SetDefault("pause", ModeAuto)
	v.SetDefault("log_level", "warn")

	v.SetEnvPrefix("GPUINFO")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return &Config{Color: ModeAuto, Pause: ModeAuto, LogLevel: "warn"}
	}
	cfg.Color = normalizeMode(cfg.Color)
	cfg.Pause = normalizeMode(cfg.Pause)
	return &cfg
}

func normalizeMode(value string) string {
	switch value {
	case ModeAuto, ModeAlways, ModeNever:
		return value
	}
	return ModeAuto
}

// ColorEnabled reports whether report output should carry ANSI colors,
// given whether stdout is a terminal.
func (c *Config) ColorEnabled(stdoutIsTerminal bool) bool {
	switch c.Color {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	}
	return stdoutIsTerminal
}

// PauseEnabled reports whether the run should block on a keypress before
// exiting. The auto mode pauses only for fully interactive runs so piped
// and CI invocations never hang.
func (c *Config) PauseEnabled(stdinIsTerminal, stdoutIsTerminal bool) bool {
	switch c.Pause {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	}
	return stdinIsTerminal && stdoutIsTerminal
}
