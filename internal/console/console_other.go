//go:build !windows

package console

import (
	"github.com/rs/zerolog"

	"github.com/go-tangra/go-tangra-gpuinfo/internal/platform"
)

// Setup is a no-op on non-Windows platforms.
func Setup(_ *platform.Capabilities, _ zerolog.Logger) {}
