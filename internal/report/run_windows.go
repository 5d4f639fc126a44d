//go:build windows

package report

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/go-tangra/go-tangra-gpuinfo/internal/console"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/display"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/driver"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/dxgi"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/hostinfo"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/platform"
)

// Options tune the run's interactive behavior; report content has no
// configuration surface.
type Options struct {
	Pause bool
}

// Run performs one full diagnostic pass: resolve capabilities, prepare the
// console, enumerate adapters and outputs, and emit the report to stdout.
// Only platform setup failures return an error; everything downstream
// degrades per attribute.
func Run(opts Options, log zerolog.Logger) error {
	caps, err := platform.Load(log)
	if err != nil {
		return err
	}
	console.Setup(caps, log)

	host, err := hostinfo.Collect()
	if err != nil {
		log.Warn().Err(err).Msg("host summary unavailable")
		host = nil
	}

	adapters, vrr, err := dxgi.Enumerate(caps, log)
	if err != nil {
		return err
	}

	deps := display.PlatformDeps(caps, log)
	res := Resolvers{
		DriverInfo: func(adapterName string) (driver.Info, bool) {
			return driver.Resolve(caps, adapterName, log)
		},
		Paths: func(deviceName string) []display.Path {
			return display.ResolvePaths(caps, deviceName, log)
		},
		SDRWhiteLevel: func(paths []display.Path) (float64, bool) {
			return display.ResolveSDRWhiteLevel(paths, deps)
		},
		RefreshRate: func(deviceName string, paths []display.Path) (float64, bool) {
			return display.ResolveRefreshRate(deviceName, paths, deps)
		},
		FriendlyName: func(paths []display.Path) (string, bool) {
			return display.ResolveFriendlyName(paths, deps)
		},
		DPI: func(monitor uintptr) (uint32, bool) {
			return display.ResolveDPI(monitor, deps)
		},
	}

	emitter := NewEmitter(os.Stdout, os.Stdin, log, res, opts.Pause)
	emitter.Run(Report{
		ID:                  uuid.NewString(),
		GeneratedAt:         time.Now(),
		Host:                host,
		VariableRefreshRate: vrr,
		Adapters:            adapters,
	})
	return nil
}
