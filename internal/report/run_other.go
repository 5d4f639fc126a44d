//go:build !windows

package report

import (
	"errors"

	"github.com/rs/zerolog"
)

// Options tune the run's interactive behavior; report content has no
// configuration surface.
type Options struct {
	Pause bool
}

// Run is only supported on Windows.
func Run(_ Options, _ zerolog.Logger) error {
	return errors.New("the report requires the Windows display subsystem")
}
