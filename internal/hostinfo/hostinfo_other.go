//go:build !windows

package hostinfo

import "errors"

// Collect is only supported on Windows.
func Collect() (*Summary, error) {
	return nil, errors.New("host summary requires WMI and is only available on windows")
}
