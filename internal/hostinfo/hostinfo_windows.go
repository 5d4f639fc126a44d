//go:build windows

package hostinfo

import (
	"strings"

	"github.com/yusufpapurcu/wmi"
)

type win32OperatingSystem struct {
	Caption     string
	Version     string
	BuildNumber string
	CSName      string
}

type win32ComputerSystem struct {
	Manufacturer        string
	Model               string
	TotalPhysicalMemory uint64
}

// Collect queries Win32_OperatingSystem and Win32_ComputerSystem for the
// host identity. A failure omits the whole header section; it is never
// fatal to the report.
func Collect() (*Summary, error) {
	var oss []win32OperatingSystem
	if err := wmi.Query("SELECT Caption, Version, BuildNumber, CSName FROM Win32_OperatingSystem", &oss); err != nil {
		return nil, err
	}

	var cs []win32ComputerSystem
	if err := wmi.Query("SELECT Manufacturer, Model, TotalPhysicalMemory FROM Win32_ComputerSystem", &cs); err != nil {
		return nil, err
	}

	summary := &Summary{}
	if len(oss) > 0 {
		summary.Hostname = oss[0].CSName
		summary.OSCaption = strings.TrimSpace(oss[0].Caption)
		summary.OSVersion = oss[0].Version
		summary.OSBuild = oss[0].BuildNumber
	}
	if len(cs) > 0 {
		summary.Manufacturer = strings.TrimSpace(cs[0].Manufacturer)
		summary.Model = strings.TrimSpace(cs[0].Model)
		summary.TotalPhysicalBytes = cs[0].TotalPhysicalMemory
	}
	return summary, nil
}
