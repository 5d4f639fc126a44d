// Package report walks the enumerated adapters and outputs, invokes the
// attribute resolvers, and writes the diagnostic report. Output is free-form
// key: value lines, one attribute per line; a line whose attribute could not
// be resolved is omitted rather than printed with a placeholder.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/go-tangra/go-tangra-gpuinfo/internal/display"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/driver"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/dxgi"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/gputable"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/hostinfo"
)

// Resolvers are the attribute lookups the emitter invokes per adapter and
// per output. A nil field never answers, so its lines are omitted.
type Resolvers struct {
	DriverInfo    func(adapterName string) (driver.Info, bool)
	Paths         func(deviceName string) []display.Path
	SDRWhiteLevel func(paths []display.Path) (float64, bool)
	RefreshRate   func(deviceName string, paths []display.Path) (float64, bool)
	FriendlyName  func(paths []display.Path) (string, bool)
	DPI           func(monitor uintptr) (uint32, bool)
}

// Report is everything one run resolved up front; the per-output attributes
// are pulled through the Resolvers while emitting.
type Report struct {
	ID                  string
	GeneratedAt         time.Time
	Host                *hostinfo.Summary
	VariableRefreshRate bool
	Adapters            []dxgi.Adapter
}

// Emitter writes the formatted report.
type Emitter struct {
	out   io.Writer
	in    io.Reader
	log   zerolog.Logger
	res   Resolvers
	pause bool

	adapterSep *color.Color
	outputSep  *color.Color
	gpuLabel   *color.Color
	outLabel   *color.Color
	prompt     *color.Color
}

// NewEmitter returns an emitter writing to out. in is only read for the
// interactive exit pause, gated by pause.
func NewEmitter(out io.Writer, in io.Reader, log zerolog.Logger, res Resolvers, pause bool) *Emitter {
	return &Emitter{
		out:        out,
		in:         in,
		log:        log,
		res:        res,
		pause:      pause,
		adapterSep: color.New(color.FgBlue, color.Bold),
		outputSep:  color.New(color.FgRed, color.Bold),
		gpuLabel:   color.New(color.FgGreen, color.Bold),
		outLabel:   color.New(color.FgYellow, color.Bold),
		prompt:     color.New(color.FgMagenta, color.Bold),
	}
}

// Run emits the whole report: header section, one block per adapter with
// its outputs, the closing separator, and the optional exit prompt. A run
// with zero adapters prints only the header and footer.
func (e *Emitter) Run(rep Report) {
	e.adapterSep.Fprintln(e.out, strings.Repeat("#", 30))
	e.headerSection(rep)
	for i, adapter := range rep.Adapters {
		e.adapterBlock(i+1, adapter, rep.VariableRefreshRate)
	}
	e.adapterSep.Fprintln(e.out, strings.Repeat("#", 30))

	if e.pause {
		e.prompt.Fprintln(e.out, "Press the <ENTER> key to exit ...")
		if e.in != nil {
			_, _ = bufio.NewReader(e.in).ReadString('\n')
		}
	}
}

func (e *Emitter) headerSection(rep Report) {
	fmt.Fprintf(e.out, "Report ID: %s\n", rep.ID)
	fmt.Fprintf(e.out, "Generated: %s\n", rep.GeneratedAt.Format(time.RFC3339))
	if host := rep.Host; host != nil {
		fmt.Fprintf(e.out, "Host: %s (%s, build %s)\n", host.Hostname, host.OSCaption, host.OSBuild)
		fmt.Fprintf(e.out, "System: %s %s\n", host.Manufacturer, host.Model)
		fmt.Fprintf(e.out, "Memory: %s\n", humanize.IBytes(host.TotalPhysicalBytes))
	}
}

func (e *Emitter) adapterBlock(index int, adapter dxgi.Adapter, vrr bool) {
	e.adapterSep.Fprintln(e.out, strings.Repeat("#", 30))
	e.gpuLabel.Fprintf(e.out, "GPU #%d:\n", index)
	fmt.Fprintf(e.out, "Device name: %s\n", adapter.Name)
	if vendor := gputable.Classify(adapter.VendorID); vendor != gputable.VendorUnknown {
		fmt.Fprintf(e.out, "Vendor ID: 0x%x (%s)\n", adapter.VendorID, vendor)
	} else {
		fmt.Fprintf(e.out, "Vendor ID: 0x%x\n", adapter.VendorID)
	}
	fmt.Fprintf(e.out, "Device ID: 0x%x\n", adapter.DeviceID)
	fmt.Fprintf(e.out, "Dedicated video memory: %d MiB\n", adapter.DedicatedVideoBytes/1048576)
	fmt.Fprintf(e.out, "Dedicated system memory: %d MiB\n", adapter.DedicatedSystemBytes/1048576)
	fmt.Fprintf(e.out, "Shared system memory: %d MiB\n", adapter.SharedSystemBytes/1048576)
	fmt.Fprintf(e.out, "Variable refresh rate supported: %s\n", yesNo(vrr))
	fmt.Fprintf(e.out, "Software simulation (rendered by CPU): %s\n", yesNo(adapter.Software))
	if adapter.Integrated != nil {
		fmt.Fprintf(e.out, "Integrated device: %s\n", yesNo(*adapter.Integrated))
	}
	if e.res.DriverInfo != nil {
		if info, ok := e.res.DriverInfo(adapter.Name); ok {
			fmt.Fprintf(e.out, "Driver: %s (%s)\n", info.Version, info.Date)
		} else {
			e.log.Debug().Str("adapter", adapter.Name).Msg("driver info unavailable, omitting line")
		}
	}

	for i, output := range adapter.Outputs {
		e.outputBlock(i+1, output)
	}
}

func (e *Emitter) outputBlock(index int, output dxgi.Output) {
	e.outputSep.Fprintln(e.out, strings.Repeat("-", 31))
	e.outLabel.Fprintf(e.out, "Output #%d:\n", index)
	fmt.Fprintf(e.out, "Device name: %s\n", output.DeviceName)
	fmt.Fprintf(e.out, "Desktop geometry: x: %d, y: %d, width: %d, height: %d\n",
		output.X, output.Y, output.Width, output.Height)
	fmt.Fprintf(e.out, "Attached to desktop: %s\n", yesNo(output.AttachedToDesktop))
	fmt.Fprintf(e.out, "Rotation: %s degree\n", output.Rotation)
	if output.MaxRefreshRate != nil {
		fmt.Fprintf(e.out, "Maximum refresh rate: %s Hz\n", formatFloat(*output.MaxRefreshRate))
	}
	if c := output.Color; c != nil {
		fmt.Fprintf(e.out, "Bits per color: %d\n", c.BitsPerColor)
		fmt.Fprintf(e.out, "Color space: %s\n", dxgi.ColorSpaceLabel(c.ColorSpace))
		fmt.Fprintf(e.out, "Red primary: %s, %s\n", formatFloat32(c.RedPrimary[0]), formatFloat32(c.RedPrimary[1]))
		fmt.Fprintf(e.out, "Green primary: %s, %s\n", formatFloat32(c.GreenPrimary[0]), formatFloat32(c.GreenPrimary[1]))
		fmt.Fprintf(e.out, "Blue primary: %s, %s\n", formatFloat32(c.BluePrimary[0]), formatFloat32(c.BluePrimary[1]))
		fmt.Fprintf(e.out, "White point: %s, %s\n", formatFloat32(c.WhitePoint[0]), formatFloat32(c.WhitePoint[1]))
		fmt.Fprintf(e.out, "Minimum luminance: %s nit\n", formatFloat32(c.MinLuminance))
		fmt.Fprintf(e.out, "Maximum luminance: %s nit\n", formatFloat32(c.MaxLuminance))
		fmt.Fprintf(e.out, "Maximum average full frame luminance: %s nit\n", formatFloat32(c.MaxFullFrameLuminance))
	}

	var paths []display.Path
	if e.res.Paths != nil {
		paths = e.res.Paths(output.DeviceName)
		if len(paths) == 0 {
			e.log.Debug().Str("device", output.DeviceName).Msg("no display paths matched, omitting path attributes")
		}
	}
	if len(paths) > 0 {
		if e.res.SDRWhiteLevel != nil {
			if nits, ok := e.res.SDRWhiteLevel(paths); ok {
				fmt.Fprintf(e.out, "SDR white level: %s nit\n", formatFloat(nits))
			}
		}
		if e.res.RefreshRate != nil {
			if rate, ok := e.res.RefreshRate(output.DeviceName, paths); ok {
				fmt.Fprintf(e.out, "Current refresh rate: %s Hz\n", formatFloat(rate))
			}
		}
		if e.res.FriendlyName != nil {
			if name, ok := e.res.FriendlyName(paths); ok {
				fmt.Fprintf(e.out, "Display name: %s\n", name)
			}
		}
	}
	if e.res.DPI != nil {
		if dpi, ok := e.res.DPI(output.Monitor); ok {
			fmt.Fprintf(e.out, "Dots-per-inch: %d (%d%%)\n", dpi, display.ScaleFromDPI(dpi))
		} else {
			e.log.Debug().Str("device", output.DeviceName).Msg("monitor DPI unavailable, omitting line")
		}
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// formatFloat prints in minimal form: 60 Hz, 59.94 Hz, 80 nit.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatFloat32(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
