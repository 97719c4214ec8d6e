package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/coresight"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/dap"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/probe"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/sim"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/symbols"
)

var (
	adapterType   string
	targetProfile string
	usbVID        uint16
	usbPID        uint16
	adapterSerial string
	adapterSpeed  uint32
	apSel         uint8
	romBase       uint32
	archives      []string
	jsonOutput    bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report on the attached core",
	Long: `Attach to the target and print one line per fact: probe, core and chip
identity, run state, debug units, ITM status and every core register.

If the core is running and nothing in DHCSR or DFSR explains its state, it is
briefly halted and single-stepped to see whether it is making progress. The
register dump halts a running core and resumes it afterwards.

Archives name the firmware images whose symbols annotate register values.
Each is "path" or "module=path"; .map files are nm listings, anything else is
read as ELF.

Examples:
  # Simulated STM32H7
  probe report

  # Simulated target from a profile, with symbols
  probe report --target board.sexp --archive kernel=app.map

  # Raspberry Pi debugprobe at 4 MHz, JSON output
  probe report --adapter cmsisdap --speed 4000000 --json`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&adapterType, "adapter", "a", "sim",
		"adapter type (sim, cmsisdap)")
	reportCmd.Flags().StringVarP(&targetProfile, "target", "t", "",
		"sim: target profile (S-expression); default is a running STM32H7")
	reportCmd.Flags().Uint16Var(&usbVID, "vid", dap.VendorIDRaspberryPi,
		"cmsisdap: USB vendor ID")
	reportCmd.Flags().Uint16Var(&usbPID, "pid", dap.ProductIDCMSISDAP,
		"cmsisdap: USB product ID")
	reportCmd.Flags().StringVarP(&adapterSerial, "serial", "s", "",
		"cmsisdap: probe serial number (if multiple probes)")
	reportCmd.Flags().Uint32Var(&adapterSpeed, "speed", 1000000,
		"cmsisdap: SWCLK speed in Hz")
	reportCmd.Flags().Uint8Var(&apSel, "apsel", 0,
		"cmsisdap: MEM-AP index of the core")
	reportCmd.Flags().Uint32Var(&romBase, "rom-base", 0,
		"ROM table base address (default: from the target)")
	reportCmd.Flags().StringArrayVar(&archives, "archive", nil,
		"firmware image for symbols, as path or module=path (repeatable)")
	reportCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"print the report as JSON")
}

func runReport(cmd *cobra.Command, args []string) error {
	table, err := loadArchives(archives)
	if err != nil {
		return err
	}

	core, base, closeTarget, err := openTarget(adapterType)
	if err != nil {
		return errors.Annotatef(err, "failed to attach")
	}
	defer closeTarget()

	if romBase != 0 {
		base = romBase
	}
	glog.V(1).Infof("ROM table at 0x%08x", base)

	info, err := coresight.ReadCoreInfo(core, base)
	if err != nil {
		return errors.Annotatef(err, "failed to identify core")
	}

	// a nil *Table must not become a non-nil resolver
	var resolver probe.SymbolResolver
	if table != nil {
		resolver = table
	}

	lines, err := probe.Build(core, info, resolver)
	if err != nil {
		return errors.Annotatef(err, "report failed")
	}

	if jsonOutput {
		return probe.WriteJSON(os.Stdout, lines)
	}
	return probe.Write(os.Stdout, "probe: ", lines)
}

// openTarget attaches to the selected adapter and returns the core, the ROM
// table base it advertises and a function that detaches.
func openTarget(adapter string) (probe.Core, uint32, func(), error) {
	switch strings.ToLower(adapter) {
	case "sim", "simulator":
		prof, err := loadProfile(targetProfile)
		if err != nil {
			return nil, 0, nil, err
		}
		core, err := prof.Core()
		if err != nil {
			return nil, 0, nil, errors.Trace(err)
		}
		return core, prof.ROMBase, func() {}, nil

	case "cmsisdap", "cmsis-dap":
		cfg := dap.DefaultConfig()
		cfg.VendorID = usbVID
		cfg.ProductID = usbPID
		cfg.Serial = adapterSerial
		cfg.ClockHz = adapterSpeed
		cfg.APSel = apSel

		p, err := dap.Open(cfg)
		if err != nil {
			return nil, 0, nil, errors.Trace(err)
		}
		base, err := p.ROMBase()
		if err != nil {
			p.Close()
			return nil, 0, nil, errors.Trace(err)
		}
		closeProbe := func() {
			if err := p.Close(); err != nil {
				glog.Warningf("close probe: %v", err)
			}
		}
		return p, base, closeProbe, nil

	default:
		return nil, 0, nil, errors.NotValidf("adapter type %q (use sim or cmsisdap)", adapter)
	}
}

func loadProfile(path string) (*sim.Profile, error) {
	if path == "" {
		return sim.ParseProfileString(sim.DefaultProfile)
	}
	return sim.LoadProfile(path)
}

// loadArchives merges the symbols of every archive into one table. It
// returns nil when no archive was given.
func loadArchives(specs []string) (*symbols.Table, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	table := symbols.NewTable()
	for _, spec := range specs {
		module, path := symbols.Kernel, spec
		if i := strings.Index(spec, "="); i > 0 {
			module, path = spec[:i], spec[i+1:]
		}

		var (
			t   *symbols.Table
			err error
		)
		if strings.EqualFold(filepath.Ext(path), ".map") {
			t, err = symbols.LoadMap(path, module)
		} else {
			t, err = symbols.LoadELF(path, module)
		}
		if err != nil {
			return nil, errors.Annotatef(err, "failed to load archive %s", path)
		}
		glog.V(1).Infof("archive %s: %d symbols for module %q", path, t.Len(), module)
		table.Merge(t)
	}
	return table, nil
}
