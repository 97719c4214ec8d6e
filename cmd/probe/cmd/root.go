package cmd

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "probe",
	Short: "Cortex-M debug session diagnostics",
	Long: `Attach to a Cortex-M core through a CMSIS-DAP probe (or the built-in
simulator) and report what the debugger sees: probe and chip identity, run
state, CoreSight debug units, ITM configuration and a register dump.

Examples:
  probe report                                     # Report on the simulated STM32H7
  probe report -t board.sexp --archive app.map     # Simulated target with symbols
  probe report -a cmsisdap --speed 4000000         # Report through a debugprobe
  probe interfaces                                 # List attached probes`,
	Version: "0.9.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			raiseLogLevel(1)
		}
	},
}

// Execute runs the root command
func Execute() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		glog.Flush()
		os.Exit(1)
	}
}

func init() {
	// log to stderr unless --logtostderr=false
	flag.Set("logtostderr", "true")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// glog's -v would clash with --verbose; its level stays reachable as --log-level
	flag.CommandLine.VisitAll(func(f *flag.Flag) {
		if f.Name == "v" {
			return
		}
		rootCmd.PersistentFlags().AddGoFlag(f)
	})
	rootCmd.PersistentFlags().AddFlag(&pflag.Flag{
		Name:  "log-level",
		Usage: "glog verbosity level",
		Value: flagValue{flag.Lookup("v").Value},
	})
}

// raiseLogLevel sets glog's verbosity to at least level.
func raiseLogLevel(level int) {
	v := flag.Lookup("v").Value
	if cur, err := strconv.Atoi(v.String()); err == nil && cur >= level {
		return
	}
	v.Set(strconv.Itoa(level))
}

// flagValue adapts a standard library flag.Value to pflag.
type flagValue struct {
	flag.Value
}

func (flagValue) Type() string { return "level" }
