package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/dap"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List available debug probes",
	Long: `Scan the host for CMSIS-DAP probes (Raspberry Pi debugprobe, DAPLink, etc.)
and print a summary of what was found. The simulator is always listed.`,
	Args: cobra.NoArgs,
	RunE: runInterfaces,
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	infos, err := dap.DiscoverInterfaces(ctx)
	if err != nil {
		return errors.Annotatef(err, "discover interfaces")
	}

	fmt.Println("Detected debug interfaces:")
	for _, iface := range infos {
		printInterface(iface)
	}
	return nil
}

func printInterface(iface dap.InterfaceInfo) {
	if iface.Kind == dap.InterfaceKindSim {
		fmt.Printf("  - %s [%s]\n", iface.Label(), iface.Kind)
		return
	}
	serial := iface.Serial
	if serial == "" {
		serial = "-"
	}
	fmt.Printf("  - %s [%s] (VID:PID %04X:%04X, serial %s)\n",
		iface.Label(), iface.Kind, iface.VendorID, iface.ProductID, serial)
}
