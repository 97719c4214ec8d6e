package deviceinfo

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/idcode"
)

// LPC55 SYSCON identification registers
const (
	lpc55DieID     uint32 = 0x50000FFC
	lpc55DeviceID0 uint32 = 0x50000FF8
)

// lpc55Revisions maps DIEID REV_ID to the silicon revision marking
var lpc55Revisions = map[uint32]string{
	0x0: "0A",
	0x1: "1B",
}

// NXP device entries
func init() {
	register(idcode.VendorNXP, cortex.PartCortexM33, Decoder{
		Label:     "NXP M33",
		Registers: []uint32{lpc55DieID, lpc55DeviceID0},
		Describe: func(words []uint32) string {
			rev := words[0] & 0xF
			romRev := (words[1] >> 20) & 0xF
			name, ok := lpc55Revisions[rev]
			if !ok {
				name = "<unknown>"
			}
			return fmt.Sprintf("LPC55, ROM revision %d, device revision 0x%x (%s)", romRev, rev, name)
		},
	})
}
