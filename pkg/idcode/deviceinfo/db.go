package deviceinfo

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/coresight"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/idcode"
)

// db is the in-memory decoder table
var db = make(map[key]Decoder)

// register adds a decoder for a vendor and core pairing
func register(vendor idcode.Vendor, part cortex.Part, d Decoder) {
	db[key{Vendor: vendor, Part: part}] = d
}

// Lookup returns the decoder for a vendor and core pairing.
func Lookup(vendor idcode.Vendor, part cortex.Part) (Decoder, bool) {
	d, ok := db[key{Vendor: vendor, Part: part}]
	return d, ok
}

// Resolve names the chip described by info, reading its identification
// registers through r. Unknown pairings and failed reads fall back to a
// string carrying the ROM table part number; Resolve never fails.
func Resolve(r coresight.WordReader, info *coresight.CoreInfo) string {
	d, ok := Lookup(info.Vendor(), info.Part)
	if !ok {
		return fmt.Sprintf("<unknown part 0x%x>", info.ManufacturerPart)
	}

	words := make([]uint32, len(d.Registers))
	for i, addr := range d.Registers {
		v, err := r.ReadWord32(addr)
		if err != nil {
			glog.Warningf("chip identification read at 0x%08x failed: %v", addr, err)
			return fmt.Sprintf("<unknown %s 0x%x>", d.Label, info.ManufacturerPart)
		}
		words[i] = v
	}
	return d.Describe(words)
}
