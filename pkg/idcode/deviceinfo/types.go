package deviceinfo

import (
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/idcode"
)

// key selects a decoder by chip vendor and the Cortex-M core it carries.
type key struct {
	Vendor idcode.Vendor
	Part   cortex.Part
}

// Decoder names a chip from vendor-specific identification registers.
type Decoder struct {
	// Label is used in the fallback "<unknown Label 0xPART>" when a
	// register cannot be read.
	Label string

	// Registers are read in order and handed to Describe.
	Registers []uint32

	Describe func(words []uint32) string
}
