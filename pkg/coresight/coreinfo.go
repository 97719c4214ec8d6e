package coresight

import (
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/idcode"
)

// CoreInfo is what is known about the attached core before any status is
// sampled: which Cortex-M it is, who made the chip around it and which debug
// components sit on the bus.
type CoreInfo struct {
	Part             cortex.Part
	Manufacturer     idcode.JEP106
	ManufacturerPart uint16 // part number from the outermost ROM table
	Components       *Catalog
}

// Vendor classifies the chip manufacturer.
func (ci *CoreInfo) Vendor() idcode.Vendor {
	return idcode.VendorOf(ci.Manufacturer)
}

// Address returns the first base address of a component kind.
func (ci *CoreInfo) Address(kind Kind) (uint32, bool) {
	return ci.Components.Address(kind)
}
