package idcode

import "fmt"

// JEP106 is a manufacturer identity as carried by CoreSight PIDR registers
// and JTAG IDCODEs: a continuation count (number of 0x7F bytes before the
// identity byte) and a 7-bit identity code.
type JEP106 struct {
	CC uint8 // continuation count, [3:0] of PIDR4
	ID uint8 // identity code, 7 bits, no parity
}

// Code packs the identity into the 11-bit layout used by JTAG IDCODE [11:1].
func (j JEP106) Code() uint16 {
	return uint16(j.CC&0xF)<<7 | uint16(j.ID&0x7F)
}

// FromCode unpacks an 11-bit IDCODE manufacturer field.
func FromCode(code uint16) JEP106 {
	return JEP106{CC: uint8(code>>7) & 0xF, ID: uint8(code & 0x7F)}
}

// Name returns the manufacturer name if the code is in the table.
func (j JEP106) Name() (string, bool) {
	m, ok := LookupManufacturer(j.Code())
	if !ok {
		return "", false
	}
	return m.Name, true
}

// String renders the resolved name, or the raw pair when unresolved.
func (j JEP106) String() string {
	if name, ok := j.Name(); ok {
		return name
	}
	return fmt.Sprintf("<JEP106 [0x%x, 0x%x]>", j.CC, j.ID)
}

// Manufacturer represents a JEP106 manufacturer entry
type Manufacturer struct {
	Code         uint16 // packed JEP106 code
	Name         string // "STMicroelectronics"
	Abbreviation string // "ST"
}

// Vendor is the coarse silicon vendor classification used to select
// vendor-specific identification registers.
type Vendor int

const (
	VendorUnknown Vendor = iota
	VendorARM
	VendorST
	VendorNXP
	VendorNordic
	VendorRaspberryPi
)

var vendorNames = map[Vendor]string{
	VendorUnknown:     "Unknown",
	VendorARM:         "ARM",
	VendorST:          "ST",
	VendorNXP:         "NXP",
	VendorNordic:      "Nordic",
	VendorRaspberryPi: "RaspberryPi",
}

func (v Vendor) String() string {
	if name, ok := vendorNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Vendor(%d)", int(v))
}

var (
	JEP106ARM         = JEP106{CC: 0x4, ID: 0x3B}
	JEP106ST          = JEP106{CC: 0x0, ID: 0x20}
	JEP106NXP         = JEP106{CC: 0x0, ID: 0x15}
	JEP106Nordic      = JEP106{CC: 0x2, ID: 0x44}
	JEP106RaspberryPi = JEP106{CC: 0x9, ID: 0x13}
)

// VendorOf maps a manufacturer identity to a Vendor.
func VendorOf(j JEP106) Vendor {
	switch j {
	case JEP106ARM:
		return VendorARM
	case JEP106ST:
		return VendorST
	case JEP106NXP:
		return VendorNXP
	case JEP106Nordic:
		return VendorNordic
	case JEP106RaspberryPi:
		return VendorRaspberryPi
	}
	return VendorUnknown
}
