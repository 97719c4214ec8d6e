package idcode

// bank builds the packed code for an entry in JEP106 bank n (1-based).
func bank(n int, id uint8) uint16 {
	return JEP106{CC: uint8(n - 1), ID: id}.Code()
}

// manufacturers is the JEP106 manufacturer database, keyed by packed code.
var manufacturers = map[uint16]Manufacturer{}

func init() {
	for _, m := range []struct {
		bank int
		id   uint8
		name string
		abbr string
	}{
		{1, 0x01, "AMD", "AMD"},
		{1, 0x04, "Fujitsu", "Fujitsu"},
		{1, 0x07, "Hitachi", "Hitachi"},
		{1, 0x09, "Intel", "Intel"},
		{1, 0x0E, "Freescale (Motorola)", "Freescale"},
		{1, 0x10, "NEC", "NEC"},
		{1, 0x15, "NXP (Philips)", "NXP"},
		{1, 0x17, "Texas Instruments", "TI"},
		{1, 0x1C, "Mitsubishi", "Mitsubishi"},
		{1, 0x1F, "Atmel", "Atmel"},
		{1, 0x20, "STMicroelectronics", "ST"},
		{1, 0x21, "Lattice Semi.", "Lattice"},
		{1, 0x24, "IBM", "IBM"},
		{1, 0x29, "Microchip Technology", "Microchip"},
		{1, 0x2C, "Micron Technology", "Micron"},
		{1, 0x34, "Cypress", "Cypress"},
		{1, 0x41, "Infineon (Siemens)", "Infineon"},
		{1, 0x49, "Xilinx", "Xilinx"},
		{1, 0x4E, "Samsung", "Samsung"},
		{1, 0x65, "Analog Devices", "ADI"},
		{1, 0x6E, "Altera", "Altera"},
		{1, 0x70, "Qualcomm", "Qualcomm"},
		{3, 0x44, "Nordic VLSI ASA", "Nordic"},
		{5, 0x3B, "ARM Ltd", "ARM"},
		{10, 0x13, "Raspberry Pi Trading Ltd", "RPi"},
	} {
		code := bank(m.bank, m.id)
		manufacturers[code] = Manufacturer{Code: code, Name: m.name, Abbreviation: m.abbr}
	}
}

// LookupManufacturer returns manufacturer info for a packed JEP106 code
func LookupManufacturer(code uint16) (Manufacturer, bool) {
	m, ok := manufacturers[code]
	return m, ok
}
