package deviceinfo

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/idcode"
)

// DBGMCU_IDCODE locations
const (
	stm32G0IDCode uint32 = 0x40015800
	stm32F4IDCode uint32 = 0xE0042000
	stm32H7IDCode uint32 = 0x5C001000
)

// DBGMCUIDCode is the STM32 DBGMCU_IDCODE register.
type DBGMCUIDCode uint32

func (c DBGMCUIDCode) DevID() uint16 { return uint16(c & 0xFFF) }
func (c DBGMCUIDCode) RevID() uint16 { return uint16(c >> 16) }

// stm32Families maps DBGMCU DEV_ID to a family name
var stm32Families = map[uint16]string{}

func registerSTM32(devID uint16, name string) {
	stm32Families[devID] = name
}

// STM32Family names an STM32 by its DBGMCU DEV_ID.
func STM32Family(devID uint16) string {
	if name, ok := stm32Families[devID]; ok {
		return name
	}
	return fmt.Sprintf("<unknown STM32 0x%x>", devID)
}

func stm32DBGMCU(label string, addr uint32) Decoder {
	return Decoder{
		Label:     label,
		Registers: []uint32{addr},
		Describe: func(words []uint32) string {
			id := DBGMCUIDCode(words[0])
			return fmt.Sprintf("%s, revision 0x%x", STM32Family(id.DevID()), id.RevID())
		},
	}
}

// STMicroelectronics device entries
func init() {
	// STM32G0 parts carry an ARM ROM table, not an ST one
	register(idcode.VendorARM, cortex.PartCortexM0Plus, stm32DBGMCU("ARM part", stm32G0IDCode))
	register(idcode.VendorST, cortex.PartCortexM4, stm32DBGMCU("ST part", stm32F4IDCode))
	register(idcode.VendorST, cortex.PartCortexM7, stm32DBGMCU("ST part", stm32H7IDCode))

	// STM32F1 series
	registerSTM32(0x410, "STM32F10x (Medium-density)")
	registerSTM32(0x412, "STM32F10x (Low-density)")
	registerSTM32(0x414, "STM32F10x (High-density)")

	// STM32F3 series
	registerSTM32(0x422, "STM32F30x/STM32F31x")

	// STM32F4 series
	registerSTM32(0x413, "STM32F40x/STM32F41x")
	registerSTM32(0x419, "STM32F42x/STM32F43x")
	registerSTM32(0x423, "STM32F401xB/C")
	registerSTM32(0x433, "STM32F401xD/E")
	registerSTM32(0x431, "STM32F411xC/E")
	registerSTM32(0x421, "STM32F446xx")
	registerSTM32(0x434, "STM32F469xx/STM32F479xx")
	registerSTM32(0x441, "STM32F412")
	registerSTM32(0x463, "STM32F413/STM32F423")

	// STM32F7 series
	registerSTM32(0x449, "STM32F74x/STM32F75x")
	registerSTM32(0x451, "STM32F76x/STM32F77x")
	registerSTM32(0x452, "STM32F72x/STM32F73x")

	// STM32H7 series
	registerSTM32(0x450, "STM32H7")
	registerSTM32(0x480, "STM32H7A3/B3/B0")
	registerSTM32(0x483, "STM32H72x/STM32H73x")

	// STM32G0 series
	registerSTM32(0x460, "STM32G071xx/STM32G081xx")
	registerSTM32(0x456, "STM32G051xx/STM32G061xx")
	registerSTM32(0x466, "STM32G031xx/STM32G041xx")
	registerSTM32(0x467, "STM32G0B1xx/STM32G0C1xx")
}
