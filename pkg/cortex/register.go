package cortex

import "fmt"

// Register is a core register selector as written to DCRSR.REGSEL.
type Register uint16

const (
	R0 Register = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP
	LR
	PC
	XPSR
	MSP
	PSP
)

// SPR packs CONTROL, FAULTMASK, BASEPRI and PRIMASK.
const SPR Register = 20

// NumRegisterSlots is the REGSEL range walked when dumping registers.
const NumRegisterSlots = 31

var registerNames = map[Register]string{
	R0: "R0", R1: "R1", R2: "R2", R3: "R3", R4: "R4", R5: "R5", R6: "R6",
	R7: "R7", R8: "R8", R9: "R9", R10: "R10", R11: "R11", R12: "R12",
	SP: "SP", LR: "LR", PC: "PC", XPSR: "xPSR", MSP: "MSP", PSP: "PSP",
	SPR: "SPR",
}

// RegisterFromIndex returns the register at a REGSEL index, if one is defined.
func RegisterFromIndex(i int) (Register, bool) {
	r := Register(i)
	_, ok := registerNames[r]
	return r, ok
}

// RegisterByName resolves a register from its display name, case-insensitive.
func RegisterByName(name string) (Register, bool) {
	for r, n := range registerNames {
		if foldName(n) == foldName(name) {
			return r, true
		}
	}
	return 0, false
}

func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return name
	}
	return fmt.Sprintf("REG%d", uint16(r))
}
