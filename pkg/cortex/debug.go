// Package cortex decodes the ARMv6-M/ARMv7-M/ARMv8-M debug registers used to
// report on a live Cortex-M target: core identity, halt and fault status,
// trace enables and the core register file.
//
// Doc: ARMv7-M Architecture Reference Manual, chapter C1.
package cortex

// Memory-mapped debug and trace registers.
const (
	RegCPUID   uint32 = 0xE000ED00
	RegDFSR    uint32 = 0xE000ED30
	RegDHCSR   uint32 = 0xE000EDF0
	RegDCRSR   uint32 = 0xE000EDF4
	RegDCRDR   uint32 = 0xE000EDF8
	RegDEMCR   uint32 = 0xE000EDFC
	RegITMTER  uint32 = 0xE0000E00
	RegITMTCR  uint32 = 0xE0000E80
	RegROMBase uint32 = 0xE00FF000

	// DHCSRKey must accompany every DHCSR write.
	DHCSRKey uint32 = 0xA05F0000
)

// DHCSR is the Debug Halting Control and Status Register.
type DHCSR uint32

const (
	DHCSRCDebugEn   DHCSR = 1 << 0
	DHCSRCHalt      DHCSR = 1 << 1
	DHCSRCStep      DHCSR = 1 << 2
	DHCSRCMaskInts  DHCSR = 1 << 3
	DHCSRSRegRdy    DHCSR = 1 << 16
	DHCSRSHalt      DHCSR = 1 << 17
	DHCSRSSleep     DHCSR = 1 << 18
	DHCSRSLockup    DHCSR = 1 << 19
	DHCSRSRetireSt  DHCSR = 1 << 24
	DHCSRSResetSt   DHCSR = 1 << 25
	DHCSRSRestartSt DHCSR = 1 << 26
)

func (d DHCSR) DebugEnabled() bool { return d&DHCSRCDebugEn != 0 }
func (d DHCSR) RegReady() bool     { return d&DHCSRSRegRdy != 0 }
func (d DHCSR) Halted() bool       { return d&DHCSRSHalt != 0 }
func (d DHCSR) Sleeping() bool     { return d&DHCSRSSleep != 0 }
func (d DHCSR) LockedUp() bool     { return d&DHCSRSLockup != 0 }

// RetireStatus is set periodically while instructions retire; it is sticky
// until read and says nothing about the instant it is sampled.
func (d DHCSR) RetireStatus() bool  { return d&DHCSRSRetireSt != 0 }
func (d DHCSR) ResetStatus() bool   { return d&DHCSRSResetSt != 0 }
func (d DHCSR) RestartStatus() bool { return d&DHCSRSRestartSt != 0 }

// DFSR is the Debug Fault Status Register.
type DFSR uint32

const (
	DFSRHalted   DFSR = 1 << 0
	DFSRBkpt     DFSR = 1 << 1
	DFSRDWTTrap  DFSR = 1 << 2
	DFSRVCatch   DFSR = 1 << 3
	DFSRExternal DFSR = 1 << 4
)

func (d DFSR) Halted() bool      { return d&DFSRHalted != 0 }
func (d DFSR) Breakpoint() bool  { return d&DFSRBkpt != 0 }
func (d DFSR) Watchpoint() bool  { return d&DFSRDWTTrap != 0 }
func (d DFSR) VectorCatch() bool { return d&DFSRVCatch != 0 }
func (d DFSR) External() bool    { return d&DFSRExternal != 0 }

// DEMCR is the Debug Exception and Monitor Control Register.
type DEMCR uint32

const DEMCRTrcEna DEMCR = 1 << 24

// TraceEnabled reports the global DWT/ITM enable.
func (d DEMCR) TraceEnabled() bool { return d&DEMCRTrcEna != 0 }

// ITMTCR is the ITM Trace Control Register.
type ITMTCR uint32

func (t ITMTCR) ITMEnabled() bool { return t&1 != 0 }
func (t ITMTCR) Busy() bool       { return t&(1<<23) != 0 }
func (t ITMTCR) TraceBusID() uint8 {
	return uint8(t>>16) & 0x7F
}

// ITMTER is the ITM Trace Enable Register; bit n enables stimulus port n.
type ITMTER uint32
