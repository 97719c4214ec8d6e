// Package probe builds the diagnostic report of an attached Cortex-M core:
// identity, run state, debug units, ITM configuration and registers.
package probe

import (
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/symbols"
)

// Core is a live debug session on one Cortex-M core. The report borrows it
// for its whole duration; nothing here is safe for concurrent use.
type Core interface {
	// Info names the debug probe and, when it has one, its serial number.
	Info() (name, serial string)

	ReadWord32(addr uint32) (uint32, error)
	ReadReg(reg cortex.Register) (uint32, error)

	Halt() error
	Run() error
	Step() error
}

// SymbolResolver maps a code address to the symbol containing it.
type SymbolResolver interface {
	Resolve(addr uint32) (symbols.Symbol, bool)
}
