// Package sim provides an in-memory Cortex-M target for tests and for
// running the report without hardware.
package sim

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
)

// Op identifies a debug operation for failure injection and the event log.
type Op uint8

const (
	OpReadWord Op = iota
	OpReadReg
	OpHalt
	OpRun
	OpStep
)

func (o Op) String() string {
	switch o {
	case OpReadWord:
		return "read-word"
	case OpReadReg:
		return "read-reg"
	case OpHalt:
		return "halt"
	case OpRun:
		return "run"
	case OpStep:
		return "step"
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Event records one operation issued against the core.
type Event struct {
	Op  Op
	Arg uint32
}

// Core is a simulated Cortex-M core with a sparse debug address space.
// Reads of unmapped words fail like a bus fault. DHCSR is synthesized so
// that S_HALT and S_REGRDY always follow Halted.
type Core struct {
	ProbeName string
	Serial    string

	Words map[uint32]uint32
	Regs  map[cortex.Register]uint32

	Halted bool

	// StepSize is added to PC on each step; zero models a core spinning on
	// one instruction.
	StepSize uint32

	// Fail makes every call of an operation return the given error.
	Fail map[Op]error
	// FailAt makes word reads at specific addresses fail.
	FailAt map[uint32]error

	events []Event
}

// NewCore constructs an empty running core.
func NewCore(name, serial string) *Core {
	return &Core{
		ProbeName: name,
		Serial:    serial,
		Words:     make(map[uint32]uint32),
		Regs:      make(map[cortex.Register]uint32),
		Fail:      make(map[Op]error),
		FailAt:    make(map[uint32]error),
	}
}

// Events returns a copy of the operation log.
func (c *Core) Events() []Event {
	return append([]Event(nil), c.events...)
}

// Count reports how many times op was issued.
func (c *Core) Count(op Op) int {
	n := 0
	for _, e := range c.events {
		if e.Op == op {
			n++
		}
	}
	return n
}

func (c *Core) record(op Op, arg uint32) error {
	c.events = append(c.events, Event{Op: op, Arg: arg})
	if err := c.Fail[op]; err != nil {
		return err
	}
	return nil
}

func (c *Core) Info() (string, string) {
	return c.ProbeName, c.Serial
}

func (c *Core) ReadWord32(addr uint32) (uint32, error) {
	if err := c.record(OpReadWord, addr); err != nil {
		return 0, err
	}
	if err := c.FailAt[addr]; err != nil {
		return 0, err
	}
	if addr == cortex.RegDHCSR {
		return uint32(c.dhcsr()), nil
	}
	v, ok := c.Words[addr]
	if !ok {
		return 0, errors.Errorf("sim: bus fault reading 0x%08x", addr)
	}
	return v, nil
}

func (c *Core) dhcsr() cortex.DHCSR {
	d := cortex.DHCSR(c.Words[cortex.RegDHCSR])
	d &^= cortex.DHCSRSHalt | cortex.DHCSRSRegRdy | cortex.DHCSRCHalt
	d |= cortex.DHCSRCDebugEn
	if c.Halted {
		d |= cortex.DHCSRSHalt | cortex.DHCSRSRegRdy | cortex.DHCSRCHalt
	}
	return d
}

func (c *Core) ReadReg(reg cortex.Register) (uint32, error) {
	if err := c.record(OpReadReg, uint32(reg)); err != nil {
		return 0, err
	}
	if !c.Halted {
		return 0, errors.Errorf("sim: %s read while running", reg)
	}
	return c.Regs[reg], nil
}

func (c *Core) Halt() error {
	if err := c.record(OpHalt, 0); err != nil {
		return err
	}
	c.Halted = true
	return nil
}

func (c *Core) Run() error {
	if err := c.record(OpRun, 0); err != nil {
		return err
	}
	c.Halted = false
	return nil
}

func (c *Core) Step() error {
	if err := c.record(OpStep, 0); err != nil {
		return err
	}
	if !c.Halted {
		return errors.New("sim: step while running")
	}
	c.Regs[cortex.PC] += c.StepSize
	return nil
}
