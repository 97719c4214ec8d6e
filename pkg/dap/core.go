package dap

import (
	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
)

// DHCSR writes
const (
	dhcsrRun  = cortex.DHCSRKey | uint32(cortex.DHCSRCDebugEn)
	dhcsrHalt = cortex.DHCSRKey | uint32(cortex.DHCSRCDebugEn|cortex.DHCSRCHalt)
	dhcsrStep = cortex.DHCSRKey | uint32(cortex.DHCSRCDebugEn|cortex.DHCSRCStep)
)

// Info names the probe and its serial number.
func (p *Probe) Info() (string, string) {
	return p.name, p.serial
}

// DPIDR returns the debug port identification read at attach.
func (p *Probe) DPIDR() uint32 {
	return p.dpidr
}

// ReadWord32 reads one word through the MEM-AP.
func (p *Probe) ReadWord32(addr uint32) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readWord(addr)
}

// WriteWord32 writes one word through the MEM-AP.
func (p *Probe) WriteWord32(addr, val uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeWord(addr, val)
}

func (p *Probe) readWord(addr uint32) (uint32, error) {
	if addr&0x3 != 0 {
		return 0, errors.Errorf("unaligned word read at 0x%08x", addr)
	}
	xfers := append(p.selectAP(APTAR),
		Transfer{AP: true, Addr: APTAR, Value: addr},
		Transfer{AP: true, Read: true, Addr: APDRW},
	)
	vals, err := p.transfer(xfers...)
	if err != nil {
		return 0, errors.Annotatef(err, "read 0x%08x", addr)
	}
	return vals[0], nil
}

func (p *Probe) writeWord(addr, val uint32) error {
	if addr&0x3 != 0 {
		return errors.Errorf("unaligned word write at 0x%08x", addr)
	}
	xfers := append(p.selectAP(APTAR),
		Transfer{AP: true, Addr: APTAR, Value: addr},
		Transfer{AP: true, Addr: APDRW, Value: val},
	)
	if _, err := p.transfer(xfers...); err != nil {
		return errors.Annotatef(err, "write 0x%08x", addr)
	}
	return nil
}

// ROMBase returns the debug ROM table address from the MEM-AP BASE register.
func (p *Probe) ROMBase() (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	base, err := p.readAP(APBase)
	if err != nil {
		return 0, errors.Annotatef(err, "read AP BASE")
	}
	// bit 0: entry present, 0xFFFFFFFF: legacy "no entry"
	if base == 0xFFFFFFFF || base&0x1 == 0 {
		return cortex.RegROMBase, nil
	}
	return base & 0xFFFFF000, nil
}

// waitDHCSR polls DHCSR until cond holds.
func (p *Probe) waitDHCSR(what string, cond func(cortex.DHCSR) bool) error {
	for i := 0; i < p.cfg.PollLimit; i++ {
		v, err := p.readWord(cortex.RegDHCSR)
		if err != nil {
			return errors.Trace(err)
		}
		if cond(cortex.DHCSR(v)) {
			return nil
		}
	}
	return errors.Errorf("timed out waiting for %s", what)
}

// ReadReg reads a core register through DCRSR and DCRDR. The core must be
// halted.
func (p *Probe) ReadReg(reg cortex.Register) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.writeWord(cortex.RegDCRSR, uint32(reg)); err != nil {
		return 0, errors.Annotatef(err, "select %s", reg)
	}
	if err := p.waitDHCSR("S_REGRDY", cortex.DHCSR.RegReady); err != nil {
		return 0, errors.Annotatef(err, "read %s", reg)
	}
	val, err := p.readWord(cortex.RegDCRDR)
	if err != nil {
		return 0, errors.Annotatef(err, "read %s", reg)
	}
	glog.V(4).Infof("%s = 0x%08x", reg, val)
	return val, nil
}

// Halt stops the core and waits for S_HALT.
func (p *Probe) Halt() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.writeWord(cortex.RegDHCSR, dhcsrHalt); err != nil {
		return errors.Annotatef(err, "halt")
	}
	return errors.Annotatef(p.waitDHCSR("halt", cortex.DHCSR.Halted), "halt")
}

// Run resumes the core.
func (p *Probe) Run() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return errors.Annotatef(p.writeWord(cortex.RegDHCSR, dhcsrRun), "run")
}

// Step executes one instruction and waits for the core to halt again.
func (p *Probe) Step() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.writeWord(cortex.RegDHCSR, dhcsrStep); err != nil {
		return errors.Annotatef(err, "step")
	}
	return errors.Annotatef(p.waitDHCSR("step", cortex.DHCSR.Halted), "step")
}
