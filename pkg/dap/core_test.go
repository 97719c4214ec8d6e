package dap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/juju/errors"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/coresight"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/probe"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/sim"
)

var _ probe.Core = (*Probe)(nil)

func defaultTarget(t *testing.T) *sim.Core {
	t.Helper()
	prof, err := sim.ParseProfileString(sim.DefaultProfile)
	if err != nil {
		t.Fatalf("ParseProfileString: %v", err)
	}
	core, err := prof.Core()
	if err != nil {
		t.Fatalf("Core: %v", err)
	}
	return core
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.PollLimit = 4
	return cfg
}

func attach(t *testing.T) (*Probe, *fakeDAP) {
	t.Helper()
	f := newFakeDAP(defaultTarget(t))
	p, err := NewProbe(f, testConfig())
	if err != nil {
		t.Fatalf("NewProbe: %v", err)
	}
	return p, f
}

func TestNewProbeAttach(t *testing.T) {
	p, f := attach(t)

	name, serial := p.Info()
	if name != "Raspberry Pi Debugprobe on Pico (CMSIS-DAP)" || serial != "E6614C311B8F6B2A" {
		t.Errorf("Info() = %q, %q", name, serial)
	}
	if p.DPIDR() != 0x0BC12477 {
		t.Errorf("DPIDR() = 0x%08x", p.DPIDR())
	}
	if f.ctrl != ctrlPowerUpReq {
		t.Errorf("CTRL/STAT = 0x%08x, want power-up request", f.ctrl)
	}
	if f.csw != cswWord {
		t.Errorf("CSW = 0x%08x, want 0x%08x", f.csw, cswWord)
	}
	if f.aborts != 1 {
		t.Errorf("aborts = %d, want 1", f.aborts)
	}
}

func TestNewProbeNameFallback(t *testing.T) {
	f := newFakeDAP(defaultTarget(t))
	f.vendor, f.product = "", ""

	p, err := NewProbe(f, testConfig())
	if err != nil {
		t.Fatalf("NewProbe: %v", err)
	}
	if name, _ := p.Info(); name != "CMSIS-DAP" {
		t.Errorf("name = %q, want CMSIS-DAP", name)
	}
}

func TestNewProbeErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeDAP, *Config)
	}{
		{"no power-up ack", func(f *fakeDAP, _ *Config) { f.noPowerAck = true }},
		{"no access port", func(f *fakeDAP, _ *Config) { f.apIDR = 0 }},
		{"access port out of range", func(_ *fakeDAP, cfg *Config) { cfg.APSel = 1 }},
		{"invalid clock", func(_ *fakeDAP, cfg *Config) { cfg.ClockHz = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeDAP(defaultTarget(t))
			cfg := testConfig()
			tt.setup(f, cfg)
			if _, err := NewProbe(f, cfg); err == nil {
				t.Fatalf("NewProbe succeeded")
			}
		})
	}
}

func TestReadWord32(t *testing.T) {
	p, f := attach(t)
	selects := f.selects

	for i := 0; i < 2; i++ {
		v, err := p.ReadWord32(cortex.RegCPUID)
		if err != nil {
			t.Fatalf("ReadWord32: %v", err)
		}
		if v != 0x411FC272 {
			t.Errorf("CPUID = 0x%08x", v)
		}
	}
	// one SELECT to switch from the IDR bank, then cached
	if f.selects != selects+1 {
		t.Errorf("SELECT writes = %d, want %d", f.selects, selects+1)
	}
}

func TestWriteWord32(t *testing.T) {
	p, f := attach(t)

	if err := p.WriteWord32(0x24000000, 0xDEADBEEF); err != nil {
		t.Fatalf("WriteWord32: %v", err)
	}
	if got := f.target.Words[0x24000000]; got != 0xDEADBEEF {
		t.Errorf("target word = 0x%08x", got)
	}
}

func TestUnalignedAccess(t *testing.T) {
	p, _ := attach(t)

	if _, err := p.ReadWord32(0xE000ED02); err == nil {
		t.Errorf("unaligned read accepted")
	}
	if err := p.WriteWord32(0x24000001, 0); err == nil {
		t.Errorf("unaligned write accepted")
	}
}

func TestReadFaultClearsStickyErrors(t *testing.T) {
	p, f := attach(t)
	aborts, selects := f.aborts, f.selects

	if _, err := p.ReadWord32(0x30000000); err == nil {
		t.Fatalf("read of unmapped word succeeded")
	}
	if f.aborts != aborts+1 {
		t.Errorf("aborts = %d, want %d", f.aborts, aborts+1)
	}

	if _, err := p.ReadWord32(cortex.RegCPUID); err != nil {
		t.Fatalf("read after fault: %v", err)
	}
	// SELECT is rewritten after a fault
	if f.selects != selects+2 {
		t.Errorf("SELECT writes = %d, want %d", f.selects, selects+2)
	}
}

func TestHaltStepRun(t *testing.T) {
	p, f := attach(t)

	if err := p.Halt(); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if !f.target.Halted {
		t.Fatalf("target not halted")
	}
	pc, err := p.ReadReg(cortex.PC)
	if err != nil || pc != 0x08000400 {
		t.Fatalf("PC = 0x%08x, %v", pc, err)
	}
	lr, err := p.ReadReg(cortex.LR)
	if err != nil || lr != 0x08000211 {
		t.Fatalf("LR = 0x%08x, %v", lr, err)
	}

	if err := p.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if pc, err := p.ReadReg(cortex.PC); err != nil || pc != 0x08000402 {
		t.Errorf("PC after step = 0x%08x, %v", pc, err)
	}

	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.target.Halted {
		t.Errorf("target still halted")
	}
	if _, err := p.ReadReg(cortex.PC); err == nil {
		t.Errorf("register read on a running core succeeded")
	}
}

func TestHaltTimesOut(t *testing.T) {
	p, f := attach(t)
	f.target.Fail[sim.OpHalt] = errors.New("core stuck")

	if err := p.Halt(); err == nil {
		t.Fatalf("Halt succeeded on a core that never halts")
	}
}

func TestROMBase(t *testing.T) {
	tests := []struct {
		base uint32
		want uint32
	}{
		{0xE00FF003, 0xE00FF000},
		{0xE0041001, 0xE0041000},
		{0xFFFFFFFF, cortex.RegROMBase},
		{0xE0040002, cortex.RegROMBase},
	}
	for _, tt := range tests {
		p, f := attach(t)
		f.apBase = tt.base
		got, err := p.ROMBase()
		if err != nil {
			t.Fatalf("ROMBase: %v", err)
		}
		if got != tt.want {
			t.Errorf("ROMBase() with BASE 0x%08x = 0x%08x, want 0x%08x", tt.base, got, tt.want)
		}
	}
}

func TestClose(t *testing.T) {
	p, f := attach(t)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.closed {
		t.Errorf("transport not closed")
	}
}

// The report read over SWD matches the one read from the target directly.
func TestReportOverSWD(t *testing.T) {
	p, f := attach(t)

	base, err := p.ROMBase()
	if err != nil {
		t.Fatalf("ROMBase: %v", err)
	}
	info, err := coresight.ReadCoreInfo(p, base)
	if err != nil {
		t.Fatalf("ReadCoreInfo: %v", err)
	}
	got, err := probe.Build(p, info, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if f.target.Halted {
		t.Errorf("target left halted")
	}

	direct := defaultTarget(t)
	directInfo, err := coresight.ReadCoreInfo(direct, cortex.RegROMBase)
	if err != nil {
		t.Fatalf("ReadCoreInfo: %v", err)
	}
	want, err := probe.Build(direct, directInfo, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(got) < 2 || got[0].Value != "Raspberry Pi Debugprobe on Pico (CMSIS-DAP)" {
		t.Fatalf("probe line = %v", got)
	}
	if diff := cmp.Diff(want[2:], got[2:]); diff != "" {
		t.Errorf("report mismatch (-direct +swd):\n%s", diff)
	}
}
