package probe

import (
	"strings"
	"testing"

	"github.com/juju/errors"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/sim"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/symbols"
)

// everything resolves, four bytes into a task symbol
type resolveAll struct{}

func (resolveAll) Resolve(addr uint32) (symbols.Symbol, bool) {
	return symbols.Symbol{Module: "task", Name: "f", Addr: addr - 4, Size: 8}, true
}

func TestRegistersAnnotateOnlyLowSixteen(t *testing.T) {
	core := sim.NewCore("sim", "")
	core.Halted = true
	for i := 0; i < cortex.NumRegisterSlots; i++ {
		core.Regs[cortex.Register(i)] = 0x08000000 + uint32(i)*0x10
	}

	lines, err := Registers(core, cortex.DHCSRSHalt, resolveAll{})
	if err != nil {
		t.Fatalf("Registers: %v", err)
	}
	if len(lines) != 20 {
		t.Fatalf("got %d registers, want 20", len(lines))
	}

	for i, l := range lines {
		annotated := strings.Contains(l.Value, "<- task:f+0x4")
		if i < 16 && !annotated {
			t.Errorf("%s = %q, want annotation", l.Label, l.Value)
		}
		if i >= 16 && annotated {
			t.Errorf("%s = %q, must not be annotated", l.Label, l.Value)
		}
	}
	if lines[15].Label != "PC" || lines[16].Label != "xPSR" || lines[19].Label != "SPR" {
		t.Errorf("labels: %s %s %s", lines[15].Label, lines[16].Label, lines[19].Label)
	}
}

func TestRegisterValueFormat(t *testing.T) {
	tbl := symbols.NewTable()
	tbl.Add(symbols.Symbol{Module: symbols.Kernel, Name: "main", Addr: 0x08000101, Size: 0x40})
	tbl.Add(symbols.Symbol{Module: "ping", Name: "ping::main", Addr: 0x08020000, Size: 0x80})

	tests := []struct {
		reg  cortex.Register
		val  uint32
		want string
	}{
		{cortex.PC, 0x08000122, "0x8000122  <- main+0x22"},
		{cortex.LR, 0x08020011, "0x8020011  <- ping:ping::main+0x11"},
		{cortex.R0, 0x20000000, "0x20000000"},
		{cortex.R1, 0x0, "0x0       "},
		{cortex.XPSR, 0x08000122, "0x8000122 "},
	}
	for _, tt := range tests {
		if got := registerValue(tt.reg, tt.val, tbl); got != tt.want {
			t.Errorf("registerValue(%s, %#x) = %q, want %q", tt.reg, tt.val, got, tt.want)
		}
	}

	if got := registerValue(cortex.PC, 0x08000122, nil); got != "0x8000122 " {
		t.Errorf("nil resolver = %q", got)
	}
	var none *symbols.Table
	if got := registerValue(cortex.PC, 0x08000122, none); got != "0x8000122 " {
		t.Errorf("nil table = %q", got)
	}
}

func TestRegistersHaltGuard(t *testing.T) {
	t.Run("running core is halted then resumed", func(t *testing.T) {
		core := sim.NewCore("sim", "")
		if _, err := Registers(core, 0, nil); err != nil {
			t.Fatalf("Registers: %v", err)
		}
		if core.Halted {
			t.Errorf("core left halted")
		}
		if core.Count(sim.OpHalt) != 1 || core.Count(sim.OpRun) != 1 {
			t.Errorf("halts=%d runs=%d", core.Count(sim.OpHalt), core.Count(sim.OpRun))
		}
	})

	t.Run("halted core is left alone", func(t *testing.T) {
		core := sim.NewCore("sim", "")
		core.Halted = true
		if _, err := Registers(core, cortex.DHCSRSHalt, nil); err != nil {
			t.Fatalf("Registers: %v", err)
		}
		if !core.Halted || core.Count(sim.OpHalt) != 0 || core.Count(sim.OpRun) != 0 {
			t.Errorf("halted=%v halts=%d runs=%d", core.Halted, core.Count(sim.OpHalt), core.Count(sim.OpRun))
		}
	})

	t.Run("read failure still resumes", func(t *testing.T) {
		core := sim.NewCore("sim", "")
		core.Fail[sim.OpReadReg] = errors.New("DCRDR timeout")
		lines, err := Registers(core, 0, nil)
		if err == nil || lines != nil {
			t.Fatalf("Registers = %v, %v; want error and no lines", lines, err)
		}
		if core.Halted || core.Count(sim.OpRun) != 1 {
			t.Errorf("core not resumed after failure")
		}
	})

	t.Run("halt failure", func(t *testing.T) {
		core := sim.NewCore("sim", "")
		core.Fail[sim.OpHalt] = errors.New("halt timeout")
		if _, err := Registers(core, 0, nil); err == nil {
			t.Fatalf("expected halt failure")
		}
		if core.Count(sim.OpReadReg) != 0 || core.Count(sim.OpRun) != 0 {
			t.Errorf("no reads or resume expected after failed halt")
		}
	})

	t.Run("resume failure", func(t *testing.T) {
		core := sim.NewCore("sim", "")
		core.Fail[sim.OpRun] = errors.New("probe gone")
		lines, err := Registers(core, 0, nil)
		if err == nil || lines != nil {
			t.Fatalf("Registers = %v, %v; want resume error", lines, err)
		}
	})
}
