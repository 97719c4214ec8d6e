package sim

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/coresight"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/idcode"
)

func TestDefaultProfile(t *testing.T) {
	p, err := ParseProfileString(DefaultProfile)
	if err != nil {
		t.Fatalf("ParseProfileString: %v", err)
	}
	if p.ProbeName != "simulator" || p.Serial != "" {
		t.Errorf("probe = %q %q", p.ProbeName, p.Serial)
	}
	if p.Designer != idcode.JEP106ST || p.Part != 0x450 {
		t.Errorf("rom identity = %v part %#x", p.Designer, p.Part)
	}
	if len(p.Components) != 9 {
		t.Errorf("components = %d, want 9", len(p.Components))
	}
	if p.Halted || p.StepSize != 2 {
		t.Errorf("halted=%v step=%d", p.Halted, p.StepSize)
	}
	if p.Regs[cortex.XPSR] != 0x61000000 {
		t.Errorf("xPSR = %#x", p.Regs[cortex.XPSR])
	}
}

func TestProfileCoreWalksROMTable(t *testing.T) {
	p, err := LoadProfile("testdata/lpc55.sexp")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	c, err := p.Core()
	if err != nil {
		t.Fatalf("Core: %v", err)
	}
	if !c.Halted || c.Serial != "SIM-LPC55" {
		t.Errorf("halted=%v serial=%q", c.Halted, c.Serial)
	}

	info, err := coresight.ReadCoreInfo(c, p.ROMBase)
	if err != nil {
		t.Fatalf("ReadCoreInfo: %v", err)
	}
	if info.Part != cortex.PartCortexM33 || info.Vendor() != idcode.VendorNXP || info.ManufacturerPart != 0x3 {
		t.Errorf("info = %v %v %#x", info.Part, info.Vendor(), info.ManufacturerPart)
	}

	want := []coresight.Kind{coresight.KindROM, coresight.KindSCS, coresight.KindDWT, coresight.KindFPB, coresight.KindCTI}
	if diff := cmp.Diff(want, info.Components.Kinds()); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestProfileComponentsOutsideROMWindow(t *testing.T) {
	p := NewProfile()
	p.CPUID = 0x411FC272
	p.Components = []Component{{Kind: coresight.KindCTI, Base: 0x5C011000}}

	c, err := p.Core()
	if err != nil {
		t.Fatalf("Core: %v", err)
	}
	info, err := coresight.ReadCoreInfo(c, p.ROMBase)
	if err != nil {
		t.Fatalf("ReadCoreInfo: %v", err)
	}
	if addr, ok := info.Address(coresight.KindCTI); !ok || addr != 0x5C011000 {
		t.Errorf("CTI = %#x, %v", addr, ok)
	}
}

func TestProfileErrors(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		want    string
	}{
		{"not a target", `(board (cpuid 0x1))`, "must start with"},
		{"unknown form", `(target (flash 0x0))`, "unknown form"},
		{"bad number", `(target (cpuid banana))`, "bad number"},
		{"unknown kind", `(target (component WIDGET 0xE0001000))`, "unknown component kind"},
		{"unknown register", `(target (reg R99 0x0))`, "unknown register"},
		{"word arity", `(target (word 0x1000))`, "want 2 numeric arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfileString(tt.profile)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestProfileRejectsUnalignedComponent(t *testing.T) {
	p := NewProfile()
	p.Components = []Component{{Kind: coresight.KindDWT, Base: 0xE0001004}}
	if _, err := p.Core(); err == nil {
		t.Errorf("expected alignment error")
	}
}

func TestParseProfileSurroundingText(t *testing.T) {
	tests := []struct {
		name    string
		profile string
	}{
		{"leading blank lines", "\n\n(target (cpuid 0x410FC241) (halted true))"},
		{"trailing newline", "(target (cpuid 0x410FC241) (halted true))\n"},
		{"leading comment", "; Cortex-M4 at reset\n(target (cpuid 0x410FC241) (halted true))\n"},
		{"inline comments", "(target\n  (cpuid 0x410FC241) ; M4 r0p1\n  (halted true))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProfileString(tt.profile)
			if err != nil {
				t.Fatalf("ParseProfileString: %v", err)
			}
			if p.CPUID != 0x410FC241 || !p.Halted {
				t.Errorf("cpuid=%#x halted=%v", p.CPUID, p.Halted)
			}
		})
	}
}

func TestParseProfileFromReader(t *testing.T) {
	p, err := ParseProfile(strings.NewReader(DefaultProfile))
	if err != nil {
		t.Fatalf("ParseProfile: %v", err)
	}
	if p.ProbeName != "simulator" || len(p.Components) != 9 {
		t.Errorf("probe=%q components=%d", p.ProbeName, len(p.Components))
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"(a b) ; note\n(c)", "(a b) \n(c)"},
		{`(probe "x;y")`, `(probe "x;y")`},
		{"; only", ""},
	}
	for _, tt := range tests {
		if got := stripComments(tt.in); got != tt.want {
			t.Errorf("stripComments(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
