package sim

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chewxy/sexp"
	"github.com/juju/errors"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/coresight"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/idcode"
)

// Component places one debug unit in the simulated ROM table.
type Component struct {
	Kind coresight.Kind
	Base uint32
}

// Profile describes a simulated target: the chip identity seen through the
// ROM table, its debug units, extra memory words and the core state.
type Profile struct {
	ProbeName string
	Serial    string

	CPUID      uint32
	ROMBase    uint32
	Designer   idcode.JEP106
	Part       uint16
	Components []Component

	Words map[uint32]uint32
	Regs  map[cortex.Register]uint32

	Halted   bool
	StepSize uint32
}

// DefaultProfile is used when no target profile is given: an STM32H7 with
// its Cortex-M7 running.
const DefaultProfile = `
(target
  (probe "simulator")
  (cpuid 0x411FC272)
  (rom 0xE00FF000 (designer 0x0 0x20) (part 0x450))
  (component SCS 0xE000E000)
  (component DWT 0xE0001000)
  (component FPB 0xE0002000)
  (component ITM 0xE0000000)
  (component TPIU 0xE0040000)
  (component ETM 0xE0041000)
  (component CTI 0xE0043000)
  (component CTI 0x5C011000)
  (component CSTF 0x5C013000)
  (word 0x5C001000 0x10036450)
  (word 0xE000ED30 0x0)
  (word 0xE000EDFC 0x01000000)
  (word 0xE0000E80 0x00010005)
  (word 0xE0000E00 0x1)
  (step 2)
  (reg PC 0x08000400)
  (reg LR 0x08000211)
  (reg SP 0x24001f80)
  (reg xPSR 0x61000000)
  (reg MSP 0x24001f80))
`

// kindIDs gives each kind an ARM part number that classifies back to it.
var kindIDs = map[coresight.Kind]struct {
	class uint8
	part  uint16
}{
	coresight.KindSCS:  {coresight.ClassGenericIP, 0x000},
	coresight.KindITM:  {coresight.ClassGenericIP, 0x001},
	coresight.KindDWT:  {coresight.ClassGenericIP, 0x002},
	coresight.KindFPB:  {coresight.ClassGenericIP, 0x003},
	coresight.KindCTI:  {coresight.ClassCoreSight, 0x906},
	coresight.KindCSTF: {coresight.ClassCoreSight, 0x908},
	coresight.KindTPIU: {coresight.ClassCoreSight, 0x912},
	coresight.KindSWO:  {coresight.ClassCoreSight, 0x914},
	coresight.KindETM:  {coresight.ClassCoreSight, 0x925},
	coresight.KindMTB:  {coresight.ClassCoreSight, 0x932},
	coresight.KindTMC:  {coresight.ClassCoreSight, 0x961},
}

// NewProfile returns a profile with the architectural defaults filled in.
func NewProfile() *Profile {
	return &Profile{
		ProbeName: "simulator",
		ROMBase:   cortex.RegROMBase,
		Designer:  idcode.JEP106ARM,
		Words:     make(map[uint32]uint32),
		Regs:      make(map[cortex.Register]uint32),
	}
}

// Core builds the simulated core, with CPUID, the ROM table and every
// component identification block mapped into its address space.
func (p *Profile) Core() (*Core, error) {
	c := NewCore(p.ProbeName, p.Serial)
	c.Halted = p.Halted
	c.StepSize = p.StepSize

	c.Words[cortex.RegCPUID] = p.CPUID
	rom := coresight.ComponentID{Base: p.ROMBase, Class: coresight.ClassROMTable, Designer: p.Designer, Part: p.Part}
	for addr, v := range rom.Words() {
		c.Words[addr] = v
	}

	for i, comp := range p.Components {
		id, ok := kindIDs[comp.Kind]
		if !ok {
			return nil, errors.Errorf("component %s cannot be simulated", comp.Kind)
		}
		if comp.Base&0xFFF != 0 {
			return nil, errors.Errorf("component %s at 0x%08x is not 4KB aligned", comp.Kind, comp.Base)
		}
		c.Words[p.ROMBase+uint32(i)*4] = (comp.Base-p.ROMBase)&0xFFFFF000 | 0x3
		cid := coresight.ComponentID{Base: comp.Base, Class: id.class, Designer: idcode.JEP106ARM, Part: id.part}
		for addr, v := range cid.Words() {
			c.Words[addr] = v
		}
	}
	c.Words[p.ROMBase+uint32(len(p.Components))*4] = 0

	for addr, v := range p.Words {
		c.Words[addr] = v
	}
	for reg, v := range p.Regs {
		c.Regs[reg] = v
	}
	return c, nil
}

// ParseProfile reads a target profile S-expression. Lines may carry ;
// comments.
func ParseProfile(r io.Reader) (*Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read profile")
	}
	return ParseProfileString(string(data))
}

// ParseProfileString is ParseProfile over a string.
func ParseProfileString(s string) (*Profile, error) {
	exprs, err := sexp.ParseString(stripComments(s))
	if err != nil {
		return nil, errors.Annotatef(err, "failed to parse profile")
	}
	return profileFrom(exprs)
}

// stripComments drops everything from an unquoted ; to the end of its line.
func stripComments(s string) string {
	var b strings.Builder
	quoted, comment := false, false
	for _, r := range s {
		switch {
		case comment:
			if r != '\n' {
				continue
			}
			comment = false
		case r == '"':
			quoted = !quoted
		case r == ';' && !quoted:
			comment = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LoadProfile reads the profile file at path.
func LoadProfile(path string) (*Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open profile")
	}
	defer file.Close()

	p, err := ParseProfile(file)
	if err != nil {
		return nil, errors.Annotatef(err, "%s", path)
	}
	return p, nil
}

func profileFrom(exprs []sexp.Sexp) (*Profile, error) {
	var forms []sexp.Sexp
	for _, e := range exprs {
		if e == nil || blank(e) {
			continue
		}
		forms = append(forms, e)
	}
	if len(forms) != 1 {
		return nil, errors.Errorf("expected one (target ...) form, got %d", len(forms))
	}
	top := items(forms[0])
	if len(top) == 0 || atom(top[0]) != "target" {
		return nil, errors.New("profile must start with (target ...)")
	}

	p := NewProfile()
	for _, form := range top[1:] {
		if err := p.apply(items(form)); err != nil {
			return nil, errors.Annotatef(err, "in %s", form)
		}
	}
	return p, nil
}

func (p *Profile) apply(form []sexp.Sexp) error {
	if len(form) == 0 {
		return errors.New("empty form")
	}
	args := form[1:]

	switch atom(form[0]) {
	case "probe":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("want (probe NAME [SERIAL])")
		}
		p.ProbeName = atom(args[0])
		if len(args) == 2 {
			p.Serial = atom(args[1])
		}

	case "cpuid":
		return wordArgs(args, &p.CPUID)

	case "rom":
		if len(args) < 1 {
			return errors.New("want (rom BASE (designer CC ID) (part N))")
		}
		if err := wordArgs(args[:1], &p.ROMBase); err != nil {
			return err
		}
		for _, sub := range args[1:] {
			if err := p.applyROM(items(sub)); err != nil {
				return err
			}
		}

	case "component":
		if len(args) != 2 {
			return errors.New("want (component KIND BASE)")
		}
		kind, ok := coresight.KindByName(atom(args[0]))
		if !ok {
			return errors.Errorf("unknown component kind %q", atom(args[0]))
		}
		var base uint32
		if err := wordArgs(args[1:], &base); err != nil {
			return err
		}
		p.Components = append(p.Components, Component{Kind: kind, Base: base})

	case "word":
		var addr, val uint32
		if err := wordArgs(args, &addr, &val); err != nil {
			return err
		}
		p.Words[addr] = val

	case "reg":
		if len(args) != 2 {
			return errors.New("want (reg NAME VALUE)")
		}
		reg, ok := cortex.RegisterByName(atom(args[0]))
		if !ok {
			return errors.Errorf("unknown register %q", atom(args[0]))
		}
		var val uint32
		if err := wordArgs(args[1:], &val); err != nil {
			return err
		}
		p.Regs[reg] = val

	case "halted":
		if len(args) != 1 {
			return errors.New("want (halted true|false)")
		}
		halted, err := strconv.ParseBool(atom(args[0]))
		if err != nil {
			return errors.Trace(err)
		}
		p.Halted = halted

	case "step":
		return wordArgs(args, &p.StepSize)

	default:
		return errors.Errorf("unknown form %q", atom(form[0]))
	}
	return nil
}

func (p *Profile) applyROM(form []sexp.Sexp) error {
	if len(form) == 0 {
		return errors.New("empty rom attribute")
	}
	switch atom(form[0]) {
	case "designer":
		var cc, id uint32
		if err := wordArgs(form[1:], &cc, &id); err != nil {
			return err
		}
		p.Designer = idcode.JEP106{CC: uint8(cc), ID: uint8(id)}
	case "part":
		var part uint32
		if err := wordArgs(form[1:], &part); err != nil {
			return err
		}
		p.Part = uint16(part)
	default:
		return errors.Errorf("unknown rom attribute %q", atom(form[0]))
	}
	return nil
}

// items flattens a list into its elements.
func items(s sexp.Sexp) []sexp.Sexp {
	var out []sexp.Sexp
	if s == nil || s.IsLeaf() {
		return out
	}
	for s != nil {
		n := s.LeafCount()
		if n == 0 {
			break
		}
		if head := s.Head(); head != nil && !blank(head) {
			out = append(out, head)
		}
		if n <= 1 {
			break
		}
		s = s.Tail()
		if s == nil || s.IsLeaf() {
			break
		}
	}
	return out
}

// blank reports an empty symbol, which the parser yields for runs of
// whitespace.
func blank(s sexp.Sexp) bool {
	return s.IsLeaf() && atom(s) == ""
}

func atom(s sexp.Sexp) string {
	if s == nil || !s.IsLeaf() {
		return ""
	}
	if sym, ok := s.(sexp.Symbol); ok {
		return strings.Trim(strings.TrimSpace(string(sym)), `"`)
	}
	return strings.Trim(strings.TrimSpace(fmt.Sprint(s)), `"`)
}

// wordArgs parses each argument as a 32-bit number, in any Go base syntax.
func wordArgs(args []sexp.Sexp, out ...*uint32) error {
	if len(args) != len(out) {
		return errors.Errorf("want %d numeric arguments, got %d", len(out), len(args))
	}
	for i, a := range args {
		v, err := strconv.ParseUint(atom(a), 0, 32)
		if err != nil {
			return errors.Annotatef(err, "bad number %q", atom(a))
		}
		*out[i] = uint32(v)
	}
	return nil
}
