package coresight

import (
	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/idcode"
)

// WordReader reads 32-bit words from the target's debug address space.
type WordReader interface {
	ReadWord32(addr uint32) (uint32, error)
}

// Identification register offsets within a 4KB component block.
const (
	offPIDR4 = 0xFD0
	offPIDR0 = 0xFE0
	offPIDR1 = 0xFE4
	offPIDR2 = 0xFE8
	offCIDR0 = 0xFF0
	offCIDR1 = 0xFF4
	offCIDR2 = 0xFF8
	offCIDR3 = 0xFFC
)

// Component classes from CIDR1[7:4].
const (
	ClassGenericVerification uint8 = 0x0
	ClassROMTable            uint8 = 0x1
	ClassCoreSight           uint8 = 0x9
	ClassPeripheralTestBlock uint8 = 0xB
	ClassGenericIP           uint8 = 0xE
	ClassPrimeCell           uint8 = 0xF
)

const (
	maxROMDepth   = 8
	maxROMEntries = 960
)

// ComponentID is the decoded CIDR/PIDR block of one component.
type ComponentID struct {
	Base     uint32
	Class    uint8
	Designer idcode.JEP106
	Part     uint16
	Revision uint8
}

// armParts classifies ARM-designed components by PIDR part number.
var armParts = map[uint16]Kind{
	0x000: KindSCS, // v7-M
	0x001: KindITM,
	0x002: KindDWT,
	0x003: KindFPB,
	0x008: KindSCS, // v6-M
	0x00A: KindDWT, // v6-M
	0x00B: KindFPB, // v6-M BPU
	0x00C: KindSCS, // Cortex-M7
	0x00E: KindFPB, // Cortex-M7
	0x906: KindCTI,
	0x908: KindCSTF,
	0x912: KindTPIU,
	0x913: KindITM,
	0x914: KindSWO,
	0x923: KindTPIU, // Cortex-M3
	0x924: KindETM,  // Cortex-M3
	0x925: KindETM,  // Cortex-M4
	0x932: KindMTB,  // Cortex-M0+
	0x961: KindTMC,
	0x975: KindETM,  // Cortex-M7
	0x9A1: KindTPIU, // Cortex-M4
	0x9A9: KindTPIU, // Cortex-M7
}

// Classify maps a component identification to its functional kind.
func Classify(id ComponentID) Kind {
	if id.Class == ClassROMTable {
		return KindROM
	}
	if id.Designer != idcode.JEP106ARM {
		return KindGeneric
	}
	if kind, ok := armParts[id.Part]; ok {
		return kind
	}
	return KindGeneric
}

// ReadComponentID reads and validates the identification block at base.
func ReadComponentID(r WordReader, base uint32) (ComponentID, error) {
	var cidr [4]uint32
	for i, off := range []uint32{offCIDR0, offCIDR1, offCIDR2, offCIDR3} {
		v, err := r.ReadWord32(base + off)
		if err != nil {
			return ComponentID{}, errors.Annotatef(err, "failed to read CIDR%d", i)
		}
		cidr[i] = v & 0xFF
	}
	if cidr[0] != 0x0D || cidr[1]&0x0F != 0 || cidr[2] != 0x05 || cidr[3] != 0xB1 {
		return ComponentID{}, errors.Errorf("no component at 0x%08x (CIDR %02x %02x %02x %02x)",
			base, cidr[0], cidr[1], cidr[2], cidr[3])
	}

	var pidr [5]uint32
	for i, off := range map[int]uint32{0: offPIDR0, 1: offPIDR1, 2: offPIDR2, 4: offPIDR4} {
		v, err := r.ReadWord32(base + off)
		if err != nil {
			return ComponentID{}, errors.Annotatef(err, "failed to read PIDR%d", i)
		}
		pidr[i] = v & 0xFF
	}

	return ComponentID{
		Base:  base,
		Class: uint8(cidr[1] >> 4),
		Designer: idcode.JEP106{
			CC: uint8(pidr[4] & 0xF),
			ID: uint8(pidr[1]>>4) | uint8(pidr[2]&0x7)<<4,
		},
		Part:     uint16(pidr[0]) | uint16(pidr[1]&0xF)<<8,
		Revision: uint8(pidr[2] >> 4),
	}, nil
}

// Words returns the identification registers of id as absolute address to
// value pairs, the inverse of ReadComponentID.
func (id ComponentID) Words() map[uint32]uint32 {
	return map[uint32]uint32{
		id.Base + offCIDR0: 0x0D,
		id.Base + offCIDR1: uint32(id.Class) << 4,
		id.Base + offCIDR2: 0x05,
		id.Base + offCIDR3: 0xB1,
		id.Base + offPIDR0: uint32(id.Part & 0xFF),
		id.Base + offPIDR1: uint32(id.Part>>8)&0xF | uint32(id.Designer.ID&0xF)<<4,
		id.Base + offPIDR2: uint32(id.Designer.ID>>4)&0x7 | 0x8 | uint32(id.Revision&0xF)<<4,
		id.Base + offPIDR4: uint32(id.Designer.CC & 0xF),
	}
}

// ReadCoreInfo identifies the core from CPUID and walks the ROM table at
// romBase to catalog the debug components.
func ReadCoreInfo(r WordReader, romBase uint32) (*CoreInfo, error) {
	cpuid, err := r.ReadWord32(cortex.RegCPUID)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read CPUID")
	}
	glog.V(1).Infof("CPUID: 0x%08x (%s)", cpuid, cortex.CPUID(cpuid))

	root, err := ReadComponentID(r, romBase)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to identify ROM table")
	}
	if root.Class != ClassROMTable {
		return nil, errors.Errorf("component at 0x%08x is class 0x%x, not a ROM table", romBase, root.Class)
	}

	w := &walker{r: r, cat: NewCatalog(), visited: make(map[uint32]bool)}
	if err := w.walk(romBase, 0); err != nil {
		return nil, errors.Trace(err)
	}

	return &CoreInfo{
		Part:             cortex.CPUID(cpuid).Part(),
		Manufacturer:     root.Designer,
		ManufacturerPart: root.Part,
		Components:       w.cat,
	}, nil
}

type walker struct {
	r       WordReader
	cat     *Catalog
	visited map[uint32]bool
}

func (w *walker) walk(base uint32, depth int) error {
	if depth > maxROMDepth {
		return errors.Errorf("ROM table nesting too deep at 0x%08x", base)
	}
	if w.visited[base] {
		return nil
	}
	w.visited[base] = true

	id, err := ReadComponentID(w.r, base)
	if err != nil {
		return errors.Trace(err)
	}
	kind := Classify(id)
	glog.V(2).Infof("component 0x%08x: class 0x%x part 0x%03x designer %s -> %s",
		base, id.Class, id.Part, id.Designer, kind)
	w.cat.Add(kind, base)

	if kind != KindROM {
		return nil
	}

	for i := uint32(0); i < maxROMEntries; i++ {
		entry, err := w.r.ReadWord32(base + i*4)
		if err != nil {
			return errors.Annotatef(err, "failed to read ROM entry %d at 0x%08x", i, base)
		}
		if entry == 0 {
			break
		}
		// present, 32-bit format
		if entry&0x3 != 0x3 {
			continue
		}
		child := base + entry&0xFFFFF000
		if err := w.walk(child, depth+1); err != nil {
			glog.Warningf("skipping ROM entry 0x%08x: %v", child, err)
		}
	}
	return nil
}
