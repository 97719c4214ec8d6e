package cortex

import (
	"fmt"
	"strings"
)

// Part identifies a Cortex-M core variant by its CPUID PARTNO field.
type Part uint16

const (
	PartUnknown      Part = 0
	PartCortexM0     Part = 0xC20
	PartCortexM1     Part = 0xC21
	PartCortexM3     Part = 0xC23
	PartCortexM4     Part = 0xC24
	PartCortexM7     Part = 0xC27
	PartCortexM0Plus Part = 0xC60
	PartCortexM23    Part = 0xD20
	PartCortexM33    Part = 0xD21
	PartCortexM55    Part = 0xD22
	PartCortexM85    Part = 0xD23
	PartCortexM35P   Part = 0xD31
)

var partNames = map[Part]string{
	PartCortexM0:     "Cortex-M0",
	PartCortexM1:     "Cortex-M1",
	PartCortexM3:     "Cortex-M3",
	PartCortexM4:     "Cortex-M4",
	PartCortexM7:     "Cortex-M7",
	PartCortexM0Plus: "Cortex-M0+",
	PartCortexM23:    "Cortex-M23",
	PartCortexM33:    "Cortex-M33",
	PartCortexM55:    "Cortex-M55",
	PartCortexM85:    "Cortex-M85",
	PartCortexM35P:   "Cortex-M35P",
}

// Known reports whether the part is one we have a name for.
func (p Part) Known() bool {
	_, ok := partNames[p]
	return ok
}

func (p Part) String() string {
	if name, ok := partNames[p]; ok {
		return name
	}
	return fmt.Sprintf("<unknown core 0x%x>", uint16(p))
}

// PartByName looks a core up by its display name ("Cortex-M4") or by its
// short lower-case form ("cortex-m4", "m4").
func PartByName(name string) (Part, bool) {
	for p, n := range partNames {
		if n == name || foldName(n) == foldName(name) {
			return p, true
		}
	}
	return PartUnknown, false
}

func foldName(s string) string {
	return strings.TrimPrefix(strings.ToLower(s), "cortex-")
}

// CPUID is the decoded System Control Block CPUID register.
type CPUID uint32

func (c CPUID) Implementer() uint8  { return uint8(c >> 24) }
func (c CPUID) Variant() uint8      { return uint8(c>>20) & 0xF }
func (c CPUID) Architecture() uint8 { return uint8(c>>16) & 0xF }
func (c CPUID) Part() Part          { return Part((uint32(c) >> 4) & 0xFFF) }
func (c CPUID) Revision() uint8     { return uint8(c) & 0xF }

// String renders e.g. "Cortex-M4 r0p1".
func (c CPUID) String() string {
	return fmt.Sprintf("%s r%dp%d", c.Part(), c.Variant(), c.Revision())
}
