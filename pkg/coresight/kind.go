package coresight

import "strings"

// Kind is the functional class of a discovered CoreSight component.
type Kind int

const (
	KindGeneric Kind = iota
	KindROM
	KindSCS
	KindDWT
	KindFPB
	KindITM
	KindTPIU
	KindETM
	KindCSTF
	KindCTI
	KindSWO
	KindTMC
	KindMTB
)

var kindNames = map[Kind]string{
	KindGeneric: "Generic",
	KindROM:     "ROM",
	KindSCS:     "SCS",
	KindDWT:     "DWT",
	KindFPB:     "FPB",
	KindITM:     "ITM",
	KindTPIU:    "TPIU",
	KindETM:     "ETM",
	KindCSTF:    "CSTF",
	KindCTI:     "CTI",
	KindSWO:     "SWO",
	KindTMC:     "TMC",
	KindMTB:     "MTB",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Generic"
}

// Displayable reports whether the kind is a debug unit worth listing; ROM
// tables and unclassified blocks are plumbing.
func (k Kind) Displayable() bool {
	return k != KindROM && k != KindGeneric
}

// KindByName resolves a kind from its name, case-insensitive.
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return k, true
		}
	}
	return KindGeneric, false
}
