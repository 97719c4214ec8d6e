// Package symbols maps code addresses to module and symbol names.
package symbols

import (
	"fmt"
	"sort"
)

// Kernel is the module name of the base image; annotations omit it.
const Kernel = "kernel"

// Symbol is one named address range.
type Symbol struct {
	Module string
	Name   string
	Addr   uint32
	Size   uint32
}

// Contains reports whether addr falls inside the symbol. A zero-sized
// symbol only matches its own address.
func (s Symbol) Contains(addr uint32) bool {
	if s.Size == 0 {
		return addr == s.Addr
	}
	return addr >= s.Addr && addr-s.Addr < s.Size
}

// Annotate renders addr relative to the symbol as [module:]name+0xoff.
func (s Symbol) Annotate(addr uint32) string {
	if s.Module == "" || s.Module == Kernel {
		return fmt.Sprintf("%s+0x%x", s.Name, addr-s.Addr)
	}
	return fmt.Sprintf("%s:%s+0x%x", s.Module, s.Name, addr-s.Addr)
}

// Table is an address-ordered symbol table.
type Table struct {
	syms   []Symbol
	sorted bool
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add inserts a symbol. Bit 0 of the address is the Thumb marker and is
// dropped.
func (t *Table) Add(s Symbol) {
	s.Addr &^= 1
	t.syms = append(t.syms, s)
	t.sorted = false
}

// Merge adds every symbol of other.
func (t *Table) Merge(other *Table) {
	for _, s := range other.syms {
		t.Add(s)
	}
}

// Len returns the number of symbols.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.syms)
}

// Resolve finds the symbol whose range contains addr. When ranges overlap
// the symbol with the highest start address wins.
func (t *Table) Resolve(addr uint32) (Symbol, bool) {
	if t == nil || len(t.syms) == 0 {
		return Symbol{}, false
	}
	if !t.sorted {
		sort.SliceStable(t.syms, func(i, j int) bool { return t.syms[i].Addr < t.syms[j].Addr })
		t.sorted = true
	}

	// first symbol starting above addr
	i := sort.Search(len(t.syms), func(i int) bool { return t.syms[i].Addr > addr })
	// a sized symbol further down may still cover addr
	for i--; i >= 0; i-- {
		if t.syms[i].Contains(addr) {
			return t.syms[i], true
		}
	}
	return Symbol{}, false
}
