package probe

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
)

// Registers dumps every defined core register. The core is halted for the
// duration unless dhcsr shows it already was. Values of R0 through PC are
// annotated with the symbol they point into when resolver knows it.
func Registers(core Core, dhcsr cortex.DHCSR, resolver SymbolResolver) (lines []Line, err error) {
	guard, err := acquireHalt(core, dhcsr.Halted())
	if err != nil {
		return nil, err
	}
	defer func() {
		rerr := guard.Release()
		if rerr == nil {
			return
		}
		if err == nil {
			lines, err = nil, rerr
			return
		}
		glog.Warningf("%v", rerr)
	}()

	for i := 0; i < cortex.NumRegisterSlots; i++ {
		reg, ok := cortex.RegisterFromIndex(i)
		if !ok {
			continue
		}
		val, err := core.ReadReg(reg)
		if err != nil {
			return nil, errors.Annotatef(err, "failed to read %s", reg)
		}
		lines = append(lines, Line{Label: reg.String(), Value: registerValue(reg, val, resolver)})
	}
	return lines, nil
}

func registerValue(reg cortex.Register, val uint32, resolver SymbolResolver) string {
	s := fmt.Sprintf("0x%-8x", val)
	if reg > cortex.PC || resolver == nil {
		return s
	}
	if sym, ok := resolver.Resolve(val); ok {
		s += " <- " + sym.Annotate(val)
	}
	return s
}
