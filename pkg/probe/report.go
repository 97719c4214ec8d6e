package probe

import (
	"github.com/juju/errors"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/coresight"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
)

// Build produces the full report. Any failed mandatory read aborts it and
// no lines are returned. The core's run state is the same on return as it
// was on entry.
func Build(core Core, info *coresight.CoreInfo, resolver SymbolResolver) ([]Line, error) {
	dhcsr, err := core.ReadWord32(cortex.RegDHCSR)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read DHCSR")
	}
	dfsr, err := core.ReadWord32(cortex.RegDFSR)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to read DFSR")
	}

	name, serial := core.Info()
	if serial == "" {
		serial = "-"
	}

	lines := []Line{
		{"probe", name},
		{"probe serial", serial},
		{"core", info.Part.String()},
		{"manufacturer", Manufacturer(info)},
		{"chip", Chip(core, info)},
	}

	status, err := Status(core, cortex.DHCSR(dhcsr), cortex.DFSR(dfsr))
	if err != nil {
		return nil, errors.Trace(err)
	}
	lines = append(lines, Line{"status", status})

	units, details := DebugUnits(info.Components)
	lines = append(lines, Line{"debug units", units})
	lines = append(lines, details...)

	itm, err := ITMStatus(core, info)
	if err != nil {
		return nil, errors.Trace(err)
	}
	lines = append(lines, Line{"ITM status", itm})

	regs, err := Registers(core, cortex.DHCSR(dhcsr), resolver)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return append(lines, regs...), nil
}
