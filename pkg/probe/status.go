package probe

import (
	"strings"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
)

// Outcomes of the progress probe.
const (
	StatusProgressing    = "progressing"
	StatusNotProgressing = "not progressing"
	StatusUnableToStep   = "unable to step"
)

type statusFlag struct {
	name  string
	holds func(cortex.DHCSR, cortex.DFSR) bool
}

// statusFlags is evaluated in order; the order is the report order.
var statusFlags = []statusFlag{
	{"restarting", func(h cortex.DHCSR, _ cortex.DFSR) bool { return h.RestartStatus() }},
	{"resetting", func(h cortex.DHCSR, _ cortex.DFSR) bool { return h.ResetStatus() }},
	{"executing", func(h cortex.DHCSR, _ cortex.DFSR) bool { return h.RetireStatus() }},
	{"locked up", func(h cortex.DHCSR, _ cortex.DFSR) bool { return h.LockedUp() }},
	{"halted", func(h cortex.DHCSR, _ cortex.DFSR) bool { return h.Halted() }},
	{"external halt", func(_ cortex.DHCSR, f cortex.DFSR) bool { return f.External() }},
	{"vector catch", func(_ cortex.DHCSR, f cortex.DFSR) bool { return f.VectorCatch() }},
	{"watchpoint", func(_ cortex.DHCSR, f cortex.DFSR) bool { return f.Watchpoint() }},
	{"breakpoint", func(_ cortex.DHCSR, f cortex.DFSR) bool { return f.Breakpoint() }},
	{"debug halt", func(_ cortex.DHCSR, f cortex.DFSR) bool { return f.Halted() }},
}

// StatusFlags names every status condition set in the two registers.
func StatusFlags(dhcsr cortex.DHCSR, dfsr cortex.DFSR) []string {
	var out []string
	for _, f := range statusFlags {
		if f.holds(dhcsr, dfsr) {
			out = append(out, f.name)
		}
	}
	return out
}

// Status describes the run state of the core. S_RETIRE_ST is only set
// periodically, so when no condition is flagged the core is halted and
// single-stepped to see whether the PC moves, then resumed.
func Status(core Core, dhcsr cortex.DHCSR, dfsr cortex.DFSR) (string, error) {
	if flags := StatusFlags(dhcsr, dfsr); len(flags) > 0 {
		return strings.Join(flags, ", "), nil
	}

	status := probeProgress(core)
	if err := core.Run(); err != nil {
		return "", errors.Annotatef(err, "failed to resume core after progress probe")
	}
	return status, nil
}

func probeProgress(core Core) string {
	before, after, err := stepPC(core)
	if err != nil {
		glog.V(1).Infof("progress probe failed: %v", err)
		return StatusUnableToStep
	}
	glog.V(2).Infof("progress probe: PC 0x%08x -> 0x%08x", before, after)
	if before == after {
		return StatusNotProgressing
	}
	return StatusProgressing
}

func stepPC(core Core) (before, after uint32, err error) {
	if err = core.Halt(); err != nil {
		return 0, 0, errors.Annotatef(err, "halt")
	}
	if before, err = core.ReadReg(cortex.PC); err != nil {
		return 0, 0, errors.Annotatef(err, "read PC")
	}
	if err = core.Step(); err != nil {
		return 0, 0, errors.Annotatef(err, "step")
	}
	if after, err = core.ReadReg(cortex.PC); err != nil {
		return 0, 0, errors.Annotatef(err, "read PC after step")
	}
	return before, after, nil
}
