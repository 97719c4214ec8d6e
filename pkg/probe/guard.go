package probe

import (
	"github.com/juju/errors"
)

// haltGuard halts a running core and resumes it on Release. A core that was
// already halted is left alone on both ends.
type haltGuard struct {
	core   Core
	halted bool
}

func acquireHalt(core Core, alreadyHalted bool) (*haltGuard, error) {
	g := &haltGuard{core: core}
	if alreadyHalted {
		return g, nil
	}
	if err := core.Halt(); err != nil {
		return nil, errors.Annotatef(err, "failed to halt core")
	}
	g.halted = true
	return g, nil
}

// Release resumes the core if acquireHalt halted it. Calling it twice is
// harmless.
func (g *haltGuard) Release() error {
	if !g.halted {
		return nil
	}
	g.halted = false
	return errors.Annotatef(g.core.Run(), "failed to resume core")
}
