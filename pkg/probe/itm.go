package probe

import (
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/coresight"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/cortex"
)

// ITMAbsent is reported when the catalog has no ITM.
const ITMAbsent = "absent"

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

// ITMStatus reports trace enable, ITM enable and the stimulus port mask.
func ITMStatus(core Core, info *coresight.CoreInfo) (string, error) {
	if _, ok := info.Address(coresight.KindITM); !ok {
		return ITMAbsent, nil
	}

	demcr, err := core.ReadWord32(cortex.RegDEMCR)
	if err != nil {
		return "", errors.Annotatef(err, "failed to read DEMCR")
	}
	tcr, err := core.ReadWord32(cortex.RegITMTCR)
	if err != nil {
		return "", errors.Annotatef(err, "failed to read ITM_TCR")
	}
	ter, err := core.ReadWord32(cortex.RegITMTER)
	if err != nil {
		return "", errors.Annotatef(err, "failed to read ITM_TER")
	}

	return strings.Join([]string{
		"TRCENA " + enabled(cortex.DEMCR(demcr).TraceEnabled()),
		"TCR " + enabled(cortex.ITMTCR(tcr).ITMEnabled()),
		fmt.Sprintf("TER=0x%x", ter),
	}, ", "), nil
}
