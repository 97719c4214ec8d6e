package probe

import (
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/coresight"
	"github.com/OpenTraceLab/OpenTraceProbe/pkg/idcode/deviceinfo"
)

// Manufacturer names the chip maker, or shows the raw JEP106 pair.
func Manufacturer(info *coresight.CoreInfo) string {
	return info.Manufacturer.String()
}

// Chip names the chip family and silicon revision. Identification reads
// are optional; on failure the line degrades to the ROM table part number.
func Chip(core Core, info *coresight.CoreInfo) string {
	return deviceinfo.Resolve(core, info)
}
