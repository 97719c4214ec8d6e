package probe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceProbe/pkg/coresight"
)

type unitGroup struct {
	name  string
	addrs []uint32
}

// displayUnits returns the displayable kinds of cat sorted by name.
func displayUnits(cat *coresight.Catalog) []unitGroup {
	var groups []unitGroup
	for _, k := range cat.Kinds() {
		if !k.Displayable() {
			continue
		}
		groups = append(groups, unitGroup{name: k.String(), addrs: cat.Addresses(k)})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].name < groups[j].name })
	return groups
}

// DebugUnits renders the component catalog: a summary line value such as
// "CTI(x2) DWT ITM" and one line per kind listing its base addresses.
func DebugUnits(cat *coresight.Catalog) (string, []Line) {
	groups := displayUnits(cat)

	names := make([]string, 0, len(groups))
	details := make([]Line, 0, len(groups))
	for _, g := range groups {
		if len(g.addrs) > 1 {
			names = append(names, fmt.Sprintf("%s(x%d)", g.name, len(g.addrs)))
		} else {
			names = append(names, g.name)
		}

		addrs := make([]string, len(g.addrs))
		for i, a := range g.addrs {
			addrs[i] = fmt.Sprintf("0x%08x", a)
		}
		details = append(details, Line{Label: g.name, Value: strings.Join(addrs, ", ")})
	}
	return strings.Join(names, " "), details
}
