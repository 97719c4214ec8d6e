package probe

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/juju/errors"
)

// Line is one labeled fact of the report.
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// String renders the line with the label right-aligned.
func (l Line) String() string {
	return fmt.Sprintf("%12s => %s", l.Label, l.Value)
}

// Write prints lines, each preceded by prefix.
func Write(w io.Writer, prefix string, lines []Line) error {
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s%s\n", prefix, l); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// WriteJSON prints lines as an indented JSON array.
func WriteJSON(w io.Writer, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Trace(enc.Encode(lines))
}
