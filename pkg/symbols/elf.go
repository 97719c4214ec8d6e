package symbols

import (
	"debug/elf"

	"github.com/juju/errors"
)

// LoadELF reads the function and object symbols of an ELF image.
func LoadELF(path, module string) (*Table, error) {
	ef, err := elf.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open ELF file")
	}
	defer ef.Close()

	syms, err := ef.Symbols()
	if err != nil {
		return nil, errors.Annotatef(err, "%s", path)
	}

	t := NewTable()
	for _, s := range syms {
		switch elf.ST_TYPE(s.Info) {
		case elf.STT_FUNC, elf.STT_OBJECT:
		default:
			continue
		}
		if s.Name == "" || s.Section == elf.SHN_UNDEF {
			continue
		}
		t.Add(Symbol{Module: module, Name: s.Name, Addr: uint32(s.Value), Size: uint32(s.Size)})
	}
	return t, nil
}
