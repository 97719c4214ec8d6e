package symbols

import (
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/juju/errors"
)

// MapLexer tokenizes symbol map files: the output of `nm -S`, optionally
// split into sections by `module <name>` lines, with # comments.
var MapLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "Word", Pattern: `[^\s#]+`},
})

// MapFile is the parsed form of a symbol map.
type MapFile struct {
	Entries []*MapEntry `parser:"@@*"`
}

// MapEntry is either a module directive or a symbol line.
type MapEntry struct {
	Module string     `parser:"  \"module\" @Word"`
	Symbol *MapSymbol `parser:"| @@"`
}

// MapSymbol is one `nm -S` line: address, size, type letter and name.
type MapSymbol struct {
	Addr string `parser:"@Word"`
	Size string `parser:"@Word"`
	Type string `parser:"@Word"`
	Name string `parser:"@Word"`
}

// MapParser parses symbol map files.
type MapParser struct {
	parser *participle.Parser[MapFile]
}

// NewMapParser builds the map file grammar.
func NewMapParser() (*MapParser, error) {
	parser, err := participle.Build[MapFile](
		participle.Lexer(MapLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to build map parser")
	}
	return &MapParser{parser: parser}, nil
}

// Parse reads a map file and returns its symbols. Symbols before any module
// directive belong to module.
func (p *MapParser) Parse(r io.Reader, module string) (*Table, error) {
	file, err := p.parser.Parse("", r)
	if err != nil {
		return nil, errors.Annotatef(err, "parse error")
	}
	return file.Table(module)
}

// ParseString is Parse over a string.
func (p *MapParser) ParseString(input, module string) (*Table, error) {
	file, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, errors.Annotatef(err, "parse error")
	}
	return file.Table(module)
}

// Table converts the parsed entries into a symbol table.
func (f *MapFile) Table(module string) (*Table, error) {
	t := NewTable()
	for _, e := range f.Entries {
		if e.Symbol == nil {
			module = e.Module
			continue
		}
		// only text and data symbols are useful for annotation
		switch e.Symbol.Type {
		case "T", "t", "W", "w", "D", "d", "B", "b", "R", "r":
		default:
			continue
		}
		addr, err := strconv.ParseUint(e.Symbol.Addr, 16, 32)
		if err != nil {
			return nil, errors.Annotatef(err, "bad address for %s", e.Symbol.Name)
		}
		size, err := strconv.ParseUint(e.Symbol.Size, 16, 32)
		if err != nil {
			return nil, errors.Annotatef(err, "bad size for %s", e.Symbol.Name)
		}
		t.Add(Symbol{Module: module, Name: e.Symbol.Name, Addr: uint32(addr), Size: uint32(size)})
	}
	return t, nil
}

// LoadMap parses the map file at path.
func LoadMap(path, module string) (*Table, error) {
	p, err := NewMapParser()
	if err != nil {
		return nil, errors.Trace(err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open map file")
	}
	defer file.Close()

	t, err := p.Parse(file, module)
	if err != nil {
		return nil, errors.Annotatef(err, "%s", path)
	}
	return t, nil
}
