package coresight

// Catalog maps component kinds to the base addresses where instances of that
// kind were found. Kinds and addresses keep their discovery order.
type Catalog struct {
	order []Kind
	addrs map[Kind][]uint32
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{addrs: make(map[Kind][]uint32)}
}

// Add records an instance of kind at addr.
func (c *Catalog) Add(kind Kind, addr uint32) {
	if c.addrs == nil {
		c.addrs = make(map[Kind][]uint32)
	}
	if _, ok := c.addrs[kind]; !ok {
		c.order = append(c.order, kind)
	}
	c.addrs[kind] = append(c.addrs[kind], addr)
}

// Kinds returns the kinds present, in the order first seen.
func (c *Catalog) Kinds() []Kind {
	if c == nil {
		return nil
	}
	out := make([]Kind, len(c.order))
	copy(out, c.order)
	return out
}

// Addresses returns a copy of the addresses recorded for kind.
func (c *Catalog) Addresses(kind Kind) []uint32 {
	if c == nil {
		return nil
	}
	addrs := c.addrs[kind]
	out := make([]uint32, len(addrs))
	copy(out, addrs)
	return out
}

// Address returns the first address recorded for kind.
func (c *Catalog) Address(kind Kind) (uint32, bool) {
	if c == nil || len(c.addrs[kind]) == 0 {
		return 0, false
	}
	return c.addrs[kind][0], true
}

// Count returns how many instances of kind were found.
func (c *Catalog) Count(kind Kind) int {
	if c == nil {
		return 0
	}
	return len(c.addrs[kind])
}
