package insts

// Cursor is a lazy, address-ordered sequence of decoded instructions. It
// starts at a fixed address and follows fall-through order; a new start
// address needs a new Cursor.
//
//	c := decoder.NewCursor(image, entry)
//	for c.Next() {
//		inst := c.Instruction()
//		...
//	}
//	if err := c.Err(); err != nil {
//		...
//	}
type Cursor struct {
	decoder *Decoder
	r       CodeReader
	start   uint32
	pc      uint32
	cur     *Instruction
	err     error
}

// NewCursor creates a cursor that decodes from r beginning at addr.
func (d *Decoder) NewCursor(r CodeReader, addr uint32) *Cursor {
	return &Cursor{decoder: d, r: r, start: addr, pc: addr}
}

// Next decodes the next instruction. It returns false at the end of the
// image or on a decode error; Err distinguishes the two.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.r.Contains(c.pc) {
		c.cur = nil
		return false
	}

	inst, err := c.decoder.Decode(c.r, c.pc)
	if err != nil {
		c.cur = nil
		c.err = err
		return false
	}

	c.cur = inst
	c.pc = inst.Next()
	return true
}

// Instruction returns the instruction decoded by the last successful Next.
func (c *Cursor) Instruction() *Instruction {
	return c.cur
}

// Err returns the decode error that stopped the cursor, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Start returns the address the cursor was created at.
func (c *Cursor) Start() uint32 {
	return c.start
}

// PC returns the address the next call to Next decodes from.
func (c *Cursor) PC() uint32 {
	return c.pc
}
