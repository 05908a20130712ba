package region

// Cursor reads sequentially through a region. The first failed read is sticky:
// later reads return zero values and Err reports the original failure.
type Cursor struct {
	r   Region
	off int
	err error
}

// NewCursor starts a cursor at off.
func NewCursor(r Region, off int) *Cursor {
	return &Cursor{r: r, off: off}
}

// Offset returns the current position.
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining returns the bytes left before the end of the region.
func (c *Cursor) Remaining() int {
	if c.off >= c.r.Len() {
		return 0
	}
	return c.r.Len() - c.off
}

// Err returns the first bounds error encountered, if any.
func (c *Cursor) Err() error {
	return c.err
}

func (c *Cursor) advance(width int) (int, bool) {
	if c.err != nil {
		return 0, false
	}
	if err := c.r.check(c.off, width); err != nil {
		c.err = err
		return 0, false
	}
	off := c.off
	c.off += width
	return off, true
}

// Skip advances without reading.
func (c *Cursor) Skip(n int) {
	c.advance(n)
}

func (c *Cursor) ReadUint16() uint16 {
	off, ok := c.advance(2)
	if !ok {
		return 0
	}
	v, _ := c.r.Uint16(off)
	return v
}

func (c *Cursor) ReadUint32() uint32 {
	off, ok := c.advance(4)
	if !ok {
		return 0
	}
	v, _ := c.r.Uint32(off)
	return v
}

func (c *Cursor) ReadInt32() int32 {
	return int32(c.ReadUint32())
}

func (c *Cursor) ReadFloat32() float32 {
	off, ok := c.advance(4)
	if !ok {
		return 0
	}
	v, _ := c.r.Float32(off)
	return v
}
