package xcf

import (
	"encoding/binary"
	"math"
)

// cursor is a big-endian reader over a borrowed byte slice. Unlike an
// io.Reader, it can be cheaply cloned and re-seated to an absolute offset,
// which is the whole point: XCF pointers are absolute offsets into the same
// buffer the cursor is already reading.
type cursor struct {
	buf []byte
	pos int
	// ptrSize is 8 for version >= 11, else 4, per the glossary.
	ptrSize int
}

func newCursor(buf []byte, version int) *cursor {
	ptrSize := 4
	if version >= 11 {
		ptrSize = 8
	}
	return &cursor{buf: buf, ptrSize: ptrSize}
}

// seek reinterprets the cursor to start reading at an absolute offset,
// leaving the underlying buffer and ptrSize untouched.
func (c *cursor) seek(offset uint64) *cursor {
	return &cursor{buf: c.buf, pos: int(offset), ptrSize: c.ptrSize}
}

func (c *cursor) clone() *cursor {
	cp := *c
	return &cp
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) need(n int) error {
	if n < 0 || c.remaining() < n {
		return newErr(ErrShortBuffer, "short buffer")
	}
	return nil
}

func (c *cursor) u8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) i8() (int8, error) {
	v, err := c.u8()
	return int8(v), err
}

func (c *cursor) u16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) i32() (int32, error) {
	v, err := c.u32()
	return int32(v), err
}

func (c *cursor) u64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

func (c *cursor) f32() (float32, error) {
	v, err := c.u32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (c *cursor) f64() (float64, error) {
	v, err := c.u64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// pointer reads a version-sized absolute offset. A zero pointer is the
// convention used throughout XCF for "end of list" / "absent".
func (c *cursor) pointer() (uint64, error) {
	if c.ptrSize == 8 {
		return c.u64()
	}
	v, err := c.u32()
	return uint64(v), err
}

// fixed reads an exact-length byte run.
func (c *cursor) fixed(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	v := c.buf[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

// cstring reads a zero-terminated string up to the first NUL. If the buffer
// ends before a NUL is found, it returns ErrShortBuffer.
func (c *cursor) cstring() (string, error) {
	start := c.pos
	for c.pos < len(c.buf) && c.buf[c.pos] != 0 {
		c.pos++
	}
	if c.pos >= len(c.buf) {
		return "", newErr(ErrShortBuffer, "unterminated string")
	}
	s := string(c.buf[start:c.pos])
	c.pos++ // consume the terminator
	return s, nil
}

// pointerList reads pointers until a null pointer (which is consumed but not
// appended).
func (c *cursor) pointerList() ([]uint64, error) {
	var ptrs []uint64
	for {
		p, err := c.pointer()
		if err != nil {
			return nil, err
		}
		if p == 0 {
			return ptrs, nil
		}
		ptrs = append(ptrs, p)
	}
}
