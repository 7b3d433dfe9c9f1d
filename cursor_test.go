package xcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorPrimitives(t *testing.T) {
	buf := []byte{
		0x01,             // u8
		0x02,             // i8
		0x00, 0x0A,       // u16 = 10
		0x00, 0x00, 0x00, 0x14, // u32 = 20
	}
	c := newCursor(buf, 0)

	v8, err := c.u8()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), v8)

	i8, err := c.i8()
	require.NoError(t, err)
	assert.Equal(t, int8(2), i8)

	u16, err := c.u16()
	require.NoError(t, err)
	assert.Equal(t, uint16(10), u16)

	u32, err := c.u32()
	require.NoError(t, err)
	assert.Equal(t, uint32(20), u32)
}

func TestCursorPointerWidth(t *testing.T) {
	buf := make([]byte, 8)
	buf[7] = 0x2a // low byte of an 8-byte BE value = 42

	c4 := newCursor(buf, 10)
	p4, err := c4.pointer()
	require.NoError(t, err)
	// version <= 10: pointer is 4 bytes, so only the first 4 bytes are read.
	assert.Equal(t, uint64(0), p4)

	c8 := newCursor(buf, 11)
	p8, err := c8.pointer()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), p8)
}

func TestCursorShortBuffer(t *testing.T) {
	c := newCursor([]byte{0x01}, 0)
	_, err := c.u32()
	require.Error(t, err)
	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ErrShortBuffer, xerr.Kind)
}

func TestCursorSeekAndClone(t *testing.T) {
	buf := []byte{0, 0, 0, 0, 0xFF}
	c := newCursor(buf, 0)
	seeked := c.seek(4)
	v, err := seeked.u8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), v)

	clone := seeked.clone()
	clone.pos = 0
	v2, err := clone.u8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0), v2)
	// original seeked cursor is unaffected by the clone's mutation.
	assert.Equal(t, 5, seeked.pos)
}

func TestCursorPointerListTerminatesOnZero(t *testing.T) {
	buf := []byte{
		0, 0, 0, 1,
		0, 0, 0, 2,
		0, 0, 0, 0,
		0, 0, 0, 99, // must not be read
	}
	c := newCursor(buf, 0)
	ptrs, err := c.pointerList()
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ptrs)
}

func TestCursorCString(t *testing.T) {
	buf := []byte("hello\x00world")
	c := newCursor(buf, 0)
	s, err := c.cstring()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
	assert.Equal(t, 6, c.pos)
}
