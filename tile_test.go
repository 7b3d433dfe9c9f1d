package xcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRLEShortRun(t *testing.T) {
	// opcode 4 => run of 5 identical bytes, value 0x7A.
	buf := []byte{4, 0x7A}
	c := newCursor(buf, 0)
	dest := make([]byte, 5)
	require.NoError(t, decodeRLEPlane(c, dest))
	for _, b := range dest {
		assert.Equal(t, byte(0x7A), b)
	}
}

func TestRLELongIdenticalRun(t *testing.T) {
	// opcode 128 => u16 count, then 1 value byte, per spec.md's table.
	buf := []byte{128, 0x01, 0x00, 0x55} // count = 256
	c := newCursor(buf, 0)
	dest := make([]byte, 256)
	require.NoError(t, decodeRLEPlane(c, dest))
	for _, b := range dest {
		assert.Equal(t, byte(0x55), b)
	}
}

func TestRLELongVerbatimRun(t *testing.T) {
	// opcode 127 => u16 count, then that many literal bytes.
	lit := []byte{1, 2, 3, 4, 5}
	buf := append([]byte{127, 0x00, 0x05}, lit...)
	c := newCursor(buf, 0)
	dest := make([]byte, 5)
	require.NoError(t, decodeRLEPlane(c, dest))
	assert.Equal(t, lit, dest)
}

func TestRLEShortVerbatimRun(t *testing.T) {
	// opcode 256-3=253 => 3 literal bytes follow.
	buf := []byte{253, 9, 8, 7}
	c := newCursor(buf, 0)
	dest := make([]byte, 3)
	require.NoError(t, decodeRLEPlane(c, dest))
	assert.Equal(t, []byte{9, 8, 7}, dest)
}

func TestRLEOverrunIsMalformed(t *testing.T) {
	buf := []byte{10, 0xAA} // short run of 11 identical bytes
	c := newCursor(buf, 0)
	dest := make([]byte, 5) // smaller than the requested run
	err := decodeRLEPlane(c, dest)
	require.Error(t, err)
	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ErrMalformedTile, xerr.Kind)
}

func TestRLERoundTripViaEncodeHelper(t *testing.T) {
	plane := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 200, 201, 202}
	encoded := rleEncodePlane(plane)
	c := newCursor(encoded, 0)
	dest := make([]byte, len(plane))
	require.NoError(t, decodeRLEPlane(c, dest))
	assert.Equal(t, plane, dest)
}

func TestTileGridBounds(t *testing.T) {
	grid := newTileGrid(130, 65) // 3 tiles across (64,64,2), 2 down (64,1)
	assert.Equal(t, 3, grid.across)
	assert.Equal(t, 2, grid.down)
	assert.Equal(t, 6, grid.count())

	x, y, w, h := grid.bounds(0)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
	assert.Equal(t, 64, w)
	assert.Equal(t, 64, h)

	// last column, first row: clipped width.
	x, y, w, h = grid.bounds(2)
	assert.Equal(t, 128, x)
	assert.Equal(t, 0, y)
	assert.Equal(t, 2, w)
	assert.Equal(t, 64, h)

	// bottom-right corner tile, covers invariant 10 in §8.
	x, y, w, h = grid.bounds(5)
	assert.Equal(t, 128, x)
	assert.Equal(t, 64, y)
	assert.Equal(t, 2, w)
	assert.Equal(t, 1, h)
}

func TestTileGridSingleSmallTile(t *testing.T) {
	// A 1x1 image is one tile, bottom-right corner, 1x1.
	grid := newTileGrid(1, 1)
	assert.Equal(t, 1, grid.count())
	x, y, w, h := grid.bounds(0)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestSampleTo8Integer(t *testing.T) {
	assert.Equal(t, byte(255), sampleTo8(PrecisionU8Gamma, []byte{255}))
	assert.Equal(t, byte(255), sampleTo8(PrecisionU16Gamma, []byte{0xFF, 0xFF}))
	assert.Equal(t, byte(0), sampleTo8(PrecisionU16Gamma, []byte{0x00, 0x00}))
	assert.Equal(t, byte(255), sampleTo8(PrecisionU32Gamma, []byte{0xFF, 0xFF, 0xFF, 0xFF}))
}

func TestSampleTo8Float(t *testing.T) {
	// IEEE 754 1.0f, little-endian bytes per the glossary's v011+ note.
	raw := []byte{0x00, 0x00, 0x80, 0x3F}
	assert.Equal(t, byte(255), sampleTo8(PrecisionFloatGamma, raw))
}
