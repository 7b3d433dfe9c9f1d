package xcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPropertyListBasic(t *testing.T) {
	b := newBufBuilder(0)
	b.propOpacity(128).
		propVisible(false).
		propMode(3).
		propOffsets(-5, 10).
		propEnd()

	c := newCursor(b.buf, 0)
	props, err := readPropertyList(c)
	require.NoError(t, err)
	require.Len(t, props, 4)

	assert.Equal(t, PropOpacity, props[0].Type)
	assert.Equal(t, uint32(128), props[0].Opacity)

	assert.Equal(t, PropVisible, props[1].Type)
	assert.False(t, props[1].Bool)

	assert.Equal(t, PropMode, props[2].Type)
	assert.Equal(t, uint32(3), props[2].Mode)

	assert.Equal(t, PropOffsets, props[3].Type)
	assert.Equal(t, int32(-5), props[3].OffsetX)
	assert.Equal(t, int32(10), props[3].OffsetY)
}

// TestUnknownPropertyAdvancesByLength covers invariant 12 in §8: unknown
// property types must advance the cursor by exactly their declared length,
// and parsing must continue afterwards.
func TestUnknownPropertyAdvancesByLength(t *testing.T) {
	b := newBufBuilder(0)
	b.propUnknown(PropType(9999), []byte{1, 2, 3, 4, 5}).
		propOpacity(200).
		propEnd()

	c := newCursor(b.buf, 0)
	props, err := readPropertyList(c)
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, PropType(9999), props[0].Type)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, props[0].Raw)
	assert.Equal(t, PropOpacity, props[1].Type)
	assert.Equal(t, uint32(200), props[1].Opacity)
}

func TestPropertyLengthPastBufferEndIsMalformed(t *testing.T) {
	b := newBufBuilder(0)
	b.propHeader(PropOpacity, 1000) // claims far more payload than exists
	b.u32(1)

	c := newCursor(b.buf, 0)
	_, err := readPropertyList(c)
	require.Error(t, err)
	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ErrMalformedProperty, xerr.Kind)
}

func TestZeroLengthOpacityIsMalformed(t *testing.T) {
	b := newBufBuilder(0)
	b.propHeader(PropOpacity, 0).propEnd()

	c := newCursor(b.buf, 0)
	_, err := readPropertyList(c)
	require.Error(t, err)
	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ErrMalformedProperty, xerr.Kind)
}

func TestColormapProperty(t *testing.T) {
	b := newBufBuilder(0)
	colors := []ColorRGB{{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6}}
	b.propColormap(colors).propEnd()

	c := newCursor(b.buf, 0)
	props, err := readPropertyList(c)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, colors, props[0].Colormap)
}

func TestItemPathProperty(t *testing.T) {
	b := newBufBuilder(0)
	b.propItemPath([]uint32{2, 0, 1}).propEnd()

	c := newCursor(b.buf, 0)
	props, err := readPropertyList(c)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, []uint32{2, 0, 1}, props[0].ItemPath)
}

func TestFloatOpacityProperty(t *testing.T) {
	b := newBufBuilder(0)
	b.propHeader(PropFloatOpacity, 4).f32(0.5).propEnd()

	c := newCursor(b.buf, 0)
	props, err := readPropertyList(c)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.True(t, props[0].HasFloatOp)
	assert.InDelta(t, 0.5, props[0].FloatOpacity, 0.0001)
}

func TestParasiteParsing(t *testing.T) {
	var payload []byte
	name := "gimp-text-layer"
	data := []byte("(text-layer (text \"hi\"))")

	nameBytes := append([]byte(name), 0)
	buf := newBufBuilder(0)
	buf.u32(uint32(len(nameBytes))).bytes(nameBytes).u32(0).u32(uint32(len(data))).bytes(data)
	payload = buf.buf

	parasites, err := parseParasites(payload)
	require.NoError(t, err)
	require.Len(t, parasites, 1)
	assert.Equal(t, name, parasites[0].Name)
	assert.Equal(t, data, parasites[0].Data)
}
