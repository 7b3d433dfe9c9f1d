package xcf

import (
	"math"

	"github.com/rs/zerolog"
)

const tileSize = 64

type tileHierarchy struct {
	Width, Height uint32
	BPP           uint32
	LevelPtr      uint64
}

func readHierarchy(c *cursor) (tileHierarchy, error) {
	width, err := c.u32()
	if err != nil {
		return tileHierarchy{}, wrapErr(ErrShortBuffer, err, "reading hierarchy width")
	}
	height, err := c.u32()
	if err != nil {
		return tileHierarchy{}, wrapErr(ErrShortBuffer, err, "reading hierarchy height")
	}
	bpp, err := c.u32()
	if err != nil {
		return tileHierarchy{}, wrapErr(ErrShortBuffer, err, "reading hierarchy bpp")
	}
	levelPtrs, err := c.pointerList()
	if err != nil {
		return tileHierarchy{}, wrapErr(ErrShortBuffer, err, "reading hierarchy level pointer list")
	}
	if len(levelPtrs) == 0 {
		return tileHierarchy{}, newErr(ErrInvalidPointer, "hierarchy has no level pointers")
	}
	// levelPtrs[1:] are unused mipmap levels; only level 0 is ever decoded.
	return tileHierarchy{Width: width, Height: height, BPP: bpp, LevelPtr: levelPtrs[0]}, nil
}

// tileGrid describes how a W x H image is carved into 64x64 (edge-clipped)
// tiles, row-major from the top-left, per §3.
type tileGrid struct {
	W, H          uint32
	across, down  int
	lastColWidth  int
	lastRowHeight int
}

func newTileGrid(w, h uint32) tileGrid {
	across := int((w + tileSize - 1) / tileSize)
	down := int((h + tileSize - 1) / tileSize)
	lastColWidth := int(w) % tileSize
	if lastColWidth == 0 {
		lastColWidth = tileSize
	}
	lastRowHeight := int(h) % tileSize
	if lastRowHeight == 0 {
		lastRowHeight = tileSize
	}
	if w == 0 {
		across, lastColWidth = 0, 0
	}
	if h == 0 {
		down, lastRowHeight = 0, 0
	}
	return tileGrid{W: w, H: h, across: across, down: down, lastColWidth: lastColWidth, lastRowHeight: lastRowHeight}
}

func (g tileGrid) count() int { return g.across * g.down }

// bounds returns the top-left corner and size (in pixels) of tile index k,
// enumerated row-major.
func (g tileGrid) bounds(k int) (x, y, w, h int) {
	tx := k % g.across
	ty := k / g.across
	x, y = tx*tileSize, ty*tileSize
	w = tileSize
	if tx == g.across-1 {
		w = g.lastColWidth
	}
	h = tileSize
	if ty == g.down-1 {
		h = g.lastRowHeight
	}
	return
}

// decodeRLEPlane fills dest with exactly len(dest) bytes per the GIMP RLE
// scheme in §4.5. This core follows spec.md's op-code table literally: 128
// is the long identical-run escape, 127 is the long verbatim-run escape —
// callers relying on the inverse reading some other XCF tooling uses should
// see DESIGN.md's note on this ambiguity.
func decodeRLEPlane(c *cursor, dest []byte) error {
	next := 0
	for next < len(dest) {
		n, err := c.u8()
		if err != nil {
			return wrapErr(ErrMalformedTile, err, "reading RLE opcode")
		}
		switch {
		case n < 127:
			v, err := c.u8()
			if err != nil {
				return wrapErr(ErrMalformedTile, err, "reading RLE short-run value")
			}
			count := int(n) + 1
			if next+count > len(dest) {
				return newErr(ErrMalformedTile, "RLE short run overruns channel")
			}
			for i := 0; i < count; i++ {
				dest[next] = v
				next++
			}
		case n == 128:
			m, err := c.u16()
			if err != nil {
				return wrapErr(ErrMalformedTile, err, "reading RLE long-run count")
			}
			v, err := c.u8()
			if err != nil {
				return wrapErr(ErrMalformedTile, err, "reading RLE long-run value")
			}
			count := int(m)
			if next+count > len(dest) {
				return newErr(ErrMalformedTile, "RLE long identical run overruns channel")
			}
			for i := 0; i < count; i++ {
				dest[next] = v
				next++
			}
		case n == 127:
			m, err := c.u16()
			if err != nil {
				return wrapErr(ErrMalformedTile, err, "reading RLE long-verbatim count")
			}
			count := int(m)
			if next+count > len(dest) {
				return newErr(ErrMalformedTile, "RLE long verbatim run overruns channel")
			}
			lit, err := c.fixed(count)
			if err != nil {
				return wrapErr(ErrMalformedTile, err, "reading RLE long-verbatim bytes")
			}
			copy(dest[next:next+count], lit)
			next += count
		default: // n > 128
			count := 256 - int(n)
			if next+count > len(dest) {
				return newErr(ErrMalformedTile, "RLE short verbatim run overruns channel")
			}
			lit, err := c.fixed(count)
			if err != nil {
				return wrapErr(ErrMalformedTile, err, "reading RLE short-verbatim bytes")
			}
			copy(dest[next:next+count], lit)
			next += count
		}
	}
	return nil
}

// decodeTilePlanar reads one RLE-compressed tile's bpp byte-planes and
// deinterleaves them into a single buffer strided by bpp (plane p's byte for
// pixel i lands at dest[i*bpp+p]), matching the channel-planar layout in
// §4.5.
func decodeTilePlanar(c *cursor, w, h int, bpp int, scratch []byte) ([]byte, error) {
	pixels := w * h
	dest := scratch[:pixels*bpp]
	plane := make([]byte, pixels)
	for p := 0; p < bpp; p++ {
		if err := decodeRLEPlane(c, plane); err != nil {
			return nil, err
		}
		for i := 0; i < pixels; i++ {
			dest[i*bpp+p] = plane[i]
		}
	}
	return dest, nil
}

// sampleTo8 converts one raw sample (bytesPerChannel wide, big-endian for integer
// precisions) into an 8-bit value per §4.5's precision-conversion rules.
func sampleTo8(precision Precision, raw []byte) byte {
	switch precision.bytesPerChannel() {
	case 1:
		return raw[0]
	case 2:
		if precision.isFloat() { // HALF
			return halfTo8(raw)
		}
		v := uint16(raw[0])<<8 | uint16(raw[1])
		return byte(v / 257)
	case 4:
		if precision.isFloat() { // FLOAT, little-endian per the glossary's v011+ note
			bits := uint32(raw[3])<<24 | uint32(raw[2])<<16 | uint32(raw[1])<<8 | uint32(raw[0])
			return floatBitsTo8(bits)
		}
		v := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
		return byte(v / 16843009)
	case 8: // DOUBLE, little-endian like FLOAT
		bits := uint64(0)
		for i := 0; i < 8; i++ {
			bits |= uint64(raw[i]) << (8 * i)
		}
		return doubleBitsTo8(bits)
	default:
		return raw[0]
	}
}

func floatBitsTo8(bits uint32) byte {
	f := math.Float32frombits(bits)
	return clampFloatTo8(float64(f))
}

func doubleBitsTo8(bits uint64) byte {
	f := math.Float64frombits(bits)
	return clampFloatTo8(f)
}

func clampFloatTo8(f float64) byte {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return byte(f*255 + 0.5)
}

// halfTo8 is an IEEE-754 binary16 -> 8-bit conversion: enough precision
// survives to hit 0-255 correctly for the normalized [0,1] range used by
// image data. No library in the retrieved corpus carries a half-float type,
// so this is hand-rolled against math.Ldexp rather than reimplementing one.
func halfTo8(raw []byte) byte {
	bits := uint16(raw[0])<<8 | uint16(raw[1])
	sign := bits >> 15
	exp := (bits >> 10) & 0x1f
	frac := bits & 0x3ff
	var f float64
	switch {
	case exp == 0:
		f = math.Ldexp(float64(frac)/1024.0, -14)
	case exp == 0x1f:
		if frac == 0 {
			f = math.Inf(1)
		} else {
			return 0 // NaN: no sane 8-bit mapping
		}
	default:
		f = math.Ldexp(1.0+float64(frac)/1024.0, int(exp)-15)
	}
	if sign == 1 {
		f = -f
	}
	return clampFloatTo8(f)
}

// decodeLayerTile decodes tile index k of a layer's level-0 hierarchy into
// an already-precision-converted, bpp=logical-channel-count buffer ready for
// PixelConverter. scratch must be at least tileSize*tileSize*rawBPP bytes
// and is reused by the caller across tiles.
func decodeLayerTile(p *Parser, h tileHierarchy, grid tileGrid, k int, scratch []byte, log *zerolog.Logger) (data []byte, x, y, w, ht int, err error) {
	x, y, w, ht = grid.bounds(k)

	levelCursor := p.cursorAt(h.LevelPtr)
	if _, err = levelCursor.u32(); err != nil { // level width (redundant)
		return nil, 0, 0, 0, 0, wrapErr(ErrShortBuffer, err, "reading level width")
	}
	if _, err = levelCursor.u32(); err != nil { // level height (redundant)
		return nil, 0, 0, 0, 0, wrapErr(ErrShortBuffer, err, "reading level height")
	}
	tilePtrs, perr := levelCursor.pointerList()
	if perr != nil {
		return nil, 0, 0, 0, 0, wrapErr(ErrShortBuffer, perr, "reading level tile pointer list")
	}
	if k >= len(tilePtrs) {
		return nil, 0, 0, 0, 0, newErr(ErrInvalidPointer, "tile index out of range for level")
	}

	tc := p.cursorAt(tilePtrs[k])
	rawBPP := int(h.BPP)
	raw, err := decodeTilePlanar(tc, w, ht, rawBPP, scratch)
	if err != nil {
		return nil, 0, 0, 0, 0, err
	}

	bpc := p.Precision.bytesPerChannel()
	logicalChannels := rawBPP / bpc
	if logicalChannels*bpc != rawBPP {
		return nil, 0, 0, 0, 0, newErrf(ErrMalformedTile, "hierarchy bpp %d not a multiple of precision width %d", rawBPP, bpc)
	}

	if bpc == 1 {
		return raw, x, y, w, ht, nil
	}

	out := make([]byte, w*ht*logicalChannels)
	sample := make([]byte, bpc)
	for i := 0; i < w*ht; i++ {
		for ch := 0; ch < logicalChannels; ch++ {
			copy(sample, raw[(i*logicalChannels+ch)*bpc:(i*logicalChannels+ch)*bpc+bpc])
			out[i*logicalChannels+ch] = sampleTo8(p.Precision, sample)
		}
	}
	return out, x, y, w, ht, nil
}

// decodeSingleChannelHierarchy decodes an entire W x H single-channel
// (grayscale mask) image in one call, used by LayerMask since masks are
// small and inspected wholesale rather than tiled lazily by a renderer.
func decodeSingleChannelHierarchy(p *Parser, ptr uint64, w, h uint32, log *zerolog.Logger) ([]byte, error) {
	if ptr == 0 || w == 0 || h == 0 {
		return nil, nil
	}
	c := p.cursorAt(ptr)
	hier, err := readHierarchy(c)
	if err != nil {
		return nil, err
	}
	grid := newTileGrid(w, h)
	out := make([]byte, int(w)*int(h))
	scratch := make([]byte, tileSize*tileSize*8)
	for k := 0; k < grid.count(); k++ {
		tile, tx, ty, tw, th, err := decodeLayerTile(p, hier, grid, k, scratch, log)
		if err != nil {
			return nil, err
		}
		for row := 0; row < th; row++ {
			srcOff := row * tw
			dstOff := (ty+row)*int(w) + tx
			copy(out[dstOff:dstOff+tw], tile[srcOff:srcOff+tw])
		}
	}
	return out, nil
}
