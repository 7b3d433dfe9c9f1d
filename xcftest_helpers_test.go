package xcf

import (
	"encoding/binary"
	"math"
)

// This file holds buffer-construction helpers shared by the package's
// table-driven tests. No .xcf fixtures ship with this module (see
// SPEC_FULL.md); tests build byte-exact synthetic buffers instead, the same
// way samuel-go-psp's decoder_test.go constructs raw PSP streams in-test.

type bufBuilder struct {
	buf     []byte
	ptrSize int
}

func newBufBuilder(version int) *bufBuilder {
	ptrSize := 4
	if version >= 11 {
		ptrSize = 8
	}
	return &bufBuilder{ptrSize: ptrSize}
}

func (b *bufBuilder) offset() uint64 { return uint64(len(b.buf)) }

func (b *bufBuilder) bytes(p []byte) *bufBuilder {
	b.buf = append(b.buf, p...)
	return b
}

func (b *bufBuilder) u8(v uint8) *bufBuilder {
	return b.bytes([]byte{v})
}

func (b *bufBuilder) u16(v uint16) *bufBuilder {
	p := make([]byte, 2)
	binary.BigEndian.PutUint16(p, v)
	return b.bytes(p)
}

func (b *bufBuilder) u32(v uint32) *bufBuilder {
	p := make([]byte, 4)
	binary.BigEndian.PutUint32(p, v)
	return b.bytes(p)
}

func (b *bufBuilder) i32(v int32) *bufBuilder { return b.u32(uint32(v)) }

func (b *bufBuilder) f32(v float32) *bufBuilder {
	return b.u32(math.Float32bits(v))
}

func (b *bufBuilder) ptr(v uint64) *bufBuilder {
	if b.ptrSize == 8 {
		p := make([]byte, 8)
		binary.BigEndian.PutUint64(p, v)
		return b.bytes(p)
	}
	return b.u32(uint32(v))
}

func (b *bufBuilder) cstr(s string) *bufBuilder {
	return b.bytes(append([]byte(s), 0))
}

// gimpString writes a u32-length-prefixed, NUL-terminated string as used for
// layer/channel names.
func (b *bufBuilder) gimpString(s string) *bufBuilder {
	if s == "" {
		return b.u32(0)
	}
	b.u32(uint32(len(s) + 1))
	return b.bytes(append([]byte(s), 0))
}

func (b *bufBuilder) propHeader(typ PropType, length uint32) *bufBuilder {
	return b.u32(uint32(typ)).u32(length)
}

func (b *bufBuilder) propEnd() *bufBuilder {
	return b.propHeader(PropEnd, 0)
}

func (b *bufBuilder) propOffsets(x, y int32) *bufBuilder {
	return b.propHeader(PropOffsets, 8).i32(x).i32(y)
}

func (b *bufBuilder) propOpacity(v uint32) *bufBuilder {
	return b.propHeader(PropOpacity, 4).u32(v)
}

func (b *bufBuilder) propVisible(v bool) *bufBuilder {
	n := uint32(0)
	if v {
		n = 1
	}
	return b.propHeader(PropVisible, 4).u32(n)
}

func (b *bufBuilder) propMode(mode uint32) *bufBuilder {
	return b.propHeader(PropMode, 4).u32(mode)
}

func (b *bufBuilder) propGroupItem() *bufBuilder {
	return b.propHeader(PropGroupItem, 0)
}

func (b *bufBuilder) propItemPath(path []uint32) *bufBuilder {
	b.propHeader(PropItemPath, uint32(len(path)*4))
	for _, idx := range path {
		b.u32(idx)
	}
	return b
}

func (b *bufBuilder) propCompression(v uint8) *bufBuilder {
	return b.propHeader(PropCompression, 1).u8(v)
}

func (b *bufBuilder) propColormap(colors []ColorRGB) *bufBuilder {
	b.propHeader(PropColormap, uint32(4+3*len(colors)))
	b.u32(uint32(len(colors)))
	for _, c := range colors {
		b.bytes([]byte{c.R, c.G, c.B})
	}
	return b
}

func (b *bufBuilder) propUnknown(typ PropType, payload []byte) *bufBuilder {
	b.propHeader(typ, uint32(len(payload)))
	return b.bytes(payload)
}

// rleEncodeLiteral encodes data as one or more "short verbatim" runs
// (opcode > 128), the simplest valid encoding for arbitrary bytes.
func rleEncodeLiteral(data []byte) []byte {
	var out []byte
	for len(data) > 0 {
		n := len(data)
		if n > 127 {
			n = 127
		}
		out = append(out, byte(256-n)) // opcode in [129,255], the short-verbatim range
		out = append(out, data[:n]...)
		data = data[n:]
	}
	return out
}

// rleEncodePlane RLE-encodes a single plane by literal-encoding it in full
// (valid, if not space-optimal, for any byte sequence).
func rleEncodePlane(plane []byte) []byte {
	return rleEncodeLiteral(plane)
}

