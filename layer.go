package xcf

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// LayerType is a layer's per-pixel payload shape, independent of the
// image-level BaseType.
type LayerType uint32

const (
	LayerRGB      LayerType = 0
	LayerRGBA     LayerType = 1
	LayerGray     LayerType = 2
	LayerGrayA    LayerType = 3
	LayerIndexed  LayerType = 4
	LayerIndexedA LayerType = 5
)

// bpp returns the channel count (bytes per pixel in the decoded tile) for
// this layer type.
func (t LayerType) bpp() int {
	switch t {
	case LayerRGB:
		return 3
	case LayerRGBA:
		return 4
	case LayerGray:
		return 1
	case LayerGrayA:
		return 2
	case LayerIndexed:
		return 1
	case LayerIndexedA:
		return 2
	default:
		return 0
	}
}

func (t LayerType) hasAlpha() bool {
	switch t {
	case LayerRGBA, LayerGrayA, LayerIndexedA:
		return true
	default:
		return false
	}
}

// LayerFlags is the set of single-bit boolean properties a layer can carry
// beyond Visible (which is common enough to get its own field).
type LayerFlags uint32

const (
	FlagLinked LayerFlags = 1 << iota
	FlagLockAlpha
	FlagApplyMask
	FlagEditMask
	FlagShowMask
	FlagShowMasked
	FlagLockContent
)

func (f LayerFlags) has(bit LayerFlags) bool { return f&bit != 0 }

// LayerMask is the decoded grayscale pixel data of a layer mask. Per §9's
// non-goal on rendering masks as vectors, this is raw pixel inspection only
// — RenderDriver never applies it to alpha.
type LayerMask struct {
	Width, Height uint32
	// Gray holds one byte per pixel, row-major, already converted to 8-bit.
	Gray []byte
}

// Layer is one layer record: either a leaf with pixel data, or a group
// container (IsGroup == true) with no pixel data of its own.
type Layer struct {
	Name          string // canonical, suffix-trimmed
	RawName       string // as stored in the file
	Width, Height uint32
	X, Y          int32
	Type          LayerType
	Mode          BlendMode
	Opacity       uint8 // effective, 0-255; FLOAT_OPACITY already folded in
	Visible       bool
	IsGroup       bool
	ItemPath      []uint32
	Parasites     []Parasite
	Flags         LayerFlags
	Tattoo        uint32
	Mask          *LayerMask

	// QualifiedName is filled in by buildHierarchy once the tree is known;
	// it is the slash-joined ancestor names followed by Name.
	QualifiedName string

	parser       *Parser
	hierarchyPtr uint64
	maskPtr      uint64
}

// Parasite looks up a named parasite, returning its data and whether it was
// present.
func (l *Layer) Parasite(name string) ([]byte, bool) {
	for _, p := range l.Parasites {
		if p.Name == name {
			return p.Data, true
		}
	}
	return nil, false
}

// TextContent parses the "gimp-text-layer" parasite (if present) and
// extracts its "text" field, per §1's treatment of text layers: they yield
// their rasterized pixels plus parasite metadata, never a vector rendering.
func (l *Layer) TextContent() (string, bool) {
	data, ok := l.Parasite("gimp-text-layer")
	if !ok {
		return "", false
	}
	node, err := ParseSExpr(data)
	if err != nil {
		return "", false
	}
	return node.Field("text")
}

func compileLayer(p *Parser, ptr uint64, log *zerolog.Logger) (*Layer, error) {
	c := p.cursorAt(ptr)

	width, err := c.u32()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading layer width")
	}
	height, err := c.u32()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading layer height")
	}
	typeRaw, err := c.u32()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading layer type")
	}
	rawName, err := readLayerName(c)
	if err != nil {
		return nil, err
	}

	props, err := readPropertyList(c)
	if err != nil {
		return nil, err
	}

	hierarchyPtr, err := c.pointer()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading layer hierarchy pointer")
	}
	maskPtr, err := c.pointer()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading layer mask pointer")
	}

	l := &Layer{
		RawName:      rawName,
		Name:         normalizeLayerName(rawName),
		Width:        width,
		Height:       height,
		Type:         LayerType(typeRaw),
		Opacity:      255,
		Visible:      true,
		parser:       p,
		hierarchyPtr: hierarchyPtr,
		maskPtr:      maskPtr,
	}

	var hasFloatOpacity bool
	var legacyOpacity = uint32(255)
	var floatOpacity float32

	for _, prop := range props {
		switch prop.Type {
		case PropOffsets:
			l.X, l.Y = prop.OffsetX, prop.OffsetY
		case PropVisible:
			l.Visible = prop.Bool
		case PropOpacity:
			legacyOpacity = prop.Opacity
		case PropFloatOpacity:
			floatOpacity = prop.FloatOpacity
			hasFloatOpacity = true
		case PropMode:
			l.Mode = resolveBlendMode(prop.Mode, log)
		case PropGroupItem:
			l.IsGroup = true
		case PropItemPath:
			l.ItemPath = prop.ItemPath
		case PropParasites:
			l.Parasites = append(l.Parasites, prop.Parasites...)
		case PropTattoo:
			l.Tattoo = prop.Tattoo
		case PropLinked:
			l.setFlag(FlagLinked, prop.Bool)
		case PropLockAlpha:
			l.setFlag(FlagLockAlpha, prop.Bool)
		case PropApplyMask:
			l.setFlag(FlagApplyMask, prop.Bool)
		case PropEditMask:
			l.setFlag(FlagEditMask, prop.Bool)
		case PropShowMask:
			l.setFlag(FlagShowMask, prop.Bool)
		case PropShowMasked:
			l.setFlag(FlagShowMasked, prop.Bool)
		case PropLockContent:
			l.setFlag(FlagLockContent, prop.Bool)
		default:
			log.Debug().Uint32("type", uint32(prop.Type)).Str("layer", rawName).Msg("unknown layer property type, skipped")
		}
	}

	if hasFloatOpacity {
		l.Opacity = floatToByte(floatOpacity)
	} else {
		l.Opacity = uint8(legacyOpacity)
	}

	if !l.IsGroup && maskPtr != 0 {
		mask, err := decodeMask(p, maskPtr, log)
		if err != nil {
			return nil, err
		}
		l.Mask = mask
	}

	return l, nil
}

func (l *Layer) setFlag(bit LayerFlags, v bool) {
	if v {
		l.Flags |= bit
	} else {
		l.Flags &^= bit
	}
}

func floatToByte(f float32) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}

// readLayerName reads the u32 length prefix then that many bytes, trimming
// a trailing NUL terminator. The length field is advisory per §4.4; a
// mismatch between it and an embedded NUL is not an error here, since we
// trust the length to delimit the run the way the teacher's readString did.
func readLayerName(c *cursor) (string, error) {
	length, err := c.u32()
	if err != nil {
		return "", wrapErr(ErrShortBuffer, err, "reading layer name length")
	}
	if length == 0 {
		return "", nil
	}
	data, err := c.fixed(int(length))
	if err != nil {
		return "", wrapErr(ErrShortBuffer, err, "reading layer name")
	}
	if data[length-1] == 0 {
		return string(data[:length-1]), nil
	}
	return string(data), nil
}

// normalizeLayerName trims trailing " copy" and " #N" suffixes and
// whitespace, producing the canonical display name used for
// LayerByName/QualifiedName lookups. The raw name is preserved separately
// for debugging.
func normalizeLayerName(raw string) string {
	name := strings.TrimRight(raw, " \t")
	for {
		trimmed := strings.TrimSuffix(name, " copy")
		if trimmed != name {
			name = strings.TrimRight(trimmed, " \t")
			continue
		}
		if idx := strings.LastIndex(name, " #"); idx >= 0 {
			suffix := name[idx+2:]
			if suffix != "" {
				if _, err := strconv.Atoi(suffix); err == nil {
					name = strings.TrimRight(name[:idx], " \t")
					continue
				}
			}
		}
		break
	}
	return name
}

func decodeMask(p *Parser, ptr uint64, log *zerolog.Logger) (*LayerMask, error) {
	c := p.cursorAt(ptr)
	width, err := c.u32()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading layer mask width")
	}
	height, err := c.u32()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading layer mask height")
	}
	// A layer mask is stored as a channel record: width, height, name,
	// properties, hierarchy pointer. There is no type field here (unlike a
	// layer record) since a mask is always single-channel grayscale.
	if _, err := readLayerName(c); err != nil {
		return nil, err
	}
	props, err := readPropertyList(c)
	if err != nil {
		return nil, err
	}
	_ = props // mask-specific properties (default color, flags) aren't surfaced
	maskHierarchyPtr, err := c.pointer()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading mask hierarchy pointer")
	}

	gray, err := decodeSingleChannelHierarchy(p, maskHierarchyPtr, width, height, log)
	if err != nil {
		return nil, err
	}
	return &LayerMask{Width: width, Height: height, Gray: gray}, nil
}
