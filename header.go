package xcf

import "github.com/rs/zerolog"

// BaseType is the image-level color space: RGB, Grayscale, or Indexed.
type BaseType uint32

const (
	BaseRGB       BaseType = 0
	BaseGrayscale BaseType = 1
	BaseIndexed   BaseType = 2
)

func (b BaseType) String() string {
	switch b {
	case BaseRGB:
		return "RGB"
	case BaseGrayscale:
		return "Grayscale"
	case BaseIndexed:
		return "Indexed"
	default:
		return "Unknown"
	}
}

// Precision is one of the twelve bit-depth/linearity codes a v004+ XCF file
// may declare. Pre-v004 files are always U8Gamma.
type Precision uint32

const (
	PrecisionU8Linear     Precision = 100
	PrecisionU8Gamma      Precision = 150
	PrecisionU16Linear    Precision = 200
	PrecisionU16Gamma     Precision = 250
	PrecisionU32Linear    Precision = 300
	PrecisionU32Gamma     Precision = 350
	PrecisionHalfLinear   Precision = 500
	PrecisionHalfGamma    Precision = 550
	PrecisionFloatLinear  Precision = 600
	PrecisionFloatGamma   Precision = 650
	PrecisionDoubleLinear Precision = 700
	PrecisionDoubleGamma  Precision = 750
)

// known reports whether p is one of the twelve documented precision codes.
func (p Precision) known() bool {
	switch p {
	case PrecisionU8Linear, PrecisionU8Gamma,
		PrecisionU16Linear, PrecisionU16Gamma,
		PrecisionU32Linear, PrecisionU32Gamma,
		PrecisionHalfLinear, PrecisionHalfGamma,
		PrecisionFloatLinear, PrecisionFloatGamma,
		PrecisionDoubleLinear, PrecisionDoubleGamma:
		return true
	default:
		return false
	}
}

// bytesPerChannel returns the on-disk sample width for p's bit depth.
func (p Precision) bytesPerChannel() int {
	switch p {
	case PrecisionU8Linear, PrecisionU8Gamma:
		return 1
	case PrecisionU16Linear, PrecisionU16Gamma, PrecisionHalfLinear, PrecisionHalfGamma:
		return 2
	case PrecisionU32Linear, PrecisionU32Gamma, PrecisionFloatLinear, PrecisionFloatGamma:
		return 4
	case PrecisionDoubleLinear, PrecisionDoubleGamma:
		return 8
	default:
		return 1
	}
}

func (p Precision) isFloat() bool {
	switch p {
	case PrecisionHalfLinear, PrecisionHalfGamma,
		PrecisionFloatLinear, PrecisionFloatGamma,
		PrecisionDoubleLinear, PrecisionDoubleGamma:
		return true
	default:
		return false
	}
}

// Channel is image-level (non-layer) metadata: a saved selection channel.
// Only its properties are parsed; channel pixel data is never decoded since
// selection channels cannot be composited per §1's non-goals.
type Channel struct {
	Name    string
	Opacity uint32
	Visible bool
	Color   ColorRGB
	Tattoo  uint32
}

// ParseOptions configures a Parse call. The zero value is a complete, sane
// default.
type ParseOptions struct {
	// Logger receives Debug/Warn diagnostics for forward-compatible data the
	// core tolerates rather than rejects (unknown property types, unknown
	// blend modes >= 22, unrecognized precision codes unless StrictPrecision
	// is set). A nil Logger is a no-op.
	Logger *zerolog.Logger
	// StrictPrecision turns an unrecognized precision code into a hard
	// ErrUnsupportedPrecision instead of a warning + best-effort fallback to
	// PrecisionU8Gamma.
	StrictPrecision bool
	// MaxTileBytes bounds the scratch allocation TileDecoder will make for a
	// single tile, guarding against a corrupt bpp/level-size implying an
	// absurd allocation. Zero means use the default (64*64*4*8, enough for
	// one DOUBLE-precision RGBA tile: 4 channels at 8 bytes each).
	MaxTileBytes int
}

func (o ParseOptions) logger() *zerolog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	disabled := zerolog.Nop()
	return &disabled
}

func (o ParseOptions) maxTileBytes() int {
	if o.MaxTileBytes > 0 {
		return o.MaxTileBytes
	}
	return tileSize * tileSize * 4 * 8
}

// Parser is the parsed, read-only form of one XCF buffer. After Parse
// returns, every field and layer record is already compiled; there is no
// further mutation, so a *Parser is safe to share and read from multiple
// goroutines.
type Parser struct {
	Width, Height   uint32
	Base            BaseType
	Precision       Precision
	Version         int
	Colormap        []ColorRGB
	CompressionType uint8
	Parasites       []Parasite
	Tattoo          uint32
	Guides          []Guide
	ResolutionX     float32
	ResolutionY     float32

	Channels []Channel

	layers []*Layer
	root   *Node

	buf     []byte
	opts    ParseOptions
	ptrSize int
}

const xcfMagic = "gimp xcf "

// Parse reads a complete XCF buffer and returns a read-only Parser, or an
// *Error identifying what went wrong. buf is borrowed for the parser's
// lifetime; the caller must not mutate it afterwards.
func Parse(buf []byte) (*Parser, error) {
	return ParseWithOptions(buf, ParseOptions{})
}

// ParseWithOptions is Parse with explicit ParseOptions.
func ParseWithOptions(buf []byte, opts ParseOptions) (*Parser, error) {
	log := opts.logger()

	if len(buf) < 9+4+1 {
		return nil, newErr(ErrShortBuffer, "buffer too small to contain an XCF header")
	}
	if string(buf[:9]) != xcfMagic {
		return nil, newErr(ErrUnsupportedFormat, "bad magic ID")
	}

	versionStr := string(buf[9:13])
	version, err := parseVersionString(versionStr)
	if err != nil {
		return nil, err
	}

	c := newCursor(buf, version)
	c.pos = 13
	if _, err := c.u8(); err != nil { // padding
		return nil, wrapErr(ErrShortBuffer, err, "reading version padding byte")
	}

	width, err := c.u32()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading width")
	}
	height, err := c.u32()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading height")
	}
	baseRaw, err := c.u32()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading base type")
	}

	precision := PrecisionU8Gamma
	if version >= 4 {
		precRaw, err := c.u32()
		if err != nil {
			return nil, wrapErr(ErrShortBuffer, err, "reading precision")
		}
		precision = Precision(precRaw)
		if !precision.known() {
			if opts.StrictPrecision {
				return nil, newErrf(ErrUnsupportedPrecision, "unrecognized precision code %d", precRaw)
			}
			log.Warn().Uint32("precision", precRaw).Msg("unrecognized precision code, falling back to U8_GAMMA")
			precision = PrecisionU8Gamma
		}
	}

	props, err := readPropertyList(c)
	if err != nil {
		return nil, err
	}

	p := &Parser{
		Width:     width,
		Height:    height,
		Base:      BaseType(baseRaw),
		Precision: precision,
		Version:   version,
		buf:       buf,
		opts:      opts,
		ptrSize:   c.ptrSize,
	}
	applyImageProperties(p, props, log)

	layerPtrs, err := c.pointerList()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading layer pointer list")
	}
	channelPtrs, err := c.pointerList()
	if err != nil {
		return nil, wrapErr(ErrShortBuffer, err, "reading channel pointer list")
	}

	layers := make([]*Layer, 0, len(layerPtrs))
	for i, ptr := range layerPtrs {
		l, err := compileLayer(p, ptr, log)
		if err != nil {
			return nil, wrapErrf(errKind(err), err, "compiling layer %d at offset %d", i, ptr)
		}
		layers = append(layers, l)
	}
	p.layers = layers

	channels := make([]Channel, 0, len(channelPtrs))
	for _, ptr := range channelPtrs {
		ch, err := compileChannel(p, ptr)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	p.Channels = channels

	p.root = buildHierarchy(layers)

	return p, nil
}


func parseVersionString(s string) (int, error) {
	if s == "file" {
		return 0, nil
	}
	if len(s) != 4 || s[0] != 'v' {
		return 0, newErr(ErrUnsupportedFormat, "unrecognized version string: "+s)
	}
	n := 0
	for i := 1; i < 4; i++ {
		d := s[i]
		if d < '0' || d > '9' {
			return 0, newErr(ErrUnsupportedFormat, "unrecognized version string: "+s)
		}
		n = n*10 + int(d-'0')
	}
	return n, nil
}

func applyImageProperties(p *Parser, props []property, log *zerolog.Logger) {
	for _, prop := range props {
		switch prop.Type {
		case PropColormap:
			p.Colormap = prop.Colormap
		case PropCompression:
			p.CompressionType = prop.Compression
		case PropParasites:
			p.Parasites = append(p.Parasites, prop.Parasites...)
		case PropTattoo:
			p.Tattoo = prop.Tattoo
		case PropGuides:
			p.Guides = append(p.Guides, prop.Guides...)
		case PropResolution:
			p.ResolutionX, p.ResolutionY = prop.ResolutionX, prop.ResolutionY
		case PropEnd, PropActiveLayer, PropActiveChannel, PropSelection,
			PropFloatingSelect, PropOpacity, PropMode, PropVisible, PropLinked,
			PropLockAlpha, PropApplyMask, PropEditMask, PropShowMask,
			PropShowMasked, PropOffsets, PropColor, PropUnit, PropPaths,
			PropUserUnit, PropVectors, PropTextLayerFlags, PropSamplePoints,
			PropLockContent, PropGroupItem, PropItemPath, PropGroupItemFlags,
			PropFloatOpacity:
			// not meaningful at image level; tolerated.
		default:
			log.Debug().Uint32("type", uint32(prop.Type)).Msg("unknown image-level property type, skipped")
		}
	}
}

func compileChannel(p *Parser, ptr uint64) (Channel, error) {
	c := p.cursorAt(ptr)
	width, err := c.u32()
	if err != nil {
		return Channel{}, wrapErr(ErrShortBuffer, err, "reading channel width")
	}
	height, err := c.u32()
	if err != nil {
		return Channel{}, wrapErr(ErrShortBuffer, err, "reading channel height")
	}
	_, _ = width, height // channel pixel dimensions are not used (no pixel decode)
	name, err := readChannelName(c)
	if err != nil {
		return Channel{}, err
	}
	props, err := readPropertyList(c)
	if err != nil {
		return Channel{}, err
	}
	ch := Channel{Name: name, Visible: true, Opacity: 255}
	for _, prop := range props {
		switch prop.Type {
		case PropOpacity:
			ch.Opacity = prop.Opacity
		case PropVisible:
			ch.Visible = prop.Bool
		case PropColor:
			if len(prop.Raw) >= 3 {
				ch.Color = ColorRGB{R: prop.Raw[0], G: prop.Raw[1], B: prop.Raw[2]}
			}
		case PropTattoo:
			ch.Tattoo = prop.Tattoo
		}
	}
	return ch, nil
}

func readChannelName(c *cursor) (string, error) {
	length, err := c.u32()
	if err != nil {
		return "", wrapErr(ErrShortBuffer, err, "reading channel name length")
	}
	if length == 0 {
		return "", nil
	}
	data, err := c.fixed(int(length))
	if err != nil {
		return "", wrapErr(ErrShortBuffer, err, "reading channel name")
	}
	if data[length-1] == 0 {
		return string(data[:length-1]), nil
	}
	return string(data), nil
}

// cursorAt seats a fresh cursor at an absolute offset into the parser's
// buffer. An offset past the end of the buffer seats the cursor at the end,
// so the first read from it fails with ErrShortBuffer.
func (p *Parser) cursorAt(offset uint64) *cursor {
	c := newCursor(p.buf, p.Version)
	if offset > uint64(len(p.buf)) {
		offset = uint64(len(p.buf))
	}
	c.pos = int(offset)
	return c
}

// Layers returns the flat, file-ordered list of layers.
func (p *Parser) Layers() []*Layer { return p.layers }

// Hierarchy returns the root of the reconstructed group tree (see §4.7).
func (p *Parser) Hierarchy() *Node { return p.root }

// LayerByName returns the first layer whose canonical Name matches, or nil.
func (p *Parser) LayerByName(name string) *Layer {
	for _, l := range p.layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// LayerByIndex returns the i-th layer in file order, or nil if out of range.
func (p *Parser) LayerByIndex(i int) *Layer {
	if i < 0 || i >= len(p.layers) {
		return nil
	}
	return p.layers[i]
}
