package xcf

// PropType identifies the shape of one property-list entry. Values match the
// XCF on-disk property type codes; see §4.2 of the format notes.
type PropType uint32

const (
	PropEnd              PropType = 0
	PropColormap         PropType = 1
	PropActiveLayer      PropType = 2
	PropActiveChannel    PropType = 3
	PropSelection        PropType = 4
	PropFloatingSelect   PropType = 5
	PropOpacity          PropType = 6
	PropMode             PropType = 7
	PropVisible          PropType = 8
	PropLinked           PropType = 9
	PropLockAlpha        PropType = 10
	PropApplyMask        PropType = 11
	PropEditMask         PropType = 12
	PropShowMask         PropType = 13
	PropShowMasked       PropType = 14
	PropOffsets          PropType = 15
	PropColor            PropType = 16
	PropCompression      PropType = 17
	PropGuides           PropType = 18
	PropResolution       PropType = 19
	PropTattoo           PropType = 20
	PropParasites        PropType = 21
	PropUnit             PropType = 22
	PropPaths            PropType = 23
	PropUserUnit         PropType = 24
	PropVectors          PropType = 25
	PropTextLayerFlags   PropType = 26
	PropSamplePoints     PropType = 27
	PropLockContent      PropType = 28
	PropGroupItem        PropType = 29
	PropItemPath         PropType = 30
	PropGroupItemFlags   PropType = 31
	PropFloatOpacity     PropType = 33
)

// ColorRGB is one colormap entry.
type ColorRGB struct {
	R, G, B uint8
}

// Guide is one saved ruler guide: horizontal when Horizontal is true,
// Position is the pixel offset from the top/left edge.
type Guide struct {
	Position   int32
	Horizontal bool
}

// Parasite is a named opaque metadata blob attached to an image or layer.
// Text layers store their string contents in a parasite named
// "gimp-text-layer" (see parasite.go for the S-expression shape of that
// payload).
type Parasite struct {
	Name  string
	Flags uint32
	Data  []byte
}

// property is one decoded property-list entry. Only the fields relevant to
// Type are populated; Raw always holds the untouched payload bytes so
// forward-compatible callers can reinterpret an unknown or partially-handled
// type themselves.
type property struct {
	Type PropType
	Raw  []byte

	Colormap     []ColorRGB
	Opacity      uint32
	FloatOpacity float32
	HasFloatOp   bool
	Mode         uint32
	Bool         bool // VISIBLE, LINKED, LOCK_ALPHA, APPLY/EDIT/SHOW_MASK(ED), LOCK_CONTENT
	OffsetX      int32
	OffsetY      int32
	Compression  uint8
	Parasites    []Parasite
	ItemPath     []uint32
	Tattoo       uint32
	Guides       []Guide
	ResolutionX  float32
	ResolutionY  float32
}

// readPropertyList reads a sequence of properties terminated by a PropEnd
// entry (which is consumed but not appended to the result). The cursor MUST
// advance by exactly each property's declared length regardless of whether
// the type was understood, per §4.2.
func readPropertyList(c *cursor) ([]property, error) {
	var props []property
	for {
		p, isEnd, err := readProperty(c)
		if err != nil {
			return nil, err
		}
		if isEnd {
			return props, nil
		}
		props = append(props, p)
	}
}

func readProperty(c *cursor) (property, bool, error) {
	typ, err := c.u32()
	if err != nil {
		return property{}, false, wrapErr(ErrMalformedProperty, err, "reading property type")
	}
	length, err := c.u32()
	if err != nil {
		return property{}, false, wrapErr(ErrMalformedProperty, err, "reading property length")
	}
	if err := c.need(int(length)); err != nil {
		return property{}, false, wrapErrf(ErrMalformedProperty, err, "property type %d claims length %d past end of buffer", typ, length)
	}
	payloadStart := c.pos
	payload, err := c.fixed(int(length))
	if err != nil {
		return property{}, false, wrapErr(ErrMalformedProperty, err, "reading property payload")
	}
	pt := PropType(typ)
	if pt == PropEnd {
		return property{}, true, nil
	}

	p := property{Type: pt, Raw: payload}
	pc := &cursor{buf: c.buf, pos: payloadStart, ptrSize: c.ptrSize}

	switch pt {
	case PropColormap:
		n, err := pc.u32()
		if err != nil {
			return property{}, false, wrapErr(ErrMalformedProperty, err, "reading colormap count")
		}
		cm := make([]ColorRGB, 0, n)
		for i := uint32(0); i < n; i++ {
			rgb, err := pc.fixed(3)
			if err != nil {
				return property{}, false, wrapErr(ErrMalformedProperty, err, "reading colormap entry")
			}
			cm = append(cm, ColorRGB{R: rgb[0], G: rgb[1], B: rgb[2]})
		}
		p.Colormap = cm

	case PropOpacity:
		if length != 4 {
			return property{}, false, newErrf(ErrMalformedProperty, "OPACITY property has length %d, want 4", length)
		}
		v, err := pc.u32()
		if err != nil {
			return property{}, false, wrapErr(ErrMalformedProperty, err, "reading opacity")
		}
		p.Opacity = v

	case PropFloatOpacity:
		v, err := pc.f32()
		if err != nil {
			return property{}, false, wrapErr(ErrMalformedProperty, err, "reading float opacity")
		}
		p.FloatOpacity = v
		p.HasFloatOp = true

	case PropMode:
		v, err := pc.u32()
		if err != nil {
			return property{}, false, wrapErr(ErrMalformedProperty, err, "reading blend mode")
		}
		p.Mode = v

	case PropVisible, PropLinked, PropLockAlpha, PropApplyMask, PropEditMask,
		PropShowMask, PropShowMasked, PropLockContent:
		v, err := pc.u32()
		if err != nil {
			return property{}, false, wrapErr(ErrMalformedProperty, err, "reading boolean property")
		}
		p.Bool = v != 0

	case PropOffsets:
		x, err := pc.i32()
		if err != nil {
			return property{}, false, wrapErr(ErrMalformedProperty, err, "reading x offset")
		}
		y, err := pc.i32()
		if err != nil {
			return property{}, false, wrapErr(ErrMalformedProperty, err, "reading y offset")
		}
		p.OffsetX, p.OffsetY = x, y

	case PropCompression:
		v, err := pc.u8()
		if err != nil {
			return property{}, false, wrapErr(ErrMalformedProperty, err, "reading compression type")
		}
		p.Compression = v

	case PropTattoo:
		v, err := pc.u32()
		if err != nil {
			return property{}, false, wrapErr(ErrMalformedProperty, err, "reading tattoo")
		}
		p.Tattoo = v

	case PropGuides:
		var guides []Guide
		for pc.remaining() >= 5 {
			pos, err := pc.i32()
			if err != nil {
				return property{}, false, wrapErr(ErrMalformedProperty, err, "reading guide position")
			}
			orient, err := pc.u8()
			if err != nil {
				return property{}, false, wrapErr(ErrMalformedProperty, err, "reading guide orientation")
			}
			guides = append(guides, Guide{Position: pos, Horizontal: orient == 1})
		}
		p.Guides = guides

	case PropResolution:
		x, err := pc.f32()
		if err != nil {
			return property{}, false, wrapErr(ErrMalformedProperty, err, "reading x resolution")
		}
		y, err := pc.f32()
		if err != nil {
			return property{}, false, wrapErr(ErrMalformedProperty, err, "reading y resolution")
		}
		p.ResolutionX, p.ResolutionY = x, y

	case PropParasites:
		parasites, err := parseParasites(payload)
		if err != nil {
			return property{}, false, err
		}
		p.Parasites = parasites

	case PropGroupItem:
		// length is 0; presence alone marks the layer as a group container.

	case PropItemPath:
		n := int(length) / 4
		path := make([]uint32, 0, n)
		for i := 0; i < n; i++ {
			v, err := pc.u32()
			if err != nil {
				return property{}, false, wrapErr(ErrMalformedProperty, err, "reading item path index")
			}
			path = append(path, v)
		}
		p.ItemPath = path

	default:
		// Unknown/other types: payload already captured in Raw, cursor
		// already advanced by length via c.fixed above.
	}

	return p, false, nil
}

// parseParasites reads the (name-len, name, flags, data-len, data) tuples
// packed into a PARASITES property payload until it is exhausted.
func parseParasites(payload []byte) ([]Parasite, error) {
	pc := &cursor{buf: payload, ptrSize: 4}
	var out []Parasite
	for pc.remaining() > 0 {
		nameLen, err := pc.u32()
		if err != nil {
			return nil, wrapErr(ErrMalformedProperty, err, "reading parasite name length")
		}
		nameBytes, err := pc.fixed(int(nameLen))
		if err != nil {
			return nil, wrapErr(ErrMalformedProperty, err, "reading parasite name")
		}
		name := string(nameBytes)
		if nameLen > 0 && nameBytes[nameLen-1] == 0 {
			name = string(nameBytes[:nameLen-1])
		}
		flags, err := pc.u32()
		if err != nil {
			return nil, wrapErr(ErrMalformedProperty, err, "reading parasite flags")
		}
		dataLen, err := pc.u32()
		if err != nil {
			return nil, wrapErr(ErrMalformedProperty, err, "reading parasite data length")
		}
		data, err := pc.fixed(int(dataLen))
		if err != nil {
			return nil, wrapErr(ErrMalformedProperty, err, "reading parasite data")
		}
		out = append(out, Parasite{Name: name, Flags: flags, Data: append([]byte(nil), data...)})
	}
	return out, nil
}
