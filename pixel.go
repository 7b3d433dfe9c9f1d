package xcf

// RGBA is the core's internal 8-bit-per-channel working color.
type RGBA struct {
	R, G, B, A uint8
}

// convertPixel maps one decoded, precision-converted tile pixel (already
// one byte per logical channel) to RGBA, per §4.6. idx indexes the pixel
// within the tile (row-major); raw is the whole tile's channel-interleaved
// buffer.
func convertPixel(layerType LayerType, base BaseType, colormap []ColorRGB, raw []byte, idx int) RGBA {
	bpp := layerType.bpp()
	off := idx * bpp
	switch layerType {
	case LayerRGB:
		return RGBA{raw[off], raw[off+1], raw[off+2], 255}
	case LayerRGBA:
		return RGBA{raw[off], raw[off+1], raw[off+2], raw[off+3]}
	case LayerGray:
		v := raw[off]
		return RGBA{v, v, v, 255}
	case LayerGrayA:
		v := raw[off]
		return RGBA{v, v, v, raw[off+1]}
	case LayerIndexed:
		return indexedColor(colormap, raw[off], 255)
	case LayerIndexedA:
		return indexedColor(colormap, raw[off], raw[off+1])
	default:
		return RGBA{0, 0, 0, 0}
	}
}

// indexedColor looks up a colormap entry, returning opaque black for an
// out-of-range index rather than panicking, per invariant 11 in §8.
func indexedColor(colormap []ColorRGB, index uint8, alpha uint8) RGBA {
	if int(index) >= len(colormap) {
		return RGBA{0, 0, 0, 255}
	}
	c := colormap[index]
	return RGBA{c.R, c.G, c.B, alpha}
}
