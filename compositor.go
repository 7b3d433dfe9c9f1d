package xcf

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
)

// BlendMode is a GIMP layer-mode code. Codes 0-21 are implemented per the
// formulas in §4.8; anything else is accepted but folded to BlendNormal by
// resolveBlendMode, with a diagnostic, per §7's forward-compatibility rule.
type BlendMode uint32

const (
	BlendNormal BlendMode = iota
	BlendDissolve
	BlendBehind
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDifference
	BlendAddition
	BlendSubtract
	BlendDarkenOnly
	BlendLightenOnly
	BlendHue
	BlendSaturation
	BlendColor
	BlendValue
	BlendDivide
	BlendDodge
	BlendBurn
	BlendHardLight
	BlendSoftLight
	BlendGrainExtract
	BlendGrainMerge
)

const maxKnownBlendMode = uint32(BlendGrainMerge)

func resolveBlendMode(raw uint32, log *zerolog.Logger) BlendMode {
	if raw <= maxKnownBlendMode {
		return BlendMode(raw)
	}
	log.Debug().Uint32("mode", raw).Msg("unknown blend mode, falling back to Normal")
	return BlendNormal
}

const divGuard = 1.0 / 256.0

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// blendChannel applies mode's color formula to one channel pair, both
// already normalized to [0,1]. HSV-space modes are handled separately in
// compose since they need all three channels together.
func blendChannel(mode BlendMode, bg, fg float64) float64 {
	switch mode {
	case BlendNormal, BlendDissolve, BlendBehind:
		return fg
	case BlendMultiply:
		return bg * fg
	case BlendScreen:
		return 1 - (1-bg)*(1-fg)
	case BlendOverlay:
		if bg < 0.5 {
			return 2 * bg * fg
		}
		return 1 - 2*(1-bg)*(1-fg)
	case BlendDifference:
		return math.Abs(bg - fg)
	case BlendAddition:
		return math.Min(1, bg+fg)
	case BlendSubtract:
		return math.Max(0, bg-fg)
	case BlendDarkenOnly:
		return math.Min(bg, fg)
	case BlendLightenOnly:
		return math.Max(bg, fg)
	case BlendDivide:
		return math.Min(1, bg/math.Max(fg, divGuard))
	case BlendDodge:
		return math.Min(1, bg/math.Max(1-fg, divGuard))
	case BlendBurn:
		return 1 - math.Min(1, (1-bg)/math.Max(fg, divGuard))
	case BlendHardLight:
		if fg < 0.5 {
			return 2 * fg * bg
		}
		return 1 - 2*(1-fg)*(1-bg)
	case BlendSoftLight:
		// GIMP's Pegtop formula.
		return (1-2*fg)*bg*bg + 2*fg*bg
	case BlendGrainExtract:
		return clamp01(bg - fg + 0.5)
	case BlendGrainMerge:
		return clamp01(bg + fg - 0.5)
	default:
		return fg
	}
}

func isHSVMode(mode BlendMode) bool {
	switch mode {
	case BlendHue, BlendSaturation, BlendColor, BlendValue:
		return true
	default:
		return false
	}
}

// blendHSV applies the four HSV-space modes, operating on color components
// only (alpha is composited separately by compose).
func blendHSV(mode BlendMode, bg, fg RGBA) (r, g, b float64) {
	bgc := colorful.Color{R: float64(bg.R) / 255, G: float64(bg.G) / 255, B: float64(bg.B) / 255}
	fgc := colorful.Color{R: float64(fg.R) / 255, G: float64(fg.G) / 255, B: float64(fg.B) / 255}
	bh, bs, bv := bgc.Hsv()
	fh, fs, fv := fgc.Hsv()

	var out colorful.Color
	switch mode {
	case BlendHue:
		out = colorful.Hsv(fh, bs, bv)
	case BlendSaturation:
		out = colorful.Hsv(bh, fs, bv)
	case BlendColor:
		out = colorful.Hsv(fh, fs, bv)
	case BlendValue:
		out = colorful.Hsv(bh, bs, fv)
	}
	out = out.Clamped()
	return out.R, out.G, out.B
}

// compose implements the full per-pixel pipeline in §4.8: blend the color
// components per mode, then apply the shared alpha-composition rule.
// dissolveRoll is a caller-supplied uniform [0,1) draw, only consumed when
// mode is BlendDissolve; every other mode ignores it, which is what makes
// compose otherwise a pure function of (bg, fg, opacity).
func compose(mode BlendMode, bg, fg RGBA, opacity uint8, dissolveRoll float64) RGBA {
	if mode == BlendBehind && bg.A > 0 {
		return bg
	}

	effFG := fg
	if mode == BlendDissolve {
		if dissolveRoll < float64(fg.A)/255 {
			effFG.A = 255
		} else {
			effFG.A = 0
		}
	}

	fgAlphaEff := (float64(effFG.A) / 255) * (float64(opacity) / 255)
	bgAlphaNorm := float64(bg.A) / 255

	var rc, gc, bc float64
	if isHSVMode(mode) {
		rc, gc, bc = blendHSV(mode, bg, effFG)
	} else {
		rc = blendChannel(mode, float64(bg.R)/255, float64(effFG.R)/255)
		gc = blendChannel(mode, float64(bg.G)/255, float64(effFG.G)/255)
		bc = blendChannel(mode, float64(bg.B)/255, float64(effFG.B)/255)
	}

	alphaOut := fgAlphaEff + bgAlphaNorm*(1-fgAlphaEff)
	mix := func(blended, bgc float64) uint8 {
		v := blended*fgAlphaEff + bgc*(1-fgAlphaEff)
		return to255(v)
	}

	return RGBA{
		R: mix(rc, float64(bg.R)/255),
		G: mix(gc, float64(bg.G)/255),
		B: mix(bc, float64(bg.B)/255),
		A: to255(alphaOut),
	}
}

func to255(f float64) uint8 {
	f = clamp01(f)
	return uint8(f*255 + 0.5)
}
