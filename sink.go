package xcf

// Sink is the caller-provided pixel buffer the core composites into. The
// core never imports an image library itself (per §9's "replace the global
// image wrapper with a caller interface") — callers adapt whatever they
// already use (image.RGBA, a GPU texture upload buffer, a canvas element)
// to this interface.
type Sink interface {
	Dimensions() (w, h uint32)
	Get(x, y int) RGBA
	Set(x, y int, c RGBA)
}

// RectFiller is an optional Sink extension: a sink that can fill a
// rectangle more efficiently than repeated Set calls.
type RectFiller interface {
	FillRect(x, y, w, h int, c RGBA)
}

// RawRGBA is an optional Sink extension exposing a flat, row-major RGBA
// byte buffer for bulk access; RenderDriver does not currently use this
// fast path itself (each pixel still goes through Set, matching the
// ordering guarantees in §5) but it is part of the §6 surface for sinks
// that want to expose it to other callers.
type RawRGBA interface {
	RawRGBA() []byte
}

func fillRect(s Sink, x, y, w, h int, c RGBA) {
	if rf, ok := s.(RectFiller); ok {
		rf.FillRect(x, y, w, h, c)
		return
	}
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			s.Set(x+i, y+j, c)
		}
	}
}
