// Package xcf implements a parser and compositor for GIMP's native XCF
// layered-image format (versions v001-v012, GIMP through 2.10+).
//
// The package reads a complete XCF file from an in-memory byte buffer,
// reconstructs its layer list and group hierarchy, and can composite the
// visible layers into a caller-supplied Sink. File I/O, PNG/canvas output,
// and CLI wrappers are deliberately out of scope: this package never reads
// a file itself and never imports an image-encoding library.
//
// The implementation follows the format notes at
//
//	http://henning.makholm.net/xcftools/xcfspec-saved
//
// for the parts of the format not already covered by GIMP's own published
// documentation.
package xcf
