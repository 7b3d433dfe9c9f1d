package xcf

import (
	"io"

	"github.com/rs/zerolog"
)

// NewConsoleLogger builds a human-readable zerolog.Logger over w, suitable
// for passing as ParseOptions.Logger during interactive debugging. Library
// callers embedding this core in a service will usually pass their own
// structured logger instead.
func NewConsoleLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
}
