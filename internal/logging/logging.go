// Package logging provides the process-wide structured logger used by
// cmd/lpm for load diagnostics and fatal errors. Per-query output
// does not go through this logger; it is data, not a
// log stream.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger, writing human-readable output to
// standard error at info level and above.
var Logger zerolog.Logger

func init() {
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
}
