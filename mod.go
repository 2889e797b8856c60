// Package pojotools holds module-wide singletons shared by the sub-packages.
package pojotools

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance. Registries and the content
// engine report registration events and configuration warnings through it.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	Level(zerolog.WarnLevel)
