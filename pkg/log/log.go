package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls how the process logger writes.
type Config struct {
	Level  string    // a zerolog level name (debug, info, warn, error, ...); empty or unknown means info
	JSON   bool      // structured JSON instead of console output
	Output io.Writer // defaults to stdout
}

// root is the process logger. Until Init runs it discards everything,
// which keeps library code and tests safe to log from unconditionally.
var root = zerolog.New(io.Discard)

// Init builds the process logger. Call once at startup, before any
// component takes a child logger.
func Init(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	root = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// WithComponent returns a child logger tagged with the component name.
func WithComponent(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

// WithOffer returns the child logger every per-offer decision logs under,
// tagged with the offer id and hostname.
func WithOffer(offerID, hostname string) zerolog.Logger {
	return root.With().Str("offer_id", offerID).Str("hostname", hostname).Logger()
}

// With returns a child logger tagged with a single identifying field,
// such as executor_id or job_type.
func With(field, value string) zerolog.Logger {
	return root.With().Str(field, value).Logger()
}
