// s3check/pkg/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = New(os.Stdout, "console")
}

// New builds a logger writing to out. format is "console" (colored, human
// readable) or "json".
func New(out io.Writer, format string) zerolog.Logger {
	var w io.Writer = out
	if !strings.EqualFold(format, "json") {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02 15:04:05",
		}
	}

	return zerolog.New(w).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Setup replaces the global logger with one using the given format and level.
func Setup(format, levelStr string) zerolog.Logger {
	Log = New(os.Stdout, format)
	SetLevel(levelStr)
	return Log
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	level := zerolog.InfoLevel
	if s := strings.ToLower(strings.TrimSpace(levelStr)); s != "" {
		parsed, err := zerolog.ParseLevel(s)
		if err != nil {
			Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		} else {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
}
