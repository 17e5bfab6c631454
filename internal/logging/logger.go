package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"io"
	"os"
	"strings"
	"time"
)

type Level zerolog.Level

const (
	TraceLevel = Level(zerolog.TraceLevel)
	DebugLevel = Level(zerolog.DebugLevel)
	InfoLevel  = Level(zerolog.InfoLevel)
)

func (l Level) toZerolog() zerolog.Level {
	return zerolog.Level(l)
}

func (l Level) String() string {
	return l.toZerolog().String()
}

// Setup installs the global logger. Debug and trace output is rendered for a
// terminal, anything quieter is written as JSON lines.
func Setup(level Level) {
	zerolog.SetGlobalLevel(level.toZerolog())
	var writer io.Writer
	switch level.toZerolog() {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		writer = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
			w.TimeFormat = time.RFC3339
		})
	default:
		writer = os.Stderr
	}
	log.Logger = zerolog.
		New(writer).
		With().
		Timestamp().
		Caller().
		Logger()
}

func ParseLevel(lvl string) Level {
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(lvl))
	if err != nil || parsedLevel == zerolog.NoLevel {
		return InfoLevel
	}
	return Level(parsedLevel)
}
