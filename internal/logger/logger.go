// Package logger is a small leveled logging facade for patchkit.
//
// Call sites use printf-style Debug/Info/Warn/Error; the backend is zerolog
// so output can be switched between human-readable console lines and JSON.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log = zerolog.New(consoleWriter(os.Stdout)).
	Level(zerolog.InfoLevel).
	With().Timestamp().Logger()

// logFile is the currently open log file, nil when writing to stdout/stderr.
var logFile *os.File

func consoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.DateTime,
	}
}

// SetLevel sets the minimum level to output.
// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive); anything else
// falls back to INFO.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		log = log.Level(zerolog.DebugLevel)
	case "WARN":
		log = log.Level(zerolog.WarnLevel)
	case "ERROR":
		log = log.Level(zerolog.ErrorLevel)
	default:
		log = log.Level(zerolog.InfoLevel)
	}
}

// Configure rebuilds the backend from config values.
// Format is "text" or "json"; output is "stdout", "stderr" or a file path.
// Reconfiguring away from a file output closes the previous file.
func Configure(level, format, output string) error {
	var out io.Writer
	var file *os.File
	switch output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		file = f
		out = f
	}

	if format != "json" {
		out = consoleWriter(out)
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file

	log = zerolog.New(out).With().Timestamp().Logger()
	SetLevel(level)
	return nil
}

func Debug(format string, v ...any) {
	log.Debug().Msgf(format, v...)
}

func Info(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func Warn(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func Error(format string, v ...any) {
	log.Error().Msgf(format, v...)
}
