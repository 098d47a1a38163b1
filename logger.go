package modbus

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger bridges the io.Writer tracing surface of Transactor and Client to
// a structured zerolog logger. The severity of each message is inferred
// from its prefix ("ERROR:", "[WARNING]", ...); messages without a
// recognizable prefix, such as frame traces, are logged at debug level.
type Logger struct {
	z zerolog.Logger
}

// NewLogger creates a Logger writing JSON lines to output. A nil output
// defaults to os.Stdout.
func NewLogger(output io.Writer, level zerolog.Level, component string) *Logger {
	if output == nil {
		output = os.Stdout
	}
	z := zerolog.New(output).Level(level).With().
		Timestamp().
		Str("component", component).
		Logger()
	return &Logger{z: z}
}

// NewConsoleLogger creates a Logger with human-readable console output.
func NewConsoleLogger(level zerolog.Level, component string) *Logger {
	z := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().
		Timestamp().
		Str("component", component).
		Logger()
	return &Logger{z: z}
}

// Write implements io.Writer. Each call logs one message.
func (l *Logger) Write(p []byte) (int, error) {
	message := strings.TrimSpace(string(p))
	l.z.WithLevel(messageLevel(message)).Msg(message)
	return len(p), nil
}

// Zerolog exposes the wrapped logger for structured logging.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.z
}

func messageLevel(message string) zerolog.Level {
	upper := strings.ToUpper(message)
	switch {
	case strings.HasPrefix(upper, "[ERROR]"), strings.HasPrefix(upper, "ERROR:"):
		return zerolog.ErrorLevel
	case strings.HasPrefix(upper, "[WARNING]"), strings.HasPrefix(upper, "WARN:"), strings.HasPrefix(upper, "WARNING:"):
		return zerolog.WarnLevel
	case strings.HasPrefix(upper, "[INFO]"), strings.HasPrefix(upper, "INFO:"):
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
