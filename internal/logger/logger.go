package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the base logger: human-readable console output plus a
// rotating JSON log file. Components derive their own loggers from it
// with a "comp" field.
func New(logFile string) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	var sink io.Writer = console
	if logFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		sink = zerolog.MultiLevelWriter(console, rotating)
	}

	return zerolog.New(sink).With().Timestamp().Logger()
}
