package logging

import (
	"strings"

	"github.com/phuslu/log"
)

// Setup configures the process-wide default logger.
func Setup(level string) {
	log.DefaultLogger = log.Logger{
		Level:      parseLevel(level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			ColorOutput:    true,
			EndWithMessage: true,
		},
	}
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
