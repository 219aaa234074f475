package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/lmittmann/tint"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	SetupLogger(os.Stdout, "info")
}

// SetupLogger installs the process logger. level is debug, info, warn or error.
func SetupLogger(w io.Writer, level string) *slog.Logger {
	l := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: "2006-01-02 15:04:05",
	}))
	logger.Store(l)
	slog.SetDefault(l)
	return l
}

// Logger returns the process logger.
func Logger() *slog.Logger {
	return logger.Load()
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogEvent prints standardized log line with module/action/request_id.
// Avoid logging sensitive payload; message should be summarized.
func LogEvent(requestID, module, action, message string) {
	Logger().Info("["+strings.ToUpper(module)+"] "+message,
		slog.String("action", action),
		slog.String("request_id", strings.TrimSpace(requestID)),
	)
}

// LogError is LogEvent at error level with the cause attached.
func LogError(requestID, module, action string, err error) {
	Logger().Error("["+strings.ToUpper(module)+"] "+action+" failed",
		slog.String("action", action),
		slog.String("request_id", strings.TrimSpace(requestID)),
		tint.Err(err),
	)
}
