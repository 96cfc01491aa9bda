package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var logger = log.New(os.Stdout)

// InitLog configures the process logger for the named tool.
func InitLog(appName string, logLevel string) {
	InitLogTo(os.Stdout, appName, logLevel)
}

// InitLogTo is InitLog with an explicit destination.
func InitLogTo(w io.Writer, appName string, logLevel string) {
	logger = log.New(w)
	logger.SetPrefix(appName)
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat(time.DateTime)
	logger.SetReportCaller(true)
	logger.SetLevel(ParseLevel(logLevel))
}

// ParseLevel maps a config level name to a log level; unknown names give info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Logger exposes the underlying logger for structured key/value calls.
func Logger() *log.Logger {
	return logger
}

func Fatal(format string, args ...any) {
	if len(args) == 0 {
		logger.Fatal(format)
		return
	}
	logger.Fatalf(format, args...)
}

func Info(format string, args ...any) {
	if len(args) == 0 {
		logger.Info(format)
		return
	}
	logger.Infof(format, args...)
}

func Warn(format string, args ...any) {
	if len(args) == 0 {
		logger.Warn(format)
		return
	}
	logger.Warnf(format, args...)
}

func Error(format string, args ...any) {
	if len(args) == 0 {
		logger.Error(format)
		return
	}
	logger.Errorf(format, args...)
}

func Debug(format string, args ...any) {
	if len(args) == 0 {
		logger.Debug(format)
		return
	}
	logger.Debugf(format, args...)
}
