package core

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	if singleton == nil {
		once.Do(
			func() {
				l := log.NewWithOptions(os.Stderr, log.Options{
					ReportCaller:    true,
					ReportTimestamp: true,
					TimeFormat:      time.RFC3339,
					Prefix:          "Ombra 🌘 ",
				})
				l.SetLevel(levelFromEnv())
				singleton = &logger{l}
			})
	}
	return singleton
}

// levelFromEnv reads OMBRA_LOG_LEVEL; unset or unknown means debug.
func levelFromEnv() log.Level {
	lvl, _ := levelFromName(os.Getenv("OMBRA_LOG_LEVEL"))
	return lvl
}

func levelFromName(name string) (log.Level, bool) {
	switch strings.ToLower(name) {
	case "info":
		return log.InfoLevel, true
	case "warn":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	case "debug":
		return log.DebugLevel, true
	}
	return log.DebugLevel, false
}

// LogSetLevel overrides the level read from OMBRA_LOG_LEVEL. Unknown names
// are ignored so a bad config value cannot silence the log.
func LogSetLevel(name string) {
	if lvl, ok := levelFromName(name); ok {
		getLogger().SetLevel(lvl)
	}
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
