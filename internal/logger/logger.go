package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

func init() {
	Log = logrus.New()

	Log.SetOutput(os.Stdout)
	Log.SetLevel(ParseLevel(os.Getenv("LOG_LEVEL")))

	// Use JSON formatter for structured logs
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// ParseLevel maps a LOG_LEVEL value to a logrus level. Unknown or empty
// values resolve to info.
func ParseLevel(value string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Component returns an entry tagged with the emitting component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
