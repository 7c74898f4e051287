package logutils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It is usable before InitLogger runs.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

func InitLogger(level string) {
	parsedLevel, err := parseLogLevel(level)
	if err != nil {
		Log.WithError(err).Warnf("Invalid log level '%s', defaulting to 'info'", level)
		parsedLevel = logrus.InfoLevel
	}
	Log.SetLevel(parsedLevel)
	Log.Infof("Log level set to %s", parsedLevel)
}

func parseLogLevel(level string) (logrus.Level, error) {
	return logrus.ParseLevel(strings.TrimSpace(strings.ToLower(level)))
}
