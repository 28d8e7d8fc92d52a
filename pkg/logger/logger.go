package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Init replaces its settings in place.
var Log = logrus.New()

// Init configures level and format ("json" or "text").
func Init(level, format string) {
	InitWithOutput(level, format, os.Stdout)
}

func InitWithOutput(level, format string, out io.Writer) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
	Log.SetOutput(out)

	if format == "text" {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		Log.SetFormatter(&logrus.JSONFormatter{})
	}
}

// WithRequest returns an entry tagged with the request id and endpoint.
func WithRequest(requestID, endpoint string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{
		"request_id": requestID,
		"endpoint":   endpoint,
	})
}
