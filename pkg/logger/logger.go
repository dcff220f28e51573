package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

// Init configures the package-level logger. Safe to call once at startup;
// before Init the helpers fall back to sane behavior instead of panicking.
func Init(level, format string) {
	log = logrus.New()

	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	log.SetOutput(os.Stdout)
}

func get() *logrus.Logger {
	if log == nil {
		log = logrus.New()
	}
	return log
}

// WithField returns an entry carrying one structured field, used to tag all
// log lines of a generation with its ID.
func WithField(key string, value interface{}) *logrus.Entry {
	return get().WithField(key, value)
}

func Debugf(format string, args ...interface{}) {
	get().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	get().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	get().Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	get().Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	get().Fatalf(format, args...)
}
