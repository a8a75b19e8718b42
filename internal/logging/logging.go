// Package logging builds the structured logger shared by every component.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logrus logger at the given level string
// ("debug"|"info"|"warn"|"error"); an unparseable or empty level falls back
// to info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// WithCode tags a log entry with the stable error code taxonomy from the
// error handling design: config_error, store_error, watcher_error,
// upload_transient, upload_permanent, disposition_error.
func WithCode(log logrus.FieldLogger, code string) *logrus.Entry {
	return log.WithField("code", code)
}

// ApplyLevel re-parses level and updates log's level in place when it has
// changed, so Log.Level stays live-editable like every other recognized
// configuration key instead of being fixed at startup. An unparseable
// level is ignored rather than falling back to info, so a typo in a live
// edit can't silently quiet down an already-running daemon.
func ApplyLevel(log *logrus.Logger, level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	if log.GetLevel() != lvl {
		log.SetLevel(lvl)
		log.WithField("level", lvl.String()).Info("log level changed")
	}
}
