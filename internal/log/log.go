package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// Tests and tools that never call Init still get a usable logger.
func init() {
	Init("api", "info", false)
}

// Init configures the global logger. Production output is JSON so it can be
// shipped as is, everything else uses the human readable text formatter.
func Init(service, level string, production bool) {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	if production {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	Log = logger.WithFields(logrus.Fields{
		"service":       service,
		"is_production": production,
	})
}

// Logger exposes the underlying logrus logger, e.g. for io.Writer adapters.
func Logger() *logrus.Logger {
	return logger
}
