package utils

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// SetupLogger configures the standard logrus logger: text with full
// timestamps in development, JSON in production.
func SetupLogger(level string, production bool) error {
	if production {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)
	return nil
}
