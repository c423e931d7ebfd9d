package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ConfigureLogging applies the log section to the standard logrus logger.
func ConfigureLogging(c LogConfig) error {
	switch c.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("config: unknown log format %q", c.Format)
	}

	if c.Level != "" {
		level, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		logrus.Debug("Set log level to: " + logrus.GetLevel().String())
	}
	return nil
}
