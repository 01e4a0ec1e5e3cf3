package config

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// InitLogging configures the global logrus logger.
func InitLogging(level, format string) {
	log.SetOutput(os.Stdout)
	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown LOG_LEVEL, using info")
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
