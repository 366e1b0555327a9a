// Package logging builds the logrus logger shared by the binaries. Logs always go to a stream
// other than the protocol's stdout.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/mvp-joe/csd-analyzers/internal/config"
	"github.com/sirupsen/logrus"
)

// New creates a logger writing to w with the configured level and format.
func New(cfg config.LoggingConfig, w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidLogLevel, cfg.Level)
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			DisableColors:    true,
			QuoteEmptyFields: true,
		})
	}
	return log, nil
}

// Verbosity maps repeated -v flags onto a level: one is debug, two or more is trace. Zero keeps
// the configured level.
func Verbosity(configured string, count int) string {
	switch {
	case count >= 2:
		return logrus.TraceLevel.String()
	case count == 1:
		return logrus.DebugLevel.String()
	default:
		return configured
	}
}
