// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/middrag/middrag/internal/config"
)

// Setup applies the level and formatter from cfg. When toFile is set, output goes
// to cfg.File and the returned closer must be closed on exit.
func Setup(cfg config.LogConfig, toFile bool) (io.Closer, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if !toFile || cfg.File == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return f, nil
}
