package common

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	logger     *log.Logger
	loggerOnce sync.Once
)

// Logger returns the process-wide structured logger, creating it on first use.
// Packages derive tagged children from it with WithPrefix.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "drawbench",
		})
	})
	return logger
}

// SetLogLevel parses level ("debug", "info", "warn", "error") and applies it to the shared logger.
//
// Parameters:
//   - level: the textual log level; empty leaves the current level unchanged
//
// Returns:
//   - error: error if the level is not recognized
func SetLogLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	Logger().SetLevel(lvl)
	return nil
}
