// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"autodoc-cli/internal/config"
)

// newLogger creates the run logger. --verbose forces debug output.
func newLogger(w io.Writer, level config.LogLevel, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "autodoc",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
		return logger
	}

	lvl, err := log.ParseLevel(string(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
