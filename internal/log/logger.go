// SPDX-License-Identifier: MIT

// Package log configures the process-wide zerolog logger. Components take
// child loggers via WithComponent; the base logger is initialised once,
// either explicitly through Configure or lazily with defaults.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for the base logger. Unset fields fall back to
// the SITECONF_LOG_LEVEL and SITECONF_SERVICE environment variables, then
// to built-in defaults.
type Config struct {
	Level   string
	Service string
	Output  io.Writer
}

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the base logger. Only the first call has effect.
func Configure(cfg Config) {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339
		zerolog.SetGlobalLevel(resolveLevel(cfg.Level))

		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}

		service := cfg.Service
		if service == "" {
			service = os.Getenv("SITECONF_SERVICE")
		}
		if service == "" {
			service = "siteconf"
		}

		base = zerolog.New(out).With().
			Timestamp().
			Str("service", service).
			Logger()
	})
}

func resolveLevel(level string) zerolog.Level {
	if level == "" {
		level = os.Getenv("SITECONF_LOG_LEVEL")
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			return parsed
		}
	}
	return zerolog.InfoLevel
}

// Base returns the base logger, configuring defaults if needed.
func Base() zerolog.Logger {
	Configure(Config{})
	return base
}

// WithComponent returns a child logger annotated with a component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
