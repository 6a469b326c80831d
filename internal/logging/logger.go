// Package logging provides the structured logger used across the pusher
// client core.
package logging

import (
	"github.com/sirupsen/logrus"
)

// Logger is the logger type used throughout the package.
type Logger = *logrus.Logger

// Fields is a set of structured logging fields.
type Fields = logrus.Fields

// NewLogger creates a new configured logger instance.
func NewLogger() Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

// NewLoggerWithComponent creates a logger with a component field attached
// to every entry it emits.
func NewLoggerWithComponent(component string) Logger {
	logger := NewLogger()
	logger.AddHook(componentHook{component: component})
	return logger
}

// componentHook sets the "component" field on every entry a logger fires.
type componentHook struct{ component string }

func (h componentHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h componentHook) Fire(entry *logrus.Entry) error {
	entry.Data["component"] = h.component
	return nil
}

// Default is the package-level logger used by the core unless a caller
// replaces it. Replacing it is a deliberate whole-process decision rather
// than a per-call option.
var Default = NewLoggerWithComponent("pusher")
