// Package logging builds the application logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus logger configured for the environment.
// Production logs are JSON; everything else uses the text formatter.
func New(environment, level string) *logrus.Logger {
	return newWithOutput(os.Stdout, environment, level)
}

func newWithOutput(out io.Writer, environment, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}

// Discard returns a logger that drops everything. Used by tests and CLI dry runs.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
