// Package logging configures logrus for the client-side packages.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New builds a logrus entry tagged with the given component name.
func New(level string, output io.Writer, component string) *logrus.Entry {
	log := logrus.New()
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	log.SetOutput(output)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log.WithField("component", component)
}
