// Package rlog provides the single logging funnel used across
// filter-repo-go, mirroring the way reposurgeon routes every diagnostic
// through a small set of logit()/announce()/warn() helpers instead of ad-hoc
// fmt.Println calls, but backed by logrus instead of a hand-rolled bitmask.
package rlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

var base = newBaseLogger()

func newBaseLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   false,
		TimestampFormat: "15:04:05.000",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetVerbose raises the log level to Debug when v is true.
func SetVerbose(v bool) {
	if v {
		base.SetLevel(logrus.DebugLevel)
	} else {
		base.SetLevel(logrus.InfoLevel)
	}
}

// For returns a component-scoped logger, e.g. rlog.For("commit").
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}
