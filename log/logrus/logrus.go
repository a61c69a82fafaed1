// Package logrus adapts a *logrus.Entry to l2cache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/l2cache"
)

var _ l2cache.Logger = LogrusLogger{}

// LogrusLogger writes region and strategy events to E. An "err" field of
// type error is attached with WithError. A nil E drops everything.
type LogrusLogger struct{ E *logrus.Entry }

// New wraps l with a "component=l2cache" field.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "l2cache")}
}

func (l LogrusLogger) Debug(msg string, f l2cache.Fields) { l.log(logrus.DebugLevel, msg, f) }
func (l LogrusLogger) Info(msg string, f l2cache.Fields)  { l.log(logrus.InfoLevel, msg, f) }
func (l LogrusLogger) Warn(msg string, f l2cache.Fields)  { l.log(logrus.WarnLevel, msg, f) }
func (l LogrusLogger) Error(msg string, f l2cache.Fields) { l.log(logrus.ErrorLevel, msg, f) }

func (l LogrusLogger) log(lvl logrus.Level, msg string, f l2cache.Fields) {
	if l.E == nil || !l.E.Logger.IsLevelEnabled(lvl) {
		return
	}
	e := l.E
	fields := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			e = e.WithError(err)
			continue
		}
		fields[k] = v
	}
	e.WithFields(fields).Log(lvl, msg)
}
