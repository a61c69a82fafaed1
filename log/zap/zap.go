// Package zap adapts a *zap.Logger to l2cache.Logger.
package zap

import (
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/l2cache"
)

var _ l2cache.Logger = ZapLogger{}

// ZapLogger writes region and strategy events to L. A nil L drops them.
type ZapLogger struct{ L *zap.Logger }

func New(l *zap.Logger) ZapLogger { return ZapLogger{L: l.Named("l2cache")} }

func (z ZapLogger) Debug(msg string, f l2cache.Fields) { z.log(zapcore.DebugLevel, msg, f) }
func (z ZapLogger) Info(msg string, f l2cache.Fields)  { z.log(zapcore.InfoLevel, msg, f) }
func (z ZapLogger) Warn(msg string, f l2cache.Fields)  { z.log(zapcore.WarnLevel, msg, f) }
func (z ZapLogger) Error(msg string, f l2cache.Fields) { z.log(zapcore.ErrorLevel, msg, f) }

func (z ZapLogger) log(lvl zapcore.Level, msg string, f l2cache.Fields) {
	if z.L == nil {
		return
	}
	if ce := z.L.Check(lvl, msg); ce != nil {
		ce.Write(zf(f)...)
	}
}

// zf converts f in key order so output is stable.
func zf(f l2cache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		switch v := f[k].(type) {
		case error:
			out = append(out, zap.NamedError(k, v))
		case time.Duration:
			out = append(out, zap.Duration(k, v))
		case string:
			out = append(out, zap.String(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
