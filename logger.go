package l2cache

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is the leveled logger regions and strategies write to.
// Adapters: log/zap, log/logrus, log/slog. A nil Logger disables logging.
//
// Levels used:
//   - Debug: every store call and lifecycle event
//   - Info: factory start/close, expired read-write locks
//   - Warn: swallowed store failures, dropped undecodable entries
//   - Error: updates of read-only regions
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

func loggerOrNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
