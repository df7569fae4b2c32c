package telemetry

import "go.uber.org/zap"

// ZapDebugLog adapts a *zap.Logger to DebugLog.
type ZapDebugLog struct {
	logger *zap.Logger
}

// NewZapDebugLog wraps logger. A nil logger falls back to zap.NewNop.
func NewZapDebugLog(logger *zap.Logger) *ZapDebugLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapDebugLog{logger: logger}
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

func (l *ZapDebugLog) Info(msg string, fields ...Field) {
	l.logger.Info(msg, toZapFields(fields)...)
}

func (l *ZapDebugLog) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, toZapFields(fields)...)
}

func (l *ZapDebugLog) Error(msg string, fields ...Field) {
	l.logger.Error(msg, toZapFields(fields)...)
}
