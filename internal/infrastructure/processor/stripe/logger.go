package stripe

import (
	"context"
	"fmt"
	"log/slog"
)

// slogLeveledLogger routes SDK diagnostics into the application logger.
type slogLeveledLogger struct {
	logger *slog.Logger
}

func (l *slogLeveledLogger) Debugf(format string, v ...interface{}) {
	l.log(slog.LevelDebug, format, v...)
}

func (l *slogLeveledLogger) Infof(format string, v ...interface{}) {
	l.log(slog.LevelInfo, format, v...)
}

// The SDK logs every 4xx at warn level; declines are expected traffic so they drop to debug.
func (l *slogLeveledLogger) Warnf(format string, v ...interface{}) {
	l.log(slog.LevelDebug, format, v...)
}

func (l *slogLeveledLogger) Errorf(format string, v ...interface{}) {
	l.log(slog.LevelError, format, v...)
}

func (l *slogLeveledLogger) log(level slog.Level, format string, v ...interface{}) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, fmt.Sprintf(format, v...), "component", "stripe")
}
