package store

import (
	"context"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"mebbisauto/internal/logger"
)

// GormLogger routes GORM's log output through the service logger.
type GormLogger struct {
	logger.Logger
	LogLevel gormlogger.LogLevel
}

// NewGormLogger wraps the service logger for GORM. SQL tracing sits at
// warn so routine job-row churn stays out of the logs.
func NewGormLogger(l logger.Logger) *GormLogger {
	return &GormLogger{Logger: l, LogLevel: gormlogger.Warn}
}

// LogMode sets the log level.
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

// Info prints info level logs.
func (l *GormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Info {
		l.Logger.Info(msg, data...)
	}
}

// Warn prints warn level logs.
func (l *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Warn {
		l.Logger.Warn(msg, data...)
	}
}

// Error prints error level logs.
func (l *GormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.LogLevel >= gormlogger.Error {
		l.Logger.Error(msg, data...)
	}
}

// Trace prints SQL logs.
func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []any{
		"sql", sql,
		"rows", rows,
		"timeMs", float64(elapsed.Nanoseconds()) / 1e6,
	}

	switch {
	case err != nil && l.LogLevel >= gormlogger.Error:
		l.Logger.Error("SQL hatası", append(fields, "error", err)...)
	case elapsed > time.Second && l.LogLevel >= gormlogger.Warn:
		l.Logger.Warn("yavaş SQL sorgusu", append(fields, "threshold", "1s")...)
	case l.LogLevel == gormlogger.Info:
		l.Logger.Debug("SQL", fields...)
	}
}
