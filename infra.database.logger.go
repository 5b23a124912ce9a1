package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*gormLogger)(nil) // ensure gormLogger implements gorm logger.

// gormLogger forwards the ORM logs to the application zap logger.
type gormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger provides a zap-backed ORM logger. Statements are only
// traced when query logging is enabled, slow ones and failures always are.
func NewGormLogger(logger *zap.Logger, config *DatabaseConfig) gormlogger.Interface {
	level := gormlogger.Warn
	if config.LogQueries {
		level = gormlogger.Info
	}
	return &gormLogger{
		logger:        logger.Named("gorm"),
		level:         level,
		slowThreshold: config.SlowThreshold,
	}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	nl := *l
	nl.level = level
	return &nl
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.with(ctx).Info(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.with(ctx).Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.with(ctx).Error(fmt.Sprintf(msg, args...))
	}
}

// Trace logs a statement once executed. Missing records are expected
// outcomes and are not reported as errors.
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.with(ctx).Error("db: statement failed",
			zap.String("db.sql", sql),
			zap.Int64("db.rows", rows),
			zap.Duration("db.duration", elapsed),
			zap.Error(err),
		)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.with(ctx).Warn("db: slow statement",
			zap.String("db.sql", sql),
			zap.Int64("db.rows", rows),
			zap.Duration("db.duration", elapsed),
			zap.Duration("db.threshold", l.slowThreshold),
		)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.with(ctx).Debug("db: statement",
			zap.String("db.sql", sql),
			zap.Int64("db.rows", rows),
			zap.Duration("db.duration", elapsed),
		)
	}
}

func (l *gormLogger) with(ctx context.Context) *zap.Logger {
	if requestID := GetValueFromContext(ctx, ContextRequestID); requestID != "" {
		return l.logger.With(zap.String("request.id", requestID))
	}
	return l.logger
}
