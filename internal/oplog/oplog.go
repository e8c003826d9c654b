// Package oplog writes finance operation events to zap.
package oplog

import (
	"context"

	"github.com/MarkoPoloResearchLab/moneyflow/pkg/finance"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const messageOperation = "finance operation"

// Logger implements finance.OperationLogger on top of a zap logger.
type Logger struct {
	logger *zap.Logger
}

// New returns a Logger. A nil zap logger discards every entry.
func New(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger}
}

// LogOperation emits entry at error level when it failed, debug when skipped and info otherwise.
func (operationLogger *Logger) LogOperation(ctx context.Context, entry finance.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if entry.Subject != "" {
		fields = append(fields, zap.String("subject", entry.Subject))
	}
	if !entry.IdempotencyKey.IsZero() {
		fields = append(fields, zap.String("idempotency_key", entry.IdempotencyKey.String()))
	}
	if !entry.FromDate.IsZero() {
		fields = append(fields, zap.String("from_date", entry.FromDate.String()))
	}
	if !entry.ToDate.IsZero() {
		fields = append(fields, zap.String("to_date", entry.ToDate.String()))
	}
	if entry.Count != 0 {
		fields = append(fields, zap.Int64("count", entry.Count))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
	}
	operationLogger.logger.Log(levelFor(entry), messageOperation, fields...)
}

func levelFor(entry finance.OperationLog) zapcore.Level {
	switch {
	case entry.Error != nil || entry.Status == finance.OperationStatusError:
		return zapcore.ErrorLevel
	case entry.Status == finance.OperationStatusSkipped:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
