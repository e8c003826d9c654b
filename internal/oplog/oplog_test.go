package oplog

import (
	"context"
	"errors"
	"testing"

	"github.com/MarkoPoloResearchLab/moneyflow/pkg/finance"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogOperationLevelsAndFields(test *testing.T) {
	test.Parallel()
	from, _ := finance.ParseDate("2026-02-10")
	to, _ := finance.ParseDate("2026-02-13")
	testCases := []struct {
		name          string
		entry         finance.OperationLog
		expectedLevel zapcore.Level
		expectedKeys  []string
	}{
		{
			name:          "ok",
			entry:         finance.OperationLog{Operation: "recurring.tick", Status: finance.OperationStatusOK, FromDate: from, ToDate: to, Count: 3},
			expectedLevel: zapcore.InfoLevel,
			expectedKeys:  []string{"operation", "status", "from_date", "to_date", "count"},
		},
		{
			name:          "skipped",
			entry:         finance.OperationLog{Operation: "lock.acquire", Subject: "recurring-expenses", Status: finance.OperationStatusSkipped},
			expectedLevel: zapcore.DebugLevel,
			expectedKeys:  []string{"operation", "status", "subject"},
		},
		{
			name:          "error",
			entry:         finance.OperationLog{Operation: "recurring.tick", Status: finance.OperationStatusError, Error: errors.New("boom")},
			expectedLevel: zapcore.ErrorLevel,
			expectedKeys:  []string{"operation", "status", "error"},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			core, recorded := observer.New(zapcore.DebugLevel)
			New(zap.New(core)).LogOperation(context.Background(), testCase.entry)
			entries := recorded.All()
			if len(entries) != 1 {
				test.Fatalf("expected one entry, got %d", len(entries))
			}
			if entries[0].Level != testCase.expectedLevel {
				test.Fatalf("expected level %s, got %s", testCase.expectedLevel, entries[0].Level)
			}
			fields := entries[0].ContextMap()
			if len(fields) != len(testCase.expectedKeys) {
				test.Fatalf("expected fields %v, got %v", testCase.expectedKeys, fields)
			}
			for _, key := range testCase.expectedKeys {
				if _, ok := fields[key]; !ok {
					test.Fatalf("expected field %q in %v", key, fields)
				}
			}
		})
	}
}

func TestNewWithNilLogger(test *testing.T) {
	test.Parallel()
	New(nil).LogOperation(context.Background(), finance.OperationLog{Operation: "noop"})
}
