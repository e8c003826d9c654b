package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type telegramRecorder struct {
	mu       sync.Mutex
	paths    []string
	messages []telegramMessage
	status   int
}

func (recorder *telegramRecorder) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	var message telegramMessage
	_ = json.NewDecoder(request.Body).Decode(&message)
	recorder.paths = append(recorder.paths, request.URL.Path)
	recorder.messages = append(recorder.messages, message)
	status := recorder.status
	if status == 0 {
		status = http.StatusOK
	}
	writer.WriteHeader(status)
	_, _ = writer.Write([]byte(`{"ok":false,"description":"chat not found"}`))
}

func TestAlertLogsAndSendsTelegram(test *testing.T) {
	test.Parallel()
	recorder := &telegramRecorder{}
	server := httptest.NewServer(recorder)
	test.Cleanup(server.Close)
	core, recorded := observer.New(zapcore.DebugLevel)
	service := New(zap.New(core), Config{TelegramBotToken: "token", TelegramChatID: "42", TelegramAPIURL: server.URL})

	service.Alert(context.Background(), "backup failed")

	logged := recorded.All()
	if len(logged) != 1 || logged[0].Message != "[money-flow] backup failed" || logged[0].Level != zapcore.ErrorLevel {
		test.Fatalf("unexpected log entries %+v", logged)
	}
	if len(recorder.paths) != 1 || recorder.paths[0] != "/bottoken/sendMessage" {
		test.Fatalf("unexpected telegram calls %v", recorder.paths)
	}
	if recorder.messages[0].ChatID != "42" || recorder.messages[0].Text != "[money-flow] backup failed" {
		test.Fatalf("unexpected telegram payload %+v", recorder.messages[0])
	}
}

func TestAlertSwallowsTelegramFailure(test *testing.T) {
	test.Parallel()
	recorder := &telegramRecorder{status: http.StatusBadRequest}
	server := httptest.NewServer(recorder)
	test.Cleanup(server.Close)
	core, recorded := observer.New(zapcore.DebugLevel)
	service := New(zap.New(core), Config{TelegramBotToken: "token", TelegramChatID: "42", TelegramAPIURL: server.URL})

	service.Alert(context.Background(), "lock failed")

	logged := recorded.FilterMessage("Telegram alert failed").All()
	if len(logged) != 1 {
		test.Fatalf("expected delivery failure to be logged, got %+v", recorded.All())
	}
	errorText, _ := logged[0].ContextMap()["error"].(string)
	if !strings.Contains(errorText, "status 400") || !strings.Contains(errorText, "chat not found") {
		test.Fatalf("expected status and body in error, got %q", errorText)
	}
}

func TestAlertWithoutTelegramOnlyLogs(test *testing.T) {
	test.Parallel()
	core, recorded := observer.New(zapcore.DebugLevel)
	service := New(zap.New(core), Config{TelegramBotToken: "token"})
	if service.TelegramEnabled() {
		test.Fatalf("expected telegram to be disabled without chat id")
	}
	service.Alert(context.Background(), "hello")
	if recorded.Len() != 1 {
		test.Fatalf("expected only the log entry, got %d", recorded.Len())
	}
}
