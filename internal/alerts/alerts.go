// Package alerts delivers operator alerts to the log and, when configured, to a Telegram chat.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	messagePrefix         = "[money-flow] "
	defaultTelegramAPIURL = "https://api.telegram.org"
	defaultSendTimeout    = 5 * time.Second
	maxErrorBodyBytes     = 4096
)

// Config describes the Telegram destination. Empty token or chat id disables delivery.
type Config struct {
	TelegramBotToken string
	TelegramChatID   string
	TelegramAPIURL   string
	Timeout          time.Duration
}

// Service implements finance.Alerter.
type Service struct {
	logger *zap.Logger
	client *http.Client
	cfg    Config
}

// Option customizes a Service.
type Option func(*Service)

// WithHTTPClient replaces the HTTP client used for Telegram delivery.
func WithHTTPClient(client *http.Client) Option {
	return func(service *Service) {
		if client != nil {
			service.client = client
		}
	}
}

// New builds an alert Service.
func New(logger *zap.Logger, cfg Config, options ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSendTimeout
	}
	cfg.TelegramAPIURL = strings.TrimRight(strings.TrimSpace(cfg.TelegramAPIURL), "/")
	if cfg.TelegramAPIURL == "" {
		cfg.TelegramAPIURL = defaultTelegramAPIURL
	}
	service := &Service{
		logger: logger,
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service
}

// TelegramEnabled reports whether alerts are forwarded to Telegram.
func (service *Service) TelegramEnabled() bool {
	return strings.TrimSpace(service.cfg.TelegramBotToken) != "" && strings.TrimSpace(service.cfg.TelegramChatID) != ""
}

// Alert logs message and forwards it to Telegram. Delivery failures are logged, never returned.
func (service *Service) Alert(ctx context.Context, message string) {
	text := messagePrefix + message
	service.logger.Error(text)
	if !service.TelegramEnabled() {
		return
	}
	if err := service.sendTelegram(ctx, text); err != nil {
		service.logger.Error("Telegram alert failed", zap.Error(err))
	}
}

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (service *Service) sendTelegram(ctx context.Context, text string) error {
	payload, err := json.Marshal(telegramMessage{ChatID: service.cfg.TelegramChatID, Text: text})
	if err != nil {
		return err
	}
	requestCtx, cancel := context.WithTimeout(ctx, service.cfg.Timeout)
	defer cancel()
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", service.cfg.TelegramAPIURL, service.cfg.TelegramBotToken)
	request, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := service.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
		return fmt.Errorf("status %d: %s", response.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
