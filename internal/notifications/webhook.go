package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coinwatch/crypto-tracker/internal/httputil"
	"go.uber.org/zap"
)

// Sender posts operational alerts (startup, ingest failures) to a Discord or
// Slack style webhook. With no URL configured it only logs.
type Sender struct {
	webhookURL string
	appName    string
	logger     *zap.Logger
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewSender(webhookURL, appName string, logger *zap.Logger) *Sender {
	if appName == "" {
		appName = "CryptoTracker"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		webhookURL: webhookURL,
		appName:    appName,
		logger:     logger,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
			Logger:      logger,
		},
	}
}

func (s *Sender) Send(msg string) {
	formatted := fmt.Sprintf("[%s] %s", s.appName, msg)
	s.logger.Info("Notification", zap.String("message", formatted))

	if s.webhookURL == "" {
		return
	}

	payload := s.formatPayload(formatted)
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Notification marshal failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		s.logger.Error("Notification delivery failed after retries", zap.Error(err))
		return
	}
	resp.Body.Close()
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.appName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.appName,
	}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}
