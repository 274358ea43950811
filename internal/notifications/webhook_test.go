package notifications

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestSend_NoWebhook(t *testing.T) {
	s := NewSender("", "TestApp", zap.NewNop())
	if s.Enabled() {
		t.Fatal("should not be enabled with empty URL")
	}
	// Should log without error
	s.Send("hello from test")
}

func TestSend_SlackFormat(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "TestApp", zap.NewNop())
	if !s.Enabled() {
		t.Fatal("should be enabled")
	}

	s.Send("ingest cycle failed")

	if received["username"] != "TestApp" {
		t.Fatalf("username: got %s", received["username"])
	}
	if received["text"] == "" {
		t.Fatal("text should not be empty")
	}
	t.Logf("Slack payload: %+v", received)
}

func TestSend_DiscordFormat(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// URL containing "discord" triggers Discord format
	s := NewSender(srv.URL+"/discord/webhook", "TrackerBot", zap.NewNop())
	s.Send("inserted 2 transactions")

	if received["content"] == "" {
		t.Fatal("content should not be empty for Discord")
	}
	if received["username"] != "TrackerBot" {
		t.Fatalf("username: got %s", received["username"])
	}
	if _, hasText := received["text"]; hasText {
		t.Fatal("Discord payload should not have 'text' field")
	}
	t.Logf("Discord payload: %+v", received)
}

func TestSend_WebhookError(t *testing.T) {
	s := NewSender("http://localhost:1/bogus", "TestApp", zap.NewNop())
	// Should not panic, just log the error
	s.Send("this will fail gracefully")
}

func TestDefaultAppName(t *testing.T) {
	s := NewSender("", "", nil)
	if s.appName != "CryptoTracker" {
		t.Fatalf("expected default app name, got %s", s.appName)
	}
}
