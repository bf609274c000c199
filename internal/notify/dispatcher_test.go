package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lazyvibe/vibepilot/internal/model"
)

func TestDispatchWebhook(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher()
	d.Dispatch(context.Background(), model.NotificationConfig{WebhookURL: srv.URL}, Event{
		SessionID: "s1",
		PatternID: "yes-no",
		Type:      EventAccepted,
		Title:     "Prompt auto-accepted",
		Message:   "Continue? [y/n]",
		Timestamp: time.Now(),
	})

	if received == nil {
		t.Fatal("webhook never received a payload")
	}
	if received["pattern"] != "yes-no" {
		t.Errorf("pattern = %v", received["pattern"])
	}
	if received["event"] != string(EventAccepted) {
		t.Errorf("event = %v", received["event"])
	}
	if received["message"] != "Continue? [y/n]" {
		t.Errorf("message = %v", received["message"])
	}
}

func TestDispatchWebhookFailureIsSwallowed(t *testing.T) {
	d := NewDispatcher()
	// Nothing listens here; Dispatch must not panic or block the caller.
	d.Dispatch(context.Background(), model.NotificationConfig{WebhookURL: "http://127.0.0.1:1/hook"}, Event{
		Type:    EventError,
		Message: "boom",
	})
}

func TestDispatchNoChannelsConfigured(t *testing.T) {
	d := NewDispatcher()
	d.Dispatch(context.Background(), model.NotificationConfig{}, Event{Type: EventAccepted})
}
