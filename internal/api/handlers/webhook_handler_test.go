package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"opssight/internal/engine/webhooks"
	"opssight/internal/platform/models"
)

type stubSyncer struct{}

func (stubSyncer) FindByGitHubLogin(login string) (*models.User, error) { return nil, nil }
func (stubSyncer) SyncUser(ctx context.Context, userID string) error    { return nil }

func newWebhookTestHandler(secret string) *WebhookHandler {
	processor := webhooks.NewProcessor(secret, stubSyncer{}, webhooks.NewStats(), nil)
	return NewWebhookHandler(processor, nil)
}

func postWebhook(h *WebhookHandler, eventType string, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/v1/webhooks/github", bytes.NewReader(body))
	if eventType != "" {
		req.Header.Set("X-GitHub-Event", eventType)
	}
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}

	rr := httptest.NewRecorder()
	h.ReceiveGitHub(rr, req)
	return rr
}

func TestReceiveGitHub(t *testing.T) {
	t.Run("Missing Event Header", func(t *testing.T) {
		h := newWebhookTestHandler("")
		rr := postWebhook(h, "", []byte(`{}`), "")

		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		h := newWebhookTestHandler("")
		rr := postWebhook(h, "ping", []byte(`{"hook_id":1,"zen":"Speak like a human."}`), "")

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}

		var result webhooks.Result
		if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if !result.Success || result.Message != "Webhook ping received successfully" {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("Validation Failure Is Still 200", func(t *testing.T) {
		h := newWebhookTestHandler("")
		rr := postWebhook(h, "push", []byte(`{"repository":{"full_name":"a/b"}}`), "")

		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 (payload failures are acknowledged)", rr.Code)
		}

		var result webhooks.Result
		json.Unmarshal(rr.Body.Bytes(), &result)
		if result.Success {
			t.Error("result should report the validation failure")
		}
	})

	t.Run("Bad Signature Is 401", func(t *testing.T) {
		h := newWebhookTestHandler("hook-secret")
		rr := postWebhook(h, "ping", []byte(`{"hook_id":1}`), "sha256=0000")

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("Valid Signature", func(t *testing.T) {
		h := newWebhookTestHandler("hook-secret")
		body := []byte(`{"hook_id":1,"zen":"Non-blocking is better than blocking."}`)
		rr := postWebhook(h, "ping", body, webhooks.Sign("hook-secret", body))

		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})
}

func TestWebhookStats(t *testing.T) {
	h := newWebhookTestHandler("")

	postWebhook(h, "ping", []byte(`{"hook_id":1}`), "")
	postWebhook(h, "star", []byte(`{"action":"created","repository":{"full_name":"a/b"}}`), "")

	req := httptest.NewRequest("GET", "/api/v1/webhooks/github/stats", nil)
	rr := httptest.NewRecorder()
	h.Stats(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var snap webhooks.StatsSnapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid stats body: %v", err)
	}
	if snap.TotalEvents != 2 || snap.EventTypes["ping"] != 1 || snap.EventTypes["star"] != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}
