package http

import (
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"panel-admin/internal/domain"
	"panel-admin/internal/service"
)

type ingestResponse struct {
	Conversation domain.Conversation `json:"conversation"`
}

func TestIngestHandler_CreatesThenAppends(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)

	rec := performRequest(ts.router, http.MethodPost, "/ingest/conversations", map[string]any{
		"session_id": "abc",
		"phone":      "+52 1 55 1234 5678@suffixnetwork",
		"messages":   []map[string]any{{"type": "user", "text": "hola"}},
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var created ingestResponse
	decodeBody(t, rec, &created)
	if created.Conversation.Phone != "5215512345678" {
		t.Fatalf("expected canonical phone, got %q", created.Conversation.Phone)
	}

	rec = performRequest(ts.router, http.MethodPost, "/ingest/conversations", map[string]any{
		"session_id": "abc",
		"messages":   []map[string]any{{"type": "bot", "message": "buenas"}},
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on append, got %d", rec.Code)
	}
	var appended ingestResponse
	decodeBody(t, rec, &appended)
	if appended.Conversation.ID != created.Conversation.ID || len(appended.Conversation.Messages) != 2 {
		t.Fatalf("expected append to same conversation, got %+v", appended.Conversation)
	}
	if appended.Conversation.Messages[0]["text"] != "hola" || appended.Conversation.Messages[1]["message"] != "buenas" {
		t.Fatalf("expected messages in insertion order, got %+v", appended.Conversation.Messages)
	}
}

func TestIngestHandler_InvalidBody(t *testing.T) {
	ts := newTestServer(t, nil, nil, nil)
	for _, body := range []any{
		map[string]any{"phone": "555"},
		map[string]any{"phone": "555", "messages": []any{}},
		"not an object",
	} {
		rec := performRequest(ts.router, http.MethodPost, "/ingest/conversations", body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %v: expected 400, got %d", body, rec.Code)
		}
	}
	if len(ts.convs.items) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestIngestHandler_RateLimitedByCanonicalPhone(t *testing.T) {
	limiter := &denyLimiter{}
	ts := newTestServer(t, limiter, nil, nil)

	rec := performRequest(ts.router, http.MethodPost, "/ingest/conversations", map[string]any{
		"phone":    "+1 555 123 4567@suffixnetwork",
		"messages": []map[string]any{{"type": "user", "text": "hola"}},
	}, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "phone:15551234567" {
		t.Fatalf("expected canonical rate key, got %+v", limiter.keys)
	}

	rec = performRequest(ts.router, http.MethodPost, "/ingest/conversations", map[string]any{
		"session_id": "s9",
		"messages":   []map[string]any{{"type": "user"}},
	}, nil)
	if rec.Code != http.StatusTooManyRequests || limiter.keys[1] != "session:s9" {
		t.Fatalf("expected session fallback key, got %d %+v", rec.Code, limiter.keys)
	}
	if len(ts.convs.items) != 0 {
		t.Fatalf("expected nothing stored when rate limited")
	}
}

func TestIngestHandler_RequiresKeyWhenConfigured(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("k3y"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ts := newTestServer(t, nil, service.NewIngestKeyVerifier(string(hash)), nil)
	body := map[string]any{"messages": []map[string]any{{"type": "user"}}}

	rec := performRequest(ts.router, http.MethodPost, "/ingest/conversations", body, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}
	rec = performRequest(ts.router, http.MethodPost, "/ingest/conversations", body, map[string]string{"X-Ingest-Key": "k3y"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 with key, got %d", rec.Code)
	}
}
