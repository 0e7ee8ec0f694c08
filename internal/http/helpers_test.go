package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"panel-admin/internal/domain"
	"panel-admin/internal/metrics"
	"panel-admin/internal/phone"
	"panel-admin/internal/repository"
	"panel-admin/internal/service"
)

const testSecret = "secret"

type mockConversationRepo struct {
	items []domain.Conversation
	err   error
}

func (m *mockConversationRepo) find(id string) int {
	for i, c := range m.items {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (m *mockConversationRepo) Save(_ context.Context, conv domain.Conversation) (domain.Conversation, error) {
	if m.err != nil {
		return domain.Conversation{}, m.err
	}
	if i := m.find(conv.ID); i >= 0 {
		m.items[i] = conv
		return conv, nil
	}
	m.items = append(m.items, conv)
	return conv, nil
}

func (m *mockConversationRepo) AppendMessages(_ context.Context, id string, patch repository.ConversationAppend) (domain.Conversation, error) {
	if m.err != nil {
		return domain.Conversation{}, m.err
	}
	i := m.find(id)
	if i < 0 {
		return domain.Conversation{}, pgx.ErrNoRows
	}
	m.items[i].Messages = append(m.items[i].Messages, patch.Messages...)
	if patch.Phone != nil {
		m.items[i].Phone = *patch.Phone
	}
	m.items[i].UpdatedAt = patch.UpdatedAt
	return m.items[i], nil
}

func (m *mockConversationRepo) GetByID(_ context.Context, id string) (domain.Conversation, error) {
	if m.err != nil {
		return domain.Conversation{}, m.err
	}
	if i := m.find(id); i >= 0 {
		return m.items[i], nil
	}
	return domain.Conversation{}, pgx.ErrNoRows
}

func (m *mockConversationRepo) GetLatestBySessionID(_ context.Context, sessionID string) (domain.Conversation, error) {
	if m.err != nil {
		return domain.Conversation{}, m.err
	}
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].SessionID == sessionID {
			return m.items[i], nil
		}
	}
	return domain.Conversation{}, pgx.ErrNoRows
}

func (m *mockConversationRepo) List(_ context.Context, limit, offset int) ([]domain.Conversation, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Conversation{}
	for i := len(m.items) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.items[i])
	}
	return out, nil
}

func (m *mockConversationRepo) ListByPhone(_ context.Context, phoneKey string) ([]domain.Conversation, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []domain.Conversation{}
	for _, c := range m.items {
		if c.Phone == phoneKey {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockConversationRepo) CountByPhones(_ context.Context, phones []string) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	counts := map[string]int{}
	for _, p := range phones {
		for _, c := range m.items {
			if c.Phone == p {
				counts[p]++
			}
		}
	}
	return counts, nil
}

func (m *mockConversationRepo) Delete(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	i := m.find(id)
	if i < 0 {
		return false, nil
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return true, nil
}

type mockInfoUserRepo struct {
	users []domain.InfoUser
}

func (m *mockInfoUserRepo) List(_ context.Context, _, _ int) ([]domain.InfoUser, error) {
	return m.users, nil
}

func (m *mockInfoUserRepo) GetByID(_ context.Context, id string) (domain.InfoUser, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.InfoUser{}, pgx.ErrNoRows
}

type denyLimiter struct{ keys []string }

func (d *denyLimiter) Allow(_ context.Context, key string) bool {
	d.keys = append(d.keys, key)
	return false
}

type testServer struct {
	router  *gin.Engine
	convs   *mockConversationRepo
	svc     *service.ConversationService
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, limiter service.IngestRateLimiter, ingestKey *service.IngestKeyVerifier, users []domain.InfoUser) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	repo := &mockConversationRepo{}
	svc := service.NewConversationService(repo, phone.NewNormalizer("@suffixnetwork"))
	m := metrics.Nop()
	contacts := service.NewContactService(logger, &mockInfoUserRepo{users: users}, svc)

	r := NewRouter(RouterDeps{
		Logger:        logger,
		Conversations: NewConversationHandler(logger, svc, m, time.Second),
		Ingest:        NewIngestHandler(logger, svc, limiter, m, time.Second),
		InfoUsers:     NewInfoUserHandler(logger, contacts, time.Second),
		JWT:           service.NewJWTVerifier(testSecret, ""),
		IngestKey:     ingestKey,
		Metrics:       m,
	})
	return &testServer{router: r, convs: repo, svc: svc, metrics: m}
}

func accessToken(t *testing.T, approved bool) string {
	t.Helper()
	now := time.Now().UTC()
	claims := service.Claims{
		UserID:    "admin-1",
		Email:     "admin@example.com",
		Role:      "admin",
		Approved:  approved,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    service.DefaultTokenIssuer,
			Subject:   "admin-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func performRequest(r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}
