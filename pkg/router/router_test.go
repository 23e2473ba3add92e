package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"characterai/backend/ai"
	"characterai/backend/internal/repository"
	"characterai/backend/pkg/config"
	"characterai/backend/pkg/di"
	"characterai/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticGenerator string

func (g staticGenerator) Generate(context.Context, ai.Prompt) (string, error) {
	return string(g), nil
}

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Server.Env = "test"
	cfg.Database.Driver = config.DriverMemory
	cfg.Security.AllowedOrigins = []string{"*"}
	cfg.Security.RateLimit = 0
	cfg.Cache.Enabled = false
	cfg.Observability.MetricsEnabled = true
	cfg.OpenAPI.Validation = false
	cfg.Vault.Enabled = false
	return cfg
}

func newRouter(t *testing.T, cfg *config.Config) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	container, err := di.New(context.Background(), cfg, logger.Discard(),
		di.WithStore(repository.NewMemoryStore()),
		di.WithGenerator(staticGenerator("Greetings!")),
	)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	r, err := New(container)
	require.NoError(t, err)
	require.NoError(t, r.SetupRoutes())
	return r
}

func serve(r *Router, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	return w
}

func TestBanner(t *testing.T) {
	r := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/api", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CharacterAI backend is running!")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthEndpoints(t *testing.T) {
	r := newRouter(t, testConfig())

	for _, path := range []string{"/health", "/api/v1/health"} {
		w := serve(r, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.NotEmpty(t, body["components"])
	}
}

func TestChatThroughFullStack(t *testing.T) {
	r := newRouter(t, testConfig())

	w := serve(r, http.MethodPost, "/api/v1/characters", `{"name":"Nova","personality":"cheerful scientist"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = serve(r, http.MethodPost, "/api/v1/chat",
		`{"characterId":"`+created.ID+`","messages":[{"sender":"User","text":"Hello"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"aiResponse":"Greetings!"}`, w.Body.String())

	metrics := serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "chat_replies")
	assert.Contains(t, metrics.Body.String(), `outcome="ok"`)
}

func TestUnknownRouteRendersJSONError(t *testing.T) {
	r := newRouter(t, testConfig())

	w := serve(r, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found","code":"NOT_FOUND"}`, w.Body.String())
}

func TestWebPagesAndSchema(t *testing.T) {
	r := newRouter(t, testConfig())

	for _, path := range []string{"/", "/gallery", "/create", "/chat", "/static/chat.js", "/api/docs/openapi.yaml"} {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, path, "").Code, path)
	}
}

func TestRateLimiting(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimit = 0.001
	cfg.Security.RateLimitBurst = 2
	r := newRouter(t, cfg)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api", "").Code)

	w := serve(r, http.MethodGet, "/api", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestOpenAPIValidation(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAPI.Validation = true
	r := newRouter(t, cfg)

	w := serve(r, http.MethodPost, "/api/v1/characters", `{"description":"nameless"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request.")

	w = serve(r, http.MethodPost, "/api/v1/characters", `{"name":"Nova"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestWebSocketRoute(t *testing.T) {
	r := newRouter(t, testConfig())
	srv := httptest.NewServer(r.Engine)
	defer srv.Close()

	w := serve(r, http.MethodPost, "/api/v1/characters", `{"name":"Nova"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"characterId":"`+created.ID+`","messages":[{"sender":"User","text":"Hi"}]}`)))

	var reply map[string]string
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "Greetings!", reply["aiResponse"])
}
