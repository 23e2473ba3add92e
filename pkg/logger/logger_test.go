package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", JSON: true, Output: &buf})

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept", "key", "value")
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "value", record["key"])
}

func TestLogErrorAddsErrorField(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", JSON: true, Output: &buf})

	l.LogError(errors.New("boom"), "failed", "id", "42")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "boom", record["error"])
	assert.Equal(t, "42", record["id"])
}

func TestMiddlewareStoresRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	base := New(Config{Level: "info", JSON: true, Output: &buf})

	r := gin.New()
	r.Use(Middleware(base))
	r.GET("/ping", func(c *gin.Context) {
		assert.NotSame(t, base, FromContext(c))
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, "/ping", record["path"])
	assert.EqualValues(t, http.StatusOK, record["status"])
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	l := Discard()
	SetGlobal(l)
	assert.Same(t, l, FromContext(nil))
}
