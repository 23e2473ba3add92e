package validator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "characterai/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := New()
	require.NoError(t, err)

	r := gin.New()
	r.Use(apperrors.ErrorHandler())
	r.Use(v.Middleware())
	r.POST("/api/v1/chat", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"aiResponse": "hi"})
	})
	r.POST("/api/v1/characters", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": "1"})
	})
	r.GET("/undocumented", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/api/docs/openapi.yaml", ServeSchema)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEmbeddedSchemaIsValid(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	assert.NotNil(t, v.Document().Paths.Find("/api/v1/chat"))
}

func TestMiddlewareAcceptsValidRequest(t *testing.T) {
	r := setupRouter(t)

	w := post(r, "/api/v1/chat", `{"characterId":"abc","messages":[{"sender":"User","text":"Hello"}]}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = post(r, "/api/v1/characters", `{"name":"Nova"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestMiddlewareRejectsInvalidRequest(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"messages not a list", "/api/v1/chat", `{"characterId":"abc","messages":"hello"}`},
		{"missing characterId", "/api/v1/chat", `{"messages":[{"sender":"User","text":"Hello"}]}`},
		{"character without name", "/api/v1/characters", `{"description":"nameless"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(r, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "Invalid request.", body["error"])
			assert.Equal(t, apperrors.CodeValidation, body["code"])
		})
	}
}

func TestUndocumentedRoutesPassThrough(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/undocumented", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServeSchema(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/chat")
}
