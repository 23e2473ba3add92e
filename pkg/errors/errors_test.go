package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	notFound := NewNotFoundError(CodeNotFound, "Not found")

	assert.Nil(t, FromError(nil))
	assert.Same(t, notFound, FromError(notFound))
	assert.Same(t, notFound, FromError(fmt.Errorf("lookup: %w", notFound)))

	plain := stderrors.New("disk on fire")
	converted := FromError(plain)
	assert.Equal(t, http.StatusInternalServerError, converted.StatusCode)
	assert.Equal(t, CodeInternal, converted.Code)
	assert.ErrorIs(t, converted, plain)
	assert.NotContains(t, converted.Message, "disk on fire")
}

func TestGetStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, GetStatusCode(NewBadRequestError(CodeValidation, "bad")))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(stderrors.New("x")))
}

func TestErrorHandlerRendersFlatBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(NewNotFoundError(CodeNotFound, "Not found"))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/missing", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found","code":"NOT_FOUND"}`, w.Body.String())
}

func TestRecoveryWithLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RecoveryWithLogger())
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/panic", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), CodeServerPanic)
}
