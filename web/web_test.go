package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, Register(r, "/api/v1"))
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestPagesRender(t *testing.T) {
	r := setupEngine(t)

	for _, p := range Pages {
		t.Run(p.Path, func(t *testing.T) {
			w := get(r, p.Path)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, w.Body.String(), "<title>"+p.Title+"</title>")
			assert.Contains(t, w.Body.String(), "/static/api.js")
		})
	}
}

func TestChatPageLoadsSpeech(t *testing.T) {
	r := setupEngine(t)

	body := get(r, "/chat").Body.String()
	assert.Contains(t, body, "/static/speech.js")
	assert.Contains(t, body, "/static/chat.js")
}

func TestStaticAssets(t *testing.T) {
	r := setupEngine(t)

	for _, asset := range []string{"app.css", "api.js", "gallery.js", "create.js", "chat.js", "speech.js"} {
		w := get(r, "/static/"+asset)
		assert.Equal(t, http.StatusOK, w.Code, asset)
	}

	assert.Equal(t, http.StatusNotFound, get(r, "/static/missing.js").Code)
}

func TestClientStrings(t *testing.T) {
	read := func(name string) string {
		b, err := staticFS.ReadFile("static/" + name)
		require.NoError(t, err)
		return string(b)
	}

	chat := read("chat.js")
	assert.Contains(t, chat, `"Network error."`)
	assert.Contains(t, chat, `sender: "User"`)
	assert.Contains(t, chat, `sender: "AI"`)

	create := read("create.js")
	assert.Contains(t, create, "Character created successfully!")
	assert.Contains(t, create, "Failed to create character.")
	assert.Contains(t, create, "Error connecting to backend.")

	speech := read("speech.js")
	assert.Contains(t, speech, "(female|woman|girl|she|her)")
	assert.Contains(t, speech, "(male|man|boy|he|him)")
}
