package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"characterai/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "LLM_API_KEY", EnvKey("llm_api_key"))
	assert.Equal(t, "LLM_API_KEY", EnvKey("llm-api.key"))
}

func TestEnvManager(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-env")

	var m EnvManager
	v, err := m.GetSecret(context.Background(), "llm_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", v)

	_, err = m.GetSecret(context.Background(), "does_not_exist")
	assert.ErrorIs(t, err, ErrSecretNotFound)
	assert.Equal(t, "fallback", m.GetSecretWithDefault(context.Background(), "does_not_exist", "fallback"))
}

func newVaultServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/v1/secret/data/characterai" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"data":{"llm_api_key":"sk-vault"}}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVaultManagerReadsKV(t *testing.T) {
	var hits int32
	srv := newVaultServer(t, &hits)

	m, err := NewVaultManager(VaultConfig{Address: srv.URL, Token: "root-token"}, logger.Discard())
	require.NoError(t, err)

	v, err := m.GetSecret(context.Background(), "llm_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-vault", v)

	// served from cache
	v, err = m.GetSecret(context.Background(), "llm_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-vault", v)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestVaultManagerFallsBackToEnvironment(t *testing.T) {
	var hits int32
	srv := newVaultServer(t, &hits)
	t.Setenv("REDIS_PASSWORD", "from-env")

	m, err := NewVaultManager(VaultConfig{Address: srv.URL, Token: "root-token"}, logger.Discard())
	require.NoError(t, err)

	v, err := m.GetSecret(context.Background(), "redis_password")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	assert.Equal(t, "default", m.GetSecretWithDefault(context.Background(), "unknown_key", "default"))
}

func TestVaultManagerMissingPath(t *testing.T) {
	var hits int32
	srv := newVaultServer(t, &hits)

	m, err := NewVaultManager(VaultConfig{Address: srv.URL, Token: "root-token", SecretsPath: "other"}, logger.Discard())
	require.NoError(t, err)

	_, err = m.GetSecret(context.Background(), "nothing_here")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestNewVaultManagerRequiresAddressAndToken(t *testing.T) {
	_, err := NewVaultManager(VaultConfig{Token: "t"}, logger.Discard())
	assert.ErrorIs(t, err, ErrNoVaultAddress)

	_, err = NewVaultManager(VaultConfig{Address: "http://127.0.0.1:8200"}, logger.Discard())
	assert.ErrorIs(t, err, ErrNoVaultToken)
}
