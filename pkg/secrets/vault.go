package secrets

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"characterai/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
)

// VaultConfig holds configuration for Vault client
type VaultConfig struct {
	Address     string
	Token       string
	Namespace   string
	Mount       string
	SecretsPath string
	Timeout     time.Duration
	MaxRetries  int
	CacheTTL    time.Duration
}

type cachedSecret struct {
	value   string
	expires time.Time
}

// VaultManager reads secrets from a KV v2 mount, falling back to the
// environment for keys Vault does not hold.
type VaultManager struct {
	client *vault.Client
	config VaultConfig
	env    EnvManager
	log    *logger.Logger

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

// NewVaultManager creates a new Vault manager instance
func NewVaultManager(cfg VaultConfig, log *logger.Logger) (*VaultManager, error) {
	if cfg.Address == "" {
		return nil, ErrNoVaultAddress
	}
	if cfg.Token == "" {
		return nil, ErrNoVaultToken
	}
	if cfg.Mount == "" {
		cfg.Mount = "secret"
	}
	if cfg.SecretsPath == "" {
		cfg.SecretsPath = "characterai"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if log == nil {
		log = logger.GetGlobal()
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address
	vaultConfig.Timeout = cfg.Timeout
	vaultConfig.MaxRetries = cfg.MaxRetries

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	return &VaultManager{
		client: client,
		config: cfg,
		log:    log.WithComponent("secrets"),
		cache:  make(map[string]cachedSecret),
	}, nil
}

// GetSecret retrieves a secret from Vault, with fallback to environment variable
func (m *VaultManager) GetSecret(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	cached, found := m.cache[key]
	m.mu.RUnlock()
	if found && time.Now().Before(cached.expires) {
		return cached.value, nil
	}

	value, err := m.getFromVault(ctx, key)
	if err == ErrSecretNotFound {
		m.log.Warn("Secret not found in Vault, falling back to environment", "key", key)
		value, err = m.env.GetSecret(ctx, key)
	}
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.cache[key] = cachedSecret{value: value, expires: time.Now().Add(m.config.CacheTTL)}
	m.mu.Unlock()
	return value, nil
}

// GetSecretWithDefault retrieves a secret with a default value if not found
func (m *VaultManager) GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		m.log.Warn("Failed to get secret, using default value",
			"key", key,
			"error", err.Error(),
		)
		return defaultValue
	}
	return value
}

// getFromVault reads <mount>/data/<path> and picks key out of its data map
func (m *VaultManager) getFromVault(ctx context.Context, key string) (string, error) {
	path := strings.Trim(m.config.Mount, "/") + "/data/" + strings.Trim(m.config.SecretsPath, "/")

	secret, err := m.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		m.log.Error("Failed to read secret from Vault",
			"path", path,
			"error", err.Error(),
		)
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", ErrSecretNotFound
	}
	value, ok := data[key].(string)
	if !ok || value == "" {
		return "", ErrSecretNotFound
	}
	return value, nil
}
