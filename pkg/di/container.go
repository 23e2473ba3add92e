package di

import (
	"context"
	"fmt"
	"time"

	"characterai/backend/ai"
	"characterai/backend/internal/repository"
	"characterai/backend/internal/service"
	"characterai/backend/pkg/cache"
	"characterai/backend/pkg/config"
	"characterai/backend/pkg/health"
	"characterai/backend/pkg/logger"
	"characterai/backend/pkg/observability"
	"characterai/backend/pkg/resilience"
	"characterai/backend/pkg/secrets"
)

// llmKeySecret is the Vault key holding the provider credential
const llmKeySecret = "llm_api_key"

// Container holds all the dependencies for the application
type Container struct {
	Config  *config.Config
	Logger  *logger.Logger
	Store   repository.Store
	Cache   cache.Cache
	AI      ai.Generator
	Metrics *observability.Metrics
	Health  *health.Checker

	UserService         *service.UserService
	CharacterService    *service.CharacterService
	ConversationService *service.ConversationService
	ChatService         *service.ChatService

	closers []func() error
}

// Option overrides a dependency the container would otherwise build
type Option func(*Container)

// WithStore uses store instead of opening the configured database
func WithStore(store repository.Store) Option {
	return func(c *Container) { c.Store = store }
}

// WithGenerator uses g instead of the provider client
func WithGenerator(g ai.Generator) Option {
	return func(c *Container) { c.AI = g }
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...Option) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initStore(ctx); err != nil {
		return nil, err
	}
	if err := c.initCache(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initMetrics(); err != nil {
		c.Close()
		return nil, err
	}
	c.initAI(ctx)

	var charOpts []service.CharacterServiceOption
	if c.Cache != nil {
		charOpts = append(charOpts, service.WithCache(c.Cache, cfg.Cache.TTL))
	}

	c.UserService = service.NewUserService(c.Store.Users(), log)
	c.CharacterService = service.NewCharacterService(c.Store.Characters(), log, charOpts...)
	c.ConversationService = service.NewConversationService(c.Store.Conversations(), log)
	c.ChatService = service.NewChatService(c.CharacterService, c.AI, c.Metrics, log)

	c.initHealth()

	log.Info("Container initialized",
		"db_driver", cfg.Database.Driver,
		"cache", c.Cache != nil,
		"metrics", c.Metrics != nil,
	)
	return c, nil
}

func (c *Container) initStore(ctx context.Context) error {
	if c.Store != nil {
		return nil
	}

	if c.Config.Database.Driver == config.DriverMemory {
		c.Store = repository.NewMemoryStore()
		c.Logger.Warn("Using in-memory store; data is lost on restart")
		return nil
	}

	db, err := config.NewDB(c.Config, c.Logger)
	if err != nil {
		return err
	}
	store := repository.NewGormStore(db)

	migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := store.Migrate(migrateCtx); err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	c.Store = store
	c.closers = append(c.closers, store.Close)
	return nil
}

func (c *Container) initCache(ctx context.Context) error {
	cfg := c.Config.Cache
	if !cfg.Enabled {
		return nil
	}

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.RedisURL, "characterai:")
		if err != nil {
			return fmt.Errorf("failed to configure redis cache: %w", err)
		}
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.Cache = rc
		c.closers = append(c.closers, rc.Close)
		return nil
	}

	mc := cache.NewMemoryCache(cfg.MaxSize, cfg.PurgeWindow)
	c.Cache = mc
	c.closers = append(c.closers, func() error {
		mc.Close()
		return nil
	})
	return nil
}

func (c *Container) initMetrics() error {
	if !c.Config.Observability.MetricsEnabled {
		return nil
	}
	m, err := observability.NewMetrics(c.Config.Observability.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	c.Metrics = m
	c.closers = append(c.closers, func() error {
		return m.Shutdown(context.Background())
	})
	return nil
}

// initAI builds the provider client once; it is only read afterwards
func (c *Container) initAI(ctx context.Context) {
	if c.AI != nil {
		return
	}

	llm := c.Config.LLM
	apiKey := llm.APIKey
	if c.Config.Vault.Enabled {
		apiKey = c.vaultKey(ctx, apiKey)
	}

	var opts []ai.Option
	if llm.CircuitBreaker {
		opts = append(opts, ai.WithCircuitBreaker(
			resilience.NewCircuitBreaker(resilience.DefaultConfig("llm"), c.Logger),
		))
	}

	client := ai.NewClient(ai.Config{
		APIKey:  apiKey,
		BaseURL: llm.BaseURL,
		Model:   llm.Model,
		Timeout: llm.Timeout,
	}, c.Logger, opts...)
	if !client.Configured() {
		c.Logger.Warn("LLM API key is not configured; chat requests will fail until it is set")
	}
	c.AI = client
}

func (c *Container) vaultKey(ctx context.Context, fallback string) string {
	v := c.Config.Vault
	mgr, err := secrets.NewVaultManager(secrets.VaultConfig{
		Address:     v.Address,
		Token:       v.Token,
		Namespace:   v.Namespace,
		SecretsPath: v.SecretsPath,
	}, c.Logger)
	if err != nil {
		c.Logger.LogError(err, "Vault is enabled but unusable; using environment credential")
		return fallback
	}
	return mgr.GetSecretWithDefault(ctx, llmKeySecret, fallback)
}

func (c *Container) initHealth() {
	c.Health = health.NewChecker(c.Logger, 2*time.Second)
	c.Health.RegisterPingCheck("database", c.Store.Ping)

	if rc, ok := c.Cache.(*cache.RedisCache); ok {
		c.Health.RegisterPingCheck("redis", rc.Ping)
	}

	if client, ok := c.AI.(*ai.Client); ok {
		c.Health.RegisterCheck("llm", false, func(context.Context) (health.Status, string, error) {
			if !client.Configured() {
				return health.StatusDegraded, "API key is not configured", nil
			}
			return health.StatusUp, "API key is configured", nil
		})
	}
}

// Close releases every resource the container opened, in reverse order
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.LogError(err, "Failed to release resource")
		}
	}
	c.closers = nil
}
