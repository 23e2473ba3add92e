package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"characterai/backend/pkg/logger"
	"characterai/backend/pkg/resilience"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Fixed sampling parameters for every reply
const (
	MaxTokens   = 80
	Temperature = 0.8
)

// Generator produces one persona reply for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// ChatCompleter is the slice of the go-openai client we call
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures the provider client
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds one provider round trip; zero means no limit
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat-completion endpoint. It is built
// once at startup and only read afterwards.
type Client struct {
	cfg     Config
	api     ChatCompleter
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
	tracer  trace.Tracer
}

// Option customises a Client
type Option func(*Client)

// WithCircuitBreaker routes every provider call through cb
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// WithChatCompleter replaces the go-openai client, mostly for tests
func WithChatCompleter(api ChatCompleter) Option {
	return func(c *Client) { c.api = api }
}

// NewClient creates the provider client. A missing key is not an error here;
// it is reported by Generate.
func NewClient(cfg Config, log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetGlobal()
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}

	c := &Client{
		cfg:    cfg,
		log:    log.WithComponent("ai"),
		tracer: otel.Tracer("characterai/backend/ai"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.api == nil {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		c.api = openai.NewClientWithConfig(oc)
	}
	return c
}

// Configured reports whether a usable API key is present
func (c *Client) Configured() bool {
	return !IsPlaceholderKey(c.cfg.APIKey)
}

// Generate asks the provider for one reply and returns it trimmed
func (c *Client) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if !c.Configured() {
		return "", ErrCredentialMissing
	}

	ctx, span := c.tracer.Start(ctx, "ai.Generate", trace.WithAttributes(
		attribute.String("ai.model", c.cfg.Model),
		attribute.Int("ai.history_len", len(prompt.History)),
	))
	defer span.End()

	req := c.request(prompt)

	var reply string
	call := func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return &UpstreamError{Message: "provider returned no choices"}
		}
		reply = strings.TrimSpace(resp.Choices[0].Message.Content)
		if reply == "" {
			return &UpstreamError{Message: "provider returned an empty reply"}
		}
		return nil
	}

	start := time.Now()
	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}

	if err != nil {
		err = classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.LogError(err, "Provider call failed",
			"model", c.cfg.Model,
			"latency_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	c.log.Debug("Provider call succeeded",
		"model", c.cfg.Model,
		"latency_ms", time.Since(start).Milliseconds(),
		"reply_len", len(reply),
	)
	return reply, nil
}

func (c *Client) request(prompt Prompt) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(prompt.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: prompt.Preamble,
	})
	for _, turn := range prompt.History {
		role := openai.ChatMessageRoleAssistant
		if turn.Role == RoleUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt.Message,
	})

	return openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
		Stop:        prompt.Stop,
	}
}

// classify maps provider failures onto the package errors
func classify(err error) error {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return err
	}

	if errors.Is(err, resilience.ErrCircuitOpen) {
		return &UpstreamError{Message: "provider temporarily disabled after repeated failures", Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if isAuthStatus(apiErr.HTTPStatusCode) {
			return ErrCredentialInvalid
		}
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if isAuthStatus(reqErr.HTTPStatusCode) {
			return ErrCredentialInvalid
		}
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error(), Err: err}
	}

	return &UpstreamError{Message: err.Error(), Err: err}
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
