package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"characterai/backend/pkg/logger"
)

// ErrCircuitOpen is returned by Execute while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit open")

// State represents the current state of a circuit breaker
type State string

const (
	// StateClosed lets every call through
	StateClosed State = "closed"
	// StateOpen short-circuits every call until RetryTimeout has passed
	StateOpen State = "open"
	// StateHalfOpen lets a limited number of probe calls through
	StateHalfOpen State = "half-open"
)

// Config holds configuration for a circuit breaker
type Config struct {
	Name             string
	FailureThreshold uint
	SuccessThreshold uint
	RetryTimeout     time.Duration
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RetryTimeout:     30 * time.Second,
	}
}

// Stats is a point-in-time copy of the breaker counters
type Stats struct {
	Name           string    `json:"name"`
	State          State     `json:"state"`
	TotalRequests  uint64    `json:"total_requests"`
	TotalFailures  uint64    `json:"total_failures"`
	TotalSuccesses uint64    `json:"total_successes"`
	Rejected       uint64    `json:"rejected"`
	OpenCount      uint64    `json:"open_count"`
	LastFailure    time.Time `json:"last_failure,omitempty"`
}

// CircuitBreaker stops calling a failing dependency for a while
type CircuitBreaker struct {
	cfg Config
	log *logger.Logger
	now func() time.Time

	mu           sync.Mutex
	state        State
	failureCount uint
	successCount uint
	inFlight     uint
	nextAttempt  time.Time
	stats        Stats
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(cfg Config, log *logger.Logger) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 1
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &CircuitBreaker{
		cfg:   cfg,
		log:   log,
		now:   time.Now,
		state: StateClosed,
		stats: Stats{Name: cfg.Name},
	}
}

// Execute runs fn through the circuit breaker. A cancelled context is not
// counted as a failure of the dependency.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allow() {
		cb.log.Warn("Circuit breaker rejected call", "name", cb.cfg.Name)
		return ErrCircuitOpen
	}

	err := fn(ctx)

	switch {
	case err == nil:
		cb.onSuccess()
	case ctx.Err() != nil:
		cb.release()
	default:
		cb.onFailure()
	}
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalRequests++

	switch cb.state {
	case StateOpen:
		if cb.now().Before(cb.nextAttempt) {
			cb.stats.Rejected++
			return false
		}
		cb.setState(StateHalfOpen)
		cb.successCount = 0
		cb.inFlight = 0
		fallthrough
	case StateHalfOpen:
		if cb.inFlight+cb.successCount >= cb.cfg.SuccessThreshold {
			cb.stats.Rejected++
			return false
		}
		cb.inFlight++
	}
	return true
}

func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateHalfOpen && cb.inFlight > 0 {
		cb.inFlight--
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalSuccesses++

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		if cb.inFlight > 0 {
			cb.inFlight--
		}
		cb.successCount++
		if cb.successCount >= cb.cfg.SuccessThreshold {
			cb.failureCount = 0
			cb.setState(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.TotalFailures++
	cb.stats.LastFailure = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.cfg.FailureThreshold {
			cb.trip()
		}
	case StateHalfOpen:
		cb.trip()
	}
}

// trip opens the breaker; caller holds cb.mu.
func (cb *CircuitBreaker) trip() {
	cb.nextAttempt = cb.now().Add(cb.cfg.RetryTimeout)
	cb.stats.OpenCount++
	cb.inFlight = 0
	cb.setState(StateOpen)
}

// setState records a transition; caller holds cb.mu.
func (cb *CircuitBreaker) setState(s State) {
	if cb.state == s {
		return
	}
	cb.log.Info("Circuit breaker state change",
		"name", cb.cfg.Name,
		"from", string(cb.state),
		"to", string(s),
		"failures", cb.failureCount,
	)
	cb.state = s
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns the current counters
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	s := cb.stats
	s.State = cb.state
	return s
}
