package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"characterai/backend/pkg/logger"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates a component is working correctly
	StatusUp Status = "up"
	// StatusDown indicates a component is not working
	StatusDown Status = "down"
	// StatusDegraded indicates a component is working but with reduced functionality
	StatusDegraded Status = "degraded"
)

// Component is the last known state of one checked dependency
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Critical    bool      `json:"critical"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check probes one dependency
type Check func(ctx context.Context) (Status, string, error)

type registration struct {
	check    Check
	critical bool
}

// Checker runs registered checks and remembers their results
type Checker struct {
	mu         sync.RWMutex
	checks     map[string]registration
	components map[string]*Component
	timeout    time.Duration
	log        *logger.Logger
	listeners  []func(healthy bool)
}

// NewChecker creates a health checker; each check gets at most timeout
func NewChecker(log *logger.Logger, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{
		checks:     make(map[string]registration),
		components: make(map[string]*Component),
		timeout:    timeout,
		log:        log,
	}
}

// RegisterCheck registers a new health check. A critical component that is
// down makes the whole system unhealthy.
func (c *Checker) RegisterCheck(name string, critical bool, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = registration{check: check, critical: critical}
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Critical:    critical,
		Description: "Not checked yet",
	}
}

// RegisterPingCheck registers a critical check built from a ping function
func (c *Checker) RegisterPingCheck(name string, ping func(context.Context) error) {
	c.RegisterCheck(name, true, func(ctx context.Context) (Status, string, error) {
		if err := ping(ctx); err != nil {
			return StatusDown, name + " is unreachable", err
		}
		return StatusUp, name + " is reachable", nil
	})
}

// OnChange registers a callback invoked with the overall health after every run
func (c *Checker) OnChange(fn func(healthy bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// RunChecks executes all registered health checks
func (c *Checker) RunChecks(ctx context.Context) {
	c.mu.RLock()
	checks := make(map[string]registration, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mu.RUnlock()

	results := make(map[string]Component, len(checks))
	for name, reg := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		status, description, err := reg.check(checkCtx)
		cancel()

		comp := Component{
			Name:        name,
			Status:      status,
			Critical:    reg.critical,
			Description: description,
			LastChecked: time.Now(),
		}
		if err != nil {
			comp.Error = err.Error()
			c.log.Error("Health check failed", "component", name, "status", string(status), "error", err.Error())
		}
		results[name] = comp
	}

	c.mu.Lock()
	for name, comp := range results {
		comp := comp
		c.components[name] = &comp
	}
	listeners := append([]func(bool){}, c.listeners...)
	c.mu.Unlock()

	healthy := c.IsSystemHealthy()
	for _, fn := range listeners {
		fn(healthy)
	}
}

// Start runs checks immediately and then every period until ctx is done
func (c *Checker) Start(ctx context.Context, period time.Duration) {
	go func() {
		c.RunChecks(ctx)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.RunChecks(ctx)
			}
		}
	}()
}

// GetStatus returns a copy of every component, sorted by name
func (c *Checker) GetStatus() []Component {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Component, 0, len(c.components))
	for _, v := range c.components {
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// IsSystemHealthy returns true if no critical component is down
func (c *Checker) IsSystemHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, component := range c.components {
		if component.Critical && component.Status == StatusDown {
			return false
		}
	}
	return true
}
