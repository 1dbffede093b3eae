// Package health runs liveness checks against the server's components and
// serves the aggregated result over HTTP.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status is the health of one component or of the whole server.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check probes one component. A nil error means healthy.
type Check func(ctx context.Context) error

// Result is the outcome of one check.
type Result struct {
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report is the aggregated outcome of every check.
type Report struct {
	Status     Status            `json:"status"`
	Uptime     string            `json:"uptime"`
	Components map[string]Result `json:"components"`
}

type component struct {
	name     string
	critical bool
	timeout  time.Duration
	check    Check
}

// Checker holds the registered checks.
type Checker struct {
	mu         sync.RWMutex
	components []component
	start      time.Time
}

// NewChecker returns an empty checker.
func NewChecker() *Checker {
	return &Checker{start: time.Now()}
}

// Register adds a check. A failing critical check makes the server
// unhealthy; any other failure only degrades it. A zero timeout means
// two seconds.
func (c *Checker) Register(name string, critical bool, timeout time.Duration, check Check) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components = append(c.components, component{name: name, critical: critical, timeout: timeout, check: check})
}

// Run executes every check concurrently and aggregates the results.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	components := append([]component(nil), c.components...)
	c.mu.RUnlock()

	results := make([]Result, len(components))
	var wg sync.WaitGroup
	for i, comp := range components {
		i, comp := i, comp
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = runOne(ctx, comp)
		}()
	}
	wg.Wait()

	report := Report{
		Status:     StatusHealthy,
		Uptime:     time.Since(c.start).Round(time.Second).String(),
		Components: make(map[string]Result, len(components)),
	}
	for i, comp := range components {
		r := results[i]
		report.Components[comp.name] = r
		if r.Status == StatusHealthy {
			continue
		}
		if comp.critical {
			report.Status = StatusUnhealthy
		} else if report.Status == StatusHealthy {
			report.Status = StatusDegraded
		}
	}
	return report
}

func runOne(ctx context.Context, comp component) Result {
	ctx, cancel := context.WithTimeout(ctx, comp.timeout)
	defer cancel()

	start := time.Now()
	errc := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				errc <- fmt.Errorf("check panicked: %v", r)
			}
		}()
		errc <- comp.check(ctx)
	}()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		err = fmt.Errorf("check timed out: %w", ctx.Err())
	}

	r := Result{Status: StatusHealthy, Duration: time.Since(start)}
	if err != nil {
		r.Status = StatusUnhealthy
		r.Error = err.Error()
	}
	return r
}

// Names returns the registered check names, sorted.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.components))
	for _, comp := range c.components {
		names = append(names, comp.name)
	}
	sort.Strings(names)
	return names
}

// Handler serves Run as JSON, with 503 when the server is unhealthy.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	})
}
