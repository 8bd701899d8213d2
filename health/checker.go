// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package health reports relay reachability: one check per configured
// relay, registered and run through the same register/cache/aggregate
// machinery used throughout this codebase for other background checks.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sage-x-project/nostrlocator/internal/logger"
	"github.com/sage-x-project/nostrlocator/relaypool"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one health check run.
type CheckResult struct {
	Name      string
	Status    Status
	Message   string
	Timestamp time.Time
	Duration  time.Duration
}

// Check is a single health check function.
type Check func(ctx context.Context) error

// Checker manages and runs a set of named health checks, caching each
// result for a short TTL so frequent callers (a CLI polling loop, for
// instance) don't re-probe relays on every call.
type Checker struct {
	checks   map[string]Check
	timeout  time.Duration
	mu       sync.RWMutex
	log      logger.Logger
	cacheTTL time.Duration
	cache    map[string]*cachedResult
}

type cachedResult struct {
	result    *CheckResult
	expiresAt time.Time
}

// NewChecker creates a Checker whose individual checks are bounded by
// timeout (default 5s if zero).
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:   make(map[string]Check),
		timeout:  timeout,
		log:      logger.GetDefaultLogger().WithFields(logger.String("component", "health")),
		cacheTTL: 10 * time.Second,
		cache:    make(map[string]*cachedResult),
	}
}

// SetCacheTTL overrides the default cached-result lifetime.
func (c *Checker) SetCacheTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheTTL = ttl
}

// Register adds a named check.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Unregister removes a named check and its cached result.
func (c *Checker) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
	delete(c.cache, name)
}

// RegisterRelays registers one RelayHealthCheck per relay URL against pool,
// replacing any existing registrations under the same names.
func (c *Checker) RegisterRelays(pool relaypool.Pool, relays []string) {
	for _, relayURL := range relays {
		c.Register(relayURL, RelayHealthCheck(pool, relayURL))
	}
}

// Check runs (or returns the cached result for) the named check.
func (c *Checker) Check(ctx context.Context, name string) (*CheckResult, error) {
	c.mu.RLock()
	check, ok := c.checks[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("health: check not found: %s", name)
	}

	if cached := c.getCached(name); cached != nil {
		return cached, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := check(checkCtx)
	duration := time.Since(start)

	result := &CheckResult{Name: name, Timestamp: time.Now(), Duration: duration}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
		c.log.Warn("relay health check failed", logger.String("relay", name), logger.Error(err), logger.Duration("duration", duration))
	} else {
		result.Status = StatusHealthy
		c.log.Debug("relay health check passed", logger.String("relay", name), logger.Duration("duration", duration))
	}

	c.setCached(name, result)
	return result, nil
}

// CheckAll runs every registered check concurrently.
func (c *Checker) CheckAll(ctx context.Context) map[string]*CheckResult {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	c.mu.RUnlock()

	results := make(map[string]*CheckResult, len(names))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			result, err := c.Check(ctx, name)
			if err != nil {
				result = &CheckResult{Name: name, Status: StatusUnhealthy, Message: err.Error(), Timestamp: time.Now()}
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name)
	}
	wg.Wait()
	return results
}

// OverallStatus summarizes CheckAll's results: unhealthy if any check is
// unhealthy, otherwise healthy. An empty check set is healthy.
func (c *Checker) OverallStatus(ctx context.Context) Status {
	results := c.CheckAll(ctx)
	for _, r := range results {
		if r.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
	}
	return StatusHealthy
}

// ClearCache discards every cached result.
func (c *Checker) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*cachedResult)
}

func (c *Checker) getCached(name string) *CheckResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cached, ok := c.cache[name]
	if !ok || time.Now().After(cached.expiresAt) {
		return nil
	}
	return cached.result
}

func (c *Checker) setCached(name string, result *CheckResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[name] = &cachedResult{result: result, expiresAt: time.Now().Add(c.cacheTTL)}
}

// RelayHealthCheck probes a single relay's reachability by issuing a
// one-result query (Limit 1) against it and treating a transport error
// as unhealthy; an empty-but-successful response still proves the relay
// is reachable and speaking the protocol.
func RelayHealthCheck(pool relaypool.Pool, relayURL string) Check {
	return func(ctx context.Context) error {
		if pool == nil {
			return fmt.Errorf("health: relay pool not configured")
		}
		_, err := pool.Query(ctx, []string{relayURL}, relaypool.Filter{Limit: 1})
		if err != nil {
			return fmt.Errorf("health: relay %s unreachable: %w", relayURL, err)
		}
		return nil
	}
}
