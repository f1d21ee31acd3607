package ratelimit

import (
	"sync"
	"time"
)

// Config tunes the sliding-window limiter.
type Config struct {
	MaxRequests     int           // requests allowed per window per key
	WindowSize      time.Duration // sliding window length
	CleanupInterval time.Duration // how often idle keys are swept
}

// DefaultConfig returns the limiter defaults used by the RPC surface.
func DefaultConfig() *Config {
	return &Config{
		MaxRequests:     50,
		WindowSize:      time.Second,
		CleanupInterval: 5 * time.Minute,
	}
}

// Limiter is a per-key sliding-window rate limiter. Keys are caller
// identities, typically remote IPs.
type Limiter struct {
	config *Config

	mu       sync.Mutex
	requests map[string][]time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewLimiter creates a limiter and starts its background sweep.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = DefaultConfig()
	}

	l := &Limiter{
		config:      config,
		requests:    make(map[string][]time.Time),
		stopCleanup: make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow records a request for key and reports whether it fits inside the
// window.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()
	cutoff := now.Add(-l.config.WindowSize)

	l.mu.Lock()
	defer l.mu.Unlock()

	valid := trimExpired(l.requests[key], cutoff)
	if len(valid) >= l.config.MaxRequests {
		l.requests[key] = valid
		return false
	}

	l.requests[key] = append(valid, now)
	return true
}

// Count returns the number of in-window requests for key.
func (l *Limiter) Count(key string) int {
	cutoff := time.Now().Add(-l.config.WindowSize)

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(trimExpired(l.requests[key], cutoff))
}

// Reset drops all recorded requests for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.requests, key)
}

// Stop terminates the background sweep.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stopCleanup:
			return
		}
	}
}

// sweep removes keys whose every request fell out of the window, so idle
// callers do not pin memory.
func (l *Limiter) sweep() {
	cutoff := time.Now().Add(-l.config.WindowSize)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, stamps := range l.requests {
		valid := trimExpired(stamps, cutoff)
		if len(valid) == 0 {
			delete(l.requests, key)
		} else {
			l.requests[key] = valid
		}
	}
}

func trimExpired(stamps []time.Time, cutoff time.Time) []time.Time {
	valid := make([]time.Time, 0, len(stamps))
	for _, ts := range stamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	return valid
}
