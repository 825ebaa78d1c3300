// Package cache implements the process-wide read-through request cache that
// every data-fetching path goes through. It deduplicates concurrent fetches
// for the same key, serves repeated reads inside a freshness window, spaces
// outbound calls by a global minimum interval, and retries rate-limited calls
// with exponential backoff.
//
// The cache is an explicit instance constructed once at startup and passed to
// the services that need it — no package-level singleton.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrRateLimited classifies a producer failure as retryable. Producers wrap
// backend rate-limit rejections with this sentinel (errors.Is match).
var ErrRateLimited = errors.New("rate limited")

// Producer fetches the value for a key from the backend.
type Producer func(ctx context.Context) (any, error)

// Config holds the cache tunables. Zero values fall back to the defaults the
// dashboard has always used.
type Config struct {
	TTL            time.Duration // default freshness window (30s)
	MinInterval    time.Duration // global spacing between outbound calls (1s)
	MaxRetries     int           // attempts per fetch on rate-limit errors (3)
	RetryDelay     time.Duration // base backoff delay, doubled per attempt (2s)
	InFlightMaxAge time.Duration // sweeper eviction threshold for hung fetches (30s)
}

func (c *Config) applyDefaults() {
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
	if c.MinInterval <= 0 {
		c.MinInterval = time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.InFlightMaxAge <= 0 {
		c.InFlightMaxAge = 30 * time.Second
	}
}

type entry struct {
	value    any
	storedAt time.Time
}

// call is the shared handle for one in-flight fetch. Coalesced callers block
// on done and read val/err afterwards.
type call struct {
	done    chan struct{}
	val     any
	err     error
	started time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	cfg Config

	mu          sync.Mutex
	entries     map[string]entry
	inflight    map[string]*call
	nextAllowed time.Time // earliest time the next outbound call may start

	// Injected for tests; real clock and interruptible sleep in production.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config) *Cache {
	cfg.applyDefaults()
	return &Cache{
		cfg:      cfg,
		entries:  make(map[string]entry),
		inflight: make(map[string]*call),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fetch is the typed entry point. Coalesced callers for one key always share
// a producer of the same concrete type, so the assertion cannot fail in
// normal operation.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, producer func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Get(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return producer(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: key %q holds %T", key, v)
	}
	return t, nil
}

// Get returns the cached value for key when fresher than ttl, joins an
// in-flight fetch for the same key, or invokes producer (throttled, with
// retry on rate-limit errors). ttl <= 0 uses the configured default.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration, producer Producer) (any, error) {
	if ttl <= 0 {
		ttl = c.cfg.TTL
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.storedAt) < ttl {
		c.mu.Unlock()
		return e.value, nil
	}

	if cl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-cl.done:
			return cl.val, cl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	cl := &call{done: make(chan struct{}), started: c.now()}
	c.inflight[key] = cl
	c.mu.Unlock()

	val, err := c.produce(ctx, producer)

	cl.val, cl.err = val, err
	close(cl.done)

	c.mu.Lock()
	// The sweeper may have evicted this call and a newer one registered the
	// key; only remove the marker when it is still ours.
	if cur, ok := c.inflight[key]; ok && cur == cl {
		delete(c.inflight, key)
	}
	if err == nil {
		c.entries[key] = entry{value: val, storedAt: c.now()}
	}
	c.mu.Unlock()

	return val, err
}

// produce reserves a throttle slot, then runs the producer with bounded
// exponential-backoff retry on rate-limit errors. Other errors propagate
// immediately.
func (c *Cache) produce(ctx context.Context, producer Producer) (any, error) {
	c.mu.Lock()
	now := c.now()
	start := c.nextAllowed
	if start.Before(now) {
		start = now
	}
	c.nextAllowed = start.Add(c.cfg.MinInterval)
	c.mu.Unlock()

	if err := c.sleep(ctx, start.Sub(now)); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		val, err := producer(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err
		if !errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		if attempt == c.cfg.MaxRetries-1 {
			break
		}
		delay := c.cfg.RetryDelay * (1 << attempt)
		log.Warn().
			Int("intento", attempt+1).
			Int("max", c.cfg.MaxRetries).
			Dur("espera", delay).
			Msg("cache: rate limit del backend, reintentando")
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Invalidate removes the given keys. Absent keys are a no-op, so calling it
// twice for the same key is harmless.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
}

// InvalidatePrefix removes every entry whose key starts with prefix. List
// views cache one entry per filter combination; after a write the service
// drops them all with the shared prefix instead of tracking each key.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Clear empties the whole cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of live entries (health/metrics).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartSweeper launches the background goroutine that evicts in-flight
// markers older than InFlightMaxAge. Without it a producer that never returns
// would block every future read for its key; with it the next Get starts a
// fresh fetch while the hung caller keeps waiting on its own context.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = c.cfg.InFlightMaxAge
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweepInFlight()
			}
		}
	}()
}

func (c *Cache) sweepInFlight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, cl := range c.inflight {
		if now.Sub(cl.started) > c.cfg.InFlightMaxAge {
			delete(c.inflight, key)
			log.Warn().Str("key", key).Msg("cache: fetch colgado evacuado del registro in-flight")
		}
	}
}
