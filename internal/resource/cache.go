// Package resource caches remote-resource results per canonical request key.
//
// Each key moves through uninitialized -> loading -> ready | error. At most
// one loader runs per key; concurrent callers share its result. Entries are
// evicted by tag or key invalidation and by Reset. Results that resolve after
// their entry was superseded or the cache was reset are returned to the
// callers that awaited them but never written back.
package resource

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/dmehra2102/PostDeck/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader produces the payload for a key.
type Loader func(ctx context.Context) (any, error)

// CommitFunc receives a successful payload after the cache accepted it.
// current reports whether the entry still holds that payload; it turns false
// once the entry is invalidated, superseded by a newer request or reset.
type CommitFunc func(payload any, current func() bool)

type Status int

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "uninitialized"
	}
}

// Entry is a point-in-time view of a cache entry.
type Entry struct {
	Key       Key
	Status    Status
	Payload   any
	Err       error
	Tags      []Tag
	FetchedAt time.Time
	// Stale is set when the entry was invalidated while its request was in
	// flight; the next Fetch loads it again.
	Stale bool
}

type entry struct {
	status    Status
	payload   any
	err       error
	tags      []Tag
	fetchedAt time.Time
	stale     bool
	inflight  bool
	// seq identifies the most recent flight; older flights are discarded
	seq uint64
}

// Stats are cumulative cache counters.
type Stats struct {
	Hits          int64
	Misses        int64
	Shared        int64
	Loads         int64
	Errors        int64
	Invalidations int64
	StaleDiscards int64
}

// Cache is safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[Key]*entry
	tags       tagIndex
	generation uint64
	flight     singleflight.Group
	options    Options
	logger     *zap.Logger

	hits          int64
	misses        int64
	shared        int64
	loads         int64
	errorCount    int64
	invalidations int64
	staleDiscards int64
}

func NewCache(opts ...Option) *Cache {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Cache{
		entries: make(map[Key]*entry),
		tags:    make(tagIndex),
		options: options,
		logger:  options.Logger,
	}
}

// Fetch returns the ready payload for key, or loads it. A cached error is
// returned as is until the key is refetched or invalidated.
func (c *Cache) Fetch(ctx context.Context, key Key, load Loader, tags ...Tag) (any, error) {
	return c.FetchWith(ctx, key, load, nil, tags...)
}

// FetchWith is Fetch with a commit hook that runs once per accepted load.
// Loads discarded as stale never reach it.
func (c *Cache) FetchWith(ctx context.Context, key Key, load Loader, commit CommitFunc, tags ...Tag) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !e.inflight && c.servable(e) {
		payload, err := e.payload, e.err
		c.mu.Unlock()
		atomic.AddInt64(&c.hits, 1)
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		if err != nil {
			return nil, err
		}
		return payload, nil
	}
	c.mu.Unlock()

	atomic.AddInt64(&c.misses, 1)
	cacheLookupsTotal.WithLabelValues("miss").Inc()
	return c.join(ctx, key, load, commit, tags, false)
}

// Refetch loads key again even if a ready payload is cached. When the new
// attempt fails the previous payload is dropped. A request already in flight
// for key is joined rather than duplicated.
func (c *Cache) Refetch(ctx context.Context, key Key, load Loader, tags ...Tag) (any, error) {
	return c.RefetchWith(ctx, key, load, nil, tags...)
}

// RefetchWith is Refetch with a commit hook, see FetchWith.
func (c *Cache) RefetchWith(ctx context.Context, key Key, load Loader, commit CommitFunc, tags ...Tag) (any, error) {
	return c.join(ctx, key, load, commit, tags, true)
}

func (c *Cache) servable(e *entry) bool {
	if e.stale {
		return false
	}
	switch e.status {
	case StatusError:
		return true
	case StatusReady:
		if c.options.MaxAge <= 0 {
			return true
		}
		return c.options.Clock().Sub(e.fetchedAt) < c.options.MaxAge
	default:
		return false
	}
}

func (c *Cache) join(ctx context.Context, key Key, load Loader, commit CommitFunc, tags []Tag, replace bool) (any, error) {
	// The flight outlives any single caller: it keeps the first caller's
	// values but not its cancellation.
	flightCtx := context.WithoutCancel(ctx)

	ch := c.flight.DoChan(string(key), func() (any, error) {
		return c.run(flightCtx, key, load, commit, tags, replace)
	})

	select {
	case res := <-ch:
		if res.Shared {
			atomic.AddInt64(&c.shared, 1)
			cacheLookupsTotal.WithLabelValues("shared").Inc()
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) run(ctx context.Context, key Key, load Loader, commit CommitFunc, tags []Tag, replace bool) (any, error) {
	c.mu.Lock()
	gen := c.generation
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.seq++
	seq := e.seq
	e.status = StatusLoading
	e.stale = false
	e.inflight = true
	c.mu.Unlock()

	cacheInflight.Inc()
	start := time.Now()
	val, err := c.load(ctx, key, load)
	cacheLoadDuration.Observe(time.Since(start).Seconds())
	cacheInflight.Dec()

	atomic.AddInt64(&c.loads, 1)
	if err != nil {
		atomic.AddInt64(&c.errorCount, 1)
		cacheLoadsTotal.WithLabelValues("error").Inc()
	} else {
		cacheLoadsTotal.WithLabelValues("success").Inc()
	}

	if cerr := c.commit(key, e, gen, seq, val, err, tags, replace); cerr != nil {
		atomic.AddInt64(&c.staleDiscards, 1)
		cacheStaleDiscardsTotal.Inc()
		c.logger.Debug("discarded stale result",
			zap.String("key", string(key)),
			zap.Error(cerr),
		)
		return val, err
	}
	if err == nil && commit != nil {
		commit(val, func() bool { return c.current(key, e, gen, seq) })
	}
	return val, err
}

// current reports whether e is still the ready result of flight seq.
func (c *Cache) current(key Key, e *entry, gen, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation && c.entries[key] == e && e.seq == seq &&
		!e.stale && e.status == StatusReady
}

// commit writes a flight's result unless the flight was superseded.
func (c *Cache) commit(key Key, e *entry, gen, seq uint64, val any, err error, tags []Tag, replace bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return fmt.Errorf("%w: cache reset during load", domain.ErrStaleResult)
	}
	if c.entries[key] != e || e.seq != seq {
		return fmt.Errorf("%w: superseded by a newer request", domain.ErrStaleResult)
	}

	e.inflight = false
	e.fetchedAt = c.options.Clock()
	if err != nil {
		e.status = StatusError
		e.err = err
		if replace {
			e.payload = nil
		}
		c.logger.Debug("fetch failed",
			zap.String("key", string(key)),
			zap.Error(err),
		)
	} else {
		e.status = StatusReady
		e.payload = val
		e.err = nil
	}

	c.tags.remove(key, e.tags)
	e.tags = append([]Tag(nil), tags...)
	c.tags.add(key, e.tags)
	return nil
}

// load calls the loader, retrying once on transport failures.
func (c *Cache) load(ctx context.Context, key Key, load Loader) (any, error) {
	if c.options.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.LoadTimeout)
		defer cancel()
	}

	op := func() (any, error) {
		val, err := c.safeLoad(ctx, key, load)
		if err == nil {
			return val, nil
		}
		if domain.KindOf(err) == domain.KindTransport {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	val, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(&backoff.ZeroBackOff{}),
		backoff.WithMaxTries(c.options.MaxAttempts),
		backoff.WithNotify(func(err error, _ time.Duration) {
			c.logger.Warn("retrying fetch after transport failure",
				zap.String("key", string(key)),
				zap.Error(err),
			)
		}),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	return val, err
}

func (c *Cache) safeLoad(ctx context.Context, key Key, load Loader) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic recovered",
				zap.String("key", string(key)),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			val, err = nil, fmt.Errorf("loader panic: %v", r)
		}
	}()
	return load(ctx)
}

// InvalidateTags evicts every entry carrying one of tags and returns the
// number of entries evicted.
func (c *Cache) InvalidateTags(tags ...Tag) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[Key]struct{})
	for _, t := range tags {
		for _, k := range c.tags.match(t) {
			seen[k] = struct{}{}
		}
	}
	for k := range seen {
		c.evictLocked(k)
	}
	if len(seen) > 0 {
		c.logger.Debug("invalidated entries by tag",
			zap.Stringers("tags", tags),
			zap.Int("evicted", len(seen)),
		)
	}
	return len(seen)
}

// InvalidateKey evicts a single entry.
func (c *Cache) InvalidateKey(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return false
	}
	c.evictLocked(key)
	return true
}

// Invalidate accepts either a request key ("GET /posts") or a tag
// ("Post", "Post:42").
func (c *Cache) Invalidate(tagOrKey string) int {
	if IsKey(tagOrKey) {
		req, err := ParseRequest(tagOrKey)
		if err != nil {
			return 0
		}
		if c.InvalidateKey(req.Key()) {
			return 1
		}
		return 0
	}
	return c.InvalidateTags(ParseTag(tagOrKey))
}

// evictLocked resets an entry to uninitialized. An entry with a request in
// flight is kept so the flight can still land, but marked stale and detached
// from the singleflight group so the next caller starts a fresh request.
func (c *Cache) evictLocked(key Key) {
	e := c.entries[key]
	if e == nil {
		return
	}
	atomic.AddInt64(&c.invalidations, 1)
	cacheInvalidationsTotal.Inc()

	if e.inflight {
		e.status = StatusUninitialized
		e.payload = nil
		e.err = nil
		e.stale = true
		c.flight.Forget(string(key))
		return
	}
	c.tags.remove(key, e.tags)
	delete(c.entries, key)
}

// Reset clears every entry. Requests still in flight resolve for their
// callers but their results are discarded.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if e.inflight {
			c.flight.Forget(string(k))
		}
	}
	c.generation++
	c.entries = make(map[Key]*entry)
	c.tags = make(tagIndex)
	c.logger.Debug("cache reset", zap.Uint64("generation", c.generation))
}

// Entry returns a snapshot of key's entry. Unknown keys report
// StatusUninitialized. Payload is set only when Status is StatusReady.
func (c *Cache) Entry(key Key) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{Key: key, Status: StatusUninitialized}
	}
	snap := Entry{
		Key:       key,
		Status:    e.status,
		Err:       e.err,
		Tags:      append([]Tag(nil), e.tags...),
		FetchedAt: e.fetchedAt,
		Stale:     e.stale,
	}
	if e.status == StatusReady {
		snap.Payload = e.payload
	}
	return snap
}

// Len returns the number of entries, including in-flight ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Generation returns the current staleness token.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:          atomic.LoadInt64(&c.hits),
		Misses:        atomic.LoadInt64(&c.misses),
		Shared:        atomic.LoadInt64(&c.shared),
		Loads:         atomic.LoadInt64(&c.loads),
		Errors:        atomic.LoadInt64(&c.errorCount),
		Invalidations: atomic.LoadInt64(&c.invalidations),
		StaleDiscards: atomic.LoadInt64(&c.staleDiscards),
	}
}
