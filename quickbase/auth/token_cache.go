/*
Copyright 2023 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/gravitational/qbrest/lib"
	"github.com/gravitational/qbrest/lib/logger"
)

// TokenCacheConfig configures a TokenCache.
type TokenCacheConfig struct {
	// Fetcher is called whenever a table has no live token.
	Fetcher Fetcher
	// Clock drives issue times and eviction timers.
	Clock clockwork.Clock
	// Validity is the lifetime of a token, DefaultValidity if unset.
	Validity time.Duration
	// Log is the cache logger.
	Log logrus.FieldLogger
}

// CheckAndSetDefaults validates the config and fills in defaults.
func (c *TokenCacheConfig) CheckAndSetDefaults() error {
	if c.Fetcher == nil {
		return trace.BadParameter("missing parameter Fetcher")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Validity <= 0 {
		c.Validity = DefaultValidity
	}
	if c.Log == nil {
		c.Log = logger.Standard()
	}
	return nil
}

type cacheEntry struct {
	token      Token
	timer      clockwork.Timer
	generation uint64
}

// TokenCache holds temporary tokens per table. Every entry is evicted by its own
// timer once the validity window elapses, regardless of use. Concurrent lookups of
// a table without a live token share a single fetch.
type TokenCache struct {
	fetcher  Fetcher
	clock    clockwork.Clock
	validity time.Duration
	log      logrus.FieldLogger

	// ctx outlives individual callers so that a shared fetch is not aborted
	// when the caller that started it goes away. It is canceled by Close.
	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group

	mu         sync.Mutex // protects the below fields
	entries    map[string]*cacheEntry
	generation uint64
	closed     bool
}

// NewTokenCache creates an empty TokenCache.
func NewTokenCache(conf TokenCacheConfig) (*TokenCache, error) {
	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TokenCache{
		fetcher:  conf.Fetcher,
		clock:    conf.Clock,
		validity: conf.Validity,
		log:      conf.Log,
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]*cacheEntry),
	}, nil
}

// Get returns a live token for the table, fetching one if needed.
func (c *TokenCache) Get(ctx context.Context, tableID string) (string, error) {
	token, ok, err := c.lookup(tableID)
	if err != nil {
		return "", trace.Wrap(err)
	}
	if ok {
		return token.Value, nil
	}

	fetchCtx := logger.With(c.ctx, logger.Get(ctx))
	resultCh := c.group.DoChan(tableID, func() (interface{}, error) {
		return c.fetch(fetchCtx, tableID)
	})

	select {
	case result := <-resultCh:
		if result.Err != nil {
			return "", trace.Wrap(result.Err)
		}
		return result.Val.(Token).Value, nil
	case <-ctx.Done():
		return "", trace.Wrap(ctx.Err())
	}
}

// Warm starts fetching a token for the table in the background if there is no
// live one. The returned promise may be ignored.
func (c *TokenCache) Warm(tableID string) *lib.Promise[string] {
	return lib.NewPromise(func() (string, error) {
		return c.Get(c.ctx, tableID)
	})
}

// Lookup returns the cached token of the table without fetching.
func (c *TokenCache) Lookup(tableID string) (Token, bool) {
	token, ok, _ := c.lookup(tableID)
	return token, ok
}

// Invalidate drops the cached token of the table.
func (c *TokenCache) Invalidate(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[tableID]; ok {
		entry.timer.Stop()
		delete(c.entries, tableID)
	}
}

// Len returns the number of cached tokens.
func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close cancels all pending evictions and in-flight fetches and drops every token.
func (c *TokenCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, entry := range c.entries {
		entry.timer.Stop()
	}
	c.entries = nil
	c.cancel()
}

func (c *TokenCache) lookup(tableID string) (Token, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Token{}, false, trace.ConnectionProblem(nil, "token cache is closed")
	}
	entry, ok := c.entries[tableID]
	if !ok {
		return Token{}, false, nil
	}
	// The eviction timer might not have fired yet.
	if !c.clock.Now().Before(entry.token.ExpiresAt(c.validity)) {
		return Token{}, false, nil
	}
	return entry.token, true, nil
}

func (c *TokenCache) fetch(ctx context.Context, tableID string) (Token, error) {
	// Another flight may have stored a token between our lookup and this call.
	if token, ok, err := c.lookup(tableID); err != nil {
		return Token{}, trace.Wrap(err)
	} else if ok {
		return token, nil
	}

	log := logger.Get(ctx).WithField("table_id", tableID)
	log.Debug("Fetching temporary token")
	value, err := c.fetcher.FetchTemporaryToken(ctx, tableID)
	if err != nil {
		return Token{}, trace.Wrap(err)
	}

	token := Token{TableID: tableID, Value: value, IssuedAt: c.clock.Now()}
	if err := c.store(token); err != nil {
		return Token{}, trace.Wrap(err)
	}
	log.Debugf("Temporary token cached for %s", c.validity)
	return token, nil
}

func (c *TokenCache) store(token Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return trace.ConnectionProblem(nil, "token cache is closed")
	}
	if prev, ok := c.entries[token.TableID]; ok {
		prev.timer.Stop()
	}
	c.generation++
	generation := c.generation
	tableID := token.TableID
	c.entries[tableID] = &cacheEntry{
		token:      token,
		generation: generation,
		timer: c.clock.AfterFunc(c.validity, func() {
			c.evict(tableID, generation)
		}),
	}
	return nil
}

// evict removes the entry only if it was not replaced since the timer was set.
func (c *TokenCache) evict(tableID string, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[tableID]
	if !ok || entry.generation != generation {
		return
	}
	delete(c.entries, tableID)
	c.log.WithField("table_id", tableID).Debug("Temporary token expired")
}
