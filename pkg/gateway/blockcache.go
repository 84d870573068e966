package gateway

import (
	"context"
	"sync"
)

// BlockEvents notifies subscribers about the next new block.
type BlockEvents interface {
	// OnNextBlock calls fn once, when the next new block is observed.
	OnNextBlock(fn func())
}

// HeadFeed is a BlockEvents fed by whoever watches the chain head.
type HeadFeed struct {
	mu   sync.Mutex
	head uint64
	subs []func()
}

func NewHeadFeed() *HeadFeed {
	return &HeadFeed{}
}

func (f *HeadFeed) OnNextBlock(fn func()) {
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	f.mu.Unlock()
}

// Publish records number as the chain head. Subscribers are notified only
// when number is higher than the last published head.
func (f *HeadFeed) Publish(number uint64) bool {
	f.mu.Lock()
	if number <= f.head {
		f.mu.Unlock()
		return false
	}
	f.head = number
	subs := f.subs
	f.subs = nil
	f.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
	return true
}

func (f *HeadFeed) Head() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head
}

type cacheEntry struct {
	done  chan struct{}
	value any
	err   error
}

// BlockCache memoizes values until the next block. The first read of an
// empty cache arms a one-shot subscription that clears it.
type BlockCache struct {
	events BlockEvents

	mu      sync.Mutex
	armed   bool
	entries map[string]*cacheEntry
}

func NewBlockCache(events BlockEvents) *BlockCache {
	return &BlockCache{
		events:  events,
		entries: make(map[string]*cacheEntry),
	}
}

// Get returns the value cached under key, calling load at most once per
// block for concurrent callers. The load runs detached from any single
// caller's cancellation; ctx only bounds this caller's wait. Failed loads are
// dropped so the next caller retries.
func (c *BlockCache) Get(ctx context.Context, key string, load func(ctx context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if len(c.entries) == 0 && !c.armed {
		c.armed = true
		c.events.OnNextBlock(c.clear)
	}
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{done: make(chan struct{})}
		c.entries[key] = e
		go c.fill(context.WithoutCancel(ctx), key, e, load)
	}
	c.mu.Unlock()

	select {
	case <-e.done:
		return e.value, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *BlockCache) fill(ctx context.Context, key string, e *cacheEntry, load func(ctx context.Context) (any, error)) {
	e.value, e.err = load(ctx)
	if e.err != nil {
		c.mu.Lock()
		if c.entries[key] == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}
	close(e.done)
}

func (c *BlockCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *BlockCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.armed = false
	c.mu.Unlock()
}
