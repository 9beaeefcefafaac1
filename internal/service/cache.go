package service

import (
	"context"
	"fmt"

	"github.com/dshills/byteme/internal/request"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached serves repeated requests from an LRU of successful responses.
// Failures are never cached. A response that decodes but is later rejected
// must be dropped with Invalidate.
type Cached struct {
	next  Service
	cache *lru.Cache[string, *Response]
}

// WithCache wraps next with an LRU of the given size. A size <= 0 returns
// next unchanged.
func WithCache(next Service, size int) (Service, error) {
	if size <= 0 {
		return next, nil
	}
	c, err := lru.New[string, *Response](size)
	if err != nil {
		return nil, fmt.Errorf("service.WithCache: %w", err)
	}
	return &Cached{next: next, cache: c}, nil
}

func (c *Cached) Name() string { return c.next.Name() + "+cache" }

func (c *Cached) Analyze(ctx context.Context, req request.Request) (*Response, error) {
	key := req.Key()
	if hit, ok := c.cache.Get(key); ok {
		return hit.Clone(), nil
	}
	resp, err := c.next.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, resp.Clone())
	return resp, nil
}

// Health forwards to the wrapped service when it supports health probes.
func (c *Cached) Health(ctx context.Context) (*Health, error) {
	hc, ok := c.next.(HealthChecker)
	if !ok {
		return nil, fmt.Errorf("service: %s has no health endpoint", c.next.Name())
	}
	return hc.Health(ctx)
}

// Invalidate drops the cached response for req, if any.
func (c *Cached) Invalidate(req request.Request) {
	c.cache.Remove(req.Key())
}

// Len reports the number of cached responses.
func (c *Cached) Len() int { return c.cache.Len() }
