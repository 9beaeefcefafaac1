package service

import (
	"context"
	"sync"

	"github.com/dshills/byteme/internal/request"
)

// Mock is a test double that returns a canned response or error.
//
// When Release is set, Analyze blocks until Release is closed or, unless
// IgnoreContext is set, until ctx is done.
type Mock struct {
	Response      *Response
	Err           error
	Release       chan struct{}
	IgnoreContext bool

	mu       sync.Mutex
	requests []request.Request
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Analyze(ctx context.Context, req request.Request) (*Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Release != nil {
		if m.IgnoreContext {
			<-m.Release
		} else {
			select {
			case <-m.Release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response.Clone(), nil
}

// Requests returns every request Analyze has seen, in order.
func (m *Mock) Requests() []request.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]request.Request(nil), m.requests...)
}

// Calls returns the number of Analyze calls.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
