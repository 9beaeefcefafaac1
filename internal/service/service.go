// Package service defines the Analysis Service contract and its clients.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dshills/byteme/internal/request"
)

var (
	// ErrRemoteUnavailable reports that the service could not be reached.
	ErrRemoteUnavailable = errors.New("analysis service unavailable")
	// ErrMalformedResponse reports a success response that could not be decoded.
	ErrMalformedResponse = errors.New("malformed analysis response")
	// ErrTimeout reports that the configured deadline elapsed before a response.
	ErrTimeout = errors.New("analysis timed out")
)

// RejectedError is a non-success response from the service. Message is the
// server's error text, verbatim.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string { return e.Message }

// Response is the success payload of an analysis call.
type Response struct {
	URL          string              `json:"url,omitempty"`
	Description  string              `json:"description"`
	Scores       map[string]*float64 `json:"scores"`
	AverageScore *float64            `json:"averageScore,omitempty"`
	Tier         string              `json:"tier,omitempty"`
	Advice       Advice              `json:"advice,omitempty"`

	// RequestID is the X-Request-ID the client sent. Not part of the payload.
	RequestID string `json:"-"`
}

// Clone returns a deep copy so cached responses are never shared.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := *r
	if r.Scores != nil {
		c.Scores = make(map[string]*float64, len(r.Scores))
		for k, v := range r.Scores {
			if v == nil {
				c.Scores[k] = nil
				continue
			}
			val := *v
			c.Scores[k] = &val
		}
	}
	if r.AverageScore != nil {
		avg := *r.AverageScore
		c.AverageScore = &avg
	}
	c.Advice = append(Advice(nil), r.Advice...)
	return &c
}

// Advice accepts either a single string or a list of strings.
type Advice []string

func (a *Advice) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*a = nil
		} else {
			*a = Advice{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("advice must be a string or list of strings: %w", err)
	}
	*a = many
	return nil
}

// Health is the payload of the health endpoint.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Service analyzes a video reference.
type Service interface {
	Analyze(ctx context.Context, req request.Request) (*Response, error)
	Name() string
}

// HealthChecker is implemented by services that expose a health probe.
type HealthChecker interface {
	Health(ctx context.Context) (*Health, error)
}

// Invalidator is implemented by services that remember responses. Callers
// that reject a decoded response use it so the next attempt reaches the
// remote service again.
type Invalidator interface {
	Invalidate(req request.Request)
}

// Func adapts a function to the Service interface.
type Func func(ctx context.Context, req request.Request) (*Response, error)

func (f Func) Analyze(ctx context.Context, req request.Request) (*Response, error) {
	return f(ctx, req)
}

func (f Func) Name() string { return "func" }

// Float returns a pointer to v, for building score maps.
func Float(v float64) *float64 { return &v }

// ScoresOf builds a payload score map from plain values.
func ScoresOf(m map[string]float64) map[string]*float64 {
	out := make(map[string]*float64, len(m))
	for k, v := range m {
		out[k] = Float(v)
	}
	return out
}
