package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dshills/byteme/internal/redact"
	"github.com/dshills/byteme/internal/request"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	analyzePath = "/api/analyze"
	healthPath  = "/api/health"

	// DefaultMaxResponseBytes caps the size of a response body.
	DefaultMaxResponseBytes = 1 << 20
)

// Options configures an HTTP client.
type Options struct {
	// Endpoint is the service base URL, e.g. http://localhost:8080.
	Endpoint string
	// RateLimit caps outgoing analyze calls per second. Zero disables it.
	RateLimit float64
	// MaxResponseBytes caps the response body. Zero uses the default.
	MaxResponseBytes int64
	// Redact scrubs the description and strips tracking parameters.
	Redact bool
	Client *http.Client
	Logger zerolog.Logger
}

// HTTP implements Service against the JSON-over-HTTP analysis API.
type HTTP struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
	redact   bool
	log      zerolog.Logger
	newID    func() string
}

// NewHTTP creates an HTTP client for the given options.
func NewHTTP(opts Options) (*HTTP, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("service.NewHTTP: endpoint is required")
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("service.NewHTTP: endpoint %q must start with http:// or https://", endpoint)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}
	h := &HTTP{
		endpoint: endpoint,
		client:   client,
		maxBytes: maxBytes,
		redact:   opts.Redact,
		log:      opts.Logger,
		newID:    uuid.NewString,
	}
	if opts.RateLimit > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return h, nil
}

func (h *HTTP) Name() string { return "http" }

// Endpoint returns the normalized base URL.
func (h *HTTP) Endpoint() string { return h.endpoint }

func (h *HTTP) Analyze(ctx context.Context, req request.Request) (*Response, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("service: rate limit wait: %w", ctx.Err())
			}
			// The limiter refuses up front when the wait would overrun the deadline.
			return nil, fmt.Errorf("service: rate limit wait: %v: %w", err, ErrTimeout)
		}
	}

	if h.redact {
		req = request.Request{URL: redact.URL(req.URL), Description: redact.Text(req.Description)}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("service: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+analyzePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("service: create request: %w", err)
	}
	requestID := h.newID()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := h.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("service: request: %w", ctx.Err())
		}
		return nil, fmt.Errorf("service: request failed: %v: %w", err, ErrRemoteUnavailable)
	}
	defer resp.Body.Close()

	respBody, err := readAllWithLimit(resp.Body, h.maxBytes)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			return nil, fmt.Errorf("service: %v: %w", err, ErrMalformedResponse)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("service: read response: %w", ctx.Err())
		}
		return nil, fmt.Errorf("service: read response: %v: %w", err, ErrRemoteUnavailable)
	}

	h.log.Debug().
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Int("bytes", len(respBody)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rejected(resp.StatusCode, respBody)
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("service: parse response: %v: %w", err, ErrMalformedResponse)
	}
	out.RequestID = requestID
	return &out, nil
}

// Health probes the service health endpoint.
func (h *HTTP) Health(ctx context.Context) (*Health, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint+healthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("service: create request: %w", err)
	}
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("service: health: %v: %w", err, ErrRemoteUnavailable)
	}
	defer resp.Body.Close()

	body, err := readAllWithLimit(resp.Body, h.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("service: health: %v: %w", err, ErrMalformedResponse)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, rejected(resp.StatusCode, body)
	}
	var out Health
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("service: health: %v: %w", err, ErrMalformedResponse)
	}
	return &out, nil
}

func rejected(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &RejectedError{StatusCode: status, Message: payload.Error}
	}
	return &RejectedError{StatusCode: status, Message: fmt.Sprintf("Analysis failed (HTTP %d)", status)}
}

var errBodyTooLarge = errors.New("response body too large")

func readAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	lr := &io.LimitedReader{R: r, N: limit + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: exceeded %d bytes", errBodyTooLarge, limit)
	}
	return data, nil
}
