// Package stub provides a deterministic Analysis Service for offline runs
// and tests. Scores are derived from a hash of the request, so the same
// request always yields the same result.
package stub

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/dshills/byteme/internal/profile"
	"github.com/dshills/byteme/internal/request"
	"github.com/dshills/byteme/internal/score"
	"github.com/dshills/byteme/internal/service"
	"github.com/rs/zerolog"
)

// FailMarker in a description makes the stub reject the request.
const FailMarker = "#fail"

const defaultDescription = "video analysis"

// Options configures a stub Service.
type Options struct {
	Rules request.Rules
	// Delay simulates backend latency.
	Delay  time.Duration
	Logger zerolog.Logger
}

// Service implements service.Service without any network I/O.
type Service struct {
	profile *profile.Profile
	vocab   *score.Vocabulary
	opts    Options
}

// New returns a stub that scores against the metrics of p.
func New(p *profile.Profile, opts Options) *Service {
	return &Service{profile: p, vocab: p.Vocabulary(), opts: opts}
}

func (s *Service) Name() string { return "stub" }

// Analyze validates req the way the real backend does and returns
// hash-derived scores.
func (s *Service) Analyze(ctx context.Context, req request.Request) (*service.Response, error) {
	req = request.New(req.URL, req.Description)
	if req.URL == "" {
		return nil, &service.RejectedError{StatusCode: 400, Message: "URL is required"}
	}
	if err := s.opts.Rules.Validate(req); err != nil {
		return nil, &service.RejectedError{StatusCode: 400, Message: "Invalid video URL"}
	}
	if s.opts.Delay > 0 {
		t := time.NewTimer(s.opts.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if strings.Contains(req.Description, FailMarker) {
		s.opts.Logger.Debug().Str("url", req.URL).Msg("stub: forced failure")
		return nil, &service.RejectedError{StatusCode: 500, Message: "analysis backend failure"}
	}

	scores := Scores(s.vocab, req)
	interp, err := score.Interpret(s.vocab, scores)
	if err != nil {
		return nil, fmt.Errorf("stub.Analyze: %w", err)
	}

	description := req.Description
	if description == "" {
		description = defaultDescription
	}
	payload := make(map[string]*float64, len(scores))
	for name, v := range scores {
		payload[name] = service.Float(v)
	}
	return &service.Response{
		URL:          req.URL,
		Description:  description,
		Scores:       payload,
		AverageScore: service.Float(round1(interp.Average)),
		Tier:         string(interp.Tier),
		Advice:       service.Advice(interp.Advice),
	}, nil
}

// Health always reports healthy.
func (s *Service) Health(context.Context) (*service.Health, error) {
	return &service.Health{Status: "healthy", Message: fmt.Sprintf("byteme stub (%s profile) is running", s.profile.Name)}, nil
}

// Scores derives one value in [1.0, 10.0] per metric from the FNV-64a hash
// of the request key. Each metric consumes one byte of the hash; vocabularies
// with more than eight metrics rehash with a block counter.
func Scores(v *score.Vocabulary, req request.Request) score.Scores {
	out := make(score.Scores, len(v.Metrics))
	var block [8]byte
	for i, m := range v.Metrics {
		if i%8 == 0 {
			binary.LittleEndian.PutUint64(block[:], digest(req.Key(), i/8))
		}
		out[m.Name] = round1(1 + float64(block[i%8])/255*9)
	}
	return out
}

func digest(key string, n int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	if n > 0 {
		fmt.Fprintf(h, "#%d", n)
	}
	return h.Sum64()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
