package stub

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dshills/byteme/internal/profile"
	"github.com/dshills/byteme/internal/request"
	"github.com/dshills/byteme/internal/schema"
	"github.com/dshills/byteme/internal/score"
	"github.com/dshills/byteme/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const videoURL = "https://www.tiktok.com/@cat/video/123"

func newStub(t *testing.T, name string) *Service {
	t.Helper()
	p, err := profile.LoadBuiltin(name)
	require.NoError(t, err)
	return New(p, Options{Rules: request.DefaultRules(), Logger: zerolog.Nop()})
}

func TestScoresDeterministicAndInRange(t *testing.T) {
	s := newStub(t, "creator")
	req := request.New(videoURL, "cat video")

	a := Scores(s.vocab, req)
	b := Scores(s.vocab, req)
	assert.Equal(t, a, b)
	require.NoError(t, s.vocab.Check(a))
	for name, v := range a {
		assert.GreaterOrEqual(t, v, 1.0, name)
		assert.LessOrEqual(t, v, 10.0, name)
		assert.InDelta(t, v, round1(v), 1e-9, "%s has more than one decimal", name)
	}

	other := Scores(s.vocab, request.New(videoURL, "dog video"))
	assert.NotEqual(t, a, other)
}

func TestScoresManyMetrics(t *testing.T) {
	v := &score.Vocabulary{}
	for i := 0; i < 12; i++ {
		v.Metrics = append(v.Metrics, score.Metric{Name: string(rune('a' + i)), Advice: "x"})
	}
	got := Scores(v, request.New(videoURL, ""))
	assert.Len(t, got, 12)
	assert.NoError(t, v.Check(got))
}

func TestAnalyzeProducesValidPayload(t *testing.T) {
	for _, name := range []string{"creator", "byteme", "lynx"} {
		t.Run(name, func(t *testing.T) {
			s := newStub(t, name)
			resp, err := s.Analyze(context.Background(), request.New(videoURL, ""))
			require.NoError(t, err)
			assert.Empty(t, schema.Validate(resp, s.profile))
			assert.Equal(t, defaultDescription, resp.Description)
			require.NotNil(t, resp.AverageScore)

			tier, err := score.ParseTier(resp.Tier)
			require.NoError(t, err)
			assert.Equal(t, score.ClassifyTier(*resp.AverageScore), tier)
			assert.NotEmpty(t, resp.Advice)
		})
	}
}

func TestAnalyzeValidation(t *testing.T) {
	s := newStub(t, "creator")

	tests := []struct {
		name    string
		req     request.Request
		status  int
		message string
	}{
		{"empty", request.Request{}, 400, "URL is required"},
		{"wrong host", request.New("https://example.com/video/1", ""), 400, "Invalid video URL"},
		{"forced failure", request.New(videoURL, "please #fail"), 500, "analysis backend failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Analyze(context.Background(), tt.req)
			var rej *service.RejectedError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tt.status, rej.StatusCode)
			assert.Equal(t, tt.message, rej.Message)
		})
	}
}

func TestAnalyzeDelayHonorsContext(t *testing.T) {
	p, err := profile.LoadBuiltin("creator")
	require.NoError(t, err)
	s := New(p, Options{Delay: time.Second, Logger: zerolog.Nop()})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Analyze(ctx, request.New(videoURL, ""))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newStub(t, "creator")
	r := Router(s, zerolog.Nop())

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	})

	t.Run("analyze", func(t *testing.T) {
		body, _ := json.Marshal(request.New(videoURL, "cat video"))
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", "abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
		var resp service.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "cat video", resp.Description)
		assert.Empty(t, schema.Validate(&resp, s.profile))
	})

	t.Run("rejected", func(t *testing.T) {
		body, _ := json.Marshal(request.Request{URL: "https://example.com/x"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Invalid video URL"}`, w.Body.String())
	})

	t.Run("bad json", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader([]byte("{"))))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"invalid JSON body"}`, w.Body.String())
	})
}
