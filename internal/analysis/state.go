package analysis

import (
	"time"

	"github.com/dshills/byteme/internal/request"
	"github.com/dshills/byteme/internal/score"
)

// Phase is the tag of an AnalysisState.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether p ends an attempt.
func (p Phase) Terminal() bool { return p == PhaseSucceeded || p == PhaseFailed }

// FailureKind classifies why an attempt failed.
type FailureKind string

const (
	KindRemoteUnavailable FailureKind = "RemoteUnavailable"
	KindRemoteRejected    FailureKind = "RemoteRejected"
	KindMalformedResponse FailureKind = "MalformedResponse"
	KindTimeout           FailureKind = "Timeout"
)

// Failure is the payload of the Failed phase.
type Failure struct {
	Kind   FailureKind `json:"kind"`
	Reason string      `json:"reason"`
	// StatusCode is set for RemoteRejected.
	StatusCode int `json:"statusCode,omitempty"`
}

// Result is the payload of the Succeeded phase. It is never mutated after
// construction.
type Result struct {
	Request      request.Request `json:"request"`
	Description  string          `json:"description"`
	Scores       score.Scores    `json:"scores"`
	// Metrics lists the scored metrics in profile order.
	Metrics      []score.Metric  `json:"-"`
	AverageScore float64         `json:"averageScore"`
	Tier         score.Tier      `json:"tier"`
	Advice       []string        `json:"advice"`
	Weakest      string          `json:"weakest"`
	RemoteAdvice []string        `json:"remoteAdvice,omitempty"`
	RequestID    string          `json:"requestId,omitempty"`
	CompletedAt  time.Time       `json:"completedAt"`
}

// MetricNames returns the score keys in profile order.
func (r *Result) MetricNames() []string {
	names := make([]string, len(r.Metrics))
	for i, m := range r.Metrics {
		names[i] = m.Name
	}
	return names
}

// State is a snapshot of the orchestrator. Exactly one of Result and Failure
// is set in the terminal phases; Request and StartedAt are zero in Idle.
type State struct {
	Phase Phase
	// Generation identifies the request this state belongs to.
	Generation uint64
	// Seq increases by one on every transition.
	Seq       uint64
	StartedAt time.Time
	Request   request.Request
	Result    *Result
	Failure   *Failure
}
