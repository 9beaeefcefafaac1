// Package score interprets metric score vectors into an average, a reward
// tier, and improvement advice.
package score

import "errors"

var (
	// ErrInvalidScoreVector reports a missing metric or a value outside [0,10].
	ErrInvalidScoreVector = errors.New("invalid score vector")
	// ErrUnknownMetric reports a metric name the vocabulary does not declare.
	ErrUnknownMetric = errors.New("unknown metric")
)

const (
	MinValue = 0.0
	MaxValue = 10.0

	// GenericAdviceBelow is the average under which the generic tip is added.
	GenericAdviceBelow = 7.0
)

// Scores maps metric names to values in [MinValue, MaxValue].
type Scores map[string]float64

// Metric is one named quality dimension with its targeted advice.
type Metric struct {
	Name   string
	Label  string
	Advice string
}

// Vocabulary is the ordered metric set a score vector must cover.
// Declaration order breaks ties when picking the weakest metric.
type Vocabulary struct {
	Metrics       []Metric
	GenericAdvice string
}

// Interpretation bundles everything derived from one score vector.
type Interpretation struct {
	Average float64  `json:"averageScore"`
	Tier    Tier     `json:"tier"`
	Advice  []string `json:"advice"`
	Weakest string   `json:"weakest"`
}
