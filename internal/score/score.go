package score

import "fmt"

// Tier thresholds, inclusive on the lower bound.
const (
	DiamondFloor = 8.0
	GoldFloor    = 6.0
	SilverFloor  = 4.0
)

// Names returns the metric names in declaration order.
func (v *Vocabulary) Names() []string {
	names := make([]string, len(v.Metrics))
	for i, m := range v.Metrics {
		names[i] = m.Name
	}
	return names
}

// Lookup returns the declared metric with the given name.
func (v *Vocabulary) Lookup(name string) (Metric, bool) {
	for _, m := range v.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// Check verifies that s carries exactly the declared metrics, each in range.
func (v *Vocabulary) Check(s Scores) error {
	for name := range s {
		if _, ok := v.Lookup(name); !ok {
			return fmt.Errorf("score: metric %q: %w", name, ErrUnknownMetric)
		}
	}
	for _, m := range v.Metrics {
		val, ok := s[m.Name]
		if !ok {
			return fmt.Errorf("score: metric %q missing: %w", m.Name, ErrInvalidScoreVector)
		}
		if !InRange(val) {
			return fmt.Errorf("score: metric %q = %v out of [%g,%g]: %w", m.Name, val, MinValue, MaxValue, ErrInvalidScoreVector)
		}
	}
	return nil
}

// InRange reports whether val lies in [MinValue, MaxValue]. NaN never does.
func InRange(val float64) bool {
	return val >= MinValue && val <= MaxValue
}

// Average returns the arithmetic mean over all declared metrics.
func (v *Vocabulary) Average(s Scores) (float64, error) {
	if len(v.Metrics) == 0 {
		return 0, fmt.Errorf("score.Average: empty vocabulary: %w", ErrInvalidScoreVector)
	}
	if err := v.Check(s); err != nil {
		return 0, fmt.Errorf("score.Average: %w", err)
	}
	var sum float64
	for _, m := range v.Metrics {
		sum += s[m.Name]
	}
	return sum / float64(len(v.Metrics)), nil
}

// ClassifyTier maps an average score to its reward tier.
func ClassifyTier(avg float64) Tier {
	switch {
	case avg >= DiamondFloor:
		return TierDiamond
	case avg >= GoldFloor:
		return TierGold
	case avg >= SilverFloor:
		return TierSilver
	default:
		return TierBronze
	}
}

// Weakest returns the metric with the strictly lowest value. Ties go to the
// metric declared first.
func (v *Vocabulary) Weakest(s Scores) (Metric, error) {
	if err := v.Check(s); err != nil {
		return Metric{}, fmt.Errorf("score.Weakest: %w", err)
	}
	if len(v.Metrics) == 0 {
		return Metric{}, fmt.Errorf("score.Weakest: empty vocabulary: %w", ErrInvalidScoreVector)
	}
	weakest := v.Metrics[0]
	for _, m := range v.Metrics[1:] {
		if s[m.Name] < s[weakest.Name] {
			weakest = m
		}
	}
	return weakest, nil
}

// Advice returns the targeted statement for the weakest metric, followed by
// the generic statement when the average is below GenericAdviceBelow.
func (v *Vocabulary) Advice(s Scores) ([]string, error) {
	weakest, err := v.Weakest(s)
	if err != nil {
		return nil, fmt.Errorf("score.Advice: %w", err)
	}
	if weakest.Advice == "" {
		return nil, fmt.Errorf("score.Advice: no advice for %q: %w", weakest.Name, ErrUnknownMetric)
	}
	avg, err := v.Average(s)
	if err != nil {
		return nil, fmt.Errorf("score.Advice: %w", err)
	}

	advice := []string{weakest.Advice}
	if avg < GenericAdviceBelow && v.GenericAdvice != "" {
		advice = append(advice, v.GenericAdvice)
	}
	return advice, nil
}

// Interpret computes the average, tier, and advice for s in one pass.
func Interpret(v *Vocabulary, s Scores) (Interpretation, error) {
	avg, err := v.Average(s)
	if err != nil {
		return Interpretation{}, err
	}
	weakest, err := v.Weakest(s)
	if err != nil {
		return Interpretation{}, err
	}
	advice, err := v.Advice(s)
	if err != nil {
		return Interpretation{}, err
	}
	return Interpretation{
		Average: avg,
		Tier:    ClassifyTier(avg),
		Advice:  advice,
		Weakest: weakest.Name,
	}, nil
}
