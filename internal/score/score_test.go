package score

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func creatorVocab() *Vocabulary {
	return &Vocabulary{
		Metrics: []Metric{
			{Name: "accuracy", Advice: "Fact-check your claims."},
			{Name: "consistency", Advice: "Keep a consistent narrative."},
			{Name: "entertainment", Advice: "Add more humor."},
			{Name: "presentation", Advice: "Work on delivery."},
			{Name: "coherence", Advice: "Connect each part to the next."},
		},
		GenericAdvice: "Spend more time on pre-production planning.",
	}
}

func uniform(v *Vocabulary, val float64) Scores {
	s := Scores{}
	for _, m := range v.Metrics {
		s[m.Name] = val
	}
	return s
}

// --- Average ---

func TestAverage(t *testing.T) {
	v := creatorVocab()
	avg, err := v.Average(Scores{"accuracy": 9, "consistency": 7, "entertainment": 8, "presentation": 6, "coherence": 8})
	require.NoError(t, err)
	assert.InDelta(t, 7.6, avg, 1e-9)
}

func TestAverageBoundsAcrossGrid(t *testing.T) {
	v := creatorVocab()
	for _, val := range []float64{0, 0.1, 2.5, 5, 7.25, 9.9, 10} {
		avg, err := v.Average(uniform(v, val))
		require.NoError(t, err)
		assert.InDelta(t, val, avg, 1e-9)
		assert.True(t, avg >= MinValue && avg <= MaxValue)
	}
}

func TestAverageInvalidVectors(t *testing.T) {
	v := creatorVocab()

	tests := []struct {
		name    string
		mutate  func(Scores)
		wantErr error
	}{
		{"missing metric", func(s Scores) { delete(s, "coherence") }, ErrInvalidScoreVector},
		{"below zero", func(s Scores) { s["accuracy"] = -0.1 }, ErrInvalidScoreVector},
		{"above ten", func(s Scores) { s["accuracy"] = 10.01 }, ErrInvalidScoreVector},
		{"NaN", func(s Scores) { s["accuracy"] = math.NaN() }, ErrInvalidScoreVector},
		{"infinity", func(s Scores) { s["accuracy"] = math.Inf(1) }, ErrInvalidScoreVector},
		{"unknown metric", func(s Scores) { s["overall"] = 5 }, ErrUnknownMetric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := uniform(v, 5)
			tt.mutate(s)
			_, err := v.Average(s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestAverageEmptyVocabulary(t *testing.T) {
	_, err := (&Vocabulary{}).Average(Scores{})
	assert.ErrorIs(t, err, ErrInvalidScoreVector)
}

// --- ClassifyTier ---

func TestClassifyTierBoundaries(t *testing.T) {
	tests := []struct {
		avg  float64
		want Tier
	}{
		{10, TierDiamond},
		{8.0, TierDiamond},
		{7.999, TierGold},
		{6.0, TierGold},
		{5.999, TierSilver},
		{4.0, TierSilver},
		{3.999, TierBronze},
		{0, TierBronze},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyTier(tt.avg), "ClassifyTier(%v)", tt.avg)
	}
}

// --- Advice ---

func TestAdviceTargetsLowestWithoutGenericTip(t *testing.T) {
	v := creatorVocab()
	s := Scores{"accuracy": 9, "consistency": 7, "entertainment": 8, "presentation": 6, "coherence": 8}

	advice, err := v.Advice(s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Work on delivery."}, advice)
}

func TestAdviceAddsGenericTipBelowSeven(t *testing.T) {
	v := creatorVocab()
	s := Scores{"accuracy": 6, "consistency": 7, "entertainment": 5, "presentation": 6, "coherence": 8}

	advice, err := v.Advice(s)
	require.NoError(t, err)
	require.Len(t, advice, 2)
	assert.Equal(t, "Add more humor.", advice[0])
	assert.Equal(t, v.GenericAdvice, advice[1])
}

func TestAdviceTieGoesToFirstDeclared(t *testing.T) {
	v := creatorVocab()
	s := Scores{"accuracy": 8, "consistency": 4, "entertainment": 8, "presentation": 4, "coherence": 4}

	for i := 0; i < 20; i++ {
		w, err := v.Weakest(s)
		require.NoError(t, err)
		assert.Equal(t, "consistency", w.Name)
	}
}

func TestAdviceDeterministic(t *testing.T) {
	v := creatorVocab()
	s := Scores{"accuracy": 3.2, "consistency": 9.1, "entertainment": 3.2, "presentation": 6, "coherence": 2.9}

	first, err := v.Advice(s)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := v.Advice(s)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "Connect each part to the next.", first[0])
}

func TestAdviceMissingTextIsUnknownMetric(t *testing.T) {
	v := &Vocabulary{Metrics: []Metric{{Name: "a", Advice: "x"}, {Name: "b"}}}
	_, err := v.Advice(Scores{"a": 5, "b": 1})
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestAdviceUnknownMetric(t *testing.T) {
	v := creatorVocab()
	s := uniform(v, 5)
	s["comedy"] = 1
	_, err := v.Advice(s)
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

// --- Interpret ---

func TestInterpret(t *testing.T) {
	v := creatorVocab()
	got, err := Interpret(v, Scores{"accuracy": 9, "consistency": 7, "entertainment": 8, "presentation": 6, "coherence": 8})
	require.NoError(t, err)
	assert.InDelta(t, 7.6, got.Average, 1e-9)
	assert.Equal(t, TierGold, got.Tier)
	assert.Equal(t, "presentation", got.Weakest)
	assert.Len(t, got.Advice, 1)
}

// --- Tier enum ---

func TestTierValidAndParse(t *testing.T) {
	for _, tier := range Tiers {
		assert.True(t, tier.Valid())
		parsed, err := ParseTier(string(tier))
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}
	parsed, err := ParseTier(" gold ")
	require.NoError(t, err)
	assert.Equal(t, TierGold, parsed)

	_, err = ParseTier("platinum")
	assert.Error(t, err)
	assert.False(t, Tier("Platinum").Valid())
}

func TestTierAtLeast(t *testing.T) {
	assert.True(t, TierDiamond.AtLeast(TierGold))
	assert.True(t, TierGold.AtLeast(TierGold))
	assert.False(t, TierSilver.AtLeast(TierGold))
	assert.True(t, TierBronze.AtLeast(TierBronze))
	assert.False(t, Tier("bogus").AtLeast(TierBronze))
}
