package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/readiness-quiz/internal/types"
)

func TestThresholds_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		tier  types.TemperatureTier
		code  string
	}{
		{100, types.TierHot, "expert"},
		{76, types.TierHot, "expert"},
		{75, types.TierWarmHot, "practitioner"},
		{56, types.TierWarmHot, "practitioner"},
		{55, types.TierWarm, "explorer"},
		{31, types.TierWarm, "explorer"},
		{30, types.TierCold, "observer"},
		{0, types.TierCold, "observer"},
		{-5, types.TierCold, "observer"},
	}
	for _, tt := range tests {
		row := DefaultThresholds.Row(tt.score)
		assert.Equal(t, tt.tier, row.Tier, "score %d", tt.score)
		assert.Equal(t, tt.code, row.Code, "score %d", tt.score)
		assert.Equal(t, tt.tier, DefaultThresholds.Tier(tt.score))
	}
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds.Validate())
	assert.Error(t, Thresholds{}.Validate())
	assert.Error(t, Thresholds{{Min: 10}, {Min: 20}, {Min: 0}}.Validate())
	assert.Error(t, Thresholds{{Min: 50}, {Min: 10}}.Validate())
}

func TestClassify_TotalOverScores(t *testing.T) {
	for score := 0; score <= 100; score++ {
		p := Classify(types.ScoreVector{Readiness: score}, DefaultThresholds)
		assert.False(t, p.IsZero(), "score %d", score)
		assert.Equal(t, score, p.Readiness)
	}
}

func TestClassify_EmptyTableUsesDefaults(t *testing.T) {
	for _, table := range []Thresholds{nil, {}} {
		assert.NotPanics(t, func() {
			p := Classify(types.ScoreVector{Readiness: 80}, table)
			assert.Equal(t, types.TierHot, p.Tier)
			assert.Equal(t, "expert", p.Code)
		})
		assert.Equal(t, types.TierCold, table.Tier(0))
	}
}

func TestClassify_UnknownDominantFallsBackToRow(t *testing.T) {
	p := Classify(types.ScoreVector{Readiness: 60, Dominant: "wizard"}, DefaultThresholds)
	assert.Equal(t, "practitioner", p.Code)
}

func TestRecommendations(t *testing.T) {
	assert.Len(t, Recommendations(types.TierHot), 4)
	assert.Equal(t, Recommendations(types.TierCold), Recommendations("unknown"))

	rec := Recommendations(types.TierWarm)
	rec[0] = "mutated"
	assert.NotEqual(t, "mutated", Recommendations(types.TierWarm)[0])
}
