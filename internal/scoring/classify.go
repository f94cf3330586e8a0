package scoring

import (
	"fmt"

	"github.com/jonathan/readiness-quiz/internal/archetype"
	"github.com/jonathan/readiness-quiz/internal/types"
)

// Threshold is one row of a threshold table: scores at or above Min map to
// the row's tier and profile.
type Threshold struct {
	Min         int                   `json:"min"`
	Tier        types.TemperatureTier `json:"tier"`
	Code        string                `json:"code"`
	DisplayName string                `json:"displayName"`
}

// Thresholds is an ordered threshold table, highest Min first. The last row
// must have Min 0 so that every score is covered.
type Thresholds []Threshold

// DefaultThresholds is the single threshold table used for classification,
// lead temperature and gift selection.
var DefaultThresholds = Thresholds{
	{Min: 76, Tier: types.TierHot, Code: "expert", DisplayName: "Эксперт"},
	{Min: 56, Tier: types.TierWarmHot, Code: "practitioner", DisplayName: "Практик"},
	{Min: 31, Tier: types.TierWarm, Code: "explorer", DisplayName: "Исследователь"},
	{Min: 0, Tier: types.TierCold, Code: "observer", DisplayName: "Наблюдатель"},
}

// Validate checks that the table is strictly descending and total.
func (t Thresholds) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("threshold table is empty")
	}
	for i := 1; i < len(t); i++ {
		if t[i].Min >= t[i-1].Min {
			return fmt.Errorf("threshold %d (min %d) is not below threshold %d (min %d)", i, t[i].Min, i-1, t[i-1].Min)
		}
	}
	if last := t[len(t)-1]; last.Min != 0 {
		return fmt.Errorf("last threshold must have min 0, got %d", last.Min)
	}
	return nil
}

// Row returns the row a readiness score falls into. Scores below every Min
// fall into the last row. An empty table classifies with DefaultThresholds.
func (t Thresholds) Row(score int) Threshold {
	if len(t) == 0 {
		t = DefaultThresholds
	}
	for _, row := range t {
		if score >= row.Min {
			return row
		}
	}
	return t[len(t)-1]
}

// Tier returns the temperature tier of a readiness score.
func (t Thresholds) Tier(score int) types.TemperatureTier {
	return t.Row(score).Tier
}

// Classify maps a score vector to a profile. The tier always comes from the
// threshold table. When the vector names a dominant archetype, the profile
// is that archetype; otherwise it is the threshold row's profile.
func Classify(vector types.ScoreVector, table Thresholds) types.Profile {
	row := table.Row(vector.Readiness)
	p := types.Profile{
		Code:        row.Code,
		DisplayName: row.DisplayName,
		Tier:        row.Tier,
		Readiness:   vector.Readiness,
	}
	if vector.Dominant != "" {
		if a, ok := archetype.ByCode(vector.Dominant); ok {
			p.Code = a.Code
			p.DisplayName = a.Name
		}
	}
	return p
}
