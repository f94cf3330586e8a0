package types

// TemperatureTier is the coarse lead temperature derived from the readiness score.
type TemperatureTier string

// Temperature tiers, hottest first.
const (
	TierHot     TemperatureTier = "hot"
	TierWarmHot TemperatureTier = "warm-hot"
	TierWarm    TemperatureTier = "warm"
	TierCold    TemperatureTier = "cold"
)

// Rank orders tiers from cold (0) to hot (3). Unknown tiers rank as cold.
func (t TemperatureTier) Rank() int {
	switch t {
	case TierHot:
		return 3
	case TierWarmHot:
		return 2
	case TierWarm:
		return 1
	default:
		return 0
	}
}

// IgnoredAnswer records an answer the scoring engine could not use.
type IgnoredAnswer struct {
	QuestionID string `json:"questionId"`
	Code       string `json:"code"`
	Reason     string `json:"reason"`
}

// ScoreVector is the output of a scoring scheme. It is never mutated after creation.
type ScoreVector struct {
	Scheme       string          `json:"scheme"`
	RawScore     int             `json:"rawScore"`
	MaxScore     int             `json:"maxScore"`
	Readiness    int             `json:"readinessScore"`
	Accumulators map[string]int  `json:"vectors,omitempty"`
	Dominant     string          `json:"dominant,omitempty"`
	Degenerate   bool            `json:"degenerate"`
	Ignored      []IgnoredAnswer `json:"ignored,omitempty"`
}

// Profile is the locally computed classification of a score vector.
type Profile struct {
	Code        string          `json:"profileType"`
	DisplayName string          `json:"profileName"`
	Tier        TemperatureTier `json:"clientType"`
	Readiness   int             `json:"readinessScore"`
}

// IsZero reports whether the profile was never computed.
func (p Profile) IsZero() bool {
	return p.Code == "" && p.DisplayName == ""
}
