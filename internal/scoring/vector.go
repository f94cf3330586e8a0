package scoring

import (
	"github.com/jonathan/readiness-quiz/internal/archetype"
	"github.com/jonathan/readiness-quiz/internal/types"
)

// WeightTable maps question id to answer code to archetype code to weight.
// A single answer may feed several archetypes.
type WeightTable map[string]map[string]map[string]int

// DefaultWeightTable is the archetype affinity table for bank revision
// 2024-ai-readiness-v2.
var DefaultWeightTable = WeightTable{
	"q1": {
		"A": {"pragmatist": 2, "optimizer": 1},
		"B": {"optimizer": 2, "generalist": 1},
		"C": {"strategist": 3, "pioneer": 1},
		"D": {"generalist": 3},
	},
	"q2": {
		"A": {"optimizer": 2, "analyst": 1},
		"B": {"enthusiast": 2, "strategist": 1},
		"C": {"optimizer": 3},
		"D": {"analyst": 3},
	},
	"q3": {
		"A": {"pragmatist": 2},
		"B": {"enthusiast": 3},
		"C": {"optimizer": 2, "analyst": 1, "enthusiast": 1},
		"D": {"observer": 3},
	},
	"q4": {
		"A": {"strategist": 2, "pioneer": 2},
		"B": {"pragmatist": 2},
		"C": {"observer": 1, "skeptic": 1},
		"D": {"skeptic": 3},
	},
	"q5": {
		"A": {"generalist": 2, "optimizer": 1},
		"B": {"seeker": 1, "observer": 1},
		"C": {"observer": 2},
		"D": {"seeker": 2, "skeptic": 1},
	},
	"q6": {
		"A": {"seeker": 2},
		"B": {"skeptic": 2, "analyst": 1},
		"C": {"analyst": 2, "skeptic": 1},
		"D": {"pragmatist": 1, "pioneer": 1},
	},
	"q7": {
		"A": {"analyst": 1, "observer": 1},
		"B": {"generalist": 2},
		"C": {"seeker": 1, "enthusiast": 1},
		"D": {"pragmatist": 2},
	},
	"q8": {
		"A": {"skeptic": 2, "pragmatist": 1},
		"B": {"generalist": 1, "seeker": 1},
		"C": {"enthusiast": 1, "strategist": 1},
		"D": {"observer": 2},
	},
	"q9": {
		"A": {"optimizer": 3},
		"B": {"strategist": 2, "enthusiast": 1},
		"C": {"generalist": 2, "analyst": 1},
		"D": {"pioneer": 2, "seeker": 2},
	},
	"q10": {
		"A": {"pragmatist": 2},
		"B": {"analyst": 2},
		"C": {"optimizer": 1, "pioneer": 1, "enthusiast": 1},
		"D": {"observer": 1, "seeker": 1},
	},
	"q11": {
		"A": {"analyst": 3},
		"B": {"pragmatist": 2, "optimizer": 1},
		"C": {"seeker": 1, "generalist": 1},
		"D": {"generalist": 1, "observer": 1},
	},
	"q12": {
		"A": {"optimizer": 2},
		"B": {"pioneer": 2, "enthusiast": 1},
		"C": {"analyst": 2},
		"D": {"strategist": 1, "enthusiast": 2},
	},
}

// Vector accumulates per-archetype affinity and picks the dominant archetype.
type Vector struct {
	table           WeightTable
	questions       []string
	maxAttainable   map[string]int
	defaultCode     string
	degenerateScore int
	unscored        map[string]bool
}

// NewVector builds a vector scheme. degenerateScore is the readiness reported
// when no answer contributes to any accumulator.
func NewVector(table WeightTable, degenerateScore int) (*Vector, error) {
	if len(table) == 0 {
		return nil, &SchemeError{Scheme: SchemeVector, Message: "empty weight table"}
	}
	if degenerateScore < 0 || degenerateScore > 100 {
		return nil, &SchemeError{Scheme: SchemeVector, Message: "degenerate score out of range"}
	}

	v := &Vector{
		table:           table,
		maxAttainable:   make(map[string]int, len(archetype.Canonical)),
		defaultCode:     archetype.Canonical[0].Code,
		degenerateScore: degenerateScore,
	}

	for q, codes := range table {
		best := make(map[string]int)
		for code, weights := range codes {
			for arch, w := range weights {
				if _, ok := archetype.ByCode(arch); !ok {
					return nil, &SchemeError{Scheme: SchemeVector, Message: "unknown archetype " + arch + " in " + q + "/" + code}
				}
				if w < 0 {
					return nil, &SchemeError{Scheme: SchemeVector, Message: "negative weight for " + q + "/" + code}
				}
				if w > best[arch] {
					best[arch] = w
				}
			}
		}
		for arch, w := range best {
			v.maxAttainable[arch] += w
		}
	}
	v.questions = sortedKeys(table)
	return v, nil
}

func (v *Vector) known(id string) bool {
	_, ok := v.table[id]
	return ok
}

// Name implements Scheme.
func (v *Vector) Name() string { return SchemeVector }

// MaxAttainable returns the highest accumulator value reachable for an archetype.
func (v *Vector) MaxAttainable(code string) int { return v.maxAttainable[code] }

// Score implements Scheme. Ties go to the archetype listed first in the
// canonical precedence order. An all-zero vector is degenerate and reports
// the default archetype with the configured degenerate score.
func (v *Vector) Score(answers types.AnswerSet) types.ScoreVector {
	acc := make(map[string]int, len(archetype.Canonical))
	for _, a := range archetype.Canonical {
		acc[a.Code] = 0
	}
	out := types.ScoreVector{Scheme: SchemeVector}

	for _, q := range v.questions {
		code := answers.Code(q)
		if code == "" {
			continue
		}
		weights, ok := v.table[q][code]
		if !ok {
			out.Ignored = append(out.Ignored, types.IgnoredAnswer{QuestionID: q, Code: code, Reason: ReasonUnknownCode})
			continue
		}
		for arch, w := range weights {
			acc[arch] += w
		}
	}
	for _, id := range unknownAnswers(answers, v.known, v.unscored) {
		out.Ignored = append(out.Ignored, types.IgnoredAnswer{QuestionID: id, Code: answers.Code(id), Reason: ReasonUnknownQuestion})
	}
	out.Accumulators = acc

	winner := ""
	for _, a := range archetype.Canonical {
		if winner == "" || acc[a.Code] > acc[winner] {
			winner = a.Code
		}
	}

	if acc[winner] == 0 {
		out.Degenerate = true
		out.Dominant = v.defaultCode
		out.Readiness = v.degenerateScore
		out.MaxScore = v.maxAttainable[v.defaultCode]
		return out
	}

	out.Dominant = winner
	out.RawScore = acc[winner]
	out.MaxScore = v.maxAttainable[winner]
	out.Readiness = percent(out.RawScore, out.MaxScore)
	return out
}
