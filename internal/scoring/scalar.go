package scoring

import (
	"github.com/jonathan/readiness-quiz/internal/types"
)

// PointTable maps question id to answer code to points.
type PointTable map[string]map[string]int

// DefaultPointTable is the canonical point table for bank revision
// 2024-ai-readiness-v2. Profile questions are worth up to 8 points and the
// four obstacle questions (q5-q8) up to 3, for a maximum of 76.
var DefaultPointTable = PointTable{
	"q1":  {"A": 4, "B": 6, "C": 8, "D": 5},
	"q2":  {"A": 7, "B": 7, "C": 8, "D": 7},
	"q3":  {"A": 5, "B": 7, "C": 8, "D": 2},
	"q4":  {"A": 8, "B": 6, "C": 3, "D": 1},
	"q5":  {"A": 2, "B": 3, "C": 1, "D": 0},
	"q6":  {"A": 1, "B": 2, "C": 3, "D": 2},
	"q7":  {"A": 2, "B": 2, "C": 1, "D": 3},
	"q8":  {"A": 1, "B": 1, "C": 3, "D": 2},
	"q9":  {"A": 7, "B": 8, "C": 7, "D": 8},
	"q10": {"A": 6, "B": 7, "C": 8, "D": 5},
	"q11": {"A": 7, "B": 8, "C": 6, "D": 5},
	"q12": {"A": 8, "B": 7, "C": 7, "D": 7},
}

// Scalar sums per-answer points and normalizes by the maximum attainable sum.
type Scalar struct {
	table     PointTable
	questions []string
	max       int
	unscored  map[string]bool
}

// NewScalar builds a scalar scheme from a point table.
func NewScalar(table PointTable) (*Scalar, error) {
	if len(table) == 0 {
		return nil, &SchemeError{Scheme: SchemeScalar, Message: "empty point table"}
	}

	s := &Scalar{table: make(PointTable, len(table))}
	for q, codes := range table {
		if len(codes) == 0 {
			return nil, &SchemeError{Scheme: SchemeScalar, Message: "question " + q + " has no codes"}
		}
		row := make(map[string]int, len(codes))
		best := 0
		for code, pts := range codes {
			if pts < 0 {
				return nil, &SchemeError{Scheme: SchemeScalar, Message: "negative points for " + q + "/" + code}
			}
			row[code] = pts
			if pts > best {
				best = pts
			}
		}
		s.table[q] = row
		s.max += best
	}
	if s.max == 0 {
		return nil, &SchemeError{Scheme: SchemeScalar, Message: "maximum score is zero"}
	}
	s.questions = sortedKeys(s.table)
	return s, nil
}

func (s *Scalar) known(id string) bool {
	_, ok := s.table[id]
	return ok
}

// Name implements Scheme.
func (s *Scalar) Name() string { return SchemeScalar }

// MaxScore returns the maximum attainable raw score.
func (s *Scalar) MaxScore() int { return s.max }

// Points returns the points for a single answer, and whether the code is known.
func (s *Scalar) Points(questionID, code string) (int, bool) {
	pts, ok := s.table[questionID][code]
	return pts, ok
}

// Score implements Scheme. Absent answers, unknown codes and unknown questions
// contribute zero; the latter two are reported in Ignored.
func (s *Scalar) Score(answers types.AnswerSet) types.ScoreVector {
	v := types.ScoreVector{Scheme: SchemeScalar, MaxScore: s.max}

	for _, q := range s.questions {
		code := answers.Code(q)
		if code == "" {
			continue
		}
		pts, ok := s.table[q][code]
		if !ok {
			v.Ignored = append(v.Ignored, types.IgnoredAnswer{QuestionID: q, Code: code, Reason: ReasonUnknownCode})
			continue
		}
		v.RawScore += pts
	}
	for _, id := range unknownAnswers(answers, s.known, s.unscored) {
		v.Ignored = append(v.Ignored, types.IgnoredAnswer{QuestionID: id, Code: answers.Code(id), Reason: ReasonUnknownQuestion})
	}

	v.Readiness = percent(v.RawScore, s.max)
	return v
}
