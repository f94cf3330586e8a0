package quiz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/readiness-quiz/internal/types"
)

// Problem kinds reported by CheckAnswers.
const (
	ProblemMissing         = "missing"
	ProblemUnknownQuestion = "unknown_question"
	ProblemUnknownCode     = "unknown_code"
)

// AnswerProblem is a field-level finding about a submitted answer.
type AnswerProblem struct {
	QuestionID string `json:"questionId"`
	Kind       string `json:"kind"`
	Value      string `json:"value,omitempty"`
}

func (p AnswerProblem) String() string {
	if p.Value != "" {
		return fmt.Sprintf("%s: %s (%q)", p.QuestionID, p.Kind, p.Value)
	}
	return fmt.Sprintf("%s: %s", p.QuestionID, p.Kind)
}

// Report is the result of CheckAnswers.
type Report struct {
	Problems []AnswerProblem `json:"problems,omitempty"`
}

// Complete reports whether every required question has a usable answer.
func (r Report) Complete() bool {
	for _, p := range r.Problems {
		if p.Kind == ProblemMissing {
			return false
		}
	}
	return true
}

// Clean reports whether no problem at all was found.
func (r Report) Clean() bool {
	return len(r.Problems) == 0
}

// CheckAnswers performs presence and format checks. Nothing here is fatal to
// scoring: unknown ids and codes are reported so callers can log them.
func (b *Bank) CheckAnswers(answers types.AnswerSet) Report {
	var report Report

	for _, q := range b.Questions {
		raw := strings.TrimSpace(answers[q.ID])
		if raw == "" {
			if !q.Optional {
				report.Problems = append(report.Problems, AnswerProblem{QuestionID: q.ID, Kind: ProblemMissing})
			}
			continue
		}
		if q.Scored() {
			if _, ok := q.Option(raw); !ok {
				report.Problems = append(report.Problems, AnswerProblem{QuestionID: q.ID, Kind: ProblemUnknownCode, Value: raw})
			}
		}
	}

	unknown := make([]string, 0)
	for id := range answers {
		if _, ok := b.index[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		report.Problems = append(report.Problems, AnswerProblem{QuestionID: id, Kind: ProblemUnknownQuestion, Value: answers[id]})
	}

	return report
}
