// Package scoring turns an answer set into a score vector and classifies it
// into a profile. Schemes and threshold tables are immutable values passed in
// by the caller; nothing here keeps state between calls.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/jonathan/readiness-quiz/internal/quiz"
	"github.com/jonathan/readiness-quiz/internal/types"
)

// Scheme names.
const (
	SchemeScalar = "scalar"
	SchemeVector = "vector"
)

// Reasons recorded on ignored answers.
const (
	ReasonUnknownCode     = "unknown_code"
	ReasonUnknownQuestion = "unknown_question"
)

// Scheme is a scoring strategy.
type Scheme interface {
	Name() string
	Score(answers types.AnswerSet) types.ScoreVector
}

// Score scores answers with the given scheme.
func Score(answers types.AnswerSet, scheme Scheme) types.ScoreVector {
	return scheme.Score(answers)
}

// SchemeError reports an unusable scheme configuration.
type SchemeError struct {
	Scheme  string
	Message string
}

func (e *SchemeError) Error() string {
	return fmt.Sprintf("scoring scheme %q: %s", e.Scheme, e.Message)
}

// New returns the named scheme for the built-in question bank.
func New(name string) (Scheme, error) {
	return ForBank(name, quiz.Default())
}

// percent converts part/whole to an integer percentage, rounding half away
// from zero and clamping to [0,100].
func percent(part, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	p := int(math.Round(float64(part) / float64(whole) * 100))
	if p > 100 {
		return 100
	}
	return p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return questionLess(keys[i], keys[j]) })
	return keys
}

// questionLess orders ids like q2 before q10.
func questionLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
