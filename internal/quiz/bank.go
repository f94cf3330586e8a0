// Package quiz holds the question bank: the ordered questions of a quiz
// revision with their closed option sets.
package quiz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/jonathan/readiness-quiz/internal/types"
)

// Question types.
const (
	TypeChoice = "choice"
	TypeText   = "text"
)

//go:embed default_bank.yaml
var defaultBankYAML []byte

// Option is a single selectable answer. Points and Weights are optional
// scoring data; a bank either carries them on every scored option or on none.
type Option struct {
	Code    string         `json:"code" yaml:"code"`
	Text    string         `json:"text" yaml:"text"`
	Points  *int           `json:"points,omitempty" yaml:"points,omitempty"`
	Weights map[string]int `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// Question is one prompt of the quiz.
type Question struct {
	ID       string   `json:"id" yaml:"id"`
	Block    string   `json:"block,omitempty" yaml:"block,omitempty"`
	Text     string   `json:"text" yaml:"text"`
	Type     string   `json:"type" yaml:"type"`
	Options  []Option `json:"options,omitempty" yaml:"options,omitempty"`
	Optional bool     `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Scored reports whether the question contributes to scoring.
func (q Question) Scored() bool {
	return q.Type == TypeChoice
}

// Option returns the option with the given code.
func (q Question) Option(code string) (Option, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, o := range q.Options {
		if o.Code == code {
			return o, true
		}
	}
	return Option{}, false
}

// Bank is an immutable, ordered question bank revision.
type Bank struct {
	Revision  string     `json:"revision" yaml:"revision"`
	Questions []Question `json:"questions" yaml:"questions"`

	index map[string]int
}

// Default returns the built-in question bank.
func Default() *Bank {
	b, err := parseBank(defaultBankYAML, "default_bank.yaml")
	if err != nil {
		panic(fmt.Sprintf("invalid built-in question bank: %v", err))
	}
	return b
}

func (b *Bank) buildIndex() error {
	b.index = make(map[string]int, len(b.Questions))
	for i, q := range b.Questions {
		if _, dup := b.index[q.ID]; dup {
			return &LoadError{Message: fmt.Sprintf("duplicate question id %q", q.ID)}
		}
		b.index[q.ID] = i
	}
	return nil
}

// Question looks up a question by ID.
func (b *Bank) Question(id string) (Question, bool) {
	i, ok := b.index[id]
	if !ok {
		return Question{}, false
	}
	return b.Questions[i], true
}

// Scored returns the scored questions in bank order.
func (b *Bank) Scored() []Question {
	out := make([]Question, 0, len(b.Questions))
	for _, q := range b.Questions {
		if q.Scored() {
			out = append(out, q)
		}
	}
	return out
}

// Unscored returns the ids of questions that never contribute to scoring.
func (b *Bank) Unscored() []string {
	var out []string
	for _, q := range b.Questions {
		if !q.Scored() {
			out = append(out, q.ID)
		}
	}
	return out
}

// Verbose renders the answers as human-readable question/answer pairs in bank
// order. Unknown questions and blank answers are skipped; codes outside the
// option set are passed through as-is.
func (b *Bank) Verbose(answers types.AnswerSet) []types.QA {
	out := make([]types.QA, 0, len(answers))
	for _, q := range b.Questions {
		raw := strings.TrimSpace(answers[q.ID])
		if raw == "" {
			continue
		}
		text := raw
		if q.Scored() {
			if opt, ok := q.Option(raw); ok {
				text = opt.Text
			}
		}
		out = append(out, types.QA{
			QuestionID:   q.ID,
			QuestionText: q.Text,
			AnswerText:   text,
		})
	}
	return out
}
