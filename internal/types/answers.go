// Package types provides type definitions for structured data used throughout the readiness quiz.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// AnswerSet maps a question ID to the selected answer code ("A".."D") or free text.
type AnswerSet map[string]string

// QA is a human-readable question/answer pair used for richer prompting.
type QA struct {
	QuestionID   string `json:"questionId"`
	QuestionText string `json:"questionText"`
	AnswerText   string `json:"answerText"`
}

// Clone returns a copy of the answer set so callers cannot mutate a submitted set.
func (a AnswerSet) Clone() AnswerSet {
	if a == nil {
		return nil
	}
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Code returns the normalized answer code for a question, or "" when absent.
func (a AnswerSet) Code(questionID string) string {
	return strings.ToUpper(strings.TrimSpace(a[questionID]))
}

// Empty reports whether the set holds no non-blank answers.
func (a AnswerSet) Empty() bool {
	for _, v := range a {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
