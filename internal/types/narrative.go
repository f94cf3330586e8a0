package types

import "time"

// NarrativeResult is a successfully received and parsed provider narrative.
type NarrativeResult struct {
	Archetype  string `json:"archetype"`
	Body       string `json:"body"`
	Raw        string `json:"raw,omitempty"`
	Parsed     bool   `json:"parsed"`
	Resolution string `json:"resolution,omitempty"`
}

// PendingRequest is the durable payload kept so a narrative request can be
// replayed without redoing the quiz.
type PendingRequest struct {
	Answers   AnswerSet `json:"testData"`
	Verbose   []QA      `json:"answersVerbose,omitempty"`
	Profile   Profile   `json:"profile"`
	CreatedAt time.Time `json:"createdAt"`
}

// ResultState is the state of a session's result.
type ResultState string

// Result states.
const (
	StateNoResult   ResultState = "no_result"
	StateLocalOnly  ResultState = "local_only"
	StateReconciled ResultState = "reconciled"
	StateFailed     ResultState = "failed"
)

// Failure describes the last failed narrative attempt.
type Failure struct {
	Kind      string    `json:"kind"`
	Status    int       `json:"status,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Retryable bool      `json:"retryable"`
	At        time.Time `json:"at"`
}

// StoredResult is the persisted snapshot of a session's result.
type StoredResult struct {
	State     ResultState `json:"state"`
	Profile   Profile     `json:"profile"`
	Readiness int         `json:"readinessScore"`
	Archetype string      `json:"archetype,omitempty"`
	Narrative string      `json:"personalizedMessage,omitempty"`
	Failure   *Failure    `json:"failure,omitempty"`
	Attempts  int         `json:"attempts"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// HasNarrative reports whether the snapshot already carries a narrative.
func (r *StoredResult) HasNarrative() bool {
	return r != nil && r.State == StateReconciled && r.Narrative != ""
}
