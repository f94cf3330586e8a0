package types

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
)

// Contact holds the contact details collected after the quiz.
type Contact struct {
	Name    string `json:"name" validate:"required,min=1"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty"`
	Consent bool   `json:"consent"`
}

// Lead is a completed quiz submission forwarded to the lead sink.
type Lead struct {
	Contact
	Answers        AnswerSet `json:"-"`
	ProfileType    string    `json:"profileType"`
	ReadinessScore int       `json:"readinessScore"`
	Timestamp      time.Time `json:"timestamp"`
}

// MarshalJSON flattens the answers next to the contact fields, as the
// spreadsheet script expects one column per question.
func (l Lead) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(l.Answers)+7)
	for k, v := range l.Answers {
		out[k] = v
	}
	out["name"] = l.Name
	out["email"] = l.Email
	if l.Phone != "" {
		out["phone"] = l.Phone
	}
	out["consent"] = l.Consent
	out["profileType"] = l.ProfileType
	out["readinessScore"] = l.ReadinessScore
	out["timestamp"] = l.Timestamp.UTC().Format(time.RFC3339)
	return json.Marshal(out)
}

// Validate validates the contact fields of the lead.
func (l *Lead) Validate() error {
	validate := validator.New()
	return validate.Struct(l.Contact)
}

// GiftRequest asks for the gift bundle matching a readiness score to be mailed.
type GiftRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Name           string `json:"name" validate:"required,min=1"`
	ProfileType    string `json:"profileType"`
	ReadinessScore int    `json:"readinessScore" validate:"min=0,max=100"`
}

// Validate validates the GiftRequest using the validator.
func (r *GiftRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
