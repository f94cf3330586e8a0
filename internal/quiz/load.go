package quiz

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/readiness-quiz/internal/schemas"
)

// LoadError represents errors loading a question bank revision.
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	prefix := "question bank"
	if e.Path != "" {
		prefix = fmt.Sprintf("question bank %s", e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// LoadBank reads a question bank revision from a YAML or JSON file and
// validates it against the question bank schema.
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read file", Cause: err}
	}
	return parseBank(data, path)
}

func parseBank(data []byte, path string) (*Bank, error) {
	// YAML is a superset of JSON, so one decoder serves both formats.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Path: path, Message: "failed to parse", Cause: err}
	}

	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to normalize document", Cause: err}
	}

	if err := schemas.Validate(schemas.QuestionBank, asJSON); err != nil {
		return nil, &LoadError{Path: path, Message: "schema validation failed", Cause: err}
	}

	var bank Bank
	if err := json.Unmarshal(asJSON, &bank); err != nil {
		return nil, &LoadError{Path: path, Message: "failed to decode", Cause: err}
	}
	if err := bank.buildIndex(); err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
		}
		return nil, err
	}
	return &bank, nil
}
