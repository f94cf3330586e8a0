package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_NarrativeRequest(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		wantErr    bool
		wantFields []string
	}{
		{
			name: "valid",
			doc:  `{"answers":{"q1":"A"},"profileType":"expert","readinessScore":80}`,
		},
		{
			name:    "missing answers",
			doc:     `{"profileType":"expert"}`,
			wantErr: true,
		},
		{
			name:       "empty answers",
			doc:        `{"answers":{},"profileType":"expert"}`,
			wantErr:    true,
			wantFields: []string{"answers"},
		},
		{
			name:       "empty profile type",
			doc:        `{"answers":{"q1":"A"},"profileType":""}`,
			wantErr:    true,
			wantFields: []string{"profileType"},
		},
		{
			name:       "score out of range",
			doc:        `{"answers":{"q1":"A"},"profileType":"expert","readinessScore":101}`,
			wantErr:    true,
			wantFields: []string{"readinessScore"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(NarrativeRequest, []byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, ve.Fields())
			}
		})
	}
}

func TestValidate_QuestionBankRequiresOptionsForChoice(t *testing.T) {
	doc := `{"revision":"r1","questions":[{"id":"q1","text":"?","type":"choice"}]}`
	err := Validate(QuestionBank, []byte(doc))
	require.Error(t, err)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing.schema.json", []byte(`{}`))
	require.Error(t, err)
	var le *SchemaLoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, err.Error(), "missing.schema.json")
}

func TestValidateJSONString_MalformedDocument(t *testing.T) {
	err := ValidateJSONString(`{"type":"object"}`, `{ invalid json }`)
	require.Error(t, err)
	var le *SchemaLoadError
	assert.ErrorAs(t, err, &le)
}

func TestValidationError_Error(t *testing.T) {
	ve := &ValidationError{Errors: []FieldError{{Field: "answers", Message: "too few"}}}
	assert.Contains(t, ve.Error(), "1. answers: too few")
}
