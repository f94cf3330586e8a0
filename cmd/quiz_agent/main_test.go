package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/readiness-quiz/internal/quiz"
	"github.com/jonathan/readiness-quiz/internal/reconcile"
	"github.com/jonathan/readiness-quiz/internal/types"
)

// TestMain runs before all tests and loads .env if available
func TestMain(m *testing.M) {
	_ = godotenv.Load()
	os.Exit(m.Run())
}

const hotAnswersJSON = `{"q1":"C","q2":"C","q3":"C","q4":"A","q5":"B","q6":"C","q7":"D","q8":"C","q9":"B","q10":"C","q11":"B","q12":"A"}`

// isolateEnv clears the variables that would redirect the commands.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "QUESTION_BANK", "SCORING_SCHEME", "STORE_BACKEND", "NARRATIVE_URL",
		"NARRATIVE_MODE", "LLM_PROVIDER", "GOOGLE_SCRIPT_URL", "RESEND_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestQuestionsCommand(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "", "questions")
	require.NoError(t, err)
	assert.Contains(t, out, "Question bank")
	assert.Contains(t, out, "\nq1. ")
	assert.Contains(t, out, "   A) ")
}

func TestQuestionsCommand_JSON(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "", "questions", "--json")
	require.NoError(t, err)

	var bank quiz.Bank
	require.NoError(t, json.Unmarshal([]byte(out), &bank))
	assert.Len(t, bank.Questions, len(quiz.Default().Questions))
}

func TestScoreCommand(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "answers.json", hotAnswersJSON)

	out, err := execute(t, "", "score", "--answers", path)
	require.NoError(t, err)
	assert.Contains(t, out, "READINESS PROFILE")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "hot")
	assert.Contains(t, out, "RECOMMENDATIONS")
}

func TestScoreCommand_JSONFromStdin(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, `{"answers":`+hotAnswersJSON+`}`, "score", "--answers", "-", "--json")
	require.NoError(t, err)

	var got struct {
		Profile         types.Profile `json:"profile"`
		Recommendations []string      `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 100, got.Profile.Readiness)
	assert.Equal(t, types.TierHot, got.Profile.Tier)
	assert.NotEmpty(t, got.Recommendations)
}

func TestScoreCommand_Errors(t *testing.T) {
	isolateEnv(t)

	tests := []struct {
		name    string
		args    []string
		stdin   string
		wantErr string
	}{
		{name: "missing flag", args: []string{"score"}, wantErr: "required flag"},
		{name: "missing file", args: []string{"score", "--answers", filepath.Join(t.TempDir(), "nope.json")}, wantErr: "failed to read answers"},
		{name: "not json", args: []string{"score", "--answers", "-"}, stdin: "nope", wantErr: "failed to parse answers JSON"},
		{name: "empty", args: []string{"score", "--answers", "-"}, stdin: "{}", wantErr: "no answers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScoreCommand_BankWithoutScoringTable(t *testing.T) {
	isolateEnv(t)
	bank := writeFile(t, "bank.yaml", `
revision: retail-2025
questions:
  - id: r1
    text: Как часто вы используете AI?
    type: choice
    options:
      - {code: A, text: Никогда}
      - {code: B, text: Каждый день}
`)
	t.Setenv("QUESTION_BANK", bank)

	_, err := execute(t, `{"r1":"B"}`, "score", "--answers", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match question bank retail-2025")
}

func TestScoreCommand_Narrate(t *testing.T) {
	isolateEnv(t)

	narrator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/narrative", r.URL.Path)
		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req["profileType"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"message":"АРХЕТИП: Стратег\n\nВаш план на квартал."}`)
	}))
	defer narrator.Close()
	t.Setenv("NARRATIVE_URL", narrator.URL)

	path := writeFile(t, "answers.json", hotAnswersJSON)
	out, err := execute(t, "", "score", "--answers", path, "--narrate", "--json")
	require.NoError(t, err)

	var outcome reconcile.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, types.StateReconciled, outcome.State)
	assert.Equal(t, "Визионер", outcome.Result.Archetype)
	assert.Equal(t, "Ваш план на квартал.", outcome.Result.Narrative)
}

func TestServeCommand_RequiresTokenSecret(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SESSION_TOKEN_SECRET", "")

	_, err := execute(t, "", "serve", "--port", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TOKEN_SECRET")
}

func TestInvalidConfig(t *testing.T) {
	isolateEnv(t)
	t.Setenv("STORE_BACKEND", "floppy")

	_, err := execute(t, "", "questions")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
}
