package leads

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/readiness-quiz/internal/types"
)

func testLead() types.Lead {
	return types.Lead{
		Contact:        types.Contact{Name: "Анна", Email: "anna@example.com", Consent: true},
		Answers:        types.AnswerSet{"q1": "A", "q2": "B"},
		ProfileType:    "Практик",
		ReadinessScore: 64,
		Timestamp:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSheetsSink_Forward(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var got map[string]any
		assert.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "anna@example.com", got["email"])
		assert.Equal(t, "A", got["q1"])
		assert.Equal(t, float64(64), got["readinessScore"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","row":12}`))
	}))
	defer server.Close()

	sink := NewSheetsSink(server.URL, time.Second)
	receipt, err := sink.Forward(context.Background(), testLead())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","row":12}`, string(receipt.Result))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSheetsSink_RejectsIncompleteContact(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	lead := testLead()
	lead.Email = ""

	_, err := NewSheetsSink(server.URL, time.Second).Forward(context.Background(), lead)
	require.Error(t, err)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, int32(0), calls.Load())
}

func TestSheetsSink_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("script disabled"))
	}))
	defer server.Close()

	_, err := NewSheetsSink(server.URL, time.Second).Forward(context.Background(), testLead())
	require.Error(t, err)
	var fe *ForwardError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusForbidden, fe.StatusCode)
	assert.Equal(t, "script disabled", fe.Body)
}

func TestSheetsSink_NonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))
	defer server.Close()

	receipt, err := NewSheetsSink(server.URL, time.Second).Forward(context.Background(), testLead())
	require.NoError(t, err)
	assert.Nil(t, receipt.Result)
}

func TestNew(t *testing.T) {
	assert.IsType(t, NopSink{}, New("", 0))
	assert.IsType(t, &SheetsSink{}, New("https://script.example.com/exec", 0))

	_, err := NopSink{}.Forward(context.Background(), testLead())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
