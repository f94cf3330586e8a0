package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/readiness-quiz/internal/llm"
	"github.com/jonathan/readiness-quiz/internal/prompts"
	"github.com/jonathan/readiness-quiz/internal/types"
)

// Mode selects the narrative length and its time budget.
type Mode string

// Narrative modes.
const (
	ModeShort Mode = "short"
	ModeLong  Mode = "long"
)

// Input is everything a generator needs to produce a narrative.
type Input struct {
	Answers types.AnswerSet
	Verbose []types.QA
	Profile types.Profile
	Mode    Mode
}

// Output is the raw generator output.
type Output struct {
	Text  string
	Model string
	Usage *llm.Usage
}

// Generator is the external narrative collaborator.
type Generator interface {
	Generate(ctx context.Context, in Input) (*Output, error)
}

// APIRequest is the body of POST /narrative.
type APIRequest struct {
	Answers        types.AnswerSet `json:"answers"`
	VerboseAnswers []types.QA      `json:"verboseAnswers,omitempty"`
	ProfileType    string          `json:"profileType"`
	ProfileName    string          `json:"profileName,omitempty"`
	ReadinessScore int             `json:"readinessScore"`
	Mode           Mode            `json:"mode,omitempty"`
}

// Input converts the wire request into generator input.
func (r APIRequest) Input() Input {
	name := r.ProfileName
	if name == "" {
		name = r.ProfileType
	}
	return Input{
		Answers: r.Answers,
		Verbose: r.VerboseAnswers,
		Profile: types.Profile{Code: r.ProfileType, DisplayName: name, Readiness: r.ReadinessScore},
		Mode:    r.Mode,
	}
}

// APIResponse is the success body of POST /narrative.
type APIResponse struct {
	Message string     `json:"message"`
	Usage   *llm.Usage `json:"usage,omitempty"`
}

// APIError is the error body of POST /narrative.
type APIError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// LLMGenerator produces narratives by prompting an LLM directly.
type LLMGenerator struct {
	client      llm.Client
	prompts     prompts.Set
	temperature float32
	maxTokens   int
}

// NewLLMGenerator creates a generator backed by an LLM client and the
// embedded narrative prompts.
func NewLLMGenerator(client llm.Client) (*LLMGenerator, error) {
	set, err := prompts.Load(prompts.NarrativeFile)
	if err != nil {
		return nil, err
	}
	return &LLMGenerator{
		client:      client,
		prompts:     set,
		temperature: llm.DefaultTemperature,
		maxTokens:   llm.DefaultMaxTokens,
	}, nil
}

// Generate implements Generator.
func (g *LLMGenerator) Generate(ctx context.Context, in Input) (*Output, error) {
	system, err := g.prompts.Render("system", nil)
	if err != nil {
		return nil, err
	}

	answers, err := json.MarshalIndent(in.Answers, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	verbose := "нет"
	if len(in.Verbose) > 0 {
		data, err := json.MarshalIndent(in.Verbose, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal verbose answers: %w", err)
		}
		verbose = string(data)
	}

	key, tier, maxTokens := "user", llm.TierStandard, g.maxTokens
	if in.Mode == ModeShort {
		key, tier, maxTokens = "user-short", llm.TierLite, g.maxTokens/3
	}
	user, err := g.prompts.Render(key, map[string]string{
		"Answers": string(answers),
		"Verbose": verbose,
		"Profile": in.Profile.DisplayName,
		"Score":   strconv.Itoa(in.Profile.Readiness),
	})
	if err != nil {
		return nil, err
	}

	resp, err := g.client.GenerateContent(ctx, llm.Request{
		System:      system,
		User:        user,
		Tier:        tier,
		Temperature: g.temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, err
	}
	return &Output{Text: resp.Text, Model: resp.Model, Usage: resp.Usage}, nil
}

// HTTPGenerator calls a remote narrative service over POST /narrative.
type HTTPGenerator struct {
	url    string
	client *http.Client
}

// NewHTTPGenerator creates a generator for the narrative service at baseURL.
func NewHTTPGenerator(baseURL string, timeout time.Duration) *HTTPGenerator {
	url := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(url, "/narrative") {
		url += "/narrative"
	}
	return &HTTPGenerator{url: url, client: &http.Client{Timeout: timeout}}
}

// Generate implements Generator.
func (g *HTTPGenerator) Generate(ctx context.Context, in Input) (*Output, error) {
	body, err := json.Marshal(APIRequest{
		Answers:        in.Answers,
		VerboseAnswers: in.Verbose,
		ProfileType:    in.Profile.Code,
		ProfileName:    in.Profile.DisplayName,
		ReadinessScore: in.Profile.Readiness,
		Mode:           in.Mode,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		detail := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			detail = apiErr.Error
			if apiErr.Details != "" {
				detail += ": " + apiErr.Details
			}
		}
		return nil, &llm.ProviderError{StatusCode: resp.StatusCode, Body: detail}
	}

	var out APIResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w: %w", llm.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(out.Message) == "" {
		return nil, llm.ErrEmptyResponse
	}
	return &Output{Text: out.Message, Usage: out.Usage}, nil
}
