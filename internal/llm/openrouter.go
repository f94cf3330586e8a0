package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// OpenRouterClient implements Client against an OpenAI-compatible chat
// completions endpoint (OpenRouter by default).
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	config     *Config
	httpClient *http.Client
}

// NewOpenRouterClient creates a new OpenRouter client
func NewOpenRouterClient(config *Config, apiKey string) (*OpenRouterClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultOpenRouterConfig()
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenRouterBaseURL
	}

	return &OpenRouterClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// GenerateContent generates text content using the request's model tier
func (c *OpenRouterClient) GenerateContent(ctx context.Context, req Request) (*Response, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return nil, fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	body, err := json.Marshal(chatRequest{
		Model:       modelName,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.config.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.config.Referer)
	}
	if c.config.Title != "" {
		httpReq.Header.Set("X-Title", c.config.Title)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := string(respBody)
		if len(detail) > maxErrorBody {
			detail = detail[:maxErrorBody]
		}
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: detail}
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w: %w", ErrMalformedResponse, err)
	}
	// OpenRouter reports some upstream failures inside a 200 body.
	if out.Error != nil {
		return nil, &ProviderError{StatusCode: http.StatusBadGateway, Body: out.Error.Message}
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	model := out.Model
	if model == "" {
		model = modelName
	}
	return &Response{
		Text:         out.Choices[0].Message.Content,
		Model:        model,
		FinishReason: out.Choices[0].FinishReason,
		Usage:        out.Usage,
	}, nil
}

// GetModel returns the model name for a tier
func (c *OpenRouterClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *OpenRouterClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
