package gift

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"
)

// Resend defaults.
const (
	DefaultResendURL = "https://api.resend.com"
	DefaultFrom      = "AI Academy <noreply@expertai.academy>"
	DefaultTimeout   = 15 * time.Second
)

const maxErrorBody = 4096

//go:embed email.html.tmpl
var emailTemplateText string

var emailTemplate = template.Must(template.New("gift").Parse(emailTemplateText))

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("email service not configured")

// SendError is returned when the mail API rejects a message.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("mail service returned status %d: %s", e.StatusCode, e.Body)
}

// Mailer delivers a gift bundle and returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, to, name string, bundle Bundle) (string, error)
}

// ResendMailer sends mail through the Resend HTTP API.
type ResendMailer struct {
	apiKey     string
	baseURL    string
	from       string
	httpClient *http.Client
}

// MailerOption configures a ResendMailer.
type MailerOption func(*ResendMailer)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) MailerOption {
	return func(m *ResendMailer) { m.baseURL = strings.TrimRight(u, "/") }
}

// WithFrom overrides the sender.
func WithFrom(from string) MailerOption {
	return func(m *ResendMailer) {
		if from != "" {
			m.from = from
		}
	}
}

// NewResendMailer creates a mailer using apiKey.
func NewResendMailer(apiKey string, opts ...MailerOption) *ResendMailer {
	m := &ResendMailer{
		apiKey:     apiKey,
		baseURL:    DefaultResendURL,
		from:       DefaultFrom,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Subject returns the mail subject for a bundle.
func Subject(b Bundle) string {
	return "🎁 Ваш персональный подарок: " + b.Title
}

// RenderHTML renders the gift email body.
func RenderHTML(name string, b Bundle) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Name   string
		Bundle Bundle
	}{Name: name, Bundle: b}
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

// Send mails the bundle to the recipient.
func (m *ResendMailer) Send(ctx context.Context, to, name string, bundle Bundle) (string, error) {
	if m.apiKey == "" {
		return "", ErrNotConfigured
	}

	html, err := RenderHTML(name, bundle)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(sendRequest{From: m.from, To: to, Subject: Subject(bundle), HTML: html})
	if err != nil {
		return "", fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read mail response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := string(respBody)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return "", &SendError{StatusCode: resp.StatusCode, Body: text}
	}

	var out sendResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("failed to parse mail response: %w", err)
	}
	return out.ID, nil
}
