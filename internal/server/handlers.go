package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/readiness-quiz/internal/funnel"
	"github.com/jonathan/readiness-quiz/internal/gift"
	"github.com/jonathan/readiness-quiz/internal/leads"
	"github.com/jonathan/readiness-quiz/internal/narrative"
	"github.com/jonathan/readiness-quiz/internal/reconcile"
	"github.com/jonathan/readiness-quiz/internal/schemas"
	"github.com/jonathan/readiness-quiz/internal/server/middleware"
	"github.com/jonathan/readiness-quiz/internal/types"
)

const errMissingContact = "Missing required fields: email and name"

// handleQuestions returns the question bank.
func (s *Server) handleQuestions(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.funnel.Bank())
}

// handleNarrative generates a narrative for an already classified profile.
func (s *Server) handleNarrative(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.errorDetailsResponse(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	var req narrative.APIRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Missing or invalid answers")
		return
	}
	in := req.Input()
	if err := narrative.ValidateInput(in); err != nil {
		s.narrativeError(w, err)
		return
	}
	if err := schemas.Validate(schemas.NarrativeRequest, body); err != nil {
		var ve *schemas.ValidationError
		if errors.As(err, &ve) {
			s.errorDetailsResponse(w, http.StatusBadRequest, "Invalid request", strings.Join(ve.Fields(), ", "))
			return
		}
		s.logger.Error("narrative schema unavailable", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	mode := in.Mode
	if mode == "" {
		mode = s.requestor.Mode()
	}
	start := time.Now()
	out, err := s.requestor.Generate(r.Context(), in)
	elapsed := time.Since(start)
	if err != nil {
		var ne *narrative.Error
		if errors.As(err, &ne) {
			s.metrics.ObserveNarrative(string(mode), string(ne.Kind), elapsed)
		}
		s.narrativeError(w, err)
		return
	}
	s.metrics.ObserveNarrative(string(mode), "success", elapsed)

	s.jsonResponse(w, http.StatusOK, narrative.APIResponse{Message: out.Text, Usage: out.Usage})
}

// narrativeError writes the error body of the narrative endpoint.
func (s *Server) narrativeError(w http.ResponseWriter, err error) {
	status := narrative.HTTPStatus(err)
	var ne *narrative.Error
	if !errors.As(err, &ne) {
		s.logger.Error("narrative request failed", zap.Error(err))
		s.jsonResponse(w, status, narrative.APIError{Error: "Internal server error"})
		return
	}

	var body narrative.APIError
	switch ne.Kind {
	case narrative.KindInvalidInput:
		body.Error = ne.Detail
	case narrative.KindTimeout:
		body = narrative.APIError{Error: "AI service timeout", Details: "Request took too long"}
	case narrative.KindUpstreamError:
		body = narrative.APIError{Error: "AI service error", Details: ne.Detail}
	case narrative.KindEmptyResponse:
		body.Error = "No response from AI"
	case narrative.KindCanceled:
		body.Error = "Request canceled"
	default:
		body = narrative.APIError{Error: "AI service unavailable", Details: errString(ne.Cause)}
	}
	s.jsonResponse(w, status, body)
}

// leadRequest is the body of POST /lead.
type leadRequest struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone,omitempty"`
	Consent        bool            `json:"consent"`
	ProfileType    string          `json:"profileType"`
	ReadinessScore int             `json:"readinessScore"`
	Answers        types.AnswerSet `json:"answers"`
	Timestamp      time.Time       `json:"timestamp"`
}

// handleLead forwards a contact form submission to the lead sink.
func (s *Server) handleLead(w http.ResponseWriter, r *http.Request) {
	var req leadRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorDetailsResponse(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Name) == "" {
		s.errorResponse(w, http.StatusBadRequest, errMissingContact)
		return
	}

	lead := types.Lead{
		Contact:        types.Contact{Name: req.Name, Email: req.Email, Phone: req.Phone, Consent: req.Consent},
		Answers:        req.Answers,
		ProfileType:    req.ProfileType,
		ReadinessScore: req.ReadinessScore,
		Timestamp:      req.Timestamp,
	}
	if lead.Timestamp.IsZero() {
		lead.Timestamp = time.Now()
	}

	receipt, err := s.funnel.ForwardLead(r.Context(), lead)
	if err != nil {
		var (
			fe *leads.ForwardError
			ve *leads.ValidationError
		)
		switch {
		case errors.Is(err, leads.ErrNotConfigured):
			s.errorResponse(w, http.StatusInternalServerError, "Google Sheets integration not configured")
		case errors.As(err, &fe):
			s.errorDetailsResponse(w, fe.StatusCode, "Failed to save to Google Sheets", fe.Body)
		case errors.As(err, &ve):
			s.errorDetailsResponse(w, http.StatusBadRequest, "Invalid contact details", ve.Error())
		default:
			s.errorDetailsResponse(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Data saved to Google Sheets successfully",
		"result":  receipt.Result,
	})
}

// handleGift mails the gift bundle matching the readiness score.
func (s *Server) handleGift(w http.ResponseWriter, r *http.Request) {
	var req types.GiftRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errorDetailsResponse(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Name) == "" {
		s.errorResponse(w, http.StatusBadRequest, errMissingContact)
		return
	}
	if err := req.Validate(); err != nil {
		s.errorDetailsResponse(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	id, bundle, err := s.funnel.SendGift(r.Context(), req)
	if err != nil {
		var se *gift.SendError
		switch {
		case errors.Is(err, gift.ErrNotConfigured):
			s.errorResponse(w, http.StatusInternalServerError, "Email service not configured")
		case errors.As(err, &se):
			s.errorDetailsResponse(w, se.StatusCode, "Failed to send email", se.Body)
		default:
			s.errorDetailsResponse(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Gift sent successfully",
		"emailId": id,
		"gift":    bundle.Key,
	})
}

// createSessionRequest is the body of POST /sessions.
type createSessionRequest struct {
	Answers types.AnswerSet `json:"answers"`
	Contact *types.Contact  `json:"contact,omitempty"`
}

// sessionResponse is returned by every session endpoint.
type sessionResponse struct {
	SessionID string               `json:"sessionId"`
	Token     string               `json:"token,omitempty"`
	Submit    *funnel.SubmitResult `json:"submission,omitempty"`
	Outcome   reconcile.Outcome    `json:"outcome"`
}

// handleCreateSession scores a completed quiz and, unless ?async=true is
// given, waits for the narrative before answering.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.funnel.Submit(r.Context(), funnel.SubmitInput{Answers: req.Answers, Contact: req.Contact})
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.tokens.GenerateToken(res.SessionID)
	if err != nil {
		s.logger.Error("failed to issue session token", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := sessionResponse{SessionID: res.SessionID, Token: token, Submit: res, Outcome: res.Outcome}

	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	if !async {
		out, err := s.funnel.Generate(r.Context(), res.SessionID)
		switch {
		case err == nil:
			resp.Outcome = out
		case errors.Is(err, context.Canceled):
			// The pending record is replayed on the next read.
			s.logger.Info("narrative canceled by client", zap.String("session", res.SessionID))
		default:
			s.writeError(w, err)
			return
		}
	}

	s.jsonResponse(w, http.StatusCreated, resp)
}

// handleGetSession returns the reconciled result of a session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.authorizedSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out, err := s.funnel.Result(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if out.State == types.StateNoResult {
		s.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, sessionResponse{SessionID: id, Outcome: out})
}

// handleRetrySession retries the narrative of a failed session.
func (s *Server) handleRetrySession(w http.ResponseWriter, r *http.Request) {
	id, err := s.authorizedSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out, err := s.funnel.Retry(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sessionResponse{SessionID: id, Outcome: out})
}

// authorizedSession returns the path session ID when the token grants it.
func (s *Server) authorizedSession(r *http.Request) (string, error) {
	id := r.PathValue("id")
	granted, err := middleware.GetSessionID(r)
	if err != nil || granted != id {
		return "", &ErrSessionMismatch{SessionID: id}
	}
	return id, nil
}

// writeError writes err with the status HTTPStatus maps it to.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.jsonResponse(w, status, map[string]string{"error": errorCode(err), "message": err.Error()})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
