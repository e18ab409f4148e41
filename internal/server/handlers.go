package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lyuef/TrafficSenseAgent/pkg/session"
	"github.com/lyuef/TrafficSenseAgent/pkg/stream"
)

// ChatRequest is the body of both chat endpoints
type ChatRequest struct {
	Message string `json:"message"`
}

// HealthResponse is the health check body
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ResetResponse confirms a session reset
type ResetResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the body of all error replies
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET is supported")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"service": "TrafficSense Agent",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"chat":        "POST /api/chat",
			"chat_stream": "POST /api/chat/stream",
			"reset":       "POST /api/reset",
			"health":      "GET /api/health",
			"metrics":     "GET /metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET is supported")
		return
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleChat runs a full turn and replies with the aggregated result
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	handle, err := s.executor.Submit(req.Message)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}

	result := stream.Aggregate(handle.Events())
	<-handle.Done()

	status := http.StatusOK
	if result.Status == stream.StatusError {
		status = http.StatusInternalServerError
	}
	s.writeJSON(w, status, result)
}

// handleChatStream runs a turn and streams each step event as an NDJSON
// line. If the client disconnects the turn is detached and completes in
// the background so the conversation history still advances.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	handle, err := s.executor.Submit(req.Message)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}
	defer handle.Detach()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	enc := stream.NewEncoder(w)
	for {
		select {
		case ev, more := <-handle.Events():
			if !more {
				return
			}
			if err := enc.Encode(ev); err != nil {
				s.logger.Warn().Err(err).Msg("Client write failed, detaching turn")
				return
			}
		case <-r.Context().Done():
			s.logger.Info().Msg("Client disconnected, turn continues in background")
			return
		}
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only POST is supported")
		return
	}

	if err := s.executor.Reset(); err != nil {
		if errors.Is(err, session.ErrBusy) {
			s.writeError(w, http.StatusConflict, "busy", "A turn is in progress, try again later")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, ResetResponse{
		Status:    "success",
		Message:   "Conversation history cleared",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (ChatRequest, bool) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Only POST is supported")
		return ChatRequest{}, false
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return ChatRequest{}, false
	}
	return req, true
}

func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, "invalid_input", "Message cannot be empty")
	case errors.Is(err, session.ErrBusy):
		s.writeError(w, http.StatusConflict, "busy", "Another turn is in progress")
	default:
		s.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code string, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:     code,
		Message:   message,
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
