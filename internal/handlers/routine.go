package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"routine-advisor/internal/contextutil"
	"routine-advisor/internal/llm"
	"routine-advisor/internal/service"
)

// maxBodyBytes caps the request body read by RoutineHandler.
const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("unexpected data after JSON value")

// Renderer converts generated markdown into HTML.
type Renderer interface {
	HTML(source string) (string, error)
}

// RoutineHandler handles HTTP requests for routine generation and follow-up chat.
type RoutineHandler struct {
	routineService service.RoutineService
	renderer       Renderer
	path           string
}

// NewRoutineHandler creates a new RoutineHandler.
// renderer may be nil, in which case format=html is ignored.
func NewRoutineHandler(routineService service.RoutineService, renderer Renderer, path string) *RoutineHandler {
	return &RoutineHandler{
		routineService: routineService,
		renderer:       renderer,
		path:           path,
	}
}

// RoutineRequest represents the HTTP request payload.
// Exactly one of Products or History is expected; Products wins if both are set.
type RoutineRequest struct {
	Products []service.ProductRef `json:"products,omitempty"`
	History  []service.ChatTurn   `json:"history,omitempty"`
}

// RoutineResponse is returned for product-list requests.
type RoutineResponse struct {
	Routine string `json:"routine"`
}

// ReplyResponse is returned for chat requests.
type ReplyResponse struct {
	Reply string `json:"reply"`
}

// HealthResponse is returned for GET requests.
type HealthResponse struct {
	Status string `json:"status"`
	Path   string `json:"path"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles HTTP requests for the routine endpoint.
func (h *RoutineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet:
		writeJSON(ctx, w, http.StatusOK, HealthResponse{Status: "ok", Path: h.path})
		return
	case http.MethodPost:
	default:
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var req RoutineRequest
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	svcResp, err := h.routineService.Process(ctx, service.RoutineRequest{
		Products: req.Products,
		History:  req.History,
	})
	if err != nil {
		h.handleServiceError(w, ctx, err)
		return
	}

	text := svcResp.Text
	if r.URL.Query().Get("format") == "html" && h.renderer != nil {
		html, err := h.renderer.HTML(text)
		if err != nil {
			logger.WarnContext(ctx, "failed to render html, returning markdown", "error", err)
		} else {
			text = html
		}
	}

	if svcResp.Mode == service.ModeRoutine {
		writeJSON(ctx, w, http.StatusOK, RoutineResponse{Routine: text})
		return
	}
	writeJSON(ctx, w, http.StatusOK, ReplyResponse{Reply: text})
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func (h *RoutineHandler) handleServiceError(w http.ResponseWriter, ctx context.Context, err error) {
	status, message := serviceErrorStatus(err)

	logger := contextutil.LoggerFromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "service error", "status", status, "request_id", contextutil.RequestIDFromContext(ctx), "error", err)
	} else {
		logger.WarnContext(ctx, "rejected request", "status", status, "error", err)
	}

	writeError(w, status, message)
}

func serviceErrorStatus(err error) (int, string) {
	if errors.Is(err, service.ErrNotConfigured) {
		return http.StatusInternalServerError, "Server error: OPENAI_API not set"
	}

	if errors.Is(err, service.ErrMissingMode) {
		return http.StatusBadRequest, "Bad Request: missing products or history"
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, fmt.Sprintf("Bad Request: %s %s", validationErr.Field, validationErr.Message)
	}

	if errors.Is(err, service.ErrExternalService) {
		var upstreamErr *llm.UpstreamError
		if errors.As(err, &upstreamErr) {
			return http.StatusBadGateway, "OpenAI API error: " + upstreamErr.Message
		}
		return http.StatusBadGateway, "OpenAI API error: upstream request failed"
	}

	// Default to internal server error
	return http.StatusInternalServerError, "Server error: failed to process request"
}

// decodeJSON decodes exactly one JSON value from r. Anything but whitespace after it is an error.
func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return err
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
