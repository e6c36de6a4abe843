package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"routine-advisor/internal/contextutil"
	"routine-advisor/internal/llm"
	"routine-advisor/internal/render"
	"routine-advisor/internal/service"
	"routine-advisor/internal/service/mocks"

	"go.uber.org/mock/gomock"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type failingRenderer struct{}

func (failingRenderer) HTML(string) (string, error) {
	return "", errors.New("render failed")
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp.Error
}

func TestRoutineHandler_ServeHTTP(t *testing.T) {
	products := []service.ProductRef{{Name: "Revitalift Serum", Brand: "L'Oréal Paris", Category: "skincare", Description: "Serum"}}
	history := []service.ChatTurn{{Role: "user", Content: "Is it safe with retinol?"}}

	tests := []struct {
		name      string
		method    string
		target    string
		body      string
		mockSetup func(*mocks.MockRoutineService)
		wantCode  int
		check     func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:      "OPTIONS preflight",
			method:    http.MethodOptions,
			mockSetup: func(m *mocks.MockRoutineService) {},
			wantCode:  http.StatusNoContent,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if w.Body.Len() != 0 {
					t.Errorf("preflight body = %q, want empty", w.Body.String())
				}
			},
		},
		{
			name:      "GET health",
			method:    http.MethodGet,
			mockSetup: func(m *mocks.MockRoutineService) {},
			wantCode:  http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp HealthResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.Status != "ok" || resp.Path != "/api/routine" {
					t.Errorf("health = %+v", resp)
				}
			},
		},
		{
			name:      "PUT not allowed",
			method:    http.MethodPut,
			body:      `{"products":[]}`,
			mockSetup: func(m *mocks.MockRoutineService) {},
			wantCode:  http.StatusMethodNotAllowed,
		},
		{
			name:      "invalid JSON",
			method:    http.MethodPost,
			body:      "{not json",
			mockSetup: func(m *mocks.MockRoutineService) {},
			wantCode:  http.StatusBadRequest,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if got := decodeError(t, w); got != "Invalid JSON" {
					t.Errorf("error = %q, want Invalid JSON", got)
				}
			},
		},
		{
			name:      "empty body",
			method:    http.MethodPost,
			body:      "",
			mockSetup: func(m *mocks.MockRoutineService) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "trailing text after JSON",
			method:    http.MethodPost,
			body:      `{"products":[]} not json`,
			mockSetup: func(m *mocks.MockRoutineService) {},
			wantCode:  http.StatusBadRequest,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if got := decodeError(t, w); got != "Invalid JSON" {
					t.Errorf("error = %q, want Invalid JSON", got)
				}
			},
		},
		{
			name:      "second JSON value",
			method:    http.MethodPost,
			body:      `{"products":[]}{"history":[]}`,
			mockSetup: func(m *mocks.MockRoutineService) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "truncated second value",
			method:    http.MethodPost,
			body:      `{"products":[]}{`,
			mockSetup: func(m *mocks.MockRoutineService) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:   "trailing whitespace accepted",
			method: http.MethodPost,
			body:   "{\"products\":[]}\n  \n",
			mockSetup: func(m *mocks.MockRoutineService) {
				m.EXPECT().
					Process(gomock.Any(), service.RoutineRequest{Products: []service.ProductRef{}}).
					Return(service.RoutineResponse{Mode: service.ModeRoutine, Text: "ok"}, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:      "body over limit",
			method:    http.MethodPost,
			body:      `{"products":[{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}]}`,
			mockSetup: func(m *mocks.MockRoutineService) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:   "products mode returns routine",
			method: http.MethodPost,
			body:   `{"products":[{"name":"Revitalift Serum","brand":"L'Oréal Paris","category":"skincare","description":"Serum"}]}`,
			mockSetup: func(m *mocks.MockRoutineService) {
				m.EXPECT().
					Process(gomock.Any(), service.RoutineRequest{Products: products}).
					Return(service.RoutineResponse{Mode: service.ModeRoutine, Text: "1. Cleanse"}, nil)
			},
			wantCode: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp["routine"] != "1. Cleanse" {
					t.Errorf("routine = %q", resp["routine"])
				}
				if _, ok := resp["reply"]; ok {
					t.Error("routine response must not carry reply")
				}
			},
		},
		{
			name:   "history mode returns reply",
			method: http.MethodPost,
			body:   `{"history":[{"role":"user","content":"Is it safe with retinol?"}]}`,
			mockSetup: func(m *mocks.MockRoutineService) {
				m.EXPECT().
					Process(gomock.Any(), service.RoutineRequest{History: history}).
					Return(service.RoutineResponse{Mode: service.ModeChat, Text: "Yes."}, nil)
			},
			wantCode: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp["reply"] != "Yes." {
					t.Errorf("reply = %q", resp["reply"])
				}
				if _, ok := resp["routine"]; ok {
					t.Error("reply response must not carry routine")
				}
			},
		},
		{
			name:   "format html renders markdown",
			method: http.MethodPost,
			target: "/api/routine?format=html",
			body:   `{"history":[{"role":"user","content":"Is it safe with retinol?"}]}`,
			mockSetup: func(m *mocks.MockRoutineService) {
				m.EXPECT().
					Process(gomock.Any(), gomock.Any()).
					Return(service.RoutineResponse{Mode: service.ModeChat, Text: "**Yes**"}, nil)
			},
			wantCode: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp ReplyResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if !strings.Contains(resp.Reply, "<strong>Yes</strong>") {
					t.Errorf("reply = %q, want rendered HTML", resp.Reply)
				}
			},
		},
		{
			name:   "missing credential",
			method: http.MethodPost,
			body:   `{"products":[]}`,
			mockSetup: func(m *mocks.MockRoutineService) {
				m.EXPECT().Process(gomock.Any(), gomock.Any()).Return(service.RoutineResponse{}, service.ErrNotConfigured)
			},
			wantCode: http.StatusInternalServerError,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if got := decodeError(t, w); got != "Server error: OPENAI_API not set" {
					t.Errorf("error = %q", got)
				}
			},
		},
		{
			name:   "missing mode",
			method: http.MethodPost,
			body:   `{}`,
			mockSetup: func(m *mocks.MockRoutineService) {
				m.EXPECT().Process(gomock.Any(), service.RoutineRequest{}).Return(service.RoutineResponse{}, service.ErrMissingMode)
			},
			wantCode: http.StatusBadRequest,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if got := decodeError(t, w); got != "Bad Request: missing products or history" {
					t.Errorf("error = %q", got)
				}
			},
		},
		{
			name:   "validation error",
			method: http.MethodPost,
			body:   `{"history":[]}`,
			mockSetup: func(m *mocks.MockRoutineService) {
				m.EXPECT().Process(gomock.Any(), gomock.Any()).Return(service.RoutineResponse{}, &service.ValidationError{
					Field:   "history",
					Message: "must contain at least one turn",
				})
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "upstream error",
			method: http.MethodPost,
			body:   `{"products":[]}`,
			mockSetup: func(m *mocks.MockRoutineService) {
				m.EXPECT().Process(gomock.Any(), gomock.Any()).Return(service.RoutineResponse{},
					fmt.Errorf("%w: %w", service.ErrExternalService, &llm.UpstreamError{StatusCode: 401, Message: "Incorrect API key provided"}))
			},
			wantCode: http.StatusBadGateway,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if got := decodeError(t, w); got != "OpenAI API error: Incorrect API key provided" {
					t.Errorf("error = %q", got)
				}
			},
		},
		{
			name:   "unexpected error",
			method: http.MethodPost,
			body:   `{"products":[]}`,
			mockSetup: func(m *mocks.MockRoutineService) {
				m.EXPECT().Process(gomock.Any(), gomock.Any()).Return(service.RoutineResponse{}, errors.New("boom"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mocks.NewMockRoutineService(ctrl)
			tt.mockSetup(mockService)

			handler := NewRoutineHandler(mockService, render.NewMarkdownRenderer(), "/api/routine")

			target := tt.target
			if target == "" {
				target = "/api/routine"
			}
			req := httptest.NewRequest(tt.method, target, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("ServeHTTP() status = %v, want %v (body %s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.check != nil {
				tt.check(t, w)
			}
		})
	}
}

func TestRoutineHandler_RenderFailureFallsBackToMarkdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRoutineService(ctrl)
	mockService.EXPECT().
		Process(gomock.Any(), gomock.Any()).
		Return(service.RoutineResponse{Mode: service.ModeRoutine, Text: "**AM**"}, nil)

	handler := NewRoutineHandler(mockService, failingRenderer{}, "/api/routine")
	req := httptest.NewRequest(http.MethodPost, "/api/routine?format=html", strings.NewReader(`{"products":[]}`))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var resp RoutineResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Routine != "**AM**" {
		t.Errorf("routine = %q, want raw markdown", resp.Routine)
	}
}

func TestRoutineHandler_NilRendererIgnoresFormat(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRoutineService(ctrl)
	mockService.EXPECT().
		Process(gomock.Any(), gomock.Any()).
		Return(service.RoutineResponse{Mode: service.ModeChat, Text: "**Yes**"}, nil)

	handler := NewRoutineHandler(mockService, nil, "/api/routine")
	req := httptest.NewRequest(http.MethodPost, "/api/routine?format=html", strings.NewReader(`{"history":[{"role":"user","content":"q"}]}`))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var resp ReplyResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reply != "**Yes**" {
		t.Errorf("reply = %q", resp.Reply)
	}
}

func TestRoutineHandler_ServerErrorLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockRoutineService(ctrl)
	mockService.EXPECT().
		Process(gomock.Any(), gomock.Any()).
		Return(service.RoutineResponse{}, service.WrapError(service.ErrExternalService, &llm.UpstreamError{StatusCode: 500, Message: "boom"}))

	handler := NewRoutineHandler(mockService, nil, "/api/routine")
	req := httptest.NewRequest(http.MethodPost, "/api/routine", strings.NewReader(`{"products":[]}`))
	req = req.WithContext(contextutil.WithRequestID(req.Context(), "req-42"))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %v, want 502", w.Code)
	}
	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("log output missing request id: %s", buf.String())
	}
}
