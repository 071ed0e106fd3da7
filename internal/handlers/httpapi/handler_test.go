package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/KirkDiggler/narrative-service/internal/domain/intent"
	domain "github.com/KirkDiggler/narrative-service/internal/domain/wizard"
	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
	"github.com/KirkDiggler/narrative-service/internal/handlers/httpapi"
	"github.com/KirkDiggler/narrative-service/internal/services/auth"
	mockauth "github.com/KirkDiggler/narrative-service/internal/services/auth/mock"
	"github.com/KirkDiggler/narrative-service/internal/services/interpret"
	mockinterpret "github.com/KirkDiggler/narrative-service/internal/services/interpret/mock"
	"github.com/KirkDiggler/narrative-service/internal/services/wizard"
	mockwizard "github.com/KirkDiggler/narrative-service/internal/services/wizard/mock"
)

type HandlerTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	wizard    *mockwizard.MockService
	interpret *mockinterpret.MockService
	auth      *mockauth.MockService
	handler   http.Handler
}

func (s *HandlerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.wizard = mockwizard.NewMockService(s.ctrl)
	s.interpret = mockinterpret.NewMockService(s.ctrl)
	s.auth = mockauth.NewMockService(s.ctrl)
	s.handler = httpapi.NewHandler(&httpapi.Config{
		Wizard:         s.wizard,
		Interpret:      s.interpret,
		Auth:           s.auth,
		Logger:         zaptest.NewLogger(s.T()),
		AllowedOrigins: []string{"http://localhost:5173"},
	})
}

func (s *HandlerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerTestSuite) body(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func payload(step domain.StepID) *wizard.StepPayload {
	return &wizard.StepPayload{
		StepID:     step,
		StepNumber: domain.StepNumber(step),
		Prompt:     "Choose.",
		Options:    []domain.Option{{Name: "Elf", Value: "Elf"}},
		Context:    map[string]any{},
		SessionID:  "wiz-1",
	}
}

func (s *HandlerTestSuite) TestHealth() {
	for _, path := range []string{"/", "/health", "/auth/health"} {
		rec := s.do(http.MethodGet, path, "")
		s.Equal(http.StatusOK, rec.Code, path)
		s.JSONEq(`{"status":"ok"}`, rec.Body.String())
	}

	rec := s.do(http.MethodGet, "/nope", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerTestSuite) TestWizardStep() {
	s.wizard.EXPECT().Step(gomock.Any(), &wizard.StepInput{
		SessionID: "wiz-1",
		Action:    "select",
		Selection: "Elf",
	}).Return(&wizard.StepResult{OK: true, Result: payload(domain.StepRace)}, nil)

	rec := s.do(http.MethodPost, "/character-wizard/step", `{"session_id":"wiz-1","intent":"select","selection":"Elf"}`)

	s.Equal(http.StatusOK, rec.Code)
	out := s.body(rec)
	s.Equal(true, out["ok"])
	result := out["result"].(map[string]any)
	s.Equal("race", result["stepId"])
	s.Equal("wiz-1", result["sessionId"])
	s.Nil(result["nextStepId"])
}

func (s *HandlerTestSuite) TestWizardStep_GenerationFailure() {
	s.wizard.EXPECT().Step(gomock.Any(), gomock.Any()).Return(&wizard.StepResult{
		OK:     false,
		Error:  "model_call_failed",
		Result: payload(domain.StepArchetype),
	}, nil)

	rec := s.do(http.MethodPost, "/character-wizard/step", `{"intent":"lock","selection":"Elf"}`)

	s.Equal(http.StatusBadGateway, rec.Code)
	out := s.body(rec)
	s.Equal(false, out["ok"])
	s.Equal("model_call_failed", out["error"])
	s.Equal("archetype", out["result"].(map[string]any)["stepId"])
}

func (s *HandlerTestSuite) TestWizardStep_BadRequests() {
	cases := map[string]string{
		"empty body":     ``,
		"malformed json": `{"intent":`,
		"missing intent": `{"session_id":"wiz-1"}`,
		"unknown intent": `{"intent":"dance"}`,
		"unknown step":   `{"intent":"assist","step_id":"class"}`,
	}

	for name, body := range cases {
		s.Run(name, func() {
			rec := s.do(http.MethodPost, "/character-wizard/step", body)
			s.Equal(http.StatusBadRequest, rec.Code)
			s.NotEmpty(s.body(rec)["error"])
		})
	}
}

func (s *HandlerTestSuite) TestWizardStep_ValidationMessageUsesJSONNames() {
	rec := s.do(http.MethodPost, "/character-wizard/step", `{}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("intent is required", s.body(rec)["error"])
}

func (s *HandlerTestSuite) TestWizardStep_ServiceErrors() {
	s.wizard.EXPECT().Step(gomock.Any(), gomock.Any()).
		Return(nil, apperr.InvalidArgument("selection is required"))
	rec := s.do(http.MethodPost, "/character-wizard/step", `{"intent":"select"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("selection is required", s.body(rec)["error"])

	s.wizard.EXPECT().Step(gomock.Any(), gomock.Any()).
		Return(nil, apperr.Wrap(context.DeadlineExceeded, "failed to save session"))
	rec = s.do(http.MethodPost, "/character-wizard/step", `{"intent":"assist"}`)
	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("internal server error", s.body(rec)["error"])
}

func (s *HandlerTestSuite) TestWizardSession() {
	s.wizard.EXPECT().Get(gomock.Any(), "wiz-1").Return(payload(domain.StepName), nil)
	rec := s.do(http.MethodGet, "/character-wizard/sessions/wiz-1", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("name", s.body(rec)["result"].(map[string]any)["stepId"])

	s.wizard.EXPECT().Get(gomock.Any(), "missing").Return(nil, apperr.NotFoundf("session 'missing' not found"))
	rec = s.do(http.MethodGet, "/character-wizard/sessions/missing", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerTestSuite) TestWizardFinalize() {
	s.wizard.EXPECT().Finalize(gomock.Any(), "wiz-1", "Bearer tok").
		Return(&wizard.FinalizeResult{Backend: json.RawMessage(`{"id":7}`)}, nil)

	rec := s.do(http.MethodPost, "/character-wizard/finalize", `{"session_id":"wiz-1"}`, "Authorization", "Bearer tok")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(true, s.body(rec)["ok"])

	s.wizard.EXPECT().Finalize(gomock.Any(), "wiz-1", "").
		Return(nil, apperr.Unauthenticated("authorization is required to save a character"))
	rec = s.do(http.MethodPost, "/character-wizard/finalize", `{"session_id":"wiz-1"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerTestSuite) TestInterpret() {
	s.interpret.EXPECT().Interpret(gomock.Any(), &interpret.Input{
		Text:             "move north",
		CharacterContext: &interpret.CharacterContext{ID: "char-1"},
		WorldContext:     &interpret.WorldContext{Zone: "Greenhollow"},
	}, "Bearer abc").Return(&interpret.Result{
		Intent: intent.Intent{
			Kind:        intent.KindMove,
			CharacterID: "char-1",
			Payload:     map[string]any{"text": "move north"},
		},
		NarrativeOutput: "You move to north.",
		Source:          interpret.SourceFallback,
	}, nil)

	rec := s.do(http.MethodPost, "/interpret",
		`{"text":"move north","character_context":{"id":"char-1"},"world_context":{"zone":"Greenhollow"}}`,
		"Authorization", "Bearer abc")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{
		"intent": {"kind":"move","characterId":"char-1","payload":{"text":"move north"}},
		"narrative_output": "You move to north."
	}`, rec.Body.String())
}

func (s *HandlerTestSuite) TestInterpret_Validation() {
	rec := s.do(http.MethodPost, "/interpret", `{"character_context":{"id":"c"}}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("text is required", s.body(rec)["error"])

	rec = s.do(http.MethodPost, "/interpret", `{"text":"hi","character_context":{"name":"no id"}}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("id is required", s.body(rec)["error"])
}

func (s *HandlerTestSuite) TestZeroRateLimitDoesNotBlock() {
	handler := httpapi.NewHandler(&httpapi.Config{
		Interpret: s.interpret,
		Logger:    zaptest.NewLogger(s.T()),
		RateLimit: &httpapi.RateLimitConfig{RPS: 0, Burst: 0},
	})
	s.interpret.EXPECT().Interpret(gomock.Any(), gomock.Any(), "").Return(&interpret.Result{
		Intent: intent.Intent{Kind: intent.KindSystemEvent, CharacterID: "c"},
		Source: interpret.SourceFallback,
	}, nil).Times(3)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/interpret", strings.NewReader(`{"text":"hi","character_context":{"id":"c"}}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		s.Equal(http.StatusOK, rec.Code)
	}
}

func (s *HandlerTestSuite) TestGoogleLogin() {
	s.auth.EXPECT().LoginWithGoogle(gomock.Any(), "google-id-token").Return(&auth.LoginResult{
		SpacetimeDBToken: "stdb",
		SessionToken:     "sess",
		User:             json.RawMessage(`{"id":"u1"}`),
	}, nil)

	rec := s.do(http.MethodPost, "/auth/google", `{"idToken":"google-id-token"}`)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"spacetimedb_token":"stdb","session_token":"sess","user":{"id":"u1"}}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/auth/google", `{}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	s.auth.EXPECT().LoginWithGoogle(gomock.Any(), "bad").
		Return(nil, apperr.Unauthenticated("invalid Google token: missing subject"))
	rec = s.do(http.MethodPost, "/auth/google", `{"idToken":"bad"}`)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerTestSuite) TestSession() {
	expires := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.auth.EXPECT().VerifySession(gomock.Any(), "Bearer sess").Return(&auth.SessionClaims{
		SessionID:        "sess_1",
		UserID:           "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expires)},
	}, nil)

	rec := s.do(http.MethodGet, "/auth/session", "", "Authorization", "Bearer sess")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"session_id":"sess_1","user_id":"u1","expires_at":"2024-05-01T12:00:00Z"}`, rec.Body.String())

	s.auth.EXPECT().VerifySession(gomock.Any(), "").Return(nil, apperr.Unauthenticated("session token is required"))
	rec = s.do(http.MethodGet, "/auth/session", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerTestSuite) TestMethodNotAllowed() {
	rec := s.do(http.MethodGet, "/interpret", "")
	s.Equal(http.StatusMethodNotAllowed, rec.Code)
}

func (s *HandlerTestSuite) TestCORSPreflight() {
	rec := s.do(http.MethodOptions, "/interpret", "",
		"Origin", "http://localhost:5173",
		"Access-Control-Request-Method", "POST",
		"Access-Control-Request-Headers", "Content-Type, Authorization")

	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	s.Equal("true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = s.do(http.MethodOptions, "/interpret", "",
		"Origin", "http://evil.test",
		"Access-Control-Request-Method", "POST")
	s.Empty(rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGoogleLogin_NotConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := httpapi.NewHandler(&httpapi.Config{
		Wizard:    mockwizard.NewMockService(ctrl),
		Interpret: mockinterpret.NewMockService(ctrl),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/google", strings.NewReader(`{"idToken":"x"}`)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
