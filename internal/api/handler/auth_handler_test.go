package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/sessions-api/internal/core/domain"
	"github.com/storefront/sessions-api/internal/core/ports"
)

type stubStrategies struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) domain.Outcome
	loginFn    func(ctx context.Context, in ports.LoginInput) domain.Outcome
	resetFn    func(ctx context.Context, in ports.ResetPasswordInput) domain.Outcome
	githubFn   func(ctx context.Context, p ports.GithubProfile) domain.Outcome
}

func (s *stubStrategies) Register(ctx context.Context, in ports.RegisterInput) domain.Outcome {
	return s.registerFn(ctx, in)
}

func (s *stubStrategies) Login(ctx context.Context, in ports.LoginInput) domain.Outcome {
	return s.loginFn(ctx, in)
}

func (s *stubStrategies) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) domain.Outcome {
	return s.resetFn(ctx, in)
}

func (s *stubStrategies) Github(ctx context.Context, p ports.GithubProfile) domain.Outcome {
	return s.githubFn(ctx, p)
}

type stubSessions struct {
	loggedIn   *domain.User
	loginErr   error
	loggedOut  bool
	oauthState string
}

func (s *stubSessions) Login(_ context.Context, user *domain.User) error {
	if s.loginErr != nil {
		return s.loginErr
	}
	s.loggedIn = user
	return nil
}

func (s *stubSessions) CurrentUser(context.Context) (*domain.User, error) {
	return s.loggedIn, nil
}

func (s *stubSessions) Logout(context.Context) error {
	s.loggedOut = true
	s.loggedIn = nil
	return nil
}

func (s *stubSessions) PutOAuthState(_ context.Context, state string) {
	s.oauthState = state
}

func (s *stubSessions) PopOAuthState(context.Context) string {
	state := s.oauthState
	s.oauthState = ""
	return state
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func alice() *domain.User {
	return &domain.User{
		ID:        "650000000000000000000001",
		FirstName: "Alice",
		Email:     "alice@example.com",
		Password:  "$2a$04$digest",
		Role:      domain.RoleUser,
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	sessions := &stubSessions{}
	stub := &stubStrategies{
		registerFn: func(ctx context.Context, in ports.RegisterInput) domain.Outcome {
			if in.Email != "alice@example.com" || in.Password != "secret" || in.FirstName != "Alice" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.DateOfBirth == nil || in.DateOfBirth.Format(dateOfBirthLayout) != "1990-05-17" {
				t.Fatalf("unexpected date of birth: %v", in.DateOfBirth)
			}
			return domain.Accept(alice())
		},
	}
	h := NewAuthHandler(stub, sessions, GithubFlow{}, zerolog.Nop())

	req := jsonRequest(http.MethodPost, "/api/sessions/register",
		`{"firstName":"Alice","email":"alice@example.com","password":"secret","dateOfBirth":"1990-05-17"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decodeEnvelope(t, rec)
	if resp["status"] != float64(statusSuccess) {
		t.Fatalf("expected status 1, got %v", resp["status"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["email"] != "alice@example.com" || user["userRole"] != "user" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password digest must not be exposed")
	}
	if sessions.loggedIn == nil || sessions.loggedIn.ID != alice().ID {
		t.Fatalf("expected session to be opened for the new user")
	}
}

func TestAuthHandler_Register_FormBody(t *testing.T) {
	e := newEcho()
	called := false
	stub := &stubStrategies{
		registerFn: func(ctx context.Context, in ports.RegisterInput) domain.Outcome {
			called = true
			if in.Email != "bob@example.com" || in.LastName != "Stone" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return domain.Accept(&domain.User{ID: "650000000000000000000002", Email: in.Email})
		},
	}
	h := NewAuthHandler(stub, &stubSessions{}, GithubFlow{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/register",
		strings.NewReader("email=bob%40example.com&password=pw&lastName=Stone"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()

	if err := h.Register(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 from strategy, got %d (called=%v)", rec.Code, called)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	e := newEcho()
	sessions := &stubSessions{}
	stub := &stubStrategies{
		registerFn: func(ctx context.Context, in ports.RegisterInput) domain.Outcome {
			return domain.Reject(domain.ErrUserExists)
		},
	}
	h := NewAuthHandler(stub, sessions, GithubFlow{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	_ = h.Register(e.NewContext(jsonRequest(http.MethodPost, "/api/sessions/register", `{"email":"bob@example.com","password":"x"}`), rec))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp["status"] != float64(statusError) || resp["message"] != "user already exists" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
	if sessions.loggedIn != nil {
		t.Fatalf("no session expected on rejection")
	}
}

func TestAuthHandler_Register_InvalidDateOfBirth(t *testing.T) {
	e := newEcho()
	stub := &stubStrategies{
		registerFn: func(ctx context.Context, in ports.RegisterInput) domain.Outcome {
			t.Fatalf("should not be called")
			return domain.Outcome{}
		},
	}
	h := NewAuthHandler(stub, &stubSessions{}, GithubFlow{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	_ = h.Register(e.NewContext(jsonRequest(http.MethodPost, "/api/sessions/register",
		`{"email":"a@example.com","password":"x","dateOfBirth":"17/05/1990"}`), rec))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if msg, _ := resp["message"].(string); !strings.Contains(msg, "dateOfBirth") {
		t.Fatalf("expected dateOfBirth message, got %q", msg)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newEcho()
	stub := &stubStrategies{
		registerFn: func(ctx context.Context, in ports.RegisterInput) domain.Outcome {
			t.Fatalf("should not be called")
			return domain.Outcome{}
		},
	}
	h := NewAuthHandler(stub, &stubSessions{}, GithubFlow{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	_ = h.Register(e.NewContext(jsonRequest(http.MethodPost, "/api/sessions/register", "not-json"), rec))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_SessionFailure(t *testing.T) {
	e := newEcho()
	stub := &stubStrategies{
		registerFn: func(ctx context.Context, in ports.RegisterInput) domain.Outcome {
			return domain.Accept(alice())
		},
	}
	h := NewAuthHandler(stub, &stubSessions{loginErr: errors.New("redis down")}, GithubFlow{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	_ = h.Register(e.NewContext(jsonRequest(http.MethodPost, "/api/sessions/register", `{"email":"a@example.com","password":"x"}`), rec))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "redis") {
		t.Fatalf("internal cause leaked: %s", rec.Body.String())
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	e := newEcho()
	sessions := &stubSessions{}
	stub := &stubStrategies{
		loginFn: func(ctx context.Context, in ports.LoginInput) domain.Outcome {
			if in.Email != "alice@example.com" || in.Password != "secret" {
				t.Fatalf("unexpected args: %+v", in)
			}
			return domain.Accept(alice())
		},
	}
	h := NewAuthHandler(stub, sessions, GithubFlow{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	if err := h.Login(e.NewContext(jsonRequest(http.MethodPost, "/api/sessions/login", `{"email":"alice@example.com","password":"secret"}`), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	user, ok := resp["user"].(map[string]any)
	if !ok || user["id"] != alice().ID {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
	if sessions.loggedIn == nil {
		t.Fatalf("expected session to be opened")
	}
}

func TestAuthHandler_Login_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		outcome domain.Outcome
		code    int
		message string
	}{
		{"missing credentials", domain.Reject(domain.ErrMissingCredentials), http.StatusBadRequest, "missing credentials"},
		{"user not found", domain.Reject(domain.ErrUserNotFound), http.StatusNotFound, "user not found"},
		{"incorrect password", domain.Reject(domain.ErrIncorrectPassword), http.StatusUnauthorized, "incorrect password"},
		{"store failure", domain.Fail("error logging in", errors.New("socket closed")), http.StatusInternalServerError, "error logging in"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho()
			sessions := &stubSessions{}
			stub := &stubStrategies{
				loginFn: func(ctx context.Context, in ports.LoginInput) domain.Outcome { return tc.outcome },
			}
			h := NewAuthHandler(stub, sessions, GithubFlow{}, zerolog.Nop())

			rec := httptest.NewRecorder()
			_ = h.Login(e.NewContext(jsonRequest(http.MethodPost, "/api/sessions/login", `{"email":"a@example.com","password":"pw"}`), rec))

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			resp := decodeEnvelope(t, rec)
			if resp["status"] != float64(statusError) || resp["message"] != tc.message {
				t.Fatalf("unexpected envelope: %+v", resp)
			}
			if sessions.loggedIn != nil {
				t.Fatalf("no session expected")
			}
		})
	}
}

func TestAuthHandler_RestartPassword(t *testing.T) {
	e := newEcho()
	stub := &stubStrategies{
		resetFn: func(ctx context.Context, in ports.ResetPasswordInput) domain.Outcome {
			if in.Email != "ALICE@example.com" || in.NewPassword != "fresh" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return domain.Accept(alice())
		},
	}
	h := NewAuthHandler(stub, &stubSessions{}, GithubFlow{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	_ = h.RestartPassword(e.NewContext(jsonRequest(http.MethodPut, "/api/sessions/restartPassword", `{"email":"ALICE@example.com","newPassword":"fresh"}`), rec))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp["status"] != float64(statusSuccess) {
		t.Fatalf("expected status 1, got %+v", resp)
	}
	if _, ok := resp["user"]; ok {
		t.Fatalf("reset response must not carry the user")
	}
}

func TestAuthHandler_RestartPassword_UnknownEmail(t *testing.T) {
	e := newEcho()
	stub := &stubStrategies{
		resetFn: func(ctx context.Context, in ports.ResetPasswordInput) domain.Outcome {
			return domain.Reject(domain.ErrUserNotFound)
		},
	}
	h := NewAuthHandler(stub, &stubSessions{}, GithubFlow{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	_ = h.RestartPassword(e.NewContext(jsonRequest(http.MethodPut, "/api/sessions/restartPassword", `{"email":"ghost@example.com","newPassword":"x"}`), rec))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp["status"] != float64(statusError) {
		t.Fatalf("expected status 0, got %+v", resp)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newEcho()
	sessions := &stubSessions{loggedIn: alice()}
	h := NewAuthHandler(&stubStrategies{}, sessions, GithubFlow{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	if err := h.Logout(e.NewContext(httptest.NewRequest(http.MethodPost, "/api/sessions/logout", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !sessions.loggedOut {
		t.Fatalf("expected logout, got %d (loggedOut=%v)", rec.Code, sessions.loggedOut)
	}
}

func TestAuthHandler_Current(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubStrategies{}, &stubSessions{}, GithubFlow{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/sessions/current", nil), rec)
	c.Set("user", alice())

	if err := h.Current(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decodeEnvelope(t, rec)
	user, ok := resp["user"].(map[string]any)
	if !ok || user["email"] != "alice@example.com" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Current_Anonymous(t *testing.T) {
	e := newEcho()
	h := NewAuthHandler(&stubStrategies{}, &stubSessions{}, GithubFlow{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/sessions/current", nil), rec)

	if err := h.Current(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
