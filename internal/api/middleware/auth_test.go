package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/storefront/sessions-api/internal/core/domain"
)

type stubSessions struct {
	user *domain.User
	err  error
}

func (s *stubSessions) Login(context.Context, *domain.User) error { return nil }

func (s *stubSessions) CurrentUser(context.Context) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubSessions) Logout(context.Context) error          { return nil }
func (s *stubSessions) PutOAuthState(context.Context, string) {}
func (s *stubSessions) PopOAuthState(context.Context) string  { return "" }

func TestRequireUser_InjectsUserAndRole(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	stored := &domain.User{ID: "u1", Email: "alice@example.com", Role: domain.RoleAdmin}

	called := false
	mw := RequireUser(&stubSessions{user: stored})
	handler := mw(func(c echo.Context) error {
		called = true
		if c.Get("user") != stored {
			t.Fatalf("user not set")
		}
		if c.Get("role") != domain.RoleAdmin {
			t.Fatalf("role not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireUser_LegacyRecordGetsDefaultRole(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	mw := RequireUser(&stubSessions{user: &domain.User{ID: "u1"}})
	handler := mw(func(c echo.Context) error {
		if c.Get("role") != domain.RoleUser {
			t.Fatalf("expected default role, got %v", c.Get("role"))
		}
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestRequireUser_Anonymous(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := RequireUser(&stubSessions{})
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireUser_StoreFault(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	mw := RequireUser(&stubSessions{err: domain.ErrDeserializeUser})
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrDeserializeUser) {
		t.Fatalf("expected ErrDeserializeUser, got %v", err)
	}
}
