package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/sessions-api/internal/core/domain"
	"github.com/storefront/sessions-api/internal/core/ports"
)

// GithubFlow groups what the GitHub redirect and callback routes need.
type GithubFlow struct {
	Provider        ports.GithubAuthenticator
	States          ports.StateSigner
	SuccessRedirect string
	FailureRedirect string
}

type AuthHandler struct {
	strategies ports.StrategySet
	sessions   ports.SessionManager
	github     GithubFlow
	log        zerolog.Logger
}

func NewAuthHandler(strategies ports.StrategySet, sessions ports.SessionManager, github GithubFlow, log zerolog.Logger) *AuthHandler {
	if github.SuccessRedirect == "" {
		github.SuccessRedirect = "/"
	}
	if github.FailureRedirect == "" {
		github.FailureRedirect = "/login"
	}
	return &AuthHandler{strategies: strategies, sessions: sessions, github: github, log: log}
}

// Register creates a local account and opens a session for it.
//
// @Summary      Register a new user
// @Tags         sessions
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration form"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  sessionResponse
// @Failure      409   {object}  sessionResponse
// @Failure      500   {object}  sessionResponse
// @Router       /api/sessions/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, failure("invalid payload"))
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, failure(err.Error()))
	}
	in, err := req.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, failure(err.Error()))
	}

	outcome := h.strategies.Register(c.Request().Context(), in)
	if !outcome.Accepted() {
		return c.JSON(outcomeStatus(outcome), failure(outcome.Reason))
	}
	if err := h.sessions.Login(c.Request().Context(), outcome.User); err != nil {
		return h.sessionFailure(c, err, "error creating user")
	}

	return c.JSON(http.StatusCreated, success("user registered", outcome.User))
}

// Login authenticates local credentials and opens a session.
//
// @Summary      Login
// @Tags         sessions
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  sessionResponse
// @Failure      401   {object}  sessionResponse
// @Failure      404   {object}  sessionResponse
// @Failure      500   {object}  sessionResponse
// @Router       /api/sessions/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, failure("invalid payload"))
	}

	outcome := h.strategies.Login(c.Request().Context(), ports.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if !outcome.Accepted() {
		return c.JSON(outcomeStatus(outcome), failure(outcome.Reason))
	}
	if err := h.sessions.Login(c.Request().Context(), outcome.User); err != nil {
		return h.sessionFailure(c, err, "error logging in")
	}

	return c.JSON(http.StatusOK, success("logged in", outcome.User))
}

// RestartPassword replaces the password of the account matching the email.
//
// @Summary      Reset password
// @Tags         sessions
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Email and new password"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  sessionResponse
// @Failure      404   {object}  sessionResponse
// @Failure      500   {object}  sessionResponse
// @Router       /api/sessions/restartPassword [put]
func (h *AuthHandler) RestartPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, failure("invalid payload"))
	}

	outcome := h.strategies.ResetPassword(c.Request().Context(), ports.ResetPasswordInput{
		Email:       req.Email,
		NewPassword: req.NewPassword,
	})
	if !outcome.Accepted() {
		return c.JSON(outcomeStatus(outcome), failure(outcome.Reason))
	}

	return c.JSON(http.StatusOK, success("password restored", nil))
}

// Logout destroys the current session.
//
// @Summary      Logout
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      500  {object}  sessionResponse
// @Router       /api/sessions/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.Logout(c.Request().Context()); err != nil {
		return h.sessionFailure(c, err, "error logging out")
	}
	return c.JSON(http.StatusOK, success("logged out", nil))
}

// Current returns the user bound to the session.
//
// @Summary      Current user
// @Tags         sessions
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  sessionResponse
// @Router       /api/sessions/current [get]
func (h *AuthHandler) Current(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, success("", user))
}

// outcomeStatus maps a non-accepted outcome to its HTTP status.
func outcomeStatus(o domain.Outcome) int {
	if o.Failed() {
		return http.StatusInternalServerError
	}
	switch {
	case errors.Is(o.Err, domain.ErrUserExists):
		return http.StatusConflict
	case errors.Is(o.Err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(o.Err, domain.ErrIncorrectPassword):
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

func (h *AuthHandler) sessionFailure(c echo.Context, err error, reason string) error {
	h.log.Error().Err(err).
		Str("path", c.Path()).
		Msg("session update failed")
	return c.JSON(http.StatusInternalServerError, failure(reason))
}
