package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Github redirects the browser to GitHub's authorize page.
//
// @Summary      Start GitHub login
// @Tags         sessions
// @Success      302
// @Failure      503  {object}  sessionResponse
// @Failure      500  {object}  sessionResponse
// @Router       /api/sessions/github [get]
func (h *AuthHandler) Github(c echo.Context) error {
	if !h.githubReady() {
		return c.JSON(http.StatusServiceUnavailable, failure("github login is not configured"))
	}

	state, err := h.github.States.Issue()
	if err != nil {
		h.log.Error().Err(err).Msg("issue oauth state")
		return c.JSON(http.StatusInternalServerError, failure("error with Github login"))
	}
	h.sessions.PutOAuthState(c.Request().Context(), state)

	return c.Redirect(http.StatusFound, h.github.Provider.AuthCodeURL(state))
}

// GithubCallback completes the GitHub flow: it checks the state, exchanges the
// code, runs the github strategy and opens a session.
//
// @Summary      GitHub callback
// @Tags         sessions
// @Param        code   query  string  true  "Authorization code"
// @Param        state  query  string  true  "State issued by /api/sessions/github"
// @Success      302
// @Router       /api/sessions/githubcallback [get]
func (h *AuthHandler) GithubCallback(c echo.Context) error {
	if !h.githubReady() {
		return c.JSON(http.StatusServiceUnavailable, failure("github login is not configured"))
	}
	ctx := c.Request().Context()

	pending := h.sessions.PopOAuthState(ctx)
	state := c.QueryParam("state")
	if state == "" || state != pending {
		h.log.Warn().Msg("github callback with unknown state")
		return h.githubFailure(c)
	}
	if err := h.github.States.Verify(state); err != nil {
		h.log.Warn().Err(err).Msg("github callback with invalid state")
		return h.githubFailure(c)
	}

	if reason := c.QueryParam("error"); reason != "" {
		h.log.Info().Str("reason", reason).Msg("github authorization denied")
		return h.githubFailure(c)
	}
	code := c.QueryParam("code")
	if code == "" {
		return h.githubFailure(c)
	}

	profile, err := h.github.Provider.FetchProfile(ctx, code)
	if err != nil {
		h.log.Error().Err(err).Msg("github profile fetch failed")
		return h.githubFailure(c)
	}

	outcome := h.strategies.Github(ctx, profile)
	if !outcome.Accepted() {
		return h.githubFailure(c)
	}
	if err := h.sessions.Login(ctx, outcome.User); err != nil {
		h.log.Error().Err(err).Msg("session update failed")
		return h.githubFailure(c)
	}

	return c.Redirect(http.StatusFound, h.github.SuccessRedirect)
}

func (h *AuthHandler) githubReady() bool {
	return h.github.Provider != nil && h.github.States != nil && h.github.Provider.Configured()
}

func (h *AuthHandler) githubFailure(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.github.FailureRedirect)
}
