package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/api/metrics"
	"github.com/condaura/portal/internal/api/middleware"
	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/service"
)

const inProgressMessage = "A sign-in is already in progress. Please wait."

// AuthHandler serves the login, registration and logout pages. All state
// changes go through the browser's SessionController.
type AuthHandler struct {
	pages *Pages
	log   zerolog.Logger
}

func NewAuthHandler(pages *Pages, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{pages: pages, log: log}
}

// LoginPage renders the sign-in form. Signed-in users go to the dashboard.
func (h *AuthHandler) LoginPage(c echo.Context) error {
	state := middleware.AuthState(c)
	if state.IsAuthenticated {
		return c.Redirect(http.StatusSeeOther, service.DashboardPath)
	}
	return h.pages.Render(c, http.StatusOK, "login", View{
		Title: "Login",
		Error: state.Error,
		Data:  loginForm{},
	})
}

// Login validates the form locally, then signs in through the controller.
func (h *AuthHandler) Login(c echo.Context) error {
	var f loginForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if err := c.Validate(&f); err != nil {
		fe, ok := asFieldErrors(err)
		if !ok {
			return err
		}
		return h.pages.Render(c, http.StatusUnprocessableEntity, "login", View{Title: "Login", Fields: fe, Data: loginForm{Email: f.Email}})
	}

	ctrl := middleware.Controller(c)
	err := ctrl.Login(c.Request().Context(), f.credentials())
	recordAuthAttempt("login", err)
	if err != nil {
		return h.authFailed(c, "login", "Login", err, loginForm{Email: f.Email})
	}
	return c.Redirect(http.StatusSeeOther, service.DashboardPath)
}

// RegisterPage renders the sign-up form.
func (h *AuthHandler) RegisterPage(c echo.Context) error {
	state := middleware.AuthState(c)
	if state.IsAuthenticated {
		return c.Redirect(http.StatusSeeOther, service.DashboardPath)
	}
	return h.pages.Render(c, http.StatusOK, "register", View{
		Title: "Register",
		Error: state.Error,
		Data:  registerForm{},
	})
}

// Register validates the sign-up form and creates the account. The new
// account is signed in on success.
func (h *AuthHandler) Register(c echo.Context) error {
	var f registerForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if err := c.Validate(&f); err != nil {
		fe, ok := asFieldErrors(err)
		if !ok {
			return err
		}
		return h.pages.Render(c, http.StatusUnprocessableEntity, "register", View{Title: "Register", Fields: fe, Data: f.redacted()})
	}

	ctrl := middleware.Controller(c)
	err := ctrl.Register(c.Request().Context(), f.registration())
	recordAuthAttempt("register", err)
	if err != nil {
		return h.authFailed(c, "register", "Register", err, f.redacted())
	}
	return c.Redirect(http.StatusSeeOther, service.DashboardPath)
}

// Logout clears the session and returns to the login page. A store failure
// is logged by the controller; the browser is signed out regardless.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctrl := middleware.Controller(c)
	if err := ctrl.Logout(c.Request().Context()); err != nil {
		h.log.Warn().Err(err).Str("browser_id", middleware.BrowserID(c)).Msg("logout left stored session behind")
	}
	metrics.LogoutsTotal.Inc()
	return c.Redirect(http.StatusSeeOther, service.LoginPath)
}

func (h *AuthHandler) authFailed(c echo.Context, page, title string, err error, data any) error {
	switch {
	case errors.Is(err, domain.ErrOperationInProgress):
		return h.pages.Render(c, http.StatusConflict, page, View{Title: title, Error: inProgressMessage, Data: data})
	case errors.Is(err, context.Canceled), errors.Is(err, domain.ErrSessionReset):
		return c.Redirect(http.StatusSeeOther, service.LoginPath)
	}
	state := middleware.Controller(c).State()
	return h.pages.Render(c, http.StatusUnprocessableEntity, page, View{Title: title, Error: state.Error, Data: data})
}

func (f registerForm) redacted() registerForm {
	f.Password = ""
	f.PasswordConfirm = ""
	return f
}

func recordAuthAttempt(op string, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrOperationInProgress):
		result = "rejected"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, domain.ErrSessionReset):
		result = "canceled"
	default:
		result = "failure"
	}
	metrics.AuthAttemptsTotal.WithLabelValues(op, result).Inc()
}
