package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/api/metrics"
	"github.com/condaura/portal/internal/api/middleware"
	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
)

// SessionAPI exposes the browser's AuthState as JSON for scripted clients.
type SessionAPI struct {
	passwords     ports.PasswordService
	notifications ports.NotificationService
	log           zerolog.Logger
}

func NewSessionAPI(passwords ports.PasswordService, notifications ports.NotificationService, log zerolog.Logger) *SessionAPI {
	return &SessionAPI{passwords: passwords, notifications: notifications, log: log}
}

type errorBody struct {
	Error  string      `json:"error"`
	Fields FieldErrors `json:"fields,omitempty"`
}

type unreadCountResponse struct {
	Count int `json:"count"`
}

// State returns the current auth state.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.AuthState
// @Router       /api/session [get]
func (h *SessionAPI) State(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.Controller(c).State())
}

// Login signs the browser in.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginForm  true  "Login credentials"
// @Success      200   {object}  domain.AuthState
// @Failure      409   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /api/session/login [post]
func (h *SessionAPI) Login(c echo.Context) error {
	var f loginForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&f); err != nil {
		return validationFailed(c, err)
	}

	ctrl := middleware.Controller(c)
	err := ctrl.Login(c.Request().Context(), f.credentials())
	recordAuthAttempt("login", err)
	if err != nil {
		return h.failed(c, err)
	}
	return c.JSON(http.StatusOK, ctrl.State())
}

// Register creates an account and signs it in.
//
// @Summary      Register
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      registerForm  true  "Registration details"
// @Success      201   {object}  domain.AuthState
// @Failure      409   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /api/session/register [post]
func (h *SessionAPI) Register(c echo.Context) error {
	var f registerForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&f); err != nil {
		return validationFailed(c, err)
	}

	ctrl := middleware.Controller(c)
	err := ctrl.Register(c.Request().Context(), f.registration())
	recordAuthAttempt("register", err)
	if err != nil {
		return h.failed(c, err)
	}
	return c.JSON(http.StatusCreated, ctrl.State())
}

// Logout clears the session.
//
// @Summary      Logout
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.AuthState
// @Router       /api/session [delete]
func (h *SessionAPI) Logout(c echo.Context) error {
	ctrl := middleware.Controller(c)
	if err := ctrl.Logout(c.Request().Context()); err != nil {
		h.log.Warn().Err(err).Str("browser_id", middleware.BrowserID(c)).Msg("logout left stored session behind")
	}
	metrics.LogoutsTotal.Inc()
	return c.JSON(http.StatusOK, ctrl.State())
}

// ClearError dismisses the last login or registration error.
//
// @Summary      Clear session error
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.AuthState
// @Router       /api/session/error [delete]
func (h *SessionAPI) ClearError(c echo.Context) error {
	ctrl := middleware.Controller(c)
	ctrl.ClearError()
	return c.JSON(http.StatusOK, ctrl.State())
}

// ForgotPassword asks the backend to send a reset link.
//
// @Summary      Request password reset
// @Tags         password
// @Accept       json
// @Param        body  body  forgotPasswordForm  true  "Account email"
// @Success      204
// @Failure      422  {object}  errorBody
// @Router       /api/password/forgot [post]
func (h *SessionAPI) ForgotPassword(c echo.Context) error {
	var f forgotPasswordForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&f); err != nil {
		return validationFailed(c, err)
	}
	if err := h.passwords.ForgotPassword(c.Request().Context(), f.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetPassword sets a new password with a reset token.
//
// @Summary      Reset password
// @Tags         password
// @Accept       json
// @Param        body  body  resetPasswordForm  true  "Reset token and new password"
// @Success      204
// @Failure      422  {object}  errorBody
// @Router       /api/password/reset [post]
func (h *SessionAPI) ResetPassword(c echo.Context) error {
	var f resetPasswordForm
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&f); err != nil {
		return validationFailed(c, err)
	}
	if err := h.passwords.ResetPassword(c.Request().Context(), f.Token, f.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UnreadCount returns the number of unread notifications.
//
// @Summary      Unread notification count
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  unreadCountResponse
// @Failure      401  {object}  errorBody
// @Router       /api/notifications/unread-count [get]
func (h *SessionAPI) UnreadCount(c echo.Context) error {
	n, err := h.notifications.UnreadCount(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, unreadCountResponse{Count: n})
}

func (h *SessionAPI) failed(c echo.Context, err error) error {
	if isOperationConflict(err) {
		return c.JSON(http.StatusConflict, errorBody{Error: inProgressMessage})
	}
	state := middleware.Controller(c).State()
	if state.Error == "" {
		return err
	}
	return c.JSON(http.StatusUnprocessableEntity, errorBody{Error: state.Error})
}

func validationFailed(c echo.Context, err error) error {
	fe, ok := asFieldErrors(err)
	if !ok {
		return err
	}
	return c.JSON(http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Fields: fe})
}

func isOperationConflict(err error) bool {
	return errors.Is(err, domain.ErrOperationInProgress)
}
