package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/api/handler"
	"github.com/condaura/portal/internal/api/middleware"
	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/infrastructure/backend"
)

// statusClientClosed is logged when the browser went away mid-request.
const statusClientClosed = 499

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors and backend responses to HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the error page for browsers and {"error": "<message>"} otherwise.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		if wantsHTML(c) && c.Echo().Renderer != nil {
			user := middleware.CurrentUser(c)
			rerr := c.Render(code, "error", handler.View{
				Title:   http.StatusText(code),
				Path:    c.Request().URL.Path,
				User:    user,
				IsAdmin: domain.IsAdmin(user),
				Data:    msg,
			})
			if rerr == nil {
				return
			}
			log.Error().Err(rerr).Msg("render error page")
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var fe handler.FieldErrors
	if errors.As(err, &fe) {
		return http.StatusUnprocessableEntity, fe.Error()
	}

	// Known domain errors → deterministic HTTP codes. APIError matches the
	// first two through its Is method.
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrOperationInProgress), errors.Is(err, domain.ErrSessionReset):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrInvalidExportFormat):
		return http.StatusBadRequest, "invalid export format"
	case errors.Is(err, context.Canceled):
		log.Debug().Str("path", c.Path()).Msg("request canceled by client")
		return statusClientClosed, "request canceled"
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusNotFound:
			return http.StatusNotFound, "not found"
		case apiErr.Status >= 500:
			log.Error().Err(err).Str("path", c.Path()).Msg("backend error")
			return http.StatusBadGateway, "backend unavailable"
		}
		if msg := apiErr.PublicMessage(); msg != "" {
			return apiErr.Status, msg
		}
		return apiErr.Status, strings.ToLower(http.StatusText(apiErr.Status))
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		log.Error().Err(err).Str("path", c.Path()).Msg("backend unreachable")
		return http.StatusBadGateway, "backend unavailable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// wantsHTML reports whether the client is a browser navigating pages.
func wantsHTML(c echo.Context) bool {
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		return false
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
