package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/condaura/portal/internal/api/metrics"
	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/service"
)

// placeholderRefresh is how soon a loading page asks the browser to retry.
const placeholderRefresh = "1"

const placeholderPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>Condaura</title></head>
<body><main class="placeholder"><p>Loading&hellip;</p></main></body></html>`

// RequireAuth lets authenticated users through. Anonymous users are sent to
// the login page; while a session is loading a placeholder page is served.
func RequireAuth() echo.MiddlewareFunc {
	return pageGuard(service.PolicyAuthenticated)
}

// RequireAdmin is RequireAuth plus the administrator check. Other users are
// sent to the dashboard.
func RequireAdmin() echo.MiddlewareFunc {
	return pageGuard(service.PolicyAdmin)
}

func pageGuard(policy service.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state, d, err := authorize(c, policy)
			if err != nil {
				return err
			}
			switch d.Kind {
			case service.DecisionPlaceholder:
				c.Response().Header().Set("Refresh", placeholderRefresh)
				c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
				return c.HTML(http.StatusOK, placeholderPage)
			case service.DecisionRedirect:
				return c.Redirect(http.StatusSeeOther, d.Location)
			}
			c.Set(ctxAuthState, state)
			return next(c)
		}
	}
}

// RequireAPIAuth is the JSON counterpart of RequireAuth: it fails with
// domain.ErrNotAuthenticated or domain.ErrForbidden instead of redirecting.
func RequireAPIAuth(policy service.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state, d, err := authorize(c, policy)
			if err != nil {
				return err
			}
			switch {
			case d.Kind == service.DecisionPlaceholder:
				c.Response().Header().Set(echo.HeaderRetryAfter, placeholderRefresh)
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session is loading")
			case d.Kind == service.DecisionRedirect && d.Location == service.LoginPath:
				return domain.ErrNotAuthenticated
			case d.Kind == service.DecisionRedirect:
				return domain.ErrForbidden
			}
			c.Set(ctxAuthState, state)
			return next(c)
		}
	}
}

func authorize(c echo.Context, policy service.Policy) (domain.AuthState, service.Decision, error) {
	ctrl := Controller(c)
	if ctrl == nil {
		return domain.AuthState{}, service.Decision{}, fmt.Errorf("guard %s: no session bound to request", policy)
	}
	state := ctrl.State()
	d := service.Authorize(state, policy)
	metrics.GuardDecisionsTotal.WithLabelValues(policy.String(), d.Kind.String()).Inc()
	return state, d, nil
}
