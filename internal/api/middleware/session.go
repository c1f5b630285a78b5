package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/api/metrics"
	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
	"github.com/condaura/portal/internal/core/service"
	"github.com/condaura/portal/internal/infrastructure/secure"
)

// CookieName is the browser-session cookie. It only names the storage scope.
const CookieName = "portal_browser"

const cookieMaxAge = 365 * 24 * time.Hour

const (
	ctxController = "session_controller"
	ctxBrowserID  = "browser_id"
	ctxAuthState  = "auth_state"
)

// SessionConfig wires the Session middleware.
type SessionConfig struct {
	Cookies  *secure.BrowserCookies
	Registry *service.ControllerRegistry
	// Secure marks the cookie HTTPS-only.
	Secure bool
	Log    zerolog.Logger
}

// Session binds every request to its browser's SessionController. A missing
// or tampered cookie gets a fresh browser ID, which starts anonymous.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			browserID, err := browserFromCookie(c, cfg.Cookies)
			if err != nil {
				if !errors.Is(err, http.ErrNoCookie) {
					cfg.Log.Debug().Err(err).Msg("replacing invalid browser cookie")
				}
				var token string
				browserID, token, err = cfg.Cookies.Issue()
				if err != nil {
					return err
				}
				c.SetCookie(&http.Cookie{
					Name:     CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(cookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctrl := cfg.Registry.Get(c.Request().Context(), browserID)
			metrics.ActiveControllers.Set(float64(cfg.Registry.Len()))

			c.Set(ctxBrowserID, browserID)
			c.Set(ctxController, ctrl)
			BindCredential(c)
			return next(c)
		}
	}
}

func browserFromCookie(c echo.Context, cookies *secure.BrowserCookies) (string, error) {
	ck, err := c.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return cookies.Parse(ck.Value)
}

// Controller returns the controller bound by Session, or nil.
func Controller(c echo.Context) *service.SessionController {
	ctrl, _ := c.Get(ctxController).(*service.SessionController)
	return ctrl
}

// BrowserID returns the browser ID bound by Session.
func BrowserID(c echo.Context) string {
	id, _ := c.Get(ctxBrowserID).(string)
	return id
}

// BindCredential puts the controller's current credential on the request
// context so backend calls made with it are authorised. Call it again after
// a login within the same request.
func BindCredential(c echo.Context) {
	ctrl := Controller(c)
	if ctrl == nil {
		return
	}
	req := c.Request()
	c.SetRequest(req.WithContext(ports.WithCredential(req.Context(), ctrl.Credential())))
}

// AuthState returns the snapshot the guard authorised against, falling back
// to a fresh snapshot for unguarded routes.
func AuthState(c echo.Context) domain.AuthState {
	if s, ok := c.Get(ctxAuthState).(domain.AuthState); ok {
		return s
	}
	if ctrl := Controller(c); ctrl != nil {
		return ctrl.State()
	}
	return domain.AuthState{}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c echo.Context) *domain.UserProfile {
	return AuthState(c).User
}
