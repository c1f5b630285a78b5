package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
	"github.com/condaura/portal/internal/core/service"
	"github.com/condaura/portal/internal/infrastructure/db/memory"
	"github.com/condaura/portal/internal/infrastructure/secure"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubAuth struct {
	loginFn func(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
}

func (a *stubAuth) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	return a.loginFn(ctx, creds)
}

func (a *stubAuth) Register(context.Context, domain.Registration) (*domain.AuthResult, error) {
	return nil, domain.ErrForbidden
}

type fixture struct {
	cookies  *secure.BrowserCookies
	stores   *memory.Factory
	registry *service.ControllerRegistry
	session  echo.MiddlewareFunc
}

func newFixture(t *testing.T, auth *stubAuth) *fixture {
	t.Helper()
	keys, err := secure.DeriveKeys("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("derive keys: %v", err)
	}
	f := &fixture{
		cookies: secure.NewBrowserCookies(keys.Cookie),
		stores:  memory.NewFactory(),
	}
	f.registry = service.NewControllerRegistry(f.stores, auth, zerolog.Nop())
	f.session = Session(SessionConfig{Cookies: f.cookies, Registry: f.registry, Log: zerolog.Nop()})
	return f
}

// browser issues a cookie and, when profile is set, stores a session for it.
func (f *fixture) browser(t *testing.T, profile *domain.UserProfile) (string, *http.Cookie) {
	t.Helper()
	id, token, err := f.cookies.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if profile != nil {
		if err := f.stores.Scope(id).Save(context.Background(), "tok-"+id, profile); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	return id, &http.Cookie{Name: CookieName, Value: token}
}

func (f *fixture) serve(t *testing.T, cookie *http.Cookie, mws []echo.MiddlewareFunc, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := next
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return rec, f.session(h)(c)
}

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSession_IssuesCookieForNewBrowser(t *testing.T) {
	f := newFixture(t, &stubAuth{})

	var bound string
	rec, err := f.serve(t, nil, nil, func(c echo.Context) error {
		bound = BrowserID(c)
		if Controller(c) == nil {
			t.Fatalf("no controller bound")
		}
		if AuthState(c).IsAuthenticated {
			t.Fatalf("new browser must be anonymous")
		}
		return ok(c)
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("expected browser cookie, got %v", cookies)
	}
	if !cookies[0].HttpOnly || cookies[0].SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie flags not set: %+v", cookies[0])
	}
	id, err := f.cookies.Parse(cookies[0].Value)
	if err != nil || id != bound {
		t.Errorf("cookie names %q (%v), handler saw %q", id, err, bound)
	}
}

func TestSession_ReusesValidCookie(t *testing.T) {
	f := newFixture(t, &stubAuth{})
	id, cookie := f.browser(t, &domain.UserProfile{ID: 1, Role: domain.RoleFrontOffice})

	rec, err := f.serve(t, cookie, nil, func(c echo.Context) error {
		if BrowserID(c) != id {
			t.Errorf("expected browser %s, got %s", id, BrowserID(c))
		}
		if u := CurrentUser(c); u == nil || u.ID != 1 {
			t.Errorf("expected stored user, got %+v", u)
		}
		if got := ports.CredentialFromContext(c.Request().Context()); got != "tok-"+id {
			t.Errorf("credential not bound, got %q", got)
		}
		return ok(c)
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Errorf("valid cookie must not be reissued")
	}
}

func TestSession_ReplacesTamperedCookie(t *testing.T) {
	f := newFixture(t, &stubAuth{})
	id, cookie := f.browser(t, &domain.UserProfile{ID: 1})
	cookie.Value += "x"

	rec, err := f.serve(t, cookie, nil, func(c echo.Context) error {
		if BrowserID(c) == id {
			t.Errorf("tampered cookie must not resolve to the issuing browser")
		}
		if AuthState(c).IsAuthenticated {
			t.Errorf("tampered cookie must start anonymous")
		}
		return ok(c)
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Errorf("expected a replacement cookie")
	}
}
