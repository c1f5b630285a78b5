package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/api/handler"
	"github.com/condaura/portal/internal/api/middleware"
	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/service"
	"github.com/condaura/portal/internal/infrastructure/backend"
	"github.com/condaura/portal/internal/infrastructure/db/memory"
	"github.com/condaura/portal/internal/infrastructure/http/handlers"
	"github.com/condaura/portal/internal/infrastructure/secure"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubAuth struct{}

func (stubAuth) Login(context.Context, domain.Credentials) (*domain.AuthResult, error) {
	return nil, &backend.APIError{Status: http.StatusUnauthorized, Detail: "Invalid credentials"}
}

func (stubAuth) Register(context.Context, domain.Registration) (*domain.AuthResult, error) {
	return nil, &backend.APIError{Status: http.StatusBadRequest, Detail: "closed"}
}

// ---------------------------------------------------------------------------
// Router
// ---------------------------------------------------------------------------

// The prometheus middleware registers collectors globally, so the whole
// router is exercised from a single instance.
func TestRouter(t *testing.T) {
	keys, err := secure.DeriveKeys("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("derive keys: %v", err)
	}
	cookies := secure.NewBrowserCookies(keys.Cookie)
	stores := memory.NewFactory()
	registry := service.NewControllerRegistry(stores, stubAuth{}, zerolog.Nop())

	e, err := NewRouter(RouterDeps{
		Log:      zerolog.Nop(),
		Registry: registry,
		Cookies:  cookies,
		Checks: map[string]handlers.Check{
			"sessions": func(context.Context) error { return nil },
		},
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	browser := func(profile *domain.UserProfile) *http.Cookie {
		id, token, err := cookies.Issue()
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if profile != nil {
			if err := stores.Scope(id).Save(context.Background(), "tok", profile); err != nil {
				t.Fatalf("save: %v", err)
			}
		}
		return &http.Cookie{Name: middleware.CookieName, Value: token}
	}
	serve := func(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}
	get := func(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(echo.HeaderAccept, "text/html")
		return serve(req, cookie)
	}

	t.Run("health", func(t *testing.T) {
		if rec := get("/health", nil); rec.Code != http.StatusOK {
			t.Errorf("liveness: expected 200, got %d", rec.Code)
		}
		if rec := get("/health/ready", nil); rec.Code != http.StatusOK {
			t.Errorf("readiness: expected 200, got %d", rec.Code)
		}
	})

	t.Run("root and unknown paths", func(t *testing.T) {
		rec := get("/", nil)
		if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != service.DashboardPath {
			t.Errorf("root: got %d %s", rec.Code, rec.Header().Get(echo.HeaderLocation))
		}
		rec = get("/no/such/page", nil)
		if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/" {
			t.Errorf("unknown: got %d %s", rec.Code, rec.Header().Get(echo.HeaderLocation))
		}
	})

	t.Run("unknown non-GET is not routed through the guards", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodDelete} {
			req := httptest.NewRequest(method, "/nope", nil)
			req.Header.Set(echo.HeaderAccept, "text/html")
			rec := serve(req, nil)
			if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s /nope: expected 404 or 405, got %d %s", method, rec.Code, rec.Header().Get(echo.HeaderLocation))
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Errorf("%s /nope: expected no browser cookie", method)
			}
		}
	})

	t.Run("anonymous dashboard goes to login", func(t *testing.T) {
		rec := get("/dashboard", nil)
		if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != service.LoginPath {
			t.Fatalf("got %d %s", rec.Code, rec.Header().Get(echo.HeaderLocation))
		}
		if len(rec.Result().Cookies()) != 1 {
			t.Errorf("expected browser cookie to be issued")
		}
	})

	t.Run("login page renders", func(t *testing.T) {
		rec := get("/login", browser(nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Login to Condaura") {
			t.Errorf("got %d", rec.Code)
		}
	})

	t.Run("front office kept out of admin pages", func(t *testing.T) {
		cookie := browser(&domain.UserProfile{ID: 2, Role: domain.RoleFrontOffice})
		for _, path := range []string{"/reports", "/import", "/campaigns/new"} {
			rec := get(path, cookie)
			if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != service.DashboardPath {
				t.Errorf("%s: got %d %s", path, rec.Code, rec.Header().Get(echo.HeaderLocation))
			}
		}
	})

	t.Run("profile renders for signed-in user", func(t *testing.T) {
		cookie := browser(&domain.UserProfile{ID: 3, Email: "p@b.com", FirstName: "Pat", LastName: "Doe", Role: domain.RoleDAO})
		rec := get("/profile", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "p@b.com") {
			t.Errorf("expected profile email in page")
		}
	})

	t.Run("api requires session", func(t *testing.T) {
		rec := serve(httptest.NewRequest(http.MethodGet, "/api/notifications/unread-count", nil), nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
			t.Errorf("expected error envelope, got %s", rec.Body.String())
		}
	})

	t.Run("failed login keeps error in session state", func(t *testing.T) {
		cookie := browser(nil)
		form := url.Values{"email": {"a@b.com"}, "password": {"bad"}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := serve(req, cookie)
		if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Invalid credentials") {
			t.Fatalf("got %d", rec.Code)
		}

		rec = serve(httptest.NewRequest(http.MethodGet, "/api/session", nil), cookie)
		var state domain.AuthState
		if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if state.IsAuthenticated || state.Error != "Invalid credentials" {
			t.Errorf("unexpected state %+v", state)
		}
	})
}

// ---------------------------------------------------------------------------
// Error handler
// ---------------------------------------------------------------------------

func TestResolveError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid form"), http.StatusBadRequest, "invalid form"},
		{"field errors", handler.FieldErrors{"email": "email is required"}, http.StatusUnprocessableEntity, "email is required"},
		{"not authenticated", fmt.Errorf("x: %w", domain.ErrNotAuthenticated), http.StatusUnauthorized, "authentication required"},
		{"backend 401", &backend.APIError{Status: http.StatusUnauthorized}, http.StatusUnauthorized, "authentication required"},
		{"backend 403", &backend.APIError{Status: http.StatusForbidden, Detail: "nope"}, http.StatusForbidden, "access forbidden"},
		{"in progress", domain.ErrOperationInProgress, http.StatusConflict, domain.ErrOperationInProgress.Error()},
		{"bad export", fmt.Errorf("export: %w", domain.ErrInvalidExportFormat), http.StatusBadRequest, "invalid export format"},
		{"canceled", context.Canceled, statusClientClosed, "request canceled"},
		{"backend 404", &backend.APIError{Status: http.StatusNotFound, Detail: "Not found."}, http.StatusNotFound, "not found"},
		{"backend 500", &backend.APIError{Status: http.StatusInternalServerError}, http.StatusBadGateway, "backend unavailable"},
		{"backend validation", &backend.APIError{Status: http.StatusBadRequest, Fields: map[string][]string{"name": {"required"}}}, http.StatusBadRequest, "name: required"},
		{"backend bare 400", &backend.APIError{Status: http.StatusBadRequest}, http.StatusBadRequest, "bad request"},
		{"unreachable", &url.Error{Op: "Get", URL: "http://backend", Err: errors.New("connection refused")}, http.StatusBadGateway, "backend unavailable"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), httptest.NewRecorder())
			code, msg := resolveError(tt.err, zerolog.Nop(), c)
			if code != tt.code || msg != tt.msg {
				t.Errorf("resolveError() = %d %q, want %d %q", code, msg, tt.code, tt.msg)
			}
		})
	}
}

func TestHTTPErrorHandler_JSONForAPI(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set(echo.HeaderAccept, "text/html")
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrForbidden, c)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"access forbidden"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHTTPErrorHandler_PageForBrowsers(t *testing.T) {
	renderer, err := handler.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	e := echo.New()
	e.Renderer = renderer
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/campaigns/99", nil)
	req.Header.Set(echo.HeaderAccept, "text/html,application/xhtml+xml")
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(&backend.APIError{Status: http.StatusNotFound}, c)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMETextHTML) {
		t.Errorf("expected html, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "not found") {
		t.Errorf("expected message in page")
	}
}
