package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/condaura/portal/docs"
	"github.com/condaura/portal/internal/api/handler"
	"github.com/condaura/portal/internal/api/middleware"
	"github.com/condaura/portal/internal/core/ports"
	"github.com/condaura/portal/internal/core/service"
	"github.com/condaura/portal/internal/infrastructure/http/handlers"
	"github.com/condaura/portal/internal/infrastructure/secure"
)

// RouterDeps carries everything the router wires into handlers.
type RouterDeps struct {
	Log          zerolog.Logger
	Registry     *service.ControllerRegistry
	Cookies      *secure.BrowserCookies
	CookieSecure bool

	Passwords     ports.PasswordService
	Campaigns     ports.CampaignService
	Reviews       ports.ReviewService
	Notifications ports.NotificationService
	Imports       ports.ImportService
	Reports       ports.ReportService

	// Checks feed the readiness probe.
	Checks map[string]handlers.Check
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d RouterDeps) (*echo.Echo, error) {
	renderer, err := handler.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Renderer = renderer
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("portal"))
	e.Use(middleware.RequestLogger(d.Log))

	// --- Operational routes (no browser session) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Browser routes ---
	// Middleware is attached per route: a prefix-less group would also claim
	// unmatched paths for every method.
	session := middleware.Session(middleware.SessionConfig{
		Cookies:  d.Cookies,
		Registry: d.Registry,
		Secure:   d.CookieSecure,
		Log:      d.Log,
	})
	web := []echo.MiddlewareFunc{session}
	authed := []echo.MiddlewareFunc{session, middleware.RequireAuth()}
	admin := []echo.MiddlewareFunc{session, middleware.RequireAdmin()}
	api := []echo.MiddlewareFunc{session, middleware.RequireAPIAuth(service.PolicyAuthenticated)}

	pages := handler.NewPages(d.Notifications, d.Log)
	authH := handler.NewAuthHandler(pages, d.Log)
	dashH := handler.NewDashboardHandler(pages, d.Campaigns, d.Reviews, d.Notifications, d.Log)
	campH := handler.NewCampaignHandler(pages, d.Campaigns, d.Reviews, d.Log)
	revH := handler.NewReviewHandler(pages, d.Reviews, d.Log)
	notH := handler.NewNotificationHandler(pages, d.Notifications, d.Log)
	repH := handler.NewReportHandler(pages, d.Campaigns, d.Reviews, d.Reports, d.Log)
	impH := handler.NewImportHandler(pages, d.Imports, d.Log)
	profH := handler.NewProfileHandler(pages)
	sessAPI := handler.NewSessionAPI(d.Passwords, d.Notifications, d.Log)

	// Public pages.
	e.GET("/login", authH.LoginPage, web...)
	e.POST("/login", authH.Login, web...)
	e.GET("/register", authH.RegisterPage, web...)
	e.POST("/register", authH.Register, web...)
	e.POST("/logout", authH.Logout, web...)

	// Authenticated pages.
	e.GET("/dashboard", dashH.Show, authed...)
	e.GET("/campaigns", campH.List, authed...)
	e.GET("/campaigns/:id", campH.Show, authed...)
	e.GET("/campaigns/:id/export/:format", campH.Export, authed...)
	e.GET("/reviews", revH.List, authed...)
	e.POST("/reviews/:id/decide", revH.Decide, authed...)
	e.POST("/reviews/bulk", revH.Bulk, authed...)
	e.GET("/notifications", notH.List, authed...)
	e.POST("/notifications/:id/read", notH.MarkRead, authed...)
	e.POST("/notifications/:id/delete", notH.Delete, authed...)
	e.POST("/notifications/read-all", notH.MarkAllRead, authed...)
	e.GET("/profile", profH.Show, authed...)

	// Administrator pages.
	e.GET("/campaigns/new", campH.NewPage, admin...)
	e.POST("/campaigns/new", campH.Create, admin...)
	e.POST("/campaigns/:id/start", campH.Start, admin...)
	e.POST("/campaigns/:id/complete", campH.Complete, admin...)
	e.POST("/campaigns/:id/archive", campH.Archive, admin...)
	e.GET("/reports", repH.Show, admin...)
	e.GET("/reports/export/:format", repH.Export, admin...)
	e.GET("/import", impH.Page, admin...)
	e.POST("/import", impH.Upload, admin...)

	// JSON session API.
	e.GET("/api/session", sessAPI.State, web...)
	e.POST("/api/session/login", sessAPI.Login, web...)
	e.POST("/api/session/register", sessAPI.Register, web...)
	e.DELETE("/api/session", sessAPI.Logout, web...)
	e.DELETE("/api/session/error", sessAPI.ClearError, web...)
	e.POST("/api/password/forgot", sessAPI.ForgotPassword, web...)
	e.POST("/api/password/reset", sessAPI.ResetPassword, web...)
	e.GET("/api/notifications/unread-count", sessAPI.UnreadCount, api...)

	// Root goes to the dashboard; anything unknown goes to the root.
	e.GET("/", redirectTo(service.DashboardPath))
	e.GET("/*", redirectTo("/"))

	return e, nil
}

func redirectTo(location string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Redirect(http.StatusFound, location)
	}
}
