package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"math"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/api/middleware"
	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// View is the data every page template receives. Data holds the
// page-specific model.
type View struct {
	Title   string
	Path    string
	User    *domain.UserProfile
	IsAdmin bool
	Unread  int
	Flash   *Flash
	Error   string
	Fields  FieldErrors
	Data    any
}

// Renderer implements echo.Renderer over the embedded page templates. Each
// page is parsed together with the layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every embedded page.
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render satisfies echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("render: unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

var funcs = template.FuncMap{
	"badge": func(n int) string {
		if n > 9 {
			return "9+"
		}
		return fmt.Sprint(n)
	},
	"date": func(s string) string {
		if t, err := time.Parse(dateLayout, s); err == nil {
			return t.Format("Jan 2, 2006")
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.Format("Jan 2, 2006")
		}
		return s
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006 15:04")
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.0f%%", math.Round(f))
	},
	"initials": func(u *domain.UserProfile) string {
		if u == nil {
			return ""
		}
		return firstRune(u.FirstName) + firstRune(u.LastName)
	},
	"lower": strings.ToLower,
	"list": func(items ...string) []string { return items },
	"add":  func(a, b int) int { return a + b },
	"active": func(current, prefix string) bool {
		return current == prefix || strings.HasPrefix(current, prefix+"/")
	},
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// Pages assembles the View chrome shared by all pages.
type Pages struct {
	notifications ports.NotificationService
	log           zerolog.Logger
}

func NewPages(notifications ports.NotificationService, log zerolog.Logger) *Pages {
	return &Pages{notifications: notifications, log: log}
}

// Render fills the layout fields of v from the request and renders page.
// A failing unread count only hides the badge.
func (p *Pages) Render(c echo.Context, status int, page string, v View) error {
	state := middleware.AuthState(c)
	v.Path = c.Request().URL.Path
	v.User = state.User
	v.IsAdmin = domain.IsAdmin(state.User)
	if v.Flash == nil {
		v.Flash = popFlash(c)
	}

	if v.User != nil && p.notifications != nil {
		n, err := p.notifications.UnreadCount(c.Request().Context())
		if err != nil {
			p.log.Debug().Err(err).Msg("unread count unavailable")
		} else {
			v.Unread = n
		}
	}
	return c.Render(status, page, v)
}
