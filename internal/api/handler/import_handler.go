package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
)

const maxImportSize = 10 << 20

// Import kinds selected by the "kind" form field.
const (
	importUsers  = "users"
	importAccess = "access"
)

// ImportHandler uploads user and access CSV files for administrators.
type ImportHandler struct {
	pages   *Pages
	imports ports.ImportService
	log     zerolog.Logger
}

func NewImportHandler(pages *Pages, imports ports.ImportService, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{pages: pages, imports: imports, log: log}
}

type importData struct {
	Kind   string
	Result *domain.ImportResult
}

func (h *ImportHandler) Page(c echo.Context) error {
	kind := c.QueryParam("kind")
	if kind != importAccess {
		kind = importUsers
	}
	return h.pages.Render(c, http.StatusOK, "import", View{Title: "Import", Data: importData{Kind: kind}})
}

// Upload forwards the CSV unchanged; rows are validated by the backend.
func (h *ImportHandler) Upload(c echo.Context) error {
	kind := c.FormValue("kind")
	if kind != importUsers && kind != importAccess {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown import kind")
	}
	data := importData{Kind: kind}

	fh, err := c.FormFile("file")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			h.log.Debug().Err(err).Msg("import form unreadable")
		}
		return h.pages.Render(c, http.StatusUnprocessableEntity, "import", View{
			Title:  "Import",
			Fields: FieldErrors{"file": "Please select a CSV file to import"},
			Data:   data,
		})
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") || fh.Size > maxImportSize {
		return h.pages.Render(c, http.StatusUnprocessableEntity, "import", View{
			Title:  "Import",
			Fields: FieldErrors{"file": "Please select a CSV file up to 10 MB"},
			Data:   data,
		})
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := c.Request().Context()
	var res *domain.ImportResult
	fallback := "Failed to import users. Please check your file format."
	if kind == importUsers {
		res, err = h.imports.ImportUsers(ctx, fh.Filename, f)
	} else {
		fallback = "Failed to import access data. Please check your file format."
		res, err = h.imports.ImportAccess(ctx, fh.Filename, f)
	}
	if err != nil {
		h.log.Warn().Err(err).Str("kind", kind).Str("file", fh.Filename).Msg("import failed")
		return h.pages.Render(c, http.StatusUnprocessableEntity, "import", View{
			Title: "Import",
			Error: userMessage(err, fallback),
			Data:  data,
		})
	}

	h.log.Info().Str("kind", kind).Int("created", res.Created()).Int("errors", len(res.Errors)).Msg("import finished")
	data.Result = res
	return h.pages.Render(c, http.StatusOK, "import", View{Title: "Import", Data: data})
}
