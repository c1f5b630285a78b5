package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/core/domain"
)

type stubImports struct {
	usersFn  func(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error)
	accessFn func(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error)
}

func (s *stubImports) ImportUsers(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	return s.usersFn(ctx, filename, r)
}

func (s *stubImports) ImportAccess(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	return s.accessFn(ctx, filename, r)
}

// newUploadContext builds a multipart POST /import. An empty filename leaves
// the file part out.
func newUploadContext(t *testing.T, kind, filename, content string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("kind", kind); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = io.WriteString(part, content)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	c, rec := newReviewContext(t, http.MethodPost, "/import", nil)
	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	c.SetRequest(req)
	return c, rec
}

func neverImport(t *testing.T) *stubImports {
	fail := func(context.Context, string, io.Reader) (*domain.ImportResult, error) {
		t.Fatalf("backend must not be called")
		return nil, nil
	}
	return &stubImports{usersFn: fail, accessFn: fail}
}

func TestImportHandler_RejectsBadUploads(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		message  string
	}{
		{name: "no file", message: "Please select a CSV file to import"},
		{name: "not csv", filename: "users.xlsx", message: "Please select a CSV file up to 10 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewImportHandler(NewPages(nil, zerolog.Nop()), neverImport(t), zerolog.Nop())
			c, rec := newUploadContext(t, importUsers, tt.filename, "email\n")

			if err := h.Upload(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), tt.message) {
				t.Errorf("expected 422 with %q, got %d", tt.message, rec.Code)
			}
		})
	}
}

func TestImportHandler_UnknownKind(t *testing.T) {
	h := NewImportHandler(NewPages(nil, zerolog.Nop()), neverImport(t), zerolog.Nop())
	c, _ := newUploadContext(t, "groups", "groups.csv", "name\n")

	var he *echo.HTTPError
	if err := h.Upload(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestImportHandler_ForwardsAccessFile(t *testing.T) {
	var gotName, gotBody string
	imports := &stubImports{accessFn: func(_ context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
		b, _ := io.ReadAll(r)
		gotName, gotBody = filename, string(b)
		return &domain.ImportResult{AccessesCreated: 3, Errors: []string{"Row 4: unknown user"}}, nil
	}}
	h := NewImportHandler(NewPages(nil, zerolog.Nop()), imports, zerolog.Nop())
	c, rec := newUploadContext(t, importAccess, "access.CSV", "user_id,resource\n")

	if err := h.Upload(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotName != "access.CSV" || gotBody != "user_id,resource\n" {
		t.Errorf("unexpected upload %q %q", gotName, gotBody)
	}
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "3 records created.") || !strings.Contains(body, "Row 4: unknown user") {
		t.Errorf("expected import summary, got %d", rec.Code)
	}
}

func TestImportHandler_BackendFailure(t *testing.T) {
	imports := &stubImports{usersFn: func(context.Context, string, io.Reader) (*domain.ImportResult, error) {
		return nil, errors.New("users.import: dial tcp: connection refused")
	}}
	h := NewImportHandler(NewPages(nil, zerolog.Nop()), imports, zerolog.Nop())
	c, rec := newUploadContext(t, importUsers, "users.csv", "email\n")

	if err := h.Upload(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Failed to import users. Please check your file format.") {
		t.Errorf("expected fallback message, got %d", rec.Code)
	}
}
