// Package backend is the service layer in front of the Condaura REST API.
// Every method performs exactly one HTTP call: no retries, no caching.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/condaura/portal/internal/api/metrics"
	"github.com/condaura/portal/internal/core/domain"
	"github.com/condaura/portal/internal/core/ports"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 1 << 20
)

// Client is the single shared HTTP client for the backend. The bearer
// credential is read from the request context (ports.WithCredential).
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient validates baseURL and returns a client with the given timeout.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid base url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// Ping issues a bare GET against the API root. Any HTTP response, even an
// error status, means the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend ping: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}

// do sends one request. op is a low-cardinality label for metrics and logs.
// Non-2xx responses are returned as *APIError with the body consumed.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cred := ports.CredentialFromContext(ctx); cred != "" {
		req.Header.Set("Authorization", "Bearer "+cred)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(op, "error").Observe(elapsed.Seconds())
		c.log.Warn().Err(err).Str("op", op).Str("method", method).Str("path", path).Msg("backend request failed")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.BackendRequestDuration.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Observe(elapsed.Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := parseAPIError(resp.StatusCode, raw)
		c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Str("detail", apiErr.PublicMessage()).Msg("backend returned error")
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, op, http.MethodGet, path, query, nil, "")
	if err != nil {
		return err
	}
	return decode(op, resp, out)
}

// sendJSON encodes in (when non-nil) and decodes the response into out
// (when non-nil).
func (c *Client) sendJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, op, method, path, nil, body, contentType)
	if err != nil {
		return err
	}
	return decode(op, resp, out)
}

func (c *Client) getBlob(ctx context.Context, op, path string, query url.Values) (*domain.Export, error) {
	resp, err := c.do(ctx, op, http.MethodGet, path, query, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	return &domain.Export{ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}

// upload posts r as the multipart field "file".
func (c *Client) upload(ctx context.Context, op, path, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("%s: create form file: %w", op, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("%s: copy file: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("%s: close multipart: %w", op, err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, path, nil, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	return decode(op, resp, out)
}

func decode(op string, resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}
