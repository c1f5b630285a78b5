package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/condaura/portal/internal/core/domain"
)

const nonFieldErrors = "non_field_errors"

// APIError is a non-2xx response from the backend. Detail comes from the
// {"detail": "..."} envelope; Fields holds a per-field validation bag.
type APIError struct {
	Status int
	Detail string
	Fields map[string][]string
}

func (e *APIError) Error() string {
	if msg := e.PublicMessage(); msg != "" {
		return fmt.Sprintf("backend: %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("backend: %d %s", e.Status, http.StatusText(e.Status))
}

// PublicMessage returns Detail, or the field messages joined as
// "field: message" in field order, or "".
func (e *APIError) PublicMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.Fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		msg := strings.Join(e.Fields[name], " ")
		if name == nonFieldErrors {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, name+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// Is lets callers match auth failures with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotAuthenticated:
		return e.Status == http.StatusUnauthorized
	case domain.ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

// parseAPIError decodes whatever structured payload the backend sent.
// Unparseable bodies produce an error with only the status set.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var bag map[string]json.RawMessage
	if err := json.Unmarshal(body, &bag); err != nil {
		return apiErr
	}

	if raw, ok := bag["detail"]; ok {
		var detail string
		if json.Unmarshal(raw, &detail) == nil {
			apiErr.Detail = detail
			return apiErr
		}
	}

	for name, raw := range bag {
		var many []string
		if json.Unmarshal(raw, &many) == nil && len(many) > 0 {
			apiErr.addField(name, many...)
			continue
		}
		var one string
		if json.Unmarshal(raw, &one) == nil && one != "" {
			apiErr.addField(name, one)
		}
	}
	return apiErr
}

func (e *APIError) addField(name string, msgs ...string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[name] = append(e.Fields[name], msgs...)
}
