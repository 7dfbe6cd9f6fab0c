package storeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int               `json:"status"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("storefront api error (status %d, %s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("storefront api error (status %d): %s", e.Status, msg)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests || e.Status == http.StatusRequestTimeout
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	var payload struct {
		Message string            `json:"message"`
		Error   any               `json:"error"`
		Code    string            `json:"code"`
		Errors  map[string]string `json:"errors"`
		Fields  map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		e.Message = strings.TrimSpace(string(body))
		return e
	}
	e.Code = payload.Code
	e.Message = payload.Message
	if s, ok := payload.Error.(string); ok && e.Message == "" {
		e.Message = s
	}
	e.Fields = payload.Fields
	if len(e.Fields) == 0 {
		e.Fields = payload.Errors
	}
	return e
}
