package schedulerapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const maxErrorBody = 300

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	// Detail is the server's top-level message, if it sent one.
	Detail string
	// Fields maps a request field to the server's complaint about it.
	Fields map[string]string
	Body   string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("scheduler API returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("scheduler API returned %d: %s", e.StatusCode, e.Body)
}

// DetailOf returns the server-provided detail message carried by err, if any.
func DetailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// newAPIError decodes the {"detail": ...} envelope. detail is either a
// string or a list of {"loc": [...], "msg": "..."} validation entries.
func newAPIError(status int, body []byte) *APIError {
	msg := string(body)
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	apiErr := &APIError{StatusCode: status, Body: msg}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}

	var entries []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &entries); err != nil {
		return apiErr
	}
	apiErr.Fields = make(map[string]string, len(entries))
	msgs := make([]string, 0, len(entries))
	for _, entry := range entries {
		field := ""
		if n := len(entry.Loc); n > 0 {
			field = fmt.Sprint(entry.Loc[n-1])
		}
		if field != "" {
			apiErr.Fields[field] = entry.Msg
			msgs = append(msgs, field+": "+entry.Msg)
		} else {
			msgs = append(msgs, entry.Msg)
		}
	}
	apiErr.Detail = strings.Join(msgs, "; ")
	return apiErr
}
