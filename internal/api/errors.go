package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error represents a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("social thread api: %s (HTTP %d)", e.Message, e.StatusCode)
}

// IsUnauthorized reports whether err is an api.Error for a rejected or
// expired token.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// checkResponse validates a response against the expected status codes
// (any 2xx when none are given). Error bodies follow the FastAPI convention
// {"detail": ...}, where detail is a string or a list of validation errors.
func checkResponse(resp *http.Response, want ...int) error {
	if statusOK(resp.StatusCode, want) {
		return nil
	}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if msg := detailMessage(body.Detail); msg != "" {
			return &Error{
				StatusCode: resp.StatusCode,
				Message:    msg,
			}
		}
	}

	return &Error{
		StatusCode: resp.StatusCode,
		Message:    statusMessage(resp.StatusCode),
	}
}

func statusOK(code int, want []int) bool {
	if len(want) == 0 {
		return code >= 200 && code < 300
	}

	for _, w := range want {
		if code == w {
			return true
		}
	}

	return false
}

// detailMessage flattens a FastAPI detail field into one line.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return humanizeDetail(s)
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}

	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}

	msgs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Msg == "" {
			continue
		}

		if len(it.Loc) > 0 {
			msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
			continue
		}

		msgs = append(msgs, it.Msg)
	}

	return strings.Join(msgs, "; ")
}

// humanizeDetail maps fastapi-users error codes to readable text.
func humanizeDetail(code string) string {
	switch code {
	case "LOGIN_BAD_CREDENTIALS":
		return "invalid email or password"
	case "LOGIN_USER_NOT_VERIFIED":
		return "account not verified"
	case "REGISTER_USER_ALREADY_EXISTS":
		return "an account with this email already exists"
	case "REGISTER_INVALID_PASSWORD":
		return "password rejected by server"
	default:
		return code
	}
}

// statusMessage maps HTTP status codes to human-readable error messages.
func statusMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "not logged in or session expired"
	case http.StatusForbidden:
		return "not allowed"
	case http.StatusNotFound:
		return "not found"
	case http.StatusRequestEntityTooLarge:
		return "file too large"
	case http.StatusUnsupportedMediaType:
		return "unsupported media type"
	case http.StatusUnprocessableEntity:
		return "invalid request"
	case http.StatusTooManyRequests:
		return "rate limited, try again later"
	default:
		return "unexpected error"
	}
}
