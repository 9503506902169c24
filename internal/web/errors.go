package web

// errors.go provides unified error response handling for the web layer.
//
// Errors are logged with full technical detail server-side, mapped through
// core.MapError, and rendered as JSON for API clients, an alert fragment for
// HTMX, or plain text otherwise.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/unitconv/internal/core"
	"github.com/JonMunkholm/unitconv/internal/logging"
	"github.com/JonMunkholm/unitconv/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Unit    string `json:"unit,omitempty"`
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownCategory):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownUnit), errors.Is(err, core.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidFactor),
		errors.Is(err, core.ErrDivisionByZero),
		errors.Is(err, core.ErrOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyBatches):
		return http.StatusTooManyRequests
	}

	switch core.MapError(err).Code {
	case "REQ001", "REQ002":
		return http.StatusBadRequest
	case "HIST001":
		return http.StatusServiceUnavailable
	case "REQ005":
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// errorResponse builds the JSON body for err.
func errorResponse(err error) ErrorResponse {
	msg := core.MapError(err)
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Unit:    core.OffendingUnit(err),
	}
}

// respondError logs the technical error and writes a user-friendly response
// in the format the client expects.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	// Bad catalog data is an operator problem even though the status is 4xx.
	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError ||
		(statusCode == http.StatusUnprocessableEntity && !core.IsRequestError(err)) {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, err, statusCode)
	case wantsJSON(r):
		respondErrorJSON(w, err, statusCode)
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse(err))
}

// renderErrorPartial renders an HTMX error fragment. htmx ignores non-2xx
// bodies by default, so the fragment is sent with 200 and the real status
// travels in a header.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	msg := core.MapError(err)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Error-Status", http.StatusText(statusCode))
	w.WriteHeader(http.StatusOK)

	view := templates.ErrorView{
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Unit:    core.OffendingUnit(err),
	}
	if renderErr := templates.ErrorAlert(view).Render(r.Context(), w); renderErr != nil {
		slog.Error("render error alert", "error", renderErr)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
