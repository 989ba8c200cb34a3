package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to a user message and code
//  4. The code picks the HTTP status
//  5. Technical error is logged with the request ID, the user message is
//     rendered as JSON, an HTMX fragment or plain HTML

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/PranavYehale/FCTC-TOOL/internal/core"
	"github.com/PranavYehale/FCTC-TOOL/internal/logging"
	"github.com/PranavYehale/FCTC-TOOL/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the JSON body of a failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusByCode maps user-facing codes to HTTP statuses. Codes not listed
// are server errors.
var statusByCode = map[string]int{
	"SCH001":  http.StatusBadRequest,
	"SCH002":  http.StatusBadRequest,
	"SCH003":  http.StatusBadRequest,
	"REC001":  http.StatusBadRequest,
	"REC003":  http.StatusBadRequest,
	"FILE001": http.StatusRequestEntityTooLarge,
	"FILE002": http.StatusBadRequest,
	"FILE003": http.StatusBadRequest,
	"FILE004": http.StatusBadRequest,
	"FILE005": http.StatusBadRequest,
	"FILE006": http.StatusBadRequest,
	"FILE007": http.StatusNotFound,
	"RUN001":  http.StatusServiceUnavailable,
	"RUN002":  http.StatusBadRequest,
	"RUN003":  http.StatusGatewayTimeout,
	"RUN005":  http.StatusTooManyRequests,
}

// statusFor returns the HTTP status for a user message.
func statusFor(msg core.UserMessage) int {
	if status, ok := statusByCode[msg.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped user message in the format
// the client asked for.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	status := statusFor(userMsg)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"error", err.Error(),
			"code", userMsg.Code,
		)
	} else {
		logger.Warn("request rejected",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"error", err.Error(),
			"code", userMsg.Code,
		)
	}

	switch {
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, status)
	default:
		renderErrorHTML(w, r, userMsg, status)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// renderErrorHTML renders the error alert for browsers and HTMX swaps.
func renderErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response. API routes and
// form posts default to JSON unless HTMX asked for a fragment.
func wantsJSON(r *http.Request) bool {
	if isHTMX(r) {
		return false
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.Method != http.MethodGet || strings.HasPrefix(r.URL.Path, "/api/")
}
