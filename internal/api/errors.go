package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/lumenhub-core/internal/aggregate"
	"github.com/nerrad567/lumenhub-core/internal/device"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest           = "bad_request"
	ErrCodeNotFound             = "not_found"
	ErrCodeUnauthorized         = "unauthorised"
	ErrCodeConflict             = "conflict"
	ErrCodeLinkButtonNotPressed = "link_button_not_pressed"
	ErrCodeUpstreamUnreachable  = "upstream_unreachable"
	ErrCodeUpstreamProtocol     = "upstream_protocol_error"
	ErrCodeInternal             = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// classifyError maps a service error to its HTTP status and code.
// Order matters: the link-button and not-found checks come before the
// generic upstream ones.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, aggregate.ErrInvalidBridge):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, device.ErrUnauthorized):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, device.ErrLinkButtonNotPressed):
		return http.StatusUnauthorized, ErrCodeLinkButtonNotPressed
	case errors.Is(err, device.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, device.ErrConflict):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, device.ErrUpstreamUnreachable):
		return http.StatusBadGateway, ErrCodeUpstreamUnreachable
	case errors.Is(err, device.ErrUpstreamProtocol):
		return http.StatusBadGateway, ErrCodeUpstreamProtocol
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// writeServiceError answers r with the classified form of err. Internal
// errors are logged and replaced by a generic message.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classifyError(err)
	message := err.Error()

	switch {
	case status == http.StatusInternalServerError:
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		message = "internal server error"
	case status == http.StatusBadGateway:
		s.logger.Warn("upstream request failed",
			"path", r.URL.Path,
			"error", err,
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	case errors.Is(err, device.ErrConflict):
		message = "Bridge already exists"
	}

	writeError(w, status, code, message)
}
