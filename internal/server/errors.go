package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/KaramelBytes/tabviz/internal/loader"
	"github.com/KaramelBytes/tabviz/internal/pipeline"
	"github.com/KaramelBytes/tabviz/internal/session"
)

// APIError is the error body of every failed API call.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// ErrorResponse wraps an APIError as {"success": false, "error": {...}}.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Error.StatusCode)
	return nil
}

func newAPIError(status int, code, message string, details any) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message, Details: details}
}

var (
	errSessionNotFound = newAPIError(http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", nil)
	errMissingFile     = newAPIError(http.StatusBadRequest, "MISSING_FILE", "multipart field 'file' is required", nil)
)

// toAPIError maps domain errors onto HTTP statuses.
func toAPIError(err error) *APIError {
	var (
		apiErr *APIError
		le     *loader.LoadError
		ve     *pipeline.ValidationError
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &le):
		return newAPIError(http.StatusUnprocessableEntity, "LOAD_FAILED", le.Message, map[string]string{"file": le.File})
	case errors.As(err, &ve):
		return newAPIError(http.StatusBadRequest, "VALIDATION_FAILED", "selection validation failed", ve)
	case errors.As(err, &tooBig):
		return newAPIError(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "upload exceeds the size limit", map[string]int64{"max_bytes": tooBig.Limit})
	case errors.Is(err, session.ErrNotFound):
		return errSessionNotFound
	default:
		return newAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", nil)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	level := slog.LevelInfo
	if apiErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.String("error_code", apiErr.ErrorCode),
		slog.Int("status", apiErr.StatusCode),
		slog.String("path", r.URL.Path),
	)
	render.Render(w, r, &ErrorResponse{Success: false, Error: apiErr})
}

// requestLogger logs one line per request once it completes.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.DebugContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
			)
		})
	}
}
