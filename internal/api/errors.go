package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"reportai/internal/errors"
)

// ErrResponse is the JSON body of every error reply
type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	Code           string `json:"code"`
	Message        string `json:"error"`
}

// Render implements render.Renderer
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// statusFor maps an application error code to an HTTP status
func statusFor(code string) int {
	switch code {
	case errors.CodeInvalidInput, errors.CodeValidationError, errors.CodeUnsupportedFormat:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Internal failures are logged and their details
// are not sent to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)

	resp := &ErrResponse{HTTPStatusCode: status, Code: code, Message: err.Error()}
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("code", code),
			slog.Any("error", err))
		resp.Message = http.StatusText(status)
		if !errors.IsAppError(err) {
			resp.Code = errors.CodeInternalError
		}
	}
	_ = render.Render(w, r, resp)
}
