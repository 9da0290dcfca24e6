package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
	"github.com/shandysiswandi/datasprint/internal/pkg/validator"
)

const defaultSuccessMessage = "request has been successfully"

type errorResponse struct {
	Success    bool              `json:"success" example:"false"`
	StatusCode int               `json:"status_code" example:"400"`
	Error      string            `json:"error" example:"Bad Request"`
	Message    string            `json:"message" example:"Validation error"`
	Details    map[string]string `json:"details,omitempty" swaggertype:"object"`
	Stack      []string          `json:"stack,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Path       string            `json:"path" example:"/api/auth/register"`
	Method     string            `json:"method" example:"POST"`
}

type successResponse struct {
	Message string         `json:"message" example:"Login successful"`
	Data    any            `json:"data" swaggertype:"object"`
	Meta    map[string]any `json:"meta,omitempty" swaggertype:"object"`
}

// File makes a handler stream Body as a download instead of the JSON envelope.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// Optional behaviours a handler result may implement.
type (
	withStatus  interface{ StatusCode() int }
	withMessage interface{ Message() string }
	withMeta    interface{ Meta() map[string]any }
)

func (ro *Router) encodeSuccess(ctx context.Context, w http.ResponseWriter, resp any) {
	if f, ok := resp.(*File); ok {
		writeFile(ctx, w, f)
		return
	}

	status := http.StatusOK
	if s, ok := resp.(withStatus); ok {
		status = s.StatusCode()
	}
	if resp == nil || status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body := successResponse{Message: defaultSuccessMessage, Data: resp}
	if m, ok := resp.(withMessage); ok {
		body.Message = m.Message()
	}
	if m, ok := resp.(withMeta); ok {
		body.Meta = m.Meta()
	}

	writeJSON(w, status, body)
}

// encodeError maps err to the error envelope. Anything that is not a
// *goerror.Error is an internal error. In debug mode server errors expose
// their cause under details.cause.
func (ro *Router) encodeError(w http.ResponseWriter, r *http.Request, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		var details map[string]string
		if ro.debug && err != nil {
			details = map[string]string{"cause": err.Error()}
		}
		writeError(w, r, http.StatusInternalServerError, "Internal server error", details, nil)
		return
	}

	details := gerr.Fields()
	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		details = verr.Values()
	}
	if ro.debug && gerr.Type() == goerror.TypeServer && gerr.Unwrap() != nil {
		details = map[string]string{"cause": gerr.Unwrap().Error()}
	}
	if len(details) == 0 {
		details = nil
	}

	writeError(w, r, gerr.StatusCode(), gerr.Msg(), details, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode json response", "error", err)
	}
}

// writeError writes the only error envelope the API produces.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, details map[string]string, stack []string) {
	if msg == "" {
		msg = http.StatusText(status)
	}

	writeJSON(w, status, errorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    msg,
		Details:    details,
		Stack:      stack,
		Timestamp:  time.Now().UTC(),
		Path:       r.URL.Path,
		Method:     r.Method,
	})
}

func writeFile(ctx context.Context, w http.ResponseWriter, f *File) {
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	h := w.Header()
	h.Set("Content-Type", ct)
	h.Set("Content-Length", strconv.Itoa(len(f.Body)))
	if f.Name != "" {
		h.Set("Content-Disposition", "attachment; filename="+f.Name)
	}
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(f.Body); err != nil {
		slog.ErrorContext(ctx, "failed to write file response", "file", f.Name, "error", err)
	}
}
