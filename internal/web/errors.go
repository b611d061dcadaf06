package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/scorecharts/internal/core"
	"github.com/JonMunkholm/scorecharts/internal/logging"
	"github.com/JonMunkholm/scorecharts/internal/pipeline"
	"github.com/JonMunkholm/scorecharts/internal/table"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Action  string      `json:"action,omitempty"`
	Code    string      `json:"code"`
	Issues  []IssueJSON `json:"issues,omitempty"`
}

// IssueJSON locates one problem in the uploaded table.
type IssueJSON struct {
	Code   string `json:"code"`
	Error  string `json:"error"`
	Column string `json:"column,omitempty"`
	Line   int    `json:"line,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func issuesJSON(err error) []IssueJSON {
	list := core.IssuesOf(err)
	out := make([]IssueJSON, 0, len(list))
	for _, is := range list {
		out = append(out, IssueJSON{
			Code:   core.MapError(is).Code,
			Error:  is.Err.Error(),
			Column: is.Column,
			Line:   is.Line,
			Detail: is.Detail,
		})
	}
	return out
}

// statusFor picks the HTTP status for a failed run.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, pipeline.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &maxBytes), errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, table.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errNoFile), errors.Is(err, errBadForm):
		return http.StatusBadRequest
	case core.IsUserFacing(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err with full detail and sends the user-facing message,
// as JSON for API clients and as an HTML page otherwise.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request error", "path", r.URL.Path, "status", status, "code", msg.Code, "error", err)
	} else {
		log.Warn("request rejected", "path", r.URL.Path, "status", status, "code", msg.Code, "error", err)
	}

	if wantsJSON(r) {
		render.Status(r, status)
		render.JSON(w, r, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
			Issues:  issuesJSON(err),
		})
		return
	}

	s.renderPage(w, r, status, ErrorPage(msg, core.IssuesOf(err)))
}

// wantsJSON reports whether the client expects a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
