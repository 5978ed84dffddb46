package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vango-dev/cellgraph/internal/todos"
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
	"github.com/vango-dev/cellgraph/pkg/urlroute"
)

var errBlankTitle = errors.New("api: title is blank")

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps an update error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, todos.ErrTodoNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBlankTitle),
		errors.Is(err, urlroute.ErrInvalidURL),
		errors.Is(err, urlroute.ErrBackslashInPath),
		errors.Is(err, urlroute.ErrNullByteInPath),
		errors.Is(err, urlroute.ErrInvalidPercentEscape),
		errors.Is(err, urlroute.ErrPathEscapesRoot):
		return http.StatusBadRequest
	case errors.Is(err, cellgraph.ErrLoopClosed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var gerr *cellgraph.GraphError
	if errors.As(err, &gerr) {
		body.Code = string(gerr.Code)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("api: update failed", "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
