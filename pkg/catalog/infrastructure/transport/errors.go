package transport

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"catalogadmin/pkg/catalog/domain/model"
)

const (
	stateReady = "ready"
	stateEmpty = "empty"
	stateError = "error"
)

type violationJSON struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type errorResponse struct {
	State      string          `json:"state"`
	Kind       string          `json:"kind"`
	Error      string          `json:"error"`
	Violations []violationJSON `json:"violations,omitempty"`
}

func dataState(n int) string {
	if n == 0 {
		return stateEmpty
	}
	return stateReady
}

func bodyError(err error) error {
	return &model.ValidationError{Violations: []model.Violation{{Field: "body", Reason: err.Error()}}}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	resp := errorResponse{State: stateError, Kind: kind, Error: err.Error()}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		for _, v := range verr.Violations {
			resp.Violations = append(resp.Violations, violationJSON{Field: v.Field, Reason: v.Reason})
		}
	}

	entry := h.log.WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	h.writeJSON(w, status, resp)
}

// classify maps an error to its HTTP status and the kind reported to the client.
func classify(err error) (int, string) {
	var (
		verr *model.ValidationError
		terr *model.TransportError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &terr):
		if terr.Timeout() {
			return http.StatusGatewayTimeout, "transport"
		}
		return http.StatusBadGateway, "transport"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		// client went away, nobody reads this
		return 499, "cancelled"
	}
	return http.StatusInternalServerError, "internal"
}

