package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/funcfeed/funcfeed/pkg/errors"
)

// errorBody is the JSON error envelope of every non-2xx response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleFeed(runner FeedRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		builds, ok := r.URL.Query()["build"]
		if !ok || builds[0] == "" {
			s.writeError(w, errors.New(errors.ErrCodeInvalidRequest, "missing required parameter %q", "build"))
			return
		}
		if len(builds) > 1 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidRequest, "parameter %q given %d times, expected once", "build", len(builds)))
			return
		}

		entry, err := runner.Run(r.Context(), builds[0])
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, entry)
	}
}

func (s *Server) handlePackages(collector PackageCollector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includePrerelease := false
		if raw := r.URL.Query().Get("preRelease"); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				s.writeError(w, errors.New(errors.ErrCodeInvalidRequest, "parameter %q must be a boolean, got %q", "preRelease", raw))
				return
			}
			includePrerelease = parsed
		}

		reports, err := collector.Collect(r.Context(), includePrerelease)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, reports)
	}
}

// statusFor maps error codes to HTTP statuses. Upstream failures surface as
// bad gateway since this service is a proxy for them.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUpstreamStructure, errors.ErrCodeUpstreamHTTP:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	} else {
		s.logger.Warn("request rejected", "code", code, "err", err)
	}
	s.writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: errors.UserMessage(err)}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "err", err)
	}
}
