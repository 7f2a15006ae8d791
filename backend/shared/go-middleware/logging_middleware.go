package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"github.com/sirupsen/logrus"
)

// StatusRecorder captures the status code written by the wrapped handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (s *StatusRecorder) WriteHeader(code int) {
	s.Status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *StatusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Hijack is required by the websocket upgrade.
func (s *StatusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	s.Status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// RequestLogger logs one line per request and turns panics into a 500.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				utils.Logger.WithFields(logrus.Fields{
					"panic": p,
					"stack": string(debug.Stack()),
				}).Error("panic while serving request")
				utils.RespondErrorWithCode(rec, http.StatusInternalServerError, utils.ErrCodeInternal, "An unexpected error occurred", nil)
			}

			utils.Logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.Status,
				"duration": time.Since(start).String(),
			}).Debug("request served")
		}()

		next.ServeHTTP(rec, r)
	})
}
