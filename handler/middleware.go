package handler

import (
	"go-music-api/common"
	"go-music-api/logger"
	"go-music-api/metrics"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.statusCode = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger assigns a request id, logs every request and records its latency.
func RequestLogger(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r)

			duration := time.Since(start)
			collector.RecordRequest(r.Method, recorder.statusCode, duration)
			logger.Log.WithFields(logrus.Fields{
				"request_id":  requestID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      recorder.statusCode,
				"duration_ms": duration.Milliseconds(),
				"ip":          clientIP(r),
			}).Info("HTTP request")
		})
	}
}

// RecoverMiddleware turns a panic into a 500 response and reports it to Sentry.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetExtra("panic", rec)
					scope.SetExtra("stack", string(debug.Stack()))
					scope.SetTag("path", r.URL.Path)
					sentry.CaptureMessage("panic in request")
				})

				logger.Log.WithFields(logrus.Fields{
					"path":   r.URL.Path,
					"method": r.Method,
					"panic":  rec,
				}).Error("Panic recovered")

				common.NewAppError(http.StatusInternalServerError, "Internal server error", nil).Send(w)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
