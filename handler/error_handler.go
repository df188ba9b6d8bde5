package handler

import (
	"go-music-api/common"
	"go-music-api/logger"
	"net/http"

	"github.com/sirupsen/logrus"
)

// AppHandler is a handler that reports failures as an AppError instead of writing them.
type AppHandler func(http.ResponseWriter, *http.Request) *common.AppError

func ErrorHandlingMiddleware(next AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			if err.Code >= http.StatusInternalServerError {
				logger.Log.WithFields(logrus.Fields{
					"request_id": w.Header().Get(RequestIDHeader),
					"method":     r.Method,
					"path":       r.URL.Path,
				}).Warn("Request failed")
			}
			err.Send(w)
		}
	}
}
