package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/iot-project/rack-wagon-service/internal/logging"
	"github.com/iot-project/rack-wagon-service/internal/models"
)

type HandlerFunc func(w http.ResponseWriter, r *http.Request) *HandlerError

type HandlerError struct {
	Message    string
	StatusCode int
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func NewHandlerError(message string, code int) *HandlerError {
	return &HandlerError{
		Message:    message,
		StatusCode: code,
	}
}

func (fn HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.GetLogger().Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
			handleHTTPError(w, HandlerError{Message: "Internal Server Error", StatusCode: http.StatusInternalServerError})
		}
	}()

	if handlerError := fn(w, r); handlerError != nil {
		if handlerError.StatusCode >= http.StatusInternalServerError {
			logging.GetLogger().Errorf("%s %s failed: %s", r.Method, r.URL.Path, handlerError.Message)
		}
		// the timeout middleware answers once the request deadline has passed
		if errors.Is(r.Context().Err(), context.DeadlineExceeded) {
			return
		}
		handleHTTPError(w, *handlerError)
	}
}

func handleHTTPError(w http.ResponseWriter, err HandlerError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: err.Message})
}
