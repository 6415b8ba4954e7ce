package handlers

import (
	"ai-nexus/internal/apperrors"
	"ai-nexus/internal/logger"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// sendError sends a standardized JSON error response
func sendError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := ErrorResponse{
		Code:    status,
		Message: message,
	}
	if err != nil {
		errResp.Error = err.Error()
	}
	json.NewEncoder(w).Encode(errResp)
}

// sendServiceError maps a service error to its HTTP status. Typed errors
// carry their own message; anything else is an internal error whose details
// are logged, not returned.
func sendServiceError(w http.ResponseWriter, r *http.Request, fallback string, err error) {
	status := apperrors.HTTPStatus(err)
	fields := logrus.Fields{"method": r.Method, "path": r.URL.Path, "status": status}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		logger.Log.WithFields(fields).WithError(err).Info("Request rejected")
		sendError(w, status, appErr.Message, nil)
		return
	}

	logger.Log.WithFields(fields).WithError(err).Error(fallback)
	sendError(w, status, fallback, nil)
}

func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

// decodeJSON reads a size-limited JSON body into dst. An empty body is
// allowed when allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
