package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"backoffice/internal/billing"
	"backoffice/internal/mail"
	"backoffice/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeAndValidate reads the JSON body into dst and validates it. It writes
// the 400 response itself and reports whether the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrInvoiceNotFound),
		errors.Is(err, service.ErrSubmissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, billing.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyConverted),
		errors.Is(err, service.ErrInvoiceSettled):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mail.ErrFailedToSendEmail):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrNotConfigured), errors.Is(err, service.ErrNoDocument):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError responds with the mapped status. Server errors are
// logged and answered with msg only.
func writeServiceError(w http.ResponseWriter, logger zerolog.Logger, err error, msg string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg(msg)
		http.Error(w, msg, status)
		return
	}
	if status == http.StatusConflict {
		http.Error(w, "Record was modified by someone else; reload and retry", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
