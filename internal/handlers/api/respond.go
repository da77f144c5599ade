package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/calculator"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/costing"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/export"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/fees"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/middleware"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/snapshot"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/storage"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

type errorJSON struct {
	Error string `json:"error"`
}

// writeJSON marshals v as JSON and writes it to the response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; just log.
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %w", calculator.ErrInvalidInput, err)
	}
	return nil
}

// statusFor maps engine and service errors onto HTTP statuses. Anything it
// does not recognise is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fees.ErrUnknownPlatform):
		return http.StatusUnprocessableEntity
	case errors.Is(err, calculator.ErrInvalidInput),
		errors.Is(err, currency.ErrUnsupportedCurrency),
		errors.Is(err, currency.ErrInvalidAmount),
		errors.Is(err, costing.ErrInvalidProduct),
		errors.Is(err, fees.ErrInvalidFeeTerm),
		errors.Is(err, fees.ErrUnknownPaymentMethod),
		errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, snapshot.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, snapshot.ErrMissingUser), errors.Is(err, export.ErrMissingUser):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with the status statusFor picks. Internal errors are
// logged and replaced with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err,
		)
		writeJSON(w, status, errorJSON{Error: "internal server error"})
		return
	}
	writeJSON(w, status, errorJSON{Error: err.Error()})
}

// requireUser returns the caller's user id, or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorJSON{Error: "missing or invalid " + middleware.UserIDHeader + " header"})
		return "", false
	}
	return userID, true
}

// parsePagination extracts limit and offset from query parameters. Zero
// values leave the service defaults in place.
func parsePagination(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			offset = parsed
		}
	}
	return limit, offset
}
