package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/niksmo/shop-assistant/internal/core/domain"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON decodes and validates the request body into v.
// The returned error is safe to show to the client.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.New("invalid JSON data")
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) != 0 {
			fe := verrs[0]
			return fmt.Errorf("field %q failed on %q", fe.Field(), fe.Tag())
		}
		return errors.New("invalid request")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	const op = "httphandler.writeJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}

const internalErrorMsg = "internal server error"

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeDomainError maps core errors to status codes. Internal details
// are logged and never sent to the client.
func writeDomainError(w http.ResponseWriter, log *slog.Logger, err error) {
	status, msg := http.StatusInternalServerError, internalErrorMsg

	switch {
	case errors.Is(err, domain.ErrInvalidID):
		status, msg = http.StatusBadRequest, "invalid identifier"
	case errors.Is(err, domain.ErrEmptyQuery):
		status, msg = http.StatusBadRequest, "query is required"
	case errors.Is(err, domain.ErrEmptyMessage):
		status, msg = http.StatusBadRequest, "message is required"
	case errors.Is(err, domain.ErrInvalidStatus):
		status, msg = http.StatusBadRequest, "invalid order status"
	case errors.Is(err, domain.ErrInvalidRange):
		status, msg = http.StatusBadRequest, "invalid range"
	case errors.Is(err, domain.ErrAlreadyCancelled):
		status, msg = http.StatusBadRequest, "order is already cancelled"
	case errors.Is(err, domain.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrOrderMismatch):
		status, msg = http.StatusNotFound, "not found"
	}

	if status == http.StatusInternalServerError {
		log.Error("request failed", "err", err)
	} else {
		log.Warn("request rejected", "err", err)
	}
	writeError(w, status, msg)
}
