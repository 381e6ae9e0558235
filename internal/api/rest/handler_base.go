package rest

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/errors"
)

const maxBodySize = 1 << 20 // 1MB

// ErrorBody is the error half of every error response.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// newValidator builds the request validator with the custom tags the
// payloads use.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("iso4217", validateISO4217)
	return v
}

func validateISO4217(fl validator.FieldLevel) bool {
	currency := fl.Field().String()
	validCurrencies := []string{"USD", "EUR", "GBP", "JPY", "CAD", "AUD", "CHF", "CNY", "SEK", "NZD"}
	for _, valid := range validCurrencies {
		if currency == valid {
			return true
		}
	}
	return false
}

// decodeJSON reads and unmarshals a request body with a size cap.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.NewInvalidInputError("BODY_TOO_LARGE",
			fmt.Sprintf("request body exceeds %d bytes", maxBodySize))
	}
	if len(body) == 0 {
		return errors.ErrInvalidPayload
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return errors.NewInvalidInputError("INVALID_JSON", "request body is not valid JSON").WithCause(err)
	}

	return nil
}

// validationError converts validator failures into a field-keyed
// invalid-input error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewInvalidInputError("INVALID_PAYLOAD", "request validation failed").WithCause(err)
	}

	fields := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fmt.Sprintf("failed %s validation", fe.Tag())
	}

	return errors.NewInvalidInputError("INVALID_PAYLOAD", "request validation failed").
		WithDetails(fields)
}

// writeJSON writes a JSON response with the standard headers.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error onto the wire format.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := errors.GetStatusCode(err)

	body := ErrorBody{
		Code:    "INTERNAL_ERROR",
		Message: "An internal error occurred",
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		body.Code = appErr.Code
		body.Message = appErr.Message
		body.Details = appErr.Details
	}

	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}

	writeJSON(w, status, errorEnvelope{Error: body})
}
