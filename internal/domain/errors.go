package domain

import (
	"fmt"
	"net/http"
)

// MsgRefereeNotFound is the localized message returned when a referee lookup misses.
const MsgRefereeNotFound = "Árbitro no encontrado"

// MsgRefereeDeleted is the confirmation returned after a successful delete.
const MsgRefereeDeleted = "Árbitro eliminado correctamente"

// AppError is the base domain error type.
type AppError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
	Status  int          `json:"-"`
	Cause   error        `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Standard domain error constructors.

func ErrRefereeNotFound() *AppError {
	return &AppError{Code: "NOT_FOUND", Message: MsgRefereeNotFound, Status: http.StatusNotFound}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: http.StatusConflict}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: http.StatusUnprocessableEntity}
}

// ErrValidationFields reports field-level validation failures.
func ErrValidationFields(fields []FieldError) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: "validation failed", Fields: fields, Status: http.StatusUnprocessableEntity}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: http.StatusInternalServerError, Cause: cause}
}
