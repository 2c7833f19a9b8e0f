package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"math"
	"net/http"
	"time"
)

// AppError define la estructura estándar para errores de la API.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"error"`
	Detail     string         `json:"detail,omitempty"`
	HTTPStatus int            `json:"-"` // No se serializa, usado para el header
	Err        error          `json:"-"` // causa, solo para logs
	Fields     map[string]any `json:"-"` // extras que se agregan al envelope (ej. retryAfterMs)
	RetryAfter time.Duration  `json:"-"`
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// FromError intenta convertir un error genérico en un AppError.
// Si no es un AppError, devuelve un error interno genérico conservando el error original.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail devuelve una COPIA con detail.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := e.clone()
	newErr.Detail = detail
	return newErr
}

// WithCause devuelve una COPIA con la causa.
func (e *AppError) WithCause(err error) *AppError {
	newErr := e.clone()
	newErr.Err = err
	return newErr
}

// WithField devuelve una COPIA con un campo extra en el envelope.
func (e *AppError) WithField(key string, value any) *AppError {
	newErr := e.clone()
	newErr.Fields[key] = value
	return newErr
}

// WithRetryAfter agrega retryAfterMs al body y Retry-After (segundos, redondeo hacia arriba) al header.
func (e *AppError) WithRetryAfter(d time.Duration) *AppError {
	newErr := e.WithField("retryAfterMs", d.Milliseconds())
	newErr.RetryAfter = d
	return newErr
}

// clone copia también el mapa de Fields para no mutar las variables globales base.
func (e *AppError) clone() *AppError {
	newErr := *e
	newErr.Fields = make(map[string]any, len(e.Fields)+1)
	maps.Copy(newErr.Fields, e.Fields)
	return &newErr
}

func retryAfterSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

// 400

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request is malformed.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "The request body is not valid JSON.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Required fields are missing.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrValidation = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "The request did not pass validation.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidCode = &AppError{
		Code:       "INVALID_CODE",
		Message:    "Invalid verification code.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidCredential = &AppError{
		Code:       "INVALID_CREDENTIAL",
		Message:    "Current password is incorrect.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrBodyTooLarge = &AppError{
		Code:       "BODY_TOO_LARGE",
		Message:    "The request body exceeds the maximum allowed size.",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
)

// 401

var (
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid client credentials.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Invalid username or password.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenMissing = &AppError{
		Code:       "TOKEN_MISSING",
		Message:    "No authentication token was provided.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenExpired = &AppError{
		Code:       "TOKEN_EXPIRED",
		Message:    "The token has expired.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenInvalid = &AppError{
		Code:       "TOKEN_INVALID",
		Message:    "The token is invalid.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidTokenType = &AppError{
		Code:       "INVALID_TOKEN_TYPE",
		Message:    "The token type is not valid for this operation.",
		HTTPStatus: http.StatusUnauthorized,
	}
)

// 404 / 405 / 409 / 410

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "The requested resource was not found.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "User not found.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrCodeNotFound = &AppError{
		Code:       "CODE_NOT_FOUND",
		Message:    "No verification code found for this user.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrRouteNotFound = &AppError{
		Code:       "ROUTE_NOT_FOUND",
		Message:    "The requested route does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "The HTTP method is not allowed for this resource.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrConflict = &AppError{
		Code:       "CONFLICT",
		Message:    "The resource already exists.",
		HTTPStatus: http.StatusConflict,
	}

	ErrExpired = &AppError{
		Code:       "CODE_EXPIRED",
		Message:    "The verification code has expired or was already used.",
		HTTPStatus: http.StatusGone,
	}
)

// 429

var (
	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests. Try again later.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrTooSoon = &AppError{
		Code:       "TOO_SOON",
		Message:    "A code was requested recently. Wait before requesting another one.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// 5xx

var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}

	// ErrConfiguration: falta un secreto de servidor. No se expone cuál.
	ErrConfiguration = &AppError{
		Code:       "CONFIGURATION_ERROR",
		Message:    "The server is not configured for this operation.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "The service is temporarily unavailable.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
