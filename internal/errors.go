package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeTooLarge     ErrorType = "PAYLOAD_TOO_LARGE"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidBody      ErrorCode = "INVALID_BODY"
	ErrCodeBodyTooLarge     ErrorCode = "BODY_TOO_LARGE"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeAuthRequired       ErrorCode = "AUTHENTICATION_REQUIRED"

	ErrCodeInsufficientRole ErrorCode = "INSUFFICIENT_ROLE"
	ErrCodeToolDisabled     ErrorCode = "TOOL_DISABLED"
	ErrCodeToolForbidden    ErrorCode = "TOOL_FORBIDDEN"
	ErrCodeNotOwner         ErrorCode = "NOT_OWNER"
	ErrCodeUserBanned       ErrorCode = "USER_BANNED"
	ErrCodeEmployeeBlocked  ErrorCode = "EMPLOYEE_BLOCKED"
	ErrCodeProtectedAccount ErrorCode = "PROTECTED_ACCOUNT"
	ErrCodeSelfOperation    ErrorCode = "SELF_OPERATION"

	ErrCodeUserNotFound ErrorCode = "USER_NOT_FOUND"
	ErrCodeFormNotFound ErrorCode = "FORM_NOT_FOUND"
	ErrCodeUserExists   ErrorCode = "USER_EXISTS"

	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	ErrCodeInternal    ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Type and Code so that the shared sentinels below work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewPayloadTooLargeError(limit int64) *AppError {
	return &AppError{
		Type:       ErrorTypeTooLarge,
		Code:       ErrCodeBodyTooLarge,
		Message:    "Request body is too large",
		StatusCode: http.StatusRequestEntityTooLarge,
		Details:    map[string]interface{}{"limit": limit},
	}
}

var (
	ErrInvalidCredentials = NewUnauthorizedError("Invalid username or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewForbiddenError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewForbiddenError("Token has expired", ErrCodeTokenExpired)
	ErrAuthRequired       = NewUnauthorizedError("Authentication required", ErrCodeAuthRequired)
	ErrUserNotFound       = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrUserExists         = NewConflictError("User with this username already exists", ErrCodeUserExists)
	ErrUserBanned         = NewForbiddenError("Account is banned", ErrCodeUserBanned)
	ErrProtectedAccount   = NewForbiddenError("The system administrator account cannot be modified this way", ErrCodeProtectedAccount)
	ErrSelfOperation      = NewForbiddenError("This operation cannot target your own account", ErrCodeSelfOperation)
	ErrInsufficientRole   = NewForbiddenError("Insufficient access rights", ErrCodeInsufficientRole)
	ErrNotOwner           = NewForbiddenError("Access denied: owner or administrator rights required", ErrCodeNotOwner)
	ErrFormNotFound       = NewNotFoundError("Print form not found", ErrCodeFormNotFound)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, e.Body()
}

// Body is the flat JSON shape the web client reads: {"error": message, "code": ...}
// plus any map details merged at the top level. Details never replace error or code.
func (e *AppError) Body() map[string]interface{} {
	body := map[string]interface{}{}
	switch d := e.Details.(type) {
	case nil:
	case map[string]interface{}:
		for k, v := range d {
			body[k] = v
		}
	default:
		body["details"] = d
	}
	body["error"] = e.GetDetailedMessage()
	body["code"] = e.Code
	return body
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
