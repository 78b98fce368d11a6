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
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidUsername  ErrorCode = "INVALID_USERNAME"
	ErrCodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidPhone     ErrorCode = "INVALID_PHONE"
	ErrCodeInvalidPassword  ErrorCode = "INVALID_PASSWORD"
	ErrCodeInvalidRole      ErrorCode = "INVALID_ROLE"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeIdentityMismatch   ErrorCode = "IDENTITY_MISMATCH"

	ErrCodeInsufficientPermissions ErrorCode = "INSUFFICIENT_PERMISSIONS"
	ErrCodeRoleNotAllowed          ErrorCode = "ROLE_NOT_ALLOWED"
	ErrCodeEmployeeInactive        ErrorCode = "EMPLOYEE_INACTIVE"
	ErrCodeVendorOnly              ErrorCode = "VENDOR_ONLY"
	ErrCodeAdminOnly               ErrorCode = "ADMIN_ONLY"

	ErrCodeUserNotFound     ErrorCode = "USER_NOT_FOUND"
	ErrCodeVendorNotFound   ErrorCode = "VENDOR_NOT_FOUND"
	ErrCodeEmployeeNotFound ErrorCode = "EMPLOYEE_NOT_FOUND"
	ErrCodeProfileNotFound  ErrorCode = "EMPLOYEE_PROFILE_NOT_FOUND"
	ErrCodePatientNotFound  ErrorCode = "PATIENT_NOT_FOUND"
	ErrCodeTrialNotFound    ErrorCode = "TRIAL_NOT_FOUND"
	ErrCodeDocumentNotFound ErrorCode = "DOCUMENT_NOT_FOUND"

	ErrCodeUsernameTaken ErrorCode = "USERNAME_TAKEN"
	ErrCodeEmailTaken    ErrorCode = "EMAIL_TAKEN"
	ErrCodeDuplicate     ErrorCode = "DUPLICATE_RECORD"

	ErrCodeDocumentVersionTaken ErrorCode = "DOCUMENT_VERSION_TAKEN"
	ErrCodeDocumentTooLarge     ErrorCode = "DOCUMENT_TOO_LARGE"

	ErrCodeTrialAlreadyExists ErrorCode = "TRIAL_ALREADY_EXISTS"
	ErrCodeInvalidIRBStatus   ErrorCode = "INVALID_IRB_STATUS"
	ErrCodeInvalidTrialStatus ErrorCode = "INVALID_TRIAL_STATUS"
	ErrCodeInvalidMethod      ErrorCode = "INVALID_PAYMENT_METHOD"
	ErrCodeInvalidDocument    ErrorCode = "INVALID_DOCUMENT"
	ErrCodeStorageFailed      ErrorCode = "STORAGE_FAILED"
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

// WithCause returns a copy carrying cause, so shared sentinel errors stay untouched.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Is matches on type and code so copies made by WithCause still compare equal to their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
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
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewExternalError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
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

var (
	ErrInvalidCredentials = NewUnauthorizedError("Incorrect username or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("Could not validate credentials", ErrCodeInvalidToken)
	ErrIdentityMismatch   = NewNotFoundError("Username and email do not match", ErrCodeIdentityMismatch)

	ErrRoleNotAllowed   = NewForbiddenError("Only vendors and employees may access this resource", ErrCodeRoleNotAllowed)
	ErrEmployeeInactive = NewForbiddenError("Employee account is not active", ErrCodeEmployeeInactive)
	ErrVendorOnly       = NewForbiddenError("Only vendors may access this resource", ErrCodeVendorOnly)
	ErrAdminOnly        = NewForbiddenError("Only administrators may access this resource", ErrCodeAdminOnly)

	ErrUserNotFound            = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrVendorNotFound          = NewNotFoundError("Vendor profile not found", ErrCodeVendorNotFound)
	ErrEmployeeProfileNotFound = NewNotFoundError("Employee profile not found", ErrCodeProfileNotFound)
	ErrEmployeeNotFound        = NewNotFoundError("Employee not found", ErrCodeEmployeeNotFound)
	ErrPatientNotFound         = NewNotFoundError("Patient not found", ErrCodePatientNotFound)
	ErrTrialNotFound           = NewNotFoundError("Trial not found", ErrCodeTrialNotFound)
	ErrDocumentNotFound        = NewNotFoundError("Document not found", ErrCodeDocumentNotFound)

	ErrUsernameTaken = NewConflictError("Username already exists", ErrCodeUsernameTaken)
	ErrEmailTaken    = NewConflictError("Email already exists", ErrCodeEmailTaken)
	ErrDuplicate     = NewConflictError("Record already exists", ErrCodeDuplicate)

	ErrDocumentVersionTaken = NewConflictError("Another upload of this document finished first; retry the upload", ErrCodeDocumentVersionTaken)
	ErrDocumentTooLarge     = &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeDocumentTooLarge,
		Message:    "Upload exceeds the maximum document size",
		StatusCode: http.StatusRequestEntityTooLarge,
	}

	ErrTrialAlreadyExists = NewValidationError("Vendor already has an active trial. Only one trial per vendor is allowed.", ErrCodeTrialAlreadyExists)
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
	return e.StatusCode, Response{Error: e}
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
