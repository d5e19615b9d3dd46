package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/schoolflow/schoolflow-backend/pkg/i18n"
)

// Standard error types
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict")
	ErrInternal           = errors.New("internal server error")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"` // i18n key for localization
	Params     map[string]string `json:"-"` // Parameters for i18n interpolation
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Localize returns a localized version of the error message
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return i18n.TFromContext(ctx, e.MessageKey, e.Params)
}

// LocalizeWith returns a localized version using a specific localizer
func (e *AppError) LocalizeWith(l *i18n.Localizer) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return l.T(e.MessageKey, e.Params)
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewWithKey creates a new AppError with an i18n key
func NewWithKey(code string, messageKey string, statusCode int, params ...map[string]string) *AppError {
	var p map[string]string
	if len(params) > 0 {
		p = params[0]
	}
	return &AppError{
		Code:       code,
		Message:    i18n.T(messageKey, p), // Default message in English
		MessageKey: messageKey,
		Params:     p,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		MessageKey: "errors.not_found",
		Params:     map[string]string{"resource": resource},
		StatusCode: http.StatusNotFound,
	}
}

// NotFoundWithKey creates a not found error with localized resource name
func NotFoundWithKey(resourceKey string) *AppError {
	resourceName := i18n.T("resources." + resourceKey)
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resourceName),
		MessageKey: "errors.not_found",
		Params:     map[string]string{"resource": resourceName},
		StatusCode: http.StatusNotFound,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		MessageKey: "errors.unauthorized",
		StatusCode: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
		MessageKey: "errors.forbidden",
		StatusCode: http.StatusForbidden,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		MessageKey: "errors.bad_request",
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		MessageKey: "errors.conflict",
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		MessageKey: "errors.validation_failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func InvalidCredentials() *AppError {
	return &AppError{
		Err:        ErrInvalidCredentials,
		Code:       "INVALID_CREDENTIALS",
		Message:    "invalid email or password",
		MessageKey: "errors.invalid_credentials",
		StatusCode: http.StatusUnauthorized,
	}
}

func TokenExpired() *AppError {
	return &AppError{
		Err:        ErrTokenExpired,
		Code:       "TOKEN_EXPIRED",
		Message:    "token has expired",
		MessageKey: "errors.token_expired",
		StatusCode: http.StatusUnauthorized,
	}
}

func TokenInvalid() *AppError {
	return &AppError{
		Err:        ErrTokenInvalid,
		Code:       "TOKEN_INVALID",
		Message:    "invalid token",
		MessageKey: "errors.token_invalid",
		StatusCode: http.StatusUnauthorized,
	}
}

// TenantInactive indicates the resolved tenant is suspended or soft-deleted.
func TenantInactive() *AppError {
	return &AppError{
		Code:       "TENANT_INACTIVE",
		Message:    "tenant is suspended or deleted",
		MessageKey: "errors.tenant_inactive",
		StatusCode: http.StatusForbidden,
	}
}

// TenantRequired indicates the request carried no resolvable tenant identifier.
func TenantRequired() *AppError {
	return &AppError{
		Code:       "TENANT_REQUIRED",
		Message:    "a tenant identifier is required for this request",
		MessageKey: "errors.tenant_required",
		StatusCode: http.StatusBadRequest,
	}
}

// NoTenantAccess indicates the authenticated user holds no role in the resolved tenant.
func NoTenantAccess() *AppError {
	return &AppError{
		Code:       "NO_TENANT_ACCESS",
		Message:    "user holds no role in this tenant",
		MessageKey: "errors.no_tenant_access",
		StatusCode: http.StatusForbidden,
	}
}

// PermissionDenied indicates the caller's permission set does not satisfy the check.
func PermissionDenied() *AppError {
	return &AppError{
		Code:       "PERMISSION_DENIED",
		Message:    "you do not have permission to perform this action",
		MessageKey: "errors.permission_denied",
		StatusCode: http.StatusForbidden,
	}
}

// RateLimited indicates the caller exceeded a named rate limiter's window budget.
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    "too many requests, please slow down",
		MessageKey: "errors.rate_limited",
		StatusCode: http.StatusTooManyRequests,
		Details:    map[string]string{"retry_after_seconds": fmt.Sprintf("%d", retryAfterSeconds)},
	}
}

// Blocked indicates the caller tripped an escalation threshold and is temporarily denied outright.
func Blocked(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       "BLOCKED",
		Message:    "temporarily blocked due to repeated rate-limit violations",
		MessageKey: "errors.blocked",
		StatusCode: http.StatusTooManyRequests,
		Details:    map[string]string{"retry_after_seconds": fmt.Sprintf("%d", retryAfterSeconds)},
	}
}

// ConflictSet indicates a timetable placement collides with an existing entry under
// room, teacher, or class exclusivity.
func ConflictSet(conflicts map[string]string) *AppError {
	return &AppError{
		Code:       "CONFLICT_SET",
		Message:    "the requested placement conflicts with existing timetable entries",
		MessageKey: "errors.conflict_set",
		StatusCode: http.StatusConflict,
		Details:    conflicts,
	}
}

// VersionConflict indicates an optimistic-concurrency mismatch on update.
func VersionConflict() *AppError {
	return &AppError{
		Code:       "VERSION_CONFLICT",
		Message:    "the record was modified by another request, reload and retry",
		MessageKey: "errors.version_conflict",
		StatusCode: http.StatusConflict,
	}
}

// NotFinalizable indicates a draft still has unresolved failed requirements.
func NotFinalizable(failedCount int) *AppError {
	return &AppError{
		Code:       "NOT_FINALIZABLE",
		Message:    "the draft still has failed requirements and cannot be finalized",
		MessageKey: "errors.not_finalizable",
		StatusCode: http.StatusConflict,
		Details:    map[string]string{"failed_count": fmt.Sprintf("%d", failedCount)},
	}
}

// FinalizedReadOnly indicates a mutation was attempted against a finalized timetable.
func FinalizedReadOnly() *AppError {
	return &AppError{
		Code:       "FINALIZED_READ_ONLY",
		Message:    "this timetable has been finalized and is read-only",
		MessageKey: "errors.finalized_read_only",
		StatusCode: http.StatusConflict,
	}
}

// Backpressure indicates the system could not acquire resources (e.g. a pooled
// connection) within its configured timeout.
func Backpressure() *AppError {
	return &AppError{
		Code:       "BACKPRESSURE",
		Message:    "the system is under load, please retry shortly",
		MessageKey: "errors.backpressure",
		StatusCode: http.StatusServiceUnavailable,
	}
}

// AuthMissing indicates the request carried no Authorization header at all.
func AuthMissing() *AppError {
	return &AppError{
		Code:       "AUTH_MISSING",
		Message:    "missing or malformed authorization header",
		MessageKey: "errors.auth_missing",
		StatusCode: http.StatusUnauthorized,
	}
}

// AuthInvalid indicates the bearer token failed signature or structural validation.
func AuthInvalid() *AppError {
	return &AppError{
		Err:        ErrTokenInvalid,
		Code:       "AUTH_INVALID",
		Message:    "invalid authentication token",
		MessageKey: "errors.auth_invalid",
		StatusCode: http.StatusUnauthorized,
	}
}

// AuthExpired indicates the bearer token's expiry claim has passed.
func AuthExpired() *AppError {
	return &AppError{
		Err:        ErrTokenExpired,
		Code:       "AUTH_EXPIRED",
		Message:    "authentication token has expired",
		MessageKey: "errors.auth_expired",
		StatusCode: http.StatusUnauthorized,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
