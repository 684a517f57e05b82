// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeUnauthorized       ErrorCode = "1002"
	CodeForbidden          ErrorCode = "1003"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"
	CodePayloadTooLarge    ErrorCode = "1009"

	// 认证授权错误 (2xxx)
	CodeTokenExpired     ErrorCode = "2001"
	CodeTokenInvalid     ErrorCode = "2002"
	CodeTokenMissing     ErrorCode = "2003"
	CodePermissionDenied ErrorCode = "2004"
	CodeOAuthFailed      ErrorCode = "2005"
	CodeSessionExpired   ErrorCode = "2006"

	// 资源错误 (3xxx)
	CodeUserNotFound       ErrorCode = "3001"
	CodeCollectionNotFound ErrorCode = "3002"
	CodeHistoryNotFound    ErrorCode = "3003"
	CodeContactNotFound    ErrorCode = "3004"
	CodeMailNotFound       ErrorCode = "3005"

	// 业务错误 (4xxx)
	CodeUpstreamFailed   ErrorCode = "4001"
	CodeValidationFailed ErrorCode = "4002"
	CodeUnlockFailed     ErrorCode = "4003"
	CodeMailEnqueue      ErrorCode = "4004"
	CodeGenerationFailed ErrorCode = "4005"

	// 外部服务错误 (5xxx)
	CodeDatabaseError       ErrorCode = "5001"
	CodeCacheError          ErrorCode = "5002"
	CodeQueueError          ErrorCode = "5003"
	CodeUpstreamUnavailable ErrorCode = "5004"
	CodeMailDeliveryError   ErrorCode = "5005"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 返回带详细信息的副本
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithError 返回带底层错误的副本
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// Is 按错误码比较
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeValidationFailed, CodeOAuthFailed:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenExpired, CodeTokenInvalid, CodeTokenMissing, CodeSessionExpired:
		return http.StatusUnauthorized
	case CodeForbidden, CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound, CodeUserNotFound, CodeCollectionNotFound, CodeHistoryNotFound, CodeContactNotFound, CodeMailNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeUpstreamFailed, CodeUnlockFailed, CodeGenerationFailed:
		return http.StatusBadGateway
	case CodeServiceUnavailable, CodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrForbidden          = New(CodeForbidden, "forbidden")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrConflict           = New(CodeConflict, "resource conflict")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrTokenExpired   = New(CodeTokenExpired, "token expired")
	ErrTokenInvalid   = New(CodeTokenInvalid, "token invalid")
	ErrTokenMissing   = New(CodeTokenMissing, "token missing")
	ErrSessionExpired = New(CodeSessionExpired, "session expired")
	ErrOAuthFailed    = New(CodeOAuthFailed, "oauth sign-in failed")

	ErrUserNotFound       = New(CodeUserNotFound, "user not found")
	ErrCollectionNotFound = New(CodeCollectionNotFound, "collection not found")
	ErrHistoryNotFound    = New(CodeHistoryNotFound, "history not found")
	ErrContactNotFound    = New(CodeContactNotFound, "contact not found")
	ErrMailNotFound       = New(CodeMailNotFound, "mail not found")

	ErrUpstreamFailed      = New(CodeUpstreamFailed, "upstream request failed")
	ErrUpstreamUnavailable = New(CodeUpstreamUnavailable, "upstream unavailable")
	ErrValidationFailed    = New(CodeValidationFailed, "validation failed")
	ErrUnlockFailed        = New(CodeUnlockFailed, "contact unlock failed")
	ErrMailEnqueue         = New(CodeMailEnqueue, "failed to enqueue mail")
	ErrDatabase            = New(CodeDatabaseError, "database error")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}

// HasCode 判断错误链中是否包含指定错误码
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
