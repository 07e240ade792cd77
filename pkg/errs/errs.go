// Package errs 定义服务层的带类型错误：每个错误携带机器可读的 code 与可映射的 HTTP status.
// service 层只返回这些错误，传输层负责把它们翻译为 {code, message, details} 响应体.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 机器可读的错误类别.
type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeInvalidToken    Code = "INVALID_TOKEN"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeAppNotFound     Code = "APP_NOT_FOUND"
	CodeVersionNotFound Code = "VERSION_NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
	CodeStorage         Code = "STORAGE_ERROR"
	CodeDatabase        Code = "DATABASE_ERROR"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// Error 服务层错误值.
type Error struct {
	Code    Code                `json:"code"`
	Status  int                 `json:"-"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 暴露底层错误，便于 errors.Is/As 链式判断.
func (e *Error) Unwrap() error { return e.cause }

// WithCause 附加底层错误.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// Validation 输入不合法到达核心（如空文件列表）.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: msg}
}

// ValidationDetails 携带字段级错误的校验失败.
func ValidationDetails(msg string, details map[string][]string) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: msg, Details: details}
}

// Unauthorized 缺失或无效凭证.
func Unauthorized(msg string) *Error {
	if msg == "" {
		msg = "Authentication required"
	}

	return &Error{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: msg}
}

// InvalidToken token 无效或过期.
func InvalidToken(msg string) *Error {
	if msg == "" {
		msg = "Invalid or expired token"
	}

	return &Error{Code: CodeInvalidToken, Status: http.StatusUnauthorized, Message: msg}
}

// Forbidden 权限或范围不足.
func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "Access denied"
	}

	return &Error{Code: CodeForbidden, Status: http.StatusForbidden, Message: msg}
}

// NotFound 资源不存在.
func NotFound(resource string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: resource + " not found"}
}

// AppNotFound 应用不存在.
func AppNotFound(appKey string) *Error {
	msg := "App not found"
	if appKey != "" {
		msg = fmt.Sprintf("App '%s' not found", appKey)
	}

	return &Error{Code: CodeAppNotFound, Status: http.StatusNotFound, Message: msg}
}

// VersionNotFound 版本不存在（或不属于该应用）.
func VersionNotFound(versionID uint) *Error {
	msg := "Version not found"
	if versionID != 0 {
		msg = fmt.Sprintf("Version '%d' not found", versionID)
	}

	return &Error{Code: CodeVersionNotFound, Status: http.StatusNotFound, Message: msg}
}

// Conflict 唯一性冲突（如重复的版本名）.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: msg}
}

// AlreadyExists 资源已存在.
func AlreadyExists(resource string) *Error {
	return &Error{Code: CodeAlreadyExists, Status: http.StatusConflict, Message: resource + " already exists"}
}

// Storage 文件系统/对象存储失败.
func Storage(msg string, cause error) *Error {
	return &Error{Code: CodeStorage, Status: http.StatusInternalServerError, Message: msg, cause: cause}
}

// Database 持久层失败.
func Database(cause error) *Error {
	return &Error{Code: CodeDatabase, Status: http.StatusInternalServerError, Message: "Database error", cause: cause}
}

// Internal 未预期的失败.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "Internal server error", cause: cause}
}

// As 提取 *Error；非本包错误返回 nil, false.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}

	return nil, false
}

// HTTPStatus 返回错误对应的 HTTP 状态码，未知错误按 500 处理.
func HTTPStatus(err error) int {
	if e, ok := As(err); ok {
		return e.Status
	}

	return http.StatusInternalServerError
}

// IsCode 判断错误是否属于指定类别.
func IsCode(err error, code Code) bool {
	e, ok := As(err)

	return ok && e.Code == code
}
