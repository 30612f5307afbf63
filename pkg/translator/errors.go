package translator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// 预定义错误
var (
	// ErrConnectivity 端点不可达，整个任务致命，不重试
	ErrConnectivity = errors.New("transformation endpoint unreachable")

	// ErrTimeout 单片段超时，按预算重试
	ErrTimeout = errors.New("translation timeout")

	// ErrEmptyText 空文本
	ErrEmptyText = errors.New("empty text provided")
)

// 错误代码常量
const (
	ErrCodeConnectivity = "CONNECTIVITY_ERROR"
	ErrCodeTimeout      = "TIMEOUT_ERROR"
	ErrCodeTransport    = "TRANSPORT_ERROR"
	ErrCodeEmptyResult  = "EMPTY_RESULT"
	ErrCodePrecondition = "PRECONDITION_ERROR"
)

// TranslationError 结构化翻译错误
type TranslationError struct {
	Code    string // 错误代码
	Message string // 错误消息
	Cause   error  // 原因
	Retry   bool   // 是否可重试
}

// Error 实现 error 接口
func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回原因错误
func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// IsRetryable 是否可重试
func (e *TranslationError) IsRetryable() bool {
	return e.Retry
}

// WrapError 包装错误
func WrapError(err error, code, message string) *TranslationError {
	if err == nil {
		return nil
	}
	return &TranslationError{
		Code:    code,
		Message: message,
		Cause:   err,
		Retry:   IsTimeout(err),
	}
}

// IsTimeout 判断错误是否为瞬时超时
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var te *TranslationError
	if errors.As(err, &te) && te.Code == ErrCodeTimeout {
		return true
	}

	// 检查错误消息模式
	errStr := strings.ToLower(err.Error())
	timeoutPatterns := []string{
		"timeout",
		"deadline exceeded",
		"i/o timeout",
	}
	for _, pattern := range timeoutPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
