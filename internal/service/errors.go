package service

import (
	"context"
	"errors"
	"fmt"
	"learnhub_backend/pkg/database"
	"time"

	"gorm.io/gorm"
)

type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"
	KindInvalidState  ErrorKind = "invalid_state"
	KindLimitExceeded ErrorKind = "limit_exceeded"
	KindConflict      ErrorKind = "conflict"
	KindValidation    ErrorKind = "validation"
	KindTransient     ErrorKind = "transient"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindForbidden     ErrorKind = "forbidden"
)

// Error 业务错误；除 Transient 外均不应自动重试
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按 Code 匹配，便于 errors.Is(err, ErrInvalidAttempt) 识别带细节的副本
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail 复制一份带补充说明的错误，Code 与 Kind 不变
func (e *Error) WithDetail(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message + ": " + fmt.Sprintf(format, args...),
	}
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrEvaluationNotFound   = newError(KindNotFound, "evaluation_not_found", "evaluation not found")
	ErrEvaluationInactive   = newError(KindInvalidState, "evaluation_inactive", "evaluation is not active")
	ErrAttemptsExhausted    = newError(KindLimitExceeded, "attempts_exhausted", "maximum number of attempts reached")
	ErrInvalidAttempt       = newError(KindInvalidState, "invalid_attempt", "attempt is not in progress for this user")
	ErrDuplicateAttempt     = newError(KindConflict, "duplicate_attempt", "another attempt is already in progress")
	ErrAttemptNotCompleted  = newError(KindInvalidState, "attempt_not_completed", "attempt has not been submitted")
	ErrInvalidAnswers       = newError(KindValidation, "invalid_answers", "malformed answer payload")
	ErrUserNotFound         = newError(KindNotFound, "user_not_found", "user not found")
	ErrCourseNotFound       = newError(KindNotFound, "course_not_found", "course not found")
	ErrModuleNotFound       = newError(KindNotFound, "module_not_found", "module not found")
	ErrEnrollmentNotFound   = newError(KindNotFound, "enrollment_not_found", "enrollment not found")
	ErrCertificateNotFound  = newError(KindNotFound, "certificate_not_found", "certificate not found")
	ErrDuplicateCertificate = newError(KindConflict, "duplicate_certificate", "certificate already issued for this user and course")
	ErrCourseNotComplete    = newError(KindInvalidState, "course_not_complete", "course is not complete")
	ErrInvalidScore         = newError(KindValidation, "invalid_score", "score must be an integer between 0 and 100")
	ErrModuleCourseMismatch = newError(KindValidation, "module_course_mismatch", "module does not belong to course")
	ErrModuleLocked         = newError(KindInvalidState, "module_locked", "previous modules must be completed first")
	ErrInvalidFilter        = newError(KindValidation, "invalid_filter", "invalid certificate filter")
	ErrInvalidStatus        = newError(KindValidation, "invalid_status", "invalid progress status")
	ErrInvalidExpiration    = newError(KindValidation, "invalid_expiration", "expiration days must be positive")
	ErrUnauthenticated      = newError(KindUnauthorized, "unauthenticated", "invalid or missing credential")
	ErrInactiveUser         = newError(KindForbidden, "inactive_user", "user account is inactive")
)

// KindOf 非 *Error 的错误视为内部错误，返回空字符串
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// storageError 把数据库错误包装为可重试的 Transient 错误
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindTransient, Code: "storage_unavailable", Message: op + " failed", Err: err}
}

// notFoundOr 记录不存在时返回 notFound，其余数据库错误按 Transient 处理
func notFoundOr(err error, notFound *Error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return storageError(op, err)
}

func isDuplicate(err error) bool {
	return database.IsDuplicateKey(err)
}

// retryBackoff 瞬时存储错误的重试间隔，测试中可调小
var retryBackoff = 100 * time.Millisecond

// withRetry 仅对 Transient 错误重试一次
func withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if KindOf(err) != KindTransient {
		return err
	}
	select {
	case <-ctx.Done():
		return err
	case <-time.After(retryBackoff):
	}
	return fn()
}
