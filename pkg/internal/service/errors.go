package service

import (
	"errors"
	"fmt"
)

// Kind 引擎错误类别，传输层据此映射状态码.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindPreconditionFailed
	KindLimitExceeded
	KindValidationFailed
	KindUpstreamFailure
	KindConfigurationError
)

var kindNames = [...]string{
	KindUnknown:            "unknown",
	KindNotFound:           "not_found",
	KindUnauthorized:       "unauthorized",
	KindPreconditionFailed: "precondition_failed",
	KindLimitExceeded:      "limit_exceeded",
	KindValidationFailed:   "validation_failed",
	KindUpstreamFailure:    "upstream_failure",
	KindConfigurationError: "configuration_error",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}

	return kindNames[k]
}

// 超限的细分原因.
const (
	reasonAccess = "access"
	reasonSize   = "size"
)

// Error 引擎返回的带类别错误.
// Msg 可以安全地返回给调用方；Err 为内部原因，只用于日志.
type Error struct {
	Kind   Kind
	Op     string
	Msg    string
	Err    error
	reason string
}

// 可配合 errors.Is 使用的哨兵，按类别匹配.
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrPreconditionFailed = &Error{Kind: KindPreconditionFailed}
	ErrLimitExceeded      = &Error{Kind: KindLimitExceeded}
	ErrValidationFailed   = &Error{Kind: KindValidationFailed}
	ErrUpstreamFailure    = &Error{Kind: KindUpstreamFailure}
	ErrConfiguration      = &Error{Kind: KindConfigurationError}

	// ErrAccessExhausted 访问次数已用尽.
	ErrAccessExhausted = &Error{Kind: KindLimitExceeded, reason: reasonAccess}
	// ErrTooLarge 内容超过存储位置的大小上限.
	ErrTooLarge = &Error{Kind: KindLimitExceeded, reason: reasonSize}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}

	if e.Op != "" {
		msg = e.Op + ": " + msg
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按类别匹配；哨兵带细分原因时原因也必须相同.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Kind != e.Kind {
		return false
	}

	return t.reason == "" || t.reason == e.reason
}

// Public 返回可展示给调用方的信息，上游错误只给出通用描述.
func (e *Error) Public() string {
	if e.Kind == KindUpstreamFailure {
		return "internal error"
	}

	if e.Msg == "" {
		return e.Kind.String()
	}

	return e.Msg
}

// KindOf 返回错误类别，非引擎错误视为 KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

func newError(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

func notFound(op, id string) error {
	return newError(KindNotFound, op, fmt.Sprintf("paste %s not found", id), nil)
}

func unauthorized(op string) error {
	return newError(KindUnauthorized, op, "password required", nil)
}

func precondition(op, msg string) error {
	return newError(KindPreconditionFailed, op, msg, nil)
}

func invalid(op, msg string, cause error) error {
	return newError(KindValidationFailed, op, msg, cause)
}

func upstream(op string, cause error) error {
	return newError(KindUpstreamFailure, op, "storage failure", cause)
}

func misconfigured(op string, cause error) error {
	return newError(KindConfigurationError, op, "storage location unavailable", cause)
}

func exhausted(op string) error {
	return &Error{Kind: KindLimitExceeded, Op: op, Msg: "access limit reached", reason: reasonAccess}
}

func tooLarge(op string, size, limit int64) error {
	return &Error{
		Kind:   KindLimitExceeded,
		Op:     op,
		Msg:    fmt.Sprintf("size %d exceeds limit %d", size, limit),
		reason: reasonSize,
	}
}
