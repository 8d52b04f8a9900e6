package errors

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

const (
	// UnknownCode 未知错误使用的状态码
	UnknownCode = 500
	// UnknownReason 未知错误使用的原因
	UnknownReason = ""
)

// Status 错误状态：HTTP 状态码、机器可读的原因、可读消息及附加元数据
type Status struct {
	Code     int               `json:"code,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Message  string            `json:"message,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Error 结构化错误
type Error struct {
	Status
	cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("code=")
	b.WriteString(strconv.Itoa(e.Code))
	if e.Reason != "" {
		b.WriteString(", reason=")
		b.WriteString(e.Reason)
	}
	b.WriteString(", message=")
	b.WriteString(e.Message)
	if len(e.Metadata) > 0 {
		b.WriteString(", metadata=")
		b.WriteString(fmt.Sprint(e.Metadata))
	}
	if e.cause != nil {
		b.WriteString(", cause=")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is 状态码与原因相同即视为同一错误，消息不参与比较
func (e *Error) Is(err error) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return e.Code == ge.Code && e.Reason == ge.Reason
	}
	return false
}

// WithMetadata 返回附加了元数据的新错误
func (e *Error) WithMetadata(m map[string]string) *Error {
	if len(m) == 0 {
		return e
	}
	err := e.clone()
	if err.Metadata == nil {
		err.Metadata = make(map[string]string, len(m))
	}
	maps.Copy(err.Metadata, m)
	return err
}

// WithCause 返回附加了原因链的新错误
func (e *Error) WithCause(cause error) *Error {
	if cause == nil {
		return e
	}
	err := e.clone()
	err.cause = cause
	return err
}

// WithMessage 返回替换了消息的新错误，常用于在哨兵错误上补充上下文
func (e *Error) WithMessage(format string, args ...any) *Error {
	err := e.clone()
	err.Message = sprintf(format, args...)
	return err
}

func (e *Error) clone() *Error {
	var metadata map[string]string
	if len(e.Metadata) > 0 {
		metadata = maps.Clone(e.Metadata)
	}
	return &Error{
		Status: Status{
			Code:     e.Code,
			Reason:   e.Reason,
			Message:  e.Message,
			Metadata: metadata,
		},
		cause: e.cause,
	}
}

// GetCause 返回原因链
func (e *Error) GetCause() error {
	return e.cause
}

// New 创建错误
func New(code int, reason, format string, args ...any) *Error {
	return &Error{
		Status: Status{
			Code:    code,
			Reason:  reason,
			Message: sprintf(format, args...),
		},
	}
}

// Wrap 包装 err，err 为 nil 时返回 nil
func Wrap(err error, code int, reason, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return New(code, reason, format, args...).WithCause(err)
}

// FromError 将任意错误转换为 *Error，非结构化错误视为未知错误
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	return New(UnknownCode, UnknownReason, "%v", err).WithCause(err)
}

// Code 返回错误的状态码，nil 为 200
func Code(err error) int {
	if err == nil {
		return 200
	}
	return FromError(err).Code
}

// Reason 返回错误的原因
func Reason(err error) string {
	if err == nil {
		return UnknownReason
	}
	return FromError(err).Reason
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
