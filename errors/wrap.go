package errors

import (
	goerrors "errors"
)

// 标准库 errors 的转发，调用方导入本包后无需再导入标准库

func Is(err, target error) bool { return goerrors.Is(err, target) }

func As(err error, target any) bool { return goerrors.As(err, target) }

func Join(errs ...error) error { return goerrors.Join(errs...) }

func Unwrap(err error) error { return goerrors.Unwrap(err) }

// Sentinel 创建不带状态码的普通哨兵错误
func Sentinel(text string) error { return goerrors.New(text) }
