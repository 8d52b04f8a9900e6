package errors

// 常用状态码的构造函数

func BadRequest(reason, format string, args ...any) *Error {
	return New(400, reason, format, args...)
}

func NotFound(reason, format string, args ...any) *Error {
	return New(404, reason, format, args...)
}

func Internal(reason, format string, args ...any) *Error {
	return New(500, reason, format, args...)
}

// IsBadRequest 判断是否为 400 错误
func IsBadRequest(err error) bool { return Code(err) == 400 }

// IsNotFound 判断是否为 404 错误
func IsNotFound(err error) bool { return Code(err) == 404 }
