package validator

import "strings"

// FieldError 单个字段的校验错误
type FieldError struct {
	Namespace string `json:"namespace"`
	Field     string `json:"field"`
	Tag       string `json:"tag"`
	Value     any    `json:"value"`
	Message   string `json:"message"`
}

// ValidationErrors 已翻译的校验错误集合
type ValidationErrors struct {
	Fields []FieldError
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Has 判断指定命名空间的字段是否校验失败
func (e *ValidationErrors) Has(namespace string) bool {
	for _, f := range e.Fields {
		if f.Namespace == namespace {
			return true
		}
	}
	return false
}
