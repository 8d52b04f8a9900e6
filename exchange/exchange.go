package exchange

import (
	"net/http"
	"net/url"
	"sync"
)

// Request 与传输层无关的请求
type Request interface {
	Method() string
	// URL 绝对地址，可信代理的请求优先取 X-Forwarded-Proto 与 X-Forwarded-Host
	URL() *url.URL
	// Param 先取查询参数，再取表单参数
	Param(name string) string
	Header(name string) string
	Cookie(name string) (string, bool)
}

// Response 与传输层无关的响应
type Response interface {
	Status(code int)
	Header(name, value string)
	SetCookie(cookie *http.Cookie)
	Write(contentType string, body []byte)
	Redirect(code int, location string)
}

// Exchange 一次请求与响应，附带按类型存取的属性
type Exchange struct {
	Request
	Response

	mu    sync.RWMutex
	attrs map[string]any
}

func New(req Request, resp Response) *Exchange {
	return &Exchange{Request: req, Response: resp, attrs: make(map[string]any)}
}

// Attribute 类型化的属性键
type Attribute[T any] struct {
	name string
}

func NewAttribute[T any](name string) Attribute[T] {
	return Attribute[T]{name: name}
}

func (a Attribute[T]) Name() string {
	return a.name
}

// Get 属性不存在或类型不符时返回零值与 false
func (a Attribute[T]) Get(x *Exchange) (T, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	v, ok := x.attrs[a.name].(T)
	return v, ok
}

// GetOr 属性不存在时返回 fallback
func (a Attribute[T]) GetOr(x *Exchange, fallback T) T {
	if v, ok := a.Get(x); ok {
		return v
	}
	return fallback
}

func (a Attribute[T]) Set(x *Exchange, v T) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.attrs[a.name] = v
}

func (a Attribute[T]) Delete(x *Exchange) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.attrs, a.name)
}
