package cas

import (
	"net/http"
	"net/url"
)

// Operation 协议操作：Login、Validate 或 Logout
type Operation interface {
	operation()
}

// Login 认证并跳转
type Login struct {
	Service string
	Renew   bool
	Gateway bool
}

// Validate 应用校验票据
type Validate struct {
	Service string
	Ticket  string
	Format  string
	// Proxy 经由代理校验路径进入
	Proxy  bool
	PgtURL string
}

// Logout 注销并通知应用
type Logout struct {
	Service string
}

func (Login) operation()    {}
func (Validate) operation() {}
func (Logout) operation()   {}

// Request 与传输层无关的协议输入
type Request struct {
	Tenant string
	// TenantPath 租户路径前缀，也是会话 Cookie 的 Path
	TenantPath string
	// URL 当前请求的绝对地址
	URL *url.URL
	// Session 会话 Cookie 的值，空表示未携带
	Session string
	Accept  string
}

// Result 协议输出
type Result struct {
	Status      int
	Location    string
	ContentType string
	Body        []byte
	Cookies     []*http.Cookie
}

func redirect(location string, cookies ...*http.Cookie) Result {
	return Result{Status: http.StatusFound, Location: location, Cookies: cookies}
}

func text(status int, body string, cookies ...*http.Cookie) Result {
	return Result{Status: status, ContentType: contentTypeText, Body: []byte(body), Cookies: cookies}
}
