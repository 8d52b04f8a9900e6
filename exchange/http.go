package exchange

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// httpRequest 基于 *http.Request 的 Request
type httpRequest struct {
	r         *http.Request
	forwarded bool
}

// NewRequest 包装标准库请求，忽略 X-Forwarded-Proto 与 X-Forwarded-Host
func NewRequest(r *http.Request) Request {
	return &httpRequest{r: r}
}

// NewProxiedRequest 来自可信代理的请求，协议与主机取自转发头
func NewProxiedRequest(r *http.Request) Request {
	return &httpRequest{r: r, forwarded: true}
}

// Proxies 可信代理地址集合，与 gin 的 SetTrustedProxies 取值一致
type Proxies struct {
	prefixes []netip.Prefix
}

// ParseProxies 解析 IP 或 CIDR 列表
func ParseProxies(values []string) (*Proxies, error) {
	p := &Proxies{}
	for _, v := range values {
		if strings.Contains(v, "/") {
			prefix, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("exchange: invalid proxy %q: %w", v, err)
			}
			p.prefixes = append(p.prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("exchange: invalid proxy %q: %w", v, err)
		}
		addr = addr.Unmap()
		p.prefixes = append(p.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return p, nil
}

// Trusted 直连地址是否属于可信代理
func (p *Proxies) Trusted(r *http.Request) bool {
	if p == nil || len(p.prefixes) == 0 {
		return false
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func (h *httpRequest) Method() string {
	return h.r.Method
}

func (h *httpRequest) URL() *url.URL {
	u := *h.r.URL
	u.Scheme = "http"
	if h.r.TLS != nil {
		u.Scheme = "https"
	}
	u.Host = h.r.Host
	if !h.forwarded {
		return &u
	}
	if proto := firstValue(h.r.Header.Get("X-Forwarded-Proto")); proto == "http" || proto == "https" {
		u.Scheme = proto
	}
	if host := firstValue(h.r.Header.Get("X-Forwarded-Host")); host != "" {
		u.Host = host
	}
	return &u
}

func (h *httpRequest) Param(name string) string {
	if v := h.r.URL.Query().Get(name); v != "" {
		return v
	}
	return h.r.PostFormValue(name)
}

func (h *httpRequest) Header(name string) string {
	return h.r.Header.Get(name)
}

func (h *httpRequest) Cookie(name string) (string, bool) {
	c, err := h.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// 代理链中取第一个值
func firstValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

// ginResponse 基于 gin 的 Response
type ginResponse struct {
	c      *gin.Context
	status int
}

func (g *ginResponse) Status(code int) {
	g.status = code
	g.c.Status(code)
}

func (g *ginResponse) Header(name, value string) {
	g.c.Header(name, value)
}

func (g *ginResponse) SetCookie(cookie *http.Cookie) {
	http.SetCookie(g.c.Writer, cookie)
}

func (g *ginResponse) Write(contentType string, body []byte) {
	status := g.status
	if status == 0 {
		status = http.StatusOK
	}
	g.c.Data(status, contentType, body)
}

func (g *ginResponse) Redirect(code int, location string) {
	g.c.Redirect(code, location)
}

// FromGin 由 gin 上下文构造 Exchange，仅当直连方是可信代理时采用转发头
func FromGin(c *gin.Context, proxies *Proxies) *Exchange {
	req := NewRequest(c.Request)
	if proxies.Trusted(c.Request) {
		req = NewProxiedRequest(c.Request)
	}
	return New(req, &ginResponse{c: c})
}

// Recorder 记录写入内容的 Response，用于测试
type Recorder struct {
	Code        int
	Headers     http.Header
	Cookies     []*http.Cookie
	ContentType string
	Body        []byte
	Location    string
}

func NewRecorder() *Recorder {
	return &Recorder{Code: http.StatusOK, Headers: make(http.Header)}
}

func (r *Recorder) Status(code int) {
	r.Code = code
}

func (r *Recorder) Header(name, value string) {
	r.Headers.Set(name, value)
}

func (r *Recorder) SetCookie(cookie *http.Cookie) {
	r.Cookies = append(r.Cookies, cookie)
}

func (r *Recorder) Write(contentType string, body []byte) {
	r.ContentType = contentType
	r.Body = append(r.Body, body...)
}

func (r *Recorder) Redirect(code int, location string) {
	r.Code = code
	r.Location = location
}

// Cookie 最后一次写入的同名 Cookie
func (r *Recorder) Cookie(name string) *http.Cookie {
	for i := len(r.Cookies) - 1; i >= 0; i-- {
		if r.Cookies[i].Name == name {
			return r.Cookies[i]
		}
	}
	return nil
}
