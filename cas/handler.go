package cas

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/sso/exchange"
	middleware "github.com/kochabx/sso/middleware/http"
)

var (
	TenantAttr     = exchange.NewAttribute[string]("cas.tenant")
	TenantPathAttr = exchange.NewAttribute[string]("cas.tenant_path")
)

func parseBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

// ParseLogin 读取 service、renew、gateway
func ParseLogin(x *exchange.Exchange) Operation {
	return Login{
		Service: x.Param("service"),
		Renew:   parseBool(x.Param("renew")),
		Gateway: parseBool(x.Param("gateway")),
	}
}

// ParseValidate 读取 service、ticket、format，代理路径额外读取 pgtUrl
func ParseValidate(proxy bool) func(*exchange.Exchange) Operation {
	return func(x *exchange.Exchange) Operation {
		op := Validate{
			Service: x.Param("service"),
			Ticket:  x.Param("ticket"),
			Format:  x.Param("format"),
			Proxy:   proxy,
		}
		if proxy {
			op.PgtURL = x.Param("pgtUrl")
		}
		return op
	}
}

func ParseLogout(x *exchange.Exchange) Operation {
	return Logout{Service: x.Param("service")}
}

// NewRequest 从 Exchange 提取协议输入
func (s *Service) NewRequest(x *exchange.Exchange) Request {
	req := Request{
		Tenant:     TenantAttr.GetOr(x, middleware.DefaultTenant),
		TenantPath: TenantPathAttr.GetOr(x, "/"),
		URL:        x.URL(),
		Accept:     x.Request.Header("Accept"),
	}
	if v, ok := x.Cookie(s.cfg.Cookie.Name); ok {
		req.Session = v
	}
	return req
}

// Handle 执行操作并写回响应
func (s *Service) Handle(ctx context.Context, x *exchange.Exchange, op Operation) {
	Write(x.Response, s.Dispatch(ctx, s.NewRequest(x), op))
}

// Write 将 Result 写到 Response
func Write(resp exchange.Response, res Result) {
	for _, c := range res.Cookies {
		resp.SetCookie(c)
	}
	if res.Location != "" {
		resp.Redirect(res.Status, res.Location)
		return
	}
	resp.Status(res.Status)
	resp.Write(res.ContentType, res.Body)
}

// Handler gin 路由
type Handler struct {
	service *Service
	proxies *exchange.Proxies
}

type HandlerOption func(*Handler)

// WithProxies 可信代理，仅它们转发的 X-Forwarded-Proto 与 X-Forwarded-Host 生效
func WithProxies(proxies *exchange.Proxies) HandlerOption {
	return func(h *Handler) {
		h.proxies = proxies
	}
}

func NewHandler(service *Service, opts ...HandlerOption) *Handler {
	h := &Handler{service: service}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register 挂载 /login、/logout、/validate、/proxyValidate
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/login", h.serve(ParseLogin))
	logout := h.serve(ParseLogout)
	r.GET("/logout", logout)
	r.POST("/logout", logout)
	validate := h.serve(ParseValidate(false))
	r.GET("/validate", validate)
	r.POST("/validate", validate)
	proxy := h.serve(ParseValidate(true))
	r.GET("/proxyValidate", proxy)
	r.POST("/proxyValidate", proxy)
}

func (h *Handler) serve(parse func(*exchange.Exchange) Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		x := exchange.FromGin(c, h.proxies)
		tenant, path := middleware.TenantOf(c)
		TenantAttr.Set(x, tenant)
		TenantPathAttr.Set(x, path)
		h.service.Handle(c.Request.Context(), x, parse(x))
	}
}
