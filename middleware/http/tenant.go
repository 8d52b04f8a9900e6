package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultTenant = "master"

	tenantKey     = "sso.tenant"
	tenantPathKey = "sso.tenant_path"
)

var tenantPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// TenantConfig 租户解析配置
type TenantConfig struct {
	Header       string // 租户编码请求头，默认 X-Tenant-Code
	PrefixHeader string // 租户路径前缀请求头，默认 X-Forwarded-Prefix
	Default      string // 未携带租户时使用的编码，默认 master
}

// Tenant 从请求头解析租户编码与路径前缀，编码不合法时返回 400
func Tenant(cfgs ...TenantConfig) gin.HandlerFunc {
	cfg := TenantConfig{}
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.Header == "" {
		cfg.Header = "X-Tenant-Code"
	}
	if cfg.PrefixHeader == "" {
		cfg.PrefixHeader = "X-Forwarded-Prefix"
	}
	if cfg.Default == "" {
		cfg.Default = DefaultTenant
	}

	return func(c *gin.Context) {
		code := strings.TrimSpace(c.GetHeader(cfg.Header))
		if code == "" {
			code = cfg.Default
		}
		if !tenantPattern.MatchString(code) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid tenant code"})
			return
		}
		c.Set(tenantKey, code)
		c.Set(tenantPathKey, normalizePrefix(c.GetHeader(cfg.PrefixHeader)))
		c.Next()
	}
}

// TenantOf 当前请求的租户编码与路径前缀，未经过 Tenant 中间件时返回默认值
func TenantOf(c *gin.Context) (code, path string) {
	code = c.GetString(tenantKey)
	if code == "" {
		code = DefaultTenant
	}
	path = c.GetString(tenantPathKey)
	if path == "" {
		path = "/"
	}
	return code, path
}

// normalizePrefix 以 / 开头，除根路径外不以 / 结尾
func normalizePrefix(p string) string {
	p, _, _ = strings.Cut(strings.TrimSpace(p), ",")
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return "/"
	}
	return "/" + p
}
