package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kochabx/sso/log"
)

// LoggerConfig 访问日志配置
type LoggerConfig struct {
	Header    bool                    // 记录请求头
	SkipPaths []string                // 支持 "/health"、"/api/**"、"/api/*/x"
	SkipFunc  func(*gin.Context) bool // 动态跳过
	Logger    *log.Logger
}

// Logger 访问日志，按状态码选择级别
func Logger(cfgs ...LoggerConfig) gin.HandlerFunc {
	cfg := LoggerConfig{}
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}
	if cfg.Logger == nil {
		cfg.Logger = log.G
	}
	matcher := NewPathMatcher(cfg.SkipPaths)

	return func(c *gin.Context) {
		if shouldSkip(c, matcher, cfg.SkipFunc) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		tenant, _ := TenantOf(c)
		event := levelFor(&cfg.Logger.Logger, status).
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("tenant", tenant).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP())

		// 查询串里的 ticket 由脱敏规则处理
		if query := c.Request.URL.RawQuery; query != "" {
			event = event.Str("query", query)
		}
		if location := c.Writer.Header().Get("Location"); location != "" {
			event = event.Str("location", location)
		}
		if requestID := c.Request.Header.Get("X-Request-Id"); requestID != "" {
			event = event.Str("request_id", requestID)
		}
		if cfg.Header {
			header := c.Request.Header.Clone()
			header.Del("Cookie")
			event = event.Any("headers", header)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.ByType(gin.ErrorTypePrivate).String())
		}
		event.Msg("request")
	}
}

func levelFor(l *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return l.Error()
	case status >= http.StatusBadRequest:
		return l.Warn()
	default:
		return l.Info()
	}
}
