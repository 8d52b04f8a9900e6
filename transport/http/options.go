package http

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kochabx/sso/log"
)

type Options struct {
	Metrics MetricsOption `json:"metrics" mapstructure:"metrics"`
	Health  HealthOption  `json:"health" mapstructure:"health"`
}

// MetricsOption 未注入 Registry 时不挂载指标路由
type MetricsOption struct {
	Path string `json:"path" mapstructure:"path" default:"/metrics"`
}

type HealthOption struct {
	Enabled *bool         `json:"enabled" mapstructure:"enabled" default:"true"`
	Path    string        `json:"path" mapstructure:"path" default:"/health"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout" default:"2s"`
}

func (h HealthOption) enabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// HealthCheck 返回 nil 表示依赖可用
type HealthCheck func(ctx context.Context) error

type Option func(*Server)

func WithName(name string) Option {
	return func(s *Server) {
		s.name = name
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithOptions(options Options) Option {
	return func(s *Server) {
		s.options = options
	}
}

func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// WithHealthCheck 追加一个命名检查
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}
