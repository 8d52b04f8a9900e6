package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kochabx/sso/core/tag"
	"github.com/kochabx/sso/log"
	"github.com/kochabx/sso/transport"
)

var _ transport.Server = (*Server)(nil)

const defaultName = "http"

type Server struct {
	name     string
	options  Options
	server   *http.Server
	registry *prometheus.Registry
	checks   map[string]HealthCheck
	logger   *log.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer handler 为 *gin.Engine 时挂载健康检查与指标路由
func NewServer(addr string, handler http.Handler, opts ...Option) (*Server, error) {
	s := &Server{
		name:   defaultName,
		server: &http.Server{Addr: addr, Handler: handler},
		checks: make(map[string]HealthCheck),
		logger: log.G,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := tag.ApplyDefaults(&s.options); err != nil {
		return nil, err
	}
	if err := transport.ValidateAddress(addr); err != nil {
		return nil, err
	}

	if r, ok := handler.(*gin.Engine); ok {
		s.routes(r)
	}
	return s, nil
}

func (s *Server) routes(r *gin.Engine) {
	if s.registry != nil {
		r.GET(s.options.Metrics.Path, gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		})))
	}
	if s.options.Health.enabled() {
		r.GET(s.options.Health.Path, s.health)
	}
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.options.Health.Timeout)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run 监听并阻塞，Shutdown 之后返回 nil
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info().Str("server", s.name).Str("addr", ln.Addr().String()).Msg("server listening")
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr 返回实际监听地址，未启动时为空
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Str("server", s.name).Msg("server shutting down")
	return s.server.Shutdown(ctx)
}
