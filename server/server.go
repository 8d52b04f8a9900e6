package server

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kochabx/sso/app"
	"github.com/kochabx/sso/cache"
	"github.com/kochabx/sso/cas"
	"github.com/kochabx/sso/core/tag"
	"github.com/kochabx/sso/directory"
	"github.com/kochabx/sso/exchange"
	"github.com/kochabx/sso/log"
	middleware "github.com/kochabx/sso/middleware/http"
	"github.com/kochabx/sso/registry"
	"github.com/kochabx/sso/session"
	"github.com/kochabx/sso/store/db"
	"github.com/kochabx/sso/ticket"
	transporthttp "github.com/kochabx/sso/transport/http"
)

type closer struct {
	name string
	fn   func(context.Context) error
}

// Server 按配置装配的 SSO 服务
type Server struct {
	cfg       *Config
	logger    *log.Logger
	metrics   *prometheus.Registry
	cache     *cache.Memory
	database  *db.Client
	sessions  *session.Store
	tickets   *ticket.Store
	registry  *registry.Registry
	refresher *registry.Refresher
	directory directory.Directory
	cas       *cas.Service
	engine    *gin.Engine
	http      *transporthttp.Server

	closers []closer
}

type Option func(*Server)

// WithLogger 替换按 log 配置创建的 Logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New 创建所有组件，失败时释放已创建的资源
func New(cfg *Config, opts ...Option) (*Server, error) {
	if err := tag.ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.build(); err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return nil, errors.Join(err, s.Close(ctx))
	}
	return s, nil
}

func (s *Server) build() error {
	steps := []func() error{
		s.buildLogger,
		s.buildMetrics,
		s.buildDatabase,
		s.buildCache,
		s.buildStores,
		s.buildRegistry,
		s.buildDirectory,
		s.buildCAS,
		s.buildHTTP,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) onClose(name string, fn func(context.Context) error) {
	s.closers = append(s.closers, closer{name: name, fn: fn})
}

func (s *Server) named(component string) *log.Logger {
	return &log.Logger{Logger: s.logger.Named(component)}
}

func (s *Server) buildLogger() error {
	if s.logger != nil {
		return nil
	}
	logger, err := log.NewFromConfig(s.cfg.Log)
	if err != nil {
		return err
	}
	s.logger = logger
	s.onClose("logger", func(context.Context) error { return logger.Close() })
	return nil
}

func (s *Server) buildMetrics() error {
	if !on(s.cfg.Metrics.Enabled) {
		return nil
	}
	s.metrics = prometheus.NewRegistry()
	if on(s.cfg.Metrics.GoCollector) {
		s.metrics.MustRegister(collectors.NewGoCollector(
			collectors.WithGoCollectorRuntimeMetrics(collectors.GoRuntimeMetricsRule{Matcher: regexp.MustCompile("/sched/.*")}),
		))
	}
	if on(s.cfg.Metrics.BuildInfo) {
		s.metrics.MustRegister(collectors.NewBuildInfoCollector())
	}
	return nil
}

// registerer 未启用指标时返回 nil，各组件据此跳过注册
func (s *Server) registerer() prometheus.Registerer {
	if s.metrics == nil {
		return nil
	}
	return s.metrics
}

func (s *Server) buildDatabase() error {
	if !s.cfg.usesDatabase() {
		return nil
	}
	client, err := db.New(s.cfg.Database, db.WithLogger(s.named("database")))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	s.database = client
	s.onClose("database", func(context.Context) error { return client.Close() })
	return nil
}

func (s *Server) buildCache() error {
	memory, err := cache.NewMemory(s.cfg.Cache, cache.WithLogger(s.named("cache")), cache.WithRegisterer(s.registerer()))
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	s.cache = memory
	s.onClose("cache", memory.Close)
	return nil
}

func (s *Server) buildStores() error {
	sessions, err := session.NewStore(s.cache, s.cfg.Session, session.WithLogger(s.named("session")))
	if err != nil {
		return fmt.Errorf("create session store: %w", err)
	}
	tickets, err := ticket.NewStore(s.cache, s.cfg.Ticket, ticket.WithLogger(s.named("ticket")))
	if err != nil {
		return fmt.Errorf("create ticket store: %w", err)
	}
	s.sessions, s.tickets = sessions, tickets
	return nil
}

func (s *Server) buildRegistry() error {
	var source registry.Source = registry.StaticSource(s.cfg.Registry.Applications)
	if s.cfg.Registry.Source == SourceDatabase {
		dbSource := registry.NewDBSource(s.database.DB(), s.cfg.Registry.Tenant)
		if err := dbSource.Migrate(context.Background()); err != nil {
			return fmt.Errorf("migrate applications: %w", err)
		}
		source = dbSource
	}

	s.registry = registry.New()
	refresher, err := registry.NewRefresher(s.registry, source, s.cfg.Registry.Refresh, s.logger)
	if err != nil {
		return fmt.Errorf("registry refresh %q: %w", s.cfg.Registry.Refresh, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := refresher.Refresh(ctx); err != nil {
		return fmt.Errorf("load applications: %w", err)
	}
	s.refresher = refresher
	// 静态来源由配置热更新驱动
	if s.cfg.Registry.Source == SourceDatabase {
		refresher.Start()
		s.onClose("registry", refresher.Stop)
	}
	return nil
}

func (s *Server) buildDirectory() error {
	if s.cfg.Directory.Source == SourceDatabase {
		dir := directory.NewDB(s.database.DB())
		if err := dir.Migrate(context.Background()); err != nil {
			return fmt.Errorf("migrate accounts: %w", err)
		}
		s.directory = dir
		return nil
	}
	s.directory = directory.NewStatic(s.cfg.Directory.Accounts...)
	return nil
}

func (s *Server) buildCAS() error {
	svc, err := cas.NewService(s.cfg.CAS, s.sessions, s.tickets, s.registry, s.directory,
		cas.WithLogger(s.logger),
		cas.WithRegisterer(s.registerer()),
	)
	if err != nil {
		return fmt.Errorf("create cas service: %w", err)
	}
	svc.Start()
	s.cas = svc
	s.onClose("cas", svc.Close)
	return nil
}

func (s *Server) buildHTTP() error {
	gin.SetMode(s.cfg.Server.Mode)
	engine := gin.New()
	if err := engine.SetTrustedProxies(s.cfg.Server.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}
	proxies, err := exchange.ParseProxies(s.cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	httpOpts := s.cfg.Server.HTTP
	engine.Use(
		middleware.Recovery(middleware.RecoveryConfig{StackTrace: true, Logger: s.named("http")}),
		middleware.Tenant(),
		middleware.Logger(middleware.LoggerConfig{
			Logger:    s.named("http"),
			SkipPaths: []string{httpOpts.Health.Path, httpOpts.Metrics.Path},
		}),
	)
	if s.metrics != nil {
		engine.Use(middleware.Metrics(s.metrics))
	}
	cas.NewHandler(s.cas, cas.WithProxies(proxies)).Register(engine)

	opts := []transporthttp.Option{
		transporthttp.WithName("sso"),
		transporthttp.WithLogger(s.logger),
		transporthttp.WithOptions(httpOpts),
	}
	if s.metrics != nil {
		opts = append(opts, transporthttp.WithRegistry(s.metrics))
	}
	if s.database != nil {
		opts = append(opts, transporthttp.WithHealthCheck("database", s.database.Ping))
	}
	server, err := transporthttp.NewServer(s.cfg.Server.Addr, engine, opts...)
	if err != nil {
		return err
	}
	s.engine, s.http = engine, server
	return nil
}

// Reload 配置热更新，静态来源时替换可信应用
func (s *Server) Reload(cfg *Config) {
	if s.cfg.Registry.Source != SourceStatic || cfg.Registry.Source != SourceStatic {
		return
	}
	s.registry.Replace(cfg.Registry.Applications)
	s.logger.Info().Int("applications", len(cfg.Registry.Applications)).Msg("registry reloaded from config")
}

// Application 把 HTTP 服务与关闭函数交给 app 管理
func (s *Server) Application(opts ...app.Option) *app.Application {
	base := []app.Option{
		app.WithLogger(s.logger),
		app.WithShutdownTimeout(s.cfg.Server.ShutdownTimeout),
		app.WithServer(s.http),
	}
	for _, c := range s.closers {
		base = append(base, app.WithClose(c.name, c.fn, 0))
	}
	return app.New(append(base, opts...)...)
}

// Close 逆序释放资源，供未交给 app 管理时使用
func (s *Server) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.closers[i].name, err))
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Server) Logger() *log.Logger {
	return s.logger
}

func (s *Server) Handler() *gin.Engine {
	return s.engine
}

func (s *Server) Sessions() *session.Store {
	return s.sessions
}

func (s *Server) Registry() *registry.Registry {
	return s.registry
}
