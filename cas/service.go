package cas

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	xhttp "github.com/kochabx/sso/core/net/http"
	"github.com/kochabx/sso/core/tag"
	"github.com/kochabx/sso/directory"
	"github.com/kochabx/sso/errors"
	"github.com/kochabx/sso/log"
	"github.com/kochabx/sso/registry"
	"github.com/kochabx/sso/session"
	"github.com/kochabx/sso/ticket"
)

const (
	maxServiceLength = 4096
	maxTicketLength  = 256
)

// SessionStore 会话存储
type SessionStore interface {
	Verify(tenant, token string) bool
	Parse(token string) (*session.Claims, error)
	Inspect(token string) (*session.Claims, error)
	Invalid(token string) bool
}

// TicketStore 票据存储
type TicketStore interface {
	Issue(tenant, application, token, sid, subject string) (*ticket.Ticket, error)
	Remove(tenant, id string) (*ticket.Ticket, bool)
	Bind(tenant string, t *ticket.Ticket) error
	GetTicketBySession(tenant, sid string) []*ticket.Ticket
	RemoveTicketBySession(tenant, sid string) int
}

// Registry 应用注册表
type Registry interface {
	Resolve(service string) (registry.Application, bool)
	ByCode(code string) (registry.Application, bool)
}

// Service CAS 协议服务
type Service struct {
	cfg       Config
	sessions  SessionStore
	tickets   TicketStore
	registry  Registry
	directory directory.Directory
	notifier  *notifier
	metrics   *metrics
	logger    *log.Logger
}

type options struct {
	logger     *log.Logger
	registerer prometheus.Registerer
	client     *xhttp.Client
}

// Option 服务选项
type Option func(*options)

func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegisterer 注册票据与注销回调指标
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithHTTPClient 发送注销回调的客户端
func WithHTTPClient(client *xhttp.Client) Option {
	return func(o *options) { o.client = client }
}

func NewService(cfg Config, sessions SessionStore, tickets TicketStore, reg Registry, dir directory.Directory, opts ...Option) (*Service, error) {
	if err := tag.ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	o := &options{logger: log.G}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = xhttp.New(xhttp.WithTimeout(cfg.Notifier.Timeout), xhttp.WithUserAgent("sso-logout"))
	}

	s := &Service{
		cfg:       cfg,
		sessions:  sessions,
		tickets:   tickets,
		registry:  reg,
		directory: dir,
		metrics:   newMetrics(o.registerer),
		logger:    &log.Logger{Logger: o.logger.Named("cas")},
	}
	n, err := newNotifier(cfg.Notifier, o.client, s.metrics, s.logger)
	if err != nil {
		return nil, err
	}
	s.notifier = n
	return s, nil
}

// Start 启动注销回调分发
func (s *Service) Start() {
	s.notifier.start()
}

func (s *Service) Close(ctx context.Context) error {
	return s.notifier.stop(ctx)
}

// Dispatch 执行一次协议操作
func (s *Service) Dispatch(ctx context.Context, req Request, op Operation) Result {
	switch op := op.(type) {
	case Login:
		return s.login(ctx, req, op)
	case Validate:
		return s.validate(ctx, req, op)
	case Logout:
		return s.logout(ctx, req, op)
	default:
		return text(http.StatusBadRequest, "unsupported operation")
	}
}

func (s *Service) login(_ context.Context, req Request, op Login) Result {
	if !s.cfg.enabled() {
		return text(http.StatusServiceUnavailable, "CAS service is disabled")
	}
	if op.Service == "" {
		if op.Renew {
			return redirect(s.loginPage(req, ""), s.clearCookie(req))
		}
		return redirect(s.loginPage(req, ""))
	}

	app, res, ok := s.trust(op.Service)
	if !ok {
		return res
	}
	if op.Renew {
		current, _ := xhttp.DelQuery(s.currentURL(req), "renew")
		return redirect(s.loginPage(req, current), s.clearCookie(req))
	}

	claims, ok := s.session(req)
	if !ok {
		var cookies []*http.Cookie
		if req.Session != "" {
			cookies = append(cookies, s.clearCookie(req))
		}
		if op.Gateway {
			return redirect(op.Service, cookies...)
		}
		return redirect(s.loginPage(req, s.currentURL(req)), cookies...)
	}

	t, err := s.tickets.Issue(req.Tenant, app.Code, req.Session, claims.ID, claims.Subject)
	if err != nil {
		s.logger.Error().Err(err).Str("tenant", req.Tenant).Str("application", app.Code).Msg("issue ticket failed")
		return text(http.StatusInternalServerError, "failed to issue ticket")
	}
	location, err := xhttp.AddQuery(op.Service, "ticket", t.ID)
	if err != nil {
		return text(http.StatusBadRequest, "invalid service")
	}
	s.metrics.incIssued()
	s.logger.Debug().
		Str("tenant", req.Tenant).
		Str("application", app.Code).
		Str("account", claims.Subject).
		Str("ticket", t.ID).
		Msg("ticket issued")
	return redirect(location)
}

func (s *Service) validate(ctx context.Context, req Request, op Validate) Result {
	format, supported := negotiate(op.Format, req.Accept)
	fail := func(e *errors.Error) Result {
		s.metrics.incValidated(e.Reason)
		s.logger.Info().
			Str("tenant", req.Tenant).
			Str("service", op.Service).
			Str("code", e.Reason).
			Str("description", e.Message).
			Msg("ticket validation failed")
		contentType, body := encodeFailure(format, e)
		return Result{Status: e.Code, ContentType: contentType, Body: body}
	}

	switch {
	case !s.cfg.enabled():
		return fail(ErrInvalidRequest.WithMessage("CAS service is disabled"))
	case !supported:
		return fail(ErrInvalidRequest.WithMessage("unsupported format %q", op.Format))
	case op.Service == "" || op.Ticket == "":
		return fail(ErrInvalidRequest.WithMessage("'service' and 'ticket' parameters are both required"))
	case len(op.Service) > maxServiceLength:
		return fail(ErrInvalidService.WithMessage("service url exceeds %d characters", maxServiceLength))
	case len(op.Ticket) > maxTicketLength || !strings.HasPrefix(op.Ticket, ticket.Prefix):
		return fail(ErrInvalidTicketSpec.WithMessage("ticket is malformed"))
	}
	if op.Proxy && op.PgtURL != "" {
		if u, err := url.Parse(op.PgtURL); err != nil || u.Scheme != "https" || u.Host == "" {
			return fail(ErrInvalidProxyCallback.WithMessage("proxy callback must be an https url"))
		}
		return fail(ErrUnauthorizedServiceProxy)
	}

	app, found := s.registry.Resolve(op.Service)
	if !found {
		return fail(ErrInvalidService.WithMessage("service is not registered"))
	}
	if !app.Enabled {
		return fail(ErrInvalidService.WithMessage("service is disabled"))
	}

	t, ok := s.tickets.Remove(req.Tenant, op.Ticket)
	if !ok {
		return fail(ErrInvalidTicket)
	}
	if t.Application != app.Code {
		return fail(ErrInvalidTicket.WithMessage("ticket was not issued for this service"))
	}
	if !s.sessions.Verify(req.Tenant, t.Session) {
		return fail(ErrInvalidTicketSpec.WithMessage("session of the ticket is no longer valid"))
	}

	account, err := s.directory.FindByID(ctx, req.Tenant, t.Subject)
	if err != nil {
		s.logger.Error().Err(err).Str("tenant", req.Tenant).Str("account", t.Subject).Msg("load account failed")
		return fail(ErrInternal.WithMessage("failed to load account").WithCause(err))
	}
	if err := s.tickets.Bind(req.Tenant, t); err != nil {
		s.logger.Warn().Err(err).Str("ticket", t.ID).Msg("rebind ticket failed")
	}

	contentType, body, err := encodeSuccess(format, account.Username, scopeAttributes(account, s.cfg.Scopes))
	if err != nil {
		return fail(ErrInternal.WithMessage("failed to encode response").WithCause(err))
	}
	s.metrics.incValidated(resultSuccess)
	s.logger.Debug().
		Str("tenant", req.Tenant).
		Str("application", app.Code).
		Str("account", account.ID).
		Str("ticket", t.ID).
		Msg("ticket validated")
	return Result{Status: http.StatusOK, ContentType: contentType, Body: body}
}

func (s *Service) logout(ctx context.Context, req Request, op Logout) Result {
	if !s.cfg.enabled() {
		return text(http.StatusServiceUnavailable, "CAS service is disabled")
	}

	target := op.Service
	var app registry.Application
	if op.Service != "" {
		a, res, ok := s.trust(op.Service)
		if !ok {
			return res
		}
		app = a
	} else {
		target = s.loginPage(req, "")
	}
	if req.Session == "" {
		return redirect(target)
	}

	claims, err := s.sessions.Inspect(req.Session)
	if err != nil || claims.Tenant != req.Tenant {
		return text(http.StatusBadRequest, "invalid session", s.clearCookie(req))
	}

	var (
		cookies   []*http.Cookie
		callbacks []*callback
	)
	tickets := s.tickets.GetTicketBySession(req.Tenant, claims.ID)
	if s.cfg.singleLogout() {
		s.sessions.Invalid(req.Session)
		cookies = append(cookies, s.clearCookie(req))
		callbacks = s.callbacks(tickets, "")
		s.tickets.RemoveTicketBySession(req.Tenant, claims.ID)
		s.logger.Info().
			Str("tenant", req.Tenant).
			Str("account", claims.Subject).
			Str("session", claims.ID).
			Int("callbacks", len(callbacks)).
			Msg("single logout")
	} else if op.Service != "" {
		callbacks = s.callbacks(tickets, app.Code)
	}

	s.wait(ctx, s.notifier.notify(callbacks))
	return redirect(target, cookies...)
}

// callbacks only 非空时只通知该应用
func (s *Service) callbacks(tickets []*ticket.Ticket, only string) []*callback {
	var out []*callback
	for _, t := range tickets {
		if only != "" && t.Application != only {
			continue
		}
		app, ok := s.registry.ByCode(t.Application)
		if !ok || !app.Enabled {
			s.logger.Debug().Str("application", t.Application).Msg("skip logout callback for unknown or disabled application")
			continue
		}
		out = append(out, &callback{url: app.Base() + "/", ticket: t.ID, application: app.Code})
	}
	return out
}

// wait 最多等待 LogoutDelay，回调提前完成时立即返回
func (s *Service) wait(ctx context.Context, b *Batch) {
	if s.cfg.LogoutDelay <= 0 {
		return
	}
	timer := time.NewTimer(s.cfg.LogoutDelay)
	defer timer.Stop()
	select {
	case <-b.Done():
	case <-timer.C:
	case <-ctx.Done():
	}
}

// trust 解析受信任应用，未注册或已停用返回 403
func (s *Service) trust(service string) (registry.Application, Result, bool) {
	app, ok := s.registry.Resolve(service)
	if !ok {
		s.logger.Warn().Str("service", service).Msg("service not registered")
		return app, text(http.StatusForbidden, "service is not registered"), false
	}
	if !app.Enabled {
		s.logger.Warn().Str("service", service).Str("application", app.Code).Msg("service disabled")
		return app, text(http.StatusForbidden, "service is disabled"), false
	}
	return app, Result{}, true
}

func (s *Service) session(req Request) (*session.Claims, bool) {
	if req.Session == "" || !s.sessions.Verify(req.Tenant, req.Session) {
		return nil, false
	}
	claims, err := s.sessions.Parse(req.Session)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func (s *Service) currentURL(req Request) string {
	if req.URL == nil {
		return ""
	}
	return req.URL.String()
}

// loginPage {scheme}://{host}{tenantPath}{loginPath}，redirectURI 非空时附加 redirect_uri
func (s *Service) loginPage(req Request, redirectURI string) string {
	u := url.URL{Path: xhttp.Join(cookiePath(req), s.cfg.LoginPath)}
	if req.URL != nil {
		u.Scheme, u.Host = req.URL.Scheme, req.URL.Host
	}
	if redirectURI != "" {
		u.RawQuery = url.Values{"redirect_uri": {redirectURI}}.Encode()
	}
	return u.String()
}

func cookiePath(req Request) string {
	if req.TenantPath == "" {
		return "/"
	}
	return req.TenantPath
}

// SessionCookie 写入会话令牌的 Cookie
func (s *Service) SessionCookie(tenantPath, token string) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.Cookie.Name,
		Value:    token,
		Path:     cookiePath(Request{TenantPath: tenantPath}),
		MaxAge:   s.cfg.Cookie.MaxAge,
		HttpOnly: true,
		Secure:   s.cfg.Cookie.secure(),
		SameSite: http.SameSiteLaxMode,
	}
}

// CookieName 会话 Cookie 名
func (s *Service) CookieName() string {
	return s.cfg.Cookie.Name
}

func (s *Service) clearCookie(req Request) *http.Cookie {
	c := s.SessionCookie(req.TenantPath, "deleteMe")
	c.MaxAge = -1
	return c
}
