package cas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/sso/cache"
	"github.com/kochabx/sso/directory"
	"github.com/kochabx/sso/registry"
	"github.com/kochabx/sso/session"
	"github.com/kochabx/sso/ticket"
)

const (
	crmService = "https://crm.example.com/home"
	erpService = "https://erp.example.com/erp/index"
	loginPage  = "https://sso.example.com/login"
)

type fixture struct {
	svc      *Service
	repo     *cache.Memory
	sessions *session.Store
	tickets  *ticket.Store
	registry *registry.Registry
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()
	repo, err := cache.NewMemory(cache.Config{Shards: 4, PollInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(context.Background()) })

	sessions, err := session.NewStore(repo, session.Config{Secret: "0123456789abcdef0123456789abcdef"})
	require.NoError(t, err)
	tickets, err := ticket.NewStore(repo, ticket.Config{})
	require.NoError(t, err)
	reg := registry.New(
		registry.Application{Code: "crm", URL: "https://crm.example.com", Enabled: true},
		registry.Application{Code: "erp", URL: "https://erp.example.com", ContextPath: "/erp", Enabled: true},
		registry.Application{Code: "off", URL: "https://off.example.com"},
	)
	dir := directory.NewStatic(directory.Account{
		ID: "u1", Tenant: "master", Username: "alice", Name: "Alice",
		Email: "alice@example.com", Mobile: "13800000000", Admin: true, Enabled: true,
	})

	cfg := Config{LogoutDelay: 500 * time.Millisecond}
	for _, m := range mutate {
		m(&cfg)
	}
	svc, err := NewService(cfg, sessions, tickets, reg, dir, WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	svc.Start()
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	return &fixture{svc: svc, repo: repo, sessions: sessions, tickets: tickets, registry: reg}
}

func (f *fixture) signIn(t *testing.T, account string) string {
	t.Helper()
	s, err := f.sessions.Issue(session.IssueRequest{Tenant: "master", AccountID: account, Username: "alice", Endpoint: "web"})
	require.NoError(t, err)
	return s.Token
}

func request(t *testing.T, rawURL, token string) Request {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return Request{Tenant: "master", TenantPath: "/", URL: u, Session: token}
}

// issueTicket 登录并返回跳转中的票据
func (f *fixture) issueTicket(t *testing.T, token, service string) string {
	t.Helper()
	res := f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/login", token), Login{Service: service})
	require.Equal(t, http.StatusFound, res.Status)
	u, err := url.Parse(res.Location)
	require.NoError(t, err)
	id := u.Query().Get("ticket")
	require.NotEmpty(t, id, res.Location)
	return id
}

func (f *fixture) validate(t *testing.T, op Validate) Result {
	t.Helper()
	return f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/validate", ""), op)
}

func failureCode(t *testing.T, res Result) string {
	t.Helper()
	var body jsonFailure
	require.NoError(t, json.Unmarshal(res.Body, &body), string(res.Body))
	return body.Code
}

func TestLoginValidateRoundTrip(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t, "u1")

	res := f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/login?service=x", token), Login{Service: crmService})
	require.Equal(t, http.StatusFound, res.Status)
	assert.Regexp(t, `^https://crm\.example\.com/home\?ticket=ST-\d{4}-.+$`, res.Location)
	assert.Empty(t, res.Cookies)

	id, err := url.Parse(res.Location)
	require.NoError(t, err)
	st := id.Query().Get("ticket")

	res = f.validate(t, Validate{Service: crmService, Ticket: st})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	assert.Equal(t, contentTypeJSON, res.ContentType)
	var body jsonSuccess
	require.NoError(t, json.Unmarshal(res.Body, &body))
	assert.Equal(t, "alice", body.User)
	assert.Equal(t, map[string]any{"id": "u1", "username": "alice", "name": "Alice"}, body.Attributes)

	res = f.validate(t, Validate{Service: crmService, Ticket: st})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, CodeInvalidTicket, failureCode(t, res))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.issued))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.validated.WithLabelValues(resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.validated.WithLabelValues(CodeInvalidTicket)))

	tickets := f.tickets.GetTicketBySession("master", mustClaims(t, f, token).ID)
	require.Len(t, tickets, 1)
	assert.Equal(t, st, tickets[0].ID)
}

func mustClaims(t *testing.T, f *fixture, token string) *session.Claims {
	t.Helper()
	c, err := f.sessions.Parse(token)
	require.NoError(t, err)
	return c
}

func TestLoginWithoutService(t *testing.T) {
	f := newFixture(t)
	req := request(t, "https://sso.example.com/cas/login", "")

	res := f.svc.Dispatch(context.Background(), req, Login{})
	assert.Equal(t, http.StatusFound, res.Status)
	assert.Equal(t, loginPage, res.Location)
	assert.Empty(t, res.Cookies)

	req.TenantPath = "/acme"
	res = f.svc.Dispatch(context.Background(), req, Login{Renew: true})
	assert.Equal(t, "https://sso.example.com/acme/login", res.Location)
	require.Len(t, res.Cookies, 1)
	c := res.Cookies[0]
	assert.Equal(t, "sso_session", c.Name)
	assert.Equal(t, "deleteMe", c.Value)
	assert.Equal(t, "/acme", c.Path)
	assert.Equal(t, -1, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
}

func TestLoginUntrustedService(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t, "u1")
	before := len(f.repo.Keys())

	for service, msg := range map[string]string{
		"https://evil.example.com/":        "service is not registered",
		"https://crm.example.com.evil.io/": "service is not registered",
		"https://off.example.com/x":        "service is disabled",
	} {
		res := f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/login", token), Login{Service: service})
		assert.Equal(t, http.StatusForbidden, res.Status, service)
		assert.Equal(t, msg, string(res.Body))
	}
	assert.Len(t, f.repo.Keys(), before)
}

func TestLoginWithoutSession(t *testing.T) {
	f := newFixture(t)
	current := "https://sso.example.com/cas/login?service=" + url.QueryEscape(crmService)

	res := f.svc.Dispatch(context.Background(), request(t, current, ""), Login{Service: crmService})
	assert.Equal(t, http.StatusFound, res.Status)
	u, err := url.Parse(res.Location)
	require.NoError(t, err)
	assert.Equal(t, "/login", u.Path)
	assert.Equal(t, current, u.Query().Get("redirect_uri"))
	assert.Empty(t, res.Cookies)

	res = f.svc.Dispatch(context.Background(), request(t, current, ""), Login{Service: crmService, Gateway: true})
	assert.Equal(t, crmService, res.Location)

	res = f.svc.Dispatch(context.Background(), request(t, current, "not-a-token"), Login{Service: crmService})
	assert.True(t, strings.HasPrefix(res.Location, loginPage+"?redirect_uri="))
	require.Len(t, res.Cookies, 1)
	assert.Equal(t, -1, res.Cookies[0].MaxAge)
}

func TestLoginOtherTenantSession(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t, "u1")
	req := request(t, "https://sso.example.com/cas/login", token)
	req.Tenant = "acme"

	res := f.svc.Dispatch(context.Background(), req, Login{Service: crmService})
	assert.True(t, strings.HasPrefix(res.Location, loginPage), res.Location)
}

func TestLoginRenew(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t, "u1")
	current := "https://sso.example.com/cas/login?service=" + url.QueryEscape(crmService) + "&renew=true"

	res := f.svc.Dispatch(context.Background(), request(t, current, token), Login{Service: crmService, Renew: true})
	assert.Equal(t, http.StatusFound, res.Status)
	u, err := url.Parse(res.Location)
	require.NoError(t, err)
	assert.Equal(t, "https://sso.example.com/cas/login?service="+url.QueryEscape(crmService), u.Query().Get("redirect_uri"))
	require.Len(t, res.Cookies, 1)
	assert.Equal(t, "deleteMe", res.Cookies[0].Value)
}

func TestValidatePreChecks(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		op   Validate
		code string
	}{
		{"missing ticket", Validate{Service: crmService}, CodeInvalidRequest},
		{"missing service", Validate{Ticket: "ST-1000-abc"}, CodeInvalidRequest},
		{"bad format", Validate{Service: crmService, Ticket: "ST-1000-abc", Format: "yaml"}, CodeInvalidRequest},
		{"long service", Validate{Service: crmService + "/" + strings.Repeat("a", maxServiceLength), Ticket: "ST-1000-abc"}, CodeInvalidService},
		{"bad prefix", Validate{Service: crmService, Ticket: "PT-1000-abc"}, CodeInvalidTicketSpec},
		{"long ticket", Validate{Service: crmService, Ticket: "ST-" + strings.Repeat("a", maxTicketLength)}, CodeInvalidTicketSpec},
		{"http proxy callback", Validate{Service: crmService, Ticket: "ST-1000-abc", Proxy: true, PgtURL: "http://crm.example.com/pgt"}, CodeInvalidProxyCallback},
		{"https proxy callback", Validate{Service: crmService, Ticket: "ST-1000-abc", Proxy: true, PgtURL: "https://crm.example.com/pgt"}, CodeUnauthorizedServiceProxy},
		{"untrusted service", Validate{Service: "https://evil.example.com", Ticket: "ST-1000-abc"}, CodeInvalidService},
		{"disabled service", Validate{Service: "https://off.example.com", Ticket: "ST-1000-abc"}, CodeInvalidService},
		{"unknown ticket", Validate{Service: crmService, Ticket: "ST-1000-abc"}, CodeInvalidTicket},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := f.validate(t, c.op)
			assert.Equal(t, http.StatusBadRequest, res.Status)
			assert.Equal(t, c.code, failureCode(t, res))
		})
	}
}

func TestValidateProxyWithoutCallback(t *testing.T) {
	f := newFixture(t)
	st := f.issueTicket(t, f.signIn(t, "u1"), crmService)

	res := f.validate(t, Validate{Service: crmService, Ticket: st, Proxy: true})
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestValidateAudienceBinding(t *testing.T) {
	f := newFixture(t)
	st := f.issueTicket(t, f.signIn(t, "u1"), crmService)

	res := f.validate(t, Validate{Service: erpService, Ticket: st})
	assert.Equal(t, CodeInvalidTicket, failureCode(t, res))

	res = f.validate(t, Validate{Service: crmService, Ticket: st})
	assert.Equal(t, CodeInvalidTicket, failureCode(t, res))
}

func TestValidateUntrustedServiceKeepsTicket(t *testing.T) {
	f := newFixture(t)
	st := f.issueTicket(t, f.signIn(t, "u1"), crmService)

	res := f.validate(t, Validate{Service: "https://evil.example.com", Ticket: st})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, CodeInvalidService, failureCode(t, res))

	res = f.validate(t, Validate{Service: "https://off.example.com", Ticket: st})
	assert.Equal(t, CodeInvalidService, failureCode(t, res))

	// 票据未被消费
	res = f.validate(t, Validate{Service: crmService, Ticket: st})
	assert.Equal(t, http.StatusOK, res.Status, string(res.Body))
}

func TestValidateDeadSession(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t, "u1")
	st := f.issueTicket(t, token, crmService)
	require.True(t, f.sessions.Invalid(token))

	res := f.validate(t, Validate{Service: crmService, Ticket: st})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, CodeInvalidTicketSpec, failureCode(t, res))
}

func TestValidateUnknownAccount(t *testing.T) {
	f := newFixture(t)
	st := f.issueTicket(t, f.signIn(t, "ghost"), crmService)

	res := f.validate(t, Validate{Service: crmService, Ticket: st})
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, CodeInternalError, failureCode(t, res))
}

func TestValidateXML(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Scopes = []string{"basic", "organization"} })
	st := f.issueTicket(t, f.signIn(t, "u1"), crmService)

	req := request(t, "https://sso.example.com/cas/validate", "")
	req.Accept = "text/xml"
	res := f.svc.Dispatch(context.Background(), req, Validate{Service: crmService, Ticket: st})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, contentTypeXML, res.ContentType)
	assert.Equal(t,
		`<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas"><cas:authenticationSuccess>`+
			`<cas:user>alice</cas:user><cas:attributes>`+
			`<cas:id>u1</cas:id><cas:username>alice</cas:username><cas:name>Alice</cas:name>`+
			`<cas:tenant>master</cas:tenant><cas:admin>true</cas:admin><cas:supervisor>false</cas:supervisor>`+
			`</cas:attributes></cas:authenticationSuccess></cas:serviceResponse>`,
		string(res.Body))

	res = f.svc.Dispatch(context.Background(), req, Validate{Service: crmService, Ticket: st})
	assert.Equal(t,
		`<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">`+
			`<cas:authenticationFailure code="INVALID_TICKET">ticket not recognized</cas:authenticationFailure>`+
			`</cas:serviceResponse>`,
		string(res.Body))

	res = f.svc.Dispatch(context.Background(), req, Validate{Service: crmService, Ticket: st, Format: "JSON"})
	assert.Equal(t, contentTypeJSON, res.ContentType)
}

func TestValidateContactScope(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Scopes = []string{"contact", "contact"} })
	st := f.issueTicket(t, f.signIn(t, "u1"), crmService)

	res := f.validate(t, Validate{Service: crmService, Ticket: st})
	var body jsonSuccess
	require.NoError(t, json.Unmarshal(res.Body, &body))
	assert.Equal(t, map[string]any{"email": "alice@example.com", "mobile": "13800000000"}, body.Attributes)
}

func TestDisabled(t *testing.T) {
	disabled := false
	f := newFixture(t, func(c *Config) { c.Enabled = &disabled })
	token := f.signIn(t, "u1")

	res := f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/login", token), Login{Service: crmService})
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)

	res = f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/logout", token), Logout{Service: crmService})
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)

	res = f.validate(t, Validate{Service: crmService, Ticket: "ST-1000-abc"})
	assert.Equal(t, CodeInvalidRequest, failureCode(t, res))
}

func TestUnsupportedOperation(t *testing.T) {
	f := newFixture(t)
	res := f.svc.Dispatch(context.Background(), Request{}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Status)
}

// callbackServer 记录收到的注销请求
type callbackServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []string
}

func newCallbackServer(t *testing.T, status int, delay time.Duration) *callbackServer {
	t.Helper()
	s := &callbackServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.Path+" "+r.PostFormValue("logoutRequest"))
		s.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *callbackServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func TestSingleLogoutFanOut(t *testing.T) {
	f := newFixture(t)
	crm := newCallbackServer(t, http.StatusOK, 0)
	erp := newCallbackServer(t, http.StatusInternalServerError, 0)
	f.registry.Replace([]registry.Application{
		{Code: "crm", URL: crm.URL, Enabled: true},
		{Code: "erp", URL: erp.URL, ContextPath: "/erp", Enabled: true},
	})

	token := f.signIn(t, "u1")
	crmTicket := f.issueTicket(t, token, crm.URL+"/home")
	erpTicket := f.issueTicket(t, token, erp.URL+"/erp/index")
	require.Equal(t, http.StatusOK, f.validate(t, Validate{Service: crm.URL + "/home", Ticket: crmTicket}).Status)

	res := f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/logout", token), Logout{Service: crm.URL + "/home"})
	assert.Equal(t, http.StatusFound, res.Status)
	assert.Equal(t, crm.URL+"/home", res.Location)
	require.Len(t, res.Cookies, 1)
	assert.Equal(t, -1, res.Cookies[0].MaxAge)

	assert.False(t, f.sessions.Verify("master", token))
	assert.Empty(t, f.tickets.GetTicketBySession("master", mustClaims(t, f, token).ID))

	require.Eventually(t, func() bool {
		return len(crm.received()) == 1 && len(erp.received()) == 1
	}, 3*time.Second, 20*time.Millisecond)
	assert.Contains(t, crm.received()[0], "<samlp:SessionIndex>"+crmTicket+"</samlp:SessionIndex>")
	assert.True(t, strings.HasPrefix(erp.received()[0], "/erp/ "))
	assert.Contains(t, erp.received()[0], erpTicket)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.svc.metrics.callbacks.WithLabelValues(resultFailure)) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.metrics.callbacks.WithLabelValues(resultSuccess)))
}

func TestLogoutUnreachableApplication(t *testing.T) {
	f := newFixture(t)
	crm := newCallbackServer(t, http.StatusOK, 0)
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()
	f.registry.Replace([]registry.Application{
		{Code: "crm", URL: crm.URL, Enabled: true},
		{Code: "dead", URL: deadURL, Enabled: true},
	})

	token := f.signIn(t, "u1")
	f.issueTicket(t, token, deadURL+"/")
	f.issueTicket(t, token, crm.URL+"/")

	res := f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/logout", token), Logout{Service: crm.URL})
	assert.Equal(t, http.StatusFound, res.Status)
	require.Eventually(t, func() bool { return len(crm.received()) == 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestLogoutWaitsAtMostDelay(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.LogoutDelay = 50 * time.Millisecond })
	slow := newCallbackServer(t, http.StatusOK, 500*time.Millisecond)
	f.registry.Replace([]registry.Application{{Code: "slow", URL: slow.URL, Enabled: true}})

	token := f.signIn(t, "u1")
	f.issueTicket(t, token, slow.URL)

	start := time.Now()
	res := f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/logout", token), Logout{Service: slow.URL})
	assert.Equal(t, http.StatusFound, res.Status)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestLogoutReturnsWhenCallbacksFinish(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.LogoutDelay = 5 * time.Second })
	crm := newCallbackServer(t, http.StatusOK, 0)
	f.registry.Replace([]registry.Application{{Code: "crm", URL: crm.URL, Enabled: true}})

	token := f.signIn(t, "u1")
	f.issueTicket(t, token, crm.URL)

	start := time.Now()
	f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/logout", token), Logout{Service: crm.URL})
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, crm.received(), 1)
}

func TestLogoutWithoutSession(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/logout", ""), Logout{Service: crmService})
	assert.Equal(t, http.StatusFound, res.Status)
	assert.Equal(t, crmService, res.Location)
	assert.Empty(t, res.Cookies)

	res = f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/logout", ""), Logout{})
	assert.Equal(t, loginPage, res.Location)

	res = f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/logout", ""), Logout{Service: "https://evil.example.com"})
	assert.Equal(t, http.StatusForbidden, res.Status)
}

func TestLogoutInvalidCookie(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/logout", "garbage"), Logout{Service: crmService})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	require.Len(t, res.Cookies, 1)
	assert.Equal(t, "deleteMe", res.Cookies[0].Value)
}

func TestLogoutSingleLogoutDisabled(t *testing.T) {
	disabled := false
	f := newFixture(t, func(c *Config) { c.SingleLogout = &disabled })
	crm := newCallbackServer(t, http.StatusOK, 0)
	erp := newCallbackServer(t, http.StatusOK, 0)
	f.registry.Replace([]registry.Application{
		{Code: "crm", URL: crm.URL, Enabled: true},
		{Code: "erp", URL: erp.URL, Enabled: true},
	})

	token := f.signIn(t, "u1")
	f.issueTicket(t, token, crm.URL)
	f.issueTicket(t, token, erp.URL)

	res := f.svc.Dispatch(context.Background(), request(t, "https://sso.example.com/cas/logout", token), Logout{Service: crm.URL})
	assert.Equal(t, http.StatusFound, res.Status)
	assert.Empty(t, res.Cookies)
	assert.True(t, f.sessions.Verify("master", token))

	require.Eventually(t, func() bool { return len(crm.received()) == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, erp.received())
}

func TestSessionCookie(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Cookie.MaxAge = 3600 })
	c := f.svc.SessionCookie("/acme", "token")
	assert.Equal(t, "sso_session", f.svc.CookieName())
	assert.Equal(t, "token", c.Value)
	assert.Equal(t, "/acme", c.Path)
	assert.Equal(t, 3600, c.MaxAge)
	assert.True(t, c.HttpOnly)

	assert.Equal(t, "/", f.svc.SessionCookie("", "token").Path)
}
