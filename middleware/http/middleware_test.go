package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/sso/log"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestTenant(t *testing.T) {
	engine := gin.New()
	engine.Use(Tenant())
	engine.GET("/login", func(c *gin.Context) {
		code, path := TenantOf(c)
		c.String(http.StatusOK, code+" "+path)
	})

	cases := []struct {
		header, prefix string
		status         int
		body           string
	}{
		{"", "", http.StatusOK, "master /"},
		{"acme", "/acme/", http.StatusOK, "acme /acme"},
		{" acme ", "acme/sso, /other", http.StatusOK, "acme /acme/sso"},
		{"bad code!", "", http.StatusBadRequest, ""},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		if c.header != "" {
			req.Header.Set("X-Tenant-Code", c.header)
		}
		if c.prefix != "" {
			req.Header.Set("X-Forwarded-Prefix", c.prefix)
		}
		w := do(engine, req)
		assert.Equal(t, c.status, w.Code, c)
		if c.body != "" {
			assert.Equal(t, c.body, w.Body.String(), c)
		}
	}
}

func TestTenantOfWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	code, path := TenantOf(c)
	assert.Equal(t, DefaultTenant, code)
	assert.Equal(t, "/", path)
}

func TestPathMatcher(t *testing.T) {
	pm := NewPathMatcher([]string{"/health", "/metrics/**", "/*/login"})
	assert.True(t, pm.Match("/health"))
	assert.False(t, pm.Match("/health/live"))
	assert.True(t, pm.Match("/metrics"))
	assert.True(t, pm.Match("/metrics/go"))
	assert.False(t, pm.Match("/metricsx"))
	assert.True(t, pm.Match("/acme/login"))
	assert.False(t, pm.Match("/login"))

	var nilMatcher *PathMatcher
	assert.False(t, nilMatcher.Match("/health"))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriter(&buf)

	engine := gin.New()
	engine.Use(Tenant(), Logger(LoggerConfig{Logger: logger, SkipPaths: []string{"/health"}}))
	engine.GET("/login", func(c *gin.Context) { c.Redirect(http.StatusFound, "https://crm.example.com/") })
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/validate", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	req := httptest.NewRequest(http.MethodGet, "/login?service=x", nil)
	req.Header.Set("X-Tenant-Code", "acme")
	do(engine, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(http.StatusFound), entry["status"])
	assert.Equal(t, "acme", entry["tenant"])
	assert.Equal(t, "service=x", entry["query"])
	assert.Equal(t, "https://crm.example.com/", entry["location"])

	buf.Reset()
	do(engine, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Zero(t, buf.Len())

	do(engine, httptest.NewRequest(http.MethodGet, "/validate", nil))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	engine := gin.New()
	engine.Use(Recovery(RecoveryConfig{Logger: log.NewWriter(&buf)}))
	engine.GET("/panic", func(*gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.AddCookie(&http.Cookie{Name: "sso_session", Value: "secret-token"})
	w := do(engine, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "boom")
	assert.NotContains(t, buf.String(), "secret-token")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine := gin.New()
	engine.Use(Metrics(reg))
	engine.GET("/login", func(c *gin.Context) { c.Status(http.StatusFound) })

	do(engine, httptest.NewRequest(http.MethodGet, "/login", nil))
	do(engine, httptest.NewRequest(http.MethodGet, "/login", nil))
	do(engine, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "http_request_duration_seconds"))
	expected := `
# HELP http_requests_total HTTP requests by route and status.
# TYPE http_requests_total counter
http_requests_total{method="GET",route="/login",status="302"} 2
http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))
}
