package server

import (
	"time"

	"github.com/kochabx/sso/cache"
	"github.com/kochabx/sso/cas"
	"github.com/kochabx/sso/directory"
	"github.com/kochabx/sso/log"
	"github.com/kochabx/sso/registry"
	"github.com/kochabx/sso/session"
	"github.com/kochabx/sso/store/db"
	"github.com/kochabx/sso/ticket"
	transporthttp "github.com/kochabx/sso/transport/http"
)

const (
	SourceStatic   = "static"
	SourceDatabase = "database"
)

// Config 服务配置根节点
type Config struct {
	Server    ServerConfig    `json:"server" mapstructure:"server"`
	Log       log.Config      `json:"log" mapstructure:"log"`
	Cache     cache.Config    `json:"cache" mapstructure:"cache"`
	Session   session.Config  `json:"session" mapstructure:"session"`
	Ticket    ticket.Config   `json:"ticket" mapstructure:"ticket"`
	CAS       cas.Config      `json:"cas" mapstructure:"cas"`
	Registry  RegistryConfig  `json:"registry" mapstructure:"registry"`
	Directory DirectoryConfig `json:"directory" mapstructure:"directory"`
	Database  db.Config       `json:"database" mapstructure:"database"`
	Metrics   MetricsConfig   `json:"metrics" mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr            string                `json:"addr" mapstructure:"addr" default:":8080"`
	Mode            string                `json:"mode" mapstructure:"mode" default:"release" validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration         `json:"shutdown_timeout" mapstructure:"shutdown_timeout" default:"30s"`
	HTTP            transporthttp.Options `json:"http" mapstructure:"http"`
	// 可信代理，决定 X-Forwarded-* 是否生效
	TrustedProxies []string `json:"trusted_proxies" mapstructure:"trusted_proxies"`
}

// RegistryConfig 可信应用来源，static 读取 applications，database 读取 saas_application
type RegistryConfig struct {
	Source       string                 `json:"source" mapstructure:"source" default:"static" validate:"oneof=static database"`
	Tenant       string                 `json:"tenant" mapstructure:"tenant" default:"master"`
	Refresh      string                 `json:"refresh" mapstructure:"refresh" default:"@every 1m"`
	Applications []registry.Application `json:"applications" mapstructure:"applications" validate:"dive"`
}

type DirectoryConfig struct {
	Source   string              `json:"source" mapstructure:"source" default:"static" validate:"oneof=static database"`
	Accounts []directory.Account `json:"accounts" mapstructure:"accounts" validate:"dive"`
}

type MetricsConfig struct {
	Enabled     *bool `json:"enabled" mapstructure:"enabled" default:"true"`
	GoCollector *bool `json:"go_collector" mapstructure:"go_collector" default:"true"`
	BuildInfo   *bool `json:"build_info" mapstructure:"build_info" default:"true"`
}

func on(b *bool) bool {
	return b == nil || *b
}

func (c *Config) usesDatabase() bool {
	return c.Registry.Source == SourceDatabase || c.Directory.Source == SourceDatabase
}
