package cas

import (
	"runtime"
	"time"
)

// Config CAS 协议配置
type Config struct {
	Enabled *bool `json:"enabled" mapstructure:"enabled" default:"true"`
	// SingleLogout 注销时通知会话关联的全部应用，关闭时只通知发起注销的应用
	SingleLogout *bool `json:"single_logout" mapstructure:"single_logout" default:"true"`
	// LoginPath 登录页相对租户路径的地址
	LoginPath string         `json:"login_path" mapstructure:"login_path" default:"/login"`
	Cookie    CookieConfig   `json:"cookie" mapstructure:"cookie"`
	// LogoutDelay 注销跳转前等待回调完成的最长时间
	LogoutDelay time.Duration `json:"logout_delay" mapstructure:"logout_delay" default:"1s" validate:"gte=0"`
	// Scopes 校验成功时释放的属性范围：basic | contact | organization
	Scopes   []string       `json:"scopes" mapstructure:"scopes" default:"basic" validate:"dive,oneof=basic contact organization"`
	Notifier NotifierConfig `json:"notifier" mapstructure:"notifier"`
}

func (c *Config) enabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func (c *Config) singleLogout() bool {
	return c.SingleLogout == nil || *c.SingleLogout
}

// CookieConfig 会话 Cookie
type CookieConfig struct {
	Name   string `json:"name" mapstructure:"name" default:"sso_session"`
	Secure *bool  `json:"secure" mapstructure:"secure" default:"true"`
	// MaxAge 秒，0 表示会话 Cookie
	MaxAge int `json:"max_age" mapstructure:"max_age"`
}

func (c *CookieConfig) secure() bool {
	return c.Secure == nil || *c.Secure
}

// NotifierConfig 注销回调
type NotifierConfig struct {
	// Workers 并发发送数，0 表示 CPU 核数
	Workers int `json:"workers" mapstructure:"workers" validate:"gte=0"`
	// QueueSize 等待发送的回调上限，队列满时丢弃新回调
	QueueSize int           `json:"queue_size" mapstructure:"queue_size" default:"1024" validate:"gte=1"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout" default:"5s"`
	// ShutdownGrace 关闭时等待在途回调的时间
	ShutdownGrace time.Duration `json:"shutdown_grace" mapstructure:"shutdown_grace" default:"3s"`
}

func (c *NotifierConfig) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
