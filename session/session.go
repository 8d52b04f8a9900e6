package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kochabx/sso/errors"
)

var (
	ErrInvalidToken    = errors.Sentinel("session: invalid token")
	ErrSessionNotFound = errors.Sentinel("session: session not found")
	ErrEmptySecret     = errors.Sentinel("session: secret cannot be empty")
)

// Config 会话配置
type Config struct {
	Secret        string        `json:"secret" mapstructure:"secret" validate:"required"`
	SigningMethod string        `json:"signing_method" mapstructure:"signing_method" default:"HS256" validate:"oneof=HS256 HS384 HS512"`
	Issuer        string        `json:"issuer" mapstructure:"issuer" default:"sso"`
	// Timeout 空闲超时，每次校验通过后顺延
	Timeout time.Duration `json:"timeout" mapstructure:"timeout" default:"30m"`
	// MaxAge 令牌绝对有效期
	MaxAge time.Duration `json:"max_age" mapstructure:"max_age" default:"12h"`
	// Limit 同一账户同一终端的并发会话上限，0 表示不限制
	Limit int `json:"limit" mapstructure:"limit" validate:"gte=0"`
}

func (c *Config) signingMethod() jwt.SigningMethod {
	switch c.SigningMethod {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

// Claims 会话令牌声明：jti 为会话 ID，sub 为账户 ID，exp 为绝对过期时间
type Claims struct {
	jwt.RegisteredClaims
	Tenant   string `json:"tenant"`
	Username string `json:"username,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	// Timeout 空闲超时，毫秒
	Timeout int64 `json:"timeout"`
	// Source 派生会话的父会话 ID
	Source string `json:"source,omitempty"`
}

// IdleTimeout 空闲超时，不超过令牌的剩余有效期
func (c *Claims) IdleTimeout(now time.Time) time.Duration {
	d := time.Duration(c.Timeout) * time.Millisecond
	if c.ExpiresAt == nil {
		return d
	}
	if left := c.ExpiresAt.Sub(now); d <= 0 || left < d {
		return left
	}
	return d
}

// Session 已签发的会话
type Session struct {
	Token  string
	Claims *Claims
}

// IssueRequest 签发会话的参数
type IssueRequest struct {
	Tenant    string
	AccountID string
	Username  string
	Endpoint  string
	// Source 父会话 ID，可选
	Source string
}
