package db

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kochabx/sso/core/tag"
)

// Driver 数据库驱动类型
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Config 数据库配置，DSN 非空时直接使用
type Config struct {
	Driver   Driver            `json:"driver" mapstructure:"driver" default:"sqlite" validate:"oneof=mysql postgres sqlite"`
	DSN      string            `json:"dsn" mapstructure:"dsn"`
	Host     string            `json:"host" mapstructure:"host" default:"localhost"`
	Port     int               `json:"port" mapstructure:"port"`
	User     string            `json:"user" mapstructure:"user"`
	Password string            `json:"password" mapstructure:"password"`
	Database string            `json:"database" mapstructure:"database" default:"sso"`
	Params   map[string]string `json:"params" mapstructure:"params"`
	// FilePath sqlite 数据文件
	FilePath string     `json:"file_path" mapstructure:"file_path" default:"./sso.db"`
	Pool     PoolConfig `json:"pool" mapstructure:"pool"`
	// LogLevel silent | error | warn | info
	LogLevel string `json:"log_level" mapstructure:"log_level" default:"silent"`
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns" default:"10"`
	MaxOpenConns    int           `json:"max_open_conns" mapstructure:"max_open_conns" default:"100"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime" default:"1h"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" mapstructure:"conn_max_idle_time" default:"10m"`
}

func (c *Config) init() error {
	if err := tag.ApplyDefaults(c); err != nil {
		return err
	}
	if c.Driver == DriverSQLite {
		// 单文件数据库只用一个连接
		c.Pool.MaxIdleConns, c.Pool.MaxOpenConns = 1, 1
	}
	return nil
}

// dsn 按驱动拼接连接串
func (c *Config) dsn() (string, error) {
	if c.DSN != "" {
		return c.DSN, nil
	}
	switch c.Driver {
	case DriverMySQL:
		port := c.Port
		if port == 0 {
			port = 3306
		}
		params := url.Values{"charset": {"utf8mb4"}, "parseTime": {"true"}, "loc": {"Local"}}
		for k, v := range c.Params {
			params.Set(k, v)
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", c.User, c.Password, c.Host, port, c.Database, params.Encode()), nil
	case DriverPostgres:
		port := c.Port
		if port == 0 {
			port = 5432
		}
		parts := []string{
			"host=" + c.Host,
			fmt.Sprintf("port=%d", port),
			"user=" + c.User,
			"password=" + c.Password,
			"dbname=" + c.Database,
		}
		if _, ok := c.Params["sslmode"]; !ok {
			parts = append(parts, "sslmode=disable")
		}
		for k, v := range c.Params {
			parts = append(parts, k+"="+v)
		}
		return strings.Join(parts, " "), nil
	case DriverSQLite:
		return "file:" + c.FilePath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=true", nil
	default:
		return "", ErrUnsupportedDriver
	}
}
