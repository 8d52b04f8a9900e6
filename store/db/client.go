package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kochabx/sso/log"
)

var (
	ErrUnsupportedDriver = errors.New("db: unsupported driver")
	ErrNotInitialized    = errors.New("db: not initialized")
)

// Option 客户端选项
type Option func(*Client)

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithConnectTimeout 建连后 Ping 的超时
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithSlowQuery 慢查询阈值，0 表示不记录
func WithSlowQuery(threshold time.Duration) Option {
	return func(c *Client) { c.slowQuery = threshold }
}

// Client gorm 客户端，供数据库注册中心与账户目录使用
type Client struct {
	cfg            Config
	db             *gorm.DB
	sqlDB          *sql.DB
	logger         *log.Logger
	connectTimeout time.Duration
	slowQuery      time.Duration
}

// New 建立连接并 Ping
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.init(); err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg, logger: log.G, connectTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(c)
	}

	dialector, err := c.dialector()
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: c.gormLogger()})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Pool.ConnMaxIdleTime)
	c.db, c.sqlDB = db, sqlDB

	ctx, cancel := context.WithTimeout(context.Background(), c.connectTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.logger.Debug().Str("driver", string(cfg.Driver)).Msg("database client created")
	return c, nil
}

func (c *Client) dialector() (gorm.Dialector, error) {
	dsn, err := c.cfg.dsn()
	if err != nil {
		return nil, err
	}
	switch c.cfg.Driver {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, ErrUnsupportedDriver
	}
}

func (c *Client) gormLogger() logger.Interface {
	level := logger.Silent
	switch strings.ToLower(c.cfg.LogLevel) {
	case "error":
		level = logger.Error
	case "warn":
		level = logger.Warn
	case "info":
		level = logger.Info
	}
	return logger.New(gormLogWriter{c.logger}, logger.Config{
		LogLevel:                  level,
		SlowThreshold:             c.slowQuery,
		IgnoreRecordNotFoundError: true,
	})
}

func (c *Client) DB() *gorm.DB {
	return c.db
}

func (c *Client) Ping(ctx context.Context) error {
	if c.sqlDB == nil {
		return ErrNotInitialized
	}
	return c.sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	if c.sqlDB != nil {
		return c.sqlDB.Close()
	}
	return nil
}

// IsHealthy 供健康检查使用
func (c *Client) IsHealthy() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return c.Ping(ctx) == nil
}

// gormLogWriter 将 gorm 日志写入 zerolog
type gormLogWriter struct {
	logger *log.Logger
}

func (w gormLogWriter) Printf(format string, args ...any) {
	w.logger.Info().Str("component", "gorm").Msgf(format, args...)
}
