package config

import (
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/kochabx/sso/core/tag"
	"github.com/kochabx/sso/core/validator"
	"github.com/kochabx/sso/errors"
	"github.com/kochabx/sso/log"
)

// Config 加载并持有配置快照，热更新时整体替换
type Config[T any] struct {
	viper    *viper.Viper
	validate validator.Validator
	current  atomic.Pointer[T]

	mu        sync.Mutex
	listeners []func(*T)
}

// Option 配置选项
type Option func(*options)

type options struct {
	viper     *viper.Viper
	validate  validator.Validator
	file      string
	name      string
	paths     []string
	envPrefix string
}

// WithFile 指定配置文件路径，优先于 WithName
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithName 在 paths 中按文件名查找配置，如 config.yaml
func WithName(name string, paths ...string) Option {
	return func(o *options) {
		o.name = name
		o.paths = paths
	}
}

// WithEnvPrefix 环境变量前缀，SSO_SERVER_PORT 覆盖 server.port
func WithEnvPrefix(prefix string) Option {
	return func(o *options) { o.envPrefix = prefix }
}

// New 创建配置，默认读取当前目录下的 config.yaml
func New[T any](opts ...Option) *Config[T] {
	o := options{
		viper:    viper.New(),
		validate: validator.Validate,
		name:     "config.yaml",
		paths:    []string{"."},
	}
	for _, opt := range opts {
		opt(&o)
	}

	v := o.viper
	if o.file != "" {
		v.SetConfigFile(o.file)
	} else {
		for _, p := range o.paths {
			v.AddConfigPath(p)
		}
		v.SetConfigName(o.name)
		v.SetConfigType(extension(o.name))
	}
	if o.envPrefix != "" {
		v.SetEnvPrefix(o.envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config[T]{viper: v, validate: o.validate}
}

// Load 读取配置：默认值、文件、环境变量、校验，成功后替换快照
func (c *Config[T]) Load() (*T, error) {
	target := new(T)
	if err := tag.ApplyDefaults(target); err != nil {
		return nil, errors.Internal("CONFIG_DEFAULTS", "apply defaults: %v", err)
	}
	if err := c.viper.ReadInConfig(); err != nil {
		return nil, errors.NotFound("CONFIG_NOT_FOUND", "read config: %v", err)
	}
	if err := c.viper.Unmarshal(target); err != nil {
		return nil, errors.Internal("CONFIG_PARSE", "parse config: %v", err)
	}
	if c.validate != nil {
		if err := c.validate.Struct(target); err != nil {
			return nil, errors.BadRequest("CONFIG_INVALID", "validate config: %v", err)
		}
	}
	c.current.Store(target)
	return target, nil
}

// Current 最近一次成功加载的配置
func (c *Config[T]) Current() *T {
	return c.current.Load()
}

// OnChange 注册热更新回调，仅在重新加载成功后调用
func (c *Config[T]) OnChange(fn func(*T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Watch 监听配置文件变化，加载失败时保留旧快照
func (c *Config[T]) Watch() {
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Msg("config change detected")
		c.reload()
	})
	c.viper.WatchConfig()
}

func (c *Config[T]) reload() {
	cfg, err := c.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to reload config")
		return
	}

	c.mu.Lock()
	listeners := append([]func(*T){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	log.Info().Msg("config reloaded")
}

// Viper 底层 viper 实例
func (c *Config[T]) Viper() *viper.Viper {
	return c.viper
}

func extension(name string) string {
	return strings.TrimPrefix(path.Ext(name), ".")
}
