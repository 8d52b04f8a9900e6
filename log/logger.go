package log

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/kochabx/sso/core/tag"
	"github.com/kochabx/sso/log/desensitize"
	"github.com/kochabx/sso/log/writer"
)

func init() {
	zerolog.TimeFieldFormat = time.DateTime
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// Logger 日志记录器
type Logger struct {
	zerolog.Logger
	closer io.Closer
}

// Option Logger 选项
type Option func(*options)

type options struct {
	level  *zerolog.Level
	caller bool
	hook   *desensitize.Hook
}

func WithLevel(level zerolog.Level) Option {
	return func(o *options) { o.level = &level }
}

func WithCaller() Option {
	return func(o *options) { o.caller = true }
}

// WithDesensitize 写入前按 hook 的规则脱敏
func WithDesensitize(hook *desensitize.Hook) Option {
	return func(o *options) { o.hook = hook }
}

// New 控制台输出
func New(opts ...Option) *Logger {
	return NewWriter(writer.Console(), opts...)
}

// NewWriter 输出到任意 writer
func NewWriter(w io.Writer, opts ...Option) *Logger {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.hook != nil {
		w = desensitize.NewWriter(w, o.hook)
	}

	ctx := zerolog.New(w).With().Timestamp()
	if o.caller {
		ctx = ctx.Caller()
	}
	l := ctx.Logger()
	if o.level != nil {
		l = l.Level(*o.level)
	}
	return &Logger{Logger: l}
}

// NewFromConfig 按配置创建 Logger，输出到文件时需调用 Close
func NewFromConfig(c Config) (*Logger, error) {
	if err := tag.ApplyDefaults(&c); err != nil {
		return nil, fmt.Errorf("apply log defaults: %w", err)
	}
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	opts := []Option{WithLevel(level)}
	if c.Caller {
		opts = append(opts, WithCaller())
	}
	if c.Desensitize {
		opts = append(opts, WithDesensitize(desensitize.NewHook(desensitize.BuiltinRules()...)))
	}

	if c.Output == "console" {
		return New(opts...), nil
	}

	fw, err := writer.File(c.File.rotateConfig())
	if err != nil {
		return nil, err
	}
	var w io.Writer = fw
	if c.Output == "both" {
		w = zerolog.MultiLevelWriter(fw, writer.Console())
	}
	l := NewWriter(w, opts...)
	l.closer = fw
	return l, nil
}

// Close 释放文件句柄
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Named 带 component 字段的子 Logger
func (l *Logger) Named(component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}
