package log

import (
	"github.com/kochabx/sso/log/writer"
)

// Config 日志配置
type Config struct {
	Level       string     `json:"level" mapstructure:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Output      string     `json:"output" mapstructure:"output" default:"console" validate:"oneof=console file both"`
	Caller      bool       `json:"caller" mapstructure:"caller"`
	Desensitize bool       `json:"desensitize" mapstructure:"desensitize"`
	File        FileConfig `json:"file" mapstructure:"file"`
}

// FileConfig 日志文件配置
type FileConfig struct {
	Dir        string            `json:"dir" mapstructure:"dir" default:"log"`
	Filename   string            `json:"filename" mapstructure:"filename" default:"sso"`
	Ext        string            `json:"ext" mapstructure:"ext" default:"log"`
	RotateMode writer.RotateMode `json:"rotate_mode" mapstructure:"rotate_mode" default:"size"`
	Rotatelogs RotatelogsConfig  `json:"rotatelogs" mapstructure:"rotatelogs"`
	Lumberjack LumberjackConfig  `json:"lumberjack" mapstructure:"lumberjack"`
}

// RotatelogsConfig 按时间轮转，单位小时
type RotatelogsConfig struct {
	MaxAge       int `json:"max_age" mapstructure:"max_age" default:"24"`
	RotationTime int `json:"rotation_time" mapstructure:"rotation_time" default:"1"`
}

// LumberjackConfig 按大小轮转
type LumberjackConfig struct {
	MaxSize    int  `json:"max_size" mapstructure:"max_size" default:"100"`
	MaxBackups int  `json:"max_backups" mapstructure:"max_backups" default:"5"`
	MaxAge     int  `json:"max_age" mapstructure:"max_age" default:"30"`
	Compress   bool `json:"compress" mapstructure:"compress"`
}

func (c FileConfig) rotateConfig() writer.RotateConfig {
	return writer.RotateConfig{
		Mode:              c.RotateMode,
		Dir:               c.Dir,
		Filename:          c.Filename,
		Ext:               c.Ext,
		MaxAgeHours:       c.Rotatelogs.MaxAge,
		RotationTimeHours: c.Rotatelogs.RotationTime,
		MaxSizeMB:         c.Lumberjack.MaxSize,
		MaxBackups:        c.Lumberjack.MaxBackups,
		MaxAgeDays:        c.Lumberjack.MaxAge,
		Compress:          c.Lumberjack.Compress,
	}
}
