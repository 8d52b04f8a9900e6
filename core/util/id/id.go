package id

import (
	"strings"

	"github.com/google/uuid"
)

// New 标准 UUID，用作会话 ID
func New() string {
	return uuid.NewString()
}

// Compact 去掉连字符的 32 位十六进制串
func Compact() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Short 取 UUID 前 8 位，用于日志中的组件实例标识
func Short() string {
	return uuid.NewString()[:8]
}

// Prefixed 形如 LR-<uuid>
func Prefixed(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
