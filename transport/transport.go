package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// Server 由 app 统一启动和关闭
type Server interface {
	// Run 阻塞直到服务停止
	Run() error
	// Shutdown 优雅关闭
	Shutdown(context.Context) error
}

// ValidateAddress 校验 host:port 形式的监听地址，host 可为空
func ValidateAddress(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	if host != "" && !validHost(host) {
		return fmt.Errorf("invalid host %q", host)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

func validHost(host string) bool {
	if net.ParseIP(host) != nil {
		return true
	}
	if len(host) > 253 {
		return false
	}
	for i, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
		case r == '-':
			if i == 0 || i == len(host)-1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
