package http

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// AddQuery 在 rawURL 的查询串末尾追加参数，保留原有参数顺序与片段
func AddQuery(rawURL string, kv ...string) (string, error) {
	if len(kv)%2 != 0 {
		return "", fmt.Errorf("add query: odd number of arguments")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("解析URL失败: %w", err)
	}
	parts := make([]string, 0, len(kv)/2+1)
	if u.RawQuery != "" {
		parts = append(parts, u.RawQuery)
	}
	for i := 0; i < len(kv); i += 2 {
		parts = append(parts, url.QueryEscape(kv[i])+"="+url.QueryEscape(kv[i+1]))
	}
	u.RawQuery = strings.Join(parts, "&")
	return u.String(), nil
}

// DelQuery 删除查询参数，其余参数保持原样
func DelQuery(rawURL string, keys ...string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("解析URL失败: %w", err)
	}
	if u.RawQuery == "" {
		return u.String(), nil
	}
	kept := make([]string, 0)
	for _, pair := range strings.Split(u.RawQuery, "&") {
		name, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		drop := false
		for _, k := range keys {
			if name == k {
				drop = true
				break
			}
		}
		if !drop && pair != "" {
			kept = append(kept, pair)
		}
	}
	u.RawQuery = strings.Join(kept, "&")
	return u.String(), nil
}

// Join 拼接路径段，忽略空段
func Join(base string, segments ...string) string {
	if len(segments) == 0 {
		return base
	}
	all := make([]string, 0, len(segments)+1)
	if base != "" {
		all = append(all, base)
	}
	for _, s := range segments {
		if s != "" {
			all = append(all, s)
		}
	}
	return path.Join(all...)
}
