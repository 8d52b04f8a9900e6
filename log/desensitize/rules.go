package desensitize

import (
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
)

// Rule 脱敏规则
type Rule interface {
	Name() string
	Enabled() bool
	SetEnabled(enabled bool)
	Process(s string) string
}

type rule struct {
	name        string
	pattern     *regexp.Regexp
	replacement string
	enabled     atomic.Bool
}

func (r *rule) Name() string            { return r.name }
func (r *rule) Enabled() bool           { return r.enabled.Load() }
func (r *rule) SetEnabled(enabled bool) { r.enabled.Store(enabled) }

func (r *rule) Process(s string) string {
	if !r.Enabled() {
		return s
	}
	return r.pattern.ReplaceAllString(s, r.replacement)
}

// NewContentRule 按内容匹配的规则，replacement 支持 $1 形式的分组引用
func NewContentRule(name, pattern, replacement string) (Rule, error) {
	if name == "" || pattern == "" {
		return nil, fmt.Errorf("desensitize: rule name and pattern are required")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("desensitize: invalid pattern %q: %w", pattern, err)
	}
	r := &rule{name: name, pattern: re, replacement: replacement}
	r.enabled.Store(true)
	return r, nil
}

// NewFieldRule 按 JSON 字段名匹配的规则，整个字段值替换为 mask
func NewFieldRule(name, field, mask string) (Rule, error) {
	pattern := fmt.Sprintf(`("%s"\s*:\s*")[^"]*(")`, regexp.QuoteMeta(field))
	return NewContentRule(name, pattern, "${1}"+mask+"${2}")
}

func mustRule(r Rule, err error) Rule {
	if err != nil {
		panic(err)
	}
	return r
}

var (
	// JWTRule 会话令牌只保留头部
	JWTRule = mustRule(NewContentRule("jwt",
		`\b(eyJ[A-Za-z0-9_-]+)\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`, "$1.***.***"))

	// TicketRule 服务票据隐藏随机部分 (ST-1000-abcd... -> ST-1000-***)
	TicketRule = mustRule(NewContentRule("ticket",
		`\b(ST-\d{4})-[0-9a-f]{32}\b`, "$1-***"))

	PasswordRule = mustRule(NewFieldRule("password", "password", "******"))
	SecretRule   = mustRule(NewFieldRule("secret", "secret", "******"))

	// PhoneRule 手机号 (13812345678 -> 138****5678)
	PhoneRule = mustRule(NewContentRule("phone", `\b(1[3-9]\d)\d{4}(\d{4})\b`, "$1****$2"))
)

// BuiltinRules 内置规则
func BuiltinRules() []Rule {
	return []Rule{JWTRule, TicketRule, PasswordRule, SecretRule, PhoneRule}
}

// Hook 按添加顺序执行的规则集合
type Hook struct {
	mu    sync.RWMutex
	rules []Rule
}

func NewHook(rules ...Rule) *Hook {
	h := &Hook{}
	h.AddRule(rules...)
	return h
}

// AddRule 添加规则，同名规则被替换
func (h *Hook) AddRule(rules ...Rule) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range rules {
		if r == nil {
			continue
		}
		replaced := false
		for i, old := range h.rules {
			if old.Name() == r.Name() {
				h.rules[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			h.rules = append(h.rules, r)
		}
	}
}

func (h *Hook) RemoveRule(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, r := range h.rules {
		if r.Name() == name {
			h.rules = append(h.rules[:i], h.rules[i+1:]...)
			return true
		}
	}
	return false
}

func (h *Hook) RuleCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rules)
}

// Desensitize 依次应用已启用的规则
func (h *Hook) Desensitize(s string) string {
	if s == "" {
		return s
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, r := range h.rules {
		s = r.Process(s)
	}
	return s
}
