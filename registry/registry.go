package registry

import (
	"sort"
	"strings"
	"sync/atomic"
)

// Application 受信任的接入应用
type Application struct {
	Code        string `json:"code" mapstructure:"code" gorm:"column:code;primaryKey;size:64" validate:"required"`
	Name        string `json:"name" mapstructure:"name" gorm:"column:name;size:128"`
	URL         string `json:"url" mapstructure:"url" gorm:"column:url;size:512" validate:"required,baseurl"`
	ContextPath string `json:"context_path" mapstructure:"context_path" gorm:"column:context_path;size:256"`
	Enabled     bool   `json:"enabled" mapstructure:"enabled" gorm:"column:enabled"`
}

// TableName gorm 表名
func (Application) TableName() string {
	return "saas_application"
}

// Base 应用根地址，url 与 contextPath 拼接后去掉末尾的 /
func (a Application) Base() string {
	base := strings.TrimSuffix(a.URL, "/")
	if p := strings.Trim(a.ContextPath, "/"); p != "" {
		base += "/" + p
	}
	return base
}

type snapshot struct {
	// 按根地址长度降序，先匹配到的即最长前缀
	ordered []Application
	byCode  map[string]Application
}

// Registry 应用注册表，读多写少，整体替换快照
type Registry struct {
	snap atomic.Pointer[snapshot]
}

func New(apps ...Application) *Registry {
	r := &Registry{}
	r.Replace(apps)
	return r
}

// Replace 替换全部应用
func (r *Registry) Replace(apps []Application) {
	s := &snapshot{
		ordered: append([]Application(nil), apps...),
		byCode:  make(map[string]Application, len(apps)),
	}
	sort.SliceStable(s.ordered, func(i, j int) bool {
		return len(s.ordered[i].Base()) > len(s.ordered[j].Base())
	})
	for _, a := range apps {
		s.byCode[a.Code] = a
	}
	r.snap.Store(s)
}

// Resolve 按服务地址查找应用：service + "/" 以应用根地址 + "/" 为前缀，取最长匹配
func (r *Registry) Resolve(service string) (Application, bool) {
	target := service + "/"
	for _, a := range r.snap.Load().ordered {
		if strings.HasPrefix(target, a.Base()+"/") {
			return a, true
		}
	}
	return Application{}, false
}

func (r *Registry) ByCode(code string) (Application, bool) {
	a, ok := r.snap.Load().byCode[code]
	return a, ok
}

// Applications 当前全部应用
func (r *Registry) Applications() []Application {
	return append([]Application(nil), r.snap.Load().ordered...)
}
