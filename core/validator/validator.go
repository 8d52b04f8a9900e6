package validator

import (
	"context"
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Validator 结构体校验器
type Validator interface {
	Struct(s any) error
	StructCtx(ctx context.Context, s any) error
}

// Validate 全局校验器，配置加载默认使用
var Validate Validator = New()

// Option 校验器选项
type Option func(*Impl)

// WithLang 设置错误消息语言，支持 zh 与 en
func WithLang(lang string) Option {
	return func(v *Impl) {
		v.lang = lang
	}
}

// Impl 基于 go-playground/validator 的实现
type Impl struct {
	validate *validator.Validate
	trans    ut.Translator
	lang     string
}

var _ Validator = (*Impl)(nil)

// New 创建校验器，默认中文错误消息
func New(opts ...Option) *Impl {
	v := &Impl{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		lang:     "zh",
	}
	for _, opt := range opts {
		opt(v)
	}

	// 错误中的字段名使用配置文件里的键名
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"mapstructure", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(key), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	_ = v.validate.RegisterValidation("baseurl", isBaseURL)

	uni := ut.New(en.New(), en.New(), zh.New())
	trans, _ := uni.GetTranslator(v.lang)
	switch v.lang {
	case "en":
		_ = en_translations.RegisterDefaultTranslations(v.validate, trans)
	default:
		_ = zh_translations.RegisterDefaultTranslations(v.validate, trans)
	}
	_ = v.validate.RegisterTranslation("baseurl", trans,
		func(t ut.Translator) error {
			return t.Add("baseurl", "{0} must be an absolute http(s) URL without query or fragment", false)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("baseurl", fe.Field())
			return msg
		},
	)
	v.trans = trans
	return v
}

func (v *Impl) Struct(s any) error {
	return v.StructCtx(context.Background(), s)
}

func (v *Impl) StructCtx(ctx context.Context, s any) error {
	if s == nil {
		return errors.New("validator: target cannot be nil")
	}
	return v.translate(v.validate.StructCtx(ctx, s))
}

// Engine 返回底层 validator 实例
func (v *Impl) Engine() *validator.Validate {
	return v.validate
}

func (v *Impl) translate(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	fields := make([]FieldError, 0, len(ves))
	for _, fe := range ves {
		fields = append(fields, FieldError{
			Namespace: fe.Namespace(),
			Field:     fe.Field(),
			Tag:       fe.Tag(),
			Value:     fe.Value(),
			Message:   fe.Translate(v.trans),
		})
	}
	return &ValidationErrors{Fields: fields}
}

// isBaseURL 校验应用地址：http(s) 绝对地址，不含查询串与片段
func isBaseURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" &&
		u.RawQuery == "" && u.Fragment == ""
}
