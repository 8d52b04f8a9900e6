package tag

import (
	"encoding"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTagName  = "default"
	defaultMaxDepth = 32
)

var durationType = reflect.TypeFor[time.Duration]()

// Option 默认值处理选项
type Option func(*options)

type options struct {
	tagName  string
	maxDepth int
}

// WithTagName 设置读取的标签名，默认为 default
func WithTagName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.tagName = name
		}
	}
}

// ApplyDefaults 按 `default:"..."` 标签为零值字段填充默认值
//
//	type ServerConfig struct {
//	    Addr    string        `default:":8080"`
//	    Timeout time.Duration `default:"5s"`
//	    Scopes  []string      `default:"basic,contact"`
//	    Labels  map[string]string `default:"env:prod,zone:a"`
//	}
//
// 已有值的字段不会被覆盖；嵌套结构体与指向结构体的指针会被递归处理。
func ApplyDefaults(target any, opts ...Option) error {
	o := &options{tagName: defaultTagName, maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(o)
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer {
		return ErrTargetMustBePointer
	}
	if v.IsNil() {
		return ErrTargetIsNil
	}
	if v.Elem().Kind() != reflect.Struct {
		return ErrUnsupportedType
	}
	return o.applyStruct(v.Elem(), "", 0)
}

func (o *options) applyStruct(v reflect.Value, path string, depth int) error {
	if depth >= o.maxDepth {
		return ErrMaxDepthExceeded
	}

	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		fieldPath := field.Name
		if path != "" {
			fieldPath = path + "." + field.Name
		}
		if err := o.applyField(fv, field.Tag.Get(o.tagName), fieldPath, depth); err != nil {
			return err
		}
	}
	return nil
}

func (o *options) applyField(v reflect.Value, tag, path string, depth int) error {
	switch v.Kind() {
	case reflect.Struct:
		if v.Type() == reflect.TypeFor[time.Time]() {
			return nil
		}
		return o.applyStruct(v, path, depth+1)

	case reflect.Pointer:
		if v.Type().Elem().Kind() == reflect.Struct {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			return o.applyStruct(v.Elem(), path, depth+1)
		}
		if !v.IsNil() || tag == "" {
			return nil
		}
		elem := reflect.New(v.Type().Elem())
		if err := parse(elem.Elem(), tag); err != nil {
			return newFieldError(path, v.Kind(), o.tagName, tag, err)
		}
		v.Set(elem)
		return nil

	case reflect.Slice:
		// 已有元素的切片只递归处理其中的结构体
		if v.Len() > 0 {
			for i := range v.Len() {
				elem := v.Index(i)
				if elem.Kind() == reflect.Pointer && !elem.IsNil() {
					elem = elem.Elem()
				}
				if elem.Kind() == reflect.Struct {
					if err := o.applyStruct(elem, path+"["+strconv.Itoa(i)+"]", depth+1); err != nil {
						return err
					}
				}
			}
			return nil
		}
	}

	if tag == "" || !v.IsZero() {
		return nil
	}
	if err := parse(v, tag); err != nil {
		return newFieldError(path, v.Kind(), o.tagName, tag, err)
	}
	return nil
}

// parse 将字符串解析到 v 上
func parse(v reflect.Value, s string) error {
	if v.CanAddr() {
		if u, ok := v.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return u.UnmarshalText([]byte(s))
		}
	}

	s = strings.TrimSpace(s)
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Type() == durationType {
			d, err := time.ParseDuration(s)
			if err != nil {
				return err
			}
			v.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			v.SetBytes([]byte(s))
			return nil
		}
		parts := strings.Split(s, ",")
		slice := reflect.MakeSlice(v.Type(), len(parts), len(parts))
		for i, part := range parts {
			if err := parse(slice.Index(i), part); err != nil {
				return err
			}
		}
		v.Set(slice)
	case reflect.Map:
		m := reflect.MakeMap(v.Type())
		for pair := range strings.SplitSeq(s, ",") {
			k, val, ok := strings.Cut(pair, ":")
			if !ok {
				continue
			}
			key := reflect.New(v.Type().Key()).Elem()
			if err := parse(key, k); err != nil {
				return err
			}
			elem := reflect.New(v.Type().Elem()).Elem()
			if err := parse(elem, val); err != nil {
				return err
			}
			m.SetMapIndex(key, elem)
		}
		v.Set(m)
	default:
		return ErrUnsupportedType
	}
	return nil
}
