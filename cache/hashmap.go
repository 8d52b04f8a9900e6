package cache

import (
	"maps"
	"slices"
	"strconv"
)

// MapOps 字段到字符串值的映射视图
type MapOps struct {
	m   *Memory
	key string
}

func fields(e *entry) map[string]string {
	return e.value.(map[string]string)
}

func newFields() any {
	return map[string]string{}
}

func (h *MapOps) Get(field string) (value string, ok bool) {
	h.m.read(h.key, Map, func(e *entry) {
		value, ok = fields(e)[field]
	})
	return value, ok
}

// Put 写入字段，键不存在时创建，返回旧值
func (h *MapOps) Put(field, value string) (old string, existed bool) {
	h.m.write(h.key, Map, newFields, func(_ *shard, e *entry) {
		f := fields(e)
		old, existed = f[field]
		f[field] = value
	})
	return old, existed
}

func (h *MapOps) PutIfAbsent(field, value string) (put bool) {
	h.m.write(h.key, Map, newFields, func(_ *shard, e *entry) {
		f := fields(e)
		if _, ok := f[field]; !ok {
			f[field] = value
			put = true
		}
	})
	return put
}

func (h *MapOps) Remove(names ...string) (removed int) {
	h.m.write(h.key, Map, nil, func(_ *shard, e *entry) {
		f := fields(e)
		for _, name := range names {
			if _, ok := f[name]; ok {
				delete(f, name)
				removed++
			}
		}
	})
	return removed
}

func (h *MapOps) Has(field string) bool {
	_, ok := h.Get(field)
	return ok
}

// Keys 按字典序
func (h *MapOps) Keys() (keys []string) {
	h.m.read(h.key, Map, func(e *entry) {
		keys = slices.Sorted(maps.Keys(fields(e)))
	})
	return keys
}

// Values 顺序与 Keys 一致
func (h *MapOps) Values() (values []string) {
	h.m.read(h.key, Map, func(e *entry) {
		f := fields(e)
		for _, k := range slices.Sorted(maps.Keys(f)) {
			values = append(values, f[k])
		}
	})
	return values
}

func (h *MapOps) Entries() (out map[string]string) {
	h.m.read(h.key, Map, func(e *entry) {
		out = maps.Clone(fields(e))
	})
	return out
}

func (h *MapOps) Size() (n int) {
	h.m.read(h.key, Map, func(e *entry) {
		n = len(fields(e))
	})
	return n
}

// Increment 字段按整数自增，字段不存在时从 0 开始
func (h *MapOps) Increment(field string, delta int64) (int64, error) {
	var (
		n   int64
		err error
	)
	ok := h.m.write(h.key, Map, newFields, func(_ *shard, e *entry) {
		f := fields(e)
		if raw, exists := f[field]; exists {
			if n, err = strconv.ParseInt(raw, 10, 64); err != nil {
				err = ErrNotInteger
				return
			}
		}
		n += delta
		f[field] = strconv.FormatInt(n, 10)
	})
	if !ok {
		return 0, ErrWrongType
	}
	return n, err
}
