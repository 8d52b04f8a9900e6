package cache

import (
	"strconv"
	"time"
)

// ValueOps 字符串值视图
type ValueOps struct {
	m   *Memory
	key string
}

// Set 写入值，ttl <= 0 为永久有效；返回被替换的旧值
func (v *ValueOps) Set(value string, ttl time.Duration) (old string, existed bool) {
	s := v.m.shardOf(v.key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := v.m.lookup(s, v.key); e != nil && e.typ != Value {
		return "", false
	}
	if prev := v.m.insert(s, v.key, Value, value, ttl); prev != nil {
		return prev.value.(string), true
	}
	return "", false
}

func (v *ValueOps) SetIfAbsent(value string, ttl time.Duration) bool {
	s := v.m.shardOf(v.key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.m.lookup(s, v.key) != nil {
		return false
	}
	v.m.insert(s, v.key, Value, value, ttl)
	return true
}

// SetIfPresent 仅更新已存在的值，ttl > 0 时同时刷新过期时间
func (v *ValueOps) SetIfPresent(value string, ttl time.Duration) bool {
	return v.m.write(v.key, Value, nil, func(_ *shard, e *entry) {
		e.value = value
		if ttl > 0 {
			v.m.schedule(e, time.Now().Add(ttl))
		}
	})
}

func (v *ValueOps) Get() (value string, ok bool) {
	ok = v.m.read(v.key, Value, func(e *entry) {
		value = e.value.(string)
	})
	return value, ok
}

// GetAndDelete 原子地读取并删除，并发调用只有一个能拿到值
func (v *ValueOps) GetAndDelete() (value string, ok bool) {
	ok = v.m.write(v.key, Value, nil, func(s *shard, e *entry) {
		value = e.value.(string)
		v.m.remove(s, e)
	})
	return value, ok
}

// Increment 按整数自增，键不存在时从 0 开始
func (v *ValueOps) Increment(delta int64) (int64, error) {
	var (
		n   int64
		err error
	)
	ok := v.m.write(v.key, Value, func() any { return "0" }, func(_ *shard, e *entry) {
		n, err = strconv.ParseInt(e.value.(string), 10, 64)
		if err != nil {
			err = ErrNotInteger
			return
		}
		n += delta
		e.value = strconv.FormatInt(n, 10)
	})
	if !ok {
		return 0, ErrWrongType
	}
	return n, err
}

func (v *ValueOps) Decrement(delta int64) (int64, error) {
	return v.Increment(-delta)
}
