package cache

import (
	"slices"
)

// ListOps 有序列表视图，下标从 0 开始
type ListOps struct {
	m   *Memory
	key string
}

func (l *ListOps) items(e *entry) []string {
	return e.value.([]string)
}

func (l *ListOps) Values() (values []string) {
	l.m.read(l.key, List, func(e *entry) {
		values = slices.Clone(l.items(e))
	})
	return values
}

// Range 返回 [start, end) 区间，越界部分被截断
func (l *ListOps) Range(start, end int) (values []string) {
	l.m.read(l.key, List, func(e *entry) {
		items := l.items(e)
		start, end = clamp(start, end, len(items))
		values = slices.Clone(items[start:end])
	})
	return values
}

// Trim 只保留 [start, end) 区间
func (l *ListOps) Trim(start, end int) {
	l.m.write(l.key, List, nil, func(_ *shard, e *entry) {
		items := l.items(e)
		start, end = clamp(start, end, len(items))
		e.value = slices.Clone(items[start:end])
	})
}

func (l *ListOps) Size() (n int) {
	l.m.read(l.key, List, func(e *entry) {
		n = len(l.items(e))
	})
	return n
}

// Add 追加到尾部，键不存在时创建，返回新长度
func (l *ListOps) Add(values ...string) (n int) {
	l.m.write(l.key, List, func() any { return []string{} }, func(_ *shard, e *entry) {
		items := append(l.items(e), values...)
		e.value = items
		n = len(items)
	})
	return n
}

// AddIfPresent 仅在列表存在时追加，不存在时返回 0
func (l *ListOps) AddIfPresent(values ...string) (n int) {
	l.m.write(l.key, List, nil, func(_ *shard, e *entry) {
		items := append(l.items(e), values...)
		e.value = items
		n = len(items)
	})
	return n
}

// Insert 在 index 之前插入，index 取值 [0, Size]
func (l *ListOps) Insert(index int, values ...string) error {
	err := ErrIndexOutOfRange
	ok := l.m.write(l.key, List, func() any { return []string{} }, func(_ *shard, e *entry) {
		items := l.items(e)
		if index < 0 || index > len(items) {
			return
		}
		e.value = slices.Insert(items, index, values...)
		err = nil
	})
	if !ok {
		return ErrWrongType
	}
	return err
}

func (l *ListOps) Set(index int, value string) error {
	err := ErrIndexOutOfRange
	l.m.write(l.key, List, nil, func(_ *shard, e *entry) {
		items := l.items(e)
		if index < 0 || index >= len(items) {
			return
		}
		items[index] = value
		err = nil
	})
	return err
}

// Remove 删除等于 value 的元素：count > 0 从头开始，count < 0 从尾开始，0 删除全部
func (l *ListOps) Remove(count int, value string) (removed int) {
	l.m.write(l.key, List, nil, func(_ *shard, e *entry) {
		items := l.items(e)
		var hits []int
		for i, v := range items {
			if v == value {
				hits = append(hits, i)
			}
		}
		if count < 0 {
			slices.Reverse(hits)
			count = -count
		}
		if count > 0 && len(hits) > count {
			hits = hits[:count]
		}
		if len(hits) == 0 {
			return
		}

		drop := make(map[int]struct{}, len(hits))
		for _, i := range hits {
			drop[i] = struct{}{}
		}
		out := make([]string, 0, len(items)-len(hits))
		for i, v := range items {
			if _, ok := drop[i]; !ok {
				out = append(out, v)
			}
		}
		e.value = out
		removed = len(hits)
	})
	return removed
}

func (l *ListOps) RemoveAt(index int) (value string, ok bool) {
	l.m.write(l.key, List, nil, func(_ *shard, e *entry) {
		items := l.items(e)
		if index < 0 || index >= len(items) {
			return
		}
		value, ok = items[index], true
		e.value = slices.Delete(items, index, index+1)
	})
	return value, ok
}

func (l *ListOps) RemoveFirst() (string, bool) {
	return l.RemoveAt(0)
}

func (l *ListOps) IndexOf(value string) (i int) {
	i = -1
	l.m.read(l.key, List, func(e *entry) {
		i = slices.Index(l.items(e), value)
	})
	return i
}

func (l *ListOps) LastIndexOf(value string) (i int) {
	i = -1
	l.m.read(l.key, List, func(e *entry) {
		items := l.items(e)
		for j := len(items) - 1; j >= 0; j-- {
			if items[j] == value {
				i = j
				return
			}
		}
	})
	return i
}

func clamp(start, end, size int) (int, int) {
	start = max(0, min(start, size))
	end = max(start, min(end, size))
	return start, end
}
