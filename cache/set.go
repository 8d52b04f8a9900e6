package cache

import (
	"maps"
	"slices"
)

// SetOps 无重复成员集合视图
type SetOps struct {
	m   *Memory
	key string
}

func members(e *entry) map[string]struct{} {
	return e.value.(map[string]struct{})
}

// Members 按字典序返回全部成员
func (s *SetOps) Members() (out []string) {
	s.m.read(s.key, Set, func(e *entry) {
		out = slices.Sorted(maps.Keys(members(e)))
	})
	return out
}

// Add 返回新增成员数
func (s *SetOps) Add(values ...string) (added int) {
	s.m.write(s.key, Set, func() any { return map[string]struct{}{} }, func(_ *shard, e *entry) {
		set := members(e)
		for _, v := range values {
			if _, ok := set[v]; !ok {
				set[v] = struct{}{}
				added++
			}
		}
	})
	return added
}

func (s *SetOps) Remove(values ...string) (removed int) {
	s.m.write(s.key, Set, nil, func(_ *shard, e *entry) {
		set := members(e)
		for _, v := range values {
			if _, ok := set[v]; ok {
				delete(set, v)
				removed++
			}
		}
	})
	return removed
}

func (s *SetOps) Contains(value string) (ok bool) {
	s.m.read(s.key, Set, func(e *entry) {
		_, ok = members(e)[value]
	})
	return ok
}

func (s *SetOps) Size() (n int) {
	s.m.read(s.key, Set, func(e *entry) {
		n = len(members(e))
	})
	return n
}

// Pop 移除并返回任意一个成员
func (s *SetOps) Pop() (value string, ok bool) {
	s.m.write(s.key, Set, nil, func(_ *shard, e *entry) {
		set := members(e)
		for v := range set {
			delete(set, v)
			value, ok = v, true
			return
		}
	})
	return value, ok
}
