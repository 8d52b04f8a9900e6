package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOps(t *testing.T) {
	m := newTestMemory(t)
	v, err := m.OpsValue("counter")
	require.NoError(t, err)

	assert.False(t, v.SetIfPresent("x", 0))
	assert.True(t, v.SetIfAbsent("x", 0))
	assert.False(t, v.SetIfAbsent("y", 0))
	assert.True(t, v.SetIfPresent("z", time.Minute))
	_, ok := m.GetExpire("counter")
	assert.True(t, ok)

	got, ok := v.Get()
	require.True(t, ok)
	assert.Equal(t, "z", got)

	_, err = v.Increment(1)
	assert.ErrorIs(t, err, ErrNotInteger)

	got, ok = v.GetAndDelete()
	assert.True(t, ok)
	assert.Equal(t, "z", got)
	_, ok = v.GetAndDelete()
	assert.False(t, ok)

	n, err := v.Increment(5)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	n, err = v.Decrement(7)
	require.NoError(t, err)
	assert.EqualValues(t, -2, n)
}

func TestListOps(t *testing.T) {
	m := newTestMemory(t)
	l, err := m.OpsList("list")
	require.NoError(t, err)

	assert.Equal(t, 0, l.AddIfPresent("a"))
	assert.Equal(t, 3, l.Add("a", "b", "a"))
	assert.Equal(t, 4, l.AddIfPresent("c"))
	assert.Equal(t, []string{"a", "b", "a", "c"}, l.Values())

	require.NoError(t, l.Insert(1, "x", "y"))
	assert.Equal(t, []string{"a", "x", "y", "b", "a", "c"}, l.Values())
	assert.ErrorIs(t, l.Insert(10, "z"), ErrIndexOutOfRange)

	require.NoError(t, l.Set(0, "A"))
	assert.ErrorIs(t, l.Set(6, "z"), ErrIndexOutOfRange)

	assert.Equal(t, []string{"x", "y"}, l.Range(1, 3))
	assert.Equal(t, []string{"a", "c"}, l.Range(4, 100))
	assert.Empty(t, l.Range(5, 2))

	assert.Equal(t, 4, l.IndexOf("a"))
	assert.Equal(t, 4, l.LastIndexOf("a"))
	assert.Equal(t, -1, l.IndexOf("missing"))

	v, ok := l.RemoveFirst()
	assert.True(t, ok)
	assert.Equal(t, "A", v)
	v, ok = l.RemoveAt(2)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	_, ok = l.RemoveAt(9)
	assert.False(t, ok)

	l.Trim(0, 2)
	assert.Equal(t, []string{"x", "y"}, l.Values())
	assert.Equal(t, 2, l.Size())
}

func TestListRemove(t *testing.T) {
	m := newTestMemory(t)
	l, _ := m.OpsList("list")

	reset := func() {
		m.Delete("list")
		l.Add("a", "b", "a", "c", "a")
	}

	reset()
	assert.Equal(t, 2, l.Remove(2, "a"))
	assert.Equal(t, []string{"b", "c", "a"}, l.Values())

	reset()
	assert.Equal(t, 1, l.Remove(-1, "a"))
	assert.Equal(t, []string{"a", "b", "a", "c"}, l.Values())

	reset()
	assert.Equal(t, 3, l.Remove(0, "a"))
	assert.Equal(t, []string{"b", "c"}, l.Values())
	assert.Equal(t, 0, l.Remove(0, "zzz"))
}

func TestQueueOps(t *testing.T) {
	m := newTestMemory(t)
	q, err := m.OpsQueue("queue")
	require.NoError(t, err)

	assert.Equal(t, 3, q.Push("a", "b", "c"))
	v, ok := q.Peek()
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, []string{"a", "b"}, q.PeekN(2))
	assert.Equal(t, 3, q.Size())

	v, ok = q.Pop()
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, []string{"b", "c"}, q.PopN(5))
	_, ok = q.Pop()
	assert.False(t, ok)
	assert.Empty(t, q.Values())
}

func TestQueueTake(t *testing.T) {
	m := newTestMemory(t)
	q, _ := m.OpsQueue("jobs")
	ctx := context.Background()

	t.Run("timeout", func(t *testing.T) {
		start := time.Now()
		_, ok, err := q.Take(ctx, 30*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
		// 键不存在时创建了空队列
		assert.Equal(t, Queue, m.Type("jobs"))
	})

	t.Run("push wakes", func(t *testing.T) {
		go func() {
			time.Sleep(20 * time.Millisecond)
			q.Push("job-1")
		}()
		v, ok, err := q.Take(ctx, time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "job-1", v)
	})

	t.Run("cancel", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		_, ok, err := q.Take(cctx, 0)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ok)
	})

	t.Run("delete wakes", func(t *testing.T) {
		go func() {
			time.Sleep(20 * time.Millisecond)
			m.Delete("jobs")
		}()
		_, ok, err := q.Take(ctx, time.Second)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("eviction wakes", func(t *testing.T) {
		q.Push("x")
		q.Pop()
		require.True(t, m.Expire("jobs", 30*time.Millisecond))
		start := time.Now()
		_, ok, err := q.Take(ctx, 2*time.Second)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("wrong type", func(t *testing.T) {
		v, _ := m.OpsValue("plain")
		v.Set("x", 0)
		wq := &QueueOps{m: m, key: "plain"}
		_, _, err := wq.Take(ctx, time.Millisecond)
		assert.ErrorIs(t, err, ErrWrongType)
	})
}

func TestSetOps(t *testing.T) {
	m := newTestMemory(t)
	s, err := m.OpsSet("set")
	require.NoError(t, err)

	assert.Equal(t, 2, s.Add("b", "a", "b"))
	assert.Equal(t, 1, s.Add("a", "c"))
	assert.Equal(t, []string{"a", "b", "c"}, s.Members())
	assert.True(t, s.Contains("a"))
	assert.Equal(t, 1, s.Remove("a", "zzz"))
	assert.False(t, s.Contains("a"))

	v, ok := s.Pop()
	assert.True(t, ok)
	assert.Contains(t, []string{"b", "c"}, v)
	assert.Equal(t, 1, s.Size())
}

func TestMapOps(t *testing.T) {
	m := newTestMemory(t)
	h, err := m.OpsMap("map")
	require.NoError(t, err)

	_, existed := h.Put("b", "2")
	assert.False(t, existed)
	old, existed := h.Put("b", "3")
	assert.True(t, existed)
	assert.Equal(t, "2", old)
	assert.True(t, h.PutIfAbsent("a", "1"))
	assert.False(t, h.PutIfAbsent("a", "9"))

	assert.Equal(t, []string{"a", "b"}, h.Keys())
	assert.Equal(t, []string{"1", "3"}, h.Values())
	assert.Equal(t, map[string]string{"a": "1", "b": "3"}, h.Entries())
	assert.True(t, h.Has("a"))

	n, err := h.Increment("hits", 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = h.Increment("hits", 3)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	assert.Equal(t, 2, h.Remove("a", "hits", "zzz"))
	assert.Equal(t, 1, h.Size())
}
