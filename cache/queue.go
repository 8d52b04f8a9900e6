package cache

import (
	"context"
	"slices"
	"time"
)

// queueData 队列值；notify 在每次入队时关闭并替换，条目失效时关闭
type queueData struct {
	items  []string
	notify chan struct{}
}

func newQueueData() any {
	return &queueData{notify: make(chan struct{})}
}

// QueueOps 先进先出队列视图
type QueueOps struct {
	m   *Memory
	key string
}

func (q *QueueOps) Values() (values []string) {
	q.m.read(q.key, Queue, func(e *entry) {
		values = slices.Clone(e.value.(*queueData).items)
	})
	return values
}

// Push 入队并唤醒等待者，返回新长度
func (q *QueueOps) Push(values ...string) (n int) {
	q.m.write(q.key, Queue, newQueueData, func(_ *shard, e *entry) {
		d := e.value.(*queueData)
		d.items = append(d.items, values...)
		n = len(d.items)
		if len(values) > 0 {
			close(d.notify)
			d.notify = make(chan struct{})
		}
	})
	return n
}

func (q *QueueOps) Pop() (string, bool) {
	values := q.PopN(1)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (q *QueueOps) PopN(n int) (values []string) {
	if n <= 0 {
		return nil
	}
	q.m.write(q.key, Queue, nil, func(_ *shard, e *entry) {
		d := e.value.(*queueData)
		n = min(n, len(d.items))
		values = slices.Clone(d.items[:n])
		d.items = slices.Delete(d.items, 0, n)
	})
	return values
}

func (q *QueueOps) Peek() (string, bool) {
	values := q.PeekN(1)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (q *QueueOps) PeekN(n int) (values []string) {
	if n <= 0 {
		return nil
	}
	q.m.read(q.key, Queue, func(e *entry) {
		d := e.value.(*queueData)
		values = slices.Clone(d.items[:min(n, len(d.items))])
	})
	return values
}

func (q *QueueOps) Size() (n int) {
	q.m.read(q.key, Queue, func(e *entry) {
		n = len(e.value.(*queueData).items)
	})
	return n
}

// Take 阻塞出队，键不存在时先创建空队列。
// 超时或键被删除、淘汰时返回 ok=false；ctx 取消时返回 ctx.Err()。timeout <= 0 表示只受 ctx 约束。
func (q *QueueOps) Take(ctx context.Context, timeout time.Duration) (string, bool, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	var held *entry
	s := q.m.shardOf(q.key)
	for {
		s.mu.Lock()
		e := q.m.lookup(s, q.key)
		switch {
		case held == nil && e == nil:
			q.m.insert(s, q.key, Queue, newQueueData(), 0)
			e = s.entries[q.key]
		case held != nil && e != held:
			s.mu.Unlock()
			return "", false, nil
		}
		if e.typ != Queue {
			s.mu.Unlock()
			return "", false, ErrWrongType
		}
		held = e

		d := e.value.(*queueData)
		if len(d.items) > 0 {
			v := d.items[0]
			d.items = slices.Delete(d.items, 0, 1)
			s.mu.Unlock()
			return v, true, nil
		}
		notify := d.notify
		s.mu.Unlock()

		select {
		case <-notify:
		case <-expired:
			return "", false, nil
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
}
