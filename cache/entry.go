package cache

import (
	"container/heap"
	"hash/fnv"
	"sync"
	"time"
)

// entry 缓存条目，除 key 与 typ 外的字段都由所属分片的锁保护
type entry struct {
	key       string
	typ       DataType
	value     any
	createdAt time.Time
	// 零值表示永久有效
	expiresAt time.Time
	// 延迟队列中该条目最近一次入队的截止时间
	scheduled   time.Time
	invalidated bool
}

func (e *entry) visible(now time.Time) bool {
	return !e.invalidated && (e.expiresAt.IsZero() || now.Before(e.expiresAt))
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// invalidate 标记失效并唤醒阻塞在队列上的 Take
func (e *entry) invalidate() {
	if e.invalidated {
		return
	}
	e.invalidated = true
	if q, ok := e.value.(*queueData); ok {
		close(q.notify)
	}
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func newShards(n int) ([]*shard, uint32) {
	size := 1
	for size < n {
		size <<= 1
	}
	shards := make([]*shard, size)
	for i := range shards {
		shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return shards, uint32(size - 1)
}

func hashKey(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

// delayItem 延迟队列元素，同一条目可能存在多个，以 entry.scheduled 为准
type delayItem struct {
	e  *entry
	at time.Time
}

type delayHeap []delayItem

func (h delayHeap) Len() int           { return len(h) }
func (h delayHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h delayHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *delayHeap) Push(x any)        { *h = append(*h, x.(delayItem)) }
func (h *delayHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = delayItem{}
	*h = old[:n-1]
	return item
}

// delayQueue 按截止时间排序的最小堆，新的队首会唤醒淘汰协程
type delayQueue struct {
	mu   sync.Mutex
	heap delayHeap
	wake chan struct{}
}

func newDelayQueue() *delayQueue {
	return &delayQueue{wake: make(chan struct{}, 1)}
}

func (q *delayQueue) push(e *entry, at time.Time) {
	q.mu.Lock()
	heap.Push(&q.heap, delayItem{e: e, at: at})
	head := q.heap[0].e == e && q.heap[0].at.Equal(at)
	q.mu.Unlock()

	if head {
		select {
		case q.wake <- struct{}{}:
		default:
		}
	}
}

// next 弹出一个到期元素；没有到期元素时返回距队首到期的等待时长
func (q *delayQueue) next(now time.Time, poll time.Duration) (delayItem, bool, time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return delayItem{}, false, poll
	}
	if head := q.heap[0]; !now.Before(head.at) {
		return heap.Pop(&q.heap).(delayItem), true, 0
	}
	return delayItem{}, false, min(q.heap[0].at.Sub(now), poll)
}

func (q *delayQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}
