package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kochabx/sso/core/tag"
	"github.com/kochabx/sso/log"
)

// Config 内存仓库配置
type Config struct {
	Shards        int           `json:"shards" mapstructure:"shards" default:"32" validate:"gte=1"`
	PollInterval  time.Duration `json:"poll_interval" mapstructure:"poll_interval" default:"5s"`
	ShutdownGrace time.Duration `json:"shutdown_grace" mapstructure:"shutdown_grace" default:"3s"`
}

// Option 内存仓库选项
type Option func(*Memory)

func WithLogger(logger *log.Logger) Option {
	return func(m *Memory) { m.logger = logger }
}

// WithRegisterer 注册 prometheus 指标
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Memory) { m.registerer = reg }
}

// Memory 进程内缓存仓库
type Memory struct {
	cfg        Config
	shards     []*shard
	mask       uint32
	queue      *delayQueue
	evictor    *evictor
	logger     *log.Logger
	registerer prometheus.Registerer
	metrics    *metrics
	size       atomic.Int64
}

var _ Repository = (*Memory)(nil)

// NewMemory 创建仓库并启动淘汰协程，使用完毕需调用 Close
func NewMemory(cfg Config, opts ...Option) (*Memory, error) {
	if err := tag.ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	m := &Memory{
		cfg:    cfg,
		queue:  newDelayQueue(),
		logger: log.G,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.shards, m.mask = newShards(cfg.Shards)
	m.metrics = newMetrics(m.registerer, m)
	m.evictor = newEvictor(m)
	m.evictor.start()
	return m, nil
}

// Close 停止淘汰协程，等待时长受 ctx 与 ShutdownGrace 约束
func (m *Memory) Close(ctx context.Context) error {
	return m.evictor.stop(ctx)
}

// Len 当前持有的键数量，包含已过期但尚未淘汰的键
func (m *Memory) Len() int {
	return int(m.size.Load())
}

func (m *Memory) shardOf(key string) *shard {
	return m.shards[hashKey(key)&m.mask]
}

// lookup 返回可见条目，调用方持有分片锁
func (m *Memory) lookup(s *shard, key string) *entry {
	e, ok := s.entries[key]
	if !ok || !e.visible(time.Now()) {
		return nil
	}
	return e
}

// insert 写入新条目并使旧条目失效，调用方持有分片写锁
func (m *Memory) insert(s *shard, key string, typ DataType, value any, ttl time.Duration) (old *entry) {
	now := time.Now()
	e := &entry{key: key, typ: typ, value: value, createdAt: now}
	if old = s.entries[key]; old != nil {
		old.invalidate()
		if !old.visible(now) {
			old = nil
		}
	} else {
		m.size.Add(1)
	}
	s.entries[key] = e
	if ttl > 0 {
		m.schedule(e, now.Add(ttl))
	}
	return old
}

// remove 调用方持有分片写锁
func (m *Memory) remove(s *shard, e *entry) {
	if cur, ok := s.entries[e.key]; ok && cur == e {
		delete(s.entries, e.key)
		m.size.Add(-1)
	}
	e.invalidate()
}

// schedule 设置过期时间；延后时不入队，由淘汰协程到期后按新时间重新入队
func (m *Memory) schedule(e *entry, at time.Time) {
	e.expiresAt = at
	if e.scheduled.IsZero() || at.Before(e.scheduled) {
		e.scheduled = at
		m.queue.push(e, at)
	}
}

// read 对可见且类型匹配的条目执行 fn
func (m *Memory) read(key string, typ DataType, fn func(e *entry)) bool {
	s := m.shardOf(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := m.lookup(s, key)
	if e == nil || e.typ != typ {
		return false
	}
	fn(e)
	return true
}

// write 对条目执行 fn；键不存在且 create 非空时先创建永久条目，类型不符时不做任何事
func (m *Memory) write(key string, typ DataType, create func() any, fn func(s *shard, e *entry)) bool {
	s := m.shardOf(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := m.lookup(s, key)
	if e == nil {
		if create == nil {
			return false
		}
		m.insert(s, key, typ, create(), 0)
		e = s.entries[key]
	}
	if e.typ != typ {
		return false
	}
	fn(s, e)
	return true
}

func (m *Memory) HasKey(key string) bool {
	s := m.shardOf(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return m.lookup(s, key) != nil
}

func (m *Memory) Delete(keys ...string) int {
	n := 0
	for _, key := range keys {
		s := m.shardOf(key)
		s.mu.Lock()
		if e, ok := s.entries[key]; ok {
			if e.visible(time.Now()) {
				n++
			}
			m.remove(s, e)
		}
		s.mu.Unlock()
	}
	return n
}

func (m *Memory) Type(key string) DataType {
	s := m.shardOf(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e := m.lookup(s, key); e != nil {
		return e.typ
	}
	return None
}

// Keys 所有可见的键，无序
func (m *Memory) Keys() []string {
	now := time.Now()
	keys := make([]string, 0, m.Len())
	for _, s := range m.shards {
		s.mu.RLock()
		for k, e := range s.entries {
			if e.visible(now) {
				keys = append(keys, k)
			}
		}
		s.mu.RUnlock()
	}
	return keys
}

func (m *Memory) Expire(key string, ttl time.Duration) bool {
	return m.ExpireAt(key, time.Now().Add(ttl))
}

func (m *Memory) ExpireAt(key string, at time.Time) bool {
	s := m.shardOf(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := m.lookup(s, key)
	if e == nil {
		return false
	}
	if !at.After(time.Now()) {
		m.remove(s, e)
		return true
	}
	m.schedule(e, at)
	return true
}

func (m *Memory) Persist(key string) bool {
	s := m.shardOf(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := m.lookup(s, key)
	if e == nil {
		return false
	}
	e.expiresAt = time.Time{}
	return true
}

func (m *Memory) GetExpire(key string) (time.Duration, bool) {
	s := m.shardOf(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := m.lookup(s, key)
	if e == nil || e.expiresAt.IsZero() {
		return 0, false
	}
	return time.Until(e.expiresAt), true
}

func (m *Memory) ops(key string, typ DataType) error {
	if m.evictor.closed() {
		return ErrClosed
	}
	if t := m.Type(key); t != None && t != typ {
		return ErrWrongType
	}
	return nil
}

func (m *Memory) OpsValue(key string) (*ValueOps, error) {
	if err := m.ops(key, Value); err != nil {
		return nil, err
	}
	return &ValueOps{m: m, key: key}, nil
}

func (m *Memory) OpsList(key string) (*ListOps, error) {
	if err := m.ops(key, List); err != nil {
		return nil, err
	}
	return &ListOps{m: m, key: key}, nil
}

func (m *Memory) OpsQueue(key string) (*QueueOps, error) {
	if err := m.ops(key, Queue); err != nil {
		return nil, err
	}
	return &QueueOps{m: m, key: key}, nil
}

func (m *Memory) OpsSet(key string) (*SetOps, error) {
	if err := m.ops(key, Set); err != nil {
		return nil, err
	}
	return &SetOps{m: m, key: key}, nil
}

func (m *Memory) OpsMap(key string) (*MapOps, error) {
	if err := m.ops(key, Map); err != nil {
		return nil, err
	}
	return &MapOps{m: m, key: key}, nil
}
