package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kochabx/sso/core/util/id"
	"github.com/kochabx/sso/log"
)

// evictor 淘汰协程，按截止时间从延迟队列中取出条目并清理
type evictor struct {
	id      string
	m       *Memory
	logger  *log.Logger
	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func newEvictor(m *Memory) *evictor {
	workerID := "evictor-" + id.Short()
	return &evictor{
		id: workerID,
		m:  m,
		logger: &log.Logger{
			Logger: m.logger.With().Str("component", "cache").Str("worker_id", workerID).Logger(),
		},
		done: make(chan struct{}),
	}
}

func (w *evictor) start() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	w.wg.Add(1)
	go w.loop()
	w.logger.Debug().Msg("evictor started")
}

func (w *evictor) closed() bool {
	return !w.running.Load()
}

func (w *evictor) stop(ctx context.Context) error {
	if !w.running.CompareAndSwap(true, false) {
		return nil
	}
	close(w.done)

	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()

	grace := time.NewTimer(w.m.cfg.ShutdownGrace)
	defer grace.Stop()
	select {
	case <-finished:
		w.logger.Debug().Msg("evictor stopped")
		return nil
	case <-grace.C:
		w.logger.Warn().Msg("evictor stop timeout")
		return fmt.Errorf("cache: evictor did not stop within %s", w.m.cfg.ShutdownGrace)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *evictor) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(w.m.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return
		default:
		}

		item, ok, wait := w.m.queue.next(time.Now(), w.m.cfg.PollInterval)
		if ok {
			w.process(item)
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)
		select {
		case <-w.done:
			return
		case <-w.m.queue.wake:
		case <-timer.C:
		}
	}
}

// process 两阶段检查：到期则删除，过期时间被延后则按新时间重新入队
func (w *evictor) process(item delayItem) {
	defer func() {
		if r := recover(); r != nil {
			w.m.metrics.incPanics()
			ev := w.logger.Error().Interface("panic", r)
			if item.e != nil {
				ev = ev.Str("key", item.e.key)
			}
			ev.Msg("evictor recovered from panic")
		}
	}()

	e := item.e
	s := w.m.shardOf(e.key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !e.scheduled.Equal(item.at) {
		// 已被更早的截止时间取代
		return
	}
	if e.invalidated || e.expiresAt.IsZero() {
		e.scheduled = time.Time{}
		return
	}

	now := time.Now()
	if e.expired(now) {
		w.m.remove(s, e)
		e.scheduled = time.Time{}
		w.m.metrics.incEvicted()
		w.logger.Trace().Str("key", e.key).Msg("key evicted")
		return
	}

	if e.expiresAt.After(e.scheduled) {
		e.scheduled = e.expiresAt
		w.m.queue.push(e, e.expiresAt)
		w.m.metrics.incRequeued()
	}
}
