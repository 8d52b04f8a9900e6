package cas

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	xhttp "github.com/kochabx/sso/core/net/http"
	"github.com/kochabx/sso/core/util/id"
	"github.com/kochabx/sso/log"
)

// Batch 一次注销发出的回调，全部完成或被丢弃后 Done 关闭
type Batch struct {
	pending atomic.Int64
	done    chan struct{}
}

func newBatch(n int) *Batch {
	b := &Batch{done: make(chan struct{})}
	b.pending.Store(int64(n))
	if n == 0 {
		close(b.done)
	}
	return b
}

func (b *Batch) finish() {
	if b.pending.Add(-1) == 0 {
		close(b.done)
	}
}

func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// callback 发往应用的一次注销回调
type callback struct {
	url         string
	ticket      string
	application string
	batch       *Batch
}

// notifier 注销回调分发：有界队列 + 协程池，发送失败只记录不重试
type notifier struct {
	id      string
	cfg     NotifierConfig
	client  *xhttp.Client
	pool    *ants.Pool
	queue   chan *callback
	metrics *metrics
	logger  *log.Logger
	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func newNotifier(cfg NotifierConfig, client *xhttp.Client, m *metrics, logger *log.Logger) (*notifier, error) {
	workerID := "notifier-" + id.Short()
	n := &notifier{
		id:      workerID,
		cfg:     cfg,
		client:  client,
		queue:   make(chan *callback, cfg.QueueSize),
		metrics: m,
		logger: &log.Logger{
			Logger: logger.With().Str("worker_id", workerID).Logger(),
		},
		done: make(chan struct{}),
	}
	pool, err := ants.NewPool(cfg.workers(), ants.WithPreAlloc(true), ants.WithPanicHandler(func(p any) {
		n.logger.Error().Interface("panic", p).Msg("logout callback panic")
	}))
	if err != nil {
		return nil, fmt.Errorf("create notifier pool: %w", err)
	}
	n.pool = pool
	return n, nil
}

func (n *notifier) start() {
	if !n.running.CompareAndSwap(false, true) {
		return
	}
	n.wg.Add(1)
	go n.loop()
	n.logger.Debug().Int("workers", n.pool.Cap()).Int("queue_size", cap(n.queue)).Msg("notifier started")
}

// notify 非阻塞入队，队列满或已停止时丢弃
func (n *notifier) notify(callbacks []*callback) *Batch {
	b := newBatch(len(callbacks))
	for _, cb := range callbacks {
		cb.batch = b
		if !n.running.Load() {
			n.drop(cb, "notifier stopped")
			continue
		}
		select {
		case n.queue <- cb:
		default:
			n.drop(cb, "queue full")
		}
	}
	return b
}

func (n *notifier) drop(cb *callback, reason string) {
	n.logger.Warn().
		Str("application", cb.application).
		Str("ticket", cb.ticket).
		Str("reason", reason).
		Msg("logout callback dropped")
	n.metrics.incCallback(resultDropped)
	cb.batch.finish()
}

func (n *notifier) loop() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return
		case cb := <-n.queue:
			// 协程池满时阻塞在这里，新回调积压在队列中
			if err := n.pool.Submit(func() { n.send(cb) }); err != nil {
				n.drop(cb, err.Error())
			}
		}
	}
}

func (n *notifier) send(cb *callback) {
	defer cb.batch.finish()

	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout)
	defer cancel()

	body, err := encodeLogoutRequest(cb.ticket, time.Now())
	if err == nil {
		_, err = n.client.PostForm(ctx, cb.url, url.Values{"logoutRequest": {body}})
	}
	if err != nil {
		n.metrics.incCallback(resultFailure)
		n.logger.Warn().Err(err).
			Str("application", cb.application).
			Str("url", cb.url).
			Str("ticket", cb.ticket).
			Msg("logout callback failed")
		return
	}
	n.metrics.incCallback(resultSuccess)
	n.logger.Debug().Str("application", cb.application).Str("ticket", cb.ticket).Msg("logout callback sent")
}

// stop 停止分发，丢弃队列中未发出的回调并等待在途回调
func (n *notifier) stop(ctx context.Context) error {
	if !n.running.CompareAndSwap(true, false) {
		return nil
	}
	close(n.done)

	finished := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		return ctx.Err()
	}

	for {
		select {
		case cb := <-n.queue:
			n.drop(cb, "notifier stopped")
			continue
		default:
		}
		break
	}

	if err := n.pool.ReleaseTimeout(n.cfg.ShutdownGrace); err != nil {
		n.logger.Warn().Err(err).Msg("notifier stop timeout")
		return fmt.Errorf("cas: notifier did not stop within %s: %w", n.cfg.ShutdownGrace, err)
	}
	n.logger.Debug().Msg("notifier stopped")
	return nil
}
