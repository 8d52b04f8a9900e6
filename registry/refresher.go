package registry

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kochabx/sso/log"
)

// Refresher 按 cron 计划从 Source 重新加载注册表，失败时保留上一次的结果
type Refresher struct {
	registry *Registry
	source   Source
	cron     *cron.Cron
	timeout  time.Duration
	logger   *log.Logger
}

// NewRefresher spec 支持标准 5 字段表达式与 @every 等描述符
func NewRefresher(registry *Registry, source Source, spec string, logger *log.Logger) (*Refresher, error) {
	if logger == nil {
		logger = log.G
	}
	r := &Refresher{
		registry: registry,
		source:   source,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
		timeout:  30 * time.Second,
		logger:   &log.Logger{Logger: logger.Named("registry")},
	}
	if _, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		_ = r.Refresh(ctx)
	}); err != nil {
		return nil, err
	}
	return r, nil
}

// Refresh 立即加载一次
func (r *Refresher) Refresh(ctx context.Context) error {
	apps, err := r.source.Load(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("refresh registry failed, keeping last snapshot")
		return err
	}
	r.registry.Replace(apps)
	r.logger.Debug().Int("applications", len(apps)).Msg("registry refreshed")
	return nil
}

func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop 等待正在执行的刷新结束
func (r *Refresher) Stop(ctx context.Context) error {
	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
