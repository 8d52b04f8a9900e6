package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics 淘汰协程指标，registerer 为空时不采集
type metrics struct {
	evicted  prometheus.Counter
	requeued prometheus.Counter
	panics   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, m *Memory) *metrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "cache",
		Name:      "entries",
		Help:      "Number of keys held by the repository, including expired keys awaiting eviction",
	}, func() float64 { return float64(m.Len()) })

	return &metrics{
		evicted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "cache",
			Name:      "evicted_total",
			Help:      "Total number of keys removed by the eviction worker",
		}),
		requeued: f.NewCounter(prometheus.CounterOpts{
			Namespace: "cache",
			Name:      "requeued_total",
			Help:      "Total number of keys re-enqueued after their expiry was extended",
		}),
		panics: f.NewCounter(prometheus.CounterOpts{
			Namespace: "cache",
			Name:      "eviction_panics_total",
			Help:      "Total number of panics recovered by the eviction worker",
		}),
	}
}

func (m *metrics) incEvicted() {
	if m != nil {
		m.evicted.Inc()
	}
}

func (m *metrics) incRequeued() {
	if m != nil {
		m.requeued.Inc()
	}
}

func (m *metrics) incPanics() {
	if m != nil {
		m.panics.Inc()
	}
}
