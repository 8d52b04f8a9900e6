package cas

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 回调结果
const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultDropped = "dropped"
)

// metrics registerer 为空时不采集
type metrics struct {
	issued    prometheus.Counter
	validated *prometheus.CounterVec
	callbacks *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	return &metrics{
		issued: f.NewCounter(prometheus.CounterOpts{
			Namespace: "cas",
			Name:      "tickets_issued_total",
			Help:      "Total number of service tickets issued",
		}),
		validated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cas",
			Name:      "tickets_validated_total",
			Help:      "Total number of ticket validations by result",
		}, []string{"result"}),
		callbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cas",
			Name:      "logout_callbacks_total",
			Help:      "Total number of logout callbacks by result",
		}, []string{"result"}),
	}
}

func (m *metrics) incIssued() {
	if m != nil {
		m.issued.Inc()
	}
}

// incValidated result 为失败码或 success
func (m *metrics) incValidated(result string) {
	if m != nil {
		m.validated.WithLabelValues(result).Inc()
	}
}

func (m *metrics) incCallback(result string) {
	if m != nil {
		m.callbacks.WithLabelValues(result).Inc()
	}
}
