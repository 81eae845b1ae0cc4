package submission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts judged submissions.
type Metrics struct {
	verdicts *prometheus.CounterVec
}

// NewMetrics registers the submission collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		verdicts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "codeduel",
			Name:      "submissions_total",
			Help:      "Judged submissions by verdict.",
		}, []string{"verdict"}),
	}
}

func (m *Metrics) observe(v Verdict) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(string(v)).Inc()
}
