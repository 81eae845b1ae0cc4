package match

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/codeduel/platform/internal/match/queue"
	"github.com/codeduel/platform/internal/match/settlement"
)

// Metrics exposes engine state to Prometheus.
type Metrics struct {
	queueSize      *prometheus.GaugeVec
	matchesCreated *prometheus.CounterVec
	settlements    *prometheus.CounterVec
	activeRooms    prometheus.Gauge
}

// NewMetrics registers the engine collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		queueSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "codeduel",
			Name:      "queue_size",
			Help:      "Players waiting for an opponent.",
		}, []string{"mode"}),
		matchesCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codeduel",
			Name:      "matches_created_total",
			Help:      "Rooms that reached the active state.",
		}, []string{"mode"}),
		settlements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codeduel",
			Name:      "settlements_total",
			Help:      "Settlement attempts by match type and outcome.",
		}, []string{"type", "outcome"}),
		activeRooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "codeduel",
			Name:      "active_rooms",
			Help:      "Rooms currently held in memory.",
		}),
	}
}

func (m *Metrics) observeState(q *queue.Manager, rooms *RoomRegistry) {
	if m == nil {
		return
	}
	for _, mode := range queue.Modes {
		m.queueSize.WithLabelValues(string(mode)).Set(float64(q.Len(mode)))
	}
	m.activeRooms.Set(float64(rooms.Len()))
}

func (m *Metrics) matchCreated(mode string) {
	if m == nil {
		return
	}
	m.matchesCreated.WithLabelValues(mode).Inc()
}

func (m *Metrics) settled(t settlement.Type, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.settlements.WithLabelValues(string(t), outcome).Inc()
}
