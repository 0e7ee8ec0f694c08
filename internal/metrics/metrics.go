// Package metrics expone contadores Prometheus del panel.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa los contadores de conversaciones.
type Metrics struct {
	ConversationsIngested *prometheus.CounterVec
	IngestRejected        *prometheus.CounterVec
	ConversationsDeleted  prometheus.Counter
	PhoneLookups          prometheus.Counter
}

// New registra los contadores en reg. Cada registry recibe su propio juego.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConversationsIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_conversations_ingested_total",
				Help: "Inbound conversation writes, by outcome (created or appended)",
			},
			[]string{"outcome"},
		),
		IngestRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_ingest_rejected_total",
				Help: "Inbound writes rejected before reaching storage",
			},
			[]string{"reason"},
		),
		ConversationsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "panel_conversations_deleted_total",
			Help: "Conversations deleted through the admin API",
		}),
		PhoneLookups: factory.NewCounter(prometheus.CounterOpts{
			Name: "panel_phone_lookups_total",
			Help: "Conversation lookups by phone",
		}),
	}
}

// Nop devuelve contadores no registrados, util en tests.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
