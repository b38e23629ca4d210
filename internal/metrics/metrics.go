package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legallink_turns_total",
			Help: "Total number of conversation turns processed",
		},
		[]string{"mode", "status"},
	)
	TurnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "legallink_turn_duration_seconds",
			Help: "Duration of conversation turns",
		},
		[]string{"mode"},
	)
	RetrievalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "legallink_retrievals_total",
			Help: "Total number of retrieval tool invocations",
		},
	)
	RetrievalFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "legallink_retrieval_failures_total",
			Help: "Total number of failed retrieval tool invocations",
		},
	)
	DocumentsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legallink_documents_ingested_total",
			Help: "Documents processed during index builds",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(TurnsTotal)
	prometheus.MustRegister(TurnDuration)
	prometheus.MustRegister(RetrievalsTotal)
	prometheus.MustRegister(RetrievalFailuresTotal)
	prometheus.MustRegister(DocumentsIngestedTotal)
}
