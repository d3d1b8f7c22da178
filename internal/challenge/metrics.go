package challenge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchesCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "triviarush",
		Subsystem: "challenge",
		Name:      "batches_committed_total",
		Help:      "Batches appended to a daily challenge record.",
	})

	questionsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "triviarush",
		Subsystem: "challenge",
		Name:      "questions_accepted_total",
		Help:      "Questions accepted into daily pools by difficulty.",
	}, []string{"difficulty"})

	exactRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "triviarush",
		Subsystem: "challenge",
		Name:      "exact_rejections_total",
		Help:      "Candidates dropped by the exact-match dedup filter.",
	})

	semanticRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "triviarush",
		Subsystem: "challenge",
		Name:      "semantic_rejections_total",
		Help:      "Candidates dropped by the semantic judge.",
	})
)
