package gemini

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generateRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "triviarush",
		Subsystem: "gemini",
		Name:      "generate_requests_total",
		Help:      "Generation attempts by model and outcome.",
	}, []string{"model", "outcome"})

	keyRotations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "triviarush",
		Subsystem: "gemini",
		Name:      "key_rotations_total",
		Help:      "API key rotations triggered by quota exhaustion.",
	})
)
