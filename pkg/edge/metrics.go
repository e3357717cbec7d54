package edge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lengua_edge_decisions_total",
			Help: "Routing decisions taken by the edge handler",
		},
		[]string{"kind"},
	)

	originErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lengua_edge_origin_errors_total",
			Help: "Origin requests that failed before a response was received",
		},
		[]string{"kind"},
	)

	translatedResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lengua_edge_translated_responses_total",
			Help: "Localized HTML responses written, by locale and cache policy",
		},
		[]string{"locale", "cacheable"},
	)
)
