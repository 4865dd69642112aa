// Package metrics holds the Prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatRequests counts /chat requests by outcome (ok, error, no_credential).
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grybot_chat_requests_total",
		Help: "Chat requests handled, labelled by outcome.",
	}, []string{"outcome"})

	// SmallTalkReplies counts queries answered by the small-talk shortcut.
	SmallTalkReplies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grybot_smalltalk_replies_total",
		Help: "Queries answered by the canned small-talk table.",
	})

	// EmbeddingFallbacks counts primary embedder failures recovered by the
	// local fallback embedder.
	EmbeddingFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grybot_embedding_fallback_total",
		Help: "Embedding calls served by the fallback provider after a primary failure.",
	})
)
