// Package metrics exposes process-wide Prometheus counters for the analysis
// pipeline. They are registered on the default registry and served at
// /metrics by the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RepliesAnalyzed counts classified replies, fallbacks included.
	RepliesAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "replyguard",
		Name:      "replies_analyzed_total",
		Help:      "Number of replies that received an outcome.",
	})

	// ClassificationFailures counts replies whose classification failed
	// and fell back to the safety default.
	ClassificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "replyguard",
		Name:      "classification_failures_total",
		Help:      "Number of replies that fell back after a failed classification.",
	})

	// ModerationActions counts moderation records written, by action.
	ModerationActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "replyguard",
		Name:      "moderation_actions_total",
		Help:      "Number of moderation records written.",
	}, []string{"action"})

	// SnapshotsPublished counts published progress snapshots.
	SnapshotsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "replyguard",
		Name:      "snapshots_published_total",
		Help:      "Number of progress snapshots written to the state artifact.",
	})
)
