package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	postsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "igpublisher_posts_processed_total",
		Help: "Due posts handled by the processor, by outcome",
	}, []string{"outcome"})

	publishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "igpublisher_publish_duration_seconds",
		Help:    "Time from claim to publish for one post",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	containerPollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "igpublisher_container_polls_total",
		Help: "Media container status checks, by observed status",
	}, []string{"status"})

	tokenRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "igpublisher_token_refresh_total",
		Help: "Access token refresh attempts, by result",
	}, []string{"result"})
)
