// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

// Package metrics exposes Prometheus collectors for HTTP traffic and the
// live annotation channel. All collectors are registered on the default
// registry and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "annotato",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests processed.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "annotato",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"method", "route"})

	// LiveSessions tracks currently connected live viewers.
	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "annotato",
		Name:      "live_sessions",
		Help:      "Currently connected live annotation sessions.",
	})

	// EditSignalsTotal counts inbound edit signals accepted by the hub.
	EditSignalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annotato",
		Name:      "live_edit_signals_total",
		Help:      "Edit signals accepted for processing.",
	})

	// EditSignalsDropped counts edit cycles dropped because the annotation
	// store was unreachable or the signal queue was full.
	EditSignalsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "annotato",
		Name:      "live_edit_signals_dropped_total",
		Help:      "Edit signals dropped without a broadcast.",
	}, []string{"reason"})

	// BroadcastsTotal counts completed per-project fan-outs.
	BroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annotato",
		Name:      "live_broadcasts_total",
		Help:      "Completed snapshot fan-outs.",
	})

	// SnapshotDeliveryFailures counts sessions dropped during fan-out
	// because their outbound queue was full or closed.
	SnapshotDeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "annotato",
		Name:      "live_snapshot_delivery_failures_total",
		Help:      "Sessions dropped due to failed snapshot delivery.",
	})
)
