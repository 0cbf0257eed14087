// Package metrics holds the Prometheus collectors shared by the pipeline and
// the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "statement_organizer"

var (
	// Documents counts processed documents by kind and outcome
	// (ok, unreadable, empty).
	Documents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_total",
		Help:      "Statement documents processed, by kind and outcome.",
	}, []string{"kind", "outcome"})

	// Pages counts acquired PDF pages by text source.
	Pages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_total",
		Help:      "PDF pages acquired, by text source (native, ocr, failed).",
	}, []string{"source"})

	OCRDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ocr_page_duration_seconds",
		Help:      "Time spent rasterizing and recognizing one page.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
	}, []string{"engine"})

	Lines = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lines_total",
		Help:      "Classified statement lines, by class.",
	}, []string{"class"})

	Warnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "warnings_total",
		Help:      "User-visible warnings, by kind.",
	}, []string{"kind"})

	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests, by route and status code.",
	}, []string{"route", "status"})
)
