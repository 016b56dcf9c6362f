// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CapturePacketsTotal counts packets captured per interface.
	CapturePacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestrel_capture_packets_total",
			Help: "Total number of packets captured",
		},
		[]string{"interface"},
	)

	// CaptureBytesTotal counts captured wire bytes per interface.
	CaptureBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestrel_capture_bytes_total",
			Help: "Total wire bytes of captured packets",
		},
		[]string{"interface"},
	)

	// DecodeFailuresTotal counts frames the decoder rejected, by reason.
	DecodeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestrel_decode_failures_total",
			Help: "Total number of frames that failed to decode",
		},
		[]string{"interface", "reason"},
	)

	// SessionOpenFailuresTotal counts capture sessions that failed to open.
	SessionOpenFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestrel_session_open_failures_total",
			Help: "Total number of capture sessions that failed to open",
		},
		[]string{"interface"},
	)
)
