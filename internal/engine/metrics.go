package engine

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	engineSpawnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ucid",
			Subsystem: "engine",
			Name:      "spawns_total",
			Help:      "Engine spawn attempts by result",
		},
		[]string{"slot", "result"},
	)

	engineStopsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ucid",
			Subsystem: "engine",
			Name:      "stops_total",
			Help:      "Engine stops by reason",
		},
		[]string{"slot", "reason"},
	)

	engineReady = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ucid",
			Subsystem: "engine",
			Name:      "ready",
			Help:      "1 while the slot has completed the uci/isready handshake",
		},
		[]string{"slot"},
	)

	engineOutputBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ucid",
			Subsystem: "engine",
			Name:      "output_bytes_total",
			Help:      "Bytes read from engine output pipes",
		},
		[]string{"slot"},
	)

	engineThinkTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ucid",
			Subsystem: "engine",
			Name:      "think_total",
			Help:      "Think requests by result (sent, dropped, failed)",
		},
		[]string{"slot", "result"},
	)
)

func init() {
	prometheus.MustRegister(engineSpawnsTotal, engineStopsTotal, engineReady, engineOutputBytes, engineThinkTotal)
}

func slotLabel(id int) string { return strconv.Itoa(id) }
