package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coinmeet_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coinmeet_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "route"})

	CallsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coinmeet_calls_settled_total",
		Help: "Calls settled at call end, labeled by resulting status",
	}, []string{"status"})

	CoinsBilled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinmeet_coins_billed_total",
		Help: "Coins moved from callers to receivers",
	})

	Withdrawals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coinmeet_withdrawals_total",
		Help: "Withdrawal state transitions, labeled by new status",
	}, []string{"status"})

	ReferralBonuses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinmeet_referral_bonuses_total",
		Help: "Referral bonus awards",
	})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coinmeet_ws_connections",
		Help: "Open event websocket connections",
	})

	WSFramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coinmeet_ws_frames_dropped_total",
		Help: "Event frames dropped because a client's send buffer was full",
	})
)
