package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "staking_layer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staking_layer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "staking_layer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	stakeOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staking_layer",
			Subsystem: "staking",
			Name:      "operations_total",
			Help:      "Total number of stake and unstake operations.",
		},
		[]string{"type", "result"},
	)

	stakeVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staking_layer",
			Subsystem: "staking",
			Name:      "volume_usdt_total",
			Help:      "Total USDT moved by accepted stake and unstake operations.",
		},
		[]string{"type"},
	)

	withdrawalDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staking_layer",
			Subsystem: "withdrawals",
			Name:      "decisions_total",
			Help:      "Total number of admin withdrawal decisions.",
		},
		[]string{"decision"},
	)

	accrualRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "staking_layer",
			Subsystem: "rewards",
			Name:      "accrual_runs_total",
			Help:      "Total number of reward accrual passes.",
		},
	)

	accrualCredited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "staking_layer",
			Subsystem: "rewards",
			Name:      "accrued_usdt_total",
			Help:      "Total USDT credited as rewards by accrual passes.",
		},
	)

	accrualDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "staking_layer",
			Subsystem: "rewards",
			Name:      "accrual_duration_seconds",
			Help:      "Duration of reward accrual passes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		stakeOperations,
		stakeVolume,
		withdrawalDecisions,
		accrualRuns,
		accrualCredited,
		accrualDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordStakeOperation counts a stake or unstake attempt.
func RecordStakeOperation(opType string, amount float64, accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	stakeOperations.WithLabelValues(opType, result).Inc()
	if accepted && amount > 0 {
		stakeVolume.WithLabelValues(opType).Add(amount)
	}
}

// RecordWithdrawalDecision counts an admin approval or rejection.
func RecordWithdrawalDecision(decision string) {
	withdrawalDecisions.WithLabelValues(decision).Inc()
}

// RecordAccrualRun records one reward accrual pass.
func RecordAccrualRun(credited float64, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	accrualRuns.Inc()
	if credited > 0 {
		accrualCredited.Add(credited)
	}
	accrualDuration.Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "api" {
		return "/" + parts[0]
	}
	if len(parts) == 1 {
		return "/api"
	}
	switch parts[1] {
	case "user":
		if len(parts) > 2 {
			if len(parts) > 3 {
				return "/api/user/:wallet/" + parts[3]
			}
			return "/api/user/:wallet"
		}
		return "/api/user"
	case "check-approval":
		return "/api/check-approval/:address"
	case "wallet-balance":
		return "/api/wallet-balance/:address"
	case "admin":
		if len(parts) > 2 {
			if parts[2] == "users" && len(parts) > 3 {
				if len(parts) > 4 {
					return "/api/admin/users/:id/" + parts[4]
				}
				return "/api/admin/users/:id"
			}
			return "/api/admin/" + strings.Join(parts[2:], "/")
		}
		return "/api/admin"
	default:
		return "/api/" + parts[1]
	}
}
