package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	authStepCounter       *prometheus.CounterVec
	authOutcomeCounter    *prometheus.CounterVec
	flowOutcomeCounter    *prometheus.CounterVec
	ledgerRecordCounter   *prometheus.CounterVec
	gatewayCallCounter    *prometheus.CounterVec
	activeSessionsGauge   prometheus.Gauge
	workerRunCounter      *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		authStepCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_step_transitions_total",
			Help: "Authentication step-machine transitions",
		}, []string{"from", "to"})

		authOutcomeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_outcomes_total",
			Help: "Completed authentication flows by path",
		}, []string{"path"})

		flowOutcomeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "money_flow_outcomes_total",
			Help: "Money-movement flow terminal outcomes",
		}, []string{"kind", "outcome"})

		ledgerRecordCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_records_total",
			Help: "Transactions recorded to session ledgers",
		}, []string{"type"})

		gatewayCallCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_calls_total",
			Help: "Payment gateway calls by operation and result",
		}, []string{"op", "result"})

		activeSessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Currently live authenticated sessions",
		})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			authStepCounter,
			authOutcomeCounter,
			flowOutcomeCounter,
			ledgerRecordCounter,
			gatewayCallCounter,
			activeSessionsGauge,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementAuthStep(from, to string) {
	if authStepCounter == nil {
		return
	}
	authStepCounter.WithLabelValues(from, to).Inc()
}

func IncrementAuthOutcome(path string) {
	if authOutcomeCounter == nil {
		return
	}
	authOutcomeCounter.WithLabelValues(path).Inc()
}

func IncrementFlowOutcome(kind, outcome string) {
	if flowOutcomeCounter == nil {
		return
	}
	flowOutcomeCounter.WithLabelValues(kind, outcome).Inc()
}

func IncrementLedgerRecord(txType string) {
	if ledgerRecordCounter == nil {
		return
	}
	ledgerRecordCounter.WithLabelValues(txType).Inc()
}

func IncrementGatewayCall(op, result string) {
	if gatewayCallCounter == nil {
		return
	}
	gatewayCallCounter.WithLabelValues(op, result).Inc()
}

func SetActiveSessions(n int) {
	if activeSessionsGauge == nil {
		return
	}
	activeSessionsGauge.Set(float64(n))
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
