// Package metrics Prometheus-метрики сервиса
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics коллектор метрик сервиса
type Metrics struct {
	service string

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// База данных
	DBQueriesTotal  *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec
	DBPoolOpenConns *prometheus.GaugeVec
	DBPoolIdleConns *prometheus.GaugeVec
	DBPoolInUse     *prometheus.GaugeVec

	// Доменные метрики жизненного цикла
	TransitionsTotal        *prometheus.CounterVec
	HoldConflictsTotal      *prometheus.CounterVec
	SweepTotal              *prometheus.CounterVec
	SideEffectFailuresTotal *prometheus.CounterVec
}

// New создает и регистрирует метрики в default registry
func New(service string) *Metrics {
	return &Metrics{
		service: service,

		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),

		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),

		DBQueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries",
		}, []string{"service", "operation", "status"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"service", "operation"}),

		DBPoolOpenConns: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_pool_open_connections",
			Help: "Number of open database connections",
		}, []string{"service"}),

		DBPoolIdleConns: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_pool_idle_connections",
			Help: "Number of idle database connections",
		}, []string{"service"}),

		DBPoolInUse: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_pool_in_use_connections",
			Help: "Number of database connections in use",
		}, []string{"service"}),

		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Total number of booking state transitions by event and result",
		}, []string{"service", "event", "result"}),

		HoldConflictsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "slot_hold_conflicts_total",
			Help: "Total number of rejected hold placements due to slot conflicts",
		}, []string{"service"}),

		SweepTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciler_sweep_total",
			Help: "Total number of records processed by reconciliation sweeps",
		}, []string{"service", "kind"}),

		SideEffectFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "side_effect_failures_total",
			Help: "Total number of failed post-transition side effects",
		}, []string{"service", "effect"}),
	}
}

// IncTransition инкрементирует счетчик переходов
func (m *Metrics) IncTransition(event, result string) {
	m.TransitionsTotal.WithLabelValues(m.service, event, result).Inc()
}

// IncHoldConflict инкрементирует счетчик конфликтов удержаний
func (m *Metrics) IncHoldConflict() {
	m.HoldConflictsTotal.WithLabelValues(m.service).Inc()
}

// AddSweep добавляет количество обработанных записей к счетчику sweep
func (m *Metrics) AddSweep(kind string, n float64) {
	m.SweepTotal.WithLabelValues(m.service, kind).Add(n)
}

// IncSideEffectFailure инкрементирует счетчик неуспешных side-эффектов
func (m *Metrics) IncSideEffectFailure(effect string) {
	m.SideEffectFailuresTotal.WithLabelValues(m.service, effect).Inc()
}
