package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsCollector struct {
	registry          *prometheus.Registry
	accountsOpened    *prometheus.CounterVec
	accountsClosed    *prometheus.CounterVec
	transactions      *prometheus.CounterVec
	downgrades        prometheus.Counter
	commandDuration   *prometheus.HistogramVec
	openAccounts      prometheus.Gauge
	archivedAccounts  prometheus.Gauge
	statementsApplied prometheus.Counter
	interestPosted    prometheus.Counter
	feesCharged       prometheus.Counter
	mu                sync.RWMutex
	logger            *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	collector := &MetricsCollector{
		registry: registry,
		accountsOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bank_accounts_opened_total",
			Help: "Total number of accounts opened",
		}, []string{"type"}),
		accountsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bank_accounts_closed_total",
			Help: "Total number of accounts closed",
		}, []string{"type"}),
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bank_transactions_total",
			Help: "Deposits and withdrawals by outcome",
		}, []string{"kind", "outcome"}),
		downgrades: factory.NewCounter(prometheus.CounterOpts{
			Name: "bank_money_market_downgrades_total",
			Help: "Money market accounts downgraded to savings",
		}),
		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bank_command_duration_seconds",
			Help:    "Time taken to run an account command",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
		openAccounts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bank_open_accounts",
			Help: "Accounts currently held in the store",
		}),
		archivedAccounts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bank_archived_accounts",
			Help: "Closed accounts held in the archive",
		}),
		statementsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "bank_statements_applied_total",
			Help: "Monthly statements posted",
		}),
		interestPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bank_interest_posted_dollars_total",
			Help: "Interest credited by statement cycles",
		}),
		feesCharged: factory.NewCounter(prometheus.CounterOpts{
			Name: "bank_fees_charged_dollars_total",
			Help: "Fees debited by statement cycles",
		}),
		logger: logger,
	}

	return collector
}

func (m *MetricsCollector) RecordOpen(accountType string) {
	m.accountsOpened.WithLabelValues(accountType).Inc()
}

func (m *MetricsCollector) RecordClose(accountType string) {
	m.accountsClosed.WithLabelValues(accountType).Inc()
}

func (m *MetricsCollector) RecordTransaction(kind string, success bool) {
	outcome := "success"
	if !success {
		outcome = "rejected"
	}
	m.transactions.WithLabelValues(kind, outcome).Inc()
}

func (m *MetricsCollector) RecordDowngrade() {
	m.downgrades.Inc()
}

func (m *MetricsCollector) ObserveCommand(command string, duration time.Duration) {
	m.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func (m *MetricsCollector) SetAccountCounts(open, archived int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openAccounts.Set(float64(open))
	m.archivedAccounts.Set(float64(archived))
}

func (m *MetricsCollector) RecordStatement(interest, fee float64) {
	m.statementsApplied.Inc()
	if interest > 0 {
		m.interestPosted.Add(interest)
	}
	if fee > 0 {
		m.feesCharged.Add(fee)
	}
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) MetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	m.logger.Info("Metrics collector shutdown complete")
	return nil
}
