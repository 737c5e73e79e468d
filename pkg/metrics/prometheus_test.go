package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCollector_Counters(t *testing.T) {
	m := NewMetricsCollector(nil)

	m.RecordOpen("CHECKING")
	m.RecordOpen("CHECKING")
	m.RecordClose("SAVINGS")
	m.RecordTransaction("deposit", true)
	m.RecordTransaction("withdrawal", false)
	m.RecordDowngrade()
	m.SetAccountCounts(3, 1)
	m.RecordStatement(1.25, 15)

	if got := testutil.ToFloat64(m.accountsOpened.WithLabelValues("CHECKING")); got != 2 {
		t.Errorf("expected 2 checking opens, got %v", got)
	}
	if got := testutil.ToFloat64(m.transactions.WithLabelValues("withdrawal", "rejected")); got != 1 {
		t.Errorf("expected 1 rejected withdrawal, got %v", got)
	}
	if got := testutil.ToFloat64(m.openAccounts); got != 3 {
		t.Errorf("expected 3 open accounts, got %v", got)
	}
	if got := testutil.ToFloat64(m.feesCharged); got != 15 {
		t.Errorf("expected 15 in fees, got %v", got)
	}
}

func TestMetricsCollector_Handler(t *testing.T) {
	m := NewMetricsCollector(nil)
	m.ObserveCommand("open", 5*time.Millisecond)
	m.RecordDowngrade()

	rec := httptest.NewRecorder()
	m.GetHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"bank_money_market_downgrades_total 1", "bank_command_duration_seconds_count{command=\"open\"} 1"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected exposition to contain %q", name)
		}
	}
}
