package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestLedgerMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewLedgerMetrics(reg)

	metrics.IncTransaction("buy_in", "manual")
	metrics.IncTransaction("cash_out", "voice")
	metrics.IncUndo("success")
	metrics.ObserveTransfers(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "ledger_transactions_total", "type", "buy_in"); err != nil {
		t.Fatalf("fetch buy_in counter: %v", err)
	} else if got != 1 {
		t.Fatalf("expected buy_in=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "ledger_undos_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch undo counter: %v", err)
	} else if got != 1 {
		t.Fatalf("expected undo success=1, got %f", got)
	}

	mf := findMetricFamily(mfs, "settlement_transfers")
	if mf == nil {
		t.Fatalf("settlement histogram not exported")
	}
	if sum := mf.GetMetric()[0].GetHistogram().GetSampleSum(); sum != 3 {
		t.Fatalf("expected histogram sum 3, got %f", sum)
	}
}

func TestLedgerMetricsNilSafe(t *testing.T) {
	var metrics *LedgerMetrics
	metrics.IncTransaction("buy_in", "manual")
	metrics.IncUndo("expired")
	metrics.ObserveTransfers(1)

	empty := NewLedgerMetrics(nil)
	empty.IncTransaction("", "")
	empty.IncUndo("")
	empty.ObserveTransfers(0)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
