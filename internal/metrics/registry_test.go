package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistryRegistersEveryMetricWithoutPanicking(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)
	if m.ConnectorRefreshDuration == nil || m.OpportunitiesEmitted == nil || m.FxStale == nil {
		t.Fatal("NewRegistry() left a metric field nil")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Error("Gather() returned no metric families after registration")
	}
}

func TestStartTimerStopRecordsDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	timer := m.StartTimer("binance", "spot")
	timer.Stop()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "arbitrageur_connector_refresh_duration_seconds" {
			found = true
			if len(mf.GetMetric()) != 1 {
				t.Errorf("refresh_duration_seconds has %d samples, want 1", len(mf.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("refresh_duration_seconds metric family not found after Stop()")
	}
}

func TestHandlerServesPrometheusExpositionFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRegistry(reg)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
