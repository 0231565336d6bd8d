package metrics

import (
	"context"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestIncAndSnapshot(t *testing.T) {
	m := New()

	m.Inc(SigninSuccess)
	m.Inc(SigninSuccess)
	m.Inc(RefreshReuseDetected)
	m.Inc(idCount + 1) // out of range, ignored

	if got := m.Value(SigninSuccess); got != 2 {
		t.Fatalf("SigninSuccess = %d, want 2", got)
	}

	s := m.Snapshot()
	if s[SigninSuccess] != 2 || s[RefreshReuseDetected] != 1 || s[SigninFailure] != 0 {
		t.Fatalf("unexpected snapshot: %v", s)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.Inc(SignupSuccess)
	if m.Value(SignupSuccess) != 0 {
		t.Fatal("nil metrics must read zero")
	}
	if s := m.Snapshot(); len(s) != 0 {
		t.Fatalf("nil snapshot must be empty, got %v", s)
	}
}

func TestConcurrentInc(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(RefreshSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(RefreshSuccess); got != 8000 {
		t.Fatalf("RefreshSuccess = %d, want 8000", got)
	}
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("gatewarden-test")

	m := New()
	m.Inc(SigninSuccess)
	m.Inc(SigninSuccess)
	m.Inc(SigninSuccess)

	exp, err := NewOTelExporter(meter, m)
	if err != nil {
		t.Fatalf("NewOTelExporter failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected collected metrics, got none")
	}

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, metricPoint := range sm.Metrics {
			if metricPoint.Name != "gatewarden_signin_success_total" {
				continue
			}
			sum, ok := metricPoint.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) == 0 {
				t.Fatalf("unexpected data for %s: %+v", metricPoint.Name, metricPoint.Data)
			}
			if sum.DataPoints[0].Value != 3 {
				t.Fatalf("signin success = %d, want 3", sum.DataPoints[0].Value)
			}
			found = true
		}
	}
	if !found {
		t.Fatal("signin success counter was not exported")
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("gatewarden-test")

	if _, err := NewOTelExporter(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
	if _, err := NewOTelExporter(nil, New()); err == nil {
		t.Fatal("expected error for nil meter")
	}
}
