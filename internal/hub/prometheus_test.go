package hub

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusMetricsRecorder(reg)
	ctx := context.Background()

	rec.Observe(ctx, "observation.select", true, 30*time.Millisecond)
	rec.Observe(ctx, "observation.select", true, 10*time.Millisecond)
	rec.Observe(ctx, "observation.select", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond) // ignored

	if got := testutil.ToFloat64(rec.results.WithLabelValues("observation.select", "success")); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.results.WithLabelValues("observation.select", "error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}

	series, err := testutil.GatherAndCount(reg,
		"obshub_operation_results_total",
		"obshub_operation_duration_seconds",
	)
	if err != nil {
		t.Fatal(err)
	}
	if series != 3 {
		t.Errorf("series = %d, want 3", series)
	}
}
