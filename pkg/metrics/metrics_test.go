package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lexfrei/modsyncer/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

func TestNoopRecorderImplementsRecorder(t *testing.T) {
	var _ metrics.Recorder = &metrics.NoopRecorder{}
}

func TestNoopRecorderDoesNotPanic(t *testing.T) {
	r := &metrics.NoopRecorder{}

	r.RecordLookup("hangar", nil, time.Millisecond)
	r.RecordLookup("hangar", errors.New("test"), time.Millisecond)
	r.RecordResolve(nil, time.Second)
	r.RecordResolve(errors.New("test"), time.Second)
	r.RecordPlan(1, 2, 3)
}

func TestPrometheusRecorderImplementsRecorder(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	var _ metrics.Recorder = metrics.NewPrometheusRecorder(reg)
}

func TestPrometheusRecorderRegistersAllMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	r := metrics.NewPrometheusRecorder(reg)

	r.RecordLookup("test", nil, time.Millisecond)
	r.RecordLookup("test", errors.New("err"), time.Millisecond)
	r.RecordResolve(nil, time.Millisecond)
	r.RecordResolve(errors.New("err"), time.Millisecond)
	r.RecordPlan(1, 0, 0)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	expected := map[string]bool{
		"modsyncer_registry_requests_total":   false,
		"modsyncer_registry_errors_total":     false,
		"modsyncer_registry_duration_seconds": false,
		"modsyncer_resolve_runs_total":        false,
		"modsyncer_resolve_errors_total":      false,
		"modsyncer_resolve_duration_seconds":  false,
		"modsyncer_plan_updates":              false,
		"modsyncer_plan_conflicts":            false,
		"modsyncer_plan_failures":             false,
	}

	for _, f := range families {
		if _, ok := expected[f.GetName()]; ok {
			expected[f.GetName()] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not registered", name)
		}
	}
}

func TestRecordLookup(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	r := metrics.NewPrometheusRecorder(reg)

	r.RecordLookup("modrinth", nil, 50*time.Millisecond)
	r.RecordLookup("modrinth", errors.New("timeout"), 100*time.Millisecond)
	r.RecordLookup("hangar", nil, 10*time.Millisecond)

	labels := map[string]string{"source": "modrinth"}

	totalVal := getCounterValue(t, reg, "modsyncer_registry_requests_total", labels)
	if totalVal != 2 {
		t.Errorf("expected registry_requests_total=2, got %v", totalVal)
	}

	errVal := getCounterValue(t, reg, "modsyncer_registry_errors_total", labels)
	if errVal != 1 {
		t.Errorf("expected registry_errors_total=1, got %v", errVal)
	}

	count := getHistogramCount(t, reg, "modsyncer_registry_duration_seconds", labels)
	if count != 2 {
		t.Errorf("expected histogram count=2, got %v", count)
	}
}

func TestRecordResolve(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	r := metrics.NewPrometheusRecorder(reg)

	r.RecordResolve(nil, 10*time.Millisecond)
	r.RecordResolve(errors.New("cancelled"), 20*time.Millisecond)

	runs := getCounterValue(t, reg, "modsyncer_resolve_runs_total", nil)
	if runs != 2 {
		t.Errorf("expected resolve_runs_total=2, got %v", runs)
	}

	errs := getCounterValue(t, reg, "modsyncer_resolve_errors_total", nil)
	if errs != 1 {
		t.Errorf("expected resolve_errors_total=1, got %v", errs)
	}

	count := getHistogramCount(t, reg, "modsyncer_resolve_duration_seconds", nil)
	if count != 2 {
		t.Errorf("expected histogram count=2, got %v", count)
	}
}

func TestRecordPlanSetsGauges(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	r := metrics.NewPrometheusRecorder(reg)

	r.RecordPlan(5, 2, 1)
	r.RecordPlan(3, 1, 0)

	want := map[string]float64{
		"modsyncer_plan_updates":   3,
		"modsyncer_plan_conflicts": 1,
		"modsyncer_plan_failures":  0,
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather: %v", err)
	}

	for _, f := range families {
		expected, ok := want[f.GetName()]
		if !ok {
			continue
		}

		if got := f.GetMetric()[0].GetGauge().GetValue(); got != expected {
			t.Errorf("%s = %v, want %v", f.GetName(), got, expected)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	r := metrics.NewPrometheusRecorder(reg)
	r.RecordPlan(4, 0, 0)

	path := filepath.Join(t.TempDir(), "modsyncer.prom")

	if err := metrics.WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}

	if !strings.Contains(string(data), "modsyncer_plan_updates 4") {
		t.Errorf("textfile missing plan gauge:\n%s", data)
	}
}

// getCounterValue extracts counter value for given labels from the registry.
func getCounterValue(
	t *testing.T,
	reg *prometheus.Registry,
	name string,
	labels map[string]string,
) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather: %v", err)
	}

	for _, f := range families {
		if f.GetName() != name {
			continue
		}

		for _, m := range f.GetMetric() {
			if matchLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}

	t.Fatalf("metric %q with labels %v not found", name, labels)

	return 0
}

// getHistogramCount extracts histogram sample count for given labels.
func getHistogramCount(
	t *testing.T,
	reg *prometheus.Registry,
	name string,
	labels map[string]string,
) uint64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather: %v", err)
	}

	for _, f := range families {
		if f.GetName() != name {
			continue
		}

		for _, m := range f.GetMetric() {
			if matchLabels(m, labels) {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}

	t.Fatalf("metric %q with labels %v not found", name, labels)

	return 0
}

// matchLabels checks if a metric has all expected label pairs.
func matchLabels(
	m *io_prometheus_client.Metric,
	expected map[string]string,
) bool {
	labelMap := make(map[string]string)
	for _, lp := range m.GetLabel() {
		labelMap[lp.GetName()] = lp.GetValue()
	}

	for k, v := range expected {
		if labelMap[k] != v {
			return false
		}
	}

	return true
}
