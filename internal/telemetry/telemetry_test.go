package telemetry

import (
	"bytes"
	"log"
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestWrapLogger(t *testing.T) {
	t.Run("nil logger does not panic", func(t *testing.T) {
		logger := WrapLogger(nil)
		logger.Printf("ignored %d", 42)
	})

	t.Run("forwards to logger", func(t *testing.T) {
		var buf bytes.Buffer
		base := log.New(&buf, "", 0)
		logger := WrapLogger(base)
		logger.Printf("hello %s", "world")
		if got := buf.String(); got != "hello world\n" {
			t.Fatalf("unexpected log output: %q", got)
		}
	})
}

func counterValue(t *testing.T, c interface {
	Write(*dto.Metric) error
}) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	if m.Gauge != nil {
		return m.Gauge.GetValue()
	}
	return 0
}

func TestMetricsIsolatedRegistry(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.ParseErrorsTotal.Inc()
	a.ParseErrorsTotal.Inc()
	b.ParseErrorsTotal.Inc()

	if got := counterValue(t, a.ParseErrorsTotal); got != 2 {
		t.Fatalf("a.ParseErrorsTotal = %v, want 2", got)
	}
	if got := counterValue(t, b.ParseErrorsTotal); got != 1 {
		t.Fatalf("b.ParseErrorsTotal = %v, want 1", got)
	}

	families, err := a.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected at least one registered metric family")
	}
}
