package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ankit-chaubey/layer/internal/metrics"
)

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	if c.Connections == nil {
		t.Error("Connections is nil")
	}
	if c.RPCInFlight == nil {
		t.Error("RPCInFlight is nil")
	}
	if c.RPCCalls == nil {
		t.Error("RPCCalls is nil")
	}
	if c.RPCErrors == nil {
		t.Error("RPCErrors is nil")
	}
	if c.FloodWaitSeconds == nil {
		t.Error("FloodWaitSeconds is nil")
	}
	if c.UpdateReconnects == nil {
		t.Error("UpdateReconnects is nil")
	}

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
}

func TestRegisterUnregisterConnection(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RegisterConnection(2)
	if v := gaugeValue(t, c.Connections, "2"); v != 1 {
		t.Errorf("after RegisterConnection: gauge = %v, want 1", v)
	}

	c.RegisterConnection(4)
	if v := gaugeValue(t, c.Connections, "4"); v != 1 {
		t.Errorf("dc4 gauge = %v, want 1", v)
	}

	c.UnregisterConnection(2)
	if v := gaugeValue(t, c.Connections, "2"); v != 0 {
		t.Errorf("after UnregisterConnection: dc2 gauge = %v, want 0", v)
	}
	if v := gaugeValue(t, c.Connections, "4"); v != 1 {
		t.Errorf("dc4 gauge = %v, want 1 (should be unaffected)", v)
	}
}

func TestRPCCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.BeginRPC("messages.sendMessage")
	c.BeginRPC("messages.sendMessage")
	c.EndRPC()

	if v := counterValue(t, c.RPCCalls, "messages.sendMessage"); v != 2 {
		t.Errorf("RPCCalls = %v, want 2", v)
	}

	m := &dto.Metric{}
	if err := c.RPCInFlight.Write(m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := m.GetGauge().GetValue(); got != 1 {
		t.Errorf("RPCInFlight = %v, want 1", got)
	}
}

func TestRecordRPCError(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordRPCError(420, "FLOOD_WAIT")
	c.RecordRPCError(420, "FLOOD_WAIT")
	c.RecordRPCError(303, "PHONE_MIGRATE")

	if v := counterValue(t, c.RPCErrors, "420", "FLOOD_WAIT"); v != 2 {
		t.Errorf("RPCErrors(420,FLOOD_WAIT) = %v, want 2", v)
	}
	if v := counterValue(t, c.RPCErrors, "303", "PHONE_MIGRATE"); v != 1 {
		t.Errorf("RPCErrors(303,PHONE_MIGRATE) = %v, want 1", v)
	}
}

func TestFloodWaitAndPtsCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.AddFloodWaitSeconds(30)
	c.AddFloodWaitSeconds(5)
	c.RecordReconnect()
	c.RecordPtsGap()
	c.RecordPtsGap()
	c.RecordPtsDuplicate()

	if v := plainCounterValue(t, c.FloodWaitSeconds); v != 35 {
		t.Errorf("FloodWaitSeconds = %v, want 35", v)
	}
	if v := plainCounterValue(t, c.UpdateReconnects); v != 1 {
		t.Errorf("UpdateReconnects = %v, want 1", v)
	}
	if v := plainCounterValue(t, c.PtsGaps); v != 2 {
		t.Errorf("PtsGaps = %v, want 2", v)
	}
	if v := plainCounterValue(t, c.PtsDuplicates); v != 1 {
		t.Errorf("PtsDuplicates = %v, want 1", v)
	}
}

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

func gaugeValue(t *testing.T, vec *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()
	gauge, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}
	m := &dto.Metric{}
	if err := gauge.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}
	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func plainCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}
