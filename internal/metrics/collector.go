// Package metrics exposes Prometheus instrumentation for the MTProto client
// stack: DC connections, in-flight RPCs, RPC errors, flood-wait sleeps, and
// update-engine reconnects/gap handling.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "layer"
	subsystem = "client"
)

// Label names used across the metric vectors.
const (
	labelDC     = "dc"
	labelMethod = "method"
	labelCode   = "code"
	labelName   = "name"
)

// Collector holds every client-facing Prometheus metric.
//
//   - Connections tracks currently open DC connections (one per datacenter).
//   - RPCInFlight tracks pending RPC calls awaiting a reply.
//   - RPCErrors counts server-returned rpc_error responses by (code, name).
//   - FloodWaitSeconds accumulates total seconds slept absorbing
//     FLOOD_WAIT_N (spec §4.8).
//   - UpdateReconnects counts update-engine reconnect loop iterations.
//   - PtsGaps / PtsDuplicates count update gap detection outcomes (spec
//     §4.10, §8 scenario 4).
type Collector struct {
	Connections      *prometheus.GaugeVec
	RPCInFlight      prometheus.Gauge
	RPCCalls         *prometheus.CounterVec
	RPCErrors        *prometheus.CounterVec
	FloodWaitSeconds prometheus.Counter
	UpdateReconnects prometheus.Counter
	PtsGaps          prometheus.Counter
	PtsDuplicates    prometheus.Counter
}

// NewCollector creates a Collector with every metric registered against reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Connections,
		c.RPCInFlight,
		c.RPCCalls,
		c.RPCErrors,
		c.FloodWaitSeconds,
		c.UpdateReconnects,
		c.PtsGaps,
		c.PtsDuplicates,
	)

	return c
}

func newMetrics() *Collector {
	return &Collector{
		Connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dc_connections",
			Help:      "Number of currently open datacenter connections.",
		}, []string{labelDC}),

		RPCInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rpc_in_flight",
			Help:      "Number of RPC calls awaiting a reply.",
		}),

		RPCCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rpc_calls_total",
			Help:      "Total RPC calls issued, labeled by method name.",
		}, []string{labelMethod}),

		RPCErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rpc_errors_total",
			Help:      "Total rpc_error responses received, labeled by code and name.",
		}, []string{labelCode, labelName}),

		FloodWaitSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "flood_wait_seconds_total",
			Help:      "Total seconds slept absorbing FLOOD_WAIT_N errors.",
		}),

		UpdateReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "update_reconnects_total",
			Help:      "Total update-engine reconnect loop iterations.",
		}),

		PtsGaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pts_gaps_total",
			Help:      "Total update gaps detected (pts greater than cached+count), triggering get_difference.",
		}),

		PtsDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pts_duplicates_total",
			Help:      "Total duplicate updates discarded (pts less than cached+count).",
		}),
	}
}

// -------------------------------------------------------------------------
// DC connections
// -------------------------------------------------------------------------

// RegisterConnection increments the open-connections gauge for dcID.
func (c *Collector) RegisterConnection(dcID int32) {
	c.Connections.WithLabelValues(strconv.Itoa(int(dcID))).Inc()
}

// UnregisterConnection decrements the open-connections gauge for dcID.
func (c *Collector) UnregisterConnection(dcID int32) {
	c.Connections.WithLabelValues(strconv.Itoa(int(dcID))).Dec()
}

// -------------------------------------------------------------------------
// RPC
// -------------------------------------------------------------------------

// BeginRPC records a new in-flight RPC call for method.
func (c *Collector) BeginRPC(method string) {
	c.RPCInFlight.Inc()
	c.RPCCalls.WithLabelValues(method).Inc()
}

// EndRPC records the completion of an in-flight RPC call.
func (c *Collector) EndRPC() {
	c.RPCInFlight.Dec()
}

// RecordRPCError increments the rpc_error counter for (code, name).
func (c *Collector) RecordRPCError(code int32, name string) {
	c.RPCErrors.WithLabelValues(strconv.Itoa(int(code)), name).Inc()
}

// AddFloodWaitSeconds accumulates seconds slept absorbing a FLOOD_WAIT_N.
func (c *Collector) AddFloodWaitSeconds(seconds int) {
	c.FloodWaitSeconds.Add(float64(seconds))
}

// -------------------------------------------------------------------------
// Update engine
// -------------------------------------------------------------------------

// RecordReconnect increments the update-engine reconnect counter.
func (c *Collector) RecordReconnect() {
	c.UpdateReconnects.Inc()
}

// RecordPtsGap increments the pts-gap counter.
func (c *Collector) RecordPtsGap() {
	c.PtsGaps.Inc()
}

// RecordPtsDuplicate increments the pts-duplicate counter.
func (c *Collector) RecordPtsDuplicate() {
	c.PtsDuplicates.Inc()
}
