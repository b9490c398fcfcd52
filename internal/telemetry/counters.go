package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Counters exposes the engine's relaxed-atomic hot-path counters as
// Prometheus collectors on a private registry, read via the Source
// callbacks at scrape time rather than being written to directly — the
// hot path writes only to internal/engine's own padded atomics.
type Counters struct {
	registry *prometheus.Registry

	packetsReceived  prometheus.CounterFunc
	packetsProcessed prometheus.CounterFunc
	parseErrors      prometheus.CounterFunc
	ringBufferFull   prometheus.CounterFunc
	usingHugePages   prometheus.GaugeFunc
}

// Source supplies the current counter values; internal/engine.Engine and
// internal/slotpool.Pool satisfy it via small adapter closures at wiring
// time in cmd/bbogateway.
type Source struct {
	PacketsReceived  func() float64
	PacketsProcessed func() float64
	ParseErrors      func() float64
	RingBufferFull   func() float64
	UsingHugePages   func() float64
}

// NewCounters builds and registers the collector set against a private
// registry (never the global default, so multiple engines can coexist in
// tests without collector-already-registered panics).
func NewCounters(src Source) *Counters {
	c := &Counters{registry: prometheus.NewRegistry()}

	c.packetsReceived = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "bbogateway_packets_received_total",
		Help: "IPv4/UDP frames addressed to the configured port, before parse.",
	}, src.PacketsReceived)

	c.packetsProcessed = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "bbogateway_packets_processed_total",
		Help: "Packets successfully parsed, whether or not the ring accepted the publish.",
	}, src.PacketsProcessed)

	c.parseErrors = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "bbogateway_parse_errors_total",
		Help: "Truncated BBO payloads rejected by the wire parser.",
	}, src.ParseErrors)

	c.ringBufferFull = prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "bbogateway_ring_buffer_full_total",
		Help: "Publishes dropped because the downstream SPSC ring was full.",
	}, src.RingBufferFull)

	c.usingHugePages = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "bbogateway_using_hugepages",
		Help: "1 if the slot pool is backed by huge pages, 0 otherwise.",
	}, src.UsingHugePages)

	c.registry.MustRegister(
		c.packetsReceived,
		c.packetsProcessed,
		c.parseErrors,
		c.ringBufferFull,
		c.usingHugePages,
	)
	return c
}

// Registry exposes the private registry for ServeMetrics.
func (c *Counters) Registry() *prometheus.Registry { return c.registry }
