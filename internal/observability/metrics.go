package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/meshview/model"
)

// TopologyCollector bundles Prometheus metrics for the mesh topology
// and implements the topology manager's MetricsRecorder interface, so
// mutators drive the gauges directly.
type TopologyCollector struct {
	gatherer prometheus.Gatherer

	EventsTotal     *prometheus.CounterVec
	LayoutDurations *prometheus.HistogramVec

	Stations           prometheus.Gauge
	StationsActive     prometheus.Gauge
	Links              prometheus.Gauge
	LinksActive        prometheus.Gauge
	Routes             prometheus.Gauge
	TrafficFlows       prometheus.Gauge
	TrafficFlowsActive prometheus.Gauge

	Partitions       prometheus.Gauge
	LargestPartition prometheus.Gauge
	DiameterHops     prometheus.Gauge

	HealthThroughputBps prometheus.Gauge
	HealthPacketLoss    prometheus.Gauge
	HealthLatencyMs     prometheus.Gauge
	HealthJitterMs      prometheus.Gauge
	HealthAvailability  prometheus.Gauge
}

// NewTopologyCollector registers the mesh metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewTopologyCollector(reg prometheus.Registerer) (*TopologyCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mesh_topology_events_total",
		Help: "Total number of emitted topology events, labeled by event type.",
	}, []string{"type"})
	events, err := registerCounterVec(reg, events, "mesh_topology_events_total")
	if err != nil {
		return nil, err
	}

	layouts := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mesh_layout_duration_seconds",
		Help:    "Layout pass duration in seconds, labeled by algorithm.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"algorithm"})
	layouts, err = registerHistogramVec(reg, layouts, "mesh_layout_duration_seconds")
	if err != nil {
		return nil, err
	}

	c := &TopologyCollector{
		gatherer:        gatherer,
		EventsTotal:     events,
		LayoutDurations: layouts,
	}

	gauges := []struct {
		target *prometheus.Gauge
		name   string
		help   string
	}{
		{&c.Stations, "mesh_stations", "Current number of station nodes."},
		{&c.StationsActive, "mesh_stations_active", "Current number of stations with active status."},
		{&c.Links, "mesh_links", "Current number of connection links."},
		{&c.LinksActive, "mesh_links_active", "Current number of active connection links."},
		{&c.Routes, "mesh_routes", "Current number of registered routes."},
		{&c.TrafficFlows, "mesh_traffic_flows", "Current number of traffic-flow records."},
		{&c.TrafficFlowsActive, "mesh_traffic_flows_active", "Current number of active traffic flows."},
		{&c.Partitions, "mesh_partitions", "Number of connected components over active links."},
		{&c.LargestPartition, "mesh_largest_partition", "Station count of the largest partition."},
		{&c.DiameterHops, "mesh_diameter_hops", "Maximum optimal-route hop count over all station pairs."},
		{&c.HealthThroughputBps, "mesh_health_throughput_bps", "Aggregate throughput over active links."},
		{&c.HealthPacketLoss, "mesh_health_packet_loss_ratio", "Derived packet loss ratio in [0,1]."},
		{&c.HealthLatencyMs, "mesh_health_latency_ms", "Mean route latency in milliseconds."},
		{&c.HealthJitterMs, "mesh_health_jitter_ms", "Derived jitter estimate in milliseconds."},
		{&c.HealthAvailability, "mesh_health_availability_ratio", "Active stations over total stations in [0,1]."},
	}
	for _, g := range gauges {
		gauge, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: g.name, Help: g.help}), g.name)
		if err != nil {
			return nil, err
		}
		*g.target = gauge
	}

	return c, nil
}

// RecordEvent counts one emitted topology event.
func (c *TopologyCollector) RecordEvent(t model.EventType) {
	if c == nil || c.EventsTotal == nil {
		return
	}
	c.EventsTotal.WithLabelValues(string(t)).Inc()
}

// SetTopologyCounts updates the aggregate count gauges.
func (c *TopologyCollector) SetTopologyCounts(nodes, activeNodes, links, activeLinks, routes, flows, activeFlows int) {
	if c == nil {
		return
	}
	c.Stations.Set(float64(nodes))
	c.StationsActive.Set(float64(activeNodes))
	c.Links.Set(float64(links))
	c.LinksActive.Set(float64(activeLinks))
	c.Routes.Set(float64(routes))
	c.TrafficFlows.Set(float64(flows))
	c.TrafficFlowsActive.Set(float64(activeFlows))
}

// SetGraphShape updates the partition/diameter gauges.
func (c *TopologyCollector) SetGraphShape(partitions, largestPartition, diameter int) {
	if c == nil {
		return
	}
	c.Partitions.Set(float64(partitions))
	c.LargestPartition.Set(float64(largestPartition))
	c.DiameterHops.Set(float64(diameter))
}

// SetHealth updates the derived health gauges.
func (c *TopologyCollector) SetHealth(h model.NetworkHealth) {
	if c == nil {
		return
	}
	c.HealthThroughputBps.Set(h.ThroughputBps)
	c.HealthPacketLoss.Set(h.PacketLoss)
	c.HealthLatencyMs.Set(h.LatencyMs)
	c.HealthJitterMs.Set(h.JitterMs)
	c.HealthAvailability.Set(h.Availability)
}

// ObserveLayoutDuration records one layout pass.
func (c *TopologyCollector) ObserveLayoutDuration(algorithm string, seconds float64) {
	if c == nil || c.LayoutDurations == nil {
		return
	}
	c.LayoutDurations.WithLabelValues(algorithm).Observe(seconds)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *TopologyCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
