package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/signalsfoundry/meshview/model"
)

func TestRecordEventCountsByType(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTopologyCollector(reg)
	if err != nil {
		t.Fatalf("NewTopologyCollector: %v", err)
	}

	collector.RecordEvent(model.EventNodeDiscovered)
	collector.RecordEvent(model.EventNodeDiscovered)
	collector.RecordEvent(model.EventTopologyChanged)

	if got := testutil.ToFloat64(collector.EventsTotal.WithLabelValues(string(model.EventNodeDiscovered))); got != 2 {
		t.Fatalf("mesh_topology_events_total{type=node-discovered} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.EventsTotal.WithLabelValues(string(model.EventTopologyChanged))); got != 1 {
		t.Fatalf("mesh_topology_events_total{type=topology-changed} = %v, want 1", got)
	}
}

func TestDuplicateRegistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewTopologyCollector(reg)
	if err != nil {
		t.Fatalf("NewTopologyCollector: %v", err)
	}
	second, err := NewTopologyCollector(reg)
	if err != nil {
		t.Fatalf("second NewTopologyCollector: %v", err)
	}

	first.RecordEvent(model.EventLinkEstablished)
	second.RecordEvent(model.EventLinkEstablished)

	if got := testutil.ToFloat64(first.EventsTotal.WithLabelValues(string(model.EventLinkEstablished))); got != 2 {
		t.Fatalf("shared counter = %v, want 2", got)
	}
}

func TestLayoutDurationHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTopologyCollector(reg)
	if err != nil {
		t.Fatalf("NewTopologyCollector: %v", err)
	}

	collector.ObserveLayoutDuration("force", 0.012)
	collector.ObserveLayoutDuration("force", 0.004)
	collector.ObserveLayoutDuration("grid", 0.001)

	if count := histogramSampleCount(t, reg, "mesh_layout_duration_seconds", map[string]string{
		"algorithm": "force",
	}); count != 2 {
		t.Fatalf("mesh_layout_duration_seconds{algorithm=force} sample_count = %d, want 2", count)
	}
}

func TestMetricsHandlerExposesTopologyGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewTopologyCollector(reg)
	if err != nil {
		t.Fatalf("NewTopologyCollector: %v", err)
	}
	collector.SetTopologyCounts(7, 6, 9, 8, 4, 3, 2)
	collector.SetGraphShape(2, 5, 3)
	collector.SetHealth(model.NetworkHealth{
		ThroughputBps: 1_200_000,
		PacketLoss:    0.02,
		LatencyMs:     45,
		JitterMs:      4.5,
		Availability:  0.857,
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"mesh_stations",
		"mesh_stations_active",
		"mesh_links",
		"mesh_links_active",
		"mesh_routes",
		"mesh_traffic_flows",
		"mesh_partitions",
		"mesh_largest_partition",
		"mesh_diameter_hops",
		"mesh_health_throughput_bps",
		"mesh_health_availability_ratio",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}

	if got := testutil.ToFloat64(collector.Stations); got != 7 {
		t.Fatalf("mesh_stations = %v, want 7", got)
	}
	if got := testutil.ToFloat64(collector.DiameterHops); got != 3 {
		t.Fatalf("mesh_diameter_hops = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.HealthPacketLoss); got != 0.02 {
		t.Fatalf("mesh_health_packet_loss_ratio = %v, want 0.02", got)
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
