package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/meshview/model"
	"github.com/signalsfoundry/meshview/timectrl"
)

var testEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testClock() *timectrl.TimeController {
	return timectrl.NewTimeController(testEpoch, time.Second, timectrl.Accelerated)
}

func TestCreateNodeDefaults(t *testing.T) {
	clock := testClock()
	m := NewStationNodeManager(clock)

	node := m.CreateNode("W1AW", model.GeoCoordinates{Latitude: 41.7, Longitude: -72.7}, "IC-7300", model.RFCharacteristics{Band: model.BandHF})
	if node.ID == "" {
		t.Fatalf("CreateNode ID = empty, want generated")
	}
	if node.Status != model.NodeStatusActive {
		t.Fatalf("Status = %v, want %v", node.Status, model.NodeStatusActive)
	}
	if !node.LastSeen.Equal(testEpoch) {
		t.Fatalf("LastSeen = %v, want %v", node.LastSeen, testEpoch)
	}
	if !node.Metrics.UptimeSince.Equal(testEpoch) {
		t.Fatalf("UptimeSince = %v, want %v", node.Metrics.UptimeSince, testEpoch)
	}
	if m.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", m.Count())
	}
}

func TestUpdateNodeAppliesPatchAndRefreshesLastSeen(t *testing.T) {
	clock := testClock()
	m := NewStationNodeManager(clock)
	node := m.CreateNode("W1AW", model.GeoCoordinates{}, "", model.RFCharacteristics{})

	clock.SetTime(testEpoch.Add(time.Minute))
	status := model.NodeStatusUnreachable
	callsign := "W1AW/P"
	if !m.UpdateNode(node.ID, model.StationNodeUpdate{Status: &status, Callsign: &callsign}) {
		t.Fatalf("UpdateNode = false, want true")
	}

	got := m.GetNode(node.ID)
	if got.Status != model.NodeStatusUnreachable || got.Callsign != "W1AW/P" {
		t.Fatalf("node after patch = %+v, want status unreachable callsign W1AW/P", got)
	}
	if !got.LastSeen.Equal(testEpoch.Add(time.Minute)) {
		t.Fatalf("LastSeen = %v, want refreshed to %v", got.LastSeen, testEpoch.Add(time.Minute))
	}
}

func TestUpdateNodeUnknownIDIsNoOp(t *testing.T) {
	m := NewStationNodeManager(testClock())
	if m.UpdateNode("missing", model.StationNodeUpdate{}) {
		t.Fatalf("UpdateNode(missing) = true, want false")
	}
	if m.UpdateNodeStatus("missing", model.NodeStatusInactive) {
		t.Fatalf("UpdateNodeStatus(missing) = true, want false")
	}
	if m.RemoveNode("missing") {
		t.Fatalf("RemoveNode(missing) = true, want false")
	}
}

func TestCalculateDistance(t *testing.T) {
	m := NewStationNodeManager(testClock())
	ny := m.CreateNode("NY", model.GeoCoordinates{Latitude: 40.7128, Longitude: -74.0060}, "", model.RFCharacteristics{})
	north := m.CreateNode("N", model.GeoCoordinates{Latitude: 40.8128, Longitude: -74.0060}, "", model.RFCharacteristics{})

	if km, ok := m.CalculateDistance(ny.ID, ny.ID); !ok || km != 0 {
		t.Fatalf("CalculateDistance(self) = %v, %v, want 0, true", km, ok)
	}

	km, ok := m.CalculateDistance(ny.ID, north.ID)
	if !ok {
		t.Fatalf("CalculateDistance ok = false, want true")
	}
	if km < 10.5 || km > 11.7 {
		t.Fatalf("CalculateDistance(0.1 deg north) = %v km, want roughly 11", km)
	}

	if _, ok := m.CalculateDistance(ny.ID, "missing"); ok {
		t.Fatalf("CalculateDistance with unknown ID ok = true, want false")
	}
}

func TestCalculateBearingNorth(t *testing.T) {
	m := NewStationNodeManager(testClock())
	a := m.CreateNode("A", model.GeoCoordinates{Latitude: 40, Longitude: -74}, "", model.RFCharacteristics{})
	b := m.CreateNode("B", model.GeoCoordinates{Latitude: 41, Longitude: -74}, "", model.RFCharacteristics{})

	deg, ok := m.CalculateBearing(a.ID, b.ID)
	if !ok {
		t.Fatalf("CalculateBearing ok = false, want true")
	}
	if deg > 0.5 && deg < 359.5 {
		t.Fatalf("bearing due north = %v, want ~0", deg)
	}
}

func TestFindNodesInRangeExcludesCenter(t *testing.T) {
	m := NewStationNodeManager(testClock())
	center := m.CreateNode("C", model.GeoCoordinates{Latitude: 40, Longitude: -74}, "", model.RFCharacteristics{})
	near := m.CreateNode("N", model.GeoCoordinates{Latitude: 40.05, Longitude: -74}, "", model.RFCharacteristics{})
	m.CreateNode("F", model.GeoCoordinates{Latitude: 45, Longitude: -74}, "", model.RFCharacteristics{})

	got := m.FindNodesInRange(center.ID, 50)
	if len(got) != 1 || got[0].ID != near.ID {
		t.Fatalf("FindNodesInRange = %v nodes, want exactly the near one", len(got))
	}

	if got := m.FindNodesInRange("missing", 50); got != nil {
		t.Fatalf("FindNodesInRange(unknown) = %v, want nil", got)
	}
}

func TestCleanupStaleNodes(t *testing.T) {
	clock := testClock()
	m := NewStationNodeManager(clock)
	stale := m.CreateNode("OLD", model.GeoCoordinates{}, "", model.RFCharacteristics{})

	clock.SetTime(testEpoch.Add(9 * time.Minute))
	fresh := m.CreateNode("NEW", model.GeoCoordinates{}, "", model.RFCharacteristics{})

	clock.SetTime(testEpoch.Add(11 * time.Minute))
	removed := m.CleanupStaleNodes(10 * time.Minute)
	if len(removed) != 1 || removed[0] != stale.ID {
		t.Fatalf("CleanupStaleNodes removed = %v, want [%s]", removed, stale.ID)
	}
	if m.GetNode(fresh.ID) == nil {
		t.Fatalf("fresh node was removed")
	}
}
