package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/meshview/model"
	"github.com/signalsfoundry/meshview/timectrl"
)

func testManager(clock timectrl.Clock) *NetworkTopologyManager {
	return NewNetworkTopologyManager(Config{Clock: clock})
}

func TestAddNodeEventFanOut(t *testing.T) {
	tm := testManager(testClock())

	discovered := 0
	changed := 0
	tm.AddListener(model.EventNodeDiscovered, func(evt model.TopologyEvent) {
		discovered++
		if evt.Type != model.EventNodeDiscovered {
			t.Fatalf("listener saw type %v, want node-discovered", evt.Type)
		}
		if evt.NodeID == "" {
			t.Fatalf("event NodeID = empty, want set")
		}
	})
	tm.AddListener(model.EventTopologyChanged, func(evt model.TopologyEvent) {
		changed++
	})

	tm.AddNode("W1AW", model.GeoCoordinates{Latitude: 41.7, Longitude: -72.7}, "", model.RFCharacteristics{})

	if discovered != 1 {
		t.Fatalf("node-discovered fired %d times, want 1", discovered)
	}
	if changed != 1 {
		t.Fatalf("topology-changed fired %d times, want 1", changed)
	}
}

func TestRemoveListenerStopsDelivery(t *testing.T) {
	tm := testManager(testClock())

	calls := 0
	h := tm.AddListener(model.EventNodeDiscovered, func(model.TopologyEvent) { calls++ })

	tm.AddNode("A", model.GeoCoordinates{}, "", model.RFCharacteristics{})
	if !tm.RemoveListener(h) {
		t.Fatalf("RemoveListener = false, want true")
	}
	tm.AddNode("B", model.GeoCoordinates{}, "", model.RFCharacteristics{})

	if calls != 1 {
		t.Fatalf("listener fired %d times, want 1", calls)
	}
	if tm.RemoveListener(h) {
		t.Fatalf("second RemoveListener = true, want false")
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	tm := testManager(testClock())
	a := tm.AddNode("A", model.GeoCoordinates{}, "", model.RFCharacteristics{})
	b := tm.AddNode("B", model.GeoCoordinates{}, "", model.RFCharacteristics{})
	c := tm.AddNode("C", model.GeoCoordinates{}, "", model.RFCharacteristics{})

	tm.AddLink(a.ID, b.ID, model.ConnectionRF, "", model.RFCharacteristics{SNR: 15}, model.PropagationConditions{})
	survivor := tm.AddLink(b.ID, c.ID, model.ConnectionRF, "", model.RFCharacteristics{SNR: 15}, model.PropagationConditions{})

	routeViaA := tm.AddRoute(&model.RoutePath{SourceID: a.ID, DestID: c.ID, Hops: []string{a.ID, b.ID, c.ID}, Reliability: 0.8})
	routeWithout := tm.AddRoute(&model.RoutePath{SourceID: b.ID, DestID: c.ID, Hops: []string{b.ID, c.ID}, Reliability: 0.9})

	flow := tm.StartTrafficFlow(a.ID, c.ID, model.FlowBidirectional, model.PriorityNormal)
	otherFlow := tm.StartTrafficFlow(b.ID, c.ID, model.FlowBidirectional, model.PriorityNormal)

	if !tm.RemoveNode(a.ID) {
		t.Fatalf("RemoveNode = false, want true")
	}

	if tm.Stations().GetNode(a.ID) != nil {
		t.Fatalf("removed node still present")
	}
	for _, link := range tm.Links().GetAllLinks() {
		if link.Touches(a.ID) {
			t.Fatalf("link %s still touches removed node", link.ID)
		}
	}
	if tm.Links().GetLink(survivor.ID) == nil {
		t.Fatalf("unrelated link was removed")
	}
	if tm.GetRoute(routeViaA.ID) != nil {
		t.Fatalf("route through removed node survived")
	}
	if tm.GetRoute(routeWithout.ID) == nil {
		t.Fatalf("unrelated route was removed")
	}

	got := tm.GetTrafficFlow(flow.ID)
	if got == nil {
		t.Fatalf("traffic flow was deleted, want retained inactive")
	}
	if got.Active || got.EndTime.IsZero() {
		t.Fatalf("flow = %+v, want inactive with end time stamped", got)
	}
	if other := tm.GetTrafficFlow(otherFlow.ID); other == nil || !other.Active {
		t.Fatalf("unrelated flow = %+v, want still active", other)
	}

	if tm.RemoveNode(a.ID) {
		t.Fatalf("second RemoveNode = true, want false")
	}
}

func TestRemoveLinkExpiresDependentRoutes(t *testing.T) {
	tm := testManager(testClock())
	a := tm.AddNode("A", model.GeoCoordinates{}, "", model.RFCharacteristics{})
	b := tm.AddNode("B", model.GeoCoordinates{}, "", model.RFCharacteristics{})
	c := tm.AddNode("C", model.GeoCoordinates{}, "", model.RFCharacteristics{})

	ab := tm.AddLink(a.ID, b.ID, model.ConnectionRF, "", model.RFCharacteristics{}, model.PropagationConditions{})
	tm.AddLink(b.ID, c.ID, model.ConnectionRF, "", model.RFCharacteristics{}, model.PropagationConditions{})

	usesAB := tm.AddRoute(&model.RoutePath{SourceID: a.ID, DestID: c.ID, Hops: []string{a.ID, b.ID, c.ID}})
	noAB := tm.AddRoute(&model.RoutePath{SourceID: b.ID, DestID: c.ID, Hops: []string{b.ID, c.ID}})

	expired := 0
	tm.AddListener(model.EventRouteExpired, func(model.TopologyEvent) { expired++ })

	if !tm.RemoveLink(ab.ID) {
		t.Fatalf("RemoveLink = false, want true")
	}
	if tm.GetRoute(usesAB.ID) != nil {
		t.Fatalf("route over removed link survived")
	}
	if tm.GetRoute(noAB.ID) == nil {
		t.Fatalf("independent route was removed")
	}
	if expired != 1 {
		t.Fatalf("route-expired fired %d times, want 1", expired)
	}
}

func TestUpdateUnknownIDsEmitNothing(t *testing.T) {
	tm := testManager(testClock())

	events := 0
	tm.AddListener(model.EventTopologyChanged, func(model.TopologyEvent) { events++ })

	if tm.UpdateNode("missing", model.StationNodeUpdate{}) {
		t.Fatalf("UpdateNode(missing) = true, want false")
	}
	if tm.UpdateLink("missing", model.ConnectionLinkUpdate{}) {
		t.Fatalf("UpdateLink(missing) = true, want false")
	}
	if tm.UpdateRoute(&model.RoutePath{ID: "missing"}) {
		t.Fatalf("UpdateRoute(missing) = true, want false")
	}
	if tm.UpdateTrafficFlow("missing", model.TrafficFlowUpdate{}) {
		t.Fatalf("UpdateTrafficFlow(missing) = true, want false")
	}
	if tm.EndTrafficFlow("missing") {
		t.Fatalf("EndTrafficFlow(missing) = true, want false")
	}
	if tm.RemoveRoute("missing") {
		t.Fatalf("RemoveRoute(missing) = true, want false")
	}

	if events != 0 {
		t.Fatalf("events fired on unknown-ID updates = %d, want 0", events)
	}
}

func TestAddRouteFillsIDAndStampsLastUsed(t *testing.T) {
	clock := testClock()
	tm := testManager(clock)

	route := tm.AddRoute(&model.RoutePath{SourceID: "a", DestID: "b", Hops: []string{"a", "b"}})
	if route.ID == "" {
		t.Fatalf("AddRoute left ID empty, want generated")
	}
	if !route.LastUsed.Equal(testEpoch) {
		t.Fatalf("LastUsed = %v, want %v", route.LastUsed, testEpoch)
	}

	clock.SetTime(testEpoch.Add(time.Minute))
	route.Reliability = 0.95
	if !tm.UpdateRoute(route) {
		t.Fatalf("UpdateRoute = false, want true")
	}
	if !tm.GetRoute(route.ID).LastUsed.Equal(testEpoch.Add(time.Minute)) {
		t.Fatalf("LastUsed not refreshed on update")
	}
}

func TestEndTrafficFlowRetainsRecord(t *testing.T) {
	clock := testClock()
	tm := testManager(clock)
	flow := tm.StartTrafficFlow("a", "b", model.FlowSourceToDest, model.PriorityHigh)

	clock.SetTime(testEpoch.Add(time.Hour))
	if !tm.EndTrafficFlow(flow.ID) {
		t.Fatalf("EndTrafficFlow = false, want true")
	}

	got := tm.GetTrafficFlow(flow.ID)
	if got == nil {
		t.Fatalf("ended flow was deleted, want retained")
	}
	if got.Active {
		t.Fatalf("ended flow still active")
	}
	if !got.EndTime.Equal(testEpoch.Add(time.Hour)) {
		t.Fatalf("EndTime = %v, want %v", got.EndTime, testEpoch.Add(time.Hour))
	}
}

func TestGetTopologySnapshotIsCopyOnRead(t *testing.T) {
	tm := testManager(testClock())
	node := tm.AddNode("A", model.GeoCoordinates{Latitude: 40}, "", model.RFCharacteristics{})
	tm.AddLink("a", "b", model.ConnectionRF, "", model.RFCharacteristics{}, model.PropagationConditions{})

	snap := tm.GetTopology()
	snap.Nodes[node.ID].Callsign = "HACKED"
	delete(snap.Links, LinkID("a", "b"))

	if got := tm.Stations().GetNode(node.ID).Callsign; got != "A" {
		t.Fatalf("internal callsign = %s, want unaffected by snapshot mutation", got)
	}
	if tm.Links().Count() != 1 {
		t.Fatalf("internal link count = %d, want 1", tm.Links().Count())
	}
}

func TestMutationsStampLastUpdated(t *testing.T) {
	clock := testClock()
	tm := testManager(clock)

	clock.SetTime(testEpoch.Add(time.Minute))
	tm.AddNode("A", model.GeoCoordinates{}, "", model.RFCharacteristics{})
	if !tm.LastUpdated().Equal(testEpoch.Add(time.Minute)) {
		t.Fatalf("LastUpdated = %v, want %v", tm.LastUpdated(), testEpoch.Add(time.Minute))
	}
}
