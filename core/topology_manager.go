package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/meshview/internal/logging"
	"github.com/signalsfoundry/meshview/model"
	"github.com/signalsfoundry/meshview/timectrl"
)

// MetricsRecorder receives topology gauge updates from the manager's
// mutators. Implementations must tolerate being called frequently.
type MetricsRecorder interface {
	RecordEvent(t model.EventType)
	SetTopologyCounts(nodes, activeNodes, links, activeLinks, routes, flows, activeFlows int)
	SetGraphShape(partitions, largestPartition, diameter int)
	SetHealth(h model.NetworkHealth)
}

type noopMetrics struct{}

func (noopMetrics) RecordEvent(model.EventType)               {}
func (noopMetrics) SetTopologyCounts(_, _, _, _, _, _, _ int) {}
func (noopMetrics) SetGraphShape(_, _, _ int)                 {}
func (noopMetrics) SetHealth(model.NetworkHealth)             {}

// ListenerFunc is invoked synchronously for each matching event. A
// listener must not mutate the topology from within the callback;
// ordering is undefined if it does.
type ListenerFunc func(model.TopologyEvent)

// ListenerHandle identifies a registered listener for removal.
type ListenerHandle struct {
	eventType model.EventType
	id        int
}

type listenerEntry struct {
	id int
	fn ListenerFunc
}

// Config tunes the topology manager. Zero values fall back to the
// documented defaults.
type Config struct {
	Clock   timectrl.Clock
	Logger  logging.Logger
	Metrics MetricsRecorder

	// Staleness windows for the periodic sweep.
	NodeStaleAfter    time.Duration // default 10 minutes
	LinkStaleAfter    time.Duration // default 5 minutes
	RouteStaleAfter   time.Duration // default 5 minutes
	TrafficPurgeAfter time.Duration // default 24 hours

	// Maintenance cadence.
	CleanupInterval time.Duration // default 60 seconds
	HealthInterval  time.Duration // default 30 seconds

	// MaxNodes is advisory: exceeding it is logged, not rejected. It
	// exists to bound the O(n²) layout/partition cost, not to enforce
	// admission control.
	MaxNodes int
}

func (c *Config) applyDefaults() {
	if c.Clock == nil {
		c.Clock = timectrl.SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = logging.Noop()
	}
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}
	if c.NodeStaleAfter <= 0 {
		c.NodeStaleAfter = 10 * time.Minute
	}
	if c.LinkStaleAfter <= 0 {
		c.LinkStaleAfter = 5 * time.Minute
	}
	if c.RouteStaleAfter <= 0 {
		c.RouteStaleAfter = 5 * time.Minute
	}
	if c.TrafficPurgeAfter <= 0 {
		c.TrafficPurgeAfter = 24 * time.Hour
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 60 * time.Second
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = 30 * time.Second
	}
}

// NetworkTopologyManager is the aggregate root for the mesh topology:
// stations, links, routes and traffic flows, plus the derived health
// snapshot. Every mutation stamps the aggregate's last-update time and
// fans out a typed event; node and link mutations additionally
// recompute health synchronously before returning.
//
// The manager is deliberately unsynchronized: all mutations and reads
// are expected to come from a single writer (spec: serialize through
// one goroutine or actor). Event dispatch is synchronous and
// re-entrant-unsafe.
type NetworkTopologyManager struct {
	cfg   Config
	clock timectrl.Clock
	log   logging.Logger

	stations *StationNodeManager
	links    *ConnectionLinkManager
	routes   map[string]*model.RoutePath
	traffic  map[string]*model.TrafficFlow

	lastUpdated time.Time
	health      model.NetworkHealth

	listeners      map[model.EventType][]listenerEntry
	nextListenerID int

	lastCleanup time.Time
	lastHealth  time.Time
}

// NewNetworkTopologyManager constructs a manager with the given
// configuration.
func NewNetworkTopologyManager(cfg Config) *NetworkTopologyManager {
	cfg.applyDefaults()
	now := cfg.Clock.Now()
	return &NetworkTopologyManager{
		cfg:         cfg,
		clock:       cfg.Clock,
		log:         cfg.Logger,
		stations:    NewStationNodeManager(cfg.Clock),
		links:       NewConnectionLinkManager(cfg.Clock),
		routes:      make(map[string]*model.RoutePath),
		traffic:     make(map[string]*model.TrafficFlow),
		lastUpdated: now,
		listeners:   make(map[model.EventType][]listenerEntry),
		lastCleanup: now,
		lastHealth:  now,
	}
}

// Stations exposes the composed station manager for distance/bearing
// queries. Mutations should go through the topology manager so events
// and health stay consistent.
func (tm *NetworkTopologyManager) Stations() *StationNodeManager { return tm.stations }

// Links exposes the composed link manager for read-side queries.
func (tm *NetworkTopologyManager) Links() *ConnectionLinkManager { return tm.links }

//
// ---------- Event fan-out ----------
//

// AddListener registers a callback for one event type and returns a
// handle for later removal. Register on EventTopologyChanged to observe
// every mutation.
func (tm *NetworkTopologyManager) AddListener(t model.EventType, fn ListenerFunc) ListenerHandle {
	tm.nextListenerID++
	h := ListenerHandle{eventType: t, id: tm.nextListenerID}
	tm.listeners[t] = append(tm.listeners[t], listenerEntry{id: h.id, fn: fn})
	return h
}

// RemoveListener unregisters a previously added listener, reporting
// whether it was still registered.
func (tm *NetworkTopologyManager) RemoveListener(h ListenerHandle) bool {
	entries := tm.listeners[h.eventType]
	for i, e := range entries {
		if e.id == h.id {
			tm.listeners[h.eventType] = append(entries[:i], entries[i+1:]...)
			return true
		}
	}
	return false
}

// emit dispatches to the event type's listeners and then to the
// catch-all topology-changed listeners. A topology-changed emission is
// not re-broadcast to itself.
func (tm *NetworkTopologyManager) emit(evt model.TopologyEvent) {
	tm.cfg.Metrics.RecordEvent(evt.Type)
	for _, e := range tm.listeners[evt.Type] {
		e.fn(evt)
	}
	if evt.Type != model.EventTopologyChanged {
		for _, e := range tm.listeners[model.EventTopologyChanged] {
			e.fn(evt)
		}
	}
}

// touch stamps the aggregate's last-update time.
func (tm *NetworkTopologyManager) touch() {
	tm.lastUpdated = tm.clock.Now()
}

//
// ---------- Node mutations ----------
//

// AddNode creates a station and announces it.
func (tm *NetworkTopologyManager) AddNode(callsign string, coords model.GeoCoordinates, equipment string, rf model.RFCharacteristics) *model.StationNode {
	node := tm.stations.CreateNode(callsign, coords, equipment, rf)
	if tm.cfg.MaxNodes > 0 && tm.stations.Count() > tm.cfg.MaxNodes {
		tm.log.Warn(context.Background(), "node count exceeds advisory cap",
			logging.Int("nodes", tm.stations.Count()),
			logging.Int("max_nodes", tm.cfg.MaxNodes),
		)
	}
	tm.touch()
	tm.recomputeHealth()
	tm.emit(model.TopologyEvent{
		Type:      model.EventNodeDiscovered,
		Timestamp: tm.clock.Now(),
		NodeID:    node.ID,
		Data:      node.Clone(),
	})
	return node
}

// UpdateNode applies a partial station update, reporting whether the
// target existed.
func (tm *NetworkTopologyManager) UpdateNode(id string, patch model.StationNodeUpdate) bool {
	if !tm.stations.UpdateNode(id, patch) {
		return false
	}
	tm.afterNodeUpdate(id)
	return true
}

// UpdateNodeStatus sets a station's status.
func (tm *NetworkTopologyManager) UpdateNodeStatus(id string, status model.NodeStatus) bool {
	if !tm.stations.UpdateNodeStatus(id, status) {
		return false
	}
	tm.afterNodeUpdate(id)
	return true
}

// UpdateRFCharacteristics replaces a station's radio parameters.
func (tm *NetworkTopologyManager) UpdateRFCharacteristics(id string, rf model.RFCharacteristics) bool {
	if !tm.stations.UpdateRFCharacteristics(id, rf) {
		return false
	}
	tm.afterNodeUpdate(id)
	return true
}

// UpdateCoordinates moves a station.
func (tm *NetworkTopologyManager) UpdateCoordinates(id string, coords model.GeoCoordinates) bool {
	if !tm.stations.UpdateCoordinates(id, coords) {
		return false
	}
	tm.afterNodeUpdate(id)
	return true
}

// UpdateNodeMetrics replaces a station's cumulative counters.
func (tm *NetworkTopologyManager) UpdateNodeMetrics(id string, metrics model.NodeMetrics) bool {
	if !tm.stations.UpdateNodeMetrics(id, metrics) {
		return false
	}
	tm.afterNodeUpdate(id)
	return true
}

func (tm *NetworkTopologyManager) afterNodeUpdate(id string) {
	tm.touch()
	tm.recomputeHealth()
	var data any
	if node := tm.stations.GetNode(id); node != nil {
		data = node.Clone()
	}
	tm.emit(model.TopologyEvent{
		Type:      model.EventNodeUpdated,
		Timestamp: tm.clock.Now(),
		NodeID:    id,
		Data:      data,
	})
}

// RemoveNode deletes a station and cascades: every link touching it is
// removed (which in turn expires routes over those links), every route
// that visits it is removed, and traffic flows touching it are marked
// inactive with an end time rather than deleted.
func (tm *NetworkTopologyManager) RemoveNode(id string) bool {
	if tm.stations.GetNode(id) == nil {
		return false
	}
	now := tm.clock.Now()

	for _, link := range tm.links.LinksTouching(id) {
		tm.removeLinkCascade(link.ID)
	}
	for routeID, route := range tm.routes {
		if route.ContainsNode(id) {
			tm.expireRoute(routeID)
		}
	}
	for _, flow := range tm.traffic {
		if flow.Active && flow.Touches(id) {
			flow.Active = false
			flow.EndTime = now
			tm.emit(model.TopologyEvent{
				Type:      model.EventTrafficEnded,
				Timestamp: now,
				TrafficID: flow.ID,
				Data:      flow.Clone(),
			})
		}
	}

	tm.stations.RemoveNode(id)
	tm.touch()
	tm.recomputeHealth()
	tm.emit(model.TopologyEvent{
		Type:      model.EventNodeLost,
		Timestamp: tm.clock.Now(),
		NodeID:    id,
	})
	return true
}

//
// ---------- Link mutations ----------
//

// AddLink establishes (or re-establishes) the link between two station
// IDs. Endpoint IDs are treated as opaque; they are not validated
// against the node set.
func (tm *NetworkTopologyManager) AddLink(sourceID, destID string, connType model.ConnectionType, protocol string, rf model.RFCharacteristics, prop model.PropagationConditions) *model.ConnectionLink {
	link := tm.links.EstablishLink(sourceID, destID, connType, protocol, rf, prop)
	tm.touch()
	tm.recomputeHealth()
	tm.emit(model.TopologyEvent{
		Type:      model.EventLinkEstablished,
		Timestamp: tm.clock.Now(),
		LinkID:    link.ID,
		Data:      link.Clone(),
	})
	return link
}

// UpdateLink applies a partial link update, reporting whether the link
// existed.
func (tm *NetworkTopologyManager) UpdateLink(id string, patch model.ConnectionLinkUpdate) bool {
	if !tm.links.UpdateLink(id, patch) {
		return false
	}
	tm.touch()
	tm.recomputeHealth()
	var data any
	if link := tm.links.GetLink(id); link != nil {
		data = link.Clone()
	}
	tm.emit(model.TopologyEvent{
		Type:      model.EventLinkUpdated,
		Timestamp: tm.clock.Now(),
		LinkID:    id,
		Data:      data,
	})
	return true
}

// RemoveLink deletes a link and expires every route that used it as a
// hop-adjacent edge.
func (tm *NetworkTopologyManager) RemoveLink(id string) bool {
	if tm.links.GetLink(id) == nil {
		return false
	}
	tm.removeLinkCascade(id)
	tm.touch()
	tm.recomputeHealth()
	return true
}

// removeLinkCascade removes the link, expires dependent routes and
// emits link-lost. Health recomputation is left to the caller so that
// node-removal cascades recompute once.
func (tm *NetworkTopologyManager) removeLinkCascade(id string) {
	if !tm.links.RemoveLink(id) {
		return
	}
	for routeID, route := range tm.routes {
		if routeUsesLink(route, id) {
			tm.expireRoute(routeID)
		}
	}
	tm.emit(model.TopologyEvent{
		Type:      model.EventLinkLost,
		Timestamp: tm.clock.Now(),
		LinkID:    id,
	})
}

// routeUsesLink scans the route's consecutive hop pairs for the link.
func routeUsesLink(route *model.RoutePath, linkID string) bool {
	for i := 0; i+1 < len(route.Hops); i++ {
		if LinkID(route.Hops[i], route.Hops[i+1]) == linkID {
			return true
		}
	}
	return false
}

//
// ---------- Route mutations ----------
//

// AddRoute registers a candidate path. An empty ID is filled in; the
// last-used timestamp is stamped. IsOptimal is taken as asserted by the
// caller, never derived.
func (tm *NetworkTopologyManager) AddRoute(route *model.RoutePath) *model.RoutePath {
	if route.ID == "" {
		route.ID = uuid.NewString()
	}
	route.LastUsed = tm.clock.Now()
	tm.routes[route.ID] = route
	tm.touch()
	tm.emit(model.TopologyEvent{
		Type:      model.EventRouteDiscovered,
		Timestamp: tm.clock.Now(),
		RouteID:   route.ID,
		Data:      route.Clone(),
	})
	return route
}

// UpdateRoute overwrites the stored route with the same ID, reporting
// whether it existed. Last-used is refreshed.
func (tm *NetworkTopologyManager) UpdateRoute(route *model.RoutePath) bool {
	if route == nil || route.ID == "" {
		return false
	}
	if _, ok := tm.routes[route.ID]; !ok {
		return false
	}
	route.LastUsed = tm.clock.Now()
	tm.routes[route.ID] = route
	tm.touch()
	tm.emit(model.TopologyEvent{
		Type:      model.EventRouteUpdated,
		Timestamp: tm.clock.Now(),
		RouteID:   route.ID,
		Data:      route.Clone(),
	})
	return true
}

// RemoveRoute deletes a route, reporting whether it existed.
func (tm *NetworkTopologyManager) RemoveRoute(id string) bool {
	if _, ok := tm.routes[id]; !ok {
		return false
	}
	tm.expireRoute(id)
	tm.touch()
	return true
}

func (tm *NetworkTopologyManager) expireRoute(id string) {
	delete(tm.routes, id)
	tm.emit(model.TopologyEvent{
		Type:      model.EventRouteExpired,
		Timestamp: tm.clock.Now(),
		RouteID:   id,
	})
}

// GetRoute returns a route by ID, or nil.
func (tm *NetworkTopologyManager) GetRoute(id string) *model.RoutePath {
	return tm.routes[id]
}

//
// ---------- Traffic mutations ----------
//

// StartTrafficFlow opens a session between two stations.
func (tm *NetworkTopologyManager) StartTrafficFlow(sourceID, destID string, direction model.FlowDirection, priority model.FlowPriority) *model.TrafficFlow {
	now := tm.clock.Now()
	flow := &model.TrafficFlow{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		DestID:    destID,
		Direction: direction,
		Priority:  priority,
		StartTime: now,
		Active:    true,
	}
	tm.traffic[flow.ID] = flow
	tm.touch()
	tm.emit(model.TopologyEvent{
		Type:      model.EventTrafficStarted,
		Timestamp: now,
		TrafficID: flow.ID,
		Data:      flow.Clone(),
	})
	return flow
}

// UpdateTrafficFlow applies a partial update to a flow, reporting
// whether it existed.
func (tm *NetworkTopologyManager) UpdateTrafficFlow(id string, patch model.TrafficFlowUpdate) bool {
	flow, ok := tm.traffic[id]
	if !ok {
		return false
	}
	if patch.Bytes != nil {
		flow.Bytes = *patch.Bytes
	}
	if patch.Packets != nil {
		flow.Packets = *patch.Packets
	}
	if patch.ThroughputBps != nil {
		flow.ThroughputBps = *patch.ThroughputBps
	}
	if patch.Priority != nil {
		flow.Priority = *patch.Priority
	}
	tm.touch()
	tm.emit(model.TopologyEvent{
		Type:      model.EventTrafficUpdated,
		Timestamp: tm.clock.Now(),
		TrafficID: id,
		Data:      flow.Clone(),
	})
	return true
}

// EndTrafficFlow closes a flow: active goes false and the end time is
// stamped. The record stays in the aggregate until the long-horizon
// purge removes it.
func (tm *NetworkTopologyManager) EndTrafficFlow(id string) bool {
	flow, ok := tm.traffic[id]
	if !ok {
		return false
	}
	now := tm.clock.Now()
	flow.Active = false
	flow.EndTime = now
	tm.touch()
	tm.emit(model.TopologyEvent{
		Type:      model.EventTrafficEnded,
		Timestamp: now,
		TrafficID: id,
		Data:      flow.Clone(),
	})
	return true
}

// GetTrafficFlow returns a flow by ID, or nil.
func (tm *NetworkTopologyManager) GetTrafficFlow(id string) *model.TrafficFlow {
	return tm.traffic[id]
}

//
// ---------- Snapshot ----------
//

// GetTopology returns a copy-on-read snapshot of the aggregate. The
// returned maps and records are copies; mutating them does not affect
// internal state.
func (tm *NetworkTopologyManager) GetTopology() model.NetworkTopology {
	topo := model.NetworkTopology{
		Nodes:       make(map[string]*model.StationNode, tm.stations.Count()),
		Links:       make(map[string]*model.ConnectionLink, tm.links.Count()),
		Routes:      make(map[string]*model.RoutePath, len(tm.routes)),
		Traffic:     make(map[string]*model.TrafficFlow, len(tm.traffic)),
		LastUpdated: tm.clock.Now(),
		Health:      tm.health,
	}
	for _, n := range tm.stations.GetAllNodes() {
		topo.Nodes[n.ID] = n.Clone()
	}
	for _, l := range tm.links.GetAllLinks() {
		topo.Links[l.ID] = l.Clone()
	}
	for id, r := range tm.routes {
		topo.Routes[id] = r.Clone()
	}
	for id, f := range tm.traffic {
		topo.Traffic[id] = f.Clone()
	}
	return topo
}

// Health returns the current derived health snapshot.
func (tm *NetworkTopologyManager) Health() model.NetworkHealth { return tm.health }

// LastUpdated returns the aggregate's last mutation time.
func (tm *NetworkTopologyManager) LastUpdated() time.Time { return tm.lastUpdated }
