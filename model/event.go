package model

import "time"

// EventType identifies a topology mutation kind. EventTopologyChanged
// is a catch-all that fires alongside every other event type.
type EventType string

const (
	EventNodeDiscovered  EventType = "node-discovered"
	EventNodeUpdated     EventType = "node-updated"
	EventNodeLost        EventType = "node-lost"
	EventLinkEstablished EventType = "link-established"
	EventLinkUpdated     EventType = "link-updated"
	EventLinkLost        EventType = "link-lost"
	EventRouteDiscovered EventType = "route-discovered"
	EventRouteUpdated    EventType = "route-updated"
	EventRouteExpired    EventType = "route-expired"
	EventTrafficStarted  EventType = "traffic-started"
	EventTrafficUpdated  EventType = "traffic-updated"
	EventTrafficEnded    EventType = "traffic-ended"
	EventTopologyChanged EventType = "topology-changed"
)

// EventTypes lists every concrete event type, catch-all included.
var EventTypes = []EventType{
	EventNodeDiscovered, EventNodeUpdated, EventNodeLost,
	EventLinkEstablished, EventLinkUpdated, EventLinkLost,
	EventRouteDiscovered, EventRouteUpdated, EventRouteExpired,
	EventTrafficStarted, EventTrafficUpdated, EventTrafficEnded,
	EventTopologyChanged,
}

// TopologyEvent is delivered synchronously to registered listeners.
// Exactly one of NodeID/LinkID/RouteID/TrafficID is set, matching the
// event type. Data carries the affected record (or removal detail).
type TopologyEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"nodeId,omitempty"`
	LinkID    string    `json:"linkId,omitempty"`
	RouteID   string    `json:"routeId,omitempty"`
	TrafficID string    `json:"trafficId,omitempty"`
	Data      any       `json:"data,omitempty"`
}
