package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/meshview/model"
	"github.com/signalsfoundry/meshview/timectrl"
)

// StationNodeManager owns the set of station records and answers
// geo-distance queries over them. It emits no events itself; the
// topology manager wraps its mutations and handles notification.
//
// The manager assumes a single writer. Callers needing concurrent
// access must serialize calls externally.
type StationNodeManager struct {
	clock timectrl.Clock
	nodes map[string]*model.StationNode
}

// NewStationNodeManager creates an empty manager. A nil clock falls
// back to the system clock.
func NewStationNodeManager(clock timectrl.Clock) *StationNodeManager {
	if clock == nil {
		clock = timectrl.SystemClock{}
	}
	return &StationNodeManager{
		clock: clock,
		nodes: make(map[string]*model.StationNode),
	}
}

// CreateNode registers a new station. The ID is generated and never
// reused; status defaults to active and metrics start zeroed.
func (m *StationNodeManager) CreateNode(callsign string, coords model.GeoCoordinates, equipment string, rf model.RFCharacteristics) *model.StationNode {
	now := m.clock.Now()
	node := &model.StationNode{
		ID:          uuid.NewString(),
		Callsign:    callsign,
		Status:      model.NodeStatusActive,
		Coordinates: coords,
		Equipment:   equipment,
		RF:          rf,
		LastSeen:    now,
		Metrics:     model.NodeMetrics{UptimeSince: now},
	}
	m.nodes[node.ID] = node
	return node
}

// GetNode returns the station with the given ID, or nil.
func (m *StationNodeManager) GetNode(id string) *model.StationNode {
	return m.nodes[id]
}

// GetAllNodes returns every station record.
func (m *StationNodeManager) GetAllNodes() []*model.StationNode {
	out := make([]*model.StationNode, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	return out
}

// Count returns the number of stations.
func (m *StationNodeManager) Count() int { return len(m.nodes) }

// UpdateNode applies a partial update. It reports whether the target
// existed; last-seen is refreshed on success.
func (m *StationNodeManager) UpdateNode(id string, patch model.StationNodeUpdate) bool {
	node, ok := m.nodes[id]
	if !ok {
		return false
	}
	if patch.Callsign != nil {
		node.Callsign = *patch.Callsign
	}
	if patch.Status != nil {
		node.Status = *patch.Status
	}
	if patch.Coordinates != nil {
		node.Coordinates = *patch.Coordinates
	}
	if patch.Equipment != nil {
		node.Equipment = *patch.Equipment
	}
	if patch.RF != nil {
		node.RF = *patch.RF
	}
	if patch.Capabilities != nil {
		node.Capabilities = *patch.Capabilities
	}
	node.LastSeen = m.clock.Now()
	return true
}

// UpdateNodeStatus sets the station status and refreshes last-seen.
func (m *StationNodeManager) UpdateNodeStatus(id string, status model.NodeStatus) bool {
	node, ok := m.nodes[id]
	if !ok {
		return false
	}
	node.Status = status
	node.LastSeen = m.clock.Now()
	return true
}

// UpdateRFCharacteristics replaces the station's RF parameters.
func (m *StationNodeManager) UpdateRFCharacteristics(id string, rf model.RFCharacteristics) bool {
	node, ok := m.nodes[id]
	if !ok {
		return false
	}
	node.RF = rf
	node.LastSeen = m.clock.Now()
	return true
}

// UpdateCoordinates moves the station.
func (m *StationNodeManager) UpdateCoordinates(id string, coords model.GeoCoordinates) bool {
	node, ok := m.nodes[id]
	if !ok {
		return false
	}
	node.Coordinates = coords
	node.LastSeen = m.clock.Now()
	return true
}

// UpdateNodeMetrics replaces the station's cumulative counters.
func (m *StationNodeManager) UpdateNodeMetrics(id string, metrics model.NodeMetrics) bool {
	node, ok := m.nodes[id]
	if !ok {
		return false
	}
	node.Metrics = metrics
	node.LastSeen = m.clock.Now()
	return true
}

// RemoveNode deletes the station, reporting whether it existed.
func (m *StationNodeManager) RemoveNode(id string) bool {
	if _, ok := m.nodes[id]; !ok {
		return false
	}
	delete(m.nodes, id)
	return true
}

// CalculateDistance returns the great-circle distance in kilometres
// between two stations. ok is false if either ID is unknown.
func (m *StationNodeManager) CalculateDistance(idA, idB string) (km float64, ok bool) {
	a, okA := m.nodes[idA]
	b, okB := m.nodes[idB]
	if !okA || !okB {
		return 0, false
	}
	return HaversineKm(a.Coordinates, b.Coordinates), true
}

// CalculateBearing returns the initial bearing in degrees [0,360) from
// one station toward another. ok is false if either ID is unknown.
func (m *StationNodeManager) CalculateBearing(fromID, toID string) (deg float64, ok bool) {
	from, okA := m.nodes[fromID]
	to, okB := m.nodes[toID]
	if !okA || !okB {
		return 0, false
	}
	return InitialBearingDeg(from.Coordinates, to.Coordinates), true
}

// FindNodesInRange returns every other station within rangeKm of the
// center station. An unknown center yields nil.
func (m *StationNodeManager) FindNodesInRange(centerID string, rangeKm float64) []*model.StationNode {
	center, ok := m.nodes[centerID]
	if !ok {
		return nil
	}
	var out []*model.StationNode
	for id, n := range m.nodes {
		if id == centerID {
			continue
		}
		if HaversineKm(center.Coordinates, n.Coordinates) <= rangeKm {
			out = append(out, n)
		}
	}
	return out
}

// CleanupStaleNodes removes stations whose last-seen is older than
// maxAge and returns the removed IDs.
func (m *StationNodeManager) CleanupStaleNodes(maxAge time.Duration) []string {
	now := m.clock.Now()
	var removed []string
	for id, n := range m.nodes {
		if now.Sub(n.LastSeen) > maxAge {
			delete(m.nodes, id)
			removed = append(removed, id)
		}
	}
	return removed
}
