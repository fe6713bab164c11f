package model

import "time"

// ConnectionType distinguishes over-the-air links from internet-backed ones.
type ConnectionType string

const (
	ConnectionRF       ConnectionType = "rf"
	ConnectionInternet ConnectionType = "internet"
)

// TerrainType parameterizes the path-loss correction applied on top of
// the free-space model.
type TerrainType string

const (
	TerrainRural       TerrainType = "rural"
	TerrainSuburban    TerrainType = "suburban"
	TerrainUrban       TerrainType = "urban"
	TerrainMountainous TerrainType = "mountainous"
	TerrainWater       TerrainType = "water"
)

// PropagationConditions captures the RF path between two stations.
type PropagationConditions struct {
	DistanceKm       float64 `json:"distanceKm"`
	AzimuthDeg       float64 `json:"azimuthDeg"`
	PathLossDB       float64 `json:"pathLossDb"`
	FadingMarginDB   float64 `json:"fadingMarginDb"`
	Multipath        bool    `json:"multipath"`
	AtmosphericNoise float64 `json:"atmosphericNoise"` // dB above reference floor
}

// LinkMetrics accumulates per-link traffic counters.
type LinkMetrics struct {
	ThroughputBps   float64 `json:"throughputBps"`
	PacketsSent     uint64  `json:"packetsSent"`
	PacketsReceived uint64  `json:"packetsReceived"`
	Errors          uint64  `json:"errors"`
}

// ConnectionLink is an undirected edge between two station IDs. Its ID
// is derived from the sorted endpoint pair, so the same unordered pair
// always maps to the same link regardless of call order.
type ConnectionLink struct {
	ID          string                `json:"id"`
	SourceID    string                `json:"sourceId"`
	DestID      string                `json:"destId"`
	Type        ConnectionType        `json:"type"`
	Protocol    string                `json:"protocol,omitempty"`
	RF          RFCharacteristics     `json:"rf"`
	Propagation PropagationConditions `json:"propagation"`

	// Quality summarizes link usability in [0,1]. It is recomputed from
	// RF/propagation inputs on every change, never patched in place.
	Quality float64 `json:"quality"`

	Established time.Time   `json:"established"`
	LastActive  time.Time   `json:"lastActive"`
	Active      bool        `json:"active"`
	Metrics     LinkMetrics `json:"metrics"`
}

// Touches reports whether the link has nodeID as either endpoint.
func (l *ConnectionLink) Touches(nodeID string) bool {
	return l.SourceID == nodeID || l.DestID == nodeID
}

// Clone returns a copy of the link.
func (l *ConnectionLink) Clone() *ConnectionLink {
	c := *l
	return &c
}

// ConnectionLinkUpdate is a partial update applied to an existing link.
// Nil fields are left untouched. Changing RF or Propagation forces a
// quality recomputation.
type ConnectionLinkUpdate struct {
	Protocol    *string
	RF          *RFCharacteristics
	Propagation *PropagationConditions
	Active      *bool
	Metrics     *LinkMetrics
}
