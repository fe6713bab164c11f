package model

import "time"

// NodeStatus is the administrative/reachability state of a station.
type NodeStatus string

const (
	NodeStatusActive      NodeStatus = "active"
	NodeStatusInactive    NodeStatus = "inactive"
	NodeStatusUnreachable NodeStatus = "unreachable"
)

// FrequencyBand is a coarse radio band classification used by the
// propagation-reliability estimator.
type FrequencyBand string

const (
	BandHF  FrequencyBand = "HF"
	BandVHF FrequencyBand = "VHF"
	BandUHF FrequencyBand = "UHF"
	BandSHF FrequencyBand = "SHF"
)

// GeoCoordinates is a WGS84-style position. Altitude, accuracy and the
// fix timestamp are optional and zero when unknown.
type GeoCoordinates struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude,omitempty"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// RFCharacteristics describes the radio parameters of a station or link.
type RFCharacteristics struct {
	FrequencyHz    float64       `json:"frequencyHz"`
	Band           FrequencyBand `json:"band"`
	PowerWatts     float64       `json:"powerWatts"`
	SignalStrength float64       `json:"signalStrength"` // dBm
	SNR            float64       `json:"snr"`            // dB
	NoiseFloor     float64       `json:"noiseFloor"`     // dBm
	BandwidthHz    float64       `json:"bandwidthHz"`
	Modulation     string        `json:"modulation,omitempty"`
}

// NodeCapabilities are the roles a station can play in the mesh.
type NodeCapabilities struct {
	CanRelay           bool     `json:"canRelay"`
	CanStore           bool     `json:"canStore"`
	IsGateway          bool     `json:"isGateway"`
	SupportedProtocols []string `json:"supportedProtocols,omitempty"`
}

// NodeMetrics accumulates per-station traffic counters.
type NodeMetrics struct {
	PacketsRelayed   uint64    `json:"packetsRelayed"`
	PacketsDropped   uint64    `json:"packetsDropped"`
	BytesTransferred uint64    `json:"bytesTransferred"`
	UptimeSince      time.Time `json:"uptimeSince,omitempty"`
}

// StationNode is a radio station participating in the mesh. The ID is
// opaque, generated at creation and never reused. The callsign is the
// display identity; it is treated as stable per node but is not
// guaranteed unique across the graph.
type StationNode struct {
	ID           string            `json:"id"`
	Callsign     string            `json:"callsign"`
	Status       NodeStatus        `json:"status"`
	Coordinates  GeoCoordinates    `json:"coordinates"`
	Equipment    string            `json:"equipment,omitempty"`
	RF           RFCharacteristics `json:"rf"`
	LastSeen     time.Time         `json:"lastSeen"`
	Capabilities NodeCapabilities  `json:"capabilities"`
	Metrics      NodeMetrics       `json:"metrics"`
}

// Clone returns a deep copy of the node, so snapshot consumers cannot
// mutate internal state through shared slices.
func (n *StationNode) Clone() *StationNode {
	c := *n
	if n.Capabilities.SupportedProtocols != nil {
		c.Capabilities.SupportedProtocols = append([]string(nil), n.Capabilities.SupportedProtocols...)
	}
	return &c
}

// StationNodeUpdate is a partial update applied to an existing station.
// Nil fields are left untouched.
type StationNodeUpdate struct {
	Callsign     *string
	Status       *NodeStatus
	Coordinates  *GeoCoordinates
	Equipment    *string
	RF           *RFCharacteristics
	Capabilities *NodeCapabilities
}
