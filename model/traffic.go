package model

import "time"

// FlowDirection describes which way traffic moves over a flow's route.
type FlowDirection string

const (
	FlowBidirectional FlowDirection = "bidirectional"
	FlowSourceToDest  FlowDirection = "sourceToDestination"
	FlowDestToSource  FlowDirection = "destinationToSource"
)

// FlowPriority ranks traffic flows for display and triage.
type FlowPriority string

const (
	PriorityLow       FlowPriority = "low"
	PriorityNormal    FlowPriority = "normal"
	PriorityHigh      FlowPriority = "high"
	PriorityEmergency FlowPriority = "emergency"
)

// TrafficFlow is a transient communication session overlaid on the
// topology. Ended flows stay in the aggregate (inactive, with EndTime
// stamped) until the long-horizon purge removes them.
type TrafficFlow struct {
	ID            string        `json:"id"`
	SourceID      string        `json:"sourceId"`
	DestID        string        `json:"destId"`
	Direction     FlowDirection `json:"direction"`
	Priority      FlowPriority  `json:"priority"`
	StartTime     time.Time     `json:"startTime"`
	EndTime       time.Time     `json:"endTime,omitempty"`
	Bytes         uint64        `json:"bytes"`
	Packets       uint64        `json:"packets"`
	ThroughputBps float64       `json:"throughputBps"`
	Active        bool          `json:"active"`
}

// Touches reports whether the flow involves nodeID as either endpoint.
func (f *TrafficFlow) Touches(nodeID string) bool {
	return f.SourceID == nodeID || f.DestID == nodeID
}

// Clone returns a copy of the flow.
func (f *TrafficFlow) Clone() *TrafficFlow {
	c := *f
	return &c
}

// TrafficFlowUpdate is a partial update applied to a running flow.
type TrafficFlowUpdate struct {
	Bytes         *uint64
	Packets       *uint64
	ThroughputBps *float64
	Priority      *FlowPriority
}
