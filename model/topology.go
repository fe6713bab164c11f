package model

import "time"

// NetworkHealth is a derived snapshot of network-wide condition. It is
// always recomputed from the current nodes/links/routes, never patched
// incrementally.
type NetworkHealth struct {
	ThroughputBps float64 `json:"throughputBps"`
	PacketLoss    float64 `json:"packetLoss"`   // ratio in [0,1]
	LatencyMs     float64 `json:"latencyMs"`    // mean route latency
	JitterMs      float64 `json:"jitterMs"`     // simplified proxy: 10% of latency
	Availability  float64 `json:"availability"` // active nodes / total nodes, [0,1]
}

// NetworkTopology is the aggregate snapshot returned by GetTopology.
// The maps are copies; mutating them does not affect engine state.
type NetworkTopology struct {
	Nodes       map[string]*StationNode    `json:"nodes"`
	Links       map[string]*ConnectionLink `json:"links"`
	Routes      map[string]*RoutePath      `json:"routes"`
	Traffic     map[string]*TrafficFlow    `json:"traffic"`
	LastUpdated time.Time                  `json:"lastUpdated"`
	Health      NetworkHealth              `json:"health"`
}

// TopologyStatistics summarizes graph shape and activity counts.
type TopologyStatistics struct {
	TotalNodes       int           `json:"totalNodes"`
	ActiveNodes      int           `json:"activeNodes"`
	TotalLinks       int           `json:"totalLinks"`
	ActiveLinks      int           `json:"activeLinks"`
	TotalRoutes      int           `json:"totalRoutes"`
	TotalTraffic     int           `json:"totalTraffic"`
	ActiveTraffic    int           `json:"activeTraffic"`
	PartitionCount   int           `json:"partitionCount"`
	LargestPartition int           `json:"largestPartition"`
	Diameter         int           `json:"diameter"`
	Health           NetworkHealth `json:"health"`
}
