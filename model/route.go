package model

import "time"

// RoutePath is a candidate multi-hop path between a source and a
// destination. Hops is the ordered station ID sequence including both
// endpoints. Several routes may exist for the same (source, destination)
// pair; IsOptimal is asserted by the data producer, never derived here.
type RoutePath struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"sourceId"`
	DestID      string    `json:"destId"`
	Hops        []string  `json:"hops"`
	DistanceKm  float64   `json:"distanceKm"`
	LatencyMs   float64   `json:"latencyMs"`
	Reliability float64   `json:"reliability"`
	IsOptimal   bool      `json:"isOptimal"`
	LastUsed    time.Time `json:"lastUsed"`

	// HopQualities carries the quality of each hop-adjacent link, in
	// hop order (len(Hops)-1 entries when populated).
	HopQualities []float64 `json:"hopQualities,omitempty"`
}

// HopCount returns the number of edges in the route.
func (r *RoutePath) HopCount() int {
	if len(r.Hops) < 2 {
		return 0
	}
	return len(r.Hops) - 1
}

// ContainsNode reports whether nodeID appears anywhere in the path.
func (r *RoutePath) ContainsNode(nodeID string) bool {
	if r.SourceID == nodeID || r.DestID == nodeID {
		return true
	}
	for _, hop := range r.Hops {
		if hop == nodeID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the route.
func (r *RoutePath) Clone() *RoutePath {
	c := *r
	c.Hops = append([]string(nil), r.Hops...)
	if r.HopQualities != nil {
		c.HopQualities = append([]float64(nil), r.HopQualities...)
	}
	return &c
}
