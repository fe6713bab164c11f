package core

import (
	"sort"

	"github.com/signalsfoundry/meshview/model"
)

//
// ---------- Route selection ----------
//

// FindOptimalRoute picks the best known route between two stations:
// any route flagged optimal wins; otherwise the highest reliability,
// tie-broken by lower total latency. Returns nil when no route matches.
func (tm *NetworkTopologyManager) FindOptimalRoute(sourceID, destID string) *model.RoutePath {
	var best *model.RoutePath
	for _, route := range tm.routes {
		if route.SourceID != sourceID || route.DestID != destID {
			continue
		}
		if best == nil || routeBetter(route, best) {
			best = route
		}
	}
	return best
}

// routeBetter reports whether a should be preferred over b.
func routeBetter(a, b *model.RoutePath) bool {
	if a.IsOptimal != b.IsOptimal {
		return a.IsOptimal
	}
	if a.Reliability != b.Reliability {
		return a.Reliability > b.Reliability
	}
	return a.LatencyMs < b.LatencyMs
}

// FindAllRoutes returns every route for the (source, dest) pair,
// optimal-flagged first, then by descending reliability.
func (tm *NetworkTopologyManager) FindAllRoutes(sourceID, destID string) []*model.RoutePath {
	var out []*model.RoutePath
	for _, route := range tm.routes {
		if route.SourceID == sourceID && route.DestID == destID {
			out = append(out, route)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsOptimal != out[j].IsOptimal {
			return out[i].IsOptimal
		}
		return out[i].Reliability > out[j].Reliability
	})
	return out
}

//
// ---------- Connectivity ----------
//

// GetConnectedNodes returns the neighbor IDs reachable from a station
// over exactly one active link, sorted for stable output.
func (tm *NetworkTopologyManager) GetConnectedNodes(id string) []string {
	neigh := make(map[string]struct{})
	for _, link := range tm.links.GetAllLinks() {
		if !link.Active {
			continue
		}
		switch id {
		case link.SourceID:
			neigh[link.DestID] = struct{}{}
		case link.DestID:
			neigh[link.SourceID] = struct{}{}
		}
	}
	out := make([]string, 0, len(neigh))
	for n := range neigh {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// DetectNetworkPartitions runs a breadth-first traversal over the
// active-link adjacency from each unvisited station and returns the
// connected components. A fully disconnected graph of n stations yields
// n singleton partitions.
func (tm *NetworkTopologyManager) DetectNetworkPartitions() [][]string {
	adjacency := make(map[string][]string)
	for _, link := range tm.links.GetAllLinks() {
		if !link.Active {
			continue
		}
		adjacency[link.SourceID] = append(adjacency[link.SourceID], link.DestID)
		adjacency[link.DestID] = append(adjacency[link.DestID], link.SourceID)
	}

	nodeIDs := make([]string, 0, tm.stations.Count())
	for _, n := range tm.stations.GetAllNodes() {
		nodeIDs = append(nodeIDs, n.ID)
	}
	sort.Strings(nodeIDs)

	visited := make(map[string]bool, len(nodeIDs))
	var partitions [][]string

	for _, start := range nodeIDs {
		if visited[start] {
			continue
		}
		var component []string
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			component = append(component, id)
			for _, next := range adjacency[id] {
				// Adjacency may reference IDs with no station record;
				// only traverse known nodes.
				if visited[next] {
					continue
				}
				if tm.stations.GetNode(next) == nil {
					continue
				}
				visited[next] = true
				queue = append(queue, next)
			}
		}
		partitions = append(partitions, component)
	}
	return partitions
}

// CalculateNetworkDiameter returns the maximum optimal-route hop count
// over all unordered station pairs, or 0 when there are fewer than two
// stations or no routes at all.
func (tm *NetworkTopologyManager) CalculateNetworkDiameter() int {
	if tm.stations.Count() < 2 || len(tm.routes) == 0 {
		return 0
	}
	nodes := tm.stations.GetAllNodes()
	diameter := 0
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			route := tm.FindOptimalRoute(nodes[i].ID, nodes[j].ID)
			if route == nil {
				route = tm.FindOptimalRoute(nodes[j].ID, nodes[i].ID)
			}
			if route == nil {
				continue
			}
			if hops := route.HopCount(); hops > diameter {
				diameter = hops
			}
		}
	}
	return diameter
}

//
// ---------- Statistics & health ----------
//

// GetTopologyStatistics summarizes counts, graph shape and health in
// one pass. Partition detection and diameter run here (and on health
// refresh), not on every mutation.
func (tm *NetworkTopologyManager) GetTopologyStatistics() model.TopologyStatistics {
	stats := model.TopologyStatistics{
		TotalNodes:  tm.stations.Count(),
		TotalLinks:  tm.links.Count(),
		TotalRoutes: len(tm.routes),
		Health:      tm.health,
	}
	for _, n := range tm.stations.GetAllNodes() {
		if n.Status == model.NodeStatusActive {
			stats.ActiveNodes++
		}
	}
	for _, l := range tm.links.GetAllLinks() {
		if l.Active {
			stats.ActiveLinks++
		}
	}
	for _, f := range tm.traffic {
		stats.TotalTraffic++
		if f.Active {
			stats.ActiveTraffic++
		}
	}

	partitions := tm.DetectNetworkPartitions()
	stats.PartitionCount = len(partitions)
	for _, p := range partitions {
		if len(p) > stats.LargestPartition {
			stats.LargestPartition = len(p)
		}
	}
	stats.Diameter = tm.CalculateNetworkDiameter()

	tm.cfg.Metrics.SetGraphShape(stats.PartitionCount, stats.LargestPartition, stats.Diameter)
	return stats
}

// recomputeHealth rebuilds the derived health snapshot from the current
// nodes, links and routes. It is a pure function of that state; nothing
// is patched incrementally.
func (tm *NetworkTopologyManager) recomputeHealth() {
	var h model.NetworkHealth

	var totalPackets, totalErrors uint64
	activeLinks := 0
	for _, l := range tm.links.GetAllLinks() {
		if l.Active {
			h.ThroughputBps += l.Metrics.ThroughputBps
			activeLinks++
		}
		totalPackets += l.Metrics.PacketsSent + l.Metrics.PacketsReceived
		totalErrors += l.Metrics.Errors
	}
	if totalPackets > 0 {
		h.PacketLoss = float64(totalErrors) / float64(totalPackets)
		if h.PacketLoss > 1 {
			h.PacketLoss = 1
		}
	}

	activeNodes := 0
	for _, n := range tm.stations.GetAllNodes() {
		if n.Status == model.NodeStatusActive {
			activeNodes++
		}
	}
	if total := tm.stations.Count(); total > 0 {
		h.Availability = float64(activeNodes) / float64(total)
	}

	if len(tm.routes) > 0 {
		sum := 0.0
		for _, r := range tm.routes {
			sum += r.LatencyMs
		}
		h.LatencyMs = sum / float64(len(tm.routes))
		h.JitterMs = h.LatencyMs * 0.1
	}

	tm.health = h
	tm.cfg.Metrics.SetHealth(h)

	activeFlows := 0
	for _, f := range tm.traffic {
		if f.Active {
			activeFlows++
		}
	}
	tm.cfg.Metrics.SetTopologyCounts(
		tm.stations.Count(), activeNodes,
		tm.links.Count(), activeLinks,
		len(tm.routes), len(tm.traffic), activeFlows,
	)
}
