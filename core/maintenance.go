package core

import (
	"context"
	"time"

	"github.com/signalsfoundry/meshview/internal/logging"
)

// MaintenanceTick drives the periodic sweeps from an external ticker
// (typically a timectrl.TimeController listener). Cleanup and health
// refresh each fire when their configured interval has elapsed since
// the last run. Stopping the controller cancels the cadence; each sweep
// is independently idempotent.
func (tm *NetworkTopologyManager) MaintenanceTick(now time.Time) {
	if now.Sub(tm.lastCleanup) >= tm.cfg.CleanupInterval {
		tm.lastCleanup = now
		tm.RunCleanup()
	}
	if now.Sub(tm.lastHealth) >= tm.cfg.HealthInterval {
		tm.lastHealth = now
		tm.RefreshHealth()
	}
}

// RunCleanup removes stations, links and routes past their staleness
// windows through the same cascading paths as explicit removal, then
// purges traffic-flow records past the long-horizon window.
func (tm *NetworkTopologyManager) RunCleanup() {
	now := tm.clock.Now()

	var staleNodes []string
	for _, n := range tm.stations.GetAllNodes() {
		if now.Sub(n.LastSeen) > tm.cfg.NodeStaleAfter {
			staleNodes = append(staleNodes, n.ID)
		}
	}
	for _, id := range staleNodes {
		tm.RemoveNode(id)
	}

	var staleLinks []string
	for _, l := range tm.links.GetAllLinks() {
		if now.Sub(l.LastActive) > tm.cfg.LinkStaleAfter {
			staleLinks = append(staleLinks, l.ID)
		}
	}
	for _, id := range staleLinks {
		tm.RemoveLink(id)
	}

	var staleRoutes []string
	for id, r := range tm.routes {
		if now.Sub(r.LastUsed) > tm.cfg.RouteStaleAfter {
			staleRoutes = append(staleRoutes, id)
		}
	}
	for _, id := range staleRoutes {
		tm.expireRoute(id)
	}

	// Traffic flows were already announced as ended; the purge itself
	// is silent.
	purgedFlows := 0
	for id, f := range tm.traffic {
		ref := f.EndTime
		if f.Active || ref.IsZero() {
			ref = f.StartTime
		}
		if now.Sub(ref) > tm.cfg.TrafficPurgeAfter {
			delete(tm.traffic, id)
			purgedFlows++
		}
	}

	if len(staleNodes)+len(staleLinks)+len(staleRoutes)+purgedFlows > 0 {
		tm.touch()
		tm.recomputeHealth()
		tm.log.Info(context.Background(), "cleanup sweep removed stale records",
			logging.Int("nodes", len(staleNodes)),
			logging.Int("links", len(staleLinks)),
			logging.Int("routes", len(staleRoutes)),
			logging.Int("traffic_flows", purgedFlows),
		)
	}
}

// RefreshHealth recomputes the health snapshot and graph-shape gauges
// without requiring a mutation.
func (tm *NetworkTopologyManager) RefreshHealth() {
	tm.recomputeHealth()
	tm.GetTopologyStatistics()
}
