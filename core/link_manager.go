package core

import (
	"fmt"
	"math"
	"time"

	"github.com/signalsfoundry/meshview/model"
	"github.com/signalsfoundry/meshview/timectrl"
)

// ConnectionLinkManager owns the set of link records and derives link
// quality from RF/propagation inputs. It operates on opaque station IDs
// and is independent of node storage.
//
// Single-writer, like StationNodeManager.
type ConnectionLinkManager struct {
	clock timectrl.Clock
	links map[string]*model.ConnectionLink
}

// NewConnectionLinkManager creates an empty manager. A nil clock falls
// back to the system clock.
func NewConnectionLinkManager(clock timectrl.Clock) *ConnectionLinkManager {
	if clock == nil {
		clock = timectrl.SystemClock{}
	}
	return &ConnectionLinkManager{
		clock: clock,
		links: make(map[string]*model.ConnectionLink),
	}
}

// LinkID derives the deterministic link ID for an unordered station
// pair. LinkID(a, b) == LinkID(b, a) for all a, b.
func LinkID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("link-%s-%s", a, b)
}

// EstablishLink creates (or re-establishes) the link between two
// stations. Quality is computed from the RF/propagation inputs; the
// link comes up active with its timestamps stamped from the clock.
func (m *ConnectionLinkManager) EstablishLink(sourceID, destID string, connType model.ConnectionType, protocol string, rf model.RFCharacteristics, prop model.PropagationConditions) *model.ConnectionLink {
	now := m.clock.Now()
	id := LinkID(sourceID, destID)

	if existing, ok := m.links[id]; ok {
		existing.Type = connType
		existing.Protocol = protocol
		existing.RF = rf
		existing.Propagation = prop
		existing.Quality = CalculateLinkQuality(rf, prop)
		existing.LastActive = now
		existing.Active = true
		return existing
	}

	link := &model.ConnectionLink{
		ID:          id,
		SourceID:    sourceID,
		DestID:      destID,
		Type:        connType,
		Protocol:    protocol,
		RF:          rf,
		Propagation: prop,
		Quality:     CalculateLinkQuality(rf, prop),
		Established: now,
		LastActive:  now,
		Active:      true,
	}
	m.links[id] = link
	return link
}

// GetLink returns the link with the given ID, or nil.
func (m *ConnectionLinkManager) GetLink(id string) *model.ConnectionLink {
	return m.links[id]
}

// GetAllLinks returns every link record.
func (m *ConnectionLinkManager) GetAllLinks() []*model.ConnectionLink {
	out := make([]*model.ConnectionLink, 0, len(m.links))
	for _, l := range m.links {
		out = append(out, l)
	}
	return out
}

// Count returns the number of links.
func (m *ConnectionLinkManager) Count() int { return len(m.links) }

// UpdateLink applies a partial update, reporting whether the link
// existed. Quality is recomputed whenever RF or propagation inputs
// change, so it can never go stale relative to them.
func (m *ConnectionLinkManager) UpdateLink(id string, patch model.ConnectionLinkUpdate) bool {
	link, ok := m.links[id]
	if !ok {
		return false
	}
	if patch.Protocol != nil {
		link.Protocol = *patch.Protocol
	}
	recompute := false
	if patch.RF != nil {
		link.RF = *patch.RF
		recompute = true
	}
	if patch.Propagation != nil {
		link.Propagation = *patch.Propagation
		recompute = true
	}
	if recompute {
		link.Quality = CalculateLinkQuality(link.RF, link.Propagation)
	}
	if patch.Active != nil {
		link.Active = *patch.Active
	}
	if patch.Metrics != nil {
		link.Metrics = *patch.Metrics
	}
	link.LastActive = m.clock.Now()
	return true
}

// RemoveLink deletes the link, reporting whether it existed.
func (m *ConnectionLinkManager) RemoveLink(id string) bool {
	if _, ok := m.links[id]; !ok {
		return false
	}
	delete(m.links, id)
	return true
}

// LinksTouching returns every link with nodeID as an endpoint.
func (m *ConnectionLinkManager) LinksTouching(nodeID string) []*model.ConnectionLink {
	var out []*model.ConnectionLink
	for _, l := range m.links {
		if l.Touches(nodeID) {
			out = append(out, l)
		}
	}
	return out
}

// CleanupStaleLinks removes links idle longer than maxAge and returns
// the removed IDs.
func (m *ConnectionLinkManager) CleanupStaleLinks(maxAge time.Duration) []string {
	now := m.clock.Now()
	var removed []string
	for id, l := range m.links {
		if now.Sub(l.LastActive) > maxAge {
			delete(m.links, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// CalculateLinkQuality summarizes link usability in [0,1]. Higher SNR,
// lower path loss, absence of multipath and lower atmospheric noise all
// raise the score; each term is individually clamped so the sum stays
// in range for any input.
func CalculateLinkQuality(rf model.RFCharacteristics, prop model.PropagationConditions) float64 {
	snrScore := clamp01(rf.SNR / 30.0)
	lossScore := 1 - clamp01(prop.PathLossDB/maxPathLossDB)
	noiseScore := 1 - clamp01(prop.AtmosphericNoise/60.0)
	multipathScore := 1.0
	if prop.Multipath {
		multipathScore = 0
	}

	q := 0.40*snrScore + 0.30*lossScore + 0.15*multipathScore + 0.15*noiseScore
	return clamp01(q)
}

// maxPathLossDB bounds the path-loss model for realistic inputs.
const maxPathLossDB = 200.0

// CalculatePathLoss returns a free-space-loss-style estimate in dB with
// a simple additive terrain correction, clamped to [0, 200].
//
// FSPL(dB) = 20 log10(d_km) + 20 log10(f_MHz) + 32.44
func CalculatePathLoss(distanceKm, frequencyHz float64, terrain model.TerrainType) float64 {
	if distanceKm < 0.01 {
		distanceKm = 0.01
	}
	fMHz := frequencyHz / 1e6
	if fMHz < 0.01 {
		fMHz = 0.01
	}

	loss := 20*math.Log10(distanceKm) + 20*math.Log10(fMHz) + 32.44
	loss += terrainCorrectionDB(terrain)

	if loss < 0 {
		return 0
	}
	if loss > maxPathLossDB {
		return maxPathLossDB
	}
	return loss
}

func terrainCorrectionDB(terrain model.TerrainType) float64 {
	switch terrain {
	case model.TerrainWater:
		return -3
	case model.TerrainSuburban:
		return 8
	case model.TerrainUrban:
		return 15
	case model.TerrainMountainous:
		return 20
	default: // rural or unspecified
		return 0
	}
}

// EstimatePropagationReliability returns a value in (0,1] that rises
// with transmit power and SNR and varies by band. In this simplified
// model HF carries further and more reliably than VHF/UHF/SHF.
func EstimatePropagationReliability(powerWatts, frequencyHz, snr float64, band model.FrequencyBand) float64 {
	base := 0.65
	switch band {
	case model.BandHF:
		base = 0.85
	case model.BandVHF:
		base = 0.75
	case model.BandUHF:
		base = 0.70
	case model.BandSHF:
		base = 0.60
	}

	r := base
	r += clamp01(powerWatts/100.0) * 0.08
	r += clamp01(snr/40.0) * 0.07
	// Higher carrier frequencies suffer slightly in this model.
	r -= clamp01(frequencyHz/10e9) * 0.05

	if r < 0.01 {
		r = 0.01
	}
	if r > 1 {
		r = 1
	}
	return r
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
