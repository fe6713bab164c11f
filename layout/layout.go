// Package layout maps station nodes to 2D positions within a viewport.
// Four algorithms are supported: a force-directed spring embedder, a
// geographic projection of station coordinates, a circle, and a grid.
package layout

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/signalsfoundry/meshview/core"
	"github.com/signalsfoundry/meshview/model"
)

// Algorithm selects the placement strategy.
type Algorithm string

const (
	AlgorithmForce      Algorithm = "force"
	AlgorithmGeographic Algorithm = "geographic"
	AlgorithmCircular   Algorithm = "circular"
	AlgorithmGrid       Algorithm = "grid"
)

// Point is a position in viewport units.
type Point struct {
	X float64
	Y float64
}

// Bounds is an axis-aligned rectangle in viewport units.
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Config tunes the engine. Zero values fall back to defaults in New,
// except Width/Height and Algorithm which are validated strictly.
type Config struct {
	Width     float64
	Height    float64
	Algorithm Algorithm

	// Force-directed tuning.
	Iterations   int     // fixed iteration budget, default 100
	Repulsion    float64 // pairwise inverse-square strength
	Attraction   float64 // spring coefficient on active links
	Damping      float64 // velocity damping factor in (0,1)
	Centering    float64 // pull toward viewport center
	NodeSize     float64 // boundary-repulsion margin
	LinkDistance float64 // spring rest length
	Seed         int64   // seeds placement of brand-new nodes
}

func (c *Config) applyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmForce
	}
	if c.Iterations == 0 {
		c.Iterations = 100
	}
	if c.Repulsion == 0 {
		c.Repulsion = 6000
	}
	if c.Attraction == 0 {
		c.Attraction = 0.06
	}
	if c.Damping == 0 {
		c.Damping = 0.85
	}
	if c.Centering == 0 {
		c.Centering = 0.02
	}
	if c.NodeSize == 0 {
		c.NodeSize = 20
	}
	if c.LinkDistance == 0 {
		c.LinkDistance = 120
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("layout: viewport %gx%g has zero area", c.Width, c.Height)
	}
	switch c.Algorithm {
	case AlgorithmForce, AlgorithmGeographic, AlgorithmCircular, AlgorithmGrid:
	default:
		return fmt.Errorf("layout: unsupported algorithm %q", c.Algorithm)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("layout: negative iteration budget %d", c.Iterations)
	}
	if c.Damping <= 0 || c.Damping >= 1 {
		return fmt.Errorf("layout: damping %g outside (0,1)", c.Damping)
	}
	return nil
}

// Engine computes and remembers node positions. Positions persist
// across CalculateLayout calls keyed by node ID, so incremental graph
// changes do not reset unrelated nodes. Not safe for concurrent use;
// callers serialize access the same way they do for the topology
// manager.
type Engine struct {
	cfg        Config
	positions  map[string]Point
	velocities map[string]Point
	rng        *rand.Rand
}

// New validates the configuration and constructs an engine.
// Configuration errors fail here, never later in a layout pass.
func New(cfg Config) (*Engine, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:        cfg,
		positions:  make(map[string]Point),
		velocities: make(map[string]Point),
		rng:        rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// CalculateLayout places every node and returns a copy of the
// resulting positions. Links are consulted only by the force-directed
// algorithm; the others ignore them.
func (e *Engine) CalculateLayout(nodes []*model.StationNode, links []*model.ConnectionLink) map[string]Point {
	switch e.cfg.Algorithm {
	case AlgorithmGeographic:
		e.layoutGeographic(nodes)
	case AlgorithmCircular:
		e.layoutCircular(nodes)
	case AlgorithmGrid:
		e.layoutGrid(nodes)
	default:
		e.layoutForce(nodes, links)
	}

	out := make(map[string]Point, len(nodes))
	for _, n := range nodes {
		out[n.ID] = e.positions[n.ID]
	}
	return out
}

// GetNodePosition returns the remembered position for a node.
func (e *Engine) GetNodePosition(id string) (Point, bool) {
	p, ok := e.positions[id]
	return p, ok
}

// SetNodePosition pins a node to a position, for drag interactions or
// externally computed placements.
func (e *Engine) SetNodePosition(id string, p Point) {
	e.positions[id] = p
	e.velocities[id] = Point{}
}

// ClearPositions drops all remembered positions and velocities. The
// next layout pass reseeds every node.
func (e *Engine) ClearPositions() {
	e.positions = make(map[string]Point)
	e.velocities = make(map[string]Point)
}

// GetBounds returns the bounding box of all current positions, or the
// full viewport when no positions are held.
func (e *Engine) GetBounds() Bounds {
	if len(e.positions) == 0 {
		return Bounds{MaxX: e.cfg.Width, MaxY: e.cfg.Height}
	}
	b := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, p := range e.positions {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

// UpdateViewport resizes the viewport. Zero-area viewports are
// rejected, matching construction.
func (e *Engine) UpdateViewport(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("layout: viewport %gx%g has zero area", width, height)
	}
	e.cfg.Width = width
	e.cfg.Height = height
	return nil
}

// Viewport reports the current viewport size.
func (e *Engine) Viewport() (width, height float64) {
	return e.cfg.Width, e.cfg.Height
}

// layoutGeographic projects station coordinates into the viewport
// through a 10%-padded bounding box, longitude on X and latitude
// inverted on Y so north is up.
func (e *Engine) layoutGeographic(nodes []*model.StationNode) {
	if len(nodes) == 0 {
		return
	}
	coords := make([]model.GeoCoordinates, len(nodes))
	for i, n := range nodes {
		coords[i] = n.Coordinates
	}
	bounds := core.BoundsOf(coords, 0.1)
	for _, n := range nodes {
		x, y := bounds.Project(n.Coordinates, e.cfg.Width, e.cfg.Height)
		e.positions[n.ID] = Point{X: x, Y: y}
		e.velocities[n.ID] = Point{}
	}
}

// layoutCircular places nodes evenly on a circle in input order.
func (e *Engine) layoutCircular(nodes []*model.StationNode) {
	if len(nodes) == 0 {
		return
	}
	centerX := e.cfg.Width / 2
	centerY := e.cfg.Height / 2
	radius := 0.3 * math.Min(e.cfg.Width, e.cfg.Height)
	step := 2 * math.Pi / float64(len(nodes))
	for i, n := range nodes {
		angle := step * float64(i)
		e.positions[n.ID] = Point{
			X: centerX + radius*math.Cos(angle),
			Y: centerY + radius*math.Sin(angle),
		}
		e.velocities[n.ID] = Point{}
	}
}

// layoutGrid places nodes row-major in a ceil(sqrt(n))-column grid,
// centered within a padded usable area.
func (e *Engine) layoutGrid(nodes []*model.StationNode) {
	n := len(nodes)
	if n == 0 {
		return
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols

	pad := e.cfg.NodeSize
	usableW := math.Max(e.cfg.Width-2*pad, 1)
	usableH := math.Max(e.cfg.Height-2*pad, 1)
	cellW := usableW / float64(cols)
	cellH := usableH / float64(rows)

	for i, node := range nodes {
		col := i % cols
		row := i / cols
		e.positions[node.ID] = Point{
			X: pad + (float64(col)+0.5)*cellW,
			Y: pad + (float64(row)+0.5)*cellH,
		}
		e.velocities[node.ID] = Point{}
	}
}
