package layout

import (
	"math"

	"github.com/signalsfoundry/meshview/model"
)

// minSeparation is the floor applied to pair distances so repulsion
// between coincident nodes never divides by zero.
const minSeparation = 0.01

// layoutForce runs the spring embedder for the configured iteration
// budget. Repulsion acts between every node pair, attraction along
// active links scaled by link quality, plus a weak centering pull and
// boundary repulsion near the viewport edges. A linear cooling
// schedule caps velocity each iteration and reaches zero on the last
// one, so the pass always terminates settled.
func (e *Engine) layoutForce(nodes []*model.StationNode, links []*model.ConnectionLink) {
	n := len(nodes)
	if n == 0 {
		return
	}

	centerX := e.cfg.Width / 2
	centerY := e.cfg.Height / 2

	for _, node := range nodes {
		if _, ok := e.positions[node.ID]; !ok {
			e.seedPosition(node.ID, centerX, centerY)
		}
	}

	// Springs act only along active links whose endpoints are in this
	// pass; quality scales the pull.
	type spring struct {
		a, b    string
		quality float64
	}
	present := make(map[string]bool, n)
	for _, node := range nodes {
		present[node.ID] = true
	}
	springs := make([]spring, 0, len(links))
	for _, link := range links {
		if !link.Active || !present[link.SourceID] || !present[link.DestID] {
			continue
		}
		springs = append(springs, spring{a: link.SourceID, b: link.DestID, quality: link.Quality})
	}

	iterations := e.cfg.Iterations
	maxSpeed0 := 0.1 * math.Min(e.cfg.Width, e.cfg.Height)
	forces := make(map[string]Point, n)

	for iter := 0; iter < iterations; iter++ {
		for _, node := range nodes {
			forces[node.ID] = Point{}
		}

		// Pairwise inverse-square repulsion.
		for i := 0; i < n; i++ {
			pi := e.positions[nodes[i].ID]
			for j := i + 1; j < n; j++ {
				pj := e.positions[nodes[j].ID]
				dx := pi.X - pj.X
				dy := pi.Y - pj.Y
				dist := math.Max(math.Hypot(dx, dy), minSeparation)
				mag := e.cfg.Repulsion / (dist * dist)
				ux := dx / dist
				uy := dy / dist

				fi := forces[nodes[i].ID]
				fi.X += ux * mag
				fi.Y += uy * mag
				forces[nodes[i].ID] = fi

				fj := forces[nodes[j].ID]
				fj.X -= ux * mag
				fj.Y -= uy * mag
				forces[nodes[j].ID] = fj
			}
		}

		// Spring attraction toward the rest length.
		for _, s := range springs {
			pa := e.positions[s.a]
			pb := e.positions[s.b]
			dx := pb.X - pa.X
			dy := pb.Y - pa.Y
			dist := math.Max(math.Hypot(dx, dy), minSeparation)
			stretch := dist - e.cfg.LinkDistance
			mag := e.cfg.Attraction * s.quality * stretch
			ux := dx / dist
			uy := dy / dist

			fa := forces[s.a]
			fa.X += ux * mag
			fa.Y += uy * mag
			forces[s.a] = fa

			fb := forces[s.b]
			fb.X -= ux * mag
			fb.Y -= uy * mag
			forces[s.b] = fb
		}

		// Centering pull and boundary repulsion inside the node-size
		// margin.
		margin := e.cfg.NodeSize
		for _, node := range nodes {
			p := e.positions[node.ID]
			f := forces[node.ID]

			f.X += (centerX - p.X) * e.cfg.Centering
			f.Y += (centerY - p.Y) * e.cfg.Centering

			if p.X < margin {
				f.X += (margin - p.X) * 0.5
			}
			if p.X > e.cfg.Width-margin {
				f.X -= (p.X - (e.cfg.Width - margin)) * 0.5
			}
			if p.Y < margin {
				f.Y += (margin - p.Y) * 0.5
			}
			if p.Y > e.cfg.Height-margin {
				f.Y -= (p.Y - (e.cfg.Height - margin)) * 0.5
			}
			forces[node.ID] = f
		}

		// Velocity integration with damping and the cooling cap. The
		// cap hits zero on the final iteration.
		maxSpeed := maxSpeed0
		if iterations > 1 {
			maxSpeed = maxSpeed0 * float64(iterations-1-iter) / float64(iterations-1)
		} else {
			maxSpeed = 0
		}

		for _, node := range nodes {
			f := forces[node.ID]
			v := e.velocities[node.ID]
			v.X = (v.X + f.X) * e.cfg.Damping
			v.Y = (v.Y + f.Y) * e.cfg.Damping

			speed := math.Hypot(v.X, v.Y)
			if speed > maxSpeed {
				scale := 0.0
				if speed > 0 {
					scale = maxSpeed / speed
				}
				v.X *= scale
				v.Y *= scale
			}
			e.velocities[node.ID] = v

			p := e.positions[node.ID]
			p.X = clamp(p.X+v.X, 0, e.cfg.Width)
			p.Y = clamp(p.Y+v.Y, 0, e.cfg.Height)
			e.positions[node.ID] = p
		}
	}
}

// seedPosition places a brand-new node on a small circle around the
// viewport center so it joins the simulation near the existing mass.
func (e *Engine) seedPosition(id string, centerX, centerY float64) {
	radius := 0.05 * math.Min(e.cfg.Width, e.cfg.Height)
	angle := e.rng.Float64() * 2 * math.Pi
	e.positions[id] = Point{
		X: clamp(centerX+radius*math.Cos(angle), 0, e.cfg.Width),
		Y: clamp(centerY+radius*math.Sin(angle), 0, e.cfg.Height),
	}
	e.velocities[id] = Point{}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
